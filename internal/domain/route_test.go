package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRouteTable(t *testing.T) {
	table := RouteTable{
		Home:         "",
		"diferencas": "/apps/diferencas/",
		"escala":     "/apps/escala/",
		"abandoned":  "",
	}

	if _, ok := table.Lookup(Home); ok {
		t.Error("home must not resolve to an address")
	}
	if _, ok := table.Lookup("nowhere"); ok {
		t.Error("unknown routes must not resolve to an address")
	}
	if _, ok := table.Lookup("abandoned"); ok {
		t.Error("routes without an address must not resolve")
	}
	if address, ok := table.Lookup("escala"); !ok || address != "/apps/escala/" {
		t.Errorf("unexpected lookup result: %q %t", address, ok)
	}

	if diff := cmp.Diff([]string{"diferencas", "escala"}, table.Names()); diff != "" {
		t.Error(diff)
	}
}

func TestNewSyncAuth(t *testing.T) {
	msg := NewSyncAuth(Identity{Subject: "s", Email: "6414@movebuss.local", Name: "Ana"}, "tok")
	expected := SyncAuth{
		Type:    SyncAuthType,
		Usuario: Usuario{Matricula: "6414", Email: "6414@movebuss.local", Nome: "Ana"},
		IDToken: "tok",
	}
	if diff := cmp.Diff(expected, msg); diff != "" {
		t.Error(diff)
	}
}

package domain

import (
	"strings"
	"time"
)

// Identity is what the identity provider knows about a signed in person. Subject is stable for the lifetime of
// the account; Email is the login identifier from which the handle is derived.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// Handle returns the identity's registration number ("matrícula").
func (i Identity) Handle() string {
	return Handle(i.Email)
}

// Account is the identity provider's credential record.
type Account struct {
	Subject  string
	Email    string
	Name     string
	Password string
	Created  time.Time
}

// User is the persisted user record, keyed by the identity's subject. Admin is a cache of
// IsElevated(Email, adminDomain) and is reconciled on every sign in.
type User struct {
	Subject   string    `json:"uid"       firestore:"uid"`
	Email     string    `json:"email"     firestore:"email"`
	Matricula string    `json:"matricula" firestore:"matricula"`
	Name      string    `json:"nome"      firestore:"nome"`
	Admin     bool      `json:"admin"     firestore:"admin"`
	Created   time.Time `json:"createdAt" firestore:"createdAt"`
}

// Handle returns the local part of an email-like login identifier, or the whole string when it has no '@'.
func Handle(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// IsElevated reports whether the login identifier belongs to the administrative domain.
func IsElevated(email, adminDomain string) bool {
	_, domain, found := strings.Cut(email, "@")
	if !found || adminDomain == "" {
		return false
	}
	return strings.EqualFold(domain, adminDomain)
}

// LoginEmail turns what people type in the login box into an email: a bare registration number gets the
// administrative domain appended.
func LoginEmail(login, adminDomain string) string {
	login = strings.ToLower(strings.TrimSpace(login))
	if login == "" || strings.Contains(login, "@") {
		return login
	}
	return login + "@" + strings.ToLower(adminDomain)
}

// NewUser builds the record created on first sign in.
func NewUser(id Identity, adminDomain string, now time.Time) User {
	handle := id.Handle()
	name := id.Name
	if name == "" {
		name = handle
	}
	return User{
		Subject:   id.Subject,
		Email:     id.Email,
		Matricula: handle,
		Name:      name,
		Admin:     IsElevated(id.Email, adminDomain),
		Created:   now,
	}
}

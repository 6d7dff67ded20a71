package web

import (
	"bufio"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sidereusnuntius/portal/internal/db"
	"github.com/sidereusnuntius/portal/internal/domain"
	"github.com/sidereusnuntius/portal/internal/frames"
	"go.uber.org/mock/gomock"
)

func TestShellPage(t *testing.T) {
	f := newFixture(t)
	f.svc.EXPECT().Caller(gomock.Any(), clerkID).Return(clerk, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/", nil), f.signIn(t, clerkID))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	b := body(t, rec)
	for _, s := range []string{`data-grace="2000"`, "11/06/2025", `data-route="escala"`, ">6414<", "Escala de folgas"} {
		if !strings.Contains(b, s) {
			t.Errorf("expected %q in the shell", s)
		}
	}
	if f.h.shells.Len() != 1 {
		t.Errorf("expected one open shell, got %d", f.h.shells.Len())
	}
}

func TestShellPageWithoutUserRecord(t *testing.T) {
	f := newFixture(t)
	f.svc.EXPECT().Caller(gomock.Any(), clerkID).Return(domain.User{}, db.ErrInternal)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/", nil), f.signIn(t, clerkID))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected the shell to render anyway, got %d", rec.Code)
	}
	if !strings.Contains(body(t, rec), "Olá, Maria") {
		t.Error("expected the identity's name as a fallback")
	}
}

// browse plays the shell page: it reports every requested frame as loaded and forwards every child
// acknowledgment, through the same endpoints the page uses.
func browse(ctx context.Context, f *fixture, sh *shell, cookies []*http.Cookie, shown chan<- string) {
	base := "/shell/" + sh.id
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-sh.hub.Events():
			switch ev.Name {
			case frames.LoadEvent:
				data := ev.Data.(frames.LoadData)
				f.do(httptest.NewRequest(http.MethodPost, base+"/loaded/"+data.Route, nil), cookies)
			case frames.SyncEvent:
				data := ev.Data.(frames.SyncData)
				ack, _ := json.Marshal(domain.AuthAck{Type: domain.AuthAckType, Nonce: data.Nonce})
				f.do(httptest.NewRequest(http.MethodPost, base+"/ack/"+data.Route, bytes.NewReader(ack)), cookies)
			case frames.ShowEvent:
				shown <- ev.Data.(string)
			}
		}
	}
}

func TestShowRoute(t *testing.T) {
	f := newFixture(t)
	cookies := f.signIn(t, clerkID)
	sh := f.h.openShell(clerkID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	shown := make(chan string, 4)
	go browse(ctx, f, sh, cookies, shown)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/shell/"+sh.id+"/show/escala", nil), cookies)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body)
	}
	select {
	case route := <-shown:
		if route != "escala" {
			t.Errorf("expected escala to be shown, got %s", route)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("the frame was never shown")
	}

	state := sh.registry.Entries()["escala"]
	if !state.Loaded || !state.Visible || state.Token != "tok-"+clerkID.Subject {
		t.Errorf("unexpected frame state %+v", state)
	}

	cases := []struct {
		target string
		code   int
	}{
		{"/shell/" + sh.id + "/show/home", http.StatusNoContent},
		{"/shell/" + sh.id + "/show/abastecimento", http.StatusNotFound},
		{"/shell/nope/show/escala", http.StatusNotFound},
	}
	for _, c := range cases {
		if rec := f.do(httptest.NewRequest(http.MethodPost, c.target, nil), cookies); rec.Code != c.code {
			t.Errorf("%s: expected %d, got %d", c.target, c.code, rec.Code)
		}
	}
}

func TestShowRouteWithoutPage(t *testing.T) {
	f := newFixture(t)
	f.h.Config.LoadTimeout = 20 * time.Millisecond
	cookies := f.signIn(t, clerkID)
	sh := f.h.openShell(clerkID)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/shell/"+sh.id+"/show/escala", nil), cookies)
	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("expected 504, got %d", rec.Code)
	}
}

func TestShellBelongsToItsUser(t *testing.T) {
	f := newFixture(t)
	sh := f.h.openShell(clerkID)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/shell/"+sh.id+"/show/escala", nil), f.signIn(t, adminID))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected another user's shell to be invisible, got %d", rec.Code)
	}
}

func TestFrameAck(t *testing.T) {
	f := newFixture(t)
	cookies := f.signIn(t, clerkID)
	sh := f.h.openShell(clerkID)
	if _, err := sh.hub.Embed("escala", "/apps/escala/"); err != nil {
		t.Fatal(err)
	}
	base := "/shell/" + sh.id

	cases := []struct {
		name   string
		target string
		body   string
		code   int
	}{
		{"malformed", base + "/ack/escala", "{", http.StatusBadRequest},
		{"wrong type", base + "/ack/escala", `{"type":"syncAuth","nonce":"x"}`, http.StatusBadRequest},
		{"forged nonce", base + "/ack/escala", `{"type":"authAck","nonce":"x"}`, http.StatusConflict},
		{"unknown route", base + "/ack/nowhere", `{"type":"authAck","nonce":"x"}`, http.StatusBadRequest},
		{"loaded", base + "/loaded/escala", "", http.StatusNoContent},
		{"loaded unknown route", base + "/loaded/nowhere", "", http.StatusNotFound},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := f.do(httptest.NewRequest(http.MethodPost, c.target, strings.NewReader(c.body)), cookies)
			if rec.Code != c.code {
				t.Errorf("expected %d, got %d", c.code, rec.Code)
			}
		})
	}
}

func TestShellEvents(t *testing.T) {
	f := newFixture(t)
	cookies := f.signIn(t, clerkID)
	sh := f.h.openShell(clerkID)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/shell/"+sh.id+"/events", nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if ct := res.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	sh.hub.Alert("Falha ao carregar")
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(res.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	expected := []string{"event: alert", `data: "Falha ao carregar"`}
	for _, want := range expected {
		select {
		case line := <-lines:
			if line != want {
				t.Fatalf("expected %q, got %q", want, line)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("no %q line", want)
		}
	}

	f.h.shells.remove(sh.id)
	timeout := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-lines:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("the stream should end when the shell closes")
		}
	}
}

func TestWriteEvent(t *testing.T) {
	var buf bytes.Buffer
	err := writeEvent(&buf, frames.Event{Name: frames.LoadEvent, Data: frames.LoadData{Route: "escala", Address: "/apps/escala/"}})
	if err != nil {
		t.Fatal(err)
	}
	expected := "event: load\ndata: {\"route\":\"escala\",\"address\":\"/apps/escala/\"}\n\n"
	if buf.String() != expected {
		t.Errorf("expected %q, got %q", expected, buf.String())
	}
}

func TestReap(t *testing.T) {
	f := newFixture(t)
	idle := f.h.openShell(clerkID)
	streaming := f.h.openShell(clerkID)
	f.h.shells.attach(streaming)

	f.h.shells.reap(time.Now().Add(2 * time.Minute))
	if _, ok := f.h.shells.get(idle.id, clerkID.Subject); ok {
		t.Error("the idle shell should be closed")
	}
	if _, ok := f.h.shells.get(streaming.id, clerkID.Subject); !ok {
		t.Error("a shell with an open stream should stay")
	}
	if err := idle.registry.ShowRoute(context.Background(), "escala"); err != frames.ErrClosed {
		t.Errorf("expected the idle shell's registry to be closed, got %v", err)
	}
}

func TestCloseShell(t *testing.T) {
	f := newFixture(t)
	cookies := f.signIn(t, clerkID)
	sh := f.h.openShell(clerkID)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/shell/"+sh.id+"/close", nil), cookies)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if f.h.shells.Len() != 0 {
		t.Error("expected the shell to be closed")
	}
	select {
	case <-sh.hub.Done():
	default:
		t.Error("expected the hub to be closed")
	}
}

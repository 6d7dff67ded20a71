package web

import (
	"context"
	"encoding/gob"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs"
	"github.com/go-chi/chi/v5"
	"github.com/sidereusnuntius/portal/internal/config"
	"github.com/sidereusnuntius/portal/internal/db"
	"github.com/sidereusnuntius/portal/internal/domain"
	"github.com/sidereusnuntius/portal/internal/identity"
	mock_db "github.com/sidereusnuntius/portal/internal/mocks"
	"github.com/sidereusnuntius/portal/internal/service"
	"github.com/sidereusnuntius/portal/internal/storage"
	"github.com/sidereusnuntius/portal/templates"
	"go.uber.org/mock/gomock"
)

const (
	sessionKey = "u46IpCV9y5Vlur8YvODJEhgOY8m9JVE4"
	password   = "correct horse battery staple"
)

var (
	now = time.Date(2025, time.June, 11, 14, 0, 0, 0, time.UTC)

	clerkID   = domain.Identity{Subject: "s-6414", Email: "6414@movebuss.local", Name: "Maria"}
	clerk     = domain.User{Subject: "s-6414", Email: "6414@movebuss.local", Matricula: "6414", Name: "Maria"}
	adminID   = domain.Identity{Subject: "s-chefe", Email: "chefe@movebuss.local", Name: "Chefe"}
	adminUser = domain.User{Subject: "s-chefe", Email: "chefe@movebuss.local", Matricula: "chefe", Name: "Chefe", Admin: true}
)

func TestMain(m *testing.M) {
	gob.Register(Session{})
	os.Exit(m.Run())
}

// fakeIdentity knows two accounts. Tokens are "tok-" followed by the subject.
type fakeIdentity struct {
	mu        sync.Mutex
	ids       map[string]domain.Identity
	changeErr error
	signedOut []string
	minted    int
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{ids: map[string]domain.Identity{
		clerkID.Subject: clerkID,
		adminID.Subject: adminID,
	}}
}

func (f *fakeIdentity) SignUp(ctx context.Context, name, login, password, confirmation string) (domain.Identity, error) {
	switch {
	case login == "6414":
		return domain.Identity{}, identity.ErrEmailInUse
	case password != confirmation:
		return domain.Identity{}, errors.Join(identity.ErrInvalidInput, errors.New("as senhas não conferem"))
	}
	id := domain.Identity{Subject: "s-" + login, Email: login + "@movebuss.local", Name: name}
	f.mu.Lock()
	f.ids[id.Subject] = id
	f.mu.Unlock()
	return id, nil
}

func (f *fakeIdentity) SignIn(ctx context.Context, login, pw string) (domain.Identity, time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.ids {
		if id.Handle() == login && pw == password {
			return id, now, nil
		}
	}
	return domain.Identity{}, time.Time{}, identity.ErrInvalidCredentials
}

func (f *fakeIdentity) ChangePassword(ctx context.Context, subject string, authTime time.Time, password string) error {
	return f.changeErr
}

func (f *fakeIdentity) SignOut(subject string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signedOut = append(f.signedOut, subject)
}

func (f *fakeIdentity) Token(ctx context.Context, subject string, force bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ids[subject]; !ok {
		return "", identity.ErrUnauthenticated
	}
	if force {
		f.minted++
	}
	return "tok-" + subject, nil
}

func (f *fakeIdentity) Verify(token string) (domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.ids[strings.TrimPrefix(token, "tok-")]
	if !ok || !strings.HasPrefix(token, "tok-") {
		return domain.Identity{}, identity.ErrInvalidToken
	}
	return id, nil
}

func (f *fakeIdentity) Subscribe(subject string, fn func(identity.Event)) func() {
	return func() {}
}

type fixture struct {
	h      *Handler
	router chi.Router
	svc    *mock_db.MockService
	ids    *fakeIdentity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	u, _ := url.Parse("https://portal.movebuss.local")
	cfg := &config.Configuration{
		Name:           "Portal",
		Url:            u,
		StaticDir:      "../../static",
		AdminDomain:    "movebuss.local",
		SignedOutGrace: 2 * time.Second,
		FrameStrategy:  config.LazyStrategy,
		PreloadTimeout: time.Second,
		LoadTimeout:    time.Second,
		AckTimeout:     time.Second,
		Routes: map[string]string{
			"home":       "",
			"diferencas": "/apps/diferencas/",
			"escala":     "/apps/escala/",
			"escalas":    "/apps/escalas/",
		},
	}

	tmpl, err := templates.New()
	if err != nil {
		t.Fatal(err)
	}
	ctrl := gomock.NewController(t)
	svc := mock_db.NewMockService(ctrl)
	ids := newFakeIdentity()
	shells := NewShells(time.Minute)
	t.Cleanup(shells.CloseAll)

	h := New(cfg, svc, ids, scs.NewCookieManager(sessionKey), tmpl, shells)
	h.now = func() time.Time { return now }
	r := chi.NewRouter()
	h.Mount(r)
	return &fixture{h: h, router: r, svc: svc, ids: ids}
}

// signIn returns the cookies of a session for id.
func (f *fixture) signIn(t *testing.T, id domain.Identity) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	err := f.h.SessionManager.Load(req).PutObject(rec, SessionKey, Session{
		Subject:  id.Subject,
		Email:    id.Email,
		Name:     id.Name,
		AuthTime: now,
	})
	if err != nil {
		t.Fatal(err)
	}
	return rec.Result().Cookies()
}

func (f *fixture) do(req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func form(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func body(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	b, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestAuthenticatedMiddleware(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/f/escalas/a.pdf", nil), nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected a redirect, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?prev=%2Ff%2Fescalas%2Fa.pdf" {
		t.Errorf("unexpected redirect target %q", loc)
	}

	cases := []*http.Request{
		httptest.NewRequest(http.MethodPost, "/password", nil),
		httptest.NewRequest(http.MethodGet, "/shell/abc/events", nil),
	}
	for _, req := range cases {
		rec := f.do(req, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", req.Method, req.URL.Path, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			t.Errorf("%s %s: expected a json error, got %q", req.Method, req.URL.Path, ct)
		}
	}
}

func TestLogin(t *testing.T) {
	cases := []struct {
		name     string
		target   string
		password string
		code     int
		location string
	}{
		{"wrong password", "/login", "errada", http.StatusUnauthorized, ""},
		{"success", "/login", password, http.StatusSeeOther, "/"},
		{"back to the requested page", "/login?prev=%2Ff%2Fa.pdf", password, http.StatusSeeOther, "/f/a.pdf"},
		{"no foreign redirects", "/login?prev=%2F%2Fevil.example", password, http.StatusSeeOther, "/"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture(t)
			if c.code == http.StatusSeeOther {
				f.svc.EXPECT().EnsureUser(gomock.Any(), clerkID).Return(clerk, nil)
			}

			rec := f.do(form(http.MethodPost, c.target, url.Values{"login": {"6414"}, "password": {c.password}}), nil)
			if rec.Code != c.code {
				t.Fatalf("expected %d, got %d", c.code, rec.Code)
			}
			if c.code != http.StatusSeeOther {
				if !strings.Contains(body(t, rec), "Matrícula ou senha inválidas.") {
					t.Error("expected the invalid credentials message")
				}
				return
			}
			if loc := rec.Header().Get("Location"); loc != c.location {
				t.Errorf("expected redirect to %q, got %q", c.location, loc)
			}
			if len(rec.Result().Cookies()) == 0 {
				t.Error("expected a session cookie")
			}
			if f.ids.minted != 1 {
				t.Errorf("expected one token minted on sign in, got %d", f.ids.minted)
			}
		})
	}
}

func TestLoginSurvivesBootstrapFailure(t *testing.T) {
	f := newFixture(t)
	f.svc.EXPECT().EnsureUser(gomock.Any(), clerkID).Return(domain.User{}, db.ErrInternal)

	rec := f.do(form(http.MethodPost, "/login", url.Values{"login": {"6414"}, "password": {password}}), nil)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Errorf("expected the sign in to go through, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestGetLogin(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/login?expired=1", nil), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(body(t, rec), "Sua sessão expirou.") {
		t.Error("expected the expired session notice")
	}

	rec = f.do(httptest.NewRequest(http.MethodGet, "/login", nil), f.signIn(t, clerkID))
	if rec.Code != http.StatusSeeOther {
		t.Errorf("a signed in user should be sent to the shell, got %d", rec.Code)
	}
}

func TestSignUp(t *testing.T) {
	cases := []struct {
		name    string
		login   string
		confirm string
		code    int
		message string
	}{
		{"taken", "6414", password, http.StatusConflict, "Essa matrícula já tem uma conta."},
		{"invalid", "7000", password + "!", http.StatusBadRequest, "as senhas não conferem"},
		{"success", "7000", password, http.StatusSeeOther, ""},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture(t)
			if c.code == http.StatusSeeOther {
				f.svc.EXPECT().EnsureUser(gomock.Any(), gomock.Any()).Return(domain.User{Matricula: c.login}, nil)
			}

			rec := f.do(form(http.MethodPost, "/signup", url.Values{
				"name":         {"Ana"},
				"login":        {c.login},
				"password":     {password},
				"confirmation": {c.confirm},
			}), nil)
			if rec.Code != c.code {
				t.Fatalf("expected %d, got %d", c.code, rec.Code)
			}
			if c.message != "" {
				b := body(t, rec)
				if !strings.Contains(b, c.message) {
					t.Errorf("expected %q in the page", c.message)
				}
				if !strings.Contains(b, `value="Ana"`) {
					t.Error("the name should be kept in the form")
				}
			}
		})
	}
}

func TestLogout(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/logout", nil), f.signIn(t, clerkID))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != LoginRoute {
		t.Errorf("expected a redirect to the login page, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if len(f.ids.signedOut) != 1 || f.ids.signedOut[0] != clerkID.Subject {
		t.Errorf("expected the subject to be signed out, got %v", f.ids.signedOut)
	}
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	cookies := f.signIn(t, clerkID)

	rec := f.do(form(http.MethodPost, "/password", url.Values{"password": {password}}), cookies)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	f.ids.changeErr = identity.ErrRequiresRecentLogin
	rec = f.do(form(http.MethodPost, "/password", url.Values{"password": {password}}), cookies)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var res map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res["redirect"] != "/login?expired=1" {
		t.Errorf("unexpected redirect %q", res["redirect"])
	}
	if len(f.ids.signedOut) != 1 {
		t.Error("expected a forced sign out")
	}
}

func TestGetCode(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{db.ErrNotFound, http.StatusNotFound},
		{storage.ErrNotExist, http.StatusNotFound},
		{service.ErrInvalidInput, http.StatusBadRequest},
		{service.ErrNotConfirmed, http.StatusBadRequest},
		{service.ErrForbidden, http.StatusForbidden},
		{identity.ErrInvalidToken, http.StatusUnauthorized},
		{identity.ErrRequiresRecentLogin, http.StatusUnauthorized},
		{identity.ErrEmailInUse, http.StatusConflict},
		{db.ErrConflict, http.StatusConflict},
		{db.ErrInternal, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, c := range cases {
		if code := GetCode(c.err); code != c.code {
			t.Errorf("%v: expected %d, got %d", c.err, c.code, code)
		}
	}
}

func TestFrameSecurityHeaders(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/apps/escala/", nil), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "SAMEORIGIN" {
		t.Errorf("unexpected X-Frame-Options %q", got)
	}
	if got := rec.Header().Get("Content-Security-Policy"); got != "frame-ancestors 'self'" {
		t.Errorf("unexpected Content-Security-Policy %q", got)
	}
	if !strings.Contains(body(t, rec), `data-origin="https://portal.movebuss.local"`) {
		t.Error("the application page should carry the portal origin")
	}

	rec = f.do(httptest.NewRequest(http.MethodGet, "/apps/abastecimento/", nil), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown application, got %d", rec.Code)
	}
}

func TestStaticFiles(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/static/child.js", nil), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(body(t, rec), "authAck") {
		t.Error("unexpected content for child.js")
	}
}

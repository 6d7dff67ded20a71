package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/portal/internal/domain"
	"github.com/sidereusnuntius/portal/internal/identity"
	"github.com/sidereusnuntius/portal/templates"
)

const SessionKey = "user"

// Session is what the cookie remembers about a signed in user. AuthTime is when the password was last checked.
type Session struct {
	Subject  string
	Email    string
	Name     string
	AuthTime time.Time
}

func (s Session) Identity() domain.Identity {
	return domain.Identity{Subject: s.Subject, Email: s.Email, Name: s.Name}
}

type key struct{}

func GetSession(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(key{}).(Session)
	return s, ok
}

// AuthenticatedMiddleware sends page requests without a session to the login page and refuses the others.
func AuthenticatedMiddleware(h *Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := GetSession(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}
			if r.Method == http.MethodGet && !strings.HasPrefix(r.URL.Path, "/shell/") {
				http.Redirect(w, r, LoginRoute+"?prev="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
				return
			}
			writeError(w, identity.ErrUnauthenticated)
		})
	}
}

func SessionMiddleware(h *Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := h.SessionManager.Load(r)
			var s Session
			err := session.GetObject(SessionKey, &s)
			if err == nil && s.Subject != "" {
				r = r.WithContext(context.WithValue(r.Context(), key{}, s))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// startSession stores the session cookie and runs the sign in bootstrap: the user record is reconciled and a
// fresh token is minted, which also reaches every shell the user already has open.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, id domain.Identity, authTime time.Time) error {
	ctx := r.Context()
	err := h.SessionManager.Load(r).PutObject(w, SessionKey, Session{
		Subject:  id.Subject,
		Email:    id.Email,
		Name:     id.Name,
		AuthTime: authTime,
	})
	if err != nil {
		return err
	}

	if _, err = h.service.EnsureUser(ctx, id); err != nil {
		log.Error().Err(err).Str("subject", id.Subject).Msg("sign in bootstrap failed")
	}
	if _, err = h.identity.Token(ctx, id.Subject, true); err != nil {
		log.Error().Err(err).Str("subject", id.Subject).Msg("failed to mint token on sign in")
	}
	return nil
}

func Login(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			h.renderLogin(w, r, "", "Formulário inválido.")
			return
		}

		login := r.Form.Get("login")
		id, authTime, err := h.identity.SignIn(r.Context(), login, r.Form.Get("password"))
		if err != nil {
			msg := "Não foi possível entrar. Tente novamente."
			if errors.Is(err, identity.ErrInvalidCredentials) {
				msg = "Matrícula ou senha inválidas."
			} else {
				log.Error().Err(err).Msg("sign in failed")
			}
			w.WriteHeader(GetCode(err))
			h.renderLogin(w, r, login, msg)
			return
		}

		if err = h.startSession(w, r, id, authTime); err != nil {
			log.Error().Err(err).Str("subject", id.Subject).Msg("failed to store session")
			w.WriteHeader(http.StatusInternalServerError)
			h.renderLogin(w, r, login, "Falha ao criar a sessão.")
			return
		}
		log.Info().Str("subject", id.Subject).Str("matricula", id.Handle()).Msg("signed in")
		http.Redirect(w, r, redirectTarget(r.URL.Query().Get("prev")), http.StatusSeeOther)
	}
}

// redirectTarget only follows local paths.
func redirectTarget(prev string) string {
	if prev == "" || !strings.HasPrefix(prev, "/") || strings.HasPrefix(prev, "//") {
		return "/"
	}
	return prev
}

func GetLogin(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSession(r.Context()); ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		h.renderLogin(w, r, "", "")
	}
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, login, msg string) {
	action := LoginRoute
	if prev := r.URL.Query().Get("prev"); prev != "" {
		action += "?prev=" + url.QueryEscape(prev)
	}
	data := templates.AuthData{
		Name:   h.Config.Name,
		Action: action,
		Login:  login,
		Error:  msg,
	}
	if r.URL.Query().Get("expired") != "" {
		data.Notice = "Sua sessão expirou. Entre novamente."
	}
	if err := h.templates.Render(w, templates.LoginPage, data); err != nil {
		log.Error().Err(err).Msg("failed to render login page")
	}
}

func Logout(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s, ok := GetSession(r.Context()); ok {
			h.identity.SignOut(s.Subject)
			log.Info().Str("subject", s.Subject).Msg("signed out")
		}
		if err := h.SessionManager.Load(r).Destroy(w); err != nil {
			log.Error().Err(err).Msg("failed to destroy session")
		}
		http.Redirect(w, r, LoginRoute, http.StatusSeeOther)
	}
}

// ChangePassword replaces the signed in user's password. When the login is too old the user is signed out and
// told to sign in again.
func ChangePassword(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, _ := GetSession(r.Context())
		if err := r.ParseMultipartForm(MaxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			writeError(w, err)
			return
		}

		err := h.identity.ChangePassword(r.Context(), s.Subject, s.AuthTime, r.FormValue("password"))
		switch {
		case err == nil:
			log.Info().Str("subject", s.Subject).Msg("password changed")
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, identity.ErrRequiresRecentLogin):
			h.identity.SignOut(s.Subject)
			if dErr := h.SessionManager.Load(r).Destroy(w); dErr != nil {
				log.Error().Err(dErr).Msg("failed to destroy session")
			}
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error":    "Por segurança, entre novamente antes de trocar a senha.",
				"redirect": LoginRoute + "?expired=1",
			})
		default:
			writeError(w, err)
		}
	}
}

package web

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/portal/internal/db"
	"github.com/sidereusnuntius/portal/internal/identity"
	"github.com/sidereusnuntius/portal/internal/service"
	"github.com/sidereusnuntius/portal/internal/storage"
	"github.com/sidereusnuntius/portal/templates"
)

func SignUp(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			h.renderSignup(w, templates.AuthData{Error: "Formulário inválido."})
			return
		}

		data := templates.AuthData{
			DisplayName: r.Form.Get("name"),
			Login:       r.Form.Get("login"),
		}
		id, err := h.identity.SignUp(r.Context(), data.DisplayName, data.Login, r.Form.Get("password"), r.Form.Get("confirmation"))
		if err != nil {
			switch {
			case errors.Is(err, identity.ErrEmailInUse):
				data.Error = "Essa matrícula já tem uma conta."
			case errors.Is(err, identity.ErrInvalidInput):
				data.Error = err.Error()
			default:
				log.Error().Err(err).Msg("sign up failed")
				data.Error = "Não foi possível criar a conta."
			}
			w.WriteHeader(GetCode(err))
			h.renderSignup(w, data)
			return
		}

		if err = h.startSession(w, r, id, h.now()); err != nil {
			log.Error().Err(err).Str("subject", id.Subject).Msg("failed to store session")
			http.Redirect(w, r, LoginRoute, http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (h *Handler) renderSignup(w http.ResponseWriter, data templates.AuthData) {
	data.Name = h.Config.Name
	data.Action = SignUpRoute
	if err := h.templates.Render(w, templates.SignUpPage, data); err != nil {
		log.Error().Err(err).Msg("failed to render sign up page")
	}
}

func GetSignup(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.renderSignup(w, templates.AuthData{})
	}
}

// GetCode maps an error to the status code of the response that reports it.
func GetCode(err error) int {
	switch {
	case errors.Is(err, db.ErrNotFound), errors.Is(err, storage.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, identity.ErrInvalidInput),
		errors.Is(err, service.ErrNotConfirmed), errors.Is(err, storage.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, identity.ErrUnauthenticated), errors.Is(err, identity.ErrInvalidToken),
		errors.Is(err, identity.ErrInvalidCredentials), errors.Is(err, identity.ErrRequiresRecentLogin):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrConflict), errors.Is(err, db.ErrConflict),
		errors.Is(err, identity.ErrEmailInUse), errors.Is(err, storage.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

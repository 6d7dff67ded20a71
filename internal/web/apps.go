package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/portal/templates"
)

type app struct {
	page  string
	title string
}

var apps = map[string]app{
	"diferencas": {templates.DiferencasPage, "Diferenças de caixa"},
	"escala":     {templates.EscalaPage, "Escala de folgas"},
	"escalas":    {templates.EscalasPage, "Escalas"},
}

// AppPage serves the page of an embedded application. The page holds no data: it waits for the shell to push
// a token and then talks to the API.
func AppPage(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := apps[chi.URLParam(r, "app")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		err := h.templates.Render(w, a.page, templates.AppData{
			Title:  a.title,
			Origin: h.Config.Origin(),
		})
		if err != nil {
			log.Error().Err(err).Str("page", a.page).Msg("failed to render application")
		}
	}
}

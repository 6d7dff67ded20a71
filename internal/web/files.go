package web

import (
	"mime"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// GetFile serves a stored file to a signed in user.
func GetFile(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := chi.URLParam(r, "*")
		file, err := h.service.OpenFile(r.Context(), p)
		if err != nil {
			code := GetCode(err)
			if code == http.StatusInternalServerError {
				log.Error().Err(err).Str("path", p).Msg("failed to open file")
			}
			http.Error(w, http.StatusText(code), code)
			return
		}

		mimeType := mime.TypeByExtension(path.Ext(p))
		if mimeType == "" {
			mimeType = http.DetectContentType(file)
		}
		w.Header().Set("Content-Type", mimeType)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		if _, err = w.Write(file); err != nil {
			log.Warn().Err(err).Str("path", p).Msg("failed to send file")
		}
	}
}

package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/portal/internal/config"
	"github.com/sidereusnuntius/portal/internal/domain"
	"github.com/sidereusnuntius/portal/internal/frames"
	"github.com/sidereusnuntius/portal/templates"
)

const pingInterval = 25 * time.Second

var routeLabels = map[string]string{
	"diferencas": "Diferenças de caixa",
	"escala":     "Escala de folgas",
	"escalas":    "Escalas",
}

// shell is one open shell page: its frame registry and the hub that drives the page's iframes.
type shell struct {
	id       string
	subject  string
	hub      *frames.Hub
	registry *frames.Registry
	preload  sync.Once

	streams int
	idle    time.Time
}

func (s *shell) close() {
	s.registry.Close()
	s.hub.Close()
}

// Shells tracks the open shells. A shell whose page has had no event stream for longer than the idle timeout
// is closed by Reap.
type Shells struct {
	mu     sync.Mutex
	shells map[string]*shell
	idle   time.Duration
}

func NewShells(idle time.Duration) *Shells {
	return &Shells{shells: map[string]*shell{}, idle: idle}
}

func (s *Shells) add(sh *shell) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh.idle = time.Now()
	s.shells[sh.id] = sh
}

// get returns the shell only to the user who opened it.
func (s *Shells) get(id, subject string) (*shell, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shells[id]
	if !ok || sh.subject != subject {
		return nil, false
	}
	return sh, true
}

func (s *Shells) attach(sh *shell) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh.streams++
}

func (s *Shells) detach(sh *shell) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh.streams--
	sh.idle = time.Now()
}

func (s *Shells) remove(id string) {
	s.mu.Lock()
	sh, ok := s.shells[id]
	delete(s.shells, id)
	s.mu.Unlock()
	if ok {
		sh.close()
	}
}

func (s *Shells) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shells)
}

func (s *Shells) reap(now time.Time) {
	s.mu.Lock()
	var stale []*shell
	for id, sh := range s.shells {
		if sh.streams == 0 && now.Sub(sh.idle) > s.idle {
			stale = append(stale, sh)
			delete(s.shells, id)
		}
	}
	s.mu.Unlock()

	for _, sh := range stale {
		log.Debug().Str("shell", sh.id).Str("subject", sh.subject).Msg("closing idle shell")
		sh.close()
	}
}

// Reap closes idle shells until ctx is done, then closes every shell.
func (s *Shells) Reap(ctx context.Context) {
	ticker := time.NewTicker(s.idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.CloseAll()
			return
		case now := <-ticker.C:
			s.reap(now)
		}
	}
}

func (s *Shells) CloseAll() {
	s.mu.Lock()
	all := s.shells
	s.shells = map[string]*shell{}
	s.mu.Unlock()
	for _, sh := range all {
		sh.close()
	}
}

func (h *Handler) openShell(id domain.Identity) *shell {
	hub := frames.NewHub(h.Config.Origin())
	sh := &shell{
		id:       uuid.NewString(),
		subject:  id.Subject,
		hub:      hub,
		registry: frames.New(id, frames.OptionsFrom(h.Config), hub, h.identity, h.identity, hub),
	}
	h.shells.add(sh)
	return sh
}

func (h *Handler) routeLinks() []templates.RouteLink {
	table := domain.RouteTable(h.Config.Routes)
	links := make([]templates.RouteLink, 0, len(table))
	for _, name := range table.Names() {
		label, ok := routeLabels[name]
		if !ok {
			label = name
		}
		links = append(links, templates.RouteLink{Name: name, Label: label})
	}
	return links
}

// ShellPage renders the shell and opens its registry.
func ShellPage(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		s, _ := GetSession(ctx)
		id := s.Identity()

		name := id.Name
		if user, err := h.service.Caller(ctx, id); err != nil {
			log.Error().Err(err).Str("subject", id.Subject).Msg("no user record for shell")
		} else if user.Name != "" {
			name = user.Name
		}

		sh := h.openShell(id)
		err := h.templates.Render(w, templates.ShellPage, templates.ShellData{
			Name:        h.Config.Name,
			ShellID:     sh.id,
			Handle:      id.Handle(),
			User:        name,
			Today:       h.now().Format("02/01/2006"),
			Routes:      h.routeLinks(),
			GraceMillis: h.Config.SignedOutGrace.Milliseconds(),
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to render shell")
		}
	}
}

func (h *Handler) shellFor(r *http.Request) (*shell, bool) {
	s, _ := GetSession(r.Context())
	return h.shells.get(chi.URLParam(r, "id"), s.Subject)
}

func writeEvent(w io.Writer, ev frames.Event) error {
	b, err := json.Marshal(ev.Data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, b)
	return err
}

// ShellEvents streams the shell's events to its page. With the eager strategy the first stream starts
// preloading every application.
func ShellEvents(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sh, ok := h.shellFor(r)
		if !ok {
			http.Error(w, "unknown shell", http.StatusNotFound)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		h.shells.attach(sh)
		defer h.shells.detach(sh)

		if h.Config.FrameStrategy == config.EagerStrategy {
			sh.preload.Do(func() {
				go func() {
					if err := sh.registry.Preload(context.Background()); err != nil {
						log.Info().Err(err).Str("shell", sh.id).Msg("preload finished early")
					}
				}()
			})
		}

		ping := time.NewTicker(pingInterval)
		defer ping.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case <-sh.hub.Done():
				return
			case <-ping.C:
				if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
					return
				}
			case ev := <-sh.hub.Events():
				if err := writeEvent(w, ev); err != nil {
					log.Warn().Err(err).Str("shell", sh.id).Str("event", ev.Name).Msg("failed to write shell event")
					return
				}
			}
			flusher.Flush()
		}
	}
}

func ShowRoute(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sh, ok := h.shellFor(r)
		if !ok {
			http.Error(w, "unknown shell", http.StatusNotFound)
			return
		}

		route := chi.URLParam(r, "route")
		err := sh.registry.ShowRoute(r.Context(), route)
		switch {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, frames.ErrUnknownRoute):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, frames.ErrLoadTimeout):
			http.Error(w, err.Error(), http.StatusGatewayTimeout)
		case errors.Is(err, frames.ErrClosed):
			http.Error(w, err.Error(), http.StatusGone)
		default:
			http.Error(w, err.Error(), http.StatusBadGateway)
		}
	}
}

func FrameLoaded(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sh, ok := h.shellFor(r)
		if !ok {
			http.Error(w, "unknown shell", http.StatusNotFound)
			return
		}
		if err := sh.hub.Loaded(chi.URLParam(r, "route")); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func FrameAck(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sh, ok := h.shellFor(r)
		if !ok {
			http.Error(w, "unknown shell", http.StatusNotFound)
			return
		}

		var ack domain.AuthAck
		if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&ack); err != nil {
			http.Error(w, "malformed acknowledgment", http.StatusBadRequest)
			return
		}
		ack.Route = chi.URLParam(r, "route")

		err := sh.hub.Ack(ack)
		switch {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, frames.ErrUnknownAck):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
}

func CloseShell(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sh, ok := h.shellFor(r); ok {
			h.shells.remove(sh.id)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

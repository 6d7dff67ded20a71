// Package frames keeps the child applications embedded in a shell supplied with the signed in user's current
// ID token. A Registry belongs to one open shell; it decides which child application is visible, loads the
// applications lazily or ahead of time, and pushes the token into every loaded application whenever the token
// changes.
package frames

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/portal/internal/config"
	"github.com/sidereusnuntius/portal/internal/domain"
	"github.com/sidereusnuntius/portal/internal/identity"
)

var (
	ErrUnknownRoute = errors.New("unknown route")
	ErrLoadTimeout  = errors.New("timed out loading application")
	ErrAckTimeout   = errors.New("timed out waiting for token acknowledgment")
	ErrClosed       = errors.New("shell closed")
)

// Frame is one embedded child application.
type Frame interface {
	// Load starts loading the application and blocks until it reports it is ready.
	Load(ctx context.Context) error
	// Post delivers a message to the application and blocks until the application acknowledges it.
	Post(ctx context.Context, msg domain.SyncAuth) error
	SetVisible(visible bool)
}

// Embedder creates the frame of a route.
type Embedder interface {
	Embed(route, address string) (Frame, error)
}

type TokenSource interface {
	Token(ctx context.Context, subject string, force bool) (string, error)
}

// Notifier delivers identity events for a subject until the returned function is called.
type Notifier interface {
	Subscribe(subject string, fn func(identity.Event)) (cancel func())
}

// Surface is the part of the shell page that is not a child application.
type Surface interface {
	// Loading toggles the blocking loading indicator.
	Loading(on bool)
	Alert(msg string)
	Dashboard(visible bool)
	// Session tells the page whether the user is still signed in.
	Session(signedIn bool)
}

type Options struct {
	Routes   domain.RouteTable
	Strategy string
	// PreloadTimeout bounds how long Preload waits for the applications it started loading.
	PreloadTimeout time.Duration
	LoadTimeout    time.Duration
	AckTimeout     time.Duration
}

// OptionsFrom reads the registry options from the configuration.
func OptionsFrom(cfg *config.Configuration) Options {
	return Options{
		Routes:         domain.RouteTable(cfg.Routes),
		Strategy:       cfg.FrameStrategy,
		PreloadTimeout: cfg.PreloadTimeout,
		LoadTimeout:    cfg.LoadTimeout,
		AckTimeout:     cfg.AckTimeout,
	}
}

// entry is the registry's record of one child application.
type entry struct {
	route   string
	address string
	frame   Frame
	// ready is closed once the first load finished; err holds its outcome.
	ready   chan struct{}
	err     error
	loaded  bool
	visible bool
	pushes  int
	token   string
}

// EntryState is a snapshot of an entry.
type EntryState struct {
	Route   string
	Loaded  bool
	Visible bool
	// Pushes counts the token pushes attempted into the application.
	Pushes int
	// Token is the last token pushed.
	Token string
}

type Registry struct {
	opts     Options
	embedder Embedder
	tokens   TokenSource
	surface  Surface

	ctx    context.Context
	cancel context.CancelFunc
	stop   func()

	// broadcast serializes token pushes, so that a token fetched later is never overwritten by one fetched
	// earlier.
	broadcast sync.Mutex

	// view serializes changes to what the page shows. nav counts navigations; a show only reveals its
	// application while nav still holds the value it started with. loading counts the shows in progress.
	view    sync.Mutex
	nav     uint64
	loading int

	mu        sync.Mutex
	id        domain.Identity
	signedIn  bool
	entries   map[string]*entry
	current   string
	preloaded bool
	closed    bool
}

// New returns the registry of a shell opened by id. The registry follows id's identity events until Close.
func New(id domain.Identity, opts Options, embedder Embedder, tokens TokenSource, notifier Notifier, surface Surface) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		opts:     opts,
		embedder: embedder,
		tokens:   tokens,
		surface:  surface,
		ctx:      ctx,
		cancel:   cancel,
		id:       id,
		signedIn: id.Subject != "",
		entries:  map[string]*entry{},
		current:  domain.Home,
	}
	r.stop = notifier.Subscribe(id.Subject, r.HandleEvent)
	return r
}

// ShowRoute makes the route's application the only visible one. The application is loaded on its first visit,
// receives the current token, and is only revealed after the token push was attempted. A failed load is
// reported on the surface and leaves whatever was visible before untouched. A show superseded by a later
// navigation still finishes loading and pushing, but the application stays hidden.
func (r *Registry) ShowRoute(ctx context.Context, name string) error {
	address, ok := r.opts.Routes.Lookup(name)
	if !ok {
		r.GoHome()
		if name == domain.Home {
			return nil
		}
		return fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}
	if r.isClosed() {
		return ErrClosed
	}

	seq := r.startShow()
	defer r.endShow()

	e, err := r.ensure(ctx, name, address)
	if err != nil {
		log.Error().Err(err).Str("route", name).Msg("failed to load application")
		r.surface.Alert(fmt.Sprintf("Não foi possível carregar %s. Tente novamente.", name))
		return err
	}

	r.broadcast.Lock()
	err = r.push(ctx, e, false)
	r.broadcast.Unlock()
	if err != nil && !errors.Is(err, identity.ErrUnauthenticated) {
		log.Warn().Err(err).Str("route", name).Msg("token push failed, revealing anyway")
	}

	if !r.reveal(e, seq) {
		log.Debug().Str("route", name).Msg("navigation superseded, application stays hidden")
	}
	return nil
}

// startShow records a new navigation and raises the loading indicator unless another show already did.
func (r *Registry) startShow() uint64 {
	r.view.Lock()
	defer r.view.Unlock()
	r.nav++
	r.loading++
	if r.loading == 1 {
		r.surface.Loading(true)
	}
	return r.nav
}

// endShow lowers the loading indicator once no show is in progress.
func (r *Registry) endShow() {
	r.view.Lock()
	defer r.view.Unlock()
	r.loading--
	if r.loading == 0 {
		r.surface.Loading(false)
	}
}

// GoHome hides every application and shows the dashboard. Shows still in progress stay hidden.
func (r *Registry) GoHome() {
	r.view.Lock()
	defer r.view.Unlock()
	r.nav++

	r.mu.Lock()
	var hide []*entry
	for _, e := range r.entries {
		if e.visible {
			e.visible = false
			hide = append(hide, e)
		}
	}
	r.current = domain.Home
	r.mu.Unlock()

	for _, e := range hide {
		e.frame.SetVisible(false)
	}
	r.surface.Dashboard(true)
}

// reveal shows e alone, unless a navigation started after seq.
func (r *Registry) reveal(e *entry, seq uint64) bool {
	r.view.Lock()
	defer r.view.Unlock()
	if r.nav != seq {
		return false
	}

	r.mu.Lock()
	var hide []*entry
	for _, other := range r.entries {
		if other != e && other.visible {
			other.visible = false
			hide = append(hide, other)
		}
	}
	e.visible = true
	r.current = e.route
	r.mu.Unlock()

	for _, other := range hide {
		other.frame.SetVisible(false)
	}
	r.surface.Dashboard(false)
	e.frame.SetVisible(true)
	return true
}

// ensure returns the route's loaded entry, creating and loading it first if needed. Loads run on the registry's
// context: a caller that gives up waiting does not cancel a load somebody else may be waiting for.
func (r *Registry) ensure(ctx context.Context, route, address string) (*entry, error) {
	e, err := r.entry(route, address, false)
	if err != nil {
		return nil, err
	}

	timeout := time.NewTimer(r.opts.LoadTimeout)
	defer timeout.Stop()
	select {
	case <-e.ready:
		return e, e.err
	case <-timeout.C:
		return nil, ErrLoadTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.ctx.Done():
		return nil, ErrClosed
	}
}

// entry returns the route's entry, starting its load when it does not exist yet. Entries whose load failed are
// forgotten so that the next visit tries again.
func (r *Registry) entry(route, address string, preload bool) (*entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if e, ok := r.entries[route]; ok {
		return e, nil
	}

	frame, err := r.embedder.Embed(route, address)
	if err != nil {
		return nil, err
	}
	e := &entry{
		route:   route,
		address: address,
		frame:   frame,
		ready:   make(chan struct{}),
	}
	r.entries[route] = e
	go r.load(e, preload)
	return e, nil
}

func (r *Registry) load(e *entry, preload bool) {
	ctx, cancel := context.WithTimeout(r.ctx, r.opts.LoadTimeout)
	defer cancel()

	err := e.frame.Load(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		err = ErrLoadTimeout
	}

	r.mu.Lock()
	e.err = err
	e.loaded = err == nil
	if err != nil && r.entries[e.route] == e {
		delete(r.entries, e.route)
	}
	r.mu.Unlock()
	close(e.ready)

	if err != nil {
		log.Warn().Err(err).Str("route", e.route).Bool("preload", preload).Msg("application load failed")
		return
	}
	log.Debug().Str("route", e.route).Bool("preload", preload).Msg("application loaded")

	// A preloaded application missed every broadcast made while it was loading.
	if preload {
		r.broadcast.Lock()
		err = r.push(r.ctx, e, false)
		r.broadcast.Unlock()
		if err != nil {
			log.Warn().Err(err).Str("route", e.route).Msg("token push after preload failed")
		}
	}
}

// push fetches the current token and posts it into one application. The caller holds the broadcast lock.
func (r *Registry) push(ctx context.Context, e *entry, force bool) error {
	r.mu.Lock()
	id, signedIn := r.id, r.signedIn
	r.mu.Unlock()
	if !signedIn {
		return identity.ErrUnauthenticated
	}

	token, err := r.tokens.Token(ctx, id.Subject, force)
	if err != nil {
		return err
	}
	return r.post(ctx, e, domain.NewSyncAuth(id, token))
}

func (r *Registry) post(ctx context.Context, e *entry, msg domain.SyncAuth) error {
	ctx, cancel := context.WithTimeout(ctx, r.opts.AckTimeout)
	defer cancel()

	r.mu.Lock()
	e.pushes++
	e.token = msg.IDToken
	r.mu.Unlock()

	err := e.frame.Post(ctx, msg)
	if errors.Is(err, context.DeadlineExceeded) {
		err = ErrAckTimeout
	}
	return err
}

// BroadcastToken pushes the freshest token into every loaded application. It does nothing when no
// application is loaded or the user signed out. Failed pushes are only logged: the next navigation or token
// change pushes again.
func (r *Registry) BroadcastToken(ctx context.Context, force bool) error {
	r.broadcast.Lock()
	defer r.broadcast.Unlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	id, signedIn := r.id, r.signedIn
	var targets []*entry
	for _, e := range r.entries {
		if e.loaded {
			targets = append(targets, e)
		}
	}
	r.mu.Unlock()

	if !signedIn || len(targets) == 0 {
		return nil
	}

	token, err := r.tokens.Token(ctx, id.Subject, force)
	if err != nil {
		return fmt.Errorf("fetching token: %w", err)
	}
	msg := domain.NewSyncAuth(id, token)

	var wg sync.WaitGroup
	for _, e := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.post(ctx, e, msg); err != nil {
				log.Warn().Err(err).Str("route", e.route).Str("subject", id.Subject).Msg("token push failed")
			}
		}()
	}
	wg.Wait()
	log.Debug().Str("subject", id.Subject).Int("frames", len(targets)).Msg("token broadcast")
	return nil
}

// Preload starts loading every routed application and waits for them, but no longer than the preload timeout.
// Applications still loading afterwards keep loading and receive the token when they are done; the ones that
// failed are loaded again on their first visit.
func (r *Registry) Preload(ctx context.Context) error {
	r.mu.Lock()
	if r.preloaded {
		r.mu.Unlock()
		return nil
	}
	r.preloaded = true
	r.mu.Unlock()

	var pending []*entry
	for _, name := range r.opts.Routes.Names() {
		address, _ := r.opts.Routes.Lookup(name)
		e, err := r.entry(name, address, true)
		if err != nil {
			log.Warn().Err(err).Str("route", name).Msg("preload failed")
			continue
		}
		pending = append(pending, e)
	}

	timeout := time.NewTimer(r.opts.PreloadTimeout)
	defer timeout.Stop()
	for _, e := range pending {
		select {
		case <-e.ready:
		case <-timeout.C:
			log.Info().Str("route", e.route).Msg("preload timeout, shell proceeds while applications load")
			return ErrLoadTimeout
		case <-ctx.Done():
			return ctx.Err()
		case <-r.ctx.Done():
			return ErrClosed
		}
	}
	return nil
}

// HandleEvent reacts to the user's identity events: a new token is broadcast, a sign out sends the shell home
// and stops further pushes until the user signs in again.
func (r *Registry) HandleEvent(ev identity.Event) {
	r.mu.Lock()
	if r.closed || ev.Subject != r.id.Subject {
		r.mu.Unlock()
		return
	}
	wasSignedIn := r.signedIn
	r.signedIn = ev.Kind == identity.TokenChanged
	r.mu.Unlock()

	switch ev.Kind {
	case identity.TokenChanged:
		if !wasSignedIn {
			r.surface.Session(true)
		}
		if err := r.BroadcastToken(r.ctx, false); err != nil && !errors.Is(err, ErrClosed) {
			log.Error().Err(err).Str("subject", ev.Subject).Msg("token broadcast failed")
		}
	case identity.SignedOut:
		r.GoHome()
		r.surface.Session(false)
	}
}

// Current returns the name of the visible route, or home.
func (r *Registry) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Entries returns a snapshot of the tracked applications.
func (r *Registry) Entries() map[string]EntryState {
	r.mu.Lock()
	defer r.mu.Unlock()
	states := make(map[string]EntryState, len(r.entries))
	for name, e := range r.entries {
		states[name] = EntryState{
			Route:   e.route,
			Loaded:  e.loaded,
			Visible: e.visible,
			Pushes:  e.pushes,
			Token:   e.token,
		}
	}
	return states
}

func (r *Registry) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Close stops following identity events and abandons pending loads.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	r.stop()
	r.cancel()
}

package frames

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sidereusnuntius/portal/internal/config"
	"github.com/sidereusnuntius/portal/internal/domain"
	"github.com/sidereusnuntius/portal/internal/identity"
)

var jdoe = domain.Identity{Subject: "s1", Email: "jdoe@movebuss.local", Name: "John"}

var routes = domain.RouteTable{
	domain.Home:  "",
	"diferencas": "/apps/diferencas/",
	"escala":     "/apps/escala/",
	"escalas":    "/apps/escalas/",
}

type fakeFrame struct {
	mu      sync.Mutex
	route   string
	block   chan struct{}
	loadErr error
	postErr error

	loaded  bool
	posts   []string
	visible bool
	// early is set when the frame was revealed before being loaded and pushed to.
	early bool
}

func (f *fakeFrame) Load(ctx context.Context) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loaded = true
	return nil
}

func (f *fakeFrame) Post(ctx context.Context, msg domain.SyncAuth) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, msg.IDToken)
	return f.postErr
}

func (f *fakeFrame) SetVisible(visible bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if visible && (!f.loaded || len(f.posts) == 0) {
		f.early = true
	}
	f.visible = visible
}

func (f *fakeFrame) state() (loaded, visible bool, posts []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded, f.visible, append([]string(nil), f.posts...)
}

type fakeEmbedder struct {
	mu     sync.Mutex
	setup  func(*fakeFrame)
	frames map[string]*fakeFrame
	embeds map[string]int
}

func (e *fakeEmbedder) Embed(route, address string) (Frame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f := &fakeFrame{route: route}
	if e.setup != nil {
		e.setup(f)
	}
	e.frames[route] = f
	e.embeds[route]++
	return f, nil
}

func (e *fakeEmbedder) count(route string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.embeds[route]
}

func (e *fakeEmbedder) frame(route string) *fakeFrame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames[route]
}

type fakeTokens struct {
	mu    sync.Mutex
	n     int
	calls int
}

func (t *fakeTokens) Token(ctx context.Context, subject string, force bool) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	return fmt.Sprintf("t%04d", t.n), nil
}

// refresh replaces the current token, as minting does.
func (t *fakeTokens) refresh() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.n++
	return fmt.Sprintf("t%04d", t.n)
}

type fakeNotifier struct {
	subject   string
	cancelled bool
}

func (n *fakeNotifier) Subscribe(subject string, fn func(identity.Event)) func() {
	n.subject = subject
	return func() { n.cancelled = true }
}

type fakeSurface struct {
	mu     sync.Mutex
	events []string
}

func (s *fakeSurface) record(ev string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *fakeSurface) Loading(on bool)        { s.record(fmt.Sprintf("loading %t", on)) }
func (s *fakeSurface) Alert(msg string)       { s.record("alert") }
func (s *fakeSurface) Dashboard(visible bool) { s.record(fmt.Sprintf("dashboard %t", visible)) }
func (s *fakeSurface) Session(signedIn bool)  { s.record(fmt.Sprintf("session %t", signedIn)) }

func (s *fakeSurface) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

type fixture struct {
	registry *Registry
	embedder *fakeEmbedder
	tokens   *fakeTokens
	notifier *fakeNotifier
	surface  *fakeSurface
}

func newFixture(t *testing.T, setup func(*fakeFrame), opts Options) fixture {
	t.Helper()
	if opts.Routes == nil {
		opts.Routes = routes
	}
	if opts.LoadTimeout == 0 {
		opts.LoadTimeout = time.Second
	}
	if opts.AckTimeout == 0 {
		opts.AckTimeout = time.Second
	}
	if opts.PreloadTimeout == 0 {
		opts.PreloadTimeout = time.Second
	}
	f := fixture{
		embedder: &fakeEmbedder{setup: setup, frames: map[string]*fakeFrame{}, embeds: map[string]int{}},
		tokens:   &fakeTokens{},
		notifier: &fakeNotifier{},
		surface:  &fakeSurface{},
	}
	f.registry = New(jdoe, opts, f.embedder, f.tokens, f.notifier, f.surface)
	t.Cleanup(f.registry.Close)
	return f
}

func visible(r *Registry) []string {
	var names []string
	for _, name := range routes.Names() {
		if r.Entries()[name].Visible {
			names = append(names, name)
		}
	}
	return names
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewSubscribes(t *testing.T) {
	f := newFixture(t, nil, Options{})
	if f.notifier.subject != jdoe.Subject {
		t.Errorf("expected a subscription for %s, got %q", jdoe.Subject, f.notifier.subject)
	}
	f.registry.Close()
	if !f.notifier.cancelled {
		t.Error("Close should cancel the subscription")
	}
}

func TestShowRouteLoadsSyncsThenReveals(t *testing.T) {
	f := newFixture(t, nil, Options{})

	if err := f.registry.ShowRoute(context.Background(), "escala"); err != nil {
		t.Fatal("unexpected error:", err)
	}

	frame := f.embedder.frame("escala")
	loaded, shown, posts := frame.state()
	if !loaded || !shown {
		t.Errorf("expected a loaded and visible frame, got loaded=%t visible=%t", loaded, shown)
	}
	if frame.early {
		t.Error("frame was revealed before its first token push")
	}
	if diff := cmp.Diff([]string{"t0000"}, posts); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"loading true", "dashboard false", "loading false"}, f.surface.recorded()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if f.registry.Current() != "escala" {
		t.Errorf("unexpected current route %q", f.registry.Current())
	}
}

func TestShowRouteExactlyOneVisible(t *testing.T) {
	f := newFixture(t, nil, Options{})
	ctx := context.Background()

	for _, name := range routes.Names() {
		if err := f.registry.ShowRoute(ctx, name); err != nil {
			t.Fatal("unexpected error:", err)
		}
		if diff := cmp.Diff([]string{name}, visible(f.registry)); diff != "" {
			t.Errorf("after showing %s (-want +got):\n%s", name, diff)
		}
	}

	if err := f.registry.ShowRoute(ctx, domain.Home); err != nil {
		t.Error("unexpected error:", err)
	}
	if v := visible(f.registry); len(v) != 0 {
		t.Errorf("home should hide every frame, visible: %v", v)
	}

	_ = f.registry.ShowRoute(ctx, "escala")
	if err := f.registry.ShowRoute(ctx, "abastecimento"); !errors.Is(err, ErrUnknownRoute) {
		t.Errorf("expected ErrUnknownRoute, got %v", err)
	}
	if v := visible(f.registry); len(v) != 0 {
		t.Errorf("an unknown route should hide every frame, visible: %v", v)
	}
	for _, name := range routes.Names() {
		if _, shown, _ := f.embedder.frame(name).state(); shown {
			t.Errorf("frame %s is still visible", name)
		}
	}
}

func TestShowRouteReusesLoadedFrame(t *testing.T) {
	f := newFixture(t, nil, Options{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := f.registry.ShowRoute(ctx, "escalas"); err != nil {
			t.Fatal("unexpected error:", err)
		}
	}
	if n := f.embedder.count("escalas"); n != 1 {
		t.Errorf("expected one load, got %d", n)
	}
	if _, _, posts := f.embedder.frame("escalas").state(); len(posts) != 3 {
		t.Errorf("every visit should push the token, got %d pushes", len(posts))
	}
}

func TestShowRouteLoadFailure(t *testing.T) {
	fail := true
	f := newFixture(t, func(fr *fakeFrame) {
		if fr.route == "diferencas" && fail {
			fr.loadErr = errors.New("network down")
		}
	}, Options{})
	ctx := context.Background()

	if err := f.registry.ShowRoute(ctx, "escala"); err != nil {
		t.Fatal("unexpected error:", err)
	}
	if err := f.registry.ShowRoute(ctx, "diferencas"); err == nil {
		t.Fatal("expected an error")
	}

	events := f.surface.recorded()
	if last := events[len(events)-1]; last != "loading false" {
		t.Errorf("loading indicator not cleared, last event %q", last)
	}
	if !cmp.Equal(events[len(events)-2], "alert") {
		t.Errorf("expected an alert, got %v", events)
	}
	if diff := cmp.Diff([]string{"escala"}, visible(f.registry)); diff != "" {
		t.Errorf("a failed load should leave the previous frame visible (-want +got):\n%s", diff)
	}
	if _, ok := f.registry.Entries()["diferencas"]; ok {
		t.Error("failed entry should be forgotten")
	}

	fail = false
	if err := f.registry.ShowRoute(ctx, "diferencas"); err != nil {
		t.Fatal("unexpected error on retry:", err)
	}
	if n := f.embedder.count("diferencas"); n != 2 {
		t.Errorf("expected the retry to load again, got %d loads", n)
	}
}

func TestShowRouteLoadTimeout(t *testing.T) {
	f := newFixture(t, func(fr *fakeFrame) {
		fr.block = make(chan struct{})
	}, Options{LoadTimeout: 20 * time.Millisecond})

	if err := f.registry.ShowRoute(context.Background(), "escala"); !errors.Is(err, ErrLoadTimeout) {
		t.Errorf("expected ErrLoadTimeout, got %v", err)
	}
	if v := visible(f.registry); len(v) != 0 {
		t.Errorf("nothing should be visible, got %v", v)
	}
}

func TestSupersededShowStaysHidden(t *testing.T) {
	tests := []struct {
		name    string
		then    func(r *Registry) error
		current string
		visible []string
		surface []string
	}{
		{
			name:    "later route",
			then:    func(r *Registry) error { return r.ShowRoute(context.Background(), "escala") },
			current: "escala",
			visible: []string{"escala"},
			surface: []string{"loading true", "dashboard false", "loading false"},
		},
		{
			name:    "home",
			then:    func(r *Registry) error { r.GoHome(); return nil },
			current: domain.Home,
			surface: []string{"loading true", "dashboard true", "loading false"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			release := make(chan struct{})
			f := newFixture(t, func(fr *fakeFrame) {
				if fr.route == "diferencas" {
					fr.block = release
				}
			}, Options{})

			done := make(chan error, 1)
			go func() { done <- f.registry.ShowRoute(context.Background(), "diferencas") }()
			eventually(t, func() bool {
				_, ok := f.registry.Entries()["diferencas"]
				return ok
			})

			if err := tt.then(f.registry); err != nil {
				t.Fatal("unexpected error:", err)
			}
			close(release)
			if err := <-done; err != nil {
				t.Fatal("unexpected error:", err)
			}

			if f.registry.Current() != tt.current {
				t.Errorf("expected current route %q, got %q", tt.current, f.registry.Current())
			}
			if diff := cmp.Diff(tt.visible, visible(f.registry)); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
			loaded, shown, posts := f.embedder.frame("diferencas").state()
			if !loaded || shown || len(posts) != 1 {
				t.Errorf("expected diferencas loaded, synced and hidden, got loaded=%t visible=%t pushes=%d",
					loaded, shown, len(posts))
			}
			if diff := cmp.Diff(tt.surface, f.surface.recorded()); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestShowRoutePushFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, func(fr *fakeFrame) {
		fr.postErr = ErrAckTimeout
	}, Options{})

	if err := f.registry.ShowRoute(context.Background(), "escala"); err != nil {
		t.Fatal("unexpected error:", err)
	}
	if _, shown, posts := f.embedder.frame("escala").state(); !shown || len(posts) != 1 {
		t.Errorf("expected the frame revealed after an attempted push, visible=%t pushes=%d", shown, len(posts))
	}
	for _, ev := range f.surface.recorded() {
		if ev == "alert" {
			t.Error("token push failures must not alert")
		}
	}
}

func TestTokenFreshness(t *testing.T) {
	f := newFixture(t, nil, Options{})
	ctx := context.Background()
	for _, name := range routes.Names() {
		if err := f.registry.ShowRoute(ctx, name); err != nil {
			t.Fatal("unexpected error:", err)
		}
	}

	var (
		wg   sync.WaitGroup
		last string
		mu   sync.Mutex
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mu.Lock()
			token := f.tokens.refresh()
			if token > last {
				last = token
			}
			mu.Unlock()
			f.registry.HandleEvent(identity.Event{Kind: identity.TokenChanged, Subject: jdoe.Subject, At: time.Now()})
		}()
	}
	wg.Wait()

	for _, name := range routes.Names() {
		_, _, posts := f.embedder.frame(name).state()
		if got := posts[len(posts)-1]; got != last {
			t.Errorf("%s holds %s, latest token is %s", name, got, last)
		}
		for i := 1; i < len(posts); i++ {
			if posts[i] < posts[i-1] {
				t.Errorf("%s received %s after %s", name, posts[i], posts[i-1])
			}
		}
	}
}

func TestBroadcastWithoutFramesIsNoop(t *testing.T) {
	f := newFixture(t, nil, Options{})
	if err := f.registry.BroadcastToken(context.Background(), true); err != nil {
		t.Error("unexpected error:", err)
	}
	if f.tokens.calls != 0 {
		t.Errorf("no token should be fetched without frames, got %d fetches", f.tokens.calls)
	}
}

func TestBroadcastUnauthenticatedIsNoop(t *testing.T) {
	f := newFixture(t, nil, Options{})
	f.registry = New(domain.Identity{}, Options{Routes: routes, LoadTimeout: time.Second, AckTimeout: time.Second},
		f.embedder, f.tokens, f.notifier, f.surface)
	defer f.registry.Close()

	if err := f.registry.ShowRoute(context.Background(), "escala"); err != nil {
		t.Fatal("unexpected error:", err)
	}
	if err := f.registry.BroadcastToken(context.Background(), false); err != nil {
		t.Error("unexpected error:", err)
	}
	if f.tokens.calls != 0 {
		t.Errorf("no token should be fetched while signed out, got %d fetches", f.tokens.calls)
	}
}

func TestSignOutAndBackIn(t *testing.T) {
	f := newFixture(t, nil, Options{})
	ctx := context.Background()
	if err := f.registry.ShowRoute(ctx, "escala"); err != nil {
		t.Fatal("unexpected error:", err)
	}

	f.registry.HandleEvent(identity.Event{Kind: identity.SignedOut, Subject: jdoe.Subject})
	if v := visible(f.registry); len(v) != 0 {
		t.Errorf("sign out should go home, visible: %v", v)
	}
	f.tokens.refresh()
	if err := f.registry.BroadcastToken(ctx, false); err != nil {
		t.Error("unexpected error:", err)
	}
	if _, _, posts := f.embedder.frame("escala").state(); len(posts) != 1 {
		t.Errorf("no token should be pushed after sign out, got %v", posts)
	}

	f.registry.HandleEvent(identity.Event{Kind: identity.TokenChanged, Subject: jdoe.Subject})
	if _, _, posts := f.embedder.frame("escala").state(); len(posts) != 2 || posts[1] != "t0001" {
		t.Errorf("signing in again should push the new token, got %v", posts)
	}

	events := f.surface.recorded()
	if diff := cmp.Diff([]string{"dashboard true", "session false", "session true"}, events[len(events)-3:]); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestEventsOfOtherSubjectsAreIgnored(t *testing.T) {
	f := newFixture(t, nil, Options{})
	if err := f.registry.ShowRoute(context.Background(), "escala"); err != nil {
		t.Fatal("unexpected error:", err)
	}
	f.registry.HandleEvent(identity.Event{Kind: identity.SignedOut, Subject: "someone else"})
	if diff := cmp.Diff([]string{"escala"}, visible(f.registry)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestPreload(t *testing.T) {
	f := newFixture(t, nil, Options{Strategy: config.EagerStrategy})
	ctx := context.Background()

	if err := f.registry.Preload(ctx); err != nil {
		t.Fatal("unexpected error:", err)
	}
	for _, name := range routes.Names() {
		eventually(t, func() bool {
			loaded, shown, posts := f.embedder.frame(name).state()
			return loaded && !shown && len(posts) == 1
		})
	}

	if err := f.registry.ShowRoute(ctx, "escalas"); err != nil {
		t.Fatal("unexpected error:", err)
	}
	if n := f.embedder.count("escalas"); n != 1 {
		t.Errorf("a preloaded frame should not load again, got %d loads", n)
	}
	if err := f.registry.Preload(ctx); err != nil {
		t.Error("unexpected error:", err)
	}
	if n := f.embedder.count("escala"); n != 1 {
		t.Errorf("a second preload should do nothing, got %d loads", n)
	}
}

func TestPreloadTimeout(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, func(fr *fakeFrame) {
		if fr.route == "escalas" {
			fr.block = release
		}
	}, Options{Strategy: config.EagerStrategy, PreloadTimeout: 20 * time.Millisecond})

	if err := f.registry.Preload(context.Background()); !errors.Is(err, ErrLoadTimeout) {
		t.Fatalf("expected ErrLoadTimeout, got %v", err)
	}

	close(release)
	eventually(t, func() bool {
		loaded, _, posts := f.embedder.frame("escalas").state()
		return loaded && len(posts) == 1
	})
}

func TestPreloadFailureFallsBackToLazy(t *testing.T) {
	fail := make(chan bool, 1)
	fail <- true
	f := newFixture(t, func(fr *fakeFrame) {
		if fr.route != "escala" {
			return
		}
		select {
		case <-fail:
			fr.loadErr = errors.New("network down")
		default:
		}
	}, Options{Strategy: config.EagerStrategy})

	_ = f.registry.Preload(context.Background())
	eventually(t, func() bool {
		_, ok := f.registry.Entries()["escala"]
		return !ok
	})

	if err := f.registry.ShowRoute(context.Background(), "escala"); err != nil {
		t.Fatal("unexpected error:", err)
	}
	if n := f.embedder.count("escala"); n != 2 {
		t.Errorf("expected a lazy load after the failed preload, got %d loads", n)
	}
}

func TestClose(t *testing.T) {
	f := newFixture(t, nil, Options{})
	f.registry.Close()
	f.registry.Close()

	if err := f.registry.ShowRoute(context.Background(), "escala"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := f.registry.BroadcastToken(context.Background(), false); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

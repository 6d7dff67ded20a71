// Package identity is the portal's identity provider: password accounts, short lived ID tokens and the
// notifications that keep every open shell's embedded applications supplied with a fresh token.
package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/portal/internal/config"
	"github.com/sidereusnuntius/portal/internal/db"
	"github.com/sidereusnuntius/portal/internal/domain"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrRequiresRecentLogin = errors.New("requires recent login")
	ErrInvalidToken        = errors.New("invalid token")
	ErrEmailInUse          = errors.New("email already in use")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrInvalidInput        = errors.New("invalid input")
)

type EventKind int

const (
	TokenChanged EventKind = iota
	SignedOut
)

func (k EventKind) String() string {
	if k == SignedOut {
		return "signedOut"
	}
	return "tokenChanged"
}

// Event is delivered to subscribers when a subject's token is replaced or the subject signs out.
type Event struct {
	Kind    EventKind
	Subject string
	At      time.Time
}

type cachedToken struct {
	token    string
	expires  time.Time
	identity domain.Identity
}

type subscriber struct {
	subject string
	fn      func(Event)
}

type Provider struct {
	accounts     db.Accounts
	secret       []byte
	ttl          time.Duration
	margin       time.Duration
	recentWindow time.Duration
	adminDomain  string
	now          func() time.Time

	mu     sync.Mutex
	tokens map[string]cachedToken
	subs   map[int]subscriber
	nextID int
}

func New(cfg *config.Configuration, accounts db.Accounts) *Provider {
	return &Provider{
		accounts:     accounts,
		secret:       []byte(cfg.TokenSecret),
		ttl:          cfg.TokenTTL,
		margin:       cfg.TokenRefreshMargin,
		recentWindow: cfg.RecentLoginWindow,
		adminDomain:  cfg.AdminDomain,
		now:          time.Now,
		tokens:       map[string]cachedToken{},
		subs:         map[int]subscriber{},
	}
}

// Subscribe registers fn for the subject's events. Callbacks run on their own goroutine; the returned function
// removes the subscription.
func (p *Provider) Subscribe(subject string, fn func(Event)) (cancel func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = subscriber{subject: subject, fn: fn}
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

func (p *Provider) notify(ev Event) {
	p.mu.Lock()
	var fns []func(Event)
	for _, s := range p.subs {
		if s.subject == ev.Subject {
			fns = append(fns, s.fn)
		}
	}
	p.mu.Unlock()

	log.Debug().Str("subject", ev.Subject).Stringer("event", ev.Kind).Int("subscribers", len(fns)).Msg("identity event")
	for _, fn := range fns {
		go fn(ev)
	}
}

// Token returns the subject's current ID token. A cached token is reused while more than the refresh margin of
// its lifetime is left; force always mints a new one. Minting notifies the subject's subscribers.
func (p *Provider) Token(ctx context.Context, subject string, force bool) (string, error) {
	now := p.now()

	p.mu.Lock()
	cached, ok := p.tokens[subject]
	p.mu.Unlock()
	if ok && !force && cached.expires.Sub(now) > p.margin {
		return cached.token, nil
	}

	id := cached.identity
	if !ok {
		account, err := p.accounts.GetAccount(ctx, subject)
		if errors.Is(err, db.ErrNotFound) {
			return "", ErrUnauthenticated
		}
		if err != nil {
			return "", err
		}
		id = domain.Identity{Subject: account.Subject, Email: account.Email, Name: account.Name}
	}

	token, expires, err := p.mint(id, now)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	p.tokens[subject] = cachedToken{token: token, expires: expires, identity: id}
	p.mu.Unlock()

	p.notify(Event{Kind: TokenChanged, Subject: subject, At: now})
	return token, nil
}

// SignOut forgets the subject's token and tells its subscribers.
func (p *Provider) SignOut(subject string) {
	p.mu.Lock()
	delete(p.tokens, subject)
	p.mu.Unlock()
	p.notify(Event{Kind: SignedOut, Subject: subject, At: p.now()})
}

// Run re-mints tokens that are about to expire for every subject somebody is subscribed to, until ctx is done.
func (p *Provider) Run(ctx context.Context) {
	every := p.margin / 2
	if every < time.Second {
		every = time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refreshDue(ctx)
		}
	}
}

func (p *Provider) refreshDue(ctx context.Context) {
	now := p.now()
	p.mu.Lock()
	due := map[string]bool{}
	for _, s := range p.subs {
		if t, ok := p.tokens[s.subject]; ok && t.expires.Sub(now) <= p.margin {
			due[s.subject] = true
		}
	}
	p.mu.Unlock()

	for subject := range due {
		if _, err := p.Token(ctx, subject, true); err != nil {
			log.Error().Err(err).Str("subject", subject).Msg("token refresh failed")
		}
	}
}

package core

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"codeberg.org/gruf/go-mutexes"
	"github.com/allegro/bigcache"
	"github.com/oklog/ulid/v2"
	"github.com/sidereusnuntius/portal/internal/config"
	"github.com/sidereusnuntius/portal/internal/db"
	"github.com/sidereusnuntius/portal/internal/domain"
	"github.com/sidereusnuntius/portal/internal/queue"
	"github.com/sidereusnuntius/portal/internal/service"
	"github.com/sidereusnuntius/portal/internal/state"
	"github.com/sidereusnuntius/portal/internal/storage"
)

const DateLayout = "2006-01-02"

var (
	_ service.Service  = (*AppService)(nil)
	_ queue.Reconciler = (*AppService)(nil)
)

type AppService struct {
	Config config.Configuration
	DB     db.Documents
	Store  storage.Storage
	Queue  queue.Queue

	locks *mutexes.MutexMap
	cache *bigcache.BigCache
	loc   *time.Location
	now   func() time.Time

	ulidMu  sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func New(state *state.State, q queue.Queue) (service.Service, error) {
	return newAppService(state, q)
}

func newAppService(state *state.State, q queue.Queue) (*AppService, error) {
	cacheCfg := bigcache.DefaultConfig(state.Config.CacheTTL)
	cacheCfg.Shards = 16
	cacheCfg.MaxEntriesInWindow = 1024
	cacheCfg.HardMaxCacheSize = 16
	cache, err := bigcache.NewBigCache(cacheCfg)
	if err != nil {
		return nil, err
	}

	locks := mutexes.MutexMap{}
	return &AppService{
		Config:  state.Config,
		locks:   &locks,
		DB:      state.Docs,
		Store:   state.Store,
		Queue:   q,
		cache:   cache,
		loc:     time.Local,
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// newID returns a lexicographically sortable document id.
func (s *AppService) newID() string {
	s.ulidMu.Lock()
	defer s.ulidMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}

// scope returns the registration number a caller's query is restricted to: the caller's own unless they are
// an administrator, in which case the requested one (possibly empty, meaning everybody). A caller who is
// neither an administrator nor has a registration number may not query anything.
func scope(caller domain.User, requested string) (string, error) {
	if caller.Admin {
		return requested, nil
	}
	if caller.Matricula == "" {
		return "", fmt.Errorf("%w: %s has no matrícula", service.ErrForbidden, caller.Email)
	}
	return caller.Matricula, nil
}

// parseDay reads a form date and pins it to noon in loc, so that the calendar day survives any conversion to
// another zone within twelve hours of it.
func parseDay(value string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, loc), nil
}

package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/portal/internal/db"
	"github.com/sidereusnuntius/portal/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func (s *AppService) EnsureUser(ctx context.Context, id domain.Identity) (domain.User, error) {
	user, err := s.ReconcileUser(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("subject", id.Subject).Msg("user reconciliation failed, scheduling a retry")
		if qErr := s.Queue.Reconcile(ctx, id); qErr != nil {
			err = errors.Join(err, qErr)
		}
		return domain.User{}, err
	}
	return user, nil
}

// ReconcileUser runs the read, reconcile and write sequence under the subject's lock, without scheduling
// retries. The task queue calls it directly.
func (s *AppService) ReconcileUser(ctx context.Context, id domain.Identity) (domain.User, error) {
	unlock := s.locks.Lock(id.Subject)
	defer unlock()

	user, err := s.reconcile(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	s.cacheUser(user)
	return user, nil
}

func (s *AppService) reconcile(ctx context.Context, id domain.Identity) (domain.User, error) {
	admin := domain.IsElevated(id.Email, s.Config.AdminDomain)

	user, err := s.DB.GetUser(ctx, id.Subject)
	if errors.Is(err, db.ErrNotFound) {
		user = domain.NewUser(id, s.Config.AdminDomain, s.now())
		err = s.DB.CreateUser(ctx, user)
		if err == nil {
			log.Info().Str("subject", id.Subject).Str("matricula", user.Matricula).Bool("admin", admin).Msg("user record created")
			return user, nil
		}
		if !errors.Is(err, db.ErrConflict) {
			return domain.User{}, err
		}
		// Created by another instance in between.
		user, err = s.DB.GetUser(ctx, id.Subject)
	}
	if err != nil {
		return domain.User{}, err
	}

	if user.Admin != admin {
		if err = s.DB.SetAdmin(ctx, id.Subject, admin); err != nil {
			return domain.User{}, err
		}
		log.Info().Str("subject", id.Subject).Bool("admin", admin).Msg("administrator flag reconciled")
		user.Admin = admin
	}
	return user, nil
}

func (s *AppService) Caller(ctx context.Context, id domain.Identity) (domain.User, error) {
	if b, err := s.cache.Get(id.Subject); err == nil {
		var user domain.User
		if err = json.Unmarshal(b, &user); err == nil {
			return user, nil
		}
		log.Warn().Err(err).Str("subject", id.Subject).Msg("corrupt cached user record")
	}
	return s.EnsureUser(ctx, id)
}

func (s *AppService) cacheUser(user domain.User) {
	b, err := json.Marshal(user)
	if err != nil {
		log.Warn().Err(err).Str("subject", user.Subject).Msg("failed to encode user record for the cache")
		return
	}
	if err = s.cache.Set(user.Subject, b); err != nil {
		log.Warn().Err(err).Str("subject", user.Subject).Msg("failed to cache user record")
	}
}

func (s *AppService) Matriculas(ctx context.Context) ([]string, error) {
	users, err := s.DB.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	seen := map[string]bool{}
	handles := make([]string, 0, len(users))
	for _, u := range users {
		if u.Matricula != "" && !seen[u.Matricula] {
			seen[u.Matricula] = true
			handles = append(handles, u.Matricula)
		}
	}
	sort.Slice(handles, func(i, j int) bool {
		return naturalLess(handles[i], handles[j])
	})
	return handles, nil
}

// naturalLess orders numeric registration numbers by value and puts them before the others, which are ordered
// as strings.
func naturalLess(a, b string) bool {
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		if na != nb {
			return na < nb
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}

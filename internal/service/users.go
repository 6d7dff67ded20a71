package service

import (
	"context"

	"github.com/sidereusnuntius/portal/internal/domain"
)

type Bootstrap interface {
	// EnsureUser makes sure the identity has a user record whose administrator flag matches its email. Missing
	// records are created; a stale flag is overwritten and nothing else is touched. Running it again on a
	// reconciled record writes nothing.
	EnsureUser(ctx context.Context, id domain.Identity) (domain.User, error)
	// Caller returns the user record of an authenticated request, from cache when possible.
	Caller(ctx context.Context, id domain.Identity) (domain.User, error)
	// Matriculas returns the registration numbers of every user, in natural order ("2" before "10").
	Matriculas(ctx context.Context) ([]string, error)
}

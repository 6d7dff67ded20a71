package db

import (
	"context"

	"github.com/sidereusnuntius/portal/internal/domain"
)

type Users interface {
	GetUser(ctx context.Context, subject string) (domain.User, error)
	// CreateUser inserts the record; ErrConflict is returned when a record for the subject already exists.
	CreateUser(ctx context.Context, user domain.User) error
	// SetAdmin overwrites only the administrator flag of an existing record.
	SetAdmin(ctx context.Context, subject string, admin bool) error
	ListUsers(ctx context.Context) ([]domain.User, error)
}

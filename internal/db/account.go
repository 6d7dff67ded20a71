package db

import (
	"context"

	"github.com/sidereusnuntius/portal/internal/domain"
)

type Accounts interface {
	// InsertAccount persists a new account; ErrConflict is returned when the email is taken.
	InsertAccount(ctx context.Context, account domain.Account) error
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)
	GetAccount(ctx context.Context, subject string) (domain.Account, error)
	UpdatePassword(ctx context.Context, subject, hash string) error
}

package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/portal/internal/db"
	"github.com/sidereusnuntius/portal/internal/domain"
	"github.com/sidereusnuntius/portal/internal/validate"
	"golang.org/x/crypto/bcrypt"
)

// SignUp creates a password account. A login without '@' is a registration number and gets the administrative
// domain appended.
func (p *Provider) SignUp(ctx context.Context, name, login, password, confirmation string) (domain.Identity, error) {
	email := domain.LoginEmail(login, p.adminDomain)
	if err := validate.SignUpForm(name, email, password, confirmation); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("bcrypt hashing failed")
		return domain.Identity{}, err
	}

	account := domain.Account{
		Subject:  uuid.NewString(),
		Email:    email,
		Name:     name,
		Password: string(hash),
		Created:  p.now(),
	}
	if err = p.accounts.InsertAccount(ctx, account); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return domain.Identity{}, ErrEmailInUse
		}
		return domain.Identity{}, err
	}

	log.Info().Str("subject", account.Subject).Str("matricula", domain.Handle(email)).Msg("account created")
	return domain.Identity{Subject: account.Subject, Email: account.Email, Name: account.Name}, nil
}

// SignIn checks the credentials and returns the identity and the time of authentication.
func (p *Provider) SignIn(ctx context.Context, login, password string) (id domain.Identity, authTime time.Time, err error) {
	email := domain.LoginEmail(login, p.adminDomain)
	if email == "" || password == "" {
		return id, authTime, ErrInvalidCredentials
	}

	account, err := p.accounts.GetAccountByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		return id, authTime, ErrInvalidCredentials
	}
	if err != nil {
		return id, authTime, err
	}

	if err = bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password)); err != nil {
		return id, authTime, ErrInvalidCredentials
	}

	id = domain.Identity{Subject: account.Subject, Email: account.Email, Name: account.Name}
	return id, p.now(), nil
}

// ChangePassword replaces the subject's password. Sessions authenticated longer ago than the recent login window
// get ErrRequiresRecentLogin and must sign in again.
func (p *Provider) ChangePassword(ctx context.Context, subject string, authTime time.Time, password string) error {
	if p.now().Sub(authTime) > p.recentWindow {
		return ErrRequiresRecentLogin
	}

	account, err := p.accounts.GetAccount(ctx, subject)
	if errors.Is(err, db.ErrNotFound) {
		return ErrUnauthenticated
	}
	if err != nil {
		return err
	}

	if err = validate.Password(password, account.Name, account.Email, domain.Handle(account.Email)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return p.accounts.UpdatePassword(ctx, subject, string(hash))
}

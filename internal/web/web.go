package web

import (
	"context"
	"time"

	"github.com/alexedwards/scs"
	jsoniter "github.com/json-iterator/go"
	"github.com/sidereusnuntius/portal/internal/config"
	"github.com/sidereusnuntius/portal/internal/domain"
	"github.com/sidereusnuntius/portal/internal/identity"
	"github.com/sidereusnuntius/portal/internal/service"
	"github.com/sidereusnuntius/portal/templates"
)

const (
	LoginRoute  = "/login"
	SignUpRoute = "/signup"
	// MaxMemory is the part of a multipart upload kept in memory; the rest goes to temporary files.
	MaxMemory     = 8 << 20
	MaxUploadSize = 32 << 20
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Identity is the identity provider as seen by the handlers.
type Identity interface {
	SignUp(ctx context.Context, name, login, password, confirmation string) (domain.Identity, error)
	SignIn(ctx context.Context, login, password string) (domain.Identity, time.Time, error)
	ChangePassword(ctx context.Context, subject string, authTime time.Time, password string) error
	SignOut(subject string)
	Token(ctx context.Context, subject string, force bool) (string, error)
	Verify(token string) (domain.Identity, error)
	Subscribe(subject string, fn func(identity.Event)) (cancel func())
}

type Handler struct {
	Config         *config.Configuration
	service        service.Service
	identity       Identity
	SessionManager *scs.Manager
	templates      *templates.Templates
	shells         *Shells
	now            func() time.Time
}

func New(config *config.Configuration, service service.Service, identity Identity, manager *scs.Manager, tmpl *templates.Templates, shells *Shells) *Handler {
	return &Handler{
		Config:         config,
		service:        service,
		identity:       identity,
		SessionManager: manager,
		templates:      tmpl,
		shells:         shells,
		now:            time.Now,
	}
}

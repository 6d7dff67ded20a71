package service

import (
	"context"
	"time"

	"github.com/sidereusnuntius/portal/internal/domain"
)

// DayOffInput is the day-off form. Day is formatted as 2006-01-02.
type DayOffInput struct {
	Matricula string
	Kind      string
	Period    string
	Day       string
}

type DayOffService interface {
	// ListDaysOff returns the month's days off visible to the caller, ordered by day.
	ListDaysOff(ctx context.Context, caller domain.User, month time.Time) ([]domain.DayOff, error)
	// CreateDayOff records a day off. Only administrators may record one for somebody else.
	CreateDayOff(ctx context.Context, caller domain.User, input DayOffInput) (domain.DayOff, error)
}

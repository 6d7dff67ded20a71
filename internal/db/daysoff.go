package db

import (
	"context"

	"github.com/sidereusnuntius/portal/internal/domain"
)

// DaysOff is the "folgas" collection, ordered and ranged by day.
type DaysOff interface {
	InsertDayOff(ctx context.Context, dayOff domain.DayOff) error
	ListDaysOff(ctx context.Context, filter Filter) ([]domain.DayOff, error)
}

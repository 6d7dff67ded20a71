package db

import (
	"context"

	"github.com/sidereusnuntius/portal/internal/domain"
)

// Schedules is the "escalas" collection, ordered and ranged by upload time.
type Schedules interface {
	InsertSchedule(ctx context.Context, schedule domain.Schedule) error
	GetSchedule(ctx context.Context, id string) (domain.Schedule, error)
	ListSchedules(ctx context.Context, filter Filter) ([]domain.Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
}

package db

import (
	"context"

	"github.com/sidereusnuntius/portal/internal/domain"
)

// Reports is the "relatorios" collection. Its timestamp field is the creation time; the range filter applies to
// the business day.
type Reports interface {
	InsertReport(ctx context.Context, report domain.Report) error
	GetReport(ctx context.Context, id string) (domain.Report, error)
	ListReports(ctx context.Context, filter Filter) ([]domain.Report, error)
	DeleteReport(ctx context.Context, id string) error
}

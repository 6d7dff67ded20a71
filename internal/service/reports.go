package service

import (
	"context"
	"time"

	"github.com/sidereusnuntius/portal/internal/domain"
)

// ReportInput is the cash-difference form. Day is formatted as 2006-01-02; amounts are decimal strings.
type ReportInput struct {
	Matricula string
	Day       string
	Sheet     string
	Cash      string
	Note      string
}

type ReportService interface {
	// ListReports returns the reports visible to the caller, newest first. Administrators may narrow the list
	// to one registration number; everybody else only ever sees their own.
	ListReports(ctx context.Context, caller domain.User, matricula string) ([]domain.Report, error)
	// ReportsByDate returns the visible reports of one business day.
	ReportsByDate(ctx context.Context, caller domain.User, day time.Time) ([]domain.Report, error)
	CreateReport(ctx context.Context, caller domain.User, input ReportInput) (domain.Report, error)
	DeleteReport(ctx context.Context, caller domain.User, id string, confirmed bool) error
	MonthlySummary(ctx context.Context, caller domain.User, matricula string, month time.Time) (domain.Summary, error)
	// ExportSummary renders the monthly summary as an xlsx workbook.
	ExportSummary(ctx context.Context, caller domain.User, matricula string, month time.Time) ([]byte, error)
}

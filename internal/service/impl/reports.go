package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/sidereusnuntius/portal/internal/db"
	"github.com/sidereusnuntius/portal/internal/domain"
	"github.com/sidereusnuntius/portal/internal/service"
	"github.com/sidereusnuntius/portal/internal/validate"
)

func (s *AppService) ListReports(ctx context.Context, caller domain.User, matricula string) ([]domain.Report, error) {
	matricula, err := scope(caller, strings.TrimSpace(matricula))
	if err != nil {
		return nil, err
	}
	return s.DB.ListReports(ctx, db.Filter{
		Matricula: matricula,
		Desc:      true,
	})
}

func (s *AppService) ReportsByDate(ctx context.Context, caller domain.User, day time.Time) ([]domain.Report, error) {
	matricula, err := scope(caller, "")
	if err != nil {
		return nil, err
	}
	from, to := db.Day(day.In(s.loc))
	return s.DB.ListReports(ctx, db.Filter{
		Matricula: matricula,
		From:      from,
		To:        to,
		Desc:      true,
	})
}

func (s *AppService) CreateReport(ctx context.Context, caller domain.User, input service.ReportInput) (domain.Report, error) {
	if !caller.Admin {
		return domain.Report{}, fmt.Errorf("%w: only administrators record cash differences", service.ErrForbidden)
	}

	input.Matricula = strings.TrimSpace(input.Matricula)
	var errs []error
	if input.Matricula == "" {
		errs = append(errs, errors.New("matrícula is required"))
	} else {
		errs = append(errs, validate.Handle(input.Matricula))
	}
	errs = append(errs,
		validate.Amount("valorFolha", input.Sheet),
		validate.Amount("valorDinheiro", input.Cash),
		validate.Note(input.Note),
	)
	day, err := parseDay(input.Day, s.loc)
	if err != nil {
		errs = append(errs, errors.New("dataCaixa is required"))
	}
	if err = errors.Join(errs...); err != nil {
		return domain.Report{}, fmt.Errorf("%w: %w", service.ErrInvalidInput, err)
	}

	sheet, cash := amount(input.Sheet), amount(input.Cash)
	report := domain.Report{
		ID:        s.newID(),
		Matricula: input.Matricula,
		Day:       day,
		Sheet:     sheet,
		Cash:      cash,
		Balance:   cash.Sub(sheet),
		Note:      strings.TrimSpace(input.Note),
		Created:   s.now(),
		CreatedBy: caller.Email,
	}
	if err = s.DB.InsertReport(ctx, report); err != nil {
		return domain.Report{}, err
	}
	log.Info().Str("id", report.ID).Str("matricula", report.Matricula).Str("sobraFalta", report.Balance.String()).Msg("report created")
	return report, nil
}

// amount parses an already validated amount; empty means zero.
func amount(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (s *AppService) DeleteReport(ctx context.Context, caller domain.User, id string, confirmed bool) error {
	if !caller.Admin {
		return fmt.Errorf("%w: only administrators delete cash differences", service.ErrForbidden)
	}
	if !confirmed {
		return service.ErrNotConfirmed
	}
	if err := s.DB.DeleteReport(ctx, id); err != nil {
		return err
	}
	log.Info().Str("id", id).Str("by", caller.Email).Msg("report deleted")
	return nil
}

func (s *AppService) MonthlySummary(ctx context.Context, caller domain.User, matricula string, month time.Time) (domain.Summary, error) {
	matricula, err := scope(caller, strings.TrimSpace(matricula))
	if err != nil {
		return domain.Summary{}, err
	}
	if matricula == "" {
		return domain.Summary{}, fmt.Errorf("%w: matrícula is required", service.ErrInvalidInput)
	}

	from, to := db.Month(month.In(s.loc))
	reports, err := s.DB.ListReports(ctx, db.Filter{
		Matricula: matricula,
		From:      from,
		To:        to,
	})
	if err != nil {
		return domain.Summary{}, err
	}

	summary := domain.Summary{
		Matricula:  matricula,
		Month:      from,
		TotalSheet: decimal.Zero,
		Balance:    decimal.Zero,
		Reports:    reports,
	}
	for _, r := range reports {
		summary.TotalSheet = summary.TotalSheet.Add(r.Sheet)
		summary.Balance = summary.Balance.Add(r.Balance)
	}
	summary.Situation = domain.Situation(summary.Balance)
	return summary, nil
}

package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/portal/internal/db"
	"github.com/sidereusnuntius/portal/internal/domain"
	"github.com/sidereusnuntius/portal/internal/service"
)

func (s *AppService) ListDaysOff(ctx context.Context, caller domain.User, month time.Time) ([]domain.DayOff, error) {
	matricula, err := scope(caller, "")
	if err != nil {
		return nil, err
	}
	from, to := db.Month(month.In(s.loc))
	return s.DB.ListDaysOff(ctx, db.Filter{
		Matricula: matricula,
		From:      from,
		To:        to,
	})
}

func (s *AppService) CreateDayOff(ctx context.Context, caller domain.User, input service.DayOffInput) (domain.DayOff, error) {
	input.Matricula = strings.TrimSpace(input.Matricula)
	if !caller.Admin {
		if input.Matricula != "" && input.Matricula != caller.Matricula {
			return domain.DayOff{}, fmt.Errorf("%w: days off can only be recorded for yourself", service.ErrForbidden)
		}
		input.Matricula = caller.Matricula
	}

	var errs []error
	if input.Matricula == "" {
		errs = append(errs, errors.New("matrícula is required"))
	}
	if strings.TrimSpace(input.Kind) == "" {
		errs = append(errs, errors.New("tipo is required"))
	}
	if strings.TrimSpace(input.Period) == "" {
		errs = append(errs, errors.New("período is required"))
	}
	day, err := parseDay(input.Day, s.loc)
	if err != nil {
		errs = append(errs, errors.New("dia is required"))
	}
	if err = errors.Join(errs...); err != nil {
		return domain.DayOff{}, fmt.Errorf("%w: %w", service.ErrInvalidInput, err)
	}

	dayOff := domain.DayOff{
		ID:        s.newID(),
		Matricula: input.Matricula,
		Kind:      strings.TrimSpace(input.Kind),
		Period:    strings.TrimSpace(input.Period),
		Day:       day,
		CreatedBy: caller.Email,
	}
	if err = s.DB.InsertDayOff(ctx, dayOff); err != nil {
		return domain.DayOff{}, err
	}
	log.Info().Str("id", dayOff.ID).Str("matricula", dayOff.Matricula).Time("dia", day).Msg("day off recorded")
	return dayOff, nil
}

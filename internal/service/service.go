package service

import (
	"errors"

	"github.com/sidereusnuntius/portal/internal/db"
)

var (
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = db.ErrNotFound
	// ErrNotConfirmed is returned by deletions that were not confirmed by the user.
	ErrNotConfirmed = errors.New("deletion not confirmed")
)

// Service is everything the portal's screens do. Every operation that reads or writes a collection takes the
// caller's user record; records are scoped to the caller's registration number unless the caller is an
// administrator.
type Service interface {
	Bootstrap
	ReportService
	DayOffService
	ScheduleService
}

package service

import (
	"context"
	"io"

	"github.com/sidereusnuntius/portal/internal/domain"
)

// ScheduleInput describes an uploaded schedule file. Matricula is the registration number the schedule is meant
// for.
type ScheduleInput struct {
	Title     string
	Matricula string
	Filename  string
	MimeType  string
}

type ScheduleService interface {
	UploadSchedule(ctx context.Context, caller domain.User, input ScheduleInput, content io.Reader) (domain.Schedule, error)
	// ListSchedules returns the visible schedules, newest first, each with a download URL.
	ListSchedules(ctx context.Context, caller domain.User) ([]domain.Schedule, error)
	DeleteSchedule(ctx context.Context, caller domain.User, id string, confirmed bool) error
	// OpenFile returns the content of a stored file.
	OpenFile(ctx context.Context, path string) ([]byte, error)
}

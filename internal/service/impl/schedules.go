package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/portal/internal/db"
	"github.com/sidereusnuntius/portal/internal/domain"
	"github.com/sidereusnuntius/portal/internal/service"
	"github.com/sidereusnuntius/portal/internal/validate"
)

const scheduleDir = "escalas"

// countingReader counts the bytes read through it.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (s *AppService) UploadSchedule(ctx context.Context, caller domain.User, input service.ScheduleInput, content io.Reader) (domain.Schedule, error) {
	if !caller.Admin {
		return domain.Schedule{}, fmt.Errorf("%w: only administrators upload schedules", service.ErrForbidden)
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Matricula = strings.TrimSpace(input.Matricula)
	var errs []error
	errs = append(errs, validate.Title(input.Title))
	if input.Matricula == "" {
		errs = append(errs, errors.New("matrícula is required"))
	}
	if input.Filename == "" {
		errs = append(errs, errors.New("file is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return domain.Schedule{}, fmt.Errorf("%w: %w", service.ErrInvalidInput, err)
	}

	id := s.newID()
	ext := strings.ToLower(path.Ext(input.Filename))
	mimeType := input.MimeType
	if mimeType == "" {
		mimeType = mime.TypeByExtension(ext)
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	blobPath := path.Join(scheduleDir, id+ext)
	counter := &countingReader{r: content}
	if err := s.Store.Create(ctx, counter, blobPath); err != nil {
		return domain.Schedule{}, err
	}

	schedule := domain.Schedule{
		ID:         id,
		Title:      input.Title,
		Filename:   path.Base(input.Filename),
		MimeType:   mimeType,
		SizeBytes:  counter.n,
		Path:       blobPath,
		Matricula:  input.Matricula,
		Created:    s.now(),
		UploadedBy: caller.Email,
	}
	if err := s.DB.InsertSchedule(ctx, schedule); err != nil {
		if dErr := s.Store.Delete(ctx, blobPath); dErr != nil {
			log.Error().
				Err(dErr).
				Str("path", blobPath).
				Str("type", mimeType).
				Msg("error when trying to delete file after failed insert")
		}
		return domain.Schedule{}, err
	}

	u, err := s.Store.URL(ctx, blobPath)
	if err != nil {
		log.Warn().Err(err).Str("path", blobPath).Msg("no download url for new schedule")
	}
	schedule.URL = u
	log.Info().Str("id", id).Str("matricula", schedule.Matricula).Int64("size", schedule.SizeBytes).Msg("schedule uploaded")
	return schedule, nil
}

func (s *AppService) ListSchedules(ctx context.Context, caller domain.User) ([]domain.Schedule, error) {
	matricula, err := scope(caller, "")
	if err != nil {
		return nil, err
	}
	schedules, err := s.DB.ListSchedules(ctx, db.Filter{
		Matricula: matricula,
		Desc:      true,
	})
	if err != nil {
		return nil, err
	}

	for i := range schedules {
		u, err := s.Store.URL(ctx, schedules[i].Path)
		if err != nil {
			log.Warn().Err(err).Str("path", schedules[i].Path).Msg("no download url for schedule")
			continue
		}
		schedules[i].URL = u
	}
	return schedules, nil
}

func (s *AppService) DeleteSchedule(ctx context.Context, caller domain.User, id string, confirmed bool) error {
	if !caller.Admin {
		return fmt.Errorf("%w: only administrators delete schedules", service.ErrForbidden)
	}
	if !confirmed {
		return service.ErrNotConfirmed
	}

	schedule, err := s.DB.GetSchedule(ctx, id)
	if err != nil {
		return err
	}
	if err = s.DB.DeleteSchedule(ctx, id); err != nil {
		return err
	}
	if err = s.Queue.DeleteBlob(ctx, schedule.Path); err != nil {
		log.Error().Err(err).Str("path", schedule.Path).Msg("schedule deleted but its file was left behind")
	}
	log.Info().Str("id", id).Str("by", caller.Email).Msg("schedule deleted")
	return nil
}

func (s *AppService) OpenFile(ctx context.Context, blobPath string) ([]byte, error) {
	return s.Store.Open(ctx, blobPath)
}

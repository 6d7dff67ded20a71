package impl

import (
	"context"

	"github.com/sidereusnuntius/portal/internal/db"
	"github.com/sidereusnuntius/portal/internal/domain"
)

type scheduleRow struct {
	ID         string `db:"id"`
	Title      string `db:"title"`
	Filename   string `db:"filename"`
	MimeType   string `db:"mime_type"`
	SizeBytes  int64  `db:"size_bytes"`
	Path       string `db:"path"`
	Matricula  string `db:"matricula"`
	CreatedAt  int64  `db:"created_at"`
	UploadedBy string `db:"uploaded_by"`
}

var scheduleColumns = []string{
	"id", "title", "filename", "mime_type", "size_bytes", "path", "matricula", "created_at", "uploaded_by",
}

func (r scheduleRow) domain() domain.Schedule {
	return domain.Schedule{
		ID:         r.ID,
		Title:      r.Title,
		Filename:   r.Filename,
		MimeType:   r.MimeType,
		SizeBytes:  r.SizeBytes,
		Path:       r.Path,
		Matricula:  r.Matricula,
		Created:    fromMillis(r.CreatedAt),
		UploadedBy: r.UploadedBy,
	}
}

func (d *dbImpl) InsertSchedule(ctx context.Context, schedule domain.Schedule) error {
	row := scheduleRow{
		ID:         schedule.ID,
		Title:      schedule.Title,
		Filename:   schedule.Filename,
		MimeType:   schedule.MimeType,
		SizeBytes:  schedule.SizeBytes,
		Path:       schedule.Path,
		Matricula:  schedule.Matricula,
		CreatedAt:  toMillis(schedule.Created),
		UploadedBy: schedule.UploadedBy,
	}
	_, err := d.sess.InsertInto(schedulesTable).
		Columns(scheduleColumns...).
		Record(&row).
		ExecContext(ctx)
	return d.HandleError(err)
}

func (d *dbImpl) GetSchedule(ctx context.Context, id string) (domain.Schedule, error) {
	var row scheduleRow
	err := d.sess.Select(scheduleColumns...).
		From(schedulesTable).
		Where("id = ?", id).
		LoadOneContext(ctx, &row)
	if err != nil {
		return domain.Schedule{}, d.HandleError(err)
	}
	return row.domain(), nil
}

func (d *dbImpl) ListSchedules(ctx context.Context, filter db.Filter) ([]domain.Schedule, error) {
	var rows []scheduleRow
	stmt := ranged(d.sess.Select(scheduleColumns...).From(schedulesTable), "created_at", "created_at", filter)
	if _, err := stmt.LoadContext(ctx, &rows); err != nil {
		return nil, d.HandleError(err)
	}

	schedules := make([]domain.Schedule, len(rows))
	for i, r := range rows {
		schedules[i] = r.domain()
	}
	return schedules, nil
}

func (d *dbImpl) DeleteSchedule(ctx context.Context, id string) error {
	return d.affected(d.sess.DeleteFrom(schedulesTable).
		Where("id = ?", id).
		ExecContext(ctx))
}

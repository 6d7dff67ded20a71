package fsdb

import (
	"context"
	"sort"

	"cloud.google.com/go/firestore"
	"github.com/sidereusnuntius/portal/internal/db"
	"github.com/sidereusnuntius/portal/internal/domain"
)

func (s *Store) InsertReport(ctx context.Context, report domain.Report) error {
	_, err := s.client.Collection(reportsCollection).Doc(report.ID).Create(ctx, newReportDoc(report))
	return HandleError(err)
}

func (s *Store) GetReport(ctx context.Context, id string) (domain.Report, error) {
	snap, err := s.client.Collection(reportsCollection).Doc(id).Get(ctx)
	if err != nil {
		return domain.Report{}, HandleError(err)
	}
	var doc reportDoc
	if err = snap.DataTo(&doc); err != nil {
		return domain.Report{}, HandleError(err)
	}
	return doc.domain(id), nil
}

// ListReports ranges over the business day but orders by creation time.
func (s *Store) ListReports(ctx context.Context, filter db.Filter) ([]domain.Report, error) {
	q := ranged(s.client.Collection(reportsCollection), "dataCaixa", filter)
	reports, err := all(ctx, q, reportDoc.domain)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(reports, func(i, j int) bool {
		if filter.Desc {
			return reports[i].Created.After(reports[j].Created)
		}
		return reports[i].Created.Before(reports[j].Created)
	})
	return reports, nil
}

func (s *Store) DeleteReport(ctx context.Context, id string) error {
	_, err := s.client.Collection(reportsCollection).Doc(id).Delete(ctx, firestore.Exists)
	return HandleError(err)
}

func (s *Store) InsertDayOff(ctx context.Context, dayOff domain.DayOff) error {
	_, err := s.client.Collection(daysOffCollection).Doc(dayOff.ID).Create(ctx, dayOffDoc{
		Matricula: dayOff.Matricula,
		Kind:      dayOff.Kind,
		Period:    dayOff.Period,
		Day:       dayOff.Day,
		CreatedBy: dayOff.CreatedBy,
	})
	return HandleError(err)
}

func (s *Store) ListDaysOff(ctx context.Context, filter db.Filter) ([]domain.DayOff, error) {
	q := ranged(s.client.Collection(daysOffCollection), "dia", filter)
	return all(ctx, q, func(d dayOffDoc, id string) domain.DayOff {
		return domain.DayOff{
			ID:        id,
			Matricula: d.Matricula,
			Kind:      d.Kind,
			Period:    d.Period,
			Day:       d.Day.UTC(),
			CreatedBy: d.CreatedBy,
		}
	})
}

func (s *Store) InsertSchedule(ctx context.Context, schedule domain.Schedule) error {
	_, err := s.client.Collection(schedulesCollection).Doc(schedule.ID).Create(ctx, scheduleDoc{
		Title:      schedule.Title,
		Filename:   schedule.Filename,
		MimeType:   schedule.MimeType,
		SizeBytes:  schedule.SizeBytes,
		Path:       schedule.Path,
		Matricula:  schedule.Matricula,
		Created:    schedule.Created,
		UploadedBy: schedule.UploadedBy,
	})
	return HandleError(err)
}

func (s *Store) GetSchedule(ctx context.Context, id string) (domain.Schedule, error) {
	snap, err := s.client.Collection(schedulesCollection).Doc(id).Get(ctx)
	if err != nil {
		return domain.Schedule{}, HandleError(err)
	}
	var doc scheduleDoc
	if err = snap.DataTo(&doc); err != nil {
		return domain.Schedule{}, HandleError(err)
	}
	return doc.domain(id), nil
}

func (s *Store) ListSchedules(ctx context.Context, filter db.Filter) ([]domain.Schedule, error) {
	q := ranged(s.client.Collection(schedulesCollection), "criadoEm", filter)
	return all(ctx, q, scheduleDoc.domain)
}

func (s *Store) DeleteSchedule(ctx context.Context, id string) error {
	_, err := s.client.Collection(schedulesCollection).Doc(id).Delete(ctx, firestore.Exists)
	return HandleError(err)
}

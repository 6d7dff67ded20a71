package impl

import (
	"context"

	"github.com/sidereusnuntius/portal/internal/db"
	"github.com/sidereusnuntius/portal/internal/domain"
)

type dayOffRow struct {
	ID        string `db:"id"`
	Matricula string `db:"matricula"`
	Kind      string `db:"kind"`
	Period    string `db:"period"`
	Day       int64  `db:"day"`
	CreatedBy string `db:"created_by"`
}

var dayOffColumns = []string{"id", "matricula", "kind", "period", "day", "created_by"}

func (d *dbImpl) InsertDayOff(ctx context.Context, dayOff domain.DayOff) error {
	row := dayOffRow{
		ID:        dayOff.ID,
		Matricula: dayOff.Matricula,
		Kind:      dayOff.Kind,
		Period:    dayOff.Period,
		Day:       toMillis(dayOff.Day),
		CreatedBy: dayOff.CreatedBy,
	}
	_, err := d.sess.InsertInto(daysOffTable).
		Columns(dayOffColumns...).
		Record(&row).
		ExecContext(ctx)
	return d.HandleError(err)
}

func (d *dbImpl) ListDaysOff(ctx context.Context, filter db.Filter) ([]domain.DayOff, error) {
	var rows []dayOffRow
	stmt := ranged(d.sess.Select(dayOffColumns...).From(daysOffTable), "day", "day", filter)
	if _, err := stmt.LoadContext(ctx, &rows); err != nil {
		return nil, d.HandleError(err)
	}

	daysOff := make([]domain.DayOff, len(rows))
	for i, r := range rows {
		daysOff[i] = domain.DayOff{
			ID:        r.ID,
			Matricula: r.Matricula,
			Kind:      r.Kind,
			Period:    r.Period,
			Day:       fromMillis(r.Day),
			CreatedBy: r.CreatedBy,
		}
	}
	return daysOff, nil
}

package impl

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sidereusnuntius/portal/internal/db"
	"github.com/sidereusnuntius/portal/internal/domain"
)

type reportRow struct {
	ID        string          `db:"id"`
	Matricula string          `db:"matricula"`
	Day       int64           `db:"day"`
	Sheet     decimal.Decimal `db:"sheet"`
	Cash      decimal.Decimal `db:"cash"`
	Balance   decimal.Decimal `db:"balance"`
	Note      string          `db:"note"`
	CreatedAt int64           `db:"created_at"`
	CreatedBy string          `db:"created_by"`
}

var reportColumns = []string{"id", "matricula", "day", "sheet", "cash", "balance", "note", "created_at", "created_by"}

func (r reportRow) domain() domain.Report {
	return domain.Report{
		ID:        r.ID,
		Matricula: r.Matricula,
		Day:       fromMillis(r.Day),
		Sheet:     r.Sheet,
		Cash:      r.Cash,
		Balance:   r.Balance,
		Note:      r.Note,
		Created:   fromMillis(r.CreatedAt),
		CreatedBy: r.CreatedBy,
	}
}

func (d *dbImpl) InsertReport(ctx context.Context, report domain.Report) error {
	row := reportRow{
		ID:        report.ID,
		Matricula: report.Matricula,
		Day:       toMillis(report.Day),
		Sheet:     report.Sheet,
		Cash:      report.Cash,
		Balance:   report.Balance,
		Note:      report.Note,
		CreatedAt: toMillis(report.Created),
		CreatedBy: report.CreatedBy,
	}
	_, err := d.sess.InsertInto(reportsTable).
		Columns(reportColumns...).
		Record(&row).
		ExecContext(ctx)
	return d.HandleError(err)
}

func (d *dbImpl) GetReport(ctx context.Context, id string) (domain.Report, error) {
	var row reportRow
	err := d.sess.Select(reportColumns...).
		From(reportsTable).
		Where("id = ?", id).
		LoadOneContext(ctx, &row)
	if err != nil {
		return domain.Report{}, d.HandleError(err)
	}
	return row.domain(), nil
}

func (d *dbImpl) ListReports(ctx context.Context, filter db.Filter) ([]domain.Report, error) {
	var rows []reportRow
	stmt := ranged(d.sess.Select(reportColumns...).From(reportsTable), "day", "created_at", filter)
	if _, err := stmt.LoadContext(ctx, &rows); err != nil {
		return nil, d.HandleError(err)
	}

	reports := make([]domain.Report, len(rows))
	for i, r := range rows {
		reports[i] = r.domain()
	}
	return reports, nil
}

func (d *dbImpl) DeleteReport(ctx context.Context, id string) error {
	return d.affected(d.sess.DeleteFrom(reportsTable).
		Where("id = ?", id).
		ExecContext(ctx))
}

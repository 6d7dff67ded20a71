package impl

import (
	"database/sql"
	"errors"
	"time"

	"github.com/gocraft/dbr/v2"
	"github.com/gocraft/dbr/v2/dialect"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/portal/internal/config"
	"github.com/sidereusnuntius/portal/internal/db"
)

const (
	accountsTable  = "accounts"
	usersTable     = "users"
	reportsTable   = "reports"
	daysOffTable   = "days_off"
	schedulesTable = "schedules"
)

type dbImpl struct {
	Config config.Configuration
	db     *sql.DB
	sess   *dbr.Session
}

func New(config config.Configuration, d *sql.DB) db.DB {
	conn := &dbr.Connection{
		DB:            d,
		Dialect:       dialect.SQLite3,
		EventReceiver: &dbr.NullEventReceiver{},
	}
	return &dbImpl{
		Config: config,
		db:     d,
		sess:   conn.NewSession(nil),
	}
}

// HandleError takes a database error and returns a higher level error that hides the implementation details
// and can be more easily handled by the calling functions without doing type assertions, checking error codes and
// comparing to sentinel errors.
func (d *dbImpl) HandleError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, dbr.ErrNotFound) {
		return db.ErrNotFound
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return db.ErrConflict
	}

	log.Error().Err(err).Msg("database error")
	return errors.Join(db.ErrInternal, err)
}

// affected turns an update or delete that touched no row into ErrNotFound.
func (d *dbImpl) affected(res sql.Result, err error) error {
	if err != nil {
		return d.HandleError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return d.HandleError(err)
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}

// ranged applies a filter to a select: the range is checked against rangeColumn and rows are ordered by
// orderColumn, ties broken by id.
func ranged(stmt *dbr.SelectStmt, rangeColumn, orderColumn string, filter db.Filter) *dbr.SelectStmt {
	if filter.Matricula != "" {
		stmt = stmt.Where(dbr.Eq("matricula", filter.Matricula))
	}
	if !filter.From.IsZero() {
		stmt = stmt.Where(dbr.Gte(rangeColumn, toMillis(filter.From)))
	}
	if !filter.To.IsZero() {
		stmt = stmt.Where(dbr.Lt(rangeColumn, toMillis(filter.To)))
	}
	return stmt.OrderDir(orderColumn, !filter.Desc).OrderDir("id", !filter.Desc)
}

// Timestamps are stored as unix milliseconds so that range filters and ordering compare numbers.
func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

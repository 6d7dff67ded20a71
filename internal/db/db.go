package db

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal database error")
	ErrConflict = errors.New("already exists")
)

// Documents is the document store: the user records and the collections behind the feature screens.
type Documents interface {
	Users
	Reports
	DaysOff
	Schedules
}

// DB is everything the portal persists. Accounts always live in the relational database; Documents may be
// served by another backend.
type DB interface {
	Accounts
	Documents
}

// Filter narrows a collection query. Zero values mean "no restriction": an empty Matricula matches every
// record, zero From/To leave the range open. From is inclusive and To is exclusive.
type Filter struct {
	Matricula string
	From      time.Time
	To        time.Time
	// Desc orders by the collection's timestamp field, newest first.
	Desc bool
}

// Month returns the [first day of month, first day of next month) range containing t.
func Month(t time.Time) (from, to time.Time) {
	from = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return from, from.AddDate(0, 1, 0)
}

// Day returns the [midnight, next midnight) range containing t.
func Day(t time.Time) (from, to time.Time) {
	from = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return from, from.AddDate(0, 0, 1)
}

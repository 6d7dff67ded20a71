// Package fsdb stores the document collections in Cloud Firestore, using the collection and field names the
// portal's child applications have always read: users, relatorios, folgas and escalas.
package fsdb

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/portal/internal/db"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	usersCollection     = "users"
	reportsCollection   = "relatorios"
	daysOffCollection   = "folgas"
	schedulesCollection = "escalas"
)

var _ db.Documents = (*Store)(nil)

// Store implements db.Documents.
type Store struct {
	client *firestore.Client
}

// New connects to the project's default database. With FIRESTORE_EMULATOR_HOST set, the client talks to the
// emulator instead.
func New(ctx context.Context, project string) (*Store, error) {
	client, err := firestore.NewClient(ctx, project)
	if err != nil {
		return nil, err
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// HandleError maps gRPC status codes to the db package's sentinel errors.
func HandleError(err error) error {
	if err == nil {
		return nil
	}

	switch status.Code(err) {
	case codes.NotFound:
		return db.ErrNotFound
	case codes.AlreadyExists:
		return db.ErrConflict
	}

	log.Error().Err(err).Msg("firestore error")
	return errors.Join(db.ErrInternal, err)
}

// ranged applies a filter to a collection query. Firestore wants the first ordering on the field a range
// applies to, so callers that order by another field sort the results themselves.
func ranged(col *firestore.CollectionRef, field string, filter db.Filter) firestore.Query {
	q := col.Query
	if filter.Matricula != "" {
		q = q.Where("matricula", "==", filter.Matricula)
	}
	if !filter.From.IsZero() {
		q = q.Where(field, ">=", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where(field, "<", filter.To)
	}
	dir := firestore.Asc
	if filter.Desc {
		dir = firestore.Desc
	}
	return q.OrderBy(field, dir)
}

// all runs a query, decodes every document into a D and converts it with conv.
func all[D, T any](ctx context.Context, q firestore.Query, conv func(doc D, id string) T) ([]T, error) {
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, HandleError(err)
	}

	out := make([]T, 0, len(snaps))
	for _, snap := range snaps {
		var doc D
		if err = snap.DataTo(&doc); err != nil {
			log.Error().Err(err).Str("path", snap.Ref.Path).Msg("malformed document")
			return nil, errors.Join(db.ErrInternal, err)
		}
		out = append(out, conv(doc, snap.Ref.ID))
	}
	return out, nil
}

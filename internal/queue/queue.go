package queue

import (
	"context"

	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/portal/internal/domain"
	"github.com/sidereusnuntius/portal/internal/storage"
)

// Queue enqueues the portal's background work.
type Queue interface {
	DeleteBlob(ctx context.Context, path string) error
	Reconcile(ctx context.Context, id domain.Identity) error
}

// Reconciler brings a user record in line with the identity it belongs to.
type Reconciler interface {
	ReconcileUser(ctx context.Context, id domain.Identity) (domain.User, error)
}

type Jobs struct {
	queues *backlite.Client
	store  storage.Storage
}

func New(blClient *backlite.Client, store storage.Storage) *Jobs {
	return &Jobs{
		queues: blClient,
		store:  store,
	}
}

// Start registers the processors and starts the workers. Tasks may be enqueued before Start; they run once the
// workers are up.
func (q *Jobs) Start(ctx context.Context, reconciler Reconciler) {
	q.queues.Register(backlite.NewQueue[BlobDeleteJob](q.deleteBlob()))
	q.queues.Register(backlite.NewQueue[ReconcileJob](q.reconcile(reconciler)))
	q.queues.Start(ctx)
	log.Info().Msg("started task queue")
}

func (q *Jobs) DeleteBlob(ctx context.Context, path string) error {
	log.Debug().Str("path", path).Msg("enqueuing blob deletion")
	_, err := q.queues.Add(BlobDeleteJob{Path: path}).Ctx(ctx).Save()
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to enqueue blob deletion")
	}
	return err
}

func (q *Jobs) Reconcile(ctx context.Context, id domain.Identity) error {
	log.Debug().Str("subject", id.Subject).Msg("enqueuing user reconciliation")
	_, err := q.queues.Add(ReconcileJob{
		Subject: id.Subject,
		Email:   id.Email,
		Name:    id.Name,
	}).Ctx(ctx).Save()
	if err != nil {
		log.Error().Err(err).Str("subject", id.Subject).Msg("failed to enqueue user reconciliation")
	}
	return err
}

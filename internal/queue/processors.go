package queue

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/portal/internal/domain"
	"github.com/sidereusnuntius/portal/internal/storage"
)

func (q *Jobs) deleteBlob() func(context.Context, BlobDeleteJob) error {
	return func(ctx context.Context, job BlobDeleteJob) error {
		err := q.store.Delete(ctx, job.Path)
		if errors.Is(err, storage.ErrNotExist) {
			log.Warn().Str("path", job.Path).Msg("blob already gone")
			return nil
		}
		if err != nil {
			log.Error().Err(err).Str("path", job.Path).Msg("blob deletion failed")
			return err
		}
		log.Debug().Str("path", job.Path).Msg("blob deleted")
		return nil
	}
}

func (q *Jobs) reconcile(r Reconciler) func(context.Context, ReconcileJob) error {
	return func(ctx context.Context, job ReconcileJob) error {
		_, err := r.ReconcileUser(ctx, domain.Identity{
			Subject: job.Subject,
			Email:   job.Email,
			Name:    job.Name,
		})
		if err != nil {
			log.Error().Err(err).Str("subject", job.Subject).Msg("user reconciliation failed")
		}
		return err
	}
}

package queue

import (
	"time"

	"github.com/mikestefanello/backlite"
)

const (
	BlobDeleteQueue = "BlobDelete"
	ReconcileQueue  = "Reconcile"
)

// BlobDeleteJob removes a schedule file after its record was deleted.
type BlobDeleteJob struct {
	Path string
}

func (j BlobDeleteJob) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        BlobDeleteQueue,
		MaxAttempts: 5,
		Backoff:     30 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: true,
			Data: &backlite.RetainData{
				OnlyFailed: true,
			},
		},
	}
}

// ReconcileJob retries the sign in reconciliation of a user record that failed while the user was signing in.
type ReconcileJob struct {
	Subject string
	Email   string
	Name    string
}

func (j ReconcileJob) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        ReconcileQueue,
		MaxAttempts: 3,
		Backoff:     10 * time.Second,
		Timeout:     10 * time.Second,
		Retention: &backlite.Retention{
			Duration:   12 * time.Hour,
			OnlyFailed: false,
			Data: &backlite.RetainData{
				OnlyFailed: true,
			},
		},
	}
}

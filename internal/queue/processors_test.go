package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/sidereusnuntius/portal/internal/domain"
	mock_db "github.com/sidereusnuntius/portal/internal/mocks"
	"github.com/sidereusnuntius/portal/internal/storage"
	"go.uber.org/mock/gomock"
)

type reconcilerFunc func(ctx context.Context, id domain.Identity) (domain.User, error)

func (f reconcilerFunc) ReconcileUser(ctx context.Context, id domain.Identity) (domain.User, error) {
	return f(ctx, id)
}

func TestDeleteBlob(t *testing.T) {
	cases := []struct {
		name     string
		storeErr error
		expected error
	}{
		{"deleted", nil, nil},
		{"already gone", storage.ErrNotExist, nil},
		{"store failure", storage.ErrInternal, storage.ErrInternal},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mock_db.NewMockStorage(ctrl)
			store.EXPECT().Delete(gomock.Any(), "escalas/x.pdf").Return(c.storeErr)

			q := &Jobs{store: store}
			err := q.deleteBlob()(context.Background(), BlobDeleteJob{Path: "escalas/x.pdf"})
			if !errors.Is(err, c.expected) {
				t.Errorf("expected %v, got %v", c.expected, err)
			}
		})
	}
}

func TestReconcile(t *testing.T) {
	var got domain.Identity
	fail := errors.New("unavailable")
	r := reconcilerFunc(func(_ context.Context, id domain.Identity) (domain.User, error) {
		got = id
		return domain.User{}, fail
	})

	q := &Jobs{}
	job := ReconcileJob{Subject: "s1", Email: "jdoe@movebuss.local", Name: "John"}
	if err := q.reconcile(r)(context.Background(), job); !errors.Is(err, fail) {
		t.Errorf("a failed reconciliation must be retried, got %v", err)
	}
	if got != (domain.Identity{Subject: "s1", Email: "jdoe@movebuss.local", Name: "John"}) {
		t.Errorf("unexpected identity %+v", got)
	}
}

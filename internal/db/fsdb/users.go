package fsdb

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/sidereusnuntius/portal/internal/domain"
)

func (s *Store) GetUser(ctx context.Context, subject string) (domain.User, error) {
	snap, err := s.client.Collection(usersCollection).Doc(subject).Get(ctx)
	if err != nil {
		return domain.User{}, HandleError(err)
	}

	var user domain.User
	if err = snap.DataTo(&user); err != nil {
		return domain.User{}, HandleError(err)
	}
	user.Subject = subject
	user.Created = user.Created.UTC()
	return user, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	_, err := s.client.Collection(usersCollection).Doc(user.Subject).Create(ctx, user)
	return HandleError(err)
}

// SetAdmin updates the single field, leaving the rest of the document untouched. Update fails with NotFound
// when the document does not exist.
func (s *Store) SetAdmin(ctx context.Context, subject string, admin bool) error {
	_, err := s.client.Collection(usersCollection).Doc(subject).Update(ctx, []firestore.Update{
		{Path: "admin", Value: admin},
	})
	return HandleError(err)
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	q := s.client.Collection(usersCollection).OrderBy("matricula", firestore.Asc)
	return all(ctx, q, func(u domain.User, id string) domain.User {
		u.Subject = id
		u.Created = u.Created.UTC()
		return u
	})
}

package impl

import (
	"context"

	"github.com/sidereusnuntius/portal/internal/domain"
)

type userRow struct {
	Subject   string `db:"subject"`
	Email     string `db:"email"`
	Matricula string `db:"matricula"`
	Name      string `db:"name"`
	Admin     bool   `db:"admin"`
	CreatedAt int64  `db:"created_at"`
}

var userColumns = []string{"subject", "email", "matricula", "name", "admin", "created_at"}

func (r userRow) domain() domain.User {
	return domain.User{
		Subject:   r.Subject,
		Email:     r.Email,
		Matricula: r.Matricula,
		Name:      r.Name,
		Admin:     r.Admin,
		Created:   fromMillis(r.CreatedAt),
	}
}

func (d *dbImpl) GetUser(ctx context.Context, subject string) (domain.User, error) {
	var row userRow
	err := d.sess.Select(userColumns...).
		From(usersTable).
		Where("subject = ?", subject).
		LoadOneContext(ctx, &row)
	if err != nil {
		return domain.User{}, d.HandleError(err)
	}
	return row.domain(), nil
}

func (d *dbImpl) CreateUser(ctx context.Context, user domain.User) error {
	row := userRow{
		Subject:   user.Subject,
		Email:     user.Email,
		Matricula: user.Matricula,
		Name:      user.Name,
		Admin:     user.Admin,
		CreatedAt: toMillis(user.Created),
	}
	_, err := d.sess.InsertInto(usersTable).
		Columns(userColumns...).
		Record(&row).
		ExecContext(ctx)
	return d.HandleError(err)
}

func (d *dbImpl) SetAdmin(ctx context.Context, subject string, admin bool) error {
	return d.affected(d.sess.Update(usersTable).
		Set("admin", admin).
		Where("subject = ?", subject).
		ExecContext(ctx))
}

func (d *dbImpl) ListUsers(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	_, err := d.sess.Select(userColumns...).
		From(usersTable).
		OrderDir("matricula", true).
		LoadContext(ctx, &rows)
	if err != nil {
		return nil, d.HandleError(err)
	}

	users := make([]domain.User, len(rows))
	for i, r := range rows {
		users[i] = r.domain()
	}
	return users, nil
}

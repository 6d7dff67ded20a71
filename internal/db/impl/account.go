package impl

import (
	"context"
	"strings"

	"github.com/sidereusnuntius/portal/internal/domain"
)

type accountRow struct {
	Subject   string `db:"subject"`
	Email     string `db:"email"`
	Name      string `db:"name"`
	Password  string `db:"password"`
	CreatedAt int64  `db:"created_at"`
}

var accountColumns = []string{"subject", "email", "name", "password", "created_at"}

func (r accountRow) domain() domain.Account {
	return domain.Account{
		Subject:  r.Subject,
		Email:    r.Email,
		Name:     r.Name,
		Password: r.Password,
		Created:  fromMillis(r.CreatedAt),
	}
}

func (d *dbImpl) InsertAccount(ctx context.Context, account domain.Account) error {
	row := accountRow{
		Subject:   account.Subject,
		Email:     strings.ToLower(account.Email),
		Name:      account.Name,
		Password:  account.Password,
		CreatedAt: toMillis(account.Created),
	}
	_, err := d.sess.InsertInto(accountsTable).
		Columns(accountColumns...).
		Record(&row).
		ExecContext(ctx)
	return d.HandleError(err)
}

func (d *dbImpl) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	var row accountRow
	err := d.sess.Select(accountColumns...).
		From(accountsTable).
		Where("email = ?", strings.ToLower(email)).
		LoadOneContext(ctx, &row)
	if err != nil {
		return domain.Account{}, d.HandleError(err)
	}
	return row.domain(), nil
}

func (d *dbImpl) GetAccount(ctx context.Context, subject string) (domain.Account, error) {
	var row accountRow
	err := d.sess.Select(accountColumns...).
		From(accountsTable).
		Where("subject = ?", subject).
		LoadOneContext(ctx, &row)
	if err != nil {
		return domain.Account{}, d.HandleError(err)
	}
	return row.domain(), nil
}

func (d *dbImpl) UpdatePassword(ctx context.Context, subject, hash string) error {
	return d.affected(d.sess.Update(accountsTable).
		Set("password", hash).
		Where("subject = ?", subject).
		ExecContext(ctx))
}

package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"studioslot/internal/db"

	"github.com/jmoiron/sqlx"
)

var ErrUserNotFound = errors.New("user not found")

const userColumns = `id, name, email, role, waiver_signed_at, created_at`

type repository struct {
	db *sqlx.DB
}

// NewRepository reads member rows. Accounts themselves are created by the
// identity provider that shares the users table.
func NewRepository(conn *sqlx.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) FindByID(ctx context.Context, id int) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`

	var u User
	if err := db.GetExecutor(ctx, r.db).GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// SignWaiver stamps the waiver once. Signing again keeps the first timestamp.
func (r *repository) SignWaiver(ctx context.Context, id int, at time.Time) (*User, error) {
	query := `
		UPDATE users
		SET waiver_signed_at = COALESCE(waiver_signed_at, $2)
		WHERE id = $1
		RETURNING ` + userColumns

	var u User
	if err := db.GetExecutor(ctx, r.db).GetContext(ctx, &u, query, id, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

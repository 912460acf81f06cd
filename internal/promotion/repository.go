package promotion

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"studioslot/internal/db"

	"github.com/jmoiron/sqlx"
)

const promotionColumns = `id, title, description, active_from, active_until, created_at`

type Repository interface {
	Current(ctx context.Context, now time.Time) (*Promotion, error)
	Create(ctx context.Context, p *Promotion) (*Promotion, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{db: conn}
}

// Current returns the running promotion that started last, or nil.
func (r *repository) Current(ctx context.Context, now time.Time) (*Promotion, error) {
	var p Promotion
	err := db.GetExecutor(ctx, r.db).GetContext(ctx, &p, `
		SELECT `+promotionColumns+`
		FROM promotions
		WHERE active_from <= $1 AND active_until > $1
		ORDER BY active_from DESC, id DESC
		LIMIT 1
	`, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) Create(ctx context.Context, p *Promotion) (*Promotion, error) {
	var created Promotion
	err := db.GetExecutor(ctx, r.db).GetContext(ctx, &created, `
		INSERT INTO promotions (title, description, active_from, active_until)
		VALUES ($1, $2, $3, $4)
		RETURNING `+promotionColumns,
		p.Title, p.Description, p.ActiveFrom, p.ActiveUntil)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

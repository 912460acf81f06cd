package pass

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"studioslot/internal/db"

	"github.com/jmoiron/sqlx"
)

const passColumns = `id, user_id, pass_type, remaining_credits, valid_from, valid_until, status, is_active, external_ref, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) getOne(ctx context.Context, query string, args ...interface{}) (*Pass, error) {
	var p Pass
	if err := db.GetExecutor(ctx, r.db).GetContext(ctx, &p, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPassNotFound
		}
		return nil, err
	}
	return &p, nil
}

// activePassQuery finds the user's current pass. Exhausted packs are included
// so a booking against them fails on credit rather than on a missing pass.
const activePassQuery = `
	SELECT ` + passColumns + `
	FROM passes
	WHERE user_id = $1
	  AND is_active = TRUE
	  AND status IN ('active', 'exhausted')
	  AND valid_until >= $2
	ORDER BY valid_until DESC, id DESC
	LIMIT 1
`

func (r *repository) GetActivePass(ctx context.Context, userID int, now time.Time) (*Pass, error) {
	return r.getOne(ctx, activePassQuery, userID, now)
}

func (r *repository) GetActivePassForUpdate(ctx context.Context, userID int, now time.Time) (*Pass, error) {
	return r.getOne(ctx, activePassQuery+" FOR UPDATE", userID, now)
}

func (r *repository) GetByID(ctx context.Context, id int) (*Pass, error) {
	return r.getOne(ctx, `SELECT `+passColumns+` FROM passes WHERE id = $1`, id)
}

func (r *repository) GetByIDForUpdate(ctx context.Context, id int) (*Pass, error) {
	return r.getOne(ctx, `SELECT `+passColumns+` FROM passes WHERE id = $1 FOR UPDATE`, id)
}

func (r *repository) GetByExternalRef(ctx context.Context, ref string) (*Pass, error) {
	return r.getOne(ctx, `SELECT `+passColumns+` FROM passes WHERE external_ref = $1`, ref)
}

func (r *repository) ListByUser(ctx context.Context, userID int) ([]Pass, error) {
	passes := []Pass{}
	err := db.GetExecutor(ctx, r.db).SelectContext(ctx, &passes, `
		SELECT `+passColumns+`
		FROM passes
		WHERE user_id = $1
		ORDER BY valid_until DESC, id DESC
	`, userID)
	return passes, err
}

func (r *repository) Create(ctx context.Context, p *Pass) (*Pass, error) {
	created := &Pass{}
	err := db.GetExecutor(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO passes (user_id, pass_type, remaining_credits, valid_from, valid_until, status, is_active, external_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+passColumns,
		p.UserID, p.Type, p.RemainingCredits, p.ValidFrom, p.ValidUntil, p.Status, p.IsActive, p.ExternalRef,
	).StructScan(created)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *repository) DeactivateOthers(ctx context.Context, userID, keepID int) error {
	_, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, `
		UPDATE passes
		SET is_active = FALSE, updated_at = NOW()
		WHERE user_id = $1 AND id <> $2 AND is_active = TRUE
	`, userID, keepID)
	return err
}

func (r *repository) UpdateBalance(ctx context.Context, p *Pass) error {
	result, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, `
		UPDATE passes
		SET remaining_credits = $1, status = $2, updated_at = NOW()
		WHERE id = $3
	`, p.RemainingCredits, p.Status, p.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrPassNotFound
	}
	return nil
}

func (r *repository) AddTransaction(ctx context.Context, tx *Transaction) error {
	return db.GetExecutor(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO pass_transactions (pass_id, booking_id, amount, type, balance_after, external_ref)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, tx.PassID, tx.BookingID, tx.Amount, tx.Type, tx.BalanceAfter, tx.ExternalRef).Scan(&tx.ID, &tx.CreatedAt)
}

func (r *repository) TransactionRefExists(ctx context.Context, ref string) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM pass_transactions WHERE external_ref = $1)`, ref)
}

// NetDebitedForBooking is the credit a booking still holds on a pass: debits minus refunds.
func (r *repository) NetDebitedForBooking(ctx context.Context, passID, bookingID int) (int, error) {
	var net int
	err := db.GetExecutor(ctx, r.db).GetContext(ctx, &net, `
		SELECT COALESCE(-SUM(amount), 0)
		FROM pass_transactions
		WHERE pass_id = $1 AND booking_id = $2 AND type IN ('debit', 'refund')
	`, passID, bookingID)
	return net, err
}

func (r *repository) ListTransactions(ctx context.Context, passID int, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	txs := []Transaction{}
	err := db.GetExecutor(ctx, r.db).SelectContext(ctx, &txs, `
		SELECT id, pass_id, booking_id, amount, type, balance_after, external_ref, created_at
		FROM pass_transactions
		WHERE pass_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, passID, limit, offset)
	return txs, err
}

func (r *repository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	result, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, `
		UPDATE passes
		SET status = 'expired', updated_at = NOW()
		WHERE status IN ('active', 'exhausted') AND valid_until < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

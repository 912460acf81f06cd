package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"studioslot/internal/logger"
	"studioslot/internal/metrics"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	codeSerializationFailure pq.ErrorCode = "40001"
	codeDeadlockDetected     pq.ErrorCode = "40P01"
	codeUniqueViolation      pq.ErrorCode = "23505"
)

// ErrTxConflict is returned once every attempt of a unit of work hit a
// serialization failure or deadlock.
var ErrTxConflict = errors.New("transaction conflict: retries exhausted")

type txKey struct{}

// Executor is the query surface shared by *sqlx.DB and *sqlx.Tx.
type Executor interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// GetExecutor returns the transaction bound to ctx by WithinTx, or fallback.
func GetExecutor(ctx context.Context, fallback *sqlx.DB) Executor {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return fallback
}

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TxManager runs units of work in serializable transactions and retries them
// when PostgreSQL aborts one because of a concurrent writer.
type TxManager struct {
	db          *sqlx.DB
	maxAttempts int
	backoff     time.Duration
}

func NewTxManager(db *sqlx.DB, maxAttempts int) *TxManager {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &TxManager{
		db:          db,
		maxAttempts: maxAttempts,
		backoff:     20 * time.Millisecond,
	}
}

// WithinTx runs fn inside a transaction. A call nested in another WithinTx
// joins the outer transaction.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		err = m.runOnce(ctx, fn)
		if err == nil || !IsConflict(err) {
			return err
		}

		metrics.RecordTxRetry()
		logger.WithContext(ctx).Debug("transaction conflict, retrying", "attempt", attempt, "error", err)

		if attempt == m.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * m.backoff):
		}
	}

	return fmt.Errorf("%w: %v", ErrTxConflict, err)
}

func (m *TxManager) runOnce(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := m.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	err = tx.Commit()
	return err
}

// IsConflict reports a serialization failure or deadlock.
func IsConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == codeSerializationFailure || pqErr.Code == codeDeadlockDetected
}

func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation
}

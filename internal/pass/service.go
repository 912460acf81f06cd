package pass

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studioslot/internal/db"
	"studioslot/internal/metrics"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var (
	ErrPassNotFound = errors.New("pass not found")
	ErrPassNotOwned = errors.New("pass belongs to another user")
	ErrInvalidPass  = errors.New("invalid pass data")
	ErrNotPackPass  = errors.New("credits can only be added to a pack pass")
)

// Ledger is the single writer of pass balances. Debit and Refund join the
// caller's transaction when one is bound to ctx.
type Ledger interface {
	GetActivePass(ctx context.Context, userID int, now time.Time) (*Pass, error)
	ActivePassForUpdate(ctx context.Context, userID int, now time.Time) (*Pass, error)
	Debit(ctx context.Context, passID, bookingID, amount int) (*Pass, error)
	Refund(ctx context.Context, passID, bookingID, amount int) (*Pass, int, error)
	Issue(ctx context.Context, req IssueRequest) (*Pass, error)
	TopUp(ctx context.Context, req TopUpRequest) (*Pass, error)
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
	ListPasses(ctx context.Context, userID int) ([]Pass, error)
	ListTransactions(ctx context.Context, userID, passID, limit, offset int) ([]Transaction, error)
}

type ledger struct {
	repo Repository
	tx   db.Transactor
}

func NewLedger(repo Repository, tx db.Transactor) Ledger {
	return &ledger{repo: repo, tx: tx}
}

// GetActivePass returns nil without error when the user has no usable pass.
func (l *ledger) GetActivePass(ctx context.Context, userID int, now time.Time) (*Pass, error) {
	p, err := l.repo.GetActivePass(ctx, userID, now)
	if errors.Is(err, ErrPassNotFound) {
		return nil, nil
	}
	return p, err
}

func (l *ledger) ActivePassForUpdate(ctx context.Context, userID int, now time.Time) (*Pass, error) {
	p, err := l.repo.GetActivePassForUpdate(ctx, userID, now)
	if errors.Is(err, ErrPassNotFound) {
		return nil, nil
	}
	return p, err
}

func (l *ledger) Debit(ctx context.Context, passID, bookingID, amount int) (*Pass, error) {
	var result *Pass
	err := l.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := l.repo.GetByIDForUpdate(ctx, passID)
		if err != nil {
			return err
		}

		if err := ApplyDebit(p, amount); err != nil {
			return err
		}

		if !p.IsUnlimited() {
			if err := l.repo.UpdateBalance(ctx, p); err != nil {
				return err
			}
			if err := l.repo.AddTransaction(ctx, &Transaction{
				PassID:       p.ID,
				BookingID:    &bookingID,
				Amount:       -amount,
				Type:         TxDebit,
				BalanceAfter: p.RemainingCredits,
			}); err != nil {
				return err
			}
		}

		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Refund returns up to amount credits to the pass, never more than the booking
// still holds on it. The second return value is the number of credits restored.
func (l *ledger) Refund(ctx context.Context, passID, bookingID, amount int) (*Pass, int, error) {
	if amount <= 0 {
		return nil, 0, ErrInvalidAmount
	}

	var (
		result   *Pass
		refunded int
	)
	err := l.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := l.repo.GetByIDForUpdate(ctx, passID)
		if err != nil {
			return err
		}
		result = p
		refunded = 0

		if p.IsUnlimited() {
			return nil
		}

		held, err := l.repo.NetDebitedForBooking(ctx, passID, bookingID)
		if err != nil {
			return err
		}
		n := amount
		if held < n {
			n = held
		}
		if n <= 0 {
			return nil
		}

		if err := ApplyRefund(p, n); err != nil {
			return err
		}
		if err := l.repo.UpdateBalance(ctx, p); err != nil {
			return err
		}
		if err := l.repo.AddTransaction(ctx, &Transaction{
			PassID:       p.ID,
			BookingID:    &bookingID,
			Amount:       n,
			Type:         TxRefund,
			BalanceAfter: p.RemainingCredits,
		}); err != nil {
			return err
		}

		refunded = n
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return result, refunded, nil
}

// Issue records a purchased pass. Replaying the same external reference
// returns the pass created the first time.
func (l *ledger) Issue(ctx context.Context, req IssueRequest) (*Pass, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPass, err)
	}
	if !req.ValidUntil.After(req.ValidFrom) {
		return nil, ErrInvalidPass
	}
	if req.Type == TypePack && req.Credits <= 0 {
		return nil, ErrInvalidPass
	}

	var (
		created *Pass
		fresh   bool
	)
	err := l.tx.WithinTx(ctx, func(ctx context.Context) error {
		fresh = false
		existing, err := l.repo.GetByExternalRef(ctx, req.ExternalRef)
		if err == nil {
			created = existing
			return nil
		}
		if !errors.Is(err, ErrPassNotFound) {
			return err
		}

		credits := req.Credits
		if req.Type == TypeUnlimited {
			credits = 0
		}
		ref := req.ExternalRef

		p, err := l.repo.Create(ctx, &Pass{
			UserID:           req.UserID,
			Type:             req.Type,
			RemainingCredits: credits,
			ValidFrom:        req.ValidFrom,
			ValidUntil:       req.ValidUntil,
			Status:           StatusActive,
			IsActive:         true,
			ExternalRef:      &ref,
		})
		if err != nil {
			return err
		}

		if err := l.repo.DeactivateOthers(ctx, req.UserID, p.ID); err != nil {
			return err
		}

		if !p.IsUnlimited() {
			if err := l.repo.AddTransaction(ctx, &Transaction{
				PassID:       p.ID,
				Amount:       credits,
				Type:         TxIssue,
				BalanceAfter: credits,
				ExternalRef:  &ref,
			}); err != nil {
				return err
			}
		}

		created = p
		fresh = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if fresh {
		metrics.RecordPassIssued(string(created.Type))
	}
	return created, nil
}

// TopUp adds purchased credits to a pack pass. A replayed external reference
// is a no-op.
func (l *ledger) TopUp(ctx context.Context, req TopUpRequest) (*Pass, error) {
	if req.Credits <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPass, err)
	}

	var result *Pass
	err := l.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := l.repo.GetByIDForUpdate(ctx, req.PassID)
		if err != nil {
			return err
		}
		result = p

		seen, err := l.repo.TransactionRefExists(ctx, req.ExternalRef)
		if err != nil {
			return err
		}
		if seen {
			return nil
		}

		if p.IsUnlimited() {
			return ErrNotPackPass
		}

		p.RemainingCredits += req.Credits
		if p.Status == StatusExhausted {
			p.Status = StatusActive
		}
		if err := l.repo.UpdateBalance(ctx, p); err != nil {
			return err
		}

		ref := req.ExternalRef
		return l.repo.AddTransaction(ctx, &Transaction{
			PassID:       p.ID,
			Amount:       req.Credits,
			Type:         TxTopUp,
			BalanceAfter: p.RemainingCredits,
			ExternalRef:  &ref,
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (l *ledger) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	n, err := l.repo.ExpireStale(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.RecordPassesExpired(n)
	}
	return n, nil
}

func (l *ledger) ListPasses(ctx context.Context, userID int) ([]Pass, error) {
	return l.repo.ListByUser(ctx, userID)
}

func (l *ledger) ListTransactions(ctx context.Context, userID, passID, limit, offset int) ([]Transaction, error) {
	p, err := l.repo.GetByID(ctx, passID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrPassNotOwned
	}
	return l.repo.ListTransactions(ctx, passID, limit, offset)
}

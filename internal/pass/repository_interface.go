package pass

import (
	"context"
	"time"
)

type Repository interface {
	GetActivePass(ctx context.Context, userID int, now time.Time) (*Pass, error)
	GetActivePassForUpdate(ctx context.Context, userID int, now time.Time) (*Pass, error)
	GetByID(ctx context.Context, id int) (*Pass, error)
	GetByIDForUpdate(ctx context.Context, id int) (*Pass, error)
	GetByExternalRef(ctx context.Context, ref string) (*Pass, error)
	ListByUser(ctx context.Context, userID int) ([]Pass, error)
	Create(ctx context.Context, p *Pass) (*Pass, error)
	DeactivateOthers(ctx context.Context, userID, keepID int) error
	UpdateBalance(ctx context.Context, p *Pass) error
	AddTransaction(ctx context.Context, tx *Transaction) error
	TransactionRefExists(ctx context.Context, ref string) (bool, error)
	NetDebitedForBooking(ctx context.Context, passID, bookingID int) (int, error)
	ListTransactions(ctx context.Context, passID int, limit, offset int) ([]Transaction, error)
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

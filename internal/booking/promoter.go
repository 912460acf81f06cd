package booking

import (
	"context"
	"time"

	"studioslot/internal/class"
	"studioslot/internal/pass"
)

// Promoter fills a freed seat from the waitlist. It must run inside the
// transaction that freed the seat.
type Promoter interface {
	PromoteNext(ctx context.Context, c *class.ClassInstance, now time.Time) (*Booking, error)
}

type promoter struct {
	repo    Repository
	tracker *class.Tracker
	ledger  pass.Ledger
}

func NewPromoter(repo Repository, tracker *class.Tracker, ledger pass.Ledger) Promoter {
	return &promoter{repo: repo, tracker: tracker, ledger: ledger}
}

// PromoteNext walks the waitlist oldest first and books the first entry whose
// owner can pay. Entries that cannot pay stay on the waitlist. It returns nil
// when the class has no free seat, has ended, or nobody could be promoted.
func (p *promoter) PromoteNext(ctx context.Context, c *class.ClassInstance, now time.Time) (*Booking, error) {
	if c.Status != class.StatusScheduled || c.Ended(now) {
		return nil, nil
	}

	free, err := p.tracker.HasCapacity(ctx, c)
	if err != nil || !free {
		return nil, err
	}

	queue, err := p.tracker.WaitlistQueue(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	for _, entry := range queue {
		ps, err := p.ledger.ActivePassForUpdate(ctx, entry.UserID, now)
		if err != nil {
			return nil, err
		}
		if ps == nil || !ps.HasCredit(1) {
			continue
		}

		b, err := p.repo.GetByIDForUpdate(ctx, entry.BookingID)
		if err != nil {
			return nil, err
		}
		if !CanTransition(b.Status, StatusBooked) {
			continue
		}

		passID := ps.ID
		b.Status = StatusBooked
		b.ConsumedPassID = &passID
		if err := p.repo.UpdateStatus(ctx, b); err != nil {
			return nil, err
		}
		if _, err := p.ledger.Debit(ctx, passID, b.ID, 1); err != nil {
			return nil, err
		}
		return b, nil
	}

	return nil, nil
}

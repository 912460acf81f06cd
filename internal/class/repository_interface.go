package class

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, c *ClassInstance) (*ClassInstance, error)
	GetByID(ctx context.Context, id int) (*ClassInstance, error)
	GetByIDForUpdate(ctx context.Context, id int) (*ClassInstance, error)
	ListWithAvailability(ctx context.Context, day time.Time, after *time.Time) ([]ClassWithAvailability, error)
	BookedCount(ctx context.Context, classID int) (int, error)
	WaitlistCount(ctx context.Context, classID int) (int, error)
	WaitlistQueue(ctx context.Context, classID int) ([]QueuedBooking, error)
	MarkCancelled(ctx context.Context, classID int, reason string) error
}

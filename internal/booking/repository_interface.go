package booking

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, b *Booking) (*Booking, error)
	GetByID(ctx context.Context, id int) (*Booking, error)
	GetByIDForUpdate(ctx context.Context, id int) (*Booking, error)
	HasActiveBooking(ctx context.Context, userID, classID int) (bool, error)
	UpdateStatus(ctx context.Context, b *Booking) error
	ListActiveByClass(ctx context.Context, classID int) ([]Booking, error)
	ListByUser(ctx context.Context, userID int) ([]BookingWithDetails, error)
	ListRoster(ctx context.Context, classID int) ([]RosterEntry, error)
	AttendedDays(ctx context.Context, userID int, since time.Time) ([]time.Time, error)
}

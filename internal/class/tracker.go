package class

import "context"

// Tracker answers seat questions from booking rows. There is no stored
// counter to drift from the bookings table.
type Tracker struct {
	repo Repository
}

func NewTracker(repo Repository) *Tracker {
	return &Tracker{repo: repo}
}

func (t *Tracker) BookedCount(ctx context.Context, classID int) (int, error) {
	return t.repo.BookedCount(ctx, classID)
}

func (t *Tracker) HasCapacity(ctx context.Context, c *ClassInstance) (bool, error) {
	booked, err := t.repo.BookedCount(ctx, c.ID)
	if err != nil {
		return false, err
	}
	return booked < c.Capacity, nil
}

// WaitlistQueue lists waitlisted bookings oldest first.
func (t *Tracker) WaitlistQueue(ctx context.Context, classID int) ([]QueuedBooking, error) {
	return t.repo.WaitlistQueue(ctx, classID)
}

func (t *Tracker) Availability(ctx context.Context, c *ClassInstance) (*ClassWithAvailability, error) {
	booked, err := t.repo.BookedCount(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	waiting, err := t.repo.WaitlistCount(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	out := &ClassWithAvailability{ClassInstance: *c, BookedCount: booked, WaitlistCount: waiting}
	out.fill()
	return out, nil
}

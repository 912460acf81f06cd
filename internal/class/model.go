package class

import "time"

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCancelled Status = "cancelled"
)

type ClassInstance struct {
	ID           int       `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Instructor   string    `db:"instructor" json:"instructor"`
	Date         time.Time `db:"class_date" json:"date"`
	StartTime    time.Time `db:"start_time" json:"start_time"`
	EndTime      time.Time `db:"end_time" json:"end_time"`
	Capacity     int       `db:"capacity" json:"capacity"`
	DurationMin  int       `db:"duration_min" json:"duration_min"`
	Status       Status    `db:"status" json:"status"`
	CancelReason *string   `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

func (c *ClassInstance) Started(now time.Time) bool {
	return !now.Before(c.StartTime)
}

func (c *ClassInstance) Ended(now time.Time) bool {
	return !now.Before(c.EndTime)
}

type ClassWithAvailability struct {
	ClassInstance
	BookedCount   int  `db:"booked_count" json:"booked_count"`
	WaitlistCount int  `db:"waitlist_count" json:"waitlist_count"`
	Available     int  `db:"-" json:"available"`
	IsFull        bool `db:"-" json:"is_full"`
}

func (c *ClassWithAvailability) fill() {
	c.Available = c.Capacity - c.BookedCount
	if c.Available < 0 {
		c.Available = 0
	}
	c.IsFull = c.Available == 0
}

// QueuedBooking is one waitlist entry, in promotion order.
type QueuedBooking struct {
	BookingID int       `db:"id" json:"booking_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	BookedAt  time.Time `db:"booked_at" json:"booked_at"`
}

type CreateClassRequest struct {
	Title      string `json:"title" binding:"required"`
	Instructor string `json:"instructor" binding:"required"`
	StartTime  string `json:"start_time" binding:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndTime    string `json:"end_time" binding:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Capacity   int    `json:"capacity" binding:"required,min=1"`
}

type ImportError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

type ImportResult struct {
	Created []ClassInstance `json:"created"`
	Errors  []ImportError   `json:"errors"`
}

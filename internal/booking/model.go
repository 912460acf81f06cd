package booking

import "time"

type Status string

const (
	StatusBooked    Status = "booked"
	StatusWaitlist  Status = "waitlist"
	StatusCancelled Status = "cancelled"
	StatusAttended  Status = "attended"
	StatusNoShow    Status = "no_show"
)

var transitions = map[Status][]Status{
	StatusBooked:   {StatusCancelled, StatusAttended, StatusNoShow},
	StatusWaitlist: {StatusBooked, StatusCancelled},
}

// CanTransition reports whether a booking may move from one status to another.
// Cancelled, attended and no_show are terminal.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Active reports whether the booking holds a seat or a waitlist place.
func (s Status) Active() bool {
	return s == StatusBooked || s == StatusWaitlist
}

func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

type Booking struct {
	ID             int        `db:"id" json:"id"`
	UserID         int        `db:"user_id" json:"user_id"`
	ClassID        int        `db:"class_id" json:"class_id"`
	Status         Status     `db:"status" json:"status"`
	BookedAt       time.Time  `db:"booked_at" json:"booked_at"`
	ConsumedPassID *int       `db:"consumed_pass_id" json:"consumed_pass_id,omitempty"`
	CancelledAt    *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CheckedInAt    *time.Time `db:"checked_in_at" json:"checked_in_at,omitempty"`
}

type BookingWithDetails struct {
	Booking
	ClassTitle string    `db:"class_title" json:"class_title"`
	Instructor string    `db:"instructor" json:"instructor"`
	ClassStart time.Time `db:"class_start" json:"class_start"`
	ClassEnd   time.Time `db:"class_end" json:"class_end"`
}

type RosterEntry struct {
	Booking
	UserName  string `db:"user_name" json:"user_name"`
	UserEmail string `db:"user_email" json:"user_email"`
}

// CreateResult is the outcome of a successful booking request. NewBalance is
// nil for unlimited passes.
type CreateResult struct {
	BookingID  int    `json:"booking_id" example:"42"`
	Status     Status `json:"status" example:"booked"`
	NewBalance *int   `json:"new_balance" example:"4"`
	Unlimited  bool   `json:"unlimited"`
}

type CancelResult struct {
	BookingID         int  `json:"booking_id" example:"42"`
	Refunded          bool `json:"refunded"`
	CreditsRefunded   int  `json:"credits_refunded"`
	NewBalance        *int `json:"new_balance"`
	PromotedBookingID *int `json:"promoted_booking_id,omitempty"`
}

type AdminCancelResult struct {
	ClassID        int `json:"class_id"`
	CancelledCount int `json:"cancelled_count"`
	RefundedCount  int `json:"refunded_count"`
}

type AttendanceResult struct {
	BookingID         int    `json:"booking_id"`
	Status            Status `json:"status"`
	PromotedBookingID *int   `json:"promoted_booking_id,omitempty"`
}

type CancelClassRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

type AttendanceRequest struct {
	Status Status `json:"status" binding:"required,oneof=attended no_show"`
}

type CheckInRequest struct {
	Code string `json:"code" binding:"required"`
}

type CheckInCode struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

type StreakResponse struct {
	Days int `json:"days" example:"3"`
}

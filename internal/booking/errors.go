package booking

import (
	"errors"

	"studioslot/internal/class"
	"studioslot/internal/db"
	"studioslot/internal/pass"
)

var (
	ErrInsufficientCredit  = pass.ErrInsufficientCredit
	ErrNoActivePass        = errors.New("no active pass")
	ErrClassFull           = errors.New("class is full")
	ErrClassAlreadyStarted = errors.New("class has already started")
	ErrDuplicateBooking    = errors.New("user already has an active booking for this class")
	ErrWaiverNotSigned     = errors.New("waiver not signed")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrTransactionConflict = db.ErrTxConflict

	ErrClassNotFound      = class.ErrClassNotFound
	ErrClassCancelled     = class.ErrClassCancelled
	ErrNotBookingOwner    = errors.New("booking belongs to another user")
	ErrBookingNotActive   = errors.New("booking is not booked or waitlisted")
	ErrInvalidTransition  = errors.New("booking status transition not allowed")
	ErrInvalidCheckInCode = errors.New("invalid check-in code")
	ErrCheckInClosed      = errors.New("check-in is not open for this class")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrInsufficientCredit, "insufficient_credit"},
	{ErrNoActivePass, "no_active_pass"},
	{ErrClassFull, "class_full"},
	{ErrClassAlreadyStarted, "class_already_started"},
	{ErrDuplicateBooking, "duplicate_booking"},
	{ErrWaiverNotSigned, "waiver_not_signed"},
	{ErrBookingNotFound, "booking_not_found"},
	{ErrTransactionConflict, "transaction_conflict"},
	{ErrClassNotFound, "class_not_found"},
	{ErrClassCancelled, "class_cancelled"},
	{ErrNotBookingOwner, "not_booking_owner"},
	{ErrBookingNotActive, "booking_not_active"},
	{ErrInvalidTransition, "invalid_transition"},
	{ErrInvalidCheckInCode, "invalid_checkin_code"},
	{ErrCheckInClosed, "checkin_closed"},
}

// Code returns the stable machine-readable name of a booking failure.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}

package booking

import (
	"context"
	"time"
)

type OutcomeKind string

const (
	OutcomeBooked         OutcomeKind = "booked"
	OutcomeWaitlisted     OutcomeKind = "waitlisted"
	OutcomePromoted       OutcomeKind = "promoted"
	OutcomeCancelled      OutcomeKind = "cancelled"
	OutcomeClassCancelled OutcomeKind = "class_cancelled"
	OutcomeAttended       OutcomeKind = "attended"
	OutcomeNoShow         OutcomeKind = "no_show"
)

// Outcome is emitted once per committed booking state change.
type Outcome struct {
	Kind       OutcomeKind `json:"kind"`
	BookingID  int         `json:"booking_id"`
	UserID     int         `json:"user_id"`
	ClassID    int         `json:"class_id"`
	ClassTitle string      `json:"class_title"`
	ClassStart time.Time   `json:"class_start"`
	Refunded   bool        `json:"refunded,omitempty"`
	NewBalance *int        `json:"new_balance,omitempty"`
	Reason     string      `json:"reason,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, o Outcome)
}

type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, o Outcome) {}

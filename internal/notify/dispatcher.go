package notify

import (
	"context"
	"time"

	"studioslot/internal/booking"
	"studioslot/internal/logger"
	"studioslot/internal/user"
)

type Mailer interface {
	SendBookingConfirmation(ctx context.Context, to, name, class string, when time.Time) error
	SendWaitlisted(ctx context.Context, to, name, class string, when time.Time) error
	SendPromotion(ctx context.Context, to, name, class string, when time.Time) error
	SendCancellation(ctx context.Context, to, name, class string, refunded bool) error
	SendClassCancelled(ctx context.Context, to, name, class string, when time.Time, reason string) error
}

type Publisher interface {
	Publish(ctx context.Context, event string, data any) error
}

type UserFinder interface {
	FindByID(ctx context.Context, id int) (*user.User, error)
}

// Dispatcher fans committed booking outcomes out to the event bus and to
// member email. Failures are logged and never reach the caller.
type Dispatcher struct {
	users     UserFinder
	mailer    Mailer
	publisher Publisher
}

// NewDispatcher accepts a nil mailer or publisher to disable that channel.
func NewDispatcher(users UserFinder, mailer Mailer, publisher Publisher) *Dispatcher {
	return &Dispatcher{users: users, mailer: mailer, publisher: publisher}
}

var _ booking.Notifier = (*Dispatcher)(nil)

func (d *Dispatcher) Notify(ctx context.Context, o booking.Outcome) {
	log := logger.WithContext(ctx).With("booking_id", o.BookingID, "kind", o.Kind)

	if d.publisher != nil {
		if err := d.publisher.Publish(ctx, "booking."+string(o.Kind), o); err != nil {
			log.Warn("failed to publish booking event", "error", err)
		}
	}

	if d.mailer == nil || !mailed(o.Kind) {
		return
	}

	u, err := d.users.FindByID(ctx, o.UserID)
	if err != nil {
		log.Warn("skipping booking email, member lookup failed", "user_id", o.UserID, "error", err)
		return
	}

	switch o.Kind {
	case booking.OutcomeBooked:
		err = d.mailer.SendBookingConfirmation(ctx, u.Email, u.Name, o.ClassTitle, o.ClassStart)
	case booking.OutcomeWaitlisted:
		err = d.mailer.SendWaitlisted(ctx, u.Email, u.Name, o.ClassTitle, o.ClassStart)
	case booking.OutcomePromoted:
		err = d.mailer.SendPromotion(ctx, u.Email, u.Name, o.ClassTitle, o.ClassStart)
	case booking.OutcomeCancelled:
		err = d.mailer.SendCancellation(ctx, u.Email, u.Name, o.ClassTitle, o.Refunded)
	case booking.OutcomeClassCancelled:
		err = d.mailer.SendClassCancelled(ctx, u.Email, u.Name, o.ClassTitle, o.ClassStart, o.Reason)
	}
	if err != nil {
		log.Warn("failed to queue booking email", "error", err)
	}
}

func mailed(kind booking.OutcomeKind) bool {
	switch kind {
	case booking.OutcomeAttended, booking.OutcomeNoShow:
		return false
	}
	return true
}

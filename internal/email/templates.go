package email

import (
	"context"
	"fmt"
	"time"
)

const whenLayout = "Mon Jan 2, 2006 at 3:04 PM"

func (s *Service) SendBookingConfirmation(ctx context.Context, to, name, class string, when time.Time) error {
	body := fmt.Sprintf(`Hi %s,

You're booked into %s on %s.

Cancel at least two hours before class to get your credit back.

- StudioSlot`, name, class, when.Format(whenLayout))

	return s.Send(ctx, "booking_confirmation", to, name, "Booking confirmed - "+class, body)
}

func (s *Service) SendWaitlisted(ctx context.Context, to, name, class string, when time.Time) error {
	body := fmt.Sprintf(`Hi %s,

%s on %s is full, so you're on the waitlist. We'll email you if a spot opens.

- StudioSlot`, name, class, when.Format(whenLayout))

	return s.Send(ctx, "waitlisted", to, name, "Waitlisted - "+class, body)
}

func (s *Service) SendPromotion(ctx context.Context, to, name, class string, when time.Time) error {
	body := fmt.Sprintf(`Hi %s,

Good news: a spot opened in %s on %s and it's yours. One credit has been used from your pass.

- StudioSlot`, name, class, when.Format(whenLayout))

	return s.Send(ctx, "waitlist_promotion", to, name, "You're in - "+class, body)
}

func (s *Service) SendCancellation(ctx context.Context, to, name, class string, refunded bool) error {
	credit := "This was inside the two hour window, so the credit was not returned."
	if refunded {
		credit = "Your credit has been returned to your pass."
	}
	body := fmt.Sprintf(`Hi %s,

Your booking for %s is cancelled. %s

- StudioSlot`, name, class, credit)

	return s.Send(ctx, "booking_cancellation", to, name, "Booking cancelled - "+class, body)
}

func (s *Service) SendClassCancelled(ctx context.Context, to, name, class string, when time.Time, reason string) error {
	body := fmt.Sprintf(`Hi %s,

Sorry, %s on %s has been cancelled by the studio.`, name, class, when.Format(whenLayout))
	if reason != "" {
		body += "\nReason: " + reason
	}
	body += "\n\nAny credit you used has been returned.\n\n- StudioSlot"

	return s.Send(ctx, "class_cancelled", to, name, "Class cancelled - "+class, body)
}

package booking

import (
	"context"
	"errors"
	"time"

	"studioslot/internal/class"
	"studioslot/internal/db"
	"studioslot/internal/logger"
	"studioslot/internal/metrics"
	"studioslot/internal/pass"
	"studioslot/internal/policy"
)

// CheckInOpensBefore is how early before class start a check-in code is accepted.
const CheckInOpensBefore = 30 * time.Minute

const streakLookback = 400 * 24 * time.Hour

type WaiverChecker interface {
	WaiverSigned(ctx context.Context, userID int) (bool, error)
}

type CodeSigner interface {
	SignCheckIn(bookingID, userID int, expiresAt time.Time) (string, error)
	VerifyCheckIn(code string) (bookingID, userID int, err error)
}

type Service interface {
	CreateBooking(ctx context.Context, userID, classID int) (*CreateResult, error)
	CancelBooking(ctx context.Context, userID, bookingID int) (*CancelResult, error)
	AdminCancelClass(ctx context.Context, classID int, reason string) (*AdminCancelResult, error)
	MarkAttendance(ctx context.Context, bookingID int, status Status) (*AttendanceResult, error)
	IssueCheckInCode(ctx context.Context, userID, bookingID int) (*CheckInCode, error)
	CheckIn(ctx context.Context, code string) (*AttendanceResult, error)
	Streak(ctx context.Context, userID int) (int, error)
	ListUserBookings(ctx context.Context, userID int) ([]BookingWithDetails, error)
	ListRoster(ctx context.Context, classID int) ([]RosterEntry, error)
}

type service struct {
	repo     Repository
	classes  class.Repository
	tracker  *class.Tracker
	ledger   pass.Ledger
	promoter Promoter
	waivers  WaiverChecker
	policy   policy.Evaluator
	tx       db.Transactor
	notifier Notifier
	signer   CodeSigner
	now      func() time.Time
}

func NewService(
	repo Repository,
	classes class.Repository,
	tracker *class.Tracker,
	ledger pass.Ledger,
	waivers WaiverChecker,
	evaluator policy.Evaluator,
	tx db.Transactor,
	notifier Notifier,
	signer CodeSigner,
) Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &service{
		repo:     repo,
		classes:  classes,
		tracker:  tracker,
		ledger:   ledger,
		promoter: NewPromoter(repo, tracker, ledger),
		waivers:  waivers,
		policy:   evaluator,
		tx:       tx,
		notifier: notifier,
		signer:   signer,
		now:      time.Now,
	}
}

func (s *service) emit(ctx context.Context, outcomes []Outcome) {
	for _, o := range outcomes {
		s.notifier.Notify(ctx, o)
	}
}

func outcomeFor(kind OutcomeKind, b *Booking, c *class.ClassInstance) Outcome {
	return Outcome{
		Kind:       kind,
		BookingID:  b.ID,
		UserID:     b.UserID,
		ClassID:    c.ID,
		ClassTitle: c.Title,
		ClassStart: c.StartTime,
	}
}

func (s *service) CreateBooking(ctx context.Context, userID, classID int) (*CreateResult, error) {
	result, outcome, err := s.createBooking(ctx, userID, classID)
	if err != nil {
		metrics.RecordBookingFailure(Code(err))
		logger.WithContext(ctx).Info("booking rejected", "user_id", userID, "class_id", classID, "reason", Code(err))
		return nil, err
	}

	metrics.RecordBooking(string(result.Status))
	if result.Status == StatusBooked && !result.Unlimited {
		metrics.RecordCreditDebit(1)
	}
	logger.WithContext(ctx).Info("booking created", "booking_id", result.BookingID, "user_id", userID, "class_id", classID, "status", result.Status)
	s.emit(ctx, []Outcome{outcome})

	return result, nil
}

func (s *service) createBooking(ctx context.Context, userID, classID int) (*CreateResult, Outcome, error) {
	signed, err := s.waivers.WaiverSigned(ctx, userID)
	if err != nil {
		return nil, Outcome{}, err
	}
	if !signed {
		return nil, Outcome{}, ErrWaiverNotSigned
	}

	now := s.now()

	c, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		return nil, Outcome{}, err
	}
	if err := checkBookable(c, now); err != nil {
		return nil, Outcome{}, err
	}

	var (
		result  *CreateResult
		outcome Outcome
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.classes.GetByIDForUpdate(ctx, classID)
		if err != nil {
			return err
		}
		if err := checkBookable(c, now); err != nil {
			return err
		}

		dup, err := s.repo.HasActiveBooking(ctx, userID, classID)
		if err != nil {
			return err
		}
		if dup {
			return ErrDuplicateBooking
		}

		p, err := s.ledger.ActivePassForUpdate(ctx, userID, now)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrNoActivePass
		}
		// checked before any write so a failed debit never leaves a booking behind
		if !p.HasCredit(1) {
			return ErrInsufficientCredit
		}

		b, p, err := s.takeSeat(ctx, c, userID, p, now)
		kind := OutcomeBooked
		if errors.Is(err, ErrClassFull) {
			b, err = s.repo.Create(ctx, &Booking{
				UserID:   userID,
				ClassID:  classID,
				Status:   StatusWaitlist,
				BookedAt: now,
			})
			kind = OutcomeWaitlisted
		}
		if err != nil {
			return err
		}

		result = &CreateResult{
			BookingID:  b.ID,
			Status:     b.Status,
			NewBalance: p.Balance(),
			Unlimited:  p.IsUnlimited(),
		}
		outcome = outcomeFor(kind, b, c)
		outcome.NewBalance = result.NewBalance
		return nil
	})
	if err != nil {
		return nil, Outcome{}, err
	}

	return result, outcome, nil
}

func checkBookable(c *class.ClassInstance, now time.Time) error {
	if c.Status == class.StatusCancelled {
		return ErrClassCancelled
	}
	if c.Started(now) {
		return ErrClassAlreadyStarted
	}
	return nil
}

// takeSeat books a paid seat, or returns ErrClassFull without writing anything.
func (s *service) takeSeat(ctx context.Context, c *class.ClassInstance, userID int, p *pass.Pass, now time.Time) (*Booking, *pass.Pass, error) {
	free, err := s.tracker.HasCapacity(ctx, c)
	if err != nil {
		return nil, p, err
	}
	if !free {
		return nil, p, ErrClassFull
	}

	passID := p.ID
	b, err := s.repo.Create(ctx, &Booking{
		UserID:         userID,
		ClassID:        c.ID,
		Status:         StatusBooked,
		BookedAt:       now,
		ConsumedPassID: &passID,
	})
	if err != nil {
		return nil, p, err
	}

	debited, err := s.ledger.Debit(ctx, passID, b.ID, 1)
	if err != nil {
		return nil, p, err
	}
	return b, debited, nil
}

func (s *service) CancelBooking(ctx context.Context, userID, bookingID int) (*CancelResult, error) {
	now := s.now()

	var (
		result   *CancelResult
		outcomes []Outcome
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		outcomes = nil

		b, err := s.repo.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.UserID != userID {
			return ErrNotBookingOwner
		}

		// lock order is class, booking, pass everywhere
		c, err := s.classes.GetByIDForUpdate(ctx, b.ClassID)
		if err != nil {
			return err
		}
		b, err = s.repo.GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if !b.Status.Active() {
			return ErrBookingNotActive
		}

		wasBooked := b.Status == StatusBooked
		b.Status = StatusCancelled
		b.CancelledAt = &now
		if err := s.repo.UpdateStatus(ctx, b); err != nil {
			return err
		}

		result = &CancelResult{BookingID: b.ID}

		if wasBooked {
			if s.policy.IsRefundEligible(c.StartTime, now) && b.ConsumedPassID != nil {
				p, n, err := s.ledger.Refund(ctx, *b.ConsumedPassID, b.ID, 1)
				if err != nil {
					return err
				}
				result.Refunded = true
				result.CreditsRefunded = n
				result.NewBalance = p.Balance()
			}

			promoted, err := s.promoter.PromoteNext(ctx, c, now)
			if err != nil {
				return err
			}
			if promoted != nil {
				id := promoted.ID
				result.PromotedBookingID = &id
				outcomes = append(outcomes, outcomeFor(OutcomePromoted, promoted, c))
			}
		}

		if !result.Refunded {
			balance, err := s.currentBalance(ctx, userID, now)
			if err != nil {
				return err
			}
			result.NewBalance = balance
		}

		o := outcomeFor(OutcomeCancelled, b, c)
		o.Refunded = result.Refunded
		o.NewBalance = result.NewBalance
		outcomes = append([]Outcome{o}, outcomes...)
		return nil
	})
	if err != nil {
		logger.WithContext(ctx).Info("cancellation rejected", "booking_id", bookingID, "user_id", userID, "reason", Code(err))
		return nil, err
	}

	metrics.RecordBookingCancellation(result.Refunded)
	if result.CreditsRefunded > 0 {
		metrics.RecordCreditRefund(result.CreditsRefunded)
	}
	if result.PromotedBookingID != nil {
		metrics.RecordWaitlistPromotion()
	}
	logger.WithContext(ctx).Info("booking cancelled", "booking_id", bookingID, "refunded", result.Refunded)
	s.emit(ctx, outcomes)

	return result, nil
}

// currentBalance is the balance of the user's active pass, nil when the pass
// is unlimited or there is none.
func (s *service) currentBalance(ctx context.Context, userID int, now time.Time) (*int, error) {
	p, err := s.ledger.GetActivePass(ctx, userID, now)
	if err != nil || p == nil {
		return nil, err
	}
	return p.Balance(), nil
}

func (s *service) AdminCancelClass(ctx context.Context, classID int, reason string) (*AdminCancelResult, error) {
	now := s.now()

	var (
		result   *AdminCancelResult
		outcomes []Outcome
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		outcomes = nil

		c, err := s.classes.GetByIDForUpdate(ctx, classID)
		if err != nil {
			return err
		}
		if c.Status == class.StatusCancelled {
			return ErrClassCancelled
		}
		if err := s.classes.MarkCancelled(ctx, classID, reason); err != nil {
			return err
		}
		c.Status = class.StatusCancelled

		bookings, err := s.repo.ListActiveByClass(ctx, classID)
		if err != nil {
			return err
		}

		result = &AdminCancelResult{ClassID: classID}
		for i := range bookings {
			b := &bookings[i]
			wasBooked := b.Status == StatusBooked

			b.Status = StatusCancelled
			b.CancelledAt = &now
			if err := s.repo.UpdateStatus(ctx, b); err != nil {
				return err
			}
			result.CancelledCount++

			o := outcomeFor(OutcomeClassCancelled, b, c)
			o.Reason = reason
			if wasBooked && b.ConsumedPassID != nil {
				p, _, err := s.ledger.Refund(ctx, *b.ConsumedPassID, b.ID, 1)
				if err != nil {
					return err
				}
				result.RefundedCount++
				o.Refunded = true
				o.NewBalance = p.Balance()
			}
			outcomes = append(outcomes, o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordClassCancellation()
	logger.WithContext(ctx).Info("class cancelled", "class_id", classID, "cancelled", result.CancelledCount, "refunded", result.RefundedCount)
	s.emit(ctx, outcomes)

	return result, nil
}

func (s *service) MarkAttendance(ctx context.Context, bookingID int, status Status) (*AttendanceResult, error) {
	if status != StatusAttended && status != StatusNoShow {
		return nil, ErrInvalidTransition
	}

	result, outcomes, err := s.markAttendance(ctx, bookingID, status)
	if err != nil {
		return nil, err
	}

	if result.PromotedBookingID != nil {
		metrics.RecordWaitlistPromotion()
	}
	s.emit(ctx, outcomes)
	return result, nil
}

func (s *service) markAttendance(ctx context.Context, bookingID int, status Status) (*AttendanceResult, []Outcome, error) {
	now := s.now()

	var (
		result   *AttendanceResult
		outcomes []Outcome
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		outcomes = nil

		b, err := s.repo.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		c, err := s.classes.GetByIDForUpdate(ctx, b.ClassID)
		if err != nil {
			return err
		}
		b, err = s.repo.GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != StatusBooked || !CanTransition(b.Status, status) {
			return ErrInvalidTransition
		}

		b.Status = status
		kind := OutcomeNoShow
		if status == StatusAttended {
			b.CheckedInAt = &now
			kind = OutcomeAttended
		}
		if err := s.repo.UpdateStatus(ctx, b); err != nil {
			return err
		}

		result = &AttendanceResult{BookingID: b.ID, Status: b.Status}
		outcomes = append(outcomes, outcomeFor(kind, b, c))

		if status == StatusNoShow {
			promoted, err := s.promoter.PromoteNext(ctx, c, now)
			if err != nil {
				return err
			}
			if promoted != nil {
				id := promoted.ID
				result.PromotedBookingID = &id
				outcomes = append(outcomes, outcomeFor(OutcomePromoted, promoted, c))
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return result, outcomes, nil
}

// IssueCheckInCode signs a code for a booked seat. The code expires when the class ends.
func (s *service) IssueCheckInCode(ctx context.Context, userID, bookingID int) (*CheckInCode, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrNotBookingOwner
	}
	if b.Status != StatusBooked {
		return nil, ErrBookingNotActive
	}

	c, err := s.classes.GetByID(ctx, b.ClassID)
	if err != nil {
		return nil, err
	}
	if c.Ended(s.now()) {
		return nil, ErrCheckInClosed
	}

	code, err := s.signer.SignCheckIn(b.ID, b.UserID, c.EndTime)
	if err != nil {
		return nil, err
	}
	return &CheckInCode{Code: code, ExpiresAt: c.EndTime}, nil
}

// CheckIn marks the booking behind a scanned code as attended. Codes are
// accepted from CheckInOpensBefore the start until the class ends.
func (s *service) CheckIn(ctx context.Context, code string) (*AttendanceResult, error) {
	bookingID, userID, err := s.signer.VerifyCheckIn(code)
	if err != nil {
		return nil, ErrInvalidCheckInCode
	}

	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrInvalidCheckInCode
	}

	c, err := s.classes.GetByID(ctx, b.ClassID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if now.Before(c.StartTime.Add(-CheckInOpensBefore)) || c.Ended(now) {
		return nil, ErrCheckInClosed
	}

	result, outcomes, err := s.markAttendance(ctx, bookingID, StatusAttended)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, outcomes)
	return result, nil
}

// Streak counts consecutive days with an attended class, ending today or
// yesterday (UTC).
func (s *service) Streak(ctx context.Context, userID int) (int, error) {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	days, err := s.repo.AttendedDays(ctx, userID, today.Add(-streakLookback))
	if err != nil {
		return 0, err
	}
	return countStreak(days, today), nil
}

func countStreak(days []time.Time, today time.Time) int {
	if len(days) == 0 {
		return 0
	}

	expected := today
	first := truncateDay(days[0])
	if first.Equal(today.AddDate(0, 0, -1)) {
		expected = first
	} else if !first.Equal(today) {
		return 0
	}

	streak := 0
	for _, d := range days {
		day := truncateDay(d)
		if day.Equal(expected) {
			streak++
			expected = expected.AddDate(0, 0, -1)
			continue
		}
		if day.Before(expected) {
			break
		}
	}
	return streak
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *service) ListUserBookings(ctx context.Context, userID int) ([]BookingWithDetails, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) ListRoster(ctx context.Context, classID int) ([]RosterEntry, error) {
	if _, err := s.classes.GetByID(ctx, classID); err != nil {
		return nil, err
	}
	return s.repo.ListRoster(ctx, classID)
}

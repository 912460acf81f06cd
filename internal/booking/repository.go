package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"studioslot/internal/db"

	"github.com/jmoiron/sqlx"
)

const bookingColumns = `id, user_id, class_id, status, booked_at, consumed_pass_id, cancelled_at, checked_in_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{db: conn}
}

// Create inserts a booking. The partial unique index on (user_id, class_id)
// rejects a second booked or waitlisted row with ErrDuplicateBooking.
func (r *repository) Create(ctx context.Context, b *Booking) (*Booking, error) {
	query := `
		INSERT INTO bookings (user_id, class_id, status, booked_at, consumed_pass_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + bookingColumns

	var created Booking
	err := db.GetExecutor(ctx, r.db).GetContext(ctx, &created, query,
		b.UserID, b.ClassID, b.Status, b.BookedAt, b.ConsumedPassID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateBooking
		}
		return nil, err
	}

	return &created, nil
}

func (r *repository) get(ctx context.Context, query string, id int) (*Booking, error) {
	var b Booking
	if err := db.GetExecutor(ctx, r.db).GetContext(ctx, &b, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func (r *repository) GetByIDForUpdate(ctx context.Context, id int) (*Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
}

func (r *repository) HasActiveBooking(ctx context.Context, userID, classID int) (bool, error) {
	return db.Exists(ctx, r.db, `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE user_id = $1 AND class_id = $2 AND status IN ('booked', 'waitlist')
		)
	`, userID, classID)
}

func (r *repository) UpdateStatus(ctx context.Context, b *Booking) error {
	result, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, `
		UPDATE bookings
		SET status = $1, consumed_pass_id = $2, cancelled_at = $3, checked_in_at = $4
		WHERE id = $5
	`, b.Status, b.ConsumedPassID, b.CancelledAt, b.CheckedInAt, b.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *repository) ListActiveByClass(ctx context.Context, classID int) ([]Booking, error) {
	bookings := []Booking{}
	err := db.GetExecutor(ctx, r.db).SelectContext(ctx, &bookings, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE class_id = $1 AND status IN ('booked', 'waitlist')
		ORDER BY booked_at ASC, id ASC
		FOR UPDATE
	`, classID)
	return bookings, err
}

func (r *repository) ListByUser(ctx context.Context, userID int) ([]BookingWithDetails, error) {
	bookings := []BookingWithDetails{}
	err := db.GetExecutor(ctx, r.db).SelectContext(ctx, &bookings, `
		SELECT b.id, b.user_id, b.class_id, b.status, b.booked_at, b.consumed_pass_id,
		       b.cancelled_at, b.checked_in_at,
		       c.title AS class_title, c.instructor, c.start_time AS class_start, c.end_time AS class_end
		FROM bookings b
		JOIN class_instances c ON c.id = b.class_id
		WHERE b.user_id = $1
		ORDER BY c.start_time DESC
	`, userID)
	return bookings, err
}

func (r *repository) ListRoster(ctx context.Context, classID int) ([]RosterEntry, error) {
	roster := []RosterEntry{}
	err := db.GetExecutor(ctx, r.db).SelectContext(ctx, &roster, `
		SELECT b.id, b.user_id, b.class_id, b.status, b.booked_at, b.consumed_pass_id,
		       b.cancelled_at, b.checked_in_at,
		       u.name AS user_name, u.email AS user_email
		FROM bookings b
		JOIN users u ON u.id = b.user_id
		WHERE b.class_id = $1 AND b.status <> 'cancelled'
		ORDER BY b.booked_at ASC, b.id ASC
	`, classID)
	return roster, err
}

// AttendedDays lists the distinct class dates the user attended since a day, newest first.
func (r *repository) AttendedDays(ctx context.Context, userID int, since time.Time) ([]time.Time, error) {
	days := []time.Time{}
	err := db.GetExecutor(ctx, r.db).SelectContext(ctx, &days, `
		SELECT DISTINCT c.class_date
		FROM bookings b
		JOIN class_instances c ON c.id = b.class_id
		WHERE b.user_id = $1 AND b.status = 'attended' AND c.class_date >= $2
		ORDER BY c.class_date DESC
	`, userID, since)
	return days, err
}

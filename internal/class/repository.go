package class

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"studioslot/internal/db"

	"github.com/jmoiron/sqlx"
)

const classColumns = `id, title, instructor, class_date, start_time, end_time, capacity, duration_min, status, cancel_reason, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) Create(ctx context.Context, c *ClassInstance) (*ClassInstance, error) {
	query := `
		INSERT INTO class_instances (title, instructor, class_date, start_time, end_time, capacity, duration_min, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + classColumns

	var created ClassInstance
	err := db.GetExecutor(ctx, r.db).GetContext(ctx, &created, query,
		c.Title, c.Instructor, c.Date, c.StartTime, c.EndTime, c.Capacity, c.DurationMin, StatusScheduled)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) get(ctx context.Context, query string, id int) (*ClassInstance, error) {
	var c ClassInstance
	if err := db.GetExecutor(ctx, r.db).GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*ClassInstance, error) {
	return r.get(ctx, `SELECT `+classColumns+` FROM class_instances WHERE id = $1`, id)
}

// GetByIDForUpdate locks the class row; every booking write for the class
// serializes behind it.
func (r *repository) GetByIDForUpdate(ctx context.Context, id int) (*ClassInstance, error) {
	return r.get(ctx, `SELECT `+classColumns+` FROM class_instances WHERE id = $1 FOR UPDATE`, id)
}

func (r *repository) ListWithAvailability(ctx context.Context, day time.Time, after *time.Time) ([]ClassWithAvailability, error) {
	query := `
		SELECT c.id, c.title, c.instructor, c.class_date, c.start_time, c.end_time, c.capacity,
		       c.duration_min, c.status, c.cancel_reason, c.created_at,
		       COUNT(b.id) FILTER (WHERE b.status = 'booked') AS booked_count,
		       COUNT(b.id) FILTER (WHERE b.status = 'waitlist') AS waitlist_count
		FROM class_instances c
		LEFT JOIN bookings b ON b.class_id = c.id
		WHERE c.class_date = $1
	`
	args := []interface{}{day}

	if after != nil {
		query += " AND c.start_time > $2 AND c.status = 'scheduled'"
		args = append(args, *after)
	}

	query += " GROUP BY c.id ORDER BY c.start_time ASC"

	classes := []ClassWithAvailability{}
	if err := db.GetExecutor(ctx, r.db).SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, err
	}

	for i := range classes {
		classes[i].fill()
	}
	return classes, nil
}

func (r *repository) BookedCount(ctx context.Context, classID int) (int, error) {
	var count int
	err := db.GetExecutor(ctx, r.db).GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM bookings
		WHERE class_id = $1 AND status = 'booked'
	`, classID)
	return count, err
}

func (r *repository) WaitlistCount(ctx context.Context, classID int) (int, error) {
	var count int
	err := db.GetExecutor(ctx, r.db).GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM bookings
		WHERE class_id = $1 AND status = 'waitlist'
	`, classID)
	return count, err
}

func (r *repository) WaitlistQueue(ctx context.Context, classID int) ([]QueuedBooking, error) {
	queue := []QueuedBooking{}
	err := db.GetExecutor(ctx, r.db).SelectContext(ctx, &queue, `
		SELECT id, user_id, booked_at
		FROM bookings
		WHERE class_id = $1 AND status = 'waitlist'
		ORDER BY booked_at ASC, id ASC
	`, classID)
	return queue, err
}

func (r *repository) MarkCancelled(ctx context.Context, classID int, reason string) error {
	result, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, `
		UPDATE class_instances
		SET status = 'cancelled', cancel_reason = $1
		WHERE id = $2 AND status = 'scheduled'
	`, reason, classID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrClassCancelled
	}
	return nil
}

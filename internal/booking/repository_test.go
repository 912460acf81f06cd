package booking

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingRowColumns = []string{"id", "user_id", "class_id", "status", "booked_at", "consumed_pass_id", "cancelled_at", "checked_in_at"}

func setupBookingMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	dbx := sqlx.NewDb(db, "sqlmock")
	return NewRepository(dbx), mock, func() { dbx.Close() }
}

func TestRepositoryCreate(t *testing.T) {
	repo, mock, close := setupBookingMock(t)
	defer close()

	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	passID := 4

	mock.ExpectQuery(`INSERT INTO bookings .* RETURNING`).
		WithArgs(1, 2, StatusBooked, at, &passID).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns).AddRow(10, 1, 2, "booked", at, 4, nil, nil))

	b, err := repo.Create(context.Background(), &Booking{UserID: 1, ClassID: 2, Status: StatusBooked, BookedAt: at, ConsumedPassID: &passID})
	require.NoError(t, err)
	assert.Equal(t, 10, b.ID)
	require.NotNil(t, b.ConsumedPassID)
	assert.Equal(t, 4, *b.ConsumedPassID)
	assert.Nil(t, b.CancelledAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreate_UniqueViolation(t *testing.T) {
	repo, mock, close := setupBookingMock(t)
	defer close()

	mock.ExpectQuery(`INSERT INTO bookings`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "bookings_active_user_class"})

	_, err := repo.Create(context.Background(), &Booking{UserID: 1, ClassID: 2, Status: StatusWaitlist})
	assert.ErrorIs(t, err, ErrDuplicateBooking)
}

func TestRepositoryGetByID(t *testing.T) {
	repo, mock, close := setupBookingMock(t)
	defer close()

	at := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = $1 FOR UPDATE")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns).AddRow(3, 1, 2, "waitlist", at, nil, nil, nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = $1")).
		WithArgs(4).
		WillReturnError(sql.ErrNoRows)

	b, err := repo.GetByIDForUpdate(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, StatusWaitlist, b.Status)
	assert.Nil(t, b.ConsumedPassID)

	_, err = repo.GetByID(context.Background(), 4)
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryHasActiveBooking(t *testing.T) {
	repo, mock, close := setupBookingMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND class_id = $2 AND status IN ('booked', 'waitlist')")).
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.HasActiveBooking(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRepositoryUpdateStatus(t *testing.T) {
	repo, mock, close := setupBookingMock(t)
	defer close()

	now := time.Now()
	b := &Booking{ID: 3, Status: StatusCancelled, CancelledAt: &now}

	mock.ExpectExec(regexp.QuoteMeta("SET status = $1, consumed_pass_id = $2, cancelled_at = $3, checked_in_at = $4 WHERE id = $5")).
		WithArgs(StatusCancelled, nil, &now, nil, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE bookings`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateStatus(context.Background(), b))
	assert.ErrorIs(t, repo.UpdateStatus(context.Background(), b), ErrBookingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryListActiveByClass(t *testing.T) {
	repo, mock, close := setupBookingMock(t)
	defer close()

	at := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE class_id = $1 AND status IN ('booked', 'waitlist') ORDER BY booked_at ASC, id ASC FOR UPDATE")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns).
			AddRow(1, 1, 2, "booked", at, 5, nil, nil).
			AddRow(2, 3, 2, "waitlist", at, nil, nil, nil))

	bookings, err := repo.ListActiveByClass(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, StatusBooked, bookings[0].Status)
	assert.Equal(t, StatusWaitlist, bookings[1].Status)
}

func TestRepositoryListRoster(t *testing.T) {
	repo, mock, close := setupBookingMock(t)
	defer close()

	cols := append(append([]string{}, bookingRowColumns...), "user_name", "user_email")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE b.class_id = $1 AND b.status <> 'cancelled'")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, 1, 2, "booked", time.Now(), 5, nil, nil, "Ada", "ada@example.com"))

	roster, err := repo.ListRoster(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "Ada", roster[0].UserName)
	assert.Equal(t, 1, roster[0].ID)
}

func TestRepositoryAttendedDays(t *testing.T) {
	repo, mock, close := setupBookingMock(t)
	defer close()

	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d1 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT c.class_date")).
		WithArgs(1, since).
		WillReturnRows(sqlmock.NewRows([]string{"class_date"}).AddRow(d1).AddRow(d2))

	days, err := repo.AttendedDays(context.Background(), 1, since)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{d1, d2}, days)
}

package class

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var classRowColumns = []string{"id", "title", "instructor", "class_date", "start_time", "end_time", "capacity", "duration_min", "status", "cancel_reason", "created_at"}

func setupClassMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	dbx := sqlx.NewDb(db, "sqlmock")
	return NewRepository(dbx), mock, func() { dbx.Close() }
}

func TestCreateClass(t *testing.T) {
	repo, mock, close := setupClassMock(t)
	defer close()

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO class_instances.*`).
		WithArgs("Vinyasa", "Mara", day, start, end, 12, 60, StatusScheduled).
		WillReturnRows(sqlmock.NewRows(classRowColumns).
			AddRow(1, "Vinyasa", "Mara", day, start, end, 12, 60, "scheduled", nil, time.Now()))

	c, err := repo.Create(context.Background(), &ClassInstance{
		Title: "Vinyasa", Instructor: "Mara", Date: day, StartTime: start, EndTime: end, Capacity: 12, DurationMin: 60,
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, c.ID)
	assert.Equal(t, StatusScheduled, c.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, close := setupClassMock(t)
	defer close()

	mock.ExpectQuery(`SELECT .* FROM class_instances WHERE id = \$1`).
		WithArgs(5).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 5)
	assert.ErrorIs(t, err, ErrClassNotFound)
}

func TestGetByIDForUpdate(t *testing.T) {
	repo, mock, close := setupClassMock(t)
	defer close()

	start := time.Now().Add(time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_instances WHERE id = $1 FOR UPDATE")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(classRowColumns).
			AddRow(5, "Yin", "Ola", start, start, start.Add(time.Hour), 1, 60, "scheduled", nil, time.Now()))

	c, err := repo.GetByIDForUpdate(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Capacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListWithAvailability(t *testing.T) {
	repo, mock, close := setupClassMock(t)
	defer close()

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	now := day.Add(8 * time.Hour)
	start := day.Add(9 * time.Hour)

	cols := append(append([]string{}, classRowColumns...), "booked_count", "waitlist_count")
	mock.ExpectQuery(`FROM class_instances c LEFT JOIN bookings b ON b.class_id = c.id WHERE c.class_date = \$1 AND c.start_time > \$2`).
		WithArgs(day, now).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "Vinyasa", "Mara", day, start, start.Add(time.Hour), 10, 60, "scheduled", nil, now, 3, 0).
			AddRow(2, "Yin", "Ola", day, start.Add(2*time.Hour), start.Add(3*time.Hour), 2, 60, "scheduled", nil, now, 2, 4))

	classes, err := repo.ListWithAvailability(context.Background(), day, &now)
	require.NoError(t, err)
	require.Len(t, classes, 2)
	assert.Equal(t, 7, classes[0].Available)
	assert.False(t, classes[0].IsFull)
	assert.Equal(t, 0, classes[1].Available)
	assert.True(t, classes[1].IsFull)
	assert.Equal(t, 4, classes[1].WaitlistCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookedCount(t *testing.T) {
	repo, mock, close := setupClassMock(t)
	defer close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE class_id = \$1 AND status = 'booked'`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.BookedCount(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestWaitlistQueue_OrderedByBookedAt(t *testing.T) {
	repo, mock, close := setupClassMock(t)
	defer close()

	t1 := time.Now().Add(-time.Hour)
	t2 := t1.Add(time.Minute)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE class_id = $1 AND status = 'waitlist' ORDER BY booked_at ASC, id ASC")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "booked_at"}).
			AddRow(10, 100, t1).
			AddRow(11, 101, t2))

	queue, err := repo.WaitlistQueue(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, 10, queue[0].BookingID)
	assert.Equal(t, 101, queue[1].UserID)
}

func TestMarkCancelled(t *testing.T) {
	repo, mock, close := setupClassMock(t)
	defer close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE class_instances SET status = 'cancelled', cancel_reason = $1 WHERE id = $2 AND status = 'scheduled'")).
		WithArgs("instructor sick", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.MarkCancelled(context.Background(), 1, "instructor sick"))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE class_instances SET status = 'cancelled'")).
		WithArgs("again", 1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.MarkCancelled(context.Background(), 1, "again"), ErrClassCancelled)
}

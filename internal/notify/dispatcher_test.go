package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"studioslot/internal/booking"
	"studioslot/internal/email"
	"studioslot/internal/user"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) FindByID(ctx context.Context, id int) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event string, data any) error {
	return m.Called(ctx, event, data).Error(0)
}

var ada = &user.User{ID: 7, Name: "Ada", Email: "ada@example.com"}

func outcome(kind booking.OutcomeKind) booking.Outcome {
	return booking.Outcome{
		Kind:       kind,
		BookingID:  3,
		UserID:     7,
		ClassID:    2,
		ClassTitle: "Vinyasa",
		ClassStart: time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC),
	}
}

func TestNotify_PublishesAndQueuesEmail(t *testing.T) {
	kinds := []booking.OutcomeKind{
		booking.OutcomeBooked,
		booking.OutcomeWaitlisted,
		booking.OutcomePromoted,
		booking.OutcomeCancelled,
		booking.OutcomeClassCancelled,
	}

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			rdb, rmock := redismock.NewClientMock()
			rmock.Regexp().ExpectLPush("emails", `.*`).SetVal(1)

			users := new(MockUsers)
			users.On("FindByID", mock.Anything, 7).Return(ada, nil)
			pub := new(MockPublisher)
			pub.On("Publish", mock.Anything, "booking."+string(kind), outcome(kind)).Return(nil)

			d := NewDispatcher(users, email.New(rdb, email.SMTPConfig{}), pub)
			d.Notify(context.Background(), outcome(kind))

			pub.AssertExpectations(t)
			users.AssertExpectations(t)
			assert.NoError(t, rmock.ExpectationsWereMet())
		})
	}
}

func TestNotify_AttendanceIsNotMailed(t *testing.T) {
	rdb, rmock := redismock.NewClientMock()
	users := new(MockUsers)
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, "booking.no_show", mock.Anything).Return(nil)

	d := NewDispatcher(users, email.New(rdb, email.SMTPConfig{}), pub)
	d.Notify(context.Background(), outcome(booking.OutcomeNoShow))

	pub.AssertExpectations(t)
	users.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestNotify_FailuresAreSwallowed(t *testing.T) {
	rdb, rmock := redismock.NewClientMock()
	users := new(MockUsers)
	users.On("FindByID", mock.Anything, 7).Return(nil, user.ErrUserNotFound)
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	d := NewDispatcher(users, email.New(rdb, email.SMTPConfig{}), pub)
	assert.NotPanics(t, func() { d.Notify(context.Background(), outcome(booking.OutcomeBooked)) })

	users.AssertExpectations(t)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestNotify_NilChannels(t *testing.T) {
	users := new(MockUsers)
	d := NewDispatcher(users, nil, nil)

	assert.NotPanics(t, func() { d.Notify(context.Background(), outcome(booking.OutcomeBooked)) })
	users.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

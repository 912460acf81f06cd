package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"studioslot/internal/api"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CreateBooking(ctx context.Context, userID, classID int) (*CreateResult, error) {
	args := m.Called(ctx, userID, classID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CreateResult), args.Error(1)
}

func (m *MockService) CancelBooking(ctx context.Context, userID, bookingID int) (*CancelResult, error) {
	args := m.Called(ctx, userID, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CancelResult), args.Error(1)
}

func (m *MockService) AdminCancelClass(ctx context.Context, classID int, reason string) (*AdminCancelResult, error) {
	args := m.Called(ctx, classID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AdminCancelResult), args.Error(1)
}

func (m *MockService) MarkAttendance(ctx context.Context, bookingID int, status Status) (*AttendanceResult, error) {
	args := m.Called(ctx, bookingID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AttendanceResult), args.Error(1)
}

func (m *MockService) IssueCheckInCode(ctx context.Context, userID, bookingID int) (*CheckInCode, error) {
	args := m.Called(ctx, userID, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CheckInCode), args.Error(1)
}

func (m *MockService) CheckIn(ctx context.Context, code string) (*AttendanceResult, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AttendanceResult), args.Error(1)
}

func (m *MockService) Streak(ctx context.Context, userID int) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockService) ListUserBookings(ctx context.Context, userID int) ([]BookingWithDetails, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]BookingWithDetails), args.Error(1)
}

func (m *MockService) ListRoster(ctx context.Context, classID int) ([]RosterEntry, error) {
	args := m.Called(ctx, classID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]RosterEntry), args.Error(1)
}

const testUserID = 7

func setupBookingRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", testUserID)
		c.Next()
	})

	h := NewHandler(svc)
	r.POST("/classes/:classID/book", h.CreateBooking)
	r.POST("/bookings/:bookingID/cancel", h.CancelBooking)
	r.GET("/bookings", h.ListMyBookings)
	r.GET("/bookings/:bookingID/checkin-code", h.GetCheckInCode)
	r.GET("/me/streak", h.GetStreak)
	r.POST("/admin/checkin", h.CheckIn)
	r.POST("/admin/classes/:classID/cancel", h.CancelClass)
	r.POST("/admin/bookings/:bookingID/attendance", h.MarkAttendance)
	r.GET("/admin/classes/:classID/roster", h.ListRoster)
	return r
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func TestCreateBooking_Handler(t *testing.T) {
	balance := 4
	svc := new(MockService)
	svc.On("CreateBooking", mock.Anything, testUserID, 3).
		Return(&CreateResult{BookingID: 11, Status: StatusBooked, NewBalance: &balance}, nil)

	w := serve(setupBookingRouter(svc), http.MethodPost, "/classes/3/book", "")

	assert.Equal(t, http.StatusCreated, w.Code)
	var got CreateResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 11, got.BookingID)
	require.NotNil(t, got.NewBalance)
	assert.Equal(t, 4, *got.NewBalance)
	svc.AssertExpectations(t)
}

func TestCreateBooking_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{ErrWaiverNotSigned, http.StatusForbidden, "waiver_not_signed"},
		{ErrNoActivePass, http.StatusPaymentRequired, "no_active_pass"},
		{ErrInsufficientCredit, http.StatusPaymentRequired, "insufficient_credit"},
		{ErrClassNotFound, http.StatusNotFound, "class_not_found"},
		{ErrClassCancelled, http.StatusConflict, "class_cancelled"},
		{ErrClassAlreadyStarted, http.StatusConflict, "class_already_started"},
		{ErrDuplicateBooking, http.StatusConflict, "duplicate_booking"},
		{ErrTransactionConflict, http.StatusServiceUnavailable, "transaction_conflict"},
		{errors.New("connection reset"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			svc := new(MockService)
			svc.On("CreateBooking", mock.Anything, testUserID, 3).Return(nil, tt.err)

			w := serve(setupBookingRouter(svc), http.MethodPost, "/classes/3/book", "")

			assert.Equal(t, tt.status, w.Code)
			var body api.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestCreateBooking_BadClassID(t *testing.T) {
	svc := new(MockService)

	w := serve(setupBookingRouter(svc), http.MethodPost, "/classes/abc/book", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateBooking_Unauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/classes/:classID/book", NewHandler(new(MockService)).CreateBooking)

	w := serve(r, http.MethodPost, "/classes/3/book", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCancelBooking_Handler(t *testing.T) {
	svc := new(MockService)
	svc.On("CancelBooking", mock.Anything, testUserID, 5).Return(&CancelResult{BookingID: 5, Refunded: true, CreditsRefunded: 1}, nil)
	svc.On("CancelBooking", mock.Anything, testUserID, 6).Return(nil, ErrNotBookingOwner)
	svc.On("CancelBooking", mock.Anything, testUserID, 8).Return(nil, ErrBookingNotActive)
	r := setupBookingRouter(svc)

	w := serve(r, http.MethodPost, "/bookings/5/cancel", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"refunded":true`)

	w = serve(r, http.MethodPost, "/bookings/6/cancel", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(r, http.MethodPost, "/bookings/8/cancel", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListMyBookings_Handler(t *testing.T) {
	svc := new(MockService)
	svc.On("ListUserBookings", mock.Anything, testUserID).Return([]BookingWithDetails{{Booking: Booking{ID: 1}}}, nil)

	w := serve(setupBookingRouter(svc), http.MethodGet, "/bookings", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var got []BookingWithDetails
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, 1)
}

func TestCheckInFlow_Handlers(t *testing.T) {
	svc := new(MockService)
	svc.On("IssueCheckInCode", mock.Anything, testUserID, 4).Return(&CheckInCode{Code: "signed"}, nil)
	svc.On("CheckIn", mock.Anything, "signed").Return(&AttendanceResult{BookingID: 4, Status: StatusAttended}, nil)
	svc.On("CheckIn", mock.Anything, "forged").Return(nil, ErrInvalidCheckInCode)
	svc.On("CheckIn", mock.Anything, "early").Return(nil, ErrCheckInClosed)
	r := setupBookingRouter(svc)

	w := serve(r, http.MethodGet, "/bookings/4/checkin-code", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"signed"`)

	w = serve(r, http.MethodPost, "/admin/checkin", `{"code":"signed"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodPost, "/admin/checkin", `{"code":"forged"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodPost, "/admin/checkin", `{"code":"early"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(r, http.MethodPost, "/admin/checkin", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetStreak_Handler(t *testing.T) {
	svc := new(MockService)
	svc.On("Streak", mock.Anything, testUserID).Return(3, nil)

	w := serve(setupBookingRouter(svc), http.MethodGet, "/me/streak", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"days":3}`, w.Body.String())
}

func TestCancelClass_Handler(t *testing.T) {
	svc := new(MockService)
	svc.On("AdminCancelClass", mock.Anything, 2, "flooded studio").
		Return(&AdminCancelResult{ClassID: 2, CancelledCount: 3, RefundedCount: 2}, nil)
	svc.On("AdminCancelClass", mock.Anything, 9, "again").Return(nil, ErrClassCancelled)
	r := setupBookingRouter(svc)

	w := serve(r, http.MethodPost, "/admin/classes/2/cancel", `{"reason":"flooded studio"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"class_id":2,"cancelled_count":3,"refunded_count":2}`, w.Body.String())

	w = serve(r, http.MethodPost, "/admin/classes/9/cancel", `{"reason":"again"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(r, http.MethodPost, "/admin/classes/2/cancel", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkAttendance_Handler(t *testing.T) {
	svc := new(MockService)
	svc.On("MarkAttendance", mock.Anything, 4, StatusNoShow).Return(&AttendanceResult{BookingID: 4, Status: StatusNoShow}, nil)
	r := setupBookingRouter(svc)

	w := serve(r, http.MethodPost, "/admin/bookings/4/attendance", `{"status":"no_show"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodPost, "/admin/bookings/4/attendance", `{"status":"cancelled"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertNumberOfCalls(t, "MarkAttendance", 1)
}

func TestListRoster_Handler(t *testing.T) {
	svc := new(MockService)
	svc.On("ListRoster", mock.Anything, 2).Return([]RosterEntry{{UserName: "Ada"}}, nil)
	svc.On("ListRoster", mock.Anything, 3).Return(nil, ErrClassNotFound)
	r := setupBookingRouter(svc)

	w := serve(r, http.MethodGet, "/admin/classes/2/roster", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ada")

	w = serve(r, http.MethodGet, "/admin/classes/3/roster", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

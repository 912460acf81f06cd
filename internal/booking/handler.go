package booking

import (
	"errors"
	"net/http"
	"strconv"

	"studioslot/internal/api"
	"studioslot/internal/auth"
	"studioslot/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

var statusByErr = []struct {
	err    error
	status int
}{
	{ErrWaiverNotSigned, http.StatusForbidden},
	{ErrNotBookingOwner, http.StatusForbidden},
	{ErrNoActivePass, http.StatusPaymentRequired},
	{ErrInsufficientCredit, http.StatusPaymentRequired},
	{ErrClassNotFound, http.StatusNotFound},
	{ErrBookingNotFound, http.StatusNotFound},
	{ErrClassCancelled, http.StatusConflict},
	{ErrClassAlreadyStarted, http.StatusConflict},
	{ErrDuplicateBooking, http.StatusConflict},
	{ErrBookingNotActive, http.StatusConflict},
	{ErrInvalidTransition, http.StatusConflict},
	{ErrCheckInClosed, http.StatusConflict},
	{ErrInvalidCheckInCode, http.StatusBadRequest},
	{ErrTransactionConflict, http.StatusServiceUnavailable},
}

func writeError(c *gin.Context, err error, fallback string) {
	for _, m := range statusByErr {
		if errors.Is(err, m.err) {
			c.JSON(m.status, api.ErrorResponse{Error: err.Error(), Code: Code(err)})
			return
		}
	}
	logger.WithContext(c.Request.Context()).Error(fallback, "error", err)
	c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: fallback, Code: "internal"})
}

func pathID(c *gin.Context, name, label string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid " + label + " ID"})
		return 0, false
	}
	return id, true
}

// CreateBooking godoc
// @Summary      Book a class
// @Description  Books a seat paid from the active pass, or joins the waitlist when the class is full.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        classID  path      int  true  "Class ID"
// @Success      201      {object}  booking.CreateResult
// @Failure      400      {object}  api.ErrorResponse
// @Failure      402      {object}  api.ErrorResponse
// @Failure      403      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Failure      503      {object}  api.ErrorResponse
// @Router       /classes/{classID}/book [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	classID, ok := pathID(c, "classID", "class")
	if !ok {
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, classID)
	if err != nil {
		writeError(c, err, "Failed to create booking")
		return
	}

	c.JSON(http.StatusCreated, result)
}

// CancelBooking godoc
// @Summary      Cancel my booking
// @Description  Refunds the credit when cancelled at least two hours before start and promotes the next waitlisted member.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      int  true  "Booking ID"
// @Success      200        {object}  booking.CancelResult
// @Failure      403        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Router       /bookings/{bookingID}/cancel [post]
func (h *Handler) CancelBooking(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	bookingID, ok := pathID(c, "bookingID", "booking")
	if !ok {
		return
	}

	result, err := h.service.CancelBooking(c.Request.Context(), userID, bookingID)
	if err != nil {
		writeError(c, err, "Failed to cancel booking")
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListMyBookings godoc
// @Summary      List my bookings
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   booking.BookingWithDetails
// @Failure      401  {object}  api.ErrorResponse
// @Router       /bookings [get]
func (h *Handler) ListMyBookings(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	bookings, err := h.service.ListUserBookings(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "Failed to load bookings")
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// GetCheckInCode godoc
// @Summary      Check-in code
// @Description  Signed code shown as a QR at the front desk. Valid until the class ends.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      int  true  "Booking ID"
// @Success      200        {object}  booking.CheckInCode
// @Failure      403        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Router       /bookings/{bookingID}/checkin-code [get]
func (h *Handler) GetCheckInCode(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	bookingID, ok := pathID(c, "bookingID", "booking")
	if !ok {
		return
	}

	code, err := h.service.IssueCheckInCode(c.Request.Context(), userID, bookingID)
	if err != nil {
		writeError(c, err, "Failed to issue check-in code")
		return
	}

	c.JSON(http.StatusOK, code)
}

// GetStreak godoc
// @Summary      Attendance streak
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  booking.StreakResponse
// @Router       /me/streak [get]
func (h *Handler) GetStreak(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	days, err := h.service.Streak(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "Failed to compute streak")
		return
	}

	c.JSON(http.StatusOK, StreakResponse{Days: days})
}

// CheckIn godoc
// @Summary      Scan a check-in code
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      booking.CheckInRequest  true  "Scanned code"
// @Success      200      {object}  booking.AttendanceResult
// @Failure      400      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /admin/checkin [post]
func (h *Handler) CheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	result, err := h.service.CheckIn(c.Request.Context(), req.Code)
	if err != nil {
		writeError(c, err, "Failed to check in")
		return
	}

	c.JSON(http.StatusOK, result)
}

// CancelClass godoc
// @Summary      Cancel a class
// @Description  Cancels every booking and waitlist entry and refunds all booked seats.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        classID  path      int                         true  "Class ID"
// @Param        request  body      booking.CancelClassRequest  true  "Reason"
// @Success      200      {object}  booking.AdminCancelResult
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /admin/classes/{classID}/cancel [post]
func (h *Handler) CancelClass(c *gin.Context) {
	classID, ok := pathID(c, "classID", "class")
	if !ok {
		return
	}

	var req CancelClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	result, err := h.service.AdminCancelClass(c.Request.Context(), classID, req.Reason)
	if err != nil {
		writeError(c, err, "Failed to cancel class")
		return
	}

	c.JSON(http.StatusOK, result)
}

// MarkAttendance godoc
// @Summary      Mark attendance
// @Description  Records attended or no_show for a booked seat. A no-show frees the seat for the waitlist while the class is running.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        bookingID  path      int                        true  "Booking ID"
// @Param        request    body      booking.AttendanceRequest  true  "Attendance"
// @Success      200        {object}  booking.AttendanceResult
// @Failure      400        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Router       /admin/bookings/{bookingID}/attendance [post]
func (h *Handler) MarkAttendance(c *gin.Context) {
	bookingID, ok := pathID(c, "bookingID", "booking")
	if !ok {
		return
	}

	var req AttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	result, err := h.service.MarkAttendance(c.Request.Context(), bookingID, req.Status)
	if err != nil {
		writeError(c, err, "Failed to mark attendance")
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListRoster godoc
// @Summary      Class roster
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        classID  path      int  true  "Class ID"
// @Success      200      {array}   booking.RosterEntry
// @Failure      404      {object}  api.ErrorResponse
// @Router       /admin/classes/{classID}/roster [get]
func (h *Handler) ListRoster(c *gin.Context) {
	classID, ok := pathID(c, "classID", "class")
	if !ok {
		return
	}

	roster, err := h.service.ListRoster(c.Request.Context(), classID)
	if err != nil {
		writeError(c, err, "Failed to load roster")
		return
	}

	c.JSON(http.StatusOK, roster)
}

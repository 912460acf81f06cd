package class

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"studioslot/internal/api"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// @Summary      Create a class
// @Description  Admin-only: schedule a class instance
// @Tags         admin,classes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body class.CreateClassRequest true "Class payload"
// @Success      201 {object} class.ClassInstance
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/classes [post]
func (h *Handler) CreateClass(c *gin.Context) {
	var req CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	class, err := h.service.CreateClass(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrClassInvalid) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid class data"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create class"})
		return
	}

	c.JSON(http.StatusCreated, class)
}

// @Summary      Import a schedule
// @Description  Admin-only: create classes from a CSV file with columns title,instructor,start_time,end_time,capacity
// @Tags         admin,classes
// @Accept       text/csv
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} class.ImportResult
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/classes/import [post]
func (h *Handler) ImportSchedule(c *gin.Context) {
	result, err := h.service.ImportCSV(c.Request.Context(), c.Request.Body)
	if err != nil {
		if errors.Is(err, ErrInvalidCSV) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to import schedule"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary      Daily schedule
// @Description  Classes of one day with seat availability. The member view hides classes that already started.
// @Tags         classes,admin
// @Produce      json
// @Security     BearerAuth
// @Param        date query string false "Day, YYYY-MM-DD (default today)"
// @Success      200 {array} class.ClassWithAvailability
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /classes [get]
// @Router       /admin/classes [get]
func (h *Handler) ListSchedule(c *gin.Context) {
	onlyFuture := !strings.Contains(c.Request.URL.Path, "/admin/")
	classes, err := h.service.ListSchedule(c.Request.Context(), c.Query("date"), onlyFuture)
	if err != nil {
		if errors.Is(err, ErrInvalidDate) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch schedule"})
		return
	}

	c.JSON(http.StatusOK, classes)
}

// @Summary      Get a class
// @Tags         classes
// @Produce      json
// @Security     BearerAuth
// @Param        classID path int true "Class ID"
// @Success      200 {object} class.ClassWithAvailability
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /classes/{classID} [get]
func (h *Handler) GetClass(c *gin.Context) {
	classID, err := strconv.Atoi(c.Param("classID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid class ID"})
		return
	}

	class, err := h.service.GetClass(c.Request.Context(), classID)
	if err != nil {
		if errors.Is(err, ErrClassNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Class not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch class"})
		return
	}

	c.JSON(http.StatusOK, class)
}

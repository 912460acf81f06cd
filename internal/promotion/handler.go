package promotion

import (
	"errors"
	"net/http"

	"studioslot/internal/api"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Current godoc
// @Summary      Current special
// @Description  The running promotion, or null.
// @Tags         promotions
// @Produce      json
// @Success      200  {object}  promotion.CurrentResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /promotions/current [get]
func (h *Handler) Current(c *gin.Context) {
	p, err := h.service.Current(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load promotion"})
		return
	}
	c.JSON(http.StatusOK, CurrentResponse{Promotion: p})
}

// Create godoc
// @Summary      Create a promotion
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      promotion.CreatePromotionRequest  true  "Promotion"
// @Success      201      {object}  promotion.Promotion
// @Failure      400      {object}  api.ErrorResponse
// @Router       /admin/promotions [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	p, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidPromotion) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create promotion"})
		return
	}

	c.JSON(http.StatusCreated, p)
}

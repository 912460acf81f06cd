package pass

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"studioslot/internal/api"
	"studioslot/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	ledger Ledger
}

func NewHandler(ledger Ledger) *Handler {
	return &Handler{ledger: ledger}
}

// GetActivePass godoc
// @Summary      Active pass
// @Description  Returns the pass that pays for the next booking, or null.
// @Tags         passes
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  pass.ActivePassResponse
// @Failure      401  {object}  api.ErrorResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /passes/active [get]
func (h *Handler) GetActivePass(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	p, err := h.ledger.GetActivePass(c.Request.Context(), userID, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load pass"})
		return
	}

	c.JSON(http.StatusOK, ActivePassResponse{Pass: p})
}

// ListPasses godoc
// @Summary      List my passes
// @Tags         passes
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   pass.Pass
// @Failure      401  {object}  api.ErrorResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /passes [get]
func (h *Handler) ListPasses(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	passes, err := h.ledger.ListPasses(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load passes"})
		return
	}

	c.JSON(http.StatusOK, passes)
}

// ListTransactions godoc
// @Summary      Pass journal
// @Description  Credit movements of one of the caller's passes, newest first.
// @Tags         passes
// @Security     BearerAuth
// @Produce      json
// @Param        passID  path      int  true   "Pass ID"
// @Param        limit   query     int  false  "Page size"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {array}   pass.Transaction
// @Failure      400     {object}  api.ErrorResponse
// @Failure      404     {object}  api.ErrorResponse
// @Failure      500     {object}  api.ErrorResponse
// @Router       /passes/{passID}/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	passID, err := strconv.Atoi(c.Param("passID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid pass ID"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	txs, err := h.ledger.ListTransactions(c.Request.Context(), userID, passID, limit, offset)
	if err != nil {
		// a pass owned by someone else is reported as missing
		if errors.Is(err, ErrPassNotFound) || errors.Is(err, ErrPassNotOwned) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Pass not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load transactions"})
		return
	}

	c.JSON(http.StatusOK, txs)
}

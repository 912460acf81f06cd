package favorite

import (
	"errors"
	"net/http"
	"strconv"

	"studioslot/internal/api"
	"studioslot/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// List godoc
// @Summary      My favorite classes
// @Tags         favorites
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   favorite.Favorite
// @Failure      401  {object}  api.ErrorResponse
// @Router       /favorites [get]
func (h *Handler) List(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	favorites, err := h.repo.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load favorites"})
		return
	}

	c.JSON(http.StatusOK, favorites)
}

// Add godoc
// @Summary      Favorite a class
// @Tags         favorites
// @Security     BearerAuth
// @Param        classID  path  int  true  "Class ID"
// @Success      204
// @Failure      400  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /favorites/{classID} [put]
func (h *Handler) Add(c *gin.Context) {
	userID, classID, ok := h.ids(c)
	if !ok {
		return
	}

	if err := h.repo.Add(c.Request.Context(), userID, classID); err != nil {
		if errors.Is(err, ErrClassNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Class not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to save favorite"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Remove godoc
// @Summary      Unfavorite a class
// @Tags         favorites
// @Security     BearerAuth
// @Param        classID  path  int  true  "Class ID"
// @Success      204
// @Failure      404  {object}  api.ErrorResponse
// @Router       /favorites/{classID} [delete]
func (h *Handler) Remove(c *gin.Context) {
	userID, classID, ok := h.ids(c)
	if !ok {
		return
	}

	if err := h.repo.Remove(c.Request.Context(), userID, classID); err != nil {
		if errors.Is(err, ErrFavoriteNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Favorite not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to remove favorite"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) ids(c *gin.Context) (int, int, bool) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return 0, 0, false
	}

	classID, err := strconv.Atoi(c.Param("classID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid class ID"})
		return 0, 0, false
	}
	return userID, classID, true
}

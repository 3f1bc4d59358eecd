package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"space-service/internal/models"
	"space-service/internal/services"

	"github.com/gin-gonic/gin"
)

type SpaceHandler struct {
	spaceService *services.SpaceService
}

func NewSpaceHandler(spaceService *services.SpaceService) *SpaceHandler {
	return &SpaceHandler{spaceService: spaceService}
}

func (h *SpaceHandler) Create(c *gin.Context) {
	var req models.CreateSpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.spaceService.Create(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to create space",
		})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *SpaceHandler) List(c *gin.Context) {
	resp, err := h.spaceService.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to list spaces",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SpaceHandler) GetByID(c *gin.Context) {
	spaceID, ok := spaceIDParam(c)
	if !ok {
		return
	}

	resp, err := h.spaceService.GetByID(c.Request.Context(), currentUserID(c), spaceID)
	if err != nil {
		h.writeSpaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SpaceHandler) Join(c *gin.Context) {
	spaceID, ok := spaceIDParam(c)
	if !ok {
		return
	}

	resp, err := h.spaceService.Join(c.Request.Context(), currentUserID(c), spaceID)
	if err != nil {
		h.writeSpaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SpaceHandler) writeSpaceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrSpaceNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Code:    http.StatusNotFound,
			Message: "Space not found",
		})
	case errors.Is(err, services.ErrSpacePrivate), errors.Is(err, services.ErrNotSpaceMember):
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Code:    http.StatusForbidden,
			Message: "You do not have access to this space",
		})
	case errors.Is(err, services.ErrSpaceFull):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Space is full",
		})
	case errors.Is(err, services.ErrAlreadyMember):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Already a member of this space",
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Server error",
		})
	}
}

func spaceIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid space id",
		})
		return 0, false
	}
	return uint(id), true
}

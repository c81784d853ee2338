package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/biyahe/booking-backend/internal/models"
	"github.com/biyahe/booking-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SelectionHandler handles the seat-selection session endpoints
type SelectionHandler struct {
	selection *services.SelectionService
	logger    *logrus.Logger
}

// NewSelectionHandler creates a new selection handler
func NewSelectionHandler(selection *services.SelectionService, logger *logrus.Logger) *SelectionHandler {
	return &SelectionHandler{
		selection: selection,
		logger:    logger,
	}
}

// StartSessionRequest opens a selection session on a trip
type StartSessionRequest struct {
	TripID string `json:"trip_id" binding:"required"`
}

// StartSession handles POST /api/v1/selection
func (h *SelectionHandler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	view, err := h.selection.StartSession(c.Request.Context(), req.TripID)
	if err != nil {
		if errors.Is(err, services.ErrTripDeparted) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, view)
}

// GetSession handles GET /api/v1/selection/:id
func (h *SelectionHandler) GetSession(c *gin.Context) {
	view, err := h.selection.GetSession(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

// RefreshAvailability handles POST /api/v1/selection/:id/refresh
func (h *SelectionHandler) RefreshAvailability(c *gin.Context) {
	view, err := h.selection.RefreshAvailability(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).WithField("session_id", c.Param("id")).
			Error("Availability refresh failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to refresh availability"})
		return
	}

	c.JSON(http.StatusOK, view)
}

// seatNumber parses the :number path segment
func seatNumber(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("number"))
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid seat number"})
		return 0, false
	}
	return n, true
}

// ClickSeat handles POST /api/v1/selection/:id/seats/:number/click
func (h *SelectionHandler) ClickSeat(c *gin.Context) {
	number, ok := seatNumber(c)
	if !ok {
		return
	}

	result, err := h.selection.ClickSeat(c.Request.Context(), c.Param("id"), number)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrUnknownSeat):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.WithError(err).Error("Seat click failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply seat click"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// SavePassenger handles POST /api/v1/selection/:id/seats/:number/passenger.
// Validation failures come back as a per-field error map so the form
// can mark each offending input.
func (h *SelectionHandler) SavePassenger(c *gin.Context) {
	number, ok := seatNumber(c)
	if !ok {
		return
	}

	var details models.PassengerDetails
	if err := c.ShouldBindJSON(&details); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	view, err := h.selection.SavePassenger(c.Request.Context(), c.Param("id"), number, details)
	if err != nil {
		var fieldErrs models.FieldErrors
		switch {
		case errors.As(err, &fieldErrs):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  "validation failed",
				"fields": fieldErrs,
			})
		case errors.Is(err, services.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrSeatNotSelected), errors.Is(err, services.ErrUnknownSeat):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.WithError(err).Error("Passenger save failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save passenger details"})
		}
		return
	}

	c.JSON(http.StatusOK, view)
}

// CancelCapture handles POST /api/v1/selection/:id/seats/:number/cancel
func (h *SelectionHandler) CancelCapture(c *gin.Context) {
	number, ok := seatNumber(c)
	if !ok {
		return
	}

	view, err := h.selection.CancelCapture(c.Request.Context(), c.Param("id"), number)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrUnknownSeat):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.WithError(err).Error("Capture cancel failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel capture"})
		}
		return
	}

	c.JSON(http.StatusOK, view)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/biyahe/booking-backend/internal/middleware"
	"github.com/biyahe/booking-backend/internal/models"
	"github.com/biyahe/booking-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// BookingHandler handles booking submission and the confirmation views
type BookingHandler struct {
	bookingService *services.BookingService
	ticketService  *services.TicketService
	logger         *logrus.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookingService *services.BookingService, ticketService *services.TicketService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		ticketService:  ticketService,
		logger:         logger,
	}
}

// Submit handles POST /api/v1/selection/:id/submit
func (h *BookingHandler) Submit(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	result, err := h.bookingService.Submit(c.Request.Context(), c.Param("id"), userCtx.UserID.String())
	if err != nil {
		var missing *services.MissingPassengersError
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrNoSeatsSelected):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrSubmissionInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.As(err, &missing):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":         err.Error(),
				"missing_seats": missing.Seats,
			})
		default:
			h.logger.WithError(err).WithField("session_id", c.Param("id")).
				Error("Booking submission failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit booking"})
		}
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetBooking handles GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	booking, err := h.bookingService.GetBooking(c.Param("id"), userCtx.UserID.String())
	if err != nil {
		if errors.Is(err, services.ErrNotBookingOwner) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		return
	}

	c.JSON(http.StatusOK, booking)
}

// GetBookingByCode handles GET /api/v1/bookings/code/:code
func (h *BookingHandler) GetBookingByCode(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	booking, err := h.bookingService.GetBookingByCode(c.Param("code"), userCtx.UserID.String())
	if err != nil {
		if errors.Is(err, services.ErrNotBookingOwner) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		return
	}

	c.JSON(http.StatusOK, booking)
}

// Cancel handles DELETE /api/v1/bookings/:id
func (h *BookingHandler) Cancel(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	booking, err := h.bookingService.Cancel(c.Request.Context(), c.Param("id"), userCtx.UserID.String())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotBookingOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, models.ErrBookingNotCancellable):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		}
		return
	}

	c.JSON(http.StatusOK, booking)
}

// GetHandoff handles GET /api/v1/bookings/:id/handoff
func (h *BookingHandler) GetHandoff(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	payload, err := h.bookingService.GetHandoff(c.Request.Context(), c.Param("id"), userCtx.UserID.String())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotBookingOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrHandoffNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		}
		return
	}

	c.JSON(http.StatusOK, payload)
}

// GetTicket handles GET /api/v1/bookings/:id/ticket
func (h *BookingHandler) GetTicket(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	pdf, filename, err := h.ticketService.GenerateETicket(c.Param("id"), userCtx.UserID.String())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotBookingOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrBookingNotConfirmed):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			h.logger.WithError(err).WithField("booking_id", c.Param("id")).
				Error("E-ticket generation failed")
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		}
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

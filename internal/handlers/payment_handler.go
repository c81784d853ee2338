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

// PaymentHandler handles the payment endpoints for pending bookings
type PaymentHandler struct {
	paymentService *services.PaymentService
	logger         *logrus.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *services.PaymentService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

func clientMeta(c *gin.Context) services.ClientMeta {
	return services.ClientMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
}

func (h *PaymentHandler) writePaymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotBookingOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrBookingAlreadyConfirmed),
		errors.Is(err, services.ErrBookingNotPayable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrScanCodeNotIssued),
		errors.Is(err, services.ErrScanReferenceMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).Error("Payment processing failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

// SubmitPayment handles POST /api/v1/bookings/:id/payment
func (h *PaymentHandler) SubmitPayment(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req models.SubmitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	payment, err := h.paymentService.SubmitPayment(
		c.Request.Context(), c.Param("id"), userCtx.UserID.String(), &req, clientMeta(c))
	if err != nil {
		h.writePaymentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, payment)
}

// IssueScanCode handles POST /api/v1/bookings/:id/payment/scan
func (h *PaymentHandler) IssueScanCode(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	session, err := h.paymentService.IssueScanCode(
		c.Request.Context(), c.Param("id"), userCtx.UserID.String(), clientMeta(c))
	if err != nil {
		h.writePaymentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// GetPayment handles GET /api/v1/bookings/:id/payment
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	payment, audits, err := h.paymentService.GetPayment(c.Param("id"), userCtx.UserID.String())
	if err != nil {
		if errors.Is(err, services.ErrNotBookingOwner) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment": payment,
		"audits":  audits,
	})
}

// ConfirmScanCodeRequest affirms a scan payment completed
type ConfirmScanCodeRequest struct {
	Reference string `json:"reference" binding:"required"`
}

// ConfirmScanCode handles POST /api/v1/bookings/:id/payment/scan/confirm
func (h *PaymentHandler) ConfirmScanCode(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req ConfirmScanCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	payment, err := h.paymentService.ConfirmScanCode(
		c.Request.Context(), c.Param("id"), userCtx.UserID.String(), req.Reference, clientMeta(c))
	if err != nil {
		h.writePaymentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, payment)
}

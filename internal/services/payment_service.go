package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/biyahe/booking-backend/internal/models"
	"github.com/biyahe/booking-backend/internal/utils"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// PaymentStore provides payment persistence
type PaymentStore interface {
	CreatePayment(p *models.Payment) error
	GetByBookingID(bookingID string) (*models.Payment, error)
	UpdateStatus(id string, status models.PaymentStatus) error
}

// AuditLogger records payment-related actions
type AuditLogger interface {
	Log(audit *models.PaymentAudit) error
	ListByBooking(bookingID string) ([]models.PaymentAudit, error)
}

// Payment errors surfaced to handlers
var (
	ErrBookingAlreadyConfirmed = errors.New("booking is already confirmed")
	ErrBookingNotPayable       = errors.New("booking is not awaiting payment")
	ErrScanCodeNotIssued       = errors.New("no scan code issued for this booking, or it expired")
	ErrScanReferenceMismatch   = errors.New("scan code reference does not match")
)

// ClientMeta carries request metadata into the payment audit trail
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

// ConfirmModeDirect updates the booking row in the same flow as the
// payment write. ConfirmModeTrigger leaves the transition to an
// external database trigger keyed on the payment status.
const (
	ConfirmModeDirect  = "direct"
	ConfirmModeTrigger = "trigger"
)

// PaymentService collects a payment for a booking and drives the
// pending → confirmed transition
type PaymentService struct {
	payments    PaymentStore
	audits      AuditLogger
	bookings    BookingStore
	bookingSvc  *BookingService
	handoff     *HandoffService
	trips       TripGetter
	redis       *redis.Client
	confirmMode string
	scanTTL     time.Duration
	logger      *logrus.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	payments PaymentStore,
	audits AuditLogger,
	bookings BookingStore,
	bookingSvc *BookingService,
	handoff *HandoffService,
	trips TripGetter,
	redisClient *redis.Client,
	confirmMode string,
	scanTTL time.Duration,
	logger *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		payments:    payments,
		audits:      audits,
		bookings:    bookings,
		bookingSvc:  bookingSvc,
		handoff:     handoff,
		trips:       trips,
		redis:       redisClient,
		confirmMode: confirmMode,
		scanTTL:     scanTTL,
		logger:      logger,
	}
}

// ownedPendingBooking loads a booking and checks it belongs to the
// caller and still awaits payment
func (s *PaymentService) ownedPendingBooking(bookingID, userID string) (*models.Booking, error) {
	booking, err := s.bookings.GetBookingByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotBookingOwner
	}
	if booking.IsConfirmed() {
		return nil, ErrBookingAlreadyConfirmed
	}
	if booking.Status != models.BookingStatusPending {
		return nil, ErrBookingNotPayable
	}
	return booking, nil
}

// writePaidPayment creates the payment row as pending and marks it paid
// with a separate status update. Trigger-mode deployments key the
// booking transition on that update landing.
func (s *PaymentService) writePaidPayment(payment *models.Payment) error {
	payment.Status = models.PaymentStatusPending
	if err := s.payments.CreatePayment(payment); err != nil {
		return err
	}
	if err := s.payments.UpdateStatus(payment.ID, models.PaymentStatusPaid); err != nil {
		return err
	}
	payment.Status = models.PaymentStatusPaid
	return nil
}

// audit writes one payment audit row; failures are logged, never fatal
// to the payment flow
func (s *PaymentService) audit(bookingID, action string, meta ClientMeta, details models.JSONMap) {
	entry := &models.PaymentAudit{
		BookingID:  bookingID,
		Action:     action,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		DeviceInfo: utils.ParseUserAgent(meta.UserAgent).Map(),
		Details:    details,
	}
	if err := s.audits.Log(entry); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"booking_id": bookingID,
			"action":     action,
		}).Warn("Payment audit write failed")
	}
}

// confirm drives the booking transition according to the configured
// integration style
func (s *PaymentService) confirm(ctx context.Context, bookingID string, meta ClientMeta) error {
	if s.confirmMode != ConfirmModeDirect {
		// An external trigger keyed on the paid payment row moves the
		// booking forward; nothing more to do here.
		return nil
	}
	if _, err := s.bookingSvc.Confirm(ctx, bookingID); err != nil {
		return err
	}
	s.audit(bookingID, models.AuditBookingConfirmed, meta, nil)
	return nil
}

// SubmitPayment handles the single-step methods (credit card, GCash):
// validate, write one paid payment record, then transition the booking
func (s *PaymentService) SubmitPayment(ctx context.Context, bookingID, userID string, req *models.SubmitPaymentRequest, meta ClientMeta) (*models.Payment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.ownedPendingBooking(bookingID, userID); err != nil {
		return nil, err
	}

	reference := paymentReference()
	payment := &models.Payment{
		BookingID:     bookingID,
		PaymentMethod: req.PaymentMethod,
		Reference:     &reference,
		Notes:         req.Notes,
	}
	if err := s.writePaidPayment(payment); err != nil {
		return nil, err
	}

	s.audit(bookingID, models.AuditPaymentSubmitted, meta, models.JSONMap{
		"payment_method": string(req.PaymentMethod),
		"reference":      reference,
	})

	if err := s.confirm(ctx, bookingID, meta); err != nil {
		return nil, err
	}
	return payment, nil
}

func scanCodeKey(bookingID string) string {
	return "scancode:" + bookingID
}

// IssueScanCode is step one of the scan-code flow: generate and store a
// code reference for the booking's amount. No payment record is written
// until the user affirms completion in step two.
func (s *PaymentService) IssueScanCode(ctx context.Context, bookingID, userID string, meta ClientMeta) (*models.ScanCodeSession, error) {
	if s.redis == nil {
		return nil, fmt.Errorf("scan code payments unavailable")
	}

	booking, err := s.ownedPendingBooking(bookingID, userID)
	if err != nil {
		return nil, err
	}

	session := &models.ScanCodeSession{
		Reference: scanReference(),
		BookingID: bookingID,
		Amount:    s.bookingAmount(ctx, booking),
		IssuedAt:  time.Now(),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scan session: %w", err)
	}
	if err := s.redis.Set(ctx, scanCodeKey(bookingID), data, s.scanTTL).Err(); err != nil {
		return nil, fmt.Errorf("failed to store scan session: %w", err)
	}

	s.audit(bookingID, models.AuditPaymentScanIssued, meta, models.JSONMap{
		"reference": session.Reference,
		"amount":    session.Amount,
	})
	return session, nil
}

// ConfirmScanCode is step two: the user affirms the scan completed.
// Only now is the payment record written and the booking transitioned.
func (s *PaymentService) ConfirmScanCode(ctx context.Context, bookingID, userID, reference string, meta ClientMeta) (*models.Payment, error) {
	if s.redis == nil {
		return nil, fmt.Errorf("scan code payments unavailable")
	}

	if _, err := s.ownedPendingBooking(bookingID, userID); err != nil {
		return nil, err
	}

	data, err := s.redis.Get(ctx, scanCodeKey(bookingID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrScanCodeNotIssued
		}
		return nil, fmt.Errorf("failed to load scan session: %w", err)
	}

	session := &models.ScanCodeSession{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("failed to decode scan session: %w", err)
	}
	if !strings.EqualFold(session.Reference, reference) {
		return nil, ErrScanReferenceMismatch
	}

	s.redis.Del(ctx, scanCodeKey(bookingID))

	payment := &models.Payment{
		BookingID:     bookingID,
		PaymentMethod: models.PaymentMethodScanCode,
		Reference:     &session.Reference,
	}
	if err := s.writePaidPayment(payment); err != nil {
		return nil, err
	}

	s.audit(bookingID, models.AuditPaymentScanConfirm, meta, models.JSONMap{
		"reference": session.Reference,
		"amount":    session.Amount,
	})

	if err := s.confirm(ctx, bookingID, meta); err != nil {
		return nil, err
	}
	return payment, nil
}

// GetPayment returns the latest payment for a booking together with its
// audit trail. Only the booking's owner may read it; a missing audit
// trail degrades to an empty one.
func (s *PaymentService) GetPayment(bookingID, userID string) (*models.Payment, []models.PaymentAudit, error) {
	booking, err := s.bookings.GetBookingByID(bookingID)
	if err != nil {
		return nil, nil, err
	}
	if booking.UserID != userID {
		return nil, nil, ErrNotBookingOwner
	}

	payment, err := s.payments.GetByBookingID(bookingID)
	if err != nil {
		return nil, nil, err
	}

	audits, err := s.audits.ListByBooking(bookingID)
	if err != nil {
		s.logger.WithError(err).WithField("booking_id", bookingID).
			Warn("Failed to list payment audits")
		audits = nil
	}
	return payment, audits, nil
}

// bookingAmount derives the amount due, preferring the handoff payload
// and falling back to the trip fare when it already expired
func (s *PaymentService) bookingAmount(ctx context.Context, booking *models.Booking) float64 {
	if payload, err := s.handoff.Get(ctx, booking.ID); err == nil {
		return payload.TotalAmount
	}
	if trip, err := s.trips.GetTripByID(booking.TripID); err == nil {
		return trip.Fare * float64(booking.TotalPassengers)
	}
	return 0
}

// paymentReference generates a unique reference for a payment record
func paymentReference() string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("PAY-%s-%s", time.Now().Format("20060102"), strings.ToUpper(hex.EncodeToString(buf)))
}

// scanReference generates the code reference shown for scanning
func scanReference() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("SCAN-%s-%s", time.Now().Format("20060102150405"), strings.ToUpper(hex.EncodeToString(buf)))
}

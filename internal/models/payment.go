package models

import (
	"errors"
	"strings"
	"time"
)

// PaymentMethod identifies how the passenger pays
type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodGCash      PaymentMethod = "gcash"
	PaymentMethodScanCode   PaymentMethod = "scan_code"
)

// PaymentStatus represents the state of a payment record
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Payment is one payment record referencing a booking
type Payment struct {
	ID            string        `json:"id" db:"id"`
	BookingID     string        `json:"booking_id" db:"booking_id"`
	PaymentMethod PaymentMethod `json:"payment_method" db:"payment_method"`
	Status        PaymentStatus `json:"status" db:"status"`
	Reference     *string       `json:"reference,omitempty" db:"reference"`
	Notes         *string       `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

// SubmitPaymentRequest carries a direct (single-step) payment submission.
// Card fields are required for credit_card, the wallet number for gcash.
// The scan_code method uses its own two-step endpoints and is rejected here.
type SubmitPaymentRequest struct {
	PaymentMethod PaymentMethod `json:"payment_method" binding:"required"`
	CardNumber    string        `json:"card_number,omitempty"`
	CardName      string        `json:"card_name,omitempty"`
	CardExpiry    string        `json:"card_expiry,omitempty"`
	CardCVV       string        `json:"card_cvv,omitempty"`
	GCashNumber   string        `json:"gcash_number,omitempty"`
	Notes         *string       `json:"notes,omitempty"`
}

// Validate checks the method-specific required fields
func (r *SubmitPaymentRequest) Validate() error {
	switch r.PaymentMethod {
	case PaymentMethodCreditCard:
		if strings.TrimSpace(r.CardNumber) == "" ||
			strings.TrimSpace(r.CardName) == "" ||
			strings.TrimSpace(r.CardExpiry) == "" ||
			strings.TrimSpace(r.CardCVV) == "" {
			return errors.New("please fill in all credit card details")
		}
	case PaymentMethodGCash:
		if strings.TrimSpace(r.GCashNumber) == "" {
			return errors.New("please enter your GCash number")
		}
	case PaymentMethodScanCode:
		return errors.New("scan_code payments use the scan endpoints")
	default:
		return errors.New("unsupported payment method")
	}
	return nil
}

// ScanCodeSession is the state of a two-step scan payment. Step one issues
// the code reference; the payment record is only written when the user
// affirms completion in step two.
type ScanCodeSession struct {
	Reference string    `json:"reference"`
	BookingID string    `json:"booking_id"`
	Amount    float64   `json:"amount"`
	IssuedAt  time.Time `json:"issued_at"`
}

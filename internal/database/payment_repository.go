package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/biyahe/booking-backend/internal/models"
)

// PaymentRepository handles payment database operations
type PaymentRepository struct {
	db DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db DB) *PaymentRepository {
	return &PaymentRepository{
		db: db,
	}
}

// CreatePayment inserts a payment record and fills in its generated ID
// and timestamp
func (r *PaymentRepository) CreatePayment(p *models.Payment) error {
	query := `
		INSERT INTO payments (
			booking_id, payment_method, status, reference, notes
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(query,
		p.BookingID,
		p.PaymentMethod,
		p.Status,
		p.Reference,
		p.Notes,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetByBookingID retrieves the payment for a booking
func (r *PaymentRepository) GetByBookingID(bookingID string) (*models.Payment, error) {
	payment := &models.Payment{}
	query := `
		SELECT id, booking_id, payment_method, status, reference, notes, created_at
		FROM payments
		WHERE booking_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	err := r.db.Get(payment, query, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("payment not found")
		}
		return nil, fmt.Errorf("failed to fetch payment: %w", err)
	}
	return payment, nil
}

// UpdateStatus moves a payment to a new status
func (r *PaymentRepository) UpdateStatus(id string, status models.PaymentStatus) error {
	query := `UPDATE payments SET status = $1 WHERE id = $2`

	result, err := r.db.Exec(query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("payment not found")
	}
	return nil
}

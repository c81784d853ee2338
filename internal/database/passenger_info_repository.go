package database

import (
	"fmt"

	"github.com/biyahe/booking-backend/internal/models"
)

// PassengerInfoRepository handles persisted passenger records
type PassengerInfoRepository struct {
	db DB
}

// NewPassengerInfoRepository creates a new passenger info repository
func NewPassengerInfoRepository(db DB) *PassengerInfoRepository {
	return &PassengerInfoRepository{
		db: db,
	}
}

// CreatePassenger inserts one passenger record and fills in its
// generated ID and timestamp
func (r *PassengerInfoRepository) CreatePassenger(p *models.PassengerInfo) error {
	query := `
		INSERT INTO passenger_info (
			booking_id, first_name, last_name, email,
			contact_number, birthday, seat_number
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(query,
		p.BookingID,
		p.FirstName,
		p.LastName,
		p.Email,
		p.ContactNumber,
		p.Birthday,
		p.SeatNumber,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create passenger for seat %s: %w", p.SeatNumber, err)
	}
	return nil
}

// ListByBooking retrieves every passenger record for a booking
func (r *PassengerInfoRepository) ListByBooking(bookingID string) ([]models.PassengerInfo, error) {
	query := `
		SELECT id, booking_id, first_name, last_name, email,
		       contact_number, birthday, seat_number, created_at
		FROM passenger_info
		WHERE booking_id = $1
		ORDER BY seat_number
	`

	passengers := []models.PassengerInfo{}
	if err := r.db.Select(&passengers, query, bookingID); err != nil {
		return nil, fmt.Errorf("failed to list passengers: %w", err)
	}
	return passengers, nil
}

package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/biyahe/booking-backend/internal/models"
)

// BookingRepository handles booking database operations
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{
		db: db,
	}
}

// CreateBooking inserts a booking and fills in its generated ID and
// timestamps. The booking code must already be set.
func (r *BookingRepository) CreateBooking(booking *models.Booking) error {
	query := `
		INSERT INTO bookings (
			trip_id, user_id, booking_code, status,
			total_passengers, selected_seats
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(query,
		booking.TripID,
		booking.UserID,
		booking.BookingCode,
		booking.Status,
		booking.TotalPassengers,
		booking.SelectedSeats,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetBookingByID retrieves a booking by ID
func (r *BookingRepository) GetBookingByID(id string) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `
		SELECT id, trip_id, user_id, booking_code, status,
		       total_passengers, selected_seats, created_at, updated_at
		FROM bookings WHERE id = $1
	`

	err := r.db.Get(booking, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("booking not found")
		}
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}
	return booking, nil
}

// GetBookingByCode retrieves a booking by its human-readable code
func (r *BookingRepository) GetBookingByCode(code string) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `
		SELECT id, trip_id, user_id, booking_code, status,
		       total_passengers, selected_seats, created_at, updated_at
		FROM bookings WHERE booking_code = $1
	`

	err := r.db.Get(booking, query, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("booking not found")
		}
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}
	return booking, nil
}

// ListActiveByTrip retrieves pending and confirmed bookings for a trip.
// Used to rebuild seat availability when no per-seat rows exist.
func (r *BookingRepository) ListActiveByTrip(tripID string) ([]models.Booking, error) {
	query := `
		SELECT id, trip_id, user_id, booking_code, status,
		       total_passengers, selected_seats, created_at, updated_at
		FROM bookings
		WHERE trip_id = $1 AND status IN ($2, $3)
		ORDER BY created_at ASC
	`

	bookings := []models.Booking{}
	err := r.db.Select(&bookings, query, tripID, models.BookingStatusPending, models.BookingStatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for trip: %w", err)
	}
	return bookings, nil
}

// UpdateStatus moves a booking to a new status
func (r *BookingRepository) UpdateStatus(id string, status models.BookingStatus) error {
	query := `UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.Exec(query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("booking not found")
	}
	return nil
}

// CountByCode reports how many bookings already carry a code. Used to
// retry code generation on the rare collision.
func (r *BookingRepository) CountByCode(code string) (int, error) {
	var count int
	err := r.db.Get(&count, `SELECT COUNT(*) FROM bookings WHERE booking_code = $1`, code)
	if err != nil {
		return 0, fmt.Errorf("failed to check booking code: %w", err)
	}
	return count, nil
}

package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/biyahe/booking-backend/internal/models"
)

// TripRepository handles destination and trip database operations
type TripRepository struct {
	db DB
}

// NewTripRepository creates a new trip repository
func NewTripRepository(db DB) *TripRepository {
	return &TripRepository{
		db: db,
	}
}

// SearchDestinations returns destinations whose name matches the query.
// An empty query lists every destination.
func (r *TripRepository) SearchDestinations(q string) ([]models.Destination, error) {
	query := `
		SELECT id, name
		FROM destinations
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%'
		ORDER BY name
	`

	destinations := []models.Destination{}
	if err := r.db.Select(&destinations, query, q); err != nil {
		return nil, fmt.Errorf("failed to search destinations: %w", err)
	}
	return destinations, nil
}

// GetDestinationByID retrieves a destination by ID
func (r *TripRepository) GetDestinationByID(id string) (*models.Destination, error) {
	destination := &models.Destination{}
	query := `SELECT id, name FROM destinations WHERE id = $1`

	err := r.db.Get(destination, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("destination not found")
		}
		return nil, fmt.Errorf("failed to fetch destination: %w", err)
	}
	return destination, nil
}

// ListTripsByDestination retrieves upcoming trips to a destination,
// soonest departure first
func (r *TripRepository) ListTripsByDestination(destinationID string) ([]models.Trip, error) {
	query := `
		SELECT t.id, t.destination_id, d.name AS destination_name,
		       t.company_id, c.name AS company_name,
		       t.departure_time, t.vehicle_type, t.fare,
		       t.available_seats, t.capacity, t.amenities, t.notes,
		       t.created_at
		FROM trips t
		JOIN destinations d ON d.id = t.destination_id
		JOIN transport_companies c ON c.id = t.company_id
		WHERE t.destination_id = $1
		  AND t.departure_time >= NOW()
		ORDER BY t.departure_time ASC
	`

	trips := []models.Trip{}
	if err := r.db.Select(&trips, query, destinationID); err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	return trips, nil
}

// GetTripByID retrieves a trip with its destination and company names
func (r *TripRepository) GetTripByID(id string) (*models.Trip, error) {
	trip := &models.Trip{}
	query := `
		SELECT t.id, t.destination_id, d.name AS destination_name,
		       t.company_id, c.name AS company_name,
		       t.departure_time, t.vehicle_type, t.fare,
		       t.available_seats, t.capacity, t.amenities, t.notes,
		       t.created_at
		FROM trips t
		JOIN destinations d ON d.id = t.destination_id
		JOIN transport_companies c ON c.id = t.company_id
		WHERE t.id = $1
	`

	err := r.db.Get(trip, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("trip not found")
		}
		return nil, fmt.Errorf("failed to fetch trip: %w", err)
	}
	return trip, nil
}

// DecrementAvailableSeats reduces a trip's available seat counter after
// a booking. Fails when fewer seats remain than requested.
func (r *TripRepository) DecrementAvailableSeats(tripID string, count int) error {
	query := `
		UPDATE trips
		SET available_seats = available_seats - $2
		WHERE id = $1 AND available_seats >= $2
	`

	result, err := r.db.Exec(query, tripID, count)
	if err != nil {
		return fmt.Errorf("failed to update available seats: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("not enough seats remaining on trip %s", tripID)
	}
	return nil
}

// IncrementAvailableSeats returns seats to a trip's counter after a
// cancellation
func (r *TripRepository) IncrementAvailableSeats(tripID string, count int) error {
	query := `
		UPDATE trips
		SET available_seats = available_seats + $2
		WHERE id = $1
	`

	result, err := r.db.Exec(query, tripID, count)
	if err != nil {
		return fmt.Errorf("failed to update available seats: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("trip not found")
	}
	return nil
}

package database

import (
	"fmt"

	"github.com/biyahe/booking-backend/internal/models"
)

// SeatStatusRepository handles the fine-grained per-seat status rows for
// a trip. Only unavailable seats get a row; an absent seat number means
// the seat is open.
type SeatStatusRepository struct {
	db DB
}

// NewSeatStatusRepository creates a new seat status repository
func NewSeatStatusRepository(db DB) *SeatStatusRepository {
	return &SeatStatusRepository{
		db: db,
	}
}

// ListByTrip retrieves every seat status row for a trip
func (r *SeatStatusRepository) ListByTrip(tripID string) ([]models.TripSeatStatus, error) {
	query := `
		SELECT trip_id, seat_number, status, updated_at
		FROM trip_seat_status
		WHERE trip_id = $1
		ORDER BY seat_number
	`

	statuses := []models.TripSeatStatus{}
	if err := r.db.Select(&statuses, query, tripID); err != nil {
		return nil, fmt.Errorf("failed to list seat statuses: %w", err)
	}
	return statuses, nil
}

const upsertSeatStatusQuery = `
		INSERT INTO trip_seat_status (trip_id, seat_number, status, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (trip_id, seat_number)
		DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()
	`

// MarkSeatsBooked upserts a booked row for each seat number. Called
// once the booking is confirmed so later grids see the seats as sold.
func (r *SeatStatusRepository) MarkSeatsBooked(tripID string, seatNumbers []int) error {
	for _, n := range seatNumbers {
		if _, err := r.db.Exec(upsertSeatStatusQuery, tripID, n, models.TripSeatBooked); err != nil {
			return fmt.Errorf("failed to mark seat %d booked: %w", n, err)
		}
	}
	return nil
}

// MarkSeatsReserved upserts a reserved row for each seat number. Called
// at submission, while the booking is still pending. Already-booked
// seats are left alone.
func (r *SeatStatusRepository) MarkSeatsReserved(tripID string, seatNumbers []int) error {
	query := `
		INSERT INTO trip_seat_status (trip_id, seat_number, status, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (trip_id, seat_number) DO NOTHING
	`

	for _, n := range seatNumbers {
		if _, err := r.db.Exec(query, tripID, n, models.TripSeatReserved); err != nil {
			return fmt.Errorf("failed to mark seat %d reserved: %w", n, err)
		}
	}
	return nil
}

// ReleaseSeats removes the status rows for seats that are no longer
// held, returning them to available
func (r *SeatStatusRepository) ReleaseSeats(tripID string, seatNumbers []int) error {
	query := `
		DELETE FROM trip_seat_status
		WHERE trip_id = $1 AND seat_number = $2 AND status != $3
	`

	for _, n := range seatNumbers {
		if _, err := r.db.Exec(query, tripID, n, models.TripSeatBooked); err != nil {
			return fmt.Errorf("failed to release seat %d: %w", n, err)
		}
	}
	return nil
}

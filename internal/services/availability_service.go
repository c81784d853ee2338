package services

import (
	"fmt"

	"github.com/biyahe/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// SeatStatusLister provides the fine-grained per-seat status rows for a
// trip. Absence of a seat number means the seat is available.
type SeatStatusLister interface {
	ListByTrip(tripID string) ([]models.TripSeatStatus, error)
}

// ActiveBookingLister provides the aggregate bookings used to rebuild
// availability when no per-seat rows exist yet
type ActiveBookingLister interface {
	ListActiveByTrip(tripID string) ([]models.Booking, error)
}

// AvailabilityService resolves the live seat grid for a trip by
// overlaying stored seat statuses onto the vehicle's topology
type AvailabilityService struct {
	seatStatuses SeatStatusLister
	bookings     ActiveBookingLister
	logger       *logrus.Logger
}

// NewAvailabilityService creates a new availability service
func NewAvailabilityService(seatStatuses SeatStatusLister, bookings ActiveBookingLister, logger *logrus.Logger) *AvailabilityService {
	return &AvailabilityService{
		seatStatuses: seatStatuses,
		bookings:     bookings,
		logger:       logger,
	}
}

// Resolve produces the full seat grid for a trip. Seats in the booked
// set resolve to booked, seats in the reserved set to processing, and
// everything else stays available. Booked wins when a seat number shows
// up in both sets.
//
// When the per-seat source has no rows at all, the booked and reserved
// sets are rebuilt from the trip's active bookings: confirmed bookings
// contribute booked seats, pending bookings contribute processing ones.
// An empty result from both sources means no seats are taken, not an
// error.
func (s *AvailabilityService) Resolve(trip *models.Trip) ([]models.Seat, error) {
	statuses, err := s.seatStatuses.ListByTrip(trip.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve seat availability: %w", err)
	}

	booked := map[int]bool{}
	reserved := map[int]bool{}

	if len(statuses) > 0 {
		for _, row := range statuses {
			switch row.Status {
			case models.TripSeatBooked:
				booked[row.SeatNumber] = true
			case models.TripSeatReserved:
				reserved[row.SeatNumber] = true
			}
		}
	} else {
		bookings, err := s.bookings.ListActiveByTrip(trip.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve seat availability: %w", err)
		}
		for _, b := range bookings {
			for _, n := range b.SelectedSeats.Numbers() {
				if b.Status == models.BookingStatusConfirmed {
					booked[n] = true
				} else {
					reserved[n] = true
				}
			}
		}
		if len(bookings) > 0 {
			s.logger.WithField("trip_id", trip.ID).
				Debug("Seat availability rebuilt from booking aggregates")
		}
	}

	vehicle := models.NormalizeVehicleType(string(trip.VehicleType))
	grid := models.NewSeatGrid(vehicle)
	for i := range grid {
		switch {
		case booked[grid[i].Number]:
			grid[i].Status = models.SeatStatusBooked
		case reserved[grid[i].Number]:
			grid[i].Status = models.SeatStatusProcessing
		}
	}
	return grid, nil
}

// OverlayHolds marks seats leased by other sessions as processing.
// Holds belonging to ownSession are left untouched so a session keeps
// seeing its own picks as selected.
func OverlayHolds(grid []models.Seat, held map[int]string, ownSession string) {
	for i := range grid {
		holder, ok := held[grid[i].Number]
		if !ok || holder == ownSession {
			continue
		}
		if grid[i].Status == models.SeatStatusAvailable || grid[i].Status == models.SeatStatusPWD {
			grid[i].Status = models.SeatStatusProcessing
		}
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/biyahe/booking-backend/internal/models"
	"github.com/biyahe/booking-backend/internal/queue"
	"github.com/sirupsen/logrus"
)

// BookingStore provides booking persistence for the orchestrator
type BookingStore interface {
	CreateBooking(booking *models.Booking) error
	GetBookingByID(id string) (*models.Booking, error)
	GetBookingByCode(code string) (*models.Booking, error)
	UpdateStatus(id string, status models.BookingStatus) error
	CountByCode(code string) (int, error)
}

// PassengerStore provides passenger-info persistence
type PassengerStore interface {
	CreatePassenger(p *models.PassengerInfo) error
	ListByBooking(bookingID string) ([]models.PassengerInfo, error)
}

// SeatStatusWriter records per-seat outcomes of a submission or
// cancellation
type SeatStatusWriter interface {
	MarkSeatsReserved(tripID string, seatNumbers []int) error
	MarkSeatsBooked(tripID string, seatNumbers []int) error
	ReleaseSeats(tripID string, seatNumbers []int) error
}

// TripStore provides trip reads and the seat counter updates
type TripStore interface {
	GetTripByID(id string) (*models.Trip, error)
	DecrementAvailableSeats(tripID string, count int) error
	IncrementAvailableSeats(tripID string, count int) error
}

// EventPublisher publishes booking lifecycle events
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, event queue.BookingConfirmedEvent) error
}

// ErrNotBookingOwner is returned when a caller reads a booking that
// belongs to someone else
var ErrNotBookingOwner = errors.New("booking belongs to another user")

// SubmissionResult is what a successful submission returns to the client
type SubmissionResult struct {
	Booking    *models.Booking        `json:"booking"`
	Passengers []models.PassengerInfo `json:"passengers"`
	Handoff    *models.HandoffPayload `json:"handoff"`
}

// BookingService orchestrates booking submission and the confirmed
// transition
type BookingService struct {
	bookings     BookingStore
	passengers   PassengerStore
	seatStatuses SeatStatusWriter
	trips        TripStore
	selection    *SelectionService
	handoff      *HandoffService
	publisher    EventPublisher
	logger       *logrus.Logger
}

// NewBookingService creates a new booking service
func NewBookingService(
	bookings BookingStore,
	passengers PassengerStore,
	seatStatuses SeatStatusWriter,
	trips TripStore,
	selection *SelectionService,
	handoff *HandoffService,
	publisher EventPublisher,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		bookings:     bookings,
		passengers:   passengers,
		seatStatuses: seatStatuses,
		trips:        trips,
		selection:    selection,
		handoff:      handoff,
		publisher:    publisher,
		logger:       logger,
	}
}

// generateUniqueBookingCode draws codes until one is unused
func (s *BookingService) generateUniqueBookingCode() (string, error) {
	for attempts := 0; attempts < 10; attempts++ {
		code, err := models.GenerateBookingCode()
		if err != nil {
			return "", err
		}
		count, err := s.bookings.CountByCode(code)
		if err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique booking code after 10 attempts")
}

// Submit runs the full submission flow for a selection session:
//
//  1. Freeze the selection (fails on an empty selection, a selected
//     seat without passenger details, or a submission already in
//     flight for the session). A failed submission releases the
//     session for retry; a successful one closes it.
//  2. Generate the booking code and create the pending booking row.
//     Failure here aborts with no passenger writes attempted.
//  3. Fan out one passenger-info insert per seat concurrently, then
//     join. The any-failure check runs only after every insert has
//     finished; a partial failure is reported as a submission failure
//     with already-created rows left in place. No rollback, no retry.
//  4. Reserve the seats, decrement the trip counter, write the handoff
//     payload and close the session.
//
// The caller's identity must already be authenticated; userID ties the
// booking to the account.
func (s *BookingService) Submit(ctx context.Context, sessionID, userID string) (*SubmissionResult, error) {
	snapshot, err := s.selection.Snapshot(sessionID)
	if err != nil {
		return nil, err
	}
	trip := snapshot.Trip

	code, err := s.generateUniqueBookingCode()
	if err != nil {
		s.selection.AbortSubmission(sessionID)
		return nil, err
	}

	booking := &models.Booking{
		TripID:          trip.ID,
		UserID:          userID,
		BookingCode:     code,
		Status:          models.BookingStatusPending,
		TotalPassengers: len(snapshot.Seats),
		SelectedSeats:   snapshot.Seats,
	}
	if err := s.bookings.CreateBooking(booking); err != nil {
		s.selection.AbortSubmission(sessionID)
		return nil, err
	}

	// Concurrent passenger fan-out. Every insert runs to completion
	// before the aggregate failure check; partial side effects stay.
	records := make([]models.PassengerInfo, len(snapshot.Passengers))
	writeErrs := make([]error, len(snapshot.Passengers))

	var wg sync.WaitGroup
	for i, details := range snapshot.Passengers {
		wg.Add(1)
		go func(i int, d models.PassengerDetails) {
			defer wg.Done()

			birthday, err := models.ParseBirthday(d.Birthday)
			if err != nil {
				writeErrs[i] = err
				return
			}

			var email *string
			if e := strings.TrimSpace(d.Email); e != "" {
				email = &e
			}

			record := models.PassengerInfo{
				BookingID:     booking.ID,
				FirstName:     d.FirstName,
				LastName:      d.LastName,
				Email:         email,
				ContactNumber: d.PhoneNumber,
				Birthday:      birthday,
				SeatNumber:    strconv.Itoa(d.SeatNumber),
			}
			if err := s.passengers.CreatePassenger(&record); err != nil {
				writeErrs[i] = err
				return
			}
			records[i] = record
		}(i, details)
	}
	wg.Wait()

	for i, err := range writeErrs {
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"booking_id": booking.ID,
				"seat":       snapshot.Passengers[i].SeatNumber,
			}).Error("Passenger write failed during fan-out")
			s.selection.AbortSubmission(sessionID)
			return nil, fmt.Errorf("failed to save passenger details: %w", err)
		}
	}

	seatNumbers := booking.SelectedSeats.Numbers()
	if err := s.seatStatuses.MarkSeatsReserved(trip.ID, seatNumbers); err != nil {
		s.logger.WithError(err).WithField("booking_id", booking.ID).
			Warn("Failed to write reserved seat rows")
	}
	if err := s.trips.DecrementAvailableSeats(trip.ID, len(seatNumbers)); err != nil {
		s.logger.WithError(err).WithField("trip_id", trip.ID).
			Warn("Failed to decrement available seats")
	}

	handoff := &models.HandoffPayload{
		BookingID:     booking.ID,
		BookingCode:   booking.BookingCode,
		TripID:        trip.ID,
		SelectedSeats: booking.SelectedSeats,
		Passengers:    snapshot.Passengers,
		FarePerSeat:   trip.Fare,
		TotalAmount:   trip.Fare * float64(booking.TotalPassengers),
		TripDetails: models.HandoffTripDetails{
			Departure:   trip.DepartureTime,
			Destination: trip.DestinationName,
			Company:     trip.CompanyName,
		},
	}
	if err := s.handoff.Store(ctx, handoff); err != nil {
		s.logger.WithError(err).WithField("booking_id", booking.ID).
			Warn("Failed to store handoff payload")
	}

	s.selection.CloseSession(ctx, sessionID)

	s.logger.WithFields(logrus.Fields{
		"booking_id":   booking.ID,
		"booking_code": booking.BookingCode,
		"trip_id":      trip.ID,
		"passengers":   booking.TotalPassengers,
	}).Info("Booking submitted")

	return &SubmissionResult{
		Booking:    booking,
		Passengers: records,
		Handoff:    handoff,
	}, nil
}

// Confirm moves a booking to confirmed, marks its seats booked and
// publishes the confirmation event. The transition is monotonic;
// confirming a confirmed booking is a no-op.
func (s *BookingService) Confirm(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.bookings.GetBookingByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.IsConfirmed() {
		return booking, nil
	}
	if err := booking.Confirm(); err != nil {
		return nil, err
	}
	if err := s.bookings.UpdateStatus(booking.ID, models.BookingStatusConfirmed); err != nil {
		return nil, err
	}

	seatNumbers := booking.SelectedSeats.Numbers()
	if err := s.seatStatuses.MarkSeatsBooked(booking.TripID, seatNumbers); err != nil {
		s.logger.WithError(err).WithField("booking_id", booking.ID).
			Warn("Failed to write booked seat rows")
	}

	if s.publisher != nil {
		event := queue.BookingConfirmedEvent{
			BookingID:       booking.ID,
			BookingCode:     booking.BookingCode,
			UserID:          booking.UserID,
			TripID:          booking.TripID,
			SeatNumbers:     seatNumbers,
			TotalPassengers: booking.TotalPassengers,
			ConfirmedAt:     time.Now().UTC().Format(time.RFC3339),
		}
		if trip, err := s.trips.GetTripByID(booking.TripID); err == nil {
			event.Destination = trip.DestinationName
			event.Company = trip.CompanyName
			event.DepartureTime = trip.DepartureTime.Format(time.RFC3339)
			event.TotalAmount = trip.Fare * float64(booking.TotalPassengers)
		}
		// Publish failures never fail the confirmation
		_ = s.publisher.PublishBookingConfirmed(ctx, event)
	}

	return booking, nil
}

// GetBooking returns a booking with its passengers for the confirmation
// view. Only the booking's owner may read it.
func (s *BookingService) GetBooking(bookingID, userID string) (*models.BookingWithPassengers, error) {
	booking, err := s.bookings.GetBookingByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotBookingOwner
	}

	passengers, err := s.passengers.ListByBooking(bookingID)
	if err != nil {
		return nil, err
	}

	return &models.BookingWithPassengers{
		Booking:    *booking,
		Passengers: passengers,
	}, nil
}

// GetBookingByCode looks a booking up by its human-facing code, for
// ticket counter lookups. Same ownership rule as GetBooking.
func (s *BookingService) GetBookingByCode(code, userID string) (*models.BookingWithPassengers, error) {
	booking, err := s.bookings.GetBookingByCode(code)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotBookingOwner
	}

	passengers, err := s.passengers.ListByBooking(booking.ID)
	if err != nil {
		return nil, err
	}

	return &models.BookingWithPassengers{
		Booking:    *booking,
		Passengers: passengers,
	}, nil
}

// Cancel voids a pending booking, releasing its seat rows and returning
// the seats to the trip's available counter. Cancelling a cancelled
// booking is a no-op; a confirmed booking cannot be cancelled.
func (s *BookingService) Cancel(ctx context.Context, bookingID, userID string) (*models.Booking, error) {
	booking, err := s.bookings.GetBookingByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotBookingOwner
	}
	if booking.Status == models.BookingStatusCancelled {
		return booking, nil
	}
	if err := booking.Cancel(); err != nil {
		return nil, err
	}
	if err := s.bookings.UpdateStatus(booking.ID, models.BookingStatusCancelled); err != nil {
		return nil, err
	}

	seatNumbers := booking.SelectedSeats.Numbers()
	if err := s.seatStatuses.ReleaseSeats(booking.TripID, seatNumbers); err != nil {
		s.logger.WithError(err).WithField("booking_id", booking.ID).
			Warn("Failed to release seat rows")
	}
	if err := s.trips.IncrementAvailableSeats(booking.TripID, len(seatNumbers)); err != nil {
		s.logger.WithError(err).WithField("trip_id", booking.TripID).
			Warn("Failed to return seats to the trip counter")
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":   booking.ID,
		"booking_code": booking.BookingCode,
	}).Info("Booking cancelled")

	return booking, nil
}

// GetHandoff returns the payment handoff payload for a booking, with
// the same ownership check as GetBooking
func (s *BookingService) GetHandoff(ctx context.Context, bookingID, userID string) (*models.HandoffPayload, error) {
	booking, err := s.bookings.GetBookingByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotBookingOwner
	}
	return s.handoff.Get(ctx, bookingID)
}

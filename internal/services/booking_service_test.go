package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/biyahe/booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingFixture struct {
	svc        *BookingService
	selection  *SelectionService
	trips      *fakeTripStore
	seats      *fakeSeatStatusStore
	bookings   *fakeBookingStore
	passengers *fakePassengerStore
	publisher  *fakePublisher
}

func newBookingFixture(trip *models.Trip) *bookingFixture {
	logger := testLogger()
	trips := newFakeTripStore(trip)
	seats := newFakeSeatStatusStore()
	bookings := newFakeBookingStore()
	passengers := newFakePassengerStore()
	publisher := &fakePublisher{}

	availability := NewAvailabilityService(seats, bookings, logger)
	holds := NewSeatHoldService(nil, 10*time.Minute, logger)
	selection := NewSelectionService(trips, availability, holds, logger)
	handoff := NewHandoffService(nil, 30*time.Minute, logger)

	return &bookingFixture{
		svc:        NewBookingService(bookings, passengers, seats, trips, selection, handoff, publisher, logger),
		selection:  selection,
		trips:      trips,
		seats:      seats,
		bookings:   bookings,
		passengers: passengers,
		publisher:  publisher,
	}
}

// selectAndCapture opens a session, selects the seats and saves valid
// passenger details for each, returning the session ID
func (f *bookingFixture) selectAndCapture(t *testing.T, seatNumbers ...int) string {
	t.Helper()
	ctx := context.Background()

	view, err := f.selection.StartSession(ctx, "trip-1")
	require.NoError(t, err)
	for _, n := range seatNumbers {
		_, err = f.selection.ClickSeat(ctx, view.ID, n)
		require.NoError(t, err)
		_, err = f.selection.SavePassenger(ctx, view.ID, n, validDetails(n))
		require.NoError(t, err)
	}
	return view.ID
}

func TestSubmitCreatesPendingBooking(t *testing.T) {
	f := newBookingFixture(busTrip())
	sessionID := f.selectAndCapture(t, 3, 9)

	result, err := f.svc.Submit(context.Background(), sessionID, "user-1")
	require.NoError(t, err)

	booking := result.Booking
	assert.True(t, strings.HasPrefix(booking.BookingCode, "BK-"))
	assert.Len(t, booking.BookingCode, 3+models.BookingCodeLength)
	assert.Equal(t, models.BookingStatusPending, booking.Status)
	assert.Equal(t, "user-1", booking.UserID)
	assert.Equal(t, 2, booking.TotalPassengers)
	assert.Equal(t, []int{3, 9}, booking.SelectedSeats.Numbers())

	require.Len(t, result.Passengers, 2)
	assert.Equal(t, "3", result.Passengers[0].SeatNumber)
	assert.Equal(t, "9", result.Passengers[1].SeatNumber)
	assert.Equal(t, booking.ID, result.Passengers[0].BookingID)

	require.NotNil(t, result.Handoff)
	assert.Equal(t, 500.00, result.Handoff.FarePerSeat)
	assert.Equal(t, 1000.00, result.Handoff.TotalAmount)
	assert.Equal(t, "Baguio", result.Handoff.TripDetails.Destination)

	assert.Equal(t, []int{3, 9}, f.seats.reserved["trip-1"])
	assert.Equal(t, 2, f.trips.decremented["trip-1"])

	// Session is gone once the booking exists
	_, err = f.selection.GetSession(sessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSubmitConcurrentDoubleSubmissionCreatesOneBooking(t *testing.T) {
	f := newBookingFixture(busTrip())
	sessionID := f.selectAndCapture(t, 3, 9)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := f.svc.Submit(context.Background(), sessionID, "user-1")
			errs <- err
		}()
	}

	var failures []error
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			failures = append(failures, err)
		}
	}

	// Exactly one submit wins; the loser fails on the session state
	require.Len(t, failures, 1)
	isSessionError := errors.Is(failures[0], ErrSubmissionInProgress) ||
		errors.Is(failures[0], ErrSessionNotFound)
	assert.True(t, isSessionError, "unexpected error: %v", failures[0])

	assert.Len(t, f.bookings.bookings, 1)
	assert.Equal(t, 2, f.trips.decremented["trip-1"])
	assert.Len(t, f.passengers.seatNumbers(), 2)
}

func TestSubmitRetriesAfterPassengerWriteFailure(t *testing.T) {
	f := newBookingFixture(busTrip())
	sessionID := f.selectAndCapture(t, 3, 9)
	f.passengers.failSeat = "9"

	_, err := f.svc.Submit(context.Background(), sessionID, "user-1")
	require.Error(t, err)

	// The failure releases the session so the user can submit again
	f.passengers.failSeat = ""
	result, err := f.svc.Submit(context.Background(), sessionID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, result.Booking.Status)
}

func TestSubmitRejectsEmptySelection(t *testing.T) {
	f := newBookingFixture(busTrip())
	view, err := f.selection.StartSession(context.Background(), "trip-1")
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), view.ID, "user-1")
	assert.ErrorIs(t, err, ErrNoSeatsSelected)
	assert.Empty(t, f.bookings.bookings)
}

func TestSubmitRejectsMissingPassengers(t *testing.T) {
	f := newBookingFixture(busTrip())
	ctx := context.Background()

	view, err := f.selection.StartSession(ctx, "trip-1")
	require.NoError(t, err)
	_, err = f.selection.ClickSeat(ctx, view.ID, 3)
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, view.ID, "user-1")
	var missing *MissingPassengersError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []int{3}, missing.Seats)
	assert.Empty(t, f.bookings.bookings)

	// Session survives a failed precondition so the user can finish
	_, err = f.selection.GetSession(view.ID)
	assert.NoError(t, err)
}

func TestSubmitBookingCreateFailureWritesNoPassengers(t *testing.T) {
	f := newBookingFixture(busTrip())
	sessionID := f.selectAndCapture(t, 3, 9)
	f.bookings.createErr = errors.New("insert failed")

	_, err := f.svc.Submit(context.Background(), sessionID, "user-1")
	require.Error(t, err)
	assert.Empty(t, f.passengers.seatNumbers())
}

func TestSubmitPartialPassengerFailureKeepsWrittenRows(t *testing.T) {
	f := newBookingFixture(busTrip())
	sessionID := f.selectAndCapture(t, 3, 9, 14)
	f.passengers.failSeat = "9"

	_, err := f.svc.Submit(context.Background(), sessionID, "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save passenger details")

	// The pending booking row and the successful inserts stay behind
	require.Len(t, f.bookings.bookings, 1)
	written := f.passengers.seatNumbers()
	assert.Len(t, written, 2)
	assert.NotContains(t, written, "9")
}

func TestConfirmTransitionsAndPublishes(t *testing.T) {
	f := newBookingFixture(busTrip())
	sessionID := f.selectAndCapture(t, 3, 9)

	result, err := f.svc.Submit(context.Background(), sessionID, "user-1")
	require.NoError(t, err)

	booking, err := f.svc.Confirm(context.Background(), result.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)

	stored, err := f.bookings.GetBookingByID(booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, stored.Status)

	assert.Equal(t, []int{3, 9}, f.seats.booked["trip-1"])

	require.Len(t, f.publisher.events, 1)
	event := f.publisher.events[0]
	assert.Equal(t, booking.BookingCode, event.BookingCode)
	assert.Equal(t, []int{3, 9}, event.SeatNumbers)
	assert.Equal(t, 1000.00, event.TotalAmount)
}

func TestConfirmIsIdempotent(t *testing.T) {
	f := newBookingFixture(busTrip())
	sessionID := f.selectAndCapture(t, 3)

	result, err := f.svc.Submit(context.Background(), sessionID, "user-1")
	require.NoError(t, err)

	_, err = f.svc.Confirm(context.Background(), result.Booking.ID)
	require.NoError(t, err)
	_, err = f.svc.Confirm(context.Background(), result.Booking.ID)
	require.NoError(t, err)

	assert.Len(t, f.publisher.events, 1)
}

func TestGetBookingEnforcesOwnership(t *testing.T) {
	f := newBookingFixture(busTrip())
	sessionID := f.selectAndCapture(t, 3)

	result, err := f.svc.Submit(context.Background(), sessionID, "user-1")
	require.NoError(t, err)

	_, err = f.svc.GetBooking(result.Booking.ID, "user-2")
	assert.ErrorIs(t, err, ErrNotBookingOwner)

	withPassengers, err := f.svc.GetBooking(result.Booking.ID, "user-1")
	require.NoError(t, err)
	assert.Len(t, withPassengers.Passengers, 1)
}

func TestGetBookingByCode(t *testing.T) {
	f := newBookingFixture(busTrip())
	sessionID := f.selectAndCapture(t, 3)

	result, err := f.svc.Submit(context.Background(), sessionID, "user-1")
	require.NoError(t, err)

	_, err = f.svc.GetBookingByCode(result.Booking.BookingCode, "user-2")
	assert.ErrorIs(t, err, ErrNotBookingOwner)

	found, err := f.svc.GetBookingByCode(result.Booking.BookingCode, "user-1")
	require.NoError(t, err)
	assert.Equal(t, result.Booking.ID, found.Booking.ID)
	assert.Len(t, found.Passengers, 1)
}

func TestCancelReleasesSeats(t *testing.T) {
	f := newBookingFixture(busTrip())
	sessionID := f.selectAndCapture(t, 3, 9)

	result, err := f.svc.Submit(context.Background(), sessionID, "user-1")
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), result.Booking.ID, "user-2")
	assert.ErrorIs(t, err, ErrNotBookingOwner)

	booking, err := f.svc.Cancel(context.Background(), result.Booking.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, booking.Status)

	stored, err := f.bookings.GetBookingByID(booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, stored.Status)

	assert.Equal(t, []int{3, 9}, f.seats.released["trip-1"])
	assert.Equal(t, 2, f.trips.incremented["trip-1"])

	// Cancelling again is a no-op and releases nothing twice
	_, err = f.svc.Cancel(context.Background(), booking.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 9}, f.seats.released["trip-1"])
	assert.Equal(t, 2, f.trips.incremented["trip-1"])

	// A cancelled booking can no longer be confirmed
	_, err = f.svc.Confirm(context.Background(), booking.ID)
	assert.Error(t, err)
}

func TestCancelRejectsConfirmedBooking(t *testing.T) {
	f := newBookingFixture(busTrip())
	sessionID := f.selectAndCapture(t, 3)

	result, err := f.svc.Submit(context.Background(), sessionID, "user-1")
	require.NoError(t, err)
	_, err = f.svc.Confirm(context.Background(), result.Booking.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), result.Booking.ID, "user-1")
	assert.ErrorIs(t, err, models.ErrBookingNotCancellable)
	assert.Empty(t, f.seats.released["trip-1"])
}

package services

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/biyahe/booking-backend/internal/models"
	"github.com/biyahe/booking-backend/internal/queue"
	"github.com/sirupsen/logrus"
)

// In-memory fakes shared by the service tests.

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func busTrip() *models.Trip {
	return &models.Trip{
		ID:              "trip-1",
		DestinationID:   "dest-1",
		DestinationName: "Baguio",
		CompanyID:       "co-1",
		CompanyName:     "Victory Liner",
		DepartureTime:   time.Now().Add(24 * time.Hour),
		VehicleType:     models.VehicleTypeBus,
		Fare:            500.00,
		AvailableSeats:  66,
	}
}

type fakeTripStore struct {
	mu          sync.Mutex
	trips       map[string]*models.Trip
	decremented map[string]int
	incremented map[string]int
}

func newFakeTripStore(trips ...*models.Trip) *fakeTripStore {
	f := &fakeTripStore{
		trips:       map[string]*models.Trip{},
		decremented: map[string]int{},
		incremented: map[string]int{},
	}
	for _, t := range trips {
		f.trips[t.ID] = t
	}
	return f
}

func (f *fakeTripStore) GetTripByID(id string) (*models.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[id]
	if !ok {
		return nil, fmt.Errorf("trip not found")
	}
	return t, nil
}

func (f *fakeTripStore) DecrementAvailableSeats(tripID string, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decremented[tripID] += count
	return nil
}

func (f *fakeTripStore) IncrementAvailableSeats(tripID string, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incremented[tripID] += count
	return nil
}

type fakeSeatStatusStore struct {
	mu       sync.Mutex
	rows     map[string][]models.TripSeatStatus
	reserved map[string][]int
	booked   map[string][]int
	released map[string][]int
	listErr  error
}

func newFakeSeatStatusStore() *fakeSeatStatusStore {
	return &fakeSeatStatusStore{
		rows:     map[string][]models.TripSeatStatus{},
		reserved: map[string][]int{},
		booked:   map[string][]int{},
		released: map[string][]int{},
	}
}

func (f *fakeSeatStatusStore) setRow(tripID string, seatNumber int, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[tripID] = append(f.rows[tripID], models.TripSeatStatus{
		TripID:     tripID,
		SeatNumber: seatNumber,
		Status:     status,
	})
}

func (f *fakeSeatStatusStore) ListByTrip(tripID string) ([]models.TripSeatStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.TripSeatStatus{}, f.rows[tripID]...), nil
}

func (f *fakeSeatStatusStore) MarkSeatsReserved(tripID string, seatNumbers []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reserved[tripID] = append(f.reserved[tripID], seatNumbers...)
	return nil
}

func (f *fakeSeatStatusStore) MarkSeatsBooked(tripID string, seatNumbers []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.booked[tripID] = append(f.booked[tripID], seatNumbers...)
	return nil
}

func (f *fakeSeatStatusStore) ReleaseSeats(tripID string, seatNumbers []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released[tripID] = append(f.released[tripID], seatNumbers...)
	return nil
}

type fakeBookingStore struct {
	mu        sync.Mutex
	bookings  map[string]*models.Booking
	createErr error
	nextID    int
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{bookings: map[string]*models.Booking{}}
}

func (f *fakeBookingStore) CreateBooking(booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	booking.ID = "booking-" + strconv.Itoa(f.nextID)
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	stored := *booking
	f.bookings[booking.ID] = &stored
	return nil
}

func (f *fakeBookingStore) GetBookingByID(id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking not found")
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBookingStore) GetBookingByCode(code string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.BookingCode == code {
			copied := *b
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("booking not found")
}

func (f *fakeBookingStore) UpdateStatus(id string, status models.BookingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return fmt.Errorf("booking not found")
	}
	b.Status = status
	return nil
}

func (f *fakeBookingStore) CountByCode(code string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, b := range f.bookings {
		if b.BookingCode == code {
			count++
		}
	}
	return count, nil
}

func (f *fakeBookingStore) ListActiveByTrip(tripID string) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Booking{}
	for _, b := range f.bookings {
		if b.TripID == tripID && b.Status != models.BookingStatusCancelled {
			out = append(out, *b)
		}
	}
	return out, nil
}

type fakePassengerStore struct {
	mu       sync.Mutex
	records  []models.PassengerInfo
	failSeat string
	nextID   int
}

func newFakePassengerStore() *fakePassengerStore {
	return &fakePassengerStore{}
}

func (f *fakePassengerStore) CreatePassenger(p *models.PassengerInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSeat != "" && p.SeatNumber == f.failSeat {
		return fmt.Errorf("database error")
	}
	f.nextID++
	p.ID = "passenger-" + strconv.Itoa(f.nextID)
	p.CreatedAt = time.Now()
	f.records = append(f.records, *p)
	return nil
}

func (f *fakePassengerStore) ListByBooking(bookingID string) ([]models.PassengerInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.PassengerInfo{}
	for _, r := range f.records {
		if r.BookingID == bookingID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakePassengerStore) seatNumbers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []string{}
	for _, r := range f.records {
		out = append(out, r.SeatNumber)
	}
	return out
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.BookingConfirmedEvent
}

func (f *fakePublisher) PublishBookingConfirmed(_ context.Context, event queue.BookingConfirmedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

type fakePaymentStore struct {
	mu       sync.Mutex
	payments []models.Payment
	nextID   int
}

func (f *fakePaymentStore) CreatePayment(p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = "payment-" + strconv.Itoa(f.nextID)
	p.CreatedAt = time.Now()
	f.payments = append(f.payments, *p)
	return nil
}

func (f *fakePaymentStore) GetByBookingID(bookingID string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.payments) - 1; i >= 0; i-- {
		if f.payments[i].BookingID == bookingID {
			copied := f.payments[i]
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("payment not found")
}

func (f *fakePaymentStore) UpdateStatus(id string, status models.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.payments {
		if f.payments[i].ID == id {
			f.payments[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("payment not found")
}

type fakeAuditLog struct {
	mu      sync.Mutex
	entries []models.PaymentAudit
}

func (f *fakeAuditLog) Log(audit *models.PaymentAudit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *audit)
	return nil
}

func (f *fakeAuditLog) ListByBooking(bookingID string) ([]models.PaymentAudit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.PaymentAudit{}
	for _, e := range f.entries {
		if e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAuditLog) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []string{}
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

func validDetails(seat int) models.PassengerDetails {
	return models.PassengerDetails{
		FirstName:   "Maria",
		LastName:    "Santos",
		Email:       "maria@example.com",
		PhoneNumber: "09171234567",
		Birthday:    "1995-06-21",
		SeatNumber:  seat,
	}
}

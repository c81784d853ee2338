package models

import (
	"crypto/rand"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// SeatSnapshot is one {number, status} pair recorded on a booking at
// submission time. The booking's seat list is immutable once created.
type SeatSnapshot struct {
	Number int        `json:"number"`
	Status SeatStatus `json:"status"`
}

// SeatSnapshotList stores the seat snapshots as a JSONB column
type SeatSnapshotList []SeatSnapshot

// Value implements the driver.Valuer interface
func (l SeatSnapshotList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface
func (l *SeatSnapshotList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into SeatSnapshotList", src)
	}

	return json.Unmarshal(data, l)
}

// Numbers returns the seat numbers in snapshot order
func (l SeatSnapshotList) Numbers() []int {
	numbers := make([]int, len(l))
	for i, s := range l {
		numbers[i] = s.Number
	}
	return numbers
}

// Booking represents one submitted reservation on a trip
type Booking struct {
	ID              string           `json:"id" db:"id"`
	TripID          string           `json:"trip_id" db:"trip_id"`
	UserID          string           `json:"user_id" db:"user_id"`
	BookingCode     string           `json:"booking_code" db:"booking_code"`
	Status          BookingStatus    `json:"status" db:"status"`
	TotalPassengers int              `json:"total_passengers" db:"total_passengers"`
	SelectedSeats   SeatSnapshotList `json:"selected_seats" db:"selected_seats"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}

// IsConfirmed reports whether payment has been completed for the booking
func (b *Booking) IsConfirmed() bool {
	return b.Status == BookingStatusConfirmed
}

// Confirm moves the booking status forward. The transition is monotonic:
// pending becomes confirmed, confirming twice is a no-op, and there is no
// path back.
func (b *Booking) Confirm() error {
	if b.Status == BookingStatusConfirmed {
		return nil
	}
	if b.Status != BookingStatusPending {
		return errors.New("booking is not in a confirmable state")
	}
	b.Status = BookingStatusConfirmed
	b.UpdatedAt = time.Now()
	return nil
}

// ErrBookingNotCancellable rejects cancelling a booking that has moved
// past pending
var ErrBookingNotCancellable = errors.New("only pending bookings can be cancelled")

// Cancel voids a pending booking. Cancelling twice is a no-op; a
// confirmed booking cannot be cancelled.
func (b *Booking) Cancel() error {
	if b.Status == BookingStatusCancelled {
		return nil
	}
	if b.Status != BookingStatusPending {
		return ErrBookingNotCancellable
	}
	b.Status = BookingStatusCancelled
	b.UpdatedAt = time.Now()
	return nil
}

// bookingCodeCharset deliberately omits 0/O, 1/I and similar lookalikes so
// the code can be read out or copied without ambiguity.
const bookingCodeCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// BookingCodeLength is the number of random characters after the prefix
const BookingCodeLength = 6

// GenerateBookingCode generates a short human-shareable booking code,
// e.g. BK-7KQ2MX.
func GenerateBookingCode() (string, error) {
	buf := make([]byte, BookingCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate booking code: %w", err)
	}

	for i, b := range buf {
		buf[i] = bookingCodeCharset[int(b)%len(bookingCodeCharset)]
	}

	return "BK-" + string(buf), nil
}

// BookingWithPassengers bundles a booking with its passenger records for
// the confirmation view
type BookingWithPassengers struct {
	Booking    Booking         `json:"booking"`
	Passengers []PassengerInfo `json:"passengers"`
}

package models

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
)

// StringArray is a custom type for handling TEXT[] columns in PostgreSQL
type StringArray []string

// Value implements the driver.Valuer interface
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return pq.Array(a).Value()
}

// Scan implements the sql.Scanner interface
func (a *StringArray) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	slice := (*[]string)(a)
	return pq.Array(slice).Scan(src)
}

// Destination is a place trips can be booked to
type Destination struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// TransportCompany operates trips
type TransportCompany struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Trip is a scheduled departure to a destination. The destination and
// company names are denormalized from their tables on read.
type Trip struct {
	ID              string      `json:"id" db:"id"`
	DestinationID   string      `json:"destination_id" db:"destination_id"`
	DestinationName string      `json:"destination_name" db:"destination_name"`
	CompanyID       string      `json:"company_id" db:"company_id"`
	CompanyName     string      `json:"company_name" db:"company_name"`
	DepartureTime   time.Time   `json:"departure_time" db:"departure_time"`
	VehicleType     VehicleType `json:"vehicle_type" db:"vehicle_type"`
	Fare            float64     `json:"fare" db:"fare"`
	AvailableSeats  int         `json:"available_seats" db:"available_seats"`
	Capacity        *int        `json:"capacity,omitempty" db:"capacity"`
	Amenities       StringArray `json:"amenities" db:"amenities"`
	Notes           *string     `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
}

// HasDeparted reports whether the trip's departure time has passed
func (t *Trip) HasDeparted() bool {
	return t.DepartureTime.Before(time.Now())
}

// TripSeatStatus is one fine-grained seat status row for a trip. Only
// unavailable seats are stored; absence of a seat number means available.
type TripSeatStatus struct {
	TripID     string    `json:"trip_id" db:"trip_id"`
	SeatNumber int       `json:"seat_number" db:"seat_number"`
	Status     string    `json:"status" db:"status"` // booked or reserved
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

const (
	TripSeatBooked   = "booked"
	TripSeatReserved = "reserved"
)

package models

import (
	"fmt"
	"strings"
)

// SeatStatus represents the state of a single seat in the selection grid
type SeatStatus string

const (
	SeatStatusAvailable  SeatStatus = "available"
	SeatStatusSelected   SeatStatus = "selected"
	SeatStatusPWD        SeatStatus = "pwd" // priority seat, selectable
	SeatStatusProcessing SeatStatus = "processing"
	SeatStatusBooked     SeatStatus = "booked"
	SeatStatusDriver     SeatStatus = "driver"
)

// IsSelectable reports whether a click on a seat in this state may
// select it. Only open seats qualify; priority (pwd) seats stay
// selectable for passengers who need them.
func (s SeatStatus) IsSelectable() bool {
	return s == SeatStatusAvailable || s == SeatStatusPWD
}

// IsLocked reports whether the seat can never transition in the current
// grid: sold, leased by another session, or the driver's seat.
func (s SeatStatus) IsLocked() bool {
	return s == SeatStatusBooked || s == SeatStatusProcessing || s == SeatStatusDriver
}

// VehicleType determines the seat map used for a trip
type VehicleType string

const (
	VehicleTypeBus VehicleType = "BUS"
	VehicleTypeVan VehicleType = "VAN"
)

// NormalizeVehicleType maps raw trip data to a known vehicle type,
// defaulting to BUS for anything unrecognized.
func NormalizeVehicleType(raw string) VehicleType {
	if strings.EqualFold(raw, string(VehicleTypeVan)) {
		return VehicleTypeVan
	}
	return VehicleTypeBus
}

// TotalSeats returns the number of bookable seats for the vehicle type
func (v VehicleType) TotalSeats() int {
	if v == VehicleTypeVan {
		return 15
	}
	return 66
}

// Seat is one position in a trip's selection grid
type Seat struct {
	ID     string     `json:"id"`
	Number int        `json:"number"`
	Status SeatStatus `json:"status"`
}

// DriverSeat returns the fixed driver position rendered at the front of
// every layout. It is never bookable and carries seat number 0.
func DriverSeat() Seat {
	return Seat{ID: "driver", Number: 0, Status: SeatStatusDriver}
}

// NewSeatGrid builds a fresh all-available grid for the vehicle type,
// numbered 1..TotalSeats.
func NewSeatGrid(vehicle VehicleType) []Seat {
	total := vehicle.TotalSeats()
	seats := make([]Seat, 0, total)
	for n := 1; n <= total; n++ {
		seats = append(seats, Seat{
			ID:     fmt.Sprintf("seat-%d", n),
			Number: n,
			Status: SeatStatusAvailable,
		})
	}
	return seats
}

// SeatRow describes one physical row of the layout, split across the
// aisle. Rows without a right side leave Right empty.
type SeatRow struct {
	Left  []int `json:"left"`
	Right []int `json:"right"`
}

// LayoutRows returns the aisle layout for the vehicle type.
//
// Buses seat 3+2 per row with a continuous bench of 6 across the back.
// Vans seat 2 beside the driver, then 3 per row, with 4 across the back.
func (v VehicleType) LayoutRows() []SeatRow {
	if v == VehicleTypeVan {
		return []SeatRow{
			{Left: []int{1, 2}},
			{Left: []int{3, 4, 5}},
			{Left: []int{6, 7, 8}},
			{Left: []int{9, 10, 11}},
			{Left: []int{12, 13, 14, 15}},
		}
	}

	rows := make([]SeatRow, 0, 13)
	for n := 1; n <= 56; n += 5 {
		rows = append(rows, SeatRow{
			Left:  []int{n, n + 1, n + 2},
			Right: []int{n + 3, n + 4},
		})
	}
	rows = append(rows, SeatRow{Left: []int{61, 62, 63, 64, 65, 66}})
	return rows
}

package models

import "time"

// HandoffTripDetails is the denormalized trip snapshot carried to the
// payment stage so it can render without re-joining trip tables.
type HandoffTripDetails struct {
	Departure   time.Time `json:"departure"`
	Destination string    `json:"destination"`
	Company     string    `json:"company"`
}

// HandoffPayload is the short-lived record written by the submission
// orchestrator and read by the payment stage. It lives in the session
// store under a TTL and is not guaranteed durable.
type HandoffPayload struct {
	BookingID     string             `json:"booking_id"`
	BookingCode   string             `json:"booking_code"`
	TripID        string             `json:"trip_id"`
	SelectedSeats SeatSnapshotList   `json:"selected_seats"`
	Passengers    []PassengerDetails `json:"passengers"`
	FarePerSeat   float64            `json:"fare_per_seat"`
	TotalAmount   float64            `json:"total_amount"`
	TripDetails   HandoffTripDetails `json:"trip_details"`
}

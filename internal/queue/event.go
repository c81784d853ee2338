// Package queue publishes domain events to the message broker for
// downstream consumers (notifications, analytics).
package queue

// BookingConfirmedEvent is published when a booking's payment completes
// and its status moves to confirmed. It carries enough denormalized
// trip context for consumers to act without querying the primary
// database.
type BookingConfirmedEvent struct {
	BookingID       string  `json:"booking_id"`
	BookingCode     string  `json:"booking_code"`
	UserID          string  `json:"user_id"`
	TripID          string  `json:"trip_id"`
	Destination     string  `json:"destination"`
	Company         string  `json:"company"`
	DepartureTime   string  `json:"departure_time"`
	SeatNumbers     []int   `json:"seats"`
	TotalPassengers int     `json:"total_passengers"`
	TotalAmount     float64 `json:"total_amount"`
	ConfirmedAt     string  `json:"confirmed_at"`
}

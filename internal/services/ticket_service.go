package services

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/biyahe/booking-backend/internal/models"
	"github.com/phpdave11/gofpdf"
	"github.com/sirupsen/logrus"
)

// ErrBookingNotConfirmed is returned when a ticket is requested for a
// booking that has not been paid yet
var ErrBookingNotConfirmed = errors.New("booking is not confirmed yet")

// TicketService renders printable e-ticket PDFs for confirmed bookings
type TicketService struct {
	bookings   BookingStore
	passengers PassengerStore
	trips      TripGetter
	logger     *logrus.Logger
}

// NewTicketService creates a new ticket service
func NewTicketService(bookings BookingStore, passengers PassengerStore, trips TripGetter, logger *logrus.Logger) *TicketService {
	return &TicketService{
		bookings:   bookings,
		passengers: passengers,
		trips:      trips,
		logger:     logger,
	}
}

// GenerateETicket renders the e-ticket PDF for a confirmed booking the
// caller owns. Returns the PDF bytes and a download filename.
func (s *TicketService) GenerateETicket(bookingID, userID string) ([]byte, string, error) {
	booking, err := s.bookings.GetBookingByID(bookingID)
	if err != nil {
		return nil, "", err
	}
	if booking.UserID != userID {
		return nil, "", ErrNotBookingOwner
	}
	if !booking.IsConfirmed() {
		return nil, "", ErrBookingNotConfirmed
	}

	trip, err := s.trips.GetTripByID(booking.TripID)
	if err != nil {
		return nil, "", err
	}
	passengers, err := s.passengers.ListByBooking(bookingID)
	if err != nil {
		return nil, "", err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":   bookingID,
		"booking_code": booking.BookingCode,
	}).Info("Generating e-ticket")

	return buildETicketPDF(booking, trip, passengers)
}

func buildETicketPDF(booking *models.Booking, trip *models.Trip, passengers []models.PassengerInfo) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking Code : %s", booking.BookingCode),
		fmt.Sprintf("Destination  : %s", trip.DestinationName),
		fmt.Sprintf("Operator     : %s", trip.CompanyName),
		fmt.Sprintf("Departure    : %s", trip.DepartureTime.Format("January 2, 2006 3:04 PM")),
		fmt.Sprintf("Seats        : %s", joinSeatNumbers(booking.SelectedSeats)),
		fmt.Sprintf("Passengers   : %d", booking.TotalPassengers),
		fmt.Sprintf("Total Fare   : PHP %.2f", trip.Fare*float64(booking.TotalPassengers)),
	}
	for _, line := range lines {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Passenger List")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	for _, p := range passengers {
		pdf.Cell(0, 6, fmt.Sprintf("Seat %-4s %s %s  %s", p.SeatNumber, p.FirstName, p.LastName, p.ContactNumber))
		pdf.Ln(6)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Present this ticket with a valid ID when boarding. Issued "+
		time.Now().Format("2006-01-02 15:04")+".", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to render ticket: %w", err)
	}

	filename := fmt.Sprintf("ETICKET_%s.pdf", booking.BookingCode)
	return buf.Bytes(), filename, nil
}

func joinSeatNumbers(seats models.SeatSnapshotList) string {
	parts := make([]string, 0, len(seats))
	for _, n := range seats.Numbers() {
		parts = append(parts, fmt.Sprintf("%d", n))
	}
	return strings.Join(parts, ", ")
}

package models

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/biyahe/booking-backend/pkg/validator"
)

var phoneValidator = validator.NewPhoneValidator()

// FieldErrors maps a field name to the reason it failed validation.
// It implements error so services can bubble it up untouched.
type FieldErrors map[string]string

// Error joins the field messages in a stable order
func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e[f]))
	}
	return strings.Join(parts, "; ")
}

// birthdayLayouts are the accepted input formats for passenger birthdays
var birthdayLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"January 2, 2006",
}

// ParseBirthday parses a passenger birthday in any accepted format
func ParseBirthday(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range birthdayLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized birthday format: %q", raw)
}

// PassengerDetails is the per-seat form captured during selection.
// SeatNumber ties the record to its seat in the grid.
type PassengerDetails struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Birthday    string `json:"birthday"`
	SeatNumber  int    `json:"seat_number"`
}

// Validate checks every field and returns the full set of failures so
// the form can surface them all at once. A nil return means valid.
// Email is optional; everything else is required.
func (p *PassengerDetails) Validate() FieldErrors {
	errs := FieldErrors{}

	if len(strings.TrimSpace(p.FirstName)) < 2 {
		errs["first_name"] = "first name must be at least 2 characters"
	}
	if len(strings.TrimSpace(p.LastName)) < 2 {
		errs["last_name"] = "last name must be at least 2 characters"
	}
	if email := strings.TrimSpace(p.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			errs["email"] = "invalid email address"
		}
	}
	if _, err := phoneValidator.Validate(p.PhoneNumber); err != nil {
		errs["phone_number"] = err.Error()
	}
	if _, err := ParseBirthday(p.Birthday); err != nil {
		errs["birthday"] = "invalid birthday"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// PassengerInfo is the persisted passenger record written at submission.
// SeatNumber is stored as text to match the confirmation payload.
type PassengerInfo struct {
	ID            string    `json:"id" db:"id"`
	BookingID     string    `json:"booking_id" db:"booking_id"`
	FirstName     string    `json:"first_name" db:"first_name"`
	LastName      string    `json:"last_name" db:"last_name"`
	Email         *string   `json:"email,omitempty" db:"email"`
	ContactNumber string    `json:"contact_number" db:"contact_number"`
	Birthday      time.Time `json:"birthday" db:"birthday"`
	SeatNumber    string    `json:"seat_number" db:"seat_number"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

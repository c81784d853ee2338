package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPassenger() PassengerDetails {
	return PassengerDetails{
		FirstName:   "Maria",
		LastName:    "Santos",
		Email:       "maria@example.com",
		PhoneNumber: "09171234567",
		Birthday:    "1995-06-21",
		SeatNumber:  3,
	}
}

func TestPassengerDetails_Validate_OK(t *testing.T) {
	p := validPassenger()
	assert.Nil(t, p.Validate())
}

func TestPassengerDetails_Validate_EmailOptional(t *testing.T) {
	p := validPassenger()
	p.Email = ""
	assert.Nil(t, p.Validate())
}

func TestPassengerDetails_Validate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PassengerDetails)
		field  string
	}{
		{"short first name", func(p *PassengerDetails) { p.FirstName = "A" }, "first_name"},
		{"empty first name", func(p *PassengerDetails) { p.FirstName = "" }, "first_name"},
		{"whitespace last name", func(p *PassengerDetails) { p.LastName = "  " }, "last_name"},
		{"bad email", func(p *PassengerDetails) { p.Email = "not-an-email" }, "email"},
		{"missing phone", func(p *PassengerDetails) { p.PhoneNumber = "" }, "phone_number"},
		{"foreign phone", func(p *PassengerDetails) { p.PhoneNumber = "0771234567" }, "phone_number"},
		{"bad birthday", func(p *PassengerDetails) { p.Birthday = "not a date" }, "birthday"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := validPassenger()
			tc.mutate(&p)

			errs := p.Validate()
			require.NotNil(t, errs)
			assert.Contains(t, errs, tc.field)
		})
	}
}

func TestPassengerDetails_Validate_CollectsAllErrors(t *testing.T) {
	p := PassengerDetails{FirstName: "A", LastName: "B", PhoneNumber: "x", Birthday: "y"}
	errs := p.Validate()
	require.NotNil(t, errs)
	assert.Len(t, errs, 4)
	assert.Contains(t, errs.Error(), "first_name")
}

func TestParseBirthday(t *testing.T) {
	for _, raw := range []string{"1995-06-21", "06/21/1995", "June 21, 1995"} {
		_, err := ParseBirthday(raw)
		assert.NoError(t, err, raw)
	}

	_, err := ParseBirthday("yesterday")
	assert.Error(t, err)
}

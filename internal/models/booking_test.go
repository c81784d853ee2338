package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBookingCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := GenerateBookingCode()
		require.NoError(t, err)
		require.Len(t, code, 3+BookingCodeLength)
		assert.True(t, strings.HasPrefix(code, "BK-"))

		for _, c := range code[3:] {
			assert.Contains(t, bookingCodeCharset, string(c))
		}
		seen[code] = true
	}
	// 200 draws from a 31^6 space should not collide
	assert.Len(t, seen, 200)
}

func TestBooking_Confirm_Monotonic(t *testing.T) {
	b := &Booking{Status: BookingStatusPending}

	require.NoError(t, b.Confirm())
	assert.Equal(t, BookingStatusConfirmed, b.Status)

	// Confirming again is a no-op, never an error
	require.NoError(t, b.Confirm())
	assert.Equal(t, BookingStatusConfirmed, b.Status)
}

func TestSeatSnapshotList_RoundTrip(t *testing.T) {
	list := SeatSnapshotList{
		{Number: 3, Status: SeatStatusSelected},
		{Number: 9, Status: SeatStatusSelected},
	}

	value, err := list.Value()
	require.NoError(t, err)

	var scanned SeatSnapshotList
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, list, scanned)
	assert.Equal(t, []int{3, 9}, scanned.Numbers())
}

func TestSeatSnapshotList_ScanNil(t *testing.T) {
	var scanned SeatSnapshotList
	require.NoError(t, scanned.Scan(nil))
	assert.Nil(t, scanned)
}

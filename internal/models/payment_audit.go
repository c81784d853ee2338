package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JSONMap stores arbitrary structured details as a JSONB column
type JSONMap map[string]interface{}

// Value implements the driver.Valuer interface
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface
func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", src)
	}

	return json.Unmarshal(data, m)
}

// PaymentAudit is one immutable audit row recording a payment-related
// action against a booking. Audit rows are never updated or deleted.
type PaymentAudit struct {
	ID         uuid.UUID `json:"id" db:"id"`
	BookingID  string    `json:"booking_id" db:"booking_id"`
	Action     string    `json:"action" db:"action"`
	IPAddress  string    `json:"ip_address" db:"ip_address"`
	UserAgent  string    `json:"user_agent" db:"user_agent"`
	DeviceInfo JSONMap   `json:"device_info" db:"device_info"`
	Details    JSONMap   `json:"details" db:"details"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Payment audit actions
const (
	AuditPaymentSubmitted   = "payment_submitted"
	AuditPaymentScanIssued  = "payment_scan_issued"
	AuditPaymentScanConfirm = "payment_scan_confirmed"
	AuditBookingConfirmed   = "booking_confirmed"
)

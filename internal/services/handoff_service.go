package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/biyahe/booking-backend/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrHandoffNotFound is returned when no handoff payload exists for a
// booking, either because it was never written or because its TTL lapsed.
var ErrHandoffNotFound = errors.New("handoff payload not found")

// HandoffService stores the short-lived payload carrying booking context
// from submission to the payment stage. Payloads expire on their own;
// the payment stage must tolerate their absence and re-derive what it
// needs from the booking row.
type HandoffService struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewHandoffService creates a new handoff service
func NewHandoffService(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *HandoffService {
	return &HandoffService{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func handoffKey(bookingID string) string {
	return "handoff:" + bookingID
}

// Store writes the handoff payload under its booking ID. A missing
// Redis client downgrades this to a logged no-op.
func (s *HandoffService) Store(ctx context.Context, payload *models.HandoffPayload) error {
	if s.client == nil {
		s.logger.WithField("booking_id", payload.BookingID).
			Warn("Redis unavailable, skipping handoff payload")
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal handoff payload: %w", err)
	}

	if err := s.client.Set(ctx, handoffKey(payload.BookingID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store handoff payload: %w", err)
	}
	return nil
}

// Get retrieves the handoff payload for a booking
func (s *HandoffService) Get(ctx context.Context, bookingID string) (*models.HandoffPayload, error) {
	if s.client == nil {
		return nil, ErrHandoffNotFound
	}

	data, err := s.client.Get(ctx, handoffKey(bookingID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrHandoffNotFound
		}
		return nil, fmt.Errorf("failed to fetch handoff payload: %w", err)
	}

	payload := &models.HandoffPayload{}
	if err := json.Unmarshal(data, payload); err != nil {
		return nil, fmt.Errorf("failed to decode handoff payload: %w", err)
	}
	return payload, nil
}

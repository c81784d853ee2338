package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// SeatHoldService leases seats in Redis while a selection session has
// them picked. A held seat surfaces as processing to every other
// session and the lease expires on its own if the session goes away.
//
// The client may be nil when Redis is unreachable at startup; holds are
// then skipped entirely and availability falls back to booking rows.
type SeatHoldService struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewSeatHoldService creates a new seat hold service
func NewSeatHoldService(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *SeatHoldService {
	return &SeatHoldService{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func seatHoldKey(tripID string, seatNumber int) string {
	return fmt.Sprintf("seathold:%s:%d", tripID, seatNumber)
}

// Acquire tries to lease a seat for a session. Returns false when
// another session already holds the lease.
func (s *SeatHoldService) Acquire(ctx context.Context, tripID string, seatNumber int, sessionID string) (bool, error) {
	if s.client == nil {
		return true, nil
	}

	key := seatHoldKey(tripID, seatNumber)
	ok, err := s.client.SetNX(ctx, key, sessionID, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire seat hold: %w", err)
	}
	if ok {
		return true, nil
	}

	// Re-entrant: the same session refreshing its own hold succeeds
	holder, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return false, nil
	}
	if holder == sessionID {
		s.client.Expire(ctx, key, s.ttl)
		return true, nil
	}
	return false, nil
}

// Release drops a session's lease on a seat. Releasing a seat held by
// someone else, or not held at all, is a no-op.
func (s *SeatHoldService) Release(ctx context.Context, tripID string, seatNumber int, sessionID string) {
	if s.client == nil {
		return
	}

	key := seatHoldKey(tripID, seatNumber)
	holder, err := s.client.Get(ctx, key).Result()
	if err != nil || holder != sessionID {
		return
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"trip_id": tripID,
			"seat":    seatNumber,
		}).Warn("Failed to release seat hold")
	}
}

// Extend refreshes the TTL on every seat a session holds
func (s *SeatHoldService) Extend(ctx context.Context, tripID string, seatNumbers []int, sessionID string) {
	if s.client == nil {
		return
	}

	for _, n := range seatNumbers {
		key := seatHoldKey(tripID, n)
		holder, err := s.client.Get(ctx, key).Result()
		if err != nil || holder != sessionID {
			continue
		}
		s.client.Expire(ctx, key, s.ttl)
	}
}

// HeldSeats returns seat number → holding session for every active
// lease on a trip
func (s *SeatHoldService) HeldSeats(ctx context.Context, tripID string) (map[int]string, error) {
	held := map[int]string{}
	if s.client == nil {
		return held, nil
	}

	prefix := fmt.Sprintf("seathold:%s:", tripID)
	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		n, err := strconv.Atoi(strings.TrimPrefix(key, prefix))
		if err != nil {
			continue
		}
		holder, err := s.client.Get(ctx, key).Result()
		if err != nil {
			continue
		}
		held[n] = holder
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan seat holds: %w", err)
	}
	return held, nil
}

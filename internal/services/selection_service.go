package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/biyahe/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TripGetter provides trip lookups for selection sessions
type TripGetter interface {
	GetTripByID(id string) (*models.Trip, error)
}

// Selection errors surfaced to handlers
var (
	ErrSessionNotFound      = errors.New("selection session not found")
	ErrUnknownSeat          = errors.New("seat number not in this vehicle's layout")
	ErrSeatNotSelected      = errors.New("seat is not selected")
	ErrTripDeparted         = errors.New("trip has already departed")
	ErrSubmissionInProgress = errors.New("a submission is already in progress for this session")
)

// ClickAction describes what a seat click did
type ClickAction string

const (
	ClickSelected   ClickAction = "selected"
	ClickDeselected ClickAction = "deselected"
	ClickEditing    ClickAction = "editing"
	ClickIgnored    ClickAction = "ignored"
)

// ClickResult is the outcome of one seat click
type ClickResult struct {
	Action          ClickAction              `json:"action"`
	Seat            models.Seat              `json:"seat"`
	PassengerNumber int                      `json:"passenger_number,omitempty"`
	Passenger       *models.PassengerDetails `json:"passenger,omitempty"`
}

// SelectionSession owns one booking attempt's in-memory state: the
// resolved seat grid, the pick list in click order, and the per-seat
// passenger records. Nothing outside the session mutates these; every
// operation takes the session lock so click transitions apply one at a
// time in dispatch order.
type SelectionSession struct {
	ID         string
	Trip       *models.Trip
	Seats      []models.Seat
	Selection  []int // seat numbers in selection order
	Passengers map[int]models.PassengerDetails
	CreatedAt  time.Time
	UpdatedAt  time.Time

	prevStatus map[int]models.SeatStatus // status before selection, restored on deselect
	fetchSeq   uint64                    // next availability fetch sequence
	appliedSeq uint64                    // sequence of the fetch currently applied
	submitting bool                      // set once a snapshot is handed to a submit
	mu         sync.Mutex
}

// SelectionView is the JSON snapshot of a session returned to clients
type SelectionView struct {
	ID            string                    `json:"id"`
	TripID        string                    `json:"trip_id"`
	Seats         []models.Seat             `json:"seats"`
	SelectedSeats []int                     `json:"selected_seats"`
	Passengers    []models.PassengerDetails `json:"passengers"`
	ReadyToSubmit bool                      `json:"ready_to_submit"`
}

// view builds a snapshot. Caller must hold the session lock.
func (sess *SelectionSession) view() *SelectionView {
	seats := make([]models.Seat, len(sess.Seats))
	copy(seats, sess.Seats)

	selected := make([]int, len(sess.Selection))
	copy(selected, sess.Selection)

	passengers := make([]models.PassengerDetails, 0, len(sess.Passengers))
	ready := len(sess.Selection) > 0
	for _, n := range sess.Selection {
		p, ok := sess.Passengers[n]
		if !ok {
			ready = false
			continue
		}
		passengers = append(passengers, p)
	}

	return &SelectionView{
		ID:            sess.ID,
		TripID:        sess.Trip.ID,
		Seats:         seats,
		SelectedSeats: selected,
		Passengers:    passengers,
		ReadyToSubmit: ready,
	}
}

// seatIndex returns the grid index for a seat number. Caller must hold
// the session lock.
func (sess *SelectionSession) seatIndex(number int) (int, error) {
	if number < 1 || number > len(sess.Seats) {
		return 0, ErrUnknownSeat
	}
	return number - 1, nil
}

// SelectionService manages the in-memory selection sessions. One
// session corresponds to one booking attempt in one browser tab.
type SelectionService struct {
	trips        TripGetter
	availability *AvailabilityService
	holds        *SeatHoldService
	logger       *logrus.Logger

	mu       sync.RWMutex
	sessions map[string]*SelectionSession
}

// NewSelectionService creates a new selection service
func NewSelectionService(trips TripGetter, availability *AvailabilityService, holds *SeatHoldService, logger *logrus.Logger) *SelectionService {
	return &SelectionService{
		trips:        trips,
		availability: availability,
		holds:        holds,
		logger:       logger,
		sessions:     make(map[string]*SelectionSession),
	}
}

// StartSession resolves the trip's current seat grid and opens a fresh
// selection session on it
func (s *SelectionService) StartSession(ctx context.Context, tripID string) (*SelectionView, error) {
	trip, err := s.trips.GetTripByID(tripID)
	if err != nil {
		return nil, err
	}
	if trip.HasDeparted() {
		return nil, ErrTripDeparted
	}

	grid, err := s.availability.Resolve(trip)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.New().String()
	held, err := s.holds.HeldSeats(ctx, trip.ID)
	if err != nil {
		s.logger.WithError(err).WithField("trip_id", trip.ID).
			Warn("Failed to read seat holds, grid may understate processing seats")
	} else {
		OverlayHolds(grid, held, sessionID)
	}

	sess := &SelectionSession{
		ID:         sessionID,
		Trip:       trip,
		Seats:      grid,
		Selection:  []int{},
		Passengers: make(map[int]models.PassengerDetails),
		prevStatus: make(map[int]models.SeatStatus),
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	s.mu.Lock()
	s.sessions[sessionID] = sess
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"trip_id":    tripID,
	}).Info("Selection session started")

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view(), nil
}

// session looks up a live session
func (s *SelectionService) session(id string) (*SelectionSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// GetSession returns the current snapshot of a session
func (s *SelectionService) GetSession(id string) (*SelectionView, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view(), nil
}

// RefreshAvailability re-resolves the trip's seat grid and merges it
// into the session. Results are sequence-guarded: a fetch dispatched
// earlier never overwrites state applied by a later one, so a slow
// response arriving after newer state changes is discarded.
func (s *SelectionService) RefreshAvailability(ctx context.Context, sessionID string) (*SelectionView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	sess.fetchSeq++
	seq := sess.fetchSeq
	trip := sess.Trip
	sess.mu.Unlock()

	grid, err := s.availability.Resolve(trip)
	if err != nil {
		return nil, err
	}
	held, holdErr := s.holds.HeldSeats(ctx, trip.ID)
	if holdErr != nil {
		s.logger.WithError(holdErr).WithField("trip_id", trip.ID).
			Warn("Failed to read seat holds, grid may understate processing seats")
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if seq <= sess.appliedSeq {
		// A newer fetch already landed; drop this stale result.
		return sess.view(), nil
	}
	sess.appliedSeq = seq

	if holdErr == nil {
		OverlayHolds(grid, held, sess.ID)
	}

	// Re-apply our own selection on top of the fresh grid. A pick that
	// came back booked was lost to another booking: drop it along with
	// its passenger record.
	kept := sess.Selection[:0]
	for _, n := range sess.Selection {
		idx := n - 1
		if idx < 0 || idx >= len(grid) {
			continue
		}
		if grid[idx].Status == models.SeatStatusBooked {
			delete(sess.Passengers, n)
			delete(sess.prevStatus, n)
			s.holds.Release(ctx, trip.ID, n, sess.ID)
			s.logger.WithFields(logrus.Fields{
				"session_id": sess.ID,
				"seat":       n,
			}).Warn("Selected seat was booked elsewhere, dropping from selection")
			continue
		}
		grid[idx].Status = models.SeatStatusSelected
		kept = append(kept, n)
	}
	sess.Selection = kept
	sess.Seats = grid
	sess.UpdatedAt = time.Now()

	return sess.view(), nil
}

// ClickSeat applies one click transition:
//
//	available/pwd      -> selected (capture opens, empty)
//	selected, no data  -> back to its previous status
//	selected, has data -> editing (capture re-opens pre-filled)
//	booked/processing/driver -> ignored
func (s *SelectionService) ClickSeat(ctx context.Context, sessionID string, number int) (*ClickResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if number == 0 {
		// Driver position: rendered, never actionable
		return &ClickResult{Action: ClickIgnored, Seat: models.DriverSeat()}, nil
	}
	idx, err := sess.seatIndex(number)
	if err != nil {
		return nil, err
	}
	seat := &sess.Seats[idx]

	switch {
	case seat.Status.IsLocked():
		return &ClickResult{Action: ClickIgnored, Seat: *seat}, nil

	case seat.Status == models.SeatStatusSelected:
		if p, ok := sess.Passengers[number]; ok {
			prefill := p
			return &ClickResult{Action: ClickEditing, Seat: *seat, Passenger: &prefill}, nil
		}
		s.deselectLocked(ctx, sess, idx)
		return &ClickResult{Action: ClickDeselected, Seat: *seat}, nil

	case seat.Status.IsSelectable():
		ok, err := s.holds.Acquire(ctx, sess.Trip.ID, number, sess.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Another session leased the seat since our last refresh.
			seat.Status = models.SeatStatusProcessing
			return &ClickResult{Action: ClickIgnored, Seat: *seat}, nil
		}

		sess.prevStatus[number] = seat.Status
		seat.Status = models.SeatStatusSelected
		sess.Selection = append(sess.Selection, number)
		sess.UpdatedAt = time.Now()

		return &ClickResult{
			Action:          ClickSelected,
			Seat:            *seat,
			PassengerNumber: len(sess.Selection),
		}, nil

	default:
		return &ClickResult{Action: ClickIgnored, Seat: *seat}, nil
	}
}

// deselectLocked reverts a selected seat and destroys any passenger
// record for it. Caller must hold the session lock.
func (s *SelectionService) deselectLocked(ctx context.Context, sess *SelectionSession, idx int) {
	number := sess.Seats[idx].Number

	prev, ok := sess.prevStatus[number]
	if !ok {
		prev = models.SeatStatusAvailable
	}
	sess.Seats[idx].Status = prev
	delete(sess.prevStatus, number)
	delete(sess.Passengers, number)

	for i, n := range sess.Selection {
		if n == number {
			sess.Selection = append(sess.Selection[:i], sess.Selection[i+1:]...)
			break
		}
	}
	sess.UpdatedAt = time.Now()

	s.holds.Release(ctx, sess.Trip.ID, number, sess.ID)
}

// SavePassenger validates and stores the capture for one selected seat.
// Saving again for the same seat overwrites the prior record in place.
// Validation failures come back as models.FieldErrors and leave the
// seat selected with no record.
func (s *SelectionService) SavePassenger(ctx context.Context, sessionID string, number int, details models.PassengerDetails) (*SelectionView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	idx, err := sess.seatIndex(number)
	if err != nil {
		return nil, err
	}
	if sess.Seats[idx].Status != models.SeatStatusSelected {
		return nil, ErrSeatNotSelected
	}

	details.SeatNumber = number
	if errs := details.Validate(); errs != nil {
		return nil, errs
	}

	sess.Passengers[number] = details
	sess.UpdatedAt = time.Now()

	s.holds.Extend(ctx, sess.Trip.ID, sess.Selection, sess.ID)

	return sess.view(), nil
}

// CancelCapture closes the capture for a seat without saving. A seat
// selected but never captured reverts to its previous status; a seat
// that already has a record keeps it (an abandoned edit changes
// nothing). Cancelling an unselected seat is a no-op, so repeated
// cancels are harmless.
func (s *SelectionService) CancelCapture(ctx context.Context, sessionID string, number int) (*SelectionView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	idx, err := sess.seatIndex(number)
	if err != nil {
		return nil, err
	}

	if sess.Seats[idx].Status == models.SeatStatusSelected {
		if _, captured := sess.Passengers[number]; !captured {
			s.deselectLocked(ctx, sess, idx)
		}
	}
	return sess.view(), nil
}

// SubmissionSnapshot is the frozen selection handed to the booking
// orchestrator
type SubmissionSnapshot struct {
	Trip       *models.Trip
	Seats      models.SeatSnapshotList
	Passengers []models.PassengerDetails
}

// Snapshot freezes the session for submission, enforcing the first two
// submission preconditions: at least one seat selected, and a passenger
// record for every selected seat. A successful snapshot latches the
// session: further snapshots fail with ErrSubmissionInProgress until the
// submit either closes the session or calls AbortSubmission, so two
// concurrent submits of one session cannot both create bookings.
func (s *SelectionService) Snapshot(sessionID string) (*SubmissionSnapshot, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.submitting {
		return nil, ErrSubmissionInProgress
	}
	if len(sess.Selection) == 0 {
		return nil, ErrNoSeatsSelected
	}

	missing := []int{}
	for _, n := range sess.Selection {
		if _, ok := sess.Passengers[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingPassengersError{Seats: missing}
	}

	snapshot := &SubmissionSnapshot{
		Trip:       sess.Trip,
		Seats:      make(models.SeatSnapshotList, 0, len(sess.Selection)),
		Passengers: make([]models.PassengerDetails, 0, len(sess.Selection)),
	}
	for _, n := range sess.Selection {
		snapshot.Seats = append(snapshot.Seats, models.SeatSnapshot{
			Number: n,
			Status: models.SeatStatusSelected,
		})
		snapshot.Passengers = append(snapshot.Passengers, sess.Passengers[n])
	}
	sess.submitting = true
	return snapshot, nil
}

// AbortSubmission releases the latch set by Snapshot so a submission
// that failed downstream of it can be retried.
func (s *SelectionService) AbortSubmission(sessionID string) {
	sess, err := s.session(sessionID)
	if err != nil {
		return
	}

	sess.mu.Lock()
	sess.submitting = false
	sess.mu.Unlock()
}

// CloseSession releases every hold the session has and discards it.
// Called after a successful submission, or when the client abandons the
// flow.
func (s *SelectionService) CloseSession(ctx context.Context, sessionID string) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	for _, n := range sess.Selection {
		s.holds.Release(ctx, sess.Trip.ID, n, sess.ID)
	}
}

// ErrNoSeatsSelected blocks submission with an empty selection
var ErrNoSeatsSelected = errors.New("no seats selected")

// MissingPassengersError blocks submission while selected seats lack
// passenger records
type MissingPassengersError struct {
	Seats []int
}

func (e *MissingPassengersError) Error() string {
	return fmt.Sprintf("passenger details missing for seats %v", e.Seats)
}

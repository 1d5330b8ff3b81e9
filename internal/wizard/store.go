package wizard

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("wizard session not found or expired")

type bookingSession struct {
	flow     *Booking
	lastSeen time.Time
}

type prescriptionSession struct {
	flow     *Prescription
	lastSeen time.Time
}

// Store holds in-progress wizard flows keyed by session ID. Flows are
// pure in-memory state; an expired or evicted session is equivalent to
// the user having pressed Cancel, since nothing is persisted before the
// final step.
//
// A session is bound to the user who started it and driven by that one
// user; the store serializes map access only, not operations on an
// individual flow.
type Store struct {
	mu            sync.Mutex
	bookings      map[uuid.UUID]*bookingSession
	prescriptions map[uuid.UUID]*prescriptionSession

	ttl  time.Duration
	done chan struct{}
}

func NewStore(ttl time.Duration) *Store {
	s := &Store{
		bookings:      make(map[uuid.UUID]*bookingSession),
		prescriptions: make(map[uuid.UUID]*prescriptionSession),
		ttl:           ttl,
		done:          make(chan struct{}),
	}
	go s.sweep()
	return s
}

func (s *Store) Close() {
	close(s.done)
}

func (s *Store) PutBooking(b *Booking) uuid.UUID {
	id := uuid.New()
	s.mu.Lock()
	s.bookings[id] = &bookingSession{flow: b, lastSeen: time.Now()}
	s.mu.Unlock()
	return id
}

// Booking returns the flow for id, provided owner is the user who
// started it. A session held by someone else reads the same as a missing
// one, so the lookup never confirms a foreign session exists.
func (s *Store) Booking(id, owner uuid.UUID) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.bookings[id]
	if !ok || sess.flow.actor.UserID != owner {
		return nil, ErrSessionNotFound
	}
	sess.lastSeen = time.Now()
	return sess.flow, nil
}

func (s *Store) DropBooking(id uuid.UUID) {
	s.mu.Lock()
	delete(s.bookings, id)
	s.mu.Unlock()
}

func (s *Store) PutPrescription(p *Prescription) uuid.UUID {
	id := uuid.New()
	s.mu.Lock()
	s.prescriptions[id] = &prescriptionSession{flow: p, lastSeen: time.Now()}
	s.mu.Unlock()
	return id
}

func (s *Store) Prescription(id, owner uuid.UUID) (*Prescription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.prescriptions[id]
	if !ok || sess.flow.actor.UserID != owner {
		return nil, ErrSessionNotFound
	}
	sess.lastSeen = time.Now()
	return sess.flow, nil
}

func (s *Store) DropPrescription(id uuid.UUID) {
	s.mu.Lock()
	delete(s.prescriptions, id)
	s.mu.Unlock()
}

func (s *Store) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for id, sess := range s.bookings {
				if now.Sub(sess.lastSeen) > s.ttl {
					delete(s.bookings, id)
				}
			}
			for id, sess := range s.prescriptions {
				if now.Sub(sess.lastSeen) > s.ttl {
					delete(s.prescriptions, id)
				}
			}
			s.mu.Unlock()
		}
	}
}

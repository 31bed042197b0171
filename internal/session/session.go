// Package session keeps per-terminal POS state: the cart and the payment
// intent of each session, held in memory.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xenking/pos-backoffice/internal/domain/cart"
	"github.com/xenking/pos-backoffice/internal/domain/payment"
)

// Session is the state of one POS terminal.
type Session struct {
	ID string

	mu       sync.Mutex
	cart     *cart.Cart
	payment  *payment.Tracker
	lastSeen time.Time
}

// Do runs fn with exclusive access to the session's cart and tracker. All
// cart mutations and payment submissions go through Do, so they never
// interleave within a session.
func (s *Session) Do(fn func(c *cart.Cart, p *payment.Tracker) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.cart, s.payment)
}

// Payment returns the session's payment tracker without taking the session
// lock. The tracker guards its own state, so its intent can be read while a
// submission made under Do is still in flight.
func (s *Session) Payment() *payment.Tracker {
	return s.payment
}

// Store holds sessions in memory.
type Store struct {
	processor payment.Processor
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore creates an empty store. New sessions get a payment tracker
// backed by processor.
func NewStore(processor payment.Processor) *Store {
	return &Store{
		processor: processor,
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
}

// Get returns the session with the given id.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if ok {
		s.lastSeen = st.now()
	}
	return s, ok
}

// GetOrCreate returns the session with the given id. When no such session
// exists a new one is created under a freshly minted id; callers can never
// choose the id of a new session.
func (st *Store) GetOrCreate(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.sessions[id]; ok {
		s.lastSeen = st.now()
		return s
	}

	id = uuid.New().String()
	s := &Session{
		ID:       id,
		cart:     cart.New(),
		payment:  payment.NewTracker(st.processor),
		lastSeen: st.now(),
	}
	st.sessions[id] = s
	return s
}

// Delete removes the session, discarding its cart.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep removes sessions not seen for longer than idle and returns how many
// were removed.
func (st *Store) Sweep(idle time.Duration) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	cutoff := st.now().Add(-idle)
	removed := 0
	for id, s := range st.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

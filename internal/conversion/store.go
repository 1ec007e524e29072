package conversion

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/summitcrm/pipeline-api/internal/domain"
)

var ErrSessionNotFound = errors.New("conversion: session not found")

// DefaultSessionTTL is how long an untouched session survives before the
// janitor sweeps it
const DefaultSessionTTL = 2 * time.Hour

type sessionKey struct {
	tenantID   domain.TenantID
	userID     uuid.UUID
	prospectID uuid.UUID
}

// Store holds in-progress conversion sessions keyed by (tenant, user,
// prospect). Two reps converting the same prospect get independent sessions;
// the database-level status check on confirm is what arbitrates the race.
type Store struct {
	mu       sync.Mutex
	sessions map[sessionKey]*Session
	ttl      time.Duration
}

// NewStore creates a session store with the given idle TTL
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Store{
		sessions: make(map[sessionKey]*Session),
		ttl:      ttl,
	}
}

// GetOrCreate returns the live session for (tenant, user, prospect), creating
// one at the form step if none exists. Finished or expired sessions are
// replaced.
func (st *Store) GetOrCreate(tenantID domain.TenantID, userID, prospectID uuid.UUID) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	key := sessionKey{tenantID, userID, prospectID}
	if s, ok := st.sessions[key]; ok && !s.Finished() && !st.expired(s) {
		return s
	}

	s := NewSession(tenantID, userID, prospectID)
	st.sessions[key] = s
	return s
}

// Get returns the live session, or ErrSessionNotFound
func (st *Store) Get(tenantID domain.TenantID, userID, prospectID uuid.UUID) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	key := sessionKey{tenantID, userID, prospectID}
	s, ok := st.sessions[key]
	if !ok || st.expired(s) {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Mutate runs fn against the session under the store lock, serializing
// concurrent requests for the same wizard
func (st *Store) Mutate(tenantID domain.TenantID, userID, prospectID uuid.UUID, fn func(*Session) error) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	key := sessionKey{tenantID, userID, prospectID}
	s, ok := st.sessions[key]
	if !ok || st.expired(s) {
		return nil, ErrSessionNotFound
	}

	if err := fn(s); err != nil {
		return s, err
	}
	return s, nil
}

// Remove drops a session
func (st *Store) Remove(tenantID domain.TenantID, userID, prospectID uuid.UUID) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, sessionKey{tenantID, userID, prospectID})
}

// Sweep removes finished and expired sessions, returning how many were dropped
func (st *Store) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for key, s := range st.sessions {
		if s.Finished() || st.expired(s) {
			delete(st.sessions, key)
			removed++
		}
	}
	return removed
}

func (st *Store) expired(s *Session) bool {
	return time.Since(s.UpdatedAt) > st.ttl
}

package rights

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is a server-held Editor owned by one user. Calls through Do are
// serialised so each edit completes before the next one starts.
type Session struct {
	ID       string
	TenantID string
	UserID   string

	mu      sync.Mutex
	editor  *Editor
	touched time.Time
}

func (s *Session) Do(fn func(*Editor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.editor)
}

type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idle     time.Duration
	now      func() time.Time
}

func NewSessionRegistry(idle time.Duration) *SessionRegistry {
	return &SessionRegistry{
		sessions: map[string]*Session{},
		idle:     idle,
		now:      time.Now,
	}
}

func (r *SessionRegistry) Create(tenantID, userID string) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		UserID:   userID,
		editor:   NewEditor(),
		touched:  r.now(),
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session only to the user that created it.
func (r *SessionRegistry) Get(id, tenantID, userID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.TenantID != tenantID || s.UserID != userID {
		return nil, ErrSessionNotFound
	}
	s.touched = r.now()
	return s, nil
}

func (r *SessionRegistry) Delete(id, tenantID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.TenantID != tenantID || s.UserID != userID {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the registry's idle timeout and
// returns how many were removed.
func (r *SessionRegistry) Sweep(now time.Time) int {
	if r.idle <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if now.Sub(s.touched) > r.idle {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

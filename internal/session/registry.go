package session

import (
	"sync"

	"ringhub/server/internal/dispatch"
)

// Registry is the live session table: the concrete type behind
// handlers.Targets, and the datagram listener's routing table.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers a new session and arranges for it to remove itself on
// Close. Any extra callbacks run after the registry has removed the
// session, so the transport can chain its own cleanup (closing the
// underlying stream, removing the lobby player, forgetting the principal)
// without racing a concurrent Get.
func (r *Registry) Add(s *Session, extra ...func(reason string)) {
	r.mu.Lock()
	r.sessions[s.SessionID()] = s
	r.mu.Unlock()
	s.SetOnClose(func(reason string) {
		r.mu.Lock()
		delete(r.sessions, s.SessionID())
		r.mu.Unlock()
		for _, f := range extra {
			f(reason)
		}
	})
}

// Get implements handlers.Targets.
func (r *Registry) Get(sessionID string) (dispatch.Sender, bool) {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return s, true
}

// Session returns the concrete Session, for callers (the datagram listener)
// that need more than the Sender interface.
func (r *Registry) Session(sessionID string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	return s, ok
}

// Close implements handlers.Targets: it closes the named session if present.
// A caller that only holds a Registry (not a live Session) uses this to
// sever an admin-kicked or banned connection.
func (r *Registry) Close(sessionID, reason string) {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if ok {
		s.Close(reason)
	}
}

// Len reports the number of live sessions, for the ops metrics endpoint.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// All returns a snapshot of every live session, for broadcast and
// shutdown-drain use.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

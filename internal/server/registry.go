// ABOUTME: Registry of registered client sessions
// ABOUTME: Owned by the coordinator loop, so no locking is needed
package server

// Registry holds the sessions that completed their client info exchange.
// All methods must be called in loop context.
type Registry struct {
	sessions []*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends a session unless it is already present.
func (r *Registry) Add(s *Session) {
	for _, have := range r.sessions {
		if have == s {
			return
		}
	}
	r.sessions = append(r.sessions, s)
}

// Remove drops a session. Removing an absent session is a no-op.
func (r *Registry) Remove(s *Session) {
	for i, have := range r.sessions {
		if have == s {
			r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
			return
		}
	}
}

// Contains reports whether s is registered.
func (r *Registry) Contains(s *Session) bool {
	for _, have := range r.sessions {
		if have == s {
			return true
		}
	}
	return false
}

// All returns a snapshot of the registered sessions. The caller may iterate
// and disconnect without invalidating the slice.
func (r *Registry) All() []*Session {
	out := make([]*Session, len(r.sessions))
	copy(out, r.sessions)
	return out
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	return len(r.sessions)
}

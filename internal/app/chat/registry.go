package chat

import "sync"

// SendResult is the outcome of handing one frame to one session.
type SendResult int

const (
	// SendOK means the frame was accepted for delivery.
	SendOK SendResult = iota

	// SendQueueFull means the session's outbound queue had no room; the frame was dropped.
	SendQueueFull

	// SendClosed means the session has already been torn down.
	SendClosed
)

func (r SendResult) String() string {
	switch r {
	case SendOK:
		return "ok"
	case SendQueueFull:
		return "queue_full"
	case SendClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is one live connection handle able to accept outbound frames.
// Implementations must be comparable by identity (pointer types) and Send must not block.
type Session interface {
	Send(frame []byte) SendResult
}

// Registry maps an identity to the set of its live sessions.
// An identity is present only while its set is non-empty. The registry never
// closes a session; that is the job of the session's owner.
type Registry struct {
	// mu serializes mutations; readers copy under the read lock.
	mu sync.RWMutex

	sessions map[string]map[Session]struct{}
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]map[Session]struct{}),
	}
}

// Add inserts s into identity's set. Adding the same pair twice is a no-op.
func (r *Registry) Add(identity string, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sessions[identity]
	if !ok {
		set = make(map[Session]struct{})
		r.sessions[identity] = set
	}
	set[s] = struct{}{}
}

// Remove deletes s from identity's set and drops the identity once the set is empty.
// Removing an unknown identity or session is a no-op.
func (r *Registry) Remove(identity string, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sessions[identity]
	if !ok {
		return
	}

	delete(set, s)
	if len(set) == 0 {
		delete(r.sessions, identity)
	}
}

// SessionsOf returns a point-in-time copy of identity's sessions, in no particular order.
func (r *Registry) SessionsOf(identity string) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.sessions[identity]
	if len(set) == 0 {
		return nil
	}

	out := make([]Session, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	return out
}

// AllIdentities returns a point-in-time copy of the registered identities.
func (r *Registry) AllIdentities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.sessions))
	for identity := range r.sessions {
		out = append(out, identity)
	}
	return out
}

// RegistryStats summarizes the registry at one point in time.
type RegistryStats struct {
	Identities int `json:"identities"`
	Sessions   int `json:"sessions"`
}

// Stats counts identities and sessions under a single read lock.
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RegistryStats{Identities: len(r.sessions)}
	for _, set := range r.sessions {
		stats.Sessions += len(set)
	}
	return stats
}

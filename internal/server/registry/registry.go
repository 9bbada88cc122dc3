// Package registry tracks which identity currently holds a live session.
// At most one session is mapped per identity.
package registry

import (
	"context"
	"sort"
	"sync"
)

// Session is a live duplex connection bound to one identity.
// Send must be safe for concurrent use.
type Session interface {
	ID() string
	Identity() string
	Send(ctx context.Context, v any) error
	Close(code int, reason string) error
}

type Registry interface {
	// Register maps identity to s and returns the session it replaced, if any.
	Register(identity string, s Session) Session
	// Deregister removes identity only while it still maps to s.
	Deregister(identity string, s Session) bool
	Lookup(identity string) (Session, bool)
	// Send pushes payload to identity's session and reports whether the write succeeded.
	Send(ctx context.Context, identity string, payload any) bool
	Len() int
	Identities() []string
}

// Local is an in-process Registry.
type Local struct {
	mu       sync.RWMutex
	sessions map[string]Session
	onFail   func(identity string, err error)
}

var _ Registry = (*Local)(nil)

// NewLocal creates an empty registry. onFail, when not nil, is called for
// every failed Send.
func NewLocal(onFail func(identity string, err error)) *Local {
	return &Local{sessions: make(map[string]Session), onFail: onFail}
}

func (r *Local) Register(identity string, s Session) Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.sessions[identity]
	r.sessions[identity] = s
	if prev == s {
		return nil
	}
	return prev
}

func (r *Local) Deregister(identity string, s Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.sessions[identity]; ok && cur == s {
		delete(r.sessions, identity)
		return true
	}
	return false
}

func (r *Local) Lookup(identity string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[identity]
	return s, ok
}

// Send never holds the lock during the write; a failed write leaves the
// mapping in place.
func (r *Local) Send(ctx context.Context, identity string, payload any) bool {
	s, ok := r.Lookup(identity)
	if !ok {
		return false
	}
	if err := s.Send(ctx, payload); err != nil {
		if r.onFail != nil {
			r.onFail(identity, err)
		}
		return false
	}
	return true
}

func (r *Local) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Local) Identities() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		out = append(out, id)
	}
	r.mu.RUnlock()

	sort.Strings(out)
	return out
}

// CloseAll closes every registered session with code and reason.
// Used on shutdown.
func (r *Local) CloseAll(code int, reason string) {
	r.mu.RLock()
	all := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.mu.RUnlock()

	for _, s := range all {
		_ = s.Close(code, reason)
	}
}

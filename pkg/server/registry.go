package server

import (
	"sort"
	"sync"

	"github.com/NicolasHaas/gorelay/pkg/model"
)

// Registry maps user IDs to their live authenticated sessions. It is the
// single source of truth for presence and is created once at startup.
//
// A session appears in at most one set (the one for its bound user), and
// a user ID key exists iff its set is non-empty. Multiple sessions may
// map to the same user (multi-device).
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]map[*Session]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[int64]map[*Session]struct{}),
	}
}

// Register adds a session to the set for userID. Idempotent if the
// session is already present.
func (r *Registry) Register(userID int64, sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sessions[userID]
	if !ok {
		set = make(map[*Session]struct{})
		r.sessions[userID] = set
	}
	set[sess] = struct{}{}
}

// Unregister removes the session from whatever set it belongs to and
// deletes the user key when the set becomes empty. A no-op for sessions
// that never authenticated.
func (r *Registry) Unregister(sess *Session) {
	u := sess.User()
	if u == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sessions[u.ID]
	if !ok {
		return
	}
	delete(set, sess)
	if len(set) == 0 {
		delete(r.sessions, u.ID)
	}
}

// IsOnline reports whether the user has at least one live session.
func (r *Registry) IsOnline(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions[userID]) > 0
}

// SessionsFor returns a snapshot of the user's live sessions, possibly
// empty. Order is not significant.
func (r *Registry) SessionsFor(userID int64) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.sessions[userID]
	out := make([]*Session, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	return out
}

// OnlineUserIDs returns a snapshot of the user IDs with at least one
// live session.
func (r *Registry) OnlineUserIDs() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

// OnlineUsers returns a snapshot of the distinct online users, one entry
// per user ID regardless of device count, ordered by ID.
func (r *Registry) OnlineUsers() []model.User {
	r.mu.RLock()
	users := make([]model.User, 0, len(r.sessions))
	for _, set := range r.sessions {
		for s := range set {
			if u := s.User(); u != nil {
				users = append(users, *u)
			}
			break
		}
	}
	r.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// SessionCount returns the total number of registered sessions.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, set := range r.sessions {
		n += len(set)
	}
	return n
}

// Drain removes every session and closes its transport. Called once at
// process shutdown; the registry has no reset operation besides this.
func (r *Registry) Drain() {
	r.mu.Lock()
	var all []*Session
	for _, set := range r.sessions {
		for s := range set {
			all = append(all, s)
		}
	}
	r.sessions = make(map[int64]map[*Session]struct{})
	r.mu.Unlock()

	// Close outside the lock; session close paths call back into Unregister.
	for _, s := range all {
		s.CloseAfterFlush()
	}
}

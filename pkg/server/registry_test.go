package server

import (
	"sort"
	"testing"

	"github.com/NicolasHaas/gorelay/pkg/model"
)

func newBoundSession(u *model.User) *Session {
	s := NewSession(nil, "test")
	s.bindUser(u)
	return s
}

func TestRegisterUnregister(t *testing.T) {
	r := NewRegistry()
	u := &model.User{ID: 1, Name: "John"}
	sess := newBoundSession(u)

	if r.IsOnline(1) {
		t.Fatal("IsOnline: expected offline before register")
	}

	r.Register(u.ID, sess)
	if !r.IsOnline(1) {
		t.Fatal("IsOnline: expected online after register")
	}

	// Idempotent re-register
	r.Register(u.ID, sess)
	if got := r.SessionCount(); got != 1 {
		t.Fatalf("SessionCount: want 1 got %d", got)
	}

	r.Unregister(sess)
	if r.IsOnline(1) {
		t.Fatal("IsOnline: expected offline after unregister")
	}
	if got := len(r.OnlineUserIDs()); got != 0 {
		t.Fatalf("OnlineUserIDs: want empty, got %d entries", got)
	}
}

func TestUnregisterUnauthenticatedIsNoop(t *testing.T) {
	r := NewRegistry()
	sess := NewSession(nil, "test")

	r.Unregister(sess)
	r.Unregister(sess) // twice: still a no-op
	if got := r.SessionCount(); got != 0 {
		t.Fatalf("SessionCount: want 0 got %d", got)
	}
}

func TestMultiDeviceSessions(t *testing.T) {
	r := NewRegistry()
	u := &model.User{ID: 7, Name: "Susan"}
	a := newBoundSession(u)
	b := newBoundSession(u)

	r.Register(u.ID, a)
	r.Register(u.ID, b)

	if got := len(r.SessionsFor(7)); got != 2 {
		t.Fatalf("SessionsFor: want 2 sessions got %d", got)
	}

	r.Unregister(a)
	if !r.IsOnline(7) {
		t.Fatal("IsOnline: closing one device must keep the user online")
	}
	sessions := r.SessionsFor(7)
	if len(sessions) != 1 || sessions[0] != b {
		t.Fatalf("SessionsFor: want remaining session %p got %v", b, sessions)
	}

	r.Unregister(b)
	if r.IsOnline(7) {
		t.Fatal("IsOnline: expected offline after last device closed")
	}
}

func TestOnlineUsersDeduplicates(t *testing.T) {
	r := NewRegistry()
	john := &model.User{ID: 1, Name: "John"}
	bob := &model.User{ID: 2, Name: "Bob"}

	r.Register(john.ID, newBoundSession(john))
	r.Register(john.ID, newBoundSession(john))
	r.Register(bob.ID, newBoundSession(bob))

	users := r.OnlineUsers()
	if len(users) != 2 {
		t.Fatalf("OnlineUsers: want 2 entries got %d", len(users))
	}
	if users[0].ID != 1 || users[1].ID != 2 {
		t.Fatalf("OnlineUsers: want IDs [1 2] got [%d %d]", users[0].ID, users[1].ID)
	}

	ids := r.OnlineUserIDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("OnlineUserIDs: want [1 2] got %v", ids)
	}
}

func TestDrainClosesAllSessions(t *testing.T) {
	r := NewRegistry()
	u := &model.User{ID: 3, Name: "Bob"}
	a := newBoundSession(u)
	b := newBoundSession(u)
	r.Register(u.ID, a)
	r.Register(u.ID, b)

	r.Drain()

	if got := r.SessionCount(); got != 0 {
		t.Fatalf("SessionCount after drain: want 0 got %d", got)
	}
	for _, sess := range []*Session{a, b} {
		select {
		case <-sess.closing:
		default:
			t.Fatal("Drain: expected session close to be requested")
		}
	}
}

package server

import (
	"errors"
	"log/slog"

	"github.com/NicolasHaas/gorelay/pkg/model"
	"github.com/NicolasHaas/gorelay/pkg/protocol"
)

// Wire texts for the error envelope, one per failure kind.
const (
	errTextBadJSON         = "invalid json in message"
	errTextBadType         = "bad message type"
	errTextBadUsername     = "unknown username"
	errTextBadMessage      = "invalid message fields"
	errTextUnauthenticated = "authentication required"
	errTextInternal        = "internal error"
)

// dispatch decodes one inbound frame and routes it to the handler for
// its kind. Handlers run synchronously on the session's read goroutine;
// frames from one session are never processed concurrently.
func (s *Server) dispatch(sess *Session, frame []byte) {
	env, err := protocol.Decode(frame)
	if err != nil {
		s.metrics.ProtocolErrors.Add(1)
		switch {
		case errors.Is(err, protocol.ErrMalformedPayload):
			s.sendError(sess, errTextBadJSON)
		case errors.Is(err, protocol.ErrInvalidMessage):
			s.sendError(sess, errTextBadMessage)
		default:
			s.sendError(sess, errTextBadType)
		}
		return
	}

	// Everything except auth requires an authenticated session.
	if _, isAuth := env.(protocol.Auth); !isAuth && !sess.Authenticated() {
		s.metrics.ProtocolErrors.Add(1)
		s.sendError(sess, errTextUnauthenticated)
		return
	}

	switch m := env.(type) {
	case protocol.Auth:
		s.handleAuth(sess, m)
	case protocol.UserListRequest:
		s.handleUserList(sess)
	case protocol.OnlineUserListRequest:
		s.handleOnlineUserList(sess)
	case protocol.ChatSend:
		s.handleChatSend(sess, m)
	}
}

// handleAuth binds the session to the user named in the request. An
// unknown username is fatal: the error reply is flushed and the
// transport closed. A repeated auth on an already-bound session replays
// the confirmation without touching the registry.
func (s *Server) handleAuth(sess *Session, req protocol.Auth) {
	if u := sess.User(); u != nil {
		s.send(sess, protocol.NewConnected(u.ID, u.Name))
		return
	}

	user, err := s.store.GetUserByName(req.Username)
	if err != nil {
		slog.Error("auth lookup failed", "username", req.Username, "err", err)
		s.sendError(sess, errTextInternal)
		return
	}
	if user == nil {
		s.metrics.FailedAuths.Add(1)
		slog.Info("auth rejected", "username", req.Username, "remote", sess.RemoteAddr())
		s.sendError(sess, errTextBadUsername)
		sess.CloseAfterFlush()
		return
	}

	sess.bindUser(user)
	s.registry.Register(user.ID, sess)
	s.metrics.SuccessfulAuths.Add(1)
	slog.Info("session authenticated", "user", user.Name, "id", user.ID, "remote", sess.RemoteAddr())

	s.send(sess, protocol.NewConnected(user.ID, user.Name))
}

// handleUserList replies with every known user annotated with presence.
func (s *Server) handleUserList(sess *Session) {
	users, err := s.store.ListUsers()
	if err != nil {
		slog.Error("user list failed", "err", err)
		s.sendError(sess, errTextInternal)
		return
	}

	entries := make([]protocol.UserEntry, 0, len(users))
	for _, u := range users {
		status := protocol.StatusOffline
		if s.registry.IsOnline(u.ID) {
			status = protocol.StatusOnline
		}
		entries = append(entries, protocol.UserEntry{ID: u.ID, Name: u.Name, Status: status})
	}
	s.send(sess, entries)
}

// handleOnlineUserList replies with the de-duplicated set of users that
// currently have at least one live session.
func (s *Server) handleOnlineUserList(sess *Session) {
	online := s.registry.OnlineUsers()

	entries := make([]protocol.UserEntry, 0, len(online))
	for _, u := range online {
		entries = append(entries, protocol.UserEntry{ID: u.ID, Name: u.Name, Status: protocol.StatusOnline})
	}
	s.send(sess, entries)
}

// handleChatSend persists a directed message, tells the sender whether
// the recipient is online, and fans the message out to every live
// session of the recipient. The append must complete before any reply
// so the status reflects a persisted send; offline recipients get the
// record but no live delivery.
func (s *Server) handleChatSend(sess *Session, m protocol.ChatSend) {
	sender := sess.User()

	msg := &model.Message{
		Text:       m.Text,
		FromUserID: sender.ID,
		ToUserID:   m.To,
		Time:       m.Time,
	}
	if err := s.store.CreateMessage(msg); err != nil {
		slog.Error("message append failed", "from", sender.ID, "to", m.To, "err", err)
		s.sendError(sess, errTextInternal)
		return
	}
	s.metrics.MessagesPersisted.Add(1)

	peers := s.registry.SessionsFor(m.To)
	status := protocol.StatusOffline
	if len(peers) > 0 {
		status = protocol.StatusOnline
	}
	s.send(sess, protocol.NewStatus(m.To, status))

	if len(peers) == 0 {
		return
	}

	frame, err := protocol.Encode(protocol.NewDelivery(m.Text, sender.ID))
	if err != nil {
		slog.Error("encode delivery failed", "err", err)
		return
	}
	for _, peer := range peers {
		if peer.Send(frame) {
			s.metrics.DeliveriesSent.Add(1)
		} else {
			// Recipient transport gone or stalled: treated as if the
			// session were never found, no error back to the sender.
			s.metrics.FramesDropped.Add(1)
		}
	}
	s.metrics.MessagesRelayed.Add(1)
}

// send encodes an outbound envelope and queues it on the session.
func (s *Server) send(sess *Session, v any) {
	frame, err := protocol.Encode(v)
	if err != nil {
		slog.Error("encode failed", "err", err)
		return
	}
	if !sess.Send(frame) {
		s.metrics.FramesDropped.Add(1)
	}
}

func (s *Server) sendError(sess *Session, text string) {
	s.send(sess, protocol.NewError(text))
}

package server

import (
	"bytes"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/NicolasHaas/gorelay/pkg/model"
)

const (
	sendQueueSize = 256
	maxFrameSize  = 64 * 1024

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Session is one live WebSocket connection and the user identity bound
// to it once authenticated. It starts unauthenticated; the user is bound
// exactly once by a successful auth and never changes afterwards.
//
// Inbound frames are handled in arrival order by the session's read
// goroutine. Outbound frames go through a buffered queue serviced by the
// write goroutine, so sending never blocks a handler.
type Session struct {
	conn       *websocket.Conn
	remoteAddr string

	send      chan []byte
	closing   chan struct{}
	closeOnce sync.Once

	mu   sync.RWMutex
	user *model.User
}

// NewSession wraps an upgraded connection in the unauthenticated state.
func NewSession(conn *websocket.Conn, remoteAddr string) *Session {
	return &Session{
		conn:       conn,
		remoteAddr: remoteAddr,
		send:       make(chan []byte, sendQueueSize),
		closing:    make(chan struct{}),
	}
}

// User returns the bound user, or nil while unauthenticated.
func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Authenticated reports whether the session has a bound user.
func (s *Session) Authenticated() bool {
	return s.User() != nil
}

// RemoteAddr returns the client address for logging.
func (s *Session) RemoteAddr() string {
	return s.remoteAddr
}

func (s *Session) bindUser(u *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		s.user = u
	}
}

// Send queues one outbound frame. Non-blocking best-effort: a closing
// session or a full queue drops the frame and returns false.
func (s *Session) Send(frame []byte) bool {
	select {
	case <-s.closing:
		return false
	default:
	}
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

// CloseAfterFlush asks the write pump to drain queued frames, write a
// close frame, and close the transport. Safe to call multiple times and
// from any goroutine.
func (s *Session) CloseAfterFlush() {
	s.closeOnce.Do(func() { close(s.closing) })
}

// readPump reads successive frames and feeds them to the dispatcher.
// It runs in the connection's handler goroutine and owns session
// cleanup: on return the session is unregistered exactly once.
func (s *Session) readPump(srv *Server) {
	defer func() {
		srv.registry.Unregister(s)
		s.CloseAfterFlush()
		srv.metrics.ActiveConnections.Add(-1)
		srv.metrics.TotalDisconnects.Add(1)
		if u := s.User(); u != nil {
			slog.Info("client disconnected", "user", u.Name, "remote", s.remoteAddr)
		} else {
			slog.Debug("unauthenticated client disconnected", "remote", s.remoteAddr)
		}
	}()

	s.conn.SetReadLimit(maxFrameSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				slog.Debug("read error", "remote", s.remoteAddr, "err", err)
			}
			return
		}

		// Console clients send a bare "exit" to quit; echo it back and
		// close so the client's receiver loop can finish.
		if string(bytes.TrimSpace(frame)) == "exit" {
			s.Send([]byte("exit"))
			return
		}

		srv.dispatch(s, frame)
	}
}

// writePump services the send queue, keeps the connection alive with
// pings, and performs the flush-then-close sequence.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case frame := <-s.send:
			if !s.writeFrame(frame) {
				return
			}
		case <-s.closing:
			s.flush()
			return
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// flush drains frames queued before the close signal, then writes a
// close frame. Pending sends are flushed rather than dropped so a fatal
// error reply reaches the client before the socket dies.
func (s *Session) flush() {
	for {
		select {
		case frame := <-s.send:
			if !s.writeFrame(frame) {
				return
			}
		default:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (s *Session) writeFrame(frame []byte) bool {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, frame) == nil
}

// Package protocol defines the wire envelope format for the chat relay.
//
// Each WebSocket text frame carries exactly one JSON envelope. Inbound
// envelopes are discriminated by a "type" field and decoded once into a
// closed set of typed payloads; outbound envelopes are plain structs
// marshalled with a fixed field order.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Envelope type discriminators.
const (
	TypeAuth           = "auth"
	TypeUserList       = "get_user_list"
	TypeOnlineUserList = "get_online_user_list"
	TypeMessage        = "message"
	TypeConnected      = "connected"
	TypeStatus         = "status"
	TypeError          = "error"
)

// Decode failure taxonomy. Handlers map these onto the wire error
// envelopes (bad_json, bad_type, bad_message).
var (
	ErrMalformedPayload = errors.New("protocol: frame is not a JSON object")
	ErrUnknownType      = errors.New("protocol: unknown message type")
	ErrInvalidMessage   = errors.New("protocol: invalid message fields")
)

// Inbound is the closed set of client-to-server envelopes.
type Inbound interface {
	inbound()
}

// Auth requests authentication of the session by username.
type Auth struct {
	Username string
}

// UserListRequest asks for every known user annotated with presence.
type UserListRequest struct{}

// OnlineUserListRequest asks for the users that currently have at least
// one live session.
type OnlineUserListRequest struct{}

// ChatSend is a directed text message. To is the recipient's user ID;
// Time is the client-supplied send time.
type ChatSend struct {
	Text string
	To   int64
	Time int64
}

func (Auth) inbound()                  {}
func (UserListRequest) inbound()       {}
func (OnlineUserListRequest) inbound() {}
func (ChatSend) inbound()              {}

// Decode parses one inbound frame into its typed payload.
//
// Returns ErrMalformedPayload when the frame is not a JSON object,
// ErrUnknownType when the type field is missing or unrecognized, and
// ErrInvalidMessage when a "message" envelope fails field validation.
func Decode(frame []byte) (Inbound, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(frame, &fields); err != nil {
		return nil, ErrMalformedPayload
	}

	rawType, ok := fields["type"]
	if !ok {
		return nil, ErrUnknownType
	}
	var msgType string
	if err := json.Unmarshal(rawType, &msgType); err != nil {
		return nil, ErrUnknownType
	}

	switch msgType {
	case TypeAuth:
		var p struct {
			Username string `json:"username"`
		}
		if err := json.Unmarshal(frame, &p); err != nil {
			return nil, ErrMalformedPayload
		}
		return Auth{Username: p.Username}, nil

	case TypeUserList:
		return UserListRequest{}, nil

	case TypeOnlineUserList:
		return OnlineUserListRequest{}, nil

	case TypeMessage:
		return decodeChatSend(frame)

	default:
		return nil, ErrUnknownType
	}
}

func decodeChatSend(frame []byte) (Inbound, error) {
	var p struct {
		Message string          `json:"message"`
		To      json.RawMessage `json:"to"`
		Time    json.Number     `json:"time"`
	}
	if err := json.Unmarshal(frame, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if strings.TrimSpace(p.Message) == "" {
		return nil, fmt.Errorf("%w: empty message", ErrInvalidMessage)
	}
	to, err := parseUserID(p.To)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	t, err := p.Time.Int64()
	if err != nil || t == 0 {
		return nil, fmt.Errorf("%w: missing or invalid time", ErrInvalidMessage)
	}
	return ChatSend{Text: p.Message, To: to, Time: t}, nil
}

// parseUserID accepts an integer-like recipient: a JSON number or a
// string holding a decimal integer.
func parseUserID(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, errors.New("missing recipient")
	}
	s := string(raw)
	if s[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, errors.New("unparseable recipient")
		}
	}
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("unparseable recipient")
	}
	return id, nil
}

// UserStatus annotates a user with presence.
type UserStatus string

const (
	StatusOnline  UserStatus = "online"
	StatusOffline UserStatus = "offline"
)

// ---- Outbound envelopes ----

// Connected confirms a successful authentication to the sender.
type Connected struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UserEntry is one element of a user-list reply. A user-list reply is a
// bare JSON array of entries, in directory order.
type UserEntry struct {
	ID     int64      `json:"id"`
	Name   string     `json:"name"`
	Status UserStatus `json:"status"`
}

// Delivery carries a relayed message to the recipient's sessions.
type Delivery struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	From    int64  `json:"from"`
}

// Status tells the sender whether the recipient was online at send time.
type Status struct {
	Type   string     `json:"type"`
	ID     int64      `json:"id"`
	Status UserStatus `json:"status"`
}

// ErrorReply notifies the sender of a failed operation.
type ErrorReply struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewConnected builds a connected envelope.
func NewConnected(id int64, name string) Connected {
	return Connected{Type: TypeConnected, ID: id, Name: name}
}

// NewDelivery builds a relayed-message envelope.
func NewDelivery(text string, from int64) Delivery {
	return Delivery{Type: TypeMessage, Message: text, From: from}
}

// NewStatus builds a recipient-presence envelope.
func NewStatus(id int64, status UserStatus) Status {
	return Status{Type: TypeStatus, ID: id, Status: status}
}

// NewError builds an error envelope.
func NewError(message string) ErrorReply {
	return ErrorReply{Type: TypeError, Message: message}
}

// Encode serializes one outbound envelope to a frame.
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal: %w", err)
	}
	return data, nil
}

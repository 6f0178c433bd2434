package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const MessageMaxTextLength = 1024

var ErrMessageTextEmpty = errors.New("message text cannot be empty")
var ErrMessageTextTooLong = fmt.Errorf("message text exceeds %d characters", MessageMaxTextLength)
var ErrMessageNoSender = errors.New("message sender is not set")
var ErrMessageNoRecipient = errors.New("message recipient is not set")
var ErrMessageNoTime = errors.New("message time is not set")

// Message is one directed chat message as recorded in the message log.
// Time is the client-supplied send time; CreatedAt is when the record
// was persisted.
type Message struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	FromUserID int64     `json:"from_user_id"`
	ToUserID   int64     `json:"to_user_id"`
	Time       int64     `json:"time"`
	CreatedAt  time.Time `json:"created_at"`
}

func (m *Message) Validate() error {
	if strings.TrimSpace(m.Text) == "" {
		return ErrMessageTextEmpty
	}
	if utf8.RuneCountInString(m.Text) > MessageMaxTextLength {
		return ErrMessageTextTooLong
	}
	if m.FromUserID == 0 {
		return ErrMessageNoSender
	}
	if m.ToUserID == 0 {
		return ErrMessageNoRecipient
	}
	if m.Time == 0 {
		return ErrMessageNoTime
	}
	return nil
}

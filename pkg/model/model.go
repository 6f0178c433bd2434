// Package model defines the core domain types for GoRelay.
package model

import "time"

// User represents a registered user. Identity is owned by the user
// directory; the relay reads it but never creates or destroys it at
// runtime.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

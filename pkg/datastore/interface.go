package datastore

import (
	"github.com/NicolasHaas/gorelay/pkg/model"
)

// DataStore defines the persistence interface for all GoRelay entities.
// Implementations include the default SQLite store and an in-memory store
// for tests; any other backend can be plugged in behind the same
// interfaces.
//
// The relay core only depends on the narrow provider interfaces below:
// UserReadProvider is the user directory and MessageWriteProvider is the
// message log. There is deliberately no message read path.
type DataStore interface {
	UserReadProvider
	UserWriteProvider
	MessageWriteProvider

	Close() error
}

// UserReadProvider is the user directory: lookup by id or name, full
// listing. Lookups return (nil, nil) when no user matches.
type UserReadProvider interface {
	GetUserByID(id int64) (*model.User, error)
	GetUserByName(name string) (*model.User, error)
	ListUsers() ([]model.User, error)
}

type UserWriteProvider interface {
	CreateUser(name string) (*model.User, error)
}

// MessageWriteProvider is the append-only message log.
type MessageWriteProvider interface {
	CreateMessage(message *model.Message) error
}

// Compile-time checks: both stores implement DataStore.
var _ DataStore = (*SQLStore)(nil)
var _ DataStore = (*MemoryStore)(nil)

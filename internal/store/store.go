package store

import (
	"context"
	"time"
)

// User represents a registered user.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Message represents a persisted direct message. At least one of Text and
// FileKey is non-empty. Messages are never mutated or deleted.
type Message struct {
	ID         int64
	SenderID   int64
	ReceiverID int64
	Text       string
	FileKey    string
	CreatedAt  time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// ListUsers lists all users ordered by username.
	ListUsers(ctx context.Context) ([]*User, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message and fills in its ID and CreatedAt.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListConversation retrieves every message exchanged between the two
	// users, in either direction, ordered by creation time ascending.
	ListConversation(ctx context.Context, userA, userB int64) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a single chat message between two usernames. The ID is
// assigned once at creation and never changes.
type Message struct {
	ID                string    `json:"id"`
	SenderUsername    string    `json:"senderUsername"`
	RecipientUsername string    `json:"recipientUsername"`
	Content           string    `json:"content"`
	Timestamp         time.Time `json:"timestamp"`
}

// NewMessage builds a fully-formed message. A zero timestamp defaults to
// the current time. Timestamps are always stored in UTC.
func NewMessage(sender, recipient, content string, ts time.Time) *Message {
	if ts.IsZero() {
		ts = time.Now()
	}
	return &Message{
		ID:                uuid.NewString(),
		SenderUsername:    sender,
		RecipientUsername: recipient,
		Content:           content,
		Timestamp:         ts.UTC(),
	}
}

// Registration is a pending signup request awaiting administrative
// approval. Username and email are unique at the store layer.
type Registration struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Confirmed bool   `json:"confirmed"`
}

// NewRegistration builds an unconfirmed registration with a fresh ID.
func NewRegistration(username, email string) *Registration {
	return &Registration{
		ID:       uuid.NewString(),
		Username: username,
		Email:    email,
	}
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	// DefaultStorageQuota is the storage quota in bytes granted to
	// accounts provisioned from a confirmed registration.
	DefaultStorageQuota int64 = 100_000_000
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	StorageQuota int64     `json:"storage_quota"`
	CreatedAt    time.Time `json:"created_at"`
}

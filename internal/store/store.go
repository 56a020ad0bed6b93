package store

import (
	"errors"
	"time"

	"github.com/rvail/docchat/internal/models"
)

var (
	// ErrNotFound is returned by lookups when no record matches.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a write violates a uniqueness
	// constraint (duplicate username or email).
	ErrConflict = errors.New("record already exists")

	// ErrAlreadyConfirmed is returned when confirming a registration
	// that has already been confirmed. The confirmed flag only moves
	// false to true, and at most one account is ever provisioned.
	ErrAlreadyConfirmed = errors.New("registration already confirmed")
)

type Store interface {
	// Message operations
	CreateMessage(sender, recipient, content string, ts time.Time) (*models.Message, error)
	SaveMessage(msg *models.Message) error
	GetMessageByID(id string) (*models.Message, error)
	FindConversation(userA, userB string, ascending bool) ([]models.Message, error)
	UpdateMessage(msg *models.Message) error
	DeleteMessage(id string) error

	// Registration operations
	CreateRegistration(username, email string) (*models.Registration, error)
	GetRegistrationByID(id string) (*models.Registration, error)
	ListRegistrations() ([]models.Registration, error)
	ConfirmRegistration(id, passwordHash string) (*models.Registration, *models.User, error)
	UpdateRegistration(reg *models.Registration) error
	DeleteRegistration(id string) error

	// User operations
	CreateUser(user *models.User) error
	GetUserByUsername(username string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
}

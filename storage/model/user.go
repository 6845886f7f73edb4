package model

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the owner of forms and API keys
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`

	// Email is stored lower-cased and is unique
	Email string  `gorm:"uniqueIndex;size:254;not null" json:"email"`
	Name  *string `gorm:"size:100" json:"name"`
	Plan  Plan    `gorm:"not null;default:0" json:"plan"`
}

// BeforeCreate assigns a new id
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// UsersStore abstracts registration and lookup of users
type UsersStore interface {
	// Register creates the user together with its first API key in a single
	// transaction. If the email is already taken an AlreadyExistsError is
	// returned and nothing is written.
	Register(ctx context.Context, user *User, key *APIKey) error
	// ByEmail returns a user by email
	ByEmail(ctx context.Context, email string) (*User, error)
	// SetPlan changes the plan of the user with the given email
	SetPlan(ctx context.Context, email string, plan Plan) (*User, error)
}

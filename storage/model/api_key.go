package model

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// APIKey is a hashed API credential. A key is active while RevokedAt is nil;
// revocation is terminal and keys are never deleted.
type APIKey struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	UserID     string     `gorm:"index;size:36;not null" json:"-"`
	User       *User      `gorm:"foreignKey:UserID" json:"-"`
	KeyHash    string     `gorm:"uniqueIndex;size:64;not null" json:"-"`
	KeyPrefix  string     `gorm:"size:16;not null" json:"key_prefix"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	RevokedAt  *time.Time `gorm:"index" json:"revoked_at"`
}

// BeforeCreate assigns a new id
func (k *APIKey) BeforeCreate(*gorm.DB) error {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	return nil
}

// Active reports whether the key has not been revoked
func (k APIKey) Active() bool {
	return k.RevokedAt == nil
}

// APIKeysStore abstracts the persistence of API keys
type APIKeysStore interface {
	// Create stores a new active key
	Create(ctx context.Context, key *APIKey) error
	// FindActiveByHash returns the active key with the given hash together
	// with its User
	FindActiveByHash(ctx context.Context, hash string) (*APIKey, error)
	// Touch sets the last-used timestamp of a key
	Touch(ctx context.Context, id string, at time.Time) error
	// List returns all keys of a user, newest first
	List(ctx context.Context, userID string) ([]APIKey, error)
	// Revoke revokes a key owned by userID. Revoking an already revoked key
	// returns it unchanged. If the key is the last active key of the user a
	// ConflictError is returned. The check and the write are atomic with
	// respect to concurrent revocations for the same user.
	Revoke(ctx context.Context, userID, id string, at time.Time) (*APIKey, error)
}

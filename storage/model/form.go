package model

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/formgate/formgate/internal/schema"
)

// Form is a public submission endpoint owned by a User
type Form struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	UserID      string         `gorm:"index;size:36;not null" json:"-"`
	Name        string         `gorm:"size:120;not null" json:"name"`
	NotifyEmail string         `gorm:"size:254;not null" json:"notify_email"`
	Schema      schema.RuleSet `gorm:"serializer:json;type:text" json:"schema"`
	IsActive    bool           `gorm:"index;not null" json:"is_active"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// BeforeCreate assigns a new id
func (f *Form) BeforeCreate(*gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// FormUpdate holds the changes for a form; nil fields are left untouched and
// a non-nil Schema replaces the stored rule set
type FormUpdate struct {
	Name        *string
	NotifyEmail *string
	Schema      *schema.RuleSet
	IsActive    *bool
}

// FormsStore abstracts the persistence of forms. All owner paths are scoped
// to the owning user.
type FormsStore interface {
	Create(ctx context.Context, form *Form) error
	// List returns the forms of a user, newest first
	List(ctx context.Context, userID string) ([]Form, error)
	// GetActive returns a form that accepts submissions; missing and inactive
	// forms are both reported as NotFoundError
	GetActive(ctx context.Context, id string) (*Form, error)
	Update(ctx context.Context, userID, id string, update FormUpdate) (*Form, error)
}

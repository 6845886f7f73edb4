package model

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Submission is a stored intake request; it is written once and never
// changed
type Submission struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	FormID     string         `gorm:"index;size:36;not null" json:"form_id"`
	IP         string         `gorm:"size:64" json:"-"`
	UserAgent  *string        `gorm:"type:text" json:"-"`
	Payload    datatypes.JSON `json:"payload"`
	IsSpam     bool           `gorm:"index" json:"is_spam"`
	SpamReason *string        `gorm:"size:64" json:"spam_reason"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns a new id
func (s *Submission) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Page selects a slice of a listing
type Page struct {
	Limit  int
	Offset int
}

// SubmissionsStore abstracts the persistence of submissions
type SubmissionsStore interface {
	Create(ctx context.Context, submission *Submission) error
	// List returns the submissions of a form owned by userID, newest first,
	// and the total number of submissions of that form. A form not owned by
	// userID yields a NotFoundError.
	List(ctx context.Context, userID, formID string, page Page) ([]Submission, int64, error)
}

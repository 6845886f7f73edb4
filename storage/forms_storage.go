package storage

import (
	"context"

	"gorm.io/gorm"

	"github.com/formgate/formgate/storage/model"
)

// FormsStorage implements model.FormsStore using GORM
type FormsStorage struct {
	db *gorm.DB
}

// Create stores a new form
func (s *FormsStorage) Create(ctx context.Context, form *model.Form) error {
	return s.db.WithContext(ctx).Create(form).Error
}

// List returns the forms of a user, newest first
func (s *FormsStorage) List(ctx context.Context, userID string) ([]model.Form, error) {
	var forms []model.Form
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&forms).Error
	return forms, err
}

// GetActive returns an active form by id
func (s *FormsStorage) GetActive(ctx context.Context, id string) (*model.Form, error) {
	var f model.Form
	if err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).Take(&f).Error; err != nil {
		return nil, notFound(err, "form not found: %s", id)
	}
	return &f, nil
}

// Update applies the non-nil fields of update to a form owned by userID
func (s *FormsStorage) Update(ctx context.Context, userID, id string, update model.FormUpdate) (*model.Form, error) {
	var f model.Form
	err := s.db.WithContext(ctx).Transaction(
		func(tx *gorm.DB) error {
			if err := tx.Where("id = ? AND user_id = ?", id, userID).Take(&f).Error; err != nil {
				return notFound(err, "form not found: %s", id)
			}
			if update.Name != nil {
				f.Name = *update.Name
			}
			if update.NotifyEmail != nil {
				f.NotifyEmail = *update.NotifyEmail
			}
			if update.Schema != nil {
				f.Schema = *update.Schema
			}
			if update.IsActive != nil {
				f.IsActive = *update.IsActive
			}
			return tx.Save(&f).Error
		},
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

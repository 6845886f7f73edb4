package storage

import (
	"context"

	"gorm.io/gorm"

	"github.com/formgate/formgate/storage/model"
)

// SubmissionsStorage implements model.SubmissionsStore using GORM
type SubmissionsStorage struct {
	db *gorm.DB
}

// Create stores a submission
func (s *SubmissionsStorage) Create(ctx context.Context, submission *model.Submission) error {
	return s.db.WithContext(ctx).Create(submission).Error
}

// List returns a page of the submissions of a form owned by userID and the
// total count
func (s *SubmissionsStorage) List(
	ctx context.Context, userID, formID string, page model.Page,
) ([]model.Submission, int64, error) {
	db := s.db.WithContext(ctx)
	var owned int64
	if err := db.Model(&model.Form{}).Where("id = ? AND user_id = ?", formID, userID).Count(&owned).Error; err != nil {
		return nil, 0, err
	}
	if owned == 0 {
		return nil, 0, model.NotFoundErrorFmt("form not found: %s", formID)
	}
	var total int64
	if err := db.Model(&model.Submission{}).Where("form_id = ?", formID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	subs := make([]model.Submission, 0)
	err := db.Where("form_id = ?", formID).
		Order("created_at DESC").Order("id DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&subs).Error
	if err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

package storage

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/formgate/formgate/storage/model"
)

// UsersStorage implements model.UsersStore using GORM
type UsersStorage struct {
	db *gorm.DB
}

// Register creates the user and its first API key in one transaction
func (s *UsersStorage) Register(ctx context.Context, user *model.User, key *model.APIKey) error {
	err := s.db.WithContext(ctx).Transaction(
		func(tx *gorm.DB) error {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(user)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return model.AlreadyExistsErrorFmt("user already exists: %s", user.Email)
			}
			key.UserID = user.ID
			return tx.Create(key).Error
		},
	)
	if err != nil {
		user.ID = ""
		key.ID = ""
		key.UserID = ""
	}
	return err
}

// ByEmail returns a user by email
func (s *UsersStorage) ByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&u).Error; err != nil {
		return nil, notFound(err, "user not found: %s", email)
	}
	return &u, nil
}

// SetPlan changes the plan of a user
func (s *UsersStorage) SetPlan(ctx context.Context, email string, plan model.Plan) (*model.User, error) {
	if !plan.Valid() {
		return nil, errors.Errorf("invalid plan: %d", plan)
	}
	res := s.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).Update("plan", plan)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, model.NotFoundErrorFmt("user not found: %s", email)
	}
	return s.ByEmail(ctx, email)
}

// notFound maps gorm.ErrRecordNotFound to a model.NotFoundError and passes
// any other error through
func notFound(err error, format string, params ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.NotFoundErrorFmt(format, params...)
	}
	return err
}

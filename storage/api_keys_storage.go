package storage

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/formgate/formgate/storage/model"
)

// APIKeysStorage implements model.APIKeysStore using GORM
type APIKeysStorage struct {
	db *gorm.DB
}

// Create stores a new key
func (s *APIKeysStorage) Create(ctx context.Context, key *model.APIKey) error {
	return s.db.WithContext(ctx).Omit("User").Create(key).Error
}

// FindActiveByHash returns the active key with the given hash and its user
func (s *APIKeysStorage) FindActiveByHash(ctx context.Context, hash string) (*model.APIKey, error) {
	var k model.APIKey
	err := s.db.WithContext(ctx).
		Joins("User").
		Where("api_keys.key_hash = ? AND api_keys.revoked_at IS NULL", hash).
		Take(&k).Error
	if err != nil {
		return nil, notFound(err, "api key not found")
	}
	return &k, nil
}

// Touch sets the last-used timestamp of a key
func (s *APIKeysStorage) Touch(ctx context.Context, id string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&model.APIKey{}).Where("id = ?", id).Update("last_used_at", at).Error
}

// List returns all keys of a user, newest first
func (s *APIKeysStorage) List(ctx context.Context, userID string) ([]model.APIKey, error) {
	var keys []model.APIKey
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&keys).Error
	return keys, err
}

// revokeGuarded revokes a key only while its owner keeps at least one other
// active key. The inner derived table lets MySQL read the table it updates.
const revokeGuarded = `UPDATE api_keys SET revoked_at = ?
WHERE id = ? AND user_id = ? AND revoked_at IS NULL
AND (SELECT COUNT(*) FROM (SELECT id FROM api_keys WHERE user_id = ? AND revoked_at IS NULL) AS active_keys) > 1`

// Revoke revokes a key owned by userID unless it is the last active one
func (s *APIKeysStorage) Revoke(ctx context.Context, userID, id string, at time.Time) (*model.APIKey, error) {
	var k model.APIKey
	err := s.db.WithContext(ctx).Transaction(
		func(tx *gorm.DB) error {
			// serializes revocations of the same user
			var owner model.User
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Select("id").Where("id = ?", userID).Take(&owner).Error; err != nil {
				return notFound(err, "api key not found: %s", id)
			}
			if err := tx.Where("id = ? AND user_id = ?", id, userID).Take(&k).Error; err != nil {
				return notFound(err, "api key not found: %s", id)
			}
			if !k.Active() {
				return nil
			}
			res := tx.Exec(revokeGuarded, at, id, userID, userID)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return model.ConflictError("cannot revoke the only active api key")
			}
			return tx.Where("id = ?", id).Take(&k).Error
		},
	)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/formgate/formgate/storage/model"
)

// Storage is a GORM-based storage implementation
type Storage struct {
	db *gorm.DB
}

var models = []any{
	&model.User{},
	&model.APIKey{},
	&model.Form{},
	&model.Submission{},
}

// NewStorage creates a new GORM-based storage
func NewStorage(config Config) (*Storage, error) {
	db, err := Connect(config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto migrate the schemas
	if err = db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// Backends returns all sub-storages grouped
func (s *Storage) Backends() model.Backends {
	return model.Backends{
		Users:       s.UsersStorage(),
		APIKeys:     s.APIKeysStorage(),
		Forms:       s.FormsStorage(),
		Submissions: s.SubmissionsStorage(),
	}
}

// UsersStorage returns a UsersStorage
func (s *Storage) UsersStorage() *UsersStorage {
	return &UsersStorage{db: s.db}
}

// APIKeysStorage returns an APIKeysStorage
func (s *Storage) APIKeysStorage() *APIKeysStorage {
	return &APIKeysStorage{db: s.db}
}

// FormsStorage returns a FormsStorage
func (s *Storage) FormsStorage() *FormsStorage {
	return &FormsStorage{db: s.db}
}

// SubmissionsStorage returns a SubmissionsStorage
func (s *Storage) SubmissionsStorage() *SubmissionsStorage {
	return &SubmissionsStorage{db: s.db}
}

// Ping checks that the database answers queries
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.WithContext(ctx).Exec("SELECT 1").Error
}

// Close closes the underlying database connections
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

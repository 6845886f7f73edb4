package credential

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/formgate/formgate/internal/apperr"
	"github.com/formgate/formgate/storage/model"
)

// Client-facing messages
const (
	MsgMissingKey      = "Missing API key."
	MsgInvalidKey      = "Invalid API key."
	MsgPaymentRequired = "Payment required."
	MsgKeyNotFound     = "API key not found."
	MsgLastActiveKey   = "Cannot revoke your only active API key. Create another key first."
	MsgUserExists      = "User already exists. Please rotate/create a key via dashboard flow."
	MsgInvalidEmail    = "Invalid email."
)

// Identity is the result of a successful authentication
type Identity struct {
	User  model.User
	KeyID string
}

// KeyInfo is an API key as shown to its owner
type KeyInfo struct {
	model.APIKey
	IsCurrent bool `json:"is_current"`
}

// Manager implements the API key lifecycle on top of the user and key stores
type Manager struct {
	users model.UsersStore
	keys  model.APIKeysStore
	now   func() time.Time
}

// NewManager creates a new Manager
func NewManager(users model.UsersStore, keys model.APIKeysStore) *Manager {
	return &Manager{
		users: users,
		keys:  keys,
		now:   time.Now,
	}
}

// NormalizeEmail checks that s is a bare email address and returns it trimmed
// and lower-cased. An invalid address yields "" and false.
func NormalizeEmail(s string) (string, bool) {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return "", false
	}
	return strings.ToLower(s), true
}

// Register creates a user with its first API key. The returned string is the
// raw key.
func (m *Manager) Register(ctx context.Context, email string, name *string) (*model.User, string, error) {
	email, ok := NormalizeEmail(email)
	if !ok {
		return nil, "", apperr.InvalidField("email", MsgInvalidEmail)
	}
	secret, err := Generate()
	if err != nil {
		return nil, "", err
	}
	user := &model.User{
		Email: email,
		Name:  name,
	}
	key := &model.APIKey{
		KeyHash:   secret.Hash,
		KeyPrefix: secret.Prefix,
	}
	if err = m.users.Register(ctx, user, key); err != nil {
		var exists model.AlreadyExistsError
		if errors.As(err, &exists) {
			return nil, "", apperr.Conflict(MsgUserExists)
		}
		return nil, "", errors.WithStack(err)
	}
	log.WithFields(log.Fields{"user_id": user.ID, "key_id": key.ID}).Info("user.registered")
	return user, secret.Raw, nil
}

// Issue creates an additional API key for a user. The returned string is the
// raw key.
func (m *Manager) Issue(ctx context.Context, userID string) (*model.APIKey, string, error) {
	secret, err := Generate()
	if err != nil {
		return nil, "", err
	}
	key := &model.APIKey{
		UserID:    userID,
		KeyHash:   secret.Hash,
		KeyPrefix: secret.Prefix,
	}
	if err = m.keys.Create(ctx, key); err != nil {
		return nil, "", errors.WithStack(err)
	}
	log.WithFields(log.Fields{"user_id": userID, "key_id": key.ID}).Info("key.issued")
	return key, secret.Raw, nil
}

// Authenticate resolves a raw API key to its user
func (m *Manager) Authenticate(ctx context.Context, raw string) (*Identity, error) {
	if raw == "" {
		return nil, apperr.Unauthenticated(MsgMissingKey)
	}
	key, err := m.keys.FindActiveByHash(ctx, Hash(raw))
	if err != nil {
		var nf model.NotFoundError
		if errors.As(err, &nf) {
			return nil, apperr.Unauthenticated(MsgInvalidKey)
		}
		return nil, errors.WithStack(err)
	}
	if key.User == nil {
		return nil, errors.Errorf("api key %s has no user", key.ID)
	}
	if key.User.Plan.Blocked() {
		return nil, apperr.Unauthorized(MsgPaymentRequired)
	}
	if err = m.keys.Touch(ctx, key.ID, m.now()); err != nil {
		log.WithError(err).WithField("key_id", key.ID).Warn("key.touch_failed")
	}
	return &Identity{
		User:  *key.User,
		KeyID: key.ID,
	}, nil
}

// Revoke revokes one of the user's keys. Revoking an already revoked key
// returns it unchanged; the last active key of a user cannot be revoked.
func (m *Manager) Revoke(ctx context.Context, userID, keyID string) (*model.APIKey, error) {
	key, err := m.keys.Revoke(ctx, userID, keyID, m.now())
	if err != nil {
		var nf model.NotFoundError
		var conflict model.ConflictError
		switch {
		case errors.As(err, &nf):
			return nil, apperr.NotFound(MsgKeyNotFound)
		case errors.As(err, &conflict):
			return nil, apperr.Conflict(MsgLastActiveKey)
		}
		return nil, errors.WithStack(err)
	}
	log.WithFields(log.Fields{"user_id": userID, "key_id": keyID}).Info("key.revoked")
	return key, nil
}

// List returns all keys of a user, newest first, marking the key with id
// currentKeyID
func (m *Manager) List(ctx context.Context, userID, currentKeyID string) ([]KeyInfo, error) {
	keys, err := m.keys.List(ctx, userID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	infos := make([]KeyInfo, len(keys))
	for i, k := range keys {
		infos[i] = KeyInfo{
			APIKey:    k,
			IsCurrent: k.ID == currentKeyID,
		}
	}
	return infos, nil
}

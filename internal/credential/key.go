// Package credential issues, authenticates and revokes API keys.
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

const (
	// Marker starts every raw API key
	Marker = "fgk_live_"
	// PrefixLength is the number of leading characters of a raw key that are
	// stored in clear to let owners tell their keys apart
	PrefixLength = 16

	secretBytes = 24
)

// Secret is a freshly generated API key. Raw is only ever returned to the
// caller once; only Hash and Prefix are stored.
type Secret struct {
	Raw    string
	Hash   string
	Prefix string
}

// Generate creates a new random API key
func Generate() (Secret, error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return Secret{}, errors.Wrap(err, "could not generate api key")
	}
	raw := Marker + hex.EncodeToString(b)
	return Secret{
		Raw:    raw,
		Hash:   Hash(raw),
		Prefix: raw[:PrefixLength],
	}, nil
}

// Hash returns the lookup hash of a raw key
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Extract returns the raw API key. A present X-API-Key header is
// authoritative, even if it is blank; only without it is a bearer
// Authorization header value used.
func Extract(apiKeyHeader string, hasAPIKeyHeader bool, authorizationHeader string) string {
	if hasAPIKeyHeader {
		return strings.TrimSpace(apiKeyHeader)
	}
	auth := strings.TrimSpace(authorizationHeader)
	const scheme = "bearer "
	if len(auth) > len(scheme) && strings.EqualFold(auth[:len(scheme)], scheme) {
		return strings.TrimSpace(auth[len(scheme):])
	}
	return ""
}

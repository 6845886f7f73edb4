// Package ratelimit bounds the number of accepted requests per key within a
// sliding time window.
package ratelimit

import (
	"context"
	"time"
)

// Defaults used when no window or ceiling is configured
const (
	DefaultWindow = time.Minute
	DefaultMax    = 20
)

// Result is the outcome of a single Allow call
type Result struct {
	Allowed bool
	Limit   int
	// Remaining is the number of requests still allowed in the current window
	Remaining int
	// Reset is the time until the oldest counted request leaves the window
	Reset time.Duration
}

// Limiter records and checks requests for a key. Allow must perform the
// check and the recording atomically, so that concurrent callers can never
// exceed the limit together. Rejected requests are not recorded.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Key returns the composite limiter key for a client address and a form
func Key(clientIP, formID string) string {
	if formID == "" {
		formID = "unknown"
	}
	return clientIP + ":" + formID
}

// Conf configures a limiter
type Conf struct {
	Window time.Duration
	Max    int
}

func (c Conf) withDefaults() Conf {
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.Max <= 0 {
		c.Max = DefaultMax
	}
	return c
}

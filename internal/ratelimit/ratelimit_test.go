package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 2, 23, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newRedisLimiter(t *testing.T, conf Conf, clock *fakeClock) *RedisLimiter {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, conf).WithClock(clock.Now)
}

func limiters(t *testing.T, conf Conf, clock *fakeClock) map[string]Limiter {
	return map[string]Limiter{
		"memory": NewMemory(conf).WithClock(clock.Now),
		"redis":  newRedisLimiter(t, conf, clock),
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "10.0.0.1:form-1", Key("10.0.0.1", "form-1"))
	assert.Equal(t, "10.0.0.1:unknown", Key("10.0.0.1", ""))
}

func TestTwentyThenRejected(t *testing.T) {
	clock := newFakeClock()
	for name, l := range limiters(t, Conf{Window: time.Minute, Max: 20}, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 20; i++ {
				res, err := l.Allow(ctx, "1.2.3.4:form")
				require.NoError(t, err)
				require.True(t, res.Allowed, "request %d", i+1)
				assert.Equal(t, 20-i-1, res.Remaining)
			}
			res, err := l.Allow(ctx, "1.2.3.4:form")
			require.NoError(t, err)
			assert.False(t, res.Allowed)
			assert.Equal(t, 0, res.Remaining)
			assert.Equal(t, 20, res.Limit)
			assert.Equal(t, time.Minute, res.Reset)

			// other form and other client are independent
			res, err = l.Allow(ctx, "1.2.3.4:other")
			require.NoError(t, err)
			assert.True(t, res.Allowed)
			res, err = l.Allow(ctx, "5.6.7.8:form")
			require.NoError(t, err)
			assert.True(t, res.Allowed)
		})
	}
}

func TestWindowSlides(t *testing.T) {
	clock := newFakeClock()
	for name, l := range limiters(t, Conf{Window: 10 * time.Second, Max: 2}, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := name + ":k"
			allow := func() bool {
				res, err := l.Allow(ctx, key)
				require.NoError(t, err)
				return res.Allowed
			}
			assert.True(t, allow())
			clock.Advance(4 * time.Second)
			assert.True(t, allow())
			assert.False(t, allow())

			// first hit leaves the window, second one is still inside
			clock.Advance(6 * time.Second)
			assert.True(t, allow())
			assert.False(t, allow())

			clock.Advance(10 * time.Second)
			assert.True(t, allow())
		})
	}
}

func TestRejectedRequestsAreNotCounted(t *testing.T) {
	clock := newFakeClock()
	for name, l := range limiters(t, Conf{Window: time.Second, Max: 1}, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			res, _ := l.Allow(ctx, "k")
			assert.True(t, res.Allowed)
			for i := 0; i < 5; i++ {
				clock.Advance(100 * time.Millisecond)
				res, _ = l.Allow(ctx, "k")
				assert.False(t, res.Allowed)
			}
			clock.Advance(600 * time.Millisecond)
			res, _ = l.Allow(ctx, "k")
			assert.True(t, res.Allowed)
		})
	}
}

func TestConcurrentCallersNeverExceedLimit(t *testing.T) {
	clock := newFakeClock()
	for name, l := range limiters(t, Conf{Window: time.Minute, Max: 20}, clock) {
		t.Run(name, func(t *testing.T) {
			var allowed atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					res, err := l.Allow(context.Background(), "shared")
					if err == nil && res.Allowed {
						allowed.Add(1)
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, int32(20), allowed.Load())
		})
	}
}

func TestDefaults(t *testing.T) {
	c := Conf{}.withDefaults()
	assert.Equal(t, DefaultWindow, c.Window)
	assert.Equal(t, DefaultMax, c.Max)
}

func TestRedisLimiterFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	l := NewRedis(client, Conf{})
	mr.Close()
	_, err := l.Allow(context.Background(), "k")
	assert.Error(t, err)
}

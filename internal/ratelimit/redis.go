package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces limiter keys in a shared redis
const DefaultKeyPrefix = "formgate:ratelimit:"

// slidingWindow keeps one sorted-set member per accepted request, scored by
// its timestamp in microseconds. Expired members are removed, the remaining
// ones are counted and a new member is only added if the count is below the
// limit; all in one atomic script execution. Timestamps are passed in as
// strings and never formatted by lua, which would round them.
var slidingWindow = redis.NewScript(
	`
local key = KEYS[1]
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', ARGV[2])
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
	redis.call('ZADD', key, ARGV[1], ARGV[4])
	count = count + 1
	allowed = 1
end
redis.call('PEXPIRE', key, ARGV[5])
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local oldestScore = tonumber(ARGV[1])
if oldest[2] then
	oldestScore = tonumber(oldest[2])
end
return {allowed, count, oldestScore}
`,
)

// RedisLimiter is a sliding-window limiter backed by redis, shared by all
// instances that use the same redis.
type RedisLimiter struct {
	client redis.UniversalClient
	conf   Conf
	prefix string
	now    func() time.Time
}

// NewRedis creates a new RedisLimiter
func NewRedis(client redis.UniversalClient, conf Conf) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		conf:   conf.withDefaults(),
		prefix: DefaultKeyPrefix,
		now:    time.Now,
	}
}

// WithClock replaces the time source, for tests
func (l *RedisLimiter) WithClock(now func() time.Time) *RedisLimiter {
	l.now = now
	return l
}

// Allow implements the Limiter interface
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := l.now()
	res, err := slidingWindow.Run(
		ctx, l.client, []string{l.prefix + key},
		strconv.FormatInt(now.UnixMicro(), 10),
		strconv.FormatInt(now.Add(-l.conf.Window).UnixMicro(), 10),
		l.conf.Max, uuid.NewString(), l.conf.Window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Result{}, errors.Wrap(err, "ratelimit: redis script failed")
	}
	if len(res) != 3 {
		return Result{}, errors.Errorf("ratelimit: unexpected script result %v", res)
	}
	oldest := time.UnixMicro(res[2])
	return Result{
		Allowed:   res[0] == 1,
		Limit:     l.conf.Max,
		Remaining: l.conf.Max - int(res[1]),
		Reset:     oldest.Add(l.conf.Window).Sub(now),
	}, nil
}

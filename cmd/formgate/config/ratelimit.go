package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/duration"

	"github.com/formgate/formgate/internal/ratelimit"
)

// rateLimitConf configures the submission rate limiter. Without a redis
// address an in-process limiter is used, which is only correct for a single
// instance.
type rateLimitConf struct {
	Window    duration.DurationOption `yaml:"window"`
	Max       int                     `yaml:"max"`
	RedisAddr string                  `yaml:"redis_addr"`
	Username  string                  `yaml:"username"`
	Password  string                  `yaml:"password"`
	RedisDB   int                     `yaml:"redis_db"`
}

func (c *rateLimitConf) validate() error {
	if c.Window.Duration() < 0 {
		return errors.New("window must not be negative")
	}
	if c.Max < 0 {
		return errors.New("max must not be negative")
	}
	return nil
}

func (c rateLimitConf) conf() ratelimit.Conf {
	return ratelimit.Conf{
		Window: c.Window.Duration(),
		Max:    c.Max,
	}
}

// NewLimiter returns the configured ratelimit.Limiter
func (c rateLimitConf) NewLimiter() ratelimit.Limiter {
	if c.RedisAddr == "" {
		log.Info("Using in-memory rate limiter")
		return ratelimit.NewMemory(c.conf())
	}
	client := redis.NewClient(
		&redis.Options{
			Addr:     c.RedisAddr,
			Username: c.Username,
			Password: c.Password,
			DB:       c.RedisDB,
		},
	)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).WithField("addr", c.RedisAddr).Warn("ratelimit.redis_unreachable")
	} else {
		log.WithField("addr", c.RedisAddr).Info("Using redis rate limiter")
	}
	return ratelimit.NewRedis(client, c.conf())
}

var defaultRateLimitConf = rateLimitConf{
	Window: duration.DurationOption(ratelimit.DefaultWindow),
	Max:    ratelimit.DefaultMax,
}

package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds password throttle tuning parameters.
type Config struct {
	EnableIPThrottle    bool
	MaxPasswordAttempts int
	PasswordCooldown    time.Duration
}

// Limiter budgets failed password-grant attempts per client+username and, optionally,
// per client IP using Redis fixed-window counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a Redis-backed [Limiter].
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckPassword reports ErrRateLimited once the key or IP exhausted its budget.
func (l *Limiter) CheckPassword(ctx context.Context, key, ip string) error {
	if err := l.checkCounter(ctx, passwordKey(key)); err != nil {
		return err
	}
	if l.config.EnableIPThrottle && ip != "" {
		if err := l.checkCounter(ctx, passwordIPKey(ip)); err != nil {
			return err
		}
	}
	return nil
}

// RecordPasswordFailure counts one failed attempt against the key and IP.
func (l *Limiter) RecordPasswordFailure(ctx context.Context, key, ip string) error {
	count, err := l.incrementWithTTL(ctx, passwordKey(key), l.config.PasswordCooldown)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxPasswordAttempts) {
		return ErrRateLimited
	}

	if l.config.EnableIPThrottle && ip != "" {
		count, err = l.incrementWithTTL(ctx, passwordIPKey(ip), l.config.PasswordCooldown)
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxPasswordAttempts) {
			return ErrRateLimited
		}
	}
	return nil
}

// ResetPassword clears the key counter after a successful grant. The IP counter is
// left to expire so one good account cannot unlock a sprayed address.
func (l *Limiter) ResetPassword(ctx context.Context, key, _ string) error {
	if err := l.redis.Del(ctx, passwordKey(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// PasswordAttempts returns the current failure counter for key.
func (l *Limiter) PasswordAttempts(ctx context.Context, key string) (int, error) {
	count, err := l.redis.Get(ctx, passwordKey(key)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count >= int64(l.config.MaxPasswordAttempts) {
		return ErrRateLimited
	}
	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed window: TTL is set on the first hit only.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return count, nil
}

func passwordKey(key string) string { return "gp:" + key }

func passwordIPKey(ip string) string { return "gpi:" + ip }

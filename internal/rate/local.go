package rate

import (
	"context"
	"sync"
	"time"

	xrate "golang.org/x/time/rate"
)

// Local is an in-process password throttle for deployments without Redis. Each key
// holds a token bucket of MaxPasswordAttempts that refills fully over PasswordCooldown;
// a failed attempt takes one token and an empty bucket blocks the key.
type Local struct {
	config Config
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*xrate.Limiter
}

// NewLocal creates an in-process [Local] throttle.
func NewLocal(cfg Config) *Local {
	return &Local{
		config:  cfg,
		now:     time.Now,
		buckets: make(map[string]*xrate.Limiter),
	}
}

func (l *Local) CheckPassword(_ context.Context, key, ip string) error {
	now := l.now()
	if l.exhausted(passwordKey(key), now) {
		return ErrRateLimited
	}
	if l.config.EnableIPThrottle && ip != "" && l.exhausted(passwordIPKey(ip), now) {
		return ErrRateLimited
	}
	return nil
}

func (l *Local) RecordPasswordFailure(_ context.Context, key, ip string) error {
	now := l.now()
	ok := l.bucket(passwordKey(key)).AllowN(now, 1)
	if l.config.EnableIPThrottle && ip != "" {
		ok = l.bucket(passwordIPKey(ip)).AllowN(now, 1) && ok
	}
	if !ok {
		return ErrRateLimited
	}
	return nil
}

func (l *Local) ResetPassword(_ context.Context, key, _ string) error {
	l.mu.Lock()
	delete(l.buckets, passwordKey(key))
	l.mu.Unlock()
	return nil
}

// exhausted reports whether key has no attempts left. A bucket that has refilled
// completely is dropped.
func (l *Local) exhausted(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		return false
	}
	tokens := b.TokensAt(now)
	if tokens >= float64(b.Burst()) {
		delete(l.buckets, key)
		return false
	}
	return tokens < 1
}

func (l *Local) bucket(key string) *xrate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		burst := l.config.MaxPasswordAttempts
		if burst < 1 {
			burst = 1
		}
		refill := xrate.Every(l.config.PasswordCooldown / time.Duration(burst))
		b = xrate.NewLimiter(refill, burst)
		l.buckets[key] = b
	}
	return b
}

package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(rdb, cfg), mr, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func TestLimiterBlocksAfterBudget(t *testing.T) {
	l, mr, done := newRedisLimiter(t, Config{MaxPasswordAttempts: 3, PasswordCooldown: time.Minute})
	defer done()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.CheckPassword(ctx, "c1:alice", ""); err != nil {
			t.Fatalf("attempt %d unexpectedly blocked: %v", i, err)
		}
		if err := l.RecordPasswordFailure(ctx, "c1:alice", ""); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	if err := l.CheckPassword(ctx, "c1:alice", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if err := l.CheckPassword(ctx, "c1:bob", ""); err != nil {
		t.Fatalf("other key must not be blocked: %v", err)
	}

	mr.FastForward(time.Minute + time.Second)
	if err := l.CheckPassword(ctx, "c1:alice", ""); err != nil {
		t.Fatalf("window should have expired: %v", err)
	}
}

func TestLimiterResetClearsKey(t *testing.T) {
	l, _, done := newRedisLimiter(t, Config{MaxPasswordAttempts: 2, PasswordCooldown: time.Minute})
	defer done()
	ctx := context.Background()

	_ = l.RecordPasswordFailure(ctx, "k", "")
	if n, err := l.PasswordAttempts(ctx, "k"); err != nil || n != 1 {
		t.Fatalf("expected 1 attempt, got %d %v", n, err)
	}
	if err := l.ResetPassword(ctx, "k", ""); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n, _ := l.PasswordAttempts(ctx, "k"); n != 0 {
		t.Fatalf("expected 0 attempts after reset, got %d", n)
	}
}

func TestLimiterIPThrottle(t *testing.T) {
	l, _, done := newRedisLimiter(t, Config{EnableIPThrottle: true, MaxPasswordAttempts: 2, PasswordCooldown: time.Minute})
	defer done()
	ctx := context.Background()

	_ = l.RecordPasswordFailure(ctx, "c1:a", "10.0.0.1")
	_ = l.RecordPasswordFailure(ctx, "c1:b", "10.0.0.1")

	if err := l.CheckPassword(ctx, "c1:c", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected IP block, got %v", err)
	}
	if err := l.CheckPassword(ctx, "c1:c", "10.0.0.2"); err != nil {
		t.Fatalf("other IP must pass: %v", err)
	}
}

func TestLocalThrottle(t *testing.T) {
	l := NewLocal(Config{MaxPasswordAttempts: 2, PasswordCooldown: time.Minute})
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	_ = l.RecordPasswordFailure(ctx, "k", "")
	if err := l.CheckPassword(ctx, "k", ""); err != nil {
		t.Fatalf("one failure must not block: %v", err)
	}
	_ = l.RecordPasswordFailure(ctx, "k", "")
	if err := l.CheckPassword(ctx, "k", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected block, got %v", err)
	}

	now = now.Add(time.Minute)
	if err := l.CheckPassword(ctx, "k", ""); err != nil {
		t.Fatalf("bucket should have refilled: %v", err)
	}

	_ = l.RecordPasswordFailure(ctx, "k", "")
	_ = l.RecordPasswordFailure(ctx, "k", "")
	if err := l.ResetPassword(ctx, "k", ""); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := l.CheckPassword(ctx, "k", ""); err != nil {
		t.Fatalf("reset must unblock: %v", err)
	}
}

func TestLocalDropsRefilledBuckets(t *testing.T) {
	l := NewLocal(Config{MaxPasswordAttempts: 3, PasswordCooldown: time.Minute, EnableIPThrottle: true})
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	_ = l.RecordPasswordFailure(ctx, "k", "10.0.0.1")
	if got := len(l.buckets); got != 2 {
		t.Fatalf("expected key and ip buckets, got %d", got)
	}

	if err := l.CheckPassword(ctx, "k", "10.0.0.1"); err != nil {
		t.Fatalf("one failure must not block: %v", err)
	}
	if got := len(l.buckets); got != 2 {
		t.Fatalf("partly drained buckets must be kept, got %d", got)
	}

	now = now.Add(time.Minute)
	if err := l.CheckPassword(ctx, "k", "10.0.0.1"); err != nil {
		t.Fatalf("refilled key must pass: %v", err)
	}
	if got := len(l.buckets); got != 0 {
		t.Fatalf("expected refilled buckets dropped, got %d", got)
	}
}

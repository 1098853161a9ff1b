package rate

import "errors"

var (
	// ErrRateLimited is returned once a throttle key has no attempts left.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis transport failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)

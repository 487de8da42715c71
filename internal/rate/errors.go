package rate

import "errors"

var (
	// ErrRateLimited is returned when an identifier has no attempts left.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)

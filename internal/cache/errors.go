package cache

import "errors"

var (
	// ErrCacheMiss is returned when a key is absent or has expired.
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrCacheUnavailable wraps backend failures (connection refused, timeouts).
	ErrCacheUnavailable = errors.New("cache: backend unavailable")

	// ErrInvalidValue indicates a stored value could not be decoded.
	ErrInvalidValue = errors.New("cache: invalid value")
)

package ratelimiter

import "errors"

var (
	// ErrInvalidConfig indicates that the bucket configuration is unusable.
	ErrInvalidConfig = errors.New("invalid rate limit configuration")

	// ErrInvalidTokenCount indicates a non-positive token request.
	ErrInvalidTokenCount = errors.New("invalid token count")
)

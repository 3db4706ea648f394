package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrCacheMiss indicates the key is absent from, or expired in, a cache tier
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidMode indicates an unknown query mode was specified
	ErrInvalidMode = errors.New("invalid query mode")
)

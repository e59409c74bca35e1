package domain

import "errors"

var (
	// ErrUnsupportedMode is returned when a request names a mode other than eco or trust
	ErrUnsupportedMode = errors.New("unsupported analysis mode")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in the store
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when the store cannot be reached
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrCapabilityUnavailable is returned when a model capability cannot be used
	ErrCapabilityUnavailable = errors.New("capability unavailable")

	// ErrModelFailure is returned when a model endpoint request fails
	ErrModelFailure = errors.New("model request failed")

	// ErrSessionClosed is returned when a destroyed session is used
	ErrSessionClosed = errors.New("session already destroyed")

	// ErrMalformedModelOutput is returned when the model reply holds no usable JSON
	ErrMalformedModelOutput = errors.New("malformed model output")

	// ErrUnsupportedSite is returned when a page is not from a supported store
	ErrUnsupportedSite = errors.New("unsupported shopping site")
)

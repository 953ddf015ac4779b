package utils

import (
	"errors"
)

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	ErrUserNotFound     = errors.New("user_not_found")
	ErrPhoneMissing     = errors.New("phone_missing")
	ErrNotRegistered    = errors.New("not_registered")
	ErrProfileImmutable = errors.New("profile_immutable")

	// For rate limiting
	ErrRateLimitExceeded = errors.New("rate_limit_exceeded")

	// For external service failures (Twilio, SendGrid, Telegram)
	ErrExternalServiceFailure = errors.New("external_service_failure")

	// Permanent delivery failures that must not be retried
	// (e.g., invalid destination).
	ErrPermanentDeliveryFailure = errors.New("permanent_delivery_failure")

	// Storage failures are fatal for the current request; no partial
	// state mutation may be committed.
	ErrStoreUnavailable = errors.New("store_unavailable")
)

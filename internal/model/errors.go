package model

import "errors"

var (
	// ErrStoreUnavailable indicates a network or timeout failure against a
	// backing store. Retryable.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrBadRecord indicates a stored record that could not be decoded.
	// Such records are dropped and logged, never surfaced to callers.
	ErrBadRecord = errors.New("malformed conversation record")

	// ErrSubscriptionLost indicates the expiry notification channel dropped.
	// The reconciler resubscribes on this error.
	ErrSubscriptionLost = errors.New("expiry subscription lost")

	// ErrCapacityInvariant indicates the eviction pass could not restore the
	// user-count bound. Logged defensively; should never occur.
	ErrCapacityInvariant = errors.New("capacity invariant violated")
)

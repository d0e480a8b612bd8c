package ledger

import "errors"

var (
	// ErrInsufficientPoints is the expected business failure: the user's
	// durable balance is below the redemption threshold. Nothing is appended.
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrRedemptionConflict is returned when a redemption keeps losing to
	// concurrent redemptions after retrying. The caller may try again.
	ErrRedemptionConflict = errors.New("redemption conflict")

	// ErrStorageUnavailable wraps durable-write failures. The log is never
	// left partially written; the failed transaction simply does not exist.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

package model

import "github.com/Laisky/errors/v2"

// Sentinel errors returned by the database actor's domain operations.
// Callers compare against these with errors.Is rather than matching
// strings.
var (
	// ErrSamePlatform is returned by Give when a linked transfer's source
	// and destination resolve to the same platform.
	ErrSamePlatform = errors.New("source and destination are the same platform")
	// ErrInvalidPlatform is returned when an operation names a platform it
	// has no column/table mapping for.
	ErrInvalidPlatform = errors.New("invalid platform for this operation")
	// ErrAmountBelowMin is returned by Give when the resolved transfer
	// amount (after resolving "all") is smaller than the rule's configured
	// minimum.
	ErrAmountBelowMin = errors.New("amount is below the configured minimum")
	// ErrInvalidCode is returned by Link when the supplied OTP code does not
	// match a pending link request.
	ErrInvalidCode = errors.New("invalid link code")
	// ErrCodeExpired is returned by Link when the OTP code matched but its
	// expiry window has passed.
	ErrCodeExpired = errors.New("link code expired")
	// ErrDeduct is returned when a Give transaction fails to deduct points
	// from the source balance (insufficient funds or source not found).
	ErrDeduct = errors.New("failed to deduct points from source")
	// ErrDeposit is returned when a Give transaction fails to deposit
	// points into the destination balance (destination not found).
	ErrDeposit = errors.New("failed to deposit points into destination")
)

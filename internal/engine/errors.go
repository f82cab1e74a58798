package engine

import (
	"errors"
	"fmt"
)

// The build pipeline classifies failures into four caller-visible groups
// plus one internal one:
//
//   - invalid input: rejected before any network call
//   - state unavailable: the venue read failed; the request degrades to the
//     graduated route instead of failing
//   - venue unavailable: graduated token with no locatable liquidity
//   - upstream failure: the aggregator returned an error or garbage
//   - invariant violation: a caller bug inside this process
var (
	ErrInvalidInput = errors.New("invalid input")

	ErrInvalidMint      = fmt.Errorf("%w: malformed mint address", ErrInvalidInput)
	ErrInvalidBuyer     = fmt.Errorf("%w: malformed buyer address", ErrInvalidInput)
	ErrInvalidAmount    = fmt.Errorf("%w: amount must be a positive lamport value", ErrInvalidInput)
	ErrSelfReferral     = fmt.Errorf("%w: referrer equals buyer", ErrInvalidInput)
	ErrPlatformReferral = fmt.Errorf("%w: referrer is the platform wallet", ErrInvalidInput)
	ErrReferrerOffCurve = fmt.Errorf("%w: referrer is not a valid ed25519 public key", ErrInvalidInput)

	ErrVenueUnavailable = errors.New("no liquidity venue found for token")

	ErrUpstreamFailure = errors.New("swap aggregator request failed")
)

// InvariantError marks a programming error: an internal precondition such
// as building a curve buy without reserve data. It is never caused by user
// input and must surface loudly.
type InvariantError struct {
	Err error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("internal invariant violated: %v", e.Err)
}

func (e *InvariantError) Unwrap() error {
	return e.Err
}

// IsInvalidInput reports whether err should map to a client-side (4xx)
// failure.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

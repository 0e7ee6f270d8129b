package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrInvalidPackage      = errors.New("invalid package")
	ErrGenerationLocked    = errors.New("generation is locked")
	ErrJobNotFinished      = errors.New("job not finished")
	ErrUpstreamFailed      = errors.New("upstream job failed")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrPaymentIntegrity    = errors.New("payment integrity violation")
	ErrDuplicateOperation  = errors.New("duplicate operation")
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// InsufficientCreditsError carries the amounts behind a failed balance check
// so callers can route the user to a top-up flow.
type InsufficientCreditsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: need %d, have %d", e.Required, e.Available)
}

func (e *InsufficientCreditsError) Is(target error) bool {
	return target == ErrInsufficientCredits
}

package quota

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidAmount is returned when a charge is not a positive integer.
	ErrInvalidAmount = errors.New("usage amount must be a positive integer")

	// ErrResetUnavailable is returned by the development-only operations when
	// the gate runs outside development mode.
	ErrResetUnavailable = errors.New("quota reset is only available in development")

	// ErrQuotaExceeded matches every *QuotaExceededError.
	ErrQuotaExceeded = errors.New("token limit exceeded")
)

// QuotaExceededError carries the counter state that caused a denial so the
// HTTP layer can echo it back.
type QuotaExceededError struct {
	Limit   int64
	Used    int64
	ResetAt time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("token limit exceeded: used %d of %d", e.Used, e.Limit)
}

// Is lets errors.Is(err, ErrQuotaExceeded) match.
func (e *QuotaExceededError) Is(target error) bool { return target == ErrQuotaExceeded }

package verifier

import (
	"fmt"
	"time"
)

// DefaultTolerance is the accepted request age in seconds
const DefaultTolerance = 150

// CheckTimestamp fails when declared is more than tolerance seconds older than now.
// Timestamps in the future always pass.
func CheckTimestamp(declared, now time.Time, tolerance int) error {
	diff := now.Unix() - declared.Unix()
	if diff > int64(tolerance) {
		return fmt.Errorf("%w: request is %ds old, tolerance %ds", ErrInvalidTimestamp, diff, tolerance)
	}
	return nil
}

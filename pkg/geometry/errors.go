package geometry

import (
	"fmt"
	"math"
)

// ValidationError reports a geometric value that failed construction-time validation.
type ValidationError struct {
	Callee   string
	Property string
	Value    any
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s - expected property %s (%v) to be %s", e.Callee, e.Property, e.Value, e.Reason)
}

// IsValidNumber reports whether v is neither NaN nor infinite.
func IsValidNumber(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// IsValidProbability reports whether v is a valid number in [0,1].
func IsValidProbability(v float64) bool {
	return IsValidNumber(v) && v >= 0 && v <= 1
}

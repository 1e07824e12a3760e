// SPDX-License-Identifier: MPL-2.0

package action

import (
	"errors"
	"fmt"
)

// Risk levels, ordered from least to most dangerous.
const (
	// RiskSafe actions only read state.
	RiskSafe Risk = "safe"
	// RiskModerate actions create or change user-owned state.
	RiskModerate Risk = "moderate"
	// RiskHigh actions destroy data or affect other processes.
	RiskHigh Risk = "high"
	// RiskCritical actions affect the whole machine (power, services).
	RiskCritical Risk = "critical"
)

// ErrInvalidRisk is the sentinel error wrapped by InvalidRiskError.
var ErrInvalidRisk = errors.New("invalid risk level")

type (
	// Risk classifies how dangerous an action is. A Dispatcher configured with a
	// maximum Risk refuses to run actions above it.
	Risk string

	// InvalidRiskError is returned when a Risk value is not recognized.
	InvalidRiskError struct {
		Value Risk
	}
)

// Error implements the error interface.
func (e *InvalidRiskError) Error() string {
	return fmt.Sprintf("invalid risk level %q (valid: safe, moderate, high, critical)", e.Value)
}

// Unwrap returns ErrInvalidRisk so callers can use errors.Is for programmatic detection.
func (e *InvalidRiskError) Unwrap() error { return ErrInvalidRisk }

// String returns the string representation of the Risk.
func (r Risk) String() string { return string(r) }

// Validate returns nil if the Risk is a known level.
func (r Risk) Validate() error {
	if r.rank() < 0 {
		return &InvalidRiskError{Value: r}
	}
	return nil
}

// Allows reports whether an action classified as other may run under a ceiling of r.
// An empty ceiling allows everything.
func (r Risk) Allows(other Risk) bool {
	if r == "" {
		return true
	}
	return other.rank() <= r.rank()
}

func (r Risk) rank() int {
	switch r {
	case RiskSafe:
		return 0
	case RiskModerate:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	default:
		return -1
	}
}

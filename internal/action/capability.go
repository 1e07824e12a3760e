// SPDX-License-Identifier: MPL-2.0

package action

import (
	"errors"
	"fmt"
)

// Capability constants. The order of AllCapabilities is the canonical display order.
const (
	CapabilityFilesystem Capability = "filesystem"
	CapabilityProcess    Capability = "process"
	CapabilityGUI        Capability = "gui"
	CapabilitySystem     Capability = "system"
	CapabilityNetwork    Capability = "network"
)

// ErrInvalidCapability is the sentinel error wrapped by InvalidCapabilityError.
var ErrInvalidCapability = errors.New("invalid capability")

type (
	// Capability names a category of automation operations.
	Capability string

	// InvalidCapabilityError is returned when a Capability value is not recognized.
	// It wraps ErrInvalidCapability for errors.Is() compatibility.
	InvalidCapabilityError struct {
		Value Capability
	}
)

// Error implements the error interface.
func (e *InvalidCapabilityError) Error() string {
	return fmt.Sprintf("invalid capability %q (valid: filesystem, process, gui, system, network)", e.Value)
}

// Unwrap returns ErrInvalidCapability so callers can use errors.Is for programmatic detection.
func (e *InvalidCapabilityError) Unwrap() error { return ErrInvalidCapability }

// String returns the string representation of the Capability.
func (c Capability) String() string { return string(c) }

// Validate returns nil if the Capability is one of the known categories,
// or an error wrapping ErrInvalidCapability otherwise.
func (c Capability) Validate() error {
	switch c {
	case CapabilityFilesystem, CapabilityProcess, CapabilityGUI, CapabilitySystem, CapabilityNetwork:
		return nil
	default:
		return &InvalidCapabilityError{Value: c}
	}
}

// AllCapabilities returns every capability in canonical order.
func AllCapabilities() []Capability {
	return []Capability{
		CapabilityFilesystem,
		CapabilityProcess,
		CapabilityGUI,
		CapabilitySystem,
		CapabilityNetwork,
	}
}

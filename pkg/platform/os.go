// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
	goruntime "runtime"
	"strings"
	"sync"
)

// OS name constants for runtime.GOOS comparisons.
const (
	Windows Identity = "windows"
	Darwin  Identity = "darwin"
	Linux   Identity = "linux"
)

// ErrInvalidIdentity is returned when an Identity is not one of the supported
// operating systems.
var ErrInvalidIdentity = errors.New("invalid platform identity")

// detectIdentityOnce caches the GOOS lookup. The OS cannot change during the
// lifetime of the process.
var detectIdentityOnce = sync.OnceValue(func() Identity {
	return DetectFrom(goruntime.GOOS)
})

type (
	// Identity names an operating system family, using GOOS spelling.
	Identity string

	// InvalidIdentityError is returned when an Identity value is not supported.
	// It wraps ErrInvalidIdentity for errors.Is() compatibility.
	InvalidIdentityError struct {
		Value Identity
	}
)

// Error implements the error interface.
func (e *InvalidIdentityError) Error() string {
	return fmt.Sprintf("invalid platform identity %q (supported: windows, linux, darwin)", e.Value)
}

// Unwrap returns ErrInvalidIdentity so callers can use errors.Is for programmatic detection.
func (e *InvalidIdentityError) Unwrap() error { return ErrInvalidIdentity }

// String returns the string representation of the Identity.
func (id Identity) String() string { return string(id) }

// Validate returns nil if the Identity is one of the supported operating systems,
// or an error wrapping ErrInvalidIdentity otherwise.
func (id Identity) Validate() error {
	switch id {
	case Windows, Linux, Darwin:
		return nil
	default:
		return &InvalidIdentityError{Value: id}
	}
}

// Supported returns the supported platform identities in a stable order.
func Supported() []Identity {
	return []Identity{Windows, Linux, Darwin}
}

// Detect returns the identity of the running operating system. The value is
// the raw GOOS string and may be unsupported; callers are expected to Validate it.
func Detect() Identity {
	return detectIdentityOnce()
}

// DetectFrom normalizes an OS name such as "Linux" or " darwin" into an Identity
// without consulting the running process.
func DetectFrom(goos string) Identity {
	return Identity(strings.ToLower(strings.TrimSpace(goos)))
}

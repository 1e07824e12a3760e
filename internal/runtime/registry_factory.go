// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"

	"github.com/omniauto/omniauto/pkg/platform"
)

const (
	// CodePTYUnavailable indicates the pty runtime cannot run on this host.
	CodePTYUnavailable InitDiagnosticCode = "pty_runtime_unavailable"
	// CodeSandboxDetected indicates programs will be spawned through a sandbox escape.
	CodeSandboxDetected InitDiagnosticCode = "sandbox_detected"
)

// ErrInvalidInitDiagnosticCode is the sentinel error wrapped by InvalidInitDiagnosticCodeError.
var ErrInvalidInitDiagnosticCode = errors.New("invalid init diagnostic code")

type (
	// BuildRegistryOptions configures runtime registry construction.
	BuildRegistryOptions struct {
		// Shell overrides the shell used for scripts by the native runtime.
		Shell string
		// Sandbox overrides sandbox detection. Nil means detect.
		Sandbox *platform.SandboxType
	}

	// InitDiagnosticCode categorizes non-fatal runtime initialization diagnostics.
	InitDiagnosticCode string

	// InvalidInitDiagnosticCodeError is returned when an InitDiagnosticCode value
	// is not one of the defined diagnostic codes.
	InvalidInitDiagnosticCodeError struct {
		Value InitDiagnosticCode
	}

	// InitDiagnostic reports non-fatal runtime initialization details.
	InitDiagnostic struct {
		Code    InitDiagnosticCode
		Message string
	}

	// RegistryBuildResult contains the built registry, the native runtime used
	// as the modules' Executor, a cleanup hook, and diagnostics.
	// Registry, Native, and Cleanup are always non-nil after BuildRegistry returns.
	RegistryBuildResult struct {
		Registry    *Registry
		Native      *NativeRuntime
		Cleanup     func()
		Diagnostics []InitDiagnostic
	}
)

// Error implements the error interface.
func (e *InvalidInitDiagnosticCodeError) Error() string {
	return fmt.Sprintf("invalid init diagnostic code %q (valid: %s, %s)",
		e.Value, CodePTYUnavailable, CodeSandboxDetected)
}

// Unwrap returns ErrInvalidInitDiagnosticCode so callers can use errors.Is for programmatic detection.
func (e *InvalidInitDiagnosticCodeError) Unwrap() error { return ErrInvalidInitDiagnosticCode }

// String returns the string representation of the InitDiagnosticCode.
func (c InitDiagnosticCode) String() string { return string(c) }

// Validate returns nil if the InitDiagnosticCode is one of the defined diagnostic codes.
func (c InitDiagnosticCode) Validate() error {
	switch c {
	case CodePTYUnavailable, CodeSandboxDetected:
		return nil
	default:
		return &InvalidInitDiagnosticCodeError{Value: c}
	}
}

// BuildRegistry creates and populates the runtime registry.
// All three runtimes are registered; the pty runtime reports itself unavailable
// on hosts without PTY support and a diagnostic records that.
func BuildRegistry(opts BuildRegistryOptions) RegistryBuildResult {
	sandbox := platform.DetectSandbox()
	if opts.Sandbox != nil {
		sandbox = *opts.Sandbox
	}

	nativeOpts := []NativeOption{WithSandbox(sandbox)}
	if opts.Shell != "" {
		nativeOpts = append(nativeOpts, WithShell(opts.Shell))
	}
	native := NewNativeRuntime(nativeOpts...)
	ptyRT := NewPTYRuntime(native)

	result := RegistryBuildResult{
		Registry: NewRegistry(),
		Native:   native,
		Cleanup:  func() {},
	}
	result.Registry.Register(RuntimeTypeNative, native)
	result.Registry.Register(RuntimeTypeVirtual, NewVirtualRuntime())
	result.Registry.Register(RuntimeTypePTY, ptyRT)

	if !ptyRT.Available() {
		result.Diagnostics = append(result.Diagnostics, InitDiagnostic{
			Code:    CodePTYUnavailable,
			Message: "pty runtime is not supported on this platform",
		})
	}
	if sandbox != platform.SandboxNone {
		result.Diagnostics = append(result.Diagnostics, InitDiagnostic{
			Code:    CodeSandboxDetected,
			Message: fmt.Sprintf("running inside %s; host programs are spawned via %s", sandbox, platform.SpawnCommandFor(sandbox)),
		})
	}
	return result
}

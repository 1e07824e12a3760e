// SPDX-License-Identifier: MPL-2.0

package action

import (
	"errors"
	"fmt"
)

// Error kinds carried on failed Results.
const (
	KindUnsupportedPlatform ErrorKind = "unsupported_platform"
	KindValidation          ErrorKind = "validation_error"
	KindUnknownAction       ErrorKind = "unknown_action"
	KindOperationFailure    ErrorKind = "operation_failure"
	KindPartialBatchFailure ErrorKind = "partial_batch_failure"
	KindPermissionDenied    ErrorKind = "permission_denied"
)

var (
	// ErrUnsupportedPlatform is returned when no adapter variant exists for the host OS.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrValidation is returned when an action's parameters are missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrUnknownAction is returned when a module does not recognize the requested action.
	ErrUnknownAction = errors.New("unknown action")
	// ErrOperationFailed is returned when the underlying OS or library call fails.
	ErrOperationFailed = errors.New("operation failed")
	// ErrPartialBatch is returned when some units of a batch action failed.
	ErrPartialBatch = errors.New("partial batch failure")
	// ErrPermissionDenied is returned when policy refuses to run an action.
	ErrPermissionDenied = errors.New("permission denied")
)

type (
	// ErrorKind classifies a failed Result.
	ErrorKind string

	// UnsupportedPlatformError is returned by the adapter factory when the detected
	// OS has no adapter variant.
	UnsupportedPlatformError struct {
		Platform string
	}

	// ValidationError reports a missing or malformed parameter. Param is empty when
	// the failure concerns the request as a whole (for example an empty action name).
	ValidationError struct {
		Param  string
		Reason string
	}

	// UnknownActionError reports an action name a module does not implement.
	UnknownActionError struct {
		Capability Capability
		Action     string
	}

	// OperationError wraps a failure reported by the underlying OS call or library.
	OperationError struct {
		Action string
		Err    error
	}

	// PartialBatchError reports that Failed of Requested batch units failed.
	PartialBatchError struct {
		Requested int
		Failed    int
	}

	// PermissionDeniedError reports that policy refused an action before it ran.
	PermissionDeniedError struct {
		Action string
		Reason string
	}
)

// Error implements the error interface.
func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("OS %q is not supported", e.Platform)
}

// Unwrap returns ErrUnsupportedPlatform for errors.Is() compatibility.
func (e *UnsupportedPlatformError) Unwrap() error { return ErrUnsupportedPlatform }

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Param == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("invalid parameter %q: %s", e.Param, e.Reason)
}

// Unwrap returns ErrValidation for errors.Is() compatibility.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// Error implements the error interface.
func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown %s action: %q", e.Capability, e.Action)
}

// Unwrap returns ErrUnknownAction for errors.Is() compatibility.
func (e *UnknownActionError) Unwrap() error { return ErrUnknownAction }

// Error implements the error interface.
func (e *OperationError) Error() string {
	if e.Action == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s failed: %v", e.Action, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause so errors.Is matches
// ErrOperationFailed as well as the wrapped OS error.
func (e *OperationError) Unwrap() []error { return []error{ErrOperationFailed, e.Err} }

// Error implements the error interface.
func (e *PartialBatchError) Error() string {
	return fmt.Sprintf("%d of %d batch items failed", e.Failed, e.Requested)
}

// Unwrap returns ErrPartialBatch for errors.Is() compatibility.
func (e *PartialBatchError) Unwrap() error { return ErrPartialBatch }

// Error implements the error interface.
func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("action %q denied: %s", e.Action, e.Reason)
}

// Unwrap returns ErrPermissionDenied for errors.Is() compatibility.
func (e *PermissionDeniedError) Unwrap() error { return ErrPermissionDenied }

// String returns the string representation of the ErrorKind.
func (k ErrorKind) String() string { return string(k) }

// KindOf classifies err. Errors outside the taxonomy are operation failures;
// a nil error has no kind.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedPlatform):
		return KindUnsupportedPlatform
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrUnknownAction):
		return KindUnknownAction
	case errors.Is(err, ErrPartialBatch):
		return KindPartialBatchFailure
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	default:
		return KindOperationFailure
	}
}

// Failf builds an OperationError for action from a formatted cause.
func Failf(action, format string, args ...any) error {
	return &OperationError{Action: action, Err: fmt.Errorf(format, args...)}
}

// Fail wraps err as an OperationError for action. A nil err returns nil and errors
// that already belong to the taxonomy are returned unchanged.
func Fail(action string, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OperationError
	if errors.As(err, &opErr) || KindOf(err) != KindOperationFailure {
		return err
	}
	return &OperationError{Action: action, Err: err}
}

// Invalid builds a ValidationError for param.
func Invalid(param, format string, args ...any) error {
	return &ValidationError{Param: param, Reason: fmt.Sprintf(format, args...)}
}

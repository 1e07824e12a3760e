// SPDX-License-Identifier: MPL-2.0

package action

import (
	"encoding/json"
	"maps"
)

type (
	// Payload holds the action-specific fields of a successful Result.
	Payload = map[string]any

	// Result is the normalized outcome of every Execute call.
	//
	// Successful results carry a Payload and no error. Failed results carry an
	// error message and kind and no payload, except partial batch failures which
	// keep the per-unit detail in Payload.
	Result struct {
		// Success reports whether the action completed.
		Success bool
		// Payload carries action-specific output fields.
		Payload Payload
		// Error is the human-readable failure message.
		Error string
		// Kind classifies the failure.
		Kind ErrorKind
		// Capability and Action identify the call that produced the result.
		Capability Capability
		Action     string
		// RequestID correlates the result with log lines.
		RequestID string

		err error
	}
)

// NewSuccessResult creates a successful Result carrying payload.
func NewSuccessResult(payload Payload) *Result {
	if payload == nil {
		payload = Payload{}
	}
	return &Result{Success: true, Payload: payload}
}

// NewErrorResult creates a failed Result classified by err. A nil err produces an
// operation failure with a generic message so the invariant "failure implies an
// error message" always holds.
func NewErrorResult(err error) *Result {
	if err == nil {
		err = &OperationError{Err: ErrOperationFailed}
	}
	return &Result{Error: err.Error(), Kind: KindOf(err), err: err}
}

// NewPartialResult creates a failed Result that still carries payload. It is used
// for batch actions where some units succeeded.
func NewPartialResult(payload Payload, err error) *Result {
	r := NewErrorResult(err)
	r.Payload = payload
	return r
}

// Err returns the error that produced a failed Result, or nil on success.
func (r *Result) Err() error {
	if r.Success {
		return nil
	}
	if r.err != nil {
		return r.err
	}
	return &OperationError{Action: r.Action, Err: ErrOperationFailed}
}

// Get returns a payload field.
func (r *Result) Get(key string) (any, bool) {
	v, ok := r.Payload[key]
	return v, ok
}

// MarshalJSON flattens the payload into the top-level object:
//
//	{"success": true, "path": "/tmp/x"}
//	{"success": false, "error": "...", "error_kind": "validation_error"}
func (r *Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Payload)+6)
	maps.Copy(out, r.Payload)
	out["success"] = r.Success
	if r.Capability != "" {
		out["capability"] = r.Capability
	}
	if r.Action != "" {
		out["action"] = r.Action
	}
	if r.RequestID != "" {
		out["request_id"] = r.RequestID
	}
	if !r.Success {
		out["error"] = r.Error
		out["error_kind"] = r.Kind
	}
	return json.Marshal(out)
}

// Map returns the flattened representation used by MarshalJSON, for encoders
// that do not honor json.Marshaler (YAML, tables).
func (r *Result) Map() map[string]any {
	data, err := r.MarshalJSON()
	if err != nil {
		return map[string]any{"success": r.Success, "error": err.Error()}
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{"success": r.Success, "error": err.Error()}
	}
	return out
}

// SPDX-License-Identifier: MPL-2.0

package action

import (
	"context"
	"errors"
	"fmt"
)

// Parameter type constants used in action metadata.
const (
	ParamString  ParamType = "string"
	ParamInteger ParamType = "integer"
	ParamNumber  ParamType = "number"
	ParamBoolean ParamType = "boolean"
	ParamArray   ParamType = "array"
	ParamObject  ParamType = "object"
	// ParamAny accepts more than one shape (for example a pid or a process name).
	ParamAny ParamType = "any"
)

// ErrInvalidSpec is returned when an action table fails validation at construction.
var ErrInvalidSpec = errors.New("invalid action table")

type (
	// ParamType describes the expected shape of a parameter for documentation and
	// remote schema generation. Handlers still perform their own extraction.
	ParamType string

	// Handler performs one action. It must extract and validate every parameter
	// before its first side effect.
	Handler func(ctx context.Context, params Params) (Payload, error)

	// ParamSpec documents one parameter of an action.
	ParamSpec struct {
		Name        string    `json:"name"`
		Type        ParamType `json:"type"`
		Required    bool      `json:"required,omitempty"`
		Aliases     []string  `json:"aliases,omitempty"`
		Description string    `json:"description,omitempty"`
	}

	// Spec is one row of a module's action table.
	Spec struct {
		Name        string      `json:"name"`
		Description string      `json:"description"`
		Risk        Risk        `json:"risk"`
		Params      []ParamSpec `json:"params,omitempty"`
		Handler     Handler     `json:"-"`
	}

	// InvalidSpecError describes why an action table was rejected.
	InvalidSpecError struct {
		Capability Capability
		Action     string
		Reason     string
	}
)

// Error implements the error interface.
func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("%s action %q: %s", e.Capability, e.Action, e.Reason)
}

// Unwrap returns ErrInvalidSpec for errors.Is() compatibility.
func (e *InvalidSpecError) Unwrap() error { return ErrInvalidSpec }

// Required returns the primary names of required parameters.
func (s Spec) Required() []string {
	var names []string
	for _, p := range s.Params {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// names returns the primary name followed by its aliases.
func (p ParamSpec) names() []string {
	return append([]string{p.Name}, p.Aliases...)
}

func validateSpecs(capability Capability, specs []Spec) error {
	seen := make(map[string]struct{}, len(specs))
	for _, s := range specs {
		switch {
		case s.Name == "":
			return &InvalidSpecError{Capability: capability, Reason: "empty action name"}
		case s.Handler == nil:
			return &InvalidSpecError{Capability: capability, Action: s.Name, Reason: "missing handler"}
		}
		if _, dup := seen[s.Name]; dup {
			return &InvalidSpecError{Capability: capability, Action: s.Name, Reason: "duplicate action"}
		}
		seen[s.Name] = struct{}{}
		risk := s.Risk
		if risk == "" {
			risk = RiskSafe
		}
		if err := risk.Validate(); err != nil {
			return &InvalidSpecError{Capability: capability, Action: s.Name, Reason: err.Error()}
		}
	}
	return nil
}

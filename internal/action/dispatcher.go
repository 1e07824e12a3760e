// SPDX-License-Identifier: MPL-2.0

package action

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

var _ ModuleAdapter = (*Dispatcher)(nil)

type (
	// Dispatcher implements ModuleAdapter over an ordered action table.
	Dispatcher struct {
		capability Capability
		specs      []Spec
		index      map[string]int
		maxRisk    Risk
		logger     *log.Logger
		newID      func() string
	}

	// DispatcherOption configures a Dispatcher.
	DispatcherOption func(*Dispatcher)
)

// WithMaxRisk refuses actions classified above max. The zero value allows everything.
func WithMaxRisk(max Risk) DispatcherOption {
	return func(d *Dispatcher) { d.maxRisk = max }
}

// WithLogger sets the logger used for per-call debug and failure lines.
func WithLogger(logger *log.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithRequestIDs overrides request ID generation. Tests use it for deterministic output.
func WithRequestIDs(fn func() string) DispatcherOption {
	return func(d *Dispatcher) {
		if fn != nil {
			d.newID = fn
		}
	}
}

// NewDispatcher validates specs and builds a Dispatcher for capability.
func NewDispatcher(capability Capability, specs []Spec, opts ...DispatcherOption) (*Dispatcher, error) {
	if err := capability.Validate(); err != nil {
		return nil, err
	}
	if err := validateSpecs(capability, specs); err != nil {
		return nil, err
	}

	d := &Dispatcher{
		capability: capability,
		specs:      slices.Clone(specs),
		index:      make(map[string]int, len(specs)),
		logger:     log.New(io.Discard),
		newID:      uuid.NewString,
	}
	for i := range d.specs {
		if d.specs[i].Risk == "" {
			d.specs[i].Risk = RiskSafe
		}
		d.index[d.specs[i].Name] = i
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.maxRisk.Validate(); d.maxRisk != "" && err != nil {
		return nil, err
	}
	return d, nil
}

// Capability returns the category served by this dispatcher.
func (d *Dispatcher) Capability() Capability { return d.capability }

// Capabilities returns the action names in table order.
func (d *Dispatcher) Capabilities() []string {
	names := make([]string, len(d.specs))
	for i, s := range d.specs {
		names[i] = s.Name
	}
	return names
}

// Describe returns a copy of the action table.
func (d *Dispatcher) Describe() []Spec {
	return slices.Clone(d.specs)
}

// Lookup returns the Spec registered under name.
func (d *Dispatcher) Lookup(name string) (Spec, bool) {
	i, ok := d.index[name]
	if !ok {
		return Spec{}, false
	}
	return d.specs[i], true
}

// Execute validates the request, runs the handler, and normalizes its outcome.
// The dispatcher adds no timeout and never cancels ctx itself.
func (d *Dispatcher) Execute(ctx context.Context, name string, params Params) (result *Result) {
	if ctx == nil {
		ctx = context.Background()
	}
	if params == nil {
		params = Params{}
	}

	id := d.newID()
	logger := d.logger.With("capability", d.capability, "action", name, "request_id", id)

	defer func() {
		if r := recover(); r != nil {
			result = NewErrorResult(&OperationError{Action: name, Err: fmt.Errorf("panic: %v", r)})
		}
		result.Capability = d.capability
		result.Action = name
		result.RequestID = id
		if result.Success {
			logger.Debug("action completed")
		} else {
			logger.Warn("action failed", "kind", result.Kind, "err", result.Error)
		}
	}()

	if strings.TrimSpace(name) == "" {
		return NewErrorResult(&ValidationError{Param: "action", Reason: "must be a non-empty string"})
	}

	spec, ok := d.Lookup(name)
	if !ok {
		return NewErrorResult(&UnknownActionError{Capability: d.capability, Action: name})
	}

	if !d.maxRisk.Allows(spec.Risk) {
		return NewErrorResult(&PermissionDeniedError{
			Action: name,
			Reason: fmt.Sprintf("risk %s exceeds configured maximum %s", spec.Risk, d.maxRisk),
		})
	}

	for _, p := range spec.Params {
		if p.Required && !params.Has(p.names()...) {
			return NewErrorResult(Invalid(p.Name, "is required"))
		}
	}

	logger.Debug("executing action")
	payload, err := spec.Handler(ctx, params)
	if err != nil {
		err = Fail(name, err)
		if KindOf(err) == KindPartialBatchFailure {
			return NewPartialResult(payload, err)
		}
		return NewErrorResult(err)
	}
	return NewSuccessResult(payload)
}

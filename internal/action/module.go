// SPDX-License-Identifier: MPL-2.0

package action

import "context"

// ModuleAdapter is the contract every capability module satisfies, on every platform.
type ModuleAdapter interface {
	// Capability names the category this module serves.
	Capability() Capability
	// Capabilities lists the supported action names in a stable order.
	Capabilities() []string
	// Describe returns the action table metadata in the same order as Capabilities.
	Describe() []Spec
	// Execute runs one action. It never panics and never returns nil: every
	// failure is reported through the Result.
	Execute(ctx context.Context, action string, params Params) *Result
}

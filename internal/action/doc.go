// SPDX-License-Identifier: MPL-2.0

// Package action defines the uniform contract every automation module satisfies:
// the capability and action vocabulary, the parameter set handed to an action,
// the normalized Result returned from it, and the error taxonomy that classifies
// failures.
//
// A Dispatcher implements the shared Execute algorithm over an ordered table of
// action Specs. Module packages build a Dispatcher at construction time and embed it,
// so validation, unknown-action handling, policy gating, and error normalization
// behave identically across capabilities and platforms.
package action

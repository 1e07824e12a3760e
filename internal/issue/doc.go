// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// suggestions for the user. It can link to a catalogued Issue, a Markdown guide
// rendered with glamour when the CLI reports the failure.
package issue

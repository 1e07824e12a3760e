// SPDX-License-Identifier: MPL-2.0

// Package runtime runs host programs on behalf of automation modules.
//
// Three runtime implementations are available:
//   - native: executes programs directly, or through the host shell (bash/sh/PowerShell)
//   - virtual: executes shell text using an embedded interpreter (mvdan/sh)
//   - pty: executes programs attached to a pseudo-terminal (POSIX only)
//
// Modules never call os/exec directly. They depend on the Executor interface,
// which NativeRuntime implements, so tests can substitute the recording fake in
// runtimetest and assert which host programs would have been invoked.
package runtime

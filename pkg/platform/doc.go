// SPDX-License-Identifier: MPL-2.0

// Package platform identifies the host operating system and the sandbox, if any,
// the current process runs in.
//
// Detection is performed once per process. Every helper that depends on detection
// also has a pure variant taking explicit inputs so callers and tests can reason
// about other platforms without touching process-wide state.
package platform

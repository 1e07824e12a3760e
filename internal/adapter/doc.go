// SPDX-License-Identifier: MPL-2.0

// Package adapter selects and assembles the platform adapter for the host.
//
// A PlatformAdapter owns one action.ModuleAdapter per capability. Create
// picks the Windows, Linux, or macOS variant from the detected platform and
// builds all five modules; it never returns a partially built adapter.
package adapter

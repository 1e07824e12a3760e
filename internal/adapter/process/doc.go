// SPDX-License-Identifier: MPL-2.0

// Package process implements the process automation module: launching
// programs, running commands to completion under a selectable runtime,
// terminating by PID or name, and inspecting the process table.
package process

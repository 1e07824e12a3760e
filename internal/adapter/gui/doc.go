// SPDX-License-Identifier: MPL-2.0

// Package gui implements the gui capability: mouse, keyboard, and screen
// capture through the desktop tools each platform ships or commonly installs.
//
// Every platform backend is a command builder. Backends never touch the
// display themselves; they describe the xdotool, cliclick, osascript, or
// PowerShell invocation and the module runs it through a runtime.Executor.
// That keeps all three backends compilable and testable on any host.
package gui

// SPDX-License-Identifier: MPL-2.0

// Package system implements the system capability: host facts, volume,
// power, environment, and service control.
package system

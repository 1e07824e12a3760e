// SPDX-License-Identifier: MPL-2.0

// Package mcpapi exposes the action catalog as Model Context Protocol tools.
// Every action becomes a tool named <capability>_<action>; the generic
// execute, list_capabilities and describe_capability tools sit beside them.
package mcpapi

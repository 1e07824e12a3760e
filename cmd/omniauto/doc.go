// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the omniauto CLI commands.
package cmd

// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/omniauto/config.cue (or the XDG equivalent on Linux,
// ~/Library/Application Support/omniauto/config.cue on macOS, %APPDATA%\omniauto\config.cue
// on Windows), then overlaid with OMNIAUTO_* environment variables. It covers the adapter
// base directory, risk cap, default runtime, logging, per-module settings, and the HTTP and
// SSH action surfaces.
//
// Configuration files are validated against an embedded CUE schema (config_schema.cue).
package config

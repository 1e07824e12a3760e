// SPDX-License-Identifier: MPL-2.0

// Package filesystem implements the filesystem automation module: folder and
// file creation with name sanitization, batch folder ranges, delete, copy, move,
// directory listing, metadata, glob search, and waiting for paths to appear.
//
// Behavior is identical on every platform except for the Flavor: POSIX variants
// report permission bits, and the Linux variant also applies explicit modes to
// what it creates.
package filesystem

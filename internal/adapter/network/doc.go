// SPDX-License-Identifier: MPL-2.0

// Package network implements the network capability: HTTP requests, file
// downloads, interface inspection, and SFTP uploads.
package network

// SPDX-License-Identifier: MPL-2.0

// Package httpapi serves the action catalog and action execution over HTTP.
//
//	GET  /healthz
//	GET  /v1/platform
//	GET  /v1/capabilities
//	GET  /v1/capabilities/:capability
//	POST /v1/actions/:capability/:action   body: params object
//	POST /v1/execute                       body: {"capability", "action", "params"}
//
// Results are the flattened Result JSON. The HTTP status follows the error
// kind; see StatusFor.
package httpapi

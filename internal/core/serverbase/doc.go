// SPDX-License-Identifier: MPL-2.0

// Package serverbase is the lifecycle state machine shared by the HTTP and
// SSH action servers: Created, Starting, Running, Stopping, then Stopped or
// Failed. Listen and Shutdown drive any Server that serves a net.Listener.
package serverbase

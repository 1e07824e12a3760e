// SPDX-License-Identifier: MPL-2.0

// Package sshapi serves actions over SSH. Each session runs one command:
//
//	ssh -p 2222 host filesystem create_folder name=reports
//	ssh -p 2222 host capabilities [capability]
//	ssh -p 2222 host platform
//
// The Result is written to stdout as one JSON line and a failed action exits
// with status 1. A session without a command reads one JSON request per line
// from stdin and answers each with a Result line.
package sshapi

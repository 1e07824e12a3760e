// SPDX-License-Identifier: MPL-2.0

package sshapi

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/service"
)

// maxLineBytes caps one JSON request line in stream mode.
const maxLineBytes = 1 << 20

func (s *Server) commandMiddleware() wish.Middleware {
	return func(ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			args := sess.Command()
			var code int
			switch {
			case len(args) == 0:
				code = s.stream(sess)
			case args[0] == "platform":
				code = writeJSON(sess, map[string]any{"platform": s.svc.Platform(), "capabilities": action.AllCapabilities()})
			case args[0] == "capabilities":
				code = s.catalog(sess, args[1:])
			default:
				code = s.single(sess, args)
			}
			_ = sess.Exit(code)
		}
	}
}

func (s *Server) logMiddleware() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			start := time.Now()
			next(sess)
			s.logger.Debug("session", "user", sess.User(), "remote", sess.RemoteAddr(), "command", sess.Command(), "duration", time.Since(start))
		}
	}
}

func (s *Server) single(sess ssh.Session, args []string) int {
	if len(args) < 2 {
		return writeResult(sess, action.NewErrorResult(action.Invalid("command", "expected <capability> <action> [key=value ...]")))
	}
	params, err := service.ParseAssignments(args[2:])
	if err != nil {
		res := action.NewErrorResult(err)
		res.Capability, res.Action = action.Capability(args[0]), args[1]
		return writeResult(sess, res)
	}
	return writeResult(sess, s.svc.Execute(sess.Context(), service.Request{
		Capability: action.Capability(args[0]),
		Action:     args[1],
		Params:     params,
	}))
}

func (s *Server) catalog(sess ssh.Session, args []string) int {
	if len(args) == 0 {
		return writeJSON(sess, s.svc.Catalog())
	}
	info, err := s.svc.Describe(action.Capability(args[0]))
	if err != nil {
		return writeResult(sess, action.NewErrorResult(err))
	}
	return writeJSON(sess, info)
}

// stream answers one Result line per request line until stdin closes. It
// exits 1 when any request failed.
func (s *Server) stream(sess ssh.Session) int {
	scanner := bufio.NewScanner(sess)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	code := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req service.Request
		var res *action.Result
		if err := json.Unmarshal(line, &req); err != nil {
			res = action.NewErrorResult(&action.ValidationError{Param: "request", Reason: "malformed JSON: " + err.Error()})
		} else {
			res = s.svc.Execute(sess.Context(), req)
		}
		if writeResult(sess, res) != 0 {
			code = 1
		}
	}
	if err := scanner.Err(); err != nil {
		_, _ = fmt.Fprintf(sess.Stderr(), "read requests: %v\n", err)
		return 1
	}
	return code
}

func writeResult(w io.Writer, res *action.Result) int {
	if code := writeJSON(w, res); code != 0 {
		return code
	}
	if !res.Success {
		return 1
	}
	return 0
}

func writeJSON(w io.Writer, v any) int {
	data, err := json.Marshal(v)
	if err != nil {
		_, _ = fmt.Fprintf(w, "{\"success\":false,\"error\":%q}\n", err.Error())
		return 1
	}
	_, _ = w.Write(append(data, '\n'))
	return 0
}

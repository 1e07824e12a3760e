// SPDX-License-Identifier: MPL-2.0

package process

import (
	"strings"

	"github.com/omniauto/omniauto/pkg/platform"
)

// NameMatcher decides whether a process answers to a user-supplied name.
type NameMatcher func(query string, p Info) bool

// MatcherFor returns the platform's name-matching convention:
//   - windows: case-insensitive image name, with or without ".exe"
//   - linux: substring of the full command line (pkill -f), or exact name
//   - darwin: exact process name
func MatcherFor(id platform.Identity) NameMatcher {
	switch id {
	case platform.Windows:
		return func(q string, p Info) bool {
			return strings.EqualFold(p.Name, q) || strings.EqualFold(p.Name, q+".exe")
		}
	case platform.Linux:
		return func(q string, p Info) bool {
			return p.Name == q || (p.Cmdline != "" && strings.Contains(p.Cmdline, q))
		}
	default:
		return func(q string, p Info) bool { return p.Name == q }
	}
}

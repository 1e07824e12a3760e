// SPDX-License-Identifier: MPL-2.0

package filesystem

import (
	"strings"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/pkg/platform"
)

const (
	// unsafeNameChars are replaced with Placeholder in created names.
	unsafeNameChars = `<>:"/\|?*`
	// Placeholder replaces each unsafe character.
	Placeholder = '_'
	// DefaultName is used when nothing survives sanitization.
	DefaultName = "unnamed"
)

// SanitizeName replaces path-unsafe characters with Placeholder, strips leading
// and trailing spaces and dots, and substitutes DefaultName for an empty result.
func SanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if strings.ContainsRune(unsafeNameChars, r) || r < 0x20 {
			b.WriteRune(Placeholder)
			continue
		}
		b.WriteRune(r)
	}
	out := strings.Trim(b.String(), " .")
	if out == "" {
		return DefaultName
	}
	return out
}

// sanitize applies SanitizeName plus the flavor's reserved-name escaping.
func (f Flavor) sanitize(name string) string {
	out := SanitizeName(name)
	if f.EscapeReserved && platform.IsReservedName(out) {
		out += string(Placeholder)
	}
	return out
}

// HasTraversal reports whether p contains a ".." path segment under either
// separator convention.
func HasTraversal(p string) bool {
	for _, seg := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}
	return false
}

// rejectTraversal returns a ValidationError naming param when value escapes
// its base directory.
func rejectTraversal(param, value string) error {
	if HasTraversal(value) {
		return action.Invalid(param, "path traversal is not allowed")
	}
	return nil
}

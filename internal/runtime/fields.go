// SPDX-License-Identifier: MPL-2.0

package runtime

import "mvdan.cc/sh/v3/shell"

// shellFields expands quoting and escapes only. Environment lookups resolve to
// empty so arguments cannot read host variables.
func shellFields(s string) ([]string, error) {
	return shell.Fields(s, func(string) string { return "" })
}

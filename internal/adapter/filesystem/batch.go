// SPDX-License-Identifier: MPL-2.0

package filesystem

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/omniauto/omniauto/internal/action"
)

// maxBatchSize bounds a single numbered range.
const maxBatchSize = 10000

// numberedName matches names like "project1": a letter/underscore prefix
// followed by a decimal suffix.
var numberedName = regexp.MustCompile(`^([A-Za-z_]+)(\d+)$`)

// NameRange is a numbered folder range such as project1..project3.
type NameRange struct {
	Base  string
	Start int
	End   int
}

// ParseNameRange derives a range from its first and last names. Both names must
// share the same prefix and the end number must not precede the start.
func ParseNameRange(startName, endName string) (NameRange, error) {
	sm := numberedName.FindStringSubmatch(startName)
	if sm == nil {
		return NameRange{}, action.Invalid("start_name", "expected a name like 'project1', got %q", startName)
	}
	em := numberedName.FindStringSubmatch(endName)
	if em == nil {
		return NameRange{}, action.Invalid("end_name", "expected a name like 'project10', got %q", endName)
	}
	if sm[1] != em[1] {
		return NameRange{}, action.Invalid("end_name", "base names don't match: %q vs %q", sm[1], em[1])
	}

	start, err := strconv.Atoi(sm[2])
	if err != nil {
		return NameRange{}, action.Invalid("start_name", "number out of range: %s", sm[2])
	}
	end, err := strconv.Atoi(em[2])
	if err != nil {
		return NameRange{}, action.Invalid("end_name", "number out of range: %s", em[2])
	}

	r := NameRange{Base: sm[1], Start: start, End: end}
	switch {
	case end < start:
		return NameRange{}, action.Invalid("end_name", "%q precedes %q", endName, startName)
	case r.Len() > maxBatchSize:
		return NameRange{}, action.Invalid("end_name", "range of %d names exceeds the limit of %d", r.Len(), maxBatchSize)
	}
	return r, nil
}

// Len returns the number of names in the range.
func (r NameRange) Len() int { return r.End - r.Start + 1 }

// Names returns every name in the range, in order.
func (r NameRange) Names() []string {
	names := make([]string, 0, r.Len())
	for i := r.Start; i <= r.End; i++ {
		names = append(names, fmt.Sprintf("%s%d", r.Base, i))
	}
	return names
}

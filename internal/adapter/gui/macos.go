// SPDX-License-Identifier: MPL-2.0

package gui

import (
	"fmt"
	"strings"

	"github.com/omniauto/omniauto/internal/runtime"
)

// macBackend uses cliclick for the pointer, System Events through osascript
// for the keyboard, and screencapture for the screen.
type macBackend struct{}

var _ Backend = macBackend{}

var macModifiers = map[string]string{
	ModCtrl:  "control down",
	ModAlt:   "option down",
	ModShift: "shift down",
	ModSuper: "command down",
}

func (macBackend) Name() string { return "cliclick" }

func (macBackend) Click(at *Point, button Button) ([]runtime.Command, error) {
	var verb string
	switch button {
	case ButtonLeft:
		verb = "c"
	case ButtonRight:
		verb = "rc"
	default:
		return nil, fmt.Errorf("cliclick %s click: %w", button, ErrUnsupportedInput)
	}
	target := "."
	if at != nil {
		target = fmt.Sprintf("%d,%d", at.X, at.Y)
	}
	return one("cliclick", verb+":"+target), nil
}

func (macBackend) Move(to Point) ([]runtime.Command, error) {
	return one("cliclick", fmt.Sprintf("m:%d,%d", to.X, to.Y)), nil
}

func (macBackend) Type(text string) ([]runtime.Command, error) {
	return osascript("keystroke " + appleString(text)), nil
}

func (macBackend) Press(chord Chord) ([]runtime.Command, error) {
	var stmt string
	if chord.Named() {
		code := namedKeys[chord.Key].macCode
		if code < 0 {
			return nil, fmt.Errorf("key %q: %w", chord.Key, ErrUnsupportedInput)
		}
		stmt = fmt.Sprintf("key code %d", code)
	} else {
		stmt = "keystroke " + appleString(chord.Key)
	}
	if len(chord.Mods) > 0 {
		mods := make([]string, len(chord.Mods))
		for i, m := range chord.Mods {
			mods[i] = macModifiers[m]
		}
		stmt += " using {" + strings.Join(mods, ", ") + "}"
	}
	return osascript(stmt), nil
}

func (macBackend) Screenshot(path string) ([]runtime.Command, error) {
	return one("screencapture", "-x", path), nil
}

func osascript(stmt string) []runtime.Command {
	return one("osascript", "-e", `tell application "System Events" to `+stmt)
}

func appleString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

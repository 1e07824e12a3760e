// SPDX-License-Identifier: MPL-2.0

package gui

import (
	"strings"

	"github.com/omniauto/omniauto/internal/runtime"
)

// xdotoolBackend drives X11 sessions. Screenshots try scrot, then
// ImageMagick import, then gnome-screenshot.
type xdotoolBackend struct{}

var _ Backend = xdotoolBackend{}

var xdotoolButtons = map[Button]string{ButtonLeft: "1", ButtonMiddle: "2", ButtonRight: "3"}

func (xdotoolBackend) Name() string { return "xdotool" }

func (xdotoolBackend) Click(at *Point, button Button) ([]runtime.Command, error) {
	if at == nil {
		return one("xdotool", "click", xdotoolButtons[button]), nil
	}
	return one("xdotool", "mousemove", "--sync", itoa(at.X), itoa(at.Y), "click", xdotoolButtons[button]), nil
}

func (xdotoolBackend) Move(to Point) ([]runtime.Command, error) {
	return one("xdotool", "mousemove", "--sync", itoa(to.X), itoa(to.Y)), nil
}

func (xdotoolBackend) Type(text string) ([]runtime.Command, error) {
	return one("xdotool", "type", "--delay", "12", "--", text), nil
}

func (xdotoolBackend) Press(chord Chord) ([]runtime.Command, error) {
	key := chord.Key
	switch {
	case chord.Named():
		key = namedKeys[key].xdotool
	case key == "+":
		key = "plus"
	case key == " ":
		key = "space"
	}
	parts := append(append([]string{}, chord.Mods...), key)
	return one("xdotool", "key", "--", strings.Join(parts, "+")), nil
}

func (xdotoolBackend) Screenshot(path string) ([]runtime.Command, error) {
	return []runtime.Command{
		{Name: "scrot", Args: []string{"--overwrite", path}},
		{Name: "import", Args: []string{"-window", "root", path}},
		{Name: "gnome-screenshot", Args: []string{"-f", path}},
	}, nil
}

// SPDX-License-Identifier: MPL-2.0

package gui

import (
	"errors"
	"fmt"
	"strings"
)

// Modifier names after normalization.
const (
	ModCtrl  = "ctrl"
	ModAlt   = "alt"
	ModShift = "shift"
	ModSuper = "super"
)

// ErrInvalidKey is returned when a key chord cannot be parsed.
var ErrInvalidKey = errors.New("invalid key")

type (
	// Chord is a key plus the modifiers held while it is pressed.
	Chord struct {
		Mods []string
		// Key is either a named key from the key table (lowercase) or a single character.
		Key string
	}

	// InvalidKeyError describes why a chord was rejected.
	InvalidKeyError struct {
		Value  string
		Reason string
	}

	keyNames struct {
		xdotool  string
		sendKeys string
		macCode  int
	}
)

var modifierAliases = map[string]string{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"shift":   ModShift,
	"super":   ModSuper,
	"cmd":     ModSuper,
	"command": ModSuper,
	"win":     ModSuper,
	"meta":    ModSuper,
}

var namedKeys = map[string]keyNames{
	"enter":     {"Return", "{ENTER}", 36},
	"tab":       {"Tab", "{TAB}", 48},
	"escape":    {"Escape", "{ESC}", 53},
	"space":     {"space", " ", 49},
	"backspace": {"BackSpace", "{BACKSPACE}", 51},
	"delete":    {"Delete", "{DELETE}", 117},
	"insert":    {"Insert", "{INSERT}", -1},
	"up":        {"Up", "{UP}", 126},
	"down":      {"Down", "{DOWN}", 125},
	"left":      {"Left", "{LEFT}", 123},
	"right":     {"Right", "{RIGHT}", 124},
	"home":      {"Home", "{HOME}", 115},
	"end":       {"End", "{END}", 119},
	"pageup":    {"Page_Up", "{PGUP}", 116},
	"pagedown":  {"Page_Down", "{PGDN}", 121},
	"f1":        {"F1", "{F1}", 122},
	"f2":        {"F2", "{F2}", 120},
	"f3":        {"F3", "{F3}", 99},
	"f4":        {"F4", "{F4}", 118},
	"f5":        {"F5", "{F5}", 96},
	"f6":        {"F6", "{F6}", 97},
	"f7":        {"F7", "{F7}", 98},
	"f8":        {"F8", "{F8}", 100},
	"f9":        {"F9", "{F9}", 101},
	"f10":       {"F10", "{F10}", 109},
	"f11":       {"F11", "{F11}", 103},
	"f12":       {"F12", "{F12}", 111},
}

var keyAliases = map[string]string{
	"return": "enter",
	"esc":    "escape",
	"del":    "delete",
	"pgup":   "pageup",
	"pgdn":   "pagedown",
}

// Error implements the error interface.
func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid key %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidKey so callers can use errors.Is for programmatic detection.
func (e *InvalidKeyError) Unwrap() error { return ErrInvalidKey }

// ParseChord parses "enter", "a", or "ctrl+shift+t". A lone "+" is the plus key.
func ParseChord(s string) (Chord, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Chord{}, &InvalidKeyError{Value: s, Reason: "empty"}
	}
	if trimmed == "+" {
		return Chord{Key: "+"}, nil
	}

	parts := strings.Split(trimmed, "+")
	// "ctrl++" names the plus key with a modifier.
	if strings.HasSuffix(trimmed, "++") {
		parts = append(parts[:len(parts)-2], "+")
	}
	var c Chord
	for i, part := range parts {
		last := i == len(parts)-1
		if part == "" {
			return Chord{}, &InvalidKeyError{Value: s, Reason: "empty segment"}
		}
		if !last {
			mod, ok := modifierAliases[strings.ToLower(part)]
			if !ok {
				return Chord{}, &InvalidKeyError{Value: s, Reason: fmt.Sprintf("unknown modifier %q", part)}
			}
			c.Mods = append(c.Mods, mod)
			continue
		}
		key, err := normalizeKey(part)
		if err != nil {
			return Chord{}, &InvalidKeyError{Value: s, Reason: err.Error()}
		}
		c.Key = key
	}
	return c, nil
}

// Named reports whether the chord's key is a named key rather than a character.
func (c Chord) Named() bool {
	_, ok := namedKeys[c.Key]
	return ok
}

// String renders the chord in canonical "mod+key" form.
func (c Chord) String() string {
	return strings.Join(append(append([]string{}, c.Mods...), c.Key), "+")
}

func normalizeKey(part string) (string, error) {
	if len([]rune(part)) == 1 {
		return part, nil
	}
	lower := strings.ToLower(part)
	if alias, ok := keyAliases[lower]; ok {
		lower = alias
	}
	if _, ok := namedKeys[lower]; ok {
		return lower, nil
	}
	return "", fmt.Errorf("unknown key name %q", part)
}

// SPDX-License-Identifier: MPL-2.0

package gui

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/omniauto/omniauto/internal/runtime"
	"github.com/omniauto/omniauto/pkg/platform"
)

// Mouse buttons.
const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
)

var (
	// ErrInvalidButton is returned when a button name is not recognized.
	ErrInvalidButton = errors.New("invalid mouse button")

	// ErrUnsupportedInput is returned when a backend cannot express a request,
	// such as a middle click through cliclick.
	ErrUnsupportedInput = errors.New("input not supported by this backend")
)

type (
	// Button names a mouse button.
	Button string

	// Point is a screen coordinate in pixels from the top-left corner.
	Point struct {
		X, Y int
	}

	// Backend translates input requests into tool invocations. Each method
	// returns one or more alternatives; the module runs the first whose
	// program is installed.
	Backend interface {
		Name() string
		Click(at *Point, button Button) ([]runtime.Command, error)
		Move(to Point) ([]runtime.Command, error)
		Type(text string) ([]runtime.Command, error)
		Press(chord Chord) ([]runtime.Command, error)
		Screenshot(path string) ([]runtime.Command, error)
	}

	// InvalidButtonError is returned when a Button value is not recognized.
	InvalidButtonError struct {
		Value Button
	}
)

// Error implements the error interface.
func (e *InvalidButtonError) Error() string {
	return fmt.Sprintf("invalid mouse button %q (valid: left, right, middle)", string(e.Value))
}

// Unwrap returns ErrInvalidButton so callers can use errors.Is for programmatic detection.
func (e *InvalidButtonError) Unwrap() error { return ErrInvalidButton }

// Validate returns nil if the button is one of the defined buttons.
func (b Button) Validate() error {
	switch b {
	case ButtonLeft, ButtonRight, ButtonMiddle:
		return nil
	default:
		return &InvalidButtonError{Value: b}
	}
}

// String returns the button name.
func (b Button) String() string { return string(b) }

// BackendFor returns the input backend conventional for id.
func BackendFor(id platform.Identity) (Backend, error) {
	switch id {
	case platform.Linux:
		return xdotoolBackend{}, nil
	case platform.Darwin:
		return macBackend{}, nil
	case platform.Windows:
		return powershellBackend{}, nil
	default:
		return nil, &platform.InvalidIdentityError{Value: id}
	}
}

func itoa(n int) string { return strconv.Itoa(n) }

func one(name string, args ...string) []runtime.Command {
	return []runtime.Command{{Name: name, Args: args}}
}

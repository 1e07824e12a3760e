// SPDX-License-Identifier: MPL-2.0

package gui

import (
	"fmt"
	"strings"

	"github.com/omniauto/omniauto/internal/runtime"
)

// powershellBackend drives Windows desktops through System.Windows.Forms and
// a user32 mouse_event binding.
type powershellBackend struct{}

var _ Backend = powershellBackend{}

const (
	psForms = "Add-Type -AssemblyName System.Windows.Forms,System.Drawing; "
	psMouse = `Add-Type -Name U -Namespace W -MemberDefinition '[DllImport("user32.dll")] public static extern void mouse_event(int f, int x, int y, int d, int e);'; `
)

// mouse_event down/up flags.
var psButtonFlags = map[Button][2]int{
	ButtonLeft:   {0x0002, 0x0004},
	ButtonRight:  {0x0008, 0x0010},
	ButtonMiddle: {0x0020, 0x0040},
}

var sendKeysModifiers = map[string]string{ModCtrl: "^", ModAlt: "%", ModShift: "+"}

func (powershellBackend) Name() string { return "powershell" }

func (powershellBackend) Click(at *Point, button Button) ([]runtime.Command, error) {
	flags := psButtonFlags[button]
	script := psForms + psMouse
	if at != nil {
		script += cursorTo(*at)
	}
	script += fmt.Sprintf("[W.U]::mouse_event(%d,0,0,0,0); [W.U]::mouse_event(%d,0,0,0,0)", flags[0], flags[1])
	return powershell(script), nil
}

func (powershellBackend) Move(to Point) ([]runtime.Command, error) {
	return powershell(psForms + cursorTo(to)), nil
}

func (powershellBackend) Type(text string) ([]runtime.Command, error) {
	return powershell(psForms + "[System.Windows.Forms.SendKeys]::SendWait(" + psQuote(sendKeysEscape(text)) + ")"), nil
}

func (powershellBackend) Press(chord Chord) ([]runtime.Command, error) {
	var b strings.Builder
	for _, m := range chord.Mods {
		prefix, ok := sendKeysModifiers[m]
		if !ok {
			return nil, fmt.Errorf("SendKeys modifier %q: %w", m, ErrUnsupportedInput)
		}
		b.WriteString(prefix)
	}
	if chord.Named() {
		b.WriteString(namedKeys[chord.Key].sendKeys)
	} else {
		b.WriteString(sendKeysEscape(chord.Key))
	}
	return powershell(psForms + "[System.Windows.Forms.SendKeys]::SendWait(" + psQuote(b.String()) + ")"), nil
}

func (powershellBackend) Screenshot(path string) ([]runtime.Command, error) {
	script := psForms +
		"$b = [System.Windows.Forms.Screen]::PrimaryScreen.Bounds; " +
		"$bmp = New-Object System.Drawing.Bitmap $b.Width, $b.Height; " +
		"$g = [System.Drawing.Graphics]::FromImage($bmp); " +
		"$g.CopyFromScreen($b.Location, [System.Drawing.Point]::Empty, $b.Size); " +
		"$bmp.Save(" + psQuote(path) + ", [System.Drawing.Imaging.ImageFormat]::Png); " +
		"$g.Dispose(); $bmp.Dispose()"
	return powershell(script), nil
}

func powershell(script string) []runtime.Command {
	return one("powershell", "-NoProfile", "-NonInteractive", "-Command", script)
}

func cursorTo(p Point) string {
	return fmt.Sprintf("[System.Windows.Forms.Cursor]::Position = New-Object System.Drawing.Point(%d, %d); ", p.X, p.Y)
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// sendKeysEscape brace-quotes characters SendKeys treats as syntax.
func sendKeysEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '+', '^', '%', '~', '(', ')', '{', '}', '[', ']':
			b.WriteString("{" + string(r) + "}")
		case '\n':
			b.WriteString("{ENTER}")
		case '\r':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

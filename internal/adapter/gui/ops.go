// SPDX-License-Identifier: MPL-2.0

package gui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/adapter/filesystem"
	"github.com/omniauto/omniauto/internal/runtime"
)

// ErrNoTool is returned when none of a backend's alternatives is installed.
var ErrNoTool = errors.New("no input tool installed")

func (m *Module) click(ctx context.Context, p action.Params) (action.Payload, error) {
	at, err := optionalPoint(p)
	if err != nil {
		return nil, err
	}
	name, err := p.OptString("button", string(ButtonLeft))
	if err != nil {
		return nil, err
	}
	button := Button(strings.ToLower(name))
	if err := button.Validate(); err != nil {
		return nil, action.Invalid("button", "%v", err)
	}

	cmds, err := m.backend.Click(at, button)
	if err := m.input(ctx, "click", cmds, err); err != nil {
		return nil, err
	}
	payload := action.Payload{"button": string(button)}
	if at != nil {
		payload["x"], payload["y"] = at.X, at.Y
	}
	return payload, nil
}

func (m *Module) moveMouse(ctx context.Context, p action.Params) (action.Payload, error) {
	at, err := optionalPoint(p)
	if err != nil {
		return nil, err
	}
	if at == nil {
		return nil, action.Invalid("x", "is required")
	}
	cmds, err := m.backend.Move(*at)
	if err := m.input(ctx, "move_mouse", cmds, err); err != nil {
		return nil, err
	}
	return action.Payload{"x": at.X, "y": at.Y}, nil
}

func (m *Module) typeText(ctx context.Context, p action.Params) (action.Payload, error) {
	v, _ := p.Lookup("text")
	text, ok := v.(string)
	if !ok {
		return nil, action.Invalid("text", "must be a string, got %T", v)
	}
	if text == "" {
		return nil, action.Invalid("text", "must not be empty")
	}
	cmds, err := m.backend.Type(text)
	if err := m.input(ctx, "type", cmds, err); err != nil {
		return nil, err
	}
	return action.Payload{"characters": len([]rune(text))}, nil
}

func (m *Module) pressKey(ctx context.Context, p action.Params) (action.Payload, error) {
	key, err := p.String("key")
	if err != nil {
		return nil, err
	}
	chord, err := ParseChord(key)
	if err != nil {
		return nil, action.Invalid("key", "%v", err)
	}
	cmds, err := m.backend.Press(chord)
	if err := m.input(ctx, "press_key", cmds, err); err != nil {
		return nil, err
	}
	return action.Payload{"key": chord.String()}, nil
}

func (m *Module) screenshot(ctx context.Context, p action.Params) (action.Payload, error) {
	name, err := p.OptString("filename", "", "path")
	if err != nil {
		return nil, err
	}
	if filesystem.HasTraversal(name) {
		return nil, action.Invalid("filename", "must not contain '..' path segments")
	}
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("screenshot_%d.png", m.now().Unix())
	}
	path := filepath.FromSlash(name)
	if !filepath.IsAbs(path) && m.screenshotDir != "" {
		path = filepath.Join(m.screenshotDir, path)
	}

	cmds, err := m.backend.Screenshot(path)
	if err != nil {
		return nil, action.Fail("screenshot", err)
	}
	tool, err := m.runFirst(ctx, cmds)
	if err != nil {
		return nil, action.Fail("screenshot", err)
	}
	return action.Payload{"path": path, "tool": tool}, nil
}

func (m *Module) wait(ctx context.Context, p action.Params) (action.Payload, error) {
	d, err := p.OptSeconds("duration", time.Second, "seconds")
	if err != nil {
		return nil, err
	}
	if err := sleep(ctx, d); err != nil {
		return nil, action.Fail("wait", err)
	}
	return action.Payload{"waited_seconds": d.Seconds()}, nil
}

// input runs a backend invocation and then applies the configured pause.
func (m *Module) input(ctx context.Context, name string, cmds []runtime.Command, buildErr error) error {
	if buildErr != nil {
		return action.Fail(name, buildErr)
	}
	if _, err := m.runFirst(ctx, cmds); err != nil {
		return action.Fail(name, err)
	}
	if err := sleep(ctx, m.pause); err != nil {
		return action.Fail(name, err)
	}
	return nil
}

// runFirst runs the first alternative whose program is installed and returns its name.
func (m *Module) runFirst(ctx context.Context, cmds []runtime.Command) (string, error) {
	tried := make([]string, 0, len(cmds))
	for i := range cmds {
		cmd := cmds[i]
		if _, err := m.exec.LookPath(cmd.Name); err != nil {
			tried = append(tried, cmd.Name)
			continue
		}
		m.logger.Debug("running input tool", "tool", cmd.Name, "backend", m.backend.Name())
		if err := m.exec.Run(ctx, &cmd).Err(cmd.Name); err != nil {
			return cmd.Name, err
		}
		return cmd.Name, nil
	}
	return "", fmt.Errorf("%w: tried %s", ErrNoTool, strings.Join(tried, ", "))
}

// optionalPoint reads x and y, which must be given together.
func optionalPoint(p action.Params) (*Point, error) {
	hasX, hasY := p.Has("x"), p.Has("y")
	if !hasX && !hasY {
		return nil, nil
	}
	if hasX != hasY {
		missing := "y"
		if !hasX {
			missing = "x"
		}
		return nil, action.Invalid(missing, "x and y must be given together")
	}
	x, err := p.Int("x")
	if err != nil {
		return nil, err
	}
	y, err := p.Int("y")
	if err != nil {
		return nil, err
	}
	if x < 0 || y < 0 {
		return nil, action.Invalid("x", "coordinates must be non-negative, got %d,%d", x, y)
	}
	return &Point{X: x, Y: y}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

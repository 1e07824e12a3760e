// SPDX-License-Identifier: MPL-2.0

package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/watch"
)

const defaultWaitTimeout = 30 * time.Second

func (m *Module) createFolder(_ context.Context, p action.Params) (action.Payload, error) {
	raw, err := p.String("name", "folder_name")
	if err != nil {
		return nil, err
	}
	location, err := p.OptString("location", "")
	if err != nil {
		return nil, err
	}
	existOK, err := p.OptBool("exist_ok", true)
	if err != nil {
		return nil, err
	}
	if err := rejectTraversal("name", raw); err != nil {
		return nil, err
	}
	if err := rejectTraversal("location", location); err != nil {
		return nil, err
	}

	name := m.flavor.sanitize(raw)
	path := m.resolve(filepath.Join(filepath.FromSlash(location), name))
	created, err := m.mkdir(path, existOK)
	if err != nil {
		return nil, action.Fail("create_folder", err)
	}
	return action.Payload{"path": path, "name": name, "created": created}, nil
}

func (m *Module) createFoldersBatch(_ context.Context, p action.Params) (action.Payload, error) {
	startName, err := p.String("start_name")
	if err != nil {
		return nil, err
	}
	endName, err := p.String("end_name")
	if err != nil {
		return nil, err
	}
	location, err := p.OptString("location", "")
	if err != nil {
		return nil, err
	}
	count, err := p.OptInt("count", -1)
	if err != nil {
		return nil, err
	}
	if err := rejectTraversal("location", location); err != nil {
		return nil, err
	}
	nameRange, err := ParseNameRange(startName, endName)
	if err != nil {
		return nil, err
	}

	report := &action.BatchReport{Requested: nameRange.Len()}
	for _, name := range nameRange.Names() {
		path := m.resolve(filepath.Join(filepath.FromSlash(location), m.flavor.sanitize(name)))
		if _, err := m.mkdir(path, true); err != nil {
			m.logger.Debug("batch folder failed", "name", name, "err", err)
			report.Failure(name, err)
			continue
		}
		report.Succeed(name)
	}

	payload := report.Payload()
	payload["location"] = m.resolve(location)
	if count >= 0 && count != nameRange.Len() {
		payload["requested_count"] = count
	}
	return payload, report.Err()
}

func (m *Module) createFile(_ context.Context, p action.Params) (action.Payload, error) {
	raw, err := p.String("name", "file_name", "filename")
	if err != nil {
		return nil, err
	}
	location, err := p.OptString("location", "")
	if err != nil {
		return nil, err
	}
	content, err := p.OptString("content", "")
	if err != nil {
		return nil, err
	}
	if err := rejectTraversal("name", raw); err != nil {
		return nil, err
	}
	if err := rejectTraversal("location", location); err != nil {
		return nil, err
	}

	name := m.flavor.sanitize(raw)
	path := m.resolve(filepath.Join(filepath.FromSlash(location), name))
	if err := os.MkdirAll(filepath.Dir(path), m.dirMode()); err != nil {
		return nil, action.Fail("create_file", err)
	}
	if err := os.WriteFile(path, []byte(content), m.fileMode()); err != nil {
		return nil, action.Fail("create_file", err)
	}
	if m.flavor.ApplyModes {
		if err := os.Chmod(path, m.flavor.FileMode); err != nil {
			return nil, action.Fail("create_file", err)
		}
	}
	return action.Payload{"path": path, "name": name, "bytes": len(content)}, nil
}

func (m *Module) delete(_ context.Context, p action.Params) (action.Payload, error) {
	raw, err := p.String("path")
	if err != nil {
		return nil, err
	}
	recursive, err := p.OptBool("recursive", true)
	if err != nil {
		return nil, err
	}

	path := m.resolve(raw)
	if abs, absErr := filepath.Abs(path); absErr == nil && filepath.Dir(abs) == abs {
		return nil, action.Invalid("path", "refusing to delete the filesystem root")
	}

	info, err := os.Lstat(path)
	if err != nil {
		return nil, action.Fail("delete", err)
	}
	if info.IsDir() && recursive {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil {
		return nil, action.Fail("delete", err)
	}
	return action.Payload{"path": path, "type": entryType(info), "deleted": true}, nil
}

func (m *Module) copy(_ context.Context, p action.Params) (action.Payload, error) {
	src, dst, err := sourceAndDestination(p)
	if err != nil {
		return nil, err
	}
	src, dst = m.resolve(src), m.resolve(dst)

	info, err := os.Stat(src)
	if err != nil {
		return nil, action.Fail("copy", err)
	}
	dst = intoDirectory(src, dst)
	if err := copyTree(src, dst, info); err != nil {
		return nil, action.Fail("copy", err)
	}
	return action.Payload{"source": src, "destination": dst, "type": entryType(info)}, nil
}

func (m *Module) move(_ context.Context, p action.Params) (action.Payload, error) {
	src, dst, err := sourceAndDestination(p)
	if err != nil {
		return nil, err
	}
	src, dst = m.resolve(src), m.resolve(dst)

	info, err := os.Lstat(src)
	if err != nil {
		return nil, action.Fail("move", err)
	}
	dst = intoDirectory(src, dst)

	if renameErr := os.Rename(src, dst); renameErr != nil {
		// Rename cannot cross filesystems; fall back to copy and delete.
		if copyErr := copyTree(src, dst, info); copyErr != nil {
			return nil, action.Fail("move", errors.Join(renameErr, copyErr))
		}
		if err := os.RemoveAll(src); err != nil {
			return nil, action.Fail("move", err)
		}
	}
	return action.Payload{"source": src, "destination": dst, "type": entryType(info)}, nil
}

func (m *Module) list(_ context.Context, p action.Params) (action.Payload, error) {
	raw, err := p.OptString("path", ".")
	if err != nil {
		return nil, err
	}
	dir := m.resolve(raw)

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, action.Fail("list", err)
	}

	entries := make([]map[string]any, 0, len(dirEntries))
	for _, de := range dirEntries {
		info, err := de.Info()
		if err != nil {
			// Entry vanished between ReadDir and Info.
			continue
		}
		entries = append(entries, m.describe(filepath.Join(dir, de.Name()), info))
	}
	return action.Payload{"path": dir, "entries": entries, "count": len(entries)}, nil
}

func (m *Module) info(_ context.Context, p action.Params) (action.Payload, error) {
	raw, err := p.String("path")
	if err != nil {
		return nil, err
	}
	path := m.resolve(raw)

	linfo, err := os.Lstat(path)
	if err != nil {
		return nil, action.Fail("info", err)
	}
	info := linfo
	if linfo.Mode()&fs.ModeSymlink != 0 {
		if target, statErr := os.Stat(path); statErr == nil {
			info = target
		}
	}

	payload := action.Payload(m.describe(path, info))
	payload["mode"] = info.Mode().String()
	payload["is_symlink"] = linfo.Mode()&fs.ModeSymlink != 0
	return payload, nil
}

func (m *Module) find(_ context.Context, p action.Params) (action.Payload, error) {
	pattern, err := p.String("pattern")
	if err != nil {
		return nil, err
	}
	rawRoot, err := p.OptString("root", ".")
	if err != nil {
		return nil, err
	}
	pattern = filepath.ToSlash(pattern)
	if strings.HasPrefix(pattern, "/") || !doublestar.ValidatePattern(pattern) {
		return nil, action.Invalid("pattern", "must be a valid glob relative to root, got %q", pattern)
	}

	root := m.resolve(rawRoot)
	matches, err := doublestar.Glob(os.DirFS(root), pattern)
	if err != nil {
		return nil, action.Fail("find", err)
	}
	sort.Strings(matches)
	paths := make([]string, len(matches))
	for i, rel := range matches {
		paths[i] = filepath.Join(root, filepath.FromSlash(rel))
	}
	return action.Payload{"root": root, "pattern": pattern, "matches": paths, "count": len(paths)}, nil
}

func (m *Module) waitFor(ctx context.Context, p action.Params) (action.Payload, error) {
	raw, err := p.String("path")
	if err != nil {
		return nil, err
	}
	pattern, err := p.OptString("pattern", "")
	if err != nil {
		return nil, err
	}
	timeout, err := p.OptSeconds("timeout", defaultWaitTimeout)
	if err != nil {
		return nil, err
	}

	path := m.resolve(raw)
	dir := path
	if pattern == "" {
		dir, pattern = filepath.Dir(path), escapeGlob(filepath.Base(path))
	} else if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
		return nil, action.Invalid("pattern", "invalid glob %q", pattern)
	}

	if _, err := os.Stat(dir); err != nil {
		return nil, action.Fail("wait_for", err)
	}

	start := time.Now()
	rel, err := watch.WaitFor(ctx, dir, filepath.ToSlash(pattern), timeout)
	if err != nil {
		return nil, action.Fail("wait_for", err)
	}
	return action.Payload{
		"path":      filepath.Join(dir, filepath.FromSlash(rel)),
		"waited_ms": time.Since(start).Milliseconds(),
	}, nil
}

// mkdir creates path and its parents. It reports whether the folder was newly
// created; an existing folder is an error only when existOK is false.
func (m *Module) mkdir(path string, existOK bool) (bool, error) {
	if info, err := os.Stat(path); err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists and is not a directory", path)
		}
		if !existOK {
			return false, fmt.Errorf("%s: %w", path, fs.ErrExist)
		}
		return false, nil
	}
	if err := os.MkdirAll(path, m.dirMode()); err != nil {
		return false, err
	}
	if m.flavor.ApplyModes {
		if err := os.Chmod(path, m.flavor.DirMode); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (m *Module) describe(path string, info fs.FileInfo) map[string]any {
	entry := map[string]any{
		"name":     info.Name(),
		"path":     path,
		"type":     entryType(info),
		"size":     info.Size(),
		"modified": float64(info.ModTime().UnixNano()) / float64(time.Second),
	}
	if m.flavor.ReportPermissions {
		entry["permissions"] = fmt.Sprintf("%03o", info.Mode().Perm())
	}
	return entry
}

func (m *Module) dirMode() fs.FileMode {
	if m.flavor.DirMode != 0 {
		return m.flavor.DirMode
	}
	return 0o755
}

func (m *Module) fileMode() fs.FileMode {
	if m.flavor.FileMode != 0 {
		return m.flavor.FileMode
	}
	return 0o644
}

func sourceAndDestination(p action.Params) (string, string, error) {
	src, err := p.String("source")
	if err != nil {
		return "", "", err
	}
	dst, err := p.String("destination")
	if err != nil {
		return "", "", err
	}
	if err := rejectTraversal("destination", dst); err != nil {
		return "", "", err
	}
	return src, dst, nil
}

// intoDirectory places src inside dst when dst is an existing directory.
func intoDirectory(src, dst string) string {
	if info, err := os.Stat(dst); err == nil && info.IsDir() {
		return filepath.Join(dst, filepath.Base(src))
	}
	return dst
}

func entryType(info fs.FileInfo) string {
	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		return "symlink"
	case info.IsDir():
		return "directory"
	default:
		return "file"
	}
}

// copyTree refuses an existing directory destination so a name clash
// cannot leave a half-merged tree behind.
func copyTree(src, dst string, info fs.FileInfo) error {
	if info.IsDir() {
		if _, err := os.Lstat(dst); err == nil {
			return &fs.PathError{Op: "copy", Path: dst, Err: fs.ErrExist}
		}
		return os.CopyFS(dst, os.DirFS(src))
	}
	return copyFile(src, dst, info)
}

// copyFile copies contents, permission bits, and modification time.
func copyFile(src, dst string, info fs.FileInfo) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	if err = out.Chmod(info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, time.Now(), info.ModTime())
}

// escapeGlob quotes glob metacharacters so name matches itself literally.
func escapeGlob(name string) string {
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(`*?[]{}\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

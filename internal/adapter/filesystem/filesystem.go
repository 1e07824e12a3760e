// SPDX-License-Identifier: MPL-2.0

package filesystem

import (
	"io"
	"io/fs"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/pkg/platform"
)

var _ action.ModuleAdapter = (*Module)(nil)

type (
	// Flavor captures the per-platform differences of the filesystem module.
	Flavor struct {
		// Platform is reported in payloads for diagnostics.
		Platform platform.Identity
		// ReportPermissions adds octal permission bits to list and info entries.
		ReportPermissions bool
		// ApplyModes chmods created folders to DirMode and files to FileMode,
		// overriding the process umask.
		ApplyModes bool
		DirMode    fs.FileMode
		FileMode   fs.FileMode
		// EscapeReserved suffixes Placeholder to device names such as "CON"
		// that the platform refuses to create.
		EscapeReserved bool
	}

	// Options configures a Module.
	Options struct {
		Flavor Flavor
		// BaseDir anchors relative locations and paths. Empty means the process
		// working directory.
		BaseDir string
		Logger  *log.Logger
		// Dispatch is forwarded to the action dispatcher (policy, request IDs).
		Dispatch []action.DispatcherOption
	}

	// Module is the filesystem ModuleAdapter.
	Module struct {
		*action.Dispatcher

		flavor  Flavor
		baseDir string
		logger  *log.Logger
	}
)

// FlavorFor returns the filesystem flavor for a platform.
func FlavorFor(id platform.Identity) Flavor {
	switch id {
	case platform.Linux:
		return Flavor{Platform: id, ReportPermissions: true, ApplyModes: true, DirMode: 0o755, FileMode: 0o644}
	case platform.Darwin:
		return Flavor{Platform: id, ReportPermissions: true}
	case platform.Windows:
		return Flavor{Platform: id, EscapeReserved: true}
	default:
		return Flavor{Platform: id}
	}
}

// New builds the filesystem module.
func New(opts Options) (*Module, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	m := &Module{flavor: opts.Flavor, baseDir: opts.BaseDir, logger: logger}

	dispatchOpts := append([]action.DispatcherOption{action.WithLogger(logger)}, opts.Dispatch...)
	d, err := action.NewDispatcher(action.CapabilityFilesystem, m.specs(), dispatchOpts...)
	if err != nil {
		return nil, err
	}
	m.Dispatcher = d
	return m, nil
}

// Flavor returns the platform flavor this module was built with.
func (m *Module) Flavor() Flavor { return m.flavor }

// resolve anchors a relative path at the module's base directory.
func (m *Module) resolve(p string) string {
	if p == "" {
		p = "."
	}
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) || m.baseDir == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(m.baseDir, p)
}

func (m *Module) specs() []action.Spec {
	location := action.ParamSpec{Name: "location", Type: action.ParamString, Description: "Parent directory; created if missing"}
	return []action.Spec{
		{
			Name:        "create_folder",
			Description: "Create a folder (and missing parents); succeeds if it already exists",
			Risk:        action.RiskModerate,
			Params: []action.ParamSpec{
				{Name: "name", Type: action.ParamString, Required: true, Aliases: []string{"folder_name"}, Description: "Folder name; unsafe characters are replaced"},
				location,
				{Name: "exist_ok", Type: action.ParamBoolean, Description: "Treat an existing folder as success (default true)"},
			},
			Handler: m.createFolder,
		},
		{
			Name:        "create_folders_batch",
			Description: "Create a numbered range of folders such as project1..project10",
			Risk:        action.RiskModerate,
			Params: []action.ParamSpec{
				{Name: "start_name", Type: action.ParamString, Required: true, Description: "First name of the range, e.g. project1"},
				{Name: "end_name", Type: action.ParamString, Required: true, Description: "Last name of the range, e.g. project10"},
				location,
				{Name: "count", Type: action.ParamInteger, Description: "Advisory; the range is derived from the names"},
			},
			Handler: m.createFoldersBatch,
		},
		{
			Name:        "create_file",
			Description: "Create or overwrite a file with optional content",
			Risk:        action.RiskModerate,
			Params: []action.ParamSpec{
				{Name: "name", Type: action.ParamString, Required: true, Aliases: []string{"file_name", "filename"}, Description: "File name; unsafe characters are replaced"},
				location,
				{Name: "content", Type: action.ParamString, Description: "Text written to the file"},
			},
			Handler: m.createFile,
		},
		{
			Name:        "delete",
			Description: "Delete a file or folder",
			Risk:        action.RiskHigh,
			Params: []action.ParamSpec{
				{Name: "path", Type: action.ParamString, Required: true},
				{Name: "recursive", Type: action.ParamBoolean, Description: "Delete folder contents too (default true)"},
			},
			Handler: m.delete,
		},
		{
			Name:        "copy",
			Description: "Copy a file or folder tree",
			Risk:        action.RiskModerate,
			Params: []action.ParamSpec{
				{Name: "source", Type: action.ParamString, Required: true},
				{Name: "destination", Type: action.ParamString, Required: true},
			},
			Handler: m.copy,
		},
		{
			Name:        "move",
			Description: "Move or rename a file or folder",
			Risk:        action.RiskHigh,
			Params: []action.ParamSpec{
				{Name: "source", Type: action.ParamString, Required: true},
				{Name: "destination", Type: action.ParamString, Required: true},
			},
			Handler: m.move,
		},
		{
			Name:        "list",
			Description: "List directory entries",
			Risk:        action.RiskSafe,
			Params:      []action.ParamSpec{{Name: "path", Type: action.ParamString, Description: "Directory to list (default .)"}},
			Handler:     m.list,
		},
		{
			Name:        "info",
			Description: "Report metadata for a file or folder",
			Risk:        action.RiskSafe,
			Params:      []action.ParamSpec{{Name: "path", Type: action.ParamString, Required: true}},
			Handler:     m.info,
		},
		{
			Name:        "find",
			Description: "Find paths matching a glob such as **/*.pdf",
			Risk:        action.RiskSafe,
			Params: []action.ParamSpec{
				{Name: "pattern", Type: action.ParamString, Required: true},
				{Name: "root", Type: action.ParamString, Description: "Directory to search (default .)"},
			},
			Handler: m.find,
		},
		{
			Name:        "wait_for",
			Description: "Wait until a path, or a path matching a pattern under it, exists",
			Risk:        action.RiskSafe,
			Params: []action.ParamSpec{
				{Name: "path", Type: action.ParamString, Required: true},
				{Name: "pattern", Type: action.ParamString, Description: "Glob relative to path; path is then a directory"},
				{Name: "timeout", Type: action.ParamNumber, Description: "Seconds to wait (default 30)"},
			},
			Handler: m.waitFor,
		},
	}
}

// SPDX-License-Identifier: MPL-2.0

package network

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/omniauto/omniauto/internal/action"
)

const (
	// DefaultRequestTimeout bounds http_get and http_post when no timeout is given.
	DefaultRequestTimeout = 30 * time.Second
	// DefaultDownloadTimeout bounds download when no timeout is given.
	DefaultDownloadTimeout = 5 * time.Minute
	// DefaultMaxBody caps response bodies returned in payloads.
	DefaultMaxBody int64 = 10 << 20
	// DefaultFilename names downloads whose URL has no final path segment.
	DefaultFilename = "downloaded_file"
	// DefaultSSHPort is used by sftp_upload when no port is given.
	DefaultSSHPort = 22
)

var _ action.ModuleAdapter = (*Module)(nil)

type (
	// Options configures a Module.
	Options struct {
		// Client performs HTTP requests. Nil means a client with no overall timeout;
		// per-request deadlines come from the timeout parameter.
		Client *http.Client
		// BaseDir anchors relative download and upload paths.
		BaseDir string
		// MaxBody caps response content in http_get and http_post payloads.
		MaxBody   int64
		UserAgent string
		Inspector Inspector
		Uploader  Uploader
		// KnownHosts is the default known_hosts file for sftp_upload.
		KnownHosts string
		// Hostname reports the local host name. Nil means os.Hostname.
		Hostname func() (string, error)
		Logger   *log.Logger
		Dispatch []action.DispatcherOption
	}

	// Module is the network ModuleAdapter.
	Module struct {
		*action.Dispatcher

		client     *http.Client
		baseDir    string
		maxBody    int64
		userAgent  string
		inspector  Inspector
		uploader   Uploader
		knownHosts string
		hostname   func() (string, error)
		logger     *log.Logger
	}
)

// New builds the network module.
func New(opts Options) (*Module, error) {
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.MaxBody <= 0 {
		opts.MaxBody = DefaultMaxBody
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "omniauto"
	}
	if opts.Inspector == nil {
		opts.Inspector = HostInspector{}
	}
	if opts.Uploader == nil {
		opts.Uploader = SFTPUploader{}
	}
	if opts.Hostname == nil {
		opts.Hostname = os.Hostname
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	m := &Module{
		client:     opts.Client,
		baseDir:    opts.BaseDir,
		maxBody:    opts.MaxBody,
		userAgent:  opts.UserAgent,
		inspector:  opts.Inspector,
		uploader:   opts.Uploader,
		knownHosts: opts.KnownHosts,
		hostname:   opts.Hostname,
		logger:     opts.Logger,
	}
	dispatchOpts := append([]action.DispatcherOption{action.WithLogger(opts.Logger)}, opts.Dispatch...)
	d, err := action.NewDispatcher(action.CapabilityNetwork, m.specs(), dispatchOpts...)
	if err != nil {
		return nil, err
	}
	m.Dispatcher = d
	return m, nil
}

func (m *Module) specs() []action.Spec {
	url := action.ParamSpec{Name: "url", Type: action.ParamString, Required: true}
	headers := action.ParamSpec{Name: "headers", Type: action.ParamObject}
	timeout := action.ParamSpec{Name: "timeout", Type: action.ParamNumber, Description: "Seconds"}
	return []action.Spec{
		{
			Name:        "download",
			Description: "Download a URL to a local file",
			Risk:        action.RiskModerate,
			Params:      []action.ParamSpec{url, {Name: "filename", Type: action.ParamString, Aliases: []string{"path"}}, headers, timeout},
			Handler:     m.download,
		},
		{
			Name:        "http_get",
			Description: "Send a GET request and return status, headers, and content",
			Risk:        action.RiskSafe,
			Params:      []action.ParamSpec{url, headers, timeout},
			Handler:     m.httpGet,
		},
		{
			Name:        "http_post",
			Description: "Send a POST request with a text or JSON body",
			Risk:        action.RiskModerate,
			Params: []action.ParamSpec{
				url,
				{Name: "body", Type: action.ParamString, Aliases: []string{"data"}},
				{Name: "json", Type: action.ParamAny},
				{Name: "content_type", Type: action.ParamString},
				headers, timeout,
			},
			Handler: m.httpPost,
		},
		{
			Name:        "get_info",
			Description: "Report host name, primary address, interfaces, and traffic totals",
			Risk:        action.RiskSafe,
			Handler:     m.getInfo,
		},
		{
			Name:        "sftp_upload",
			Description: "Upload a local file to a remote host over SFTP",
			Risk:        action.RiskHigh,
			Params: []action.ParamSpec{
				{Name: "host", Type: action.ParamString, Required: true},
				{Name: "user", Type: action.ParamString, Required: true, Aliases: []string{"username"}},
				{Name: "source", Type: action.ParamString, Required: true, Aliases: []string{"local_path"}},
				{Name: "destination", Type: action.ParamString, Aliases: []string{"remote_path"}},
				{Name: "port", Type: action.ParamInteger},
				{Name: "password", Type: action.ParamString},
				{Name: "key_file", Type: action.ParamString},
				{Name: "known_hosts", Type: action.ParamString},
				timeout,
			},
			Handler: m.sftpUpload,
		},
	}
}

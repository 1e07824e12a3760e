// SPDX-License-Identifier: MPL-2.0

package network

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniauto/omniauto/internal/action"
)

type fakeInspector struct {
	ifaces      []Interface
	countersErr error
}

func (f fakeInspector) Interfaces(context.Context) ([]Interface, error) { return f.ifaces, nil }

func (f fakeInspector) Counters(context.Context) (Counters, error) {
	return Counters{BytesSent: 10, BytesRecv: 20}, f.countersErr
}

type fakeUploader struct {
	mu     sync.Mutex
	target SFTPTarget
	local  string
	remote string
	calls  int
	err    error
}

func (f *fakeUploader) Upload(_ context.Context, target SFTPTarget, localPath, remotePath string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.target, f.local, f.remote = target, localPath, remotePath
	if f.err != nil {
		return 0, f.err
	}
	info, err := os.Stat(localPath)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /files/report.csv", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, "a,b\n1,2\n")
	})
	mux.HandleFunc("GET /files/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "index")
	})
	mux.HandleFunc("GET /missing", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})
	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "token": r.Header.Get("X-Token")})
	})
	mux.HandleFunc("GET /slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	mux.HandleFunc("POST /echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"content_type": r.Header.Get("Content-Type"),
			"body":         string(body),
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newModule(t *testing.T, mutate ...func(*Options)) (*Module, string) {
	t.Helper()
	dir := t.TempDir()
	opts := Options{
		BaseDir: dir,
		Inspector: fakeInspector{ifaces: []Interface{
			{Name: "lo", Addrs: []string{"127.0.0.1/8", "::1/128"}},
			{Name: "eth0", HardwareAddr: "aa:bb:cc:dd:ee:ff", Addrs: []string{"fe80::1/64", "169.254.1.1/16", "192.168.1.20/24"}},
		}},
		Hostname: func() (string, error) { return "build-01", nil },
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	m, err := New(opts)
	require.NoError(t, err)
	return m, dir
}

func run(m *Module, name string, params action.Params) *action.Result {
	return m.Execute(context.Background(), name, params)
}

func TestCapabilities(t *testing.T) {
	t.Parallel()

	m, _ := newModule(t)
	assert.Equal(t, action.CapabilityNetwork, m.Capability())
	assert.Equal(t, []string{"download", "http_get", "http_post", "get_info", "sftp_upload"}, m.Capabilities())
}

func TestDownload(t *testing.T) {
	t.Parallel()
	srv := newServer(t)

	t.Run("name from url", func(t *testing.T) {
		t.Parallel()
		m, dir := newModule(t)

		res := run(m, "download", action.Params{"url": srv.URL + "/files/report.csv"})
		require.True(t, res.Success, res.Error)
		assert.Equal(t, filepath.Join(dir, "report.csv"), res.Payload["path"])
		assert.EqualValues(t, 8, res.Payload["bytes"])

		data, err := os.ReadFile(filepath.Join(dir, "report.csv"))
		require.NoError(t, err)
		assert.Equal(t, "a,b\n1,2\n", string(data))
	})

	t.Run("default name when url has no segment", func(t *testing.T) {
		t.Parallel()
		m, dir := newModule(t)

		res := run(m, "download", action.Params{"url": srv.URL + "/files/"})
		require.True(t, res.Success, res.Error)
		assert.Equal(t, filepath.Join(dir, "files"), res.Payload["path"])

		res = run(m, "download", action.Params{"url": srv.URL})
		require.False(t, res.Success)
	})

	t.Run("explicit filename in subdirectory", func(t *testing.T) {
		t.Parallel()
		m, dir := newModule(t)

		res := run(m, "download", action.Params{"url": srv.URL + "/files/report.csv", "filename": "out/r.csv"})
		require.True(t, res.Success, res.Error)
		assert.FileExists(t, filepath.Join(dir, "out", "r.csv"))
	})

	t.Run("non-2xx fails and writes nothing", func(t *testing.T) {
		t.Parallel()
		m, dir := newModule(t)

		res := run(m, "download", action.Params{"url": srv.URL + "/missing"})
		assert.Equal(t, action.KindOperationFailure, res.Kind)
		assert.Contains(t, res.Error, "404")
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("traversal rejected", func(t *testing.T) {
		t.Parallel()
		m, _ := newModule(t)

		res := run(m, "download", action.Params{"url": srv.URL + "/files/report.csv", "filename": "../escape.csv"})
		assert.Equal(t, action.KindValidation, res.Kind)
	})
}

func TestHTTPGet(t *testing.T) {
	t.Parallel()
	srv := newServer(t)

	t.Run("json response", func(t *testing.T) {
		t.Parallel()
		m, _ := newModule(t)

		res := run(m, "http_get", action.Params{"url": srv.URL + "/api/status", "headers": map[string]any{"X-Token": "abc"}})
		require.True(t, res.Success, res.Error)
		assert.Equal(t, 200, res.Payload["status_code"])
		assert.Equal(t, map[string]any{"ok": true, "token": "abc"}, res.Payload["json"])
		headers, ok := res.Payload["headers"].(map[string]string)
		require.True(t, ok)
		assert.Equal(t, "application/json; charset=utf-8", headers["Content-Type"])
	})

	t.Run("non-json has no json field", func(t *testing.T) {
		t.Parallel()
		m, _ := newModule(t)

		res := run(m, "http_get", action.Params{"url": srv.URL + "/files/report.csv"})
		require.True(t, res.Success, res.Error)
		assert.NotContains(t, res.Payload, "json")
		assert.Equal(t, "a,b\n1,2\n", res.Payload["content"])
	})

	t.Run("error status is still a response", func(t *testing.T) {
		t.Parallel()
		m, _ := newModule(t)

		res := run(m, "http_get", action.Params{"url": srv.URL + "/missing"})
		require.True(t, res.Success, res.Error)
		assert.Equal(t, 404, res.Payload["status_code"])
	})

	t.Run("truncates large bodies", func(t *testing.T) {
		t.Parallel()
		m, _ := newModule(t, func(o *Options) { o.MaxBody = 3 })

		res := run(m, "http_get", action.Params{"url": srv.URL + "/files/report.csv"})
		require.True(t, res.Success, res.Error)
		assert.Equal(t, "a,b", res.Payload["content"])
		assert.Equal(t, true, res.Payload["truncated"])
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		m, _ := newModule(t)

		res := run(m, "http_get", action.Params{"url": srv.URL + "/slow", "timeout": 0.05})
		assert.Equal(t, action.KindOperationFailure, res.Kind)
		assert.ErrorIs(t, res.Err(), context.DeadlineExceeded)
	})

	t.Run("invalid urls", func(t *testing.T) {
		t.Parallel()
		m, _ := newModule(t)

		for _, u := range []string{"ftp://example.com/x", "not a url", "http://", "  "} {
			res := run(m, "http_get", action.Params{"url": u})
			assert.Equal(t, action.KindValidation, res.Kind, u)
		}
	})
}

func TestHTTPPost(t *testing.T) {
	t.Parallel()
	srv := newServer(t)
	m, _ := newModule(t)

	res := run(m, "http_post", action.Params{"url": srv.URL + "/echo", "json": map[string]any{"name": "omni"}})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, map[string]any{"content_type": "application/json", "body": `{"name":"omni"}`}, res.Payload["json"])

	res = run(m, "http_post", action.Params{"url": srv.URL + "/echo", "body": "a=1", "content_type": "application/x-www-form-urlencoded"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, map[string]any{"content_type": "application/x-www-form-urlencoded", "body": "a=1"}, res.Payload["json"])

	res = run(m, "http_post", action.Params{"url": srv.URL + "/echo", "body": "x", "json": map[string]any{}})
	assert.Equal(t, action.KindValidation, res.Kind)
}

func TestGetInfo(t *testing.T) {
	t.Parallel()

	m, _ := newModule(t)
	res := run(m, "get_info", nil)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "build-01", res.Payload["hostname"])
	assert.Equal(t, "192.168.1.20", res.Payload["ip_address"])
	ifaces, ok := res.Payload["network_interfaces"].([]map[string]any)
	require.True(t, ok)
	assert.Len(t, ifaces, 2)
	assert.Contains(t, res.Payload, "io_counters")

	noCounters, _ := newModule(t, func(o *Options) {
		o.Inspector = fakeInspector{countersErr: errors.New("unsupported")}
	})
	res = run(noCounters, "get_info", nil)
	require.True(t, res.Success, res.Error)
	assert.NotContains(t, res.Payload, "io_counters")
	assert.Equal(t, "", res.Payload["ip_address"])
}

func TestSFTPUpload(t *testing.T) {
	t.Parallel()

	t.Run("uploads into remote directory", func(t *testing.T) {
		t.Parallel()
		up := &fakeUploader{}
		m, dir := newModule(t, func(o *Options) { o.Uploader = up })
		require.NoError(t, os.WriteFile(filepath.Join(dir, "build.tar"), []byte("12345"), 0o644))

		res := run(m, "sftp_upload", action.Params{
			"host": "device.local", "user": "deck", "password": "pw",
			"source": "build.tar", "destination": `games\`, "port": "2222",
		})
		require.True(t, res.Success, res.Error)
		assert.Equal(t, "games/build.tar", up.remote)
		assert.Equal(t, 2222, up.target.Port)
		assert.EqualValues(t, 5, res.Payload["bytes"])
	})

	t.Run("requires credentials", func(t *testing.T) {
		t.Parallel()
		up := &fakeUploader{}
		m, _ := newModule(t, func(o *Options) { o.Uploader = up })

		res := run(m, "sftp_upload", action.Params{"host": "h", "user": "u", "source": "x"})
		assert.Equal(t, action.KindValidation, res.Kind)
		assert.Zero(t, up.calls)
	})

	t.Run("missing source", func(t *testing.T) {
		t.Parallel()
		up := &fakeUploader{}
		m, _ := newModule(t, func(o *Options) { o.Uploader = up })

		res := run(m, "sftp_upload", action.Params{"host": "h", "user": "u", "source": "nope", "key_file": "/k"})
		assert.Equal(t, action.KindOperationFailure, res.Kind)
		assert.Zero(t, up.calls)
	})

	t.Run("bad port", func(t *testing.T) {
		t.Parallel()
		m, _ := newModule(t)

		res := run(m, "sftp_upload", action.Params{"host": "h", "user": "u", "source": "x", "password": "p", "port": 70000})
		assert.Equal(t, action.KindValidation, res.Kind)
	})

	t.Run("uploader failure", func(t *testing.T) {
		t.Parallel()
		up := &fakeUploader{err: errors.New("connection refused")}
		m, dir := newModule(t, func(o *Options) { o.Uploader = up })
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), nil, 0o644))

		res := run(m, "sftp_upload", action.Params{"host": "h", "user": "u", "source": "a.txt", "password": "p"})
		assert.Equal(t, action.KindOperationFailure, res.Kind)
		assert.Contains(t, res.Error, "connection refused")
	})
}

func TestClientConfigRequiresAuth(t *testing.T) {
	t.Parallel()

	_, err := clientConfig(SFTPTarget{User: "u"})
	assert.ErrorIs(t, err, ErrNoSSHAuth)

	cfg, err := clientConfig(SFTPTarget{User: "u", Password: "p"})
	require.NoError(t, err)
	assert.Len(t, cfg.Auth, 1)
}

func TestFilenameFromURL(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"https://example.com/a/b/file.zip":    "file.zip",
		"https://example.com/":                DefaultFilename,
		"https://example.com":                 DefaultFilename,
		"https://example.com/my%20report.pdf": "my report.pdf",
		"https://example.com/x?y=1":           "x",
	}
	for raw, want := range tests {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, want, FilenameFromURL(u), raw)
	}
}

func TestPrimaryIPv4(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "10.0.0.5", PrimaryIPv4([]Interface{{Addrs: []string{"127.0.0.1/8"}}, {Addrs: []string{"10.0.0.5"}}}))
	assert.Empty(t, PrimaryIPv4(nil))
}

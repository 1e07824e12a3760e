// SPDX-License-Identifier: MPL-2.0

package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/adapter/filesystem"
)

func (m *Module) download(ctx context.Context, p action.Params) (action.Payload, error) {
	u, err := urlParam(p)
	if err != nil {
		return nil, err
	}
	name, err := p.OptString("filename", "", "path")
	if err != nil {
		return nil, err
	}
	if filesystem.HasTraversal(name) {
		return nil, action.Invalid("filename", "must not contain '..' path segments")
	}
	if strings.TrimSpace(name) == "" {
		name = FilenameFromURL(u)
	}
	dest := m.resolve(name)

	req, cancel, err := m.request(ctx, p, http.MethodGet, u, nil, DefaultDownloadTimeout)
	if err != nil {
		return nil, err
	}
	defer cancel()

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, action.Fail("download", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, action.Failf("download", "GET %s: %s", u.Redacted(), resp.Status)
	}

	n, err := writeAtomic(dest, resp.Body)
	if err != nil {
		return nil, action.Fail("download", err)
	}
	m.logger.Info("downloaded", "url", u.Redacted(), "path", dest, "bytes", n)
	return action.Payload{
		"path":         dest,
		"filename":     filepath.Base(dest),
		"bytes":        n,
		"status_code":  resp.StatusCode,
		"content_type": resp.Header.Get("Content-Type"),
	}, nil
}

func (m *Module) httpGet(ctx context.Context, p action.Params) (action.Payload, error) {
	u, err := urlParam(p)
	if err != nil {
		return nil, err
	}
	req, cancel, err := m.request(ctx, p, http.MethodGet, u, nil, DefaultRequestTimeout)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return m.roundTrip("http_get", req)
}

func (m *Module) httpPost(ctx context.Context, p action.Params) (action.Payload, error) {
	u, err := urlParam(p)
	if err != nil {
		return nil, err
	}
	body, err := p.OptString("body", "", "data")
	if err != nil {
		return nil, err
	}
	contentType, err := p.OptString("content_type", "")
	if err != nil {
		return nil, err
	}

	var payload []byte
	if doc, ok := p.Lookup("json"); ok {
		if p.Has("body", "data") {
			return nil, action.Invalid("json", "cannot be combined with body")
		}
		if payload, err = json.Marshal(doc); err != nil {
			return nil, action.Invalid("json", "cannot be encoded: %v", err)
		}
		if contentType == "" {
			contentType = "application/json"
		}
	} else {
		payload = []byte(body)
		if contentType == "" {
			contentType = "text/plain; charset=utf-8"
		}
	}

	req, cancel, err := m.request(ctx, p, http.MethodPost, u, bytes.NewReader(payload), DefaultRequestTimeout)
	if err != nil {
		return nil, err
	}
	defer cancel()
	req.Header.Set("Content-Type", contentType)
	return m.roundTrip("http_post", req)
}

func (m *Module) getInfo(ctx context.Context, _ action.Params) (action.Payload, error) {
	host, err := m.hostname()
	if err != nil {
		return nil, action.Fail("get_info", err)
	}
	ifaces, err := m.inspector.Interfaces(ctx)
	if err != nil {
		return nil, action.Fail("get_info", err)
	}
	list := make([]map[string]any, 0, len(ifaces))
	for _, iface := range ifaces {
		list = append(list, map[string]any{
			"name":      iface.Name,
			"mac":       iface.HardwareAddr,
			"flags":     nonNil(iface.Flags),
			"addresses": nonNil(iface.Addrs),
		})
	}
	payload := action.Payload{
		"hostname":           host,
		"ip_address":         PrimaryIPv4(ifaces),
		"network_interfaces": list,
	}
	// Counters are unavailable in some containers; report what we have.
	if c, err := m.inspector.Counters(ctx); err == nil {
		payload["io_counters"] = map[string]any{
			"bytes_sent":   c.BytesSent,
			"bytes_recv":   c.BytesRecv,
			"packets_sent": c.PacketsSent,
			"packets_recv": c.PacketsRecv,
		}
	}
	return payload, nil
}

func (m *Module) sftpUpload(ctx context.Context, p action.Params) (action.Payload, error) {
	var (
		target SFTPTarget
		err    error
	)
	if target.Host, err = p.String("host"); err != nil {
		return nil, err
	}
	if target.User, err = p.String("user", "username"); err != nil {
		return nil, err
	}
	source, err := p.String("source", "local_path")
	if err != nil {
		return nil, err
	}
	destination, err := p.OptString("destination", "", "remote_path")
	if err != nil {
		return nil, err
	}
	if target.Port, err = p.OptInt("port", DefaultSSHPort); err != nil {
		return nil, err
	}
	if target.Port < 1 || target.Port > 65535 {
		return nil, action.Invalid("port", "must be between 1 and 65535, got %d", target.Port)
	}
	if target.Password, err = p.OptString("password", ""); err != nil {
		return nil, err
	}
	if target.KeyFile, err = p.OptString("key_file", ""); err != nil {
		return nil, err
	}
	if target.KnownHosts, err = p.OptString("known_hosts", m.knownHosts); err != nil {
		return nil, err
	}
	if target.Timeout, err = p.OptSeconds("timeout", DefaultRequestTimeout); err != nil {
		return nil, err
	}
	if target.Password == "" && target.KeyFile == "" {
		return nil, action.Invalid("password", "%v", ErrNoSSHAuth)
	}

	local := m.resolve(source)
	info, err := os.Stat(local)
	if err != nil {
		return nil, action.Fail("sftp_upload", err)
	}
	if info.IsDir() {
		return nil, action.Invalid("source", "%s is a directory", source)
	}
	remote := strings.ReplaceAll(destination, `\`, "/")
	switch {
	case remote == "":
		remote = filepath.Base(local)
	case strings.HasSuffix(remote, "/"):
		remote = path.Join(remote, filepath.Base(local))
	}

	if target.KnownHosts == "" {
		m.logger.Warn("host key not verified; configure known_hosts", "host", target.Host)
	}
	n, err := m.uploader.Upload(ctx, target, local, remote)
	if err != nil {
		return nil, action.Fail("sftp_upload", err)
	}
	return action.Payload{
		"host":        target.Host,
		"source":      local,
		"destination": remote,
		"bytes":       n,
	}, nil
}

// request builds a request carrying the timeout and headers parameters. The
// returned cancel must be called once the response is consumed.
func (m *Module) request(ctx context.Context, p action.Params, method string, u *url.URL, body io.Reader, def time.Duration) (*http.Request, context.CancelFunc, error) {
	timeout, err := p.OptSeconds("timeout", def)
	if err != nil {
		return nil, nil, err
	}
	headers, err := p.OptStringMap("headers")
	if err != nil {
		return nil, nil, err
	}

	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		cancel()
		return nil, nil, action.Invalid("url", "%v", err)
	}
	req.Header.Set("User-Agent", m.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, cancel, nil
}

// roundTrip performs req and converts the response into the common payload.
// Any HTTP status is a successful round trip.
func (m *Module) roundTrip(name string, req *http.Request) (action.Payload, error) {
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, action.Fail(name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, m.maxBody+1))
	if err != nil {
		return nil, action.Fail(name, fmt.Errorf("read response: %w", err))
	}
	truncated := int64(len(data)) > m.maxBody
	if truncated {
		data = data[:m.maxBody]
	}

	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		headers[k] = strings.Join(v, ", ")
	}
	payload := action.Payload{
		"status_code": resp.StatusCode,
		"headers":     headers,
		"content":     string(data),
	}
	if truncated {
		payload["truncated"] = true
	}
	if isJSON(resp.Header.Get("Content-Type")) && !truncated {
		var doc any
		if err := json.Unmarshal(data, &doc); err == nil {
			payload["json"] = doc
		}
	}
	return payload, nil
}

func (m *Module) resolve(p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) || m.baseDir == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(m.baseDir, p)
}

// FilenameFromURL returns the last path segment of u, or DefaultFilename.
func FilenameFromURL(u *url.URL) string {
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return DefaultFilename
	}
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}
	if name := filesystem.SanitizeName(base); name != "unnamed" {
		return name
	}
	return DefaultFilename
}

func urlParam(p action.Params) (*url.URL, error) {
	raw, err := p.String("url")
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, action.Invalid("url", "%v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, action.Invalid("url", "scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, action.Invalid("url", "missing host")
	}
	return u, nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// writeAtomic streams r into a temporary file next to dest and renames it into place.
func writeAtomic(dest string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), dest)
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return n, err
	}
	return n, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

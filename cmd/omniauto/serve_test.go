// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/omniauto/omniauto/internal/httpapi"
	"github.com/omniauto/omniauto/internal/issue"
	"github.com/omniauto/omniauto/internal/service/servicetest"
)

func TestRunServerStopsOnCancel(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	app := NewApp(Dependencies{Config: fixedProvider{}, Stderr: &stderr})
	srv := httpapi.New(servicetest.New(t).Service, httpapi.Config{Address: "127.0.0.1:0"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.runServer(ctx, "http", srv) }()

	deadline := time.Now().Add(5 * time.Second)
	for !srv.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("server did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("runServer() = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("runServer did not return after cancel")
	}
	if !strings.Contains(stderr.String(), "serving http on 127.0.0.1:") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunServerBindFailure(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	app := NewApp(Dependencies{Config: fixedProvider{}, Stderr: &stderr})
	app.flags.verbose = true
	srv := httpapi.New(servicetest.New(t).Service, httpapi.Config{Address: "127.0.0.1:-1"})

	err := app.runServer(context.Background(), "http", srv)
	if code := exitCode(err); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "start http server") {
		t.Errorf("stderr = %q", stderr.String())
	}
	if issue.Get(issue.ServerStartFailedId) == nil {
		t.Fatal("server start guide missing from the catalog")
	}
}

func TestHostKeyPath(t *testing.T) {
	t.Parallel()

	if got, _ := hostKeyPath("/keys/host"); got != "/keys/host" {
		t.Errorf("hostKeyPath(configured) = %q", got)
	}
	got, err := hostKeyPath("")
	if err != nil {
		t.Skipf("no config dir: %v", err)
	}
	if !strings.HasSuffix(got, hostKeyFile) {
		t.Errorf("hostKeyPath(\"\") = %q, want suffix %q", got, hostKeyFile)
	}
}

// SPDX-License-Identifier: MPL-2.0

package network

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/omniauto/omniauto/internal/action"
)

// dockerAvailable reports whether testcontainers can reach a container engine.
// Provider discovery can panic when no engine is configured.
func dockerAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()
	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

func TestAgainstNginx(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if !dockerAvailable() {
		t.Skip("skipping integration test: no container engine available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	nginx, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nginx:alpine",
			ExposedPorts: []string{"80/tcp"},
			WaitingFor:   wait.ForHTTP("/").WithPort("80/tcp").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, nginx)
	require.NoError(t, err)

	host, err := nginx.Host(ctx)
	require.NoError(t, err)
	port, err := nginx.MappedPort(ctx, "80/tcp")
	require.NoError(t, err)
	base := "http://" + host + ":" + port.Port()

	m, dir := newModule(t)

	res := m.Execute(ctx, "http_get", action.Params{"url": base + "/"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 200, res.Payload["status_code"])
	assert.Contains(t, res.Payload["content"], "Welcome to nginx")

	res = m.Execute(ctx, "download", action.Params{"url": base + "/index.html"})
	require.True(t, res.Success, res.Error)
	data, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "nginx")

	res = m.Execute(ctx, "download", action.Params{"url": base + "/does-not-exist"})
	assert.Equal(t, action.KindOperationFailure, res.Kind)
}

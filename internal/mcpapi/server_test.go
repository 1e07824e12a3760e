// SPDX-License-Identifier: MPL-2.0

package mcpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/service/servicetest"
)

type (
	// rpcClient drives a stdio MCP server one request at a time.
	rpcClient struct {
		t      *testing.T
		w      io.Writer
		r      *bufio.Reader
		nextID int
	}

	rpcResponse struct {
		ID     *int            `json:"id"`
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	toolResult struct {
		IsError bool `json:"isError"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
)

func startClient(t *testing.T) (*rpcClient, *servicetest.Fixture) {
	t.Helper()
	f := servicetest.New(t)
	s := New(f.Service, "test", nil)

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.ServeStdio(ctx, inR, outW)
		_ = outW.Close()
	}()
	t.Cleanup(func() {
		cancel()
		_ = inW.Close()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("stdio server did not stop")
		}
	})

	c := &rpcClient{t: t, w: inW, r: bufio.NewReader(outR)}
	c.call("initialize", map[string]any{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "test", "version": "0"},
	})
	c.notify("notifications/initialized")
	return c, f
}

func (c *rpcClient) notify(method string) {
	c.t.Helper()
	data, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "method": method})
	require.NoError(c.t, err)
	_, err = c.w.Write(append(data, '\n'))
	require.NoError(c.t, err)
}

func (c *rpcClient) call(method string, params any) json.RawMessage {
	c.t.Helper()
	c.nextID++
	id := c.nextID
	data, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": id, "method": method, "params": params})
	require.NoError(c.t, err)
	_, err = c.w.Write(append(data, '\n'))
	require.NoError(c.t, err)

	for {
		line, err := c.r.ReadBytes('\n')
		require.NoError(c.t, err)
		var resp rpcResponse
		require.NoError(c.t, json.Unmarshal(line, &resp), string(line))
		if resp.ID == nil || *resp.ID != id {
			continue
		}
		require.Nil(c.t, resp.Error, "rpc error for %s", method)
		return resp.Result
	}
}

func (c *rpcClient) callTool(name string, args map[string]any) (toolResult, map[string]any) {
	c.t.Helper()
	raw := c.call("tools/call", map[string]any{"name": name, "arguments": args})
	var res toolResult
	require.NoError(c.t, json.Unmarshal(raw, &res))
	require.NotEmpty(c.t, res.Content)

	var payload map[string]any
	_ = json.Unmarshal([]byte(res.Content[0].Text), &payload)
	return res, payload
}

func TestToolsList(t *testing.T) {
	c, _ := startClient(t)

	var listed struct {
		Tools []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			InputSchema struct {
				Properties map[string]struct {
					Type string `json:"type"`
				} `json:"properties"`
				Required []string `json:"required"`
			} `json:"inputSchema"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(c.call("tools/list", map[string]any{}), &listed))

	byName := make(map[string]int, len(listed.Tools))
	for i, tool := range listed.Tools {
		byName[tool.Name] = i
	}
	for _, name := range []string{"list_capabilities", "describe_capability", "execute", "filesystem_create_folders_batch", "network_http_get", "gui_click"} {
		assert.Contains(t, byName, name)
	}

	batch := listed.Tools[byName["filesystem_create_folders_batch"]]
	assert.ElementsMatch(t, []string{"start_name", "end_name"}, batch.InputSchema.Required)
	assert.Equal(t, "integer", batch.InputSchema.Properties["count"].Type)
	assert.Contains(t, batch.Description, "[moderate risk]")
}

func TestActionTool(t *testing.T) {
	c, f := startClient(t)

	res, payload := c.callTool("filesystem_create_folders_batch", map[string]any{"start_name": "run1", "end_name": "run3"})
	require.False(t, res.IsError, res.Content[0].Text)
	assert.Equal(t, []any{"run1", "run2", "run3"}, payload["created"])
	assert.DirExists(t, filepath.Join(f.Dir, "run2"))

	res, payload = c.callTool("filesystem_create_folder", map[string]any{"name": "../out"})
	assert.True(t, res.IsError)
	assert.Equal(t, string(action.KindValidation), payload["error_kind"])
}

func TestExecuteTool(t *testing.T) {
	c, f := startClient(t)

	res, payload := c.callTool("execute", map[string]any{
		"capability": "filesystem",
		"action":     "create_file",
		"params":     map[string]any{"name": "note.txt", "content": "hello"},
	})
	require.False(t, res.IsError, res.Content[0].Text)
	assert.Equal(t, true, payload["success"])
	assert.FileExists(t, filepath.Join(f.Dir, "note.txt"))

	res, payload = c.callTool("execute", map[string]any{"capability": "process", "action": "teleport"})
	assert.True(t, res.IsError)
	assert.Equal(t, string(action.KindUnknownAction), payload["error_kind"])

	res, _ = c.callTool("execute", map[string]any{"capability": "filesystem"})
	assert.True(t, res.IsError)
}

func TestCatalogTools(t *testing.T) {
	c, _ := startClient(t)

	res, _ := c.callTool("list_capabilities", map[string]any{})
	require.False(t, res.IsError)
	var catalog []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].Text), &catalog))
	assert.Len(t, catalog, 5)

	res, payload := c.callTool("describe_capability", map[string]any{"capability": "system"})
	require.False(t, res.IsError)
	assert.Equal(t, "system", payload["capability"])

	res, payload = c.callTool("describe_capability", map[string]any{"capability": "bluetooth"})
	assert.True(t, res.IsError)
	assert.Equal(t, string(action.KindValidation), payload["error_kind"])
}

func TestToolName(t *testing.T) {
	assert.Equal(t, "network_http_get", ToolName(action.CapabilityNetwork, "http_get"))
}

// SPDX-License-Identifier: MPL-2.0

package mcpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/service"
)

// Name is the server name announced during initialization.
const Name = "omniauto"

// Server is the MCP action surface.
type Server struct {
	svc    *service.Service
	mcp    *server.MCPServer
	logger *log.Logger
}

// New registers one tool per action of svc's catalog.
func New(svc *service.Service, version string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		svc:    svc,
		mcp:    server.NewMCPServer(Name, version, server.WithToolCapabilities(false)),
		logger: logger.WithPrefix("mcp"),
	}
	s.registerCatalogTools()
	for _, info := range svc.Catalog() {
		for _, spec := range info.Actions {
			s.mcp.AddTool(actionTool(info.Capability, spec), s.actionHandler(info.Capability, spec.Name))
		}
	}
	return s
}

// ServeStdio speaks MCP over in and out until ctx is done or in closes.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}))
	s.logger.Info("serving MCP on stdio", "platform", s.svc.Platform())
	return stdio.Listen(ctx, in, out)
}

// ToolName is the MCP tool name of one action.
func ToolName(c action.Capability, name string) string {
	return fmt.Sprintf("%s_%s", c, name)
}

func (s *Server) registerCatalogTools() {
	s.mcp.AddTool(mcp.NewTool("list_capabilities",
		mcp.WithDescription("List every capability with its actions, parameters and risk levels"),
	), func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(s.svc.Catalog(), false)
	})

	s.mcp.AddTool(mcp.NewTool("describe_capability",
		mcp.WithDescription("List the actions of one capability"),
		mcp.WithString("capability",
			mcp.Required(),
			mcp.Description("One of filesystem, process, gui, system, network"),
		),
	), func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		c, err := request.RequireString("capability")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		info, err := s.svc.Describe(action.Capability(c))
		if err != nil {
			return jsonResult(action.NewErrorResult(err), true)
		}
		return jsonResult(info, false)
	})

	s.mcp.AddTool(mcp.NewTool("execute",
		mcp.WithDescription("Run any action by capability and name"),
		mcp.WithString("capability", mcp.Required(), mcp.Description("Capability of the action")),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action name")),
		mcp.WithObject("params", mcp.Description("Action parameters")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		c, err := request.RequireString("capability")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		name, err := request.RequireString("action")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		params, err := action.DecodeParams(args["params"])
		if err != nil {
			return jsonResult(action.NewErrorResult(err), true)
		}
		return s.execute(ctx, service.Request{Capability: action.Capability(c), Action: name, Params: params})
	})
}

func (s *Server) actionHandler(c action.Capability, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		params, err := action.DecodeParams(request.GetArguments())
		if err != nil {
			return jsonResult(action.NewErrorResult(err), true)
		}
		return s.execute(ctx, service.Request{Capability: c, Action: name, Params: params})
	}
}

func (s *Server) execute(ctx context.Context, req service.Request) (*mcp.CallToolResult, error) {
	res := s.svc.Execute(ctx, req)
	s.logger.Debug("tool call", "request", req, "success", res.Success)
	return jsonResult(res, !res.Success)
}

// jsonResult renders v as the text content of a tool result. Action failures
// are tool errors, not protocol errors, so the model sees the message.
func jsonResult(v any, isError bool) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	if isError {
		return mcp.NewToolResultError(string(data)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

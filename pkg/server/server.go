// Copyright 2026 oapiproxy Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/oapiproxy/oapiproxy/pkg/auth"
	core "github.com/oapiproxy/oapiproxy/pkg/core"
	"github.com/oapiproxy/oapiproxy/pkg/proxy"
)

// Server exposes the proxy service's tool catalog over MCP. All protocol
// concerns live here; the service below it knows nothing about MCP framing.
type Server struct {
	mcp *server.MCPServer
	svc *proxy.Service

	mu         sync.Mutex
	registered map[string]bool
}

// New creates an MCP server over the given call service and registers the
// current catalog.
func New(name, version string, svc *proxy.Service) *Server {
	s := &Server{
		mcp: server.NewMCPServer(
			name,
			version,
			server.WithToolCapabilities(true),
		),
		svc:        svc,
		registered: map[string]bool{},
	}
	s.syncTools()
	return s
}

// syncTools registers the current catalog and removes tools that no longer
// exist. AddTool overwrites same-name registrations, so re-registering on
// reload is safe.
func (s *Server) syncTools() {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := map[string]bool{}
	for _, tool := range s.svc.ListTools() {
		current[tool.Name] = true
		s.mcp.AddTool(toMcpGoTool(&tool.McpTool), s.handlerFor(tool.Name))
		if !s.registered[tool.Name] {
			log.Printf("Registered tool: %s (%s %s)", tool.Name, tool.Operation.Method, tool.Operation.Path)
		}
	}

	var stale []string
	for name := range s.registered {
		if !current[name] {
			stale = append(stale, name)
		}
	}
	if len(stale) > 0 {
		s.mcp.DeleteTools(stale...)
		log.Printf("Removed %d stale tools", len(stale))
	}
	s.registered = current
}

// Reload re-registers tools after the service's catalog was swapped.
func (s *Server) Reload() {
	s.syncTools()
}

// handlerFor binds a tool name to the call service. Resolution happens per
// call, so a handler registered before a reload dispatches against the
// catalog current at call time.
func (s *Server) handlerFor(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := s.svc.CallTool(ctx, name, request.GetArguments())
		return toCallToolResult(result), nil
	}
}

// toCallToolResult renders a tool result as MCP content. Failures become
// error results on the protocol, never Go errors, so the session survives
// every failed call.
func toCallToolResult(result core.ToolResult) *mcp.CallToolResult {
	if result.IsError {
		return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", result.ErrorKind, result.Text))
	}
	return mcp.NewToolResultText(result.Text)
}

func toMcpGoTool(tool *core.McpTool) mcp.Tool {
	return mcp.Tool{
		Name:        tool.Name,
		Description: tool.Description,
		InputSchema: mcp.ToolInputSchema{
			Type:       tool.InputSchema.Type,
			Properties: tool.InputSchema.Properties,
			Required:   tool.InputSchema.Required,
		},
		Annotations: mcp.ToolAnnotation{
			Title:           tool.Annotations.Title,
			ReadOnlyHint:    tool.Annotations.ReadOnlyHint,
			DestructiveHint: tool.Annotations.DestructiveHint,
			IdempotentHint:  tool.Annotations.IdempotentHint,
			OpenWorldHint:   tool.Annotations.OpenWorldHint,
		},
	}
}

// Start serves MCP over the selected transport and blocks until the server
// stops. On HTTP, inboundAuth (when enabled) wraps the handler with Bearer
// token validation; stdio trusts its parent process.
func (s *Server) Start(transport core.TransportType, port string, inboundAuth *auth.BearerAuthConfig) error {
	switch transport {
	case core.TransportTypeStdio:
		log.Println("Starting stdio MCP server...")
		return server.ServeStdio(s.mcp)

	case core.TransportTypeHTTP:
		streamable := server.NewStreamableHTTPServer(s.mcp)
		addr := fmt.Sprintf(":%s", port)

		if inboundAuth != nil && inboundAuth.Enabled {
			middleware, err := auth.NewBearerAuthMiddleware(inboundAuth)
			if err != nil {
				return fmt.Errorf("initializing bearer auth: %w", err)
			}
			defer middleware.Close()
			log.Printf("Starting HTTP MCP server on %s (bearer auth enabled)...", addr)
			httpServer := &http.Server{
				Addr:    addr,
				Handler: middleware.Middleware(streamable),
			}
			return httpServer.ListenAndServe()
		}

		log.Printf("Starting HTTP MCP server on %s...", addr)
		return streamable.Start(addr)

	default:
		return fmt.Errorf("unsupported transport type: %s", transport)
	}
}

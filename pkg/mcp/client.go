// Package mcp bridges Model Context Protocol servers into the tool
// registry. Client plumbing is grounded on the mark3labs/mcp-go SSE client
// usage, rather than the hand-rolled stdio JSON-RPC transport this package
// replaces, since mark3labs/mcp-go already implements the full MCP
// handshake and schema conversion.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/localloom/corebot/pkg/logger"
)

// ToolDefinition is the tool-registry-facing shape of a tool discovered on
// an MCP server.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Manager owns one mark3labs/mcp-go client per configured server URI and
// the tools each advertises.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]*client.Client
	tools   map[string][]ToolDefinition
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]*client.Client),
		tools:   make(map[string][]ToolDefinition),
	}
}

// StartAll connects to every server URI and discovers its tools. A server
// that fails to connect is logged and skipped rather than aborting the
// others.
func (m *Manager) StartAll(ctx context.Context, serverURIs []string) {
	for _, uri := range serverURIs {
		if err := m.Connect(ctx, uri); err != nil {
			logger.WarnCF("mcp", "failed to connect MCP server", map[string]any{
				"uri":   uri,
				"error": err.Error(),
			})
		}
	}
}

// Connect establishes an SSE MCP client against uri, performs the
// initialize handshake, and caches its tool list. The server name used for
// tool-name prefixing is the URI itself.
func (m *Manager) Connect(ctx context.Context, uri string) error {
	cli, err := client.NewSSEMCPClient(uri)
	if err != nil {
		return fmt.Errorf("mcp: new client for %s: %w", uri, err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "corebot", Version: "1.0.0"}

	if _, err := cli.Initialize(ctx, initReq); err != nil {
		return fmt.Errorf("mcp: initialize %s: %w", uri, err)
	}

	listResp, err := cli.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return fmt.Errorf("mcp: list tools from %s: %w", uri, err)
	}

	defs := make([]ToolDefinition, 0, len(listResp.Tools))
	for _, t := range listResp.Tools {
		defs = append(defs, ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schemaToMap(t.InputSchema),
		})
	}

	m.mu.Lock()
	m.clients[uri] = cli
	m.tools[uri] = defs
	m.mu.Unlock()

	logger.InfoCF("mcp", "connected MCP server", map[string]any{"uri": uri, "tools": len(defs)})
	return nil
}

// schemaToMap converts an mcp.ToolInputSchema into the generic
// {type, properties, required} shape every other provider definition uses.
func schemaToMap(schema mcp.ToolInputSchema) map[string]any {
	props := map[string]any{}
	for name, prop := range schema.Properties {
		props[name] = prop
	}
	out := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(schema.Required) > 0 {
		out["required"] = schema.Required
	}
	return out
}

// DiscoveredTool pairs a server URI with one of its advertised tools.
type DiscoveredTool struct {
	Server string
	Tool   ToolDefinition
}

// DiscoverAll returns every tool from every connected server.
func (m *Manager) DiscoverAll() []DiscoveredTool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []DiscoveredTool
	for server, defs := range m.tools {
		for _, def := range defs {
			out = append(out, DiscoveredTool{Server: server, Tool: def})
		}
	}
	return out
}

// CallTool invokes toolName on the named server, returning the
// concatenated text content of the response.
func (m *Manager) CallTool(ctx context.Context, server, toolName string, args map[string]any) (string, error) {
	m.mu.RLock()
	cli, ok := m.clients[server]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("mcp: server %q not connected", server)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = args

	result, err := cli.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("mcp: call %s on %s: %w", toolName, server, err)
	}

	var texts []string
	for _, content := range result.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}
	if len(texts) == 0 {
		raw, _ := json.Marshal(result.Content)
		return string(raw), nil
	}

	joined := texts[0]
	for _, t := range texts[1:] {
		joined += "\n" + t
	}
	return joined, nil
}

// StopAll closes every connected client.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for uri, cli := range m.clients {
		cli.Close()
		logger.InfoCF("mcp", "disconnected MCP server", map[string]any{"uri": uri})
	}
	m.clients = make(map[string]*client.Client)
	m.tools = make(map[string][]ToolDefinition)
}

package mcp

import (
	"context"
	"fmt"

	"github.com/localloom/corebot/pkg/tools"
)

// BridgeTool wraps a single MCP server tool as a tools.Tool.
type BridgeTool struct {
	manager    *Manager
	serverName string
	toolDef    ToolDefinition
}

// NewBridgeTool creates a tool that delegates execution to an MCP server.
func NewBridgeTool(manager *Manager, serverName string, toolDef ToolDefinition) *BridgeTool {
	return &BridgeTool{manager: manager, serverName: serverName, toolDef: toolDef}
}

func (t *BridgeTool) Name() string {
	return fmt.Sprintf("mcp_%s_%s", t.serverName, t.toolDef.Name)
}

func (t *BridgeTool) Description() string {
	return fmt.Sprintf("[MCP:%s] %s", t.serverName, t.toolDef.Description)
}

func (t *BridgeTool) Parameters() map[string]any {
	if t.toolDef.InputSchema != nil {
		return t.toolDef.InputSchema
	}
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (t *BridgeTool) Execute(ctx context.Context, args map[string]any) *tools.ToolResult {
	result, err := t.manager.CallTool(ctx, t.serverName, t.toolDef.Name, args)
	if err != nil {
		return tools.ErrorResultf("MCP tool %s/%s error: %v", t.serverName, t.toolDef.Name, err)
	}
	return tools.SilentResult(result)
}

// RegisterAll discovers every tool across every connected MCP server and
// registers a BridgeTool for each in registry.
func RegisterAll(manager *Manager, registry *tools.Registry) int {
	discovered := manager.DiscoverAll()
	for _, entry := range discovered {
		registry.Register(NewBridgeTool(manager, entry.Server, entry.Tool))
	}
	return len(discovered)
}

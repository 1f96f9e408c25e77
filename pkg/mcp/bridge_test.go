package mcp

import (
	"context"
	"testing"

	"github.com/localloom/corebot/pkg/tools"
)

func TestBridgeToolNameDescriptionParameters(t *testing.T) {
	def := ToolDefinition{Name: "search", Description: "search the web", InputSchema: map[string]any{"type": "object", "properties": map[string]any{"q": map[string]any{"type": "string"}}}}
	bt := NewBridgeTool(NewManager(), "docs-server", def)

	if bt.Name() != "mcp_docs-server_search" {
		t.Fatalf("unexpected tool name: %s", bt.Name())
	}
	if bt.Description() != "[MCP:docs-server] search the web" {
		t.Fatalf("unexpected description: %s", bt.Description())
	}
	if params := bt.Parameters(); params["type"] != "object" {
		t.Fatalf("unexpected parameters: %v", params)
	}
}

func TestBridgeToolParametersDefaultsWhenNoSchema(t *testing.T) {
	bt := NewBridgeTool(NewManager(), "docs-server", ToolDefinition{Name: "search"})
	params := bt.Parameters()
	if params["type"] != "object" {
		t.Fatalf("expected default object schema, got %v", params)
	}
}

func TestBridgeToolExecuteErrorsWhenServerNotConnected(t *testing.T) {
	bt := NewBridgeTool(NewManager(), "docs-server", ToolDefinition{Name: "search"})
	result := bt.Execute(context.Background(), map[string]any{"q": "go"})
	if !result.IsError {
		t.Fatal("expected an error result when the MCP server is not connected")
	}
}

func TestRegisterAllAddsOneBridgeToolPerDiscoveredTool(t *testing.T) {
	manager := NewManager()
	registry := tools.NewRegistry()

	n := RegisterAll(manager, registry)
	if n != 0 {
		t.Fatalf("expected no tools to register on a fresh manager, got %d", n)
	}

	manager.tools["srv"] = []ToolDefinition{{Name: "a"}, {Name: "b"}}
	n = RegisterAll(manager, registry)
	if n != 2 {
		t.Fatalf("expected 2 tools to register, got %d", n)
	}
	if !registry.Has("mcp_srv_a") || !registry.Has("mcp_srv_b") {
		t.Fatalf("expected one bridge tool per discovered tool, got %v", registry.Names())
	}
}

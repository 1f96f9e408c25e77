package mcp

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestSchemaToMapConvertsPropertiesAndRequired(t *testing.T) {
	schema := mcp.ToolInputSchema{
		Properties: map[string]any{
			"path": map[string]any{"type": "string"},
		},
		Required: []string{"path"},
	}

	got := schemaToMap(schema)
	if got["type"] != "object" {
		t.Fatalf("expected type object, got %v", got["type"])
	}
	props, ok := got["properties"].(map[string]any)
	if !ok || len(props) != 1 {
		t.Fatalf("unexpected properties: %v", got["properties"])
	}
	required, ok := got["required"].([]string)
	if !ok || len(required) != 1 || required[0] != "path" {
		t.Fatalf("unexpected required: %v", got["required"])
	}
}

func TestSchemaToMapOmitsRequiredWhenEmpty(t *testing.T) {
	got := schemaToMap(mcp.ToolInputSchema{})
	if _, ok := got["required"]; ok {
		t.Fatal("expected no required key for a schema with no required fields")
	}
}

func TestDiscoverAllEmptyOnFreshManager(t *testing.T) {
	m := NewManager()
	if discovered := m.DiscoverAll(); len(discovered) != 0 {
		t.Fatalf("expected no tools on a fresh manager, got %v", discovered)
	}
}

func TestCallToolErrorsOnUnknownServer(t *testing.T) {
	m := NewManager()
	_, err := m.CallTool(context.Background(), "http://nope", "search", nil)
	if err == nil {
		t.Fatal("expected an error calling a tool on an unconnected server")
	}
}

func TestStopAllOnEmptyManagerDoesNotPanic(t *testing.T) {
	m := NewManager()
	m.StopAll()
	if len(m.DiscoverAll()) != 0 {
		t.Fatal("expected manager to remain empty after StopAll")
	}
}

package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(NewReadFileTool())
	r.Register(NewWriteFileTool())
	r.Register(NewListDirTool())

	if r.Len() != 3 {
		t.Errorf("expected 3 tools, got %d", r.Len())
	}
	if !r.Has("read_file") {
		t.Error("expected read_file to be registered")
	}

	r.Unregister("list_dir")
	if r.Has("list_dir") {
		t.Error("expected list_dir to be unregistered")
	}
	if r.Len() != 2 {
		t.Errorf("expected 2 tools after unregister, got %d", r.Len())
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	os.WriteFile(path, []byte("content"), 0644)

	result := r.Execute(context.Background(), "read_file", map[string]any{"path": path})
	if result.ForLLM != "content" {
		t.Errorf("expected raw file content, got %q", result.ForLLM)
	}

	missing := r.Execute(context.Background(), "nonexistent", map[string]any{})
	if !missing.IsError || !strings.Contains(missing.ForLLM, "not found") {
		t.Errorf("expected not-found error, got %+v", missing)
	}

	defs := r.ToProviderDefs()
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	for _, d := range defs {
		if d.Type != "function" {
			t.Errorf("expected type function, got %s", d.Type)
		}
		if d.Function.Name == "" {
			t.Error("expected non-empty function name")
		}
	}
}

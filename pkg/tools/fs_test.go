package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadFileTool(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0644); err != nil {
		t.Fatal(err)
	}

	tool := NewReadFileTool()
	if tool.Name() != "read_file" {
		t.Errorf("expected name read_file, got %s", tool.Name())
	}

	result := tool.Execute(context.Background(), map[string]any{"path": path})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.ForLLM)
	}
	if result.ForLLM != "hello world" {
		t.Errorf("expected 'hello world', got %q", result.ForLLM)
	}

	missing := tool.Execute(context.Background(), map[string]any{"path": filepath.Join(dir, "nope.txt")})
	if !missing.IsError {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(missing.ForLLM, "File not found") {
		t.Errorf("expected 'File not found' in %q", missing.ForLLM)
	}
}

func TestWriteFileTool(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deep", "test.txt")

	tool := NewWriteFileTool()
	result := tool.Execute(context.Background(), map[string]any{"path": path, "content": "some content"})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.ForLLM)
	}
	if !strings.Contains(result.ForLLM, "Successfully wrote") {
		t.Errorf("expected 'Successfully wrote' in %q", result.ForLLM)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected nested file to exist: %v", err)
	}
	if string(data) != "some content" {
		t.Errorf("expected 'some content', got %q", string(data))
	}
}

func TestEditFileTool(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")
	os.WriteFile(path, []byte("Hello, World!"), 0644)

	tool := NewEditFileTool()
	result := tool.Execute(context.Background(), map[string]any{"path": path, "old_text": "World", "new_text": "Rust"})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.ForLLM)
	}
	if !strings.Contains(result.ForLLM, "Successfully edited") {
		t.Errorf("expected 'Successfully edited' in %q", result.ForLLM)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "Hello, Rust!" {
		t.Errorf("expected 'Hello, Rust!', got %q", string(data))
	}

	notFound := tool.Execute(context.Background(), map[string]any{"path": path, "old_text": "missing", "new_text": "x"})
	if !notFound.IsError || notFound.ForLLM != "Error: old_text not found in file" {
		t.Errorf("unexpected result: %+v", notFound)
	}

	multi := filepath.Join(dir, "multi.txt")
	os.WriteFile(multi, []byte("foo bar foo"), 0644)
	multiResult := tool.Execute(context.Background(), map[string]any{"path": multi, "old_text": "foo", "new_text": "baz"})
	if multiResult.IsError {
		t.Fatalf("unexpected error: %s", multiResult.ForLLM)
	}
	if !strings.Contains(multiResult.ForLLM, "Warning") || !strings.Contains(multiResult.ForLLM, "2 times") {
		t.Errorf("expected warning about 2 times, got %q", multiResult.ForLLM)
	}
	data, _ = os.ReadFile(multi)
	if string(data) != "baz bar baz" {
		t.Errorf("expected 'baz bar baz', got %q", string(data))
	}
}

func TestListDirTool(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.txt"), []byte(""), 0644)
	os.Mkdir(filepath.Join(dir, "sub"), 0755)

	tool := NewListDirTool()
	result := tool.Execute(context.Background(), map[string]any{"path": dir})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.ForLLM)
	}
	if !strings.Contains(result.ForLLM, "a.txt") || !strings.Contains(result.ForLLM, "sub") {
		t.Errorf("expected entries in %q", result.ForLLM)
	}

	empty := t.TempDir()
	emptyResult := tool.Execute(context.Background(), map[string]any{"path": empty})
	if !strings.Contains(strings.ToLower(emptyResult.ForLLM), "empty") {
		t.Errorf("expected 'empty' in %q", emptyResult.ForLLM)
	}

	missing := tool.Execute(context.Background(), map[string]any{"path": filepath.Join(dir, "nope")})
	if !missing.IsError {
		t.Fatal("expected error for missing dir")
	}
}

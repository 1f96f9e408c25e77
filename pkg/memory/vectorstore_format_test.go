package memory

import (
	"strings"
	"testing"
)

func TestFormatResultsNoneFound(t *testing.T) {
	if got := FormatResults(nil); got != "No memories found." {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestFormatResultsSeparatesKnowledgeAndConversations(t *testing.T) {
	results := []MemoryResult{
		{Source: "knowledge", Content: "user prefers dark mode", Category: "preference", SourceDate: "2026-01-02T00:00:00Z"},
		{Source: "conversations", Content: "talked about the roadmap", Timestamp: "2026-01-03T00:00:00Z", Channel: "telegram"},
	}
	out := FormatResults(results)
	if !strings.Contains(out, "## Knowledge") || !strings.Contains(out, "## Conversations") {
		t.Fatalf("expected both sections present, got: %s", out)
	}
	if !strings.Contains(out, "dark mode") || !strings.Contains(out, "roadmap") {
		t.Fatalf("expected content from both results, got: %s", out)
	}
}

func TestFormatResultsTruncatesLongConversationPreview(t *testing.T) {
	long := strings.Repeat("x", 300)
	results := []MemoryResult{{Source: "conversations", Content: long, Timestamp: "2026-01-03T00:00:00Z"}}
	out := FormatResults(results)
	if !strings.Contains(out, "...") {
		t.Fatalf("expected a truncated preview with ellipsis, got: %s", out)
	}
}

func TestFormatProvenanceWithPersonAndSourceType(t *testing.T) {
	r := MemoryResult{SourceDate: "2025-11-06T18:00:00Z", SourcePerson: "Charlie", SourceType: "whatsapp_chat"}
	got := formatProvenance(r)
	if got != "[2025-11-06, Charlie via whatsapp_chat]" {
		t.Fatalf("unexpected provenance: %q", got)
	}
}

func TestFormatProvenanceFallsBackToUnknownDate(t *testing.T) {
	got := formatProvenance(MemoryResult{})
	if !strings.HasPrefix(got, "[unknown") {
		t.Fatalf("expected unknown date fallback, got %q", got)
	}
}

func TestFormatDateParsesRFC3339AndPassesThroughOtherwise(t *testing.T) {
	if got := formatDate("2026-01-02T15:04:05Z"); got != "2026-01-02" {
		t.Fatalf("unexpected formatted date: %q", got)
	}
	if got := formatDate("not-a-date"); got != "not-a-date" {
		t.Fatalf("expected passthrough for unparseable date, got %q", got)
	}
	if got := formatDate(""); got != "unknown" {
		t.Fatalf("expected unknown for empty timestamp, got %q", got)
	}
}

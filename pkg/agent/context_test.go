package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/localloom/corebot/pkg/providers"
)

func TestBuildSystemPromptIncludesIdentity(t *testing.T) {
	cb := NewContextBuilder(t.TempDir())
	prompt := cb.BuildSystemPrompt()
	if !strings.Contains(prompt, "# Identity") {
		t.Fatalf("expected identity section, got: %s", prompt)
	}
}

func TestLoadBootstrapFilesConcatenatesMarkdownSortedByName(t *testing.T) {
	ws := t.TempDir()
	if err := os.WriteFile(filepath.Join(ws, "b.md"), []byte("second"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(ws, "a.md"), []byte("first"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(ws, "ignore.txt"), []byte("nope"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cb := NewContextBuilder(ws)
	out := cb.LoadBootstrapFiles()

	if strings.Index(out, "first") > strings.Index(out, "second") {
		t.Fatalf("expected a.md content before b.md content, got: %s", out)
	}
	if strings.Contains(out, "nope") {
		t.Fatalf("expected non-markdown files to be excluded, got: %s", out)
	}
}

func TestLoadBootstrapFilesEmptyWhenNoMarkdown(t *testing.T) {
	cb := NewContextBuilder(t.TempDir())
	if got := cb.LoadBootstrapFiles(); got != "" {
		t.Fatalf("expected empty bootstrap, got: %q", got)
	}
}

func TestBuildMessagesStripsLeadingToolMessages(t *testing.T) {
	cb := NewContextBuilder(t.TempDir())
	history := []providers.Message{
		{Role: "tool", Content: "orphaned tool result", ToolCallID: "x"},
		{Role: "user", Content: "hi"},
	}

	messages := cb.BuildMessages(history, "", "hello", nil, "telegram", "c1")
	if messages[0].Role != "system" {
		t.Fatalf("expected first message to be system, got %s", messages[0].Role)
	}
	if messages[1].Role == "tool" {
		t.Fatalf("expected leading orphaned tool message to be stripped, got: %+v", messages)
	}
}

func TestBuildMessagesIncludesSessionAndSummaryInSystemPrompt(t *testing.T) {
	cb := NewContextBuilder(t.TempDir())
	messages := cb.BuildMessages(nil, "the user likes Go", "hello", nil, "telegram", "c1")

	sys := messages[0].Content
	if !strings.Contains(sys, "Channel: telegram") || !strings.Contains(sys, "Chat ID: c1") {
		t.Fatalf("expected session info in system prompt, got: %s", sys)
	}
	if !strings.Contains(sys, "the user likes Go") {
		t.Fatalf("expected summary in system prompt, got: %s", sys)
	}
}

func TestBuildMessagesAppendsCurrentUserMessageLast(t *testing.T) {
	cb := NewContextBuilder(t.TempDir())
	messages := cb.BuildMessages(nil, "", "what's the weather", nil, "", "")

	last := messages[len(messages)-1]
	if last.Role != "user" || last.Content != "what's the weather" {
		t.Fatalf("expected current message last, got: %+v", last)
	}
}

func TestAddToolResultAndAddAssistantMessage(t *testing.T) {
	cb := NewContextBuilder(t.TempDir())
	messages := []providers.Message{{Role: "user", Content: "hi"}}

	messages = cb.AddAssistantMessage(messages, "", []providers.ToolCall{{ID: "call_1", Name: "search"}})
	if len(messages) != 2 || messages[1].Role != "assistant" || len(messages[1].ToolCalls) != 1 {
		t.Fatalf("unexpected messages after AddAssistantMessage: %+v", messages)
	}

	messages = cb.AddToolResult(messages, "call_1", "search results here")
	if len(messages) != 3 || messages[2].Role != "tool" || messages[2].ToolCallID != "call_1" {
		t.Fatalf("unexpected messages after AddToolResult: %+v", messages)
	}
}

func TestGetSkillsInfoEmptyWorkspace(t *testing.T) {
	cb := NewContextBuilder(t.TempDir())
	info := cb.GetSkillsInfo()
	if info["total"] != 0 {
		t.Fatalf("expected zero skills, got %v", info)
	}
}

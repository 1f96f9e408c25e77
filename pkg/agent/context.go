package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/localloom/corebot/pkg/logger"
	"github.com/localloom/corebot/pkg/media"
	"github.com/localloom/corebot/pkg/memory"
	"github.com/localloom/corebot/pkg/providers"
	"github.com/localloom/corebot/pkg/skills"
	"github.com/localloom/corebot/pkg/tools"
)

// ContextBuilder assembles the system prompt and message list handed to the
// LLM provider on each turn (spec.md §4.6): identity + bootstrap files +
// skills summary + memory context, followed by history and the current
// message.
type ContextBuilder struct {
	workspace    string
	skillsLoader *skills.Loader
	memory       *memory.Store
	tools        *tools.Registry
}

// NewContextBuilder builds a ContextBuilder rooted at workspace.
func NewContextBuilder(workspace string) *ContextBuilder {
	store, err := memory.NewStore(workspace)
	if err != nil {
		logger.ErrorCF("agent", "failed to initialize memory store", map[string]any{"error": err.Error()})
	}
	return &ContextBuilder{
		workspace:    workspace,
		skillsLoader: skills.NewLoader(workspace),
		memory:       store,
	}
}

// SetToolsRegistry attaches a tool registry so the system prompt can list
// available tools.
func (cb *ContextBuilder) SetToolsRegistry(registry *tools.Registry) {
	cb.tools = registry
}

func (cb *ContextBuilder) getIdentity() string {
	now := time.Now().Format("2006-01-02 15:04 (Monday)")
	workspacePath, _ := filepath.Abs(cb.workspace)
	runtimeInfo := fmt.Sprintf("%s %s, Go %s", runtime.GOOS, runtime.GOARCH, runtime.Version())

	toolsSection := cb.buildToolsSection()

	return fmt.Sprintf(`# Identity

You are a personal AI assistant with a persistent workspace and long-running memory.

## Current Time
%s

## Runtime
%s

## Workspace
Your workspace is at: %s
- Long-term memory: %s/memory/MEMORY.md
- Daily notes: %s/memory/YYYY-MM-DD.md
- Skills: %s/skills/{skill-name}/SKILL.md

%s

## Important Rules

1. **Always use tools** to perform actions. Do not claim to have done something you haven't actually called a tool for.
2. **Search memory proactively** when the user references past context, preferences, or plans — don't wait to be asked.
3. **Write to memory** when you learn something worth remembering for future conversations.`,
		now, runtimeInfo, workspacePath, workspacePath, workspacePath, workspacePath, toolsSection)
}

func (cb *ContextBuilder) buildToolsSection() string {
	if cb.tools == nil {
		return ""
	}
	summaries := cb.tools.Summaries()
	if len(summaries) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("## Available Tools\n\n")
	for _, s := range summaries {
		sb.WriteString(s)
		sb.WriteString("\n")
	}
	return sb.String()
}

// BuildSystemPrompt joins identity, bootstrap files, skills summary, and
// memory context into the full system prompt.
func (cb *ContextBuilder) BuildSystemPrompt() string {
	var parts []string

	parts = append(parts, cb.getIdentity())

	if bootstrap := cb.LoadBootstrapFiles(); bootstrap != "" {
		parts = append(parts, bootstrap)
	}

	if skillsSummary, err := cb.skillsLoader.BuildSummary(); err == nil && skillsSummary != "" {
		parts = append(parts, fmt.Sprintf("# Skills\n\nThe following skills extend your capabilities. Read the SKILL.md file for full instructions before using one.\n\n%s", skillsSummary))
	}

	if cb.memory != nil {
		if memoryContext, err := cb.memory.GetMemoryContext(); err == nil && memoryContext != "" {
			parts = append(parts, "# Memory\n\n"+memoryContext)
		}
	}

	return strings.Join(parts, "\n\n---\n\n")
}

// LoadBootstrapFiles reads every top-level *.md file directly under the
// workspace (not bootstrap filenames fixed in advance), concatenated under
// a heading per file, sorted by filename for determinism.
func (cb *ContextBuilder) LoadBootstrapFiles() string {
	entries, err := os.ReadDir(cb.workspace)
	if err != nil {
		return ""
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".md") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var result strings.Builder
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(cb.workspace, name))
		if err != nil {
			continue
		}
		result.WriteString(fmt.Sprintf("## %s\n\n%s\n\n", name, string(data)))
	}
	return strings.TrimSpace(result.String())
}

// BuildMessages assembles the full message list for one turn: system
// prompt, optional session-summary addendum, trimmed history, then the
// current (possibly multimodal) user message.
func (cb *ContextBuilder) BuildMessages(history []providers.Message, summary string, currentMessage string, mediaParts []media.ContentPart, channel, chatID string) []providers.Message {
	systemPrompt := cb.BuildSystemPrompt()

	if channel != "" && chatID != "" {
		systemPrompt += fmt.Sprintf("\n\n## Current Session\nChannel: %s\nChat ID: %s", channel, chatID)
	}
	if summary != "" {
		systemPrompt += "\n\n## Summary of Previous Conversation\n\n" + summary
	}

	logger.DebugCF("agent", "system prompt built", map[string]any{
		"total_chars": len(systemPrompt),
	})

	// A tool-result message with no preceding assistant tool_calls message
	// (e.g. truncated history) isn't valid provider input.
	for len(history) > 0 && history[0].Role == "tool" {
		history = history[1:]
	}

	messages := []providers.Message{{Role: "system", Content: systemPrompt}}
	messages = append(messages, history...)

	userMsg := providers.Message{Role: "user", Content: currentMessage}
	if len(mediaParts) > 0 {
		userMsg.ContentParts = mediaParts
	}
	messages = append(messages, userMsg)

	return messages
}

// AddToolResult appends a tool-result turn.
func (cb *ContextBuilder) AddToolResult(messages []providers.Message, toolCallID, result string) []providers.Message {
	return append(messages, providers.Message{Role: "tool", Content: result, ToolCallID: toolCallID})
}

// AddAssistantMessage appends an assistant turn, with or without tool calls.
func (cb *ContextBuilder) AddAssistantMessage(messages []providers.Message, content string, toolCalls []providers.ToolCall) []providers.Message {
	return append(messages, providers.Message{Role: "assistant", Content: content, ToolCalls: toolCalls})
}

// GetSkillsInfo summarizes the currently loaded skills.
func (cb *ContextBuilder) GetSkillsInfo() map[string]any {
	infos, err := cb.skillsLoader.List()
	if err != nil {
		return map[string]any{"total": 0, "names": []string{}}
	}
	names := make([]string, 0, len(infos))
	for _, s := range infos {
		names = append(names, s.Name)
	}
	return map[string]any{"total": len(infos), "names": names}
}

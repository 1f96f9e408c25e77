// Package tools implements the tool-calling surface exposed to the LLM
// provider: a Tool interface, a ToolResult protocol for separating what the
// model sees from what the user sees, and a ToolRegistry that exposes both
// a simple execute-by-name call and provider-shaped function definitions.
package tools

import (
	"context"
	"fmt"
	"sync"
)

// ToolResult is returned by every tool invocation. ForLLM is what's fed
// back into the conversation as the tool-result message; ForUser, when
// non-empty, is what should be surfaced directly to the end user. Silent
// suppresses any user-facing echo of ForLLM (e.g. because the tool already
// delivered output through its own side channel). IsError marks a failed
// execution without requiring callers to inspect Err, which may be nil even
// when IsError is true.
type ToolResult struct {
	ForLLM  string
	ForUser string
	Silent  bool
	IsError bool
	Err     error
}

// ErrorResult builds a failed ToolResult from a message.
func ErrorResult(msg string) *ToolResult {
	return &ToolResult{ForLLM: msg, IsError: true}
}

// ErrorResultf builds a failed ToolResult from a format string.
func ErrorResultf(format string, args ...any) *ToolResult {
	return &ToolResult{ForLLM: fmt.Sprintf(format, args...), IsError: true}
}

// SilentResult builds a successful ToolResult that should not be echoed to
// the user separately from the model's own follow-up.
func SilentResult(forLLM string) *ToolResult {
	return &ToolResult{ForLLM: forLLM, Silent: true}
}

// Result builds a plain successful ToolResult.
func Result(forLLM string) *ToolResult {
	return &ToolResult{ForLLM: forLLM}
}

// Tool is a single callable action exposed to the model.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Execute(ctx context.Context, args map[string]any) *ToolResult
}

// AsyncCallback lets a tool report incremental progress back to the chat
// while it runs, outside of its final ToolResult.
type AsyncCallback func(content string)

// AsyncTool is implemented by tools that want to stream intermediate
// updates via a callback rather than (or in addition to) their final
// result.
type AsyncTool interface {
	ExecuteAsync(ctx context.Context, args map[string]any, callback AsyncCallback) *ToolResult
}

// ContextAwareTool receives the channel/chat a tool call originated from,
// for tools (like message) that need a default delivery target.
type ContextAwareTool interface {
	SetContext(channel, chatID string)
}

// MetadataAwareTool receives the originating inbound message's metadata.
type MetadataAwareTool interface {
	SetMetadata(metadata map[string]string)
}

// FunctionDef is the provider-facing shape of a tool definition.
type FunctionDef struct {
	Type     string         `json:"type"`
	Function FunctionSchema `json:"function"`
}

// FunctionSchema describes a callable function to the LLM provider.
type FunctionSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Registry holds the set of tools available for the model to call by name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds or replaces a tool by name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Name()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// Unregister removes a tool by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Has reports whether a tool is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns the tool registered under name, if any.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Execute runs the named tool. Unknown tool names produce an error
// ToolResult rather than a Go error, matching how every other execution
// failure is surfaced to the caller.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) *ToolResult {
	t, ok := r.Get(name)
	if !ok {
		return ErrorResultf("Error: tool %q not found", name)
	}
	return t.Execute(ctx, args)
}

// ExecuteWithContext runs the named tool after applying channel/chat
// context to tools that opt in via ContextAwareTool, and streams through
// AsyncCallback for tools that implement AsyncTool. It does not pass
// inbound metadata to MetadataAwareTool implementations.
func (r *Registry) ExecuteWithContext(ctx context.Context, name string, args map[string]any, channel, chatID string, callback AsyncCallback) *ToolResult {
	t, ok := r.Get(name)
	if !ok {
		return ErrorResultf("Error: tool %q not found", name)
	}
	if ca, ok := t.(ContextAwareTool); ok {
		ca.SetContext(channel, chatID)
	}
	if at, ok := t.(AsyncTool); ok && callback != nil {
		return at.ExecuteAsync(ctx, args, callback)
	}
	return t.Execute(ctx, args)
}

// Summaries renders a one-line "- name: description" entry per registered
// tool, in registration order, for inclusion in a system prompt.
func (r *Registry) Summaries() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, fmt.Sprintf("- %s: %s", t.Name(), t.Description()))
	}
	return out
}

// ToProviderDefs returns the registered tools as provider-shaped function
// definitions, in registration order.
func (r *Registry) ToProviderDefs() []FunctionDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]FunctionDef, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, FunctionDef{
			Type: "function",
			Function: FunctionSchema{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return out
}

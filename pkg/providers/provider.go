// Package providers adapts LLM backends behind a single Chat/ChatStream
// contract so the agent loop never needs to know which model API it's
// talking to.
package providers

import (
	"context"

	"github.com/localloom/corebot/pkg/media"
)

// ToolCallFunction is the raw function-call payload some providers encode
// arguments into as a JSON string rather than a parsed map.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
	Function  *ToolCallFunction
}

// Message is one turn of conversation sent to a provider.
type Message struct {
	Role         string
	Content      string
	ToolCallID   string
	ToolCalls    []ToolCall
	ContentParts []media.ContentPart
}

// FunctionSchema describes a callable tool to the provider.
type FunctionSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolDefinition is the provider-facing wrapper around a function schema.
type ToolDefinition struct {
	Type     string
	Function FunctionSchema
}

// UsageInfo reports token accounting for a single Chat call.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	CacheReadTokens  int
	CacheCreateTokens int
}

// LLMResponse is a provider's answer to a Chat call.
type LLMResponse struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
	Usage        *UsageInfo
}

// StreamCallback receives incremental text content as it's produced.
type StreamCallback func(delta string)

// LLMProvider is the minimal contract every backend must satisfy.
type LLMProvider interface {
	Chat(ctx context.Context, messages []Message, tools []ToolDefinition, model string, options map[string]any) (*LLMResponse, error)
	GetDefaultModel() string
}

// StreamingProvider is implemented by providers that can stream partial
// content as it is generated; callers type-assert for it since not every
// backend supports streaming.
type StreamingProvider interface {
	LLMProvider
	ChatStream(ctx context.Context, messages []Message, tools []ToolDefinition, model string, options map[string]any, onContent StreamCallback) (*LLMResponse, error)
}

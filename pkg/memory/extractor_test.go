package memory

import (
	"context"
	"testing"

	"github.com/localloom/corebot/pkg/providers"
)

type fakeChatProvider struct {
	content string
}

func (f *fakeChatProvider) Chat(ctx context.Context, messages []providers.Message, tools []providers.ToolDefinition, model string, options map[string]any) (*providers.LLMResponse, error) {
	return &providers.LLMResponse{Content: f.content}, nil
}

func (f *fakeChatProvider) GetDefaultModel() string { return "fake-model" }

func TestExtractFactsSkipsTrivialMessages(t *testing.T) {
	ke := NewKnowledgeExtractor(&fakeChatProvider{}, "fake-model", nil)
	facts, err := ke.ExtractFacts(context.Background(), "hi")
	if err != nil {
		t.Fatalf("ExtractFacts: %v", err)
	}
	if facts != nil {
		t.Fatalf("expected no facts for a trivial message, got %v", facts)
	}
}

func TestExtractFactsParsesJSONArray(t *testing.T) {
	provider := &fakeChatProvider{content: `[{"fact": "User is a Go developer", "category": "biographical"}]`}
	ke := NewKnowledgeExtractor(provider, "fake-model", nil)

	facts, err := ke.ExtractFacts(context.Background(), "I've been writing Go for ten years")
	if err != nil {
		t.Fatalf("ExtractFacts: %v", err)
	}
	if len(facts) != 1 || facts[0].Fact != "User is a Go developer" || facts[0].Category != "biographical" {
		t.Fatalf("unexpected facts: %+v", facts)
	}
}

func TestExtractFactsStripsMarkdownFencesAndThinkTags(t *testing.T) {
	provider := &fakeChatProvider{content: "<think>reasoning...</think>\n```json\n[{\"fact\": \"likes tea\", \"category\": \"preference\"}]\n```"}
	ke := NewKnowledgeExtractor(provider, "fake-model", nil)

	facts, err := ke.ExtractFacts(context.Background(), "I really enjoy drinking tea in the morning")
	if err != nil {
		t.Fatalf("ExtractFacts: %v", err)
	}
	if len(facts) != 1 || facts[0].Fact != "likes tea" {
		t.Fatalf("unexpected facts: %+v", facts)
	}
}

func TestExtractFactsFallsBackToSingleObject(t *testing.T) {
	provider := &fakeChatProvider{content: `{"fact": "works at Acme", "category": "biographical"}`}
	ke := NewKnowledgeExtractor(provider, "fake-model", nil)

	facts, err := ke.ExtractFacts(context.Background(), "I just started working at Acme last week")
	if err != nil {
		t.Fatalf("ExtractFacts: %v", err)
	}
	if len(facts) != 1 || facts[0].Fact != "works at Acme" {
		t.Fatalf("unexpected facts: %+v", facts)
	}
}

func TestExtractFactsErrorsOnUnparseableResponse(t *testing.T) {
	provider := &fakeChatProvider{content: "not json at all"}
	ke := NewKnowledgeExtractor(provider, "fake-model", nil)

	_, err := ke.ExtractFacts(context.Background(), "this message is long enough to pass the trivia check")
	if err == nil {
		t.Fatal("expected an error for an unparseable response")
	}
}

func TestTruncateLeavesShortStringsUntouched(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

func TestTruncateAppendsEllipsisOnLongStrings(t *testing.T) {
	got := truncate("abcdefghij", 5)
	if got != "abcde..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

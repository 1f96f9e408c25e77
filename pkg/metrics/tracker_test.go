package metrics

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestRecordAppendsJSONLEventWithComputedCost(t *testing.T) {
	dir := t.TempDir()
	tr := NewTracker(dir)

	tr.Record(TokenEvent{
		SessionKey:   "telegram:1",
		Model:        "claude-sonnet-4-5-20250929",
		InputTokens:  1_000_000,
		OutputTokens: 1_000_000,
	})

	data, err := os.ReadFile(filepath.Join(dir, "metrics", "tokens.jsonl"))
	if err != nil {
		t.Fatalf("read tokens.jsonl: %v", err)
	}

	var event TokenEvent
	scanner := bufio.NewScanner(bytes.NewReader(data))
	if !scanner.Scan() {
		t.Fatal("expected at least one line")
	}
	if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if event.SessionKey != "telegram:1" {
		t.Fatalf("unexpected session key: %s", event.SessionKey)
	}
	if event.CostUSD != 18.0 {
		t.Fatalf("expected cost 3.0+15.0=18.0 for 1M in + 1M out tokens, got %v", event.CostUSD)
	}
	if event.Timestamp == "" {
		t.Fatal("expected a default timestamp to be stamped")
	}
}

func TestRecordAppendsMultipleEvents(t *testing.T) {
	dir := t.TempDir()
	tr := NewTracker(dir)

	tr.Record(TokenEvent{SessionKey: "a", Model: "claude-haiku-3-5-20241022", InputTokens: 10, OutputTokens: 10})
	tr.Record(TokenEvent{SessionKey: "b", Model: "claude-haiku-3-5-20241022", InputTokens: 10, OutputTokens: 10})

	data, err := os.ReadFile(filepath.Join(dir, "metrics", "tokens.jsonl"))
	if err != nil {
		t.Fatalf("read tokens.jsonl: %v", err)
	}
	lines := 0
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		lines++
	}
	if lines != 2 {
		t.Fatalf("expected 2 appended lines, got %d", lines)
	}
}

func TestCalculateCostFallsBackToSonnetPricingForUnknownModel(t *testing.T) {
	got := calculateCost("some-unlisted-model", 1_000_000, 0, 0, 0)
	if got != 3.0 {
		t.Fatalf("expected fallback Sonnet input pricing of 3.0, got %v", got)
	}
}

func TestCalculateCostCoversOpenAICompatFallbackModel(t *testing.T) {
	got := calculateCost("gpt-4o-mini", 1_000_000, 1_000_000, 0, 0)
	if got != 0.75 {
		t.Fatalf("expected 0.15+0.6=0.75 for 1M in + 1M out tokens of gpt-4o-mini, got %v", got)
	}
}

func TestRecordTagsChannelAndFallbackFlag(t *testing.T) {
	dir := t.TempDir()
	tr := NewTracker(dir)

	tr.Record(TokenEvent{SessionKey: "telegram:1", Channel: "telegram", Model: "gpt-4o-mini", Fallback: true})

	data, err := os.ReadFile(filepath.Join(dir, "metrics", "tokens.jsonl"))
	if err != nil {
		t.Fatalf("read tokens.jsonl: %v", err)
	}
	var event TokenEvent
	if err := json.Unmarshal(data[:bytes.IndexByte(data, '\n')], &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if event.Channel != "telegram" || !event.Fallback {
		t.Fatalf("expected channel+fallback to be recorded, got %+v", event)
	}
}

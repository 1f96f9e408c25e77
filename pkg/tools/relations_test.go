package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/localloom/corebot/pkg/memory"
)

func TestRememberRelationToolRecordsAndQueryRelationsToolFindsIt(t *testing.T) {
	store := memory.NewRelationStore(t.TempDir())
	remember := NewRememberRelationTool(store)
	query := NewQueryRelationsTool(store)

	result := remember.Execute(context.Background(), map[string]interface{}{
		"subject":   "Alice",
		"predicate": "works at",
		"object":    "Acme",
	})
	if result.IsError {
		t.Fatalf("unexpected error recording relation: %+v", result)
	}

	queried := query.Execute(context.Background(), map[string]interface{}{"entity": "Alice"})
	if queried.IsError {
		t.Fatalf("unexpected error querying relation: %+v", queried)
	}
	if !strings.Contains(queried.ForLLM, "Acme") {
		t.Fatalf("expected query result to mention Acme, got %q", queried.ForLLM)
	}
}

func TestRememberRelationToolRequiresAllFields(t *testing.T) {
	remember := NewRememberRelationTool(memory.NewRelationStore(t.TempDir()))
	result := remember.Execute(context.Background(), map[string]interface{}{"subject": "Alice"})
	if !result.IsError {
		t.Fatal("expected an error when predicate/object are missing")
	}
}

func TestQueryRelationsToolReturnsMessageWhenEmpty(t *testing.T) {
	query := NewQueryRelationsTool(memory.NewRelationStore(t.TempDir()))
	result := query.Execute(context.Background(), map[string]interface{}{"entity": "Nobody"})
	if result.IsError {
		t.Fatalf("unexpected error: %+v", result)
	}
	if !strings.Contains(result.ForLLM, "No recorded relations") {
		t.Fatalf("expected a no-results message, got %q", result.ForLLM)
	}
}

func TestQueryRelationsToolRequiresEntity(t *testing.T) {
	query := NewQueryRelationsTool(memory.NewRelationStore(t.TempDir()))
	result := query.Execute(context.Background(), map[string]interface{}{})
	if !result.IsError {
		t.Fatal("expected an error when entity is missing")
	}
}

func TestRememberRelationToolTagsChannelFromContext(t *testing.T) {
	store := memory.NewRelationStore(t.TempDir())
	remember := NewRememberRelationTool(store)
	remember.SetContext("telegram", "c1")

	result := remember.Execute(context.Background(), map[string]interface{}{
		"subject":   "Bob",
		"predicate": "lives in",
		"object":    "Berlin",
	})
	if result.IsError {
		t.Fatalf("unexpected error: %+v", result)
	}

	relations := store.Query("Bob")
	if len(relations) != 1 || relations[0].Channel != "telegram" {
		t.Fatalf("expected relation tagged with channel, got %+v", relations)
	}
}

func TestQueryRelationsToolPrefersSameChannel(t *testing.T) {
	store := memory.NewRelationStore(t.TempDir())
	if err := store.Add(memory.Relation{Subject: "Carol", Predicate: "works at", Object: "Other Co", Channel: "whatsapp"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := store.Add(memory.Relation{Subject: "Carol", Predicate: "works at", Object: "Acme", Channel: "telegram"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	query := NewQueryRelationsTool(store)
	query.SetContext("telegram", "c1")

	result := query.Execute(context.Background(), map[string]interface{}{"entity": "Carol"})
	if result.IsError {
		t.Fatalf("unexpected error: %+v", result)
	}
	if !strings.Contains(result.ForLLM, "Acme") || !strings.Contains(result.ForLLM, "Other Co") {
		t.Fatalf("expected both channels' relations present, got %q", result.ForLLM)
	}
	if strings.Index(result.ForLLM, "Acme") > strings.Index(result.ForLLM, "Other Co") {
		t.Fatalf("expected the same-channel relation listed first, got %q", result.ForLLM)
	}
}

func TestRelationToolNamesAndParameters(t *testing.T) {
	store := memory.NewRelationStore(t.TempDir())
	remember := NewRememberRelationTool(store)
	query := NewQueryRelationsTool(store)

	if remember.Name() != "remember_relation" {
		t.Fatalf("unexpected name: %s", remember.Name())
	}
	if query.Name() != "query_relations" {
		t.Fatalf("unexpected name: %s", query.Name())
	}
	if remember.Parameters()["type"] != "object" || query.Parameters()["type"] != "object" {
		t.Fatal("expected object-typed parameter schemas")
	}
}

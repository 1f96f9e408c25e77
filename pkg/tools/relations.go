package tools

import (
	"context"
	"fmt"

	"github.com/localloom/corebot/pkg/memory"
)

// RememberRelationTool records a subject-predicate-object fact about how
// two entities relate, for later 1-hop graph-style recall. It implements
// ContextAwareTool so relations are tagged with the originating channel.
type RememberRelationTool struct {
	store   *memory.RelationStore
	channel string
}

func NewRememberRelationTool(store *memory.RelationStore) *RememberRelationTool {
	return &RememberRelationTool{store: store}
}

// SetContext records which channel new relations should be tagged with.
func (t *RememberRelationTool) SetContext(channel, chatID string) {
	t.channel = channel
}

func (t *RememberRelationTool) Name() string { return "remember_relation" }

func (t *RememberRelationTool) Description() string {
	return "Record a relationship between two entities as a subject-predicate-object triple (e.g. subject=\"Alice\", predicate=\"works at\", object=\"Acme\"), so it can be recalled later with query_relations."
}

func (t *RememberRelationTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"subject":   map[string]interface{}{"type": "string", "description": "The entity the relation is about"},
			"predicate": map[string]interface{}{"type": "string", "description": "The relationship, e.g. \"works at\", \"is married to\""},
			"object":    map[string]interface{}{"type": "string", "description": "The related entity"},
		},
		"required": []string{"subject", "predicate", "object"},
	}
}

func (t *RememberRelationTool) Execute(ctx context.Context, args map[string]interface{}) *ToolResult {
	subject, _ := args["subject"].(string)
	predicate, _ := args["predicate"].(string)
	object, _ := args["object"].(string)
	if subject == "" || predicate == "" || object == "" {
		return ErrorResult("subject, predicate, and object are all required")
	}

	if err := t.store.Add(memory.Relation{Subject: subject, Predicate: predicate, Object: object, Channel: t.channel}); err != nil {
		return ErrorResultf("failed to record relation: %v", err)
	}
	return SilentResult(fmt.Sprintf("Recorded: %s %s %s", subject, predicate, object))
}

// QueryRelationsTool looks up every recorded relation touching an entity,
// preferring relations recorded on the same channel the query came from.
// It implements ContextAwareTool for that channel-scoping.
type QueryRelationsTool struct {
	store   *memory.RelationStore
	channel string
}

func NewQueryRelationsTool(store *memory.RelationStore) *QueryRelationsTool {
	return &QueryRelationsTool{store: store}
}

// SetContext records which channel queries should prefer.
func (t *QueryRelationsTool) SetContext(channel, chatID string) {
	t.channel = channel
}

func (t *QueryRelationsTool) Name() string { return "query_relations" }

func (t *QueryRelationsTool) Description() string {
	return "Look up all recorded relationships touching a named entity (as either subject or object)."
}

func (t *QueryRelationsTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"entity": map[string]interface{}{"type": "string", "description": "The entity name to look up"},
		},
		"required": []string{"entity"},
	}
}

func (t *QueryRelationsTool) Execute(ctx context.Context, args map[string]interface{}) *ToolResult {
	entity, _ := args["entity"].(string)
	if entity == "" {
		return ErrorResult("entity is required")
	}

	relations := t.store.QueryScoped(entity, t.channel)
	if len(relations) == 0 {
		return Result(fmt.Sprintf("No recorded relations for %q.", entity))
	}
	return Result(memory.FormatRelations(relations))
}

package memory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Relation represents a subject-predicate-object triple, optionally scoped to
// the channel (telegram, whatsapp, ...) the conversation that produced it
// came from, so cross-channel recall can prefer same-channel context first.
type Relation struct {
	Subject   string `json:"s"`
	Predicate string `json:"p"`
	Object    string `json:"o"`
	Timestamp string `json:"ts"`
	Channel   string `json:"channel,omitempty"`
}

// RelationStore is a simple JSONL-backed 1-hop relationship graph over
// entities mentioned across conversations.
type RelationStore struct {
	relations []Relation
	filePath  string
	mu        sync.RWMutex
}

// NewRelationStore loads or creates a relation store at workspace/memory/relations.jsonl.
func NewRelationStore(workspace string) *RelationStore {
	dir := filepath.Join(workspace, "memory")
	os.MkdirAll(dir, 0755)
	fp := filepath.Join(dir, "relations.jsonl")

	rs := &RelationStore{filePath: fp}
	rs.load()
	return rs
}

// Add appends a new relation and persists it. Exact (subject, predicate,
// object) duplicates within the same channel are skipped.
func (rs *RelationStore) Add(r Relation) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if r.Timestamp == "" {
		r.Timestamp = time.Now().Format(time.RFC3339)
	}

	for _, existing := range rs.relations {
		if existing.Subject == r.Subject && existing.Predicate == r.Predicate &&
			existing.Object == r.Object && existing.Channel == r.Channel {
			return nil
		}
	}

	rs.relations = append(rs.relations, r)
	return rs.appendToFile(r)
}

// Query returns all relations where entity appears as subject or object (1-hop traversal),
// across every channel.
func (rs *RelationStore) Query(entity string) []Relation {
	return rs.QueryScoped(entity, "")
}

// QueryScoped returns relations touching entity: those recorded on the given
// channel or with no channel come first, followed by every match from other
// channels. Pass an empty channel to search across all channels equally.
func (rs *RelationStore) QueryScoped(entity, channel string) []Relation {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	entity = strings.ToLower(entity)
	matches := func(r Relation) bool {
		return strings.ToLower(r.Subject) == entity || strings.ToLower(r.Object) == entity
	}

	if channel == "" {
		var results []Relation
		for _, r := range rs.relations {
			if matches(r) {
				results = append(results, r)
			}
		}
		return results
	}

	var scoped, other []Relation
	for _, r := range rs.relations {
		if !matches(r) {
			continue
		}
		if r.Channel == "" || r.Channel == channel {
			scoped = append(scoped, r)
		} else {
			other = append(other, r)
		}
	}
	return append(scoped, other...)
}

// FormatRelations formats relations into a readable string.
func FormatRelations(relations []Relation) string {
	if len(relations) == 0 {
		return ""
	}
	var lines []string
	for _, r := range relations {
		lines = append(lines, r.Subject+" → "+r.Predicate+" → "+r.Object)
	}
	return strings.Join(lines, "\n")
}

func (rs *RelationStore) load() {
	data, err := os.ReadFile(rs.filePath)
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var r Relation
		if err := json.Unmarshal([]byte(line), &r); err == nil {
			rs.relations = append(rs.relations, r)
		}
	}
}

func (rs *RelationStore) appendToFile(r Relation) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(rs.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	f.Write(data)
	f.Write([]byte("\n"))
	return nil
}

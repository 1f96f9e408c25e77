// Package session implements the per-conversation history store (spec.md
// §4.3): an in-memory cache backed by one JSON file per session key under
// <workspace>/sessions/.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

// Turn is a single entry in a session's message history. Extra keys
// (ToolCallID, Name, ToolCalls) are preserved on disk and round-tripped to
// callers, but GetHistory strips everything except the model-contract keys.
type Turn struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	Timestamp  *time.Time     `json:"timestamp,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
	ToolCalls  []ToolCallSpec `json:"tool_calls,omitempty"`
}

// ToolCallSpec mirrors the subset of a provider tool-call the session needs
// to persist and replay as conversation history.
type ToolCallSpec struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Function map[string]any `json:"function,omitempty"`
}

// HistoryTurn is the trimmed, model-contract shape returned by GetHistory:
// only {role, content, ...tool-call keys when present}.
type HistoryTurn struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
	ToolCalls  []ToolCallSpec `json:"tool_calls,omitempty"`
}

// Session is a conversation's durable history plus metadata. Invariant:
// UpdatedAt >= CreatedAt; UpdatedAt advances on every mutation.
type Session struct {
	mu        sync.Mutex
	Key       string         `json:"key"`
	Messages  []Turn         `json:"messages"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Metadata  map[string]any `json:"metadata"`
}

// New creates a fresh, empty session for key.
func New(key string) *Session {
	now := time.Now().UTC()
	return &Session{
		Key:       key,
		Messages:  []Turn{},
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  map[string]any{},
	}
}

// AddMessage appends {role, content, timestamp: now} and advances UpdatedAt.
func (s *Session) AddMessage(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	s.Messages = append(s.Messages, Turn{Role: role, Content: content, Timestamp: &now})
	s.UpdatedAt = now
}

// AddFullMessage appends a turn with extra tool-call fields intact.
func (s *Session) AddFullMessage(turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if turn.Timestamp == nil {
		now := time.Now().UTC()
		turn.Timestamp = &now
	}
	s.Messages = append(s.Messages, turn)
	s.UpdatedAt = time.Now().UTC()
}

// Clear empties the message history and advances UpdatedAt.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = []Turn{}
	s.UpdatedAt = time.Now().UTC()
}

// GetHistory returns the last maxMessages turns, trimmed to the
// model-contract keys, preserving insertion order.
func (s *Session) GetHistory(maxMessages int) []HistoryTurn {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := 0
	if maxMessages > 0 && len(s.Messages) > maxMessages {
		start = len(s.Messages) - maxMessages
	}

	out := make([]HistoryTurn, 0, len(s.Messages)-start)
	for _, m := range s.Messages[start:] {
		out = append(out, HistoryTurn{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
			ToolCalls:  m.ToolCalls,
		})
	}
	return out
}

// Summary returns the session's rolling summary, or "" if none has been
// set yet.
func (s *Session) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.Metadata["summary"].(string); ok {
		return v
	}
	return ""
}

// SetSummary replaces the session's rolling summary.
func (s *Session) SetSummary(summary string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Metadata["summary"] = summary
}

// MessageCount returns the number of turns currently held.
func (s *Session) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Messages)
}

// snapshot returns a value copy suitable for JSON marshalling without
// holding the lock across I/O.
func (s *Session) snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]Turn, len(s.Messages))
	copy(msgs, s.Messages)
	meta := make(map[string]any, len(s.Metadata))
	for k, v := range s.Metadata {
		meta[k] = v
	}
	return Session{Key: s.Key, Messages: msgs, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt, Metadata: meta}
}

// Manager owns the session cache and on-disk files exclusively; callers
// must commit mutations via Save.
type Manager struct {
	sessionsDir string
	mu          sync.Mutex
	cache       map[string]*Session
}

// NewManager creates a Manager rooted at <workspace>/sessions/.
func NewManager(workspace string) *Manager {
	dir := filepath.Join(workspace, "sessions")
	os.MkdirAll(dir, 0755)
	return &Manager{sessionsDir: dir, cache: make(map[string]*Session)}
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9:_-]`)

// sanitizeKey maps a session key to a filesystem-safe name: every character
// outside [A-Za-z0-9:_-] becomes '_'; ':' is kept.
func sanitizeKey(key string) string {
	return unsafeKeyChars.ReplaceAllString(key, "_")
}

func (m *Manager) pathFor(key string) string {
	return filepath.Join(m.sessionsDir, sanitizeKey(key)+".json")
}

// GetOrCreate returns the cached session for key, loading from disk on a
// cache miss, or creating (and caching) a fresh empty session when no file
// exists. Corrupt on-disk JSON is treated as absent.
func (m *Manager) GetOrCreate(key string) *Session {
	m.mu.Lock()
	if s, ok := m.cache[key]; ok {
		m.mu.Unlock()
		return s
	}
	m.mu.Unlock()

	path := m.pathFor(key)
	data, err := os.ReadFile(path)
	if err == nil {
		var loaded Session
		if jsonErr := json.Unmarshal(data, &loaded); jsonErr == nil {
			s := &Session{
				Key:       loaded.Key,
				Messages:  loaded.Messages,
				CreatedAt: loaded.CreatedAt,
				UpdatedAt: loaded.UpdatedAt,
				Metadata:  loaded.Metadata,
			}
			if s.Messages == nil {
				s.Messages = []Turn{}
			}
			if s.Metadata == nil {
				s.Metadata = map[string]any{}
			}
			m.mu.Lock()
			m.cache[key] = s
			m.mu.Unlock()
			return s
		}
		// Corrupt JSON: fall through to a fresh session.
	}

	fresh := New(key)
	m.mu.Lock()
	m.cache[key] = fresh
	m.mu.Unlock()
	return fresh
}

// Save atomically writes the session to disk (write-to-temp + rename) and
// refreshes the cache entry. Rejects a write that would collide, after
// sanitisation, with a different logical key already on disk (see spec.md
// §9 open question — collisions are unsupported and rejected here).
func (m *Manager) Save(s *Session) error {
	snap := s.snapshot()
	path := m.pathFor(snap.Key)

	if existing, err := os.ReadFile(path); err == nil {
		var onDisk Session
		if json.Unmarshal(existing, &onDisk) == nil && onDisk.Key != "" && onDisk.Key != snap.Key {
			return fmt.Errorf("session: key collision at %s: on-disk key %q != %q", path, onDisk.Key, snap.Key)
		}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshal %s: %w", snap.Key, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("session: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		m.invalidate(snap.Key)
		return fmt.Errorf("session: rename temp file: %w", err)
	}

	m.mu.Lock()
	m.cache[snap.Key] = s
	m.mu.Unlock()
	return nil
}

// invalidate removes a cache entry so the next GetOrCreate forces a reload.
func (m *Manager) invalidate(key string) {
	m.mu.Lock()
	delete(m.cache, key)
	m.mu.Unlock()
}

// Delete removes the on-disk file and cache entry. Returns whether anything
// was removed.
func (m *Manager) Delete(key string) bool {
	m.mu.Lock()
	_, cached := m.cache[key]
	delete(m.cache, key)
	m.mu.Unlock()

	path := m.pathFor(key)
	err := os.Remove(path)
	removedFile := err == nil
	return cached || removedFile
}

// SessionSummary is the shape returned by ListSessions.
type SessionSummary struct {
	Key          string    `json:"key"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// ListSessions scans <workspace>/sessions/*.json and returns a summary of
// each, read from disk only; unsaved changes in cached sessions are not
// reflected.
func (m *Manager) ListSessions() ([]SessionSummary, error) {
	entries, err := os.ReadDir(m.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("session: list %s: %w", m.sessionsDir, err)
	}

	var out []SessionSummary
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(m.sessionsDir, e.Name()))
		if err != nil {
			continue
		}
		var s Session
		if err := json.Unmarshal(data, &s); err != nil {
			continue
		}
		out = append(out, SessionSummary{Key: s.Key, UpdatedAt: s.UpdatedAt, MessageCount: len(s.Messages)})
	}
	return out, nil
}

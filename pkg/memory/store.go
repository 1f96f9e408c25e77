// Package memory implements the spec-mandated lexical memory store
// (SPEC_FULL.md §4.4): a long-term MEMORY.md file plus one dated note file
// per day under <workspace>/memory/, with a simple tokenized lexical search
// index layered on top. The optional chromem-go-backed semantic layer
// (VectorStore, knowledge extraction, relation store) lives alongside this
// file in the same package as an additional, opt-in search path.
package memory

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

const longTermFileName = "MEMORY.md"

var dailyFileRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\.md$`)

// Store is the lexical, file-backed memory store rooted at
// <workspace>/memory/.
type Store struct {
	workspace string
	mu        sync.Mutex

	idxMu sync.RWMutex
	index map[string][]posting // term -> postings across indexed files
	docs  map[string]string    // file name -> full content, for snippet extraction
}

type posting struct {
	file string
	tf   int
}

// NewStore ensures <workspace>/memory/ exists and returns a Store over it.
func NewStore(workspace string) (*Store, error) {
	dir := filepath.Join(workspace, "memory")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("memory: create %s: %w", dir, err)
	}
	return &Store{workspace: workspace}, nil
}

func (s *Store) memoryDir() string {
	return filepath.Join(s.workspace, "memory")
}

// Workspace returns the root workspace path.
func (s *Store) Workspace() string { return s.workspace }

// MemoryDir returns <workspace>/memory.
func (s *Store) MemoryDir() string { return s.memoryDir() }

// LongTermFile returns <workspace>/memory/MEMORY.md.
func (s *Store) LongTermFile() string {
	return filepath.Join(s.memoryDir(), longTermFileName)
}

func (s *Store) todayFile() string {
	return filepath.Join(s.memoryDir(), time.Now().Format("2006-01-02")+".md")
}

// GetTodayFile returns the path of today's dated note file.
func (s *Store) GetTodayFile() string { return s.todayFile() }

// ReadToday returns today's note content, or "" if no note has been
// written yet today.
func (s *Store) ReadToday() (string, error) {
	return s.readFileOrEmpty(s.todayFile())
}

// AppendToday appends content to today's note file under a date header,
// creating the file (and header) on first write of the day.
func (s *Store) AppendToday(content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.todayFile()
	existing, err := s.readFileOrEmpty(path)
	if err != nil {
		return err
	}

	var sb strings.Builder
	if existing == "" {
		sb.WriteString("# " + time.Now().Format("2006-01-02") + "\n\n")
	} else {
		sb.WriteString(existing)
		if !strings.HasSuffix(existing, "\n") {
			sb.WriteString("\n")
		}
	}
	sb.WriteString(content)
	sb.WriteString("\n")

	return os.WriteFile(path, []byte(sb.String()), 0644)
}

// ReadLongTerm returns the long-term memory file's content, or "" if it
// doesn't exist yet.
func (s *Store) ReadLongTerm() (string, error) {
	return s.readFileOrEmpty(s.LongTermFile())
}

// WriteLongTerm overwrites the long-term memory file entirely.
func (s *Store) WriteLongTerm(content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return os.WriteFile(s.LongTermFile(), []byte(content), 0644)
}

func (s *Store) readFileOrEmpty(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("memory: read %s: %w", path, err)
	}
	return string(data), nil
}

// ListMemoryFiles returns the dated note files (YYYY-MM-DD.md only, not
// MEMORY.md or anything else), newest first.
func (s *Store) ListMemoryFiles() ([]string, error) {
	entries, err := os.ReadDir(s.memoryDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("memory: list %s: %w", s.memoryDir(), err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !dailyFileRe.MatchString(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// GetRecentMemories returns the content of the N most recent dated note
// files, newest first.
func (s *Store) GetRecentMemories(n int) ([]string, error) {
	files, err := s.ListMemoryFiles()
	if err != nil {
		return nil, err
	}
	if n < len(files) {
		files = files[:n]
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		content, err := s.readFileOrEmpty(filepath.Join(s.memoryDir(), f))
		if err != nil {
			return nil, err
		}
		out = append(out, content)
	}
	return out, nil
}

// GetMemoryContext assembles the long-term memory and today's notes into a
// single prompt-ready block, omitting sections that are empty.
func (s *Store) GetMemoryContext() (string, error) {
	longTerm, err := s.ReadLongTerm()
	if err != nil {
		return "", err
	}
	today, err := s.ReadToday()
	if err != nil {
		return "", err
	}

	var parts []string
	if strings.TrimSpace(longTerm) != "" {
		parts = append(parts, "## Long-term Memory\n\n"+strings.TrimSpace(longTerm))
	}
	if strings.TrimSpace(today) != "" {
		parts = append(parts, "## Today's Notes\n\n"+strings.TrimSpace(today))
	}
	return strings.Join(parts, "\n\n"), nil
}

var tokenRe = regexp.MustCompile(`[A-Za-z0-9]+`)

func tokenize(text string) []string {
	matches := tokenRe.FindAllString(strings.ToLower(text), -1)
	return matches
}

// BuildIndex (re)builds the tokenized lexical index over MEMORY.md and all
// dated note files. Must be called before SearchMemory observes new
// content; cheap enough to call on every search if freshness matters more
// than raw throughput.
func (s *Store) BuildIndex() (int, error) {
	files := map[string]string{}

	if content, err := s.ReadLongTerm(); err == nil && strings.TrimSpace(content) != "" {
		files[longTermFileName] = content
	}

	names, err := s.ListMemoryFiles()
	if err != nil {
		return 0, err
	}
	for _, name := range names {
		content, err := s.readFileOrEmpty(filepath.Join(s.memoryDir(), name))
		if err != nil {
			return 0, err
		}
		if strings.TrimSpace(content) != "" {
			files[name] = content
		}
	}

	index := make(map[string][]posting)
	for file, content := range files {
		counts := map[string]int{}
		for _, tok := range tokenize(content) {
			counts[tok]++
		}
		for term, tf := range counts {
			index[term] = append(index[term], posting{file: file, tf: tf})
		}
	}

	s.idxMu.Lock()
	s.index = index
	s.docs = files
	s.idxMu.Unlock()

	return len(files), nil
}

// SearchResult is one lexical search hit.
type SearchResult struct {
	File    string  `json:"file"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// SearchMemory scores indexed files against query using
// term_frequency * log(1 + N/document_frequency) per matched query term,
// summed per file, returning the top maxResults by score descending.
// Callers should call BuildIndex at least once before searching.
func (s *Store) SearchMemory(query string, maxResults int) []SearchResult {
	s.idxMu.RLock()
	defer s.idxMu.RUnlock()

	if len(s.docs) == 0 {
		return nil
	}
	n := float64(len(s.docs))

	scores := map[string]float64{}
	for _, term := range tokenize(query) {
		postings, ok := s.index[term]
		if !ok {
			continue
		}
		df := float64(len(postings))
		weight := math.Log(1 + n/df)
		for _, p := range postings {
			scores[p.file] += float64(p.tf) * weight
		}
	}

	results := make([]SearchResult, 0, len(scores))
	for file, score := range scores {
		results = append(results, SearchResult{
			File:    file,
			Snippet: snippetFor(s.docs[file], query),
			Score:   score,
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// snippetFor returns a short window of content around the first occurrence
// of any query token, falling back to the document's opening text.
func snippetFor(content, query string) string {
	const radius = 80
	lower := strings.ToLower(content)
	for _, tok := range tokenize(query) {
		if idx := strings.Index(lower, tok); idx >= 0 {
			start := idx - radius
			if start < 0 {
				start = 0
			}
			end := idx + len(tok) + radius
			if end > len(content) {
				end = len(content)
			}
			return strings.TrimSpace(content[start:end])
		}
	}
	if len(content) > 2*radius {
		return strings.TrimSpace(content[:2*radius])
	}
	return strings.TrimSpace(content)
}

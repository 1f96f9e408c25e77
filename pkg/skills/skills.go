// Package skills loads reusable instruction snippets ("skills") from
// <workspace>/skills/<name>/SKILL.md, each with optional YAML-ish
// frontmatter. The loader is grounded on the teacher's specialist loader
// (frontmatter parsing, summary building), adapted to the simpler
// single-level skills layout.
package skills

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const skillFileName = "SKILL.md"

// Info is the metadata the loader extracts for one skill.
type Info struct {
	Name        string
	Path        string
	Description string
}

// Loader scans a skills directory for SKILL.md files.
type Loader struct {
	skillsDir string
}

// NewLoader returns a Loader rooted at <workspace>/skills.
func NewLoader(workspace string) *Loader {
	return &Loader{skillsDir: filepath.Join(workspace, "skills")}
}

// Dir returns the skills root directory.
func (l *Loader) Dir() string { return l.skillsDir }

// List scans each immediate subdirectory of the skills root for a
// SKILL.md file and returns its metadata, name defaulting to the
// directory name when frontmatter omits it.
func (l *Loader) List() ([]Info, error) {
	entries, err := os.ReadDir(l.skillsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("skills: list %s: %w", l.skillsDir, err)
	}

	var out []Info
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(l.skillsDir, e.Name(), skillFileName)
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		meta := parseFrontmatter(string(content))
		name := meta["name"]
		if name == "" {
			name = e.Name()
		}
		out = append(out, Info{
			Name:        name,
			Path:        path,
			Description: meta["description"],
		})
	}
	return out, nil
}

// Exists reports whether a skill directory with a SKILL.md file exists.
func (l *Loader) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(l.skillsDir, name, skillFileName))
	return err == nil
}

// Load returns a skill's body with any frontmatter block stripped.
func (l *Loader) Load(name string) (string, error) {
	path := filepath.Join(l.skillsDir, name, skillFileName)
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("skills: load %s: %w", name, err)
	}
	return stripFrontmatter(string(content)), nil
}

// BuildSummary renders an XML-ish index of all skills for inclusion in the
// system prompt: <skills><skill name="..." description="..."/></skills>.
func (l *Loader) BuildSummary() (string, error) {
	infos, err := l.List()
	if err != nil {
		return "", err
	}
	if len(infos) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("<skills>\n")
	for _, info := range infos {
		sb.WriteString(fmt.Sprintf("  <skill name=%q description=%q/>\n", info.Name, escapeXMLAttr(info.Description)))
	}
	sb.WriteString("</skills>")
	return sb.String(), nil
}

var (
	frontmatterRe      = regexp.MustCompile(`(?s)^---\n(.*?)\n---`)
	frontmatterStripRe = regexp.MustCompile(`(?s)^---\n.*?\n---\n?`)
)

// parseFrontmatter extracts the leading `---\n...\n---` block, trying JSON
// first and falling back to a simple line-by-line `key: value` parse, the
// same two-tier strategy the teacher uses for specialist metadata.
func parseFrontmatter(content string) map[string]string {
	m := frontmatterRe.FindStringSubmatch(content)
	if m == nil {
		return map[string]string{}
	}
	block := m[1]

	var asJSON map[string]string
	if err := json.Unmarshal([]byte("{"+strings.TrimSpace(block)+"}"), &asJSON); err == nil {
		return asJSON
	}

	return parseSimpleYAML(block)
}

func parseSimpleYAML(block string) map[string]string {
	out := map[string]string{}
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		val = strings.Trim(val, `"'`)
		out[key] = val
	}
	return out
}

func stripFrontmatter(content string) string {
	return strings.TrimSpace(frontmatterStripRe.ReplaceAllString(content, ""))
}

func escapeXMLAttr(s string) string {
	r := strings.NewReplacer(`&`, "&amp;", `"`, "&quot;", `<`, "&lt;", `>`, "&gt;")
	return r.Replace(s)
}

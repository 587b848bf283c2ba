// Package parser turns Markdown notes into frontmatter, hierarchy metadata,
// typed content blocks, wikilinks and tags.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/arbor/internal/models"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// Meta holds the hierarchy fields read from frontmatter.
type Meta struct {
	ID      string
	Parent  string
	Order   int
	Color   string
	Created time.Time
}

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]interface{}
	Meta        Meta
	Body        string
	Blocks      models.Blocks
	Links       []string
	Tags        []string
	Title       string
}

// Parse extracts frontmatter, body, blocks, wikilinks, and tags from raw
// Markdown bytes.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	return &Result{
		Frontmatter: fm,
		Meta:        readMeta(fm),
		Body:        body,
		Blocks:      ParseBlocks(body),
		Links:       Links(body),
		Tags:        extractTags(body, fm),
		Title:       deriveTitle(fm, body),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]interface{}, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML: keep the whole file as body.
		return nil, string(data), nil
	}

	return fm, body, nil
}

// readMeta pulls id, parent, order, color and created out of frontmatter.
// Missing or mistyped fields are left zero.
func readMeta(fm map[string]interface{}) Meta {
	var m Meta
	if fm == nil {
		return m
	}
	m.ID = scalarString(fm["id"])
	m.Parent = strings.TrimSpace(unwrapLink(scalarString(fm["parent"])))
	m.Color = scalarString(fm["color"])
	switch v := fm["order"].(type) {
	case int:
		m.Order = v
	case float64:
		m.Order = int(v)
	}
	switch v := fm["created"].(type) {
	case time.Time:
		m.Created = v
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			m.Created = t
		} else if t, err := time.Parse(time.DateOnly, v); err == nil {
			m.Created = t
		}
	}
	return m
}

// scalarString formats YAML scalars (strings, numbers) as strings.
func scalarString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case int, int64, float64, bool:
		return fmt.Sprint(s)
	}
	return ""
}

// unwrapLink lets frontmatter reference a parent as "[[target]]".
func unwrapLink(s string) string {
	if m := wikilinkRe.FindStringSubmatch(s); m != nil {
		return linkTarget(m[1])
	}
	return s
}

// Links returns deduplicated wikilink targets in text, dropping aliases.
func Links(text string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		target := linkTarget(m[1])
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// linkTarget strips an alias: [[Target|Alias]] → Target.
func linkTarget(raw string) string {
	if i := strings.Index(raw, "|"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw)
}

// extractTags collects #tags from body and from frontmatter "tags" field.
func extractTags(body string, fm map[string]interface{}) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	if fm != nil {
		switch v := fm["tags"].(type) {
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok {
					add(s)
				}
			}
		case string:
			for _, s := range strings.Split(v, ",") {
				add(s)
			}
		}
	}

	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}

	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]interface{}, body string) string {
	if fm != nil {
		if s, ok := fm["title"].(string); ok && s != "" {
			return s
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

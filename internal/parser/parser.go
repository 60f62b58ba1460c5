// Package parser extracts frontmatter and cross-references from Markdown essays.
//
// A post file is a YAML frontmatter block between leading --- delimiter lines,
// followed by a Markdown body. The body is never rewritten: parsing splits the
// two and passes the body through unmodified. Frontmatter is kept as a yaml.v3
// node tree so re-serialization preserves key order.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/ansuz/internal/models"
)

var (
	// (!?)[text](target "title") — bang distinguishes images from links.
	linkRe = regexp.MustCompile(`(!?)\[[^\]]*\]\(\s*<?([^)\s>]+)>?(?:\s+"[^"]*")?\s*\)`)
	// [id]: target — reference-style link definitions, up to 3 leading spaces.
	refDefRe = regexp.MustCompile(`(?m)^ {0,3}\[[^\]]+\]:\s+(\S+)`)
	// Inline code spans, single or double backticks within one line.
	codeSpanRe = regexp.MustCompile("``.+?``|`[^`\n]+`")
	schemeRe   = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
)

// Ref is a single extracted cross-reference target.
type Ref struct {
	Target string
	Kind   models.RefKind
}

// Result holds the output of parsing a post file.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Refs        []Ref
	Tags        []string
	Layout      string
	Title       string

	// HasFrontmatter is true when a well-formed frontmatter block was parsed.
	HasFrontmatter bool
	// Malformed is true when an opening --- delimiter was present but the
	// block could not be parsed (missing close delimiter or invalid YAML).
	Malformed bool

	doc *yaml.Node // preserved node tree for order-stable re-serialization
}

// Parse splits frontmatter from the body and extracts cross-references,
// tags, layout, and title from raw post bytes.
func Parse(data []byte) (*Result, error) {
	r := &Result{}
	splitFrontmatter(data, r)

	r.Refs = extractRefs(r.Body)
	r.Tags = extractTags(r.Frontmatter)
	r.Layout = stringField(r.Frontmatter, "layout")
	r.Title = deriveTitle(r.Frontmatter, r.Body)

	return r, nil
}

// splitFrontmatter separates the YAML frontmatter block (between leading ---
// delimiter lines) from the Markdown body. A file without an opening
// delimiter is all body. A malformed block (no closing delimiter, or YAML
// that fails to parse) also falls back to all body, with Malformed set so
// the lint layer can report it.
func splitFrontmatter(data []byte, r *Result) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		r.Body = string(data)
		return
	}

	rest := trimmed[len(delim):]
	idx := closingDelimiter(rest)
	if idx < 0 {
		r.Body = string(data)
		r.Malformed = true
		return
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var doc yaml.Node
	if err := yaml.Unmarshal(yamlBlock, &doc); err != nil {
		r.Body = string(data)
		r.Malformed = true
		return
	}

	var fm map[string]any
	if len(doc.Content) > 0 {
		if err := doc.Content[0].Decode(&fm); err != nil {
			r.Body = string(data)
			r.Malformed = true
			return
		}
	}

	r.Frontmatter = fm
	r.Body = body
	r.HasFrontmatter = true
	if len(doc.Content) > 0 {
		r.doc = &doc
	}
}

// closingDelimiter finds the offset of the "\n---" that ends the frontmatter
// block, requiring the delimiter to occupy its own line (followed by a line
// break or EOF) so that e.g. a "----" horizontal rule inside a value does
// not terminate the block early.
func closingDelimiter(rest []byte) int {
	const marker = "\n---"
	from := 0
	for {
		i := bytes.Index(rest[from:], []byte(marker))
		if i < 0 {
			return -1
		}
		idx := from + i
		after := rest[idx+len(marker):]
		if len(after) == 0 || after[0] == '\n' || after[0] == '\r' {
			return idx
		}
		from = idx + 1
	}
}

// MarshalFrontmatter re-serializes the preserved frontmatter node tree.
// Key order and comments survive the round trip. Returns nil when the post
// had no well-formed frontmatter.
func (r *Result) MarshalFrontmatter() ([]byte, error) {
	if r.doc == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r.doc); err != nil {
		return nil, fmt.Errorf("parser: marshal frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("parser: marshal frontmatter: %w", err)
	}
	return buf.Bytes(), nil
}

// Normalize returns the canonical serialization of the post: frontmatter
// between --- delimiters, one blank line, then the body unmodified.
// Normalizing an already-normalized post is a no-op.
func (r *Result) Normalize() ([]byte, error) {
	if r.doc == nil {
		return []byte(r.Body), nil
	}
	fm, err := r.MarshalFrontmatter()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n")
	buf.WriteString(r.Body)
	return buf.Bytes(), nil
}

// Normalize parses data and returns its canonical serialization. Posts
// without well-formed frontmatter pass through unchanged.
func Normalize(data []byte) ([]byte, error) {
	r, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if !r.HasFrontmatter {
		return data, nil
	}
	return r.Normalize()
}

// IsExternal reports whether a ref target points outside the site
// (absolute URL with a scheme, or protocol-relative).
func IsExternal(target string) bool {
	return schemeRe.MatchString(target) || strings.HasPrefix(target, "//")
}

// IsAnchor reports whether a ref target is an in-page fragment.
func IsAnchor(target string) bool {
	return strings.HasPrefix(target, "#")
}

// NormalizeTarget strips fragment and query components from a ref target,
// leaving the path used for link-integrity resolution.
func NormalizeTarget(target string) string {
	if i := strings.IndexAny(target, "#?"); i >= 0 {
		target = target[:i]
	}
	return target
}

// extractRefs collects deduplicated cross-reference targets from the body.
// Text inside fenced code blocks and inline code spans is skipped: essays
// quote code that is full of bracket syntax which is not a link.
func extractRefs(body string) []Ref {
	text := codeSpanRe.ReplaceAllString(stripFences(body), " ")

	type key struct {
		target string
		kind   models.RefKind
	}
	seen := make(map[key]struct{})
	var out []Ref

	add := func(target string, kind models.RefKind) {
		target = strings.TrimSpace(target)
		if target == "" {
			return
		}
		k := key{target, kind}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, Ref{Target: target, Kind: kind})
	}

	for _, m := range linkRe.FindAllStringSubmatch(text, -1) {
		kind := models.RefInline
		if m[1] == "!" {
			kind = models.RefImage
		}
		add(m[2], kind)
	}
	for _, m := range refDefRe.FindAllStringSubmatch(text, -1) {
		add(m[1], models.RefReference)
	}

	return out
}

// stripFences removes fenced code blocks (``` or ~~~) from the body,
// keeping line structure so line-anchored patterns still apply.
func stripFences(body string) string {
	var b strings.Builder
	inFence := false
	var fence string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case !inFence && (strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")):
			inFence = true
			fence = trimmed[:3]
		case inFence && strings.HasPrefix(trimmed, fence):
			inFence = false
		case !inFence:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// extractTags merges the frontmatter "tags" and "categories" fields,
// each of which may be a string or a list of strings.
func extractTags(fm map[string]any) []string {
	if fm == nil {
		return nil
	}
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

	for _, field := range []string{"tags", "categories"} {
		switch v := fm[field].(type) {
		case string:
			for _, s := range strings.Fields(v) {
				add(s)
			}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					add(s)
				}
			}
		}
	}

	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the
// first H1 heading, otherwise empty string.
func deriveTitle(fm map[string]any, body string) string {
	if t := stringField(fm, "title"); t != "" {
		return t
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

func stringField(fm map[string]any, key string) string {
	if fm == nil {
		return ""
	}
	if s, ok := fm[key].(string); ok {
		return s
	}
	return ""
}

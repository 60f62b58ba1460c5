// Package lint checks the corpus contract: every post carries well-formed
// frontmatter with non-empty layout and title, and every internal
// cross-reference resolves to a file that exists in the site directory.
package lint

import (
	"fmt"
	"path"
	"reflect"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/storage"
)

// Severity of a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Rule identifiers.
const (
	RuleFrontmatterMissing   = "frontmatter-missing"
	RuleFrontmatterMalformed = "frontmatter-malformed"
	RuleLayoutInvalid        = "layout-invalid"
	RuleTitleMissing         = "title-missing"
	RuleBrokenRef            = "broken-ref"
	RuleFrontmatterRoundtrip = "frontmatter-roundtrip"
)

// Finding is a single contract violation in one post.
type Finding struct {
	Path     string   `json:"path"`
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s: %s (%s)", f.Path, f.Severity, f.Message, f.Rule)
}

// Report aggregates findings across the corpus.
type Report struct {
	Findings []Finding `json:"findings"`
	Checked  int       `json:"checked"`
}

// Errors returns the number of error-severity findings.
func (r *Report) Errors() int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Warnings returns the number of warning-severity findings.
func (r *Report) Warnings() int {
	return len(r.Findings) - r.Errors()
}

// Passed reports whether the corpus has no error-severity findings.
func (r *Report) Passed() bool {
	return r.Errors() == 0
}

func (r *Report) add(f Finding) {
	r.Findings = append(r.Findings, f)
}

// Resolver reports whether an internal ref target, written in source,
// exists in the corpus.
type Resolver interface {
	Resolve(source, target string) bool
}

// Linter applies the corpus contract rules.
type Linter struct {
	allowedLayouts []string
}

// New creates a Linter. When allowedLayouts is non-empty, the layout field
// must be one of its values; otherwise any non-empty layout is accepted.
func New(allowedLayouts []string) *Linter {
	return &Linter{allowedLayouts: allowedLayouts}
}

// CheckPost applies all rules to a single post. resolver may be nil, in
// which case ref resolution is skipped.
func (l *Linter) CheckPost(postPath string, data []byte, resolver Resolver) []Finding {
	report := &Report{}
	l.checkPost(report, postPath, data, resolver)
	return report.Findings
}

func (l *Linter) checkPost(report *Report, postPath string, data []byte, resolver Resolver) {
	res, err := parser.Parse(data)
	if err != nil {
		report.add(Finding{Path: postPath, Rule: RuleFrontmatterMalformed, Severity: SeverityError, Message: err.Error()})
		return
	}
	report.Checked++

	switch {
	case res.Malformed:
		report.add(Finding{
			Path: postPath, Rule: RuleFrontmatterMalformed, Severity: SeverityError,
			Message: "frontmatter block is malformed (missing close delimiter or invalid YAML)",
		})
		return
	case !res.HasFrontmatter:
		report.add(Finding{
			Path: postPath, Rule: RuleFrontmatterMissing, Severity: SeverityError,
			Message: "post does not begin with a frontmatter block",
		})
		return
	}

	l.checkMetadata(report, postPath, res)
	l.checkRefs(report, postPath, res, resolver)
	l.checkRoundtrip(report, postPath, data, res)
}

// checkMetadata validates the layout and title fields.
func (l *Linter) checkMetadata(report *Report, postPath string, res *parser.Result) {
	layoutRules := []validation.Rule{validation.Required}
	if len(l.allowedLayouts) > 0 {
		allowed := make([]any, len(l.allowedLayouts))
		for i, s := range l.allowedLayouts {
			allowed[i] = s
		}
		layoutRules = append(layoutRules, validation.In(allowed...))
	}
	if err := validation.Validate(res.Layout, layoutRules...); err != nil {
		report.add(Finding{
			Path: postPath, Rule: RuleLayoutInvalid, Severity: SeverityError,
			Message: fmt.Sprintf("layout %q: %v", res.Layout, err),
		})
	}

	title := strings.TrimSpace(stringFrontmatter(res, "title"))
	if err := validation.Validate(title, validation.Required); err != nil {
		report.add(Finding{
			Path: postPath, Rule: RuleTitleMissing, Severity: SeverityError,
			Message: "frontmatter title is missing or empty",
		})
	}
}

// checkRefs verifies that every internal cross-reference resolves.
// External URLs and in-page anchors are out of scope.
func (l *Linter) checkRefs(report *Report, postPath string, res *parser.Result, resolver Resolver) {
	if resolver == nil {
		return
	}
	for _, ref := range res.Refs {
		if parser.IsExternal(ref.Target) || parser.IsAnchor(ref.Target) {
			continue
		}
		if !resolver.Resolve(postPath, ref.Target) {
			report.add(Finding{
				Path: postPath, Rule: RuleBrokenRef, Severity: SeverityError,
				Message: fmt.Sprintf("%s ref %q does not resolve to a file in the corpus", ref.Kind, ref.Target),
			})
		}
	}
}

// checkRoundtrip re-parses the normalized serialization and verifies no
// frontmatter data was lost. Loss would corrupt any tool that reprocesses
// the corpus, so instability is surfaced as a warning.
func (l *Linter) checkRoundtrip(report *Report, postPath string, data []byte, res *parser.Result) {
	normalized, err := res.Normalize()
	if err != nil {
		report.add(Finding{
			Path: postPath, Rule: RuleFrontmatterRoundtrip, Severity: SeverityWarning,
			Message: fmt.Sprintf("frontmatter does not re-serialize: %v", err),
		})
		return
	}
	again, err := parser.Parse(normalized)
	if err != nil || !again.HasFrontmatter || !reflect.DeepEqual(res.Frontmatter, again.Frontmatter) {
		report.add(Finding{
			Path: postPath, Rule: RuleFrontmatterRoundtrip, Severity: SeverityWarning,
			Message: "frontmatter loses data when re-serialized",
		})
	}
}

// CheckCorpus lints every post in the store against the full corpus,
// so cross-references between posts resolve.
func (l *Linter) CheckCorpus(store storage.Provider) (*Report, error) {
	metas, err := store.List("")
	if err != nil {
		return nil, fmt.Errorf("lint: list corpus: %w", err)
	}

	resolver := NewCorpusResolver(store)
	report := &Report{}
	for _, m := range metas {
		data, err := store.Read(m.Path)
		if err != nil {
			report.add(Finding{
				Path: m.Path, Rule: RuleFrontmatterMalformed, Severity: SeverityError,
				Message: fmt.Sprintf("unreadable: %v", err),
			})
			continue
		}
		l.checkPost(report, m.Path, data, resolver)
	}
	return report, nil
}

// CorpusResolver resolves ref targets against the posts and assets in a store.
type CorpusResolver struct {
	store storage.Provider
	posts map[string]struct{}
}

// NewCorpusResolver snapshots the post paths in store for resolution.
func NewCorpusResolver(store storage.Provider) *CorpusResolver {
	r := &CorpusResolver{store: store, posts: make(map[string]struct{})}
	if metas, err := store.List(""); err == nil {
		for _, m := range metas {
			r.posts[m.Path] = struct{}{}
		}
	}
	return r
}

// Resolve reports whether target, written in source, names an existing post
// or asset.
func (r *CorpusResolver) Resolve(source, target string) bool {
	if _, ok := r.ResolvePath(source, target); ok {
		return true
	}
	// Anchor-only targets have no path component to resolve.
	return parser.NormalizeTarget(target) == ""
}

// ResolvePath returns the corpus path that target, written in source, names.
// Root-relative targets resolve from the site root, bare targets from the
// source post's directory. Extension-less targets and .html targets also
// match the corresponding Markdown source.
func (r *CorpusResolver) ResolvePath(source, target string) (string, bool) {
	for _, cand := range candidates(source, target) {
		if _, ok := r.posts[cand]; ok {
			return cand, true
		}
		if ok, err := r.store.Exists(cand); err == nil && ok {
			return cand, true
		}
	}
	return "", false
}

// RefTarget maps a ref target to the corpus path it names, so ref edges
// are recorded under the same path the resolved post is indexed by.
// External, anchor-only, and unresolvable targets keep their written form.
func (r *CorpusResolver) RefTarget(source, target string) string {
	if parser.IsExternal(target) || parser.IsAnchor(target) {
		return target
	}
	if resolved, ok := r.ResolvePath(source, target); ok {
		return resolved
	}
	return target
}

func candidates(source, target string) []string {
	t := parser.NormalizeTarget(target)
	if t == "" {
		return nil
	}
	var rel string
	if strings.HasPrefix(t, "/") {
		rel = strings.TrimPrefix(t, "/")
	} else {
		rel = path.Join(path.Dir(source), t)
	}
	rel = path.Clean(rel)

	out := []string{rel}
	switch ext := path.Ext(rel); ext {
	case "":
		out = append(out, rel+".md", rel+".markdown")
	case ".html":
		stem := strings.TrimSuffix(rel, ext)
		out = append(out, stem+".md", stem+".markdown")
	}
	return out
}

func stringFrontmatter(res *parser.Result, key string) string {
	if res.Frontmatter == nil {
		return ""
	}
	if s, ok := res.Frontmatter[key].(string); ok {
		return s
	}
	return ""
}

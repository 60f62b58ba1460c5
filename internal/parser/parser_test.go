package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/models"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\nlayout: default\ntitle: Hello\ntags:\n  - go\n  - testing\n---\n# Hello\nBody text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.HasFrontmatter {
		t.Fatal("expected frontmatter")
	}
	if r.Layout != "default" {
		t.Errorf("layout = %q, want %q", r.Layout, "default")
	}
	if r.Title != "Hello" {
		t.Errorf("title = %q, want %q", r.Title, "Hello")
	}
	if len(r.Tags) != 2 || r.Tags[0] != "go" || r.Tags[1] != "testing" {
		t.Errorf("tags = %v, want [go testing]", r.Tags)
	}
	if r.Body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.HasFrontmatter || r.Malformed {
		t.Errorf("expected plain body, got HasFrontmatter=%v Malformed=%v", r.HasFrontmatter, r.Malformed)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
	if r.Body != string(input) {
		t.Errorf("body should be the whole file")
	}
}

func TestParse_InvalidYAMLIsMalformed(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Malformed {
		t.Error("expected Malformed for invalid YAML")
	}
	if r.Body != string(input) {
		t.Error("malformed frontmatter should fall back to whole-file body")
	}
}

func TestParse_MissingCloseDelimiterIsMalformed(t *testing.T) {
	input := []byte("---\nlayout: default\ntitle: Oops\nBody without closing fence\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Malformed {
		t.Error("expected Malformed when close delimiter is missing")
	}
}

func TestParse_CloseDelimiterMustBeOwnLine(t *testing.T) {
	// "---inline" is not a close delimiter; the block runs to the real one
	// and the resulting YAML is invalid, so the post is malformed rather
	// than silently mis-split.
	input := []byte("---\nlayout: default\ntitle: X\n---inline\n---\nBody\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Malformed {
		t.Error("expected Malformed")
	}
	if r.Body != string(input) {
		t.Error("malformed post should fall back to whole-file body")
	}
}

func TestExtractRefs_KindsAndDedup(t *testing.T) {
	body := "See [this post](other-post) and ![a chart](/assets/chart.png).\n" +
		"[other-post](other-post) again.\n\n" +
		"[ref]: /essays/grpc-streaming\n"
	refs := extractRefs(body)
	if len(refs) != 3 {
		t.Fatalf("len(refs) = %d, want 3: %v", len(refs), refs)
	}
	if refs[0].Target != "other-post" || refs[0].Kind != models.RefInline {
		t.Errorf("refs[0] = %+v", refs[0])
	}
	if refs[1].Target != "/assets/chart.png" || refs[1].Kind != models.RefImage {
		t.Errorf("refs[1] = %+v", refs[1])
	}
	if refs[2].Target != "/essays/grpc-streaming" || refs[2].Kind != models.RefReference {
		t.Errorf("refs[2] = %+v", refs[2])
	}
}

func TestExtractRefs_SkipsCodeFences(t *testing.T) {
	body := "Real [link](target-post).\n" +
		"```csharp\nvar x = dict[\"key\"](arg); // [not](a-link)\n```\n" +
		"~~~\n[also not](a-link)\n~~~\n"
	refs := extractRefs(body)
	if len(refs) != 1 || refs[0].Target != "target-post" {
		t.Errorf("refs = %v, want only target-post", refs)
	}
}

func TestExtractRefs_SkipsInlineCodeSpans(t *testing.T) {
	body := "Real [link](target-post) and `[not](a-link)` in a span.\n" +
		"Double ``m[\"k\"](arg)`` span too.\n"
	refs := extractRefs(body)
	if len(refs) != 1 || refs[0].Target != "target-post" {
		t.Errorf("refs = %v, want only target-post", refs)
	}
}

func TestExtractRefs_TitleAndAngleBrackets(t *testing.T) {
	body := `A [link](some-post "With a title") and [another](<bracketed.md>).`
	refs := extractRefs(body)
	if len(refs) != 2 {
		t.Fatalf("len(refs) = %d, want 2: %v", len(refs), refs)
	}
	if refs[0].Target != "some-post" {
		t.Errorf("refs[0].Target = %q", refs[0].Target)
	}
	if refs[1].Target != "bracketed.md" {
		t.Errorf("refs[1].Target = %q", refs[1].Target)
	}
}

func TestRefClassification(t *testing.T) {
	cases := []struct {
		target   string
		external bool
		anchor   bool
	}{
		{"https://go.dev/blog", true, false},
		{"//cdn.example.com/x.png", true, false},
		{"mailto:a@example.com", true, false},
		{"#heading", false, true},
		{"other-post", false, false},
		{"/essays/post.md", false, false},
	}
	for _, c := range cases {
		if got := IsExternal(c.target); got != c.external {
			t.Errorf("IsExternal(%q) = %v, want %v", c.target, got, c.external)
		}
		if got := IsAnchor(c.target); got != c.anchor {
			t.Errorf("IsAnchor(%q) = %v, want %v", c.target, got, c.anchor)
		}
	}
}

func TestNormalizeTarget(t *testing.T) {
	if got := NormalizeTarget("post.md#section"); got != "post.md" {
		t.Errorf("got %q", got)
	}
	if got := NormalizeTarget("post?v=2"); got != "post" {
		t.Errorf("got %q", got)
	}
	if got := NormalizeTarget("#only-anchor"); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestExtractTags_MergesTagsAndCategories(t *testing.T) {
	fm := map[string]any{
		"tags":       []any{"tdd", "solid"},
		"categories": "csharp tdd",
	}
	tags := extractTags(fm)
	if len(tags) != 3 || tags[0] != "tdd" || tags[1] != "solid" || tags[2] != "csharp" {
		t.Errorf("tags = %v, want [tdd solid csharp]", tags)
	}
}

func TestDeriveTitle_FrontmatterOverH1(t *testing.T) {
	fm := map[string]any{"title": "FM Title"}
	body := "# H1 Title\ntext"
	if got := deriveTitle(fm, body); got != "FM Title" {
		t.Errorf("title = %q, want %q", got, "FM Title")
	}
}

func TestDeriveTitle_H1Fallback(t *testing.T) {
	if got := deriveTitle(nil, "some text\n# My Heading\nmore"); got != "My Heading" {
		t.Errorf("title = %q, want %q", got, "My Heading")
	}
}

func TestNormalize_PreservesKeyOrder(t *testing.T) {
	input := []byte("---\nzebra: 1\nlayout: default\ntitle: Ordered\nalpha: 2\n---\nBody\n")
	out, err := Normalize(input)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	s := string(out)
	zi := strings.Index(s, "zebra")
	li := strings.Index(s, "layout")
	ai := strings.Index(s, "alpha")
	if zi < 0 || li < 0 || ai < 0 || !(zi < li && li < ai) {
		t.Errorf("key order not preserved:\n%s", s)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	input := []byte("---\nlayout: default\ntitle: 'Round trip'\ntags: [a, b]\n---\n\nBody stays.\n")
	once, err := Normalize(input)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	twice, err := Normalize(once)
	if err != nil {
		t.Fatalf("Normalize (second): %v", err)
	}
	if !bytes.Equal(once, twice) {
		t.Errorf("not idempotent:\nfirst:  %q\nsecond: %q", once, twice)
	}
}

func TestNormalize_BodyUntouched(t *testing.T) {
	body := "# Heading\n\nweird   spacing\tand unicode\n\n```go\nfmt.Println(\"x\")\n```\n"
	input := []byte("---\nlayout: default\ntitle: T\n---\n\n" + body)
	out, err := Normalize(input)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !strings.HasSuffix(string(out), body) {
		t.Errorf("body was modified:\n%s", out)
	}
}

func TestNormalize_NoFrontmatterPassthrough(t *testing.T) {
	input := []byte("just a body\nno metadata\n")
	out, err := Normalize(input)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !bytes.Equal(out, input) {
		t.Error("posts without frontmatter must pass through unchanged")
	}
}

package lint

import (
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/storage"
)

func tempCorpus(t *testing.T) *storage.FS {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func write(t *testing.T, fs *storage.FS, path, content string) {
	t.Helper()
	if err := fs.Write(path, []byte(content)); err != nil {
		t.Fatalf("Write %s: %v", path, err)
	}
}

func rules(findings []Finding) []string {
	out := make([]string, len(findings))
	for i, f := range findings {
		out[i] = f.Rule
	}
	return out
}

func hasRule(findings []Finding, rule string) bool {
	for _, f := range findings {
		if f.Rule == rule {
			return true
		}
	}
	return false
}

func TestCheckPost_ValidPost(t *testing.T) {
	l := New([]string{"default", "essay"})
	data := "---\nlayout: essay\ntitle: On Writing\ntags: [go, prose]\n---\n\nBody text.\n"
	findings := l.CheckPost("on-writing.md", []byte(data), nil)
	if len(findings) != 0 {
		t.Errorf("findings = %v, want none", rules(findings))
	}
}

func TestCheckPost_MissingFrontmatter(t *testing.T) {
	l := New(nil)
	findings := l.CheckPost("bare.md", []byte("# Just a heading\n\nBody.\n"), nil)
	if !hasRule(findings, RuleFrontmatterMissing) {
		t.Errorf("findings = %v, want %s", rules(findings), RuleFrontmatterMissing)
	}
}

func TestCheckPost_MalformedFrontmatter(t *testing.T) {
	l := New(nil)
	cases := map[string]string{
		"unclosed":     "---\nlayout: default\ntitle: X\n\nBody without close.\n",
		"invalid yaml": "---\nlayout: [unclosed\n---\n\nBody.\n",
	}
	for name, data := range cases {
		findings := l.CheckPost(name+".md", []byte(data), nil)
		if !hasRule(findings, RuleFrontmatterMalformed) {
			t.Errorf("%s: findings = %v, want %s", name, rules(findings), RuleFrontmatterMalformed)
		}
		for _, f := range findings {
			if f.Severity != SeverityError {
				t.Errorf("%s: severity = %s, want error", name, f.Severity)
			}
		}
	}
}

func TestCheckPost_LayoutRules(t *testing.T) {
	l := New([]string{"default", "essay"})

	findings := l.CheckPost("a.md", []byte("---\ntitle: X\n---\n\nBody.\n"), nil)
	if !hasRule(findings, RuleLayoutInvalid) {
		t.Errorf("missing layout: findings = %v, want %s", rules(findings), RuleLayoutInvalid)
	}

	findings = l.CheckPost("b.md", []byte("---\nlayout: newsletter\ntitle: X\n---\n\nBody.\n"), nil)
	if !hasRule(findings, RuleLayoutInvalid) {
		t.Errorf("unknown layout: findings = %v, want %s", rules(findings), RuleLayoutInvalid)
	}

	// With no allow-list, any non-empty layout is fine.
	open := New(nil)
	findings = open.CheckPost("c.md", []byte("---\nlayout: anything\ntitle: X\n---\n\nBody.\n"), nil)
	if len(findings) != 0 {
		t.Errorf("open layout: findings = %v, want none", rules(findings))
	}
}

func TestCheckPost_TitleMissing(t *testing.T) {
	l := New(nil)
	cases := map[string]string{
		"absent": "---\nlayout: default\n---\n\nBody.\n",
		"empty":  "---\nlayout: default\ntitle: \"\"\n---\n\nBody.\n",
		"blank":  "---\nlayout: default\ntitle: \"   \"\n---\n\nBody.\n",
	}
	for name, data := range cases {
		findings := l.CheckPost(name+".md", []byte(data), nil)
		if !hasRule(findings, RuleTitleMissing) {
			t.Errorf("%s: findings = %v, want %s", name, rules(findings), RuleTitleMissing)
		}
	}
}

func TestCheckPost_RoundtripWarning(t *testing.T) {
	l := New(nil)
	// An empty frontmatter block disappears when re-serialized, so the
	// roundtrip check must flag it.
	findings := l.CheckPost("empty-fm.md", []byte("---\n---\n\nBody.\n"), nil)
	var rt *Finding
	for i, f := range findings {
		if f.Rule == RuleFrontmatterRoundtrip {
			rt = &findings[i]
		}
	}
	if rt == nil {
		t.Fatalf("findings = %v, want %s", rules(findings), RuleFrontmatterRoundtrip)
	}
	if rt.Severity != SeverityWarning {
		t.Errorf("severity = %s, want %s", rt.Severity, SeverityWarning)
	}
	// Roundtrip instability alone never fails the corpus.
	r := &Report{Findings: []Finding{*rt}, Checked: 1}
	if !r.Passed() {
		t.Error("Passed should be true with only warning findings")
	}
}

func TestCheckCorpus_RefResolution(t *testing.T) {
	fs := tempCorpus(t)
	write(t, fs, "essays/target.md", "---\nlayout: default\ntitle: Target\n---\n\nHere.\n")
	write(t, fs, "assets/chart.png", "png")
	write(t, fs, "essays/source.md", "---\nlayout: default\ntitle: Source\n---\n\n"+
		"[relative](target.md)\n"+
		"[root](/essays/target.md)\n"+
		"[extensionless](target)\n"+
		"[rendered](target.html)\n"+
		"[anchored](target.md#section)\n"+
		"![asset](/assets/chart.png)\n"+
		"[external](https://example.com/post)\n"+
		"[mail](mailto:a@b.c)\n"+
		"[inpage](#heading)\n")

	l := New(nil)
	report, err := l.CheckCorpus(fs)
	if err != nil {
		t.Fatalf("CheckCorpus: %v", err)
	}
	if !report.Passed() {
		t.Errorf("corpus should pass, findings: %v", report.Findings)
	}
	if report.Checked != 2 {
		t.Errorf("Checked = %d, want 2", report.Checked)
	}
}

func TestCheckCorpus_BrokenRef(t *testing.T) {
	fs := tempCorpus(t)
	write(t, fs, "source.md", "---\nlayout: default\ntitle: Source\n---\n\n"+
		"[gone](missing-post.md)\n"+
		"![gone too](/assets/missing.png)\n")

	l := New(nil)
	report, err := l.CheckCorpus(fs)
	if err != nil {
		t.Fatalf("CheckCorpus: %v", err)
	}
	broken := 0
	for _, f := range report.Findings {
		if f.Rule == RuleBrokenRef {
			broken++
			if !strings.Contains(f.Message, "does not resolve") {
				t.Errorf("message = %q", f.Message)
			}
		}
	}
	if broken != 2 {
		t.Errorf("broken refs = %d, want 2; findings: %v", broken, report.Findings)
	}
	if report.Passed() {
		t.Error("corpus with broken refs should not pass")
	}
}

func TestCheckCorpus_Aggregation(t *testing.T) {
	fs := tempCorpus(t)
	write(t, fs, "good.md", "---\nlayout: default\ntitle: Good\n---\n\nFine.\n")
	write(t, fs, "bad.md", "# No frontmatter\n")
	write(t, fs, "worse.md", "---\nlayout: default\n\nNever closed.\n")

	l := New(nil)
	report, err := l.CheckCorpus(fs)
	if err != nil {
		t.Fatalf("CheckCorpus: %v", err)
	}
	if report.Errors() != 2 {
		t.Errorf("Errors = %d, want 2; findings: %v", report.Errors(), report.Findings)
	}
	if report.Warnings() != 0 {
		t.Errorf("Warnings = %d, want 0", report.Warnings())
	}
	if report.Passed() {
		t.Error("report with errors should not pass")
	}
}

func TestReportCounts(t *testing.T) {
	r := &Report{Findings: []Finding{
		{Rule: RuleBrokenRef, Severity: SeverityError},
		{Rule: RuleFrontmatterRoundtrip, Severity: SeverityWarning},
		{Rule: RuleTitleMissing, Severity: SeverityError},
	}}
	if r.Errors() != 2 || r.Warnings() != 1 {
		t.Errorf("Errors/Warnings = %d/%d, want 2/1", r.Errors(), r.Warnings())
	}
	if r.Passed() {
		t.Error("Passed should be false with error findings")
	}
}

func TestFindingString(t *testing.T) {
	f := Finding{Path: "a.md", Rule: RuleTitleMissing, Severity: SeverityError, Message: "frontmatter title is missing or empty"}
	want := "a.md: error: frontmatter title is missing or empty (title-missing)"
	if got := f.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestCandidates(t *testing.T) {
	cases := []struct {
		source, target string
		want           string // candidate that must be present
	}{
		{"essays/a.md", "b.md", "essays/b.md"},
		{"essays/a.md", "/notes/b.md", "notes/b.md"},
		{"essays/a.md", "b", "essays/b.md"},
		{"essays/a.md", "b.html", "essays/b.md"},
		{"essays/a.md", "../top.md", "top.md"},
		{"a.md", "b.md#section", "b.md"},
	}
	for _, c := range cases {
		got := candidates(c.source, c.target)
		found := false
		for _, cand := range got {
			if cand == c.want {
				found = true
			}
		}
		if !found {
			t.Errorf("candidates(%q, %q) = %v, want to include %q", c.source, c.target, got, c.want)
		}
	}
	if got := candidates("a.md", "#only-anchor"); got != nil {
		t.Errorf("anchor-only candidates = %v, want nil", got)
	}
}

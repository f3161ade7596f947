package threat

import (
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"testing"
)

func TestScan(t *testing.T) {
	s := NewScanner()

	tests := []struct {
		name string
		line string
		want []string
	}{
		{
			name: "plain request",
			line: "192.168.0.1 GET /home 200",
			want: nil,
		},
		{
			name: "tautology",
			line: "1.2.3.4 GET /login?user=' OR '1'='1 200",
			want: []string{"'", "'", "'", "'", "=' OR '1'='"},
		},
		{
			name: "encoded union",
			line: "1.2.3.4 GET /q?id=1%27UNION%20SELECT",
			want: []string{"%27", "=1%27", "%27UNION"},
		},
		{
			name: "script tag",
			line: "<script>alert(1)</script>",
			want: []string{"<script>", "</script>", "<script>alert(1)</script>"},
		},
		{
			name: "priority order across signatures",
			line: "a=1;b <b>",
			want: []string{"=1;", "<b>", "<b>"},
		},
		{
			name: "encoded uppercase or",
			line: "GET /login?user=admin%27%4F%52%201=1",
			want: []string{"%27", "=admin%27", "admin%27%4F%52"},
		},
		{
			name: "encoded uppercase img tag",
			line: "%3C%49%4D%47%20src=x%3E",
			want: []string{"%3C%49%4D%47%20src=x%3E", "%3C%49%4D%47%20src=x%3E"},
		},
		{
			name: "img tag",
			line: `<IMG SRC="x">`,
			want: []string{`<IMG SRC="x">`, `<IMG SRC="x">`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Scan(tt.line)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Scan(%q) = %#v, want %#v", tt.line, got, tt.want)
			}
		})
	}
}

func TestScanUnionAfterQuoteIsFlagged(t *testing.T) {
	got := NewScanner().Scan("' UNION SELECT password FROM users")
	if len(got) == 0 {
		t.Fatal("expected at least one fragment")
	}
	if got[0] != "'" {
		t.Errorf("first fragment = %q, want quote", got[0])
	}
}

func TestDefaultSignaturesOrder(t *testing.T) {
	sigs := DefaultSignatures()
	if len(sigs) != 7 {
		t.Fatalf("len(DefaultSignatures()) = %d, want 7", len(sigs))
	}
	want := []string{"meta-char", "assign-then-meta", "quote-or", "quote-union", "tag", "img-tag", "bracketed"}
	for i, sig := range sigs {
		if sig.Name != want[i] {
			t.Errorf("signature %d = %s, want %s", i, sig.Name, want[i])
		}
	}

	// 복사본이어야 한다
	sigs[0].Name = "changed"
	if DefaultSignatures()[0].Name != "meta-char" {
		t.Error("DefaultSignatures should return a copy")
	}
}

func TestScannerWithCustomSignature(t *testing.T) {
	sigs := append(DefaultSignatures(), Signature{
		Name:    "traversal",
		Pattern: regexp.MustCompile(`\.\./`),
		Raw:     `\.\./`,
	})
	s := NewScanner(sigs...)

	got := s.Scan("GET /../../etc/passwd")
	want := []string{"../", "../"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan = %#v, want %#v", got, want)
	}
	if n := len(s.Signatures()); n != 8 {
		t.Errorf("len(Signatures()) = %d, want 8", n)
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.conf")
	content := `# extra signatures
traversal \.\./
broken (unclosed
onlyname
shell (?i)/bin/(?:ba)?sh
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	sigs, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(sigs) != 2 {
		t.Fatalf("loaded %d rules, want 2", len(sigs))
	}
	if sigs[0].Name != "traversal" || sigs[1].Name != "shell" {
		t.Errorf("rule names = %s, %s", sigs[0].Name, sigs[1].Name)
	}
	if !sigs[1].Pattern.MatchString("/BIN/bash") {
		t.Error("shell rule should match case-insensitively")
	}
}

func TestLoadRulesMissingFile(t *testing.T) {
	if _, err := LoadRules(filepath.Join(t.TempDir(), "nope.conf")); err == nil {
		t.Error("LoadRules on missing file should fail")
	}
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-docgen/pkg/config"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

func TestParse(t *testing.T) {
	doc := `
input:
  - people.csv
  - extra.yaml
template: card.tpl
output: "out/{{ name }}.txt"
mode: batch
strict: true
workers: 4
vars:
  team: crypto
pre_hook: "make prepare"
`
	got, warnings, err := config.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}

	want := &config.Config{
		Inputs:   []string{"people.csv", "extra.yaml"},
		Template: "card.tpl",
		Output:   "out/{{ name }}.txt",
		Mode:     "batch",
		Strict:   boolPtr(true),
		Workers:  intPtr(4),
		Vars:     map[string]any{"team": "crypto"},
		PreHook:  "make prepare",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseWarnsUnknownKeys(t *testing.T) {
	got, warnings, err := config.Parse([]byte("template: card.tpl\ncolour: blue\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.Template != "card.tpl" {
		t.Errorf("Template = %q, want %q", got.Template, "card.tpl")
	}
	want := []string{`unknown config key "colour"`}
	if diff := cmp.Diff(want, warnings); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEmptyDocument(t *testing.T) {
	got, warnings, err := config.Parse(nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	if diff := cmp.Diff(&config.Config{}, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docgen.yaml")
	doc := "template: from-file.tpl\noutput: file.txt\nstrict: true\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("DOCGEN_OUTPUT", "env.txt")
	t.Setenv("DOCGEN_STRICT", "no")
	t.Setenv("DOCGEN_WORKERS", "8")

	got, _, err := config.Layered(path, nil)
	if err != nil {
		t.Fatalf("Layered() error = %v", err)
	}
	if got.Template != "from-file.tpl" {
		t.Errorf("Template = %q, want file value", got.Template)
	}
	if got.Output != "env.txt" {
		t.Errorf("Output = %q, want env value", got.Output)
	}
	if got.Strict == nil || *got.Strict {
		t.Errorf("Strict = %v, want false from env", got.Strict)
	}
	if got.Workers == nil || *got.Workers != 8 {
		t.Errorf("Workers = %v, want 8", got.Workers)
	}
}

func TestExplicitOverridesEverything(t *testing.T) {
	t.Setenv("DOCGEN_MODE", "batch")

	got, _, err := config.Layered("", &config.Config{Mode: "per-record"})
	if err != nil {
		t.Fatalf("Layered() error = %v", err)
	}
	if got.Mode != "per-record" {
		t.Errorf("Mode = %q, want explicit value", got.Mode)
	}
}

func TestEnvRejectsBadValues(t *testing.T) {
	t.Setenv("DOCGEN_WORKERS", "many")
	if _, _, err := config.Layered("", nil); err == nil {
		t.Fatal("Layered() should reject a non-integer worker count")
	}
}

func TestMergeVarsCombine(t *testing.T) {
	base := &config.Config{Vars: map[string]any{"team": "crypto", "tier": 1}}
	base.Merge(&config.Config{Vars: map[string]any{"tier": 2}})

	want := map[string]any{"team": "crypto", "tier": 2}
	if diff := cmp.Diff(want, base.Vars); diff != "" {
		t.Errorf("vars mismatch (-want +got):\n%s", diff)
	}
}

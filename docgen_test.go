package docgen_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	docgen "github.com/goliatone/go-docgen"
	"github.com/goliatone/go-docgen/pkg/pipeline"
	"github.com/goliatone/go-docgen/pkg/render"
	"github.com/goliatone/go-docgen/pkg/render/pongo"
)

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"people.csv": "name,age\nada,36\neve,41\n",
		"card.tpl":   "{{ name }} ({{ age }})",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	engine, err := docgen.NewEngine(pongo.WithBaseDir(dir))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	registry := render.NewRegistry()
	registry.MustRegister(engine)

	report, err := docgen.Generate(context.Background(), docgen.Request{
		Sources:  []docgen.Source{docgen.SourceFromFile(filepath.Join(dir, "people.csv"))},
		Template: "card.tpl",
		Output:   "out/{{ name }}.txt",
		WorkDir:  dir,
	}, pipeline.WithRegistry(registry))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if report.Written != 2 {
		t.Fatalf("Written = %d, want 2", report.Written)
	}

	data, err := os.ReadFile(filepath.Join(dir, "out", "ada.txt"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if got, want := string(data), "ada (36)"; got != want {
		t.Errorf("ada.txt = %q, want %q", got, want)
	}
}

func TestNewReaderReadsSupportedFormats(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "people.yaml")
	if err := os.WriteFile(path, []byte("- name: ada\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	set, err := docgen.NewReader().Read(context.Background(),
		docgen.SourceFromFile(path), docgen.ReadOptions{})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if set.Len() != 1 {
		t.Errorf("Len() = %d, want 1", set.Len())
	}
}

package terms

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleGlossary = `
terms:
  - term: "blood pressure"
    renderings:
      es: "presión arterial"
      pt: "pressão arterial"
  - term: "metformin"
    renderings:
      es: "metformina"
  - term: ""
    renderings:
      es: "ignored"
  - term: "orphan"
`

func loadSample(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "glossary.yaml")
	if err := os.WriteFile(path, []byte(sampleGlossary), 0o644); err != nil {
		t.Fatalf("writing glossary: %v", err)
	}

	s := NewStore()
	if err := s.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func TestLoadSkipsInvalidEntries(t *testing.T) {
	s := loadSample(t)
	if s.Len() != 2 {
		t.Errorf("expected 2 valid terms, got %d", s.Len())
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	s := NewStore()
	if err := s.Load(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Errorf("missing glossary should not error: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d terms", s.Len())
	}
}

func TestLoadEmptyPathIsNoop(t *testing.T) {
	s := NewStore()
	if err := s.Load(""); err != nil {
		t.Errorf("empty path should be a no-op: %v", err)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "glossary.yaml")
	os.WriteFile(path, []byte("terms: [this is: not: yaml"), 0o644)

	s := NewStore()
	if err := s.Load(path); err == nil {
		t.Error("expected parse error for invalid YAML")
	}
}

func TestHints(t *testing.T) {
	s := loadSample(t)

	tests := []struct {
		name     string
		lang     string
		text     string
		expected int
	}{
		{"matching term", "es", "Patient's Blood Pressure is elevated", 1},
		{"two matching terms", "es", "blood pressure and metformin 500mg", 2},
		{"no rendering for language", "pt", "metformin only", 0},
		{"no terms in text", "es", "patient has a fever", 0},
		{"empty text", "es", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hints := s.Hints(tt.lang, tt.text)
			if len(hints) != tt.expected {
				t.Errorf("Hints(%q, %q) returned %d hints, expected %d: %v",
					tt.lang, tt.text, len(hints), tt.expected, hints)
			}
		})
	}
}

func TestHintsOnEmptyStore(t *testing.T) {
	s := NewStore()
	if hints := s.Hints("es", "blood pressure"); hints != nil {
		t.Errorf("expected nil hints from empty store, got %v", hints)
	}
}

package service

import (
	"os"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type corpusEntry struct {
	Name  string `yaml:"name"`
	Input string `yaml:"input"`
	Want  string `yaml:"want,omitempty"`
	Kind  string `yaml:"kind,omitempty"`
	Error string `yaml:"error,omitempty"`
}

// Runs every line in the corpus file through a fresh service and checks what
// comes out the other end.
func TestCorpus(t *testing.T) {
	wd, _ := os.Getwd()
	src, e := os.ReadFile(wd + "/test-files/corpus.yaml")
	if e != nil {
		t.Fatalf("couldn't read the corpus: %v", e)
	}
	entries := []corpusEntry{}
	if e := yaml.Unmarshal(src, &entries); e != nil {
		t.Fatalf("couldn't unmarshal the corpus: %v", e)
	}
	for _, entry := range entries {
		t.Run(entry.Name, func(t *testing.T) {
			sv := NewService()
			got := strings.Join(sv.Do(entry.Input), "\n")
			if entry.Error != "" {
				if !sv.Prsr.ErrorsExist() {
					t.Fatalf("expected error %q, got successful parse %q", entry.Error, got)
				}
				if id := sv.Prsr.Errors[0].ErrorId; id != entry.Error {
					t.Fatalf("error id wrong. expected=%q, got=%q", entry.Error, id)
				}
				return
			}
			if sv.Prsr.ErrorsExist() {
				t.Fatalf("unexpected errors: %s", sv.GetErrorReport())
			}
			if got != entry.Want {
				t.Fatalf("output wrong. expected=%q, got=%q", entry.Want, got)
			}
			if entry.Kind != "" && sv.Units[0].Kind.String() != entry.Kind {
				t.Fatalf("kind wrong. expected=%q, got=%q", entry.Kind, sv.Units[0].Kind.String())
			}
		})
	}
}

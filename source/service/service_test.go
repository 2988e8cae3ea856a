package service

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitializeFromFilepath(t *testing.T) {
	wd, _ := os.Getwd()
	sv := NewService()
	if e := sv.InitializeFromFilepath(wd + "/test-files/fib.k"); e != nil {
		t.Fatalf("couldn't read the script: %v", e)
	}
	if sv.IsBroken() {
		t.Fatalf("the service is broken: %s", sv.GetErrorReport())
	}
	if len(sv.Units) != 4 {
		t.Fatalf("expected 4 units, got %d", len(sv.Units))
	}
	wants := []struct {
		kind    UnitKind
		display string
	}{
		{DefinitionUnit, "def fib(n) (fib((n - 1)) + fib((n - 2)))"},
		{ExternUnit, "extern put(x)"},
		{DefinitionUnit, "def twice(x) (x * 2)"},
		{ExpressionUnit, "fib(10)"},
	}
	for i, want := range wants {
		if sv.Units[i].Kind != want.kind {
			t.Fatalf("units[%d] - kind wrong. expected=%v, got=%v", i, want.kind, sv.Units[i].Kind)
		}
		if got := sv.Units[i].Display(); got != want.display {
			t.Fatalf("units[%d] - display wrong. expected=%q, got=%q", i, want.display, got)
		}
	}
}

func TestBrokenScript(t *testing.T) {
	wd, _ := os.Getwd()
	sv := NewService()
	if e := sv.InitializeFromFilepath(wd + "/test-files/broken.k"); e != nil {
		t.Fatalf("couldn't read the script: %v", e)
	}
	if !sv.IsBroken() {
		t.Fatalf("expected the service to be broken")
	}
	if sv.Prsr.Errors[0].ErrorId != "parse/proto/lparen" {
		t.Fatalf("first error wrong. expected=%q, got=%q", "parse/proto/lparen", sv.Prsr.Errors[0].ErrorId)
	}
}

func TestInitializeFromCode(t *testing.T) {
	sv := NewService()
	sv.InitializeFromCode("def g(a) a < 1")
	if sv.IsBroken() {
		t.Fatalf("the service is broken: %s", sv.GetErrorReport())
	}
	if len(sv.Units) != 1 || sv.Units[0].Display() != "def g(a) (a < 1)" {
		t.Fatalf("units wrong: %v", sv.Units)
	}
}

func TestDoKeepsUnits(t *testing.T) {
	sv := NewService()
	sv.Do("def h(x) x")
	sv.Do("h(3)")
	if sv.Prsr.ErrorsExist() {
		t.Fatalf("unexpected errors: %s", sv.GetErrorReport())
	}
	if len(sv.Units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(sv.Units))
	}
}

func TestDoClearsOldErrors(t *testing.T) {
	sv := NewService()
	sv.Do("1 +")
	if !sv.Prsr.ErrorsExist() {
		t.Fatalf("expected errors, got none")
	}
	sv.Do("1 + 1")
	if sv.Prsr.ErrorsExist() {
		t.Fatalf("errors from the old line survived: %s", sv.GetErrorReport())
	}
}

func TestExampleScripts(t *testing.T) {
	wd, _ := os.Getwd()
	scripts, _ := filepath.Glob(wd + "/../../examples/*.k")
	if len(scripts) == 0 {
		t.Fatalf("can't find the example scripts")
	}
	for _, scriptFilepath := range scripts {
		sv := NewService()
		if e := sv.InitializeFromFilepath(scriptFilepath); e != nil {
			t.Fatalf("couldn't read %q: %v", scriptFilepath, e)
		}
		if sv.IsBroken() {
			t.Fatalf("%q doesn't parse: %s", scriptFilepath, sv.GetErrorReport())
		}
		if len(sv.Units) == 0 {
			t.Fatalf("%q produced no units", scriptFilepath)
		}
	}
}

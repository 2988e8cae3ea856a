package parser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/kaleido-lang/kaleido/source/service"
	"github.com/kaleido-lang/kaleido/source/test_helper"
)

func TestParser(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `25`, Want: `25`},
		{Input: `4.5`, Want: `4.5`},
		{Input: `.5`, Want: `.5`},
		{Input: `x`, Want: `x`},
		{Input: `a + b`, Want: `(a + b)`},
		{Input: `a + b * c`, Want: `(a + (b * c))`},
		{Input: `a * b + c`, Want: `((a * b) + c)`},
		{Input: `a - b + c`, Want: `((a - b) + c)`},
		{Input: `a + b - c`, Want: `((a + b) - c)`},
		{Input: `a < b + c`, Want: `(a < (b + c))`},
		{Input: `a < b < c`, Want: `((a < b) < c)`},
		{Input: `(a + b) * c`, Want: `((a + b) * c)`},
		{Input: `a * (b + c)`, Want: `(a * (b + c))`},
		{Input: `((x))`, Want: `x`},
		{Input: `foo()`, Want: `foo()`},
		{Input: `foo(a)`, Want: `foo(a)`},
		{Input: `foo(a, b + c, bar(d))`, Want: `foo(a, (b + c), bar(d))`},
		{Input: `fib(n-1) + fib(n-2)`, Want: `(fib((n - 1)) + fib((n - 2)))`},
		{Input: `2 + 2 # and a comment`, Want: `(2 + 2)`},
	}
	test_helper.RunTest(t, "", tests, testParserOutput)
}

func TestTopLevel(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `def foo(a b) a + b`, Want: `def foo(a b) (a + b)`},
		{Input: `def one() 1`, Want: `def one() 1`},
		{Input: `def fib(n) fib(n-1) + fib(n-2)`, Want: `def fib(n) (fib((n - 1)) + fib((n - 2)))`},
		{Input: `extern sin(angle)`, Want: `extern sin(angle)`},
		{Input: `extern atan2(y x)`, Want: `extern atan2(y x)`},
		{Input: `def f(x) x; f(2)`, Want: "def f(x) x\nf(2)"},
		{Input: `2 + 2; 3 * 3`, Want: "(2 + 2)\n(3 * 3)"},
		{Input: `;;;`, Want: ``},
	}
	test_helper.RunTest(t, "", tests, testParserOutput)
}

func TestParserErrors(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `1 + )`, Want: `parse/primary`},
		{Input: `)`, Want: `parse/primary`},
		{Input: `2 +`, Want: `parse/eof`},
		{Input: `(1`, Want: `parse/paren`},
		{Input: `(1 2`, Want: `parse/paren`},
		{Input: `foo(a b)`, Want: `parse/call`},
		{Input: `foo(a,`, Want: `parse/eof`},
		{Input: `def (a b) x`, Want: `parse/proto/name`},
		{Input: `extern 3()`, Want: `parse/proto/name`},
		{Input: `def foo a`, Want: `parse/proto/lparen`},
		{Input: `def foo(a, b) x`, Want: `parse/proto/rparen`},
		{Input: `1.2.3`, Want: `lex/num`},
	}
	test_helper.RunTest(t, "", tests, testParserErrors)
}

// A '(' left unmatched at the end of the input should produce a complaint which
// actually names the ')' the user needs.
func TestUnclosedParen(t *testing.T) {
	sv := service.NewService()
	sv.Do(`(1+`)
	if !sv.Prsr.ErrorsExist() {
		t.Fatalf("expected errors, got none")
	}
	errs := sv.Prsr.Errors
	if errs[len(errs)-1].ErrorId != "parse/paren/eof" {
		t.Fatalf("last error wrong. expected=%q, got=%q", "parse/paren/eof", errs[len(errs)-1].ErrorId)
	}
	if report := sv.GetErrorReport(); !strings.Contains(report, "')'") {
		t.Fatalf("report doesn't mention the missing ')' : %s", report)
	}
}

// After an error the driver skips a single token and carries on, so the good
// units further along the line should still come through.
func TestRecovery(t *testing.T) {
	sv := service.NewService()
	result := sv.Do(`) ; 42`)
	if !sv.Prsr.ErrorsExist() {
		t.Fatalf("expected errors, got none")
	}
	if len(result) != 1 || result[0] != "42" {
		t.Fatalf("expected to recover and parse the expression, got %v", result)
	}
}

func TestCustomOperator(t *testing.T) {
	sv := service.NewService()
	if sv.Prsr.Precedences["*"] != 40 {
		t.Fatalf("stock precedence table wrong: %v", sv.Prsr.Precedences)
	}
	sv.Prsr.Precedences["/"] = 40
	result := sv.Do(`a + b / c`)
	if sv.Prsr.ErrorsExist() {
		t.Fatalf("unexpected errors: %s", sv.GetErrorReport())
	}
	if len(result) != 1 || result[0] != `(a + (b / c))` {
		t.Fatalf("custom operator parsed wrong: %v", result)
	}
}

func testParserOutput(sv *service.Service, s string) (string, error) {
	result := strings.Join(sv.Do(s), "\n")
	if sv.Prsr.ErrorsExist() {
		return result, errors.New("unexpected errors")
	}
	return result, nil
}

func testParserErrors(sv *service.Service, s string) (string, error) {
	sv.Do(s)
	if !sv.Prsr.ErrorsExist() {
		return "unexpected successful parsing", nil
	}
	return sv.Prsr.Errors[0].ErrorId, nil
}

package ast

import (
	"testing"

	"github.com/kaleido-lang/kaleido/source/token"
)

func TestString(t *testing.T) {
	tree := &FunctionDef{
		Token: token.Token{Type: token.DEF, Literal: "def"},
		Proto: &Prototype{Name: "foo", Params: []string{"a", "b"}},
		Body: &InfixExpression{
			Operator: "+",
			Left:     &Identifier{Value: "a"},
			Right: &InfixExpression{
				Operator: "*",
				Left:     &Identifier{Value: "b"},
				Right:    &NumberLiteral{Token: token.Token{Type: token.NUMBER, Literal: "2"}, Value: 2},
			},
		},
	}
	want := "def foo(a b) (a + (b * 2))"
	if got := tree.String(); got != want {
		t.Fatalf("String() wrong. expected=%q, got=%q", want, got)
	}
}

func TestAnonymousFunctionDisplaysAsItsBody(t *testing.T) {
	tree := &FunctionDef{
		Proto: &Prototype{Name: "", Params: []string{}},
		Body:  &CallExpression{Callee: "foo", Args: []Node{&NumberLiteral{Token: token.Token{Literal: "1"}, Value: 1}}},
	}
	want := "foo(1)"
	if got := tree.String(); got != want {
		t.Fatalf("String() wrong. expected=%q, got=%q", want, got)
	}
}

func TestDump(t *testing.T) {
	call := &CallExpression{Callee: "bar", Args: []Node{
		&NumberLiteral{Token: token.Token{Literal: "1"}, Value: 1},
		&Identifier{Value: "x"},
	}}
	dump := Dump(call)
	if dump.Kind != "call" || dump.Name != "bar" || len(dump.Args) != 2 {
		t.Fatalf("dump of call wrong: %+v", dump)
	}
	if dump.Args[1].Kind != "variable" || dump.Args[1].Name != "x" {
		t.Fatalf("dump of argument wrong: %+v", dump.Args[1])
	}
}

package ast

import (
	"bytes"

	"github.com/kaleido-lang/kaleido/source/token"
)

// The base Node interface
type Node interface {
	Children() []Node
	GetToken() *token.Token
	String() string
}

// Nodes in alphabetical order.

type CallExpression struct {
	Token  token.Token // the identifier naming the function being called
	Callee string
	Args   []Node
}

func (ce *CallExpression) Children() []Node       { return ce.Args }
func (ce *CallExpression) GetToken() *token.Token { return &ce.Token }
func (ce *CallExpression) String() string {
	var out bytes.Buffer

	out.WriteString(ce.Callee)
	out.WriteString("(")
	sep := ""
	for _, arg := range ce.Args {
		out.WriteString(sep)
		out.WriteString(arg.String())
		sep = ", "
	}
	out.WriteString(")")

	return out.String()
}

// Both the things the user writes with 'def' and the bare expressions they type
// into the driver end up as one of these, an expression having been wrapped up
// in a prototype with an empty name.
type FunctionDef struct {
	Token token.Token // the 'def' token, or the first token of a bare expression
	Proto *Prototype
	Body  Node
}

func (fd *FunctionDef) Children() []Node       { return []Node{fd.Proto, fd.Body} }
func (fd *FunctionDef) GetToken() *token.Token { return &fd.Token }
func (fd *FunctionDef) String() string {
	if fd.Proto.IsAnonymous() {
		return fd.Body.String()
	}
	var out bytes.Buffer

	out.WriteString("def ")
	out.WriteString(fd.Proto.String())
	out.WriteString(" ")
	out.WriteString(fd.Body.String())

	return out.String()
}

type Identifier struct {
	Token token.Token
	Value string
}

func (id *Identifier) Children() []Node       { return []Node{} }
func (id *Identifier) GetToken() *token.Token { return &id.Token }
func (id *Identifier) String() string         { return id.Value }

type InfixExpression struct {
	Token    token.Token // the operator token
	Operator string
	Left     Node
	Right    Node
}

func (ie *InfixExpression) Children() []Node       { return []Node{ie.Left, ie.Right} }
func (ie *InfixExpression) GetToken() *token.Token { return &ie.Token }
func (ie *InfixExpression) String() string {
	var out bytes.Buffer

	out.WriteString("(")
	out.WriteString(ie.Left.String())
	out.WriteString(" " + ie.Operator + " ")
	out.WriteString(ie.Right.String())
	out.WriteString(")")

	return out.String()
}

type NumberLiteral struct {
	Token token.Token
	Value float64
}

func (nl *NumberLiteral) Children() []Node       { return []Node{} }
func (nl *NumberLiteral) GetToken() *token.Token { return &nl.Token }
func (nl *NumberLiteral) String() string         { return nl.Token.Literal }

// The parameters are plain strings rather than Identifier nodes because nothing
// about them but their names ever gets used.
type Prototype struct {
	Token  token.Token // the identifier naming the function
	Name   string
	Params []string
}

func (pr *Prototype) Children() []Node       { return []Node{} }
func (pr *Prototype) GetToken() *token.Token { return &pr.Token }
func (pr *Prototype) IsAnonymous() bool      { return pr.Name == "" }
func (pr *Prototype) String() string {
	var out bytes.Buffer

	out.WriteString(pr.Name)
	out.WriteString("(")
	sep := ""
	for _, param := range pr.Params {
		out.WriteString(sep)
		out.WriteString(param)
		sep = " "
	}
	out.WriteString(")")

	return out.String()
}

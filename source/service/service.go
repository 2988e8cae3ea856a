package service

import (
	"fmt"
	"os"

	"github.com/kaleido-lang/kaleido/source/ast"
	"github.com/kaleido-lang/kaleido/source/lexer"
	"github.com/kaleido-lang/kaleido/source/parser"
	"github.com/kaleido-lang/kaleido/source/settings"
	"github.com/kaleido-lang/kaleido/source/token"
)

// A Service is one parsing session: a parser, the text it has been fed, and the
// top-level units it has gotten out of the text so far. The hub keeps one per
// script it has been asked to look after, plus one for scratch REPL use.
type Service struct {
	Prsr           *parser.Parser
	scriptFilepath string
	Units          []Unit
	Broken         bool
}

type UnitKind int

const (
	DefinitionUnit UnitKind = iota
	ExternUnit
	ExpressionUnit
)

func (k UnitKind) String() string {
	switch k {
	case DefinitionUnit:
		return "definition"
	case ExternUnit:
		return "extern"
	}
	return "expression"
}

// A Unit is one of the top-level things the driver loop can get out of the
// text: a function definition, an extern declaration, or a bare expression.
type Unit struct {
	Kind UnitKind
	Node ast.Node
}

// Renders the unit the way the driver reports it back to the user.
func (u Unit) Display() string {
	if u.Kind == ExternUnit {
		return "extern " + u.Node.String()
	}
	return u.Node.String()
}

// Returns a new service with no script.
func NewService() *Service {
	return &Service{Prsr: parser.New(), Units: []Unit{}}
}

// Initializes the service with the source code supplied in the file indicated
// by the filepath. An error is returned if the file can't be read: errors in
// the code itself go on the parser's list and break the service.
func (sv *Service) InitializeFromFilepath(scriptFilepath string) error {
	sourcecode, e := os.ReadFile(scriptFilepath)
	if e != nil {
		return e
	}
	sv.scriptFilepath = scriptFilepath
	sv.Units = sv.parse(scriptFilepath, string(sourcecode))
	sv.Broken = sv.Prsr.ErrorsExist()
	return nil
}

// Initializes the service with the source code supplied in the string.
func (sv *Service) InitializeFromCode(code string) {
	sv.scriptFilepath = ""
	sv.Units = sv.parse("code snippet", code)
	sv.Broken = sv.Prsr.ErrorsExist()
}

// Parses one line of REPL input. The units read get added to the service; what
// is returned is their display forms, for the driver to show. Any errors are
// left on the parser for the caller to inspect and clear.
func (sv *Service) Do(line string) []string {
	sv.Prsr.ClearErrors()
	units := sv.parse("REPL input", line)
	sv.Units = append(sv.Units, units...)
	result := []string{}
	for _, u := range units {
		if settings.SHOW_PARSER {
			fmt.Printf("Parser returns: %v\n", u.Node.String())
		}
		result = append(result, u.Display())
	}
	return result
}

// The main loop of the driver: read top-level units until the tokens run out.
// Loose semicolons between units are skipped. A unit that fails to parse gets
// its errors recorded, and the driver then skips a single token and tries
// again, so that one mistake doesn't eat the rest of the text.
func (sv *Service) parse(source, code string) []Unit {
	lx := lexer.NewLexer(source, code)
	sv.Prsr.Init(lx)
	units := []Unit{}
	for {
		switch sv.Prsr.CurToken().Type {
		case token.EOF:
			sv.Prsr.Errors = append(lx.Ers, sv.Prsr.Errors...)
			return units
		case token.SEMICOLON:
			sv.Prsr.NextToken()
		case token.DEF:
			if def := sv.Prsr.ParseDefinition(); def != nil {
				units = append(units, Unit{DefinitionUnit, def})
			} else {
				sv.Prsr.NextToken()
			}
		case token.EXTERN:
			if proto := sv.Prsr.ParseExtern(); proto != nil {
				units = append(units, Unit{ExternUnit, proto})
			} else {
				sv.Prsr.NextToken()
			}
		default:
			if expr := sv.Prsr.ParseTopLevelExpression(); expr != nil {
				units = append(units, Unit{ExpressionUnit, expr})
			} else {
				sv.Prsr.NextToken()
			}
		}
	}
}

func (sv *Service) GetScriptFilepath() string {
	return sv.scriptFilepath
}

func (sv *Service) IsBroken() bool {
	return sv.Broken
}

func (sv *Service) GetErrorReport() string {
	return sv.Prsr.ReturnErrors()
}

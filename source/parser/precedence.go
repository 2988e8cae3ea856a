package parser

import (
	"github.com/kaleido-lang/kaleido/source/token"
)

// Data and functions for sorting out the operator precedences.

// A binary operator is any single-character SYMBOL token with an entry in the
// parser's precedence table. The table belongs to the parser rather than being
// a package-level constant so that whoever drives the parser can install their
// own operators before parsing anything; these are the stock ones.
var DefaultPrecedences = map[string]int{
	"<": 10,
	"+": 20,
	"-": 20,
	"*": 40,
}

// Returns the precedence of the current token if it could be a binary operator,
// and -1 if it couldn't, this being lower than any precedence a real operator
// is allowed to have.
func (p *Parser) curPrecedence() int {
	if p.curToken.Type != token.SYMBOL {
		return -1
	}
	prec, ok := p.Precedences[p.curToken.Literal]
	if !ok || prec <= 0 {
		return -1
	}
	return prec
}

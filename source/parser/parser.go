package parser

import (
	"strconv"

	"github.com/kaleido-lang/kaleido/source/ast"
	"github.com/kaleido-lang/kaleido/source/err"
	"github.com/kaleido-lang/kaleido/source/lexer"
	"github.com/kaleido-lang/kaleido/source/token"
)

// The parser is a recursive-descent parser with one token of lookahead, plus
// precedence climbing to sort out the binary operators. Each Parse method
// leaves the current token sitting just after whatever it consumed, and on
// failure throws an error, returns nil, and leaves the current token wherever
// it got stuck, so that the driver can decide how much to skip.
type Parser struct {
	TokenizedCode lexer.TokenSupplier
	Errors        err.Errors
	curToken      token.Token

	// Maps single-character operators to their precedences. Higher binds tighter.
	Precedences map[string]int
}

func New() *Parser {
	p := &Parser{
		Errors:      []*err.Error{},
		Precedences: map[string]int{},
	}
	for op, prec := range DefaultPrecedences {
		p.Precedences[op] = prec
	}
	return p
}

// Primes the parser with a new supply of tokens and reads the first one into
// the buffer.
func (p *Parser) Init(supplier lexer.TokenSupplier) {
	p.TokenizedCode = supplier
	p.NextToken()
}

// Fetches the next token into the buffer, returning it. As the lexer will
// produce an endless supply of EOF tokens once the text runs out, this is also
// how the driver skips a token to resynchronize after an error.
func (p *Parser) NextToken() token.Token {
	p.curToken = p.TokenizedCode.NextToken()
	return p.curToken
}

func (p *Parser) CurToken() token.Token {
	return p.curToken
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

// An expression is a primary expression possibly followed by a run of binary
// operators, which the climber sorts into a tree.
func (p *Parser) ParseExpression() ast.Node {
	lhs := p.parsePrimary()
	if lhs == nil {
		return nil
	}
	return p.parseBinaryRHS(0, lhs)
}

// The precedence climber. exprPrec is the lowest precedence that a binary
// operator must have for this loop to be allowed to eat it: operators binding
// less tightly are left for whoever called us.
func (p *Parser) parseBinaryRHS(exprPrec int, lhs ast.Node) ast.Node {
	for {
		tokPrec := p.curPrecedence()
		if tokPrec < exprPrec {
			return lhs
		}
		opToken := p.curToken
		p.NextToken() // eat the operator
		rhs := p.parsePrimary()
		if rhs == nil {
			return nil
		}
		// If the next operator binds tighter than this one, it takes the rhs we
		// just read as its lhs.
		if tokPrec < p.curPrecedence() {
			rhs = p.parseBinaryRHS(tokPrec+1, rhs)
			if rhs == nil {
				return nil
			}
		}
		lhs = &ast.InfixExpression{Token: opToken, Operator: opToken.Literal, Left: lhs, Right: rhs}
	}
}

func (p *Parser) parsePrimary() ast.Node {
	switch p.curToken.Type {
	case token.IDENT:
		return p.parseIdentifierExpression()
	case token.NUMBER:
		return p.parseNumberLiteral()
	case token.LPAREN:
		return p.parseParenExpression()
	case token.EOF:
		p.Throw("parse/eof", &p.curToken)
		return nil
	default:
		p.Throw("parse/primary", &p.curToken)
		return nil
	}
}

func (p *Parser) parseNumberLiteral() ast.Node {
	lit := &ast.NumberLiteral{Token: p.curToken}
	value, e := strconv.ParseFloat(p.curToken.Literal, 64)
	if e != nil {
		p.Throw("parse/float64", &p.curToken)
		return nil
	}
	lit.Value = value
	p.NextToken()
	return lit
}

// An identifier on its own is a variable reference; an identifier followed by
// '(' calls the function it names.
func (p *Parser) parseIdentifierExpression() ast.Node {
	nameToken := p.curToken
	p.NextToken()
	if !p.curTokenIs(token.LPAREN) {
		return &ast.Identifier{Token: nameToken, Value: nameToken.Literal}
	}
	p.NextToken() // eat '('
	args := []ast.Node{}
	if !p.curTokenIs(token.RPAREN) {
		for {
			arg := p.ParseExpression()
			if arg == nil {
				return nil
			}
			args = append(args, arg)
			if p.curTokenIs(token.RPAREN) {
				break
			}
			if !p.curTokenIs(token.COMMA) {
				p.Throw("parse/call", &p.curToken)
				return nil
			}
			p.NextToken() // eat ','
		}
	}
	p.NextToken() // eat ')'
	return &ast.CallExpression{Token: nameToken, Callee: nameToken.Literal, Args: args}
}

// Parentheses group: they leave no trace of themselves in the tree.
func (p *Parser) parseParenExpression() ast.Node {
	p.NextToken() // eat '('
	exp := p.ParseExpression()
	if exp == nil {
		if p.curTokenIs(token.EOF) {
			p.Throw("parse/paren/eof", &p.curToken)
		}
		return nil
	}
	if !p.curTokenIs(token.RPAREN) {
		p.Throw("parse/paren", &p.curToken)
		return nil
	}
	p.NextToken() // eat ')'
	return exp
}

// A prototype is a name followed by a parenthesized list of parameters, the
// parameters being separated by whitespace and nothing else.
func (p *Parser) parsePrototype() *ast.Prototype {
	if !p.curTokenIs(token.IDENT) {
		p.Throw("parse/proto/name", &p.curToken)
		return nil
	}
	nameToken := p.curToken
	p.NextToken()
	if !p.curTokenIs(token.LPAREN) {
		p.Throw("parse/proto/lparen", &p.curToken)
		return nil
	}
	params := []string{}
	for p.NextToken().Type == token.IDENT {
		params = append(params, p.curToken.Literal)
	}
	if !p.curTokenIs(token.RPAREN) {
		p.Throw("parse/proto/rparen", &p.curToken)
		return nil
	}
	p.NextToken() // eat ')'
	return &ast.Prototype{Token: nameToken, Name: nameToken.Literal, Params: params}
}

func (p *Parser) ParseDefinition() *ast.FunctionDef {
	defToken := p.curToken
	p.NextToken() // eat 'def'
	proto := p.parsePrototype()
	if proto == nil {
		return nil
	}
	body := p.ParseExpression()
	if body == nil {
		return nil
	}
	return &ast.FunctionDef{Token: defToken, Proto: proto, Body: body}
}

func (p *Parser) ParseExtern() *ast.Prototype {
	p.NextToken() // eat 'extern'
	return p.parsePrototype()
}

// A bare expression at the top level gets wrapped in a definition with an empty
// name, so that everything the driver sees is a function of some sort.
func (p *Parser) ParseTopLevelExpression() *ast.FunctionDef {
	startToken := p.curToken
	body := p.ParseExpression()
	if body == nil {
		return nil
	}
	proto := &ast.Prototype{Token: startToken, Name: "", Params: []string{}}
	return &ast.FunctionDef{Token: startToken, Proto: proto, Body: body}
}

func (p *Parser) Throw(errorID string, tok *token.Token, args ...any) {
	p.Errors = err.Throw(errorID, p.Errors, tok, args...)
}

func (p *Parser) ErrorsExist() bool {
	return len(p.Errors) > 0
}

func (p *Parser) ReturnErrors() string {
	return err.GetList(p.Errors)
}

func (p *Parser) ClearErrors() {
	p.Errors = []*err.Error{}
}

package lexer

import (
	"fmt"
	"strconv"
	"unicode"

	"github.com/kaleido-lang/kaleido/source/err"
	"github.com/kaleido-lang/kaleido/source/settings"
	"github.com/kaleido-lang/kaleido/source/token"
)

type lexer struct {
	runes  *RuneSupplier
	tstart int // the position of the char at the start of the token being read
	lineNo int
	Ers    err.Errors
	source string
}

func NewLexer(source, input string) *lexer {
	l := &lexer{
		runes:  NewRuneSupplier([]rune(input)),
		Ers:    []*err.Error{},
		source: source,
		lineNo: 1,
	}
	return l
}

// Supplies the next token. Once the text runs out this returns an EOF token,
// and will go on returning one every time it's asked.
func (l *lexer) NextToken() token.Token {
	l.skipWhitespace()
	l.lineNo, l.tstart = l.runes.Position()
	ch := l.runes.CurrentRune()
	switch ch {
	case 0:
		return l.NewToken(token.EOF, "EOF")
	case ';':
		return l.NewToken(token.SEMICOLON, ";")
	case ',':
		return l.NewToken(token.COMMA, ",")
	case '(':
		return l.NewToken(token.LPAREN, "(")
	case ')':
		return l.NewToken(token.RPAREN, ")")
	case '#':
		l.runes.ReadComment() // Comments aren't tokens: we read one and then try again.
		l.runes.Next()
		return l.NextToken()
	}
	if IsLetter(ch) {
		lit := l.runes.ReadIdentifier()
		return l.NewToken(token.LookupIdent(lit), lit)
	}
	if IsDigit(ch) || ch == '.' {
		numString := l.runes.ReadNumber()
		if _, parseErr := strconv.ParseFloat(numString, 64); parseErr != nil {
			return l.Throw("lex/num", numString)
		}
		return l.NewToken(token.NUMBER, numString)
	}
	return l.NewToken(token.SYMBOL, string(ch))
}

func (l *lexer) skipWhitespace() {
	for ch := l.runes.CurrentRune(); ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'; ch = l.runes.CurrentRune() {
		l.runes.Next()
	}
}

// An identifier is a letter followed by letters and digits.
func (runes *RuneSupplier) ReadIdentifier() string {
	result := string(runes.CurrentRune())
	for IsLetter(runes.PeekRune()) || IsDigit(runes.PeekRune()) {
		runes.Next()
		result = result + string(runes.CurrentRune())
	}
	return result
}

// A number is a greedy run of digits and dots. This cheerfully slurps up things
// like '1.2.3' which don't parse as float64, and which the caller must then
// complain about.
func (runes *RuneSupplier) ReadNumber() string {
	result := string(runes.CurrentRune())
	for IsDigit(runes.PeekRune()) || runes.PeekRune() == '.' {
		runes.Next()
		result = result + string(runes.CurrentRune())
	}
	return result
}

// Reads up to but not past the end of the line, so that the newline itself gets
// handled by the usual whitespace-skipping.
func (runes *RuneSupplier) ReadComment() string {
	result := ""
	for !(runes.PeekRune() == '\n' || runes.PeekRune() == 0) {
		result = result + string(runes.PeekRune())
		runes.Next()
	}
	return result
}

func IsLetter(ch rune) bool {
	return unicode.IsLetter(ch)
}

func IsDigit(ch rune) bool {
	return unicode.IsDigit(ch)
}

func (l *lexer) NewToken(tokenType token.TokenType, st string) token.Token {
	l.runes.Next()
	return l.MakeToken(tokenType, st)
}

func (l *lexer) MakeToken(tokenType token.TokenType, st string) token.Token {
	if settings.SHOW_LEXER {
		fmt.Println(tokenType, st)
	}
	_, chNo := l.runes.Position()
	return token.Token{Type: tokenType, Literal: st, Source: l.source, Line: l.lineNo, ChStart: l.tstart, ChEnd: chNo}
}

// Unlike its counterpart in the parser this returns the ILLEGAL token it makes,
// so that the lexer can hand it on to whoever asked. It advances past the
// offending text, keeping the supply of tokens alive.
func (l *lexer) Throw(errorID string, args ...any) token.Token {
	tok := l.NewToken(token.ILLEGAL, errorID)
	l.Ers = err.Throw(errorID, l.Ers, &tok, args...)
	return tok
}

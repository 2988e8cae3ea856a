package token

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers + literals
	IDENT  = "IDENT"  // fib, x, y, ...
	NUMBER = "NUMBER" // 2, 3.14, .5, ...

	// Punctuation with a grammatical role of its own.
	COMMA     = ","
	LPAREN    = "("
	RPAREN    = ")"
	SEMICOLON = ";"

	// Any other single character. Whether it means anything is the parser's
	// business: the single-character operators are SYMBOL tokens which happen
	// to have an entry in the parser's precedence table.
	SYMBOL = "SYMBOL"

	// Keywords
	DEF    = "def"
	EXTERN = "extern"
)

type Token struct {
	Type    TokenType
	Literal string
	Line    int
	ChStart int
	ChEnd   int
	Source  string
}

var keywords = map[string]TokenType{
	"def":    DEF,
	"extern": EXTERN,
}

func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

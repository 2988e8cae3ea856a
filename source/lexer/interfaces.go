package lexer

import (
	"fmt"

	"github.com/kaleido-lang/kaleido/source/token"
)

// This interface allows the parser to get its supply of tokens either from the
// lexer directly or from anything else that can pretend to be one, e.g. the
// canned streams used in tests.
type TokenSupplier interface{ NextToken() token.Token }

// Dumps the contents of a `TokenSupplier` into a string.
func String(t TokenSupplier) string {
	result := ""
	for tok := t.NextToken(); tok.Type != token.EOF; tok = t.NextToken() {
		result = result + fmt.Sprintf("%+v\n", tok)
	}
	return result
}

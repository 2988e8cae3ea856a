// All this does is contain in one place the constants controlling which bits of the inner workings of the
// lexer/parser are displayed to me for debugging purposes. In a release they must all be set to false.

package settings

const (
	// These do what it sounds like.
	SHOW_LEXER  = false
	SHOW_PARSER = false // Note that this only applies to the REPL and not to script initialization.

	SHOW_TESTS = true // Says whether the tests should say what is being tested, useful if one of them crashes and we don't know which.
)

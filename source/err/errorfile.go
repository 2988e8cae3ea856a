package err

import (
	"strings"

	"github.com/kaleido-lang/kaleido/source/text"
	"github.com/kaleido-lang/kaleido/source/token"

	"fmt"
	"strconv"
)

// A map from error identifiers to functions that supply the corresponding error messages and explanations.
//
// Errors in the map are in alphabetical order of their identifers.
//
// Major categories are err, lex, and parse.
//
// Two otherwise identical errors thrown in different places in the Go code must be assigned
// different identifiers, if only by suffixing /a, /b, etc to the identifier.

var ErrorCreatorMap = map[string]ErrorCreator{

	// TEMPLATE
	"": {
		Message: func(tok *token.Token, args ...any) string {
			return ""
		},
		Explanation: func(errors Errors, pos int, tok *token.Token, args ...any) string {
			return ""
		},
	},

	"err/misdirect": {
		Message: func(tok *token.Token, args ...any) string {
			return "tried to throw a nonexistent error with identifier " + emph(args[0])
		},
		Explanation: func(errors Errors, pos int, tok *token.Token, args ...any) string {
			return "This is an error in Kaleido itself, in the error-handling of all places. " +
				"Please report it to the maintainers, quoting the identifier shown in the message."
		},
	},

	"lex/num": {
		Message: func(tok *token.Token, args ...any) string {
			return "can't parse " + emph(args[0]) + " as a number"
		},
		Explanation: func(errors Errors, pos int, tok *token.Token, args ...any) string {
			return "Anything starting with a digit or a dot is read as one run of digits and dots, " +
				"and the result must then be a well-formed floating-point literal such as '4', '3.14', or '.5'. " +
				"The usual way to trip over this is to write something like '1.2.3', which is a number " +
				"in no notation we know of."
		},
	},

	"parse/call": {
		Message: func(tok *token.Token, args ...any) string {
			return "expected ')' or ',' in argument list, not " + text.DescribeTok(tok)
		},
		Explanation: func(errors Errors, pos int, tok *token.Token, args ...any) string {
			return "The arguments of a function call are expressions separated by commas, the whole list " +
				"being closed by a ')'. Having read one argument, the parser can therefore cope with a " +
				"',' or a ')' and nothing else."
		},
	},

	"parse/eof": {
		Message: func(tok *token.Token, args ...any) string {
			return "unexpected " + text.DescribeTok(tok) + " when expecting an expression"
		},
		Explanation: func(errors Errors, pos int, tok *token.Token, args ...any) string {
			return "The text came to an end at a point where the parser still needed an expression, " +
				"e.g. after a binary operator or an opening parenthesis. Whatever you were in the middle " +
				"of writing, you should finish it."
		},
	},

	"parse/float64": {
		Message: func(tok *token.Token, args ...any) string {
			return "couldn't parse " + emph(tok.Literal) + " as a number"
		},
		Explanation: func(errors Errors, pos int, tok *token.Token, args ...any) string {
			return "The lexer thought this was enough like a number to make a number token out of it, " +
				"but it doesn't in fact evaluate as a float64. You should never see this error, since " +
				"the lexer checks: if you do, please report it."
		},
	},

	"parse/paren": {
		Message: func(tok *token.Token, args ...any) string {
			return "expected ')', not " + text.DescribeTok(tok)
		},
		Explanation: func(errors Errors, pos int, tok *token.Token, args ...any) string {
			return "A '(' before an expression groups it, and so must be matched by a ')' after it. " +
				"The parser got to the end of the expression and found " + text.DescribeTok(tok) + " instead."
		},
	},

	"parse/paren/eof": {
		Message: func(tok *token.Token, args ...any) string {
			return "expected ')' before " + text.DescribeTok(tok)
		},
		Explanation: func(errors Errors, pos int, tok *token.Token, args ...any) string {
			return "The parser was reading a parenthesized expression, and the text ran out before " +
				"the expression was finished or its '(' was matched by a ')'." +
				blame(errors, pos, "parse/eof")
		},
	},

	"parse/primary": {
		Message: func(tok *token.Token, args ...any) string {
			return "unknown token " + text.DescribeTok(tok) + " when expecting an expression"
		},
		Explanation: func(errors Errors, pos int, tok *token.Token, args ...any) string {
			return "An expression has to begin with a number, an identifier, or a '(', and the parser " +
				"found none of these where it needed one." +
				blame(errors, pos, "lex/num")
		},
	},

	"parse/proto/lparen": {
		Message: func(tok *token.Token, args ...any) string {
			return "expected '(' in prototype, not " + text.DescribeTok(tok)
		},
		Explanation: func(errors Errors, pos int, tok *token.Token, args ...any) string {
			return "The name of a function in a prototype must be followed by its parameters in " +
				"parentheses, e.g. 'def foo(x y) ...', even if there are no parameters: 'def moo() ...'."
		},
	},

	"parse/proto/name": {
		Message: func(tok *token.Token, args ...any) string {
			return "expected function name in prototype, not " + text.DescribeTok(tok)
		},
		Explanation: func(errors Errors, pos int, tok *token.Token, args ...any) string {
			return "The keywords 'def' and 'extern' must each be followed by a prototype, which begins " +
				"with an identifier naming the function."
		},
	},

	"parse/proto/rparen": {
		Message: func(tok *token.Token, args ...any) string {
			return "expected ')' in prototype, not " + text.DescribeTok(tok)
		},
		Explanation: func(errors Errors, pos int, tok *token.Token, args ...any) string {
			return "The parameters in a prototype are identifiers separated by whitespace and nothing " +
				"else, e.g. 'def foo(x y z) ...'. In particular there are no commas, and a parameter " +
				"can't be anything but a plain name."
		},
	},
}

func blame(errors Errors, pos int, args ...string) string {
	if pos == 0 {
		return ""
	}
	for _, v := range args {
		if errors[pos-1].ErrorId == v {
			very := ""
			if ((*errors[pos]).Token.Line - errors[pos-1].Token.Line) <= 1 {
				very = "very "
			}
			return "\n\nIn this case the problem is " + very + "likely a knock-on effect of the previous error ([" +
				strconv.Itoa(pos-1) + "] " + errors[pos-1].Message + ".)"
		}
	}
	return ""
}

func emph(s any) string {
	if t, ok := s.(string); ok {
		s = strings.TrimSpace(t)
	}
	return fmt.Sprintf("'%v'", s)
}

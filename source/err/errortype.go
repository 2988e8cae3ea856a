package err

import (
	"strconv"

	"github.com/kaleido-lang/kaleido/source/text"
	"github.com/kaleido-lang/kaleido/source/token"
)

// The 'error' type. The core never prints anything: whatever goes wrong gets
// wrapped up in one of these and put on a list for the driver to deal with.
type Error struct {
	ErrorId string
	Message string
	Args    []any
	Token   *token.Token
}

type Errors []*Error

// An ErrorCreator has one function for making the short message of an error and
// another for making the longer explanation supplied by 'hub why'.
type ErrorCreator struct {
	Message     func(tok *token.Token, args ...any) string
	Explanation func(errors Errors, pos int, tok *token.Token, args ...any) string
}

// Makes the error with the given identifier, the message being looked up in the
// ErrorCreatorMap.
func CreateErr(errorID string, tok *token.Token, args ...any) *Error {
	errorCreator, ok := ErrorCreatorMap[errorID]
	if !ok {
		return CreateErr("err/misdirect", tok, errorID)
	}
	msg := errorCreator.Message(tok, args...)
	return &Error{ErrorId: errorID, Message: msg, Args: args, Token: tok}
}

// Appends a new error to a list of them.
func Throw(errorID string, errs Errors, tok *token.Token, args ...any) Errors {
	return append(errs, CreateErr(errorID, tok, args...))
}

// Formats a list of errors the way the driver displays them. The number in
// front of each error is there so that the user can ask 'hub why <n>' about it.
func GetList(errors Errors) string {
	result := "\n"
	for i, e := range errors {
		result = result + "[" + strconv.Itoa(i) + "] " + text.ERROR + e.Message + text.DescribePos(e.Token) + ".\n"
	}
	return result + "\n"
}

// Retrieves the long-form explanation of the error at the given position in the
// list. The whole list is passed in because the explainers can look at the
// preceding errors to see if this one is just a knock-on effect.
func GetExplanation(errors Errors, pos int) string {
	e := errors[pos]
	explainer, ok := ErrorCreatorMap[e.ErrorId]
	if !ok {
		return "There is no explanation associated with this error. That shouldn't happen: please report it."
	}
	return explainer.Explanation(errors, pos, e.Token, e.Args...)
}

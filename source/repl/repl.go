package repl

import (
	"strings"

	"github.com/lmorg/readline"

	"github.com/kaleido-lang/kaleido/source/hub"
	"github.com/kaleido-lang/kaleido/source/text"
)

// Runs the REPL: reads lines, passes them to the hub, stops when the hub
// reports that it has been told to quit.
func Start(hub *hub.Hub) {
	rline := readline.NewInstance()
	for {

		// The hub's CurrentForm setting allows it to ask for information from the user
		// instead of just sitting waiting to be told. If CurrentForm is not nil then it
		// contains a structured request for information which must be completed before
		// returning to the regular REPL.
		if hub.CurrentForm != nil {
			for {
				queryString := hub.CurrentForm.Fields[len(hub.CurrentForm.Result)]
				// A * at the beginning of the query string indicates that the answer
				// should be masked.
				if queryString[0] == '*' {
					queryString = queryString[1:]
					rline.PasswordMask = '▪'
				}

				// The readline utility doesn't like multiline prompts, so we must kludge a little.
				pos := strings.LastIndex(queryString, "\n")
				if pos == -1 {
					rline.SetPrompt(queryString + ": ")
				} else {
					hub.WriteString(queryString[:pos+1])
					rline.SetPrompt(queryString[pos+1:] + ": ")
				}
				line, _ := rline.Readline()
				rline.PasswordMask = 0
				hub.CurrentForm.Result[hub.CurrentForm.Fields[len(hub.CurrentForm.Result)]] = line
				if len(hub.CurrentForm.Result) == len(hub.CurrentForm.Fields) {
					hub.CurrentForm.Call(hub.CurrentForm)
					break
				}
			}
			continue
		}

		rline.SetPrompt(makePrompt(hub))
		line, _ := rline.Readline()

		line = strings.TrimSpace(line)

		if line == "" {
			continue
		}

		if hub.Do(line) {
			break
		}
	}
}

func makePrompt(hub *hub.Hub) string {
	if hub.CurrentServiceName() == "" {
		return text.PROMPT
	}
	promptText := hub.CurrentServiceName() + " " + text.PROMPT
	if hub.CurrentServiceIsBroken() {
		promptText = text.Red(promptText)
	}
	return promptText
}

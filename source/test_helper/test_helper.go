package test_helper

import (
	"os"
	"testing"

	"github.com/kaleido-lang/kaleido/source/service"
	"github.com/kaleido-lang/kaleido/source/settings"
	"github.com/kaleido-lang/kaleido/source/text"
)

// Auxiliary types and functions for testing the lexer and parser.

type TestItem struct {
	Input string
	Want  string
}

func RunTest(t *testing.T, filename string, tests []TestItem, F func(sv *service.Service, s string) (string, error)) {
	wd, _ := os.Getwd() // The working directory is the directory containing the package being tested.
	for _, test := range tests {
		if settings.SHOW_TESTS {
			println(text.BULLET + "Running test " + text.Emph(test.Input))
		}
		sv := service.NewService()
		if filename != "" {
			if e := sv.InitializeFromFilepath(wd + "/test-files/" + filename); e != nil {
				t.Fatalf("There was an error opening the script: \n" + e.Error())
			}
		}
		if sv.IsBroken() {
			t.Fatalf("There were errors initializing the service : \n" + sv.GetErrorReport())
		}
		got, e := F(sv, test.Input)
		if e != nil {
			println(text.Red(test.Input))
			println("There were errors parsing the line: \n" + sv.GetErrorReport() + "\n")
		}
		if !(test.Want == got) {
			t.Fatalf(`Test failed with input %s | Wanted : %s | Got : %s.`, test.Input, test.Want, got)
		}
	}
}

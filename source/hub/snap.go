package hub

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kaleido-lang/kaleido/source/text"
)

type ioPair struct {
	input  string
	output string
}

// A Snap is a recording of an interactive session: the script it was run
// against, and the list of inputs and outputs.
type Snap struct {
	testFilename   string
	scriptFilepath string
	ioList         []ioPair
}

const (
	BAD    = "bad"
	GOOD   = "good"
	RECORD = "record"
)

func NewSnap(scriptFilepath, testFilename string) *Snap {
	sn := Snap{scriptFilepath: scriptFilepath, testFilename: testFilename, ioList: []ioPair{}}
	return &sn
}

func (sn *Snap) AddInput(s string) {
	ioPair := ioPair{input: s, output: ""}
	sn.ioList = append(sn.ioList, ioPair)
}

func (sn *Snap) AddOutput(s string) {
	sn.ioList[len(sn.ioList)-1].output = s
}

func (sn *Snap) Save(st string) string {
	snapOutput := fmt.Sprintf("snap: %v\nscript: %v\n", st, sn.scriptFilepath)
	for _, v := range sn.ioList {
		snapOutput = snapOutput + "\n" + "-> " + v.input + "\n" + v.output
	}
	fname := filepath.Base(sn.scriptFilepath)
	fname = fname[:len(fname)-len(filepath.Ext(fname))]
	dname := filepath.Dir(sn.scriptFilepath)
	directoryName := dname + "/-tests/" + fname
	mkdirError := os.MkdirAll(directoryName, 0777)
	if mkdirError != nil {
		return text.HUB_ERROR + "os reports \"" + strings.TrimSpace(mkdirError.Error()) + "\".\n"
	}
	testFilepath := directoryName + "/" + sn.testFilename
	f, createError := os.Create(testFilepath)
	if createError != nil {
		return text.HUB_ERROR + "os reports \"" + strings.TrimSpace(createError.Error()) + "\".\n"
	}
	defer f.Close()

	f.WriteString(snapOutput)

	return "Created test as file " + text.Emph(testFilepath) + "."
}

// Reads a snap file back in. The two header lines give the test type and the
// script; the rest alternates '-> ' input lines with outputs, an output
// running on until the next '-> ' line because it may have newlines in it.
func readSnapFile(testFilepath string) (string, string, []ioPair, error) {
	content, readError := os.ReadFile(testFilepath)
	if readError != nil {
		return "", "", nil, readError
	}
	lines := strings.Split(string(content), "\n")
	if len(lines) < 2 || !strings.HasPrefix(lines[0], "snap: ") || !strings.HasPrefix(lines[1], "script: ") {
		return "", "", nil, errors.New("file " + text.Emph(testFilepath) + " isn't a snap file")
	}
	testType := lines[0][len("snap: "):]
	scriptFilepath := lines[1][len("script: "):]
	ioList := []ioPair{}
	outputLines := []string{}
	for _, line := range lines[2:] {
		if strings.HasPrefix(line, "-> ") {
			if len(ioList) > 0 {
				ioList[len(ioList)-1].output = strings.Join(outputLines, "\n")
			}
			ioList = append(ioList, ioPair{input: line[3:]})
			outputLines = []string{}
		} else if len(ioList) > 0 {
			outputLines = append(outputLines, line)
		}
	}
	if len(ioList) > 0 {
		ioList[len(ioList)-1].output = strings.Join(outputLines, "\n")
	}
	return testType, scriptFilepath, ioList, nil
}

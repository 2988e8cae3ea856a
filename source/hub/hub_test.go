package hub

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/kaleido-lang/kaleido/source/store"
)

func newTestHub(t *testing.T) (*Hub, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	h := New(strings.NewReader(""), out)
	h.directory = t.TempDir() + "/"
	h.Open()
	out.Reset()
	return h, out
}

func do(h *Hub, out *bytes.Buffer, line string) string {
	out.Reset()
	h.Do(line)
	return out.String()
}

func TestEcho(t *testing.T) {
	h, out := newTestHub(t)
	result := do(h, out, "x + 1 * 2")
	if !strings.Contains(result, "(x + (1 * 2))") {
		t.Fatalf("echo wrong. got=%q", result)
	}
}

func TestRunAndHalt(t *testing.T) {
	h, out := newTestHub(t)
	scriptFilepath := t.TempDir() + "/double.k"
	if writeError := os.WriteFile(scriptFilepath, []byte("def double(x) x * 2"), 0644); writeError != nil {
		t.Fatal(writeError)
	}

	result := do(h, out, "hub run "+scriptFilepath+" as demo")
	if !strings.Contains(result, "Starting script") {
		t.Fatalf("service didn't start. got=%q", result)
	}
	if h.CurrentServiceName() != "demo" {
		t.Fatalf("current service wrong. expected=%q, got=%q", "demo", h.CurrentServiceName())
	}

	result = do(h, out, "hub list")
	if !strings.Contains(result, "demo") {
		t.Fatalf("service not listed. got=%q", result)
	}

	result = do(h, out, "double(2) + 1")
	if !strings.Contains(result, "(double(2) + 1)") {
		t.Fatalf("echo wrong. got=%q", result)
	}

	result = do(h, out, "hub halt demo")
	if !strings.Contains(result, "OK") {
		t.Fatalf("halt failed. got=%q", result)
	}
	if h.CurrentServiceName() != "" {
		t.Fatalf("halting the current service should reset the current service name")
	}
}

func TestBrokenService(t *testing.T) {
	h, out := newTestHub(t)
	scriptFilepath := t.TempDir() + "/bad.k"
	if writeError := os.WriteFile(scriptFilepath, []byte("def oops("), 0644); writeError != nil {
		t.Fatal(writeError)
	}

	result := do(h, out, "hub run "+scriptFilepath+" as broken")
	if !strings.Contains(result, "Error") {
		t.Fatalf("expected an error report. got=%q", result)
	}

	// A broken service passes its input to the empty service instead.
	result = do(h, out, "2 + 2")
	if !strings.Contains(result, "(2 + 2)") {
		t.Fatalf("echo wrong. got=%q", result)
	}
}

func TestErrorsAndWhy(t *testing.T) {
	h, out := newTestHub(t)
	result := do(h, out, "1 + )")
	if !strings.Contains(result, "Error") {
		t.Fatalf("expected an error report. got=%q", result)
	}
	if len(h.ers) != 1 {
		t.Fatalf("wrong number of errors. expected=%d, got=%d", 1, len(h.ers))
	}

	result = do(h, out, "hub why 0")
	if !strings.Contains(result, "parse/primary") {
		t.Fatalf("explanation should give the error reference. got=%q", result)
	}

	result = do(h, out, "hub why 3")
	if !strings.Contains(result, "aren't that many errors") {
		t.Fatalf("expected a complaint. got=%q", result)
	}

	result = do(h, out, "hub errors")
	if !strings.Contains(result, "Error") {
		t.Fatalf("expected the report to be repeated. got=%q", result)
	}
}

func TestSnapTestReplay(t *testing.T) {
	h, out := newTestHub(t)
	scriptDir := t.TempDir()
	scriptFilepath := scriptDir + "/fib.k"
	script := "def fib(x) fib(x - 1) + fib(x - 2)"
	if writeError := os.WriteFile(scriptFilepath, []byte(script), 0644); writeError != nil {
		t.Fatal(writeError)
	}

	result := do(h, out, "hub snap "+scriptFilepath+" as mytest")
	if !strings.Contains(result, "Recording is ON") {
		t.Fatalf("recording didn't start. got=%q", result)
	}
	do(h, out, "fib(10)")
	result = do(h, out, "hub snap good")
	if !strings.Contains(result, "Created test as file") {
		t.Fatalf("snap not saved. got=%q", result)
	}

	result = do(h, out, "hub test "+scriptFilepath)
	if !strings.Contains(result, "Test passed!") {
		t.Fatalf("test should have passed. got=%q", result)
	}

	result = do(h, out, "hub replay "+scriptDir+"/-tests/fib/mytest")
	if !strings.Contains(result, "fib(10)") {
		t.Fatalf("replay should show the recorded input. got=%q", result)
	}
}

func TestTranscriptArchiveRecall(t *testing.T) {
	h, out := newTestHub(t)
	var dbError error
	h.Db, dbError = store.GetdB("SQLite", "", "", ":memory:", "", "")
	if dbError != nil {
		t.Fatal(dbError)
	}
	defer h.Db.Close()
	// Each connection to ':memory:' is a fresh empty database, so the pool
	// must be kept to one connection.
	h.Db.SetMaxOpenConns(1)
	if tableError := store.CreateTables(h.Db); tableError != nil {
		t.Fatal(tableError)
	}

	do(h, out, "21 * 2")
	result := do(h, out, "hub transcript")
	if !strings.Contains(result, "-> 21 * 2") {
		t.Fatalf("transcript should contain the input. got=%q", result)
	}

	result = do(h, out, "hub archive demo")
	if !strings.Contains(result, "OK") {
		t.Fatalf("archiving failed. got=%q", result)
	}

	result = do(h, out, "hub recall demo")
	if !strings.Contains(result, "(21 * 2)") {
		t.Fatalf("recall should contain the output. got=%q", result)
	}

	result = do(h, out, "hub transcripts")
	if !strings.Contains(result, "demo") {
		t.Fatalf("transcript list should contain the name. got=%q", result)
	}
}

func TestRegisterNeedsAdministration(t *testing.T) {
	h, out := newTestHub(t)
	result := do(h, out, "hub register")
	if !strings.Contains(result, "not an administered hub") {
		t.Fatalf("expected a complaint. got=%q", result)
	}
}

func TestHelp(t *testing.T) {
	h, out := newTestHub(t)
	result := do(h, out, "hub")
	if !strings.Contains(result, "Hub commands are:") {
		t.Fatalf("expected the list of commands. got=%q", result)
	}

	result = do(h, out, "hub help why")
	if !strings.Contains(result, "number of an error") {
		t.Fatalf("help for 'why' wrong. got=%q", result)
	}

	result = do(h, out, "hub help zork")
	if !strings.Contains(result, "doesn't accept") {
		t.Fatalf("expected a complaint. got=%q", result)
	}
}

func TestPeek(t *testing.T) {
	h, out := newTestHub(t)
	do(h, out, "hub peek on")
	result := do(h, out, "3 + 4")
	if !strings.Contains(result, "NUMBER") {
		t.Fatalf("peek should dump the tokens. got=%q", result)
	}
	if !strings.Contains(result, "node: binary") {
		t.Fatalf("peek should dump the tree. got=%q", result)
	}
}

func TestHttpRequest(t *testing.T) {
	h, _ := newTestHub(t)
	request := httptest.NewRequest("POST", "/", strings.NewReader("2 + 2"))
	recorder := httptest.NewRecorder()
	h.handleSimpleRequest(recorder, request)
	if !strings.Contains(recorder.Body.String(), "(2 + 2)") {
		t.Fatalf("response wrong. got=%q", recorder.Body.String())
	}
}

func TestJsonRequest(t *testing.T) {
	h, _ := newTestHub(t)
	request := httptest.NewRequest("POST", "/", strings.NewReader(`{"Body": "def f(x) x + 1"}`))
	recorder := httptest.NewRecorder()
	h.handleJsonRequest(recorder, request)

	var response jsonResponse
	if decodeError := json.NewDecoder(recorder.Body).Decode(&response); decodeError != nil {
		t.Fatal(decodeError)
	}
	if len(response.Results) != 1 || response.Results[0] != "def f(x) (x + 1)" {
		t.Fatalf("results wrong. got=%v", response.Results)
	}
	if len(response.Trees) != 1 || response.Trees[0].Kind != "function" {
		t.Fatalf("trees wrong. got=%v", response.Trees)
	}
}

func TestQuit(t *testing.T) {
	h, out := newTestHub(t)
	if !h.Do("hub quit") {
		t.Fatalf("quit should tell the caller to stop")
	}
	if !strings.Contains(out.String(), "Thank you for using Kaleido") {
		t.Fatalf("missing valediction. got=%q", out.String())
	}
}

func TestSnapFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	snap := NewSnap(dir+"/fib.k", "trip")
	snap.AddInput("fib(1)")
	snap.AddOutput("fib(1)")
	snap.AddInput("x * 3")
	snap.AddOutput("(x * 3)")

	result := snap.Save(GOOD)
	if !strings.Contains(result, "Created test as file") {
		t.Fatalf("save failed. got=%q", result)
	}

	testType, scriptFilepath, ioList, readError := readSnapFile(dir + "/-tests/fib/trip")
	if readError != nil {
		t.Fatal(readError)
	}
	if testType != GOOD {
		t.Fatalf("test type wrong. expected=%q, got=%q", GOOD, testType)
	}
	if scriptFilepath != dir+"/fib.k" {
		t.Fatalf("script filepath wrong. expected=%q, got=%q", dir+"/fib.k", scriptFilepath)
	}
	if len(ioList) != 2 {
		t.Fatalf("wrong number of exchanges. expected=%d, got=%d", 2, len(ioList))
	}
	if ioList[1].input != "x * 3" || ioList[1].output != "(x * 3)" {
		t.Fatalf("exchange wrong. got=%q, %q", ioList[1].input, ioList[1].output)
	}
}

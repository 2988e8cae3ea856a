package hub

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
	"src.elv.sh/pkg/persistent/vector"

	"github.com/kaleido-lang/kaleido/source/ast"
	"github.com/kaleido-lang/kaleido/source/err"
	"github.com/kaleido-lang/kaleido/source/lexer"
	"github.com/kaleido-lang/kaleido/source/parser"
	"github.com/kaleido-lang/kaleido/source/service"
	"github.com/kaleido-lang/kaleido/source/store"
	"github.com/kaleido-lang/kaleido/source/text"
)

var (
	MARGIN = 80
)

// The hub is what the user talks to. It keeps the services, hands their lines
// to them, shows the results, and does everything that isn't the language:
// recording and replaying tests, keeping transcripts, administration.
type Hub struct {
	services               map[string]*service.Service
	currentServiceName     string
	ers                    err.Errors
	peek                   bool
	in                     io.Reader
	out                    io.Writer
	anonymousServiceNumber int
	snap                   *Snap
	oldServiceName         string // Somewhere to keep the old service name while taking a snap.
	transcript             vector.Vector
	CurrentForm            *Form
	Db                     *sql.DB
	administered           bool
	listeningToHttp        bool
	port, path             string
	Username               string
	Password               string

	directory string
}

func New(in io.Reader, out io.Writer) *Hub {
	appDir, _ := filepath.Abs(filepath.Dir(os.Args[0]))
	hub := Hub{
		services:   make(map[string]*service.Service),
		in:         in,
		out:        out,
		transcript: vector.Empty,
		directory:  appDir + "/"}
	return &hub
}

// This takes the input from the REPL, interprets it as a hub command if it
// begins with 'hub'; as an instruction to the os if it begins with 'os'; as an
// instruction to switch services if it consists only of the name of a service;
// and as a line to be passed to the current service if none of the above hold.
// It returns true when the hub has been asked to shut down.
func (hub *Hub) Do(line string) bool {

	if match, _ := regexp.MatchString(`^\s*(|#.*)$`, line); match {
		hub.WriteString("")
		return false
	}

	if hub.administered && !hub.listeningToHttp && hub.Password == "" &&
		!(line == "hub register" || line == "hub log on" || line == "hub quit") {
		hub.WriteError("this is an administered hub and you aren't logged on. Please enter either " +
			"'hub register' to register as a user, or 'hub log on' to log on if you're already registered " +
			"with this hub.")
		return false
	}

	// We may be talking to the hub itself.

	hubWords := strings.Fields(line)
	if hubWords[0] == "hub" {
		return hub.ParseHubCommand(hubWords[1:])
	}

	// We may be talking to the os.

	if hubWords[0] == "os" {
		if hub.administered {
			hub.WriteError("for reasons of safety and sanity, the 'os' prefix doesn't work in administered hubs.")
			return false
		}
		if len(hubWords) == 1 {
			hub.WriteError("you need to say what you want the os to do.")
			return false
		}
		if len(hubWords) == 3 && hubWords[1] == "cd" { // Because cd changes the directory for the current
			os.Chdir(hubWords[2])    // process, if we did it with exec it would do it for
			hub.WriteString(text.OK) // that process and not for Kaleido.
			return false
		}
		command := exec.Command(hubWords[1], hubWords[2:]...)
		out, osError := command.Output()
		if osError != nil {
			hub.WriteError(osError.Error())
			return false
		}
		if len(out) == 0 {
			hub.WriteString(text.OK)
			return false
		}
		hub.WriteString(string(out))
		return false
	}

	// A bare service name switches the current service; a longer line beginning
	// with a service name is aimed at that service.

	serviceToUse, ok := hub.services[hubWords[0]]
	if ok {
		if len(hubWords) == 1 {
			hub.currentServiceName = hubWords[0]
			hub.WriteString(text.OK + "\n")
			return false
		}
		line = line[len(hubWords[0])+1:]
	} else {
		serviceToUse, ok = hub.services[hub.currentServiceName]
	}
	if !ok {
		hub.WriteError("the hub can't find the service " + text.Emph(hub.currentServiceName) + ".")
		return false
	}

	// The service may be broken, in which case we let the empty service handle
	// the input.

	if serviceToUse.IsBroken() {
		serviceToUse = hub.services[""]
	}

	// If hub peek is turned on, this will show us the wheels going round.

	if hub.peek {
		hub.WriteString(lexer.String(lexer.NewLexer("REPL input", line)))
	}

	unitsBefore := len(serviceToUse.Units)
	out, failed := serviceDo(serviceToUse, line)
	if failed {
		hub.GetAndReportErrors(serviceToUse.Prsr)
	} else {
		if hub.peek {
			for _, u := range serviceToUse.Units[unitsBefore:] {
				tree, _ := yaml.Marshal(ast.Dump(u.Node))
				hub.WriteString(string(tree))
			}
		}
		hub.WriteString(out + "\n")
	}

	hub.record(line, out)
	if hub.currentServiceName == "#snap" {
		hub.snap.AddInput(line)
		hub.snap.AddOutput(out)
	}
	return false
}

func (hub *Hub) ParseHubCommand(hubWords []string) bool { // Returns true if the command is 'quit', since the hub can't
	fieldCount := len(hubWords) // quit from inside itself.
	if fieldCount == 0 {
		hub.help()
		return false
	}
	verb := hubWords[0]

	if !hub.administered && (verb == "log" || verb == "register") {
		hub.WriteError("this is not an administered hub. To initialize it as one, first do 'hub config db' " +
			"(if you haven't already) and then 'hub config admin'.")
		return false
	}
	if hub.administered && hub.Username != "" {
		isAdmin, adminError := store.IsUserAdmin(hub.Db, hub.Username)
		if adminError != nil {
			hub.WriteError(adminError.Error())
			return false
		}
		if !isAdmin && (verb == "config" || verb == "halt" || verb == "peek" ||
			verb == "replay" || verb == "reset" || verb == "run" || verb == "serve" ||
			verb == "snap" || verb == "test") {
			hub.WriteError("you don't have the admin status necessary to do that.")
			return false
		}
	}

	switch verb {

	// Verbs in alphabetical order: archive, config, edit, errors, halt, help, list, log,
	// peek, quit, recall, register, replay, reset, run, serve, snap, test, transcript,
	// transcripts, why

	case "archive":
		if fieldCount != 2 {
			hub.WriteError("the 'hub archive' command takes the name to store the transcript under as a parameter.")
			return false
		}
		if !hub.hasDatabase() {
			hub.WriteError("the hub doesn't have a database: you can connect it to one with 'hub config db'.")
			return false
		}
		if hub.transcript.Len() == 0 {
			hub.WriteError("nothing has been said yet: there is no transcript to archive.")
			return false
		}
		exchanges := []store.Exchange{}
		for it := hub.transcript.Iterator(); it.HasElem(); it.Next() {
			exchanges = append(exchanges, it.Elem().(store.Exchange))
		}
		archiveError := store.SaveTranscript(hub.Db, hubWords[1], hub.Username, hub.currentServiceName, exchanges)
		if archiveError != nil {
			hub.WriteError(archiveError.Error())
			return false
		}
		hub.WriteString(text.OK + "\n")

	case "config":
		if fieldCount != 2 || (hubWords[1] != "admin" && hubWords[1] != "db") {
			hub.WriteError("the 'hub config' command takes either 'admin' or 'db' as a parameter.")
			return false
		}
		if hubWords[1] == "db" {
			hub.configDb()
			return false
		}
		if hub.isAdministered() {
			hub.WriteError("this hub is already administered.")
			return false
		}
		hub.configAdmin()

	case "edit":
		switch {
		case fieldCount == 1:
			hub.WriteError("the 'hub edit' command requires a filename as a parameter.")
		case fieldCount > 2:
			hub.WriteError("the 'hub edit' command takes at most one parameter.")
		default:
			command := exec.Command("vim", hubWords[1])
			command.Stdin = os.Stdin
			command.Stdout = os.Stdout
			editError := command.Run()
			if editError != nil {
				hub.WriteError(editError.Error())
			}
		}

	case "errors":
		if len(hub.ers) == 0 {
			hub.WritePretty("There are no recent errors.")
			return false
		}
		hub.WritePretty(err.GetList(hub.ers))

	case "halt":
		name := hub.currentServiceName
		if fieldCount > 2 {
			hub.WriteError("the 'hub halt' command takes at most one parameter, the name of a service.")
			return false
		}
		if fieldCount == 2 {
			if _, ok := hub.services[hubWords[1]]; ok {
				name = hubWords[1]
			} else {
				hub.WriteError("the hub can't find the service " + text.Emph(hubWords[1]) + ".")
				return false
			}
		}
		if name == "" {
			hub.WriteError("the hub doesn't know what you want to stop.")
			return false
		}
		delete(hub.services, name)
		hub.WriteString(text.OK + "\n")
		if name == hub.currentServiceName {
			hub.currentServiceName = ""
		}

	case "help":
		switch {
		case fieldCount == 1:
			hub.help()
		case fieldCount > 2:
			hub.WriteError("the 'hub help' command takes at most one parameter.")
		default:
			if helpMessage, ok := helpStrings[hubWords[1]]; ok {
				hub.WritePretty(helpMessage + "\n")
			} else {
				hub.WriteError("the 'hub help' command doesn't accept " + text.Emph(hubWords[1]) + " as a parameter.")
			}
		}

	case "list":
		if fieldCount > 1 {
			hub.WriteError("the 'hub list' command takes no parameters.")
			return false
		}
		if len(hub.services) == 1 {
			hub.WriteString("The hub isn't running any services.\n")
			return false
		}
		hub.WriteString("\n")
		hub.list()

	case "log":
		if fieldCount != 2 || (hubWords[1] != "on" && hubWords[1] != "off") {
			hub.WriteError("the 'hub log' command takes either 'on' or 'off' as a parameter.")
			return false
		}
		if hubWords[1] == "on" {
			hub.getLogin()
			return false
		}
		hub.Username = ""
		hub.Password = ""
		hub.WriteString("\n" + text.OK + "\n")
		hub.WritePretty("\nThis is an administered hub and you aren't logged on. Please enter either " +
			"'hub register' to register as a user, or 'hub log on' to log on if you're already registered " +
			"with this hub.\n\n")

	case "peek":
		switch {
		case fieldCount == 1:
			hub.peek = !hub.peek
		case fieldCount == 2:
			switch hubWords[1] {
			case "on":
				hub.peek = true
			case "off":
				hub.peek = false
			default:
				hub.WriteError("the 'hub peek' command only accepts the parameters 'on' or 'off'.")
			}
		default:
			hub.WriteError("the 'hub peek' command takes at most one parameter, 'on' or 'off'.")
		}

	case "quit":
		if fieldCount > 1 {
			hub.WriteError("the 'hub quit' command takes no parameters.")
			return false
		}
		hub.quit()
		return true

	case "recall":
		if fieldCount != 2 {
			hub.WriteError("the 'hub recall' command takes the name of an archived transcript as a parameter.")
			return false
		}
		if !hub.hasDatabase() {
			hub.WriteError("the hub doesn't have a database: you can connect it to one with 'hub config db'.")
			return false
		}
		exchanges, recallError := store.GetTranscript(hub.Db, hubWords[1])
		if recallError != nil {
			hub.WriteError(recallError.Error())
			return false
		}
		hub.WriteString("\n")
		for _, ex := range exchanges {
			hub.WriteString("-> " + ex.Input + "\n" + ex.Output + "\n")
		}
		hub.WriteString("\n")

	case "register":
		hub.addUserAsGuest()

	case "replay":
		hub.oldServiceName = hub.currentServiceName
		switch {
		case fieldCount == 2:
			hub.playTest(hubWords[1], false)
		case fieldCount == 3:
			if hubWords[2] != "diff" {
				hub.WriteError("the word " + text.Emph(hubWords[2]) + " makes no sense there.")
			} else {
				hub.playTest(hubWords[1], true)
			}
		default:
			hub.WriteError("the 'hub replay' command takes the filepath of a test as a parameter, optionally " +
				"followed by 'diff'.")
		}
		hub.currentServiceName = hub.oldServiceName
		delete(hub.services, "#test")

	case "reset":
		if fieldCount > 2 {
			hub.WriteError("the 'hub reset' command takes at most one parameter, the name of a service.")
			return false
		}
		name := hub.currentServiceName
		if fieldCount == 2 {
			name = hubWords[1]
		}
		serviceToReset, ok := hub.services[name]
		if !ok {
			hub.WriteError("the hub can't find the service " + text.Emph(name) + ".")
			return false
		}
		if name == "" {
			hub.WriteError("service is empty, nothing to reset.")
			return false
		}
		hub.WritePretty("Restarting script '" + serviceToReset.GetScriptFilepath() +
			"' as service '" + name + "'.\n")
		hub.Start(name, serviceToReset.GetScriptFilepath())

	case "run":
		switch fieldCount {
		case 1:
			hub.currentServiceName = ""
			return false
		case 2:
			hub.WritePretty("Starting script '" + hubWords[1] +
				"' as service '#" + strconv.Itoa(hub.anonymousServiceNumber) + "'.\n")
			hub.StartAnonymous(hubWords[1])
		case 3:
			if hubWords[2] == "as" {
				hub.WriteError("missing service name after 'as'.")
				return false
			}
			hub.WriteError("the word " + text.Emph(hubWords[2]) + " makes no sense there.")
		case 4:
			if hubWords[2] != "as" {
				hub.WriteError("the word " + text.Emph(hubWords[2]) + " makes no sense there.")
				return false
			}
			hub.WritePretty("Starting script '" + hubWords[1] + "' as service '" + hubWords[3] + "'.\n")
			hub.Start(hubWords[3], hubWords[1])
		default:
			hub.WriteError("too many words after 'hub run'.")
		}

	case "serve":
		if fieldCount != 2 {
			hub.WriteError("the 'hub serve' command takes a port number as a parameter.")
			return false
		}
		hub.WriteString(text.OK + "\n")
		hub.WritePretty("The hub is listening on port " + hubWords[1] + ".\n")
		hub.StartHttp("/", hubWords[1])

	case "snap":
		switch fieldCount {
		case 1:
			hub.WriteError("the 'hub snap' command needs some parameters.")
			return false
		case 2:
			fieldOne := hubWords[1]
			if fieldOne == "good" || fieldOne == "bad" || fieldOne == "record" || fieldOne == "discard" {
				if hub.currentServiceName != "#snap" {
					hub.WriteError("you aren't taking a snap.")
					return false
				}
				switch fieldOne {
				case "good":
					hub.WriteString(hub.snap.Save(GOOD) + "\n")
				case "bad":
					hub.WriteString(hub.snap.Save(BAD) + "\n")
				case "record":
					hub.WriteString(hub.snap.Save(RECORD) + "\n")
				case "discard":
					hub.WriteString(text.OK + "\n")
				}
				hub.snap = nil
				delete(hub.services, "#snap")
				hub.currentServiceName = hub.oldServiceName
				return false
			}
			scriptFilepath := fieldOne
			testFilename := getUnusedTestFilename(scriptFilepath) // If no filename is given, we just generate one.
			hub.oldServiceName = hub.currentServiceName
			if hub.Start("#snap", scriptFilepath) {
				hub.snap = NewSnap(scriptFilepath, testFilename)
				hub.WriteString("Recording is ON.\n")
			}
		case 3:
			if hubWords[2] == "as" {
				hub.WriteError("missing test filename after 'as'.")
				return false
			}
			hub.WriteError("the word " + text.Emph(hubWords[2]) + " makes no sense there.")
		case 4:
			if hubWords[2] != "as" {
				hub.WriteError("the word " + text.Emph(hubWords[2]) + " makes no sense there.")
				return false
			}
			hub.oldServiceName = hub.currentServiceName
			if hub.Start("#snap", hubWords[1]) {
				hub.snap = NewSnap(hubWords[1], hubWords[3])
				hub.WriteString("Recording is ON.\n")
			}
		default:
			hub.WriteError("too many words after 'hub snap'.")
		}

	case "test":
		switch fieldCount {
		case 1:
			hub.WriteError("the 'hub test' command needs some parameters.")
		case 2:
			hub.TestScript(hubWords[1])
		default:
			hub.WriteError("too many words after 'hub test'.")
		}

	case "transcript":
		if hub.transcript.Len() == 0 {
			hub.WriteString("Nothing has been said yet.\n")
			return false
		}
		hub.WriteString("\n")
		for it := hub.transcript.Iterator(); it.HasElem(); it.Next() {
			ex := it.Elem().(store.Exchange)
			hub.WriteString("-> " + ex.Input + "\n" + ex.Output + "\n")
		}
		hub.WriteString("\n")

	case "transcripts":
		if !hub.hasDatabase() {
			hub.WriteError("the hub doesn't have a database: you can connect it to one with 'hub config db'.")
			return false
		}
		result, listError := store.GetTranscriptList(hub.Db, hub.Username)
		if listError != nil {
			hub.WriteError(listError.Error())
			return false
		}
		hub.WriteString(result)

	case "why":
		if fieldCount != 2 {
			hub.WriteError("the 'hub why' command takes the number of an error as a parameter.")
			return false
		}
		num, atoiError := strconv.Atoi(hubWords[1])
		if atoiError != nil {
			hub.WriteError("the 'hub why' command takes the number of an error as a parameter.")
			return false
		}
		if num < 0 || num >= len(hub.ers) {
			hub.WriteError("there aren't that many errors.")
			return false
		}
		hub.WritePretty("\n$Error$" + hub.ers[num].Message +
			".\n\n" + err.GetExplanation(hub.ers, num) + "\n")
		refLine := "Error has reference '" + hub.ers[num].ErrorId + "'."
		refLine = "\n" + strings.Repeat(" ", MARGIN-len(refLine)-2) + refLine
		hub.WritePretty(refLine)
		hub.WriteString("\n")

	default:
		hub.WriteError("the hub doesn't recognize the command " + text.Emph(verb) + ".")
	}
	return false
}

func getUnusedTestFilename(scriptFilepath string) string {

	fname := filepath.Base(scriptFilepath)
	fname = fname[:len(fname)-len(filepath.Ext(fname))]
	dname := filepath.Dir(scriptFilepath)
	directoryName := dname + "/-tests/" + fname
	name := text.FlattenedFilename(scriptFilepath) + "_"

	tryNumber := 1
	tryName := ""

	for ; ; tryNumber++ {
		tryName = name + strconv.Itoa(tryNumber) + ".tst"
		_, statError := os.Stat(directoryName + "/" + tryName)
		if os.IsNotExist(statError) {
			break
		}
	}
	return tryName
}

func (hub *Hub) quit() {
	hub.save()
	hub.WriteString(text.OK + "\n" + text.Logo() + "Thank you for using Kaleido. Have a nice day!\n\n")
}

func (hub *Hub) help() {
	hub.WriteString("\n")
	hub.WriteString("Hub commands are:\n")
	hub.WriteString("\n")
	for _, v := range helpTopics {
		hub.WriteString(text.BULLET + v + "\n")
	}
	hub.WriteString("\n")
}

func (hub *Hub) WritePretty(s string) {
	hub.WriteString(text.Pretty(s, 0, MARGIN))
}

func (hub *Hub) isAdministered() bool {
	_, statError := os.Stat(hub.directory + "user/admin.dat")
	return !errors.Is(statError, os.ErrNotExist)
}

func (hub *Hub) hasDatabase() bool {
	return hub.Db != nil
}

func (hub *Hub) WriteError(s string) {
	hub.WritePretty("\n$Hub error$" + s)
	hub.WriteString("\n")
}

func (hub *Hub) WriteString(s string) {
	io.WriteString(hub.out, s)
}

var helpStrings = map[string]string{
	"archive": "'hub archive' followed by a name will store the transcript of the current session " +
		"in the hub's database under that name.",
	"config": "'hub config db' will connect the hub to a SQL database. 'hub config admin' will turn " +
		"the hub into an administered hub, with users and logins.",
	"edit": "'hub edit' followed by a filename will open the file in vim.",
	"errors": "'hub errors' will re-display the last error report.",
	"halt": "'hub halt' followed by the name of a service will halt the service. " +
		"If no service name is given, the hub will halt the current service.",
	"help": "'hub help' followed by the name of a topic will supply you with information on that topic.",
	"list": "'hub list' will list all services currently running on the hub.",
	"log": "'hub log on' will log you on to an administered hub. 'hub log off' will log you off again.",
	"peek": "'hub peek' followed by 'on' or 'off' will allow you to see what the lexer and parser " +
		"are doing. 'hub peek' without a parameter toggles between on and off.",
	"quit": "'hub quit' closes everything down.",
	"recall": "'hub recall' followed by the name of an archived transcript will fetch it from the " +
		"hub's database and display it.",
	"register": "'hub register' will sign you up as a user of an administered hub.",
	"replay": "'hub replay' followed by the filepath of a test will show you the test being rerun. " +
		"Adding 'diff' will show where the results differ from the recorded ones.",
	"reset": "'hub reset' followed by the name of a service will make the service reread its script. " +
		"If no service name is given the hub will reset the current service.",
	"run": "'hub run' followed by a valid filename will run the script as an anonymous service. By " +
		"adding 'as <name>' you can name the service. 'hub run' without parameters returns you to " +
		"the plain REPL.",
	"serve": "'hub serve' followed by a port number will make the hub listen for HTTP requests " +
		"on that port.",
	"snap": "'hub snap' followed by the filename of a script starts recording a test, optionally " +
		"'as <filename>'. Then 'hub snap good', 'hub snap bad', or 'hub snap record' ends the " +
		"recording and saves it, while 'hub snap discard' throws it away.",
	"test": "'hub test' followed by the filename of a script will rerun all the tests recorded " +
		"for that script.",
	"transcript":  "'hub transcript' will display everything said to the services in this session.",
	"transcripts": "'hub transcripts' will list the transcripts archived in the hub's database.",
	"why": "'hub why' followed by the number of an error in the last report will explain the " +
		"error at greater length.",
}

var helpTopics = []string{}

func init() {
	for k := range helpStrings {
		helpTopics = append(helpTopics, k)
	}
	sort.Strings(helpTopics)
}

func (hub *Hub) StartAnonymous(scriptFilepath string) {
	hub.Start("#"+fmt.Sprint(hub.anonymousServiceNumber), scriptFilepath)
	hub.anonymousServiceNumber = hub.anonymousServiceNumber + 1
}

func (hub *Hub) Start(name, scriptFilepath string) bool {
	if hub.createService(name, scriptFilepath) {
		hub.currentServiceName = name
		return true
	}
	return false
}

func (hub *Hub) createService(name, scriptFilepath string) bool {
	newService := service.NewService()
	if scriptFilepath != "" {
		fileError := newService.InitializeFromFilepath(scriptFilepath)
		if fileError != nil {
			hub.WriteError(strings.TrimSpace(fileError.Error()) + ".")
			return false
		}
	}
	hub.services[name] = newService
	if newService.IsBroken() {
		hub.GetAndReportErrors(newService.Prsr)
	}
	return true
}

func (hub *Hub) GetAndReportErrors(p *parser.Parser) {
	hub.ers = p.Errors
	hub.WritePretty(err.GetList(hub.ers))
}

func (hub *Hub) CurrentServiceName() string {
	return hub.currentServiceName
}

func (hub *Hub) CurrentServiceIsBroken() bool {
	sv, ok := hub.services[hub.currentServiceName]
	return ok && sv.IsBroken()
}

func (hub *Hub) record(input, output string) {
	hub.transcript = hub.transcript.Conj(store.Exchange{Input: input, Output: output})
}

func (hub *Hub) save() string {
	if dirError := os.MkdirAll(hub.directory+"user", 0777); dirError != nil {
		return text.HUB_ERROR + "os reports \"" + strings.TrimSpace(dirError.Error()) + "\".\n"
	}
	f, createError := os.Create(hub.directory + "user/hub.dat")
	if createError != nil {
		return text.HUB_ERROR + "os reports \"" + strings.TrimSpace(createError.Error()) + "\".\n"
	}
	defer f.Close()
	for k := range hub.services {
		if k != "" && k[0] != '#' {
			f.WriteString(k + ", " + hub.services[k].GetScriptFilepath() + "\n")
		}
	}
	f2, createError := os.Create(hub.directory + "user/current.dat")
	if createError != nil {
		return text.HUB_ERROR + "os reports \"" + strings.TrimSpace(createError.Error()) + "\".\n"
	}
	defer f2.Close()
	if hub.currentServiceName != "" && hub.currentServiceName[0] != '#' {
		f2.WriteString(hub.currentServiceName)
	}
	return text.OK
}

func (h *Hub) saveDbConfig(driver, host, port, name, username, password string) {
	_ = os.MkdirAll(h.directory+"user", 0777)
	f, createError := os.Create(h.directory + "user/database.dat")
	if createError != nil {
		h.WriteError("os reports \"" + strings.TrimSpace(createError.Error()) + "\".")
		return
	}
	defer f.Close()
	f.WriteString(strings.Join([]string{driver, host, port, name, username, password}, "\n"))
}

// Brings the hub back up the way it was shut down: the services it was
// running, the service it was looking at, the database it was connected to.
func (hub *Hub) Open() {

	_ = os.MkdirAll(hub.directory+"user", 0777)

	hub.createService("", "")

	if f, fileError := os.Open(hub.directory + "user/hub.dat"); fileError == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			params := strings.Split(scanner.Text(), ", ")
			if len(params) == 2 {
				hub.Start(params[0], params[1])
			}
		}
		f.Close()
	}

	hub.currentServiceName = ""
	if dat, fileError := os.ReadFile(hub.directory + "user/current.dat"); fileError == nil {
		name := strings.TrimSpace(string(dat))
		if _, ok := hub.services[name]; ok {
			hub.currentServiceName = name
		}
	}

	if dat, fileError := os.ReadFile(hub.directory + "user/database.dat"); fileError == nil {
		params := strings.Split(string(dat), "\n")
		if len(params) >= 6 {
			var connectionError error
			hub.Db, connectionError = store.GetdB(params[0], params[1], params[2], params[3], params[4], params[5])
			if connectionError != nil {
				hub.WriteError("couldn't connect to the hub's database: " + connectionError.Error())
			}
		}
	}

	hub.administered = hub.isAdministered()
	if hub.administered {
		hub.WritePretty("\nThis is an administered hub and you aren't logged on. Please enter either " +
			"'hub register' to register as a user, or 'hub log on' to log on if you're already registered " +
			"with this hub.\n\n")
	}

	hub.list()
}

func (hub *Hub) list() {
	if len(hub.services) == 1 {
		return
	}
	hub.WriteString("The hub is running the following services:\n\n")
	for k := range hub.services {
		if k == "" {
			continue
		}
		if hub.services[k].IsBroken() {
			hub.WriteString(text.BROKEN)
		} else {
			hub.WriteString(text.GOOD_BULLET)
		}
		hub.WritePretty("Service '" + k + "' running script '" + filepath.Base(hub.services[k].GetScriptFilepath()) + "'.")
	}
	hub.WriteString("\n")
}

func (hub *Hub) TestScript(scriptFilepath string) {

	fname := filepath.Base(scriptFilepath)
	fname = fname[:len(fname)-len(filepath.Ext(fname))]
	dname := filepath.Dir(scriptFilepath)
	directoryName := dname + "/-tests/" + fname

	files, dirError := os.ReadDir(directoryName)
	if dirError != nil || len(files) == 0 {
		hub.WriteError("the hub can't find any tests for script " + text.Emph(scriptFilepath) + ".")
		return
	}
	hub.oldServiceName = hub.currentServiceName
	for _, testFileInfo := range files {
		testFilepath := directoryName + "/" + testFileInfo.Name()
		hub.RunTest(scriptFilepath, testFilepath)
	}
	delete(hub.services, "#test")
	hub.currentServiceName = hub.oldServiceName
}

func (hub *Hub) RunTest(scriptFilepath, testFilepath string) {

	testType, _, ioList, readError := readSnapFile(testFilepath)
	if readError != nil {
		hub.WriteError(strings.TrimSpace(readError.Error()) + ".")
		return
	}
	if testType == RECORD {
		return
	}
	if !hub.Start("#test", scriptFilepath) {
		hub.WriteError("can't initialize script " + text.Emph(scriptFilepath) + ".")
		return
	}
	hub.WritePretty("Running test '" + testFilepath + "'.\n")
	testService := hub.services["#test"]
	executionMatchesTest := true
	for _, v := range ioList {
		result, _ := serviceDo(testService, v.input)
		executionMatchesTest = executionMatchesTest && (result == v.output)
	}
	if executionMatchesTest && testType == BAD {
		hub.WriteError("bad behavior reproduced by test.\n")
		hub.playTest(testFilepath, true)
		return
	}
	if !executionMatchesTest && testType == GOOD {
		hub.WriteError("good behavior not reproduced by test.\n")
		hub.playTest(testFilepath, true)
		return
	}
	hub.WriteString(text.TEST_PASSED)
}

func (hub *Hub) playTest(testFilepath string, diffOn bool) {
	_, scriptFilepath, ioList, readError := readSnapFile(testFilepath)
	if readError != nil {
		hub.WriteError(strings.TrimSpace(readError.Error()) + ".")
		return
	}
	if !hub.Start("#test", scriptFilepath) {
		hub.WriteError("can't initialize script " + text.Emph(scriptFilepath) + ".")
		return
	}
	testService := hub.services["#test"]
	for _, v := range ioList {
		result, _ := serviceDo(testService, v.input)
		hub.WriteString("#test → " + v.input + "\n")
		if result == v.output || !diffOn {
			hub.WritePretty(result + "\n")
		} else {
			hub.WritePretty(text.WAS + v.output + "\n" + text.GOT + result + "\n")
		}
	}
}

// Runs one line against a service and composes the one string that stands for
// the outcome: the display forms of the units parsed, or, the second value
// being true, the plain form of the error report.
func serviceDo(serviceToUse *service.Service, line string) (string, bool) {
	results := serviceToUse.Do(line)
	if serviceToUse.Prsr.ErrorsExist() {
		return strings.TrimSpace(err.GetList(serviceToUse.Prsr.Errors)), true
	}
	return strings.Join(results, "\n"), false
}

func (h *Hub) StartHttp(path, port string) {
	h.path = path
	h.port = port
	h.listeningToHttp = true
	if h.administered {
		http.HandleFunc(path, h.handleJsonRequest)
	} else {
		http.HandleFunc(path, h.handleSimpleRequest)
	}
	serveError := http.ListenAndServe(":"+port, nil)
	if errors.Is(serveError, http.ErrServerClosed) {
		h.WriteError("server closed.")
	} else if serveError != nil {
		h.WriteError("error starting server: " + serveError.Error())
	}
}

// This will simply feed text to the REPL of the hub, and will happen if you
// tell the hub to serve but don't ask for administration.
func (h *Hub) handleSimpleRequest(w http.ResponseWriter, r *http.Request) {
	body, readError := io.ReadAll(r.Body)
	if readError != nil {
		http.Error(w, readError.Error(), http.StatusBadRequest)
		return
	}
	oldOut := h.out
	h.out = w
	h.Do(string(body))
	h.out = oldOut
	io.WriteString(w, "\n")
}

// By contrast, once the hub is administered it expects an HTTP request to
// consist of JSON containing the line to be parsed and the username and
// password of the user.
type jsonRequest = struct {
	Body     string
	Username string
	Password string
}

type jsonResponse = struct {
	Results []string
	Trees   []*ast.NodeDump
	Errors  err.Errors
}

func (h *Hub) handleJsonRequest(w http.ResponseWriter, r *http.Request) {

	var request jsonRequest

	decodeError := json.NewDecoder(r.Body).Decode(&request)
	if decodeError != nil {
		http.Error(w, decodeError.Error(), http.StatusBadRequest)
		return
	}

	if h.administered {
		_, loginError := store.ValidateUser(h.Db, request.Username, request.Password)
		if loginError != nil {
			http.Error(w, loginError.Error(), http.StatusUnauthorized)
			return
		}
	}

	// Every request gets a service of its own, so that they can't tread on
	// each other's toes.
	sv := service.NewService()
	results := sv.Do(request.Body)

	response := jsonResponse{Results: results, Errors: sv.Prsr.Errors}
	for _, u := range sv.Units {
		response.Trees = append(response.Trees, ast.Dump(u.Node))
	}

	json.NewEncoder(w).Encode(response)
}

// For when the hub wants to initiate structured input rather than sitting
// waiting to be told. If CurrentForm is not nil then it contains a request for
// information which the REPL must have the user fill in before returning to
// ordinary input. A '*' on the front of a field name makes the REPL mask the
// input as a password.
type Form struct {
	Fields []string
	Result map[string]string
	Call   func(f *Form)
}

func (h *Hub) addUserAsGuest() {
	h.CurrentForm = &Form{Fields: []string{"Username", "First name", "Last name", "Email", "*Password", "*Confirm password"},
		Call:   func(f *Form) { h.handleConfigUserForm(f) },
		Result: make(map[string]string)}
}

func (h *Hub) handleConfigUserForm(f *Form) {
	h.CurrentForm = nil
	if !h.isAdministered() {
		h.WriteError("this hub doesn't have administered access: there is nothing to join.")
		return
	}
	if f.Result["*Password"] != f.Result["*Confirm password"] {
		h.WriteError("passwords don't match.")
		return
	}

	registrationError := store.AddUser(h.Db, f.Result["Username"], f.Result["First name"],
		f.Result["Last name"], f.Result["Email"], f.Result["*Password"], false)
	if registrationError != nil {
		h.WriteError(registrationError.Error())
		return
	}
	h.Username = f.Result["Username"]
	h.Password = f.Result["*Password"]
	h.WritePretty("You are logged in as '" + h.Username + "'.\n")
}

func (h *Hub) configAdmin() {
	h.CurrentForm = &Form{Fields: []string{"Username", "First name", "Last name", "Email", "*Password", "*Confirm password"},
		Call:   func(f *Form) { h.handleConfigAdminForm(f) },
		Result: make(map[string]string)}
}

func (h *Hub) handleConfigAdminForm(f *Form) {
	h.CurrentForm = nil
	if h.Db == nil {
		h.WriteError("database has not been configured: do 'hub config db' first.")
		return
	}
	if f.Result["*Password"] != f.Result["*Confirm password"] {
		h.WriteError("passwords don't match.")
		return
	}
	adminError := store.AddAdmin(h.Db, f.Result["Username"], f.Result["First name"],
		f.Result["Last name"], f.Result["Email"], f.Result["*Password"], h.directory)
	if adminError != nil {
		h.WriteError(adminError.Error())
		return
	}
	h.WriteString(text.OK + "\n")
	h.Username = f.Result["Username"]
	h.Password = f.Result["*Password"]
	h.WritePretty("You are logged in as '" + h.Username + "'.\n")

	h.administered = true

	// If the hub is already an HTTP server we should restart it to tell it to expect JSON.
	if h.listeningToHttp {
		h.StartHttp(h.path, h.port)
	}
}

func (h *Hub) getLogin() {
	h.CurrentForm = &Form{Fields: []string{"Username", "*Password"},
		Call:   func(f *Form) { h.handleLoginForm(f) },
		Result: make(map[string]string)}
}

func (h *Hub) handleLoginForm(f *Form) {
	h.CurrentForm = nil
	_, loginError := store.ValidateUser(h.Db, f.Result["Username"], f.Result["*Password"])
	if loginError != nil {
		h.WriteError(loginError.Error())
		h.WriteString("Please try again.\n\n")
		return
	}
	h.Username = f.Result["Username"]
	h.Password = f.Result["*Password"]
	h.WriteString(text.OK + "\n")
}

func (h *Hub) configDb() {
	h.CurrentForm = &Form{Fields: []string{store.GetDriverOptions(), "Host", "Port", "Database name",
		"Username for database access", "*Password for database access"},
		Call:   func(f *Form) { h.handleConfigDbForm(f) },
		Result: make(map[string]string)}
}

func (h *Hub) handleConfigDbForm(f *Form) {
	h.CurrentForm = nil
	number, atoiError := strconv.Atoi(f.Result[store.GetDriverOptions()])
	if atoiError != nil {
		h.WriteError("hub/db/config/a: " + atoiError.Error())
		return
	}
	if number < 0 || number >= len(store.GetSortedDrivers()) {
		h.WriteError("there is no driver with that number.")
		return
	}
	driver := store.GetSortedDrivers()[number]

	var connectionError error
	h.Db, connectionError = store.GetdB(driver, f.Result["Host"], f.Result["Port"], f.Result["Database name"],
		f.Result["Username for database access"], f.Result["*Password for database access"])
	if connectionError != nil {
		h.WriteError("hub/db/config/b: " + connectionError.Error())
		return
	}
	if tableError := store.CreateTables(h.Db); tableError != nil {
		h.WriteError("hub/db/config/c: " + tableError.Error())
		return
	}

	h.saveDbConfig(driver, f.Result["Host"], f.Result["Port"], f.Result["Database name"],
		f.Result["Username for database access"], f.Result["*Password for database access"])

	h.WriteString(text.OK + "\n")
}

//
// Kaleido version 0.2.0
//
// Acknowledgments
//
// Kaleidoscope began as the worked example in the LLVM tutorial
// (https://llvm.org/docs/tutorial/), and anyone who has read Thorsten Ball's
// Writing An Interpreter In Go will recognize the shape of the token and
// lexer packages. This project owes a debt to both.
//

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kaleido-lang/kaleido/source/ast"
	"github.com/kaleido-lang/kaleido/source/err"
	"github.com/kaleido-lang/kaleido/source/hub"
	"github.com/kaleido-lang/kaleido/source/lexer"
	"github.com/kaleido-lang/kaleido/source/repl"
	"github.com/kaleido-lang/kaleido/source/service"
	"github.com/kaleido-lang/kaleido/source/text"
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if executeError := rootCmd.Execute(); executeError != nil {
		return 1
	}
	return 0
}

// Flags for the parse command.
var (
	dumpYaml bool
	dumpJson bool
)

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kaleido",
		Short: "kaleido reads the Kaleidoscope language",
		Long: `kaleido reads the Kaleidoscope language: it lexes and parses scripts and
reports what it finds, either interactively through the driver or as a
batch through the parse and lex commands. For the commands of the driver
itself, start it and do 'hub help'.`,
		Version:       text.VERSION,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRepl(out)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.AddCommand(newReplCmd(out), newParseCmd(out, errOut), newLexCmd(out, errOut), newVersionCmd(out))
	return rootCmd
}

func newReplCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Starts the driver, which is also what happens with no command at all",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRepl(out)
		},
	}
}

func doRepl(out io.Writer) error {
	fmt.Fprint(out, text.Logo())
	h := hub.New(os.Stdin, out)
	h.Open()
	repl.Start(h)
	return nil
}

func newParseCmd(out, errOut io.Writer) *cobra.Command {
	parseCmd := &cobra.Command{
		Use:   "parse <files>",
		Short: "Parses the given files and dumps the trees, as text or with --yaml or --json",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, scriptFilepath := range args {
				if parseError := doParse(scriptFilepath, out, errOut); parseError != nil {
					return parseError
				}
			}
			return nil
		},
	}
	parseCmd.Flags().BoolVar(&dumpYaml, "yaml", false, "dump the trees as YAML")
	parseCmd.Flags().BoolVar(&dumpJson, "json", false, "dump the trees as JSON")
	return parseCmd
}

func doParse(scriptFilepath string, out, errOut io.Writer) error {
	sv := service.NewService()
	if fileError := sv.InitializeFromFilepath(scriptFilepath); fileError != nil {
		fmt.Fprintf(errOut, "kaleido: %v\n", fileError)
		return fileError
	}
	if sv.IsBroken() {
		fmt.Fprint(errOut, sv.GetErrorReport())
		return fmt.Errorf("parsing failed with %d errors", len(sv.Prsr.Errors))
	}
	for _, u := range sv.Units {
		switch {
		case dumpYaml:
			tree, _ := yaml.Marshal(ast.Dump(u.Node))
			fmt.Fprint(out, string(tree))
		case dumpJson:
			tree, _ := json.MarshalIndent(ast.Dump(u.Node), "", "  ")
			fmt.Fprintln(out, string(tree))
		default:
			fmt.Fprintln(out, u.Kind.String()+": "+u.Display())
		}
	}
	return nil
}

func newLexCmd(out, errOut io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "lex <file>",
		Short: "Dumps the token stream of the given file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourcecode, fileError := os.ReadFile(args[0])
			if fileError != nil {
				fmt.Fprintf(errOut, "kaleido: %v\n", fileError)
				return fileError
			}
			lx := lexer.NewLexer(args[0], string(sourcecode))
			fmt.Fprint(out, lexer.String(lx))
			if len(lx.Ers) > 0 {
				fmt.Fprint(errOut, err.GetList(lx.Ers))
				return fmt.Errorf("lexing failed with %d errors", len(lx.Ers))
			}
			return nil
		},
	}
}

func newVersionCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Reports which version of Kaleido this is",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(out, "Kaleido version "+text.VERSION)
			return nil
		},
	}
}

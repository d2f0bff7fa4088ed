package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sunholo/onyxcheck/internal/ast"
	"github.com/sunholo/onyxcheck/internal/check"
	"github.com/sunholo/onyxcheck/internal/diag"
	"github.com/sunholo/onyxcheck/internal/lexer"
	"github.com/sunholo/onyxcheck/internal/parser"
	"github.com/sunholo/onyxcheck/internal/resolve"
	"github.com/sunholo/onyxcheck/internal/sched"
	"github.com/sunholo/onyxcheck/internal/types"
)

var (
	jsonOutput       bool
	printStaticIf    bool
	noFileContents   bool
	debugLog         bool

	errColor  = color.New(color.FgRed, color.Bold).SprintFunc()
	warnColor = color.New(color.FgYellow, color.Bold).SprintFunc()
	posColor  = color.New(color.FgCyan).SprintFunc()
)

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Check a source file and report diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&jsonOutput, "json", false, "emit diagnostics as a JSON array")
	checkCmd.Flags().BoolVar(&printStaticIf, "print-static-if", false, "log each #static_if's resolved branch")
	checkCmd.Flags().BoolVar(&noFileContents, "no-file-contents", false, "set the checker's no_file_contents option (the checker does not read it)")
	checkCmd.Flags().BoolVar(&debugLog, "debug", false, "enable verbose checker trace logging")
}

func runCheck(cmd *cobra.Command, args []string) error {
	filename := args[0]
	src, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filename, err)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	if debugLog {
		logger.SetLevel(logrus.DebugLevel)
	}

	l := lexer.New(string(lexer.Normalize(src)), filename)
	p := parser.New(l, filename)
	decls := p.ParseFile()
	for _, perr := range p.Errors() {
		fmt.Fprintln(os.Stderr, perr)
	}

	engine := types.NewStdEngine()
	for _, d := range decls {
		if st, ok := d.(*ast.StructType); ok {
			engine.DeclareNamed(st.Name, &types.Struct{Name: st.Name, Status: types.StructPending})
		}
	}

	sink := diag.NewSink(logger)
	opts := check.Options{PrintStaticIfResults: printStaticIf, NoFileContents: noFileContents}

	q := sched.New()
	rootScope := resolve.NewScope(nil)
	for _, d := range decls {
		q.AddRoot(d, rootScope)
	}

	ok := sched.Drive(engine, sink, opts, q)

	printReports(sink.Reports())

	if !ok {
		os.Exit(1)
	}
	return nil
}

func printReports(reports []*diag.Report) {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(reports)
		return
	}
	for _, r := range reports {
		label := errColor("error")
		if r.Severity == diag.SeverityWarning {
			label = warnColor("warning")
		}
		fmt.Printf("%s: %s [%s]: %s\n", posColor(r.Pos.String()), label, r.Code, r.Message)
	}
}

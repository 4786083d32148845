// Command lox is the Lox interpreter entry point: script runner, REPL and
// source tooling.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/thomasrohde/lox/pkg/config"
	"github.com/thomasrohde/lox/pkg/diagnostics"
	"github.com/thomasrohde/lox/pkg/evaluator"
	"github.com/thomasrohde/lox/pkg/formatter"
	"github.com/thomasrohde/lox/pkg/help"
	"github.com/thomasrohde/lox/pkg/loader"
	"github.com/thomasrohde/lox/pkg/runtime"
)

const usage = `usage: lox [command] [options]
commands: run, repl, check, fmt, trace, eval, help
run "lox help cli" for options`

func main() {
	a := &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	os.Exit(a.main(os.Args[1:]))
}

// app carries the process streams so commands can be driven from tests.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	log    *slog.Logger
}

func (a *app) main(args []string) int {
	if len(args) == 0 {
		return a.cmdRepl(nil)
	}

	cmd := args[0]
	switch cmd {
	case "run":
		return a.cmdRun(args[1:])
	case "repl":
		return a.cmdRepl(args[1:])
	case "check":
		return a.cmdCheck(args[1:])
	case "fmt":
		return a.cmdFmt(args[1:])
	case "trace":
		return a.cmdTrace(args[1:])
	case "eval":
		return a.cmdEval(args[1:])
	case "help", "--help", "-h":
		return a.cmdHelp(args[1:])
	default:
		fmt.Fprintf(a.stderr, "Unknown command: %s\n%s\n", cmd, usage)
		return runtime.ExitUsage
	}
}

// options are the flags shared by every command. Unset numeric limits are -1.
type options struct {
	json          bool
	pretty        bool
	timeoutMs     int64
	maxIterations int64
	importPaths   []string
	verbose       bool
	write         bool
	summary       bool
	args          []string
}

func parseOptions(args []string) (*options, error) {
	o := &options{timeoutMs: -1, maxIterations: -1}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--json":
			o.json = true
		case "--pretty":
			o.pretty = true
		case "--verbose", "-v":
			o.verbose = true
		case "-w", "--write":
			o.write = true
		case "--summary":
			o.summary = true
		case "--timeout-ms", "--max-iterations", "-I":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%s requires a value", arg)
			}
			i++
			if arg == "-I" {
				o.importPaths = append(o.importPaths, args[i])
				continue
			}
			n, err := strconv.ParseInt(args[i], 10, 64)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%s expects a non-negative integer, got %q", arg, args[i])
			}
			if arg == "--timeout-ms" {
				o.timeoutMs = n
			} else {
				o.maxIterations = n
			}
		case "-":
			o.args = append(o.args, arg)
		default:
			if strings.HasPrefix(arg, "-I") && len(arg) > 2 {
				o.importPaths = append(o.importPaths, arg[2:])
				continue
			}
			if strings.HasPrefix(arg, "-") {
				return nil, fmt.Errorf("unknown option %s", arg)
			}
			o.args = append(o.args, arg)
		}
	}
	return o, nil
}

// setup parses flags, loads configuration and applies flag overrides.
func (a *app) setup(args []string) (*options, *config.Config, int) {
	o, err := parseOptions(args)
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %s\n%s\n", err, usage)
		return nil, nil, runtime.ExitUsage
	}

	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %s\n", err)
		return nil, nil, runtime.ExitUsage
	}
	if cfg.Source != "" {
		a.log.Debug("loaded config", "file", cfg.Source)
	} else {
		a.log.Debug("no config file found, using defaults")
	}

	switch {
	case o.json:
		cfg.Diagnostics = config.DiagnosticsJSON
	case o.pretty:
		cfg.Diagnostics = config.DiagnosticsPretty
	}
	if o.timeoutMs >= 0 {
		cfg.Budget.TimeMs = o.timeoutMs
	}
	if o.maxIterations >= 0 {
		cfg.Budget.MaxIterations = o.maxIterations
	}
	cfg.ImportPaths = append(o.importPaths, cfg.ImportPaths...)
	a.log.Debug("settings", "importPaths", cfg.ImportPaths, "diagnostics", cfg.Diagnostics,
		"timeoutMs", cfg.Budget.TimeMs, "maxIterations", cfg.Budget.MaxIterations)
	return o, cfg, runtime.ExitOK
}

func (a *app) newRuntime(cfg *config.Config, extra ...runtime.Option) *runtime.Runtime {
	opts := []runtime.Option{
		runtime.WithStdout(a.stdout),
		runtime.WithLoader(loader.NewFileLoader(cfg.ImportPaths...)),
		runtime.WithBudget(cfg.Budget.EvalBudget()),
	}
	return runtime.New(append(opts, extra...)...)
}

func (a *app) report(diags []diagnostics.Diagnostic, cfg *config.Config) {
	fmt.Fprintln(a.stderr, diagnostics.FormatDiagnostics(diags, cfg.Diagnostics != config.DiagnosticsJSON))
}

// reportErr prints err and maps it to an exit code.
func (a *app) reportErr(err error, cfg *config.Config) int {
	a.report(runtime.Diagnostics(err), cfg)
	return runtime.ExitCode(err)
}

func (a *app) fileArg(o *options, cmd string) (string, bool) {
	if len(o.args) != 1 {
		fmt.Fprintf(a.stderr, "usage: lox %s <file> [options]\n", cmd)
		return "", false
	}
	return o.args[0], true
}

func (a *app) cmdRun(args []string) int {
	o, cfg, code := a.setup(args)
	if o == nil {
		return code
	}
	file, ok := a.fileArg(o, "run")
	if !ok {
		return runtime.ExitUsage
	}
	source, filename, code := a.readSource(file, cfg)
	if code != runtime.ExitOK {
		return code
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if _, err := a.newRuntime(cfg).Run(ctx, source, filename); err != nil {
		return a.reportErr(err, cfg)
	}
	return runtime.ExitOK
}

func (a *app) cmdCheck(args []string) int {
	o, cfg, code := a.setup(args)
	if o == nil {
		return code
	}
	file, ok := a.fileArg(o, "check")
	if !ok {
		return runtime.ExitUsage
	}
	source, filename, code := a.readSource(file, cfg)
	if code != runtime.ExitOK {
		return code
	}

	diags := a.newRuntime(cfg).Check(source, filename)
	if len(diags) > 0 {
		a.report(diags, cfg)
		return runtime.ExitDataErr
	}

	if cfg.Diagnostics == config.DiagnosticsJSON {
		fmt.Fprintln(a.stdout, "[]")
	} else {
		fmt.Fprintln(a.stdout, "No errors found.")
	}
	return runtime.ExitOK
}

func (a *app) cmdFmt(args []string) int {
	o, cfg, code := a.setup(args)
	if o == nil {
		return code
	}
	file, ok := a.fileArg(o, "fmt")
	if !ok {
		return runtime.ExitUsage
	}
	if o.write && file == "-" {
		fmt.Fprintln(a.stderr, "error: -w needs a file, not stdin")
		return runtime.ExitUsage
	}
	source, filename, code := a.readSource(file, cfg)
	if code != runtime.ExitOK {
		return code
	}

	formatted, err := a.newRuntime(cfg).Format(source, filename)
	if err != nil {
		return a.reportErr(err, cfg)
	}

	if formatter.HasComments(source) {
		if o.write {
			fmt.Fprintf(a.stderr, "error: %s has comments, which the formatter would drop; not rewriting\n", file)
			return runtime.ExitDataErr
		}
		fmt.Fprintln(a.stderr, "warning: comments are not preserved by the formatter")
	}

	if !o.write {
		fmt.Fprint(a.stdout, formatted)
		return runtime.ExitOK
	}
	if formatted == source {
		return runtime.ExitOK
	}
	if err := os.WriteFile(file, []byte(formatted), 0o644); err != nil {
		fmt.Fprintf(a.stderr, "error writing file: %s\n", err)
		return runtime.ExitIOErr
	}
	a.log.Debug("formatted", "file", file)
	return runtime.ExitOK
}

// cmdEval evaluates source given on the command line like one REPL input and
// prints its value.
func (a *app) cmdEval(args []string) int {
	o, cfg, code := a.setup(args)
	if o == nil {
		return code
	}
	if len(o.args) == 0 {
		fmt.Fprintln(a.stderr, "usage: lox eval [--json] <source>")
		return runtime.ExitUsage
	}
	source := strings.Join(o.args, " ")
	if source == "-" {
		source, _, code = a.readSource("-", cfg)
		if code != runtime.ExitOK {
			return code
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := a.newRuntime(cfg).NewSession().Eval(ctx, source)
	if err != nil {
		return a.reportErr(err, cfg)
	}
	if res == nil || !res.HasValue {
		return runtime.ExitOK
	}
	if o.json {
		fmt.Fprintln(a.stdout, evaluator.ValueToJSONString(res.Value))
	} else {
		fmt.Fprintln(a.stdout, evaluator.Stringify(res.Value))
	}
	return runtime.ExitOK
}

func (a *app) cmdHelp(args []string) int {
	showIndex := false
	topic := ""
	for _, arg := range args {
		if arg == "--index" {
			showIndex = true
		} else if !strings.HasPrefix(arg, "-") {
			topic = arg
		}
	}

	if showIndex {
		if topic != "" && topic != "stdlib" {
			fmt.Fprintln(a.stderr, "error: --index is only supported for the stdlib topic")
			return runtime.ExitUsage
		}
		fmt.Fprint(a.stdout, help.StdlibIndex())
		return runtime.ExitOK
	}

	if topic == "" {
		fmt.Fprint(a.stdout, help.QUICKREF)
		return runtime.ExitOK
	}

	_, content, err := help.MatchTopic(topic)
	if err != nil {
		fmt.Fprintf(a.stderr, "%s\nAvailable topics: %s\n", err, strings.Join(help.TopicList, ", "))
		return runtime.ExitUsage
	}
	fmt.Fprint(a.stdout, content)
	return runtime.ExitOK
}

// readSource reads a program file, or stdin for "-".
func (a *app) readSource(file string, cfg *config.Config) (string, string, int) {
	if file == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			a.report([]diagnostics.Diagnostic{
				diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read stdin: %s", err), nil, ""),
			}, cfg)
			return "", "", runtime.ExitIOErr
		}
		return string(data), "<stdin>", runtime.ExitOK
	}

	source, err := os.ReadFile(file)
	if err != nil {
		a.report([]diagnostics.Diagnostic{
			diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, ""),
		}, cfg)
		return "", "", runtime.ExitIOErr
	}
	return string(source), file, runtime.ExitOK
}

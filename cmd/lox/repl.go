package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"github.com/thomasrohde/lox/pkg/config"
	"github.com/thomasrohde/lox/pkg/evaluator"
	"github.com/thomasrohde/lox/pkg/help"
	"github.com/thomasrohde/lox/pkg/lexer"
	"github.com/thomasrohde/lox/pkg/parser"
	"github.com/thomasrohde/lox/pkg/runtime"
)

const replHelp = `REPL commands:
  :help [topic]   show help (see "lox help" for topics)
  :env            list global variables
  :quit           leave the REPL (Ctrl-D also works)
A line that leaves a block, call or string open continues on the next line.
`

// prompter reads one line of input; *liner.State satisfies it.
type prompter interface {
	Prompt(prompt string) (string, error)
}

func (a *app) cmdRepl(args []string) int {
	o, cfg, code := a.setup(args)
	if o == nil {
		return code
	}
	if len(o.args) > 0 {
		fmt.Fprintln(a.stderr, "usage: lox repl [options]")
		return runtime.ExitUsage
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if path := cfg.REPL.HistoryFile; path != "" {
		if f, err := os.Open(path); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		} else if !errors.Is(err, os.ErrNotExist) {
			a.log.Debug("cannot read history", "file", path, "err", err)
		}
		defer func() {
			f, err := os.Create(path)
			if err != nil {
				a.log.Debug("cannot write history", "file", path, "err", err)
				return
			}
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}()
	}

	session := a.newRuntime(cfg).NewSession()
	ln.SetWordCompleter(func(line string, pos int) (string, []string, string) {
		return completeWord(line, pos, session.Globals())
	})

	fmt.Fprintf(a.stdout, "Lox %s. Type :help for help, :quit to exit.\n", help.Version)
	return a.replLoop(ln, session, cfg, ln.AppendHistory)
}

// replLoop reads and evaluates inputs until EOF or :quit. Errors abort only
// the failing input.
func (a *app) replLoop(in prompter, session *runtime.Session, cfg *config.Config, remember func(string)) int {
	for {
		src, ok := readInput(in, cfg.REPL.Prompt, cfg.REPL.Continuation)
		if !ok {
			fmt.Fprintln(a.stdout)
			return runtime.ExitOK
		}
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		if remember != nil {
			remember(strings.ReplaceAll(src, "\n", " "))
		}

		if strings.HasPrefix(trimmed, ":") {
			if a.replCommand(trimmed, session) {
				return runtime.ExitOK
			}
			continue
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		res, err := session.Eval(ctx, src)
		stop()
		if err != nil {
			a.report(runtime.Diagnostics(err), cfg)
			continue
		}
		if res != nil && res.HasValue {
			fmt.Fprintln(a.stdout, evaluator.Stringify(res.Value))
		}
	}
}

// replCommand runs a colon command and reports whether the REPL should exit.
func (a *app) replCommand(cmd string, session *runtime.Session) bool {
	fields := strings.Fields(cmd)
	switch strings.ToLower(fields[0]) {
	case ":quit", ":q", ":exit":
		return true
	case ":help":
		if len(fields) == 1 {
			fmt.Fprint(a.stdout, replHelp)
			return false
		}
		_, content, err := help.MatchTopic(fields[1])
		if err != nil {
			fmt.Fprintf(a.stderr, "%s\nAvailable topics: %s\n", err, strings.Join(help.TopicList, ", "))
			return false
		}
		fmt.Fprint(a.stdout, content)
	case ":env":
		globals := session.Globals()
		for _, name := range globals.Names() {
			val, _ := globals.Get(name)
			if _, native := val.(*evaluator.LoxNative); native {
				continue
			}
			fmt.Fprintf(a.stdout, "%s = %s\n", name, evaluator.Stringify(val))
		}
	default:
		fmt.Fprintf(a.stderr, "unknown command %s. Type :help for help.\n", fields[0])
	}
	return false
}

// readInput collects lines until they form a complete input. A chunk is
// complete when it parses, or would parse with a closing ';', or fails
// somewhere other than end of input. Ctrl-C discards the pending chunk.
func readInput(in prompter, prompt, cont string) (string, bool) {
	var b strings.Builder
	for {
		p := prompt
		if b.Len() > 0 {
			p = cont
		}
		line, err := in.Prompt(p)
		if errors.Is(err, liner.ErrPromptAborted) {
			b.Reset()
			continue
		}
		if errors.Is(err, io.EOF) {
			if b.Len() > 0 {
				return b.String(), true
			}
			return "", false
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if parser.Incomplete(src) && parser.Incomplete(src+"\n;") {
			continue
		}
		return src, true
	}
}

// completeWord completes the identifier under the cursor from keywords and
// global names.
func completeWord(line string, pos int, globals *evaluator.Env) (string, []string, string) {
	if pos > len(line) {
		pos = len(line)
	}
	start := pos
	for start > 0 && isIdentByte(line[start-1]) {
		start--
	}
	word := line[start:pos]
	if word == "" {
		return line[:pos], nil, line[pos:]
	}

	seen := make(map[string]bool)
	var matches []string
	candidates := append(lexer.Keywords(), globals.Names()...)
	for _, c := range candidates {
		if strings.HasPrefix(c, word) && !seen[c] {
			seen[c] = true
			matches = append(matches, c)
		}
	}
	sort.Strings(matches)
	return line[:start], matches, line[pos:]
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/thomasrohde/lox/pkg/evaluator"
	"github.com/thomasrohde/lox/pkg/runtime"
)

// cmdTrace runs a program and streams its trace events to stderr as JSON
// Lines. With --summary a short text summary follows the stream.
func (a *app) cmdTrace(args []string) int {
	o, cfg, code := a.setup(args)
	if o == nil {
		return code
	}
	file, ok := a.fileArg(o, "trace")
	if !ok {
		return runtime.ExitUsage
	}
	source, filename, code := a.readSource(file, cfg)
	if code != runtime.ExitOK {
		return code
	}

	var captured bytes.Buffer
	sink := a.stderr
	if o.summary {
		sink = io.MultiWriter(a.stderr, &captured)
	}
	emit := newTraceWriter(sink)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rt := a.newRuntime(cfg, runtime.WithTrace(emit), runtime.WithRunID(traceRunID()))
	_, err := rt.Run(ctx, source, filename)
	exit := runtime.ExitOK
	if err != nil {
		exit = a.reportErr(err, cfg)
	}
	if o.summary {
		printTraceSummaryText(a.stderr, computeTraceSummary(&captured))
	}
	return exit
}

func traceRunID() string {
	return fmt.Sprintf("run-%d", time.Now().UnixNano())
}

// newTraceWriter returns a trace callback writing one JSON object per line.
func newTraceWriter(w io.Writer) func(evaluator.TraceEvent) {
	var mu sync.Mutex
	enc := json.NewEncoder(w)
	return func(ev evaluator.TraceEvent) {
		mu.Lock()
		defer mu.Unlock()
		_ = enc.Encode(ev)
	}
}

// TraceSummary aggregates a JSON Lines trace stream.
type TraceSummary struct {
	RunID       string         `json:"runId"`
	TotalEvents int            `json:"totalEvents"`
	Statements  int            `json:"statements"`
	Calls       int            `json:"calls"`
	CallsByName map[string]int `json:"callsByName"`
	Loops       int            `json:"loops"`
	Imports     int            `json:"imports"`
	Errors      int            `json:"errors"`
	ErrorCode   string         `json:"errorCode,omitempty"`
	StartTime   string         `json:"startTime,omitempty"`
	EndTime     string         `json:"endTime,omitempty"`
	DurationMs  float64        `json:"durationMs"`
}

func computeTraceSummary(r io.Reader) *TraceSummary {
	summary := &TraceSummary{
		CallsByName: make(map[string]int),
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var event evaluator.TraceEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue // not a trace line
		}

		summary.TotalEvents++
		if summary.RunID == "" {
			summary.RunID = event.RunID
		}

		switch event.Event {
		case evaluator.TraceRunStart:
			if summary.StartTime == "" {
				summary.StartTime = event.Timestamp
			}
		case evaluator.TraceRunEnd:
			summary.EndTime = event.Timestamp
		case evaluator.TraceStmtStart:
			summary.Statements++
		case evaluator.TraceCallStart:
			summary.Calls++
			if name := event.Data["name"]; name != "" {
				summary.CallsByName[name]++
			}
		case evaluator.TraceLoopStart:
			summary.Loops++
		case evaluator.TraceImportStart:
			summary.Imports++
		case evaluator.TraceError:
			summary.Errors++
			if summary.ErrorCode == "" {
				summary.ErrorCode = event.Data["code"]
			}
		}
	}

	if summary.StartTime != "" && summary.EndTime != "" {
		start, err1 := time.Parse(time.RFC3339Nano, summary.StartTime)
		end, err2 := time.Parse(time.RFC3339Nano, summary.EndTime)
		if err1 == nil && err2 == nil {
			summary.DurationMs = float64(end.Sub(start).Microseconds()) / 1000
		}
	}

	return summary
}

func printTraceSummaryText(w io.Writer, s *TraceSummary) {
	fmt.Fprintf(w, "Run: %s\n", s.RunID)
	fmt.Fprintf(w, "Events: %d\n", s.TotalEvents)
	fmt.Fprintf(w, "Statements: %d\n", s.Statements)
	fmt.Fprintf(w, "Calls: %d\n", s.Calls)
	names := make([]string, 0, len(s.CallsByName))
	for name := range s.CallsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %d\n", name, s.CallsByName[name])
	}
	fmt.Fprintf(w, "Loops: %d\n", s.Loops)
	fmt.Fprintf(w, "Imports: %d\n", s.Imports)
	if s.Errors > 0 {
		fmt.Fprintf(w, "Errors: %d (%s)\n", s.Errors, s.ErrorCode)
	}
	if s.DurationMs > 0 {
		fmt.Fprintf(w, "Duration: %.3fms\n", s.DurationMs)
	}
}

// Package repl implements the interactive, liner-driven loop described in
// spec.md §6.3/§6A: commands that drive a loaded program's interpreter one
// step (or one memory touch, or one frame pop) at a time, plus a snapshot
// command to inspect state mid-run. Grounded on the teacher's
// internal/repl/repl.go loop and command-dispatch shape.
package repl

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"golang.org/x/text/message"

	"github.com/stircomp/stirc/internal/fixtures"
	"github.com/stircomp/stirc/internal/interp"
	"github.com/stircomp/stirc/internal/pipeline"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

// Config holds REPL-wide settings.
type Config struct {
	HistoryFile string
}

// REPL drives one loaded program's interpreter through an interactive
// command loop. Per spec.md §5, a single REPL owns at most one *interp.Interp
// at a time — no two machines ever share a heap.
type REPL struct {
	config  Config
	printer *message.Printer

	fixture string
	result  *pipeline.Result
	machine *interp.Interp

	history []string
}

// New creates a REPL with no program loaded yet.
func New(cfg Config) *REPL {
	if cfg.HistoryFile == "" {
		cfg.HistoryFile = defaultHistoryFile
	}
	return &REPL{config: cfg, printer: message.NewPrinter(message.MatchLanguage("en"))}
}

var defaultHistoryFile = ""

func init() {
	defaultHistoryFile = os.TempDir() + "/.stirc_history"
}

// Start begins the REPL session, writing prompts and output to out. Input
// is read via liner, which owns stdin directly.
func (r *REPL) Start(out io.Writer) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetMultiLineMode(false)

	if f, err := os.Open(r.config.HistoryFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	fmt.Fprintf(out, "%s %s\n", bold("stirc"), dim("interactive interpreter"))
	fmt.Fprintln(out, dim("Type :help for commands, :quit to exit"))
	fmt.Fprintln(out)

	line.SetCompleter(func(partial string) (c []string) {
		if !strings.HasPrefix(partial, ":") {
			return nil
		}
		for _, cmd := range commandNames {
			if strings.HasPrefix(cmd, partial) {
				c = append(c, cmd)
			}
		}
		return c
	})

	for {
		input, err := line.Prompt(r.prompt())
		if err == io.EOF {
			fmt.Fprintln(out, green("\nGoodbye!"))
			break
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("error"), err)
			continue
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		r.history = append(r.history, input)

		if input == ":quit" || input == ":q" || input == ":exit" {
			fmt.Fprintln(out, green("Goodbye!"))
			break
		}
		r.Handle(input, out)
	}

	if f, err := os.Create(r.config.HistoryFile); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}

func (r *REPL) prompt() string {
	if r.fixture == "" {
		return "stir> "
	}
	return fmt.Sprintf("stir[%s]> ", r.fixture)
}

var commandNames = []string{
	":help", ":quit", ":load", ":list", ":step", ":run", ":mem", ":ret",
	":snapshot", ":dump-prog", ":history", ":reset",
}

// Handle dispatches a single ":"-command. Exported so a host embedding the
// REPL (cmd/stirc, or a test) can drive it without the liner loop.
func (r *REPL) Handle(cmd string, out io.Writer) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}
	switch parts[0] {
	case ":help", ":h":
		r.printHelp(out)
	case ":list":
		r.listFixtures(out)
	case ":load":
		if len(parts) < 2 {
			fmt.Fprintln(out, "usage: :load <fixture>")
			return
		}
		r.load(parts[1], out)
	case ":step":
		r.requireMachine(out, func(m *interp.Interp) {
			if !m.Step() {
				fmt.Fprintln(out, yellow("halted"))
				return
			}
			fmt.Fprintf(out, "step %d\n", m.Steps)
		})
	case ":run":
		r.requireMachine(out, func(m *interp.Interp) {
			m.RunUntilDone()
			r.printSummary(out, m)
		})
	case ":mem":
		r.requireMachine(out, func(m *interp.Interp) {
			before := m.Steps
			m.RunUntilNextMem()
			fmt.Fprintf(out, "ran %d step(s) to the next memory-touching statement\n", m.Steps-before)
		})
	case ":ret":
		r.requireMachine(out, func(m *interp.Interp) {
			before := m.Steps
			m.RunUntilReturn()
			fmt.Fprintf(out, "ran %d step(s), one frame popped\n", m.Steps-before)
		})
	case ":snapshot":
		r.requireMachine(out, func(m *interp.Interp) { r.printSnapshot(out, m.Snapshot()) })
	case ":dump-prog":
		if r.result == nil {
			fmt.Fprintln(out, red("no program loaded — try :load <fixture>"))
			return
		}
		for _, def := range r.result.Prog.Defs {
			fmt.Fprintf(out, "%s:\n", def.ID)
			for _, stmt := range def.Body {
				fmt.Fprintf(out, "  %v\n", stmt)
			}
		}
	case ":history":
		for i, h := range r.history {
			fmt.Fprintf(out, "%4d  %s\n", i+1, h)
		}
	case ":reset":
		r.machine = nil
		r.result = nil
		r.fixture = ""
		fmt.Fprintln(out, green("program unloaded"))
	default:
		fmt.Fprintf(out, "%s: unknown command %q (try :help)\n", red("error"), parts[0])
	}
}

func (r *REPL) requireMachine(out io.Writer, fn func(*interp.Interp)) {
	if r.machine == nil {
		fmt.Fprintln(out, red("no program loaded — try :load <fixture>"))
		return
	}
	fn(r.machine)
}

func (r *REPL) load(name string, out io.Writer) {
	prog, ok := fixtures.Get(name)
	if !ok {
		fmt.Fprintf(out, "%s: no such fixture %q (see :list)\n", red("error"), name)
		return
	}
	result, err := pipeline.Compile(prog)
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", red("compile error"), err)
		return
	}
	if result.Prog.ByID("main") == nil {
		fmt.Fprintln(out, red("fixture has no main function"))
		return
	}
	m := interp.New(result.Prog, out)
	m.Start("main")

	r.result = result
	r.machine = m
	r.fixture = name
	fmt.Fprintf(out, "loaded %s (%d function(s))\n", cyan(name), len(result.Prog.Defs))
}

func (r *REPL) listFixtures(out io.Writer) {
	names := append([]string(nil), fixtures.Names()...)
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintln(out, " ", n)
	}
}

func (r *REPL) printSummary(out io.Writer, m *interp.Interp) {
	if m.ReturnValue == nil {
		fmt.Fprintln(out, yellow("halted without a return value"))
		return
	}
	r.printer.Fprintf(out, "return value: %v\n", cellString(*m.ReturnValue))
	r.printer.Fprintf(out, "steps: %d\n", m.Steps)
	r.printer.Fprintf(out, "final heap size: %d\n", len(m.Heap))
}

func (r *REPL) printSnapshot(out io.Writer, snap interp.Snapshot) {
	names := make([]string, 0, len(snap.Locals))
	for n := range snap.Locals {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Fprintln(out, bold("variables:"))
	for _, n := range names {
		fmt.Fprintf(out, "  %s = %s\n", n, cellString(snap.Locals[n]))
	}
	fmt.Fprintf(out, "%s %d cell(s)\n", bold("heap:"), len(snap.Heap))
	fmt.Fprintf(out, "%s %s\n", bold("call stack:"), strings.Join(snap.CallStack, " -> "))
}

func cellString(c interp.Cell) string {
	if c.Kind == interp.KindPointer {
		return fmt.Sprintf("ptr(%d)", c.Ptr)
	}
	return fmt.Sprintf("%d", c.Val)
}

func (r *REPL) printHelp(out io.Writer) {
	fmt.Fprintln(out, bold("commands:"))
	fmt.Fprintln(out, "  :list              list built-in fixtures")
	fmt.Fprintln(out, "  :load <fixture>    compile and load a fixture's main")
	fmt.Fprintln(out, "  :step              execute one statement")
	fmt.Fprintln(out, "  :run               run to completion")
	fmt.Fprintln(out, "  :mem               run to the next memory-touching statement")
	fmt.Fprintln(out, "  :ret               run until one frame pops")
	fmt.Fprintln(out, "  :snapshot          print variables, heap size, call stack")
	fmt.Fprintln(out, "  :dump-prog         print the loaded program's low-level statements")
	fmt.Fprintln(out, "  :history           list commands entered this session")
	fmt.Fprintln(out, "  :reset             unload the current program")
	fmt.Fprintln(out, "  :quit              exit")
}

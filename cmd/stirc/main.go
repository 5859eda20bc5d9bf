// Command stirc is the ambient CLI harness around the C2-C8 pipeline
// (spec.md §6A): it compiles and runs the built-in fixture programs, since
// parsing a surface syntax is explicitly out of scope. Grounded on the
// teacher's cmd/ailang/main.go flag-based subcommand dispatch.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"golang.org/x/text/message"

	"github.com/stircomp/stirc/internal/config"
	"github.com/stircomp/stirc/internal/fixtures"
	"github.com/stircomp/stirc/internal/interp"
	"github.com/stircomp/stirc/internal/pipeline"
	"github.com/stircomp/stirc/internal/repl"
)

var cfg = config.LoadFromCWD()

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	var (
		dumpSimple = flag.Bool("dump-simple", false, "dump the C2 Simple IR")
		dumpStir   = flag.Bool("dump-stir", false, "dump the C3 Stir (ANF) IR")
		dumpReuse  = flag.Bool("dump-reuse", false, "dump the C4 reuse-annotated IR")
		dumpRC     = flag.Bool("dump-rc", false, "dump the C6 refcounted IR")
		dumpProg   = flag.Bool("dump-prog", false, "dump the C7 low-level Prog")
		helpFlag   = flag.Bool("help", false, "show help")
	)
	flag.Parse()

	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	switch flag.Arg(0) {
	case "compile":
		requireFixtureArg("compile")
		cmdCompile(flag.Arg(1), dumpFlags{*dumpSimple, *dumpStir, *dumpReuse, *dumpRC, *dumpProg})
	case "run":
		requireFixtureArg("run")
		cmdRun(flag.Arg(1))
	case "repl":
		repl.New(repl.Config{HistoryFile: cfg.HistoryFile}).Start(os.Stdout)
	case "test":
		cmdTest()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", red("error"), flag.Arg(0))
		printHelp()
		os.Exit(1)
	}
}

type dumpFlags struct {
	simple, stir, reuse, rc, prog bool
}

func requireFixtureArg(cmd string) {
	if flag.NArg() < 2 {
		fmt.Fprintf(os.Stderr, "%s: missing fixture argument\nUsage: stirc %s <fixture>\n", red("error"), cmd)
		os.Exit(1)
	}
}

func loadFixture(name string) (*pipeline.Result, error) {
	prog, ok := fixtures.Get(name)
	if !ok {
		return nil, fmt.Errorf("no such fixture %q (see %q)", name, "stirc test")
	}
	return pipeline.Compile(prog)
}

func cmdCompile(name string, d dumpFlags) {
	result, err := loadFixture(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), err)
		os.Exit(1)
	}
	fmt.Printf("%s %s compiled through C7\n", green("ok:"), cyan(name))
	if d.simple {
		fmt.Println(bold("-- simple --"))
		for id, fn := range result.Simple.Functions {
			fmt.Printf("%s: %v\n", id, fn.Body)
		}
	}
	if d.stir {
		fmt.Println(bold("-- stir --"))
		for _, fn := range result.ANF.Functions {
			fmt.Printf("%s: %v\n", fn.ID, fn.Body)
		}
	}
	if d.reuse {
		fmt.Println(bold("-- reuse --"))
		for _, fn := range result.Reused.Functions {
			fmt.Printf("%s: %v\n", fn.ID, fn.Body)
		}
	}
	if d.rc {
		fmt.Println(bold("-- rc --"))
		for _, fn := range result.RC.Functions {
			fmt.Printf("%s: %v\n", fn.ID, fn.Body)
		}
	}
	if d.prog {
		fmt.Println(bold("-- prog --"))
		for _, def := range result.Prog.Defs {
			fmt.Printf("%s:\n", def.ID)
			for _, stmt := range def.Body {
				fmt.Printf("  %v\n", stmt)
			}
		}
	}
}

func cmdRun(name string) {
	result, err := loadFixture(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), err)
		os.Exit(1)
	}
	ip := interp.NewWithCapacity(result.Prog, os.Stdout, cfg.Heap.InitialSlots)
	got := ip.Call("main")

	p := message.NewPrinter(message.MatchLanguage("en"))
	fmt.Println(bold("-- summary --"))
	p.Printf("return value: %s\n", cellString(got))
	p.Printf("steps: %d\n", ip.Steps)
	p.Printf("final heap size: %d\n", len(ip.Heap))
}

// scenario is one spec.md §8 testable-property scenario's label and
// expected main() return value.
type scenario struct {
	name string
	want int64
}

// expectations maps a fixture name to its scenario label and expected
// main() return value. cfg.BenchmarkSuite (stirc.yml) drives *which* of
// these actually run, the way the teacher's BenchmarkSuite config drives
// which models eval_harness exercises.
var expectations = map[string]scenario{
	"e1_arithmetic": {name: "E1 arithmetic", want: 14},
	"e2_list_sum":   {name: "E2 list build+sum", want: 5050},
}

func cmdTest() {
	pass, total := 0, 0
	for _, fixture := range cfg.BenchmarkSuite {
		sc, ok := expectations[fixture]
		if !ok {
			continue // a fixture named in stirc.yml with no known expected value
		}
		total++
		result, err := loadFixture(fixture)
		if err != nil {
			fmt.Printf("%s %s: %v\n", red("FAIL"), sc.name, err)
			continue
		}
		var buf bytes.Buffer
		ip := interp.New(result.Prog, &buf)
		got := ip.Call("main")
		if got.Val == sc.want {
			fmt.Printf("%s %s\n", green("PASS"), sc.name)
			pass++
		} else {
			fmt.Printf("%s %s: expected %d, got %d\n", red("FAIL"), sc.name, sc.want, got.Val)
		}
	}
	for _, name := range unfixturedScenarios() {
		fmt.Printf("%s %s (no built-in fixture yet)\n", yellow("SKIP"), name)
	}
	fmt.Printf("%d/%d scenario(s) passed\n", pass, total)
	if pass != total {
		os.Exit(1)
	}
}

func unfixturedScenarios() []string {
	return []string{
		"E3 fip list reverse",
		"E4 tree flip",
		"E5 borrow inference (covered by internal/borrow's own tests)",
		"E6 drop-reuse null path (covered by internal/interp's own tests)",
	}
}

func cellString(c interp.Cell) string {
	if c.Kind == interp.KindPointer {
		return fmt.Sprintf("ptr(%d)", c.Ptr)
	}
	return fmt.Sprintf("%d", c.Val)
}

func printHelp() {
	fmt.Println(bold("stirc - reference-counted IR compiler and interpreter"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  stirc <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Printf("  %s <fixture>     compile through C7, optionally dumping stages\n", cyan("compile"))
	fmt.Printf("  %s <fixture>         compile and run to completion\n", cyan("run"))
	fmt.Printf("  %s                     enter the interactive step/run/mem/ret REPL\n", cyan("repl"))
	fmt.Printf("  %s                     run the built-in scenario table (E1-E6)\n", cyan("test"))
	fmt.Println()
	fmt.Println("Fixtures:")
	names := append([]string(nil), fixtures.Names()...)
	sort.Strings(names)
	for _, n := range names {
		fmt.Printf("  %s\n", n)
	}
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -dump-simple, -dump-stir, -dump-reuse, -dump-rc, -dump-prog   (compile only)")
}

package pipeline

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stircomp/stirc/internal/fixtures"
	"github.com/stircomp/stirc/testutil"
)

// dumpProg renders a compiled Prog the same way cmd/stirc's -dump-prog flag
// and internal/repl's :dump-prog command do, so the golden file doubles as
// a record of that output's exact shape.
func dumpProg(result *Result) string {
	var b strings.Builder
	for _, def := range result.Prog.Defs {
		fmt.Fprintf(&b, "%s:\n", def.ID)
		for _, stmt := range def.Body {
			fmt.Fprintf(&b, "  %v\n", stmt)
		}
	}
	return b.String()
}

// TestProgGoldenMatchesArithmeticFixture wires testutil's golden-file
// comparator into a real C7 stage dump: the only stage whose statement
// sequence is short and deterministic enough to pin down by hand for E1
// (spec.md §8), so a regression in any of C2-C7's fresh-name counter or
// statement shape shows up as a golden diff.
func TestProgGoldenMatchesArithmeticFixture(t *testing.T) {
	prog, ok := fixtures.Get("e1_arithmetic")
	if !ok {
		t.Fatal("fixture e1_arithmetic is not registered")
	}
	result, err := Compile(prog)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	testutil.AssertGolden(t, "prog", "e1_arithmetic", dumpProg(result))
}

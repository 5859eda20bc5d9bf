// Package pipeline wires the C2-through-C7 compiler stages into a single
// entry point, the way the teacher repo's own pipeline package sequences
// parse/elaborate/link stages behind one Compile call.
package pipeline

import (
	"fmt"

	"github.com/stircomp/stirc/internal/ast"
	"github.com/stircomp/stirc/internal/borrow"
	"github.com/stircomp/stirc/internal/lower"
	"github.com/stircomp/stirc/internal/rc"
	"github.com/stircomp/stirc/internal/reuse"
	"github.com/stircomp/stirc/internal/simple"
	"github.com/stircomp/stirc/internal/stir"
)

// Result bundles every stage's output, so a caller (the REPL, the CLI's
// :dump-* commands, or a test) can inspect intermediate representations
// without recompiling.
type Result struct {
	Simple *simple.Program
	ANF    *stir.Stir // after C3 + dead-binding removal
	Reused *stir.Stir // after C4
	Borrow borrow.Map // from C5
	RC     *stir.Stir // after C6
	Prog   *lower.Prog
}

// Compile runs a validated TypedProgram through every stage up to the
// low-level Prog. It stops at the first error (spec.md §7's "no
// recovery, no partial output").
func Compile(typed *ast.Program) (*Result, error) {
	if err := ast.Validate(typed); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	simpleProg, err := simple.LowerProgram(typed)
	if err != nil {
		return nil, fmt.Errorf("lower to simple: %w", err)
	}

	anf, err := stir.TranslateProgram(simpleProg)
	if err != nil {
		return nil, fmt.Errorf("translate to stir: %w", err)
	}

	reused, err := reuse.InsertReuse(anf)
	if err != nil {
		return nil, fmt.Errorf("insert reuse tokens: %w", err)
	}

	beta := borrow.Infer(reused)
	withRC := rc.InsertRC(reused, beta)
	prog := lower.Lower(withRC)

	return &Result{
		Simple: simpleProg,
		ANF:    anf,
		Reused: reused,
		Borrow: beta,
		RC:     withRC,
		Prog:   prog,
	}, nil
}

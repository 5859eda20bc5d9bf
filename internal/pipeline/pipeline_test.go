package pipeline

import (
	"bytes"
	"testing"

	"github.com/stircomp/stirc/internal/ast"
	"github.com/stircomp/stirc/internal/interp"
)

func exprType(t ast.Type) ast.ExpressionType { return ast.Single(t) }

// E1 (spec.md §8): main = (3 + 4) * 2, expected 14, no heap growth.
func TestCompileAndRunArithmeticScenario(t *testing.T) {
	adts, ctors := ast.WithBuiltinBool(map[string][]string{}, map[string]ast.ConstructorInfo{})

	sum := &ast.FunctionCall{
		NodeMeta: ast.NodeMeta{NodeID: 1, ExprType: exprType(ast.IntType)},
		Func:     "+",
		Args:     []ast.TypedNode{&ast.Integer{Value: 3}, &ast.Integer{Value: 4}},
	}
	product := &ast.FunctionCall{
		NodeMeta: ast.NodeMeta{NodeID: 2, ExprType: exprType(ast.IntType)},
		Func:     "*",
		Args:     []ast.TypedNode{sum, &ast.Integer{Value: 2}},
	}

	prog := &ast.Program{
		ADTs:         adts,
		Constructors: ctors,
		Functions: map[string]ast.FunctionInfo{
			"main": {
				Params:    nil,
				Signature: ast.FunctionSignature{ResultType: []ast.Type{ast.IntType}},
				Body:      product,
			},
		},
	}

	result, err := Compile(prog)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}

	ip := interp.New(result.Prog, &bytes.Buffer{})
	got := ip.Call("main")
	if got.Val != 14 {
		t.Fatalf("expected 14, got %+v", got)
	}
	if len(ip.Heap) != 1 {
		t.Errorf("expected no heap allocation for pure arithmetic, heap len = %d", len(ip.Heap))
	}
}

func TestCompileRejectsProgramWithoutMain(t *testing.T) {
	adts, ctors := ast.WithBuiltinBool(map[string][]string{}, map[string]ast.ConstructorInfo{})
	prog := &ast.Program{ADTs: adts, Constructors: ctors, Functions: map[string]ast.FunctionInfo{}}

	if _, err := Compile(prog); err == nil {
		t.Fatal("expected an error for a program with no main")
	}
}

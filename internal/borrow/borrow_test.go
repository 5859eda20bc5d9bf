package borrow

import (
	"testing"

	"github.com/stircomp/stirc/internal/stir"
)

// f(x) = match x { Cons(h,t) -> h ; Nil -> 0 }
func TestInferKeepsProjectOnlyParamBorrowed(t *testing.T) {
	x := stir.Var{Name: "x", T: stir.HeapedType}
	h := stir.Var{Name: "h", T: stir.IntType}
	t2 := stir.Var{Name: "t", T: stir.HeapedType}

	fArm1 := &stir.Ret{Value: stir.Var{Name: "zero", T: stir.IntType}}
	fArm0 := &stir.Let{Name: h, Rhs: &stir.ExpProj{Index: 0, Of: x, T: stir.IntType}, Body: &stir.Let{
		Name: t2, Rhs: &stir.ExpProj{Index: 1, Of: x, T: stir.HeapedType}, Body: &stir.Ret{Value: h},
	}}
	f := &stir.Function{
		ID:     "f",
		Params: []stir.Var{x},
		Body: &stir.Match{
			Scrutinee: x,
			Arms: []stir.MatchArm{
				{Arity: 0, Body: fArm1},
				{Arity: 2, Body: fArm0},
			},
		},
	}

	// consume(y) resets its own parameter, which always consumes it
	// (spec.md §4.4: Δ(Reset(x)) = {x}), so y is classified Owned.
	y := stir.Var{Name: "y", T: stir.HeapedType}
	consume := &stir.Function{
		ID:     "consume",
		Params: []stir.Var{y},
		Body:   &stir.Let{Name: stir.Var{Name: "r", T: stir.HeapedType}, Rhs: &stir.ExpReset{Of: y}, Body: &stir.Ret{Value: stir.Var{Name: "r", T: stir.HeapedType}}},
	}

	// g(x) = consume(x)
	gx := stir.Var{Name: "x", T: stir.HeapedType}
	g := &stir.Function{
		ID:     "g",
		Params: []stir.Var{gx},
		Body:   &stir.Let{Name: stir.Var{Name: "r", T: stir.HeapedType}, Rhs: &stir.ExpApp{Fid: "consume", Args: []stir.Var{gx}, T: stir.HeapedType}, Body: &stir.Ret{Value: stir.Var{Name: "r", T: stir.HeapedType}}},
	}

	prog := &stir.Stir{Functions: []*stir.Function{f, consume, g}}
	m := Infer(prog)

	if m["f"][0] != Borrowed {
		t.Errorf("expected f's x to stay Borrowed (only ever projected), got %v", m["f"][0])
	}
	if m["g"][0] != Owned {
		t.Errorf("expected g's x to become Owned (passed to an Owned parameter), got %v", m["g"][0])
	}
}

func TestInferResetAlwaysConsumes(t *testing.T) {
	x := stir.Var{Name: "x", T: stir.HeapedType}
	fn := &stir.Function{
		ID:     "reset_it",
		Params: []stir.Var{x},
		Body:   &stir.Let{Name: stir.Var{Name: "t", T: stir.HeapedType}, Rhs: &stir.ExpReset{Of: x}, Body: &stir.Ret{Value: stir.Var{Name: "t", T: stir.HeapedType}}},
	}
	m := Infer(&stir.Stir{Functions: []*stir.Function{fn}})
	if m["reset_it"][0] != Owned {
		t.Errorf("expected Reset to force Owned, got %v", m["reset_it"][0])
	}
}

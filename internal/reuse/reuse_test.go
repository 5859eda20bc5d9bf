package reuse

import (
	"testing"

	"github.com/stircomp/stirc/internal/stir"
)

// consLet builds Cons(h, t) bound to name.
func consLet(name string, h, t stir.Var, body stir.Body) *stir.Let {
	return &stir.Let{Name: stir.Var{Name: name, T: stir.HeapedType}, Rhs: &stir.ExpCtor{Tag: 1, Args: []stir.Var{h, t}}, Body: body}
}

func TestInsertReuseRewritesMatchingArityCtor(t *testing.T) {
	x := stir.Var{Name: "x", T: stir.HeapedType}
	h := stir.Var{Name: "h", T: stir.IntType}
	tl := stir.Var{Name: "t", T: stir.HeapedType}

	// match x { Cons(h,t) -> let w = Cons(h, t) in ret w }  (fip, arity 2)
	armBody := consLet("w", h, tl, &stir.Ret{Value: stir.Var{Name: "w", T: stir.HeapedType}})
	fn := &stir.Function{
		ID:  "dup",
		FIP: true,
		Body: &stir.Let{Name: h, Rhs: &stir.ExpProj{Index: 0, Of: x, T: stir.IntType}, Body: &stir.Let{
			Name: tl, Rhs: &stir.ExpProj{Index: 1, Of: x, T: stir.HeapedType}, Body: &stir.Match{
				Scrutinee: x,
				Arms:      []stir.MatchArm{{Arity: 2, Body: armBody}},
			},
		}},
	}
	prog := &stir.Stir{Functions: []*stir.Function{fn}}

	out, err := InsertReuse(prog)
	if err != nil {
		t.Fatalf("unexpected FIP violation: %v", err)
	}

	// Walk down to the Match to inspect the rewritten arm.
	outer := out.Functions[0].Body.(*stir.Let)
	inner := outer.Body.(*stir.Let)
	match := inner.Body.(*stir.Match)
	arm := match.Arms[0].Body

	resetLet, ok := arm.(*stir.Let)
	if !ok {
		t.Fatalf("expected arm to open with a Reset-bound Let, got %T", arm)
	}
	if _, ok := resetLet.Rhs.(*stir.ExpReset); !ok {
		t.Fatalf("expected Reset rhs, got %T", resetLet.Rhs)
	}
	reuseLet, ok := resetLet.Body.(*stir.Let)
	if !ok {
		t.Fatalf("expected the rewritten Ctor Let beneath the Reset, got %T", resetLet.Body)
	}
	reuse, ok := reuseLet.Rhs.(*stir.ExpReuse)
	if !ok {
		t.Fatalf("expected Ctor rewritten to Reuse, got %T", reuseLet.Rhs)
	}
	if reuse.Tag != 1 || len(reuse.Args) != 2 {
		t.Errorf("reuse tag/args mismatch: %#v", reuse)
	}
}

func TestInsertReuseLeavesNonFIPFunctionsAlone(t *testing.T) {
	x := stir.Var{Name: "x", T: stir.HeapedType}
	body := &stir.Match{
		Scrutinee: x,
		Arms: []stir.MatchArm{
			{Arity: 2, Body: consLet("w", stir.Var{Name: "h", T: stir.IntType}, stir.Var{Name: "t", T: stir.HeapedType}, &stir.Ret{Value: stir.Var{Name: "w", T: stir.HeapedType}})},
		},
	}
	fn := &stir.Function{ID: "notFip", FIP: false, Body: body}
	out, err := InsertReuse(&stir.Stir{Functions: []*stir.Function{fn}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Functions[0] != fn {
		t.Error("expected non-fip function left byte-for-byte unchanged")
	}
}

func TestInsertReuseFailsWhenAllocationSurvives(t *testing.T) {
	x := stir.Var{Name: "x", T: stir.HeapedType}
	// Branch never uses x again, but the arity of the later Ctor (3) does
	// not match the branch's arity (2), so no rewrite is possible.
	armBody := &stir.Let{
		Name: stir.Var{Name: "w", T: stir.HeapedType},
		Rhs:  &stir.ExpCtor{Tag: 5, Args: []stir.Var{{Name: "a", T: stir.IntType}, {Name: "b", T: stir.IntType}, {Name: "c", T: stir.IntType}}},
		Body: &stir.Ret{Value: stir.Var{Name: "w", T: stir.HeapedType}},
	}
	fn := &stir.Function{
		ID:  "badFip",
		FIP: true,
		Body: &stir.Match{
			Scrutinee: x,
			Arms:      []stir.MatchArm{{Arity: 2, Body: armBody}},
		},
	}
	_, err := InsertReuse(&stir.Stir{Functions: []*stir.Function{fn}})
	if err == nil {
		t.Fatal("expected a FIP violation error")
	}
}

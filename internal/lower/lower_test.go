package lower

import (
	"testing"

	"github.com/stircomp/stirc/internal/stir"
)

func oneFn(body stir.Body, params ...stir.Var) *stir.Stir {
	return &stir.Stir{Functions: []*stir.Function{{ID: "f", Params: params, Body: body}}}
}

func TestLowerIntBindingAssignsThenReturns(t *testing.T) {
	v := stir.Var{Name: "v", T: stir.IntType}
	prog := oneFn(&stir.Let{Name: v, Rhs: &stir.ExpInt{Value: 5}, Body: &stir.Ret{Value: v}})

	def := Lower(prog).ByID("f")
	if len(def.Body) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(def.Body), def.Body)
	}
	assign, ok := def.Body[0].(*Assign)
	if !ok {
		t.Fatalf("expected Assign, got %T", def.Body[0])
	}
	if assign.Name != "v" || assign.Kind != KindValue {
		t.Errorf("unexpected assign: %+v", assign)
	}
	lit, ok := assign.Value.(*Int)
	if !ok || lit.Value != 5 {
		t.Errorf("expected Int(5) operand, got %#v", assign.Value)
	}
	ret, ok := def.Body[1].(*Return)
	if !ok || ret.Value.(*Ident).Name != "v" {
		t.Errorf("expected Return(v), got %#v", def.Body[1])
	}
}

func TestLowerCtorAllocatesHeaderThenFields(t *testing.T) {
	a := stir.Var{Name: "a", T: stir.IntType}
	b := stir.Var{Name: "b", T: stir.HeapedType}
	v := stir.Var{Name: "v", T: stir.HeapedType}
	prog := oneFn(&stir.Let{Name: v, Rhs: &stir.ExpCtor{Tag: 1, Args: []stir.Var{a, b}}, Body: &stir.Ret{Value: v}}, a, b)

	def := Lower(prog).ByID("f")
	want := []string{"malloc", "tag", "arity", "refcount", "field0", "field1", "return"}
	if len(def.Body) != len(want) {
		t.Fatalf("expected %d statements, got %d: %v", len(want), len(def.Body), def.Body)
	}

	malloc, ok := def.Body[0].(*AssignMalloc)
	if !ok || malloc.Name != "v" || malloc.FieldCount != 2 || malloc.Kind != KindVoidPtrPtr {
		t.Fatalf("unexpected malloc: %#v", def.Body[0])
	}
	tagField, ok := def.Body[1].(*AssignToField)
	if !ok || tagField.Index != 0 || tagField.Value.(*Int).Value != 1 {
		t.Fatalf("unexpected tag field: %#v", def.Body[1])
	}
	arityField := def.Body[2].(*AssignToField)
	if arityField.Index != 1 || arityField.Value.(*NonShifted).Value != 2 {
		t.Fatalf("unexpected arity field: %#v", arityField)
	}
	refcountField := def.Body[3].(*AssignToField)
	if refcountField.Index != 2 || refcountField.Value.(*NonShifted).Value != 1 {
		t.Fatalf("unexpected refcount field: %#v", refcountField)
	}
	f0 := def.Body[4].(*AssignToField)
	if f0.Index != 3 || f0.Value.(*Ident).Name != "a" {
		t.Fatalf("unexpected field 0: %#v", f0)
	}
	f1 := def.Body[5].(*AssignToField)
	if f1.Index != 4 || f1.Value.(*Ident).Name != "b" {
		t.Fatalf("unexpected field 1: %#v", f1)
	}
}

func TestLowerNullaryCtorSkipsAllocation(t *testing.T) {
	v := stir.Var{Name: "v", T: stir.HeapedType}
	prog := oneFn(&stir.Let{Name: v, Rhs: &stir.ExpCtor{Tag: 0, Args: nil}, Body: &stir.Ret{Value: v}})

	def := Lower(prog).ByID("f")
	if len(def.Body) != 2 {
		t.Fatalf("expected a bare Assign + Return, got %v", def.Body)
	}
	assign, ok := def.Body[0].(*Assign)
	if !ok || assign.Value.(*Int).Value != 0 {
		t.Fatalf("expected Assign(v, Int(0)), got %#v", def.Body[0])
	}
}

func TestLowerMatchEmitsTagChecksThenIfElse(t *testing.T) {
	x := stir.Var{Name: "x", T: stir.HeapedType}
	zero := stir.Var{Name: "zero", T: stir.IntType}
	h := stir.Var{Name: "h", T: stir.IntType}
	body := &stir.Match{
		Scrutinee: x,
		Arms: []stir.MatchArm{
			{Arity: 0, Body: &stir.Ret{Value: zero}},
			{Arity: 2, Body: &stir.Ret{Value: h}},
		},
	}
	prog := oneFn(body, x)

	def := Lower(prog).ByID("f")
	if len(def.Body) != 3 {
		t.Fatalf("expected 2 tag checks + 1 ifelse, got %d: %v", len(def.Body), def.Body)
	}
	c0, ok := def.Body[0].(*AssignTagCheck)
	if !ok || c0.IsHeaped || c0.TagShifted != 1 || c0.Value.(*Ident).Name != "x" {
		t.Fatalf("unexpected first tag check: %#v", def.Body[0])
	}
	c1, ok := def.Body[1].(*AssignTagCheck)
	if !ok || !c1.IsHeaped || c1.TagShifted != 3 {
		t.Fatalf("unexpected second tag check: %#v", def.Body[1])
	}
	ite, ok := def.Body[2].(*IfElse)
	if !ok || len(ite.Branches) != 2 {
		t.Fatalf("unexpected ifelse: %#v", def.Body[2])
	}
	if ite.Branches[0].Cond.(*Ident).Name != c0.Name || ite.Branches[1].Cond.(*Ident).Name != c1.Name {
		t.Fatalf("ifelse branch conditions don't reference the tag checks: %#v", ite.Branches)
	}
	ret0 := ite.Branches[0].Then[0].(*Return)
	if ret0.Value.(*Ident).Name != "zero" {
		t.Errorf("expected first branch to return zero, got %#v", ret0)
	}
	ret1 := ite.Branches[1].Then[0].(*Return)
	if ret1.Value.(*Ident).Name != "h" {
		t.Errorf("expected second branch to return h, got %#v", ret1)
	}
}

func TestLowerReuseBuildsConditionalAllocationThenUnconditionalFields(t *testing.T) {
	token := stir.Var{Name: "t", T: stir.HeapedType}
	a := stir.Var{Name: "a", T: stir.IntType}
	b := stir.Var{Name: "b", T: stir.HeapedType}
	v := stir.Var{Name: "v", T: stir.HeapedType}
	prog := oneFn(&stir.Let{Name: v, Rhs: &stir.ExpReuse{Token: token, Tag: 1, Args: []stir.Var{a, b}}, Body: &stir.Ret{Value: v}}, token, a, b)

	def := Lower(prog).ByID("f")
	// ifelse(alloc-if-null), field0, field1, assign v = t, return v
	if len(def.Body) != 5 {
		t.Fatalf("expected 5 statements, got %d: %v", len(def.Body), def.Body)
	}
	ite, ok := def.Body[0].(*IfElse)
	if !ok || len(ite.Branches) != 1 {
		t.Fatalf("expected a single-branch IfElse first, got %#v", def.Body[0])
	}
	neg, ok := ite.Branches[0].Cond.(*Negate)
	if !ok || neg.Name != "t" {
		t.Fatalf("expected condition !t, got %#v", ite.Branches[0].Cond)
	}
	if len(ite.Branches[0].Then) != 4 {
		t.Fatalf("expected malloc + 3 header fields in the null branch, got %v", ite.Branches[0].Then)
	}
	if _, ok := ite.Branches[0].Then[0].(*AssignMalloc); !ok {
		t.Fatalf("expected malloc first in the null branch, got %T", ite.Branches[0].Then[0])
	}

	f0 := def.Body[1].(*AssignToField)
	if f0.Index != 3 || f0.Value.(*Ident).Name != "a" {
		t.Fatalf("unexpected field 0: %#v", f0)
	}
	f1 := def.Body[2].(*AssignToField)
	if f1.Index != 4 || f1.Value.(*Ident).Name != "b" {
		t.Fatalf("unexpected field 1: %#v", f1)
	}
	assign := def.Body[3].(*Assign)
	if assign.Name != "v" || assign.Value.(*Ident).Name != "t" {
		t.Fatalf("expected v = t, got %#v", assign)
	}
}

func TestLowerAppCallsThenReadsReturnValue(t *testing.T) {
	a := stir.Var{Name: "a", T: stir.IntType}
	v := stir.Var{Name: "v", T: stir.IntType}
	prog := oneFn(&stir.Let{Name: v, Rhs: &stir.ExpApp{Fid: "g", Args: []stir.Var{a}, T: stir.IntType}, Body: &stir.Ret{Value: v}}, a)

	def := Lower(prog).ByID("f")
	if len(def.Body) != 3 {
		t.Fatalf("expected call, return-value read, return, got %v", def.Body)
	}
	call, ok := def.Body[0].(*AssignFunctionCall)
	if !ok || call.Fid != "g" || call.Args[0].(*Ident).Name != "a" {
		t.Fatalf("unexpected call: %#v", def.Body[0])
	}
	rv, ok := def.Body[1].(*AssignReturnValue)
	if !ok || rv.Name != "v" {
		t.Fatalf("unexpected return-value read: %#v", def.Body[1])
	}
}

func TestLowerProjAlwaysOffsetsByHeapHeader(t *testing.T) {
	of := stir.Var{Name: "p", T: stir.HeapedType}
	v := stir.Var{Name: "v", T: stir.IntType}
	prog := oneFn(&stir.Let{Name: v, Rhs: &stir.ExpProj{Index: 0, Of: of, T: stir.IntType}, Body: &stir.Ret{Value: v}}, of)

	def := Lower(prog).ByID("f")
	from, ok := def.Body[0].(*AssignFromField)
	if !ok || from.Index != 3 {
		t.Fatalf("expected header-offset field read at index 3, got %#v", def.Body[0])
	}
}

func TestLowerResetEmitsDropReuse(t *testing.T) {
	of := stir.Var{Name: "x", T: stir.HeapedType}
	v := stir.Var{Name: "v", T: stir.HeapedType}
	prog := oneFn(&stir.Let{Name: v, Rhs: &stir.ExpReset{Of: of}, Body: &stir.Ret{Value: v}}, of)

	def := Lower(prog).ByID("f")
	drop, ok := def.Body[0].(*AssignDropReuse)
	if !ok || drop.Name != "v" || drop.Source != "x" {
		t.Fatalf("expected drop_reuse(v, x), got %#v", def.Body[0])
	}
}

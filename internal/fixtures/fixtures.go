// Package fixtures holds the built-in scenario programs spec.md §8
// describes; only E1 and E2 are built in. They are hand-built as ast.Program values since parsing a
// surface syntax is explicitly a non-goal. cmd/stirc's `run`/`test`
// subcommands and internal/repl's `:load` command both load these by
// name, mirroring the teacher's "run a fixture" CLI convention.
package fixtures

import "github.com/stircomp/stirc/internal/ast"

func intVar(name string, id uint64) *ast.Variable {
	def := ast.Def{ID: id, Name: name}
	return &ast.Variable{
		NodeMeta: ast.NodeMeta{Scope: ast.Scope{name: def}, ExprType: ast.Single(ast.IntType)},
		Name:     name, DefID: id,
	}
}

func adtVar(name, adt string, id uint64) *ast.Variable {
	def := ast.Def{ID: id, Name: name}
	t := ast.ADTType(adt)
	return &ast.Variable{
		NodeMeta: ast.NodeMeta{Scope: ast.Scope{name: def}, ExprType: ast.Single(t)},
		Name:     name, DefID: id,
	}
}

func intExpr(n int) *ast.Integer { return &ast.Integer{Value: n} }

func call(typ ast.ExpressionType, fn string, args ...ast.TypedNode) *ast.FunctionCall {
	return &ast.FunctionCall{NodeMeta: ast.NodeMeta{ExprType: typ}, Func: fn, Args: args}
}

// Arithmetic builds E1: main = (3 + 4) * 2, expected 14, no net heap growth.
func Arithmetic() *ast.Program {
	adts, ctors := ast.WithBuiltinBool(map[string][]string{}, map[string]ast.ConstructorInfo{})
	sum := call(ast.Single(ast.IntType), "+", intExpr(3), intExpr(4))
	product := call(ast.Single(ast.IntType), "*", sum, intExpr(2))
	return &ast.Program{
		ADTs: adts, Constructors: ctors,
		Functions: map[string]ast.FunctionInfo{
			"main": {Signature: ast.FunctionSignature{ResultType: []ast.Type{ast.IntType}}, Body: product},
		},
	}
}

// listADT adds the List = Nil | Cons(Int, List) declaration used by
// ListSum.
func listADT(adts map[string][]string, ctors map[string]ast.ConstructorInfo) {
	adts["List"] = []string{"Nil", "Cons"}
	ctors["Nil"] = ast.ConstructorInfo{ADT: "List", Sibling: 0}
	ctors["Cons"] = ast.ConstructorInfo{ADT: "List", Sibling: 1, ArgTypes: []ast.Type{ast.IntType, ast.ADTType("List")}}
}

// ListSum builds E2: build(100) constructs a 100-element Cons list,
// sum folds it with +. Expected return: 5050. Heap peak 100 cells,
// empty at termination.
func ListSum() *ast.Program {
	adts, ctors := ast.WithBuiltinBool(map[string][]string{}, map[string]ast.ConstructorInfo{})
	listADT(adts, ctors)

	listT := ast.Single(ast.ADTType("List"))

	// build(k) = match k { 0 -> Nil ; _ -> let t = build(k-1) in Cons(k, t) }
	k := intVar("k", 1)
	kMinus1 := call(ast.Single(ast.IntType), "-", k, intExpr(1))
	recurse := call(listT, "build", kMinus1)
	t := adtVar("t", "List", 2)
	consBody := &ast.LetEqualIn{
		NodeMeta: ast.NodeMeta{ExprType: listT},
		Names:    []ast.Def{{ID: 2, Name: "t"}},
		Value:    recurse,
		Body:     call(listT, "Cons", k, t),
	}
	buildBody := &ast.Match{
		NodeMeta:  ast.NodeMeta{ExprType: listT},
		Scrutinee: intVar("k", 1),
		Cases: []ast.MatchCase{
			{Pattern: &ast.IntPattern{Value: 0}, Body: call(listT, "Nil")},
			{Pattern: &ast.WildcardPattern{}, Body: consBody},
		},
	}

	// sum(xs) = match xs { Nil -> 0 ; Cons(h, t) -> h + sum(t) }
	h := intVar("h", 3)
	tail := adtVar("t", "List", 4)
	sumTail := call(ast.Single(ast.IntType), "sum", tail)
	sumBody := &ast.Match{
		NodeMeta:  ast.NodeMeta{ExprType: ast.Single(ast.IntType)},
		Scrutinee: adtVar("xs", "List", 5),
		Cases: []ast.MatchCase{
			{Pattern: &ast.ConstructorPattern{Ctor: "Nil"}, Body: intExpr(0)},
			{
				Pattern: &ast.ConstructorPattern{Ctor: "Cons", Bindings: []ast.Def{{ID: 3, Name: "h"}, {ID: 4, Name: "t"}}},
				Body:    call(ast.Single(ast.IntType), "+", h, sumTail),
			},
		},
	}

	main := call(ast.Single(ast.IntType), "sum", call(listT, "build", intExpr(100)))

	return &ast.Program{
		ADTs: adts, Constructors: ctors,
		Functions: map[string]ast.FunctionInfo{
			"build": {Params: []string{"k"}, Signature: ast.FunctionSignature{ArgTypes: []ast.Type{ast.IntType}, ResultType: []ast.Type{ast.ADTType("List")}}, Body: buildBody},
			"sum":   {Params: []string{"xs"}, Signature: ast.FunctionSignature{ArgTypes: []ast.Type{ast.ADTType("List")}, ResultType: []ast.Type{ast.IntType}}, Body: sumBody},
			"main":  {Signature: ast.FunctionSignature{ResultType: []ast.Type{ast.IntType}}, Body: main},
		},
	}
}

// registry maps each fixture name to the function that builds it.
var registry = map[string]func() *ast.Program{
	"e1_arithmetic": Arithmetic,
	"e2_list_sum":   ListSum,
}

// Names lists every registered fixture, in a stable order.
func Names() []string { return []string{"e1_arithmetic", "e2_list_sum"} }

// Get looks up a fixture by name.
func Get(name string) (*ast.Program, bool) {
	build, ok := registry[name]
	if !ok {
		return nil, false
	}
	return build(), true
}

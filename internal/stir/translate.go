package stir

import (
	"fmt"
	"sort"

	"github.com/stircomp/stirc/internal/sidgen"
	"github.com/stircomp/stirc/internal/simple"
	"github.com/stircomp/stirc/internal/stirerrors"
)

// cont is the "rest of the computation": given the atom a compound Simple
// expression evaluates to, it builds the remaining Stir Body.
type cont func(Var) (Body, error)

// Translator holds the fresh-name source shared across a whole program
// translation, so that no two functions ever mint the same intermediate
// binder (spec.md §4.2).
type Translator struct {
	counter *sidgen.Counter
}

// TranslateProgram implements C3 (spec.md §4.2): it rewrites every Simple
// function body into A-normal form, naming every intermediate result with
// a fresh Var, then drops the bindings that turned out to be dead.
func TranslateProgram(prog *simple.Program) (*Stir, error) {
	t := &Translator{counter: sidgen.NewCounter()}

	ids := make([]string, 0, len(prog.Functions))
	for id := range prog.Functions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := &Stir{Functions: make([]*Function, 0, len(ids))}
	for _, id := range ids {
		fn := prog.Functions[id]
		params := make([]Var, len(fn.Params))
		for i, p := range fn.Params {
			params[i] = Var{Name: p, T: simple.Erase(fn.Signature.ArgTypes[i])}
		}

		body, err := t.translateBody(fn.Body, func(v Var) (Body, error) {
			return &Ret{Value: v}, nil
		})
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", id, err)
		}
		body = RemoveDeadBindings(body)

		resultType := make([]Type, len(fn.Signature.ResultType))
		for i, rt := range fn.Signature.ResultType {
			resultType[i] = simple.Erase(rt)
		}

		out.Functions = append(out.Functions, &Function{
			ID:         id,
			FIP:        fn.Signature.IsFIP,
			ResultType: resultType,
			Params:     params,
			Body:       body,
		})
	}
	return out, nil
}

// translateBody is the K translator: n is already-typed Simple, k receives
// the atom n reduces to and builds the remainder of the Body.
func (t *Translator) translateBody(n simple.Node, k cont) (Body, error) {
	switch e := n.(type) {
	case *simple.Ident:
		return k(Var{Name: e.Name, T: e.T})

	case *simple.Int:
		x := Var{Name: t.counter.FreshVar(), T: IntType}
		rest, err := k(x)
		if err != nil {
			return nil, err
		}
		return &Let{Name: x, Rhs: &ExpInt{Value: e.Value}, Body: rest}, nil

	case *simple.Operation:
		return t.translateBody(e.Left, func(lv Var) (Body, error) {
			return t.translateBody(e.Right, func(rv Var) (Body, error) {
				x := Var{Name: t.counter.FreshVar(), T: e.T}
				rest, err := k(x)
				if err != nil {
					return nil, err
				}
				return &Let{Name: x, Rhs: &ExpOp{Op: e.Op, Left: lv, Right: rv, T: e.T}, Body: rest}, nil
			})
		})

	case *simple.Constructor:
		return t.translateArgs(e.Args, func(args []Var) (Body, error) {
			x := Var{Name: t.counter.FreshVar(), T: HeapedType}
			rest, err := k(x)
			if err != nil {
				return nil, err
			}
			return &Let{Name: x, Rhs: &ExpCtor{Tag: e.Tag, Args: args}, Body: rest}, nil
		})

	case *simple.App:
		return t.translateArgs(e.Args, func(args []Var) (Body, error) {
			x := Var{Name: t.counter.FreshVar(), T: e.T}
			rest, err := k(x)
			if err != nil {
				return nil, err
			}
			return &Let{Name: x, Rhs: &ExpApp{Fid: e.Fid, Args: args, T: e.T}, Body: rest}, nil
		})

	case *simple.UTuple:
		return t.translateArgs(e.Fields, func(fields []Var) (Body, error) {
			x := Var{Name: t.counter.FreshVar(), T: e.T}
			rest, err := k(x)
			if err != nil {
				return nil, err
			}
			return &Let{Name: x, Rhs: &ExpUTuple{Fields: fields, T: e.T}, Body: rest}, nil
		})

	case *simple.Let:
		return t.translateBody(e.Rhs, func(rv Var) (Body, error) {
			return t.translateBody(renameIdent(e.Body, e.Name, rv), k)
		})

	case *simple.LetApp:
		// Rhs produces a single Unboxed-typed atom (spec.md §3.1: unboxed
		// tuples only ever name a function's packed multi-value result);
		// each bound name is aliased to a fresh Var projected out of it
		// field by field, the same way a constructor pattern's bindings
		// are projected out of a heap Var in translateMatch.
		return t.translateBody(e.Rhs, func(rv Var) (Body, error) {
			body := e.Body
			projVars := make([]Var, len(e.Names))
			for i, name := range e.Names {
				fieldType := IntType
				if i < len(rv.T.Unboxed) {
					fieldType = rv.T.Unboxed[i]
				}
				pv := Var{Name: t.counter.FreshVar(), T: fieldType}
				projVars[i] = pv
				body = renameIdent(body, name, pv)
			}
			inner, err := t.translateBody(body, k)
			if err != nil {
				return nil, err
			}
			for i := len(e.Names) - 1; i >= 0; i-- {
				inner = &Let{Name: projVars[i], Rhs: &ExpProj{Index: i, Of: rv, T: projVars[i].T}, Body: inner}
			}
			return inner, nil
		})

	case *simple.Match:
		return t.translateMatch(e, k)

	default:
		panic(fmt.Sprintf("stir: translateBody: unrecognized simple.Node %T", n))
	}
}

// translateArgs lowers a left-to-right argument list to atoms, threading
// the K continuation across every argument in source order.
func (t *Translator) translateArgs(args []simple.Node, k func([]Var) (Body, error)) (Body, error) {
	atoms := make([]Var, len(args))
	var step func(i int) (Body, error)
	step = func(i int) (Body, error) {
		if i == len(args) {
			return k(atoms)
		}
		return t.translateBody(args[i], func(v Var) (Body, error) {
			atoms[i] = v
			return step(i + 1)
		})
	}
	return step(0)
}

// renameIdent substitutes every free occurrence of `from` in n with a
// reference to `to`. Used for simple.Let: rather than mint a new Stir
// binder for a source-level let, the bound name is aliased directly onto
// whatever atom its right-hand side reduced to.
func renameIdent(n simple.Node, from string, to Var) simple.Node {
	switch e := n.(type) {
	case *simple.Ident:
		if e.Name == from {
			return &simple.Ident{Name: to.Name, T: e.T}
		}
		return e
	case *simple.Int:
		return e
	case *simple.Operation:
		return &simple.Operation{Op: e.Op, Left: renameIdent(e.Left, from, to), Right: renameIdent(e.Right, from, to), T: e.T}
	case *simple.Constructor:
		args := make([]simple.Node, len(e.Args))
		for i, a := range e.Args {
			args[i] = renameIdent(a, from, to)
		}
		return &simple.Constructor{Tag: e.Tag, Args: args, T: e.T}
	case *simple.App:
		// Fid names a function in a namespace disjoint from local variable
		// scope (spec.md §3.1); it is never itself a Var reference, so it
		// is left untouched regardless of `from`.
		args := make([]simple.Node, len(e.Args))
		for i, a := range e.Args {
			args[i] = renameIdent(a, from, to)
		}
		return &simple.App{Fid: e.Fid, Args: args, T: e.T}
	case *simple.UTuple:
		fields := make([]simple.Node, len(e.Fields))
		for i, f := range e.Fields {
			fields[i] = renameIdent(f, from, to)
		}
		return &simple.UTuple{Fields: fields, T: e.T}
	case *simple.Let:
		if e.Name == from {
			return &simple.Let{Name: e.Name, Rhs: renameIdent(e.Rhs, from, to), Body: e.Body}
		}
		return &simple.Let{Name: e.Name, Rhs: renameIdent(e.Rhs, from, to), Body: renameIdent(e.Body, from, to)}
	case *simple.LetApp:
		shadowed := false
		for _, nm := range e.Names {
			if nm == from {
				shadowed = true
			}
		}
		newBody := e.Body
		if !shadowed {
			newBody = renameIdent(e.Body, from, to)
		}
		return &simple.LetApp{Names: e.Names, Rhs: renameIdent(e.Rhs, from, to), Body: newBody}
	case *simple.Match:
		scrutinee := e.Scrutinee
		if scrutinee.Name == from {
			scrutinee = &simple.Ident{Name: to.Name, T: scrutinee.T}
		}
		branches := make([]simple.Branch, len(e.Branches))
		for i, b := range e.Branches {
			shadowed := false
			if cp, ok := b.Pattern.(*simple.CtorPattern); ok {
				for _, nm := range cp.Bindings {
					if nm == from {
						shadowed = true
					}
				}
			}
			body := b.Body
			if !shadowed {
				body = renameIdent(body, from, to)
			}
			branches[i] = simple.Branch{Pattern: b.Pattern, Body: body}
		}
		return &simple.Match{Scrutinee: scrutinee, Branches: branches, T: e.T}
	default:
		panic(fmt.Sprintf("stir: renameIdent: unrecognized simple.Node %T", n))
	}
}

// translateMatch lowers a Simple Match to Stir. ADT matches (already made
// exhaustive and tag-sorted by C2, spec.md §4.1) translate directly to a
// Stir Match whose arm index is the constructor tag. Integer matches
// translate to a cascade of equality tests, each dispatching on the
// resulting Bool via the same tag-indexed Match primitive (spec.md §4.2).
func (t *Translator) translateMatch(e *simple.Match, k cont) (Body, error) {
	scrutinee := Var{Name: e.Scrutinee.Name, T: e.Scrutinee.T}

	if _, ok := e.Branches[0].Pattern.(*simple.CtorPattern); ok {
		arms := make([]MatchArm, len(e.Branches))
		for i, br := range e.Branches {
			cp := br.Pattern.(*simple.CtorPattern)
			body, err := t.translateBody(br.Body, k)
			if err != nil {
				return nil, err
			}
			for j := len(cp.Bindings) - 1; j >= 0; j-- {
				v := Var{Name: cp.Bindings[j], T: cp.Types[j]}
				body = &Let{Name: v, Rhs: &ExpProj{Index: j, Of: scrutinee, T: cp.Types[j]}, Body: body}
			}
			arms[i] = MatchArm{Arity: cp.Arity, Body: body}
		}
		return &Match{Scrutinee: scrutinee, Arms: arms}, nil
	}

	return t.translateIntMatch(scrutinee, e.Branches, k)
}

// translateIntMatch lowers a run of IntPattern branches (plus a trailing
// WildcardPattern, guaranteed present by C2) into a nested cascade of
// equality tests against Bool's builtin tags (False=0, True=1).
func (t *Translator) translateIntMatch(scrutinee Var, branches []simple.Branch, k cont) (Body, error) {
	var step func(i int) (Body, error)
	step = func(i int) (Body, error) {
		if i == len(branches) {
			return nil, stirerrors.New("stir", stirerrors.ANF001,
				"integer match ran off the end of its branches without a wildcard case")
		}
		if _, ok := branches[i].Pattern.(*simple.WildcardPattern); ok {
			return t.translateBody(branches[i].Body, k)
		}
		ip := branches[i].Pattern.(*simple.IntPattern)

		lit := Var{Name: t.counter.FreshVar(), T: IntType}
		eq := Var{Name: t.counter.FreshVar(), T: HeapedType}

		trueBody, err := t.translateBody(branches[i].Body, k)
		if err != nil {
			return nil, err
		}
		falseBody, err := step(i + 1)
		if err != nil {
			return nil, err
		}

		match := &Match{
			Scrutinee: eq,
			Arms: []MatchArm{
				{Arity: 0, Body: falseBody},
				{Arity: 0, Body: trueBody},
			},
		}
		return &Let{
			Name: lit,
			Rhs:  &ExpInt{Value: ip.Value},
			Body: &Let{Name: eq, Rhs: &ExpOp{Op: "==", Left: scrutinee, Right: lit, T: HeapedType}, Body: match},
		}, nil
	}
	return step(0)
}

// RemoveDeadBindings drops Let bindings whose name is never referenced in
// their continuation, provided their right-hand side is prunable (see
// prunable): a dead ExpApp is kept, since dropping it would skip a
// function call that might not terminate, while a dead ExpOp, division
// included, is dropped.
func RemoveDeadBindings(b Body) Body {
	switch n := b.(type) {
	case *Ret:
		return n

	case *Let:
		newBody := RemoveDeadBindings(n.Body)
		if !FreeVars(newBody).Has(n.Name.Name) && prunable(n.Rhs) {
			return newBody
		}
		return &Let{Name: n.Name, Rhs: n.Rhs, Body: newBody}

	case *Match:
		arms := make([]MatchArm, len(n.Arms))
		for i, a := range n.Arms {
			arms[i] = MatchArm{Arity: a.Arity, Body: RemoveDeadBindings(a.Body)}
		}
		return &Match{Scrutinee: n.Scrutinee, Arms: arms}

	case *Inc:
		return &Inc{Var: n.Var, Body: RemoveDeadBindings(n.Body)}

	case *Dec:
		return &Dec{Var: n.Var, Body: RemoveDeadBindings(n.Body)}

	default:
		panic(fmt.Sprintf("stir: RemoveDeadBindings: unrecognized Body %T", n))
	}
}

// prunable reports whether e has no observable effect and so may be
// dropped along with its dead binder (spec.md §4.2 invariant 4): App is
// the only Exp with an observable effect (allocation / print /
// recursion), so it is never pruned. Reset and Reuse, which only C4
// introduces after this pass has run, are not pruned either.
func prunable(e Exp) bool {
	switch e.(type) {
	case *ExpInt, *ExpCtor, *ExpUTuple, *ExpProj, *ExpOp:
		return true
	default:
		return false
	}
}

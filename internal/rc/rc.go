// Package rc implements C6 (spec.md §4.5), the Perceus-style reference
// count insertion pass: given a Stir program and its C5 borrow map, it
// produces an equivalent Stir decorated with Inc and Dec nodes.
package rc

import (
	"github.com/stircomp/stirc/internal/borrow"
	"github.com/stircomp/stirc/internal/stir"
)

// InsertRC rewrites every function's body with Inc/Dec placement, then
// wraps it in owned_minus_all over its Owned parameters (spec.md §4.5
// "function-level wrap").
func InsertRC(prog *stir.Stir, beta borrow.Map) *stir.Stir {
	out := &stir.Stir{Functions: make([]*stir.Function, len(prog.Functions))}
	for i, fn := range prog.Functions {
		betaLocal := localScope(fn, beta)
		body := rc(fn.Body, betaLocal, beta)
		body = ownedMinusAll(ownedParams(fn, beta), body, betaLocal)
		out.Functions[i] = &stir.Function{ID: fn.ID, FIP: fn.FIP, ResultType: fn.ResultType, Params: fn.Params, Body: body}
	}
	return out
}

func localScope(fn *stir.Function, beta borrow.Map) map[string]borrow.Ownership {
	scope := make(map[string]borrow.Ownership, len(fn.Params))
	for i, p := range fn.Params {
		scope[p.Name] = beta[fn.ID][i]
	}
	return scope
}

func ownedParams(fn *stir.Function, beta borrow.Map) []stir.Var {
	var out []stir.Var
	for i, p := range fn.Params {
		if beta[fn.ID][i] == borrow.Owned {
			out = append(out, p)
		}
	}
	return out
}

// rc is the syntax-directed placement pass (spec.md §4.5 "Per-form
// placement"). betaLocal is the per-scope ownership map, seeded from
// parameters and extended as new heap-typed binders are introduced.
func rc(b stir.Body, betaLocal map[string]borrow.Ownership, beta borrow.Map) stir.Body {
	switch n := b.(type) {
	case *stir.Ret:
		return ownedPlus(n.Value, stir.VarSet{}, n, betaLocal)

	case *stir.Match:
		live := varsOf(stir.FreeVars(n))
		arms := make([]stir.MatchArm, len(n.Arms))
		for i, a := range n.Arms {
			armBeta := cloneScope(betaLocal)
			processed := rc(a.Body, armBeta, beta)
			arms[i] = stir.MatchArm{Arity: a.Arity, Body: ownedMinusAll(live, processed, armBeta)}
		}
		return &stir.Match{Scrutinee: n.Scrutinee, Arms: arms}

	case *stir.Let:
		return rcLet(n, betaLocal, beta)

	case *stir.Inc:
		return &stir.Inc{Var: n.Var, Body: rc(n.Body, betaLocal, beta)}

	case *stir.Dec:
		return &stir.Dec{Var: n.Var, Body: rc(n.Body, betaLocal, beta)}

	default:
		panic("rc: unrecognized Body variant")
	}
}

func rcLet(n *stir.Let, betaLocal map[string]borrow.Ownership, beta borrow.Map) stir.Body {
	switch rhs := n.Rhs.(type) {
	case *stir.ExpProj:
		srcOwned := betaLocal[rhs.Of.Name] == borrow.Owned
		if srcOwned && stir.IsHeaped(n.Name.T) {
			scope := cloneScope(betaLocal)
			scope[n.Name.Name] = borrow.Owned
			k := rc(n.Body, scope, beta)
			k = ownedMinus(rhs.Of, k, scope)
			return &stir.Let{Name: n.Name, Rhs: n.Rhs, Body: &stir.Inc{Var: n.Name, Body: k}}
		}
		scope := cloneScope(betaLocal)
		scope[n.Name.Name] = borrow.Borrowed
		return &stir.Let{Name: n.Name, Rhs: n.Rhs, Body: rc(n.Body, scope, beta)}

	case *stir.ExpApp:
		scope := cloneScope(betaLocal)
		scope[n.Name.Name] = borrow.Owned
		k := rc(n.Body, scope, beta)
		callee := beta[rhs.Fid]
		let := &stir.Let{Name: n.Name, Rhs: n.Rhs, Body: k}
		return cappy(rhs.Args, callee, let, betaLocal)

	case *stir.ExpCtor:
		return rcAllocating(n, rhs.Args, betaLocal, beta)

	case *stir.ExpUTuple:
		return rcAllocating(n, rhs.Fields, betaLocal, beta)

	case *stir.ExpReuse:
		return rcAllocating(n, rhs.Args, betaLocal, beta)

	default: // Reset, Int, Op: pass through unchanged.
		scope := cloneScope(betaLocal)
		scope[n.Name.Name] = borrow.Borrowed
		return &stir.Let{Name: n.Name, Rhs: n.Rhs, Body: rc(n.Body, scope, beta)}
	}
}

func rcAllocating(n *stir.Let, args []stir.Var, betaLocal map[string]borrow.Ownership, beta borrow.Map) stir.Body {
	scope := cloneScope(betaLocal)
	scope[n.Name.Name] = borrow.Owned
	k := rc(n.Body, scope, beta)
	ownedStatus := make([]borrow.Ownership, len(args))
	for i := range args {
		ownedStatus[i] = borrow.Owned
	}
	let := &stir.Let{Name: n.Name, Rhs: n.Rhs, Body: k}
	return cappy(args, ownedStatus, let, betaLocal)
}

// ownedPlus places Inc(v, body) unless v is owned, dead after this point,
// and heap-typed (spec.md §4.5).
func ownedPlus(v stir.Var, liveAfter stir.VarSet, body stir.Body, betaLocal map[string]borrow.Ownership) stir.Body {
	if !stir.IsHeaped(v.T) {
		return body
	}
	if betaLocal[v.Name] == borrow.Owned && !liveAfter.Has(v.Name) {
		return body
	}
	return &stir.Inc{Var: v, Body: body}
}

// ownedMinus places Dec(v, body) if v is owned, not free in body, and
// heap-typed.
func ownedMinus(v stir.Var, body stir.Body, betaLocal map[string]borrow.Ownership) stir.Body {
	if !stir.IsHeaped(v.T) {
		return body
	}
	if betaLocal[v.Name] != borrow.Owned {
		return body
	}
	if stir.FreeVars(body).Has(v.Name) {
		return body
	}
	return &stir.Dec{Var: v, Body: body}
}

// ownedMinusAll folds ownedMinus right-to-left over vs.
func ownedMinusAll(vs []stir.Var, body stir.Body, betaLocal map[string]borrow.Ownership) stir.Body {
	for i := len(vs) - 1; i >= 0; i-- {
		body = ownedMinus(vs[i], body, betaLocal)
	}
	return body
}

// cappy is the pre-call plumbing of spec.md §4.5: given the call's own
// Let(v, e, k) node, Owned arguments get an owned_plus wrapped around the
// *whole* Let — incrementing before e ever runs, since e may consume the
// argument — while Borrowed arguments get an owned_minus placed on just
// the Let's continuation k, since the call still needs them. This mirrors
// the teacher's original cappy (_examples/original_source/language/src/
// compiler/rc.rs), which recurses on the same Let node rather than on an
// already-unwrapped continuation.
func cappy(args []stir.Var, status []borrow.Ownership, let *stir.Let, betaLocal map[string]borrow.Ownership) stir.Body {
	if len(args) == 0 {
		return let
	}
	top := args[len(args)-1]
	rest := args[:len(args)-1]
	var topStatus borrow.Ownership
	if len(status) > 0 {
		topStatus = status[len(status)-1]
	}
	restStatus := status
	if len(status) > 0 {
		restStatus = status[:len(status)-1]
	}

	if topStatus == borrow.Owned {
		live := stir.FreeVars(let.Body)
		for _, a := range rest {
			live.Add(a)
		}
		return ownedPlus(top, live, cappy(rest, restStatus, let, betaLocal), betaLocal)
	}

	narrowed := &stir.Let{Name: let.Name, Rhs: let.Rhs, Body: ownedMinus(top, let.Body, betaLocal)}
	return cappy(rest, restStatus, narrowed, betaLocal)
}

func cloneScope(betaLocal map[string]borrow.Ownership) map[string]borrow.Ownership {
	out := make(map[string]borrow.Ownership, len(betaLocal))
	for k, v := range betaLocal {
		out[k] = v
	}
	return out
}

func varsOf(s stir.VarSet) []stir.Var {
	out := make([]stir.Var, 0, len(s))
	for _, v := range s {
		out = append(out, v)
	}
	return out
}

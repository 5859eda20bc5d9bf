// Package borrow implements C5 (spec.md §4.4): a monotone fixed-point
// analysis over a Stir program that classifies every function parameter
// as Borrowed or Owned.
package borrow

import "github.com/stircomp/stirc/internal/stir"

// Ownership is a parameter's classification in the Borrowed < Owned
// lattice (spec.md §4.4 invariant 3: once Owned, always Owned).
type Ownership int

const (
	Borrowed Ownership = iota
	Owned
)

// Map holds, per function id, one Ownership entry per parameter in
// declaration order.
type Map map[string][]Ownership

// Infer runs the fixed point to completion and returns the final Map.
func Infer(prog *stir.Stir) Map {
	m := make(Map, len(prog.Functions))
	for _, fn := range prog.Functions {
		m[fn.ID] = make([]Ownership, len(fn.Params))
	}

	for {
		changed := false
		for _, fn := range prog.Functions {
			consumed := collect(fn.Body, m)
			for i, p := range fn.Params {
				if m[fn.ID][i] == Borrowed && consumed[p.Name] {
					m[fn.ID][i] = Owned
					changed = true
				}
			}
		}
		if !changed {
			return m
		}
	}
}

// collect computes, under the current owner-assumptions m, the set of
// variable names transitively consumed by body (spec.md §4.4's abstract
// `collect`).
func collect(body stir.Body, m Map) map[string]bool {
	switch n := body.(type) {
	case *stir.Ret:
		return map[string]bool{}

	case *stir.Match:
		out := map[string]bool{}
		for _, a := range n.Arms {
			for name := range collect(a.Body, m) {
				out[name] = true
			}
		}
		return out

	case *stir.Let:
		k := collect(n.Body, m)
		delta := deltaFor(n.Rhs, n.Name, k, m)
		out := map[string]bool{}
		for name := range k {
			out[name] = true
		}
		for name := range delta {
			out[name] = true
		}
		return out

	case *stir.Inc:
		return collect(n.Body, m)

	case *stir.Dec:
		return collect(n.Body, m)

	default:
		panic("borrow: collect: unrecognized Body variant")
	}
}

// deltaFor is Δ(e, v, collect(k)) from spec.md §4.4.
func deltaFor(e stir.Exp, v stir.Var, k map[string]bool, m Map) map[string]bool {
	switch n := e.(type) {
	case *stir.ExpReset:
		return map[string]bool{n.Of.Name: true}

	case *stir.ExpProj:
		if k[v.Name] {
			return map[string]bool{n.Of.Name: true}
		}
		return nil

	case *stir.ExpApp:
		out := map[string]bool{}
		callee := m[n.Fid]
		for i, a := range n.Args {
			if i < len(callee) && callee[i] == Owned {
				out[a.Name] = true
			}
		}
		return out

	default:
		return nil
	}
}

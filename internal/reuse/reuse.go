// Package reuse implements C4 (spec.md §4.3): for every fip-declared
// function, it finds the point in each Match branch immediately past the
// scrutinee's last use and rewrites the first later constructor call of
// matching arity into an in-place Reuse, fed by a Reset of the scrutinee.
package reuse

import (
	"fmt"

	"github.com/stircomp/stirc/internal/sidgen"
	"github.com/stircomp/stirc/internal/stir"
	"github.com/stircomp/stirc/internal/stirerrors"
)

// InsertReuse returns a new Stir in which every fip function's body is
// rewritten and every other function is carried over untouched; prog
// itself is not modified. It fails with REUSE001 when a fip
// function still allocates a nonzero-arity block after the rewrite —
// such a function cannot honor its net-zero-allocation contract.
func InsertReuse(prog *stir.Stir) (*stir.Stir, error) {
	tokens := sidgen.NewCounter()
	out := &stir.Stir{Functions: make([]*stir.Function, len(prog.Functions))}
	for i, fn := range prog.Functions {
		if !fn.FIP {
			out.Functions[i] = fn
			continue
		}
		body := rewriteBody(fn.Body, tokens)
		if leaked := firstRemainingAllocation(body); leaked != nil {
			return nil, stirerrors.New("reuse", stirerrors.REUSE001,
				fmt.Sprintf("function %s: constructor of arity %d could not be matched to a reuse token", fn.ID, len(leaked.Args)))
		}
		out.Functions[i] = &stir.Function{ID: fn.ID, FIP: fn.FIP, ResultType: fn.ResultType, Params: fn.Params, Body: body}
	}
	return out, nil
}

func rewriteBody(b stir.Body, tokens *sidgen.Counter) stir.Body {
	switch n := b.(type) {
	case *stir.Ret:
		return n

	case *stir.Let:
		return &stir.Let{Name: n.Name, Rhs: n.Rhs, Body: rewriteBody(n.Body, tokens)}

	case *stir.Match:
		arms := make([]stir.MatchArm, len(n.Arms))
		for i, a := range n.Arms {
			body := rewriteBody(a.Body, tokens)
			if a.Arity > 0 {
				body = tryReuse(n.Scrutinee, a.Arity, body, tokens)
			}
			arms[i] = stir.MatchArm{Arity: a.Arity, Body: body}
		}
		return &stir.Match{Scrutinee: n.Scrutinee, Arms: arms}

	case *stir.Inc:
		return &stir.Inc{Var: n.Var, Body: rewriteBody(n.Body, tokens)}

	case *stir.Dec:
		return &stir.Dec{Var: n.Var, Body: rewriteBody(n.Body, tokens)}

	default:
		panic(fmt.Sprintf("reuse: rewriteBody: unrecognized Body %T", n))
	}
}

// tryReuse implements the per-branch rule of spec.md §4.3: walk the
// branch's Let chain tracking x and every name derived from it via Proj;
// find the suffix starting immediately after the last such use; rewrite
// the first Ctor of arity n in that suffix into a Reuse fed by a fresh
// Reset(x) wrapping exactly that suffix.
func tryReuse(x stir.Var, n int, body stir.Body, tokens *sidgen.Counter) stir.Body {
	lets, tail := flattenLetChain(body)

	derived := map[string]bool{x.Name: true}
	lastUse := -1
	for i, l := range lets {
		if p, ok := l.Rhs.(*stir.ExpProj); ok && derived[p.Of.Name] {
			derived[l.Name.Name] = true
			lastUse = i
			continue
		}
		if usesAny(l.Rhs, derived) {
			lastUse = i
		}
	}
	if tailUses(tail, derived) {
		lastUse = len(lets)
	}

	suffixStart := lastUse + 1
	if suffixStart > len(lets) {
		return body
	}

	for i := suffixStart; i < len(lets); i++ {
		ctor, ok := lets[i].Rhs.(*stir.ExpCtor)
		if !ok || len(ctor.Args) != n {
			continue
		}

		prefix := lets[:suffixStart]
		suffix := make([]*stir.Let, len(lets)-suffixStart)
		copy(suffix, lets[suffixStart:])
		token := stir.Var{Name: tokens.FreshToken(), T: stir.HeapedType}
		suffix[i-suffixStart] = &stir.Let{
			Name: lets[i].Name,
			Rhs:  &stir.ExpReuse{Token: token, Tag: ctor.Tag, Args: ctor.Args},
		}

		wrapped := &stir.Let{
			Name: token,
			Rhs:  &stir.ExpReset{Of: x},
			Body: rebuildLetChain(suffix, tail),
		}
		return rebuildLetChain(prefix, wrapped)
	}
	return body
}

// flattenLetChain follows a straight-line run of Lets (the only shape a
// Match branch body takes before the next Match or Ret, per spec.md §9's
// acyclic-tree design), returning them in source order plus the
// terminating Ret or Match.
func flattenLetChain(b stir.Body) ([]*stir.Let, stir.Body) {
	var lets []*stir.Let
	for {
		l, ok := b.(*stir.Let)
		if !ok {
			return lets, b
		}
		lets = append(lets, l)
		b = l.Body
	}
}

// rebuildLetChain relinks lets (whose own Body fields are ignored) around
// tail, preserving their original order.
func rebuildLetChain(lets []*stir.Let, tail stir.Body) stir.Body {
	result := tail
	for i := len(lets) - 1; i >= 0; i-- {
		result = &stir.Let{Name: lets[i].Name, Rhs: lets[i].Rhs, Body: result}
	}
	return result
}

func usesAny(e stir.Exp, names map[string]bool) bool {
	for _, v := range stir.ExpVars(e) {
		if names[v.Name] {
			return true
		}
	}
	return false
}

func tailUses(b stir.Body, names map[string]bool) bool {
	switch n := b.(type) {
	case *stir.Ret:
		return names[n.Value.Name]
	case *stir.Match:
		return names[n.Scrutinee.Name]
	default:
		return false
	}
}

// firstRemainingAllocation reports the first nonzero-arity Ctor binding
// still present anywhere in body, or nil if every such allocation was
// rewritten to a Reuse.
func firstRemainingAllocation(b stir.Body) *stir.ExpCtor {
	switch n := b.(type) {
	case *stir.Ret:
		return nil
	case *stir.Let:
		if ctor, ok := n.Rhs.(*stir.ExpCtor); ok && len(ctor.Args) > 0 {
			return ctor
		}
		return firstRemainingAllocation(n.Body)
	case *stir.Match:
		for _, a := range n.Arms {
			if ctor := firstRemainingAllocation(a.Body); ctor != nil {
				return ctor
			}
		}
		return nil
	case *stir.Inc:
		return firstRemainingAllocation(n.Body)
	case *stir.Dec:
		return firstRemainingAllocation(n.Body)
	default:
		return nil
	}
}

package stir

// VarSet collects Vars by name only. A Var is not itself comparable as a
// Go map key: its Type can carry an Unboxed []Type slice, and slices make
// a struct incomparable. Keying by name instead relies on the front-end
// contract (spec.md §6.1) that every bound name is unique within the
// function it appears in, so no two live Vars in scope ever share a name
// with different types.
type VarSet map[string]Var

func newVarSet() VarSet { return make(VarSet) }

func (s VarSet) add(v Var) { s[v.Name] = v }

func (s VarSet) remove(v Var) { delete(s, v.Name) }

func (s VarSet) union(other VarSet) {
	for _, v := range other {
		s.add(v)
	}
}

// Has reports whether name is present in the set.
func (s VarSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Add inserts v into the set, keyed by its name.
func (s VarSet) Add(v Var) { s.add(v) }

// FreeVars computes the set of Vars referenced by b but not bound within
// it (spec.md §4.6) — the liveness oracle C6 uses to decide where a Dec
// is actually needed, and the dead-binding pass (C3, spec.md §4.2) uses to
// drop a Let whose Name never appears in its continuation.
func FreeVars(b Body) VarSet {
	s := newVarSet()
	collect(b, s)
	return s
}

func collect(b Body, s VarSet) {
	switch n := b.(type) {
	case *Ret:
		s.add(n.Value)

	case *Let:
		bodySet := newVarSet()
		collect(n.Body, bodySet)
		bodySet.remove(n.Name)
		s.union(bodySet)
		for _, v := range ExpVars(n.Rhs) {
			s.add(v)
		}

	case *Match:
		s.add(n.Scrutinee)
		for _, arm := range n.Arms {
			collect(arm.Body, s)
		}

	case *Inc:
		s.add(n.Var)
		collect(n.Body, s)

	case *Dec:
		s.add(n.Var)
		collect(n.Body, s)

	default:
		panic("stir: FreeVars: unrecognized Body variant")
	}
}

// ExpVars returns the atomic Vars an Exp reads, in no particular order.
func ExpVars(e Exp) []Var {
	switch n := e.(type) {
	case *ExpInt:
		return nil
	case *ExpApp:
		return append([]Var(nil), n.Args...)
	case *ExpCtor:
		return append([]Var(nil), n.Args...)
	case *ExpProj:
		return []Var{n.Of}
	case *ExpUTuple:
		return append([]Var(nil), n.Fields...)
	case *ExpOp:
		return []Var{n.Left, n.Right}
	case *ExpReset:
		return []Var{n.Of}
	case *ExpReuse:
		return append([]Var{n.Token}, n.Args...)
	default:
		panic("stir: expVars: unrecognized Exp variant")
	}
}

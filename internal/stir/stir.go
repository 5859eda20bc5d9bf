// Package stir implements the ANF-style intermediate representation
// described in spec.md §3.3 ("Stir"), and the Simple → Stir translation
// (C3, spec.md §4.2). Every intermediate result in a Stir Body is named by
// a fresh Var; arguments to every operation are atoms (Vars), never nested
// expressions — the defining property of A-normal form.
package stir

import (
	"fmt"

	"github.com/stircomp/stirc/internal/simple"
)

// Type is re-exported from internal/simple: both stages share the same
// erased Int | Heaped | Unboxed(...) type lattice (spec.md §3.2, §3.3).
type Type = simple.Type

var IntType = simple.IntType
var HeapedType = simple.HeapedType

// IsHeaped reports whether a value of this type is ever subject to
// reference counting (spec.md §4.5: "integers are never ref-counted").
func IsHeaped(t Type) bool { return t.Kind == simple.KindHeaped }

// Var is a named, typed atom: the only thing that may appear as an operand
// to an Exp or as a Match scrutinee.
type Var struct {
	Name string
	T    Type
}

func (v Var) String() string { return v.Name }

// Exp is the right-hand side of a Let binding.
type Exp interface {
	ResultType() Type
	String() string
	expNode()
}

// ExpInt is an integer literal RHS.
type ExpInt struct {
	Value int
}

func (e *ExpInt) ResultType() Type  { return IntType }
func (e *ExpInt) expNode()          {}
func (e *ExpInt) String() string    { return fmt.Sprintf("%d", e.Value) }

// ExpApp calls a user function with atomic arguments.
type ExpApp struct {
	Fid  string
	Args []Var
	T    Type
}

func (e *ExpApp) ResultType() Type { return e.T }
func (e *ExpApp) expNode()         {}
func (e *ExpApp) String() string   { return fmt.Sprintf("%s(%v)", e.Fid, e.Args) }

// ExpCtor constructs a heap value with the given constructor tag.
type ExpCtor struct {
	Tag  int
	Args []Var
}

func (e *ExpCtor) ResultType() Type { return HeapedType }
func (e *ExpCtor) expNode()         {}
func (e *ExpCtor) String() string   { return fmt.Sprintf("Ctor(%d, %v)", e.Tag, e.Args) }

// ExpProj projects field Index out of Of. When Of is Heaped, Index is
// 0-based among the constructor's fields, not including the
// tag/arity/refcount header cells, and the projection is a real heap
// dereference. When Of is Unboxed, Index selects a field of a multi-value
// result; C7 does not dispatch on Of's Kind, so that result is also a heap
// block (allocated with tag 0) and the projection reads it the same way,
// at Index+3.
type ExpProj struct {
	Index int
	Of    Var
	T     Type
}

func (e *ExpProj) ResultType() Type { return e.T }
func (e *ExpProj) expNode()         {}
func (e *ExpProj) String() string   { return fmt.Sprintf("proj(%d, %s)", e.Index, e.Of) }

// ExpUTuple constructs an unboxed tuple.
type ExpUTuple struct {
	Fields []Var
	T      Type
}

func (e *ExpUTuple) ResultType() Type { return e.T }
func (e *ExpUTuple) expNode()         {}
func (e *ExpUTuple) String() string   { return fmt.Sprintf("(%v)", e.Fields) }

// ExpOp applies a binary operator to two atomic operands.
type ExpOp struct {
	Op    string
	Left  Var
	Right Var
	T     Type
}

func (e *ExpOp) ResultType() Type { return e.T }
func (e *ExpOp) expNode()         {}
func (e *ExpOp) String() string   { return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right) }

// ExpReset peeks at a heap Var's refcount, producing a reuse token
// (spec.md §4.3/§4.7). Only ever introduced by C4.
type ExpReset struct {
	Of Var
}

func (e *ExpReset) ResultType() Type { return HeapedType }
func (e *ExpReset) expNode()         {}
func (e *ExpReset) String() string   { return fmt.Sprintf("reset(%s)", e.Of) }

// ExpReuse rebuilds a heap value through a reset token, reusing its
// storage in place when the token is non-null (spec.md §4.3/§4.7). Only
// ever introduced by C4.
type ExpReuse struct {
	Token Var
	Tag   int
	Args  []Var
}

func (e *ExpReuse) ResultType() Type { return HeapedType }
func (e *ExpReuse) expNode()         {}
func (e *ExpReuse) String() string {
	return fmt.Sprintf("reuse(%s, %d, %v)", e.Token, e.Tag, e.Args)
}

// Body is a sequence of bindings ending in a return or a match.
type Body interface {
	String() string
	bodyNode()
}

// Ret returns a Var's value from the enclosing function.
type Ret struct {
	Value Var
}

func (b *Ret) bodyNode()      {}
func (b *Ret) String() string { return fmt.Sprintf("ret %s", b.Value) }

// Let binds Name to the result of Rhs, then continues with Body.
type Let struct {
	Name Var
	Rhs  Exp
	Body Body
}

func (b *Let) bodyNode()      {}
func (b *Let) String() string { return fmt.Sprintf("let %s = %s in %s", b.Name, b.Rhs, b.Body) }

// MatchArm is one branch of a Match, keyed by its position: per spec.md
// §3.3 invariant 2, branches are kept in ascending tag order, so a branch's
// 0-based index in Match.Arms *is* its constructor tag. Arity is recorded
// alongside for validation and for C7's AssignTagCheck lowering.
type MatchArm struct {
	Arity int
	Body  Body
}

// Match scrutinizes a heap Var's tag and dispatches to the arm whose
// index equals that tag.
type Match struct {
	Scrutinee Var
	Arms      []MatchArm
}

func (b *Match) bodyNode()      {}
func (b *Match) String() string { return fmt.Sprintf("match %s {%v}", b.Scrutinee, b.Arms) }

// Inc increments a heap Var's refcount, then continues with Body. Only
// ever introduced by C6.
type Inc struct {
	Var  Var
	Body Body
}

func (b *Inc) bodyNode()      {}
func (b *Inc) String() string { return fmt.Sprintf("inc %s; %s", b.Var, b.Body) }

// Dec decrements a heap Var's refcount (freeing it at zero), then
// continues with Body. Only ever introduced by C6.
type Dec struct {
	Var  Var
	Body Body
}

func (b *Dec) bodyNode()      {}
func (b *Dec) String() string { return fmt.Sprintf("dec %s; %s", b.Var, b.Body) }

// Function is a single Stir-level function definition.
type Function struct {
	ID         string
	FIP        bool
	ResultType []Type
	Params     []Var
	Body       Body
}

// Stir is an ordered list of Functions — the complete ANF program.
type Stir struct {
	Functions []*Function
}

// ByID returns the function with the given id, or nil.
func (s *Stir) ByID(id string) *Function {
	for _, f := range s.Functions {
		if f.ID == id {
			return f
		}
	}
	return nil
}

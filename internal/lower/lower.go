// Package lower implements C7 (spec.md §4.7): it flattens a Stir program
// (after C4/C5/C6) into the low-level imperative Prog form — the shared
// input to the external C emitter and to this module's own interpreter
// (internal/interp).
package lower

import (
	"fmt"

	"github.com/stircomp/stirc/internal/sidgen"
	"github.com/stircomp/stirc/internal/stir"
)

// Operand is an rvalue referenced by a Statement.
type Operand interface {
	String() string
	operandNode()
}

// Ident reads a local's current value.
type Ident struct{ Name string }

func (o *Ident) operandNode()   {}
func (o *Ident) String() string { return o.Name }

// Int is a raw integer literal operand — callers are responsible for
// tagged-integer encoding at the value-representation boundary (spec.md
// §6.2); within the Prog IR itself ints are untagged.
type Int struct{ Value int }

func (o *Int) operandNode()   {}
func (o *Int) String() string { return fmt.Sprintf("%d", o.Value) }

// NonShifted is a raw integer written directly into a heap header cell,
// bypassing the usual tagged encoding (spec.md §4.7: arity/refcount cells).
type NonShifted struct{ Value int }

func (o *NonShifted) operandNode()   {}
func (o *NonShifted) String() string { return fmt.Sprintf("raw(%d)", o.Value) }

// Negate reads a local's boolean value and inverts it — used by the
// Reuse token's null check.
type Negate struct{ Name string }

func (o *Negate) operandNode()   {}
func (o *Negate) String() string { return fmt.Sprintf("!%s", o.Name) }

// StorageKind distinguishes the few storage shapes Assign/AssignMalloc
// need to tell the C emitter about (spec.md §4.7's Value / VoidPtrPtr /
// None tags).
type StorageKind int

const (
	KindValue StorageKind = iota
	KindVoidPtrPtr
	KindNone
)

// Statement is one low-level imperative instruction.
type Statement interface {
	String() string
	statementNode()
}

type Assign struct {
	Kind  StorageKind
	Name  string
	Value Operand
}

func (s *Assign) statementNode() {}
func (s *Assign) String() string { return fmt.Sprintf("%s = %s", s.Name, s.Value) }

type AssignMalloc struct {
	Kind       StorageKind
	Name       string
	FieldCount int
}

func (s *AssignMalloc) statementNode() {}
func (s *AssignMalloc) String() string {
	return fmt.Sprintf("%s = malloc(%d)", s.Name, s.FieldCount)
}

type AssignToField struct {
	Name  string
	Index int
	Value Operand
}

func (s *AssignToField) statementNode() {}
func (s *AssignToField) String() string {
	return fmt.Sprintf("%s[%d] = %s", s.Name, s.Index, s.Value)
}

type AssignFromField struct {
	Name  string
	Index int
	Value Operand
}

func (s *AssignFromField) statementNode() {}
func (s *AssignFromField) String() string {
	return fmt.Sprintf("%s = %s[%d]", s.Name, s.Value, s.Index)
}

type AssignBinaryOperation struct {
	Name        string
	Op          string
	Left, Right Operand
}

func (s *AssignBinaryOperation) statementNode() {}
func (s *AssignBinaryOperation) String() string {
	return fmt.Sprintf("%s = %s %s %s", s.Name, s.Left, s.Op, s.Right)
}

// AssignTagCheck tests whether Value carries the constructor tag encoded
// by TagShifted ((tag<<1)|1), dispatching on IsHeaped the way spec.md
// §4.7's "tag-check statement's semantics" describes.
type AssignTagCheck struct {
	Name       string
	IsHeaped   bool
	Value      Operand
	TagShifted int
}

func (s *AssignTagCheck) statementNode() {}
func (s *AssignTagCheck) String() string {
	return fmt.Sprintf("%s = tagcheck(%s, heaped=%v, %d)", s.Name, s.Value, s.IsHeaped, s.TagShifted)
}

// AssignFunctionCall pushes a new call frame for Fid; the result only
// becomes visible in Name once a following AssignReturnValue reads the
// frame's return slot back out (spec.md §4.8's AssignFunctionCall never
// itself assigns L[v] — only Return followed by this does).
type AssignFunctionCall struct {
	Name string
	Fid  string
	Args []Operand
}

func (s *AssignFunctionCall) statementNode() {}
func (s *AssignFunctionCall) String() string { return fmt.Sprintf("call %s(%v) -> %s", s.Fid, s.Args, s.Name) }

// AssignReturnValue reads the pending call result into Name.
type AssignReturnValue struct{ Name string }

func (s *AssignReturnValue) statementNode() {}
func (s *AssignReturnValue) String() string { return fmt.Sprintf("%s = <return value>", s.Name) }

type AssignDropReuse struct {
	Name   string
	Source string
}

func (s *AssignDropReuse) statementNode() {}
func (s *AssignDropReuse) String() string {
	return fmt.Sprintf("%s = drop_reuse(%s)", s.Name, s.Source)
}

// IfBranch pairs a condition with the statements to run when it is true
// (evaluates to 1).
type IfBranch struct {
	Cond Operand
	Then []Statement
}

type IfElse struct{ Branches []IfBranch }

func (s *IfElse) statementNode() {}
func (s *IfElse) String() string { return fmt.Sprintf("ifelse(%d branches)", len(s.Branches)) }

type Return struct{ Value Operand }

func (s *Return) statementNode() {}
func (s *Return) String() string { return fmt.Sprintf("return %s", s.Value) }

type Print struct{ Value Operand }

func (s *Print) statementNode() {}
func (s *Print) String() string { return fmt.Sprintf("print %s", s.Value) }

type Inc struct{ Name string }

func (s *Inc) statementNode() {}
func (s *Inc) String() string { return fmt.Sprintf("inc %s", s.Name) }

type Dec struct{ Name string }

func (s *Dec) statementNode() {}
func (s *Dec) String() string { return fmt.Sprintf("dec %s", s.Name) }

// Def is a single low-level function definition.
type Def struct {
	ID     string
	Params []string
	Body   []Statement
}

// Prog is an ordered list of Defs — C7's output and the interpreter's
// input.
type Prog struct {
	Defs []*Def
}

// ByID returns the Def with the given id, or nil.
func (p *Prog) ByID(id string) *Def {
	for _, d := range p.Defs {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// Lower implements C7: every Stir Function becomes a Def with the same
// parameter names, its Body flattened to a Statement list.
func Lower(s *stir.Stir) *Prog {
	out := &Prog{Defs: make([]*Def, len(s.Functions))}
	for i, fn := range s.Functions {
		params := make([]string, len(fn.Params))
		for j, p := range fn.Params {
			params[j] = p.Name
		}
		out.Defs[i] = &Def{ID: fn.ID, Params: params, Body: lowerBody(fn.Body, sidgen.NewCounter())}
	}
	return out
}

func lowerBody(b stir.Body, tags *sidgen.Counter) []Statement {
	switch n := b.(type) {
	case *stir.Ret:
		return []Statement{&Return{Value: &Ident{Name: n.Value.Name}}}

	case *stir.Let:
		stmts := lowerLet(n, tags)
		return append(stmts, lowerBody(n.Body, tags)...)

	case *stir.Match:
		return lowerMatch(n, tags)

	case *stir.Inc:
		return append([]Statement{&Inc{Name: n.Var.Name}}, lowerBody(n.Body, tags)...)

	case *stir.Dec:
		return append([]Statement{&Dec{Name: n.Var.Name}}, lowerBody(n.Body, tags)...)

	default:
		panic(fmt.Sprintf("lower: lowerBody: unrecognized Body %T", n))
	}
}

func lowerMatch(n *stir.Match, tags *sidgen.Counter) []Statement {
	branches := make([]IfBranch, len(n.Arms))
	var checks []Statement
	for i, arm := range n.Arms {
		m := tags.Fresh("m")
		tagShifted := (i << 1) | 1
		checks = append(checks, &AssignTagCheck{
			Name:       m,
			IsHeaped:   arm.Arity != 0,
			Value:      &Ident{Name: n.Scrutinee.Name},
			TagShifted: tagShifted,
		})
		branches[i] = IfBranch{Cond: &Ident{Name: m}, Then: lowerBody(arm.Body, tags)}
	}
	return append(checks, &IfElse{Branches: branches})
}

// lowerLet returns the statements for n's binding alone — the caller
// appends the statements for n.Body.
func lowerLet(n *stir.Let, tags *sidgen.Counter) []Statement {
	v := n.Name.Name
	switch rhs := n.Rhs.(type) {
	case *stir.ExpInt:
		return []Statement{&Assign{Kind: KindValue, Name: v, Value: &Int{Value: rhs.Value}}}

	case *stir.ExpApp:
		args := make([]Operand, len(rhs.Args))
		for i, a := range rhs.Args {
			args[i] = &Ident{Name: a.Name}
		}
		return []Statement{
			&AssignFunctionCall{Name: v, Fid: rhs.Fid, Args: args},
			&AssignReturnValue{Name: v},
		}

	case *stir.ExpCtor:
		return lowerAllocating(v, rhs.Tag, rhs.Args)

	case *stir.ExpUTuple:
		// Unboxed tuples only ever name a function's packed multi-value
		// result (spec.md §3.1) and are never Match scrutinees, so the tag
		// written into the header is never inspected; 0 is as good as any.
		return lowerAllocating(v, 0, rhs.Fields)

	case *stir.ExpOp:
		return []Statement{&AssignBinaryOperation{Name: v, Op: rhs.Op, Left: &Ident{Name: rhs.Left.Name}, Right: &Ident{Name: rhs.Right.Name}}}

	case *stir.ExpProj:
		return []Statement{&AssignFromField{Name: v, Index: rhs.Index + 3, Value: &Ident{Name: rhs.Of.Name}}}

	case *stir.ExpReset:
		return []Statement{&AssignDropReuse{Name: v, Source: rhs.Of.Name}}

	case *stir.ExpReuse:
		return lowerReuse(v, rhs)

	default:
		panic(fmt.Sprintf("lower: lowerLet: unrecognized Exp %T", n.Rhs))
	}
}

func lowerAllocating(name string, tag int, args []stir.Var) []Statement {
	if len(args) == 0 {
		return []Statement{&Assign{Kind: KindValue, Name: name, Value: &Int{Value: tag}}}
	}
	n := len(args)
	stmts := []Statement{
		&AssignMalloc{Kind: KindVoidPtrPtr, Name: name, FieldCount: n},
		&AssignToField{Name: name, Index: 0, Value: &Int{Value: tag}},
		&AssignToField{Name: name, Index: 1, Value: &NonShifted{Value: n}},
		&AssignToField{Name: name, Index: 2, Value: &NonShifted{Value: 1}},
	}
	for i, a := range args {
		stmts = append(stmts, &AssignToField{Name: name, Index: 3 + i, Value: &Ident{Name: a.Name}})
	}
	return stmts
}

func lowerReuse(v string, rhs *stir.ExpReuse) []Statement {
	n := len(rhs.Args)
	t := rhs.Token.Name
	allocBranch := []Statement{
		&AssignMalloc{Kind: KindNone, Name: t, FieldCount: n},
		&AssignToField{Name: t, Index: 0, Value: &Int{Value: rhs.Tag}},
		&AssignToField{Name: t, Index: 1, Value: &NonShifted{Value: n}},
		&AssignToField{Name: t, Index: 2, Value: &NonShifted{Value: 1}},
	}
	stmts := []Statement{
		&IfElse{Branches: []IfBranch{{Cond: &Negate{Name: t}, Then: allocBranch}}},
	}
	for i, a := range rhs.Args {
		stmts = append(stmts, &AssignToField{Name: t, Index: 3 + i, Value: &Ident{Name: a.Name}})
	}
	stmts = append(stmts, &Assign{Kind: KindValue, Name: v, Value: &Ident{Name: t}})
	return stmts
}

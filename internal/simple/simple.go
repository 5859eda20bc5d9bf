// Package simple implements the desugared, still-typed intermediate form
// described in spec.md §3.2: the output of lowering a source internal/ast
// TypedNode tree (C2, spec.md §4.1). Simple distinguishes operator calls
// from constructor calls from user-function calls, and erases every source
// Type down to one of Int, Heaped, or an Unboxed tuple of those — "Heaped"
// being the erased representation of any ADT value regardless of whether a
// particular constructor happens to be represented as a tagged integer at
// runtime (spec.md §4.1 "atomic constructors ... never heap-allocated");
// the interpreter's Inc/Dec (spec.md §4.8) already no-op on non-pointer
// cells, so marking every ADT-typed value Heaped here is safe and keeps
// this erasure a pure function of the source type.
package simple

import (
	"fmt"
	"strings"

	"github.com/stircomp/stirc/internal/ast"
)

// Kind is the erased type of a Simple node.
type Kind int

const (
	KindInt Kind = iota
	KindHeaped
	KindUnboxed
)

// Type is the erased type carried by every Simple node.
type Type struct {
	Kind    Kind
	Unboxed []Type // populated iff Kind == KindUnboxed
}

func (t Type) String() string {
	switch t.Kind {
	case KindInt:
		return "Int"
	case KindHeaped:
		return "Heaped"
	default:
		parts := make([]string, len(t.Unboxed))
		for i, u := range t.Unboxed {
			parts[i] = u.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
}

var IntType = Type{Kind: KindInt}
var HeapedType = Type{Kind: KindHeaped}

// Erase converts a source ast.Type to its erased Simple Kind.
func Erase(t ast.Type) Type {
	if t.Kind == ast.KindInt {
		return IntType
	}
	return HeapedType
}

// EraseExprType converts a source ast.ExpressionType to its erased form.
func EraseExprType(e ast.ExpressionType) Type {
	if e.IsSingle() {
		return Erase(e.AsSingle())
	}
	ts := make([]Type, len(e.Tuple))
	for i, t := range e.Tuple {
		ts[i] = Erase(t)
	}
	return Type{Kind: KindUnboxed, Unboxed: ts}
}

// Node is the interface satisfied by every Simple expression variant.
type Node interface {
	Ty() Type
	String() string
	simpleNode()
}

// Ident is a reference to a bound name.
type Ident struct {
	Name string
	T    Type
}

func (i *Ident) Ty() Type      { return i.T }
func (i *Ident) simpleNode()   {}
func (i *Ident) String() string { return i.Name }

// Int is an integer literal.
type Int struct {
	Value int
}

func (n *Int) Ty() Type      { return IntType }
func (n *Int) simpleNode()   {}
func (n *Int) String() string { return fmt.Sprintf("%d", n.Value) }

// Operation is a binary arithmetic or comparison operator call.
type Operation struct {
	Op    string
	Left  Node
	Right Node
	T     Type // Int for arithmetic, Heaped(Bool) for comparisons
}

func (o *Operation) Ty() Type      { return o.T }
func (o *Operation) simpleNode()   {}
func (o *Operation) String() string { return fmt.Sprintf("(%s %s %s)", o.Left, o.Op, o.Right) }

// Constructor builds a value of some ADT via its sibling tag.
type Constructor struct {
	Tag  int
	Args []Node
	T    Type // always HeapedType
}

func (c *Constructor) Ty() Type    { return c.T }
func (c *Constructor) simpleNode() {}
func (c *Constructor) String() string {
	return fmt.Sprintf("Ctor(%d, %v)", c.Tag, c.Args)
}

// App is a user-function call.
type App struct {
	Fid  string
	Args []Node
	T    Type
}

func (a *App) Ty() Type      { return a.T }
func (a *App) simpleNode()   {}
func (a *App) String() string { return fmt.Sprintf("%s(%v)", a.Fid, a.Args) }

// Pattern is a single Match branch's pattern.
type Pattern interface {
	patternNode()
	String() string
}

// IntPattern matches an integer scrutinee exactly.
type IntPattern struct{ Value int }

func (p *IntPattern) patternNode()    {}
func (p *IntPattern) String() string { return fmt.Sprintf("%d", p.Value) }

// CtorPattern matches a constructor tag and binds its fields left to
// right. Types parallels Bindings with each field's erased type, carried
// forward from the constructor's declared argument types so later stages
// never need to re-resolve the source ADT declaration.
type CtorPattern struct {
	Tag      int
	Arity    int // the constructor's true field count
	Bindings []string
	Types    []Type
}

func (p *CtorPattern) patternNode()    {}
func (p *CtorPattern) String() string { return fmt.Sprintf("Ctor(%d, %v)", p.Tag, p.Bindings) }

// WildcardPattern matches anything; may only be the last branch.
type WildcardPattern struct{}

func (p *WildcardPattern) patternNode()    {}
func (p *WildcardPattern) String() string { return "_" }

// Branch pairs a pattern with the expression to run when it matches.
type Branch struct {
	Pattern Pattern
	Body    Node
}

// Match is a pattern match on an Ident scrutinee (spec.md §4.1: the
// front-end contract guarantees every scrutinee is a variable reference).
type Match struct {
	Scrutinee *Ident
	Branches  []Branch
	T         Type
}

func (m *Match) Ty() Type      { return m.T }
func (m *Match) simpleNode()   {}
func (m *Match) String() string { return fmt.Sprintf("match %s {%v}", m.Scrutinee, m.Branches) }

// Let binds a single name to Rhs, then evaluates Body.
type Let struct {
	Name string
	Rhs  Node
	Body Node
}

func (l *Let) Ty() Type      { return l.Body.Ty() }
func (l *Let) simpleNode()   {}
func (l *Let) String() string { return fmt.Sprintf("let %s = %s in %s", l.Name, l.Rhs, l.Body) }

// LetApp destructures an unboxed tuple Rhs into Names, then evaluates
// Body.
type LetApp struct {
	Names []string
	Rhs   Node
	Body  Node
}

func (l *LetApp) Ty() Type      { return l.Body.Ty() }
func (l *LetApp) simpleNode()   {}
func (l *LetApp) String() string {
	return fmt.Sprintf("let %v = %s in %s", l.Names, l.Rhs, l.Body)
}

// UTuple constructs an unboxed tuple.
type UTuple struct {
	Fields []Node
	T      Type
}

func (u *UTuple) Ty() Type      { return u.T }
func (u *UTuple) simpleNode()   {}
func (u *UTuple) String() string { return fmt.Sprintf("(%v)", u.Fields) }

// Function is a Simple-level function: its parameter names (types come
// from Signature), its signature, and its desugared body.
type Function struct {
	ID        string
	Params    []string
	Signature ast.FunctionSignature
	Body      Node
}

// Program is a fully lowered Simple program, function-by-function.
type Program struct {
	ADTs         map[string][]string
	Constructors map[string]ast.ConstructorInfo
	Functions    map[string]*Function
}

package simple

import (
	"fmt"
	"sort"

	"github.com/stircomp/stirc/internal/ast"
	"github.com/stircomp/stirc/internal/stirerrors"
)

// LowerProgram implements C2 (spec.md §4.1): it rewrites every FunctionCall
// in the input ast.Program into an Operation, a Constructor, or an App,
// and flattens every LetEqualIn into a Let or a LetApp.
func LowerProgram(prog *ast.Program) (*Program, error) {
	if err := ast.Validate(prog); err != nil {
		return nil, err
	}

	out := &Program{
		ADTs:         prog.ADTs,
		Constructors: prog.Constructors,
		Functions:    make(map[string]*Function, len(prog.Functions)),
	}

	lowerer := &lowering{prog: prog}
	for name, fn := range prog.Functions {
		body, err := lowerer.lowerNode(fn.Body)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", name, err)
		}
		out.Functions[name] = &Function{
			ID:        name,
			Params:    fn.Params,
			Signature: fn.Signature,
			Body:      body,
		}
	}
	return out, nil
}

type lowering struct {
	prog *ast.Program
}

func (l *lowering) lowerNode(n ast.TypedNode) (Node, error) {
	switch e := n.(type) {
	case *ast.Integer:
		return &Int{Value: e.Value}, nil

	case *ast.Variable:
		return &Ident{Name: e.Name, T: EraseExprType(e.ExprType)}, nil

	case *ast.FunctionCall:
		return l.lowerCall(e)

	case *ast.Match:
		return l.lowerMatch(e)

	case *ast.LetEqualIn:
		return l.lowerLet(e)

	case *ast.UTuple:
		fields := make([]Node, len(e.Fields))
		for i, f := range e.Fields {
			lf, err := l.lowerNode(f)
			if err != nil {
				return nil, err
			}
			fields[i] = lf
		}
		return &UTuple{Fields: fields, T: EraseExprType(e.ExprType)}, nil

	default:
		return nil, stirerrors.NewAt("simple", stirerrors.AST001, n.Meta().NodeID, "unrecognized typed node")
	}
}

func (l *lowering) lowerArgs(args []ast.TypedNode) ([]Node, error) {
	out := make([]Node, len(args))
	for i, a := range args {
		la, err := l.lowerNode(a)
		if err != nil {
			return nil, err
		}
		out[i] = la
	}
	return out, nil
}

func (l *lowering) lowerCall(e *ast.FunctionCall) (Node, error) {
	args, err := l.lowerArgs(e.Args)
	if err != nil {
		return nil, err
	}

	if ast.IsOperator(e.Func) {
		if len(args) != 2 {
			return nil, stirerrors.NewAt("simple", stirerrors.SIMPLE001, e.NodeID,
				fmt.Sprintf("operator %q requires exactly 2 arguments, got %d", e.Func, len(args)))
		}
		return &Operation{Op: e.Func, Left: args[0], Right: args[1], T: EraseExprType(e.ExprType)}, nil
	}

	if ctor, ok := l.prog.Constructors[e.Func]; ok {
		if len(args) != len(ctor.ArgTypes) {
			return nil, stirerrors.NewAt("simple", stirerrors.SIMPLE001, e.NodeID,
				fmt.Sprintf("constructor %q expects %d arguments, got %d", e.Func, len(ctor.ArgTypes), len(args)))
		}
		if len(args) == 0 {
			// Atomic constructor: represented directly as a tagged integer
			// (spec.md §4.1), never wrapped in a Constructor node.
			return &Int{Value: ctor.Sibling}, nil
		}
		return &Constructor{Tag: ctor.Sibling, Args: args, T: HeapedType}, nil
	}

	fn, ok := l.prog.Functions[e.Func]
	if !ok {
		return nil, stirerrors.NewAt("simple", stirerrors.AST001, e.NodeID, fmt.Sprintf("unknown callee %q", e.Func))
	}
	if len(args) != len(fn.Signature.ArgTypes) {
		return nil, stirerrors.NewAt("simple", stirerrors.SIMPLE001, e.NodeID,
			fmt.Sprintf("function %q expects %d arguments, got %d", e.Func, len(fn.Signature.ArgTypes), len(args)))
	}
	return &App{Fid: e.Func, Args: args, T: EraseExprType(e.ExprType)}, nil
}

func (l *lowering) lowerMatch(e *ast.Match) (Node, error) {
	scrutinee := &Ident{Name: e.Scrutinee.Name, T: EraseExprType(e.Scrutinee.ExprType)}

	var intPatternSeen, wildcardSeen bool
	ctorTagsSeen := map[int]bool{}
	branches := make([]Branch, len(e.Cases))
	for i, c := range e.Cases {
		body, err := l.lowerNode(c.Body)
		if err != nil {
			return nil, err
		}
		var pat Pattern
		switch p := c.Pattern.(type) {
		case *ast.IntPattern:
			pat = &IntPattern{Value: p.Value}
			intPatternSeen = true
		case *ast.ConstructorPattern:
			ctor, ok := l.prog.Constructors[p.Ctor]
			if !ok {
				return nil, stirerrors.NewAt("simple", stirerrors.AST001, e.NodeID, fmt.Sprintf("unknown constructor %q in pattern", p.Ctor))
			}
			names := make([]string, len(p.Bindings))
			for j, b := range p.Bindings {
				names[j] = b.Name
			}
			types := make([]Type, len(ctor.ArgTypes))
			for j, t := range ctor.ArgTypes {
				types[j] = Erase(t)
			}
			pat = &CtorPattern{Tag: ctor.Sibling, Arity: len(ctor.ArgTypes), Bindings: names, Types: types}
			ctorTagsSeen[ctor.Sibling] = true
		case *ast.WildcardPattern:
			pat = &WildcardPattern{}
			wildcardSeen = true
		default:
			return nil, stirerrors.NewAt("simple", stirerrors.AST001, e.NodeID, "unrecognized pattern kind")
		}
		branches[i] = Branch{Pattern: pat, Body: body}
	}

	if intPatternSeen && !wildcardSeen {
		return nil, stirerrors.NewAt("simple", stirerrors.SIMPLE002, e.NodeID, "integer scrutinee match requires a catch-all wildcard case")
	}

	// Stir's Match (C3/C7) dispatches by 0-based sibling tag position, so
	// every constructor of the scrutinee's ADT must have its own arm. A
	// wildcard case is expanded here — one tag-keyed arm per uncovered
	// sibling, each re-lowering the wildcard's body — rather than carried
	// as a literal wildcard into Stir; this restores the contiguous
	// tag-to-position correspondence C7's positional AssignTagCheck loop
	// depends on. Without a wildcard, every sibling must already be
	// explicitly covered (checked below).
	if !intPatternSeen {
		adtName := e.Scrutinee.ExprType.AsSingle().ADT
		if adtName != "" {
			var wildcardBody ast.TypedNode
			filtered := branches[:0:0]
			for i, b := range branches {
				if _, ok := b.Pattern.(*WildcardPattern); ok {
					wildcardBody = e.Cases[i].Body
					continue
				}
				filtered = append(filtered, b)
			}
			for _, ctorName := range l.prog.ADTs[adtName] {
				ctor := l.prog.Constructors[ctorName]
				if ctorTagsSeen[ctor.Sibling] {
					continue
				}
				if wildcardBody == nil {
					return nil, stirerrors.NewAt("simple", stirerrors.SIMPLE002, e.NodeID,
						fmt.Sprintf("match on %s is missing a case for constructor %q", adtName, ctorName))
				}
				body, err := l.lowerNode(wildcardBody)
				if err != nil {
					return nil, err
				}
				// The wildcard body binds no fields, but the arm still
				// carries the constructor's true arity: C7's heaped/arity
				// check (spec.md §4.7) needs it even when nothing here
				// names the fields.
				filtered = append(filtered, Branch{Pattern: &CtorPattern{Tag: ctor.Sibling, Arity: len(ctor.ArgTypes)}, Body: body})
			}
			branches = filtered
			sort.Slice(branches, func(i, j int) bool {
				return branches[i].Pattern.(*CtorPattern).Tag < branches[j].Pattern.(*CtorPattern).Tag
			})
		}
	}

	return &Match{Scrutinee: scrutinee, Branches: branches, T: EraseExprType(e.ExprType)}, nil
}

func (l *lowering) lowerLet(e *ast.LetEqualIn) (Node, error) {
	rhs, err := l.lowerNode(e.Value)
	if err != nil {
		return nil, err
	}
	body, err := l.lowerNode(e.Body)
	if err != nil {
		return nil, err
	}
	if len(e.Names) == 1 {
		return &Let{Name: e.Names[0].Name, Rhs: rhs, Body: body}, nil
	}
	names := make([]string, len(e.Names))
	for i, n := range e.Names {
		names[i] = n.Name
	}
	return &LetApp{Names: names, Rhs: rhs, Body: body}, nil
}

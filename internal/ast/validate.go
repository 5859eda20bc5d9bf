package ast

import (
	"fmt"

	"github.com/stircomp/stirc/internal/stirerrors"
)

// knownOperators are the built-in arithmetic/comparison identifiers that
// internal/simple rewrites to Operation nodes rather than App/Constructor
// nodes (spec.md §4.1).
var knownOperators = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	">": true, "<": true, ">=": true, "<=": true, "==": true, "!=": true,
}

// IsOperator reports whether name is a built-in operator identifier.
func IsOperator(name string) bool { return knownOperators[name] }

// Validate checks a Program against the front-end contract of spec.md
// §6.1. It is the acceptance gate between the (out-of-scope) front end and
// internal/simple: every invariant checked here is one internal/simple is
// entitled to assume without re-checking.
func Validate(prog *Program) error {
	v := &validator{prog: prog, seen: map[string]string{}}
	return v.run()
}

type validator struct {
	prog *Program
	seen map[string]string // identifier -> which namespace claimed it first
}

func (v *validator) run() error {
	if err := v.claimNamespaces(); err != nil {
		return err
	}
	if err := v.checkConstructorSiblings(); err != nil {
		return err
	}
	if err := v.checkBool(); err != nil {
		return err
	}
	if err := v.checkMain(); err != nil {
		return err
	}
	for name, fn := range v.prog.Functions {
		if err := v.checkNode(fn.Body); err != nil {
			return fmt.Errorf("function %s: %w", name, err)
		}
	}
	return nil
}

// claimNamespaces enforces that constructor ids and function ids are
// disjoint (spec.md §3.1 "Keys across the three mappings are disjoint").
func (v *validator) claimNamespaces() error {
	for ctor := range v.prog.Constructors {
		if other, ok := v.seen[ctor]; ok {
			return stirerrors.New("ast", stirerrors.AST001,
				fmt.Sprintf("identifier %q declared as both %s and constructor", ctor, other))
		}
		v.seen[ctor] = "constructor"
	}
	for fn := range v.prog.Functions {
		if other, ok := v.seen[fn]; ok {
			return stirerrors.New("ast", stirerrors.AST001,
				fmt.Sprintf("identifier %q declared as both %s and function", fn, other))
		}
		v.seen[fn] = "function"
	}
	return nil
}

func (v *validator) checkConstructorSiblings() error {
	for adt, ctorNames := range v.prog.ADTs {
		seenSibling := make([]bool, len(ctorNames))
		for _, name := range ctorNames {
			info, ok := v.prog.Constructors[name]
			if !ok {
				return stirerrors.New("ast", stirerrors.AST001,
					fmt.Sprintf("ADT %q lists undeclared constructor %q", adt, name))
			}
			if info.Sibling < 0 || info.Sibling >= len(ctorNames) {
				return stirerrors.New("ast", stirerrors.AST001,
					fmt.Sprintf("constructor %q has out-of-range sibling index %d for ADT %q", name, info.Sibling, adt))
			}
			if seenSibling[info.Sibling] {
				return stirerrors.New("ast", stirerrors.AST001,
					fmt.Sprintf("ADT %q has two constructors with sibling index %d", adt, info.Sibling))
			}
			seenSibling[info.Sibling] = true
		}
	}
	return nil
}

func (v *validator) checkBool() error {
	ctors, ok := v.prog.ADTs[BuiltinBoolADT]
	if !ok || len(ctors) != 2 {
		return stirerrors.New("ast", stirerrors.AST001, "implicit Bool = {False, True} ADT is missing")
	}
	return nil
}

func (v *validator) checkMain() error {
	main, ok := v.prog.Functions["main"]
	if !ok {
		return stirerrors.New("ast", stirerrors.AST001, "program has no main function")
	}
	if len(main.Params) != 0 {
		return stirerrors.New("ast", stirerrors.AST001, "main function must take zero parameters")
	}
	return nil
}

// checkNode walks a typed tree checking that every Variable resolves in
// its enclosing scope and every FunctionCall names an operator, a
// constructor, or a user function.
func (v *validator) checkNode(node TypedNode) error {
	if node == nil {
		return nil
	}
	switch n := node.(type) {
	case *Variable:
		def, ok := n.Scope[n.Name]
		if !ok || def.ID != n.DefID {
			return stirerrors.NewAt("ast", stirerrors.AST001, n.NodeID,
				fmt.Sprintf("variable %q not found in enclosing scope", n.Name))
		}
		return nil
	case *Integer:
		return nil
	case *FunctionCall:
		if !IsOperator(n.Func) {
			_, isCtor := v.prog.Constructors[n.Func]
			_, isFn := v.prog.Functions[n.Func]
			if !isCtor && !isFn {
				return stirerrors.NewAt("ast", stirerrors.AST001, n.NodeID,
					fmt.Sprintf("unknown function or constructor %q", n.Func))
			}
		}
		for _, arg := range n.Args {
			if err := v.checkNode(arg); err != nil {
				return err
			}
		}
		return nil
	case *Match:
		if err := v.checkNode(n.Scrutinee); err != nil {
			return err
		}
		sawWildcard := false
		for _, c := range n.Cases {
			_, isWildcard := c.Pattern.(*WildcardPattern)
			if sawWildcard {
				if isWildcard {
					return stirerrors.NewAt("ast", stirerrors.ANF002, n.NodeID, "more than one wildcard case")
				}
				return stirerrors.NewAt("ast", stirerrors.ANF003, n.NodeID, "case follows wildcard case")
			}
			if isWildcard {
				sawWildcard = true
			}
			if err := v.checkNode(c.Body); err != nil {
				return err
			}
		}
		return nil
	case *LetEqualIn:
		if err := v.checkNode(n.Value); err != nil {
			return err
		}
		return v.checkNode(n.Body)
	case *UTuple:
		for _, f := range n.Fields {
			if err := v.checkNode(f); err != nil {
				return err
			}
		}
		return nil
	default:
		return stirerrors.NewAt("ast", stirerrors.AST001, node.Meta().NodeID, "unrecognized node kind")
	}
}

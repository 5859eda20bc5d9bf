package ast

import "testing"

func boolProgram() *Program {
	adts := map[string][]string{}
	ctors := map[string]ConstructorInfo{}
	adts, ctors = WithBuiltinBool(adts, ctors)
	return &Program{
		ADTs:         adts,
		Constructors: ctors,
		Functions: map[string]FunctionInfo{
			"main": {
				Params:    nil,
				Signature: FunctionSignature{ResultType: []Type{IntType}},
				Body:      &Integer{Value: 42},
			},
		},
	}
}

func TestValidateAcceptsMinimalProgram(t *testing.T) {
	if err := Validate(boolProgram()); err != nil {
		t.Fatalf("expected valid program, got %v", err)
	}
}

func TestValidateRejectsMissingMain(t *testing.T) {
	p := boolProgram()
	delete(p.Functions, "main")
	if err := Validate(p); err == nil {
		t.Fatal("expected error for missing main")
	}
}

func TestValidateRejectsMainWithParams(t *testing.T) {
	p := boolProgram()
	p.Functions["main"] = FunctionInfo{Params: []string{"x"}, Body: &Integer{Value: 1}}
	if err := Validate(p); err == nil {
		t.Fatal("expected error for main with params")
	}
}

func TestValidateRejectsDuplicateSiblingIndex(t *testing.T) {
	p := boolProgram()
	p.ADTs["List"] = []string{"Nil", "Cons"}
	p.Constructors["Nil"] = ConstructorInfo{ADT: "List", Sibling: 0}
	p.Constructors["Cons"] = ConstructorInfo{ADT: "List", Sibling: 0, ArgTypes: []Type{IntType, ADTType("List")}}
	if err := Validate(p); err == nil {
		t.Fatal("expected error for duplicate sibling index")
	}
}

func TestValidateRejectsUnknownFunctionCall(t *testing.T) {
	p := boolProgram()
	p.Functions["main"] = FunctionInfo{
		Body: &FunctionCall{Func: "doesNotExist"},
	}
	if err := Validate(p); err == nil {
		t.Fatal("expected error for unknown function call")
	}
}

func TestValidateRejectsCaseAfterWildcard(t *testing.T) {
	p := boolProgram()
	scope := Scope{"b": {ID: 1, Name: "b"}}
	p.Functions["main"] = FunctionInfo{
		Body: &Match{
			Scrutinee: &Variable{NodeMeta: NodeMeta{Scope: scope}, Name: "b", DefID: 1},
			Cases: []MatchCase{
				{Pattern: &WildcardPattern{}, Body: &Integer{Value: 0}},
				{Pattern: &IntPattern{Value: 1}, Body: &Integer{Value: 1}},
			},
		},
	}
	if err := Validate(p); err == nil {
		t.Fatal("expected error for case after wildcard")
	}
}

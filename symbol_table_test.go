package main

import (
	"errors"
	"reflect"
	"testing"
)

func TestSymbolTable(t *testing.T) {
	t.Run("ClassScopeKinds", func(t *testing.T) {
		s := NewSymbolTable()
		s.Define("Main", "", ClassSymbol)
		s.Define("x", "int", FieldSymbol)
		s.Define("y", "int", FieldSymbol)
		s.Define("count", "int", StaticSymbol)
		s.Define("run", "void", SubroutineSymbol)

		for _, name := range []string{"Main", "x", "y", "count", "run"} {
			if !s.IsDefined(name) {
				t.Errorf("%s: expected defined", name)
			}
			if s.IsLocal(name) {
				t.Errorf("%s: expected class scope, got local", name)
			}
		}
		if s.IsDefined("z") {
			t.Errorf("z: expected undefined")
		}

		kind, err := s.KindOf("y")
		if err != nil || kind != FieldSymbol {
			t.Errorf("y kind: expected field, got %q (%v)", kind, err)
		}
		variableType, err := s.TypeOf("count")
		if err != nil || variableType != "int" {
			t.Errorf("count type: expected int, got %q (%v)", variableType, err)
		}
	})

	t.Run("Indices", func(t *testing.T) {
		s := NewSymbolTable()
		a, _ := s.Define("a", "int", FieldSymbol)
		b, _ := s.Define("b", "int", FieldSymbol)
		c, _ := s.Define("c", "int", StaticSymbol)
		d, _ := s.Define("d", "int", ArgumentSymbol)

		if a.Index != 0 || b.Index != 1 {
			t.Errorf("field indices: expected 0, 1, got %d, %d", a.Index, b.Index)
		}
		if c.Index != 0 || d.Index != 0 {
			t.Errorf("static/argument indices: expected 0, 0, got %d, %d", c.Index, d.Index)
		}
		if got := s.Count(FieldSymbol); got != 2 {
			t.Errorf("field count: expected 2, got %d", got)
		}
		if got := s.Count(VarSymbol); got != 0 {
			t.Errorf("var count: expected 0, got %d", got)
		}
	})

	t.Run("StartSubroutineDiscardsLocals", func(t *testing.T) {
		s := NewSymbolTable()
		s.Define("i", "int", FieldSymbol)
		s.StartSubroutine()
		s.Define("n", "int", ArgumentSymbol)
		s.Define("i", "char", VarSymbol)

		if !s.IsLocal("n") || !s.IsLocal("i") {
			t.Fatalf("expected n and i to be local")
		}

		s.StartSubroutine()
		if s.IsDefined("n") {
			t.Errorf("n: expected undefined after StartSubroutine")
		}
		if s.IsLocal("i") {
			t.Errorf("i: expected not local after StartSubroutine")
		}
		if !s.IsDefined("i") {
			t.Errorf("i: expected class-scope i to remain defined")
		}
	})

	t.Run("LocalShadowsClass", func(t *testing.T) {
		s := NewSymbolTable()
		s.Define("i", "int", FieldSymbol)
		s.Define("i", "Array", VarSymbol)

		symbol, err := s.Lookup("i")
		if err != nil {
			t.Fatal(err)
		}
		if symbol.Kind != VarSymbol || symbol.VariableType != "Array" {
			t.Errorf("expected local var Array, got %+v", symbol)
		}
		scope, _ := s.ScopeOf("i")
		if scope != FunctionScope {
			t.Errorf("expected FunctionScope, got %s", scope)
		}
	})

	t.Run("RedefinitionOverwrites", func(t *testing.T) {
		s := NewSymbolTable()
		s.Define("x", "int", FieldSymbol)
		s.Define("y", "int", FieldSymbol)
		symbol, err := s.Define("x", "boolean", FieldSymbol)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if symbol.Index != 0 {
			t.Errorf("expected redefinition to keep index 0, got %d", symbol.Index)
		}
		variableType, _ := s.TypeOf("x")
		if variableType != "boolean" {
			t.Errorf("expected last write to win, got %q", variableType)
		}
	})

	t.Run("StrictRejectsRedefinition", func(t *testing.T) {
		s := NewSymbolTable(WithStrictDeclarations(true))
		s.Define("x", "int", FieldSymbol)
		_, err := s.Define("x", "boolean", StaticSymbol)
		if !errors.Is(err, ErrRedeclared) {
			t.Fatalf("expected ErrRedeclared, got %v", err)
		}
		variableType, _ := s.TypeOf("x")
		if variableType != "int" {
			t.Errorf("expected original declaration to survive, got %q", variableType)
		}

		// Different scopes never collide
		if _, err := s.Define("x", "char", VarSymbol); err != nil {
			t.Errorf("local x: unexpected error %v", err)
		}
	})

	t.Run("StrictAllowsMethodNamedLikeField", func(t *testing.T) {
		s := NewSymbolTable(WithStrictDeclarations(true))
		if _, err := s.Define("size", "Array", FieldSymbol); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Define("size", "int", SubroutineSymbol); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := s.Define("size", "void", SubroutineSymbol); !errors.Is(err, ErrRedeclared) {
			t.Errorf("second subroutine: expected ErrRedeclared, got %v", err)
		}

		// the field keeps answering lookups
		if variableType, _ := s.TypeOf("size"); variableType != "Array" {
			t.Errorf("expected field type Array, got %q", variableType)
		}
		expected := []Symbol{
			{Name: "size", Kind: FieldSymbol, VariableType: "Array"},
			{Name: "size", Kind: SubroutineSymbol, VariableType: "int"},
		}
		if got := s.Symbols(ClassScope); !reflect.DeepEqual(expected, got) {
			t.Errorf("expected %+v, got %+v", expected, got)
		}
	})

	t.Run("UndefinedLookup", func(t *testing.T) {
		s := NewSymbolTable()
		if _, err := s.TypeOf("missing"); !errors.Is(err, ErrUndefinedSymbol) {
			t.Errorf("TypeOf: expected ErrUndefinedSymbol, got %v", err)
		}
		if _, err := s.KindOf("missing"); !errors.Is(err, ErrUndefinedSymbol) {
			t.Errorf("KindOf: expected ErrUndefinedSymbol, got %v", err)
		}
		if _, err := s.ScopeOf("missing"); !errors.Is(err, ErrUndefinedSymbol) {
			t.Errorf("ScopeOf: expected ErrUndefinedSymbol, got %v", err)
		}
	})

	t.Run("SymbolsOrdered", func(t *testing.T) {
		s := NewSymbolTable()
		s.Define("run", "void", SubroutineSymbol)
		s.Define("b", "int", FieldSymbol)
		s.Define("a", "int", FieldSymbol)
		s.Define("Main", "", ClassSymbol)
		s.Define("total", "int", StaticSymbol)

		expected := []Symbol{
			{Name: "Main", Kind: ClassSymbol},
			{Name: "total", Kind: StaticSymbol, VariableType: "int"},
			{Name: "b", Kind: FieldSymbol, VariableType: "int", Index: 0},
			{Name: "a", Kind: FieldSymbol, VariableType: "int", Index: 1},
			{Name: "run", Kind: SubroutineSymbol, VariableType: "void"},
		}
		if got := s.Symbols(ClassScope); !reflect.DeepEqual(expected, got) {
			t.Errorf("expected %+v, got %+v", expected, got)
		}
		if got := s.Symbols(FunctionScope); len(got) != 0 {
			t.Errorf("expected empty function scope, got %+v", got)
		}
	})
}

func TestSymbolIsArray(t *testing.T) {
	tests := map[string]bool{
		"Array": true,
		"array": false,
		"int":   false,
		"":      false,
	}
	for variableType, expected := range tests {
		if got := (Symbol{VariableType: variableType}).IsArray(); got != expected {
			t.Errorf("%q: expected %v, got %v", variableType, expected, got)
		}
	}
}

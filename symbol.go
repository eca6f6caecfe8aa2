package main

type SymbolKind string

const (
	StaticSymbol     SymbolKind = "static"
	FieldSymbol      SymbolKind = "field"
	ArgumentSymbol   SymbolKind = "argument"
	VarSymbol        SymbolKind = "var"
	ClassSymbol      SymbolKind = "class"
	SubroutineSymbol SymbolKind = "subroutine"
	InvalidSymbol    SymbolKind = ""
)

// Scope reports which table a kind is stored in.
func (k SymbolKind) Scope() Scope {
	switch k {
	case ArgumentSymbol, VarSymbol:
		return FunctionScope
	default:
		return ClassScope
	}
}

// Symbol is the record of one declared name. It is never mutated after
// Define returns it.
type Symbol struct {
	Name         string     `yaml:"name"`
	Kind         SymbolKind `yaml:"kind"`
	VariableType string     `yaml:"type,omitempty"`
	Index        int        `yaml:"index"`
}

// IsArray reports whether the symbol may be indexed. Only the library class
// Array qualifies.
func (s Symbol) IsArray() bool {
	return s.VariableType == arrayTypeName
}

const arrayTypeName = "Array"

package main

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

type Scope string

const (
	FunctionScope Scope = "FunctionScope"
	ClassScope    Scope = "ClassScope"
)

var (
	ErrUndefinedSymbol = errors.New("undefined symbol")
	ErrRedeclared      = errors.New("symbol already declared in this scope")
)

type SymbolTable struct {
	classScopeTable    map[string]Symbol
	functionScopeTable map[string]Symbol
	// subroutine names live beside the class variables so a field and a
	// method may share a name
	subroutineTable map[string]Symbol

	// strict rejects a second variable, or a second subroutine, of one name
	// within one scope
	strict bool
	log    *zap.Logger
}

type SymbolTableOption func(*SymbolTable)

func WithStrictDeclarations(strict bool) SymbolTableOption {
	return func(s *SymbolTable) {
		s.strict = strict
	}
}

func WithSymbolLogger(log *zap.Logger) SymbolTableOption {
	return func(s *SymbolTable) {
		s.log = log
	}
}

func NewSymbolTable(opts ...SymbolTableOption) *SymbolTable {
	s := &SymbolTable{
		classScopeTable:    make(map[string]Symbol),
		functionScopeTable: make(map[string]Symbol),
		subroutineTable:    make(map[string]Symbol),
		log:                zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func nextIndex(table map[string]Symbol, kind SymbolKind) (index int) {
	for _, symbol := range table {
		if symbol.Kind == kind {
			index += 1
		}
	}
	return
}

func (s *SymbolTable) table(scope Scope) map[string]Symbol {
	if scope == FunctionScope {
		return s.functionScopeTable
	}
	return s.classScopeTable
}

func (s *SymbolTable) tableFor(kind SymbolKind) map[string]Symbol {
	if kind == SubroutineSymbol {
		return s.subroutineTable
	}
	return s.table(kind.Scope())
}

// StartSubroutine discards every argument and local of the previous subroutine.
func (s *SymbolTable) StartSubroutine() {
	s.functionScopeTable = make(map[string]Symbol)
}

// Define records name in the scope its kind belongs to. A redefinition
// within the same scope replaces the earlier symbol unless the table is
// strict. Subroutine names are kept apart from variables, so a method
// never replaces or clashes with a field of the same name.
func (s *SymbolTable) Define(name, variableType string, kind SymbolKind) (Symbol, error) {
	table := s.tableFor(kind)

	index := nextIndex(table, kind)
	if previous, ok := table[name]; ok {
		if s.strict {
			return previous, fmt.Errorf("%w: %q", ErrRedeclared, name)
		}
		s.log.Debug("overwriting symbol", zap.String("name", name), zap.String("previousKind", string(previous.Kind)))
		if previous.Kind == kind {
			index = previous.Index
		}
	}

	symbol := Symbol{
		Name:         name,
		Kind:         kind,
		VariableType: variableType,
		Index:        index,
	}
	table[name] = symbol

	s.log.Debug("registered symbol",
		zap.String("name", name),
		zap.String("type", variableType),
		zap.String("kind", string(kind)),
		zap.Int("index", symbol.Index),
	)
	return symbol, nil
}

func (s *SymbolTable) IsDefined(name string) bool {
	_, inClass := s.classScopeTable[name]
	_, inFunction := s.functionScopeTable[name]
	_, inSubroutines := s.subroutineTable[name]
	return inClass || inFunction || inSubroutines
}

// IsLocal reports whether name is an argument or local of the current subroutine.
func (s *SymbolTable) IsLocal(name string) bool {
	_, ok := s.functionScopeTable[name]
	return ok
}

// Lookup resolves name, letting the subroutine scope shadow the class scope.
func (s *SymbolTable) Lookup(name string) (Symbol, error) {
	// Try to find it in the method scope table
	if symbol, ok := s.functionScopeTable[name]; ok {
		return symbol, nil
	}
	// Try to find it in the class scope table
	if symbol, ok := s.classScopeTable[name]; ok {
		return symbol, nil
	}
	if symbol, ok := s.subroutineTable[name]; ok {
		return symbol, nil
	}
	return Symbol{}, fmt.Errorf("%w: %q", ErrUndefinedSymbol, name)
}

func (s *SymbolTable) ScopeOf(name string) (Scope, error) {
	symbol, err := s.Lookup(name)
	if err != nil {
		return "", err
	}
	return symbol.Kind.Scope(), nil
}

func (s *SymbolTable) TypeOf(name string) (string, error) {
	symbol, err := s.Lookup(name)
	return symbol.VariableType, err
}

func (s *SymbolTable) KindOf(name string) (SymbolKind, error) {
	symbol, err := s.Lookup(name)
	return symbol.Kind, err
}

// Count returns how many symbols of kind the scope holding that kind contains.
func (s *SymbolTable) Count(kind SymbolKind) int {
	return nextIndex(s.tableFor(kind), kind)
}

// Symbols returns a copy of one scope ordered by kind, then index, then name.
func (s *SymbolTable) Symbols(scope Scope) []Symbol {
	tables := []map[string]Symbol{s.table(scope)}
	if scope == ClassScope {
		tables = append(tables, s.subroutineTable)
	}
	var symbols []Symbol
	for _, table := range tables {
		for _, symbol := range table {
			symbols = append(symbols, symbol)
		}
	}
	sort.Slice(symbols, func(i, j int) bool {
		a, b := symbols[i], symbols[j]
		if a.Kind != b.Kind {
			return kindOrder[a.Kind] < kindOrder[b.Kind]
		}
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return a.Name < b.Name
	})
	return symbols
}

var kindOrder = map[SymbolKind]int{
	ClassSymbol:      0,
	StaticSymbol:     1,
	FieldSymbol:      2,
	SubroutineSymbol: 3,
	ArgumentSymbol:   4,
	VarSymbol:        5,
}

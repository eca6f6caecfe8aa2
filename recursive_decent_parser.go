package main

import (
	"errors"

	"go.uber.org/zap"
)

// maxNestingDepth bounds expression and statement nesting.
const maxNestingDepth = 4096

type TokenScanner interface {
	Token() Token
	Err() error
	Scan() bool
}

// rule parses one grammar production starting at the current token.
type rule func() error

// lookahead decides on the current token whether an optional or repeated
// production applies.
type lookahead func(Token) bool

type StatementKind int

const (
	DoStatement StatementKind = iota
	IfStatement
	LetStatement
	ReturnStatement
	WhileStatement
	statementKindCount
)

var statementKeywords = [statementKindCount]string{
	DoStatement:     "do",
	IfStatement:     "if",
	LetStatement:    "let",
	ReturnStatement: "return",
	WhileStatement:  "while",
}

func statementKindOf(token Token) (StatementKind, bool) {
	if token.Type() != Keyword {
		return 0, false
	}
	for kind, keyword := range statementKeywords {
		if token.Terminal() == keyword {
			return StatementKind(kind), true
		}
	}
	return 0, false
}

func (k StatementKind) String() string {
	if k < 0 || k >= statementKindCount {
		return "unknown"
	}
	return statementKeywords[k]
}

var (
	isClassVarDec   = isKeyword("static", "field")
	isSubroutineDec = isKeyword("constructor", "function", "method")
	isVarDec        = isKeyword("var")
	isBinaryOp      = isSymbol("+", "-", "*", "/", "&", "|", "<", "=", ">")
	isUnaryOp       = isSymbol("-", "~")
	isKeywordConst  = isKeyword("true", "false", "null", "this")
)

func isKeyword(keywords ...string) lookahead {
	return func(t Token) bool {
		return t.Is(Keyword, keywords...)
	}
}

func isSymbol(symbols ...string) lookahead {
	return func(t Token) bool {
		return t.Is(SymbolTokenType, symbols...)
	}
}

func isType(t Token) bool {
	return t.Is(Keyword, "int", "char", "boolean") || t.Is(Identifier)
}

func isStatement(t Token) bool {
	_, ok := statementKindOf(t)
	return ok
}

func not(l lookahead) lookahead {
	return func(t Token) bool {
		return !l(t)
	}
}

// Parser recognizes exactly one Jack class. A Parser and its SymbolTable
// serve a single source unit and must not be reused.
type Parser struct {
	tokens   TokenScanner
	symbols  *SymbolTable
	log      *zap.Logger
	consumed int
	depth    int

	statementRules [statementKindCount]rule
}

type ParserOption func(*Parser)

func WithLogger(log *zap.Logger) ParserOption {
	return func(p *Parser) {
		p.log = log
	}
}

func WithSymbolTable(symbols *SymbolTable) ParserOption {
	return func(p *Parser) {
		p.symbols = symbols
	}
}

func NewParser(tokens TokenScanner, opts ...ParserOption) *Parser {
	p := &Parser{
		tokens: tokens,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.symbols == nil {
		p.symbols = NewSymbolTable(WithSymbolLogger(p.log))
	}
	p.statementRules = [statementKindCount]rule{
		DoStatement:     p.doStatement,
		IfStatement:     p.ifStatement,
		LetStatement:    p.letStatement,
		ReturnStatement: p.returnStatement,
		WhileStatement:  p.whileStatement,
	}
	return p
}

func (p *Parser) SymbolTable() *SymbolTable {
	return p.symbols
}

// Consumed returns the number of tokens accepted so far.
func (p *Parser) Consumed() int {
	return p.consumed
}

// Current returns the token under the cursor.
func (p *Parser) Current() Token {
	return p.tokens.Token()
}

// ParseClass moves to the first token and parses one class. On success the
// cursor rests on the token following the closing brace.
func (p *Parser) ParseClass() error {
	if err := p.scan(); err != nil {
		return err
	}
	return p.class()
}

func (p *Parser) scan() error {
	if !p.tokens.Scan() && p.tokens.Err() != nil {
		return &ParseError{Token: p.Current(), Reason: "unreadable input", Err: p.tokens.Err()}
	}
	return nil
}

func (p *Parser) advance() error {
	p.consumed++
	return p.scan()
}

func (p *Parser) unexpected(expected string) error {
	return &ParseError{Token: p.Current(), Expected: expected}
}

func (p *Parser) reject(token Token, reason string, err error) error {
	return &ParseError{Token: token, Reason: reason, Err: err}
}

func chain(rules ...rule) rule {
	return func() error {
		for _, r := range rules {
			if err := r(); err != nil {
				return err
			}
		}
		return nil
	}
}

func (p *Parser) maybe(when lookahead, r rule) rule {
	return func() error {
		if !when(p.Current()) {
			return nil
		}
		return r()
	}
}

func (p *Parser) greedy(when lookahead, r rule) rule {
	return func() error {
		for when(p.Current()) {
			if err := r(); err != nil {
				return err
			}
		}
		return nil
	}
}

func (p *Parser) either(when lookahead, then, otherwise rule) rule {
	return func() error {
		if when(p.Current()) {
			return then()
		}
		return otherwise()
	}
}

// nested guards against input nested deeper than the call stack should go.
func (p *Parser) nested(r rule) rule {
	return func() error {
		if p.depth >= maxNestingDepth {
			return p.reject(p.Current(), "nesting too deep", nil)
		}
		p.depth++
		defer func() { p.depth-- }()
		return r()
	}
}

func (p *Parser) traced(name string, r rule) rule {
	return func() error {
		p.log.Debug("parsing", zap.String("rule", name), zap.Stringer("token", p.Current()))
		err := r()
		if err != nil {
			p.log.Debug("rule failed", zap.String("rule", name), zap.Error(err))
		}
		return err
	}
}

// capture stores the terminal of the current token once r accepts it.
func (p *Parser) capture(into *string, r rule) rule {
	return func() error {
		terminal := p.Current().Terminal()
		if err := r(); err != nil {
			return err
		}
		*into = terminal
		return nil
	}
}

func (p *Parser) terminal(tokenType TokenType, terminals ...string) rule {
	return func() error {
		if !p.Current().Is(tokenType, terminals...) {
			return p.unexpected(describeExpected(tokenType, terminals))
		}
		return p.advance()
	}
}

func (p *Parser) keyword(keywords ...string) rule {
	return p.terminal(Keyword, keywords...)
}

func (p *Parser) symbol(symbols ...string) rule {
	return p.terminal(SymbolTokenType, symbols...)
}

func (p *Parser) identifier() rule {
	return p.terminal(Identifier)
}

func (p *Parser) define(name, variableType string, kind SymbolKind, at Token) error {
	if _, err := p.symbols.Define(name, variableType, kind); err != nil {
		return p.reject(at, "duplicate declaration", err)
	}
	return nil
}

// declaration accepts an identifier and registers it immediately.
func (p *Parser) declaration(variableType *string, kind SymbolKind) rule {
	return func() error {
		token := p.Current()
		if err := p.identifier()(); err != nil {
			return err
		}
		return p.define(token.Terminal(), *variableType, kind, token)
	}
}

// variable accepts an identifier that must already be declared.
func (p *Parser) variable(into *string) rule {
	return func() error {
		token := p.Current()
		if !token.Is(Identifier) {
			return p.unexpected(string(Identifier))
		}
		if !p.symbols.IsDefined(token.Terminal()) {
			return p.reject(token, "undeclared identifier", nil)
		}
		*into = token.Terminal()
		return p.advance()
	}
}

func (p *Parser) class() error {
	var noType string
	return p.traced("class", chain(
		p.keyword("class"),
		p.declaration(&noType, ClassSymbol),
		p.symbol("{"),
		p.greedy(isClassVarDec, p.classVarDec),
		p.greedy(isSubroutineDec, p.subroutineDec),
		p.symbol("}"),
	))()
}

func (p *Parser) classVarDec() error {
	var kind, variableType string
	return p.traced("classVarDec", chain(
		p.capture(&kind, p.keyword("static", "field")),
		p.typeName(&variableType),
		func() error {
			return p.varList(&variableType, SymbolKind(kind))()
		},
		p.symbol(";"),
	))()
}

func (p *Parser) typeName(into *string) rule {
	return func() error {
		if !isType(p.Current()) {
			return p.unexpected("type")
		}
		return p.capture(into, p.advance)()
	}
}

func (p *Parser) varList(variableType *string, kind SymbolKind) rule {
	return chain(
		p.declaration(variableType, kind),
		p.maybe(isSymbol(","), func() error {
			return chain(p.symbol(","), p.varList(variableType, kind))()
		}),
	)
}

func (p *Parser) subroutineDec() error {
	var returnType string
	return p.traced("subroutineDec", chain(
		p.keyword("constructor", "function", "method"),
		func() error {
			p.symbols.StartSubroutine()
			return nil
		},
		p.either(isKeyword("void"),
			p.capture(&returnType, p.keyword("void")),
			p.typeName(&returnType),
		),
		p.declaration(&returnType, SubroutineSymbol),
		p.symbol("("),
		p.maybe(isType, p.parameterList),
		p.symbol(")"),
		p.subroutineBody,
	))()
}

func (p *Parser) parameterList() error {
	var variableType string
	return p.traced("parameterList", chain(
		p.typeName(&variableType),
		p.declaration(&variableType, ArgumentSymbol),
		p.maybe(isSymbol(","), chain(p.symbol(","), p.parameterList)),
	))()
}

func (p *Parser) subroutineBody() error {
	return p.traced("subroutineBody", chain(
		p.symbol("{"),
		p.greedy(isVarDec, p.varDec),
		p.statements,
		p.symbol("}"),
	))()
}

func (p *Parser) varDec() error {
	var variableType string
	return p.traced("varDec", chain(
		p.keyword("var"),
		p.typeName(&variableType),
		p.varList(&variableType, VarSymbol),
		p.symbol(";"),
	))()
}

func (p *Parser) statements() error {
	return p.greedy(isStatement, p.nested(p.statement))()
}

func (p *Parser) statement() error {
	kind, ok := statementKindOf(p.Current())
	if !ok {
		return p.unexpected("statement")
	}
	return p.traced(kind.String()+"Statement", p.statementRules[kind])()
}

func (p *Parser) block() error {
	return chain(
		p.symbol("{"),
		p.statements,
		p.symbol("}"),
	)()
}

func (p *Parser) doStatement() error {
	return chain(
		p.keyword("do"),
		p.identifier(),
		p.callTail,
		p.symbol(";"),
	)()
}

func (p *Parser) ifStatement() error {
	return chain(
		p.keyword("if"),
		p.symbol("("),
		p.expression,
		p.symbol(")"),
		p.block,
		p.maybe(isKeyword("else"), chain(p.keyword("else"), p.block)),
	)()
}

func (p *Parser) letStatement() error {
	var name string
	return chain(
		p.keyword("let"),
		p.variable(&name),
		p.maybe(isSymbol("["), p.index(&name)),
		p.symbol("="),
		p.expression,
		p.symbol(";"),
	)()
}

func (p *Parser) returnStatement() error {
	return chain(
		p.keyword("return"),
		p.maybe(not(isSymbol(";")), p.expression),
		p.symbol(";"),
	)()
}

func (p *Parser) whileStatement() error {
	return chain(
		p.keyword("while"),
		p.symbol("("),
		p.expression,
		p.symbol(")"),
		p.block,
	)()
}

// index parses '[' expression ']' after name, which must be an Array.
func (p *Parser) index(name *string) rule {
	return func() error {
		symbol, err := p.symbols.Lookup(*name)
		if err != nil {
			return p.reject(p.Current(), "undeclared identifier", err)
		}
		if !symbol.IsArray() {
			return p.reject(p.Current(), *name+" is not an Array", nil)
		}
		return chain(
			p.symbol("["),
			p.expression,
			p.symbol("]"),
		)()
	}
}

// callTail parses the part of a subroutine call after the first identifier.
func (p *Parser) callTail() error {
	return chain(
		p.maybe(isSymbol("."), chain(p.symbol("."), p.identifier())),
		p.symbol("("),
		p.maybe(not(isSymbol(")")), p.expressionList),
		p.symbol(")"),
	)()
}

func (p *Parser) expressionList() error {
	return chain(
		p.expression,
		p.maybe(isSymbol(","), chain(p.symbol(","), p.expressionList)),
	)()
}

// expression is term (op expression)?. All binary operators bind alike and
// there is no precedence, so the tail is read as a flat loop; only
// parentheses, indices and call arguments nest.
func (p *Parser) expression() error {
	return p.nested(p.traced("expression", chain(
		p.term,
		p.greedy(isBinaryOp, chain(p.advance, p.term)),
	)))()
}

func (p *Parser) term() error {
	token := p.Current()
	switch {
	case token.Is(IntegerConstant), token.Is(StringConstant), isKeywordConst(token):
		return p.advance()
	case isUnaryOp(token):
		return chain(p.advance, p.nested(p.term))()
	case token.Is(SymbolTokenType, "("):
		return chain(p.symbol("("), p.expression, p.symbol(")"))()
	case token.Is(Identifier):
		return p.identifierTerm()
	}
	return p.unexpected("term")
}

// identifierTerm needs one token of lookahead after the identifier: '['
// indexes an array, '.' or '(' starts a call, anything else is a plain
// variable reference.
func (p *Parser) identifierTerm() error {
	var name string
	if err := p.variable(&name)(); err != nil {
		return err
	}
	switch next := p.Current(); {
	case next.Is(SymbolTokenType, "["):
		return p.index(&name)()
	case next.Is(SymbolTokenType, ".", "("):
		return p.callTail()
	}
	return nil
}

// IsParseFailure reports whether err came from a rejected parse.
func IsParseFailure(err error) bool {
	return errors.Is(err, ErrParseFailure)
}

package main

import (
	"fmt"
	"strconv"
)

type MachineWord int16

const maxIntegerConstant = 32767

type TokenType string

const (
	InvalidToken    TokenType = ""
	Keyword         TokenType = "keyword"
	SymbolTokenType TokenType = "symbol"
	IntegerConstant TokenType = "integerConstant"
	StringConstant  TokenType = "stringConstant"
	Identifier      TokenType = "identifier"
)

// Token is a classified lexical unit. The zero Token marks the end of the stream.
type Token struct {
	tokenType TokenType
	terminal  string
	line      int
}

func NewToken(tokenType TokenType, terminal string) Token {
	return Token{tokenType: tokenType, terminal: terminal}
}

func (t Token) Type() TokenType {
	return t.tokenType
}

func (t Token) Terminal() string {
	return t.terminal
}

func (t Token) Line() int {
	return t.line
}

func (t Token) IsEOF() bool {
	return t.tokenType == InvalidToken
}

func (t Token) Is(tokenType TokenType, terminals ...string) bool {
	if t.tokenType != tokenType {
		return false
	}
	if len(terminals) == 0 {
		return true
	}
	for _, terminal := range terminals {
		if t.terminal == terminal {
			return true
		}
	}
	return false
}

func (t Token) String() string {
	if t.IsEOF() {
		return "end of input"
	}
	return fmt.Sprintf("%s %q", t.tokenType, t.terminal)
}

func (t Token) asInt() (MachineWord, error) {
	word, err := strconv.Atoi(t.terminal)
	// < 0 as - is an operator
	if err != nil || word > maxIntegerConstant || word < 0 {
		return 0, fmt.Errorf("cannot parse %q as 16 bit int", t.terminal)
	}
	return MachineWord(word), nil
}

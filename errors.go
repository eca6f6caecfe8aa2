package main

import (
	"errors"
	"fmt"
	"strings"
)

// ErrParseFailure matches every error returned by Parser.ParseClass.
var ErrParseFailure = errors.New("parse failed")

// ParseError is the single failure the parser reports. Only the Token is
// always set; the remaining fields narrow down what went wrong.
type ParseError struct {
	Token    Token
	Expected string
	Reason   string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Err != nil && e.Token.IsEOF() {
		// Scanner failures carry their own position
		return fmt.Sprintf("syntax error: %s: %v", e.Reason, e.Err)
	}

	var b strings.Builder
	if line := e.Token.Line(); line > 0 {
		fmt.Fprintf(&b, "line %d: ", line)
	}
	b.WriteString("syntax error")
	switch {
	case e.Expected != "":
		fmt.Fprintf(&b, ": expected %s, got %s", e.Expected, e.Token)
	case e.Reason != "":
		fmt.Fprintf(&b, ": %s at %s", e.Reason, e.Token)
	default:
		fmt.Fprintf(&b, " at %s", e.Token)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParseFailure
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func describeExpected(tokenType TokenType, terminals []string) string {
	switch len(terminals) {
	case 0:
		return string(tokenType)
	case 1:
		return fmt.Sprintf("%s %q", tokenType, terminals[0])
	}
	quoted := make([]string, len(terminals))
	for i, terminal := range terminals {
		quoted[i] = fmt.Sprintf("%q", terminal)
	}
	return fmt.Sprintf("%s (one of %s)", tokenType, strings.Join(quoted, ", "))
}

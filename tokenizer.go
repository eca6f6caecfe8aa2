package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	keywordRegex         = longest(`^(class|constructor|function|method|field|static|var|int|char|boolean|void|true|false|null|this|let|do|if|else|while|return)`)
	symbolRegex          = longest(`^[\{\}\[\]\(\)\.\,\;\+\-\*\/\&\|\<\>\=\~]`)
	integerConstantRegex = longest(`^\d+`)
	stringConstantRegex  = longest(`^"[^"\n]*"`)
	identifierRegex      = longest(`^[a-zA-Z_]\w*`)
	regexes              = []*regexp.Regexp{keywordRegex, symbolRegex, integerConstantRegex, stringConstantRegex, identifierRegex}

	regexTokenTypeMapping = map[*regexp.Regexp]TokenType{
		keywordRegex:         Keyword,
		symbolRegex:          SymbolTokenType,
		integerConstantRegex: IntegerConstant,
		stringConstantRegex:  StringConstant,
		identifierRegex:      Identifier,
	}

	errUnclosedComment = errors.New("unclosed comment")
)

func longest(expr string) *regexp.Regexp {
	regex := regexp.MustCompile(expr)
	regex.Longest()
	return regex
}

// FilteredReader strips // and /* */ comments. Newlines inside comments are
// kept so token line numbers stay accurate.
type FilteredReader struct {
	reader   *bufio.Reader
	pending  []byte
	inString bool
}

func NewFilteredReader(r io.Reader) FilteredReader {
	return FilteredReader{reader: bufio.NewReader(r)}
}

func (r *FilteredReader) Read(b []byte) (int, error) {
	i := 0
	for i < len(b) {
		if len(r.pending) > 0 {
			n := copy(b[i:], r.pending)
			r.pending = r.pending[n:]
			i += n
			continue
		}

		char, n, err := r.reader.ReadRune()
		if n == 0 || err != nil {
			if errors.Is(err, io.EOF) && i > 0 {
				return i, nil
			}
			return i, err
		}

		switch {
		case char == '"' || char == '\n':
			r.inString = char == '"' && !r.inString
		case char == '/' && !r.inString:
			skipped, commentErr := r.skipComment()
			if commentErr != nil {
				return i, commentErr
			}
			if skipped {
				continue
			}
		}

		if utf8.RuneLen(char) > len(b)-i {
			if unreadErr := r.reader.UnreadRune(); unreadErr != nil {
				return i, unreadErr
			}
			return i, nil
		}
		i += utf8.EncodeRune(b[i:], char)
	}

	return i, nil
}

// skipComment is called after a '/' was read. It reports whether a comment
// was discarded; otherwise the reader is left just after the '/'.
func (r *FilteredReader) skipComment() (bool, error) {
	nextChar, _, err := r.reader.ReadRune()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}

	switch nextChar {
	case '/':
		// Discard until newline character
		line, err := r.reader.ReadString('\n')
		if strings.HasSuffix(line, "\n") {
			r.pending = append(r.pending, '\n')
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return true, err
		}
		return true, nil
	case '*':
		// Discard until */, keeping line breaks
		r.pending = append(r.pending, ' ')
		var prev rune
		for {
			char, _, err := r.reader.ReadRune()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return true, errUnclosedComment
				}
				return true, err
			}
			if char == '\n' {
				r.pending = append(r.pending, '\n')
			}
			if prev == '*' && char == '/' {
				return true, nil
			}
			prev = char
		}
	default:
		return false, r.reader.UnreadRune()
	}
}

// Tokenizer implements TokenScanner over Jack source text.
type Tokenizer struct {
	scanner   *bufio.Scanner
	nextToken Token
	line      int
	err       error
}

func NewTokenizer(r io.Reader) *Tokenizer {
	commentFilter := NewFilteredReader(r)
	t := &Tokenizer{
		scanner: bufio.NewScanner(&commentFilter),
		line:    1,
	}
	t.scanner.Split(t.split)
	return t
}

func matchToken(text string) ([]int, error) {
	bestIndex := -1
	bestLength := 0
	for i, regex := range regexes {
		if match := regex.FindStringIndex(text); match != nil && match[1] > bestLength {
			bestIndex = i
			bestLength = match[1]
		}
	}

	if bestIndex == -1 {
		return nil, fmt.Errorf("unknown token %q", firstWord(text))
	}

	return []int{0, bestLength, bestIndex}, nil
}

func firstWord(text string) string {
	if end := strings.IndexFunc(text, unicode.IsSpace); end > 0 {
		return text[:end]
	}
	return text
}

func splitToken(data []byte, atEOF bool) (advance int, token []byte, err error) {
	dataString := strings.TrimLeftFunc(string(data), unicode.IsSpace)
	skipped := len(data) - len(dataString)
	if len(dataString) == 0 {
		return len(data), nil, nil
	}

	matchIndex, matchErr := matchToken(dataString)
	if matchErr != nil {
		if atEOF {
			return 0, nil, matchErr
		}
		// Possibly an unterminated string cut by the read buffer
		return skipped, nil, nil
	}

	matchEnd := matchIndex[1]
	if matchEnd == len(dataString) && !atEOF {
		// The token may continue in the next read
		return skipped, nil, nil
	}

	return skipped + matchEnd, []byte(dataString[:matchEnd]), nil
}

func (t *Tokenizer) split(data []byte, atEOF bool) (int, []byte, error) {
	advance, token, err := splitToken(data, atEOF)
	if advance > 0 {
		t.line += bytes.Count(data[:advance-len(token)], []byte{'\n'})
	}
	return advance, token, err
}

func parseToken(tokenString string) (token Token, err error) {
	var regexMatch []int
	regexMatch, err = matchToken(tokenString)
	if err != nil {
		return
	}

	token.terminal = tokenString
	token.tokenType = regexTokenTypeMapping[regexes[regexMatch[2]]]

	switch token.tokenType {
	case IntegerConstant:
		_, err = token.asInt()
	case StringConstant:
		token.terminal = tokenString[1 : len(tokenString)-1]
	}

	return
}

func (t *Tokenizer) Err() error {
	return t.err
}

func (t *Tokenizer) Scan() bool {
	if t.err != nil {
		return false
	}
	if t.scanner.Scan() {
		token, err := parseToken(t.scanner.Text())
		if err != nil {
			t.err = fmt.Errorf("line %d: %w", t.line, err)
			t.nextToken = Token{line: t.line}
			return false
		}
		token.line = t.line
		t.nextToken = token
		return true
	}

	if err := t.scanner.Err(); err != nil {
		t.err = fmt.Errorf("line %d: %w", t.line, err)
	}
	t.nextToken = Token{line: t.line}
	return false
}

func (t *Tokenizer) Token() Token {
	return t.nextToken
}

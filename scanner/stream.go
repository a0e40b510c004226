package scanner

import (
	"github.com/juanplopes/dojo-lang/token"
)

// Stream turns a Scanner plus a source string into the cursor the parser
// advances token by token: peek without consuming, consume only if the
// next token belongs to an expected set, or fail with a CompileError.
type Stream struct {
	scanner *Scanner
	source  string
	pos     int
	line    int
	column  int
}

// NewStream positions a fresh Stream at the start of source.
func NewStream(s *Scanner, source string) *Stream {
	return &Stream{scanner: s, source: source, pos: 0, line: 1, column: 1}
}

// Peek returns the next token without consuming it, or nil if nothing in
// the rule set matches at the current position.
func (ts *Stream) Peek(stopOnLF bool) *token.Token {
	return ts.scanner.Scan(ts.source, ts.pos, ts.line, ts.column, stopOnLF)
}

// Maybe returns the next token if it is one of allowed, without consuming
// it; otherwise nil.
func (ts *Stream) Maybe(stopOnLF bool, allowed ...token.Kind) *token.Token {
	tok := ts.Peek(stopOnLF)
	if tok != nil && containsKind(allowed, tok.Kind) {
		return tok
	}
	return nil
}

// Next consumes and returns the next token, requiring it to be one of
// allowed. It returns an InvalidSyntax error if nothing matches at all, or
// an UnexpectedToken error if something matched but isn't allowed here.
func (ts *Stream) Next(stopOnLF bool, allowed ...token.Kind) (token.Token, error) {
	tok := ts.Peek(stopOnLF)

	if tok == nil {
		end := ts.pos + 25
		if end > len(ts.source) {
			end = len(ts.source)
		}
		return token.Token{}, token.NewInvalidSyntax(ts.line, ts.column, ts.source[ts.pos:end])
	}

	if !containsKind(allowed, tok.Kind) {
		return token.Token{}, token.NewUnexpectedToken(*tok, allowed)
	}

	ts.pos += tok.RawLen()
	ts.line = tok.Line
	ts.column = tok.Column + len(tok.Image)
	return *tok, nil
}

// NextIf consumes and returns the next token if it is one of allowed,
// otherwise leaves the stream untouched and returns (Token{}, false).
func (ts *Stream) NextIf(stopOnLF bool, allowed ...token.Kind) (token.Token, bool) {
	if ts.Maybe(stopOnLF, allowed...) == nil {
		return token.Token{}, false
	}
	tok, err := ts.Next(stopOnLF, allowed...)
	if err != nil {
		return token.Token{}, false
	}
	return tok, true
}

// ExpectLFOr requires that either the whitespace before the next token
// contains a line feed, or the next token is one of allowed — Dojo's soft
// statement separator.
func (ts *Stream) ExpectLFOr(allowed ...token.Kind) error {
	tok := ts.Peek(false)
	if tok == nil {
		end := ts.pos + 25
		if end > len(ts.source) {
			end = len(ts.source)
		}
		return token.NewInvalidSyntax(ts.line, ts.column, ts.source[ts.pos:end])
	}
	if !tok.HasLF() && !containsKind(allowed, tok.Kind) {
		withNL := append([]token.Kind{"NEWLINE"}, allowed...)
		return token.NewUnexpectedToken(*tok, withNL)
	}
	return nil
}

// Ignore consumes a run of zero or more tokens from allowed.
func (ts *Stream) Ignore(allowed ...token.Kind) error {
	for ts.Maybe(false, allowed...) != nil {
		if _, err := ts.Next(false, allowed...); err != nil {
			return err
		}
	}
	return nil
}

func containsKind(set []token.Kind, k token.Kind) bool {
	for _, s := range set {
		if s == k {
			return true
		}
	}
	return false
}

package token

import (
	"fmt"
	"strings"
)

// Phase identifies which stage of the compiler raised a CompileError.
// Dojo only ever fails during scanning or parsing: there is no separate
// analysis or runtime phase in this compiler (scope resolution happens
// inline during parsing; the generated artifact has no runtime errors of
// its own, per the emitter's no-recovery contract).
type Phase string

const (
	PhaseScan   Phase = "scan"
	PhaseParse  Phase = "parse"
)

// ErrorCode names one of the two fatal, non-recoverable error kinds a
// Dojo compile can raise.
type ErrorCode string

const (
	ErrInvalidSyntax   ErrorCode = "invalid_syntax"
	ErrUnexpectedToken ErrorCode = "unexpected_token"
)

var errorTemplates = map[ErrorCode]string{
	ErrInvalidSyntax:   "invalid syntax at line %d column %d: '%s'",
	ErrUnexpectedToken: "unexpected '%s' at line %d column %d, expected one of: %s",
}

// CompileError is the single error type the compiler ever returns. Both
// InvalidSyntax and UnexpectedToken are fatal: the first one raised aborts
// compilation and is handed back to the caller unchanged.
type CompileError struct {
	Code    ErrorCode
	Phase   Phase
	Token   Token
	Allowed []Kind
	Source  string
}

func (e *CompileError) Error() string {
	switch e.Code {
	case ErrInvalidSyntax:
		return fmt.Sprintf(errorTemplates[e.Code], e.Token.Line, e.Token.Column, e.Source)
	case ErrUnexpectedToken:
		names := make([]string, len(e.Allowed))
		for i, k := range e.Allowed {
			names[i] = fmt.Sprintf("'%s'", k)
		}
		return fmt.Sprintf(errorTemplates[e.Code], e.Token.Kind, e.Token.Line, e.Token.Column, strings.Join(names, ", "))
	default:
		return fmt.Sprintf("compile error [%s] at %d:%d", e.Code, e.Token.Line, e.Token.Column)
	}
}

// NewInvalidSyntax reports that no scanner pattern matched at the given
// position. snippet is the offending source, truncated by the caller.
func NewInvalidSyntax(line, column int, snippet string) *CompileError {
	return &CompileError{
		Code:   ErrInvalidSyntax,
		Phase:  PhaseScan,
		Token:  Token{Line: line, Column: column},
		Source: snippet,
	}
}

// NewUnexpectedToken reports that tok does not belong to the set the
// parser was willing to accept at this point.
func NewUnexpectedToken(tok Token, allowed []Kind) *CompileError {
	return &CompileError{
		Code:    ErrUnexpectedToken,
		Phase:   PhaseParse,
		Token:   tok,
		Allowed: allowed,
	}
}

// Package scanner implements Dojo's longest-match lexical scanner and the
// TokenStream the parser reads from.
//
// The scanner is built from two kinds of rules: fixed symbols (literal
// text, possibly containing embedded whitespace as in "not in") and named
// patterns (a regular expression keyed by the token kind it produces,
// e.g. INTEGER). Scanning a position tries every rule and keeps the
// longest match; ties are broken by declaration order, so fixed symbols
// registered ahead of named patterns win equal-length ties.
package scanner

import (
	"regexp"
	"strings"

	"github.com/juanplopes/dojo-lang/token"
)

type rule struct {
	kind    token.Kind
	pattern *regexp.Regexp
}

// NamedPattern is one named-pattern rule: the token kind it produces and
// the regular expression body (no anchors) that recognizes it.
type NamedPattern struct {
	Kind    token.Kind
	Pattern string
}

// Scanner holds the compiled rule set. It is immutable once built and safe
// for concurrent use by multiple Streams.
type Scanner struct {
	rules []rule
}

// New builds a Scanner from an ordered list of fixed symbols followed by an
// ordered list of named patterns — both registered in the given order, so
// the "ties broken by declaration order" rule above is reproducible across
// runs rather than depending on map iteration. Embedded literal spaces in
// a fixed symbol (as in "not in") match one-or-more whitespace characters
// in the source, so `not  \t\n  in` still scans as a single NOTIN token.
func New(symbols []token.Kind, named []NamedPattern) *Scanner {
	s := &Scanner{}
	for _, sym := range symbols {
		body := regexp.QuoteMeta(string(sym))
		body = strings.ReplaceAll(body, " ", `\s+`)
		s.rules = append(s.rules, rule{
			kind:    sym,
			pattern: regexp.MustCompile(`^(\s*)(` + body + `)`),
		})
	}
	for _, np := range named {
		s.rules = append(s.rules, rule{
			kind:    np.Kind,
			pattern: regexp.MustCompile(`^(\s*)(` + np.Pattern + `)`),
		})
	}
	return s
}

func bestOf(a, b *token.Token, stopOnLF bool) *token.Token {
	if b == nil {
		return a
	}
	if stopOnLF && b.HasLF() {
		return a
	}
	if a == nil || len(b.Image) > len(a.Image) {
		return b
	}
	return a
}

// Scan finds the longest match among all rules starting at pos, honoring
// leading whitespace (which becomes part of the returned token). line and
// column are the position's starting line/column, used to compute the
// token's own line/column once any embedded newlines in the whitespace are
// accounted for. When stopOnLF is set, a candidate whose leading
// whitespace contains a line feed is rejected outright, so Scan returns
// nil when a line break precedes the next token — this is how the parser
// asks "is there a real newline before the next token" without a
// separate NEWLINE token kind.
func (s *Scanner) Scan(source string, pos, line, column int, stopOnLF bool) *token.Token {
	var best *token.Token
	rest := source[pos:]

	for _, r := range s.rules {
		loc := r.pattern.FindStringSubmatchIndex(rest)
		if loc == nil {
			continue
		}
		whites := rest[loc[2]:loc[3]]
		image := rest[loc[4]:loc[5]]

		tLine := line + strings.Count(whites, "\n")
		tColumn := column
		if idx := strings.LastIndexByte(whites, '\n'); idx >= 0 {
			tColumn = len(whites) - idx
		} else {
			tColumn = column + len(whites)
		}

		candidate := &token.Token{
			Kind:   r.kind,
			Whites: whites,
			Image:  image,
			Begin:  pos,
			Line:   tLine,
			Column: tColumn,
		}
		best = bestOf(best, candidate, stopOnLF)
	}

	return best
}

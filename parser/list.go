package parser

import "github.com/juanplopes/dojo-lang/token"

// listOf parses a comma-separated run of items up to (and optionally
// consuming) an until terminator. rest names additional tokens that, like
// until, signal "stop" without being consumed here — used by call
// argument lists, where a bare '@' marks the start of the keyword-argument
// section and should end the positional list without being eaten.
//
// The trailing terminator is consumed only if present; a genuinely
// missing terminator is left for whatever parses next to fail on, which
// is what gives Dojo's "missing comma" error its reported position.
func listOf[T any](p *Parser, what func() (T, error), until token.Kind, rest ...token.Kind) ([]T, error) {
	stop := append([]token.Kind{until}, rest...)

	// Entering a comma-separated list is a fresh bracket context: any
	// range suppression from an enclosing getSubscript index does not
	// reach into it, so `a[f(1..2)]` still builds a RangeLiteral for the
	// call argument.
	savedNoRange := p.noRangeDepth
	p.noRangeDepth = 0
	defer func() { p.noRangeDepth = savedNoRange }()

	var items []T
	if p.Maybe(false, stop...) == nil {
		v, err := what()
		if err != nil {
			return nil, err
		}
		items = append(items, v)

		for {
			if _, ok := p.NextIf(false, token.COMMA); !ok {
				break
			}
			if p.Maybe(false, stop...) != nil {
				break
			}
			v, err := what()
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
	}
	p.NextIf(false, until)
	return items, nil
}

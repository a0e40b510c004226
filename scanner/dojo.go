package scanner

import "github.com/juanplopes/dojo-lang/token"

// fixedSymbols lists every literal token Dojo recognizes, longest-first
// ties aside — declaration order only matters as the tiebreak when two
// rules match the same length at the same position, so multi-word
// keywords like "not in" are listed ahead of the single-word "not"/"in"
// they're built from.
var fixedSymbols = []token.Kind{
	token.FLOORDIV, token.POW,
	token.EQ, token.NOTEQ, token.LTE, token.GTE,
	token.DOTDOT, token.PIPE_FWD, token.ARROW,
	token.SHL, token.SHR,
	token.NOTIN,
	token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
	token.LPAREN, token.RPAREN, token.LBRACK, token.RBRACK, token.LBRACE, token.RBRACE,
	token.COMMA, token.ASSIGN, token.AT, token.SEMI, token.COLON, token.DOT,
	token.LT, token.GT, token.TILDE, token.AMP, token.BAR, token.CARET,
	token.RETURN, token.IN, token.IF, token.ELSE, token.ELIF,
	token.AND, token.OR, token.NOT, token.IMPORT, token.DEF, token.YIELD,
}

var namedPatterns = []NamedPattern{
	{Kind: token.INTEGER, Pattern: `[0-9]+`},
	{Kind: token.FLOAT, Pattern: `[0-9]*\.[0-9]+`},
	{Kind: token.IDENTIFIER, Pattern: `[_a-zA-Z][_a-zA-Z0-9]*`},
	{Kind: token.STRING, Pattern: `("([^\\"]|\\.)*")|('([^\\']|\\.)*')`},
	{Kind: token.EOF, Pattern: `$`},
}

// Default builds the Scanner Dojo source is always lexed with. Each call
// compiles a fresh Scanner from the tables above; a *Scanner carries no
// mutable state, so one instance may also be shared across Streams.
func Default() *Scanner {
	return New(fixedSymbols, namedPatterns)
}

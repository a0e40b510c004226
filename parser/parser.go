// Package parser implements Dojo's recursive-descent, precedence-climbing
// parser. It reads tokens from a scanner.Stream and produces an ast.Node
// tree with every variable reference already classified by a scope.Context
// — there is no separate resolution pass: scope resolution happens inline
// as the single parse pass walks the source.
package parser

import (
	"strconv"
	"strings"

	"github.com/juanplopes/dojo-lang/ast"
	"github.com/juanplopes/dojo-lang/scanner"
	"github.com/juanplopes/dojo-lang/scope"
	"github.com/juanplopes/dojo-lang/token"
)

// Parser is a scanner.Stream plus the grammar methods built on top of it.
type Parser struct {
	*scanner.Stream

	// noRangeDepth, while greater than zero, makes unaryExpr stop short of
	// rangeExpr so `..` is left for getSubscript's slice branch to consume
	// instead of being folded into a RangeLiteral. getSubscript raises it
	// only around its own index/bound parse, not around nested call
	// arguments, so `a[f(1..2)]` still builds a RangeLiteral for `1..2`.
	noRangeDepth int
}

// New returns a Parser positioned at the start of source.
func New(source string) *Parser {
	return &Parser{Stream: scanner.NewStream(scanner.Default(), source)}
}

// Parse compiles source all the way to a resolved ast.Program. It is the
// single entry point this package exposes; everything else is grammar
// plumbing for this method to call.
func Parse(source string) (*ast.Program, error) {
	p := New(source)
	ctx := scope.NewContext()
	body, err := p.block(ctx, token.EOF)
	if err != nil {
		return nil, err
	}
	return &ast.Program{
		LineNo: body.Line(),
		Body:   body,
		Cell:   ctx.Varnames(scope.Exported),
		Free:   ctx.Varnames(scope.Closure),
	}, nil
}

// block parses zero or more ';'-or-newline-separated expressions up to
// (and consuming) until.
func (p *Parser) block(ctx *scope.Context, until token.Kind) (*ast.Block, error) {
	// A block is a fresh bracket context once it starts: a parenthesised
	// sub-block reached from inside a getSubscript index, e.g. `a[(1..5)]`,
	// parses its own `..` as a RangeLiteral rather than inheriting the
	// enclosing index's suppression.
	savedNoRange := p.noRangeDepth
	p.noRangeDepth = 0
	defer func() { p.noRangeDepth = savedNoRange }()

	line := p.Line()
	var exprs []ast.Node

	for {
		if err := p.Ignore(token.SEMI); err != nil {
			return nil, err
		}
		if _, ok := p.NextIf(false, until); ok {
			break
		}
		e, err := p.expr(ctx)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		if err := p.ExpectLFOr(token.SEMI, until); err != nil {
			return nil, err
		}
	}

	return &ast.Block{LineNo: line, Exprs: exprs}, nil
}

func (p *Parser) expr(ctx *scope.Context) (ast.Node, error) {
	return p.ifExpression(ctx)
}

func (p *Parser) ifExpression(ctx *scope.Context) (ast.Node, error) {
	if tok, ok := p.NextIf(false, token.IF); ok {
		return p.ifTestAndBodies(ctx, tok.Line)
	}
	return p.yieldExpression(ctx)
}

func (p *Parser) ifTestAndBodies(ctx *scope.Context, line int) (ast.Node, error) {
	test, err := p.expr(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := p.Next(false, token.COLON); err != nil {
		return nil, err
	}
	thenBody, err := p.expr(ctx)
	if err != nil {
		return nil, err
	}

	var elseBody ast.Node
	if _, ok := p.NextIf(false, token.ELSE); ok {
		if _, err := p.Next(false, token.COLON); err != nil {
			return nil, err
		}
		elseBody, err = p.expr(ctx)
		if err != nil {
			return nil, err
		}
	} else if tok, ok := p.NextIf(false, token.ELIF); ok {
		elseBody, err = p.ifTestAndBodies(ctx, tok.Line)
		if err != nil {
			return nil, err
		}
	} else {
		elseBody = &ast.Block{LineNo: test.Line()}
	}

	return &ast.If{LineNo: line, Test: test, ThenBody: thenBody, ElseBody: elseBody}, nil
}

func (p *Parser) yieldExpression(ctx *scope.Context) (ast.Node, error) {
	if tok, ok := p.NextIf(false, token.YIELD); ok {
		e, err := p.expr(ctx)
		if err != nil {
			return nil, err
		}
		return &ast.Yield{LineNo: tok.Line, Expr: e}, nil
	}
	return p.returnExpression(ctx)
}

func (p *Parser) returnExpression(ctx *scope.Context) (ast.Node, error) {
	if tok, ok := p.NextIf(false, token.RETURN); ok {
		e, err := p.expr(ctx)
		if err != nil {
			return nil, err
		}
		return &ast.Return{LineNo: tok.Line, Expr: e}, nil
	}
	return p.importExpression(ctx)
}

func (p *Parser) importExpression(ctx *scope.Context) (ast.Node, error) {
	if tok, ok := p.NextIf(false, token.IMPORT); ok {
		module, err := p.Next(false, token.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		var names []string
		if _, ok := p.NextIf(true, token.LPAREN); ok {
			names, err = listOf(p, func() (string, error) {
				t, err := p.Next(false, token.IDENTIFIER)
				return t.Image, err
			}, token.RPAREN)
			if err != nil {
				return nil, err
			}
		}
		return &ast.Import{LineNo: tok.Line, Module: module.Image, Names: names}, nil
	}
	return p.pipeForward(ctx)
}

func (p *Parser) pipeForward(ctx *scope.Context) (ast.Node, error) {
	e, err := p.compose(ctx)
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.NextIf(false, token.PIPE_FWD)
		if !ok {
			break
		}
		rhs, err := p.compose(ctx)
		if err != nil {
			return nil, err
		}
		e = &ast.PipeForward{LineNo: tok.Line, Arg: e, Method: rhs}
	}
	return e, nil
}

func (p *Parser) compose(ctx *scope.Context) (ast.Node, error) {
	e, err := p.function(ctx)
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.NextIf(false, token.ARROW)
		if !ok {
			break
		}
		rhs, err := p.function(ctx)
		if err != nil {
			return nil, err
		}
		e = &ast.Composition{LineNo: tok.Line, LHS: e, RHS: rhs}
	}
	return e, nil
}

func (p *Parser) function(ctx *scope.Context) (ast.Node, error) {
	if tok, ok := p.NextIf(false, token.SLASH); ok {
		args, err := p.identList(token.COLON)
		if err != nil {
			return nil, err
		}
		return p.functionBody(tok.Line, ctx, "", args, p.function)
	}

	if tok, ok := p.NextIf(false, token.DEF); ok {
		name, err := p.Next(false, token.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		v := ctx.Ensure(name.Image, scope.Local)

		if _, err := p.Next(false, token.LPAREN); err != nil {
			return nil, err
		}
		args, err := p.identList(token.RPAREN)
		if err != nil {
			return nil, err
		}
		if _, err := p.Next(false, token.COLON); err != nil {
			return nil, err
		}
		fn, err := p.functionBody(tok.Line, ctx, name.Image, args, p.expr)
		if err != nil {
			return nil, err
		}
		return &ast.SetVariable{LineNo: tok.Line, Var: v, Expr: fn}, nil
	}

	return p.assignment(ctx)
}

func (p *Parser) functionBody(line int, ctx *scope.Context, name string, args []string, body func(*scope.Context) (ast.Node, error)) (*ast.Function, error) {
	bodyCtx := ctx.Push(args)
	b, err := body(bodyCtx)
	if err != nil {
		return nil, err
	}
	return &ast.Function{
		LineNo: line,
		Name:   name,
		Args:   args,
		Body:   b,
		Cell:   bodyCtx.Varnames(scope.Exported),
		Free:   bodyCtx.Varnames(scope.Closure),
	}, nil
}

func (p *Parser) identList(until token.Kind) ([]string, error) {
	return listOf(p, func() (string, error) {
		t, err := p.Next(false, token.IDENTIFIER)
		return t.Image, err
	}, until)
}

func (p *Parser) assignment(ctx *scope.Context) (ast.Node, error) {
	target, err := p.operators(ctx)
	if err != nil {
		return nil, err
	}
	if assignable, ok := target.(ast.Assignable); ok {
		if _, ok := p.NextIf(false, token.ASSIGN); ok {
			value, err := p.expr(ctx)
			if err != nil {
				return nil, err
			}
			return assignable.ToAssignment(value), nil
		}
	}
	return target, nil
}

// operators applies precedence climbing over the fixed table, lowest to
// highest binding: or, and, not, in/not-in, comparisons, |, ^, &, shift,
// +-, muldiv, **, prefix -+~. Each level is its own method calling the
// next-tighter one; see listOf in list.go for the shared argument-list
// helper and binaryOp below for the shared left-associative loop.
func (p *Parser) operators(ctx *scope.Context) (ast.Node, error) {
	return p.orExpr(ctx)
}

func boolOp(line int, op string, l, r ast.Node) ast.Node {
	return &ast.BooleanOp{LineNo: line, Op: op, LHS: l, RHS: r}
}

func compareOp(line int, op string, l, r ast.Node) ast.Node {
	return &ast.CompareOp{LineNo: line, Op: op, LHS: l, RHS: r}
}

func binOp(line int, op string, l, r ast.Node) ast.Node {
	return &ast.BinaryOp{LineNo: line, Op: op, LHS: l, RHS: r}
}

// binaryOp parses `higher (op higher)*`, left-associative, stopping the
// continuation at a newline (stop_on_lf) so an operator-looking token on
// the next source line never silently continues this expression.
func (p *Parser) binaryOp(higher func(*scope.Context) (ast.Node, error), ctx *scope.Context, build func(line int, op string, l, r ast.Node) ast.Node, ops ...token.Kind) (ast.Node, error) {
	e, err := higher(ctx)
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.NextIf(true, ops...)
		if !ok {
			break
		}
		rhs, err := higher(ctx)
		if err != nil {
			return nil, err
		}
		e = build(tok.Line, string(tok.Kind), e, rhs)
	}
	return e, nil
}

func (p *Parser) orExpr(ctx *scope.Context) (ast.Node, error) {
	return p.binaryOp(p.andExpr, ctx, boolOp, token.OR)
}

func (p *Parser) andExpr(ctx *scope.Context) (ast.Node, error) {
	return p.binaryOp(p.notExpr, ctx, boolOp, token.AND)
}

func (p *Parser) notExpr(ctx *scope.Context) (ast.Node, error) {
	if tok, ok := p.NextIf(false, token.NOT); ok {
		inner, err := p.notExpr(ctx)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{LineNo: tok.Line, Op: string(tok.Kind), Expr: inner}, nil
	}
	return p.inExpr(ctx)
}

func (p *Parser) inExpr(ctx *scope.Context) (ast.Node, error) {
	return p.binaryOp(p.compareExpr, ctx, compareOp, token.IN, token.NOTIN)
}

func (p *Parser) compareExpr(ctx *scope.Context) (ast.Node, error) {
	return p.binaryOp(p.bitOrExpr, ctx, compareOp, token.EQ, token.NOTEQ, token.LT, token.GT, token.LTE, token.GTE)
}

func (p *Parser) bitOrExpr(ctx *scope.Context) (ast.Node, error) {
	return p.binaryOp(p.bitXorExpr, ctx, binOp, token.BAR)
}

func (p *Parser) bitXorExpr(ctx *scope.Context) (ast.Node, error) {
	return p.binaryOp(p.bitAndExpr, ctx, binOp, token.CARET)
}

func (p *Parser) bitAndExpr(ctx *scope.Context) (ast.Node, error) {
	return p.binaryOp(p.shiftExpr, ctx, binOp, token.AMP)
}

func (p *Parser) shiftExpr(ctx *scope.Context) (ast.Node, error) {
	return p.binaryOp(p.addExpr, ctx, binOp, token.SHL, token.SHR)
}

func (p *Parser) addExpr(ctx *scope.Context) (ast.Node, error) {
	return p.binaryOp(p.mulExpr, ctx, binOp, token.PLUS, token.MINUS)
}

func (p *Parser) mulExpr(ctx *scope.Context) (ast.Node, error) {
	return p.binaryOp(p.powExpr, ctx, binOp, token.STAR, token.SLASH, token.FLOORDIV, token.PERCENT)
}

func (p *Parser) powExpr(ctx *scope.Context) (ast.Node, error) {
	return p.binaryOp(p.unaryExpr, ctx, binOp, token.POW)
}

func (p *Parser) unaryExpr(ctx *scope.Context) (ast.Node, error) {
	if tok, ok := p.NextIf(false, token.MINUS, token.PLUS, token.TILDE); ok {
		inner, err := p.unaryExpr(ctx)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{LineNo: tok.Line, Op: string(tok.Kind), Expr: inner}, nil
	}
	// Inside a getSubscript index/bound, noRangeDepth stops the descent
	// here so `..` is left for getSubscript's own slice branch.
	if p.noRangeDepth > 0 {
		return p.callExpr(ctx)
	}
	return p.rangeExpr(ctx)
}

// rangeExpr is not part of the original operators table; it sits between
// the unary level and the call chain so `1..20 |> f` parses the range as
// one atomic pipe operand, matching the rest of the grammar's
// tightest-binds-closest-to-primary shape.
func (p *Parser) rangeExpr(ctx *scope.Context) (ast.Node, error) {
	e, err := p.callExpr(ctx)
	if err != nil {
		return nil, err
	}
	tok, ok := p.NextIf(false, token.DOTDOT)
	if !ok {
		return e, nil
	}
	end, err := p.callExpr(ctx)
	if err != nil {
		return nil, err
	}
	var step ast.Node
	if _, ok := p.NextIf(false, token.COLON); ok {
		step, err = p.callExpr(ctx)
		if err != nil {
			return nil, err
		}
	}
	return &ast.RangeLiteral{LineNo: tok.Line, Begin: e, End: end, Step: step}, nil
}

func (p *Parser) callExpr(ctx *scope.Context) (ast.Node, error) {
	e, err := p.getAttribute(ctx)
	if err != nil {
		return nil, err
	}
	for {
		tok := p.Maybe(true, token.LPAREN, token.LBRACE)
		if tok == nil {
			break
		}
		switch tok.Kind {
		case token.LPAREN:
			op, err := p.Next(true, token.LPAREN)
			if err != nil {
				return nil, err
			}
			args, kwargs, err := p.callArgs(ctx, token.RPAREN)
			if err != nil {
				return nil, err
			}
			e = &ast.Call{LineNo: op.Line, Method: e, Args: args, Kwargs: kwargs}
		case token.LBRACE:
			op, err := p.Next(true, token.LBRACE)
			if err != nil {
				return nil, err
			}
			args, kwargs, err := p.callArgs(ctx, token.RBRACE)
			if err != nil {
				return nil, err
			}
			e = &ast.PartialCall{LineNo: op.Line, Method: e, Args: args, Kwargs: kwargs}
		}
	}
	return e, nil
}

func (p *Parser) callArgs(ctx *scope.Context, until token.Kind) ([]ast.Node, []ast.KeywordArg, error) {
	args, err := listOf(p, func() (ast.Node, error) { return p.expr(ctx) }, until, token.AT)
	if err != nil {
		return nil, nil, err
	}
	var kwargs []ast.KeywordArg
	if p.Maybe(false, token.AT) != nil {
		kwargs, err = listOf(p, func() (ast.KeywordArg, error) { return p.namedArg(ctx) }, until)
		if err != nil {
			return nil, nil, err
		}
	}
	return args, kwargs, nil
}

func (p *Parser) namedArg(ctx *scope.Context) (ast.KeywordArg, error) {
	if _, err := p.Next(false, token.AT); err != nil {
		return ast.KeywordArg{}, err
	}
	name, err := p.Next(false, token.IDENTIFIER)
	if err != nil {
		return ast.KeywordArg{}, err
	}
	if _, err := p.Next(false, token.ASSIGN); err != nil {
		return ast.KeywordArg{}, err
	}
	expr, err := p.expr(ctx)
	if err != nil {
		return ast.KeywordArg{}, err
	}
	return ast.KeywordArg{Name: name.Image, Expr: expr}, nil
}

func (p *Parser) getAttribute(ctx *scope.Context) (ast.Node, error) {
	e, err := p.getSubscript(ctx)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.NextIf(false, token.DOT)
		if !ok {
			break
		}
		member, err := p.Next(false, token.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		e = &ast.GetAttribute{LineNo: op.Line, Target: e, Name: member.Image}
	}
	return e, nil
}

func (p *Parser) getSubscript(ctx *scope.Context) (ast.Node, error) {
	e, err := p.primary(ctx)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.NextIf(true, token.LBRACK)
		if !ok {
			break
		}

		// Bounds are parsed with rangeExpr suppressed, so `..` is always
		// left for the slice branch below rather than being consumed as
		// a RangeLiteral partway through `a[1..3]` or left unconsumed
		// ahead of `a[1..]`.
		p.noRangeDepth++
		var index ast.Node
		if p.Maybe(false, token.DOTDOT) != nil {
			index = &ast.Literal{LineNo: op.Line, Value: nil}
		} else {
			index, err = p.expr(ctx)
		}
		if err != nil {
			p.noRangeDepth--
			return nil, err
		}

		if _, ok := p.NextIf(false, token.DOTDOT); ok {
			var end ast.Node
			if p.Maybe(false, token.RBRACK) != nil {
				end = &ast.Literal{LineNo: op.Line, Value: nil}
			} else {
				end, err = p.expr(ctx)
				if err != nil {
					p.noRangeDepth--
					return nil, err
				}
			}
			index = &ast.Slice{LineNo: index.Line(), Start: index, End: end}
		}
		p.noRangeDepth--

		if _, err := p.Next(false, token.RBRACK); err != nil {
			return nil, err
		}
		e = &ast.GetSubscript{LineNo: op.Line, Target: e, Index: index}
	}
	return e, nil
}

func (p *Parser) keyValue(ctx *scope.Context) (ast.DictEntry, error) {
	key, err := p.expr(ctx)
	if err != nil {
		return ast.DictEntry{}, err
	}
	if _, err := p.Next(false, token.COLON); err != nil {
		return ast.DictEntry{}, err
	}
	value, err := p.expr(ctx)
	if err != nil {
		return ast.DictEntry{}, err
	}
	return ast.DictEntry{Key: key, Value: value}, nil
}

func (p *Parser) primary(ctx *scope.Context) (ast.Node, error) {
	allowed := []token.Kind{token.INTEGER, token.FLOAT, token.STRING, token.IDENTIFIER, token.LPAREN, token.LBRACK, token.LBRACE}

	tok := p.Peek(false)
	if tok == nil {
		_, err := p.Next(false, allowed...)
		return nil, err
	}

	switch tok.Kind {
	case token.INTEGER:
		t, err := p.Next(false, token.INTEGER)
		if err != nil {
			return nil, err
		}
		v, err := strconv.Atoi(t.Image)
		if err != nil {
			return nil, err
		}
		return &ast.Literal{LineNo: t.Line, Value: v}, nil

	case token.FLOAT:
		t, err := p.Next(false, token.FLOAT)
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(t.Image, 64)
		if err != nil {
			return nil, err
		}
		return &ast.Literal{LineNo: t.Line, Value: v}, nil

	case token.STRING:
		t, err := p.Next(false, token.STRING)
		if err != nil {
			return nil, err
		}
		return &ast.Literal{LineNo: t.Line, Value: unescapeString(t.Image)}, nil

	case token.IDENTIFIER:
		t, err := p.Next(false, token.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		return &ast.GetVariable{LineNo: t.Line, Var: ctx.Request(t.Image)}, nil

	case token.LPAREN:
		if _, err := p.Next(false, token.LPAREN); err != nil {
			return nil, err
		}
		return p.block(ctx, token.RPAREN)

	case token.LBRACK:
		t, err := p.Next(false, token.LBRACK)
		if err != nil {
			return nil, err
		}
		exprs, err := listOf(p, func() (ast.Node, error) { return p.expr(ctx) }, token.RBRACK)
		if err != nil {
			return nil, err
		}
		return &ast.ListLiteral{LineNo: t.Line, Exprs: exprs}, nil

	case token.LBRACE:
		t, err := p.Next(false, token.LBRACE)
		if err != nil {
			return nil, err
		}
		items, err := listOf(p, func() (ast.DictEntry, error) { return p.keyValue(ctx) }, token.RBRACE)
		if err != nil {
			return nil, err
		}
		return &ast.DictLiteral{LineNo: t.Line, Items: items}, nil

	default:
		_, err := p.Next(false, allowed...)
		return nil, err
	}
}

// unescapeString strips the surrounding quotes from a STRING token's image
// and resolves backslash escapes. Dojo strings may be single- or
// double-quoted; the scanner's pattern already guarantees matching quotes.
func unescapeString(image string) string {
	body := image[1 : len(image)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			i++
			switch body[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			default:
				b.WriteByte(body[i])
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

package parser_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juanplopes/dojo-lang/ast"
	"github.com/juanplopes/dojo-lang/parser"
	"github.com/juanplopes/dojo-lang/scope"
	"github.com/juanplopes/dojo-lang/token"
)

// variableByNameAndScope ignores scope.Variable's unexported context
// pointer, which differs by identity between two independent parses even
// when the resolved Name/Scope are identical.
var variableByNameAndScope = cmp.Comparer(func(a, b *scope.Variable) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Name == b.Name && a.Scope == b.Scope
})

func body(t *testing.T, program *ast.Program) []ast.Node {
	t.Helper()
	block, ok := program.Body.(*ast.Block)
	require.True(t, ok)
	return block.Exprs
}

func TestParsePrecedence(t *testing.T) {
	// 2+3*4 must associate as 2+(3*4): BinaryOp('+', 2, BinaryOp('*', 3, 4))
	program, err := parser.Parse("2+3*4")
	require.NoError(t, err)

	exprs := body(t, program)
	require.Len(t, exprs, 1)

	plus, ok := exprs[0].(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "+", plus.Op)

	mul, ok := plus.RHS.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "*", mul.Op)
}

func TestParseParenthesesOverridePrecedence(t *testing.T) {
	program, err := parser.Parse("(2+3)*4")
	require.NoError(t, err)

	exprs := body(t, program)
	mul, ok := exprs[0].(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "*", mul.Op)

	// A parenthesized group parses as a one-expression Block, same as any
	// other block — primary() never special-cases single-expression
	// parens into a bare node.
	group, ok := mul.LHS.(*ast.Block)
	require.True(t, ok)
	require.Len(t, group.Exprs, 1)
	_, ok = group.Exprs[0].(*ast.BinaryOp)
	require.True(t, ok)
}

func TestLFSensitivitySplitsExpressions(t *testing.T) {
	program, err := parser.Parse("4\n-2")
	require.NoError(t, err)
	assert.Len(t, body(t, program), 2, "a newline before a binary-looking operator must end the first expression")
}

func TestNoLFContinuesExpression(t *testing.T) {
	program, err := parser.Parse("4-2")
	require.NoError(t, err)
	assert.Len(t, body(t, program), 1)
}

func TestAssignmentCreatesLocalBinding(t *testing.T) {
	program, err := parser.Parse("a = 1")
	require.NoError(t, err)

	exprs := body(t, program)
	set, ok := exprs[0].(*ast.SetVariable)
	require.True(t, ok)
	assert.Equal(t, scope.Local, set.Var.Scope)
	assert.Equal(t, "a", set.Var.Name)
}

func TestSetSubscriptFromGetSubscript(t *testing.T) {
	program, err := parser.Parse("a=[1,2,3,4]; a[2]=42; a")
	require.NoError(t, err)

	exprs := body(t, program)
	require.Len(t, exprs, 3)

	set, ok := exprs[1].(*ast.SetSubscript)
	require.True(t, ok)

	idx, ok := set.Index.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, 2, idx.Value)
}

func TestSubscriptWithBothBoundsBuildsSlice(t *testing.T) {
	program, err := parser.Parse("a[1..3]")
	require.NoError(t, err)

	exprs := body(t, program)
	require.Len(t, exprs, 1)

	get, ok := exprs[0].(*ast.GetSubscript)
	require.True(t, ok)

	slice, ok := get.Index.(*ast.Slice)
	require.True(t, ok, "a[1..3] must build a Slice index, not a RangeLiteral")

	start, ok := slice.Start.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, 1, start.Value)

	end, ok := slice.End.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, 3, end.Value)
}

func TestSubscriptWithOmittedUpperBoundBuildsSlice(t *testing.T) {
	program, err := parser.Parse("a[1..]")
	require.NoError(t, err)

	exprs := body(t, program)
	require.Len(t, exprs, 1)

	get, ok := exprs[0].(*ast.GetSubscript)
	require.True(t, ok)

	slice, ok := get.Index.(*ast.Slice)
	require.True(t, ok, "a[1..] must build a Slice index with a nil end, not fail to parse")

	start, ok := slice.Start.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, 1, start.Value)

	end, ok := slice.End.(*ast.Literal)
	require.True(t, ok)
	assert.Nil(t, end.Value)
}

func TestSubscriptWithOmittedLowerBoundBuildsSlice(t *testing.T) {
	program, err := parser.Parse("a[..3]")
	require.NoError(t, err)

	exprs := body(t, program)
	get := exprs[0].(*ast.GetSubscript)
	slice, ok := get.Index.(*ast.Slice)
	require.True(t, ok)

	start, ok := slice.Start.(*ast.Literal)
	require.True(t, ok)
	assert.Nil(t, start.Value)

	end, ok := slice.End.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, 3, end.Value)
}

func TestSubscriptWithBothBoundsOmittedBuildsSlice(t *testing.T) {
	program, err := parser.Parse("a[..]")
	require.NoError(t, err)

	exprs := body(t, program)
	get := exprs[0].(*ast.GetSubscript)
	slice, ok := get.Index.(*ast.Slice)
	require.True(t, ok)
	assert.Nil(t, slice.Start.(*ast.Literal).Value)
	assert.Nil(t, slice.End.(*ast.Literal).Value)
}

func TestRangeLiteralOutsideSubscriptStillParses(t *testing.T) {
	program, err := parser.Parse("1..20")
	require.NoError(t, err)

	exprs := body(t, program)
	require.Len(t, exprs, 1)
	rng, ok := exprs[0].(*ast.RangeLiteral)
	require.True(t, ok, "a bare range outside [] must still build a RangeLiteral")
	assert.Equal(t, 1, rng.Begin.(*ast.Literal).Value)
	assert.Equal(t, 20, rng.End.(*ast.Literal).Value)
}

func TestRangeLiteralSurvivesAsCallArgumentInsideSubscript(t *testing.T) {
	program, err := parser.Parse("a[f(1..2)]")
	require.NoError(t, err)

	exprs := body(t, program)
	get := exprs[0].(*ast.GetSubscript)
	call, ok := get.Index.(*ast.Call)
	require.True(t, ok, "the index itself is the call, not a Slice")
	require.Len(t, call.Args, 1)

	_, ok = call.Args[0].(*ast.RangeLiteral)
	assert.True(t, ok, "a range nested inside a call argument must still build a RangeLiteral")
}

func TestClosureCaptureMarksExportedAndClosure(t *testing.T) {
	// seq=/:(x=0; /: x=x+1)
	program, err := parser.Parse("seq=/:(x=0; /: x=x+1)")
	require.NoError(t, err)

	exprs := body(t, program)
	set, ok := exprs[0].(*ast.SetVariable)
	require.True(t, ok)

	seqFn, ok := set.Expr.(*ast.Function)
	require.True(t, ok)
	assert.Contains(t, seqFn.Cell, "x", "x is captured by the nested function, so seq's scope must export it")

	block, ok := seqFn.Body.(*ast.Block)
	require.True(t, ok)
	require.Len(t, block.Exprs, 2)

	innerFn, ok := block.Exprs[1].(*ast.Function)
	require.True(t, ok)
	assert.Contains(t, innerFn.Free, "x", "the inner function reads x from its enclosing scope")
}

func TestRecursiveNamedFunctionBindsItsOwnName(t *testing.T) {
	program, err := parser.Parse("def fib(n): n<=2 and 1 or fib(n-1)+fib(n-2)")
	require.NoError(t, err)

	exprs := body(t, program)
	set, ok := exprs[0].(*ast.SetVariable)
	require.True(t, ok)
	assert.Equal(t, "fib", set.Var.Name)

	fn, ok := set.Expr.(*ast.Function)
	require.True(t, ok)
	assert.Equal(t, "fib", fn.Name)
	assert.Equal(t, []string{"n"}, fn.Args)

	orExpr, ok := fn.Body.(*ast.BooleanOp)
	require.True(t, ok)
	assert.Equal(t, "or", orExpr.Op)
}

func TestPipeComposePartial(t *testing.T) {
	// 1..20 |> filter{/x:x%2==0} |> list
	program, err := parser.Parse("1..20 |> filter{/x:x%2==0} |> list")
	require.NoError(t, err)

	exprs := body(t, program)
	outer, ok := exprs[0].(*ast.PipeForward)
	require.True(t, ok)

	inner, ok := outer.Arg.(*ast.PipeForward)
	require.True(t, ok)

	rng, ok := inner.Arg.(*ast.RangeLiteral)
	require.True(t, ok)
	_ = rng

	partial, ok := inner.Method.(*ast.PartialCall)
	require.True(t, ok)
	assert.Len(t, partial.Args, 1)

	_, ok = outer.Method.(*ast.GetVariable)
	require.True(t, ok)
}

func TestCompositionParsesAboveFunction(t *testing.T) {
	program, err := parser.Parse("42 |> inc2 => str")
	require.NoError(t, err)

	exprs := body(t, program)
	pipe, ok := exprs[0].(*ast.PipeForward)
	require.True(t, ok)

	comp, ok := pipe.Method.(*ast.Composition)
	require.True(t, ok)
	_ = comp
}

func TestImportWithoutNames(t *testing.T) {
	program, err := parser.Parse("import math")
	require.NoError(t, err)

	exprs := body(t, program)
	imp, ok := exprs[0].(*ast.Import)
	require.True(t, ok)
	assert.Equal(t, "math", imp.Module)
	assert.Nil(t, imp.Names)
}

func TestImportWithNames(t *testing.T) {
	program, err := parser.Parse("import math(sqrt, pow)")
	require.NoError(t, err)

	exprs := body(t, program)
	imp, ok := exprs[0].(*ast.Import)
	require.True(t, ok)
	assert.Equal(t, "math", imp.Module)
	assert.Equal(t, []string{"sqrt", "pow"}, imp.Names)
}

func TestIfElifElse(t *testing.T) {
	program, err := parser.Parse("if a: 1 elif b: 2 else: 3")
	require.NoError(t, err)

	exprs := body(t, program)
	top, ok := exprs[0].(*ast.If)
	require.True(t, ok)

	elif, ok := top.ElseBody.(*ast.If)
	require.True(t, ok)

	_, ok = elif.ElseBody.(*ast.Literal)
	require.True(t, ok)
}

func TestUnexpectedTokenReportsLineAndColumn(t *testing.T) {
	_, err := parser.Parse("2+2\n2+3\n  )")
	require.Error(t, err)

	var compileErr *token.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, token.ErrUnexpectedToken, compileErr.Code)
	assert.Equal(t, 3, compileErr.Token.Line)
	assert.Equal(t, 3, compileErr.Token.Column)
}

func TestInvalidSyntaxReportsLineAndColumn(t *testing.T) {
	_, err := parser.Parse("$")
	require.Error(t, err)

	var compileErr *token.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, token.ErrInvalidSyntax, compileErr.Code)
	assert.Equal(t, 1, compileErr.Token.Line)
	assert.Equal(t, 1, compileErr.Token.Column)
}

func TestWhitespaceDoesNotChangeParseTree(t *testing.T) {
	// Extra spacing that doesn't cross a meaningful line break must parse
	// to a structurally identical tree.
	compact, err := parser.Parse("def fib(n): n<=2 and 1 or fib(n-1)+fib(n-2)")
	require.NoError(t, err)

	spaced, err := parser.Parse("def   fib( n ) :  n <= 2   and 1   or   fib(n-1) + fib(n-2)")
	require.NoError(t, err)

	diff := cmp.Diff(compact, spaced, variableByNameAndScope)
	assert.Empty(t, diff, "whitespace-only differences must not change the parse tree")
}

func TestMissingCommaIsUnexpectedToken(t *testing.T) {
	_, err := parser.Parse("2*add(2+2 3+3)")
	require.Error(t, err)

	var compileErr *token.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, token.ErrUnexpectedToken, compileErr.Code)
}

package codegen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juanplopes/dojo-lang/codegen"
	"github.com/juanplopes/dojo-lang/parser"
)

func compileBody(t *testing.T, source string) *codegen.CodeObject {
	t.Helper()
	program, err := parser.Parse(source)
	require.NoError(t, err)
	return codegen.Emit(program, "<test>")
}

func TestEmitLiteralAddition(t *testing.T) {
	code := compileBody(t, "2+2")

	assert.Equal(t, []any{2}, code.Consts, "the two literal 2s dedupe to a single constant slot")

	want := []byte{
		byte(codegen.LOAD_CONST), 0, 0,
		byte(codegen.LOAD_CONST), 0, 0,
		byte(codegen.BINARY_ADD),
		byte(codegen.RETURN_VALUE),
	}
	assert.Equal(t, want, code.Code)
}

func TestEmitBlockPopsIntermediateValues(t *testing.T) {
	code := compileBody(t, "1;2;3")

	want := []byte{
		byte(codegen.LOAD_CONST), 0, 0,
		byte(codegen.POP_TOP),
		byte(codegen.LOAD_CONST), 1, 0,
		byte(codegen.POP_TOP),
		byte(codegen.LOAD_CONST), 2, 0,
		byte(codegen.RETURN_VALUE),
	}
	assert.Equal(t, want, code.Code)
	assert.Equal(t, []any{1, 2, 3}, code.Consts)
}

func TestEmitEmptyBlockPushesNil(t *testing.T) {
	code := compileBody(t, "()")

	want := []byte{
		byte(codegen.LOAD_CONST), 0, 0,
		byte(codegen.RETURN_VALUE),
	}
	assert.Equal(t, want, code.Code)
	assert.Equal(t, []any{nil}, code.Consts)
}

func TestEmitLocalVariableUsesFastSlots(t *testing.T) {
	code := compileBody(t, "a=1; a")

	assert.Contains(t, code.Varnames, "a")

	// SetVariable: emit(1), DUP_TOP, STORE_FAST(a); Block separator POP_TOP;
	// GetVariable: LOAD_FAST(a); RETURN_VALUE.
	want := []byte{
		byte(codegen.LOAD_CONST), 0, 0,
		byte(codegen.DUP_TOP),
		byte(codegen.STORE_FAST), 0, 0,
		byte(codegen.POP_TOP),
		byte(codegen.LOAD_FAST), 0, 0,
		byte(codegen.RETURN_VALUE),
	}
	assert.Equal(t, want, code.Code)
}

func TestEmitGlobalVariableUsesGlobalOps(t *testing.T) {
	code := compileBody(t, "x")

	assert.Contains(t, code.Names, "x")
	want := []byte{
		byte(codegen.LOAD_GLOBAL), 0, 0,
		byte(codegen.RETURN_VALUE),
	}
	assert.Equal(t, want, code.Code)
}

func TestEmitFunctionWithoutFreeVarsUsesMakeFunction(t *testing.T) {
	code := compileBody(t, "def inc(n): n+1")

	assert.Contains(t, code.Varnames, "inc")
	// LOAD_CONST(code), MAKE_FUNCTION, DUP_TOP, STORE_FAST(inc), RETURN_VALUE
	want := []byte{
		byte(codegen.LOAD_CONST), 0, 0,
	}
	assert.Equal(t, want, code.Code[:3])
	assert.Equal(t, byte(codegen.MAKE_FUNCTION), code.Code[3])
	assert.Equal(t, byte(codegen.RETURN_VALUE), code.Code[len(code.Code)-1])

	nested, ok := code.Consts[0].(*codegen.CodeObject)
	require.True(t, ok)
	assert.Equal(t, 1, nested.Argcount)
	assert.Equal(t, []string{"n"}, nested.Varnames)
}

func containsOpcode(code *codegen.CodeObject, op codegen.Opcode, seen map[*codegen.CodeObject]bool) bool {
	if seen[code] {
		return false
	}
	seen[code] = true

	for _, b := range code.Code {
		if codegen.Opcode(b) == op {
			return true
		}
	}
	for _, c := range code.Consts {
		if nested, ok := c.(*codegen.CodeObject); ok && containsOpcode(nested, op, seen) {
			return true
		}
	}
	return false
}

func TestEmitClosureUsesMakeClosure(t *testing.T) {
	code := compileBody(t, "seq=/:(x=0; /: x=x+1)")

	// MAKE_CLOSURE lives in seq's own bytecode (the instruction that
	// builds the inner function, not the inner function's own body), so
	// search every nested CodeObject rather than just the top level.
	assert.True(t, containsOpcode(code, codegen.MAKE_CLOSURE, map[*codegen.CodeObject]bool{}),
		"the inner anonymous function captures x and must be built with MAKE_CLOSURE")
}

func TestEmitBooleanOpPatchesJumpTarget(t *testing.T) {
	code := compileBody(t, "1 and 2")

	// LOAD_CONST(1), [patch: EXTENDED_ARG hi, JUMP_IF_FALSE_OR_POP lo], LOAD_CONST(2), RETURN_VALUE
	require.True(t, len(code.Code) >= 11)
	assert.Equal(t, byte(codegen.LOAD_CONST), code.Code[0])
	assert.Equal(t, byte(codegen.EXTENDED_ARG), code.Code[3])
	assert.Equal(t, byte(codegen.JUMP_IF_FALSE_OR_POP), code.Code[6])

	target := int(code.Code[7]) | int(code.Code[8])<<8
	assert.Equal(t, len(code.Code)-1, target, "jump target must land exactly on the final RETURN_VALUE")
}

func TestEmitIfPatchesBothBranches(t *testing.T) {
	code := compileBody(t, "if 1: 2 else: 3")

	var sawPopJumpIfFalse, sawJumpAbsolute bool
	for _, b := range code.Code {
		switch codegen.Opcode(b) {
		case codegen.POP_JUMP_IF_FALSE:
			sawPopJumpIfFalse = true
		case codegen.JUMP_ABSOLUTE:
			sawJumpAbsolute = true
		}
	}
	assert.True(t, sawPopJumpIfFalse)
	assert.True(t, sawJumpAbsolute)
}

func TestEmitYieldSetsGeneratorFlag(t *testing.T) {
	code := compileBody(t, "def g(): yield 1")
	nested := code.Consts[0].(*codegen.CodeObject)
	assert.NotZero(t, nested.Flags&codegen.CO_GENERATOR)
}

func TestEmitAnonymousFunctionCodenameIsDeterministic(t *testing.T) {
	source := "/x: x+1"
	first := compileBody(t, source)
	second := compileBody(t, source)

	nestedA := first.Consts[0].(*codegen.CodeObject)
	nestedB := second.Consts[0].(*codegen.CodeObject)
	assert.Equal(t, nestedA.Codename, nestedB.Codename,
		"two compiles of the same source must assign the same anonymous codename")
	assert.NotEmpty(t, nestedA.Codename)
}

func TestSerializeRoundTrips(t *testing.T) {
	code := compileBody(t, "2+2")

	data, err := code.Serialize()
	require.NoError(t, err)

	back, err := codegen.Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, code.Code, back.Code)
	assert.Equal(t, code.Consts, back.Consts)
}

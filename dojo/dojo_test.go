package dojo_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juanplopes/dojo-lang/codegen"
	"github.com/juanplopes/dojo-lang/dojo"
)

// stubVM is a minimal dojo.VM that just records what it was asked to run,
// standing in for a real VM the dojo package deliberately never imports.
type stubVM struct {
	gotCode    *codegen.CodeObject
	gotGlobals map[string]any
	result     any
	err        error
}

func (s *stubVM) Run(code *codegen.CodeObject, globals map[string]any) (any, error) {
	s.gotCode = code
	s.gotGlobals = globals
	return s.result, s.err
}

func TestCompileProducesRunnableCodeObject(t *testing.T) {
	callable, err := dojo.Compile("42+2", "<scenario1>")
	require.NoError(t, err)

	code := callable.CodeObject()
	require.NotNil(t, code)
	assert.Equal(t, []any{42, 2}, code.Consts)

	want := []byte{
		byte(codegen.LOAD_CONST), 0, 0,
		byte(codegen.LOAD_CONST), 1, 0,
		byte(codegen.BINARY_ADD),
		byte(codegen.RETURN_VALUE),
	}
	assert.Equal(t, want, code.Code)
}

func TestCompileReturnsParseError(t *testing.T) {
	_, err := dojo.Compile("$", "<bad>")
	require.Error(t, err)
}

func TestInvokeDelegatesToVM(t *testing.T) {
	callable, err := dojo.Compile("1+1", "<scenario1>")
	require.NoError(t, err)

	vm := &stubVM{result: 2}
	globals := map[string]any{"unused": true}

	result, err := callable.Invoke(globals, vm)
	require.NoError(t, err)
	assert.Equal(t, 2, result)
	assert.Same(t, callable.CodeObject(), vm.gotCode)
	assert.Equal(t, globals, vm.gotGlobals)
}

func TestInvokePropagatesVMError(t *testing.T) {
	callable, err := dojo.Compile("1", "<scenario1>")
	require.NoError(t, err)

	wantErr := errors.New("boom")
	vm := &stubVM{err: wantErr}

	_, err = callable.Invoke(nil, vm)
	assert.ErrorIs(t, err, wantErr)
}

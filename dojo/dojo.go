// Package dojo ties the scanner, parser and emitter together into the
// single entry point host code needs: Compile. It performs no evaluation
// itself — the resulting CodeObject is handed to an external VM — mirroring
// the original dojo_compile/DojoCallable split between compiling a program
// and later calling it against a set of globals.
package dojo

import (
	"github.com/juanplopes/dojo-lang/codegen"
	"github.com/juanplopes/dojo-lang/parser"
)

// Compile parses and emits source, returning a Callable wrapping the
// resulting root CodeObject. filename is recorded on the CodeObject (and
// every nested function's CodeObject) for diagnostics, and is hashed into
// the codenames given to anonymous functions; the bytecode itself does
// not depend on it.
func Compile(source string, filename string, opts ...codegen.Option) (*Callable, error) {
	program, err := parser.Parse(source)
	if err != nil {
		return nil, err
	}
	return &Callable{code: codegen.Emit(program, filename, opts...)}, nil
}

// Callable is the handle a VM construction needs: the compiled program's
// root CodeObject, plus a convenience Invoke for hosts that already have
// a VM implementation at hand.
type Callable struct {
	code *codegen.CodeObject
}

// CodeObject returns the compiled program's root code object.
func (c *Callable) CodeObject() *codegen.CodeObject {
	return c.code
}

// VM is the minimal interface Callable.Invoke needs from an execution
// engine. It is defined here only so Invoke has something to call —
// this package never implements it, keeping the VM genuinely external.
type VM interface {
	Run(code *codegen.CodeObject, globals map[string]any) (any, error)
}

// Invoke runs the compiled program against globals using vm. It is a
// convenience wrapper only; constructing the CodeObject does not require
// it, and hosts that manage their own VM lifecycle can call
// vm.Run(c.CodeObject(), globals) directly instead.
func (c *Callable) Invoke(globals map[string]any, vm VM) (any, error) {
	return vm.Run(c.code, globals)
}

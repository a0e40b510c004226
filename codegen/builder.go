// Package codegen turns a resolved AST into an immutable CodeObject: a
// stack-machine bytecode artifact with its constant pool, name tables and
// line-number map, ready for an external VM to run. A Builder accumulates
// bytes and a constant pool, with patch points written as placeholder
// bytes and fixed up once the jump target is known.
package codegen

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/juanplopes/dojo-lang/ast"
	"github.com/juanplopes/dojo-lang/scope"
)

// anonymousNamespace roots the v5 UUIDs synthesized for anonymous function
// codenames, so two compiles of the same source — same filename, same
// function starting on the same line — derive the same codename instead
// of a fresh random one each run.
var anonymousNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("dojo-lang/codegen/anonymous"))

// anonymousCodename deterministically names an anonymous (`/args:body`)
// function from its source position, the same way a named `def` would be
// named from its identifier.
func anonymousCodename(filename string, line int) string {
	id := uuid.NewSHA1(anonymousNamespace, []byte(fmt.Sprintf("%s:%d", filename, line)))
	return "<anonymous-" + id.String()[:8] + ">"
}

// noLine marks a code/line pair that does not correspond to a source
// position — the implicit bytes of a multi-byte instruction's argument,
// or a bookkeeping push with no user-visible location.
const noLine = -1

// table is an insertion-ordered, deduplicated string→index map: the
// shared shape behind names, varnames, cellvars and freevars.
type table struct {
	index map[string]int
	order []string
}

func newTable(prefilled []string) *table {
	t := &table{index: map[string]int{}}
	for _, name := range prefilled {
		t.intern(name)
	}
	return t
}

func (t *table) intern(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	i := len(t.order)
	t.index[name] = i
	t.order = append(t.order, name)
	return i
}

// constTable dedupes scalar constants by value; non-scalar constants
// (nested code objects, marker values) are never deduped and simply
// appended, which costs nothing but pool size.
type constTable struct {
	order []any
}

// intern returns the constant's pool index and whether it was newly
// appended (false on a dedup hit), so callers can log only genuinely new
// entries.
func (c *constTable) intern(v any) (int, bool) {
	for i, existing := range c.order {
		if constEqual(existing, v) {
			return i, false
		}
	}
	c.order = append(c.order, v)
	return len(c.order) - 1, true
}

func constEqual(a, b any) bool {
	switch av := a.(type) {
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	default:
		return false
	}
}

// Builder accumulates bytecode for one function body (or the program's
// top-level body). A fresh Builder is created per nested Function node;
// Emit builds the whole nest top-down via Builder.VisitFunction.
type Builder struct {
	codename  string
	filename  string
	firstline int
	argcount  int

	consts   constTable
	names    *table
	varnames *table
	cellvars *table
	freevars *table

	code  []byte
	lines []int

	flags  int
	logger Logger
}

func newBuilder(codename, filename string, argnames, cellvars, freevars []string) *Builder {
	return &Builder{
		codename:  codename,
		filename:  filename,
		firstline: 1,
		argcount:  len(argnames),
		varnames:  newTable(argnames),
		cellvars:  newTable(cellvars),
		freevars:  newTable(freevars),
		names:     newTable(nil),
		logger:    nopLogger,
	}
}

// Emit compiles a fully-resolved Program into its root CodeObject.
func Emit(program *ast.Program, filename string, opts ...Option) *CodeObject {
	b := newBuilder("<root>", filename, nil, program.Cell, program.Free)
	for _, opt := range opts {
		opt(b)
	}
	b.emit(program.Body)
	return b.assemble()
}

func (b *Builder) emit(n ast.Node) { n.Accept(b) }

func (b *Builder) appendLine(line int) {
	b.lines = append(b.lines, line)
}

// emitOp appends a single opcode byte tagged with its source line.
func (b *Builder) emitOp(op Opcode, line int) {
	b.code = append(b.code, byte(op))
	b.appendLine(line)
}

// emitOpArg appends a 3-byte instruction: opcode then a little-endian
// 16-bit argument. Only the opcode byte carries a line; the argument
// bytes are continuation bytes with no line of their own, since only
// instruction starts are addressable in the line table.
func (b *Builder) emitOpArg(op Opcode, line int, arg int) {
	b.code = append(b.code, byte(op))
	b.appendLine(line)
	b.code = append(b.code, byte(arg&0xFF))
	b.appendLine(noLine)
	b.code = append(b.code, byte((arg>>8)&0xFF))
	b.appendLine(noLine)
}

// patchPoint reserves 6 placeholder bytes and returns their offset, to be
// filled in later by patchOp once the jump target is known.
func (b *Builder) patchPoint(line int) int {
	begin := len(b.code)
	b.code = append(b.code, make([]byte, 6)...)
	b.appendLine(line)
	for i := 0; i < 5; i++ {
		b.appendLine(noLine)
	}
	return begin
}

// patchOp fills in a reserved patch point with an EXTENDED_ARG carrying
// the high 16 bits of target, followed by op carrying the low 16 bits —
// a fixed 6-byte encoding regardless of how far the jump actually needs
// to reach, so code growth after the point never invalidates it.
func (b *Builder) patchOp(begin int, op Opcode, target int) {
	b.code[begin+0] = byte(EXTENDED_ARG)
	b.code[begin+1] = byte((target >> 16) & 0xFF)
	b.code[begin+2] = byte((target >> 24) & 0xFF)
	b.code[begin+3] = byte(op)
	b.code[begin+4] = byte((target >> 0) & 0xFF)
	b.code[begin+5] = byte((target >> 8) & 0xFF)

	b.logger.Debug("patched jump",
		zap.Int("offset", begin), zap.Stringer("op", op), zap.Int("target", target))
}

func two(arg1, arg2 int) int { return arg2<<8 | arg1 }

func (b *Builder) constID(v any) int {
	i, isNew := b.consts.intern(v)
	if isNew {
		b.logger.Debug("interned constant", zap.Int("index", i), zap.Any("value", v))
	}
	return i
}

func (b *Builder) nameID(s string) int    { return b.names.intern(s) }
func (b *Builder) varnameID(s string) int { return b.varnames.intern(s) }

func (b *Builder) derefID(name string) int {
	if i, ok := b.cellvars.index[name]; ok {
		return i
	}
	return b.freevars.index[name] + len(b.cellvars.order)
}

// emitVar dispatches a variable load/store to the opcode its scope
// demands: local lives in a fast slot, exported/closure go through a
// cell, global is looked up by name.
func (b *Builder) emitVar(line int, verb string, v *scope.Variable) {
	var op Opcode
	var arg int
	switch v.Scope {
	case scope.Local:
		if verb == "LOAD" {
			op = LOAD_FAST
		} else {
			op = STORE_FAST
		}
		arg = b.varnameID(v.Name)
	case scope.Exported, scope.Closure:
		if verb == "LOAD" {
			op = LOAD_DEREF
		} else {
			op = STORE_DEREF
		}
		arg = b.derefID(v.Name)
	default: // scope.Global
		if verb == "LOAD" {
			op = LOAD_GLOBAL
		} else {
			op = STORE_GLOBAL
		}
		arg = b.nameID(v.Name)
	}
	b.emitOpArg(op, line, arg)
}

// makeLnotab packs (offset-delta, line-delta) byte pairs, saturating each
// delta at 255 by splitting it across multiple pairs, the same scheme
// CPython's co_lnotab uses.
func (b *Builder) makeLnotab() []byte {
	currentLine := b.firstline
	currentOffset := 0
	var lnotab []byte

	for i, line := range b.lines {
		if line == noLine {
			continue
		}
		deltaLine := line - currentLine
		if deltaLine <= 0 {
			continue
		}
		deltaOffset := i - currentOffset
		if deltaOffset <= 0 {
			continue
		}

		currentLine = line
		currentOffset = i

		for deltaOffset > 255 {
			lnotab = append(lnotab, 255, 0)
			deltaOffset -= 255
		}
		for deltaLine > 255 {
			lnotab = append(lnotab, byte(deltaOffset), 255)
			deltaLine -= 255
			deltaOffset = 0
		}
		lnotab = append(lnotab, byte(deltaOffset), byte(deltaLine))
	}

	return lnotab
}

func (b *Builder) assemble() *CodeObject {
	code := make([]byte, len(b.code)+1)
	copy(code, b.code)
	code[len(b.code)] = byte(RETURN_VALUE)

	return &CodeObject{
		Argcount:    b.argcount,
		NLocals:     len(b.varnames.order),
		Flags:       b.flags,
		Code:        code,
		Consts:      append([]any(nil), b.consts.order...),
		Names:       append([]string(nil), b.names.order...),
		Varnames:    append([]string(nil), b.varnames.order...),
		Freevars:    append([]string(nil), b.freevars.order...),
		Cellvars:    append([]string(nil), b.cellvars.order...),
		Filename:    b.filename,
		Codename:    b.codename,
		Firstlineno: b.firstline,
		Lnotab:      b.makeLnotab(),
	}
}

package codegen

import (
	"go.uber.org/zap"

	"github.com/juanplopes/dojo-lang/ast"
)

// ComposeMarker, PartialMarker and RangeMarker are pushed as LOAD_CONST
// operands ahead of a Composition/PartialCall/RangeLiteral's real
// operands; the VM recognizes them and substitutes its own compose/
// partial-application/range-constructor callable before the following
// CALL_FUNCTION runs. Using typed markers (rather than a host function
// value) keeps CodeObject gob-serializable.
type ComposeMarker struct{}
type PartialMarker struct{}
type RangeMarker struct{}

func (b *Builder) VisitBlock(n *ast.Block) {
	if len(n.Exprs) == 0 {
		b.emitOpArg(LOAD_CONST, n.LineNo, b.constID(nil))
		return
	}
	b.emit(n.Exprs[0])
	for _, e := range n.Exprs[1:] {
		b.emitOp(POP_TOP, noLine)
		b.emit(e)
	}
}

func (b *Builder) VisitLiteral(n *ast.Literal) {
	b.emitOpArg(LOAD_CONST, n.LineNo, b.constID(n.Value))
}

func (b *Builder) VisitListLiteral(n *ast.ListLiteral) {
	for _, e := range n.Exprs {
		b.emit(e)
	}
	b.emitOpArg(BUILD_LIST, n.LineNo, len(n.Exprs))
}

func (b *Builder) VisitDictLiteral(n *ast.DictLiteral) {
	b.emitOpArg(BUILD_MAP, n.LineNo, 0)
	for _, kv := range n.Items {
		b.emitOp(DUP_TOP, kv.Key.Line())
		b.emit(kv.Value)
		b.emitOp(ROT_TWO, kv.Value.Line())
		b.emit(kv.Key)
		b.emitOp(STORE_SUBSCR, kv.Value.Line())
	}
}

func (b *Builder) VisitRangeLiteral(n *ast.RangeLiteral) {
	b.emitOpArg(LOAD_CONST, noLine, b.constID(RangeMarker{}))
	b.emit(n.Begin)
	b.emit(n.End)
	if n.Step != nil {
		b.emit(n.Step)
		b.emitOpArg(CALL_FUNCTION, n.LineNo, two(3, 0))
		return
	}
	b.emitOpArg(CALL_FUNCTION, n.LineNo, two(2, 0))
}

func (b *Builder) VisitGetVariable(n *ast.GetVariable) {
	b.emitVar(n.LineNo, "LOAD", n.Var)
}

func (b *Builder) VisitSetVariable(n *ast.SetVariable) {
	b.emit(n.Expr)
	b.emitOp(DUP_TOP, n.LineNo)
	b.emitVar(n.LineNo, "STORE", n.Var)
}

func (b *Builder) VisitGetAttribute(n *ast.GetAttribute) {
	b.emit(n.Target)
	b.emitOpArg(LOAD_ATTR, n.LineNo, b.nameID(n.Name))
}

func (b *Builder) VisitSetAttribute(n *ast.SetAttribute) {
	b.emit(n.Value)
	b.emit(n.Target)
	b.emitOpArg(STORE_ATTR, n.LineNo, b.nameID(n.Name))
}

func (b *Builder) VisitGetSubscript(n *ast.GetSubscript) {
	b.emit(n.Target)
	b.emit(n.Index)
	b.emitOp(BINARY_SUBSCR, n.LineNo)
}

func (b *Builder) VisitSetSubscript(n *ast.SetSubscript) {
	b.emit(n.Expr)
	b.emitOp(DUP_TOP, n.LineNo)
	b.emit(n.Target)
	b.emit(n.Index)
	b.emitOp(STORE_SUBSCR, n.LineNo)
}

func (b *Builder) VisitSlice(n *ast.Slice) {
	b.emit(n.Start)
	b.emit(n.End)
	b.emitOpArg(BUILD_SLICE, n.LineNo, 2)
}

func (b *Builder) VisitReturn(n *ast.Return) {
	b.emit(n.Expr)
	b.emitOp(RETURN_VALUE, n.LineNo)
}

func (b *Builder) VisitYield(n *ast.Yield) {
	b.emit(n.Expr)
	b.emitOp(YIELD_VALUE, n.LineNo)
	b.flags |= CO_GENERATOR
}

func (b *Builder) emitArgs(args []ast.Node, kwargs []ast.KeywordArg) {
	for _, a := range args {
		b.emit(a)
	}
	for _, kw := range kwargs {
		b.emitOpArg(LOAD_CONST, noLine, b.constID(kw.Name))
		b.emit(kw.Expr)
	}
}

func (b *Builder) VisitCall(n *ast.Call) {
	b.emit(n.Method)
	b.emitArgs(n.Args, n.Kwargs)
	b.emitOpArg(CALL_FUNCTION, n.LineNo, two(len(n.Args), len(n.Kwargs)))
}

func (b *Builder) VisitPipeForward(n *ast.PipeForward) {
	b.emit(n.Method)
	b.emit(n.Arg)
	b.emitOpArg(CALL_FUNCTION, n.LineNo, two(1, 0))
}

func (b *Builder) VisitComposition(n *ast.Composition) {
	b.emitOpArg(LOAD_CONST, noLine, b.constID(ComposeMarker{}))
	b.emit(n.LHS)
	b.emit(n.RHS)
	b.emitOpArg(CALL_FUNCTION, n.LineNo, two(2, 0))
}

func (b *Builder) VisitPartialCall(n *ast.PartialCall) {
	b.emitOpArg(LOAD_CONST, noLine, b.constID(PartialMarker{}))
	b.emit(n.Method)
	b.emitArgs(n.Args, n.Kwargs)
	b.emitOpArg(CALL_FUNCTION, n.LineNo, two(len(n.Args)+1, len(n.Kwargs)))
}

func (b *Builder) VisitBinaryOp(n *ast.BinaryOp) {
	b.emit(n.LHS)
	b.emit(n.RHS)
	b.emitOp(binaryOps[n.Op], n.LineNo)
}

func (b *Builder) VisitCompareOp(n *ast.CompareOp) {
	b.emit(n.LHS)
	b.emit(n.RHS)
	b.emitOpArg(COMPARE_OP, n.LineNo, compareOpIndex(n.Op))
}

func (b *Builder) VisitUnaryOp(n *ast.UnaryOp) {
	b.emit(n.Expr)
	b.emitOp(unaryOps[n.Op], n.LineNo)
}

// VisitBooleanOp emits a short-circuiting and/or: the RHS is only
// evaluated if the LHS doesn't already decide the result, via a
// JUMP_IF_FALSE_OR_POP/JUMP_IF_TRUE_OR_POP patched to land just past the
// RHS.
func (b *Builder) VisitBooleanOp(n *ast.BooleanOp) {
	b.emit(n.LHS)
	patch := b.patchPoint(n.LineNo)
	b.emit(n.RHS)
	b.patchOp(patch, booleanOps[n.Op], len(b.code))
}

func (b *Builder) VisitIf(n *ast.If) {
	b.emit(n.Test)
	patch1 := b.patchPoint(n.ThenBody.Line())
	b.emit(n.ThenBody)
	patch2 := b.patchPoint(n.ElseBody.Line())
	b.patchOp(patch1, POP_JUMP_IF_FALSE, len(b.code))
	b.emit(n.ElseBody)
	b.patchOp(patch2, JUMP_ABSOLUTE, len(b.code))
}

func (b *Builder) VisitImport(n *ast.Import) {
	b.emitOpArg(LOAD_CONST, n.LineNo, b.constID(-1))
	b.emitOpArg(LOAD_CONST, n.LineNo, b.constID(append([]string(nil), n.Names...)))
	b.emitOpArg(IMPORT_NAME, n.LineNo, b.nameID(n.Module))
	b.emitOp(DUP_TOP, n.LineNo)

	if len(n.Names) > 0 {
		for _, item := range n.Names {
			b.emitOpArg(IMPORT_FROM, n.LineNo, b.nameID(item))
			b.emitOpArg(STORE_GLOBAL, n.LineNo, b.nameID(item))
		}
		return
	}
	b.emitOpArg(STORE_GLOBAL, n.LineNo, b.nameID(n.Module))
}

// VisitFunction builds the nested body with its own Builder, then splices
// a MAKE_FUNCTION (or MAKE_CLOSURE, when the body captures free
// variables) into this builder's stream.
func (b *Builder) VisitFunction(n *ast.Function) {
	codename := n.Name
	if codename == "" {
		codename = anonymousCodename(b.filename, n.LineNo)
	}
	child := newBuilder(codename, b.filename, n.Args, n.Cell, n.Free)
	child.logger = b.logger
	child.emit(n.Body)
	code := child.assemble()

	if len(n.Free) > 0 {
		b.logger.Debug("emitting closure", zap.String("name", n.Name), zap.Strings("free", n.Free))
		for _, free := range n.Free {
			b.emitOpArg(LOAD_CLOSURE, n.LineNo, b.derefID(free))
		}
		b.emitOpArg(BUILD_TUPLE, n.LineNo, len(n.Free))
		b.emitOpArg(LOAD_CONST, n.LineNo, b.constID(code))
		b.emitOpArg(MAKE_CLOSURE, n.LineNo, 0)
		return
	}

	b.logger.Debug("emitting function", zap.String("name", n.Name))
	b.emitOpArg(LOAD_CONST, n.LineNo, b.constID(code))
	b.emitOpArg(MAKE_FUNCTION, n.LineNo, 0)
}

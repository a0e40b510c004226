// Package ast defines Dojo's abstract syntax tree as a closed set of node
// types dispatched through a Visitor, so the Go compiler enforces that
// every node kind has a handler.
package ast

import "github.com/juanplopes/dojo-lang/scope"

// Node is the interface every AST node satisfies. Every node carries the
// source line it was parsed from.
type Node interface {
	Line() int
	Accept(v Visitor)
}

// Visitor has one method per AST node kind. Implementations (the emitter,
// pretty-printers, ...) never type-switch on concrete node types.
type Visitor interface {
	VisitBlock(n *Block)
	VisitLiteral(n *Literal)
	VisitListLiteral(n *ListLiteral)
	VisitDictLiteral(n *DictLiteral)
	VisitRangeLiteral(n *RangeLiteral)
	VisitGetVariable(n *GetVariable)
	VisitSetVariable(n *SetVariable)
	VisitGetAttribute(n *GetAttribute)
	VisitSetAttribute(n *SetAttribute)
	VisitGetSubscript(n *GetSubscript)
	VisitSetSubscript(n *SetSubscript)
	VisitSlice(n *Slice)
	VisitReturn(n *Return)
	VisitYield(n *Yield)
	VisitCall(n *Call)
	VisitPipeForward(n *PipeForward)
	VisitComposition(n *Composition)
	VisitPartialCall(n *PartialCall)
	VisitBinaryOp(n *BinaryOp)
	VisitCompareOp(n *CompareOp)
	VisitBooleanOp(n *BooleanOp)
	VisitUnaryOp(n *UnaryOp)
	VisitIf(n *If)
	VisitFunction(n *Function)
	VisitImport(n *Import)
}

// Assignable is implemented by the three "target" node kinds
// (GetVariable, GetAttribute, GetSubscript). The parser folds `target =
// expr` by type-asserting the just-parsed node against this interface
// instead of giving every node kind a to_assignment stub.
type Assignable interface {
	Node
	ToAssignment(expr Node) Node
}

// KeywordArg is one `@name=expr` actual argument.
type KeywordArg struct {
	Name string
	Expr Node
}

type Block struct {
	LineNo int
	Exprs  []Node
}

func (n *Block) Line() int        { return n.LineNo }
func (n *Block) Accept(v Visitor) { v.VisitBlock(n) }

type Literal struct {
	LineNo int
	Value  interface{}
}

func (n *Literal) Line() int        { return n.LineNo }
func (n *Literal) Accept(v Visitor) { v.VisitLiteral(n) }

type ListLiteral struct {
	LineNo int
	Exprs  []Node
}

func (n *ListLiteral) Line() int        { return n.LineNo }
func (n *ListLiteral) Accept(v Visitor) { v.VisitListLiteral(n) }

type DictEntry struct {
	Key   Node
	Value Node
}

type DictLiteral struct {
	LineNo int
	Items  []DictEntry
}

func (n *DictLiteral) Line() int        { return n.LineNo }
func (n *DictLiteral) Accept(v Visitor) { v.VisitDictLiteral(n) }

// RangeLiteral is `begin..end` or `begin..end:step`, lowered to a call
// into the host range constructor — the step is nil when omitted.
type RangeLiteral struct {
	LineNo     int
	Begin, End Node
	Step       Node
}

func (n *RangeLiteral) Line() int        { return n.LineNo }
func (n *RangeLiteral) Accept(v Visitor) { v.VisitRangeLiteral(n) }

// GetVariable, GetAttribute and GetSubscript are "target" nodes: the
// parser rewrites one into its matching Set-node when it's immediately
// followed by `= expr`, via ToAssignment, rather than reparsing.

type GetVariable struct {
	LineNo int
	Var    *scope.Variable
}

func (n *GetVariable) Line() int        { return n.LineNo }
func (n *GetVariable) Accept(v Visitor) { v.VisitGetVariable(n) }

// ToAssignment turns this read into a write, registering the binding as
// local in its LexicalContext if it was not already known.
func (n *GetVariable) ToAssignment(expr Node) Node {
	return &SetVariable{LineNo: n.LineNo, Var: n.Var.Assign(), Expr: expr}
}

type SetVariable struct {
	LineNo int
	Var    *scope.Variable
	Expr   Node
}

func (n *SetVariable) Line() int        { return n.LineNo }
func (n *SetVariable) Accept(v Visitor) { v.VisitSetVariable(n) }

type GetAttribute struct {
	LineNo int
	Target Node
	Name   string
}

func (n *GetAttribute) Line() int        { return n.LineNo }
func (n *GetAttribute) Accept(v Visitor) { v.VisitGetAttribute(n) }

func (n *GetAttribute) ToAssignment(expr Node) Node {
	return &SetAttribute{LineNo: n.LineNo, Target: n.Target, Name: n.Name, Value: expr}
}

type SetAttribute struct {
	LineNo int
	Target Node
	Name   string
	Value  Node
}

func (n *SetAttribute) Line() int        { return n.LineNo }
func (n *SetAttribute) Accept(v Visitor) { v.VisitSetAttribute(n) }

type GetSubscript struct {
	LineNo int
	Target Node
	Index  Node
}

func (n *GetSubscript) Line() int        { return n.LineNo }
func (n *GetSubscript) Accept(v Visitor) { v.VisitGetSubscript(n) }

func (n *GetSubscript) ToAssignment(expr Node) Node {
	return &SetSubscript{LineNo: n.LineNo, Target: n.Target, Index: n.Index, Expr: expr}
}

type SetSubscript struct {
	LineNo int
	Target Node
	Index  Node
	Expr   Node
}

func (n *SetSubscript) Line() int        { return n.LineNo }
func (n *SetSubscript) Accept(v Visitor) { v.VisitSetSubscript(n) }

// Slice is the two-part `a..b` subscript index; it only ever appears as
// the Index of a GetSubscript/SetSubscript, never standalone.
type Slice struct {
	LineNo     int
	Start, End Node
}

func (n *Slice) Line() int        { return n.LineNo }
func (n *Slice) Accept(v Visitor) { v.VisitSlice(n) }

type Return struct {
	LineNo int
	Expr   Node
}

func (n *Return) Line() int        { return n.LineNo }
func (n *Return) Accept(v Visitor) { v.VisitReturn(n) }

type Yield struct {
	LineNo int
	Expr   Node
}

func (n *Yield) Line() int        { return n.LineNo }
func (n *Yield) Accept(v Visitor) { v.VisitYield(n) }

type Call struct {
	LineNo int
	Method Node
	Args   []Node
	Kwargs []KeywordArg
}

func (n *Call) Line() int        { return n.LineNo }
func (n *Call) Accept(v Visitor) { v.VisitCall(n) }

type PipeForward struct {
	LineNo int
	Arg    Node
	Method Node
}

func (n *PipeForward) Line() int        { return n.LineNo }
func (n *PipeForward) Accept(v Visitor) { v.VisitPipeForward(n) }

type Composition struct {
	LineNo   int
	LHS, RHS Node
}

func (n *Composition) Line() int        { return n.LineNo }
func (n *Composition) Accept(v Visitor) { v.VisitComposition(n) }

type PartialCall struct {
	LineNo int
	Method Node
	Args   []Node
	Kwargs []KeywordArg
}

func (n *PartialCall) Line() int        { return n.LineNo }
func (n *PartialCall) Accept(v Visitor) { v.VisitPartialCall(n) }

type BinaryOp struct {
	LineNo   int
	Op       string
	LHS, RHS Node
}

func (n *BinaryOp) Line() int        { return n.LineNo }
func (n *BinaryOp) Accept(v Visitor) { v.VisitBinaryOp(n) }

type CompareOp struct {
	LineNo   int
	Op       string
	LHS, RHS Node
}

func (n *CompareOp) Line() int        { return n.LineNo }
func (n *CompareOp) Accept(v Visitor) { v.VisitCompareOp(n) }

// BooleanOp is `and`/`or`: RHS is only emitted if the LHS doesn't already
// decide the result (short-circuit), so it is never eagerly evaluated the
// way BinaryOp's operands are.
type BooleanOp struct {
	LineNo   int
	Op       string
	LHS, RHS Node
}

func (n *BooleanOp) Line() int        { return n.LineNo }
func (n *BooleanOp) Accept(v Visitor) { v.VisitBooleanOp(n) }

type UnaryOp struct {
	LineNo int
	Op     string
	Expr   Node
}

func (n *UnaryOp) Line() int        { return n.LineNo }
func (n *UnaryOp) Accept(v Visitor) { v.VisitUnaryOp(n) }

type If struct {
	LineNo             int
	Test               Node
	ThenBody, ElseBody Node
}

func (n *If) Line() int        { return n.LineNo }
func (n *If) Accept(v Visitor) { v.VisitIf(n) }

// Function covers both named (`def`) and anonymous (`/args:body`) forms.
// Name is empty for anonymous functions. Cell/Free are the child scope's
// exported and closure variable names, collected by the parser once the
// body has been fully walked.
type Function struct {
	LineNo     int
	Name       string
	Args       []string
	Body       Node
	Cell, Free []string
}

func (n *Function) Line() int        { return n.LineNo }
func (n *Function) Accept(v Visitor) { v.VisitFunction(n) }

// Import is a single `import module` or `import module(a, b)`. Names is
// nil for the whole-module form.
type Import struct {
	LineNo int
	Module string
	Names  []string
}

func (n *Import) Line() int        { return n.LineNo }
func (n *Import) Accept(v Visitor) { v.VisitImport(n) }

// Program is the compilation unit's root: the top-level block plus the
// variable names the top-level scope exports to nested closures.
type Program struct {
	LineNo int
	Body   Node
	Cell   []string
	Free   []string
}

func (n *Program) Line() int        { return n.LineNo }
func (n *Program) Accept(v Visitor) { v.VisitBlock(n.Body.(*Block)) }

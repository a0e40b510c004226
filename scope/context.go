// Package scope implements Dojo's two-pass lexical scope resolution: a
// tree of Contexts, one per function nesting level, that classifies every
// variable reference as local, exported, closure or global as the parser
// walks the source a single time.
//
// A variable starts out local to the context it's first assigned in. If
// a nested function later requests it, the reference walks up the parent
// chain; the defining context's copy is destructively upgraded from local
// to exported (it must now live in a cell, not a plain fast-local slot),
// and every intermediate context between the definition and the request
// gets its own closure-scoped alias pointing at the same name.
package scope

// Kind classifies how a variable is stored at runtime.
type Kind string

const (
	Local    Kind = "local"
	Exported Kind = "exported"
	Closure  Kind = "closure"
	Global   Kind = "global"
)

// Variable is a named binding as seen from one particular Context. Its
// Scope can change after it is handed out — Context.Request mutates it in
// place when a nested function captures it — so callers must not cache
// Scope across further parsing of the same function body.
type Variable struct {
	context *Context
	Name    string
	Scope   Kind
}

// Assign turns a read of this variable into the variable that should back
// a write, per the same rules Context.Assign applies to a raw name.
func (v *Variable) Assign() *Variable {
	return v.context.Assign(v.Name)
}

// Context is one lexical scope: the top-level program, or one function
// body. Parent is nil only for the program's root context.
type Context struct {
	parent    *Context
	variables map[string]*Variable
	names     []string // insertion order; map iteration order is random
}

// NewContext creates the root context for a compilation unit.
func NewContext() *Context {
	return &Context{variables: map[string]*Variable{}}
}

// Ensure records name as scope in this context, overwriting whatever was
// there before, and returns the new binding.
func (c *Context) Ensure(name string, kind Kind) *Variable {
	if _, ok := c.variables[name]; !ok {
		c.names = append(c.names, name)
	}
	v := &Variable{context: c, Name: name, Scope: kind}
	c.variables[name] = v
	return v
}

// Request resolves name starting from this context: a hit here is
// returned as-is (but upgraded to exported if this is a request
// originating from a nested function, level > 0); a miss recurses into
// the parent and, if the parent resolved it as exported or closure,
// records a local closure alias in this context so the emitter knows to
// load it via a cell rather than a global lookup. An unresolved name
// anywhere up the chain is a global.
func (c *Context) Request(name string) *Variable {
	return c.request(name, 0)
}

func (c *Context) request(name string, level int) *Variable {
	if v, ok := c.variables[name]; ok {
		if v.Scope == Local && level > 0 {
			v.Scope = Exported
		}
		return v
	}

	if c.parent != nil {
		parent := c.parent.request(name, level+1)
		if parent.Scope == Exported || parent.Scope == Closure {
			return c.Ensure(parent.Name, Closure)
		}
		return &Variable{context: c, Name: parent.Name, Scope: parent.Scope}
	}

	return &Variable{context: c, Name: name, Scope: Global}
}

// Assign resolves name the way Request does, except an unresolved
// (global) result is instead bound fresh as a local in this context —
// `a=1` always creates a local unless `a` is already a known
// local/exported/closure binding somewhere up the chain.
func (c *Context) Assign(name string) *Variable {
	v := c.Request(name)
	if v.Scope == Global {
		v = c.Ensure(name, Local)
	}
	return v
}

// Push creates a child context for a function body, pre-populating args
// as local bindings.
func (c *Context) Push(args []string) *Context {
	child := &Context{parent: c, variables: map[string]*Variable{}}
	for _, a := range args {
		child.Ensure(a, Local)
	}
	return child
}

// Varnames lists, in insertion order, the names of every variable in this
// context classified as kind. The emitter uses this to build a function's
// cellvars (Exported) and freevars (Closure) tables. Insertion order (not
// map iteration order) keeps the tables deterministic across compiles of
// identical source.
func (c *Context) Varnames(kind Kind) []string {
	var names []string
	for _, n := range c.names {
		if c.variables[n].Scope == kind {
			names = append(names, n)
		}
	}
	return names
}

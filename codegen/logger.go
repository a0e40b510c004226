package codegen

import "go.uber.org/zap"

// Logger is the structured-logging hook Emit accepts for tracing emission
// decisions: patched jump targets, newly interned constants, and whether a
// Function lowers to MAKE_FUNCTION or MAKE_CLOSURE. It is satisfied
// directly by *zap.Logger (the logger Tangerg-lynx's vectorstores package
// uses) so callers pass a real logger with no adapter; the default is
// zap.NewNop(), so tracing costs nothing unless asked for.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
}

var nopLogger Logger = zap.NewNop()

// Option configures a Builder tree before emission begins.
type Option func(*Builder)

// WithLogger makes Emit (and every nested function Builder it spawns)
// trace emission decisions through l.
func WithLogger(l Logger) Option {
	return func(b *Builder) { b.logger = l }
}

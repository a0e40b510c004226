package codegen

// Opcode is Dojo's bytecode instruction set, defined from scratch for
// this stack machine rather than borrowed from a larger VM's opcode
// block built for pattern matching, bitstrings, and a full type system
// this language has no equivalent of. The emission style —
// emit/emitConstant/patch-via-saved-offset — follows that VM's compiler;
// the instruction names and arg encoding here follow the emitter table.
type Opcode byte

const (
	LOAD_CONST Opcode = iota
	BUILD_LIST
	BUILD_MAP
	DUP_TOP
	ROT_TWO
	POP_TOP
	STORE_SUBSCR
	BINARY_SUBSCR
	BUILD_SLICE

	LOAD_FAST
	STORE_FAST
	LOAD_DEREF
	STORE_DEREF
	LOAD_GLOBAL
	STORE_GLOBAL

	LOAD_ATTR
	STORE_ATTR

	RETURN_VALUE
	YIELD_VALUE
	CALL_FUNCTION

	BINARY_AND
	BINARY_OR
	BINARY_XOR
	BINARY_LSHIFT
	BINARY_RSHIFT
	BINARY_ADD
	BINARY_SUBTRACT
	BINARY_MULTIPLY
	BINARY_TRUE_DIVIDE
	BINARY_FLOOR_DIVIDE
	BINARY_POWER
	BINARY_MODULO

	UNARY_POSITIVE
	UNARY_NEGATIVE
	UNARY_NOT
	UNARY_INVERT

	COMPARE_OP

	JUMP_IF_FALSE_OR_POP
	JUMP_IF_TRUE_OR_POP
	POP_JUMP_IF_FALSE
	JUMP_ABSOLUTE

	IMPORT_NAME
	IMPORT_FROM

	LOAD_CLOSURE
	BUILD_TUPLE
	MAKE_CLOSURE
	MAKE_FUNCTION

	EXTENDED_ARG
)

var opcodeNames = map[Opcode]string{
	LOAD_CONST:            "LOAD_CONST",
	BUILD_LIST:            "BUILD_LIST",
	BUILD_MAP:             "BUILD_MAP",
	DUP_TOP:               "DUP_TOP",
	ROT_TWO:               "ROT_TWO",
	POP_TOP:               "POP_TOP",
	STORE_SUBSCR:          "STORE_SUBSCR",
	BINARY_SUBSCR:         "BINARY_SUBSCR",
	BUILD_SLICE:           "BUILD_SLICE",
	LOAD_FAST:             "LOAD_FAST",
	STORE_FAST:            "STORE_FAST",
	LOAD_DEREF:            "LOAD_DEREF",
	STORE_DEREF:           "STORE_DEREF",
	LOAD_GLOBAL:           "LOAD_GLOBAL",
	STORE_GLOBAL:          "STORE_GLOBAL",
	LOAD_ATTR:             "LOAD_ATTR",
	STORE_ATTR:            "STORE_ATTR",
	RETURN_VALUE:          "RETURN_VALUE",
	YIELD_VALUE:           "YIELD_VALUE",
	CALL_FUNCTION:         "CALL_FUNCTION",
	BINARY_AND:            "BINARY_AND",
	BINARY_OR:             "BINARY_OR",
	BINARY_XOR:            "BINARY_XOR",
	BINARY_LSHIFT:         "BINARY_LSHIFT",
	BINARY_RSHIFT:         "BINARY_RSHIFT",
	BINARY_ADD:            "BINARY_ADD",
	BINARY_SUBTRACT:       "BINARY_SUBTRACT",
	BINARY_MULTIPLY:       "BINARY_MULTIPLY",
	BINARY_TRUE_DIVIDE:    "BINARY_TRUE_DIVIDE",
	BINARY_FLOOR_DIVIDE:   "BINARY_FLOOR_DIVIDE",
	BINARY_POWER:          "BINARY_POWER",
	BINARY_MODULO:         "BINARY_MODULO",
	UNARY_POSITIVE:        "UNARY_POSITIVE",
	UNARY_NEGATIVE:        "UNARY_NEGATIVE",
	UNARY_NOT:             "UNARY_NOT",
	UNARY_INVERT:          "UNARY_INVERT",
	COMPARE_OP:            "COMPARE_OP",
	JUMP_IF_FALSE_OR_POP:  "JUMP_IF_FALSE_OR_POP",
	JUMP_IF_TRUE_OR_POP:   "JUMP_IF_TRUE_OR_POP",
	POP_JUMP_IF_FALSE:     "POP_JUMP_IF_FALSE",
	JUMP_ABSOLUTE:         "JUMP_ABSOLUTE",
	IMPORT_NAME:           "IMPORT_NAME",
	IMPORT_FROM:           "IMPORT_FROM",
	LOAD_CLOSURE:          "LOAD_CLOSURE",
	BUILD_TUPLE:           "BUILD_TUPLE",
	MAKE_CLOSURE:          "MAKE_CLOSURE",
	MAKE_FUNCTION:         "MAKE_FUNCTION",
	EXTENDED_ARG:          "EXTENDED_ARG",
}

func (op Opcode) String() string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}
	return "UNKNOWN_OP"
}

var binaryOps = map[string]Opcode{
	"&":  BINARY_AND,
	"|":  BINARY_OR,
	"^":  BINARY_XOR,
	"<<": BINARY_LSHIFT,
	">>": BINARY_RSHIFT,
	"+":  BINARY_ADD,
	"-":  BINARY_SUBTRACT,
	"*":  BINARY_MULTIPLY,
	"/":  BINARY_TRUE_DIVIDE,
	"//": BINARY_FLOOR_DIVIDE,
	"**": BINARY_POWER,
	"%":  BINARY_MODULO,
}

var unaryOps = map[string]Opcode{
	"+":   UNARY_POSITIVE,
	"-":   UNARY_NEGATIVE,
	"not": UNARY_NOT,
	"~":   UNARY_INVERT,
}

var booleanOps = map[string]Opcode{
	"and": JUMP_IF_FALSE_OR_POP,
	"or":  JUMP_IF_TRUE_OR_POP,
}

// compareOps lists the comparison operator order COMPARE_OP's argument
// indexes into, mirroring CPython's opcode.cmp_op table that the original
// emitter indexed with `opcode.cmp_op.index(e.op)`.
var compareOps = []string{"<", "<=", "==", "!=", ">", ">=", "in", "not in"}

func compareOpIndex(op string) int {
	for i, o := range compareOps {
		if o == op {
			return i
		}
	}
	return -1
}

package codegen

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

const (
	coMagicByte0 = 'D'
	coMagicByte1 = 'J'
	coMagicByte2 = 'B'
	coMagicByte3 = 'C'
	coVersion    = 0x01
)

// CO_GENERATOR marks a CodeObject whose body contains at least one Yield.
const CO_GENERATOR = 0x0020

// CodeObject is the immutable artifact an Emitter produces: the exact VM
// contract a stack machine needs to run one function (or the program's
// top-level body), with no reference back to the AST or source it came
// from beyond Filename/Firstlineno for diagnostics.
type CodeObject struct {
	Argcount    int
	NLocals     int
	Flags       int
	Code        []byte
	Consts      []any
	Names       []string
	Varnames    []string
	Freevars    []string
	Cellvars    []string
	Filename    string
	Codename    string
	Firstlineno int
	Lnotab      []byte
}

func init() {
	gob.Register(&CodeObject{})
	gob.Register(ComposeMarker{})
	gob.Register(PartialMarker{})
	gob.Register(RangeMarker{})
	gob.Register([]string{})
}

// File mirrors the layout Serialize writes: a magic number and version
// byte ahead of a gob-encoded CodeObject. Serialize and Deserialize write
// and read that layout directly and do not go through this type.
type File struct {
	Magic   [4]byte
	Version byte
	Code    *CodeObject
}

func (c *CodeObject) Serialize() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write([]byte{coMagicByte0, coMagicByte1, coMagicByte2, coMagicByte3})
	buf.WriteByte(coVersion)

	enc := gob.NewEncoder(buf)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("codegen: gob encoding failed: %w", err)
	}
	return buf.Bytes(), nil
}

func Deserialize(data []byte) (*CodeObject, error) {
	if len(data) < 5 {
		return nil, fmt.Errorf("codegen: data too short")
	}
	if data[0] != coMagicByte0 || data[1] != coMagicByte1 || data[2] != coMagicByte2 || data[3] != coMagicByte3 {
		return nil, fmt.Errorf("codegen: invalid magic number, expected DJBC")
	}
	if data[4] != coVersion {
		return nil, fmt.Errorf("codegen: unsupported bytecode version: %d", data[4])
	}

	dec := gob.NewDecoder(bytes.NewReader(data[5:]))
	var code CodeObject
	if err := dec.Decode(&code); err != nil {
		return nil, fmt.Errorf("codegen: gob decoding failed: %w", err)
	}
	return &code, nil
}

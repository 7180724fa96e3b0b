// Package bytecode defines the stack-machine instruction set, lowers TAC
// control-flow graphs into it, and reads and writes its text form.
package bytecode

import "fmt"

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode represents a single stack-machine instruction.
type Opcode byte

// Loads and stores
const (
	OpILoad  Opcode = 0 // push local (or true/false literal)
	OpIConst Opcode = 1 // push integer constant
	OpIStore Opcode = 2 // pop into local
)

// Arithmetic
const (
	OpIAdd Opcode = 3
	OpISub Opcode = 4
	OpIMul Opcode = 5
	OpIDiv Opcode = 6
)

// Comparison and logic, all producing booleans
const (
	OpILt  Opcode = 7
	OpIGt  Opcode = 8
	OpIEq  Opcode = 9
	OpIAnd Opcode = 10
	OpIOr  Opcode = 11
	OpINot Opcode = 12
)

// Control flow
const (
	OpGoto          Opcode = 13 // jump to named block or method
	OpIfFalseGoto   Opcode = 14 // pop, jump when zero
	OpInvokeVirtual Opcode = 15 // call Class.method
	OpIReturn       Opcode = 16 // pop result, resume caller
	OpPrint         Opcode = 17 // pop and print
	OpStop          Opcode = 18 // halt
)

// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name      string // mnemonic used in the text format
	HasArg    bool   // takes a string argument
	StackPop  int    // values popped
	StackPush int    // values pushed
}

var opcodeTable = [...]OpcodeInfo{
	OpILoad:  {"iload", true, 0, 1},
	OpIConst: {"iconst", true, 0, 1},
	OpIStore: {"istore", true, 1, 0},

	OpIAdd: {"iadd", false, 2, 1},
	OpISub: {"isub", false, 2, 1},
	OpIMul: {"imul", false, 2, 1},
	OpIDiv: {"idiv", false, 2, 1},

	OpILt:  {"ilt", false, 2, 1},
	OpIGt:  {"igt", false, 2, 1},
	OpIEq:  {"ieq", false, 2, 1},
	OpIAnd: {"iand", false, 2, 1},
	OpIOr:  {"ior", false, 2, 1},
	OpINot: {"inot", false, 1, 1},

	OpGoto:          {"goto", true, 0, 0},
	OpIfFalseGoto:   {"iffalsegoto", true, 1, 0},
	OpInvokeVirtual: {"invokevirtual", true, 0, 0}, // variable: callee pops its params
	OpIReturn:       {"ireturn", false, 1, 0},
	OpPrint:         {"print", false, 1, 0},
	OpStop:          {"stop", false, 0, 0},
}

var opcodesByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeTable))
	for i, info := range opcodeTable {
		m[info.Name] = Opcode(i)
	}
	return m
}()

// NumOpcodes is the size of the instruction set.
const NumOpcodes = len(opcodeTable)

// Valid reports whether op is part of the instruction set.
func (op Opcode) Valid() bool {
	return int(op) < len(opcodeTable)
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if op.Valid() {
		return opcodeTable[op]
	}
	return OpcodeInfo{Name: fmt.Sprintf("unknown_%02x", byte(op))}
}

// Name returns the mnemonic for an opcode.
func (op Opcode) Name() string {
	return op.Info().Name
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}

// HasArg reports whether op carries a string argument.
func (op Opcode) HasArg() bool {
	return op.Info().HasArg
}

// IsBranch reports whether op transfers control to a named target.
func (op Opcode) IsBranch() bool {
	return op == OpGoto || op == OpIfFalseGoto || op == OpInvokeVirtual
}

// LookupOpcode maps a mnemonic to its opcode.
func LookupOpcode(name string) (Opcode, bool) {
	op, ok := opcodesByName[name]
	return op, ok
}

// AllOpcodes returns the instruction set in numeric order.
func AllOpcodes() []Opcode {
	ops := make([]Opcode, len(opcodeTable))
	for i := range ops {
		ops[i] = Opcode(i)
	}
	return ops
}

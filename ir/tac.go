// Package ir lowers checked MiniJava trees into control-flow graphs of
// three-address code.
package ir

import "fmt"

// Op is a three-address operation.
type Op string

const (
	OpCopy   Op = "" // result := arg1
	OpNew    Op = "new"
	OpCall   Op = "call"
	OpParam  Op = "param"
	OpIf     Op = "if"
	OpPrint  Op = "print"
	OpReturn Op = "return"

	// Binary operators
	OpAdd Op = "+"
	OpSub Op = "-"
	OpMul Op = "*"
	OpDiv Op = "/"
	OpLt  Op = "<"
	OpGt  Op = ">"
	OpEq  Op = "=="
	OpAnd Op = "&&"
	OpOr  Op = "||"

	// Unary operators
	OpNot Op = "!"
)

// IsBinary reports whether op is a binary operator.
func (op Op) IsBinary() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpLt, OpGt, OpEq, OpAnd, OpOr:
		return true
	}
	return false
}

// IsUnary reports whether op is a unary operator.
func (op Op) IsUnary() bool {
	return op == OpNot
}

// Instr is one three-address instruction: Result := Arg1 Op Arg2.
//
// Operand usage per op:
//
//	copy    Result := Arg1
//	new     Result := new Arg1 (class name)
//	call    Result := call Arg1 (method name), Arg2 (param count incl. receiver)
//	param   enqueue Arg1
//	if      branch on Arg1
//	print   print Arg1
//	return  return Arg1
//	binary  Result := Arg1 Op Arg2
//	unary   Result := Op Arg1
type Instr struct {
	Result string
	Arg1   string
	Op     Op
	Arg2   string
}

// String renders the instruction the way it appears in CFG dumps.
func (in Instr) String() string {
	switch {
	case in.Op == OpPrint || in.Op == OpParam || in.Op == OpIf || in.Op == OpReturn:
		return fmt.Sprintf("%s %s", in.Op, in.Arg1)
	case in.Op == OpCall:
		return fmt.Sprintf("%s := call %s %s", in.Result, in.Arg1, in.Arg2)
	case in.Op == OpNew:
		return fmt.Sprintf("%s := new %s", in.Result, in.Arg1)
	case in.Op == OpCopy:
		return fmt.Sprintf("%s := %s", in.Result, in.Arg1)
	case in.Op.IsUnary():
		return fmt.Sprintf("%s := %s%s", in.Result, in.Op, in.Arg1)
	}
	return fmt.Sprintf("%s := %s %s %s", in.Result, in.Arg1, in.Op, in.Arg2)
}

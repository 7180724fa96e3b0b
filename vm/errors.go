package vm

import (
	"errors"
	"fmt"

	"github.com/chazu/mjc/bytecode"
)

var (
	ErrStackUnderflow   = errors.New("stack underflow")
	ErrDivisionByZero   = errors.New("division by zero")
	ErrUnresolvedTarget = errors.New("unresolved target")
	ErrNoEntry          = errors.New("no entry point")
	ErrPCOutOfRange     = errors.New("program counter out of range")
	ErrCallDepth        = errors.New("call depth exceeded")
	ErrBadOperand       = errors.New("bad operand")
	ErrUndeclared       = errors.New("undeclared variable")
	ErrNotRunning       = errors.New("interpreter is not running")
)

// RuntimeError is a fatal execution error at a specific instruction.
type RuntimeError struct {
	Method string
	Addr   int
	Op     bytecode.Opcode
	Err    error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s[%d] %s: %v", e.Method, e.Addr, e.Op, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

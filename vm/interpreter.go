package vm

import (
	"fmt"
	"io"
	"maps"
	"os"
	"strconv"

	"github.com/tliron/commonlog"

	"github.com/chazu/mjc/bytecode"
)

// DefaultMaxCallDepth bounds nested invokevirtual calls when Options
// leaves MaxCallDepth zero.
const DefaultMaxCallDepth = 10000

// State is the interpreter's execution state.
type State int

const (
	Ready   State = iota // loaded, not started
	Running              // executing
	Halted               // stopped, normally or by a fatal error
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Halted:
		return "halted"
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// Options configure an interpreter.
type Options struct {
	Stdout       io.Writer // print output; os.Stdout when nil
	StrictLoads  bool      // reading an undeclared variable is fatal
	MaxCallDepth int       // DefaultMaxCallDepth when zero
	Trace        bool      // log every instruction at debug level
}

// ---------------------------------------------------------------------------
// Frame: saved caller context
// ---------------------------------------------------------------------------

// Frame is the caller context saved by invokevirtual and restored by
// ireturn.
type Frame struct {
	Method   string
	ReturnPC int
	Locals   map[string]StackValue
}

// ---------------------------------------------------------------------------
// Interpreter
// ---------------------------------------------------------------------------

// Interpreter runs one program. It is not safe for concurrent use; every
// piece of execution state belongs to a single instance.
type Interpreter struct {
	prog *bytecode.Program
	opts Options
	log  commonlog.Logger

	state  State
	method string
	code   []bytecode.Instruction
	pc     int

	stack  []StackValue
	locals map[string]StackValue
	calls  []Frame

	result    StackValue
	hasResult bool
	steps     int
	warnings  []string
}

// New creates an interpreter for prog.
func New(prog *bytecode.Program, opts Options) *Interpreter {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.MaxCallDepth <= 0 {
		opts.MaxCallDepth = DefaultMaxCallDepth
	}
	return &Interpreter{
		prog:   prog,
		opts:   opts,
		log:    commonlog.GetLogger("mjc.vm"),
		locals: make(map[string]StackValue),
	}
}

// Entry picks the method execution starts from: class.main when class is
// given, otherwise the first X.main in program order.
func Entry(prog *bytecode.Program, class string) (string, error) {
	if class != "" {
		name := bytecode.EntryName(class)
		if _, ok := prog.Method(name); !ok {
			return "", fmt.Errorf("%w: no method %s", ErrNoEntry, name)
		}
		return name, nil
	}
	for _, m := range prog.Methods() {
		if bytecode.IsEntryName(m.Name) {
			return m.Name, nil
		}
	}
	return "", fmt.Errorf("%w: no main method", ErrNoEntry)
}

// Start resets all execution state and positions the interpreter at the
// entry method.
func (i *Interpreter) Start(entryClass string) error {
	entry, err := Entry(i.prog, entryClass)
	if err != nil {
		i.state = Halted
		return err
	}
	i.stack = i.stack[:0]
	i.calls = i.calls[:0]
	i.locals = make(map[string]StackValue)
	i.warnings = nil
	i.hasResult = false
	i.steps = 0
	i.jump(entry)
	i.state = Running
	i.log.Debugf("starting at %s", entry)
	return nil
}

// Run starts at the entry method and executes until the program halts.
func (i *Interpreter) Run(entryClass string) error {
	if err := i.Start(entryClass); err != nil {
		return err
	}
	for i.state == Running {
		if err := i.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step executes one instruction. A fatal error halts the interpreter.
func (i *Interpreter) Step() error {
	if i.state != Running {
		return ErrNotRunning
	}
	if i.pc < 0 || i.pc >= len(i.code) {
		return i.fail(bytecode.OpStop, fmt.Errorf("%w: %d of %d", ErrPCOutOfRange, i.pc, len(i.code)))
	}

	in := i.code[i.pc]
	if i.opts.Trace {
		i.log.Debugf("%s[%d] %s stack=%v", i.method, i.pc, in, i.stack)
	}
	i.steps++
	if err := i.exec(in); err != nil {
		return i.fail(in.Op, err)
	}
	return nil
}

func (i *Interpreter) fail(op bytecode.Opcode, err error) error {
	rerr := &RuntimeError{Method: i.method, Addr: i.pc, Op: op, Err: err}
	i.state = Halted
	i.log.Errorf("%s", rerr)
	return rerr
}

// jump moves to pc 0 of name, or reports false when there is no such
// method.
func (i *Interpreter) jump(name string) bool {
	m, ok := i.prog.Method(name)
	if !ok {
		return false
	}
	i.method = name
	i.code = m.Code
	i.pc = 0
	return true
}

func (i *Interpreter) push(v StackValue) {
	i.stack = append(i.stack, v)
}

func (i *Interpreter) pop() (StackValue, error) {
	if len(i.stack) == 0 {
		return StackValue{}, ErrStackUnderflow
	}
	v := i.stack[len(i.stack)-1]
	i.stack = i.stack[:len(i.stack)-1]
	return v, nil
}

func (i *Interpreter) pop2() (a, b StackValue, err error) {
	if len(i.stack) < 2 {
		return a, b, ErrStackUnderflow
	}
	n := len(i.stack)
	a, b = i.stack[n-2], i.stack[n-1]
	i.stack = i.stack[:n-2]
	return a, b, nil
}

func (i *Interpreter) warnf(format string, args ...any) {
	msg := fmt.Sprintf("%s[%d]: ", i.method, i.pc) + fmt.Sprintf(format, args...)
	i.warnings = append(i.warnings, msg)
	i.log.Warningf("%s", msg)
}

func (i *Interpreter) exec(in bytecode.Instruction) error {
	switch in.Op {
	case bytecode.OpILoad:
		switch in.Arg {
		case "true":
			i.push(Bool(true))
		case "false":
			i.push(Bool(false))
		default:
			v, ok := i.locals[in.Arg]
			if !ok {
				if i.opts.StrictLoads {
					return fmt.Errorf("%w: %s", ErrUndeclared, in.Arg)
				}
				i.warnf("undeclared variable %s, using 0", in.Arg)
			}
			i.push(v)
		}
		i.pc++

	case bytecode.OpIConst:
		n, err := strconv.Atoi(in.Arg)
		if err != nil {
			return fmt.Errorf("%w: iconst %q", ErrBadOperand, in.Arg)
		}
		i.push(Int(n))
		i.pc++

	case bytecode.OpIStore:
		v, err := i.pop()
		if err != nil {
			return err
		}
		i.locals[in.Arg] = v
		i.pc++

	case bytecode.OpIAdd, bytecode.OpISub, bytecode.OpIMul, bytecode.OpIDiv,
		bytecode.OpILt, bytecode.OpIGt, bytecode.OpIEq, bytecode.OpIAnd, bytecode.OpIOr:
		a, b, err := i.pop2()
		if err != nil {
			return err
		}
		r, err := binary(in.Op, a, b)
		if err != nil {
			return err
		}
		i.push(r)
		i.pc++

	case bytecode.OpINot:
		v, err := i.pop()
		if err != nil {
			return err
		}
		i.push(Bool(!v.Truthy()))
		i.pc++

	case bytecode.OpGoto:
		if !i.jump(in.Arg) {
			return fmt.Errorf("%w: %s", ErrUnresolvedTarget, in.Arg)
		}

	case bytecode.OpIfFalseGoto:
		v, err := i.pop()
		if err != nil {
			return err
		}
		if v.Value != 0 {
			i.pc++
			break
		}
		if !i.jump(in.Arg) {
			return fmt.Errorf("%w: %s", ErrUnresolvedTarget, in.Arg)
		}

	case bytecode.OpInvokeVirtual:
		if len(i.calls) >= i.opts.MaxCallDepth {
			return fmt.Errorf("%w: %d frames", ErrCallDepth, len(i.calls))
		}
		if _, ok := i.prog.Method(in.Arg); !ok {
			if class, method, ok := bytecode.SplitTarget(in.Arg); ok {
				return fmt.Errorf("%w: class %s has no method %s", ErrUnresolvedTarget, class, method)
			}
			return fmt.Errorf("%w: %s", ErrUnresolvedTarget, in.Arg)
		}
		i.calls = append(i.calls, Frame{
			Method:   i.method,
			ReturnPC: i.pc + 1,
			Locals:   maps.Clone(i.locals),
		})
		i.jump(in.Arg)

	case bytecode.OpIReturn:
		v, err := i.pop()
		if err != nil {
			return err
		}
		if len(i.calls) == 0 {
			i.result, i.hasResult = v, true
			i.state = Halted
			i.log.Debugf("returned %s from %s with an empty call stack", v, i.method)
			break
		}
		f := i.calls[len(i.calls)-1]
		i.calls = i.calls[:len(i.calls)-1]
		if !i.jump(f.Method) {
			return fmt.Errorf("%w: %s", ErrUnresolvedTarget, f.Method)
		}
		i.pc = f.ReturnPC
		i.locals = f.Locals
		i.push(v)

	case bytecode.OpPrint:
		v, err := i.pop()
		if err != nil {
			return err
		}
		fmt.Fprintln(i.opts.Stdout, v.String())
		i.pc++

	case bytecode.OpStop:
		i.state = Halted

	default:
		return fmt.Errorf("%w: opcode %d", ErrBadOperand, in.Op)
	}
	return nil
}

func binary(op bytecode.Opcode, a, b StackValue) (StackValue, error) {
	switch op {
	case bytecode.OpIAdd:
		return Int(a.Value + b.Value), nil
	case bytecode.OpISub:
		return Int(a.Value - b.Value), nil
	case bytecode.OpIMul:
		return Int(a.Value * b.Value), nil
	case bytecode.OpIDiv:
		if b.Value == 0 {
			return StackValue{}, ErrDivisionByZero
		}
		return Int(a.Value / b.Value), nil
	case bytecode.OpILt:
		return Bool(a.Value < b.Value), nil
	case bytecode.OpIGt:
		return Bool(a.Value > b.Value), nil
	case bytecode.OpIEq:
		return Bool(a.Value == b.Value), nil
	case bytecode.OpIAnd:
		return Bool(a.Truthy() && b.Truthy()), nil
	case bytecode.OpIOr:
		return Bool(a.Truthy() || b.Truthy()), nil
	}
	return StackValue{}, fmt.Errorf("%w: %s is not binary", ErrBadOperand, op)
}

// ---------------------------------------------------------------------------
// Inspection
// ---------------------------------------------------------------------------

// State returns the execution state.
func (i *Interpreter) State() State { return i.state }

// Method returns the method being executed.
func (i *Interpreter) Method() string { return i.method }

// PC returns the index of the next instruction.
func (i *Interpreter) PC() int { return i.pc }

// Steps returns the number of instructions executed since Start.
func (i *Interpreter) Steps() int { return i.steps }

// CallDepth returns the number of saved frames.
func (i *Interpreter) CallDepth() int { return len(i.calls) }

// Stack returns a copy of the operand stack, bottom first.
func (i *Interpreter) Stack() []StackValue {
	return append([]StackValue(nil), i.stack...)
}

// Locals returns a copy of the current local frame.
func (i *Interpreter) Locals() map[string]StackValue {
	return maps.Clone(i.locals)
}

// Frames returns the saved frames, outermost first.
func (i *Interpreter) Frames() []Frame {
	return append([]Frame(nil), i.calls...)
}

// Current returns the next instruction, if any.
func (i *Interpreter) Current() (bytecode.Instruction, bool) {
	if i.pc < 0 || i.pc >= len(i.code) {
		return bytecode.Instruction{}, false
	}
	return i.code[i.pc], true
}

// Result returns the value returned by an ireturn that emptied the call
// stack.
func (i *Interpreter) Result() (StackValue, bool) {
	return i.result, i.hasResult
}

// Warnings returns the recoverable diagnostics raised so far.
func (i *Interpreter) Warnings() []string {
	return i.warnings
}

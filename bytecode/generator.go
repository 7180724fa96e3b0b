package bytecode

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/tliron/commonlog"

	"github.com/chazu/mjc/compiler"
	"github.com/chazu/mjc/ir"
)

var (
	// ErrUnknownOperator reports a TAC operator with no opcode.
	ErrUnknownOperator = errors.New("unknown operator")

	// ErrMalformedTAC reports TAC the generator cannot lower: an empty
	// operand, a call with a bad parameter count, an if with no false exit.
	ErrMalformedTAC = errors.New("malformed TAC")
)

var binaryOpcodes = map[ir.Op]Opcode{
	ir.OpAdd: OpIAdd,
	ir.OpSub: OpISub,
	ir.OpMul: OpIMul,
	ir.OpDiv: OpIDiv,
	ir.OpLt:  OpILt,
	ir.OpGt:  OpIGt,
	ir.OpEq:  OpIEq,
	ir.OpAnd: OpIAnd,
	ir.OpOr:  OpIOr,
}

// ---------------------------------------------------------------------------
// Generator: CFG to bytecode
// ---------------------------------------------------------------------------

// Generator lowers each CFG block to one bytecode method of the same name.
type Generator struct {
	table   *compiler.SymbolTable
	tracker *TypeTracker
	log     commonlog.Logger
}

// NewGenerator creates a generator resolving classes against table.
func NewGenerator(table *compiler.SymbolTable) *Generator {
	return &Generator{
		table:   table,
		tracker: NewTypeTracker(table),
		log:     commonlog.GetLogger("mjc.bytecode"),
	}
}

// Generate lowers cfg with a fresh generator.
func Generate(cfg *ir.CFG, table *compiler.SymbolTable) (*Program, error) {
	return NewGenerator(table).Generate(cfg)
}

// Generate lowers every block of cfg in order.
func (g *Generator) Generate(cfg *ir.CFG) (*Program, error) {
	prog := NewProgram()
	for _, blk := range cfg.Blocks() {
		m, err := g.generateBlock(cfg, blk)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", blk.Name, err)
		}
		if err := prog.Add(m); err != nil {
			return nil, err
		}
	}
	g.log.Debugf("generated %d methods", prog.Len())
	return prog, nil
}

// blockGen holds the state of lowering one block.
type blockGen struct {
	*Generator
	cfg      *ir.CFG
	blk      *ir.BasicBlock
	out      *Method
	pending  []string
	returned bool
}

func (g *Generator) generateBlock(cfg *ir.CFG, blk *ir.BasicBlock) (*Method, error) {
	bg := &blockGen{
		Generator: g,
		cfg:       cfg,
		blk:       blk,
		out:       &Method{Name: blk.Name},
	}

	if blk.Entry {
		bg.out.Code = append(bg.out.Code, Prologue(g.paramNames(blk.Class, blk.Method))...)
	}

	// Pass 1: tag receivers from declared types, copies and new.
	g.tracker.Reset()
	g.tracker.Seed(blk.Class, blk.Method)
	for _, in := range blk.Instrs {
		switch in.Op {
		case ir.OpCopy:
			g.tracker.TrackAssignment(in.Result, in.Arg1)
		case ir.OpNew:
			g.tracker.TrackNewObject(in.Result, in.Arg1)
		}
	}

	// Pass 2: emit.
	for _, in := range blk.Instrs {
		if err := bg.instr(in); err != nil {
			return nil, fmt.Errorf("%s: %w", in, err)
		}
	}
	if len(bg.pending) > 0 {
		g.log.Debugf("%s: %d params never consumed: %v", blk.Name, len(bg.pending), bg.pending)
	}

	if next := cfg.Block(blk.TrueExit); next != nil {
		bg.out.Emit(OpGoto, next.Name)
	} else if !bg.returned {
		bg.out.Emit(OpStop, "")
	}
	return bg.out, nil
}

// paramNames returns the parameters declared by class.method itself.
func (g *Generator) paramNames(class, method string) []string {
	if g.table == nil {
		return nil
	}
	c, ok := g.table.Class(class)
	if !ok {
		return nil
	}
	m, ok := c.Method(method)
	if !ok {
		return nil
	}
	return m.ParamNames()
}

func (g *Generator) lookupMethod(class, method string) (*compiler.Method, bool) {
	if g.table == nil {
		return nil, false
	}
	return g.table.LookupMethod(class, method)
}

func (g *Generator) isClass(name string) bool {
	return g.table != nil && g.table.HasClass(name)
}

// load pushes tok. Class names are never loaded; all-digit tokens are
// constants and everything else names a local.
func (bg *blockGen) load(tok string) error {
	switch {
	case tok == "":
		return fmt.Errorf("%w: empty operand", ErrMalformedTAC)
	case bg.isClass(tok):
		return nil
	case isDigits(tok):
		bg.out.Emit(OpIConst, tok)
	default:
		bg.out.Emit(OpILoad, tok)
	}
	return nil
}

// normalizeBool maps boolean literals to the integers logic opcodes use.
func normalizeBool(tok string) string {
	switch tok {
	case "true":
		return "1"
	case "false":
		return "0"
	}
	return tok
}

// storeObject binds dst to an object reference. Objects carry no runtime
// state, so every reference is the integer 0.
func (bg *blockGen) storeObject(dst string) {
	bg.out.Emit(OpIConst, "0")
	bg.out.Emit(OpIStore, dst)
}

func (bg *blockGen) instr(in ir.Instr) error {
	switch in.Op {
	case ir.OpParam:
		bg.pending = append(bg.pending, in.Arg1)
		return nil

	case ir.OpPrint:
		if err := bg.load(in.Arg1); err != nil {
			return err
		}
		bg.out.Emit(OpPrint, "")
		return nil

	case ir.OpReturn:
		if err := bg.load(in.Arg1); err != nil {
			return err
		}
		bg.out.Emit(OpIReturn, "")
		bg.returned = true
		return nil

	case ir.OpIf:
		target := bg.cfg.Block(bg.blk.FalseExit)
		if target == nil {
			return fmt.Errorf("%w: if without a false exit", ErrMalformedTAC)
		}
		if err := bg.load(in.Arg1); err != nil {
			return err
		}
		bg.out.Emit(OpIfFalseGoto, target.Name)
		return nil

	case ir.OpCall:
		return bg.call(in)

	case ir.OpNew:
		bg.tracker.TrackNewObject(in.Result, in.Arg1)
		bg.storeObject(in.Result)
		return nil

	case ir.OpCopy:
		bg.tracker.TrackAssignment(in.Result, in.Arg1)
		if bg.isClass(in.Arg1) {
			bg.storeObject(in.Result)
			return nil
		}
		if err := bg.load(in.Arg1); err != nil {
			return err
		}
		bg.out.Emit(OpIStore, in.Result)
		return nil

	case ir.OpNot:
		if err := bg.load(normalizeBool(in.Arg1)); err != nil {
			return err
		}
		bg.out.Emit(OpINot, "")
		bg.out.Emit(OpIStore, in.Result)
		return nil
	}

	op, ok := binaryOpcodes[in.Op]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownOperator, in.Op)
	}
	a, b := in.Arg1, in.Arg2
	if op == OpIAnd || op == OpIOr {
		a, b = normalizeBool(a), normalizeBool(b)
	}
	if err := bg.load(a); err != nil {
		return err
	}
	if err := bg.load(b); err != nil {
		return err
	}
	bg.out.Emit(op, "")
	bg.out.Emit(OpIStore, in.Result)
	return nil
}

// call consumes the call's params from the end of the pending queue, so
// params enqueued by a nested call or an unused new stay behind.
func (bg *blockGen) call(in ir.Instr) error {
	n, err := strconv.Atoi(in.Arg2)
	if err != nil || n < 1 {
		return fmt.Errorf("%w: bad param count %q", ErrMalformedTAC, in.Arg2)
	}
	if n > len(bg.pending) {
		return fmt.Errorf("%w: call needs %d params, %d pending", ErrMalformedTAC, n, len(bg.pending))
	}
	split := len(bg.pending) - n
	params := bg.pending[split:]
	bg.pending = bg.pending[:split:split]

	receiver := params[ReceiverIndex]
	class := bg.tracker.ResolveClassName(receiver)
	if m, ok := bg.lookupMethod(class, in.Arg1); ok {
		class = m.Class
	} else {
		bg.log.Warningf("%s: cannot resolve %s on %s", bg.blk.Name, in.Arg1, receiver)
	}

	for _, arg := range ArgumentLoadOrder(params) {
		if err := bg.load(arg); err != nil {
			return err
		}
	}
	bg.out.Emit(OpInvokeVirtual, QualifiedTarget(class, in.Arg1))

	if in.Result != "" {
		bg.out.Emit(OpIStore, in.Result)
		bg.tracker.TrackCall(in.Result, class, in.Arg1)
	}
	return nil
}

package ir

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/tliron/commonlog"

	"github.com/chazu/mjc/compiler"
)

// ErrMalformedTree reports a syntax tree that violates the shape a checked
// program must have. It signals a pipeline bug, not a user error.
var ErrMalformedTree = errors.New("malformed syntax tree")

// ---------------------------------------------------------------------------
// Builder: syntax tree to CFG
// ---------------------------------------------------------------------------

// Builder lowers a checked program into a CFG. Temporaries are numbered
// per method, so names never repeat within one method's blocks.
type Builder struct {
	cfg    *CFG
	class  string
	method string
	temps  int
	log    commonlog.Logger
}

// NewBuilder creates a builder with an empty graph.
func NewBuilder() *Builder {
	return &Builder{
		cfg: NewCFG(),
		log: commonlog.GetLogger("mjc.ir"),
	}
}

// Build lowers prog into a fresh CFG.
func Build(prog *compiler.Program) (*CFG, error) {
	return NewBuilder().Build(prog)
}

// Build lowers every method of prog. The main class comes first, then
// classes and methods in declaration order.
func (b *Builder) Build(prog *compiler.Program) (*CFG, error) {
	if prog == nil || prog.Main == nil {
		return nil, fmt.Errorf("%w: program without main class", ErrMalformedTree)
	}

	if err := b.buildMain(prog.Main); err != nil {
		return nil, err
	}
	for _, cd := range prog.Classes {
		if cd == nil {
			return nil, fmt.Errorf("%w: nil class declaration", ErrMalformedTree)
		}
		for _, md := range cd.Methods {
			if err := b.buildMethod(cd.Name, md); err != nil {
				return nil, err
			}
		}
	}

	if err := b.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTree, err)
	}
	return b.cfg, nil
}

func (b *Builder) enter(class, method string) {
	b.class = class
	b.method = method
	b.temps = 0
}

func (b *Builder) buildMain(mc *compiler.MainClass) error {
	b.enter(mc.Name, "main")
	entry := b.cfg.NewEntryBlock(mc.Name, "main")

	if _, err := b.lowerStmts(mc.Body, entry); err != nil {
		return fmt.Errorf("%s.main: %w", mc.Name, err)
	}
	b.log.Debugf("built %s.main", mc.Name)
	return nil
}

func (b *Builder) buildMethod(class string, md *compiler.MethodDecl) error {
	if md == nil {
		return fmt.Errorf("%w: nil method in class %s", ErrMalformedTree, class)
	}
	b.enter(class, md.Name)
	entry := b.cfg.NewEntryBlock(class, md.Name)

	last, err := b.lowerStmts(md.Body, entry)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", class, md.Name, err)
	}

	if md.Return == nil {
		return fmt.Errorf("%s.%s: %w: missing return expression", class, md.Name, ErrMalformedTree)
	}
	value, err := b.lowerExpr(md.Return, last)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", class, md.Name, err)
	}
	last.Emit(Instr{Op: OpReturn, Arg1: value})

	b.log.Debugf("built %s.%s with %d temporaries", class, md.Name, b.temps)
	return nil
}

// newTemp returns a fresh temporary name for the current method.
func (b *Builder) newTemp() string {
	name := "_t" + strconv.Itoa(b.temps)
	b.temps++
	return name
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// lowerStmts lowers stmts in order starting in cur and returns the block
// where control continues.
func (b *Builder) lowerStmts(stmts []compiler.Stmt, cur *BasicBlock) (*BasicBlock, error) {
	for _, s := range stmts {
		next, err := b.lowerStmt(s, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func (b *Builder) lowerStmt(stmt compiler.Stmt, cur *BasicBlock) (*BasicBlock, error) {
	switch s := stmt.(type) {
	case *compiler.BlockStmt:
		return b.lowerStmts(s.Stmts, cur)

	case *compiler.PrintStmt:
		value, err := b.lowerExpr(s.Value, cur)
		if err != nil {
			return nil, err
		}
		cur.Emit(Instr{Op: OpPrint, Arg1: value})
		return cur, nil

	case *compiler.AssignStmt:
		value, err := b.lowerExpr(s.Value, cur)
		if err != nil {
			return nil, err
		}
		cur.Emit(Instr{Result: s.Name, Arg1: value, Op: OpCopy})
		return cur, nil

	case *compiler.IfStmt:
		return b.lowerIf(s, cur)

	case *compiler.WhileStmt:
		return b.lowerWhile(s, cur)

	case nil:
		return nil, fmt.Errorf("%w: nil statement", ErrMalformedTree)
	}
	return nil, fmt.Errorf("%w: unexpected statement %T", ErrMalformedTree, stmt)
}

// lowerCondition fills cond with the test of e ending in an if.
func (b *Builder) lowerCondition(e compiler.Expr, cond *BasicBlock) error {
	value, err := b.lowerExpr(e, cond)
	if err != nil {
		return err
	}
	cond.Emit(Instr{Op: OpIf, Arg1: value})
	return nil
}

func (b *Builder) lowerIf(s *compiler.IfStmt, cur *BasicBlock) (*BasicBlock, error) {
	if s.Then == nil {
		return nil, fmt.Errorf("%w: if without body", ErrMalformedTree)
	}

	cond := b.cfg.NewBlock(b.class, b.method)
	then := b.cfg.NewBlock(b.class, b.method)
	var els *BasicBlock
	if s.Else != nil {
		els = b.cfg.NewBlock(b.class, b.method)
	}
	exit := b.cfg.NewBlock(b.class, b.method)

	cur.TrueExit = cond.ID
	if err := b.lowerCondition(s.Cond, cond); err != nil {
		return nil, err
	}
	cond.TrueExit = then.ID
	cond.FalseExit = exit.ID

	thenEnd, err := b.lowerStmt(s.Then, then)
	if err != nil {
		return nil, err
	}
	if !thenEnd.HasExit() {
		thenEnd.TrueExit = exit.ID
	}

	if els != nil {
		cond.FalseExit = els.ID
		elseEnd, err := b.lowerStmt(s.Else, els)
		if err != nil {
			return nil, err
		}
		if !elseEnd.HasExit() {
			elseEnd.TrueExit = exit.ID
		}
	}

	return exit, nil
}

func (b *Builder) lowerWhile(s *compiler.WhileStmt, cur *BasicBlock) (*BasicBlock, error) {
	if s.Body == nil {
		return nil, fmt.Errorf("%w: while without body", ErrMalformedTree)
	}

	cond := b.cfg.NewBlock(b.class, b.method)
	body := b.cfg.NewBlock(b.class, b.method)
	exit := b.cfg.NewBlock(b.class, b.method)

	cur.TrueExit = cond.ID
	if err := b.lowerCondition(s.Cond, cond); err != nil {
		return nil, err
	}
	cond.TrueExit = body.ID
	cond.FalseExit = exit.ID

	bodyEnd, err := b.lowerStmt(s.Body, body)
	if err != nil {
		return nil, err
	}
	if !bodyEnd.HasExit() {
		bodyEnd.TrueExit = cond.ID
	}

	return exit, nil
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// lowerExpr emits the TAC computing e into cur and returns the name that
// holds its value. Literals and identifiers are returned verbatim.
func (b *Builder) lowerExpr(e compiler.Expr, cur *BasicBlock) (string, error) {
	switch ex := e.(type) {
	case *compiler.IntLiteral:
		return strconv.FormatInt(ex.Value, 10), nil

	case *compiler.BoolLiteral:
		return strconv.FormatBool(ex.Value), nil

	case *compiler.Identifier:
		return ex.Name, nil

	case *compiler.ThisExpr:
		t := b.newTemp()
		cur.Emit(Instr{Result: t, Arg1: b.class, Op: OpCopy})
		cur.Emit(Instr{Op: OpParam, Arg1: t})
		return t, nil

	case *compiler.NewObject:
		t := b.newTemp()
		cur.Emit(Instr{Result: t, Arg1: ex.Class, Op: OpNew})
		cur.Emit(Instr{Op: OpParam, Arg1: t})
		return t, nil

	case *compiler.BinaryExpr:
		if ex.Left == nil || ex.Right == nil {
			return "", fmt.Errorf("%w: binary %s needs two operands", ErrMalformedTree, ex.Op)
		}
		left, err := b.lowerExpr(ex.Left, cur)
		if err != nil {
			return "", err
		}
		right, err := b.lowerExpr(ex.Right, cur)
		if err != nil {
			return "", err
		}
		op := Op(ex.Op)
		if !op.IsBinary() {
			return "", fmt.Errorf("%w: unknown binary operator %q", ErrMalformedTree, ex.Op)
		}
		t := b.newTemp()
		cur.Emit(Instr{Result: t, Arg1: left, Op: op, Arg2: right})
		return t, nil

	case *compiler.UnaryExpr:
		if ex.Operand == nil {
			return "", fmt.Errorf("%w: unary %s needs an operand", ErrMalformedTree, ex.Op)
		}
		operand, err := b.lowerExpr(ex.Operand, cur)
		if err != nil {
			return "", err
		}
		op := Op(ex.Op)
		if !op.IsUnary() {
			return "", fmt.Errorf("%w: unknown unary operator %q", ErrMalformedTree, ex.Op)
		}
		t := b.newTemp()
		cur.Emit(Instr{Result: t, Arg1: operand, Op: op})
		return t, nil

	case *compiler.CallExpr:
		return b.lowerCall(ex, cur)

	case nil:
		return "", fmt.Errorf("%w: nil expression", ErrMalformedTree)
	}
	return "", fmt.Errorf("%w: unexpected expression %T", ErrMalformedTree, e)
}

// lowerCall enqueues the receiver and arguments as params, then records
// the unqualified method name and the param count. Values whose lowering
// already enqueued them (new, this) are not enqueued twice.
func (b *Builder) lowerCall(ex *compiler.CallExpr, cur *BasicBlock) (string, error) {
	if ex.Receiver == nil {
		return "", fmt.Errorf("%w: call to %s without receiver", ErrMalformedTree, ex.Method)
	}

	enqueue := func(e compiler.Expr) error {
		name, err := b.lowerExpr(e, cur)
		if err != nil {
			return err
		}
		if !selfEnqueuing(e) {
			cur.Emit(Instr{Op: OpParam, Arg1: name})
		}
		return nil
	}

	if err := enqueue(ex.Receiver); err != nil {
		return "", err
	}
	for _, arg := range ex.Args {
		if err := enqueue(arg); err != nil {
			return "", err
		}
	}

	t := b.newTemp()
	cur.Emit(Instr{Result: t, Arg1: ex.Method, Op: OpCall, Arg2: strconv.Itoa(len(ex.Args) + 1)})
	return t, nil
}

func selfEnqueuing(e compiler.Expr) bool {
	switch e.(type) {
	case *compiler.NewObject, *compiler.ThisExpr:
		return true
	}
	return false
}

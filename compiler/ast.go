package compiler

// ---------------------------------------------------------------------------
// AST: Abstract Syntax Tree for MiniJava
// ---------------------------------------------------------------------------

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Span represents a range in source code.
type Span struct {
	Start Position
	End   Position
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Span() Span
	node() // marker method
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

// Program is the root of a MiniJava compilation unit.
type Program struct {
	SpanVal Span
	Main    *MainClass
	Classes []*ClassDecl
}

func (n *Program) Span() Span { return n.SpanVal }
func (n *Program) node()      {}

// MainClass holds the class declaring the static main method.
type MainClass struct {
	SpanVal  Span
	Name     string
	ArgsName string // name of the String[] parameter
	Body     []Stmt
}

func (n *MainClass) Span() Span { return n.SpanVal }
func (n *MainClass) node()      {}

// ClassDecl represents an ordinary class declaration.
type ClassDecl struct {
	SpanVal    Span
	Name       string
	Superclass string // empty when the class does not extend another
	Fields     []*VarDecl
	Methods    []*MethodDecl
}

func (n *ClassDecl) Span() Span { return n.SpanVal }
func (n *ClassDecl) node()      {}

// VarDecl declares a field, parameter or local variable.
type VarDecl struct {
	SpanVal Span
	Type    Type
	Name    string
}

func (n *VarDecl) Span() Span { return n.SpanVal }
func (n *VarDecl) node()      {}

// MethodDecl represents a method. MiniJava methods end with exactly one
// return expression.
type MethodDecl struct {
	SpanVal    Span
	Name       string
	ReturnType Type
	Params     []*VarDecl
	Locals     []*VarDecl
	Body       []Stmt
	Return     Expr
}

func (n *MethodDecl) Span() Span { return n.SpanVal }
func (n *MethodDecl) node()      {}

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Type is the interface for type nodes.
type Type interface {
	Node
	String() string
	typ() // marker method
}

// IntType is the int type.
type IntType struct {
	SpanVal Span
}

func (n *IntType) Span() Span     { return n.SpanVal }
func (n *IntType) node()          {}
func (n *IntType) typ()           {}
func (n *IntType) String() string { return "int" }

// BoolType is the boolean type.
type BoolType struct {
	SpanVal Span
}

func (n *BoolType) Span() Span     { return n.SpanVal }
func (n *BoolType) node()          {}
func (n *BoolType) typ()           {}
func (n *BoolType) String() string { return "boolean" }

// ClassType refers to a class by name.
type ClassType struct {
	SpanVal Span
	Name    string
}

func (n *ClassType) Span() Span     { return n.SpanVal }
func (n *ClassType) node()          {}
func (n *ClassType) typ()           {}
func (n *ClassType) String() string { return n.Name }

// TypeName returns the source spelling of t, or "void" for a nil type.
func TypeName(t Type) string {
	if t == nil {
		return "void"
	}
	return t.String()
}

// ClassName returns the class named by t, or "" when t is not a class type.
func ClassName(t Type) string {
	if ct, ok := t.(*ClassType); ok {
		return ct.Name
	}
	return ""
}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// BlockStmt is a braced statement list.
type BlockStmt struct {
	SpanVal Span
	Stmts   []Stmt
}

func (n *BlockStmt) Span() Span { return n.SpanVal }
func (n *BlockStmt) node()      {}
func (n *BlockStmt) stmt()      {}

// IfStmt represents if (Cond) Then [else Else]. Else is nil when absent.
type IfStmt struct {
	SpanVal Span
	Cond    Expr
	Then    Stmt
	Else    Stmt
}

func (n *IfStmt) Span() Span { return n.SpanVal }
func (n *IfStmt) node()      {}
func (n *IfStmt) stmt()      {}

// WhileStmt represents while (Cond) Body.
type WhileStmt struct {
	SpanVal Span
	Cond    Expr
	Body    Stmt
}

func (n *WhileStmt) Span() Span { return n.SpanVal }
func (n *WhileStmt) node()      {}
func (n *WhileStmt) stmt()      {}

// PrintStmt represents System.out.println(Value).
type PrintStmt struct {
	SpanVal Span
	Value   Expr
}

func (n *PrintStmt) Span() Span { return n.SpanVal }
func (n *PrintStmt) node()      {}
func (n *PrintStmt) stmt()      {}

// AssignStmt represents Name = Value.
type AssignStmt struct {
	SpanVal Span
	Name    string
	Value   Expr
}

func (n *AssignStmt) Span() Span { return n.SpanVal }
func (n *AssignStmt) node()      {}
func (n *AssignStmt) stmt()      {}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// IntLiteral represents an integer literal.
type IntLiteral struct {
	SpanVal Span
	Value   int64
}

func (n *IntLiteral) Span() Span { return n.SpanVal }
func (n *IntLiteral) node()      {}
func (n *IntLiteral) expr()      {}

// BoolLiteral represents true or false.
type BoolLiteral struct {
	SpanVal Span
	Value   bool
}

func (n *BoolLiteral) Span() Span { return n.SpanVal }
func (n *BoolLiteral) node()      {}
func (n *BoolLiteral) expr()      {}

// Identifier represents a variable reference.
type Identifier struct {
	SpanVal Span
	Name    string
}

func (n *Identifier) Span() Span { return n.SpanVal }
func (n *Identifier) node()      {}
func (n *Identifier) expr()      {}

// ThisExpr represents the receiver of the current method.
type ThisExpr struct {
	SpanVal Span
}

func (n *ThisExpr) Span() Span { return n.SpanVal }
func (n *ThisExpr) node()      {}
func (n *ThisExpr) expr()      {}

// NewObject represents new Class().
type NewObject struct {
	SpanVal Span
	Class   string
}

func (n *NewObject) Span() Span { return n.SpanVal }
func (n *NewObject) node()      {}
func (n *NewObject) expr()      {}

// BinaryOp is a binary operator, spelled as in source.
type BinaryOp string

const (
	OpAdd BinaryOp = "+"
	OpSub BinaryOp = "-"
	OpMul BinaryOp = "*"
	OpDiv BinaryOp = "/"
	OpLt  BinaryOp = "<"
	OpGt  BinaryOp = ">"
	OpEq  BinaryOp = "=="
	OpAnd BinaryOp = "&&"
	OpOr  BinaryOp = "||"
)

// BinaryExpr represents Left Op Right.
type BinaryExpr struct {
	SpanVal Span
	Op      BinaryOp
	Left    Expr
	Right   Expr
}

func (n *BinaryExpr) Span() Span { return n.SpanVal }
func (n *BinaryExpr) node()      {}
func (n *BinaryExpr) expr()      {}

// UnaryOp is a unary operator.
type UnaryOp string

const OpNot UnaryOp = "!"

// UnaryExpr represents Op Operand.
type UnaryExpr struct {
	SpanVal Span
	Op      UnaryOp
	Operand Expr
}

func (n *UnaryExpr) Span() Span { return n.SpanVal }
func (n *UnaryExpr) node()      {}
func (n *UnaryExpr) expr()      {}

// CallExpr represents Receiver.Method(Args...).
type CallExpr struct {
	SpanVal  Span
	Receiver Expr
	Method   string
	Args     []Expr
}

func (n *CallExpr) Span() Span { return n.SpanVal }
func (n *CallExpr) node()      {}
func (n *CallExpr) expr()      {}

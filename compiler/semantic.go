package compiler

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// Semantic Analyzer: Pre-codegen semantic checks
// ---------------------------------------------------------------------------

// SemanticAnalyzer checks a parsed program against its symbol table:
// undeclared names, unknown classes and methods, argument counts and
// best-effort static types.
type SemanticAnalyzer struct {
	table  *SymbolTable
	errors []string

	// Scope tracking
	class  *Class
	method *Method
	inMain bool
}

// NewSemanticAnalyzer creates a new semantic analyzer.
func NewSemanticAnalyzer(table *SymbolTable) *SemanticAnalyzer {
	return &SemanticAnalyzer{table: table}
}

// Errors returns accumulated analysis errors.
func (s *SemanticAnalyzer) Errors() []string {
	return s.errors
}

// errorAt records an error with position information.
func (s *SemanticAnalyzer) errorAt(node Node, format string, args ...interface{}) {
	pos := node.Span().Start
	msg := fmt.Sprintf("line %d, column %d: %s", pos.Line, pos.Column, fmt.Sprintf(format, args...))
	s.errors = append(s.errors, msg)
}

// Analyze checks the whole program and returns the accumulated errors.
func (s *SemanticAnalyzer) Analyze(prog *Program) []string {
	if prog == nil || prog.Main == nil {
		s.errors = append(s.errors, "no main class declared")
		return s.errors
	}

	s.analyzeMain(prog.Main)
	for _, cd := range prog.Classes {
		s.analyzeClass(cd)
	}
	return s.errors
}

func (s *SemanticAnalyzer) analyzeMain(mc *MainClass) {
	s.class, _ = s.table.Class(mc.Name)
	s.method = nil
	s.inMain = true
	for _, stmt := range mc.Body {
		s.analyzeStmt(stmt)
	}
	s.inMain = false
}

func (s *SemanticAnalyzer) analyzeClass(cd *ClassDecl) {
	cls, ok := s.table.Class(cd.Name)
	if !ok {
		s.errorAt(cd, "class %s is not declared", cd.Name)
		return
	}
	s.class = cls

	if cd.Superclass != "" {
		super, ok := s.table.Class(cd.Superclass)
		switch {
		case !ok:
			s.errorAt(cd, "class %s extends unknown class %s", cd.Name, cd.Superclass)
		case super.Main:
			s.errorAt(cd, "class %s cannot extend the main class %s", cd.Name, cd.Superclass)
		case s.hasInheritanceCycle(cd.Name):
			s.errorAt(cd, "inheritance cycle involving class %s", cd.Name)
		}
	}

	for _, f := range cd.Fields {
		s.checkDeclaredType(f, f.Type)
	}

	for _, md := range cd.Methods {
		s.analyzeMethod(md)
	}
}

// hasInheritanceCycle walks the superclass chain looking for class again.
func (s *SemanticAnalyzer) hasInheritanceCycle(class string) bool {
	seen := map[string]bool{class: true}
	c, _ := s.table.Class(class)
	for c != nil && c.Superclass != "" {
		if seen[c.Superclass] {
			return true
		}
		seen[c.Superclass] = true
		c, _ = s.table.Class(c.Superclass)
	}
	return false
}

func (s *SemanticAnalyzer) analyzeMethod(md *MethodDecl) {
	m, ok := s.class.Method(md.Name)
	if !ok {
		s.errorAt(md, "method %s is not declared in class %s", md.Name, s.class.Name)
		return
	}
	s.method = m

	s.checkDeclaredType(md, md.ReturnType)
	for _, p := range md.Params {
		s.checkDeclaredType(p, p.Type)
	}
	for _, l := range md.Locals {
		s.checkDeclaredType(l, l.Type)
	}

	// An override must keep the inherited signature.
	if s.class.Superclass != "" {
		if inherited, ok := s.table.LookupMethod(s.class.Superclass, md.Name); ok {
			if len(inherited.Params) != len(m.Params) {
				s.errorAt(md, "method %s overrides %s with a different number of parameters",
					md.Name, inherited.QualifiedName())
			}
		}
	}

	for _, stmt := range md.Body {
		s.analyzeStmt(stmt)
	}

	if md.Return == nil {
		s.errorAt(md, "method %s has no return expression", md.Name)
	} else {
		got := s.typeOf(md.Return)
		if !s.assignable(md.ReturnType, got) {
			s.errorAt(md.Return, "method %s returns %s, declared %s", md.Name, TypeName(got), TypeName(md.ReturnType))
		}
	}
	s.method = nil
}

// checkDeclaredType reports class types naming unknown classes.
func (s *SemanticAnalyzer) checkDeclaredType(n Node, t Type) {
	name := ClassName(t)
	if name == "" {
		return
	}
	c, ok := s.table.Class(name)
	if !ok {
		s.errorAt(n, "unknown class %s", name)
		return
	}
	if c.Main {
		s.errorAt(n, "the main class %s cannot be used as a type", name)
	}
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (s *SemanticAnalyzer) analyzeStmt(stmt Stmt) {
	switch st := stmt.(type) {
	case *BlockStmt:
		for _, inner := range st.Stmts {
			s.analyzeStmt(inner)
		}

	case *IfStmt:
		s.expectBoolean(st.Cond, "if condition")
		s.analyzeStmt(st.Then)
		if st.Else != nil {
			s.analyzeStmt(st.Else)
		}

	case *WhileStmt:
		s.expectBoolean(st.Cond, "while condition")
		s.analyzeStmt(st.Body)

	case *PrintStmt:
		t := s.typeOf(st.Value)
		if ClassName(t) != "" {
			s.errorAt(st.Value, "cannot print a value of type %s", TypeName(t))
		}

	case *AssignStmt:
		declared, ok := s.lookupVariable(st.Name)
		if !ok {
			s.errorAt(st, "variable %s is not declared", st.Name)
			s.typeOf(st.Value)
			return
		}
		got := s.typeOf(st.Value)
		if !s.assignable(declared, got) {
			s.errorAt(st, "cannot assign %s to %s of type %s", TypeName(got), st.Name, TypeName(declared))
		}

	case nil:
		// dropped by the parser after a reported error

	default:
		s.errorAt(stmt, "unknown statement %T", stmt)
	}
}

func (s *SemanticAnalyzer) expectBoolean(e Expr, what string) {
	t := s.typeOf(e)
	if t != nil {
		if _, ok := t.(*BoolType); !ok {
			s.errorAt(e, "%s must be boolean, got %s", what, TypeName(t))
		}
	}
}

// lookupVariable resolves a name in the current method or class.
func (s *SemanticAnalyzer) lookupVariable(name string) (Type, bool) {
	if s.inMain || s.class == nil || s.method == nil {
		return nil, false
	}
	return s.table.VariableType(s.class.Name, s.method.Name, name)
}

// assignable reports whether a value of type src may be stored in dst.
// Unknown types are accepted so one error does not cascade.
func (s *SemanticAnalyzer) assignable(dst, src Type) bool {
	if dst == nil || src == nil {
		return true
	}
	switch d := dst.(type) {
	case *IntType:
		_, ok := src.(*IntType)
		return ok
	case *BoolType:
		_, ok := src.(*BoolType)
		return ok
	case *ClassType:
		sc, ok := src.(*ClassType)
		return ok && s.table.IsSubclass(sc.Name, d.Name)
	}
	return false
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

var (
	intType  = &IntType{}
	boolType = &BoolType{}
)

// typeOf checks e and returns its static type, or nil when unknown.
func (s *SemanticAnalyzer) typeOf(e Expr) Type {
	switch ex := e.(type) {
	case *IntLiteral:
		return intType

	case *BoolLiteral:
		return boolType

	case *Identifier:
		t, ok := s.lookupVariable(ex.Name)
		if !ok {
			s.errorAt(ex, "variable %s is not declared", ex.Name)
			return nil
		}
		return t

	case *ThisExpr:
		if s.inMain || s.class == nil {
			s.errorAt(ex, "this cannot be used in static main")
			return nil
		}
		return &ClassType{Name: s.class.Name}

	case *NewObject:
		c, ok := s.table.Class(ex.Class)
		if !ok {
			s.errorAt(ex, "unknown class %s", ex.Class)
			return nil
		}
		if c.Main {
			s.errorAt(ex, "cannot instantiate the main class %s", ex.Class)
			return nil
		}
		return &ClassType{Name: ex.Class}

	case *BinaryExpr:
		return s.typeOfBinary(ex)

	case *UnaryExpr:
		t := s.typeOf(ex.Operand)
		if t != nil {
			if _, ok := t.(*BoolType); !ok {
				s.errorAt(ex, "operator %s requires a boolean operand, got %s", ex.Op, TypeName(t))
			}
		}
		return boolType

	case *CallExpr:
		return s.typeOfCall(ex)

	case nil:
		return nil
	}

	s.errorAt(e, "unknown expression %T", e)
	return nil
}

func (s *SemanticAnalyzer) typeOfBinary(ex *BinaryExpr) Type {
	left := s.typeOf(ex.Left)
	right := s.typeOf(ex.Right)

	requireBoth := func(want Type) {
		for _, t := range []Type{left, right} {
			if t != nil && !s.assignable(want, t) {
				s.errorAt(ex, "operator %s requires %s operands, got %s", ex.Op, TypeName(want), TypeName(t))
				return
			}
		}
	}

	switch ex.Op {
	case OpAdd, OpSub, OpMul, OpDiv:
		requireBoth(intType)
		return intType
	case OpLt, OpGt:
		requireBoth(intType)
		return boolType
	case OpAnd, OpOr:
		requireBoth(boolType)
		return boolType
	case OpEq:
		if left != nil && right != nil && TypeName(left) != TypeName(right) {
			s.errorAt(ex, "cannot compare %s with %s", TypeName(left), TypeName(right))
		}
		return boolType
	}

	s.errorAt(ex, "unknown operator %s", ex.Op)
	return nil
}

func (s *SemanticAnalyzer) typeOfCall(ex *CallExpr) Type {
	recv := s.typeOf(ex.Receiver)
	argTypes := make([]Type, len(ex.Args))
	for i, arg := range ex.Args {
		argTypes[i] = s.typeOf(arg)
	}

	if recv == nil {
		return nil
	}
	class := ClassName(recv)
	if class == "" {
		s.errorAt(ex, "cannot call %s on a value of type %s", ex.Method, TypeName(recv))
		return nil
	}

	m, ok := s.table.LookupMethod(class, ex.Method)
	if !ok {
		s.errorAt(ex, "class %s has no method %s", class, ex.Method)
		return nil
	}
	if len(ex.Args) != len(m.Params) {
		s.errorAt(ex, "method %s expects %d arguments, got %d", m.QualifiedName(), len(m.Params), len(ex.Args))
		return m.ReturnType
	}
	for i, p := range m.Params {
		if !s.assignable(p.Type, argTypes[i]) {
			s.errorAt(ex.Args[i], "argument %d of %s: cannot use %s as %s",
				i+1, m.QualifiedName(), TypeName(argTypes[i]), TypeName(p.Type))
		}
	}
	return m.ReturnType
}

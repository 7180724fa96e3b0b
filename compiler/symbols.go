package compiler

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// Symbol table: classes, fields, methods and their variables
// ---------------------------------------------------------------------------

// Variable is a named, typed slot: a field, parameter or local.
type Variable struct {
	Name string
	Type Type
}

// Method describes a method signature and its declared variables.
type Method struct {
	Name       string
	Class      string // defining class
	ReturnType Type   // nil for the static main method
	Params     []*Variable
	Locals     []*Variable
}

// QualifiedName returns Class.method.
func (m *Method) QualifiedName() string {
	return m.Class + "." + m.Name
}

// Param returns the named parameter.
func (m *Method) Param(name string) (*Variable, bool) {
	return findVariable(m.Params, name)
}

// Local returns the named local variable.
func (m *Method) Local(name string) (*Variable, bool) {
	return findVariable(m.Locals, name)
}

// ParamNames returns parameter names in declaration order.
func (m *Method) ParamNames() []string {
	names := make([]string, len(m.Params))
	for i, p := range m.Params {
		names[i] = p.Name
	}
	return names
}

// Class describes a class and its members in declaration order.
type Class struct {
	Name       string
	Superclass string
	Main       bool // the class holding static main
	Fields     []*Variable
	Methods    []*Method
}

// Field returns a field declared directly in this class.
func (c *Class) Field(name string) (*Variable, bool) {
	return findVariable(c.Fields, name)
}

// Method returns a method declared directly in this class.
func (c *Class) Method(name string) (*Method, bool) {
	for _, m := range c.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

func findVariable(vars []*Variable, name string) (*Variable, bool) {
	for _, v := range vars {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// SymbolTable holds every class of a program, keyed by name, remembering
// declaration order.
type SymbolTable struct {
	classes map[string]*Class
	order   []string
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{classes: make(map[string]*Class)}
}

// AddClass registers a class. Redeclaring a name is an error.
func (s *SymbolTable) AddClass(c *Class) error {
	if _, exists := s.classes[c.Name]; exists {
		return fmt.Errorf("class %s is already declared", c.Name)
	}
	s.classes[c.Name] = c
	s.order = append(s.order, c.Name)
	return nil
}

// Class returns the named class.
func (s *SymbolTable) Class(name string) (*Class, bool) {
	c, ok := s.classes[name]
	return c, ok
}

// HasClass reports whether name is a declared class.
func (s *SymbolTable) HasClass(name string) bool {
	_, ok := s.classes[name]
	return ok
}

// ClassNames returns class names in declaration order.
func (s *SymbolTable) ClassNames() []string {
	return append([]string(nil), s.order...)
}

// Classes returns classes in declaration order.
func (s *SymbolTable) Classes() []*Class {
	classes := make([]*Class, len(s.order))
	for i, name := range s.order {
		classes[i] = s.classes[name]
	}
	return classes
}

// superChain returns class followed by its ancestors. Unknown names and
// inheritance cycles end the chain.
func (s *SymbolTable) superChain(class string) []*Class {
	var chain []*Class
	seen := make(map[string]bool)
	for class != "" && !seen[class] {
		c, ok := s.classes[class]
		if !ok {
			break
		}
		seen[class] = true
		chain = append(chain, c)
		class = c.Superclass
	}
	return chain
}

// LookupMethod finds a method in class or its nearest ancestor defining it.
// The returned method's Class field names the defining class.
func (s *SymbolTable) LookupMethod(class, method string) (*Method, bool) {
	for _, c := range s.superChain(class) {
		if m, ok := c.Method(method); ok {
			return m, true
		}
	}
	return nil, false
}

// LookupField finds a field in class or its ancestors.
func (s *SymbolTable) LookupField(class, name string) (*Variable, bool) {
	for _, c := range s.superChain(class) {
		if v, ok := c.Field(name); ok {
			return v, true
		}
	}
	return nil, false
}

// VariableType resolves name inside class.method: locals first, then
// parameters, then fields up the superclass chain.
func (s *SymbolTable) VariableType(class, method, name string) (Type, bool) {
	if m, ok := s.LookupMethod(class, method); ok {
		if v, ok := m.Local(name); ok {
			return v.Type, true
		}
		if v, ok := m.Param(name); ok {
			return v.Type, true
		}
	}
	if v, ok := s.LookupField(class, name); ok {
		return v.Type, true
	}
	return nil, false
}

// MethodReturnType returns the declared return type of class.method.
func (s *SymbolTable) MethodReturnType(class, method string) (Type, bool) {
	m, ok := s.LookupMethod(class, method)
	if !ok {
		return nil, false
	}
	return m.ReturnType, true
}

// IsSubclass reports whether class equals ancestor or inherits from it.
func (s *SymbolTable) IsSubclass(class, ancestor string) bool {
	for _, c := range s.superChain(class) {
		if c.Name == ancestor {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Symbol table construction
// ---------------------------------------------------------------------------

// BuildSymbolTable collects declarations from prog. Duplicate declarations
// are reported; the first declaration wins.
func BuildSymbolTable(prog *Program) (*SymbolTable, []string) {
	st := NewSymbolTable()
	var errs []string
	errorAt := func(n Node, format string, args ...interface{}) {
		pos := n.Span().Start
		errs = append(errs, fmt.Sprintf("line %d, column %d: %s", pos.Line, pos.Column, fmt.Sprintf(format, args...)))
	}

	if prog == nil {
		return st, []string{"empty program"}
	}

	if mc := prog.Main; mc != nil {
		mainClass := &Class{Name: mc.Name, Main: true}
		mainClass.Methods = append(mainClass.Methods, &Method{Name: "main", Class: mc.Name})
		if err := st.AddClass(mainClass); err != nil {
			errorAt(mc, "%v", err)
		}
	}

	for _, cd := range prog.Classes {
		cls := &Class{Name: cd.Name, Superclass: cd.Superclass}

		for _, f := range cd.Fields {
			if _, dup := cls.Field(f.Name); dup {
				errorAt(f, "field %s is already declared in class %s", f.Name, cd.Name)
				continue
			}
			cls.Fields = append(cls.Fields, &Variable{Name: f.Name, Type: f.Type})
		}

		for _, md := range cd.Methods {
			if _, dup := cls.Method(md.Name); dup {
				errorAt(md, "method %s is already declared in class %s", md.Name, cd.Name)
				continue
			}
			m := &Method{Name: md.Name, Class: cd.Name, ReturnType: md.ReturnType}
			for _, p := range md.Params {
				if _, dup := m.Param(p.Name); dup {
					errorAt(p, "parameter %s is already declared in method %s", p.Name, md.Name)
					continue
				}
				m.Params = append(m.Params, &Variable{Name: p.Name, Type: p.Type})
			}
			for _, l := range md.Locals {
				_, dupParam := m.Param(l.Name)
				_, dupLocal := m.Local(l.Name)
				if dupParam || dupLocal {
					errorAt(l, "variable %s is already declared in method %s", l.Name, md.Name)
					continue
				}
				m.Locals = append(m.Locals, &Variable{Name: l.Name, Type: l.Type})
			}
			cls.Methods = append(cls.Methods, m)
		}

		if err := st.AddClass(cls); err != nil {
			errorAt(cd, "%v", err)
		}
	}

	return st, errs
}

package bytecode

import "fmt"

// Instruction is one opcode with its optional argument: a variable name,
// an integer literal, or a block or method label.
type Instruction struct {
	Op  Opcode
	Arg string
}

// String renders the instruction as "opcode [arg]".
func (in Instruction) String() string {
	if in.Arg == "" {
		return in.Op.Name()
	}
	return in.Op.Name() + " " + in.Arg
}

// Method is a named instruction sequence. Names are either Class.method
// for method entries or block_N for auxiliary blocks.
type Method struct {
	Name string
	Code []Instruction
}

// Emit appends an instruction.
func (m *Method) Emit(op Opcode, arg string) {
	m.Code = append(m.Code, Instruction{Op: op, Arg: arg})
}

// Len returns the number of instructions.
func (m *Method) Len() int {
	return len(m.Code)
}

// Program is an ordered collection of methods keyed by name.
type Program struct {
	methods []*Method
	index   map[string]int
}

// NewProgram creates an empty program.
func NewProgram() *Program {
	return &Program{index: make(map[string]int)}
}

// Add appends m. Names must be unique.
func (p *Program) Add(m *Method) error {
	if _, dup := p.index[m.Name]; dup {
		return fmt.Errorf("duplicate method %s", m.Name)
	}
	p.index[m.Name] = len(p.methods)
	p.methods = append(p.methods, m)
	return nil
}

// Method returns the method named name.
func (p *Program) Method(name string) (*Method, bool) {
	i, ok := p.index[name]
	if !ok {
		return nil, false
	}
	return p.methods[i], true
}

// Methods returns methods in insertion order.
func (p *Program) Methods() []*Method {
	return p.methods
}

// Names returns method names in insertion order.
func (p *Program) Names() []string {
	names := make([]string, len(p.methods))
	for i, m := range p.methods {
		names[i] = m.Name
	}
	return names
}

// Len returns the number of methods.
func (p *Program) Len() int {
	return len(p.methods)
}

// Unresolved lists every branch or call whose target is not a method of
// the program, as "Method[addr] target".
func (p *Program) Unresolved() []string {
	var out []string
	for _, m := range p.methods {
		for addr, in := range m.Code {
			if !in.Op.IsBranch() {
				continue
			}
			if _, ok := p.index[in.Arg]; !ok {
				out = append(out, fmt.Sprintf("%s[%d] %s", m.Name, addr, in.Arg))
			}
		}
	}
	return out
}

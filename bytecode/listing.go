package bytecode

import (
	"github.com/jedib0t/go-pretty/v6/table"
)

// Listing renders the program as a table of methods and instructions.
func (p *Program) Listing() string {
	t := table.NewWriter()
	t.SetTitle("Bytecode")
	t.AppendHeader(table.Row{"Method", "Addr", "Opcode", "Argument"})
	for _, m := range p.methods {
		for i, in := range m.Code {
			name := ""
			if i == 0 {
				name = m.Name
			}
			t.AppendRow(table.Row{name, i, in.Op.Name(), in.Arg})
		}
		if len(m.Code) == 0 {
			t.AppendRow(table.Row{m.Name, "", "", ""})
		}
		t.AppendSeparator()
	}
	return t.Render()
}

// InstructionSetTable renders the opcode table.
func InstructionSetTable() string {
	t := table.NewWriter()
	t.SetTitle("Instruction set")
	t.AppendHeader(table.Row{"Code", "Mnemonic", "Argument", "Pops", "Pushes"})
	for _, op := range AllOpcodes() {
		info := op.Info()
		arg := ""
		if info.HasArg {
			arg = "yes"
		}
		t.AppendRow(table.Row{int(op), info.Name, arg, info.StackPop, info.StackPush})
	}
	return t.Render()
}

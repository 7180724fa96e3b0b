package vm

import (
	"maps"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// DumpState renders registers, operand stack, locals and saved frames as
// tables.
func (i *Interpreter) DumpState() string {
	var sb strings.Builder

	regs := table.NewWriter()
	regs.SetTitle("Registers")
	regs.AppendHeader(table.Row{"State", "Method", "PC", "Next", "Steps", "Depth"})
	next := ""
	if in, ok := i.Current(); ok {
		next = in.String()
	}
	regs.AppendRow(table.Row{i.state, i.method, i.pc, next, i.steps, len(i.calls)})
	sb.WriteString(regs.Render())
	sb.WriteString("\n")

	sb.WriteString(i.DumpStack())
	sb.WriteString("\n")
	sb.WriteString(i.DumpLocals())
	sb.WriteString("\n")
	sb.WriteString(i.DumpFrames())
	sb.WriteString("\n")
	return sb.String()
}

// DumpStack renders the operand stack, top first.
func (i *Interpreter) DumpStack() string {
	t := table.NewWriter()
	t.SetTitle("Operand stack")
	t.AppendHeader(table.Row{"Depth", "Value", "Kind"})
	for d := len(i.stack) - 1; d >= 0; d-- {
		v := i.stack[d]
		t.AppendRow(table.Row{len(i.stack) - 1 - d, v.String(), kind(v)})
	}
	return t.Render()
}

// DumpLocals renders the current local frame sorted by name.
func (i *Interpreter) DumpLocals() string {
	t := table.NewWriter()
	t.SetTitle("Locals")
	t.AppendHeader(table.Row{"Name", "Value", "Kind"})
	for _, name := range slices.Sorted(maps.Keys(i.locals)) {
		v := i.locals[name]
		t.AppendRow(table.Row{name, v.String(), kind(v)})
	}
	return t.Render()
}

// DumpFrames renders the saved frames, innermost first.
func (i *Interpreter) DumpFrames() string {
	t := table.NewWriter()
	t.SetTitle("Call stack")
	t.AppendHeader(table.Row{"#", "Return to", "PC", "Saved locals"})
	for d := len(i.calls) - 1; d >= 0; d-- {
		f := i.calls[d]
		t.AppendRow(table.Row{d, f.Method, f.ReturnPC, len(f.Locals)})
	}
	return t.Render()
}

func kind(v StackValue) string {
	if v.IsBool {
		return "bool"
	}
	return "int"
}

package ir

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteDot(t *testing.T) {
	g := NewCFG()
	entry := g.NewEntryBlock("M", "f")
	cond := g.NewBlock("M", "f")
	exit := g.NewBlock("M", "f")

	entry.TrueExit = cond.ID
	cond.Emit(Instr{Result: "_t0", Arg1: "a", Op: OpLt, Arg2: "b"})
	cond.Emit(Instr{Op: OpIf, Arg1: "_t0"})
	cond.TrueExit = exit.ID
	cond.FalseExit = exit.ID
	exit.Emit(Instr{Op: OpReturn, Arg1: "a"})

	var buf bytes.Buffer
	if err := g.WriteDot(&buf); err != nil {
		t.Fatalf("WriteDot: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"digraph G {\ngraph [splines=ortho];\nnode [shape=box];\n",
		"0 [label=\"M.f\\n\n\"];\n",
		"1 [label=\"block_0\\n\n    _t0 := a < b\n    if _t0\n\"];\n",
		"0 -> 1 [xlabel=\"true\"];\n",
		"1 -> 2 [xlabel=\"true\"];\n1 -> 2 [xlabel=\"false\"];\n",
		"    return a\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dot output missing %q\n%s", want, out)
		}
	}
	if !strings.HasSuffix(out, "}\n") {
		t.Errorf("dot output not closed:\n%s", out)
	}
}

func TestInstrString(t *testing.T) {
	tests := []struct {
		in   Instr
		want string
	}{
		{Instr{Op: OpPrint, Arg1: "x"}, "print x"},
		{Instr{Op: OpParam, Arg1: "_t0"}, "param _t0"},
		{Instr{Result: "_t1", Arg1: "run", Op: OpCall, Arg2: "3"}, "_t1 := call run 3"},
		{Instr{Result: "_t0", Arg1: "Foo", Op: OpNew}, "_t0 := new Foo"},
		{Instr{Result: "x", Arg1: "y"}, "x := y"},
		{Instr{Result: "_t2", Arg1: "b", Op: OpNot}, "_t2 := !b"},
		{Instr{Result: "_t3", Arg1: "a", Op: OpAnd, Arg2: "b"}, "_t3 := a && b"},
	}
	for _, tc := range tests {
		if got := tc.in.String(); got != tc.want {
			t.Errorf("%#v.String() = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	g := NewCFG()
	b := g.NewEntryBlock("M", "f")
	b.Emit(Instr{Op: OpIf, Arg1: "c"})
	b.TrueExit = b.ID
	if err := g.Validate(); err == nil {
		t.Error("if with a single exit passed validation")
	}

	g = NewCFG()
	b = g.NewEntryBlock("M", "f")
	b.Emit(Instr{Op: OpReturn, Arg1: "x"})
	b.Emit(Instr{Op: OpPrint, Arg1: "x"})
	if err := g.Validate(); err == nil {
		t.Error("return before the last instruction passed validation")
	}

	g = NewCFG()
	b = g.NewEntryBlock("M", "f")
	b.TrueExit = 7
	if err := g.Validate(); err == nil {
		t.Error("dangling exit passed validation")
	}
}

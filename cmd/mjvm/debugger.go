package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/chazu/mjc/vm"
)

const (
	historyFile = ".mjvm_history"
	prompt      = "mjvm> "
)

// debugger drives an interpreter one command at a time.
type debugger struct {
	interp *vm.Interpreter
	out    io.Writer
	failed bool // a step returned a fatal error
}

func newDebugger(interp *vm.Interpreter, out io.Writer) *debugger {
	return &debugger{interp: interp, out: out}
}

// exec runs one command line and reports whether the session should end.
func (d *debugger) exec(line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "step", "s":
		n := 1
		if len(fields) > 1 {
			v, err := strconv.Atoi(fields[1])
			if err != nil || v < 1 {
				fmt.Fprintf(d.out, "step: bad count %q\n", fields[1])
				return false
			}
			n = v
		}
		for range n {
			if !d.step() {
				break
			}
		}
		d.where()

	case "continue", "c":
		for d.step() {
		}
		d.where()

	case "state":
		fmt.Fprint(d.out, d.interp.DumpState())
	case "stack":
		fmt.Fprintln(d.out, d.interp.DumpStack())
	case "locals":
		fmt.Fprintln(d.out, d.interp.DumpLocals())
	case "frames":
		fmt.Fprintln(d.out, d.interp.DumpFrames())
	case "where", "w":
		d.where()

	case "help", "h", "?":
		fmt.Fprintln(d.out, "Commands:")
		fmt.Fprintln(d.out, "  step [n]   execute n instructions (default 1)")
		fmt.Fprintln(d.out, "  continue   run until the program halts")
		fmt.Fprintln(d.out, "  state      registers, stack, locals and frames")
		fmt.Fprintln(d.out, "  stack      operand stack")
		fmt.Fprintln(d.out, "  locals     current local variables")
		fmt.Fprintln(d.out, "  frames     saved call frames")
		fmt.Fprintln(d.out, "  where      current method and instruction")
		fmt.Fprintln(d.out, "  quit       leave the debugger")

	case "quit", "q", "exit":
		return true

	default:
		fmt.Fprintf(d.out, "unknown command %q (try help)\n", fields[0])
	}
	return false
}

// step executes one instruction and reports whether execution can go on.
func (d *debugger) step() bool {
	if d.interp.State() != vm.Running {
		return false
	}
	if err := d.interp.Step(); err != nil {
		if !errors.Is(err, vm.ErrNotRunning) {
			d.failed = true
			fmt.Fprintf(d.out, "error: %v\n", err)
		}
		return false
	}
	return d.interp.State() == vm.Running
}

func (d *debugger) where() {
	if d.interp.State() != vm.Running {
		fmt.Fprintf(d.out, "%s after %d steps\n", d.interp.State(), d.interp.Steps())
		return
	}
	next := "<end of method>"
	if in, ok := d.interp.Current(); ok {
		next = in.String()
	}
	fmt.Fprintf(d.out, "%s[%d]  %s  (depth %d)\n", d.interp.Method(), d.interp.PC(), next, d.interp.CallDepth())
}

// runDebugger reads commands until quit or end of input.
func runDebugger(d *debugger) {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	// Load history (best-effort)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	d.where()
	for {
		line, err := ln.Prompt(prompt)
		if err != nil { // Ctrl+D, Ctrl+C or EOF
			fmt.Fprintln(d.out)
			break
		}
		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		if d.exec(line) {
			break
		}
	}

	// Persist history (best-effort)
	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
}

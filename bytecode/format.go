package bytecode

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Text format
//
//	Class.method:
//	0:  iload x
//	1:  ireturn
//
// One header per method, instructions indexed from 0, a blank line after
// each method.
// ---------------------------------------------------------------------------

// WriteTo writes the program in text form.
func (p *Program) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	write := func(s string) {
		m, _ := bw.WriteString(s)
		n += int64(m)
	}

	for _, m := range p.methods {
		write(m.Name + ":\n")
		for i, in := range m.Code {
			write(strconv.Itoa(i) + ":  " + in.String() + "\n")
		}
		write("\n")
	}
	return n, bw.Flush()
}

// String returns the text form of the program.
func (p *Program) String() string {
	var sb strings.Builder
	p.WriteTo(&sb)
	return sb.String()
}

// WriteFile writes the program's text form to path.
func (p *Program) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := p.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// isHeader reports whether line names a method: a single token ending in
// a colon that is not an instruction index.
func isHeader(line string) bool {
	if !strings.HasSuffix(line, ":") || strings.ContainsAny(line, " \t") {
		return false
	}
	name := strings.TrimSuffix(line, ":")
	if name == "" {
		return false
	}
	return !isDigits(name)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Parse reads a program in text form. Lines that cannot be decoded, such
// as unknown opcodes, are skipped and reported as warnings; only read
// failures and duplicate method names are errors.
func Parse(r io.Reader) (*Program, []string, error) {
	prog := NewProgram()
	var warnings []string
	var cur *Method

	warnf := func(line int, format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf("line %d: ", line)+fmt.Sprintf(format, args...))
	}

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		if isHeader(line) {
			cur = &Method{Name: strings.TrimSuffix(line, ":")}
			if err := prog.Add(cur); err != nil {
				return nil, warnings, fmt.Errorf("line %d: %w", lineNo, err)
			}
			continue
		}

		idx, rest, ok := strings.Cut(line, ":")
		if !ok {
			warnf(lineNo, "malformed instruction %q", line)
			continue
		}
		if !isDigits(strings.TrimSpace(idx)) {
			warnf(lineNo, "malformed instruction index %q", idx)
			continue
		}
		if cur == nil {
			warnf(lineNo, "instruction outside of any method")
			continue
		}

		fields := strings.Fields(rest)
		if len(fields) == 0 {
			warnf(lineNo, "missing opcode")
			continue
		}
		op, ok := LookupOpcode(fields[0])
		if !ok {
			warnf(lineNo, "unknown opcode %q", fields[0])
			continue
		}
		arg := strings.Join(fields[1:], " ")
		switch {
		case op.HasArg() && arg == "":
			warnf(lineNo, "%s requires an argument", op)
			continue
		case !op.HasArg() && arg != "":
			warnf(lineNo, "%s takes no argument, ignoring %q", op, arg)
			arg = ""
		}
		cur.Emit(op, arg)
	}
	if err := sc.Err(); err != nil {
		return nil, warnings, err
	}
	return prog, warnings, nil
}

// ParseFile parses the program stored at path.
func ParseFile(path string) (*Program, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return Parse(f)
}

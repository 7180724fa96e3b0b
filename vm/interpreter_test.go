package vm

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/chazu/mjc/bytecode"
	"github.com/chazu/mjc/compiler"
	"github.com/chazu/mjc/ir"
)

// asm builds a program from its text form. Instruction indexes are
// optional in tests: lines without one are numbered automatically.
func asm(t *testing.T, src string) *bytecode.Program {
	t.Helper()
	var sb strings.Builder
	n := 0
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.HasSuffix(line, ":") && !strings.Contains(line, " "):
			sb.WriteString(line + "\n")
			n = 0
		default:
			sb.WriteString(strconv.Itoa(n) + ":  " + line + "\n")
			n++
		}
	}
	p, warnings, err := bytecode.Parse(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(warnings) > 0 {
		t.Fatalf("Parse warnings: %v", warnings)
	}
	return p
}

func runProgram(t *testing.T, p *bytecode.Program, opts Options) (string, *Interpreter, error) {
	t.Helper()
	var out bytes.Buffer
	opts.Stdout = &out
	interp := New(p, opts)
	err := interp.Run("")
	return out.String(), interp, err
}

func compileSource(t *testing.T, src string) *bytecode.Program {
	t.Helper()
	prog, table, err := compiler.Check(src)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	g, err := ir.Build(prog)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	p, err := bytecode.Generate(g, table)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return p
}

func TestRunArithmetic(t *testing.T) {
	p := asm(t, `
Main.main:
iconst 3
istore _t0
iconst 4
istore _t1
iload _t0
iload _t1
iadd
istore _t2
iload _t2
print
stop
`)
	out, interp, err := runProgram(t, p, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "7\n" {
		t.Errorf("output = %q, want 7", out)
	}
	if interp.State() != Halted {
		t.Errorf("state = %v, want halted", interp.State())
	}
}

func TestRunOperators(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"iconst 7\niconst 2\nisub\nprint", "5"},
		{"iconst 7\niconst 2\nimul\nprint", "14"},
		{"iconst 7\niconst 2\nidiv\nprint", "3"},
		{"iconst 1\niconst 2\nilt\nprint", "true"},
		{"iconst 1\niconst 2\nigt\nprint", "false"},
		{"iconst 2\niconst 2\nieq\nprint", "true"},
		{"iconst 1\niconst 0\niand\nprint", "false"},
		{"iconst 1\niconst 0\nior\nprint", "true"},
		{"iload true\ninot\nprint", "false"},
		{"iload false\nprint", "false"},
	}
	for _, tc := range tests {
		p := asm(t, "Main.main:\n"+tc.code+"\nstop")
		out, _, err := runProgram(t, p, Options{})
		if err != nil {
			t.Errorf("%q: %v", tc.code, err)
			continue
		}
		if got := strings.TrimSpace(out); got != tc.want {
			t.Errorf("%q printed %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestRunDivisionByZero(t *testing.T) {
	p := asm(t, "Main.main:\niconst 5\niconst 0\nidiv\nprint\nstop")
	_, interp, err := runProgram(t, p, Options{})

	var rerr *RuntimeError
	if !errors.As(err, &rerr) {
		t.Fatalf("err = %v, want *RuntimeError", err)
	}
	if !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("err = %v, want division by zero", err)
	}
	if rerr.Method != "Main.main" || rerr.Addr != 2 || rerr.Op != bytecode.OpIDiv {
		t.Errorf("error location = %s[%d] %s", rerr.Method, rerr.Addr, rerr.Op)
	}
	if interp.State() != Halted {
		t.Error("interpreter kept running after a fatal error")
	}
	if err := interp.Step(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Step after halt = %v, want ErrNotRunning", err)
	}
}

func TestRunUndeclaredLoad(t *testing.T) {
	p := asm(t, "Main.main:\niload undeclaredVar\nprint\niconst 1\nprint\nstop")

	out, interp, err := runProgram(t, p, Options{})
	if err != nil {
		t.Fatalf("lenient Run: %v", err)
	}
	if out != "0\n1\n" {
		t.Errorf("output = %q, want 0 then 1", out)
	}
	if w := interp.Warnings(); len(w) != 1 || !strings.Contains(w[0], "undeclaredVar") {
		t.Errorf("warnings = %v", w)
	}

	out, _, err = runProgram(t, p, Options{StrictLoads: true})
	if !errors.Is(err, ErrUndeclared) {
		t.Errorf("strict Run err = %v, want ErrUndeclared", err)
	}
	if out != "" {
		t.Errorf("strict run printed %q", out)
	}
}

func TestRunFatalErrors(t *testing.T) {
	tests := []struct {
		desc string
		src  string
		want error
	}{
		{"store underflow", "Main.main:\nistore x\nstop", ErrStackUnderflow},
		{"operator underflow", "Main.main:\niconst 1\niadd\nstop", ErrStackUnderflow},
		{"print underflow", "Main.main:\nprint\nstop", ErrStackUnderflow},
		{"branch underflow", "Main.main:\niffalsegoto Main.main", ErrStackUnderflow},
		{"unresolved goto", "Main.main:\ngoto block_9", ErrUnresolvedTarget},
		{"unresolved call", "Main.main:\ninvokevirtual A.missing\nstop", ErrUnresolvedTarget},
		{"falls off the end", "Main.main:\niconst 1\nistore x", ErrPCOutOfRange},
		{"bad constant", "Main.main:\niconst x\nstop", ErrBadOperand},
		{"no entry", "A.f:\nstop", ErrNoEntry},
	}
	for _, tc := range tests {
		_, _, err := runProgram(t, asm(t, tc.src), Options{})
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.desc, err, tc.want)
		}
	}
}

func TestRunCallStackDiscipline(t *testing.T) {
	p := asm(t, `
Main.main:
iconst 9
iconst 1
istore x
invokevirtual A.f
stop

A.f:
iconst 2
istore x
invokevirtual A.g
ireturn

A.g:
iconst 3
istore x
iconst 5
ireturn
`)
	interp := New(p, Options{Stdout: &bytes.Buffer{}})
	if err := interp.Start(""); err != nil {
		t.Fatal(err)
	}

	maxDepth := 0
	for interp.State() == Running {
		if in, _ := interp.Current(); in.Op == bytecode.OpStop {
			break
		}
		if err := interp.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
		maxDepth = max(maxDepth, interp.CallDepth())
	}

	if maxDepth != 2 {
		t.Errorf("max call depth = %d, want 2", maxDepth)
	}
	if interp.CallDepth() != 0 {
		t.Errorf("call depth after return = %d, want 0", interp.CallDepth())
	}
	stack := interp.Stack()
	if len(stack) != 2 || stack[0] != Int(9) || stack[1] != Int(5) {
		t.Errorf("stack = %v, want [9 5]", stack)
	}
	if x := interp.Locals()["x"]; x != Int(1) {
		t.Errorf("caller's x = %v after return, want 1", x)
	}
}

func TestRunReturnFromEntryHalts(t *testing.T) {
	p := asm(t, "Main.main:\niconst 42\nireturn\niconst 1\nprint\nstop")
	out, interp, err := runProgram(t, p, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "" {
		t.Errorf("instructions after the final ireturn ran: %q", out)
	}
	if v, ok := interp.Result(); !ok || v != Int(42) {
		t.Errorf("Result = %v, %v; want 42", v, ok)
	}
}

func TestRunCallDepthLimit(t *testing.T) {
	p := asm(t, "Main.main:\ninvokevirtual A.f\nstop\n\nA.f:\ninvokevirtual A.f\nireturn")
	_, interp, err := runProgram(t, p, Options{MaxCallDepth: 5})
	if !errors.Is(err, ErrCallDepth) {
		t.Fatalf("err = %v, want ErrCallDepth", err)
	}
	if interp.CallDepth() != 5 {
		t.Errorf("call depth at failure = %d, want 5", interp.CallDepth())
	}
}

func TestEntrySelection(t *testing.T) {
	p := asm(t, `
block_0:
stop
First.main:
iconst 1
print
stop
Second.main:
iconst 2
print
stop
`)
	tests := []struct {
		class string
		want  string
		err   error
	}{
		{"", "First.main", nil},
		{"Second", "Second.main", nil},
		{"Third", "", ErrNoEntry},
	}
	for _, tc := range tests {
		got, err := Entry(p, tc.class)
		if !errors.Is(err, tc.err) || got != tc.want {
			t.Errorf("Entry(%q) = %q, %v; want %q, %v", tc.class, got, err, tc.want, tc.err)
		}
	}

	var out bytes.Buffer
	if err := New(p, Options{Stdout: &out}).Run("Second"); err != nil {
		t.Fatal(err)
	}
	if out.String() != "2\n" {
		t.Errorf("Run(Second) printed %q", out.String())
	}
}

func TestRunConditionalSkip(t *testing.T) {
	p := compileSource(t, `
class Main {
    public static void main(String[] a) {
        if (3 < 2) {
            System.out.println(100);
            System.out.println(200);
        } else
            System.out.println(1);
        System.out.println(2);
    }
}`)
	out, _, err := runProgram(t, p, Options{StrictLoads: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "1\n2\n" {
		t.Errorf("output = %q, want 1 then 2", out)
	}
}

func TestRunPrograms(t *testing.T) {
	tests := []struct {
		desc string
		src  string
		want string
	}{
		{"factorial", `
class Factorial {
    public static void main(String[] a) {
        System.out.println(new Fac().ComputeFac(10));
    }
}
class Fac {
    public int ComputeFac(int num) {
        int num_aux;
        if (num < 1)
            num_aux = 1;
        else
            num_aux = num * (this.ComputeFac(num - 1));
        return num_aux;
    }
}`, "3628800\n"},
		{"loop and booleans", `
class Main {
    public static void main(String[] a) {
        System.out.println(new Counter().run(5));
    }
}
class Counter {
    public int run(int n) {
        int i;
        int sum;
        boolean done;
        i = 0;
        sum = 0;
        done = false;
        while (!done) {
            sum = sum + i;
            i = i + 1;
            done = n < i || n == 100;
        }
        System.out.println(done);
        return sum;
    }
}`, "true\n15\n"},
		{"inheritance and object arguments", `
class Main {
    public static void main(String[] a) {
        System.out.println(new Square().area(new Square(), 4));
    }
}
class Shape {
    public int side(int s) { return s; }
}
class Square extends Shape {
    public int area(Shape other, int s) {
        int x;
        x = other.side(s);
        return x * this.side(s) / 2;
    }
}`, "8\n"},
	}
	for _, tc := range tests {
		out, interp, err := runProgram(t, compileSource(t, tc.src), Options{StrictLoads: true})
		if err != nil {
			t.Errorf("%s: %v", tc.desc, err)
			continue
		}
		if out != tc.want {
			t.Errorf("%s: output = %q, want %q", tc.desc, out, tc.want)
		}
		if interp.CallDepth() != 0 {
			t.Errorf("%s: %d frames left", tc.desc, interp.CallDepth())
		}
	}
}

func TestDumpState(t *testing.T) {
	p := asm(t, "Main.main:\niconst 3\nistore x\niload x\niload true\nstop")
	interp := New(p, Options{})
	if err := interp.Start(""); err != nil {
		t.Fatal(err)
	}
	for k := 0; k < 4; k++ {
		if err := interp.Step(); err != nil {
			t.Fatal(err)
		}
	}
	dump := interp.DumpState()
	for _, want := range []string{"Registers", "Main.main", "Operand stack", "Locals", "Call stack", "bool", "stop"} {
		if !strings.Contains(dump, want) {
			t.Errorf("dump missing %q:\n%s", want, dump)
		}
	}
}

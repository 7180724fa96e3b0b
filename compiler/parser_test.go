package compiler

import (
	"strconv"
	"strings"
	"testing"
)

const factorialSource = `
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
}
`

func TestParserProgram(t *testing.T) {
	p := NewParser(factorialSource)
	prog := p.ParseProgram()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	if prog.Main == nil || prog.Main.Name != "Factorial" {
		t.Fatalf("main class = %+v", prog.Main)
	}
	if prog.Main.ArgsName != "a" {
		t.Errorf("args name = %q, want a", prog.Main.ArgsName)
	}
	if len(prog.Main.Body) != 1 {
		t.Fatalf("main body has %d statements, want 1", len(prog.Main.Body))
	}
	ps, ok := prog.Main.Body[0].(*PrintStmt)
	if !ok {
		t.Fatalf("main statement is %T, want *PrintStmt", prog.Main.Body[0])
	}
	call, ok := ps.Value.(*CallExpr)
	if !ok || call.Method != "ComputeFac" || len(call.Args) != 1 {
		t.Fatalf("print value = %#v", ps.Value)
	}
	if recv, ok := call.Receiver.(*NewObject); !ok || recv.Class != "Fac" {
		t.Errorf("receiver = %#v, want new Fac()", call.Receiver)
	}

	if len(prog.Classes) != 1 {
		t.Fatalf("got %d classes, want 1", len(prog.Classes))
	}
	fac := prog.Classes[0]
	if fac.Name != "Fac" || len(fac.Methods) != 1 {
		t.Fatalf("class = %+v", fac)
	}
	m := fac.Methods[0]
	if m.Name != "ComputeFac" || TypeName(m.ReturnType) != "int" {
		t.Errorf("method = %s returning %s", m.Name, TypeName(m.ReturnType))
	}
	if len(m.Params) != 1 || m.Params[0].Name != "num" {
		t.Errorf("params = %+v", m.Params)
	}
	if len(m.Locals) != 1 || m.Locals[0].Name != "num_aux" {
		t.Errorf("locals = %+v", m.Locals)
	}
	ifs, ok := m.Body[0].(*IfStmt)
	if !ok || ifs.Else == nil {
		t.Fatalf("body[0] = %#v, want if/else", m.Body[0])
	}
	if id, ok := m.Return.(*Identifier); !ok || id.Name != "num_aux" {
		t.Errorf("return = %#v", m.Return)
	}
}

func TestParserPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"1 - 2 - 3", "((1 - 2) - 3)"},
		{"a < b && c", "((a < b) && c)"},
		{"a || b && c", "(a || (b && c))"},
		{"!a && b", "(!a && b)"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"x == y + 1", "(x == (y + 1))"},
		{"8 / 2 / 2", "((8 / 2) / 2)"},
		{"a.f(1, b).g()", "a.f(1, b).g()"},
	}

	for _, tc := range tests {
		p := NewParser(tc.input)
		expr := p.ParseExpression()
		if len(p.Errors()) > 0 {
			t.Errorf("%q: errors %v", tc.input, p.Errors())
			continue
		}
		if got := exprString(expr); got != tc.want {
			t.Errorf("%q: got %s, want %s", tc.input, got, tc.want)
		}
	}
}

func exprString(e Expr) string {
	switch ex := e.(type) {
	case *IntLiteral:
		return strconv.FormatInt(ex.Value, 10)
	case *BoolLiteral:
		if ex.Value {
			return "true"
		}
		return "false"
	case *Identifier:
		return ex.Name
	case *ThisExpr:
		return "this"
	case *NewObject:
		return "new " + ex.Class + "()"
	case *BinaryExpr:
		return "(" + exprString(ex.Left) + " " + string(ex.Op) + " " + exprString(ex.Right) + ")"
	case *UnaryExpr:
		return string(ex.Op) + exprString(ex.Operand)
	case *CallExpr:
		args := make([]string, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = exprString(a)
		}
		return exprString(ex.Receiver) + "." + ex.Method + "(" + strings.Join(args, ", ") + ")"
	}
	return "?"
}

func TestParserStatements(t *testing.T) {
	tests := []struct {
		input string
		check func(Stmt) bool
		desc  string
	}{
		{"x = 1;", func(s Stmt) bool { a, ok := s.(*AssignStmt); return ok && a.Name == "x" }, "assignment"},
		{"System.out.println(x);", func(s Stmt) bool { _, ok := s.(*PrintStmt); return ok }, "print"},
		{"while (x < 10) x = x + 1;", func(s Stmt) bool { _, ok := s.(*WhileStmt); return ok }, "while"},
		{"if (b) x = 1;", func(s Stmt) bool { i, ok := s.(*IfStmt); return ok && i.Else == nil }, "if"},
		{"if (b) x = 1; else x = 2;", func(s Stmt) bool { i, ok := s.(*IfStmt); return ok && i.Else != nil }, "if/else"},
		{"{ x = 1; y = 2; }", func(s Stmt) bool { b, ok := s.(*BlockStmt); return ok && len(b.Stmts) == 2 }, "block"},
	}

	for _, tc := range tests {
		p := NewParser(tc.input)
		stmt := p.ParseStatement()
		if len(p.Errors()) > 0 {
			t.Errorf("%s: errors %v", tc.desc, p.Errors())
			continue
		}
		if stmt == nil || !tc.check(stmt) {
			t.Errorf("%s: unexpected statement %#v", tc.desc, stmt)
		}
	}
}

func TestParserExtends(t *testing.T) {
	src := `
class Main { public static void main(String[] args) { System.out.println(1); } }
class A { int x; public int get() { return x; } }
class B extends A { public int get() { return 2; } }
`
	prog, errs := ParseProgram(src)
	if len(errs) > 0 {
		t.Fatalf("errors: %v", errs)
	}
	if len(prog.Classes) != 2 {
		t.Fatalf("got %d classes", len(prog.Classes))
	}
	if prog.Classes[1].Superclass != "A" {
		t.Errorf("B superclass = %q, want A", prog.Classes[1].Superclass)
	}
	if len(prog.Classes[0].Fields) != 1 {
		t.Errorf("A fields = %d, want 1", len(prog.Classes[0].Fields))
	}
}

func TestParserPublicMainClass(t *testing.T) {
	src := `public class Main { public static void main(String[] a) { System.out.println(true); } }`
	prog, errs := ParseProgram(src)
	if len(errs) > 0 {
		t.Fatalf("errors: %v", errs)
	}
	if prog.Main.Name != "Main" {
		t.Errorf("main class = %q", prog.Main.Name)
	}
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		desc  string
		input string
		want  string
	}{
		{"array type", `class M { public static void main(String[] a) { } } class A { int[] xs; }`, "array types"},
		{"array index", `class M { public static void main(String[] a) { System.out.println(x[1]); } }`, "array indexing"},
		{"array new", `class M { public static void main(String[] a) { x = new int[3]; } }`, "array allocation"},
		{"missing semicolon", `class M { public static void main(String[] a) { x = 1 } }`, "expected ;"},
		{"missing return", `class M { public static void main(String[] a) { } } class A { public int f() { } }`, "expected return"},
		{"illegal character", `class M { public static void main(String[] a) { x = 1 # 2; } }`, "illegal character"},
	}

	for _, tc := range tests {
		_, errs := ParseProgram(tc.input)
		found := false
		for _, e := range errs {
			if strings.Contains(e, tc.want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("%s: expected error containing %q, got %v", tc.desc, tc.want, errs)
		}
	}
}

func TestParserErrorLineNumbers(t *testing.T) {
	src := "class M {\n public static void main(String[] a) {\n x = ;\n }\n}"
	_, errs := ParseProgram(src)
	if len(errs) == 0 {
		t.Fatal("expected an error")
	}
	if !strings.HasPrefix(errs[0], "line 3:") {
		t.Errorf("error = %q, want line 3", errs[0])
	}
}

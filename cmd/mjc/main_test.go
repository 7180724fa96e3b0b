package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/mjc/bytecode"
	"github.com/chazu/mjc/manifest"
	"github.com/chazu/mjc/vm"
)

const sumSource = `
class Sum {
    public static void main(String[] a) {
        System.out.println(new Adder().Add(3, 4));
    }
}

class Adder {
    public int Add(int x, int y) {
        return x + y;
    }
}
`

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunWritesBytecode(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "Sum.java", sumSource)
	out := filepath.Join(dir, "sum.bc")
	dot := filepath.Join(dir, "cfg.dot")
	img := filepath.Join(dir, "sum.mjb")

	code := run(options{output: out, cfg: dot, image: img}, []string{src})
	if code != exitOK {
		t.Fatalf("run = %d, want %d", code, exitOK)
	}

	prog, warnings, err := bytecode.ParseFile(out)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings: %v", warnings)
	}
	for _, name := range []string{"Sum.main", "Adder.Add"} {
		if _, ok := prog.Method(name); !ok {
			t.Errorf("missing method %s in %v", name, prog.Names())
		}
	}

	data, err := os.ReadFile(dot)
	if err != nil {
		t.Fatalf("cfg dump: %v", err)
	}
	if !strings.HasPrefix(string(data), "digraph G {") {
		t.Errorf("cfg dump does not start with digraph: %q", data)
	}

	data, err = os.ReadFile(img)
	if err != nil {
		t.Fatalf("image: %v", err)
	}
	fromImage, err := bytecode.UnmarshalProgram(data)
	if err != nil {
		t.Fatalf("UnmarshalProgram: %v", err)
	}
	if fromImage.String() != prog.String() {
		t.Errorf("image differs from text output:\n%s\nvs\n%s", fromImage, prog)
	}
}

func TestRunJoinsSources(t *testing.T) {
	dir := t.TempDir()
	main := writeSource(t, dir, "Sum.java", sumSource[:strings.Index(sumSource, "class Adder")])
	adder := writeSource(t, dir, "Adder.java", sumSource[strings.Index(sumSource, "class Adder"):])
	out := filepath.Join(dir, "output.bc")

	if code := run(options{output: out}, []string{main, adder}); code != exitOK {
		t.Fatalf("run = %d, want %d", code, exitOK)
	}
}

func TestRunExitCodes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{"syntax", "class A { public static void main(String[] a) { System.out.println(1) } }", exitSyntax},
		{"lexical", "class A { public static void main(String[] a) { System.out.println(1 # 2); } }", exitIO},
		{"semantic", "class A { public static void main(String[] a) { System.out.println(x); } }", exitSemantic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := writeSource(t, dir, "A.java", tt.src)
			out := filepath.Join(dir, "output.bc")
			if got := run(options{output: out}, []string{src}); got != tt.want {
				t.Errorf("run = %d, want %d", got, tt.want)
			}
			if _, err := os.Stat(out); err == nil {
				t.Errorf("output written for a rejected program")
			}
		})
	}

	dir := t.TempDir()
	if got := run(options{output: filepath.Join(dir, "o.bc")}, []string{filepath.Join(dir, "missing.java")}); got != exitIO {
		t.Errorf("missing source: run = %d, want %d", got, exitIO)
	}
}

func TestExamples(t *testing.T) {
	tests := []struct {
		dir  string
		want string
	}{
		{"factorial", "3628800\n"},
		{"shapes", "9\n12\ntrue\n"},
	}
	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			m, err := manifest.Load(filepath.Join("..", "..", "examples", tt.dir))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			paths, err := m.SourcePaths()
			if err != nil {
				t.Fatalf("SourcePaths: %v", err)
			}

			out := filepath.Join(t.TempDir(), "out.bc")
			if code := run(options{output: out}, paths); code != exitOK {
				t.Fatalf("run = %d, want %d", code, exitOK)
			}
			prog, _, err := bytecode.ParseFile(out)
			if err != nil {
				t.Fatalf("ParseFile: %v", err)
			}

			var stdout bytes.Buffer
			interp := vm.New(prog, vm.Options{
				Stdout:       &stdout,
				StrictLoads:  m.VM.StrictLoads,
				MaxCallDepth: m.VM.MaxCallDepth,
			})
			if err := interp.Run(m.VM.Entry); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if stdout.String() != tt.want {
				t.Errorf("output = %q, want %q", stdout.String(), tt.want)
			}
		})
	}
}

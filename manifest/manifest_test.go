package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `
[project]
name = "factorial"
version = "0.1.0"

[source]
files = ["Main.java"]
dirs = ["lib"]

[build]
output = "out/fac.bc"
cfg = "cfg.dot"

[vm]
entry = "Factorial"
strict-loads = true
max-call-depth = 500
trace = true
`)
	writeFile(t, filepath.Join(dir, "Main.java"), "")
	writeFile(t, filepath.Join(dir, "lib", "B.java"), "")
	writeFile(t, filepath.Join(dir, "lib", "A.java"), "")
	writeFile(t, filepath.Join(dir, "lib", "notes.txt"), "")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != "factorial" || m.Project.Version != "0.1.0" {
		t.Errorf("project = %+v", m.Project)
	}
	if m.VM.Entry != "Factorial" || !m.VM.StrictLoads || m.VM.MaxCallDepth != 500 || !m.VM.Trace {
		t.Errorf("vm = %+v", m.VM)
	}

	paths, err := m.SourcePaths()
	if err != nil {
		t.Fatalf("SourcePaths: %v", err)
	}
	want := []string{
		filepath.Join(m.Dir, "Main.java"),
		filepath.Join(m.Dir, "lib", "A.java"),
		filepath.Join(m.Dir, "lib", "B.java"),
	}
	if len(paths) != len(want) {
		t.Fatalf("SourcePaths = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("SourcePaths[%d] = %s, want %s", i, paths[i], want[i])
		}
	}

	if got := m.OutputPath(); got != filepath.Join(m.Dir, "out", "fac.bc") {
		t.Errorf("OutputPath = %s", got)
	}
	if got := m.CFGPath(); got != filepath.Join(m.Dir, "cfg.dot") {
		t.Errorf("CFGPath = %s", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), "[project]\nname = \"bare\"\n")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(m.Source.Dirs) != 1 || m.Source.Dirs[0] != "src" {
		t.Errorf("default source dirs = %v, want [src]", m.Source.Dirs)
	}
	if m.Build.Output != DefaultOutput {
		t.Errorf("default output = %q, want %q", m.Build.Output, DefaultOutput)
	}
	if m.CFGPath() != "" {
		t.Errorf("CFGPath = %q, want disabled", m.CFGPath())
	}
	if m.VM.StrictLoads || m.VM.MaxCallDepth != 0 {
		t.Errorf("vm defaults = %+v", m.VM)
	}
	paths, err := m.SourcePaths()
	if err != nil || len(paths) != 0 {
		t.Errorf("SourcePaths with missing src = %v, %v", paths, err)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load without mjc.toml succeeded")
	}

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), "[project\nname = ")
	if _, err := Load(dir); err == nil {
		t.Error("Load accepted malformed TOML")
	}

	dir = t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), "[vm]\nmax-call-depth = -1\n")
	if _, err := Load(dir); err == nil {
		t.Error("Load accepted a negative call depth")
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "[project]\nname = \"walk\"\n")
	deep := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(deep, 0755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(deep)
	if err != nil {
		t.Fatalf("FindAndLoad: %v", err)
	}
	if m == nil || m.Project.Name != "walk" {
		t.Fatalf("FindAndLoad = %+v, want project walk", m)
	}

	resolved, _ := filepath.EvalSymlinks(root)
	got, _ := filepath.EvalSymlinks(m.Dir)
	if got != resolved {
		t.Errorf("Dir = %s, want %s", m.Dir, root)
	}
}

package bytecode

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/mjc/compiler"
)

func TestArgumentLoadOrder(t *testing.T) {
	tests := []struct {
		params []string
		want   []string
	}{
		{[]string{"recv"}, nil},
		{[]string{"recv", "a"}, []string{"a"}},
		{[]string{"recv", "a", "b", "c"}, []string{"c", "b", "a"}},
	}
	for _, tc := range tests {
		if diff := cmp.Diff(tc.want, ArgumentLoadOrder(tc.params)); diff != "" {
			t.Errorf("ArgumentLoadOrder(%v) mismatch (-want +got):\n%s", tc.params, diff)
		}
	}

	// The callee's prologue must pop what the caller pushed last first.
	prologue := Prologue([]string{"a", "b", "c"})
	pushed := ArgumentLoadOrder([]string{"recv", "a", "b", "c"})
	for i, st := range prologue {
		if top := pushed[len(pushed)-1-i]; st.Arg != top {
			t.Errorf("prologue[%d] stores %s, but %s is on top", i, st.Arg, top)
		}
	}
}

func TestTargets(t *testing.T) {
	if got := QualifiedTarget("Foo", "bar"); got != "Foo.bar" {
		t.Errorf("QualifiedTarget = %q", got)
	}
	if c, m, ok := SplitTarget("Foo.bar"); !ok || c != "Foo" || m != "bar" {
		t.Errorf("SplitTarget(Foo.bar) = %q, %q, %v", c, m, ok)
	}
	for _, s := range []string{"block_3", ".bar", "Foo."} {
		if _, _, ok := SplitTarget(s); ok {
			t.Errorf("SplitTarget(%q) ok", s)
		}
	}
	if !IsEntryName(EntryName("Main")) || IsEntryName("Main.run") || IsEntryName("block_0") {
		t.Error("IsEntryName mismatch")
	}
}

func TestTypeTracker(t *testing.T) {
	prog, table, err := compiler.Check(`
class Main { public static void main(String[] a) { System.out.println(0); } }
class Node {
    Node next;
    public Node link(Node n, int k) { Node tmp; tmp = n; return tmp; }
}`)
	if err != nil || prog == nil {
		t.Fatalf("Check: %v", err)
	}

	tr := NewTypeTracker(table)
	tr.Seed("Node", "link")
	for _, name := range []string{"next", "n", "tmp"} {
		if cls, ok := tr.Tag(name); !ok || cls != "Node" {
			t.Errorf("seeded tag of %s = %q, %v; want Node", name, cls, ok)
		}
	}
	if _, ok := tr.Tag("k"); ok {
		t.Error("int parameter was tagged")
	}

	tr.TrackAssignment("_t0", "Node")
	tr.TrackNewObject("_t1", "Main")
	tr.TrackAssignment("_t2", "_t1")
	tr.TrackAssignment("_t3", "k")
	tr.TrackCall("_t4", "Node", "link")

	tests := map[string]string{
		"_t0": "Node",
		"_t1": "Main",
		"_t2": "Main",
		"_t3": "_t3",
		"_t4": "Node",
		"zz":  "zz",
	}
	for ref, want := range tests {
		if got := tr.ResolveClassName(ref); got != want {
			t.Errorf("ResolveClassName(%s) = %s, want %s", ref, got, want)
		}
	}

	tr.Reset()
	if _, ok := tr.Tag("next"); ok {
		t.Error("Reset kept tags")
	}
}

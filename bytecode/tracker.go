package bytecode

import (
	"github.com/chazu/mjc/compiler"
)

// TypeTracker tags names in one block with the class they refer to, so
// calls on them can be resolved to Class.method targets.
//
// Tags come from two sources: the declared types of the variables in
// scope, seeded when the block starts, and the copies, new expressions and
// call results inside the block. Nothing carries across blocks.
type TypeTracker struct {
	table *compiler.SymbolTable
	tags  map[string]string
}

// NewTypeTracker creates an empty tracker over table.
func NewTypeTracker(table *compiler.SymbolTable) *TypeTracker {
	return &TypeTracker{
		table: table,
		tags:  make(map[string]string),
	}
}

// Reset drops every tag.
func (t *TypeTracker) Reset() {
	clear(t.tags)
}

// Seed tags every object-typed field, parameter and local visible in
// class.method with its declared class.
func (t *TypeTracker) Seed(class, method string) {
	if t.table == nil {
		return
	}
	var names []string
	seen := map[string]bool{}
	for c, ok := t.table.Class(class); ok && !seen[c.Name]; c, ok = t.table.Class(c.Superclass) {
		seen[c.Name] = true
		for _, f := range c.Fields {
			names = append(names, f.Name)
		}
	}
	if m, ok := t.table.LookupMethod(class, method); ok {
		for _, v := range m.Params {
			names = append(names, v.Name)
		}
		for _, v := range m.Locals {
			names = append(names, v.Name)
		}
	}

	for _, name := range names {
		typ, ok := t.table.VariableType(class, method, name)
		if !ok {
			continue
		}
		if cls := compiler.ClassName(typ); cls != "" {
			t.tags[name] = cls
		}
	}
}

func (t *TypeTracker) isClass(name string) bool {
	return t.table != nil && t.table.HasClass(name)
}

// TrackAssignment records dst := src. dst inherits src's class when src is
// a class name or already tagged; otherwise dst keeps whatever it had.
func (t *TypeTracker) TrackAssignment(dst, src string) {
	if t.isClass(src) {
		t.tags[dst] = src
		return
	}
	if cls, ok := t.tags[src]; ok {
		t.tags[dst] = cls
	}
}

// TrackNewObject records dst := new class.
func (t *TypeTracker) TrackNewObject(dst, class string) {
	t.tags[dst] = class
}

// TrackCall tags dst with the declared return class of class.method.
func (t *TypeTracker) TrackCall(dst, class, method string) {
	if t.table == nil || dst == "" {
		return
	}
	rt, ok := t.table.MethodReturnType(class, method)
	if !ok {
		return
	}
	if cls := compiler.ClassName(rt); cls != "" {
		t.tags[dst] = cls
	}
}

// Tag returns the class recorded for ref.
func (t *TypeTracker) Tag(ref string) (string, bool) {
	cls, ok := t.tags[ref]
	return cls, ok
}

// ResolveClassName returns ref's class, or ref itself when nothing is
// known. It never fails.
func (t *TypeTracker) ResolveClassName(ref string) string {
	if cls, ok := t.tags[ref]; ok {
		return cls
	}
	return ref
}

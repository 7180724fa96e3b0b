package bytecode

import "strings"

// Calling convention shared by the generator and the interpreter.
//
// A call site holds its parameters in source order, receiver first. The
// receiver is never pushed; it only selects the target class. The caller
// pushes the remaining arguments last to first and executes
//
//	invokevirtual Class.method
//
// so the first declared parameter is on top of the operand stack when the
// callee starts. The callee's entry code pops them with one istore per
// parameter in declaration order. The callee leaves its result on the
// stack with ireturn.
const ReceiverIndex = 0

// EntryMethod is the method name the interpreter starts from.
const EntryMethod = "main"

// QualifiedTarget joins class and method into an invokevirtual target.
func QualifiedTarget(class, method string) string {
	return class + "." + method
}

// SplitTarget splits a Class.method target. Auxiliary block names have no
// dot and report ok false.
func SplitTarget(target string) (class, method string, ok bool) {
	class, method, ok = strings.Cut(target, ".")
	if !ok || class == "" || method == "" {
		return "", "", false
	}
	return class, method, true
}

// EntryName returns the entry method name for class.
func EntryName(class string) string {
	return QualifiedTarget(class, EntryMethod)
}

// IsEntryName reports whether name is some class's main method.
func IsEntryName(name string) bool {
	_, method, ok := SplitTarget(name)
	return ok && method == EntryMethod
}

// ArgumentLoadOrder returns the values a caller loads for a call site, in
// push order. params holds the receiver followed by the arguments.
func ArgumentLoadOrder(params []string) []string {
	if len(params) <= ReceiverIndex+1 {
		return nil
	}
	args := params[ReceiverIndex+1:]
	out := make([]string, len(args))
	for i, a := range args {
		out[len(args)-1-i] = a
	}
	return out
}

// Prologue returns the entry code binding a method's parameters.
func Prologue(params []string) []Instruction {
	code := make([]Instruction, len(params))
	for i, p := range params {
		code[i] = Instruction{Op: OpIStore, Arg: p}
	}
	return code
}

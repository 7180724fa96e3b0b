// Package vm executes stack-machine bytecode.
package vm

import "strconv"

// StackValue is a machine integer tagged with how it prints. Comparison
// and logic results are booleans; everything else is an integer.
type StackValue struct {
	Value  int
	IsBool bool
}

// Int returns an integer value.
func Int(v int) StackValue {
	return StackValue{Value: v}
}

// Bool returns a boolean value stored as 1 or 0.
func Bool(b bool) StackValue {
	if b {
		return StackValue{Value: 1, IsBool: true}
	}
	return StackValue{Value: 0, IsBool: true}
}

// Truthy reports whether the value is non-zero.
func (v StackValue) Truthy() bool {
	return v.Value != 0
}

// String renders the value the way print shows it.
func (v StackValue) String() string {
	if v.IsBool {
		if v.Value == 1 {
			return "true"
		}
		return "false"
	}
	return strconv.Itoa(v.Value)
}

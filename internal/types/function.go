package types

import "strings"

// Function is a resolved function signature. Return may be the
// AutoReturn sentinel until the body's first `return expr` defines it
// (spec.md §3, §4.2 "Auto-return").
type Function struct {
	Params      []Type
	HasVarArgs  bool
	Return      Type
	Constraints []string // names of interfaces this instantiation must satisfy
}

func (f *Function) Kind() Kind { return KindFunction }

func (f *Function) String() string {
	var b strings.Builder
	b.WriteString("(")
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	if f.HasVarArgs {
		b.WriteString(", ..")
	}
	b.WriteString(") -> ")
	if f.Return == nil {
		b.WriteString("?")
	} else {
		b.WriteString(f.Return.String())
	}
	return b.String()
}

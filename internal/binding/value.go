package binding

import "reflect"

// Value is whatever a binding currently holds. The module/binding
// subsystem is deliberately agnostic to what values look like (spec
// section 1 treats the method table / value kinds as an opaque,
// externally-supplied capability) — this package only ever compares,
// stores and type-checks them.
type Value = any

// Kind classifies a value for the handful of places the spec cares about
// *what kind* of thing a value is: §4.4's "either side is a type or
// module" check, and §4.5's dep-message synthesis ("type, module, or
// generic function"). Concrete runtimes would hang this capability off
// their real value representation; Kinded is the seam for that.
type Kind int

const (
	KindOther Kind = iota
	KindType
	KindModule
	KindFunction
)

// Kinded is implemented by values that know their own Kind. Values that
// don't implement it are treated as KindOther.
type Kinded interface {
	ValueKind() Kind
}

func kindOf(v Value) Kind {
	if k, ok := v.(Kinded); ok {
		return k.ValueKind()
	}

	return KindOther
}

// IsTypeOrModule reports whether v is a type value or a module value, the
// condition spec section 4.4 and 4.5 check before allowing a constant
// redefinition or before synthesizing a generic deprecation message.
func IsTypeOrModule(v Value) bool {
	k := kindOf(v)

	return k == KindType || k == KindModule
}

// Type constrains the values a binding may hold (spec section 3.2). The
// universal type accepts everything and is what an unset binding.type is
// treated as.
type Type interface {
	String() string
	Accepts(Value) bool
}

type anyType struct{}

func (anyType) String() string     { return "Any" }
func (anyType) Accepts(Value) bool { return true }

// AnyType is the universal type: "no constraint yet".
var AnyType Type = anyType{}

// GoType constrains a binding to values assignable to a concrete Go type,
// the simplest possible stand-in for a real runtime's type lattice.
type GoType struct {
	RT reflect.Type
}

func (t GoType) String() string {
	if t.RT == nil {
		return "Any"
	}

	return t.RT.String()
}

// Accepts reports whether v's runtime type is assignable to t.
func (t GoType) Accepts(v Value) bool {
	if t.RT == nil {
		return true
	}

	if v == nil {
		return false
	}

	return reflect.TypeOf(v).AssignableTo(t.RT)
}

// TypeOf returns the GoType constraint matching v's runtime type. Useful
// for tests and for a caller that wants to declare a typed global from a
// sample value.
func TypeOf(v Value) Type {
	if v == nil {
		return AnyType
	}

	return GoType{RT: reflect.TypeOf(v)}
}

// valuesEqual implements the "structurally equal" / jl_egal comparison
// spec section 4.4 needs when deciding whether a constant redefinition
// with the same value is a silent no-op.
func valuesEqual(a, b Value) (eq bool) {
	if a == nil || b == nil {
		return a == b
	}

	defer func() {
		if recover() != nil {
			eq = false
		}
	}()

	return reflect.DeepEqual(a, b)
}

// sameGoType reports whether a and b have the same concrete runtime type,
// the jl_typeof(a) != jl_typeof(b) check in checked_assignment.
func sameGoType(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return reflect.TypeOf(a) == reflect.TypeOf(b)
}

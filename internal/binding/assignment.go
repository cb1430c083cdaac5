package binding

import (
	"github.com/vanta-lang/vanta/internal/diagnostic"
	"github.com/vanta-lang/vanta/internal/errors"
	"github.com/vanta-lang/vanta/internal/position"
	"github.com/vanta-lang/vanta/internal/symbol"
)

// CheckedAssignment implements checked_assignment(b, mod, var, rhs) (spec
// section 4.4). It is the single entry point for writing to an
// already-obtained binding, whether mutable or constant.
func CheckedAssignment(sink diagnostic.Sink, b *Binding, mod *Module, name *symbol.Symbol, rhs Value) error {
	t := b.casInitType(AnyType)
	if t != AnyType {
		if !t.Accepts(rhs) {
			return errors.IncompatibleTypedAssignment(mod.Name(), name.Name())
		}
	}

	if b.IsConstant() {
		if b.casValue(nil, rhs) {
			return nil
		}

		old, ok := b.Value()
		if ok && valuesEqual(old, rhs) {
			return nil
		}

		if !ok || !sameGoType(old, rhs) || IsTypeOrModule(rhs) || IsTypeOrModule(old) {
			return errors.InvalidConstantRedefinition(mod.Name(), name.Name())
		}

		warn(sink, b, diagnostic.DiagnosticSemantic, "const-redefinition",
			"redefinition of constant",
			"WARNING: redefinition of constant %s.%s. This may fail, cause incorrect answers, or produce other errors.\n",
			mod.Name(), name.Name())
		b.storeValue(rhs)

		return nil
	}

	b.storeValue(rhs)

	return nil
}

// Assign looks up (or claims/creates) the binding for name in m and
// applies CheckedAssignment, the composition external callers most
// commonly want for a plain `m.var = rhs` statement. An optional trailing
// position.Span records where the assignment declares name, for callers
// that track source positions.
func Assign(sink diagnostic.Sink, m *Module, name *symbol.Symbol, rhs Value, span ...position.Span) error {
	b, err := m.GetBindingWR(name, true, span...)
	if err != nil {
		return err
	}

	return CheckedAssignment(sink, b, m, name, rhs)
}

// SetConst implements set_const(m, var, val) (spec section 4.4): declare
// and initialize a constant in one step, failing if one already exists.
// An optional trailing position.Span records the constant's declaration
// site, same as Assign.
func SetConst(m *Module, name *symbol.Symbol, val Value, span ...position.Span) error {
	b, err := m.GetBindingWR(name, true, span...)
	if err != nil {
		return err
	}

	if _, ok := b.Value(); !ok {
		b.casInitType(AnyType)
		b.constp.Store(true)

		if b.casValue(nil, val) {
			return nil
		}
	}

	return errors.InvalidConstantRedefinition(m.Name(), name.Name())
}

// DeclareConstant implements declare_constant(b, mod, var) (spec section
// 4.4): marks an existing self-owned binding as constant, failing if it
// is not self-owned or already holds a non-constant value.
func DeclareConstant(b *Binding, mod *Module, name *symbol.Symbol) error {
	if !b.isSelfOwned() {
		return errors.InvalidConstantRedefinition(mod.Name(), name.Name())
	}

	if _, ok := b.Value(); ok && !b.IsConstant() {
		return errors.InvalidConstantRedefinition(mod.Name(), name.Name())
	}

	b.constp.Store(true)

	return nil
}

package binding

import (
	"github.com/vanta-lang/vanta/internal/diagnostic"
	"github.com/vanta-lang/vanta/internal/errors"
	"github.com/vanta-lang/vanta/internal/symbol"
)

// DepWarn selects how deprecated-binding use is reported (spec section
// 6.3): off prints nothing, warn prints a WARNING: line, error prints
// then raises DeprecatedUse.
type DepWarn int

const (
	DepWarnOff DepWarn = iota
	DepWarnWarn
	DepWarnError
)

// DeprecateBinding sets flag on the resolved owner of (m, name) (spec
// section 4.5). A name with no resolvable owner is left untouched.
func DeprecateBinding(sink diagnostic.Sink, m *Module, name *symbol.Symbol, flag DeprecationState) {
	b := ResolveOwner(sink, m, name)
	if b == nil {
		return
	}

	b.deprecated.Store(int32(flag))
}

// depMessage implements binding_dep_message (spec section 4.5): prefers a
// companion `_dep_message_<name>` string binding in the same module;
// otherwise synthesizes a generic message from the deprecated value's
// kind.
func depMessage(b *Binding, mod *Module, name *symbol.Symbol) string {
	companion := mod.GetModuleBinding(symbol.Intern("_dep_message_" + name.Name()))
	if companion != nil {
		if v, ok := companion.Value(); ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}

	kind := "binding"
	if v, ok := b.Value(); ok {
		switch kindOf(v) {
		case KindType:
			kind = "type"
		case KindModule:
			kind = "module"
		case KindFunction:
			kind = "generic function"
		}
	}

	return ", use the replacement " + kind + " instead."
}

// bindingDeprecationWarning implements binding_deprecation_warning (spec
// section 4.5): emitted only for Renamed, never for Moved (whose value is
// itself an error-throwing stub).
func bindingDeprecationWarning(sink diagnostic.Sink, depwarn DepWarn, m *Module, name *symbol.Symbol, b *Binding) error {
	if depwarn == DepWarnOff {
		return nil
	}

	warn(sink, b, diagnostic.DiagnosticDeprecation, "deprecated-use", "use of deprecated binding",
		"WARNING: %s.%s is deprecated%s\n", m.Name(), name.Name(), depMessage(b, m, name))

	if depwarn == DepWarnError {
		return errors.DeprecatedUse(m.Name(), name.Name())
	}

	return nil
}

// GetBindingOrError resolves (m, name), failing with UndefinedVar if it
// does not resolve, and surfacing a deprecation warning or error per
// depwarn when the resolved binding is Renamed (spec section 4.5).
func GetBindingOrError(sink diagnostic.Sink, depwarn DepWarn, m *Module, name *symbol.Symbol) (*Binding, error) {
	b := ResolveOwner(sink, m, name)
	if b == nil {
		return nil, errors.UndefinedVar(name.Name())
	}

	if b.Deprecated() == Renamed {
		if err := bindingDeprecationWarning(sink, depwarn, m, name, b); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// GetGlobal reads the current value at (m, name), applying the same
// resolution and deprecation handling as GetBindingOrError.
func GetGlobal(sink diagnostic.Sink, depwarn DepWarn, m *Module, name *symbol.Symbol) (Value, bool, error) {
	b, err := GetBindingOrError(sink, depwarn, m, name)
	if err != nil {
		return nil, false, err
	}

	v, ok := b.Value()

	return v, ok, nil
}

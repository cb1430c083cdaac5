package binding

import "github.com/vanta-lang/vanta/internal/symbol"

// GlobalRef is a stable handle naming "the binding that was looked up as
// module.name at the time the reference was created" (spec section 3.3).
// It intentionally keeps pointing at the original binding even if that
// name is later aliased elsewhere in Module — callers that want current
// resolution should re-resolve through the module, not through a held
// GlobalRef. This mirrors jl_globalref_t's documented staleness in the
// original implementation and is recorded as a deliberate decision rather
// than a bug: a GlobalRef is a reference to the *slot observed at lookup
// time*, not a live query.
type GlobalRef struct {
	mod  *Module
	name *symbol.Symbol
	bnd  *Binding
}

func newGlobalRef(m *Module, name *symbol.Symbol, b *Binding) *GlobalRef {
	return &GlobalRef{mod: m, name: name, bnd: b}
}

// Module returns the module this reference was created against. Per the
// staleness note above, this is NOT necessarily the module that
// currently owns the binding's value if aliasing has since occurred.
func (g *GlobalRef) Module() *Module { return g.mod }

// Name returns the symbol this reference was created against.
func (g *GlobalRef) Name() *symbol.Symbol { return g.name }

// Binding returns the binding this reference points at.
func (g *GlobalRef) Binding() *Binding { return g.bnd }

// String renders the reference as module.name for diagnostics.
func (g *GlobalRef) String() string {
	return g.mod.Name() + "." + g.name.Name()
}

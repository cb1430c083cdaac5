package binding

import (
	"github.com/vanta-lang/vanta/internal/diagnostic"
	"github.com/vanta-lang/vanta/internal/symbol"
)

// resolveKey identifies one (module, name) resolution frame for the
// cycle-guard stack in ResolveOwner (spec section 4.3).
type resolveKey struct {
	m    *Module
	name *symbol.Symbol
}

// ResolveOwner is the entry point for resolve_owner(m, var) with no
// pre-fetched binding and an empty cycle-guard stack.
func ResolveOwner(sink diagnostic.Sink, m *Module, name *symbol.Symbol) *Binding {
	return resolveOwner(sink, nil, m, name, nil)
}

// resolveOwner implements resolve_owner(b?, m, var, stack) (spec section
// 4.3). It always returns either nil or a binding B with B.Owner() == B.
func resolveOwner(sink diagnostic.Sink, b *Binding, m *Module, name *symbol.Symbol, stack []resolveKey) *Binding {
	if b == nil {
		b = m.GetModuleBinding(name)
	}

	if b != nil {
		if owner := b.Owner(); owner != nil {
			return owner
		}
	}

	key := resolveKey{m: m, name: name}
	for _, k := range stack {
		if k == key {
			return nil
		}
	}

	nextStack := make([]resolveKey, len(stack), len(stack)+1)
	copy(nextStack, stack)
	nextStack = append(nextStack, key)

	resolved, from := usingResolve(sink, m, name, nextStack)
	if resolved == nil {
		return nil
	}

	importBinding(sink, m, from, resolved, name, name, false)

	return resolved
}

// usingResolve implements using_resolve(m, var, stack) (spec section
// 4.3.1). It snapshots m.usings under lock, then releases m's lock before
// recursing into other modules (spec section 5's lock-order discipline),
// iterating most-recent-using-first.
func usingResolve(sink diagnostic.Sink, m *Module, name *symbol.Symbol, stack []resolveKey) (*Binding, *Module) {
	usings := m.ModuleUsings()

	var (
		best     *Binding
		bestFrom *Module
	)

	for i := len(usings) - 1; i >= 0; i-- {
		imp := usings[i]

		local := imp.GetModuleBinding(name)
		if local == nil || !local.IsExported() {
			continue
		}

		resolved := resolveOwner(sink, local, imp, name, stack)
		if resolved == nil {
			continue
		}

		if best == nil {
			best, bestFrom = resolved, imp
			continue
		}

		if eqBindings(best, resolved) {
			continue
		}

		bestDeprecated := best.Deprecated() != NotDeprecated
		resolvedDeprecated := resolved.Deprecated() != NotDeprecated

		switch {
		case bestDeprecated && !resolvedDeprecated:
			best, bestFrom = resolved, imp
		case !bestDeprecated && resolvedDeprecated:
			// keep best; deprecated candidate loses without warning.
		default:
			warn(sink, best, diagnostic.DiagnosticVisibility, "ambiguous-using", "ambiguous binding",
				"WARNING: both %s and %s export %q; uses of it in module %s must be qualified\n",
				bestFrom.Name(), imp.Name(), name.Name(), m.Name())
			m.installAmbiguityPlaceholder(name)

			return nil, nil
		}
	}

	return best, bestFrom
}

// installAmbiguityPlaceholder creates a self-owned, valueless binding for
// name in m, so that a repeated resolution short-circuits in step 1 of
// resolveOwner instead of re-running using_resolve and re-emitting the
// ambiguity warning (spec section 4.3.1 and boundary scenario 2).
func (m *Module) installAmbiguityPlaceholder(name *symbol.Symbol) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := m.getOrCreateLocked(name)
	if b.Owner() == nil {
		b.claimSelf()
	}
}

// eqBindings implements eq_bindings(a, b) (spec section 4.3.1 and P3):
// same identity, same owner, or both constants holding an equal value.
func eqBindings(a, b *Binding) bool {
	if a == b {
		return true
	}

	ao, bo := a.Owner(), b.Owner()
	if ao != nil && ao == bo {
		return true
	}

	if a.IsConstant() && b.IsConstant() {
		av, aok := a.Value()
		bv, bok := b.Value()

		if aok && bok && valuesEqual(av, bv) {
			return true
		}
	}

	return false
}

// importBinding implements import_(to, from, b, asname, s, explicit)
// (spec section 4.3.2).
func importBinding(sink diagnostic.Sink, to, from *Module, b *Binding, asname, s *symbol.Symbol, explicit bool) {
	if b == nil {
		warn(sink, nil, diagnostic.DiagnosticSemantic, "import-not-found", "nothing to import",
			"WARNING: could not import %s.%s into %s\n", from.Name(), s.Name(), to.Name())
		return
	}

	if b.Deprecated() != NotDeprecated {
		if v, ok := b.Value(); !ok || v == nil {
			return
		}

		warn(sink, b, diagnostic.DiagnosticDeprecation, "deprecated-import", "import of deprecated binding",
			"WARNING: %s\n", depMessage(b, from, s))
	}

	to.mu.Lock()
	defer to.mu.Unlock()

	existing, found := to.bindings[asname]
	if !found {
		nb := newBinding(to, asname)
		nb.setAlias(b)
		nb.imported.Store(explicit)
		nb.deprecated.Store(int32(b.Deprecated()))
		to.bindings[asname] = nb

		return
	}

	switch {
	case existing == b:
		return
	case eqBindings(existing, b):
		existing.imported.Store(explicit)
		return
	}

	existingOwner := existing.Owner()

	switch {
	case existingOwner == nil:
		existing.setAlias(b.Owner())
		existing.imported.Store(explicit)
	case existingOwner != existing:
		warn(sink, existing, diagnostic.DiagnosticVisibility, "conflicting-import", "ignored conflicting import",
			"WARNING: ignoring conflicting import of %s.%s into %s\n", from.Name(), s.Name(), to.Name())
	default:
		warn(sink, existing, diagnostic.DiagnosticVisibility, "import-conflicts-with-identifier", "import conflicts with existing identifier",
			"WARNING: import of %s.%s into %s conflicts with an existing identifier; ignored.\n", from.Name(), s.Name(), to.Name())
	}
}

// Import implements jl_module_import: explicit=true.
func Import(sink diagnostic.Sink, to, from *Module, b *Binding, asname, s *symbol.Symbol) {
	importBinding(sink, to, from, b, asname, s, true)
}

// Use implements jl_module_use: explicit=false.
func Use(sink diagnostic.Sink, to, from *Module, b *Binding, asname, s *symbol.Symbol) {
	importBinding(sink, to, from, b, asname, s, false)
}

// UsingModule implements using(to, from) (spec section 4.3.3): makes
// every exported binding of from visible (not importable-for-extension)
// in to, warning about any name that shadows an already self-owned
// binding in to.
//
// to is write-locked and from is read-locked for the whole call, so the
// two locks must always be acquired in the same order regardless of
// which module is named to and which is from — otherwise a concurrent
// UsingModule(from, to) call could acquire them in the opposite order
// and deadlock against this one. buildID.Lo is unique per module (see
// newBuildID) and never changes, so comparing it gives a fixed order.
func UsingModule(sink diagnostic.Sink, to, from *Module) {
	if to == from {
		return
	}

	if to.buildID.Lo < from.buildID.Lo {
		to.mu.Lock()
		defer to.mu.Unlock()
		from.mu.RLock()
		defer from.mu.RUnlock()
	} else {
		from.mu.RLock()
		defer from.mu.RUnlock()
		to.mu.Lock()
		defer to.mu.Unlock()
	}

	for _, u := range to.usings {
		if u == from {
			return
		}
	}

	for name, b := range from.bindings {
		if !b.IsExported() {
			continue
		}

		existing, found := to.bindings[name]
		if !found || !existing.isSelfOwned() || name == to.name {
			continue
		}

		if eqBindings(existing, b) {
			continue
		}

		warn(sink, existing, diagnostic.DiagnosticVisibility, "using-conflicts-with-identifier", "using conflicts with existing identifier",
			"WARNING: using %s.%s in module %s conflicts with an existing identifier.\n", from.Name(), name.Name(), to.Name())
	}

	to.usings = append(to.usings, from)
}

// Export implements export(from, s) (spec section 4.3.4): lazily creates
// a placeholder binding if absent, then marks it exported.
func Export(from *Module, s *symbol.Symbol) {
	from.mu.Lock()
	defer from.mu.Unlock()

	b := from.getOrCreateLocked(s)
	b.exportp.Store(true)
}

package binding

import "github.com/vanta-lang/vanta/internal/symbol"

// ModuleName returns m's name, mirroring module_name (spec section 4.6).
func (m *Module) ModuleName() string { return m.Name() }

// ModuleParent returns m's parent, mirroring module_parent.
func (m *Module) ModuleParent() *Module { return m.parent }

// ModuleUsings returns a snapshot of m's usings list in insertion order,
// most-recently-added last; the resolver walks it from the end.
func (m *Module) ModuleUsings() []*Module {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Module, len(m.usings))
	copy(out, m.usings)

	return out
}

// IsSubmodule reports whether m is a (possibly indirect, non-strict)
// descendant of ancestor, walking parent links and stopping at a
// self-parent root (spec section 4.6).
func IsSubmodule(m, ancestor *Module) bool {
	cur := m

	for {
		if cur == ancestor {
			return true
		}

		if cur.parent == cur {
			return false
		}

		cur = cur.parent
	}
}

// BoundP reports whether name has any binding record at all in m (spec
// section 4.6: boundp), without resolving ownership.
func (m *Module) BoundP(name *symbol.Symbol) bool {
	return m.GetModuleBinding(name) != nil
}

// IsConst reports whether name's *resolved* binding is constant. A name
// with no binding at all is not constant.
func (m *Module) IsConst(name *symbol.Symbol) bool {
	b := m.GetModuleBinding(name)
	if b == nil {
		return false
	}

	owner := b.Owner()
	if owner == nil {
		return false
	}

	return owner.IsConstant()
}

// IsImported reports whether name's local binding in m was introduced by
// an explicit import.
func (m *Module) IsImported(name *symbol.Symbol) bool {
	b := m.GetModuleBinding(name)
	if b == nil {
		return false
	}

	return b.IsImported()
}

// ModuleExportsP reports whether m marks name as exported.
func (m *Module) ModuleExportsP(name *symbol.Symbol) bool {
	b := m.GetModuleBinding(name)
	if b == nil {
		return false
	}

	return b.IsExported()
}

// DefinesOrExportsP reports whether m either owns name locally or exports
// it (spec section 4.6: defines_or_exports_p).
func (m *Module) DefinesOrExportsP(name *symbol.Symbol) bool {
	b := m.GetModuleBinding(name)
	if b == nil {
		return false
	}

	return b.isSelfOwned() || b.IsExported()
}

// BindingResolvedP reports whether name's local binding in m has a
// decided owner (self or alias), as opposed to the unresolved placeholder
// state.
func (m *Module) BindingResolvedP(name *symbol.Symbol) bool {
	b := m.GetModuleBinding(name)
	if b == nil {
		return false
	}

	return b.Owner() != nil
}

// ModuleOfBinding returns the module recorded on g's GlobalRef at
// creation time. Per the documented staleness of GlobalRef (section 3.3)
// this may differ from the module that currently, after aliasing, owns
// the binding's authoritative value — callers that need the live owner
// should resolve through the module instead of trusting this directly.
func ModuleOfBinding(g *GlobalRef) *Module {
	return g.Module()
}

// isHiddenName reports whether name is a "#"-prefixed internal name,
// excluded from module_names unless all is requested.
func isHiddenName(name *symbol.Symbol) bool {
	s := name.Name()
	return len(s) > 0 && s[0] == '#'
}

// ModuleNames enumerates m's local names (spec section 4.6), excluding
// hidden `#`-prefixed names always, and excluding deprecated and
// non-exported names unless all is true. When imported is true, only
// explicitly-imported names are included (in addition to natively owned
// ones); when false, every non-self-owned binding is excluded, explicit
// imports and using-promoted aliases alike.
func (m *Module) ModuleNames(all, imported bool) []*symbol.Symbol {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*symbol.Symbol

	for name, b := range m.bindings {
		if isHiddenName(name) {
			continue
		}

		if !all {
			if b.Deprecated() != NotDeprecated {
				continue
			}

			if !b.IsExported() {
				continue
			}
		}

		if !b.isSelfOwned() {
			if !imported {
				continue
			}

			if !b.IsImported() {
				continue
			}
		}

		out = append(out, name)
	}

	return out
}

// ClearImplicitImports drops every binding in m whose owner is not itself
// and which was not explicitly imported (spec section 4.6 and 3.2
// lifecycle): the only form of binding deletion this subsystem performs.
// Go's map delete leaves no tombstone, resolving the open question in
// section 9 about hash-table slot residue.
func (m *Module) ClearImplicitImports() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, b := range m.bindings {
		if !b.isSelfOwned() && !b.IsImported() {
			delete(m.bindings, name)
		}
	}
}

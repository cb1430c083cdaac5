package binding

import (
	"sync"
	"sync/atomic"

	"github.com/Masterminds/semver/v3"

	"github.com/vanta-lang/vanta/internal/errors"
	"github.com/vanta-lang/vanta/internal/position"
	"github.com/vanta-lang/vanta/internal/symbol"
)

// BuildID is the 128-bit identifier distinguishing module instances across
// sessions (spec section 3.4 and glossary): Lo is unique per construction,
// Hi is reserved for serialization metadata and starts as "not yet
// serialized".
type BuildID struct {
	Lo uint64
	Hi uint64
}

// notSerialized is build_id.hi's sentinel value before a module has been
// written to a compiled image.
const notSerialized = ^uint64(0)

// Knob is one of a module's inheritable settings (optlevel, compile,
// infer, max_methods, nospecialize). -1 means "inherit from parent".
type Knob int32

const inherit Knob = -1

// Module is a named namespace: the unit of using/import (spec section
// 3.4). Its lock protects the bindings table and usings list structure
// only; binding contents are independently atomic (section 5).
type Module struct {
	name   *symbol.Symbol
	parent *Module
	uuid   [16]byte

	buildID      BuildID
	buildVersion *semver.Version

	mu       sync.RWMutex
	bindings map[*symbol.Symbol]*Binding
	usings   []*Module

	counter atomic.Uint32

	optlevel     atomic.Int32
	compile      atomic.Int32
	infer        atomic.Int32
	maxMethods   atomic.Int32
	nospecialize atomic.Int32

	istopmod atomic.Bool
}

// buildCounter is the process-wide fallback ensuring strict uniqueness
// even if two modules are constructed within the same clock tick (spec
// section 4.1: "fresh non-zero build_id.lo ... plus a counter fallback").
var buildCounter atomic.Uint64

func newBuildID() BuildID {
	lo := clock.Now() + buildCounter.Add(1)
	if lo == 0 {
		lo = 1
	}

	return BuildID{Lo: lo, Hi: notSerialized}
}

// NewModule allocates a module (spec section 4.1). If defaultNames is
// true, the returned module automatically gets `using core` and a
// constant self-binding of its own name to itself, and its name is always
// marked exported.
func NewModule(name *symbol.Symbol, parent *Module, core *Module, defaultNames bool) *Module {
	m := &Module{
		name:     name,
		parent:   parent,
		buildID:  newBuildID(),
		bindings: make(map[*symbol.Symbol]*Binding),
	}

	m.counter.Store(1)
	m.optlevel.Store(int32(inherit))
	m.compile.Store(int32(inherit))
	m.infer.Store(int32(inherit))
	m.maxMethods.Store(int32(inherit))
	m.nospecialize.Store(int32(inherit))

	if parent == nil {
		m.parent = m
	}

	if defaultNames && core != nil && core != m {
		m.usings = append(m.usings, core)
	}

	if defaultNames {
		self := m.getOrCreateLocked(name)
		self.claimSelf()
		self.constp.Store(true)
		self.storeValue(m)
	}

	nameBinding := m.getOrCreateLocked(name)
	nameBinding.exportp.Store(true)

	return m
}

// NextCounter atomically fetch-adds and returns the prior counter value,
// used to generate unique internal names scoped to this module.
func (m *Module) NextCounter() uint32 {
	return m.counter.Add(1) - 1
}

// Name returns the module's symbol.
func (m *Module) Name() string { return m.name.Name() }

// Symbol returns the module's interned name symbol.
func (m *Module) Symbol() *symbol.Symbol { return m.name }

// Parent returns the module's parent (itself, for a root module).
func (m *Module) Parent() *Module { return m.parent }

// UUID returns the module's UUID bytes.
func (m *Module) UUID() [16]byte { return m.uuid }

// SetModuleUUID sets the module's UUID.
func (m *Module) SetModuleUUID(id [16]byte) { m.uuid = id }

// BuildID returns the module's build identifier.
func (m *Module) BuildID() BuildID { return m.buildID }

// IsTopMod reports whether this module is marked as a top-level module.
func (m *Module) IsTopMod() bool { return m.istopmod.Load() }

// SetIsTopMod marks or unmarks this module as a top-level module.
func (m *Module) SetIsTopMod(v bool) { m.istopmod.Store(v) }

// getOrCreateLocked looks up or creates a binding under m.mu, which must
// already be held for writing by the caller.
func (m *Module) getOrCreateLocked(name *symbol.Symbol) *Binding {
	if b, ok := m.bindings[name]; ok {
		return b
	}

	b := newBinding(m, name)
	m.bindings[name] = b

	return b
}

// GetModuleBinding performs a locked lookup that does not resolve through
// usings (spec section 4.2).
func (m *Module) GetModuleBinding(name *symbol.Symbol) *Binding {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.bindings[name]
}

// GetBindingWR is "binding for write" (spec section 4.2). With alloc
// true, it claims or creates a self-owned binding, failing if the name is
// owned by another module, whether explicitly imported or promoted from a
// using. With alloc false, it returns the existing binding or nil. In both
// modes an existing unresolved binding is claimed as self-owned. An
// optional trailing position.Span records the declaration site the first
// time this name becomes self-owned in m (see Binding.DeclSpan).
func (m *Module) GetBindingWR(name *symbol.Symbol, alloc bool, span ...position.Span) (*Binding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, found := m.bindings[name]
	if found {
		switch b.Owner() {
		case b:
			return b, nil
		case nil:
			b.claimSelf()
			b.setDeclSpan(firstSpan(span))

			return b, nil
		default:
			if alloc {
				return nil, errors.AssignToImported(m.Name(), name.Name())
			}

			return b, nil
		}
	}

	if !alloc {
		return nil, nil
	}

	nb := newBinding(m, name)
	nb.claimSelf()
	nb.setDeclSpan(firstSpan(span))
	m.bindings[name] = nb

	return nb, nil
}

// GetBindingForMethodDef is like GetBindingWR, but a binding that
// resolves to another module's non-type, non-explicitly-imported value
// fails with MethodNotExplicitlyImported instead of AssignToImported
// (spec section 4.2): methods may be added to types without an explicit
// import, but plain functions require one.
func (m *Module) GetBindingForMethodDef(name *symbol.Symbol) (*Binding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, found := m.bindings[name]
	if !found {
		nb := newBinding(m, name)
		nb.claimSelf()
		m.bindings[name] = nb

		return nb, nil
	}

	owner := b.Owner()

	switch owner {
	case b:
		return b, nil
	case nil:
		b.claimSelf()
		return b, nil
	default:
		if b.IsImported() {
			return b, nil
		}

		if v, ok := owner.Value(); ok && kindOf(v) == KindType {
			return b, nil
		}

		return nil, errors.MethodNotExplicitlyImported(m.Name(), name.Name())
	}
}

// knob getters/setters (spec section 3.4/6.1). Each inheritable knob
// walks the parent chain when its own value is -1 ("inherit"), stopping
// at a self-parent (root) or the first ancestor with an explicit value
// (spec: "stopping at self-parent or at the designated base module" —
// NewRuntime makes Base its own parent, so the walk bottoms out there).

func (m *Module) OptLevel() int32     { return resolveKnob(m, func(mod *Module) *atomic.Int32 { return &mod.optlevel }) }
func (m *Module) SetOptLevel(v int32) { m.optlevel.Store(v) }

func (m *Module) Compile() int32     { return resolveKnob(m, func(mod *Module) *atomic.Int32 { return &mod.compile }) }
func (m *Module) SetCompile(v int32) { m.compile.Store(v) }

func (m *Module) Infer() int32     { return resolveKnob(m, func(mod *Module) *atomic.Int32 { return &mod.infer }) }
func (m *Module) SetInfer(v int32) { m.infer.Store(v) }

func (m *Module) MaxMethods() int32     { return resolveKnob(m, func(mod *Module) *atomic.Int32 { return &mod.maxMethods }) }
func (m *Module) SetMaxMethods(v int32) { m.maxMethods.Store(v) }

func (m *Module) NoSpecialize() int32     { return resolveKnob(m, func(mod *Module) *atomic.Int32 { return &mod.nospecialize }) }
func (m *Module) SetNoSpecialize(v int32) { m.nospecialize.Store(v) }

// resolveKnob walks the parent chain reading the same logical knob (named
// by field) on each ancestor until it finds a non-inherit value or runs
// out of distinct parents.
func resolveKnob(m *Module, field func(*Module) *atomic.Int32) int32 {
	cur := m

	for {
		val := field(cur).Load()
		if val != int32(inherit) || cur.parent == cur || cur.parent == nil {
			return val
		}

		cur = cur.parent
	}
}

package binding

import (
	"sync"

	"github.com/vanta-lang/vanta/internal/diagnostic"
	"github.com/vanta-lang/vanta/internal/symbol"
)

// Options bundles the process-wide knobs section 6.3 says affect
// resolution and restored-module initialization.
type Options struct {
	DepWarn          DepWarn
	Incremental      bool
	GeneratingOutput bool
}

// Runtime owns the three well-known singleton modules (spec section 6.2)
// and the process-wide state the design notes (section 9) say should be
// constructed once and passed explicitly rather than read from package
// globals inside the resolver.
type Runtime struct {
	Sink diagnostic.Sink
	Opts Options

	Core *Module
	Base *Module
	Main *Module

	mu          sync.Mutex
	restoreQ    []*Module
	initialized map[*Module]bool
}

// NewRuntime constructs Core, Base and Main with the relationships
// section 6.2 describes: Base and Main both `using Core`; knob
// inheritance stops at Base, which is why Base is never given a parent
// other than itself.
func NewRuntime(sink diagnostic.Sink, opts Options) *Runtime {
	if sink == nil {
		sink = diagnostic.NopSink
	}

	r := &Runtime{Sink: sink, Opts: opts, initialized: make(map[*Module]bool)}

	core := NewModule(symbol.Intern("Core"), nil, nil, false)
	core.SetIsTopMod(true)

	base := NewModule(symbol.Intern("Base"), nil, core, true)
	base.SetIsTopMod(true)

	main := NewModule(symbol.Intern("Main"), base, core, true)
	main.SetIsTopMod(true)

	r.Core, r.Base, r.Main = core, base, main

	return r
}

// NewChildModule constructs a module with the given defaultNames setting,
// wired to this runtime's Core and with parent defaulting to Main when nil (the
// common case for user code creating a submodule).
func (r *Runtime) NewChildModule(name *symbol.Symbol, parent *Module, defaultNames bool) *Module {
	if parent == nil {
		parent = r.Main
	}

	return NewModule(name, parent, r.Core, defaultNames)
}

// InitRestoredModules implements init_restored_modules (spec section 6.3
// and the deferred-init-queue behavior original_source's serialization
// path drives): when Incremental or GeneratingOutput is set, a restored
// module's initializer is not run immediately but appended to a
// process-wide queue; RunDeferredInits drains that queue in registration
// order once the host is ready (e.g. after an entire compiled image has
// finished loading).
func (r *Runtime) InitRestoredModules(modules []*Module, init func(*Module)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range modules {
		if r.initialized[m] {
			continue
		}

		if r.Opts.Incremental || r.Opts.GeneratingOutput {
			r.restoreQ = append(r.restoreQ, m)
			continue
		}

		r.initialized[m] = true
		init(m)
	}
}

// Requeue unconditionally schedules m for re-initialization on the next
// RunDeferredInits, regardless of Incremental/GeneratingOutput — used by
// CompiledModuleCache when a module's on-disk image changes and its
// in-memory state must be considered stale no matter how the runtime was
// configured at startup.
func (r *Runtime) Requeue(m *Module) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.initialized, m)
	r.restoreQ = append(r.restoreQ, m)
}

// RunDeferredInits drains the restore queue built up by
// InitRestoredModules, running init on each module in the order it was
// queued and marking it initialized so a later call is a no-op.
func (r *Runtime) RunDeferredInits(init func(*Module)) {
	r.mu.Lock()
	queued := r.restoreQ
	r.restoreQ = nil
	r.mu.Unlock()

	for _, m := range queued {
		r.mu.Lock()
		already := r.initialized[m]
		r.initialized[m] = true
		r.mu.Unlock()

		if already {
			continue
		}

		init(m)
	}
}

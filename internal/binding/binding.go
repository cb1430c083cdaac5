package binding

import (
	"sync/atomic"

	"github.com/vanta-lang/vanta/internal/position"
	"github.com/vanta-lang/vanta/internal/symbol"
)

// DeprecationState is the binding.deprecated flag from spec section 3.2:
// 0 means not deprecated, 1 means renamed (warn on use), 2 means moved (the
// value is itself an error-throwing stub, so no separate warning prints).
type DeprecationState int32

const (
	NotDeprecated DeprecationState = 0
	Renamed       DeprecationState = 1
	Moved         DeprecationState = 2
)

// ownerKind is the tagged-variant encoding design note section 9
// recommends in place of the original's overloaded nil/self-pointer
// sentinel: a binding's owner is exactly one of "itself" (authoritative),
// "unresolved" (slot exists, ownership undecided), or "another binding"
// (always itself self-owned, per invariant I2).
type ownerKind int32

const (
	ownerUnresolved ownerKind = iota
	ownerSelf
	ownerAlias
)

// Binding is the authoritative slot for one name inside one module (spec
// section 3.2). value/type are lock-free readable/writable (I4). owner,
// exportp and imported are written under the owning module's lock (apart
// from NewModule's construction-time setup); constp (SetConst,
// DeclareConstant) and deprecated (DeprecateBinding) are written with
// atomic stores without taking that lock. All of them are atomics, so
// they may be read without the lock.
type Binding struct {
	Module *Module
	Name   *symbol.Symbol

	value atomic.Value // holds boxedValue
	typ   atomic.Value // holds boxedType

	ownerKind  atomic.Int32
	ownerAlias atomic.Pointer[Binding]

	constp     atomic.Bool
	exportp    atomic.Bool
	imported   atomic.Bool
	deprecated atomic.Int32

	globalref atomic.Pointer[GlobalRef]
	declSpan  atomic.Value // holds position.Span
}

// boxedValue lets atomic.Value hold a nil interface (atomic.Value.Store
// panics on untyped nil and requires every stored value to share a
// concrete type).
type boxedValue struct {
	v  Value
	ok bool
}

// newBinding allocates a binding with address stability guaranteed by its
// owning module's table (invariant I5: once inserted, the pointer never
// moves — Go's GC gives us this for free once the map holds *Binding).
func newBinding(m *Module, name *symbol.Symbol) *Binding {
	b := &Binding{Module: m, Name: name}
	b.value.Store(boxedValue{})
	b.declSpan.Store(position.Span{})
	b.globalref.Store(newGlobalRef(m, name, b))

	return b
}

// DeclSpan returns the source span recorded at this binding's declaration
// site, or the zero Span if none was supplied (e.g. a binding created by
// resolution rather than by a caller holding source position information).
func (b *Binding) DeclSpan() position.Span {
	bv := b.declSpan.Load()
	if bv == nil {
		return position.Span{}
	}

	return bv.(position.Span)
}

// setDeclSpan records span as this binding's declaration site the first
// time a caller supplies a valid one; later callers (e.g. promotion via
// using_resolve, which has no span of its own) never overwrite it.
func (b *Binding) setDeclSpan(span position.Span) {
	if !span.IsValid() {
		return
	}

	if _, ok := b.declSpan.Load().(position.Span); ok && b.DeclSpan().IsValid() {
		return
	}

	b.declSpan.Store(span)
}

// firstSpan returns the first element of an optional trailing span
// argument, or the zero Span if the caller didn't supply one. Declaration
// entry points (GetBindingWR, Assign, SetConst) accept position.Span as a
// variadic tail so every existing call site keeps compiling while callers
// that do track source positions (cmd/vanta-modcli's console, a future
// parser-backed frontend) can opt in.
func firstSpan(spans []position.Span) position.Span {
	if len(spans) == 0 {
		return position.Span{}
	}

	return spans[0]
}

// Value returns the binding's current value, or (nil, false) if unset.
func (b *Binding) Value() (Value, bool) {
	bv := b.value.Load().(boxedValue)
	return bv.v, bv.ok
}

// storeValue performs the release-store + (conceptual) write barrier spec
// section 4.4 requires after a successful assignment.
func (b *Binding) storeValue(v Value) {
	b.value.Store(boxedValue{v: v, ok: true})
}

// casValue is the compare-and-swap used to initialize a constant's value
// exactly once (spec section 4.4/4.5). Section 9's open question notes
// the original's set_const used a non-atomic read-modify-write on constp;
// this and SetConst's use of it are the CAS-based replacement.
func (b *Binding) casValue(old, new Value) bool {
	// unset is represented as {ok:false}; treat "old == nil" as "unset".
	oldBoxed := boxedValue{}
	if old != nil {
		oldBoxed = boxedValue{v: old, ok: true}
	}

	return b.value.CompareAndSwap(oldBoxed, boxedValue{v: new, ok: true})
}

// boxedType lets typ's atomic.Value hold any of several concrete Type
// implementations (anyType, GoType, ...) without the inconsistent-concrete-type
// panic atomic.Value raises when Store/CompareAndSwap see differing
// concrete types across calls on the same Value — exactly boxedValue's
// reason for existing, applied to the type slot instead of the value slot.
type boxedType struct {
	t Type
}

// Type returns the binding's declared type constraint. An unset type
// constraint reads as AnyType (spec: "unset means no constraint yet and is
// treated as the universal type").
func (b *Binding) Type() Type {
	bv := b.typ.Load()
	if bv == nil {
		return AnyType
	}

	bt, ok := bv.(boxedType)
	if !ok {
		return AnyType
	}

	return bt.t
}

// DeclareType installs an explicit type constraint for a typed global
// declaration (e.g. `x::Int`), before any value has necessarily been
// assigned. It refuses to narrow a constraint that assignment has
// already initialized to something other than the universal type,
// matching invariant I4's compare-and-swap discipline for type writes.
func (b *Binding) DeclareType(t Type) bool {
	if b.typ.CompareAndSwap(nil, boxedType{t: t}) {
		return true
	}

	return b.Type() == AnyType && b.typ.CompareAndSwap(boxedType{t: AnyType}, boxedType{t: t})
}

// casInitType CAS-initializes the type constraint from unset to t,
// returning the type actually in place afterward (t if this call won the
// race, the pre-existing one otherwise).
func (b *Binding) casInitType(t Type) Type {
	if b.typ.CompareAndSwap(nil, boxedType{t: t}) {
		return t
	}

	return b.Type()
}

// IsConstant reports whether this binding has been declared constant.
// Monotonic per invariant I3.
func (b *Binding) IsConstant() bool { return b.constp.Load() }

// IsExported reports whether this binding is re-exported by its module's
// using clause.
func (b *Binding) IsExported() bool { return b.exportp.Load() }

// IsImported reports whether this binding was introduced by an explicit
// import (true) rather than a using (false).
func (b *Binding) IsImported() bool { return b.imported.Load() }

// Deprecated returns the deprecation state of this specific binding
// record. Note spec section 4.5's caveat: call sites typically want the
// *owner's* deprecated flag, obtained via resolution, not this raw value.
func (b *Binding) Deprecated() DeprecationState {
	return DeprecationState(b.deprecated.Load())
}

// GlobalRef returns this binding's stable handle. The handle is created
// eagerly by newBinding together with the binding, not on first request,
// so it is never nil.
func (b *Binding) GlobalRef() *GlobalRef {
	return b.globalref.Load()
}

// isSelfOwned reports owner == self (invariant I1).
func (b *Binding) isSelfOwned() bool {
	return ownerKind(b.ownerKind.Load()) == ownerSelf
}

// rawOwner returns the binding this one's owner pointer currently names
// (b itself if self-owned, nil if unresolved) together with the owner
// kind. Use Owner for the caller-facing
// "resolve one hop" operation described throughout spec section 4.3.
func (b *Binding) rawOwner() (*Binding, ownerKind) {
	k := ownerKind(b.ownerKind.Load())
	switch k {
	case ownerSelf:
		return b, k
	case ownerAlias:
		return b.ownerAlias.Load(), k
	default:
		return nil, k
	}
}

// Owner follows this binding's owner pointer once, per module.c's
// `b = b->owner`. Returns nil if unresolved, b itself if self-owned, or
// the aliased-to binding (which invariant I2 guarantees is itself
// self-owned).
func (b *Binding) Owner() *Binding {
	o, _ := b.rawOwner()
	return o
}

// claimSelf sets owner := self on a previously-unresolved binding. Must
// be called with the owning module's lock held.
func (b *Binding) claimSelf() {
	b.ownerKind.Store(int32(ownerSelf))
}

// setAlias sets owner := target on a binding (target must itself be
// self-owned, invariant I2). Must be called with the owning module's lock
// held.
func (b *Binding) setAlias(target *Binding) {
	b.ownerAlias.Store(target)
	b.ownerKind.Store(int32(ownerAlias))
}

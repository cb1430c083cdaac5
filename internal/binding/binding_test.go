package binding

import (
	"testing"

	"github.com/vanta-lang/vanta/internal/symbol"
)

func TestGetBindingWRSelfOwnership(t *testing.T) {
	rt, _ := testRuntime()
	m := rt.NewChildModule(symbol.Intern("P1"), rt.Main, false)

	b, err := m.GetBindingWR(symbol.Intern("v"), true)
	if err != nil {
		t.Fatalf("GetBindingWR: %v", err)
	}

	if b.Owner() != b {
		t.Fatal("P1: binding.owner must equal binding itself after alloc=true success")
	}
}

func TestGetBindingWRFailsOnImportedName(t *testing.T) {
	rt, diag := testRuntime()

	a := rt.NewChildModule(symbol.Intern("P1A"), rt.Main, false)
	c := rt.NewChildModule(symbol.Intern("P1C"), rt.Main, false)

	name := symbol.Intern("shared")

	if err := Assign(diag, a, name, int64(1)); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	Export(a, name)

	aB := a.GetModuleBinding(name)
	Import(diag, c, a, aB, name, name)

	if _, err := c.GetBindingWR(name, true); err == nil {
		t.Fatal("expected assignment to an explicitly-imported name to fail with AssignToImported")
	}
}

func TestBindingValueUnsetRoundTrip(t *testing.T) {
	rt, _ := testRuntime()
	m := rt.NewChildModule(symbol.Intern("P4"), rt.Main, false)

	b, err := m.GetBindingWR(symbol.Intern("u"), true)
	if err != nil {
		t.Fatalf("GetBindingWR: %v", err)
	}

	if _, ok := b.Value(); ok {
		t.Fatal("a freshly created binding must read as unset")
	}

	b.storeValue(int64(7))

	v, ok := b.Value()
	if !ok || v != Value(int64(7)) {
		t.Fatalf("expected stored value 7, got %v (ok=%v)", v, ok)
	}
}

func TestDeclareConstantRequiresSelfOwnership(t *testing.T) {
	rt, diag := testRuntime()

	a := rt.NewChildModule(symbol.Intern("P4A"), rt.Main, false)
	c := rt.NewChildModule(symbol.Intern("P4C"), rt.Main, false)

	name := symbol.Intern("q")

	if err := Assign(diag, a, name, int64(1)); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	Export(a, name)
	UsingModule(diag, c, a)
	ResolveOwner(diag, c, name) // promotes an alias binding into c

	cb := c.GetModuleBinding(name)
	if cb == nil || cb.isSelfOwned() {
		t.Fatal("expected c's q to be a non-self-owned alias after promotion")
	}

	if err := DeclareConstant(cb, c, name); err == nil {
		t.Fatal("expected declare_constant to fail on a non-self-owned binding")
	}
}

package binding

import (
	"testing"

	"github.com/vanta-lang/vanta/internal/diagnostic"
	"github.com/vanta-lang/vanta/internal/symbol"
)

func testRuntime() (*Runtime, *diagnostic.Manager) {
	diag := diagnostic.NewManager()
	rt := NewRuntime(diag, Options{DepWarn: DepWarnWarn})

	return rt, diag
}

func TestNewModuleCreateAndExport(t *testing.T) {
	rt, diag := testRuntime()

	m := rt.NewChildModule(symbol.Intern("M"), rt.Main, true)

	names := m.ModuleNames(false, false)
	if len(names) != 1 || names[0].Name() != "M" {
		t.Fatalf("expected module_names(M) to contain :M, got %v", names)
	}

	b := ResolveOwner(diag, m, symbol.Intern("M"))
	if b == nil {
		t.Fatal("resolve_owner(M, :M) returned nil")
	}

	if !b.IsConstant() {
		t.Fatal("self-binding of M is not constant")
	}

	v, ok := b.Value()
	if !ok || v != Value(m) {
		t.Fatalf("self-binding of M does not hold M itself, got %v", v)
	}
}

func TestAmbiguityWarnsOnceThenReturnsPlaceholder(t *testing.T) {
	rt, diag := testRuntime()

	a := rt.NewChildModule(symbol.Intern("A"), rt.Main, false)
	b := rt.NewChildModule(symbol.Intern("B"), rt.Main, false)
	c := rt.NewChildModule(symbol.Intern("C"), rt.Main, false)

	xSym := symbol.Intern("x")

	if err := SetConst(a, xSym, int64(1)); err != nil {
		t.Fatalf("SetConst(A, x, 1): %v", err)
	}

	if err := SetConst(b, xSym, int64(2)); err != nil {
		t.Fatalf("SetConst(B, x, 2): %v", err)
	}

	Export(a, xSym)
	Export(b, xSym)

	UsingModule(diag, c, a)
	UsingModule(diag, c, b)

	first := ResolveOwner(diag, c, xSym)
	if first != nil {
		t.Fatalf("expected first ambiguous resolve_owner(C, x) to return nil, got %v", first)
	}

	warnings := diag.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("expected exactly one ambiguity warning, got %d: %v", len(warnings), warnings)
	}

	diag.Clear()

	second := ResolveOwner(diag, c, xSym)
	if len(diag.Warnings()) != 0 {
		t.Fatalf("expected no warning on second resolve, got %v", diag.Warnings())
	}

	if second != nil && second.Owner() != second {
		t.Fatalf("placeholder binding must satisfy owner == self")
	}
}

func TestPromotionInsertsAliasAndIsNotImported(t *testing.T) {
	rt, diag := testRuntime()

	a := rt.NewChildModule(symbol.Intern("A"), rt.Main, false)
	c := rt.NewChildModule(symbol.Intern("C"), rt.Main, false)

	ySym := symbol.Intern("y")

	if err := Assign(diag, a, ySym, int64(1)); err != nil {
		t.Fatalf("Assign(A, y, 1): %v", err)
	}

	Export(a, ySym)
	UsingModule(diag, c, a)

	resolved := ResolveOwner(diag, c, ySym)
	if resolved == nil {
		t.Fatal("resolve_owner(C, y) returned nil")
	}

	aY := a.GetModuleBinding(ySym)
	if resolved != aY {
		t.Fatal("resolve_owner(C, y) did not return A's binding")
	}

	if c.IsImported(ySym) {
		t.Fatal("using-promoted binding must not be marked imported")
	}

	local := c.GetModuleBinding(ySym)
	if local == nil || local.Owner() != aY {
		t.Fatal("expected C to gain a local alias binding owned by A's y")
	}
}

func TestConstantRedefinition(t *testing.T) {
	rt, diag := testRuntime()
	m := rt.NewChildModule(symbol.Intern("M"), rt.Main, false)
	kSym := symbol.Intern("k")

	if err := SetConst(m, kSym, int64(1)); err != nil {
		t.Fatalf("first SetConst: %v", err)
	}

	if err := SetConst(m, kSym, int64(1)); err == nil {
		t.Fatal("expected second SetConst to fail with invalid redefinition")
	}

	b := m.GetModuleBinding(kSym)

	if err := CheckedAssignment(diag, b, m, kSym, int64(1)); err != nil {
		t.Fatalf("same-value checked_assignment should be a silent no-op: %v", err)
	}

	diag.Clear()

	if err := CheckedAssignment(diag, b, m, kSym, int64(2)); err != nil {
		t.Fatalf("different int value should warn and succeed: %v", err)
	}

	if len(diag.Warnings()) != 1 {
		t.Fatalf("expected one redefinition warning, got %v", diag.Warnings())
	}

	if err := CheckedAssignment(diag, b, m, kSym, "nope"); err == nil {
		t.Fatal("expected different-type constant redefinition to fail")
	}
}

func TestTypedGlobalRejectsIncompatibleAssignment(t *testing.T) {
	rt, diag := testRuntime()
	m := rt.NewChildModule(symbol.Intern("M"), rt.Main, false)
	tSym := symbol.Intern("t")

	b, err := m.GetBindingWR(tSym, true)
	if err != nil {
		t.Fatalf("GetBindingWR: %v", err)
	}

	if !b.DeclareType(TypeOf(int64(0))) {
		t.Fatal("expected explicit type declaration on a fresh binding to succeed")
	}

	if err := Assign(diag, m, tSym, int64(1)); err != nil {
		t.Fatalf("initial typed assignment: %v", err)
	}

	if err := Assign(diag, m, tSym, "oops"); err == nil {
		t.Fatal("expected incompatible typed assignment to fail")
	}

	if err := Assign(diag, m, tSym, int64(2)); err != nil {
		t.Fatalf("same-type reassignment should succeed: %v", err)
	}
}

func TestClearImplicitImports(t *testing.T) {
	rt, diag := testRuntime()

	a := rt.NewChildModule(symbol.Intern("A"), rt.Main, false)
	main := rt.NewChildModule(symbol.Intern("Scratch"), rt.Main, false)

	zSym := symbol.Intern("z")
	wSym := symbol.Intern("w")

	if err := Assign(diag, a, zSym, int64(9)); err != nil {
		t.Fatalf("Assign(A, z, 9): %v", err)
	}

	Export(a, zSym)
	UsingModule(diag, main, a)

	if ResolveOwner(diag, main, zSym) == nil {
		t.Fatal("expected resolve_owner(Scratch, z) to promote an implicit import")
	}

	if err := Assign(diag, main, wSym, int64(1)); err != nil {
		t.Fatalf("Assign(Scratch, w, 1): %v", err)
	}

	aZBinding := main.GetModuleBinding(zSym)
	if aZBinding == nil || aZBinding.isSelfOwned() {
		t.Fatal("expected z to be a non-self-owned implicit import before clearing")
	}

	main.ClearImplicitImports()

	if main.GetModuleBinding(zSym) != nil {
		t.Fatal("expected implicit import z to be removed")
	}

	if main.GetModuleBinding(wSym) == nil {
		t.Fatal("expected locally-defined w to survive clearing")
	}
}

func TestResolveOwnerCycleGuardTerminates(t *testing.T) {
	rt, diag := testRuntime()

	a := rt.NewChildModule(symbol.Intern("A2"), rt.Main, false)
	b := rt.NewChildModule(symbol.Intern("B2"), rt.Main, false)

	UsingModule(diag, a, b)
	UsingModule(diag, b, a)

	if got := ResolveOwner(diag, a, symbol.Intern("undefined_name")); got != nil {
		t.Fatalf("expected cyclic using resolution of an undefined name to return nil, got %v", got)
	}
}

func TestEqBindingsReflexiveSymmetric(t *testing.T) {
	rt, diag := testRuntime()
	_ = diag

	m := rt.NewChildModule(symbol.Intern("EqM"), rt.Main, false)
	b := m.GetModuleBinding(symbol.Intern("EqM"))

	if !eqBindings(b, b) {
		t.Fatal("eqBindings must be reflexive")
	}

	other := m.GetModuleBinding(symbol.Intern("EqM"))
	if !eqBindings(b, other) || !eqBindings(other, b) {
		t.Fatal("eqBindings must be symmetric")
	}
}

func TestImportTwiceIsIdempotent(t *testing.T) {
	rt, diag := testRuntime()

	a := rt.NewChildModule(symbol.Intern("A3"), rt.Main, false)
	c := rt.NewChildModule(symbol.Intern("C3"), rt.Main, false)

	nSym := symbol.Intern("n")

	if err := Assign(diag, a, nSym, int64(42)); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	Export(a, nSym)

	aN := a.GetModuleBinding(nSym)

	Import(diag, c, a, aN, nSym, nSym)
	Import(diag, c, a, aN, nSym, nSym)

	if !c.IsImported(nSym) {
		t.Fatal("expected n to be marked imported after explicit import")
	}

	if c.GetModuleBinding(nSym).Owner() != aN {
		t.Fatal("expected c's n to be owned by a's n after repeated import")
	}
}

func TestUsingTwicePushesOnce(t *testing.T) {
	rt, diag := testRuntime()

	a := rt.NewChildModule(symbol.Intern("A4"), rt.Main, false)
	c := rt.NewChildModule(symbol.Intern("C4"), rt.Main, false)

	UsingModule(diag, c, a)
	UsingModule(diag, c, a)

	count := 0

	for _, u := range c.ModuleUsings() {
		if u == a {
			count++
		}
	}

	if count != 1 {
		t.Fatalf("expected A to appear exactly once in C's usings, got %d", count)
	}
}

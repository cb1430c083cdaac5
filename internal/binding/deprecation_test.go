package binding

import (
	"testing"

	"github.com/vanta-lang/vanta/internal/symbol"
)

func TestDeprecatedUseWarnsUnderWarnMode(t *testing.T) {
	rt, diag := testRuntime()
	m := rt.NewChildModule(symbol.Intern("D1"), rt.Main, false)
	name := symbol.Intern("old")

	if err := Assign(diag, m, name, int64(1)); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	DeprecateBinding(diag, m, name, Renamed)
	diag.Clear()

	if _, err := GetBindingOrError(diag, DepWarnWarn, m, name); err != nil {
		t.Fatalf("warn-mode deprecated use must not error: %v", err)
	}

	if len(diag.Warnings()) != 1 {
		t.Fatalf("expected exactly one deprecation warning, got %v", diag.Warnings())
	}
}

func TestDeprecatedUseErrorsUnderErrorMode(t *testing.T) {
	rt, diag := testRuntime()
	m := rt.NewChildModule(symbol.Intern("D2"), rt.Main, false)
	name := symbol.Intern("gone")

	if err := Assign(diag, m, name, int64(1)); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	DeprecateBinding(diag, m, name, Renamed)

	if _, err := GetBindingOrError(diag, DepWarnError, m, name); err == nil {
		t.Fatal("expected error-mode deprecated use to fail")
	}
}

func TestMovedDeprecationPrintsNoWarning(t *testing.T) {
	rt, diag := testRuntime()
	m := rt.NewChildModule(symbol.Intern("D3"), rt.Main, false)
	name := symbol.Intern("stub")

	if err := Assign(diag, m, name, int64(1)); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	DeprecateBinding(diag, m, name, Moved)
	diag.Clear()

	if _, err := GetBindingOrError(diag, DepWarnWarn, m, name); err != nil {
		t.Fatalf("Moved deprecation must not raise through GetBindingOrError: %v", err)
	}

	if len(diag.Warnings()) != 0 {
		t.Fatalf("Moved (flag=2) must not emit a deprecation warning, got %v", diag.Warnings())
	}
}

func TestUndefinedVarFails(t *testing.T) {
	rt, diag := testRuntime()
	m := rt.NewChildModule(symbol.Intern("D4"), rt.Main, false)

	if _, err := GetBindingOrError(diag, DepWarnWarn, m, symbol.Intern("nope")); err == nil {
		t.Fatal("expected undefined variable lookup to fail")
	}
}

func TestDepMessageUsesCompanionBinding(t *testing.T) {
	rt, diag := testRuntime()
	m := rt.NewChildModule(symbol.Intern("D5"), rt.Main, false)
	name := symbol.Intern("legacy")

	if err := Assign(diag, m, name, int64(1)); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if err := Assign(diag, m, symbol.Intern("_dep_message_legacy"), "use newThing instead"); err != nil {
		t.Fatalf("Assign companion message: %v", err)
	}

	DeprecateBinding(diag, m, name, Renamed)
	diag.Clear()

	if _, err := GetBindingOrError(diag, DepWarnWarn, m, name); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	warnings := diag.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}

	if got := warnings[0]; !contains(got, "use newThing instead") {
		t.Fatalf("expected warning to include companion message, got %q", got)
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}

	return false
}

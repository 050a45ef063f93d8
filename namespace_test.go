package slip

import (
	"fmt"
	"strings"
	"testing"
)

func constMacro(m Model) Macro {
	return func(c *Compiler, args []Model) (interface{}, error) {
		return m, nil
	}
}

// TestNamespaceTiers checks lookup order across local, global, and core.
func TestNamespaceTiers(t *testing.T) {
	ns := NewNamespace()
	ns.Warnf = nil
	if _, ok := ns.Lookup("when"); !ok {
		t.Fatal("core macro when not found")
	}
	if _, ok := ns.Lookup("nothing-here"); ok {
		t.Fatal("found a macro that was never defined")
	}

	global := constMacro(Symbol{Text: "global"})
	local := constMacro(Symbol{Text: "local"})
	inner := constMacro(Symbol{Text: "inner"})
	pick := func(name string) string {
		m, ok := ns.Lookup(name)
		if !ok {
			return ""
		}
		v, _ := m(nil, nil)
		return v.(Symbol).Text
	}

	ns.Define("m", global)
	if got := pick("m"); got != "global" {
		t.Errorf("global tier: got %q", got)
	}
	if err := ns.DefineLocal("m", local); err == nil {
		t.Error("DefineLocal succeeded with no open scope")
	}
	ns.PushScope()
	if err := ns.DefineLocal("m", local); err != nil {
		t.Fatalf("DefineLocal: %v", err)
	}
	if got := pick("m"); got != "local" {
		t.Errorf("local shadow: got %q", got)
	}
	ns.PushScope()
	if err := ns.DefineLocal("m", inner); err != nil {
		t.Fatalf("DefineLocal: %v", err)
	}
	if got := pick("m"); got != "inner" {
		t.Errorf("innermost shadow: got %q", got)
	}
	ns.PopScope()
	if got := pick("m"); got != "local" {
		t.Errorf("after inner PopScope: got %q", got)
	}
	ns.PopScope()
	if got := pick("m"); got != "global" {
		t.Errorf("after PopScope: got %q", got)
	}
}

// TestNamespaceMangledLookup checks that macro names resolve through
// mangling, so spelling variants find the same macro.
func TestNamespaceMangledLookup(t *testing.T) {
	ns := NewNamespace()
	ns.Warnf = nil
	ns.Define("foo-bar", constMacro(Symbol{Text: "hit"}))
	for _, name := range []string{"foo-bar", "foo_bar"} {
		if _, ok := ns.Lookup(name); !ok {
			t.Errorf("Lookup(%q) missed", name)
		}
	}
	if _, ok := ns.Lookup("foobar"); ok {
		t.Error("Lookup(foobar) hit")
	}
}

// TestNamespaceShadowWarning checks the diagnostic for defining over a
// core name.
func TestNamespaceShadowWarning(t *testing.T) {
	ns := NewNamespace()
	var warned []string
	ns.Warnf = func(format string, args ...interface{}) {
		warned = append(warned, fmt.Sprintf(format, args...))
	}
	ns.Define("helper", constMacro(Symbol{Text: "x"}))
	if len(warned) != 0 {
		t.Fatalf("defining a fresh name warned: %v", warned)
	}
	ns.Define("when", constMacro(Symbol{Text: "x"}))
	if len(warned) != 1 || !strings.Contains(warned[0], "when") {
		t.Fatalf("shadowing a core name warned %v", warned)
	}
	ns.PushScope()
	ns.DefineLocal("unless", constMacro(Symbol{Text: "x"}))
	if len(warned) != 2 {
		t.Fatalf("local shadow of a core name warned %v", warned)
	}
}

// TestNamespaceImport checks selective and renaming imports.
func TestNamespaceImport(t *testing.T) {
	src := NewNamespace()
	src.Warnf = nil
	src.Define("alpha", constMacro(Symbol{Text: "a"}))
	src.Define("beta", constMacro(Symbol{Text: "b"}))

	all := NewNamespace()
	all.Warnf = nil
	if err := all.Import(src, nil); err != nil {
		t.Fatalf("Import all: %v", err)
	}
	for _, name := range []string{"alpha", "beta"} {
		if _, ok := all.Lookup(name); !ok {
			t.Errorf("imported %s missing", name)
		}
	}

	some := NewNamespace()
	some.Warnf = nil
	if err := some.Import(src, map[string]string{"alpha": "first"}); err != nil {
		t.Fatalf("Import selective: %v", err)
	}
	if _, ok := some.Lookup("first"); !ok {
		t.Error("renamed import missing")
	}
	if _, ok := some.Lookup("alpha"); ok {
		t.Error("renamed import also present under its old name")
	}
	if _, ok := some.Lookup("beta"); ok {
		t.Error("unrequested macro imported")
	}
	if err := some.Import(src, map[string]string{"gamma": ""}); err == nil {
		t.Error("importing a missing macro succeeded")
	}
}

// TestNamespaceReaderMacros checks the separate reader-macro table.
func TestNamespaceReaderMacros(t *testing.T) {
	ns := NewNamespace()
	ns.Warnf = nil
	ns.DefineReader("now", func(r *Reader) (interface{}, error) { return "now", nil })
	if _, ok := ns.LookupReader("now"); !ok {
		t.Error("reader macro missing")
	}
	if _, ok := ns.Lookup("now"); ok {
		t.Error("reader macro visible in the ordinary tiers")
	}
	ns.Define("other", constMacro(Symbol{Text: "x"}))
	if _, ok := ns.LookupReader("other"); ok {
		t.Error("ordinary macro visible in the reader table")
	}
}

package slip

import (
	"fmt"
	"os"
)

// A Macro is compile-time code: it receives the unexpanded argument models
// of its call and returns a replacement value, which is coerced to a model
// with AsModel and expanded again.
type Macro func(c *Compiler, args []Model) (interface{}, error)

// A ReaderMacro is a parse-time extension. It is invoked when the reader
// encounters #name, may consume as much subsequent text as it wants
// through the reader and its cursor, and returns a value that is coerced
// to a model.
type ReaderMacro func(r *Reader) (interface{}, error)

// A Namespace holds the macro lookup tables: the three visibility tiers
// for ordinary macros, searched local then global then core, and a
// separate flat table for reader macros keyed by unmangled name.
//
// Ordinary-macro keys are mangled, so a macro defined as foo-bar is found
// by foo_bar and vice versa. The core tier is fixed and shared; defining
// over a core name is legal but reported through Warnf, since other macros
// that expect the core behavior may be broken by the shadow.
type Namespace struct {
	core    map[string]Macro
	global  map[string]Macro
	locals  []map[string]Macro
	readers map[string]ReaderMacro

	// Warnf receives diagnostics. It defaults to printing on standard
	// error.
	Warnf func(format string, args ...interface{})
}

// NewNamespace creates a namespace with the fixed core tier, an empty
// global tier, and no open scopes.
func NewNamespace() *Namespace {
	return &Namespace{
		core:    coreMacros(),
		global:  make(map[string]Macro),
		readers: make(map[string]ReaderMacro),
		Warnf: func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, "slip: "+format+"\n", args...)
		},
	}
}

// Lookup finds the macro bound to name, searching local scopes innermost
// first, then the global tier, then core.
func (ns *Namespace) Lookup(name string) (Macro, bool) {
	key := Mangle(name)
	for i := len(ns.locals) - 1; i >= 0; i-- {
		if m, ok := ns.locals[i][key]; ok {
			return m, true
		}
	}
	if m, ok := ns.global[key]; ok {
		return m, true
	}
	m, ok := ns.core[key]
	return m, ok
}

// Define installs a macro in the global tier.
func (ns *Namespace) Define(name string, m Macro) {
	key := Mangle(name)
	ns.warnShadow(name, key)
	ns.global[key] = m
}

// DefineLocal installs a macro in the innermost open scope. It is an error
// when no scope is open.
func (ns *Namespace) DefineLocal(name string, m Macro) error {
	if len(ns.locals) == 0 {
		return fmt.Errorf("slip: no local macro scope is open")
	}
	key := Mangle(name)
	ns.warnShadow(name, key)
	ns.locals[len(ns.locals)-1][key] = m
	return nil
}

// PushScope opens a local macro scope. Macros installed in it are dropped
// by the matching PopScope.
func (ns *Namespace) PushScope() {
	ns.locals = append(ns.locals, make(map[string]Macro))
}

// PopScope closes the innermost local macro scope.
func (ns *Namespace) PopScope() {
	if len(ns.locals) == 0 {
		return
	}
	ns.locals = ns.locals[:len(ns.locals)-1]
}

// Import copies macros from another namespace's global tier. A nil names
// map copies everything under its own names; otherwise each entry maps the
// name in other to the name to install here, so macros can be imported
// selectively and under new names.
func (ns *Namespace) Import(other *Namespace, names map[string]string) error {
	if names == nil {
		for key, m := range other.global {
			ns.warnShadow(key, key)
			ns.global[key] = m
		}
		return nil
	}
	for from, to := range names {
		m, ok := other.global[Mangle(from)]
		if !ok {
			return fmt.Errorf("slip: no macro %s to import", from)
		}
		if to == "" {
			to = from
		}
		ns.Define(to, m)
	}
	return nil
}

// DefineReader installs a reader macro. Reader-macro names are not
// mangled.
func (ns *Namespace) DefineReader(name string, m ReaderMacro) {
	ns.readers[name] = m
}

// LookupReader finds a reader macro by its unmangled name.
func (ns *Namespace) LookupReader(name string) (ReaderMacro, bool) {
	m, ok := ns.readers[name]
	return m, ok
}

func (ns *Namespace) warnShadow(name, key string) {
	if _, ok := ns.core[key]; ok && ns.Warnf != nil {
		ns.Warnf("macro %s shadows a core macro of the same name", name)
	}
}

package slip_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/slip-lang/slip"
	"github.com/slip-lang/slip/testutils"
)

// TestCoreMacros checks the expansions of the built-in macro tier.
func TestCoreMacros(t *testing.T) {
	testutils.ResetTestingCompiler()
	cases := map[string]testutils.SourceTestCase{
		"when":        {Source: "(when ok (a) (b))", Pass: testutils.PassEqual(t, "(if ok (do (a) (b)))")},
		"unless":      {Source: "(unless ok (a))", Pass: testutils.PassEqual(t, "(if ok nil (do (a)))")},
		"threadfirst": {Source: "(-> x (f a) g)", Pass: testutils.PassEqual(t, "(g (f x a))")},
		"threadlast":  {Source: "(->> x (f a) g)", Pass: testutils.PassEqual(t, "(g (f a x))")},
		"notamacro":   {Source: "(frobnicate x)", Pass: testutils.PassEqual(t, "(frobnicate x)")},
		"atom":        {Source: "x", Pass: testutils.PassEqual(t, "x")},
	}
	for name, c := range cases {
		t.Run(name, c.TestFunc())
	}
}

// TestQuasiquote checks template instantiation.
func TestQuasiquote(t *testing.T) {
	testutils.ResetTestingCompiler()
	cases := map[string]testutils.SourceTestCase{
		"noUnquotes":  {Source: "`(a b c)", Pass: testutils.PassEqual(t, "'(a b c)")},
		"atom":        {Source: "`a", Pass: testutils.PassEqual(t, "'a")},
		"unquote":     {Source: "`(a ~(+ 1 2))", Pass: testutils.PassEqual(t, "'(a 3)")},
		"splice":      {Source: "`(a ~@[1 2] b)", Pass: testutils.PassEqual(t, "'(a 1 2 b)")},
		"spliceNil":   {Source: "`(a ~@nil b)", Pass: testutils.PassEqual(t, "'(a b)")},
		"spliceFalse": {Source: "`(a ~@false b)", Pass: testutils.PassEqual(t, "'(a b)")},
		"spliceZero":  {Source: "`(a ~@0 b)", Pass: testutils.PassEqual(t, "'(a b)")},
		"spliceEmpty": {Source: "`(a ~@[] b)", Pass: testutils.PassEqual(t, "'(a b)")},
		"spliceStr":   {Source: "`(a ~@\"bc\" d)", Pass: testutils.PassEqual(t, `'(a "b" "c" d)`)},
		"inList":      {Source: "`[~(+ 1 1) ~@#(2 3)]", Pass: testutils.PassEqual(t, "'[2 2 3]")},
		"nested":      {Source: "`(a `(b ~~(+ 1 2)))", Pass: testutils.PassEqual(t, "'(a `(b ~3))")},
		"nestedQq":    {Source: "``(~(+ 1 2))", Pass: testutils.PassEqual(t, "'`(~(+ 1 2))")},
	}
	for name, c := range cases {
		t.Run(name, c.TestFunc())
	}
}

// TestQuasiquoteErrors checks template failure modes.
func TestQuasiquoteErrors(t *testing.T) {
	testutils.ResetTestingCompiler()
	c := testutils.TestingCompiler()
	cases := map[string]string{
		"topSplice":     "`~@[1 2]",
		"spliceNumber":  "`(a ~@7)",
		"unboundSymbol": "`(a ~undefined)",
	}
	for name, source := range cases {
		source := source
		t.Run(name, func(t *testing.T) {
			m := testutils.ReadOne(t, source)
			if _, err := c.Macroexpand(m); err == nil {
				t.Errorf("%q expanded without error", source)
			}
		})
	}
}

// TestDefmacro checks macros defined in the language itself.
func TestDefmacro(t *testing.T) {
	testutils.ResetTestingCompiler()
	c := testutils.TestingCompiler()
	expand := func(t *testing.T, source string) slip.Model {
		t.Helper()
		out, err := c.Macroexpand(testutils.ReadOne(t, source))
		if err != nil {
			t.Fatalf("could not expand %q: %v", source, err)
		}
		return out
	}
	expand(t, "(defmacro six [] (+ 1 2 3))")
	if got := expand(t, "(six)"); !slip.Equal(got, testutils.ReadOne(t, "6")) {
		t.Errorf("(six) expanded to %v", got)
	}

	expand(t, "(defmacro twice [x] `(do ~x ~x))")
	if got := expand(t, "(twice (f))"); !slip.Equal(got, testutils.ReadOne(t, "(do (f) (f))")) {
		t.Errorf("(twice (f)) expanded to %v", got)
	}

	expand(t, "(defmacro join [#* xs] `(all ~@xs))")
	if got := expand(t, "(join a b c)"); !slip.Equal(got, testutils.ReadOne(t, "(all a b c)")) {
		t.Errorf("(join a b c) expanded to %v", got)
	}

	m := testutils.ReadOne(t, "(twice a b)")
	if _, err := c.Macroexpand(m); err == nil {
		t.Error("arity mismatch expanded without error")
	}
}

// TestMacroexpandFixedPoint checks that expansion recurses until the head
// is no longer a macro.
func TestMacroexpandFixedPoint(t *testing.T) {
	testutils.ResetTestingCompiler()
	c := testutils.TestingCompiler()
	c.NS.Define("inner", func(_ *slip.Compiler, args []slip.Model) (interface{}, error) {
		return slip.NewInteger(1), nil
	})
	c.NS.Define("outer", func(_ *slip.Compiler, args []slip.Model) (interface{}, error) {
		return slip.NewExpression(slip.MustSymbol("inner")), nil
	})
	got, err := c.Macroexpand(testutils.ReadOne(t, "(outer)"))
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if !slip.Equal(got, slip.NewInteger(1)) {
		t.Errorf("(outer) expanded to %v, want 1", got)
	}

	one, expanded, err := c.Macroexpand1(testutils.ReadOne(t, "(outer)"))
	if err != nil || !expanded {
		t.Fatalf("Macroexpand1: expanded=%v err=%v", expanded, err)
	}
	if !slip.Equal(one, slip.NewExpression(slip.MustSymbol("inner"))) {
		t.Errorf("one step of (outer) gave %v, want (inner)", one)
	}
}

// TestMacroexpandDepthGuard checks that divergent macros are cut off.
func TestMacroexpandDepthGuard(t *testing.T) {
	testutils.ResetTestingCompiler()
	c := testutils.TestingCompiler()
	c.NS.Define("forever", func(_ *slip.Compiler, args []slip.Model) (interface{}, error) {
		return slip.NewExpression(slip.MustSymbol("forever")), nil
	})
	_, err := c.Macroexpand(testutils.ReadOne(t, "(forever)"))
	if err == nil {
		t.Fatal("divergent macro expanded without error")
	}
	var me *slip.MacroError
	if !errors.As(err, &me) {
		t.Fatalf("error is %T, want MacroError", err)
	}
	if me.Macro != "forever" {
		t.Errorf("error names %q, want forever", me.Macro)
	}
}

// TestMacroErrorPosition checks that a failing macro reports its call
// site.
func TestMacroErrorPosition(t *testing.T) {
	testutils.ResetTestingCompiler()
	c := testutils.TestingCompiler()
	c.NS.Define("fail", func(_ *slip.Compiler, args []slip.Model) (interface{}, error) {
		return nil, errors.New("deliberate")
	})
	m := testutils.ReadOne(t, "\n  (fail)")
	_, err := c.Macroexpand(m)
	var me *slip.MacroError
	if !errors.As(err, &me) {
		t.Fatalf("error is %T, want MacroError", err)
	}
	if me.Pos != (slip.Position{Line: 2, Col: 3}) {
		t.Errorf("error position %v, want 2:3", me.Pos)
	}
	if !strings.Contains(err.Error(), "deliberate") {
		t.Errorf("error %q does not carry the cause", err)
	}
}

// TestMacroResultPositions checks that fabricated expansion nodes take the
// call site's position.
func TestMacroResultPositions(t *testing.T) {
	testutils.ResetTestingCompiler()
	c := testutils.TestingCompiler()
	m := testutils.ReadOne(t, "(when ok (go))")
	out, err := c.Macroexpand(m)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	e := out.(slip.Expression)
	if e.Pos() != m.Pos() {
		t.Errorf("expansion starts at %v, want call site %v", e.Pos(), m.Pos())
	}
	// The fabricated if symbol inherits the call site; the test form (go)
	// keeps its own span.
	if e.Items[0].Pos() != m.Pos() {
		t.Errorf("fabricated head at %v, want %v", e.Items[0].Pos(), m.Pos())
	}
}

// TestGensym checks distinctness and that generated names read back as
// symbols.
func TestGensym(t *testing.T) {
	a, b := slip.Gensym("x"), slip.Gensym("x")
	if a.Text == b.Text {
		t.Errorf("Gensym produced %q twice", a.Text)
	}
	if _, err := slip.NewSymbol(a.Text); err != nil {
		t.Errorf("gensym %q is not a valid symbol: %v", a.Text, err)
	}
}

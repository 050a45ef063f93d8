package slip

import (
	"io"
	"io/ioutil"
	"math"
	"math/big"
	"strings"
	"testing"

	"gopkg.in/yaml.v2"
)

func readOne(t *testing.T, source string) Model {
	t.Helper()
	m, err := ReadOneString(source, NewNamespace())
	if err != nil {
		t.Fatalf("could not read %q: %v", source, err)
	}
	return m
}

// TestReadCorpus runs the desugaring corpus: each case's source and want
// must read as structurally equal models.
func TestReadCorpus(t *testing.T) {
	data, err := ioutil.ReadFile("testdata/read_corpus.yaml")
	if err != nil {
		t.Fatalf("could not load corpus: %v", err)
	}
	var cases map[string]struct {
		Source string `yaml:"source"`
		Want   string `yaml:"want"`
	}
	if err := yaml.Unmarshal(data, &cases); err != nil {
		t.Fatalf("could not parse corpus: %v", err)
	}
	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			got := readOne(t, c.Source)
			want := readOne(t, c.Want)
			if !Equal(got, want) {
				t.Errorf("%q read as %v, want %v", c.Source, got, want)
			}
		})
	}
}

// TestReadNumbers checks numeric literal classification and values.
func TestReadNumbers(t *testing.T) {
	cases := map[string]struct {
		source string
		want   Model
	}{
		"int":        {"42", NewInteger(42)},
		"negative":   {"-7", NewInteger(-7)},
		"signed":     {"+7", NewInteger(7)},
		"hex":        {"0x1f", NewInteger(31)},
		"octal":      {"0o17", NewInteger(15)},
		"binary":     {"0b101", NewInteger(5)},
		"separators": {"1_000,000", NewInteger(1000000)},
		"big":        {"680564733841876926926749214863536422912", Integer{Value: mustBig("680564733841876926926749214863536422912")}},
		"float":      {"1.5", Float{Value: 1.5}},
		"leadingdot": {".5", Float{Value: 0.5}},
		"exponent":   {"1e3", Float{Value: 1000}},
		"inf":        {"Inf", Float{Value: math.Inf(1)}},
		"neginf":     {"-Inf", Float{Value: math.Inf(-1)}},
		"complex":    {"2j", Complex{Value: 2i}},
		"complexful": {"1+2j", Complex{Value: 1 + 2i}},
	}
	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			got := readOne(t, c.source)
			if !Equal(got, c.want) {
				t.Errorf("%q read as %v (%T), want %v (%T)", c.source, got, got, c.want, c.want)
			}
		})
	}
}

func mustBig(s string) *big.Int {
	z, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad big integer " + s)
	}
	return z
}

// TestReadNaN checks the one numeric spelling Equal cannot: NaN is not
// equal to itself.
func TestReadNaN(t *testing.T) {
	got := readOne(t, "NaN")
	f, ok := got.(Float)
	if !ok || !math.IsNaN(f.Value) {
		t.Errorf("NaN read as %v (%T)", got, got)
	}
	if s := readOne(t, "nan"); Equal(s, Symbol{Text: "nan"}) == false {
		t.Errorf("nan read as %v, want a plain symbol", s)
	}
}

// TestReadStrings checks string literals, prefixes, and escapes.
func TestReadStrings(t *testing.T) {
	cases := map[string]struct {
		source string
		want   Model
	}{
		"plain":   {`"hello"`, String{Value: "hello"}},
		"escapes": {`"a\tb\n"`, String{Value: "a\tb\n"}},
		"quote":   {`"a\"b"`, String{Value: `a"b`}},
		"hex":     {`"\x41"`, String{Value: "A"}},
		"u4":      {`"\u2618"`, String{Value: "☘"}},
		"u8":      {`"\U0001F642"`, String{Value: "🙂"}},
		"named":   {`"\N{SHAMROCK}"`, String{Value: "☘"}},
		"octal":   {`"\101"`, String{Value: "A"}},
		"cont":    {"\"a\\\nb\"", String{Value: "ab"}},
		"raw":     {`r"a\tb"`, String{Value: `a\tb`}},
		"bytes":   {`b"ab\x00"`, Bytes{Value: []byte{'a', 'b', 0}}},
		"rawcase": {`R"a\b"`, String{Value: `a\b`}},
	}
	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			got := readOne(t, c.source)
			if !Equal(got, c.want) {
				t.Errorf("%s read as %#v, want %#v", c.source, got, c.want)
			}
		})
	}
}

// TestReadBracketString checks #[tag[...]tag] literals.
func TestReadBracketString(t *testing.T) {
	m := readOne(t, "#[tag[no \\escapes ]or \"quotes\"]tag]")
	s, ok := m.(String)
	if !ok {
		t.Fatalf("bracket string read as %T", m)
	}
	if want := `no \escapes ]or "quotes"`; s.Value != want {
		t.Errorf("bracket string content %q, want %q", s.Value, want)
	}
	if s.Brackets == nil || *s.Brackets != "tag" {
		t.Errorf("bracket tag = %v, want tag", s.Brackets)
	}
	if got := readOne(t, "#[[\nkeeps\nlines]]"); got.(String).Value != "keeps\nlines" {
		t.Errorf("leading newline not stripped: %q", got.(String).Value)
	}
}

// TestReadFString checks format-string structure.
func TestReadFString(t *testing.T) {
	m := readOne(t, `f"x = {x} and {{literal}} {y !r :>{w}}"`)
	fs, ok := m.(FString)
	if !ok {
		t.Fatalf("f-string read as %T", m)
	}
	var comps []FComponent
	var text strings.Builder
	for _, it := range fs.Items {
		switch it := it.(type) {
		case String:
			text.WriteString(it.Value)
		case FComponent:
			comps = append(comps, it)
		}
	}
	if want := "x =  and {literal} "; text.String() != want {
		t.Errorf("literal text %q, want %q", text.String(), want)
	}
	if len(comps) != 2 {
		t.Fatalf("got %d replacement fields, want 2", len(comps))
	}
	if !Equal(comps[0].Value, Symbol{Text: "x"}) || comps[0].Conversion != 0 {
		t.Errorf("first field = %v", comps[0])
	}
	if !Equal(comps[1].Value, Symbol{Text: "y"}) || comps[1].Conversion != 'r' {
		t.Errorf("second field = %v", comps[1])
	}
	spec, ok := comps[1].Spec.(FString)
	if !ok {
		t.Fatalf("format spec is %T", comps[1].Spec)
	}
	// The spec holds the literal > and a nested field for w.
	if len(spec.Items) != 2 {
		t.Fatalf("spec has %d parts, want 2", len(spec.Items))
	}
}

// TestReadFStringDebug checks the = debug syntax: the recorded source text
// becomes a literal part, and a bare debug field defaults to !r.
func TestReadFStringDebug(t *testing.T) {
	m := readOne(t, `f"{(+ x 1) =}"`)
	fs := m.(FString)
	if len(fs.Items) != 2 {
		t.Fatalf("got %d parts, want literal plus field", len(fs.Items))
	}
	lit, ok := fs.Items[0].(String)
	if !ok || !strings.Contains(lit.Value, "(+ x 1)") {
		t.Errorf("debug literal = %v", fs.Items[0])
	}
	comp := fs.Items[1].(FComponent)
	if comp.Conversion != 'r' {
		t.Errorf("debug conversion = %q, want r", comp.Conversion)
	}
}

// TestReadPositions checks that read models carry 1-based source spans.
func TestReadPositions(t *testing.T) {
	m := readOne(t, "(foo\n  bar)")
	e := m.(Expression)
	if e.Pos() != (Position{1, 1}) {
		t.Errorf("expression starts at %v, want 1:1", e.Pos())
	}
	if e.Items[0].Pos() != (Position{1, 2}) {
		t.Errorf("head starts at %v, want 1:2", e.Items[0].Pos())
	}
	if e.Items[1].Pos() != (Position{2, 3}) {
		t.Errorf("second item starts at %v, want 2:3", e.Items[1].Pos())
	}
	if e.End().Line != 2 {
		t.Errorf("expression ends on line %d, want 2", e.End().Line)
	}
}

// TestReadErrors checks error classification.
func TestReadErrors(t *testing.T) {
	cases := map[string]struct {
		source    string
		premature bool
	}{
		"openparen":    {"(a b", true},
		"openstring":   {`"abc`, true},
		"openbracket":  {"#[tag[abc", true},
		"openquote":    {"'", true},
		"opendiscard":  {"#_", true},
		"openfield":    {`f"{x`, true},
		"closeparen":   {")", false},
		"badnumber":    {"12abc", false},
		"badescape":    {`"\q"`, false},
		"byteshigh":    {`b"é"`, false},
		"singlebrace":  {`f"}"`, false},
		"nomacro":      {"#nosuch x", false},
		"baddotted":    {"a..b", false},
		"bytesnamed":   {`b"\N{SHAMROCK}"`, false},
		"opendispatch": {"#", true},
	}
	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			_, err := ReadOneString(c.source, NewNamespace())
			if err == nil {
				t.Fatalf("%q read without error", c.source)
			}
			if got := IsPrematureEOF(err); got != c.premature {
				t.Errorf("%q: IsPrematureEOF = %v, want %v (err %v)", c.source, got, c.premature, err)
			}
		})
	}
}

// TestReadEOF checks the clean end-of-input protocol.
func TestReadEOF(t *testing.T) {
	r := NewReader(strings.NewReader(" a ; trailing comment"), NewNamespace(), Options{})
	if _, err := r.ReadOne(); err != nil {
		t.Fatalf("first form: %v", err)
	}
	if _, err := r.ReadOne(); err != io.EOF {
		t.Errorf("after last form, err = %v, want io.EOF", err)
	}
}

// TestReadShebang checks that a #! line is skipped only when requested.
func TestReadShebang(t *testing.T) {
	source := "#!/usr/bin/env slip\n(main)"
	forms, err := ReadString(source, NewNamespace(), Options{SkipShebang: true})
	if err != nil {
		t.Fatalf("with SkipShebang: %v", err)
	}
	if len(forms) != 1 || !Equal(forms[0], NewExpression(Symbol{Text: "main"})) {
		t.Errorf("forms = %v", forms)
	}
	if _, err := ReadString(source, NewNamespace(), Options{}); err == nil {
		t.Error("without SkipShebang, the directive line read successfully")
	}
	// A leading # that starts a dispatch form rather than a directive must
	// survive the lookahead intact.
	forms, err = ReadString("#(1 2)", NewNamespace(), Options{SkipShebang: true})
	if err != nil {
		t.Fatalf("leading dispatch with SkipShebang: %v", err)
	}
	if len(forms) != 1 || !Equal(forms[0], NewTuple(NewInteger(1), NewInteger(2))) {
		t.Errorf("leading dispatch read as %v", forms)
	}
}

// TestReaderMacro checks #name dispatch through the namespace.
func TestReaderMacro(t *testing.T) {
	ns := NewNamespace()
	ns.DefineReader("twice", func(r *Reader) (interface{}, error) {
		m, err := r.ReadOne()
		if err != nil {
			return nil, err
		}
		return NewList(m, m), nil
	})
	got, err := ReadOneString("#twice 7", ns)
	if err != nil {
		t.Fatalf("reader macro failed: %v", err)
	}
	if want := NewList(NewInteger(7), NewInteger(7)); !Equal(got, want) {
		t.Errorf("#twice 7 read as %v, want %v", got, want)
	}
	if got.Pos().IsZero() {
		t.Error("reader-macro result has no position")
	}
}

// TestPrintRoundTrip checks that printing any read model yields text that
// reads back as an equal model.
func TestPrintRoundTrip(t *testing.T) {
	sources := []string{
		"foo", ":kw", "42", "-1.5", "2j", `"a\nb"`, `b"ab"`,
		"'x", "`(a ~b ~@c)", "(f #* args #** kw)",
		"[1 #(2 3) #{4} {:k 5}]", "foo.bar", ".method",
		`f"x={x !r :>3} done"`, "#[tag[raw ] text]tag]", "...",
		"(quote (1 2 3))", "NaN", "Inf", "-Inf",
	}
	for _, src := range sources {
		m := readOne(t, src)
		printed := m.String()
		back, err := ReadOneString(printed, NewNamespace())
		if err != nil {
			t.Errorf("%q printed as %q, which does not read: %v", src, printed, err)
			continue
		}
		if src == "NaN" {
			if f, ok := back.(Float); !ok || !math.IsNaN(f.Value) {
				t.Errorf("NaN printed as %q, which read as %v", printed, back)
			}
			continue
		}
		if !Equal(m, back) {
			t.Errorf("%q printed as %q, which read as %v", src, printed, back)
		}
	}
}

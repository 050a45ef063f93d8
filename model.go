package slip

import (
	"fmt"
	"math/big"
	"strings"
)

// A Position is a line and column in source text. Both are 1-based. The zero
// Position means the location is unknown.
type Position struct {
	Line, Col int
}

// FallbackPos is the position stamped onto nodes that were built by program
// logic rather than read from text. EnsurePos applies it so that every node
// in a finalized tree points at some source location.
var FallbackPos = Position{Line: 1, Col: 1}

// IsZero reports whether p is the unknown position.
func (p Position) IsZero() bool {
	return p.Line == 0 && p.Col == 0
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// A Model is one unit of Slip syntax: a position-tagged node of the syntax
// tree the reader produces and the compiler consumes. The set of types
// implementing Model is closed: Symbol, Keyword, String, Bytes, Integer,
// Float, Complex, Expression, List, Tuple, Set, Dict, FString, and
// FComponent.
//
// Models are immutable. Operations that appear to modify a model, like
// WithPos, return a new one.
type Model interface {
	// Pos returns the start position of the model's source text.
	Pos() Position
	// End returns the end position of the model's source text.
	End() Position
	// WithPos returns a copy of the model with the given position metadata.
	// The model is not otherwise altered.
	WithPos(start, end Position) Model
	// String prints the model as source text the reader can read back.
	String() string

	model()
}

// span carries position metadata for every model variant.
type span struct {
	start, end Position
}

func at(start, end Position) span { return span{start, end} }

func (s span) Pos() Position { return s.start }
func (s span) End() Position { return s.end }

// Symbol is an identifier model.
type Symbol struct {
	Text string
	span
}

// Ellipsis is the text of the distinguished ellipsis symbol.
const Ellipsis = "..."

// symbolText reports whether text could have been read as a symbol.
func symbolText(text string) bool {
	if text == "" {
		return false
	}
	if text == "." || text == Ellipsis {
		// The dot symbol heads dotted-identifier expressions, and the
		// ellipsis is a distinguished sentinel.
		return true
	}
	if strings.ContainsAny(text, structuralDelims) || strings.ContainsAny(text, asciiSpace) {
		return false
	}
	switch text[0] {
	case '#', '\'', '`', '~', ':':
		// The reader would have dispatched on these instead.
		return false
	}
	if strings.Contains(text, ".") {
		// Any other dotted spelling reads as a dotted-identifier expression.
		return false
	}
	if _, ok := parseNumber(text); ok {
		return false
	}
	if numericLead(text) {
		return false
	}
	return true
}

// NewSymbol creates a Symbol, validating that text could legally have been
// produced by the reader.
func NewSymbol(text string) (Symbol, error) {
	if !symbolText(text) {
		return Symbol{}, fmt.Errorf("slip: %q cannot be read as a symbol", text)
	}
	return Symbol{Text: text}, nil
}

// MustSymbol is NewSymbol, panicking on invalid text. It is intended for
// macro code building syntax from literals.
func MustSymbol(text string) Symbol {
	s, err := NewSymbol(text)
	if err != nil {
		panic(err)
	}
	return s
}

// IsEllipsis reports whether s is the distinguished ellipsis symbol.
func (s Symbol) IsEllipsis() bool { return s.Text == Ellipsis }

func (s Symbol) WithPos(start, end Position) Model {
	s.span = at(start, end)
	return s
}

// Keyword is a :name model. Keywords evaluate to themselves.
type Keyword struct {
	Name string
	span
}

// NewKeyword creates a Keyword, validating that :name could legally have
// been produced by the reader. The name does not include the leading colon
// and may be empty.
func NewKeyword(name string) (Keyword, error) {
	if strings.ContainsAny(name, structuralDelims) {
		return Keyword{}, fmt.Errorf("slip: %q cannot be read as a keyword name", name)
	}
	return Keyword{Name: name}, nil
}

// MustKeyword is NewKeyword, panicking on invalid text.
func MustKeyword(name string) Keyword {
	k, err := NewKeyword(name)
	if err != nil {
		panic(err)
	}
	return k
}

func (k Keyword) WithPos(start, end Position) Model {
	k.span = at(start, end)
	return k
}

// String is a text literal model. Brackets is nil except for bracket-string
// literals, where it holds the custom delimiter tag. Brackets does not
// participate in equality.
type String struct {
	Value    string
	Brackets *string
	span
}

func (s String) WithPos(start, end Position) Model {
	s.span = at(start, end)
	return s
}

// Bytes is a byte-string literal model.
type Bytes struct {
	Value []byte
	span
}

func (b Bytes) WithPos(start, end Position) Model {
	b.span = at(start, end)
	return b
}

// Integer is an arbitrary-precision integer literal model.
type Integer struct {
	Value *big.Int
	span
}

// NewInteger creates an Integer from an int64.
func NewInteger(v int64) Integer {
	return Integer{Value: big.NewInt(v)}
}

func (i Integer) WithPos(start, end Position) Model {
	i.span = at(start, end)
	return i
}

// Float is a floating-point literal model, including the NaN and Inf
// spellings.
type Float struct {
	Value float64
	span
}

func (f Float) WithPos(start, end Position) Model {
	f.span = at(start, end)
	return f
}

// Complex is a complex literal model.
type Complex struct {
	Value complex128
	span
}

func (c Complex) WithPos(start, end Position) Model {
	c.span = at(start, end)
	return c
}

func (Symbol) model()  {}
func (Keyword) model() {}
func (String) model()  {}
func (Bytes) model()   {}
func (Integer) model() {}
func (Float) model()   {}
func (Complex) model() {}

// Replace fills in any missing position metadata on m, and recursively on
// its children, from donor's span. Macro expansions use it so fabricated
// nodes still point at the call site for diagnostics. Nodes that already
// have positions keep them.
func Replace(m Model, donor Model) Model {
	return stamp(m, donor.Pos(), donor.End())
}

// EnsurePos fills in any missing position metadata on m with FallbackPos,
// establishing the invariant that a finalized tree has a position on every
// node.
func EnsurePos(m Model) Model {
	return stamp(m, FallbackPos, FallbackPos)
}

func stamp(m Model, start, end Position) Model {
	if seq, ok := m.(Sequence); ok {
		items := seq.Children()
		var changed []Model
		for i, it := range items {
			st := stamp(it, start, end)
			if !sameModel(st, it) && changed == nil {
				changed = make([]Model, len(items))
				copy(changed, items[:i])
			}
			if changed != nil {
				changed[i] = st
			}
		}
		if changed != nil {
			m = seq.withChildren(changed)
		}
	}
	if fc, ok := m.(FComponent); ok {
		v := stamp(fc.Value, start, end)
		fc.Value = v
		if fc.Spec != nil {
			fc.Spec = stamp(fc.Spec, start, end)
		}
		m = fc
	}
	if m.Pos().IsZero() || m.End().IsZero() {
		ns, ne := m.Pos(), m.End()
		if ns.IsZero() {
			ns = start
		}
		if ne.IsZero() {
			ne = end
		}
		m = m.WithPos(ns, ne)
	}
	return m
}

// sameModel reports whether two models are equal including their spans, to
// let stamp avoid rebuilding untouched sequences.
func sameModel(a, b Model) bool {
	return Equal(a, b) && a.Pos() == b.Pos() && a.End() == b.End()
}

// Equal reports whether two models are structurally equal: the same variant
// with equal children and values. Position metadata and bracket-string
// delimiters are ignored. A model is never equal to a bare host value; Equal
// only relates models to models.
func Equal(a, b Model) bool {
	switch a := a.(type) {
	case Symbol:
		b, ok := b.(Symbol)
		return ok && a.Text == b.Text
	case Keyword:
		b, ok := b.(Keyword)
		return ok && a.Name == b.Name
	case String:
		b, ok := b.(String)
		return ok && a.Value == b.Value
	case Bytes:
		b, ok := b.(Bytes)
		return ok && string(a.Value) == string(b.Value)
	case Integer:
		b, ok := b.(Integer)
		return ok && a.Value.Cmp(b.Value) == 0
	case Float:
		b, ok := b.(Float)
		return ok && a.Value == b.Value
	case Complex:
		b, ok := b.(Complex)
		return ok && a.Value == b.Value
	case FComponent:
		b, ok := b.(FComponent)
		if !ok || a.Conversion != b.Conversion || !Equal(a.Value, b.Value) {
			return false
		}
		if (a.Spec == nil) != (b.Spec == nil) {
			return false
		}
		return a.Spec == nil || Equal(a.Spec, b.Spec)
	case Sequence:
		b, ok := b.(Sequence)
		if !ok || seqKind(a) != seqKind(b) {
			return false
		}
		as, bs := a.Children(), b.Children()
		if len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !Equal(as[i], bs[i]) {
				return false
			}
		}
		return true
	}
	return false
}

package slip

// A Sequence is a model holding an immutable ordered list of child models.
// Expression, List, Tuple, Set, Dict, and FString are the sequence variants.
// Callers must not mutate the slice returned by Children.
type Sequence interface {
	Model
	// Children returns the sequence's child models in order.
	Children() []Model

	// withChildren builds a sequence of the same variant, preserving
	// position metadata.
	withChildren(items []Model) Sequence
}

// Expression is a parenthesized form. An Expression whose head is a Symbol
// bound to a macro is a macro call; otherwise it compiles to an ordinary
// call.
type Expression struct {
	Items []Model
	span
}

// NewExpression builds an Expression from items.
func NewExpression(items ...Model) Expression {
	return Expression{Items: items}
}

func (e Expression) Children() []Model { return e.Items }
func (e Expression) WithPos(start, end Position) Model {
	e.span = at(start, end)
	return e
}
func (e Expression) withChildren(items []Model) Sequence {
	e.Items = items
	return e
}

// List is a square-bracket literal.
type List struct {
	Items []Model
	span
}

// NewList builds a List from items.
func NewList(items ...Model) List {
	return List{Items: items}
}

func (l List) Children() []Model { return l.Items }
func (l List) WithPos(start, end Position) Model {
	l.span = at(start, end)
	return l
}
func (l List) withChildren(items []Model) Sequence {
	l.Items = items
	return l
}

// Tuple is a #( ) literal.
type Tuple struct {
	Items []Model
	span
}

// NewTuple builds a Tuple from items.
func NewTuple(items ...Model) Tuple {
	return Tuple{Items: items}
}

func (t Tuple) Children() []Model { return t.Items }
func (t Tuple) WithPos(start, end Position) Model {
	t.span = at(start, end)
	return t
}
func (t Tuple) withChildren(items []Model) Sequence {
	t.Items = items
	return t
}

// Set is a #{ } literal.
type Set struct {
	Items []Model
	span
}

// NewSet builds a Set from items.
func NewSet(items ...Model) Set {
	return Set{Items: items}
}

func (s Set) Children() []Model { return s.Items }
func (s Set) WithPos(start, end Position) Model {
	s.span = at(start, end)
	return s
}
func (s Set) withChildren(items []Model) Sequence {
	s.Items = items
	return s
}

// Dict is a brace literal. Items alternate key, value, key, value; the
// reader accepts an odd number of items, but the compiler rejects it.
type Dict struct {
	Items []Model
	span
}

// NewDict builds a Dict from alternating keys and values.
func NewDict(items ...Model) Dict {
	return Dict{Items: items}
}

func (d Dict) Children() []Model { return d.Items }
func (d Dict) WithPos(start, end Position) Model {
	d.span = at(start, end)
	return d
}
func (d Dict) withChildren(items []Model) Sequence {
	d.Items = items
	return d
}

// FString is a format-string literal. Its children are String models for
// literal runs of text and FComponent models for replacement fields.
// Brackets is the custom delimiter tag for bracket f-strings, nil otherwise.
type FString struct {
	Items    []Model
	Brackets *string
	span
}

func (f FString) Children() []Model { return f.Items }
func (f FString) WithPos(start, end Position) Model {
	f.span = at(start, end)
	return f
}
func (f FString) withChildren(items []Model) Sequence {
	f.Items = items
	return f
}

// FComponent is one replacement field inside an FString: an embedded-code
// model plus an optional conversion marker and format spec. A zero
// Conversion means no conversion; Spec is nil or an FString.
type FComponent struct {
	Value      Model
	Conversion rune
	Spec       Model
	span
}

func (f FComponent) WithPos(start, end Position) Model {
	f.span = at(start, end)
	return f
}

func (Expression) model() {}
func (List) model()       {}
func (Tuple) model()      {}
func (Set) model()        {}
func (Dict) model()       {}
func (FString) model()    {}
func (FComponent) model() {}

// seqKind names a sequence's variant for equality and diagnostics.
func seqKind(s Sequence) string {
	switch s.(type) {
	case Expression:
		return "expression"
	case List:
		return "list"
	case Tuple:
		return "tuple"
	case Set:
		return "set"
	case Dict:
		return "dict"
	case FString:
		return "fstring"
	}
	panic("slip: invalid sequence")
}

// Concat concatenates two sequences. The result's variant is that of the
// left-hand operand, so macro code building syntax incrementally keeps its
// intended shape. The result has no position metadata of its own.
func Concat(a, b Sequence) Sequence {
	as, bs := a.Children(), b.Children()
	items := make([]Model, 0, len(as)+len(bs))
	items = append(items, as...)
	items = append(items, bs...)
	out := a.withChildren(items)
	return out.WithPos(Position{}, Position{}).(Sequence)
}

// Package ast defines the host syntax tree the slip compiler lowers models
// into. The node set mirrors the expression grammar of a conventional
// dynamic host language: names, attribute access, calls, literals, and the
// pieces of formatted strings.
package ast

// A Pos is a 1-based line and column in the Slip source the node was
// compiled from.
type Pos struct {
	Line, Col int
}

// A Node is one host syntax tree node.
type Node interface {
	// Span returns the source extent the node was compiled from.
	Span() (start, end Pos)

	node()
}

// Loc carries source extents for every node type.
type Loc struct {
	Start, End Pos
}

func (l Loc) Span() (Pos, Pos) { return l.Start, l.End }

// Module is the root node: an ordered sequence of compiled top-level
// expressions.
type Module struct {
	Body []Node
	Loc
}

// Name is a reference to a mangled identifier.
type Name struct {
	Ident string
	Loc
}

// Attribute is attribute access, Value.Attr, with Attr already mangled.
type Attribute struct {
	Value Node
	Attr  string
	Loc
}

// Subscript is an indexing expression, Value[Index].
type Subscript struct {
	Value Node
	Index Node
	Loc
}

// Call is a function call. Keyword-argument pairs follow the positional
// arguments.
type Call struct {
	Fun  Node
	Args []Node
	Loc
}

// Keyword is a named argument in a call.
type Keyword struct {
	Name  string
	Value Node
	Loc
}

// Starred is an unpacking argument: *value when Double is false, **value
// when true.
type Starred struct {
	Value  Node
	Double bool
	Loc
}

// Const is a literal constant. Value holds the host representation: nil,
// bool, string, []byte, *big.Int, float64, complex128, or a model for
// quoted syntax.
type Const struct {
	Value interface{}
	Loc
}

// Ellipsis is the distinguished ellipsis constant.
type Ellipsis struct {
	Loc
}

// ListLit is a list display.
type ListLit struct {
	Elts []Node
	Loc
}

// TupleLit is a tuple display.
type TupleLit struct {
	Elts []Node
	Loc
}

// SetLit is a set display.
type SetLit struct {
	Elts []Node
	Loc
}

// DictLit is a dict display. Keys and Values are parallel; a nil key marks
// a **mapping unpacking at that position.
type DictLit struct {
	Keys   []Node
	Values []Node
	Loc
}

// JoinedStr is a formatted string: a sequence of Const string parts and
// FormattedValue parts.
type JoinedStr struct {
	Parts []Node
	Loc
}

// FormattedValue is one replacement field in a JoinedStr. Conversion is
// the conversion marker rune, or zero for none; Spec is nil or a
// JoinedStr.
type FormattedValue struct {
	Value      Node
	Conversion rune
	Spec       Node
	Loc
}

func (Module) node()         {}
func (Name) node()           {}
func (Attribute) node()      {}
func (Subscript) node()      {}
func (Call) node()           {}
func (Keyword) node()        {}
func (Starred) node()        {}
func (Const) node()          {}
func (Ellipsis) node()       {}
func (ListLit) node()        {}
func (TupleLit) node()       {}
func (SetLit) node()         {}
func (DictLit) node()        {}
func (JoinedStr) node()      {}
func (FormattedValue) node() {}

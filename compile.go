package slip

import (
	"io"
	"strings"

	"github.com/slip-lang/slip/ast"
)

// A Compiler drives the front end: it reads models, expands macros to a
// fixed point, and lowers the results to host syntax. A Compiler is not
// safe for concurrent use.
type Compiler struct {
	// NS is the namespace macros are resolved in and defmacro installs
	// into.
	NS *Namespace
	// Eval runs embedded code: unquote arguments and defmacro bodies.
	Eval Evaluator
	// Opts configures the readers the compiler creates.
	Opts Options

	steps int
}

// NewCompiler creates a compiler with a fresh namespace and the default
// evaluator.
func NewCompiler() *Compiler {
	c := &Compiler{NS: NewNamespace()}
	c.Eval = newBasicEval(c)
	return c
}

// CompileString compiles every top-level form in text into a host module.
func (c *Compiler) CompileString(text string) (*ast.Module, error) {
	return c.CompileReader(NewReader(strings.NewReader(text), c.NS, c.Opts))
}

// CompileReader compiles every remaining top-level form from r.
func (c *Compiler) CompileReader(r *Reader) (*ast.Module, error) {
	var body []ast.Node
	mod := &ast.Module{}
	for {
		m, err := r.ReadOne()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		n, err := c.CompileForm(m)
		if err != nil {
			return nil, err
		}
		if len(body) == 0 {
			mod.Start, _ = astLoc(m).Span()
		}
		_, mod.End = astLoc(m).Span()
		body = append(body, n)
	}
	if len(body) == 0 {
		mod.Loc = ast.Loc{Start: astPos(FallbackPos), End: astPos(FallbackPos)}
	}
	mod.Body = body
	return mod, nil
}

// CompileForm expands one form to a fixed point and lowers it.
func (c *Compiler) CompileForm(m Model) (ast.Node, error) {
	c.steps = 0
	m, err := c.expand(m)
	if err != nil {
		return nil, err
	}
	m = EnsurePos(m)
	return c.lowerExpanded(m)
}

// lower expands m in context, then lowers it. Every subform of a compiled
// tree passes through here, so macro calls in argument position expand
// too.
func (c *Compiler) lower(m Model) (ast.Node, error) {
	m, err := c.expand(m)
	if err != nil {
		return nil, err
	}
	return c.lowerExpanded(m)
}

func (c *Compiler) lowerExpanded(m Model) (ast.Node, error) {
	switch m := m.(type) {
	case Symbol:
		switch m.Text {
		case "nil":
			return ast.Const{Loc: astLoc(m)}, nil
		case "true":
			return ast.Const{Value: true, Loc: astLoc(m)}, nil
		case "false":
			return ast.Const{Value: false, Loc: astLoc(m)}, nil
		case Ellipsis:
			return ast.Ellipsis{Loc: astLoc(m)}, nil
		}
		return ast.Name{Ident: Mangle(m.Text), Loc: astLoc(m)}, nil
	case Keyword:
		return ast.Const{Value: m, Loc: astLoc(m)}, nil
	case String:
		return ast.Const{Value: m.Value, Loc: astLoc(m)}, nil
	case Bytes:
		return ast.Const{Value: m.Value, Loc: astLoc(m)}, nil
	case Integer:
		return ast.Const{Value: m.Value, Loc: astLoc(m)}, nil
	case Float:
		return ast.Const{Value: m.Value, Loc: astLoc(m)}, nil
	case Complex:
		return ast.Const{Value: m.Value, Loc: astLoc(m)}, nil
	case List:
		elts, err := c.lowerElts(m.Items, "list")
		if err != nil {
			return nil, err
		}
		return ast.ListLit{Elts: elts, Loc: astLoc(m)}, nil
	case Tuple:
		elts, err := c.lowerElts(m.Items, "tuple")
		if err != nil {
			return nil, err
		}
		return ast.TupleLit{Elts: elts, Loc: astLoc(m)}, nil
	case Set:
		elts, err := c.lowerElts(m.Items, "set")
		if err != nil {
			return nil, err
		}
		return ast.SetLit{Elts: elts, Loc: astLoc(m)}, nil
	case Dict:
		return c.lowerDict(m)
	case FString:
		return c.lowerFString(m)
	case Expression:
		return c.lowerExpression(m)
	}
	return nil, syntaxErrorf(m.Pos(), "cannot compile %T outside a format string", m)
}

func (c *Compiler) lowerExpression(e Expression) (ast.Node, error) {
	if len(e.Items) == 0 {
		return nil, syntaxErrorf(e.Pos(), "empty expression")
	}
	if head, ok := e.Items[0].(Symbol); ok {
		switch head.Text {
		case "quote":
			if len(e.Items) != 2 {
				return nil, syntaxErrorf(e.Pos(), "quote takes one argument")
			}
			return ast.Const{Value: EnsurePos(e.Items[1]), Loc: astLoc(e)}, nil
		case "unquote", "unquote-splice":
			return nil, syntaxErrorf(e.Pos(), "%s outside quasiquote", head.Text)
		case ".":
			return c.lowerDotted(e)
		case "unpack-iterable", "unpack-mapping":
			return nil, syntaxErrorf(e.Pos(), "%s is only allowed in calls and collection literals", head.Text)
		}
	}
	if head, ok := e.Items[0].(Keyword); ok {
		if len(e.Items) < 2 || len(e.Items) > 3 {
			return nil, syntaxErrorf(e.Pos(), "a keyword call takes an object and optionally a default")
		}
		obj, err := c.lower(e.Items[1])
		if err != nil {
			return nil, err
		}
		kw := ast.Const{Value: head, Loc: astLoc(head)}
		if len(e.Items) == 3 {
			// With a default the lookup must fall back at run time, so
			// the keyword lowers as a callable instead of a subscript.
			dflt, err := c.lower(e.Items[2])
			if err != nil {
				return nil, err
			}
			return ast.Call{Fun: kw, Args: []ast.Node{obj, dflt}, Loc: astLoc(e)}, nil
		}
		return ast.Subscript{Value: obj, Index: kw, Loc: astLoc(e)}, nil
	}
	return c.lowerCall(e)
}

// lowerDotted compiles a dotted-identifier expression into a chain of
// attribute accesses.
func (c *Compiler) lowerDotted(e Expression) (ast.Node, error) {
	if len(e.Items) < 2 {
		return nil, syntaxErrorf(e.Pos(), "dotted expression needs a target")
	}
	node, err := c.lower(e.Items[1])
	if err != nil {
		return nil, err
	}
	for _, it := range e.Items[2:] {
		comp, ok := it.(Symbol)
		if !ok {
			return nil, syntaxErrorf(it.Pos(), "attribute name must be a symbol")
		}
		node = ast.Attribute{Value: node, Attr: Mangle(comp.Text), Loc: astLoc(e)}
	}
	return node, nil
}

func (c *Compiler) lowerCall(e Expression) (ast.Node, error) {
	fun, err := c.lower(e.Items[0])
	if err != nil {
		return nil, err
	}
	items := e.Items[1:]
	args := make([]ast.Node, 0, len(items))
	for i := 0; i < len(items); i++ {
		it := items[i]
		if arg, double, ok := unpackForm(it); ok {
			v, err := c.lower(arg)
			if err != nil {
				return nil, err
			}
			args = append(args, ast.Starred{Value: v, Double: double, Loc: astLoc(it)})
			continue
		}
		if kw, ok := it.(Keyword); ok {
			if i+1 == len(items) {
				return nil, syntaxErrorf(it.Pos(), "keyword argument :%s has no value", kw.Name)
			}
			v, err := c.lower(items[i+1])
			if err != nil {
				return nil, err
			}
			args = append(args, ast.Keyword{Name: Mangle(kw.Name), Value: v, Loc: astLoc(it)})
			i++
			continue
		}
		v, err := c.lower(it)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return ast.Call{Fun: fun, Args: args, Loc: astLoc(e)}, nil
}

// lowerElts compiles collection elements, allowing iterable unpacking but
// not mapping unpacking.
func (c *Compiler) lowerElts(items []Model, inside string) ([]ast.Node, error) {
	elts := make([]ast.Node, 0, len(items))
	for _, it := range items {
		if arg, double, ok := unpackForm(it); ok {
			if double {
				return nil, syntaxErrorf(it.Pos(), "mapping unpack is not allowed in a %s literal", inside)
			}
			v, err := c.lower(arg)
			if err != nil {
				return nil, err
			}
			elts = append(elts, ast.Starred{Value: v, Loc: astLoc(it)})
			continue
		}
		v, err := c.lower(it)
		if err != nil {
			return nil, err
		}
		elts = append(elts, v)
	}
	return elts, nil
}

func (c *Compiler) lowerDict(d Dict) (ast.Node, error) {
	out := ast.DictLit{Loc: astLoc(d)}
	for i := 0; i < len(d.Items); i++ {
		it := d.Items[i]
		if arg, double, ok := unpackForm(it); ok {
			if !double {
				return nil, syntaxErrorf(it.Pos(), "iterable unpack is not allowed in a dict literal")
			}
			v, err := c.lower(arg)
			if err != nil {
				return nil, err
			}
			out.Keys = append(out.Keys, nil)
			out.Values = append(out.Values, v)
			continue
		}
		if i+1 == len(d.Items) {
			return nil, syntaxErrorf(d.Pos(), "dict literal has a key with no value")
		}
		k, err := c.lower(it)
		if err != nil {
			return nil, err
		}
		v, err := c.lower(d.Items[i+1])
		if err != nil {
			return nil, err
		}
		out.Keys = append(out.Keys, k)
		out.Values = append(out.Values, v)
		i++
	}
	return out, nil
}

func (c *Compiler) lowerFString(fs FString) (ast.Node, error) {
	out := ast.JoinedStr{Loc: astLoc(fs)}
	for _, it := range fs.Items {
		switch it := it.(type) {
		case String:
			out.Parts = append(out.Parts, ast.Const{Value: it.Value, Loc: astLoc(it)})
		case FComponent:
			v, err := c.lower(it.Value)
			if err != nil {
				return nil, err
			}
			fv := ast.FormattedValue{Value: v, Conversion: it.Conversion, Loc: astLoc(it)}
			if it.Spec != nil {
				spec, ok := it.Spec.(FString)
				if !ok {
					return nil, syntaxErrorf(it.Pos(), "format spec must be a format string")
				}
				s, err := c.lowerFString(spec)
				if err != nil {
					return nil, err
				}
				fv.Spec = s
			}
			out.Parts = append(out.Parts, fv)
		default:
			return nil, syntaxErrorf(it.Pos(), "invalid format string part %T", it)
		}
	}
	return out, nil
}

// unpackForm matches the #* and #** sugar expressions.
func unpackForm(m Model) (arg Model, double, ok bool) {
	e, isExpr := m.(Expression)
	if !isExpr || len(e.Items) != 2 {
		return nil, false, false
	}
	head, isSym := e.Items[0].(Symbol)
	if !isSym {
		return nil, false, false
	}
	switch head.Text {
	case "unpack-iterable":
		return e.Items[1], false, true
	case "unpack-mapping":
		return e.Items[1], true, true
	}
	return nil, false, false
}

func astPos(p Position) ast.Pos {
	return ast.Pos{Line: p.Line, Col: p.Col}
}

// astLoc maps a model's span to host location metadata, substituting
// FallbackPos for anything still unknown.
func astLoc(m Model) ast.Loc {
	s, e := m.Pos(), m.End()
	if s.IsZero() {
		s = FallbackPos
	}
	if e.IsZero() {
		e = s
	}
	return ast.Loc{Start: astPos(s), End: astPos(e)}
}

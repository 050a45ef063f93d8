package slip

import (
	"fmt"
	"sync/atomic"
)

// MaxExpansionSteps bounds the number of macro expansions performed for a
// single top-level form. A recursive macro that never converges trips the
// bound and reports an error instead of hanging the compiler.
const MaxExpansionSteps = 1024

var gensymCounter uint64

// Gensym returns a fresh symbol that no reader-produced symbol can collide
// with. Macros use it for bindings introduced into expansions.
func Gensym(prefix string) Symbol {
	n := atomic.AddUint64(&gensymCounter, 1)
	return Symbol{Text: fmt.Sprintf("_slip_%s_%d", prefix, n)}
}

// Macroexpand expands m to a fixed point: as long as the result is a macro
// call, it is expanded again. Only the head position is expanded;
// arguments of the final form are left as written, since lowering expands
// them in context.
func (c *Compiler) Macroexpand(m Model) (Model, error) {
	c.steps = 0
	return c.expand(m)
}

func (c *Compiler) expand(m Model) (Model, error) {
	for {
		next, expanded, err := c.Macroexpand1(m)
		if err != nil {
			return nil, err
		}
		if !expanded {
			return next, nil
		}
		c.steps++
		if c.steps > MaxExpansionSteps {
			return nil, &MacroError{
				Macro: macroName(m),
				Pos:   m.Pos(),
				Err:   fmt.Errorf("expansion did not converge within %d steps", MaxExpansionSteps),
			}
		}
		m = next
	}
}

func macroName(m Model) string {
	if e, ok := m.(Expression); ok && len(e.Items) > 0 {
		if s, ok := e.Items[0].(Symbol); ok {
			return s.Text
		}
	}
	return "macro"
}

// Macroexpand1 performs at most one expansion step. The second result
// reports whether anything happened; when it is false, m is returned
// unchanged and is not a macro call.
func (c *Compiler) Macroexpand1(m Model) (Model, bool, error) {
	e, ok := m.(Expression)
	if !ok || len(e.Items) == 0 {
		return m, false, nil
	}
	head, ok := e.Items[0].(Symbol)
	if !ok {
		return m, false, nil
	}
	switch head.Text {
	case "quote", "unquote", "unquote-splice":
		// Quote shields its argument, and stray unquotes are reported
		// during lowering with their position intact.
		return m, false, nil
	case "quasiquote":
		if len(e.Items) != 2 {
			return nil, false, syntaxErrorf(e.Pos(), "quasiquote takes one argument")
		}
		out, err := c.quasiquote(e.Items[1], 1, nil)
		if err != nil {
			return nil, false, &MacroError{Macro: "quasiquote", Pos: e.Pos(), Err: err}
		}
		quoted := NewExpression(Symbol{Text: "quote"}, out)
		return Replace(quoted, e), true, nil
	}
	macro, ok := c.NS.Lookup(head.Text)
	if !ok {
		return m, false, nil
	}
	v, err := macro(c, e.Items[1:])
	if err != nil {
		if _, ok := err.(*MacroError); ok {
			return nil, false, err
		}
		return nil, false, &MacroError{Macro: head.Text, Pos: e.Pos(), Err: err}
	}
	out, err := AsModel(v)
	if err != nil {
		return nil, false, &MacroError{Macro: head.Text, Pos: e.Pos(), Err: err}
	}
	return Replace(out, e), true, nil
}

// quasiquote instantiates a template. depth counts enclosing quasiquotes;
// an unquote at depth one evaluates its argument and substitutes the
// result, while deeper unquotes are rebuilt with their own arguments
// templated one level shallower. ev selects the evaluator for embedded
// code; nil means the compiler's.
func (c *Compiler) quasiquote(m Model, depth int, ev Evaluator) (Model, error) {
	seq, ok := m.(Sequence)
	if !ok {
		if fc, ok := m.(FComponent); ok {
			return c.quasiquoteComponent(fc, depth, ev)
		}
		return m, nil
	}
	if name, arg, ok := taggedForm(seq); ok {
		switch name {
		case "unquote":
			if depth == 1 {
				return c.substitute(arg, ev)
			}
			return c.requote(seq, name, arg, depth-1, ev)
		case "unquote-splice":
			if depth == 1 {
				return nil, syntaxErrorf(m.Pos(), "unquote-splice is only allowed inside a sequence")
			}
			return c.requote(seq, name, arg, depth-1, ev)
		case "quasiquote":
			return c.requote(seq, name, arg, depth+1, ev)
		}
	}
	kids := seq.Children()
	out := make([]Model, 0, len(kids))
	for _, kid := range kids {
		if name, arg, ok := taggedForm(kid); ok && name == "unquote-splice" && depth == 1 {
			elems, err := c.splice(arg, ev)
			if err != nil {
				return nil, err
			}
			out = append(out, elems...)
			continue
		}
		q, err := c.quasiquote(kid, depth, ev)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return seq.withChildren(out), nil
}

func (c *Compiler) quasiquoteComponent(fc FComponent, depth int, ev Evaluator) (Model, error) {
	v, err := c.quasiquote(fc.Value, depth, ev)
	if err != nil {
		return nil, err
	}
	fc.Value = v
	if fc.Spec != nil {
		s, err := c.quasiquote(fc.Spec, depth, ev)
		if err != nil {
			return nil, err
		}
		fc.Spec = s
	}
	return fc, nil
}

// taggedForm matches a two-element expression headed by a quoting symbol.
func taggedForm(m Model) (name string, arg Model, ok bool) {
	e, isExpr := m.(Expression)
	if !isExpr || len(e.Items) != 2 {
		return "", nil, false
	}
	head, isSym := e.Items[0].(Symbol)
	if !isSym {
		return "", nil, false
	}
	switch head.Text {
	case "unquote", "unquote-splice", "quasiquote":
		return head.Text, e.Items[1], true
	}
	return "", nil, false
}

// requote rebuilds a nested quoting form around its templated argument,
// keeping the original spans.
func (c *Compiler) requote(seq Sequence, name string, arg Model, depth int, ev Evaluator) (Model, error) {
	inner, err := c.quasiquote(arg, depth, ev)
	if err != nil {
		return nil, err
	}
	e := seq.(Expression)
	return e.withChildren([]Model{e.Items[0], inner}), nil
}

// substitute evaluates an unquote argument and promotes the result to a
// model.
func (c *Compiler) substitute(arg Model, ev Evaluator) (Model, error) {
	v, err := c.evalEmbedded(arg, ev)
	if err != nil {
		return nil, err
	}
	m, err := AsModel(v)
	if err != nil {
		return nil, err
	}
	return Replace(m, arg), nil
}

// splice evaluates an unquote-splice argument and flattens the result into
// sequence elements. A falsy result splices zero elements; a string splices
// one single-character string per rune.
func (c *Compiler) splice(arg Model, ev Evaluator) ([]Model, error) {
	v, err := c.evalEmbedded(arg, ev)
	if err != nil {
		return nil, err
	}
	if isFalsy(v) {
		return nil, nil
	}
	var raw []interface{}
	switch v := v.(type) {
	case []interface{}:
		raw = v
	case string:
		out := make([]Model, 0, len(v))
		for _, ch := range v {
			out = append(out, Replace(String{Value: string(ch)}, arg))
		}
		return out, nil
	case []Model:
		out := make([]Model, len(v))
		for i, m := range v {
			out[i] = Replace(m, arg)
		}
		return out, nil
	case Sequence:
		kids := v.Children()
		out := make([]Model, len(kids))
		for i, m := range kids {
			out[i] = Replace(m, arg)
		}
		return out, nil
	default:
		return nil, syntaxErrorf(arg.Pos(), "cannot splice %T into a sequence", v)
	}
	out := make([]Model, len(raw))
	for i, e := range raw {
		m, err := AsModel(e)
		if err != nil {
			return nil, err
		}
		out[i] = Replace(m, arg)
	}
	return out, nil
}

func (c *Compiler) evalEmbedded(arg Model, ev Evaluator) (interface{}, error) {
	if ev == nil {
		ev = c.Eval
	}
	if ev == nil {
		return nil, syntaxErrorf(arg.Pos(), "no evaluator is available for embedded code")
	}
	return ev.Eval(arg)
}

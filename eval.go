package slip

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/nukata/goarith"
)

// An Evaluator runs embedded code at compile time. The expander calls it
// for unquote arguments inside quasiquote templates and for the bodies of
// macros defined with defmacro. Eval returns a host value, which the
// expander coerces to a model with AsModel.
//
// Embedders with a full runtime should provide their own; the default from
// NewCompiler understands literals, a small set of builtins, and the
// special forms quote, quasiquote, if, and do.
type Evaluator interface {
	Eval(m Model) (interface{}, error)
	// Bind returns a derived evaluator with name bound to value. The
	// receiver is unchanged.
	Bind(name string, value interface{}) Evaluator
}

// evalFn is a host function callable from embedded code.
type evalFn func(args []interface{}) (interface{}, error)

// basicEval is the default compile-time evaluator.
type basicEval struct {
	c   *Compiler
	env map[string]interface{}
}

func newBasicEval(c *Compiler) *basicEval {
	return &basicEval{c: c, env: make(map[string]interface{})}
}

func (ev *basicEval) Bind(name string, value interface{}) Evaluator {
	env := make(map[string]interface{}, len(ev.env)+1)
	for k, v := range ev.env {
		env[k] = v
	}
	env[name] = value
	return &basicEval{c: ev.c, env: env}
}

func (ev *basicEval) Eval(m Model) (interface{}, error) {
	switch m := m.(type) {
	case Symbol:
		switch m.Text {
		case "nil":
			return nil, nil
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		if v, ok := ev.env[m.Text]; ok {
			return v, nil
		}
		return nil, fmt.Errorf("unbound symbol %s", m.Text)
	case Keyword:
		return m, nil
	case String:
		return m.Value, nil
	case Bytes:
		return m.Value, nil
	case Integer:
		return m.Value, nil
	case Float:
		return m.Value, nil
	case Complex:
		return m.Value, nil
	case List:
		return ev.evalItems(m.Items)
	case Tuple:
		return ev.evalItems(m.Items)
	case Set:
		return ev.evalItems(m.Items)
	case Dict:
		if len(m.Items)%2 != 0 {
			return nil, syntaxErrorf(m.Pos(), "dict literal has a key with no value")
		}
		out := make(map[interface{}]interface{}, len(m.Items)/2)
		for i := 0; i < len(m.Items); i += 2 {
			k, err := ev.Eval(m.Items[i])
			if err != nil {
				return nil, err
			}
			v, err := ev.Eval(m.Items[i+1])
			if err != nil {
				return nil, err
			}
			out[evalKey(k)] = v
		}
		return out, nil
	case FString:
		var b strings.Builder
		for _, it := range m.Items {
			switch it := it.(type) {
			case String:
				b.WriteString(it.Value)
			case FComponent:
				v, err := ev.Eval(it.Value)
				if err != nil {
					return nil, err
				}
				fmt.Fprint(&b, v)
			}
		}
		return b.String(), nil
	case Expression:
		return ev.evalCall(m)
	}
	return nil, fmt.Errorf("cannot evaluate %T", m)
}

// evalKey turns an evaluated dict key into something hashable.
func evalKey(k interface{}) interface{} {
	switch k := k.(type) {
	case *big.Int:
		return k.String()
	case []byte:
		return string(k)
	case []interface{}:
		return fmt.Sprint(k)
	case map[interface{}]interface{}:
		return fmt.Sprint(k)
	}
	return k
}

func (ev *basicEval) evalItems(items []Model) ([]interface{}, error) {
	out := make([]interface{}, len(items))
	for i, it := range items {
		v, err := ev.Eval(it)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (ev *basicEval) evalCall(e Expression) (interface{}, error) {
	if len(e.Items) == 0 {
		return nil, syntaxErrorf(e.Pos(), "cannot evaluate an empty expression")
	}
	head, ok := e.Items[0].(Symbol)
	if !ok {
		return nil, fmt.Errorf("cannot call %s", e.Items[0])
	}
	args := e.Items[1:]
	switch head.Text {
	case "quote":
		if len(args) != 1 {
			return nil, syntaxErrorf(e.Pos(), "quote takes one argument")
		}
		return args[0], nil
	case "quasiquote":
		if len(args) != 1 {
			return nil, syntaxErrorf(e.Pos(), "quasiquote takes one argument")
		}
		return ev.c.quasiquote(args[0], 1, ev)
	case "if":
		if len(args) < 2 || len(args) > 3 {
			return nil, syntaxErrorf(e.Pos(), "if takes a test, a then, and optionally an else")
		}
		test, err := ev.Eval(args[0])
		if err != nil {
			return nil, err
		}
		if !isFalsy(test) {
			return ev.Eval(args[1])
		}
		if len(args) == 3 {
			return ev.Eval(args[2])
		}
		return nil, nil
	case "do":
		var last interface{}
		for _, a := range args {
			v, err := ev.Eval(a)
			if err != nil {
				return nil, err
			}
			last = v
		}
		return last, nil
	}
	var fn evalFn
	if v, ok := ev.env[head.Text]; ok {
		fn, ok = v.(evalFn)
		if !ok {
			return nil, fmt.Errorf("%s is not callable", head.Text)
		}
	} else if fn, ok = evalBuiltins[head.Text]; !ok {
		return nil, fmt.Errorf("unbound function %s", head.Text)
	}
	vals, err := ev.evalItems(args)
	if err != nil {
		return nil, err
	}
	return fn(vals)
}

var evalBuiltins map[string]evalFn

func init() {
	evalBuiltins = map[string]evalFn{
		"+":      evalSum,
		"-":      evalDiff,
		"*":      evalProd,
		"=":      evalCompare(func(c int) bool { return c == 0 }),
		"<":      evalCompare(func(c int) bool { return c < 0 }),
		">":      evalCompare(func(c int) bool { return c > 0 }),
		"<=":     evalCompare(func(c int) bool { return c <= 0 }),
		">=":     evalCompare(func(c int) bool { return c >= 0 }),
		"not":    func(args []interface{}) (interface{}, error) { return len(args) == 1 && isFalsy(args[0]), nil },
		"list":   func(args []interface{}) (interface{}, error) { return args, nil },
		"str":    evalStr,
		"gensym": evalGensym,
		"count":  evalCount,
		"first":  evalFirst,
		"rest":   evalRest,
	}
}

func asNumber(v interface{}) (goarith.Number, error) {
	if n := goarith.AsNumber(v); n != nil {
		return n, nil
	}
	switch v := v.(type) {
	case Integer:
		return goarith.AsNumber(v.Value), nil
	case Float:
		return goarith.AsNumber(v.Value), nil
	}
	return nil, fmt.Errorf("%v is not a number", v)
}

func evalSum(args []interface{}) (interface{}, error) {
	acc := goarith.AsNumber(big.NewInt(0))
	for _, a := range args {
		n, err := asNumber(a)
		if err != nil {
			return nil, err
		}
		acc = acc.Add(n)
	}
	return acc, nil
}

func evalDiff(args []interface{}) (interface{}, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("- needs at least one argument")
	}
	acc, err := asNumber(args[0])
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		return goarith.AsNumber(big.NewInt(0)).Sub(acc), nil
	}
	for _, a := range args[1:] {
		n, err := asNumber(a)
		if err != nil {
			return nil, err
		}
		acc = acc.Sub(n)
	}
	return acc, nil
}

func evalProd(args []interface{}) (interface{}, error) {
	acc := goarith.AsNumber(big.NewInt(1))
	for _, a := range args {
		n, err := asNumber(a)
		if err != nil {
			return nil, err
		}
		acc = acc.Mul(n)
	}
	return acc, nil
}

func evalCompare(ok func(int) bool) evalFn {
	return func(args []interface{}) (interface{}, error) {
		if len(args) < 2 {
			return nil, fmt.Errorf("comparison needs at least two arguments")
		}
		prev, err := asNumber(args[0])
		if err != nil {
			return nil, err
		}
		for _, a := range args[1:] {
			n, err := asNumber(a)
			if err != nil {
				return nil, err
			}
			if !ok(prev.Cmp(n)) {
				return false, nil
			}
			prev = n
		}
		return true, nil
	}
}

func evalStr(args []interface{}) (interface{}, error) {
	var b strings.Builder
	for _, a := range args {
		fmt.Fprint(&b, a)
	}
	return b.String(), nil
}

func evalGensym(args []interface{}) (interface{}, error) {
	prefix := "g"
	if len(args) > 0 {
		switch a := args[0].(type) {
		case string:
			prefix = a
		case Symbol:
			prefix = a.Text
		}
	}
	return Gensym(prefix), nil
}

func evalCount(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("count takes one argument")
	}
	switch a := args[0].(type) {
	case string:
		return goarith.AsNumber(int64(len(a))), nil
	case []interface{}:
		return goarith.AsNumber(int64(len(a))), nil
	case Sequence:
		return goarith.AsNumber(int64(len(a.Children()))), nil
	}
	return nil, fmt.Errorf("count of %T", args[0])
}

func evalFirst(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("first takes one argument")
	}
	switch a := args[0].(type) {
	case []interface{}:
		if len(a) == 0 {
			return nil, nil
		}
		return a[0], nil
	case Sequence:
		kids := a.Children()
		if len(kids) == 0 {
			return nil, nil
		}
		return kids[0], nil
	}
	return nil, fmt.Errorf("first of %T", args[0])
}

func evalRest(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("rest takes one argument")
	}
	switch a := args[0].(type) {
	case []interface{}:
		if len(a) == 0 {
			return []interface{}{}, nil
		}
		return a[1:], nil
	case Sequence:
		kids := a.Children()
		if len(kids) == 0 {
			return a.withChildren(nil), nil
		}
		return a.withChildren(kids[1:]), nil
	}
	return nil, fmt.Errorf("rest of %T", args[0])
}

// isFalsy reports whether an evaluated value counts as false for control
// flow and for splicing: nil, false, numeric zero, and empty strings,
// slices, and sequence models.
func isFalsy(v interface{}) bool {
	switch v := v.(type) {
	case nil:
		return true
	case bool:
		return !v
	case string:
		return v == ""
	case []byte:
		return len(v) == 0
	case []interface{}:
		return len(v) == 0
	case []Model:
		return len(v) == 0
	case Symbol:
		return v.Text == "nil" || v.Text == "false"
	case Integer:
		return v.Value.Sign() == 0
	case Float:
		return v.Value == 0
	case Complex:
		return v.Value == 0
	case Sequence:
		return len(v.Children()) == 0
	case map[interface{}]interface{}:
		return len(v) == 0
	}
	if n := goarith.AsNumber(v); n != nil {
		return n.Cmp(goarith.AsNumber(big.NewInt(0))) == 0
	}
	return false
}

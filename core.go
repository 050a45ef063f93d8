package slip

import "fmt"

// coreMacros builds the fixed core tier. The quoting forms appear here as
// reserved markers so that shadowing them warns; the expander recognizes
// them by name before lookup, so their bodies only run if called in a way
// the expander does not understand.
func coreMacros() map[string]Macro {
	macros := map[string]Macro{}
	define := func(name string, m Macro) {
		macros[Mangle(name)] = m
	}
	for _, name := range []string{"quote", "quasiquote", "unquote", "unquote-splice"} {
		name := name
		define(name, func(c *Compiler, args []Model) (interface{}, error) {
			return nil, fmt.Errorf("%s is a special form", name)
		})
	}
	define("when", macroWhen)
	define("unless", macroUnless)
	define("->", macroThreadFirst)
	define("->>", macroThreadLast)
	define("defmacro", macroDefmacro)
	return macros
}

// macroWhen expands (when test body ...) into a conditional around a do
// block.
func macroWhen(c *Compiler, args []Model) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("when needs a test")
	}
	body := append([]Model{Symbol{Text: "do"}}, args[1:]...)
	return NewExpression(Symbol{Text: "if"}, args[0], Expression{Items: body}), nil
}

// macroUnless is when with the branches swapped.
func macroUnless(c *Compiler, args []Model) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("unless needs a test")
	}
	body := append([]Model{Symbol{Text: "do"}}, args[1:]...)
	return NewExpression(Symbol{Text: "if"}, args[0], Symbol{Text: "nil"}, Expression{Items: body}), nil
}

// macroThreadFirst threads a value through forms as their first argument.
func macroThreadFirst(c *Compiler, args []Model) (interface{}, error) {
	return thread(args, false)
}

// macroThreadLast threads a value through forms as their last argument.
func macroThreadLast(c *Compiler, args []Model) (interface{}, error) {
	return thread(args, true)
}

func thread(args []Model, last bool) (interface{}, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("threading needs a value")
	}
	acc := args[0]
	for _, form := range args[1:] {
		e, ok := form.(Expression)
		if !ok {
			acc = NewExpression(form, acc)
			continue
		}
		if len(e.Items) == 0 {
			return nil, fmt.Errorf("cannot thread through an empty expression")
		}
		var items []Model
		if last {
			items = append(append(items, e.Items...), acc)
		} else {
			items = append(append(append(items, e.Items[0]), acc), e.Items[1:]...)
		}
		acc = e.withChildren(items)
	}
	return acc, nil
}

// macroDefmacro installs a macro whose body runs in the compiler's
// evaluator. Parameters bind to the unexpanded argument models; a #*
// parameter collects the remaining arguments as a list.
func macroDefmacro(c *Compiler, args []Model) (interface{}, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("defmacro needs a name and a parameter list")
	}
	name, ok := args[0].(Symbol)
	if !ok {
		return nil, fmt.Errorf("macro name must be a symbol")
	}
	params, ok := args[1].(List)
	if !ok {
		return nil, fmt.Errorf("macro parameters must be a list")
	}
	var fixed []string
	rest := ""
	for _, p := range params.Items {
		if arg, double, isUnpack := unpackForm(p); isUnpack {
			sym, isSym := arg.(Symbol)
			if double || !isSym || rest != "" {
				return nil, fmt.Errorf("invalid macro parameter %s", p)
			}
			rest = sym.Text
			continue
		}
		sym, isSym := p.(Symbol)
		if !isSym || rest != "" {
			return nil, fmt.Errorf("invalid macro parameter %s", p)
		}
		fixed = append(fixed, sym.Text)
	}
	body := args[2:]
	c.NS.Define(name.Text, func(mc *Compiler, margs []Model) (interface{}, error) {
		if mc.Eval == nil {
			return nil, fmt.Errorf("no evaluator is available to run %s", name.Text)
		}
		if len(margs) < len(fixed) || (rest == "" && len(margs) > len(fixed)) {
			return nil, fmt.Errorf("%s takes %d arguments, got %d", name.Text, len(fixed), len(margs))
		}
		ev := mc.Eval
		for i, p := range fixed {
			ev = ev.Bind(p, margs[i])
		}
		if rest != "" {
			ev = ev.Bind(rest, List{Items: margs[len(fixed):]})
		}
		var result interface{}
		for _, form := range body {
			v, err := ev.Eval(form)
			if err != nil {
				return nil, err
			}
			result = v
		}
		return result, nil
	})
	return nil, nil
}

/*
Package slip implements the front end of the Slip programming language.

Slip is a Lisp whose programs compile to a host abstract syntax tree rather
than to a bytecode of its own. The front end has three stages. The reader
turns source text into models, which are immutable, position-tagged syntax
objects. The macro expander rewrites models by running compile-time code,
including the quasiquote templating operators. The compiler lowers the final
models into the target AST defined in the ast subpackage.

The package is designed to be embedded. Create a Compiler with NewCompiler,
register any macros and reader macros on its namespace in the NS field,
then use CompileString or CompileReader to process source text:

	c := slip.NewCompiler()
	mod, err := c.CompileString(`(print "Hello, world!")`)

Reading, expansion, and lowering are also available separately, as ReadOne
and ReadString, Macroexpand and Macroexpand1, and CompileForm, for callers
such as import hooks and REPLs that need to drive the pipeline themselves.
A reader that runs out of input in the middle of a form returns an error
satisfying IsPrematureEOF, which interactive callers can treat as a request
for more text rather than a failure.

Macros are Go functions of type Macro. They receive their argument models
unexpanded and return a replacement model, which is expanded again until a
fixed point. Reader macros are functions of type ReaderMacro; they are
invoked by the reader when it encounters #name and may consume raw text
through the reader's cursor. The defmacro core macro additionally lets
Slip source define macros in terms of the compile-time evaluator.

Identifiers are mangled into host-legal names with Mangle, a total function
from arbitrary identifier text. Unmangle is its best-effort inverse.
*/
package slip

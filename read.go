package slip

import (
	"errors"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode"
)

// The reader splits on this fixed set of structural delimiters and on ASCII
// whitespace; everything else accumulates into an identifier candidate.
const (
	structuralDelims = `()[]{}";`
	asciiSpace       = " \t\n\r\f\v"
)

func isSpace(r rune) bool {
	return strings.ContainsRune(asciiSpace, r)
}

func isDelim(r rune) bool {
	return strings.ContainsRune(structuralDelims, r)
}

func identRune(r rune) bool {
	return !isSpace(r) && !isDelim(r)
}

// Options configures reading.
type Options struct {
	// SkipShebang skips a leading #! directive line before the first form.
	SkipShebang bool
}

// A Reader reads models from a stream of source text, one top-level form
// per call. Reading is lazy and not restartable mid-stream. The reader
// consults its namespace's reader-macro table at every #name dispatch.
type Reader struct {
	cur     *Cursor
	ns      *Namespace
	opts    Options
	started bool
}

// NewReader creates a Reader over src using ns for reader-macro lookup.
func NewReader(src io.Reader, ns *Namespace, opts Options) *Reader {
	return &Reader{cur: NewCursor(src), ns: ns, opts: opts}
}

// Cursor returns the reader's cursor, which reader macros share with the
// reader itself.
func (r *Reader) Cursor() *Cursor {
	return r.cur
}

// Namespace returns the namespace the reader resolves reader macros in.
func (r *Reader) Namespace() *Namespace {
	return r.ns
}

// ReadString reads every top-level form in text.
func ReadString(text string, ns *Namespace, opts Options) ([]Model, error) {
	return NewReader(strings.NewReader(text), ns, opts).ReadAll()
}

// ReadOneString reads a single form from text.
func ReadOneString(text string, ns *Namespace) (Model, error) {
	return NewReader(strings.NewReader(text), ns, Options{}).ReadOne()
}

// ReadAll reads the remaining top-level forms.
func (r *Reader) ReadAll() ([]Model, error) {
	var forms []Model
	for {
		m, err := r.ReadOne()
		if err == io.EOF {
			return forms, nil
		}
		if err != nil {
			return forms, err
		}
		forms = append(forms, m)
	}
}

// ReadOne reads one top-level form. It returns io.EOF once input is
// cleanly exhausted. Input ending inside a form is reported as a
// PrematureEOF instead.
func (r *Reader) ReadOne() (Model, error) {
	if !r.started {
		r.started = true
		if r.opts.SkipShebang {
			if err := r.skipShebang(); err != nil && err != io.EOF {
				return nil, err
			}
		}
	}
	return r.form()
}

// skipShebang discards a leading #! directive line. The two-character
// lookahead leaves a bare # dispatch form untouched.
func (r *Reader) skipShebang() error {
	if !r.cur.Lookahead("#!") {
		return nil
	}
	_, err := r.cur.TakeWhile(func(c rune) bool { return c != '\n' })
	return err
}

// errDiscarded signals that a #_ prefix consumed a form.
var errDiscarded = errors.New("form discarded")

// form reads the next form. It returns io.EOF on clean end of input.
func (r *Reader) form() (Model, error) {
	for {
		if err := r.skipSpace(); err != nil {
			return nil, err
		}
		start := r.cur.Pos()
		ch, err := r.cur.Next()
		if err != nil {
			return nil, err
		}
		m, err := r.dispatch(ch, start)
		if err == errDiscarded {
			continue
		}
		return m, err
	}
}

// skipSpace consumes whitespace and comments. Comments run from a semicolon
// to end of line.
func (r *Reader) skipSpace() error {
	for {
		if _, err := r.cur.TakeWhile(isSpace); err != nil {
			return err
		}
		ch, err := r.cur.Peek()
		if err != nil {
			return err
		}
		if ch != ';' {
			return nil
		}
		if _, err := r.cur.TakeWhile(func(c rune) bool { return c != '\n' }); err != nil {
			return err
		}
	}
}

func (r *Reader) dispatch(ch rune, start Position) (Model, error) {
	switch ch {
	case '(':
		items, end, err := r.sequence(')', "expression", start)
		if err != nil {
			return nil, err
		}
		return Expression{Items: items, span: at(start, end)}, nil
	case '[':
		items, end, err := r.sequence(']', "list", start)
		if err != nil {
			return nil, err
		}
		return List{Items: items, span: at(start, end)}, nil
	case '{':
		items, end, err := r.sequence('}', "dict", start)
		if err != nil {
			return nil, err
		}
		return Dict{Items: items, span: at(start, end)}, nil
	case ')', ']', '}':
		return nil, lexErrorf(start, "unexpected %q", ch)
	case '"':
		return r.stringLit(start, false, false, false)
	case '\'':
		return r.sugar("quote", start)
	case '`':
		return r.sugar("quasiquote", start)
	case '~':
		if next, err := r.cur.Peek(); err == nil && next == '@' {
			r.cur.Next()
			return r.sugar("unquote-splice", start)
		}
		return r.sugar("unquote", start)
	case '#':
		return r.hash(start)
	}
	r.cur.Unread()
	return r.ident(start)
}

// sequence reads forms until the closing delimiter.
func (r *Reader) sequence(closer rune, inside string, start Position) ([]Model, Position, error) {
	var items []Model
	for {
		if err := r.skipSpace(); err != nil {
			if err == io.EOF {
				return nil, Position{}, &PrematureEOF{Pos: r.cur.Pos(), Inside: inside}
			}
			return nil, Position{}, err
		}
		ch, err := r.cur.Peek()
		if err != nil {
			return nil, Position{}, &PrematureEOF{Pos: r.cur.Pos(), Inside: inside}
		}
		if ch == closer {
			r.cur.Next()
			return items, r.cur.Pos(), nil
		}
		m, err := r.form()
		if err != nil {
			if err == io.EOF {
				err = &PrematureEOF{Pos: r.cur.Pos(), Inside: inside}
			}
			return nil, Position{}, err
		}
		items = append(items, m)
	}
}

// sugar reads one more form and wraps it in a two-element Expression headed
// by the given macro name. Whitespace between the marker and the form is
// permitted.
func (r *Reader) sugar(name string, start Position) (Model, error) {
	m, err := r.form()
	if err != nil {
		if err == io.EOF {
			err = &PrematureEOF{Pos: r.cur.Pos(), Inside: name}
		}
		return nil, err
	}
	head := Symbol{Text: name, span: at(start, start)}
	return Expression{Items: []Model{head, m}, span: at(start, m.End())}, nil
}

// hash handles the dispatch forms behind a # sign: discard, unpack markers,
// tuple and set literals, bracket strings, and reader macros.
func (r *Reader) hash(start Position) (Model, error) {
	ch, err := r.cur.Next()
	if err != nil {
		return nil, &PrematureEOF{Pos: r.cur.Pos(), Inside: "dispatch"}
	}
	switch ch {
	case '_':
		// Read and discard exactly one form. Reader macros inside it still
		// run.
		if _, err := r.form(); err != nil {
			if err == io.EOF {
				err = &PrematureEOF{Pos: r.cur.Pos(), Inside: "discard"}
			}
			return nil, err
		}
		return nil, errDiscarded
	case '*':
		name := "unpack-iterable"
		if next, err := r.cur.Peek(); err == nil && next == '*' {
			r.cur.Next()
			name = "unpack-mapping"
		}
		return r.sugar(name, start)
	case '(':
		items, end, err := r.sequence(')', "tuple", start)
		if err != nil {
			return nil, err
		}
		return Tuple{Items: items, span: at(start, end)}, nil
	case '{':
		items, end, err := r.sequence('}', "set", start)
		if err != nil {
			return nil, err
		}
		return Set{Items: items, span: at(start, end)}, nil
	case '[':
		return r.bracketString(start)
	}
	r.cur.Unread()
	name, err := r.cur.TakeWhile(identRune)
	if name == "" {
		return nil, lexErrorf(start, "bad dispatch character %q", ch)
	}
	if err != nil && err != io.EOF {
		return nil, err
	}
	macro, ok := r.ns.LookupReader(name)
	if !ok {
		return nil, lexErrorf(start, "reader macro #%s is not defined", name)
	}
	v, err := macro(r)
	if err != nil {
		return nil, &MacroError{Macro: "#" + name, Pos: start, Err: err}
	}
	m, err := AsModel(v)
	if err != nil {
		return nil, &MacroError{Macro: "#" + name, Pos: start, Err: err}
	}
	return stamp(m, start, r.cur.Pos()), nil
}

// bracketString reads a #[tag[ ... ]tag] literal. The # and first [ have
// been consumed.
func (r *Reader) bracketString(start Position) (Model, error) {
	tag, err := r.cur.TakeWhile(func(c rune) bool { return c != '[' && c != ']' && c != '\n' })
	if err != nil {
		return nil, &PrematureEOF{Pos: r.cur.Pos(), Inside: "bracket string"}
	}
	ch, err := r.cur.Next()
	if err != nil {
		return nil, &PrematureEOF{Pos: r.cur.Pos(), Inside: "bracket string"}
	}
	if ch != '[' {
		return nil, lexErrorf(start, "malformed bracket-string delimiter %q", "#["+tag+string(ch))
	}
	closer := "]" + tag + "]"
	var b strings.Builder
	for !strings.HasSuffix(b.String(), closer) {
		c, err := r.cur.Next()
		if err != nil {
			return nil, &PrematureEOF{Pos: r.cur.Pos(), Inside: "bracket string"}
		}
		b.WriteRune(c)
	}
	content := strings.TrimSuffix(b.String(), closer)
	// A single newline immediately after the opening delimiter is not part
	// of the string.
	content = strings.TrimPrefix(content, "\n")
	end := r.cur.Pos()
	if strings.HasPrefix(tag, "f") {
		sub := &Reader{cur: NewCursor(strings.NewReader(content)), ns: r.ns}
		fs, err := sub.fstringBody(start, true, false)
		if err != nil {
			return nil, err
		}
		fs.Brackets = &tag
		fs.span = at(start, end)
		return fs, nil
	}
	return String{Value: content, Brackets: &tag, span: at(start, end)}, nil
}

// ident accumulates an identifier candidate and classifies it: numeric
// literal, then keyword, then dotted identifier, then plain symbol. A
// string-literal prefix (r, b, f, or a combination) followed by a quote
// instead reads a string with those flags.
func (r *Reader) ident(start Position) (Model, error) {
	text, err := r.cur.TakeWhile(identRune)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if text == "" {
		ch, _ := r.cur.Next()
		return nil, lexErrorf(start, "invalid character %q", ch)
	}
	if next, err := r.cur.Peek(); err == nil && next == '"' {
		if raw, isBytes, format, ok := stringPrefix(text); ok {
			r.cur.Next()
			return r.stringLit(start, raw, isBytes, format)
		}
	}
	return r.classify(text, start, r.cur.Pos())
}

// stringPrefix interprets an identifier as string-literal prefix flags.
func stringPrefix(text string) (raw, isBytes, format, ok bool) {
	if len(text) > 3 {
		return false, false, false, false
	}
	for _, c := range strings.ToLower(text) {
		switch c {
		case 'r':
			if raw {
				return false, false, false, false
			}
			raw = true
		case 'b':
			if isBytes {
				return false, false, false, false
			}
			isBytes = true
		case 'f':
			if format {
				return false, false, false, false
			}
			format = true
		default:
			return false, false, false, false
		}
	}
	if isBytes && format {
		return false, false, false, false
	}
	return raw, isBytes, format, true
}

func (r *Reader) classify(text string, start, end Position) (Model, error) {
	if m, ok := parseNumber(text); ok {
		return m.WithPos(start, end), nil
	} else if numericLead(text) {
		return nil, lexErrorf(start, "invalid numeric literal %q", text)
	}
	if strings.HasPrefix(text, ":") {
		return Keyword{Name: text[1:], span: at(start, end)}, nil
	}
	if strings.Contains(text, ".") && text != "." && text != Ellipsis {
		return dottedIdent(text, start, end)
	}
	return Symbol{Text: text, span: at(start, end)}, nil
}

// dottedIdent desugars a.b.c into (. a b c). A leading dot yields a
// degenerate first component standing for the enclosing nothing.
func dottedIdent(text string, start, end Position) (Model, error) {
	comps := strings.Split(text, ".")
	items := make([]Model, 0, len(comps)+1)
	items = append(items, Symbol{Text: ".", span: at(start, start)})
	for i, comp := range comps {
		if comp == "" {
			if i == 0 {
				items = append(items, Symbol{Text: "nil", span: at(start, start)})
				continue
			}
			return nil, lexErrorf(start, "malformed dotted identifier %q", text)
		}
		sym, err := NewSymbol(comp)
		if err != nil {
			return nil, lexErrorf(start, "malformed dotted identifier %q: %v", text, err)
		}
		items = append(items, sym.WithPos(start, end))
	}
	return Expression{Items: items, span: at(start, end)}, nil
}

// numericLead reports whether text begins like a number: an optional sign,
// an optional dot, and a digit. Such a candidate that fails to parse is a
// lex error rather than a symbol.
func numericLead(text string) bool {
	s := text
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	s = strings.TrimPrefix(s, ".")
	return s != "" && unicode.IsDigit(rune(s[0]))
}

// parseNumber tries to read text as a numeric literal: integer, float, or
// complex, with , and _ digit separators, radix prefixes, and the
// case-sensitive NaN and Inf spellings.
func parseNumber(text string) (Model, bool) {
	switch text {
	case "NaN":
		return Float{Value: math.NaN()}, true
	case "Inf", "+Inf":
		return Float{Value: math.Inf(1)}, true
	case "-Inf":
		return Float{Value: math.Inf(-1)}, true
	}
	cleaned, ok := stripSeparators(text)
	if !ok {
		return nil, false
	}
	if z, ok := new(big.Int).SetString(cleaned, 0); ok {
		return Integer{Value: z}, true
	}
	if onlyChars(cleaned, "0123456789+-.eE") {
		if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return Float{Value: f}, true
		}
	}
	if strings.ContainsAny(cleaned, "jJ") && onlyChars(cleaned, "0123456789+-.eEjJ") {
		s := strings.NewReplacer("j", "i", "J", "i").Replace(cleaned)
		if c, err := strconv.ParseComplex(s, 128); err == nil {
			return Complex{Value: c}, true
		}
	}
	return nil, false
}

// stripSeparators removes , and _ digit separators. A separator before the
// first digit disqualifies the candidate.
func stripSeparators(text string) (string, bool) {
	var b strings.Builder
	seenDigit := false
	for _, c := range text {
		if c == ',' || c == '_' {
			if !seenDigit {
				return "", false
			}
			continue
		}
		if unicode.IsDigit(c) {
			seenDigit = true
		}
		b.WriteRune(c)
	}
	if !seenDigit {
		return "", false
	}
	return b.String(), true
}

func onlyChars(s, allowed string) bool {
	for _, c := range s {
		if !strings.ContainsRune(allowed, c) {
			return false
		}
	}
	return true
}

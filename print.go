package slip

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Printing models as source text. The contract is that reading a printed
// model yields a structurally equal model, position metadata aside, as long
// as the original contained no reader-macro calls.

// sugarNames maps the macro names the reader's sugar table wraps forms in
// back to their marker spellings.
var sugarNames = map[string]string{
	"quote":           "'",
	"quasiquote":      "`",
	"unquote":         "~",
	"unquote-splice":  "~@",
	"unpack-iterable": "#*",
	"unpack-mapping":  "#**",
}

func (s Symbol) String() string { return s.Text }

func (k Keyword) String() string { return ":" + k.Name }

func (s String) String() string {
	if s.Brackets != nil && !strings.Contains(s.Value, "]"+*s.Brackets+"]") {
		return "#" + "[" + *s.Brackets + "[" + s.Value + "]" + *s.Brackets + "]"
	}
	return quoteString(s.Value)
}

func (b Bytes) String() string {
	var w strings.Builder
	w.WriteString(`b"`)
	for _, c := range b.Value {
		switch {
		case c == '"' || c == '\\':
			w.WriteByte('\\')
			w.WriteByte(c)
		case c == '\n':
			w.WriteString(`\n`)
		case c == '\t':
			w.WriteString(`\t`)
		case c == '\r':
			w.WriteString(`\r`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&w, `\x%02x`, c)
		default:
			w.WriteByte(c)
		}
	}
	w.WriteByte('"')
	return w.String()
}

func (i Integer) String() string { return i.Value.String() }

func (f Float) String() string {
	switch {
	case math.IsNaN(f.Value):
		return "NaN"
	case math.IsInf(f.Value, 1):
		return "Inf"
	case math.IsInf(f.Value, -1):
		return "-Inf"
	}
	s := strconv.FormatFloat(f.Value, 'g', -1, 64)
	// Keep a float spelling so the value reads back as a Float.
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func (c Complex) String() string {
	s := strconv.FormatComplex(c.Value, 'g', -1, 128)
	// FormatComplex yields "(a+bi)"; the reader wants a j suffix and no
	// parentheses.
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	return strings.Replace(s, "i", "j", 1)
}

func (e Expression) String() string {
	if len(e.Items) == 2 {
		if head, ok := e.Items[0].(Symbol); ok {
			if marker, ok := sugarNames[head.Text]; ok {
				return marker + e.Items[1].String()
			}
		}
	}
	return "(" + joinModels(e.Items) + ")"
}

func (l List) String() string { return "[" + joinModels(l.Items) + "]" }

func (t Tuple) String() string { return "#(" + joinModels(t.Items) + ")" }

func (s Set) String() string { return "#{" + joinModels(s.Items) + "}" }

func (d Dict) String() string { return "{" + joinModels(d.Items) + "}" }

func (f FString) String() string {
	var w strings.Builder
	w.WriteString(`f"`)
	for _, part := range f.Items {
		switch part := part.(type) {
		case String:
			w.WriteString(escapeFText(part.Value))
		case FComponent:
			w.WriteString(part.String())
		default:
			w.WriteString(part.String())
		}
	}
	w.WriteByte('"')
	return w.String()
}

func (f FComponent) String() string {
	var w strings.Builder
	w.WriteByte('{')
	w.WriteString(f.Value.String())
	if f.Conversion != 0 {
		w.WriteByte(' ')
		w.WriteByte('!')
		w.WriteRune(f.Conversion)
	}
	if f.Spec != nil {
		w.WriteString(" :")
		if fs, ok := f.Spec.(FString); ok {
			for _, part := range fs.Items {
				switch part := part.(type) {
				case String:
					w.WriteString(escapeFText(part.Value))
				default:
					w.WriteString(part.String())
				}
			}
		} else {
			w.WriteString(f.Spec.String())
		}
	}
	w.WriteByte('}')
	return w.String()
}

func joinModels(items []Model) string {
	parts := make([]string, len(items))
	for i, m := range items {
		parts[i] = m.String()
	}
	return strings.Join(parts, " ")
}

// quoteString renders text as a double-quoted Slip string literal. It
// differs from strconv.Quote in keeping non-ASCII text readable.
func quoteString(s string) string {
	var w strings.Builder
	w.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			w.WriteString(`\"`)
		case '\\':
			w.WriteString(`\\`)
		case '\n':
			w.WriteString(`\n`)
		case '\t':
			w.WriteString(`\t`)
		case '\r':
			w.WriteString(`\r`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&w, `\x%02x`, r)
			} else {
				w.WriteRune(r)
			}
		}
	}
	w.WriteByte('"')
	return w.String()
}

// escapeFText renders literal f-string text, doubling braces and escaping
// like quoteString.
func escapeFText(s string) string {
	q := quoteString(s)
	q = q[1 : len(q)-1]
	q = strings.ReplaceAll(q, "{", "{{")
	return strings.ReplaceAll(q, "}", "}}")
}

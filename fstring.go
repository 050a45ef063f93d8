package slip

import (
	"io"
	"strconv"
	"strings"
	"unicode"
)

// stringLit reads the rest of a string literal after the opening quote,
// with the prefix flags already decided: raw suppresses escape processing,
// isBytes yields a Bytes node, and format parses replacement fields.
func (r *Reader) stringLit(start Position, raw, isBytes, format bool) (Model, error) {
	if format {
		fs, err := r.fstringBody(start, raw, true)
		if err != nil {
			return nil, err
		}
		return fs, nil
	}
	var b strings.Builder
	for {
		ch, err := r.cur.Next()
		if err != nil {
			return nil, &PrematureEOF{Pos: r.cur.Pos(), Inside: "string"}
		}
		if ch == '"' {
			break
		}
		if ch == '\\' {
			if raw {
				nxt, err := r.cur.Next()
				if err != nil {
					return nil, &PrematureEOF{Pos: r.cur.Pos(), Inside: "string"}
				}
				b.WriteRune('\\')
				b.WriteRune(nxt)
				continue
			}
			s, err := r.escapeSeq(isBytes)
			if err != nil {
				return nil, err
			}
			b.WriteString(s)
			continue
		}
		if isBytes && ch > 0x7f {
			return nil, lexErrorf(r.cur.Pos(), "non-ASCII character %q in bytes literal", ch)
		}
		b.WriteRune(ch)
	}
	end := r.cur.Pos()
	if isBytes {
		return Bytes{Value: []byte(b.String()), span: at(start, end)}, nil
	}
	return String{Value: b.String(), span: at(start, end)}, nil
}

// escapeSeq decodes one backslash escape, the backslash already consumed.
// In bytes mode the returned string holds raw bytes; in text mode, encoded
// runes. An unrecognized escape is a lex error.
func (r *Reader) escapeSeq(isBytes bool) (string, error) {
	pos := r.cur.Pos()
	ch, err := r.cur.Next()
	if err != nil {
		return "", &PrematureEOF{Pos: r.cur.Pos(), Inside: "string escape"}
	}
	switch ch {
	case '\n':
		// Line continuation.
		return "", nil
	case '\\':
		return `\`, nil
	case '\'':
		return "'", nil
	case '"':
		return `"`, nil
	case 'a':
		return "\a", nil
	case 'b':
		return "\b", nil
	case 'f':
		return "\f", nil
	case 'n':
		return "\n", nil
	case 'r':
		return "\r", nil
	case 't':
		return "\t", nil
	case 'v':
		return "\v", nil
	case '0', '1', '2', '3', '4', '5', '6', '7':
		v := int64(ch - '0')
		for i := 0; i < 2; i++ {
			nxt, err := r.cur.Peek()
			if err != nil || nxt < '0' || nxt > '7' {
				break
			}
			r.cur.Next()
			v = v*8 + int64(nxt-'0')
		}
		if isBytes {
			return string([]byte{byte(v)}), nil
		}
		return string(rune(v)), nil
	case 'x':
		v, err := r.readHex(2)
		if err != nil {
			return "", err
		}
		if isBytes {
			return string([]byte{byte(v)}), nil
		}
		return string(rune(v)), nil
	case 'u', 'U', 'N':
		if isBytes {
			return "", lexErrorf(pos, `unrecognized escape \%c in bytes literal`, ch)
		}
		switch ch {
		case 'u':
			v, err := r.readHex(4)
			if err != nil {
				return "", err
			}
			return string(rune(v)), nil
		case 'U':
			v, err := r.readHex(8)
			if err != nil {
				return "", err
			}
			if v > unicode.MaxRune {
				return "", lexErrorf(pos, `escape \U%08x is not a valid character`, v)
			}
			return string(rune(v)), nil
		default:
			return r.namedEscape(pos)
		}
	}
	return "", lexErrorf(pos, `unrecognized escape \%c`, ch)
}

func (r *Reader) readHex(n int) (int64, error) {
	pos := r.cur.Pos()
	var b strings.Builder
	for i := 0; i < n; i++ {
		ch, err := r.cur.Next()
		if err != nil {
			return 0, &PrematureEOF{Pos: r.cur.Pos(), Inside: "string escape"}
		}
		b.WriteRune(ch)
	}
	v, err := strconv.ParseInt(b.String(), 16, 64)
	if err != nil {
		return 0, lexErrorf(pos, "invalid hex escape %q", b.String())
	}
	return v, nil
}

// namedEscape decodes \N{CHARACTER NAME}.
func (r *Reader) namedEscape(pos Position) (string, error) {
	ch, err := r.cur.Next()
	if err != nil || ch != '{' {
		return "", lexErrorf(pos, `\N escape requires {name}`)
	}
	name, err := r.cur.TakeWhile(func(c rune) bool { return c != '}' && c != '"' && c != '\n' })
	if err != nil {
		return "", &PrematureEOF{Pos: r.cur.Pos(), Inside: "string escape"}
	}
	ch, err = r.cur.Next()
	if err != nil || ch != '}' {
		return "", lexErrorf(pos, `unterminated \N escape`)
	}
	v, ok := runeByName(name)
	if !ok {
		return "", lexErrorf(pos, `unknown character name %q in \N escape`, name)
	}
	return string(v), nil
}

// fstringBody parses format-string content: literal text, doubled braces,
// and replacement fields. In quoted mode the body ends at an unescaped
// quote; otherwise it runs to end of input (bracket f-strings).
func (r *Reader) fstringBody(start Position, raw, quoted bool) (FString, error) {
	var items []Model
	var lit strings.Builder
	litStart := start
	put := func(pos Position, s string) {
		if lit.Len() == 0 {
			litStart = pos
		}
		lit.WriteString(s)
	}
	flush := func(end Position) {
		if lit.Len() > 0 {
			items = append(items, String{Value: lit.String(), span: at(litStart, end)})
			lit.Reset()
		}
	}
	for {
		pos := r.cur.Pos()
		ch, err := r.cur.Next()
		if err != nil {
			if quoted {
				return FString{}, &PrematureEOF{Pos: r.cur.Pos(), Inside: "format string"}
			}
			flush(r.cur.Pos())
			return FString{Items: items, span: at(start, r.cur.Pos())}, nil
		}
		if quoted && ch == '"' {
			flush(pos)
			return FString{Items: items, span: at(start, r.cur.Pos())}, nil
		}
		switch ch {
		case '\\':
			switch {
			case quoted && raw:
				nxt, err := r.cur.Next()
				if err != nil {
					return FString{}, &PrematureEOF{Pos: r.cur.Pos(), Inside: "format string"}
				}
				put(pos, `\`+string(nxt))
			case quoted:
				s, err := r.escapeSeq(false)
				if err != nil {
					return FString{}, err
				}
				put(pos, s)
			default:
				put(pos, `\`)
			}
		case '{':
			if nxt, err := r.cur.Peek(); err == nil && nxt == '{' {
				r.cur.Next()
				put(pos, "{")
				continue
			}
			flush(pos)
			debugText, comp, err := r.fcomponent(pos, quoted, raw)
			if err != nil {
				return FString{}, err
			}
			if debugText != "" {
				items = append(items, String{Value: debugText, span: at(pos, r.cur.Pos())})
			}
			items = append(items, comp)
		case '}':
			if nxt, err := r.cur.Peek(); err == nil && nxt == '}' {
				r.cur.Next()
				put(pos, "}")
				continue
			}
			return FString{}, lexErrorf(pos, "single '}' is not allowed in a format string")
		default:
			put(pos, string(ch))
		}
	}
}

// fcomponent parses one replacement field, the opening brace already
// consumed: an embedded form, then optionally = debug syntax, a !
// conversion marker, and a : format spec. Whitespace terminates the
// embedded form where the markers would otherwise accumulate into it.
func (r *Reader) fcomponent(openPos Position, quoted, raw bool) (string, FComponent, error) {
	r.cur.startRecord()
	m, err := r.form()
	if err != nil {
		r.cur.stopRecord()
		if err == io.EOF {
			err = &PrematureEOF{Pos: r.cur.Pos(), Inside: "replacement field"}
		}
		return "", FComponent{}, err
	}
	r.cur.TakeWhile(isSpace)
	debug := false
	if nxt, err := r.cur.Peek(); err == nil && nxt == '=' {
		r.cur.Next()
		debug = true
		r.cur.TakeWhile(isSpace)
	}
	text := r.cur.stopRecord()
	conv := rune(0)
	if nxt, err := r.cur.Peek(); err == nil && nxt == '!' {
		r.cur.Next()
		c, err := r.cur.Next()
		if err != nil {
			return "", FComponent{}, &PrematureEOF{Pos: r.cur.Pos(), Inside: "replacement field"}
		}
		if !unicode.IsLetter(c) {
			return "", FComponent{}, lexErrorf(r.cur.Pos(), "invalid conversion %q", c)
		}
		conv = c
		r.cur.TakeWhile(isSpace)
	}
	var spec Model
	if nxt, err := r.cur.Peek(); err == nil && nxt == ':' {
		r.cur.Next()
		fs, err := r.fspec(quoted, raw)
		if err != nil {
			return "", FComponent{}, err
		}
		spec = fs
	}
	ch, err := r.cur.Next()
	if err != nil {
		return "", FComponent{}, &PrematureEOF{Pos: r.cur.Pos(), Inside: "replacement field"}
	}
	if ch != '}' {
		return "", FComponent{}, lexErrorf(r.cur.Pos(), "expected '}' to close replacement field, got %q", ch)
	}
	comp := FComponent{Value: m, Conversion: conv, Spec: spec, span: at(openPos, r.cur.Pos())}
	if !debug {
		return "", comp, nil
	}
	if conv == 0 && spec == nil {
		comp.Conversion = 'r'
	}
	return text, comp, nil
}

// fspec parses a format spec: literal text plus nested replacement fields,
// up to but not including the field's closing brace.
func (r *Reader) fspec(quoted, raw bool) (FString, error) {
	start := r.cur.Pos()
	var items []Model
	var lit strings.Builder
	litStart := start
	put := func(pos Position, s string) {
		if lit.Len() == 0 {
			litStart = pos
		}
		lit.WriteString(s)
	}
	for {
		nxt, err := r.cur.Peek()
		if err != nil {
			return FString{}, &PrematureEOF{Pos: r.cur.Pos(), Inside: "format spec"}
		}
		if nxt == '}' {
			if lit.Len() > 0 {
				items = append(items, String{Value: lit.String(), span: at(litStart, r.cur.Pos())})
			}
			return FString{Items: items, span: at(start, r.cur.Pos())}, nil
		}
		pos := r.cur.Pos()
		r.cur.Next()
		switch nxt {
		case '{':
			if lit.Len() > 0 {
				items = append(items, String{Value: lit.String(), span: at(litStart, pos)})
				lit.Reset()
			}
			debugText, comp, err := r.fcomponent(pos, quoted, raw)
			if err != nil {
				return FString{}, err
			}
			if debugText != "" {
				items = append(items, String{Value: debugText, span: at(pos, r.cur.Pos())})
			}
			items = append(items, comp)
		case '\\':
			switch {
			case quoted && raw:
				c, err := r.cur.Next()
				if err != nil {
					return FString{}, &PrematureEOF{Pos: r.cur.Pos(), Inside: "format spec"}
				}
				put(pos, `\`+string(c))
			case quoted:
				s, err := r.escapeSeq(false)
				if err != nil {
					return FString{}, err
				}
				put(pos, s)
			default:
				put(pos, `\`)
			}
		case '"':
			if quoted {
				return FString{}, lexErrorf(pos, "unterminated replacement field")
			}
			put(pos, `"`)
		default:
			put(pos, string(nxt))
		}
	}
}

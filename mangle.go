package slip

import (
	"fmt"
	"go/token"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/unicode/runenames"
)

// mangleEscape prefixes mangled names that contained host-illegal
// characters (or that collide with a host keyword).
const mangleEscape = "sx_"

// Mangle converts a Slip identifier into a host-legal one. It is total and
// deterministic, and many-to-one: distinct inputs may mangle alike (a
// hyphen and an underscore in the same position, for instance).
//
// The steps are: strip and remember leading characters that NFKC-normalize
// to an underscore; convert hyphens to underscores, leaving a single
// leading hyphen alone; turn a trailing question mark into an is_ prefix;
// if the result is still not a legal host identifier, prefix the sx_
// escape marker and replace each illegal character with a token built from
// its Unicode name; reattach the leading underscores; and NFKC-normalize
// the result. Dotted names mangle per component.
func Mangle(name string) string {
	if name == "" || name == "." || name == Ellipsis {
		return name
	}
	if strings.Contains(name, ".") {
		parts := strings.Split(name, ".")
		for i, p := range parts {
			if p != "" {
				parts[i] = Mangle(p)
			}
		}
		return strings.Join(parts, ".")
	}
	lead, rest := 0, name
	for rest != "" {
		r, size := utf8.DecodeRuneInString(rest)
		if norm.NFKC.String(string(r)) != "_" {
			break
		}
		lead++
		rest = rest[size:]
	}
	s := rest
	if strings.HasPrefix(s, "-") {
		// Converting a leading hyphen would invent a leading underscore,
		// which carries meaning of its own.
		s = "-" + strings.ReplaceAll(s[1:], "-", "_")
	} else {
		s = strings.ReplaceAll(s, "-", "_")
	}
	if strings.HasSuffix(s, "?") {
		s = "is_" + strings.TrimSuffix(s, "?")
	}
	if s != "" && !token.IsIdentifier(s) {
		var b strings.Builder
		b.WriteString(mangleEscape)
		for _, r := range s {
			if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(r)
			} else {
				b.WriteString(escapeRune(r))
			}
		}
		s = b.String()
	}
	s = strings.Repeat("_", lead) + s
	s = norm.NFKC.String(s)
	if s != "" && !token.IsIdentifier(s) {
		// Mangling is defined to be total; getting here is a bug.
		panic(&MangleError{Name: name, Result: s})
	}
	return s
}

// escapeRune builds the identifier-legal token standing for an illegal
// character: its lowercased Unicode name with spaces and hyphens as
// underscores, between X delimiters, or a hex codepoint for unnamed
// characters.
func escapeRune(r rune) string {
	name := runenames.Name(r)
	if name == "" || strings.HasPrefix(name, "<") {
		return fmt.Sprintf("XU%04xX", r)
	}
	return "X" + foldRuneName(name) + "X"
}

func foldRuneName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ReplaceAll(name, "-", "_")
}

// Unmangle undoes Mangle on a best-effort basis. Mangling is many-to-one,
// so round-tripping is not guaranteed; what is guaranteed is stability:
// Mangle(Unmangle(Mangle(x))) == Mangle(x). Escape tokens that cannot be
// resolved to a character are left in place.
func Unmangle(name string) string {
	if name == "" || name == "." || name == Ellipsis {
		return name
	}
	if strings.Contains(name, ".") {
		parts := strings.Split(name, ".")
		for i, p := range parts {
			if p != "" {
				parts[i] = Unmangle(p)
			}
		}
		return strings.Join(parts, ".")
	}
	lead, s := 0, name
	for strings.HasPrefix(s, "_") {
		lead++
		s = s[1:]
	}
	if strings.HasPrefix(s, mangleEscape) {
		s = decodeEscapes(s[len(mangleEscape):])
	}
	if strings.HasPrefix(s, "is_") {
		s = strings.TrimPrefix(s, "is_") + "?"
	}
	s = strings.ReplaceAll(s, "_", "-")
	return strings.Repeat("_", lead) + s
}

// decodeEscapes reverses escapeRune tokens embedded in s.
func decodeEscapes(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] != 'X' {
			b.WriteByte(s[i])
			i++
			continue
		}
		j := strings.IndexByte(s[i+1:], 'X')
		if j < 0 {
			b.WriteString(s[i:])
			break
		}
		inner := s[i+1 : i+1+j]
		if r, ok := decodeEscapeToken(inner); ok {
			b.WriteRune(r)
			i += j + 2
			continue
		}
		b.WriteByte('X')
		i++
	}
	return b.String()
}

func decodeEscapeToken(tok string) (rune, bool) {
	if strings.HasPrefix(tok, "U") {
		var r rune
		if _, err := fmt.Sscanf(tok, "U%x", &r); err == nil && r <= unicode.MaxRune {
			return r, true
		}
		return 0, false
	}
	for _, c := range tok {
		if !('a' <= c && c <= 'z' || '0' <= c && c <= '9' || c == '_') {
			return 0, false
		}
	}
	return runeByFoldedName(tok)
}

var (
	runeNameOnce  sync.Once
	runeNameTable map[string]rune
)

// runeByFoldedName resolves a foldRuneName-style name to its character. The
// table is built lazily by scanning the Unicode space once; runenames has
// no reverse lookup.
func runeByFoldedName(name string) (rune, bool) {
	runeNameOnce.Do(func() {
		runeNameTable = make(map[string]rune, 1<<17)
		for r := rune(0x20); r <= unicode.MaxRune; r++ {
			if r >= 0xd800 && r <= 0xdfff {
				continue
			}
			n := runenames.Name(r)
			if n == "" || strings.HasPrefix(n, "<") {
				continue
			}
			key := foldRuneName(n)
			if _, ok := runeNameTable[key]; !ok {
				runeNameTable[key] = r
			}
		}
	})
	r, ok := runeNameTable[name]
	return r, ok
}

// runeByName resolves a raw Unicode character name, as written in a \N{...}
// string escape, to its character.
func runeByName(name string) (rune, bool) {
	return runeByFoldedName(foldRuneName(name))
}

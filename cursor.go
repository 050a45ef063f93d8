package slip

import (
	"bufio"
	"io"
	"strings"
)

// A Cursor is the position-tracking pointer over source text that the
// reader and reader macros share. There is exactly one per Reader; a reader
// macro that wants more text advances the same cursor the reader will
// resume from, as a plain nested call.
type Cursor struct {
	src               *bufio.Reader
	line, col         int
	prevLine, prevCol int
	recording         bool
	rec               []rune
}

// NewCursor creates a cursor reading from src.
func NewCursor(src io.Reader) *Cursor {
	return &Cursor{src: bufio.NewReader(src), line: 1, col: 1}
}

// Pos returns the position of the next rune to be read.
func (c *Cursor) Pos() Position {
	return Position{Line: c.line, Col: c.col}
}

// Next reads one rune. At the end of input it returns io.EOF.
func (c *Cursor) Next() (rune, error) {
	r, _, err := c.src.ReadRune()
	if err != nil {
		return 0, err
	}
	c.prevLine, c.prevCol = c.line, c.col
	if r == '\n' {
		c.line++
		c.col = 1
	} else {
		c.col++
	}
	if c.recording {
		c.rec = append(c.rec, r)
	}
	return r, nil
}

// Unread steps back over the rune most recently returned by Next. Only a
// single step of lookahead is supported.
func (c *Cursor) Unread() {
	if err := c.src.UnreadRune(); err != nil {
		return
	}
	c.line, c.col = c.prevLine, c.prevCol
	if c.recording && len(c.rec) > 0 {
		c.rec = c.rec[:len(c.rec)-1]
	}
}

// Peek returns the next rune without consuming it.
func (c *Cursor) Peek() (rune, error) {
	r, _, err := c.src.ReadRune()
	if err != nil {
		return 0, err
	}
	c.src.UnreadRune()
	return r, nil
}

// Lookahead reports whether the upcoming input starts with prefix, without
// consuming anything.
func (c *Cursor) Lookahead(prefix string) bool {
	b, _ := c.src.Peek(len(prefix))
	return string(b) == prefix
}

// TakeWhile consumes the next run of runes satisfying the predicate and
// returns them. The first rune that does not satisfy it is unread. An
// io.EOF is returned alongside whatever was accumulated.
func (c *Cursor) TakeWhile(pred func(rune) bool) (string, error) {
	var b strings.Builder
	for {
		r, err := c.Next()
		if err != nil {
			return b.String(), err
		}
		if !pred(r) {
			c.Unread()
			return b.String(), nil
		}
		b.WriteRune(r)
	}
}

// startRecord begins capturing the runes Next consumes, for the f-string
// debug syntax, which needs the source text of the recorded form.
func (c *Cursor) startRecord() {
	c.recording = true
	c.rec = c.rec[:0]
}

func (c *Cursor) stopRecord() string {
	c.recording = false
	return string(c.rec)
}

// Package s11n writes stored nodes back out as XML text.
package s11n

import (
	"io"
	"strings"
	"unicode/utf8"
)

// isInCharacterRange checks if rune is in XML Character Range
func isInCharacterRange(r rune) bool {
	return r == 0x09 ||
		r == 0x0A ||
		r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

// errWriter remembers the first write error and drops everything after.
type errWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (ew *errWriter) Write(b []byte) (int, error) {
	if ew.err != nil {
		return 0, ew.err
	}
	n, err := ew.w.Write(b)
	ew.n += int64(n)
	ew.err = err
	return n, err
}

func (ew *errWriter) WriteString(s string) (int, error) {
	if ew.err != nil {
		return 0, ew.err
	}
	n, err := io.WriteString(ew.w, s)
	ew.n += int64(n)
	ew.err = err
	return n, err
}

// DumpQuotedString writes s in double quotes, or in single quotes if s
// contains a double quote but no single quote. If it contains both, the
// double quotes are written as &quot;.
func DumpQuotedString(out io.Writer, s string) error {
	ew := &errWriter{w: out}
	switch {
	case strings.IndexByte(s, '"') < 0:
		ew.WriteString(`"`)
		ew.WriteString(s)
		ew.WriteString(`"`)
	case strings.IndexByte(s, '\'') < 0:
		ew.WriteString(`'`)
		ew.WriteString(s)
		ew.WriteString(`'`)
	default:
		ew.WriteString(`"`)
		ew.WriteString(strings.ReplaceAll(s, `"`, "&quot;"))
		ew.WriteString(`"`)
	}
	return ew.err
}

const (
	escQuot = "&#34;" // shorter than "&quot;"
	escAmp  = "&amp;"
	escLt   = "&lt;"
	escGt   = "&gt;"
	escTab  = "&#9;"
	escNl   = "&#10;"
	escCr   = "&#13;"
	escFFFD = "\uFFFD"
)

// escape writes s to w, replacing what esc returns a replacement for.
// Characters outside the XML character range become U+FFFD.
func escape(w io.Writer, s string, esc func(rune) string) error {
	ew := &errWriter{w: w}
	last := 0
	for i := 0; i < len(s); {
		r, width := utf8.DecodeRuneInString(s[i:])
		i += width
		rep := esc(r)
		if rep == "" {
			if isInCharacterRange(r) && (r != utf8.RuneError || width > 1) {
				continue
			}
			rep = escFFFD
		}
		ew.WriteString(s[last : i-width])
		ew.WriteString(rep)
		last = i
	}
	ew.WriteString(s[last:])
	return ew.err
}

// EscapeAttrValue writes s escaped for use inside a double quoted
// attribute value. Whitespace other than the space is written as a
// character reference so it survives attribute value normalization.
func EscapeAttrValue(w io.Writer, s string) error {
	return escape(w, s, func(r rune) string {
		switch r {
		case '"':
			return escQuot
		case '&':
			return escAmp
		case '<':
			return escLt
		case '>':
			return escGt
		case '\n':
			return escNl
		case '\r':
			return escCr
		case '\t':
			return escTab
		}
		return ""
	})
}

// EscapeText writes to w the properly escaped XML equivalent
// of the plain text data s. If escapeNewline is true, newline
// characters will be escaped.
func EscapeText(w io.Writer, s string, escapeNewline bool) error {
	return escape(w, s, func(r rune) string {
		switch r {
		case '&':
			return escAmp
		case '<':
			return escLt
		case '>':
			return escGt
		case '\r':
			return escCr
		case '\n':
			if escapeNewline {
				return escNl
			}
		}
		return ""
	})
}

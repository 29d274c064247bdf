// Package encoding maps XML encoding labels to the charsets in
// golang.org/x/text/encoding. Package names such as "unicode" clash with
// the stdlib, so the rest of the module only talks to this package.
package encoding

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	enc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var ErrUnsupported = errors.New("unsupported encoding")

// charsets is keyed by normalized label, see normalize.
var charsets = map[string]enc.Encoding{
	"utf8":              unicode.UTF8,
	"utf16":             unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
	"utf16be":           unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	"utf16le":           unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	"eucjp":             japanese.EUCJP,
	"shiftjis":          japanese.ShiftJIS,
	"sjis":              japanese.ShiftJIS,
	"cp932":             japanese.ShiftJIS,
	"jis":               japanese.ISO2022JP,
	"iso2022jp":         japanese.ISO2022JP,
	"big5":              traditionalchinese.Big5,
	"euckr":             korean.EUCKR,
	"gbk":               simplifiedchinese.GBK,
	"gb18030":           simplifiedchinese.GB18030,
	"hzgb2312":          simplifiedchinese.HZGB2312,
	"cp437":             charmap.CodePage437,
	"cp866":             charmap.CodePage866,
	"iso88591":          charmap.ISO8859_1,
	"latin1":            charmap.ISO8859_1,
	"iso88592":          charmap.ISO8859_2,
	"iso88593":          charmap.ISO8859_3,
	"iso88594":          charmap.ISO8859_4,
	"iso88595":          charmap.ISO8859_5,
	"iso88596":          charmap.ISO8859_6,
	"iso88597":          charmap.ISO8859_7,
	"iso88598":          charmap.ISO8859_8,
	"iso885910":         charmap.ISO8859_10,
	"iso885913":         charmap.ISO8859_13,
	"iso885914":         charmap.ISO8859_14,
	"iso885915":         charmap.ISO8859_15,
	"iso885916":         charmap.ISO8859_16,
	"koi8r":             charmap.KOI8R,
	"koi8u":             charmap.KOI8U,
	"macintosh":         charmap.Macintosh,
	"macintoshcyrillic": charmap.MacintoshCyrillic,
	"windows874":        charmap.Windows874,
	"windows1250":       charmap.Windows1250,
	"windows1251":       charmap.Windows1251,
	"windows1252":       charmap.Windows1252,
	"windows1253":       charmap.Windows1253,
	"windows1254":       charmap.Windows1254,
	"windows1255":       charmap.Windows1255,
	"windows1256":       charmap.Windows1256,
	"windows1257":       charmap.Windows1257,
	"windows1258":       charmap.Windows1258,
	"xuserdefined":      charmap.XUserDefined,
}

// normalize lower cases a label and drops separators, so "Shift_JIS",
// "shift-jis" and "SHIFTJIS" all share one entry.
func normalize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', ' ', '.':
			return -1
		}
		if 'A' <= r && r <= 'Z' {
			return r + 'a' - 'A'
		}
		return r
	}, strings.TrimSpace(name))
}

// Load returns the charset for name, or nil if it is not known.
func Load(name string) enc.Encoding {
	return charsets[normalize(name)]
}

// IsUTF8 reports whether name is a label for UTF-8. The empty label counts
// as UTF-8, the XML default.
func IsUTF8(name string) bool {
	n := normalize(name)
	return n == "" || n == "utf8"
}

// CharsetReader converts input from the named charset to UTF-8. Its
// signature matches the CharsetReader field of encoding/xml.Decoder.
func CharsetReader(label string, input io.Reader) (io.Reader, error) {
	if IsUTF8(label) {
		return input, nil
	}
	e := Load(label)
	if e == nil {
		return nil, errors.Wrapf(ErrUnsupported, "%q", label)
	}
	return transform.NewReader(input, e.NewDecoder()), nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// NewWriter returns a writer that converts UTF-8 written to it into the
// named charset. Characters the charset cannot represent make Write fail.
// Close flushes pending output but does not close w.
func NewWriter(label string, w io.Writer) (io.WriteCloser, error) {
	if IsUTF8(label) {
		return nopCloser{w}, nil
	}
	e := Load(label)
	if e == nil {
		return nil, errors.Wrapf(ErrUnsupported, "%q", label)
	}
	return transform.NewWriter(w, e.NewEncoder()), nil
}

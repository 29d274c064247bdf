package encoding_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/lestrrat-go/heliumdb/encoding"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

func TestLoad(t *testing.T) {
	require.Equal(t, japanese.ShiftJIS, encoding.Load("Shift_JIS"))
	require.Equal(t, japanese.ShiftJIS, encoding.Load("shift-jis"))
	require.Equal(t, charmap.ISO8859_1, encoding.Load("ISO-8859-1"))
	require.Equal(t, charmap.KOI8U, encoding.Load("koi8-u"))
	require.Nil(t, encoding.Load("ebcdic-klingon"))

	require.True(t, encoding.IsUTF8(""))
	require.True(t, encoding.IsUTF8("UTF-8"))
	require.False(t, encoding.IsUTF8("utf-16"))
}

func TestISO88591(t *testing.T) {
	e := encoding.Load("iso-8859-1")
	dec := e.NewDecoder()
	enc := e.NewEncoder()
	for i := 0; i <= 255; i++ {
		v := string([]byte{byte(i)})
		s, err := dec.String(v)
		require.NoError(t, err, `decode %#x`, i)
		require.Equal(t, string(rune(i)), s, `latin-1 maps bytes to the same code point`)

		v1, err := enc.String(s)
		require.NoError(t, err, `encode %q`, s)
		require.Equal(t, v, v1)
	}
}

func TestCharsetReader(t *testing.T) {
	t.Run("utf-8 passes through", func(t *testing.T) {
		in := strings.NewReader("abc")
		r, err := encoding.CharsetReader("UTF-8", in)
		require.NoError(t, err)
		require.Same(t, in, r)
	})

	t.Run("latin-1", func(t *testing.T) {
		r, err := encoding.CharsetReader("ISO-8859-1", bytes.NewReader([]byte{'c', 'a', 'f', 0xe9}))
		require.NoError(t, err)
		b, err := io.ReadAll(r)
		require.NoError(t, err)
		require.Equal(t, "café", string(b))
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := encoding.CharsetReader("x-unknown", strings.NewReader(""))
		require.ErrorIs(t, err, encoding.ErrUnsupported)
	})
}

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer
	w, err := encoding.NewWriter("shift_jis", &buf)
	require.NoError(t, err)
	_, err = io.WriteString(w, "日本")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.Equal(t, []byte{0x93, 0xfa, 0x96, 0x7b}, buf.Bytes())

	_, err = encoding.NewWriter("nope", &buf)
	require.ErrorIs(t, err, encoding.ErrUnsupported)
}

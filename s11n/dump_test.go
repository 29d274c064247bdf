package s11n_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/lestrrat-go/heliumdb/node"
	"github.com/lestrrat-go/heliumdb/nsindex"
	"github.com/lestrrat-go/heliumdb/s11n"
	"github.com/stretchr/testify/require"
)

// <r xmlns="urn:d" xmlns:p="urn:p" id="1">
//   <p:a x="&lt;"><!--c--><b xmlns="">t</b></p:a><?pi data?>
// </r>
//
// pre: doc0 r1 @id2 a3 @x4 c5 b6 t7 pi8
func sampleDoc(t *testing.T) *s11n.Dumper {
	tbl := node.NewTable()
	ix := nsindex.New()
	s := ix.Session()

	tbl.Append(node.Row{Kind: node.DocumentNode, Parent: -1, Size: 9})
	tbl.Append(node.Row{Kind: node.ElementNode, Parent: 0, Size: 8, Name: "r"})
	s.OpenNS(1, []nsindex.Decl{{Prefix: "", URI: "urn:d"}, {Prefix: "p", URI: "urn:p"}})
	tbl.Append(node.Row{Kind: node.AttributeNode, Parent: 1, Size: 1, Name: "id", Value: "1"})
	tbl.Append(node.Row{Kind: node.ElementNode, Parent: 1, Size: 5, Name: "p:a"})
	s.OpenNS(3, nil)
	tbl.Append(node.Row{Kind: node.AttributeNode, Parent: 3, Size: 1, Name: "x", Value: "<"})
	tbl.Append(node.Row{Kind: node.CommentNode, Parent: 3, Size: 1, Value: "c"})
	tbl.Append(node.Row{Kind: node.ElementNode, Parent: 3, Size: 2, Name: "b"})
	s.OpenNS(6, []nsindex.Decl{{Prefix: "", URI: ""}})
	tbl.Append(node.Row{Kind: node.TextNode, Parent: 6, Size: 1, Value: "t"})
	s.Close(6)
	s.Close(3)
	tbl.Append(node.Row{Kind: node.ProcessingInstructionNode, Parent: 1, Size: 1, Name: "pi", Value: "data"})
	s.Close(1)
	require.NoError(t, ix.Check())

	return &s11n.Dumper{Table: tbl, Namespaces: ix}
}

func TestDumper(t *testing.T) {
	t.Run("document", func(t *testing.T) {
		d := sampleDoc(t)
		var buf bytes.Buffer
		require.NoError(t, d.DumpDoc(&buf, 0))
		require.Equal(t, `<?xml version="1.0"?>`+"\n"+
			`<r xmlns="urn:d" xmlns:p="urn:p" id="1"><p:a x="&lt;"><!--c--><b xmlns="">t</b></p:a><?pi data?></r>`+"\n",
			buf.String())
	})

	t.Run("encoding declaration", func(t *testing.T) {
		d := sampleDoc(t)
		d.Encoding = "ISO-8859-1"
		var buf bytes.Buffer
		require.NoError(t, d.DumpDoc(&buf, 0))
		require.Contains(t, buf.String(), `<?xml version="1.0" encoding="ISO-8859-1"?>`)
	})

	t.Run("subtree carries bindings in scope", func(t *testing.T) {
		d := sampleDoc(t)
		var buf bytes.Buffer
		require.NoError(t, d.DumpNode(&buf, 3))
		require.Equal(t, `<p:a xmlns="urn:d" xmlns:p="urn:p" x="&lt;"><!--c--><b xmlns="">t</b></p:a>`, buf.String())
	})

	t.Run("undeclared default at the top", func(t *testing.T) {
		d := sampleDoc(t)
		var buf bytes.Buffer
		require.NoError(t, d.DumpNode(&buf, 6))
		require.Equal(t, `<b xmlns:p="urn:p">t</b>`, buf.String())
	})

	t.Run("leaves", func(t *testing.T) {
		d := sampleDoc(t)
		for pre, expected := range map[int]string{2: `id="1"`, 5: `<!--c-->`, 7: `t`, 8: `<?pi data?>`} {
			var buf bytes.Buffer
			require.NoError(t, d.DumpNode(&buf, pre))
			require.Equal(t, expected, buf.String())
		}
	})

	t.Run("without index", func(t *testing.T) {
		d := sampleDoc(t)
		d.Namespaces = nil
		var buf bytes.Buffer
		require.NoError(t, d.DumpNode(&buf, 1))
		require.Equal(t, `<r id="1"><p:a x="&lt;"><!--c--><b>t</b></p:a><?pi data?></r>`, buf.String())
	})

	t.Run("write error", func(t *testing.T) {
		d := sampleDoc(t)
		require.ErrorIs(t, d.DumpDoc(failWriter{}, 0), errFail)
	})
}

var errFail = errors.New("fail")

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errFail }

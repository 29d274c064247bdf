package node_test

import (
	"bytes"
	"io"
	"runtime"
	"testing"

	"github.com/lestrrat-go/heliumdb/internal/wire"
	"github.com/lestrrat-go/heliumdb/node"
	"github.com/stretchr/testify/require"
)

// doc0 r1 @id2 a3 "t"4 b5 doc6 s7
func sampleTable() *node.Table {
	t := node.NewTable()
	t.Append(node.Row{Kind: node.DocumentNode, Parent: -1, Size: 6})
	t.Append(node.Row{Kind: node.ElementNode, Parent: 0, Size: 5, Name: "r"})
	t.Append(node.Row{Kind: node.AttributeNode, Parent: 1, Size: 1, Name: "id", Value: "x"})
	t.Append(node.Row{Kind: node.ElementNode, Parent: 1, Size: 2, Name: "a"})
	t.Append(node.Row{Kind: node.TextNode, Parent: 3, Size: 1, Value: "t"})
	t.Append(node.Row{Kind: node.ElementNode, Parent: 1, Size: 1, Name: "b"})
	t.Append(node.Row{Kind: node.DocumentNode, Parent: -1, Size: 2})
	t.Append(node.Row{Kind: node.ElementNode, Parent: 6, Size: 1, Name: "s"})
	return t
}

func parents(t *node.Table) []int {
	list := make([]int, t.Len())
	for pre := range list {
		list[pre] = t.Parent(pre, t.Kind(pre))
	}
	return list
}

func sizes(t *node.Table) []int {
	list := make([]int, t.Len())
	for pre := range list {
		list[pre] = t.Size(pre)
	}
	return list
}

func TestKind(t *testing.T) {
	require.Equal(t, "element", node.ElementNode.String())
	require.Equal(t, "processing-instruction", node.ProcessingInstructionNode.String())
	require.Equal(t, "invalid", node.Kind(0).String())
	require.False(t, node.Kind(42).Valid())
	require.True(t, node.TextNode.Valid())
}

func TestTable(t *testing.T) {
	t.Run("accessors", func(t *testing.T) {
		tbl := sampleTable()
		require.Equal(t, 8, tbl.Len())
		require.Equal(t, []int{0, 6}, tbl.Documents())
		require.Equal(t, "r", tbl.Name(1))
		require.Equal(t, "x", tbl.Value(2))
		require.Equal(t, node.AttributeNode, tbl.Kind(2))

		tbl.SetURIID(3, 7)
		require.Equal(t, 7, tbl.URIID(3))

		_, err := tbl.Row(8)
		require.ErrorIs(t, err, node.ErrOutOfRange)
		r, err := tbl.Row(5)
		require.NoError(t, err)
		require.Equal(t, "b", r.Name)
	})

	t.Run("insert", func(t *testing.T) {
		tbl := sampleTable()
		// <c><d/></c> after a, before b
		err := tbl.Insert(5, 1, []node.Row{
			{Kind: node.ElementNode, Parent: -1, Size: 2, Name: "c"},
			{Kind: node.ElementNode, Parent: 0, Size: 1, Name: "d"},
		})
		require.NoError(t, err)
		require.Equal(t, []int{-1, 0, 1, 1, 3, 1, 5, 1, -1, 8}, parents(tbl))
		require.Equal(t, []int{8, 7, 1, 2, 1, 2, 1, 1, 2, 1}, sizes(tbl))
		require.Equal(t, "b", tbl.Name(7))
		require.Equal(t, []int{0, 8}, tbl.Documents())
	})

	t.Run("insert document", func(t *testing.T) {
		tbl := sampleTable()
		err := tbl.Insert(6, -1, []node.Row{
			{Kind: node.DocumentNode, Parent: -1, Size: 1},
		})
		require.NoError(t, err)
		require.Equal(t, []int{0, 6, 7}, tbl.Documents())
		require.Equal(t, 7, tbl.Parent(8, node.ElementNode))
	})

	t.Run("insert out of range", func(t *testing.T) {
		tbl := sampleTable()
		require.ErrorIs(t, tbl.Insert(9, -1, nil), node.ErrOutOfRange)
		require.ErrorIs(t, tbl.Insert(7, 1, nil), node.ErrOutOfRange, `position outside the parent`)
		require.ErrorIs(t, tbl.Insert(1, 1, nil), node.ErrOutOfRange, `position before the parent`)
	})

	t.Run("delete", func(t *testing.T) {
		tbl := sampleTable()
		size, err := tbl.Delete(3)
		require.NoError(t, err)
		require.Equal(t, 2, size)
		require.Equal(t, []int{-1, 0, 1, 1, -1, 4}, parents(tbl))
		require.Equal(t, []int{4, 3, 1, 1, 2, 1}, sizes(tbl))
		require.Equal(t, []int{0, 4}, tbl.Documents())

		size, err = tbl.Delete(0)
		require.NoError(t, err)
		require.Equal(t, 4, size)
		require.Equal(t, []int{-1, 0}, parents(tbl))

		_, err = tbl.Delete(2)
		require.ErrorIs(t, err, node.ErrOutOfRange)
	})
}

func TestTableCodec(t *testing.T) {
	var buf bytes.Buffer
	enc := wire.NewEncoder(&buf)
	tbl := sampleTable()
	tbl.Encode(enc)
	require.NoError(t, enc.Err())

	got, err := node.DecodeTable(wire.NewDecoder(bytes.NewReader(buf.Bytes())))
	require.NoError(t, err)
	require.Equal(t, tbl, got)

	t.Run("truncated", func(t *testing.T) {
		data := buf.Bytes()
		_, err := node.DecodeTable(wire.NewDecoder(bytes.NewReader(data[:len(data)-1])))
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("row count without rows", func(t *testing.T) {
		var buf bytes.Buffer
		enc := wire.NewEncoder(&buf)
		enc.Count(wire.MaxCount)
		require.NoError(t, enc.Err())

		var before, after runtime.MemStats
		runtime.ReadMemStats(&before)
		_, err := node.DecodeTable(wire.NewDecoder(bytes.NewReader(buf.Bytes())))
		runtime.ReadMemStats(&after)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
		require.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20), `rows are not reserved up front`)
	})

	encode := func(rows ...node.Row) []byte {
		var buf bytes.Buffer
		enc := wire.NewEncoder(&buf)
		enc.Count(len(rows))
		for _, r := range rows {
			enc.Count(int(r.Kind))
			enc.Int(r.Parent)
			enc.Count(r.Size)
			enc.String(r.Name)
			enc.Count(r.URI)
			enc.String(r.Value)
		}
		return buf.Bytes()
	}

	doc := func(size int) node.Row { return node.Row{Kind: node.DocumentNode, Parent: -1, Size: size} }
	elem := func(parent, size int) node.Row { return node.Row{Kind: node.ElementNode, Parent: parent, Size: size} }

	testcases := []struct {
		name string
		data []byte
	}{
		{name: "invalid kind", data: encode(node.Row{Kind: 9, Parent: -1, Size: 1})},
		{name: "parent after child", data: encode(doc(2), elem(1, 1))},
		{name: "zero size", data: encode(doc(1), doc(0))},
		{name: "size past end", data: encode(doc(3), elem(0, 1))},
		{name: "element without parent", data: encode(elem(-1, 1))},
		{name: "document with parent", data: encode(doc(2), node.Row{Kind: node.DocumentNode, Parent: 0, Size: 1})},
		{name: "child escapes parent", data: encode(doc(3), elem(0, 1), elem(1, 1))},
		{name: "child of attribute", data: encode(doc(3), node.Row{Kind: node.AttributeNode, Parent: 0, Size: 2}, elem(1, 1))},
		{name: "overlapping documents", data: encode(doc(2), doc(1))},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := node.DecodeTable(wire.NewDecoder(bytes.NewReader(tc.data)))
			require.ErrorIs(t, err, node.ErrCorrupt)
		})
	}
}

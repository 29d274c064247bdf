package nsindex_test

import (
	"testing"

	"github.com/lestrrat-go/heliumdb/node"
	"github.com/lestrrat-go/heliumdb/nsindex"
	"github.com/stretchr/testify/require"
)

type elem struct {
	name  string
	decls []nsindex.Decl
	kids  []elem
}

func ns(pairs ...string) []nsindex.Decl {
	var list []nsindex.Decl
	for i := 0; i+1 < len(pairs); i += 2 {
		list = append(list, nsindex.Decl{Prefix: pairs[i], URI: pairs[i+1]})
	}
	return list
}

type fixture struct {
	tbl *node.Table
	ix  *nsindex.Index
	pre map[string]int
	// seen records, per element name, what the build session resolved
	// for the element's own unprefixed name
	seen map[string]int
}

// build feeds the given trees to a fresh index in document order. With
// withDoc, every tree is wrapped in a document node.
func build(t *testing.T, withDoc bool, roots ...elem) *fixture {
	t.Helper()
	f := &fixture{
		tbl:  node.NewTable(),
		ix:   nsindex.New(),
		pre:  make(map[string]int),
		seen: make(map[string]int),
	}
	s := f.ix.Session()
	for _, r := range roots {
		parent := -1
		if withDoc {
			parent = f.tbl.Append(node.Row{Kind: node.DocumentNode, Parent: -1, Size: 1})
		}
		f.add(s, r, parent)
		if withDoc {
			f.tbl.SetSize(parent, f.tbl.Len()-parent)
		}
	}
	require.Equal(t, 1, s.Level(), `session is back at level 1`)
	require.NoError(t, f.ix.Check(), `tree invariants hold after build`)
	return f
}

func (f *fixture) add(s *nsindex.Session, e elem, parent int) {
	pre := f.tbl.Append(node.Row{Kind: node.ElementNode, Parent: parent, Size: 1, Name: e.name})
	f.pre[e.name] = pre
	s.OpenNS(pre, e.decls)
	f.seen[e.name] = s.URIIDForPrefix("", true)
	for _, k := range e.kids {
		f.add(s, k, pre)
	}
	f.tbl.SetSize(pre, f.tbl.Len()-pre)
	s.Close(pre)
}

// uri resolves prefix on the element called name.
func (f *fixture) uri(prefix, name string) string {
	return f.ix.URI(f.ix.URIIDForPrefix(prefix, f.pre[name], f.tbl))
}

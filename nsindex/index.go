// Package nsindex keeps track of the namespace bindings of documents that
// are stored as a flat sequence of pre-order numbered nodes.
//
// Declarations are sparse, so only nodes that declare at least one
// binding get a namespace node. Namespace nodes form a tree of their own
// whose edges skip structural ancestors without declarations; questions
// about ancestry are answered by merging that tree with a Structure.
//
// An Index is not synchronized. Lookups may run concurrently as long as
// no Session or maintenance operation is active.
package nsindex

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/lestrrat-go/heliumdb/internal/stack/nsstack"
	"github.com/lestrrat-go/heliumdb/internal/symtab"
	"github.com/lestrrat-go/pdebug"
)

type Index struct {
	prefixes *symtab.Table
	uris     *symtab.Table
	nodes    []nsNode
	free     []Handle
}

// New creates an empty index.
func New() *Index {
	return &Index{
		prefixes: symtab.New(),
		uris:     symtab.New(),
		nodes:    []nsNode{{anchor: rootAnchor, parent: noHandle, live: true}},
	}
}

// IsEmpty reports whether no namespace node is left in the tree.
func (ix *Index) IsEmpty() bool {
	return len(ix.nodes[rootHandle].children) == 0
}

// Size returns the number of URIs interned so far. Deleting bindings
// never makes it shrink.
func (ix *Index) Size() int {
	return ix.uris.Len()
}

func (ix *Index) Prefix(id int) string {
	return ix.prefixes.Key(id)
}

// URI returns the namespace URI for id; id 0 yields the empty string.
func (ix *Index) URI(id int) string {
	return ix.uris.Key(id)
}

// URIID returns the id of uri, or 0 if it is unknown.
func (ix *Index) URIID(uri string) int {
	return ix.uris.Index(uri)
}

// InternURI returns an id for uri without binding it anywhere. This is
// used for namespaces that are bound implicitly, such as the xml prefix.
func (ix *Index) InternURI(uri string) int {
	return ix.uris.Put(uri)
}

// Anchor returns the pre value a namespace node is anchored at.
func (ix *Index) Anchor(h Handle) int {
	return ix.nodes[h].anchor
}

// Bindings returns the declarations held by a namespace node.
func (ix *Index) Bindings(h Handle) []Decl {
	return ix.decls(h)
}

// Anchors returns the anchors of all namespace nodes below the root.
func (ix *Index) Anchors() *roaring.Bitmap {
	bm := roaring.New()
	for h := range ix.nodes {
		if n := &ix.nodes[h]; n.live && Handle(h) != rootHandle {
			bm.Add(uint32(n.anchor))
		}
	}
	return bm
}

// lookup walks from h towards the root until a node binds prefix.
func (ix *Index) lookup(prefix string, h Handle) int {
	var pid int
	if prefix != "" {
		if pid = ix.prefixes.Index(prefix); pid == 0 {
			return 0
		}
	}

	for ; h != noHandle; h = ix.nodes[h].parent {
		if uri, ok := ix.nodes[h].uri(pid); ok {
			return uri
		}
	}
	return 0
}

// URIIDForPrefix resolves prefix for the node at pre. The empty prefix
// resolves to the default namespace in scope. It returns 0 if the prefix
// is not bound.
func (ix *Index) URIIDForPrefix(prefix string, pre int, st Structure) int {
	return ix.lookup(prefix, ix.Find(pre, st))
}

// Values returns the declarations made exactly at pre.
func (ix *Index) Values(pre int, st Structure) []Decl {
	h := ix.Find(pre, st)
	if ix.nodes[h].anchor != pre {
		return nil
	}
	return ix.decls(h)
}

// InScope returns every binding visible at pre, nearest first. A prefix
// redeclared closer to pre hides the outer binding.
func (ix *Index) InScope(pre int, st Structure) []Decl {
	s := nsstack.New()
	for h := ix.Find(pre, st); h != noHandle; h = ix.nodes[h].parent {
		for _, d := range ix.decls(h) {
			s.Push(d.Prefix, d.URI)
		}
	}

	items := s.Items()
	list := make([]Decl, len(items))
	for i, item := range items {
		list[i] = Decl{Prefix: item.Prefix(), URI: item.URI()}
	}
	return list
}

// Find returns the namespace node of the nearest ancestor-or-self of pre
// that declares namespaces, or the root handle.
func (ix *Index) Find(pre int, st Structure) Handle {
	h := rootHandle
	for {
		i := ix.childIndex(h, pre)
		if i < 0 {
			return h
		}
		c := ix.nodes[h].children[i]
		ca := ix.nodes[c].anchor
		if ca == pre {
			return c
		}
		if pre >= ca+st.Size(ca) {
			return h
		}
		h = c
	}
}

// Root locates the nearest namespace node on the ancestor-or-self axis of
// pre and returns a Session seated there, ready to replay nodes inserted
// below pre.
//
// Candidates are collected by anchor alone and then confirmed against the
// structural ancestors of pre; the first candidate whose anchor is an
// actual ancestor wins. When none matches, the root is used.
func (ix *Index) Root(pre int, st Structure) *Session {
	var cand []Handle
	for h := rootHandle; ; {
		i := ix.childIndex(h, pre)
		if i < 0 {
			break
		}
		h = ix.nodes[h].children[i]
		cand = append(cand, h)
	}

	found := rootHandle
	anc := pre
	for j := len(cand) - 1; j >= 0 && anc >= 0; j-- {
		ca := ix.nodes[cand[j]].anchor
		for anc > ca {
			anc = st.Parent(anc, st.Kind(anc))
		}
		if anc == ca {
			found = cand[j]
			break
		}
	}

	if pdebug.Enabled {
		pdebug.Printf("nsindex.Root: pre=%d candidates=%d anchor=%d", pre, len(cand), ix.nodes[found].anchor)
	}

	s := newSession(ix, found)
	uri := ix.lookup("", found)
	s.defaults[s.level] = uri
	s.defaults[s.level-1] = uri
	return s
}

package nsindex

import "sort"

// Handle addresses a namespace node inside the arena of an Index. Handles
// of deleted nodes are recycled.
type Handle int32

const (
	rootHandle Handle = 0
	noHandle   Handle = -1

	// rootAnchor is the anchor of the root node, in front of every valid
	// pre value.
	rootAnchor = -1
)

// Binding is a prefix id / URI id pair. Prefix id 0 is the default
// namespace, URI id 0 means no namespace.
type Binding struct {
	Prefix int
	URI    int
}

// nsNode holds the bindings declared at exactly one pre value. Children
// are sorted by anchor and each lies in the structural subtree of its
// parent, though not necessarily as an immediate structural child.
type nsNode struct {
	anchor   int
	parent   Handle
	bindings []Binding
	children []Handle
	live     bool
}

func (n *nsNode) uri(prefix int) (int, bool) {
	for i := len(n.bindings) - 1; i >= 0; i-- {
		if n.bindings[i].Prefix == prefix {
			return n.bindings[i].URI, true
		}
	}
	return 0, false
}

func (n *nsNode) bind(prefix, uri int) {
	for i := range n.bindings {
		if n.bindings[i].Prefix == prefix {
			n.bindings[i].URI = uri
			return
		}
	}
	n.bindings = append(n.bindings, Binding{Prefix: prefix, URI: uri})
}

func (n *nsNode) unbindURI(uri int) {
	kept := n.bindings[:0]
	for _, b := range n.bindings {
		if b.URI != uri {
			kept = append(kept, b)
		}
	}
	n.bindings = kept
}

func (ix *Index) alloc(anchor int) Handle {
	nd := nsNode{anchor: anchor, parent: noHandle, live: true}
	if l := len(ix.free); l > 0 {
		h := ix.free[l-1]
		ix.free = ix.free[:l-1]
		ix.nodes[h] = nd
		return h
	}
	ix.nodes = append(ix.nodes, nd)
	return Handle(len(ix.nodes) - 1)
}

// release frees h and its whole subtree.
func (ix *Index) release(h Handle) {
	for _, c := range ix.nodes[h].children {
		ix.release(c)
	}
	ix.nodes[h] = nsNode{parent: noHandle}
	ix.free = append(ix.free, h)
}

// childIndex returns the position of the last child of h whose anchor is
// not greater than pre, or -1.
func (ix *Index) childIndex(h Handle, pre int) int {
	ch := ix.nodes[h].children
	return sort.Search(len(ch), func(i int) bool {
		return ix.nodes[ch[i]].anchor > pre
	}) - 1
}

// firstChildFrom returns the position of the first child of h whose
// anchor is at least pre.
func (ix *Index) firstChildFrom(h Handle, pre int) int {
	ch := ix.nodes[h].children
	return sort.Search(len(ch), func(i int) bool {
		return ix.nodes[ch[i]].anchor >= pre
	})
}

// attach adds child below parent, keeping children sorted by anchor.
func (ix *Index) attach(parent, child Handle) {
	i := ix.childIndex(parent, ix.nodes[child].anchor) + 1
	p := &ix.nodes[parent]
	p.children = append(p.children, 0)
	copy(p.children[i+1:], p.children[i:])
	p.children[i] = child
	ix.nodes[child].parent = parent
}

// deleteChildren removes the children of h anchored in [pre, pre+size).
func (ix *Index) deleteChildren(h Handle, pre, size int) {
	lo := ix.firstChildFrom(h, pre)
	hi := ix.firstChildFrom(h, pre+size)
	if lo >= hi {
		return
	}
	for _, c := range ix.nodes[h].children[lo:hi] {
		ix.release(c)
	}
	p := &ix.nodes[h]
	p.children = append(p.children[:lo], p.children[hi:]...)
}

func (ix *Index) decls(h Handle) []Decl {
	bs := ix.nodes[h].bindings
	if len(bs) == 0 {
		return nil
	}
	list := make([]Decl, len(bs))
	for i, b := range bs {
		list[i] = Decl{Prefix: ix.prefixes.Key(b.Prefix), URI: ix.uris.Key(b.URI)}
	}
	return list
}

package nsindex

import "github.com/lestrrat-go/pdebug"

// Add declares prefix/uri on the existing node at pre and returns the URI
// id. A namespace node is created at pre if there is none yet; namespace
// nodes already anchored inside the subtree of pre move below it.
func (ix *Index) Add(pre int, prefix, uri string, st Structure) int {
	pid := ix.prefixes.Put(prefix)
	uid := ix.uris.Put(uri)

	h := ix.Find(pre, st)
	if ix.nodes[h].anchor != pre {
		c := ix.alloc(pre)
		lo := ix.firstChildFrom(h, pre)
		hi := ix.firstChildFrom(h, pre+st.Size(pre))
		if lo < hi {
			p := &ix.nodes[h]
			moved := append([]Handle(nil), p.children[lo:hi]...)
			p.children = append(p.children[:lo], p.children[hi:]...)
			for _, m := range moved {
				ix.nodes[m].parent = c
			}
			ix.nodes[c].children = moved
		}
		ix.attach(h, c)
		h = c
	}
	ix.nodes[h].bind(pid, uid)

	if pdebug.Enabled {
		pdebug.Printf("nsindex.Add: pre=%d prefix=%q uri=%q", pre, prefix, uri)
	}
	return uid
}

// Delete reacts to the removal of size nodes starting at pre: namespace
// nodes anchored in [pre, pre+size) are dropped and every later anchor
// moves down by size.
//
// Only anchors are consulted, so Delete gives the same result whether the
// structure has already been renumbered or not.
func (ix *Index) Delete(pre, size int) {
	if size <= 0 {
		return
	}
	if pdebug.Enabled {
		pdebug.Printf("nsindex.Delete: pre=%d size=%d", pre, size)
	}

	for h := rootHandle; ; {
		ix.deleteChildren(h, pre, size)
		i := ix.childIndex(h, pre)
		if i < 0 {
			break
		}
		h = ix.nodes[h].children[i]
	}
	ix.Shift(pre+size, -size)
}

// Shift adds diff to every anchor that is at least from.
func (ix *Index) Shift(from, diff int) {
	for h := range ix.nodes {
		n := &ix.nodes[h]
		if n.live && Handle(h) != rootHandle && n.anchor >= from {
			n.anchor += diff
		}
	}
}

// Cache returns all namespace nodes anchored at pre or later, in
// document order.
func (ix *Index) Cache(pre int) []Handle {
	return ix.cache(rootHandle, pre, nil)
}

func (ix *Index) cache(h Handle, pre int, list []Handle) []Handle {
	ch := ix.nodes[h].children
	for i := max(0, ix.childIndex(h, pre)); i < len(ch); i++ {
		c := ch[i]
		if ix.nodes[c].anchor >= pre {
			list = append(list, c)
		}
		list = ix.cache(c, pre, list)
	}
	return list
}

// Rebase adds diff to the anchors of the given nodes, typically the
// result of Cache taken before a subtree was inserted.
func (ix *Index) Rebase(hs []Handle, diff int) {
	for _, h := range hs {
		ix.nodes[h].anchor += diff
	}
}

package nsindex

import (
	"io"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/lestrrat-go/heliumdb/internal/symtab"
	"github.com/lestrrat-go/heliumdb/internal/wire"
	"github.com/lestrrat-go/heliumdb/node"
	"github.com/pkg/errors"
)

// WriteTo serializes the index: the prefix table, the URI table, then the
// namespace tree depth first. Each node is written as its anchor, its
// bindings and its children in ascending anchor order.
func (ix *Index) WriteTo(w io.Writer) (int64, error) {
	enc := wire.NewEncoder(w)
	ix.Encode(enc)
	return enc.Written(), enc.Err()
}

// Encode writes the index to an encoder shared with other structures.
func (ix *Index) Encode(enc *wire.Encoder) {
	ix.prefixes.Encode(enc)
	ix.uris.Encode(enc)
	ix.encodeNode(enc, rootHandle)
}

func (ix *Index) encodeNode(enc *wire.Encoder, h Handle) {
	n := &ix.nodes[h]
	enc.Int(n.anchor)
	enc.Count(len(n.bindings))
	for _, b := range n.bindings {
		enc.Count(b.Prefix)
		enc.Count(b.URI)
	}
	enc.Count(len(n.children))
	for _, c := range n.children {
		ix.encodeNode(enc, c)
	}
}

// Read deserializes an index written by WriteTo.
func Read(r io.Reader) (*Index, error) {
	return Decode(wire.NewDecoder(r))
}

// Decode reads an index from a decoder shared with other structures. Any
// inconsistency is reported as ErrCorruptNamespaceData.
func Decode(dec *wire.Decoder) (*Index, error) {
	prefixes, err := symtab.Decode(dec)
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptNamespaceData, "prefix table: %s", err)
	}
	uris, err := symtab.Decode(dec)
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptNamespaceData, "uri table: %s", err)
	}

	ix := &Index{prefixes: prefixes, uris: uris}
	if _, err := ix.decodeNode(dec, noHandle); err != nil {
		return nil, err
	}
	if err := ix.Check(); err != nil {
		return nil, err
	}
	return ix, nil
}

func (ix *Index) decodeNode(dec *wire.Decoder, parent Handle) (Handle, error) {
	anchor := dec.Int()
	nb := dec.Count()
	if err := dec.Err(); err != nil {
		return noHandle, errors.Wrapf(ErrCorruptNamespaceData, "namespace node: %s", err)
	}

	h := ix.alloc(anchor)
	for i := 0; i < nb; i++ {
		b := Binding{Prefix: dec.Count(), URI: dec.Count()}
		if dec.Err() != nil {
			break
		}
		ix.nodes[h].bindings = append(ix.nodes[h].bindings, b)
	}

	nc := dec.Count()
	if err := dec.Err(); err != nil {
		return noHandle, errors.Wrapf(ErrCorruptNamespaceData, "namespace node at %d: %s", anchor, err)
	}
	var children []Handle
	for i := 0; i < nc; i++ {
		c, err := ix.decodeNode(dec, h)
		if err != nil {
			return noHandle, err
		}
		children = append(children, c)
	}
	ix.nodes[h].children = children
	ix.nodes[h].parent = parent
	return h, nil
}

// Check verifies the structural invariants of the namespace tree: the
// root sits at the sentinel anchor, anchors are unique, children ascend
// and lie after their parent, and bindings refer to interned ids.
func (ix *Index) Check() error {
	if len(ix.nodes) == 0 || !ix.nodes[rootHandle].live || ix.nodes[rootHandle].anchor != rootAnchor {
		return errors.Wrap(ErrCorruptNamespaceData, "missing root node")
	}
	return ix.check(rootHandle, roaring.New())
}

func (ix *Index) check(h Handle, seen *roaring.Bitmap) error {
	n := &ix.nodes[h]
	for _, b := range n.bindings {
		if !ix.prefixes.Valid(b.Prefix) || !ix.uris.Valid(b.URI) {
			return errors.Wrapf(ErrCorruptNamespaceData, "binding %d/%d at %d out of range", b.Prefix, b.URI, n.anchor)
		}
	}

	last := n.anchor
	for _, c := range n.children {
		cn := &ix.nodes[c]
		if cn.parent != h || !cn.live {
			return errors.Wrapf(ErrCorruptNamespaceData, "dangling child of %d", n.anchor)
		}
		if cn.anchor <= last || int64(cn.anchor) > math.MaxUint32 {
			return errors.Wrapf(ErrCorruptNamespaceData, "anchor %d out of order below %d", cn.anchor, n.anchor)
		}
		if !seen.CheckedAdd(uint32(cn.anchor)) {
			return errors.Wrapf(ErrCorruptNamespaceData, "duplicate anchor %d", cn.anchor)
		}
		if err := ix.check(c, seen); err != nil {
			return err
		}
		last = cn.anchor
	}
	return nil
}

// CheckStructure verifies the namespace tree against the n nodes of st:
// every anchor names an element, and lies inside the structural subtree
// of the node its namespace node hangs below.
func (ix *Index) CheckStructure(st Structure, n int) error {
	anchors := ix.Anchors()
	if !anchors.IsEmpty() && uint64(anchors.Maximum()) >= uint64(n) {
		return errors.Wrapf(ErrCorruptNamespaceData, "anchor %d beyond %d nodes", anchors.Maximum(), n)
	}
	for it := anchors.Iterator(); it.HasNext(); {
		if a := int(it.Next()); st.Kind(a) != node.ElementNode {
			return errors.Wrapf(ErrCorruptNamespaceData, "anchor %d is not an element", a)
		}
	}
	return ix.checkContainment(rootHandle, st)
}

func (ix *Index) checkContainment(h Handle, st Structure) error {
	pa := ix.nodes[h].anchor
	for _, c := range ix.nodes[h].children {
		a := ix.nodes[c].anchor
		if h != rootHandle && a >= pa+st.Size(pa) {
			return errors.Wrapf(ErrCorruptNamespaceData, "anchor %d outside of %d", a, pa)
		}
		if err := ix.checkContainment(c, st); err != nil {
			return err
		}
	}
	return nil
}

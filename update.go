package heliumdb

import (
	"context"
	"io"
	"log/slog"

	"github.com/lestrrat-go/heliumdb/node"
	"github.com/pkg/errors"
)

// insert stores frag at ipre below ipar. The caller holds the write lock
// and has validated the position.
func (d *DB) insert(ctx context.Context, ipre, ipar int, frag *Fragment) error {
	if frag.Len() == 0 {
		return ErrEmptyFragment
	}
	err := frag.check(func(prefix string) bool {
		return d.ns.URIIDForPrefix(prefix, ipar, d.tbl) != 0
	})
	if err != nil {
		return err
	}

	n := frag.Len()
	moved := d.ns.Cache(ipre)
	d.ns.Rebase(moved, n)
	if err := d.tbl.Insert(ipre, ipar, frag.rows); err != nil {
		d.ns.Rebase(moved, -n)
		return err
	}
	d.replay(d.ns.Root(ipar, d.tbl), ipre, frag)

	TraceEvent(ctx, "fragment inserted",
		slog.Int("pre", ipre),
		slog.Int("parent", ipar),
		slog.Int("nodes", n),
		slog.Int("moved", len(moved)),
	)
	return nil
}

func (d *DB) delete(ctx context.Context, pre int) {
	size, err := d.tbl.Delete(pre)
	if err != nil {
		return
	}
	d.ns.Delete(pre, size)
	TraceEvent(ctx, "nodes deleted", slog.Int("pre", pre), slog.Int("nodes", size))
}

// Insert parses r and appends its nodes to the children of the element
// parent. It returns the pre value of the first inserted node.
func (d *DB) Insert(ctx context.Context, parent int, r io.Reader, options ...ParseOption) (int, error) {
	ctx, span := StartSpan(d.context(ctx), "DB.Insert")
	defer span.End()

	frag, err := ParseFragment(ctx, r, options...)
	if err != nil {
		return -1, err
	}
	return d.InsertFragment(ctx, parent, frag)
}

// InsertFragment appends frag to the children of the element parent.
func (d *DB) InsertFragment(ctx context.Context, parent int, frag *Fragment) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkElement(parent); err != nil {
		return -1, err
	}
	ipre := parent + d.tbl.Size(parent)
	if err := d.insert(d.context(ctx), ipre, parent, frag); err != nil {
		return -1, err
	}
	return ipre, nil
}

// siblingTarget checks that nodes can be placed next to target and
// returns its parent.
func (d *DB) siblingTarget(target int) (int, error) {
	if err := d.checkPre(target); err != nil {
		return -1, err
	}
	switch k := d.tbl.Kind(target); k {
	case node.DocumentNode, node.AttributeNode:
		return -1, errors.Wrapf(ErrInvalidOperation, "%d is a %s node", target, k)
	}
	parent := d.tbl.Parent(target, d.tbl.Kind(target))
	return parent, nil
}

// InsertBefore parses r and inserts its nodes in front of target, which
// must not be the root element of a document.
func (d *DB) InsertBefore(ctx context.Context, target int, r io.Reader, options ...ParseOption) (int, error) {
	ctx, span := StartSpan(d.context(ctx), "DB.InsertBefore")
	defer span.End()

	frag, err := ParseFragment(ctx, r, options...)
	if err != nil {
		return -1, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	parent, err := d.siblingTarget(target)
	if err != nil {
		return -1, err
	}
	if d.tbl.Kind(parent) != node.ElementNode {
		return -1, errors.Wrap(ErrInvalidDocument, "cannot add siblings to a root element")
	}
	if err := d.insert(ctx, target, parent, frag); err != nil {
		return -1, err
	}
	return target, nil
}

// Delete removes the node at pre with its subtree. Deleting a document
// node removes the whole document; the root element of a document can
// only be replaced.
func (d *DB) Delete(ctx context.Context, pre int) error {
	ctx, span := StartSpan(d.context(ctx), "DB.Delete")
	defer span.End()

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkPre(pre); err != nil {
		return err
	}
	k := d.tbl.Kind(pre)
	if p := d.tbl.Parent(pre, k); p >= 0 && k == node.ElementNode && d.tbl.Kind(p) == node.DocumentNode {
		return errors.Wrap(ErrInvalidDocument, "cannot delete a root element")
	}
	d.delete(ctx, pre)
	return nil
}

// Replace parses r and puts its nodes in place of the node at pre. A root
// element can only be replaced by exactly one element, and nodes next to
// it not at all.
func (d *DB) Replace(ctx context.Context, pre int, r io.Reader, options ...ParseOption) (int, error) {
	ctx, span := StartSpan(d.context(ctx), "DB.Replace")
	defer span.End()

	frag, err := ParseFragment(ctx, r, options...)
	if err != nil {
		return -1, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	parent, err := d.siblingTarget(pre)
	if err != nil {
		return -1, err
	}
	if d.tbl.Kind(parent) == node.DocumentNode {
		if d.tbl.Kind(pre) != node.ElementNode {
			return -1, errors.Wrap(ErrInvalidDocument, "cannot add siblings to a root element")
		}
		if err := frag.checkDocument(); err != nil {
			return -1, err
		}
	}
	if err := d.insert(ctx, pre, parent, frag); err != nil {
		return -1, err
	}
	d.delete(ctx, pre+frag.Len())
	return pre, nil
}

// DeclareNamespace binds prefix to uri on the element at pre. Elements
// and attributes below pre that use prefix pick up the new binding.
func (d *DB) DeclareNamespace(ctx context.Context, pre int, prefix, uri string) error {
	ctx, span := StartSpan(d.context(ctx), "DB.DeclareNamespace")
	defer span.End()

	switch {
	case prefix == "xml" || prefix == "xmlns":
		return errors.Wrapf(ErrInvalidOperation, "cannot declare the %s prefix", prefix)
	case prefix != "" && uri == "":
		return errors.Wrapf(ErrInvalidOperation, "cannot bind %q to the empty namespace", prefix)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkElement(pre); err != nil {
		return err
	}
	for _, decl := range d.ns.Values(pre, d.tbl) {
		if decl.Prefix != prefix {
			continue
		}
		if decl.URI == uri {
			return nil
		}
		return errors.Wrapf(ErrInvalidOperation, "%q is already bound to %q at %d", prefix, decl.URI, pre)
	}

	d.ns.Add(pre, prefix, uri, d.tbl)
	if err := d.reresolve(pre); err != nil {
		return err
	}
	TraceEvent(ctx, "namespace declared", slog.Int("pre", pre), slog.String("prefix", prefix), slog.String("uri", uri))
	return nil
}

// RemoveNamespace drops the declarations of uri made on the element at
// pre. It fails without changes if a name in the subtree would lose its
// binding.
func (d *DB) RemoveNamespace(ctx context.Context, pre int, uri string) error {
	ctx, span := StartSpan(d.context(ctx), "DB.RemoveNamespace")
	defer span.End()

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkElement(pre); err != nil {
		return err
	}

	var removed []Namespace
	for _, decl := range d.ns.Values(pre, d.tbl) {
		if decl.URI == uri {
			removed = append(removed, decl)
		}
	}
	if len(removed) == 0 {
		return errors.Wrapf(ErrNodeNotFound, "%q is not declared at %d", uri, pre)
	}

	d.ns.Root(pre, d.tbl).DeleteURI(uri)
	if err := d.reresolve(pre); err != nil {
		for _, decl := range removed {
			d.ns.Add(pre, decl.Prefix, decl.URI, d.tbl)
		}
		_ = d.reresolve(pre)
		TraceError(ctx, err, "namespace still in use", slog.Int("pre", pre), slog.String("uri", uri))
		return err
	}
	TraceEvent(ctx, "namespace removed", slog.Int("pre", pre), slog.String("uri", uri))
	return nil
}

// reresolve recomputes the namespace URIs of the subtree at pre.
func (d *DB) reresolve(pre int) error {
	var unbound error
	end := pre + d.tbl.Size(pre)
	for c := pre; c < end; c++ {
		k := d.tbl.Kind(c)
		if k != node.ElementNode && k != node.AttributeNode {
			continue
		}

		name := d.tbl.Name(c)
		prefix := prefixOf(name)
		var id int
		switch {
		case prefix == "xml":
			id = d.ns.InternURI(XMLNamespace)
		case prefix == "" && k == node.AttributeNode:
		default:
			id = d.ns.URIIDForPrefix(prefix, c, d.tbl)
			if id == 0 && prefix != "" && unbound == nil {
				unbound = errors.Wrapf(ErrUnboundPrefix, "%q in <%s>", prefix, name)
			}
		}
		d.tbl.SetURIID(c, id)
	}
	return unbound
}

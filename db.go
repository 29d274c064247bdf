package heliumdb

import (
	"context"
	"io"
	"log/slog"

	"github.com/lestrrat-go/heliumdb/internal/stack"
	"github.com/lestrrat-go/heliumdb/node"
	"github.com/lestrrat-go/heliumdb/nsindex"
	"github.com/pkg/errors"
)

// New creates an empty database.
func New(options ...DBOption) *DB {
	d := &DB{
		tbl: node.NewTable(),
		ns:  nsindex.New(),
	}
	for _, option := range options {
		switch option.Ident() {
		case identLogger{}:
			d.logger = option.Value().(*slog.Logger)
		}
	}
	return d
}

func (d *DB) context(ctx context.Context) context.Context {
	if d.logger != nil {
		return WithTraceLogger(ctx, d.logger)
	}
	return ctx
}

// AddDocument parses r and appends it as a new document called name. It
// returns the pre value of the document node.
func (d *DB) AddDocument(ctx context.Context, name string, r io.Reader, options ...ParseOption) (int, error) {
	frag, err := ParseFragment(d.context(ctx), r, options...)
	if err != nil {
		return -1, err
	}
	return d.AddFragment(ctx, name, frag)
}

// AddFragment appends frag as a new document called name. The fragment
// must have exactly one root element.
func (d *DB) AddFragment(ctx context.Context, name string, frag *Fragment) (int, error) {
	ctx, span := StartSpan(d.context(ctx), "DB.AddFragment")
	defer span.End()

	if err := frag.checkDocument(); err != nil {
		return -1, err
	}
	if err := frag.check(func(string) bool { return false }); err != nil {
		return -1, err
	}

	rows := make([]node.Row, 0, frag.Len()+1)
	rows = append(rows, node.Row{Kind: node.DocumentNode, Parent: -1, Size: frag.Len() + 1, Name: name})
	for _, r := range frag.rows {
		if r.Parent < 0 {
			r.Parent = 0
		} else {
			r.Parent++
		}
		rows = append(rows, r)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	pre := d.tbl.Len()
	if err := d.tbl.Insert(pre, -1, rows); err != nil {
		return -1, err
	}
	d.replay(d.ns.Session(), pre+1, frag)

	TraceEvent(ctx, "document added",
		slog.String("name", name),
		slog.Int("pre", pre),
		slog.Int("nodes", len(rows)),
	)
	return pre, nil
}

// replay feeds the rows of frag, already stored from pre on, to s in
// document order and records the namespace URI of every element and
// attribute.
func (d *DB) replay(s *nsindex.Session, pre int, frag *Fragment) {
	var open stack.Stack[int]
	closeUntil := func(p int) {
		for top, ok := open.Top(); ok && p >= top+d.tbl.Size(top); top, ok = open.Top() {
			s.Close(top)
			open.Pop()
		}
	}

	for i, r := range frag.rows {
		p := pre + i
		closeUntil(p)
		switch r.Kind {
		case node.ElementNode:
			s.OpenNS(p, frag.decls[i])
			open.Push(p)
			d.tbl.SetURIID(p, d.resolve(s, r.Name, true))
		case node.AttributeNode:
			d.tbl.SetURIID(p, d.resolve(s, r.Name, false))
		}
	}
	closeUntil(d.tbl.Len() + 1)
}

func (d *DB) resolve(s *nsindex.Session, name string, element bool) int {
	prefix := prefixOf(name)
	if prefix == "xml" {
		return d.ns.InternURI(XMLNamespace)
	}
	return s.URIIDForPrefix(prefix, element)
}

func (d *DB) checkPre(pre int) error {
	if pre < 0 || pre >= d.tbl.Len() {
		return errors.Wrapf(ErrNodeNotFound, "pre %d", pre)
	}
	return nil
}

func (d *DB) checkElement(pre int) error {
	if err := d.checkPre(pre); err != nil {
		return err
	}
	if k := d.tbl.Kind(pre); k != node.ElementNode {
		return errors.Wrapf(ErrInvalidOperation, "%d is a %s node", pre, k)
	}
	return nil
}

// Len returns the number of stored nodes.
func (d *DB) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tbl.Len()
}

// Documents returns the pre values of all document nodes.
func (d *DB) Documents() []int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tbl.Documents()
}

func (d *DB) Node(pre int) (Node, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, err := d.tbl.Row(pre)
	if err != nil {
		return Node{}, errors.Wrapf(ErrNodeNotFound, "pre %d", pre)
	}
	return Node{
		Pre:          pre,
		Kind:         r.Kind,
		Parent:       r.Parent,
		Size:         r.Size,
		Name:         r.Name,
		Value:        r.Value,
		NamespaceURI: d.ns.URI(r.URI),
	}, nil
}

// Children returns the pre values of the children of pre, attributes
// excluded.
func (d *DB) Children(pre int) ([]int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.checkPre(pre); err != nil {
		return nil, err
	}

	var list []int
	end := pre + d.tbl.Size(pre)
	for c := pre + 1; c < end; c += d.tbl.Size(c) {
		if d.tbl.Kind(c) != node.AttributeNode {
			list = append(list, c)
		}
	}
	return list, nil
}

// LookupNamespace resolves prefix in the scope of the node at pre. The
// empty prefix resolves to the default namespace, which is empty when
// none is declared.
func (d *DB) LookupNamespace(pre int, prefix string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.checkPre(pre); err != nil {
		return "", err
	}

	if prefix == "xml" {
		return XMLNamespace, nil
	}
	id := d.ns.URIIDForPrefix(prefix, pre, d.tbl)
	if id == 0 && prefix != "" {
		return "", errors.Wrapf(ErrUnboundPrefix, "%q at %d", prefix, pre)
	}
	return d.ns.URI(id), nil
}

// Namespaces returns the declarations made on the element at pre.
func (d *DB) Namespaces(pre int) ([]Namespace, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.checkPre(pre); err != nil {
		return nil, err
	}
	return d.ns.Values(pre, d.tbl), nil
}

// InScopeNamespaces returns every binding visible at pre, nearest first.
func (d *DB) InScopeNamespaces(pre int) ([]Namespace, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.checkPre(pre); err != nil {
		return nil, err
	}
	return d.ns.InScope(pre, d.tbl), nil
}

// DefaultNamespace returns the default namespace shared by all documents.
// ok is false if documents disagree or declare anything else.
func (d *DB) DefaultNamespace() (uri string, ok bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ns.DefaultNS(len(d.tbl.Documents()), d.tbl)
}

// NamespaceInfo lists every URI with the prefixes bound to it.
func (d *DB) NamespaceInfo() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ns.Info()
}

// NamespaceTable renders the declarations made on nodes start to end.
func (d *DB) NamespaceTable(start, end int) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ns.Table(start, end)
}

// NamespaceTree renders the namespace tree.
func (d *DB) NamespaceTree() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ns.String()
}

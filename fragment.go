package heliumdb

import (
	"context"
	"strings"

	"github.com/lestrrat-go/heliumdb/internal/stack"
	"github.com/lestrrat-go/heliumdb/node"
	"github.com/lestrrat-go/heliumdb/nsindex"
	"github.com/lestrrat-go/heliumdb/sax"
	"github.com/pkg/errors"
)

func qname(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

func prefixOf(name string) string {
	if i := strings.IndexByte(name, ':'); i > 0 {
		return name[:i]
	}
	return ""
}

func isSpace(s string) bool {
	return strings.Trim(s, " \t\r\n") == ""
}

// Len returns the number of nodes in the fragment, attributes included.
func (f *Fragment) Len() int {
	return len(f.rows)
}

// Roots returns the number of top level nodes.
func (f *Fragment) Roots() int {
	n := 0
	for _, r := range f.rows {
		if r.Parent < 0 {
			n++
		}
	}
	return n
}

// checkDocument verifies f can be stored as the content of a document.
func (f *Fragment) checkDocument() error {
	elements := 0
	for _, r := range f.rows {
		if r.Parent >= 0 {
			continue
		}
		switch r.Kind {
		case node.ElementNode:
			elements++
		case node.TextNode:
			return errors.Wrap(ErrInvalidDocument, "text outside of the root element")
		}
	}
	if elements != 1 {
		return errors.Wrapf(ErrInvalidDocument, "found %d root elements", elements)
	}
	return nil
}

// check makes sure every prefix used in f is bound, either inside f or,
// as reported by outer, at the place f is stored to.
func (f *Fragment) check(outer func(prefix string) bool) error {
	for i, r := range f.rows {
		if r.Kind != node.ElementNode && r.Kind != node.AttributeNode {
			continue
		}
		prefix := prefixOf(r.Name)
		if prefix == "" || prefix == "xml" {
			continue
		}

		bound, found := false, false
		for j := i; j >= 0 && !found; j = f.rows[j].Parent {
			for _, d := range f.decls[j] {
				if d.Prefix == prefix {
					bound, found = d.URI != "", true
					break
				}
			}
		}
		if !found {
			bound = outer(prefix)
		}
		if !bound {
			return errors.Wrapf(ErrUnboundPrefix, "%q in <%s>", prefix, r.Name)
		}
	}
	return nil
}

// builder collects sax events into a Fragment. Parent fields of the rows
// it creates are indexes into the fragment, -1 for top level nodes.
type builder struct {
	frag  *Fragment
	open  stack.Stack[int]
	strip bool
}

var _ sax.Handler = (*builder)(nil)

func newBuilder(strip bool) *builder {
	return &builder{frag: &Fragment{}, strip: strip}
}

func (b *builder) parent() int {
	if top, ok := b.open.Top(); ok {
		return top
	}
	return -1
}

func (b *builder) add(r node.Row, decls []nsindex.Decl) int {
	r.Parent = b.parent()
	r.Size = 1
	b.frag.rows = append(b.frag.rows, r)
	b.frag.decls = append(b.frag.decls, decls)
	return len(b.frag.rows) - 1
}

func (b *builder) StartDocument(context.Context) error {
	return nil
}

func (b *builder) EndDocument(context.Context) error {
	return nil
}

func (b *builder) StartElementNS(_ context.Context, localname, prefix string, namespaces []sax.Namespace, attrs []sax.Attribute) error {
	var decls []nsindex.Decl
	for _, ns := range namespaces {
		decls = append(decls, nsindex.Decl{Prefix: ns.Prefix, URI: ns.URI})
	}

	b.open.Push(b.add(node.Row{Kind: node.ElementNode, Name: qname(prefix, localname)}, decls))
	for _, a := range attrs {
		b.add(node.Row{Kind: node.AttributeNode, Name: a.Name(), Value: a.Value}, nil)
	}
	return nil
}

func (b *builder) EndElementNS(context.Context, string, string) error {
	top, ok := b.open.Top()
	if !ok {
		return errors.New("end element without start")
	}
	b.open.Pop()
	b.frag.rows[top].Size = len(b.frag.rows) - top
	return nil
}

func (b *builder) Characters(_ context.Context, ch []byte) error {
	s := string(ch)
	if s == "" {
		return nil
	}
	if isSpace(s) && (b.strip || b.open.Len() == 0) {
		return nil
	}

	rows := b.frag.rows
	if l := len(rows); l > 0 && rows[l-1].Kind == node.TextNode && rows[l-1].Parent == b.parent() {
		rows[l-1].Value += s
		return nil
	}
	b.add(node.Row{Kind: node.TextNode, Value: s}, nil)
	return nil
}

func (b *builder) CDataBlock(ctx context.Context, value []byte) error {
	return b.Characters(ctx, value)
}

func (b *builder) Comment(_ context.Context, value []byte) error {
	b.add(node.Row{Kind: node.CommentNode, Value: string(value)}, nil)
	return nil
}

func (b *builder) ProcessingInstruction(_ context.Context, target, data string) error {
	b.add(node.Row{Kind: node.ProcessingInstructionNode, Name: target, Value: data}, nil)
	return nil
}

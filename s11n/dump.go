package s11n

import (
	"io"

	"github.com/lestrrat-go/heliumdb/encoding"
	"github.com/lestrrat-go/heliumdb/node"
	"github.com/lestrrat-go/heliumdb/nsindex"
)

// Dumper serializes rows of a node table. Namespace declarations come
// from Namespaces; without an index no declaration is written.
type Dumper struct {
	Table      *node.Table
	Namespaces *nsindex.Index
	// Encoding is announced in the XML declaration written by DumpDoc.
	// Converting the output is up to the caller.
	Encoding string
}

// DumpDoc writes the document node at pre, XML declaration included.
func (d *Dumper) DumpDoc(out io.Writer, pre int) error {
	ew := &errWriter{w: out}
	ew.WriteString(`<?xml version="1.0"`)
	if !encoding.IsUTF8(d.Encoding) {
		ew.WriteString(` encoding=`)
		if err := DumpQuotedString(ew, d.Encoding); err != nil {
			return err
		}
	}
	ew.WriteString("?>\n")

	end := pre + d.Table.Size(pre)
	for c := pre + 1; c < end && ew.err == nil; c += d.Table.Size(c) {
		d.dump(ew, c, false)
		ew.WriteString("\n")
	}
	return ew.err
}

// DumpNode writes the subtree at pre. An element written this way carries
// every namespace binding in scope, so the output stands on its own.
func (d *Dumper) DumpNode(out io.Writer, pre int) error {
	ew := &errWriter{w: out}
	d.dump(ew, pre, true)
	return ew.err
}

func (d *Dumper) dump(ew *errWriter, pre int, top bool) {
	t := d.Table
	switch t.Kind(pre) {
	case node.DocumentNode:
		end := pre + t.Size(pre)
		for c := pre + 1; c < end; c += t.Size(c) {
			d.dump(ew, c, false)
		}
	case node.ElementNode:
		d.dumpElement(ew, pre, top)
	case node.AttributeNode:
		d.dumpAttribute(ew, pre)
	case node.TextNode:
		_ = EscapeText(ew, t.Value(pre), false)
	case node.CommentNode:
		ew.WriteString("<!--")
		ew.WriteString(t.Value(pre))
		ew.WriteString("-->")
	case node.ProcessingInstructionNode:
		ew.WriteString("<?")
		ew.WriteString(t.Name(pre))
		if v := t.Value(pre); v != "" {
			ew.WriteString(" ")
			ew.WriteString(v)
		}
		ew.WriteString("?>")
	}
}

func (d *Dumper) dumpAttribute(ew *errWriter, pre int) {
	ew.WriteString(d.Table.Name(pre))
	ew.WriteString(`="`)
	_ = EscapeAttrValue(ew, d.Table.Value(pre))
	ew.WriteString(`"`)
}

func (d *Dumper) dumpElement(ew *errWriter, pre int, top bool) {
	t := d.Table
	name := t.Name(pre)
	ew.WriteString("<")
	ew.WriteString(name)
	d.dumpNamespaces(ew, pre, top)

	end := pre + t.Size(pre)
	c := pre + 1
	for ; c < end && t.Kind(c) == node.AttributeNode; c++ {
		ew.WriteString(" ")
		d.dumpAttribute(ew, c)
	}
	if c == end {
		ew.WriteString("/>")
		return
	}

	ew.WriteString(">")
	for ; c < end && ew.err == nil; c += t.Size(c) {
		d.dump(ew, c, false)
	}
	ew.WriteString("</")
	ew.WriteString(name)
	ew.WriteString(">")
}

func (d *Dumper) dumpNamespaces(ew *errWriter, pre int, top bool) {
	if d.Namespaces == nil {
		return
	}

	var decls []nsindex.Decl
	if top {
		decls = d.Namespaces.InScope(pre, d.Table)
	} else {
		decls = d.Namespaces.Values(pre, d.Table)
	}
	for _, decl := range decls {
		switch {
		case decl.Prefix == "xml":
			continue
		case decl.Prefix == "" && decl.URI == "" && top:
			// undeclaring the default namespace is a no-op at the top
			continue
		case decl.Prefix == "":
			ew.WriteString(` xmlns="`)
		default:
			ew.WriteString(` xmlns:`)
			ew.WriteString(decl.Prefix)
			ew.WriteString(`="`)
		}
		_ = EscapeAttrValue(ew, decl.URI)
		ew.WriteString(`"`)
	}
}

package heliumdb

import (
	"context"
	"io"

	"github.com/lestrrat-go/heliumdb/encoding"
	"github.com/lestrrat-go/heliumdb/node"
	"github.com/lestrrat-go/heliumdb/s11n"
)

// Serialize writes the node at pre as XML. Documents get an XML
// declaration; an element written on its own carries all namespace
// bindings in scope.
func (d *DB) Serialize(ctx context.Context, w io.Writer, pre int, options ...SerializeOption) error {
	_, span := StartSpan(d.context(ctx), "DB.Serialize")
	defer span.End()

	var label string
	for _, option := range options {
		switch option.Ident() {
		case identOutputEncoding{}:
			label = option.Value().(string)
		}
	}

	out, err := encoding.NewWriter(label, w)
	if err != nil {
		return err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.checkPre(pre); err != nil {
		return err
	}

	dumper := &s11n.Dumper{Table: d.tbl, Namespaces: d.ns, Encoding: label}
	if d.tbl.Kind(pre) == node.DocumentNode {
		err = dumper.DumpDoc(out, pre)
	} else {
		err = dumper.DumpNode(out, pre)
	}
	if err != nil {
		return err
	}
	return out.Close()
}

package nsindex

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/lestrrat-go/heliumdb/internal/orderedmap"
	"github.com/lestrrat-go/heliumdb/node"
)

// DefaultNS returns the default namespace shared by all ndocs documents.
// It only succeeds if every document declares exactly one binding, the
// default namespace, on its root element and nothing else declares
// namespaces. Without any declarations the shared namespace is empty.
func (ix *Index) DefaultNS(ndocs int, st Structure) (string, bool) {
	children := ix.nodes[rootHandle].children
	if len(children) == 0 {
		return "", true
	}
	if len(children) != ndocs {
		return "", false
	}

	id := 0
	for i, c := range children {
		n := &ix.nodes[c]
		if len(n.children) > 0 || len(n.bindings) != 1 || n.bindings[0].Prefix != 0 {
			return "", false
		}
		p := st.Parent(n.anchor, st.Kind(n.anchor))
		if p < 0 || st.Kind(p) != node.DocumentNode {
			return "", false
		}
		if i == 0 {
			id = n.bindings[0].URI
		} else if id != n.bindings[0].URI {
			return "", false
		}
	}
	return ix.uris.Key(id), true
}

// walk visits all namespace nodes below h in document order.
func (ix *Index) walk(h Handle, depth int, f func(Handle, int)) {
	for _, c := range ix.nodes[h].children {
		f(c, depth)
		ix.walk(c, depth+1, f)
	}
}

// Info lists the prefixes bound to each URI, one URI per line.
func (ix *Index) Info() string {
	groups := orderedmap.New[string, []string]()
	ix.walk(rootHandle, 0, func(h Handle, _ int) {
		for _, d := range ix.decls(h) {
			prefixes, _ := groups.Get(d.URI)
			if !slices.Contains(prefixes, d.Prefix) {
				groups.Put(d.URI, append(prefixes, d.Prefix))
			}
		}
	})

	var sb strings.Builder
	for uri, prefixes := range groups.Range() {
		slices.Sort(prefixes)
		sb.WriteString("  ")
		if len(prefixes) > 1 || prefixes[0] != "" {
			if len(prefixes) > 1 {
				sb.WriteByte('(')
			}
			sb.WriteString(strings.Join(prefixes, ", "))
			if len(prefixes) > 1 {
				sb.WriteByte(')')
			}
			sb.WriteString(" = ")
		}
		fmt.Fprintf(&sb, "%q\n", uri)
	}
	return sb.String()
}

// Table renders the bindings of namespace nodes anchored in [start, end]
// as a table. Dist is the distance to the anchor of the parent namespace
// node. The result is empty if there is nothing to show.
func (ix *Index) Table(start, end int) string {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	rows := 0
	ix.walk(rootHandle, 0, func(h Handle, _ int) {
		n := &ix.nodes[h]
		if n.anchor < start || n.anchor > end {
			return
		}
		if len(n.bindings) == 0 {
			return
		}
		if rows == 0 {
			fmt.Fprintln(tw, "Pre\tDist\tPrefix\tURI")
		}
		dist := n.anchor - ix.nodes[n.parent].anchor
		for _, d := range ix.decls(h) {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", n.anchor, dist, d.Prefix, d.URI)
			rows++
		}
	})
	if rows == 0 {
		return ""
	}
	_ = tw.Flush()
	return sb.String()
}

// String renders the namespace tree, one node per line.
func (ix *Index) String() string {
	var sb strings.Builder
	sb.WriteString("Pre[-1]\n")
	ix.walk(rootHandle, 1, func(h Handle, depth int) {
		sb.WriteString(strings.Repeat("  ", depth))
		fmt.Fprintf(&sb, "Pre[%d]", ix.nodes[h].anchor)
		for _, d := range ix.decls(h) {
			if d.Prefix == "" {
				fmt.Fprintf(&sb, " xmlns=%q", d.URI)
			} else {
				fmt.Fprintf(&sb, " xmlns:%s=%q", d.Prefix, d.URI)
			}
		}
		sb.WriteByte('\n')
	})
	return sb.String()
}

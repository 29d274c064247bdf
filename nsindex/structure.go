package nsindex

import "github.com/lestrrat-go/heliumdb/node"

// Structure is the dense structural view of the stored documents that the
// namespace tree is kept consistent with. *node.Table implements it.
type Structure interface {
	Kind(pre int) node.Kind
	// Parent returns the parent of pre, or -1 if pre has none.
	Parent(pre int, kind node.Kind) int
	// Size returns the number of nodes in the subtree rooted at pre.
	Size(pre int) int
}

// Decl is a namespace declaration as written in a document. An empty
// Prefix declares the default namespace; an empty URI undeclares it.
type Decl struct {
	Prefix string
	URI    string
}

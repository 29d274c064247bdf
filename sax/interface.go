// Package sax defines the events an XML tokenizer reports while it reads
// a document, and a callback based implementation of the receiving end.
//
// Names are reported as written: the prefix is not resolved, since
// binding prefixes to namespace URIs is the job of the receiver.
package sax

import "context"

// Namespace is a namespace declaration found on a start tag. The default
// namespace has an empty Prefix.
type Namespace struct {
	Prefix string
	URI    string
}

// Attribute is an attribute of a start tag, namespace declarations
// excluded.
type Attribute struct {
	Prefix    string
	LocalName string
	Value     string
}

// Name returns the attribute name as written.
func (a Attribute) Name() string {
	if a.Prefix == "" {
		return a.LocalName
	}
	return a.Prefix + ":" + a.LocalName
}

// Handler receives the events of one document. Returning an error stops
// the tokenizer.
type Handler interface {
	StartDocument(ctx context.Context) error
	EndDocument(ctx context.Context) error
	StartElementNS(ctx context.Context, localname, prefix string, namespaces []Namespace, attrs []Attribute) error
	EndElementNS(ctx context.Context, localname, prefix string) error
	Characters(ctx context.Context, ch []byte) error
	CDataBlock(ctx context.Context, value []byte) error
	Comment(ctx context.Context, value []byte) error
	ProcessingInstruction(ctx context.Context, target, data string) error
}

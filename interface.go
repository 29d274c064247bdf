package heliumdb

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/lestrrat-go/heliumdb/node"
	"github.com/lestrrat-go/heliumdb/nsindex"
)

const Version = "v0.1.0"

// XMLNamespace is the namespace the xml prefix is bound to without any
// declaration.
const XMLNamespace = "http://www.w3.org/XML/1998/namespace"

var (
	ErrInvalidOperation = errors.New("invalid operation")
	ErrNodeNotFound     = errors.New("node not found")
	ErrUnboundPrefix    = errors.New("unbound namespace prefix")
	ErrInvalidDocument  = errors.New("a document needs exactly one root element")
	ErrEmptyFragment    = errors.New("empty fragment")
	ErrCorruptData      = errors.New("corrupt data")

	// ErrCorruptNamespaceData is reported when the namespace part of a
	// flushed database fails validation.
	ErrCorruptNamespaceData = nsindex.ErrCorruptNamespaceData
)

type ErrParseError struct {
	Column     int
	Err        error
	LineNumber int
}

// Namespace is a prefix to URI binding. The default namespace has an
// empty Prefix.
type Namespace = nsindex.Decl

// DB holds any number of documents in one node table, numbered in
// document order, together with the namespace index over them. A DB is
// safe for concurrent use: reads share a lock, updates are serialized.
type DB struct {
	mu     sync.RWMutex
	tbl    *node.Table
	ns     *nsindex.Index
	logger *slog.Logger
}

// Node describes one stored node.
type Node struct {
	Pre    int
	Kind   node.Kind
	Parent int
	Size   int
	// Name is the name as written, prefix included.
	Name         string
	Value        string
	NamespaceURI string
}

// Fragment is parsed XML that is not stored yet. Fragments do not depend
// on any DB and may be parsed concurrently.
type Fragment struct {
	rows  []node.Row
	decls [][]nsindex.Decl
}

// Parser turns XML text into sax events.
type Parser struct {
	charset string
	strip   bool
}

// Package node holds the dense representation of stored documents: a flat
// table of rows in document (pre) order. Each row knows its parent and the
// size of its subtree, which is all the navigation the rest of the store
// needs.
package node

import (
	"errors"
	"fmt"
	"slices"

	"github.com/lestrrat-go/heliumdb/internal/wire"
)

var (
	ErrOutOfRange = errors.New("pre value out of range")
	ErrCorrupt    = errors.New("corrupt node table")
)

// Row is one node of the table. Attributes directly follow their element
// and count towards its Size.
type Row struct {
	Kind Kind
	// Parent is the pre value of the parent row, or -1 for documents.
	Parent int
	// Size is the number of rows in the subtree, including the row itself.
	Size int
	// Name is the name as written in the source (prefix:local), or the
	// target of a processing instruction.
	Name string
	// URI is the namespace URI id of elements and attributes.
	URI   int
	Value string
}

type Table struct {
	rows []Row
}

func NewTable() *Table {
	return &Table{}
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) valid(pre int) bool {
	return pre >= 0 && pre < len(t.rows)
}

// Append adds a row at the end of the table and returns its pre value.
func (t *Table) Append(r Row) int {
	t.rows = append(t.rows, r)
	return len(t.rows) - 1
}

func (t *Table) SetSize(pre, size int) {
	t.rows[pre].Size = size
}

func (t *Table) Row(pre int) (Row, error) {
	if !t.valid(pre) {
		return Row{}, fmt.Errorf("%w: %d", ErrOutOfRange, pre)
	}
	return t.rows[pre], nil
}

func (t *Table) Kind(pre int) Kind {
	return t.rows[pre].Kind
}

// Parent returns the parent of pre, or -1 if pre is a document node.
func (t *Table) Parent(pre int, _ Kind) int {
	return t.rows[pre].Parent
}

func (t *Table) Size(pre int) int {
	return t.rows[pre].Size
}

func (t *Table) Name(pre int) string {
	return t.rows[pre].Name
}

func (t *Table) Value(pre int) string {
	return t.rows[pre].Value
}

func (t *Table) URIID(pre int) int {
	return t.rows[pre].URI
}

func (t *Table) SetURIID(pre, id int) {
	t.rows[pre].URI = id
}

// Documents returns the pre values of all document nodes.
func (t *Table) Documents() []int {
	var docs []int
	for pre := 0; pre < len(t.rows); pre += t.rows[pre].Size {
		docs = append(docs, pre)
	}
	return docs
}

// Insert splices rows into the table at ipre, below the row ipar (-1 for
// top level documents). Parent fields of the inserted rows are relative to
// the inserted block: -1 attaches a row to ipar, any other value is an
// index into rows.
func (t *Table) Insert(ipre, ipar int, rows []Row) error {
	if ipre < 0 || ipre > len(t.rows) {
		return fmt.Errorf("%w: insert position %d", ErrOutOfRange, ipre)
	}
	if ipar >= 0 {
		if !t.valid(ipar) || ipar >= ipre || ipre > ipar+t.rows[ipar].Size {
			return fmt.Errorf("%w: parent %d cannot hold position %d", ErrOutOfRange, ipar, ipre)
		}
	}

	n := len(rows)
	for p := range t.rows {
		if t.rows[p].Parent >= ipre {
			t.rows[p].Parent += n
		}
	}
	for a := ipar; a >= 0; a = t.rows[a].Parent {
		t.rows[a].Size += n
	}

	block := make([]Row, n)
	for i, r := range rows {
		if r.Parent < 0 {
			r.Parent = ipar
		} else {
			r.Parent += ipre
		}
		block[i] = r
	}
	t.rows = slices.Insert(t.rows, ipre, block...)
	return nil
}

// Delete removes the subtree rooted at pre and returns the number of
// removed rows. All later rows move down by that number.
func (t *Table) Delete(pre int) (int, error) {
	if !t.valid(pre) {
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, pre)
	}

	size := t.rows[pre].Size
	for a := t.rows[pre].Parent; a >= 0; a = t.rows[a].Parent {
		t.rows[a].Size -= size
	}
	t.rows = slices.Delete(t.rows, pre, pre+size)
	for p := range t.rows {
		if t.rows[p].Parent >= pre+size {
			t.rows[p].Parent -= size
		}
	}
	return size, nil
}

func (t *Table) Encode(enc *wire.Encoder) {
	enc.Count(len(t.rows))
	for _, r := range t.rows {
		enc.Count(int(r.Kind))
		enc.Int(r.Parent)
		enc.Count(r.Size)
		enc.String(r.Name)
		enc.Count(r.URI)
		enc.String(r.Value)
	}
}

func DecodeTable(dec *wire.Decoder) (*Table, error) {
	n := dec.Count()
	// n comes from the stream; rows grow as they are read
	t := &Table{}
	next := 0
	for pre := 0; pre < n && dec.Err() == nil; pre++ {
		r := Row{
			Kind:   Kind(dec.Count()),
			Parent: dec.Int(),
			Size:   dec.Count(),
			Name:   dec.String(),
			URI:    dec.Count(),
			Value:  dec.String(),
		}
		if dec.Err() != nil {
			break
		}
		if !r.Kind.Valid() || r.Parent < -1 || r.Parent >= pre || r.Size < 1 || pre+r.Size > n {
			return nil, fmt.Errorf("%w: row %d", ErrCorrupt, pre)
		}
		if (r.Kind == DocumentNode) != (r.Parent == -1) {
			return nil, fmt.Errorf("%w: row %d", ErrCorrupt, pre)
		}
		if r.Parent == -1 {
			if pre != next {
				return nil, fmt.Errorf("%w: document at %d overlaps its predecessor", ErrCorrupt, pre)
			}
			next = pre + r.Size
		} else {
			p := t.rows[r.Parent]
			if p.Kind == AttributeNode || pre+r.Size > r.Parent+p.Size {
				return nil, fmt.Errorf("%w: row %d escapes its parent", ErrCorrupt, pre)
			}
		}
		t.rows = append(t.rows, r)
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

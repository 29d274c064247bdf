// Package symtab implements an append-only string interning table.
//
// Ids are dense and start at 1. Id 0 stands for the empty string and is
// never stored. Ids are never reused or compacted, so Len only grows.
package symtab

import (
	"errors"

	"github.com/lestrrat-go/heliumdb/internal/wire"
)

var ErrCorrupt = errors.New("corrupt symbol table")

type Table struct {
	keys []string
	ids  map[string]int
}

func New() *Table {
	return &Table{
		ids: make(map[string]int),
	}
}

// Put interns key and returns its id. Interning an existing key returns
// the id it was given the first time.
func (t *Table) Put(key string) int {
	if key == "" {
		return 0
	}
	if id, ok := t.ids[key]; ok {
		return id
	}
	t.keys = append(t.keys, key)
	id := len(t.keys)
	t.ids[key] = id
	return id
}

// Index returns the id of key, or 0 if key was never interned.
func (t *Table) Index(key string) int {
	return t.ids[key]
}

// Key returns the string for id. Unknown ids yield the empty string.
func (t *Table) Key(id int) string {
	if id <= 0 || id > len(t.keys) {
		return ""
	}
	return t.keys[id-1]
}

// Valid reports whether id is 0 or an assigned id.
func (t *Table) Valid(id int) bool {
	return id >= 0 && id <= len(t.keys)
}

func (t *Table) Len() int {
	return len(t.keys)
}

func (t *Table) IsEmpty() bool {
	return len(t.keys) == 0
}

// Encode writes the entry count followed by every key in id order.
func (t *Table) Encode(enc *wire.Encoder) {
	enc.Count(len(t.keys))
	for _, k := range t.keys {
		enc.String(k)
	}
}

func Decode(dec *wire.Decoder) (*Table, error) {
	n := dec.Count()
	t := New()
	for i := 0; i < n && dec.Err() == nil; i++ {
		k := dec.String()
		if dec.Err() != nil {
			break
		}
		if k == "" || t.Put(k) != i+1 {
			return nil, ErrCorrupt
		}
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// Package nsstack collects prefix to URI bindings while walking outward
// from a node, keeping the first (nearest) binding seen for each prefix.
package nsstack

import "github.com/lestrrat-go/heliumdb/internal/stack"

type Item struct {
	prefix string
	href   string
}

func (i Item) Prefix() string {
	return i.prefix
}

func (i Item) URI() string {
	return i.href
}

func (i Item) Key() string {
	return i.prefix
}

type Stack struct {
	stack.UniqueStack[Item]
}

func New() *Stack {
	return &Stack{}
}

// Push records the binding unless the prefix is already bound. It
// reports whether the binding was recorded.
func (s *Stack) Push(prefix, uri string) bool {
	return s.UniqueStack.Push(Item{prefix: prefix, href: uri}) == nil
}

func (s *Stack) Lookup(prefix string) (string, bool) {
	item, ok := s.UniqueStack.Lookup(prefix)
	if !ok {
		return "", false
	}
	return item.href, true
}

// Items returns the recorded bindings in push order.
func (s *Stack) Items() []Item {
	return append([]Item(nil), s.UniqueStack...)
}

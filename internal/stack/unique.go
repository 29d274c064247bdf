package stack

import "errors"

var ErrDuplicateItem = errors.New("item already exists")

type LookupItem interface {
	Key() string
}

// UniqueStack holds at most one item per key.
type UniqueStack[T LookupItem] []T

func (s *UniqueStack[T]) Push(i T) error {
	if _, ok := s.Lookup(i.Key()); ok {
		return ErrDuplicateItem
	}
	*s = append(*s, i)
	return nil
}

func (s *UniqueStack[T]) Pop(n ...int) {
	nn := 1
	if len(n) > 0 {
		nn = n[0]
	}
	stackPop(s, nn)
}

func (s *UniqueStack[T]) Realloc() {
	*s = append(UniqueStack[T](nil), *s...)
}

func (s *UniqueStack[T]) PopLast() {
	if s.Len() <= 0 {
		return
	}
	*s = (*s)[:s.Len()-1]
}

func (s UniqueStack[T]) Len() int {
	return len(s)
}

func (s UniqueStack[T]) Cap() int {
	return cap(s)
}

func (s UniqueStack[T]) Lookup(key string) (T, bool) {
	for i := s.Len() - 1; i >= 0; i-- {
		if s[i].Key() == key {
			return s[i], true
		}
	}
	var zero T
	return zero, false
}

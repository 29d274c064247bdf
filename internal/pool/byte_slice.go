// Package pool holds reusable buffers shared by the storage code.
package pool

import "sync"

const defaultCapacity = 64

// ByteSlicePool hands out zero-length byte slices. Slices returned with
// Put may be handed out again by any later Get.
type ByteSlicePool struct {
	pool sync.Pool
}

var byteSlicePool = &ByteSlicePool{
	pool: sync.Pool{
		New: func() any {
			b := make([]byte, 0, defaultCapacity)
			return &b
		},
	},
}

// ByteSlice returns the process wide byte slice pool.
func ByteSlice() *ByteSlicePool {
	return byteSlicePool
}

func (p *ByteSlicePool) Get() []byte {
	return (*p.pool.Get().(*[]byte))[:0]
}

// GetCapacity returns a slice that can hold at least n bytes without
// growing.
func (p *ByteSlicePool) GetCapacity(n int) []byte {
	b := p.Get()
	if cap(b) < n {
		p.Put(b)
		return make([]byte, 0, n)
	}
	return b
}

func (p *ByteSlicePool) Put(b []byte) {
	if cap(b) == 0 {
		return
	}
	b = b[:0]
	p.pool.Put(&b)
}

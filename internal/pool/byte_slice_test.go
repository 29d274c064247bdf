package pool_test

import (
	"sync"
	"testing"

	"github.com/lestrrat-go/heliumdb/internal/pool"
	"github.com/stretchr/testify/require"
)

func TestByteSlice(t *testing.T) {
	bs := pool.ByteSlice()
	require.Same(t, bs, pool.ByteSlice(), `one pool per process`)

	b := bs.Get()
	require.Empty(t, b)
	require.Positive(t, cap(b))

	b = append(b, "payload"...)
	bs.Put(b)
	require.Empty(t, bs.Get(), `slices come back empty`)

	t.Run("capacity", func(t *testing.T) {
		const n = 1 << 16
		b := bs.GetCapacity(n)
		require.Empty(t, b)
		require.GreaterOrEqual(t, cap(b), n, `a pooled slice that is too small is not used`)

		// room for a compressed block that outgrew the request
		b = append(b, make([]byte, n+1)...)
		bs.Put(b)
		require.GreaterOrEqual(t, cap(bs.GetCapacity(16)), 16)
	})

	t.Run("zero capacity", func(t *testing.T) {
		require.NotPanics(t, func() {
			bs.Put(nil)
			bs.Put([]byte{})
		})
		require.Positive(t, cap(bs.Get()), `empty slices are not pooled`)
	})
}

// TestByteSliceConcurrent mirrors parallel flushes: each goroutine sizes
// its buffer for its own payload and fills it before handing it back.
func TestByteSliceConcurrent(t *testing.T) {
	const n = 32
	bs := pool.ByteSlice()
	results := make([][]byte, n)

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			size := 64 << (i % 5)
			b := bs.GetCapacity(size)
			defer bs.Put(b)
			for range size {
				b = append(b, byte(i))
			}
			results[i] = append([]byte(nil), b...)
		}()
	}
	wg.Wait()

	for i, b := range results {
		require.Len(t, b, 64<<(i%5))
		for _, c := range b {
			require.Equal(t, byte(i), c, `buffer %d was shared`, i)
		}
	}
}

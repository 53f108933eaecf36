// Package pool holds reusable buffers for the hot filtering path.
package pool

import (
	"bytes"
	"sync"

	"github.com/mimecast/dfilter/internal/constants"
)

// BytesBuffer is there to optimize memory allocations. Every filtered chunk
// otherwise allocates a fresh output buffer.
var BytesBuffer = sync.Pool{
	New: func() interface{} {
		b := bytes.Buffer{}
		b.Grow(constants.OutputBufferInitialCapacity)
		return &b
	},
}

// GetBytesBuffer returns an empty buffer from the pool.
func GetBytesBuffer() *bytes.Buffer {
	return BytesBuffer.Get().(*bytes.Buffer)
}

// RecycleBytesBuffer recycles the buffer again.
func RecycleBytesBuffer(b *bytes.Buffer) {
	b.Reset()
	BytesBuffer.Put(b)
}

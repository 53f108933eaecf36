// Package stream defines the narrow incremental byte sequence shared by the
// transport, the line filter and the sink body. A sequence yields chunks in
// arrival order until it reports io.EOF or fails.
package stream

import (
	"context"
	"io"

	"github.com/mimecast/dfilter/internal/constants"
)

// Iterator yields the next chunk of a byte sequence. It returns io.EOF once
// the sequence is exhausted; any other error is a failed sequence. A returned
// chunk is only valid until the next call to Next.
type Iterator interface {
	Next(ctx context.Context) ([]byte, error)
}

// IteratorFunc adapts a function to the Iterator interface.
type IteratorFunc func(ctx context.Context) ([]byte, error)

// Next calls f(ctx).
func (f IteratorFunc) Next(ctx context.Context) ([]byte, error) {
	return f(ctx)
}

// ReaderIterator turns an io.Reader into a sequence of chunks, one per Read
// call that returned data.
type ReaderIterator struct {
	reader io.Reader
	buffer []byte
	err    error
}

// FromReader returns an Iterator over r reading up to chunkSize bytes per chunk.
func FromReader(r io.Reader, chunkSize int) *ReaderIterator {
	if chunkSize <= 0 {
		chunkSize = constants.ReadBufferSize
	}
	return &ReaderIterator{
		reader: r,
		buffer: make([]byte, chunkSize),
	}
}

// maxEmptyReads bounds consecutive (0, nil) reads, like bufio does.
const maxEmptyReads = 100

// Next implements Iterator. A reader returning no data and no error too
// often in a row fails with io.ErrNoProgress.
func (ri *ReaderIterator) Next(ctx context.Context) ([]byte, error) {
	for empty := 0; ; empty++ {
		if empty >= maxEmptyReads {
			ri.err = io.ErrNoProgress
		}
		if ri.err != nil {
			return nil, ri.err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := ri.reader.Read(ri.buffer)
		if err != nil {
			ri.err = err
		}
		if n > 0 {
			return ri.buffer[:n], nil
		}
	}
}

// SliceIterator yields a fixed list of chunks. Mostly useful in tests.
type SliceIterator struct {
	chunks [][]byte
	pos    int
}

// FromSlice returns an Iterator yielding chunks in order.
func FromSlice(chunks ...[]byte) *SliceIterator {
	return &SliceIterator{chunks: chunks}
}

// FromStrings returns an Iterator yielding every string as one chunk.
func FromStrings(chunks ...string) *SliceIterator {
	bs := make([][]byte, 0, len(chunks))
	for _, c := range chunks {
		bs = append(bs, []byte(c))
	}
	return FromSlice(bs...)
}

// Next implements Iterator.
func (si *SliceIterator) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if si.pos >= len(si.chunks) {
		return nil, io.EOF
	}
	chunk := si.chunks[si.pos]
	si.pos++
	return chunk, nil
}

// Collect drains it and returns every chunk in order. Chunks are copied.
// The error is nil when the sequence ended with io.EOF.
func Collect(ctx context.Context, it Iterator) ([][]byte, error) {
	var chunks [][]byte
	for {
		chunk, err := it.Next(ctx)
		if err == io.EOF {
			return chunks, nil
		}
		if err != nil {
			return chunks, err
		}
		chunks = append(chunks, append([]byte(nil), chunk...))
	}
}

// Concat drains it and returns all chunks joined.
func Concat(ctx context.Context, it Iterator) ([]byte, error) {
	var out []byte
	for {
		chunk, err := it.Next(ctx)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, chunk...)
	}
}

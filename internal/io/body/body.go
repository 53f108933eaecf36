// Package body bridges a stream.Iterator to the io.Reader a sink consumes as
// its streaming request body. It holds at most one chunk: every time the
// current chunk is drained, the next Read pulls exactly one more item from the
// iterator.
package body

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/mimecast/dfilter/internal/io/stream"
)

// ErrClosed is returned by Read after Close.
var ErrClosed = errors.New("body closed")

// Reader is an io.ReadCloser over a chunk sequence. It does not transform the
// content. It is not safe for concurrent use, except for Close.
type Reader struct {
	ctx context.Context
	it  stream.Iterator

	// The not yet consumed rest of the current chunk.
	pending []byte
	err     error
	closed  atomic.Bool

	pulls  uint64
	frames uint64
	bytes  uint64
}

// New returns a Reader pulling from it. ctx is passed to every pull.
func New(ctx context.Context, it stream.Iterator) *Reader {
	return &Reader{ctx: ctx, it: it}
}

// Read implements io.Reader. Data of one chunk is handed out before the next
// chunk is pulled. A chunk sequence error is returned unchanged, the end of
// the sequence is io.EOF.
func (r *Reader) Read(p []byte) (int, error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	for len(r.pending) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		r.pull()
	}

	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	r.bytes += uint64(n)
	return n, nil
}

// WriteTo implements io.WriterTo, handing every frame to w without an
// intermediate copy.
func (r *Reader) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for {
		if r.closed.Load() {
			return total, ErrClosed
		}
		if len(r.pending) > 0 {
			n, err := w.Write(r.pending)
			total += int64(n)
			r.bytes += uint64(n)
			r.pending = r.pending[n:]
			if err != nil {
				return total, err
			}
			continue
		}
		if r.err == io.EOF {
			return total, nil
		}
		if r.err != nil {
			return total, r.err
		}
		r.pull()
	}
}

// pull advances the sequence by exactly one item.
func (r *Reader) pull() {
	r.pulls++
	chunk, err := r.it.Next(r.ctx)
	if err != nil {
		r.err = err
		return
	}
	if len(chunk) > 0 {
		r.frames++
	}
	r.pending = chunk
}

// Close marks the body as done. Further reads fail with ErrClosed.
func (r *Reader) Close() error {
	r.closed.Store(true)
	return nil
}

// Err returns the error that ended the chunk sequence, nil while the sequence
// is still open or if it ended with io.EOF.
func (r *Reader) Err() error {
	if r.err == io.EOF {
		return nil
	}
	return r.err
}

// Pulls returns how many items were pulled from the iterator.
func (r *Reader) Pulls() uint64 { return r.pulls }

// Frames returns how many non-empty chunks were pulled.
func (r *Reader) Frames() uint64 { return r.frames }

// Bytes returns how many bytes were handed out.
func (r *Reader) Bytes() uint64 { return r.bytes }

// Package line implements the pattern line filter: a stateful transform from a
// sequence of arbitrarily cut byte chunks to a sequence of chunks holding only
// the complete lines matching a regex.
//
// Lines are reconstructed across chunk boundaries by carrying the unterminated
// tail of a chunk over to the next one. At most one pending line is held, and
// matches are emitted as soon as the chunk holding their terminator arrives.
package line

import (
	"bytes"
	"context"
	"io"
	"unicode/utf8"

	"github.com/mimecast/dfilter/internal/constants"
	"github.com/mimecast/dfilter/internal/errors"
	"github.com/mimecast/dfilter/internal/io/pool"
	"github.com/mimecast/dfilter/internal/io/stream"
	"github.com/mimecast/dfilter/internal/regex"
)

// Stats of one filter traversal. Lines counts physical lines. The rest of a
// line whose head was emitted eagerly is tested again but not counted twice.
type Stats struct {
	Chunks         uint64
	BytesIn        uint64
	BytesOut       uint64
	Lines          uint64
	Matched        uint64
	DecodeFailures uint64
	LongLines      uint64
}

// Option configures a Filter.
type Option func(*Filter)

// WithFinalFlush controls whether an unterminated last line is tested and
// emitted once the source ends. Enabled by default.
func WithFinalFlush(enable bool) Option {
	return func(f *Filter) { f.finalFlush = enable }
}

// WithEagerEmit controls whether the unterminated tail of a chunk is emitted
// as soon as it matches. Enabled by default. An eagerly emitted tail counts as a
// complete line; bytes of the same physical line arriving with the next chunk
// start a new line. Disabled, a line is only tested once its terminator (or
// the end of the source) has arrived.
func WithEagerEmit(enable bool) Option {
	return func(f *Filter) { f.eagerEmit = enable }
}

// WithMaxLineLength bounds the pending line. This is lossy: a line carried
// across chunks and growing beyond n bytes is skipped up to its terminator even
// if it would match, while a line of the same length within a single chunk is
// still tested. n <= 0 disables the limit, which is the default.
func WithMaxLineLength(n int) Option {
	return func(f *Filter) { f.maxLineLength = n }
}

// OnDecodeFailure registers a callback invoked for every complete line that is
// not valid UTF-8. The line is treated as not matching either way.
func OnDecodeFailure(fn func(err error)) Option {
	return func(f *Filter) { f.onDecodeFailure = fn }
}

// Filter is a single traversal of a chunk sequence. It implements
// stream.Iterator and must not be used from more than one goroutine or for
// more than one source.
type Filter struct {
	src stream.Iterator
	re  regex.Regex

	// The unterminated tail of the previous chunk.
	leftover []byte
	// True while skipping the rest of an over-long line.
	discarding bool
	// True right after a chunk tail was emitted eagerly. A terminator right
	// at the start of the next chunk ends that line and is not a line of its own.
	continued bool
	// True while the pending physical line is already counted in Stats.Lines.
	counted bool
	out     *bytes.Buffer
	// Terminal state, io.EOF or the forwarded source error.
	err error

	finalFlush      bool
	eagerEmit       bool
	maxLineLength   int
	onDecodeFailure func(err error)

	stats Stats
}

// NewFilter returns a filter over src emitting the lines matching re.
func NewFilter(src stream.Iterator, re regex.Regex, opts ...Option) *Filter {
	f := &Filter{
		src:           src,
		re:            re,
		out:           pool.GetBytesBuffer(),
		finalFlush:    true,
		eagerEmit:     true,
		maxLineLength: constants.DefaultMaxLineLength,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Next returns the matching lines of the next source chunk, each followed by
// a terminator. The chunk may be empty and is only valid until the next call.
// A source error is returned unchanged and ends the traversal.
func (f *Filter) Next(ctx context.Context) ([]byte, error) {
	if f.err != nil {
		f.release()
		return nil, f.err
	}

	chunk, err := f.src.Next(ctx)
	switch {
	case err == io.EOF:
		f.err = io.EOF
		if tail := f.flush(); len(tail) > 0 {
			return tail, nil
		}
		f.release()
		return nil, io.EOF
	case err != nil:
		f.err = err
		f.leftover = nil
		f.release()
		return nil, err
	}

	return f.process(chunk), nil
}

// Stats returns the counters collected so far.
func (f *Filter) Stats() Stats {
	return f.stats
}

func (f *Filter) process(chunk []byte) []byte {
	f.stats.Chunks++
	f.stats.BytesIn += uint64(len(chunk))
	f.out.Reset()

	data := chunk
	if len(f.leftover) > 0 {
		f.leftover = append(f.leftover, chunk...)
		data = f.leftover
	}

	for {
		i := bytes.IndexByte(data, constants.LineTerminator)
		if i < 0 {
			break
		}
		candidate := data[:i]
		data = data[i+1:]

		continued := f.continued
		f.continued = false
		if f.discarding {
			f.discarding = false
			f.counted = false
			continue
		}
		if continued && len(candidate) == 0 {
			f.counted = false
			continue
		}
		f.countLine()
		f.counted = false
		if f.match(candidate) {
			f.emit(candidate)
		}
	}

	f.carry(data)
	f.stats.BytesOut += uint64(f.out.Len())
	return f.out.Bytes()
}

// carry handles the last, possibly incomplete, candidate of a chunk. A match
// is emitted right away, anything else becomes the new leftover.
func (f *Filter) carry(last []byte) {
	if len(last) > 0 {
		f.continued = false
	}
	switch {
	case f.discarding:
		f.leftover = f.leftover[:0]
	case f.eagerEmit && len(last) > 0 && utf8.Valid(last) && f.re.Match(last):
		f.countLine()
		f.emit(last)
		f.leftover = f.leftover[:0]
		f.continued = true
	case f.maxLineLength > 0 && len(last) > f.maxLineLength:
		f.stats.LongLines++
		f.discarding = true
		f.leftover = f.leftover[:0]
	default:
		// last may alias leftover, copy handles the overlap.
		f.leftover = append(f.leftover[:0], last...)
	}
}

// flush tests the unterminated leftover once the source is exhausted.
func (f *Filter) flush() []byte {
	defer func() { f.leftover = nil }()
	if !f.finalFlush || f.discarding || len(f.leftover) == 0 {
		return nil
	}
	f.out.Reset()
	f.countLine()
	if f.match(f.leftover) {
		f.emit(f.leftover)
	}
	f.stats.BytesOut += uint64(f.out.Len())
	return f.out.Bytes()
}

// countLine counts the pending physical line once, however often its parts
// are tested.
func (f *Filter) countLine() {
	if !f.counted {
		f.stats.Lines++
		f.counted = true
	}
}

func (f *Filter) match(candidate []byte) bool {
	if !utf8.Valid(candidate) {
		f.stats.DecodeFailures++
		if f.onDecodeFailure != nil {
			f.onDecodeFailure(errors.Wrapf(errors.ErrDecodeFailure,
				"line %d is not valid UTF-8", f.stats.Lines))
		}
		return false
	}
	return f.re.Match(candidate)
}

func (f *Filter) emit(candidate []byte) {
	f.stats.Matched++
	f.out.Write(candidate)
	f.out.WriteByte(constants.LineTerminator)
}

func (f *Filter) release() {
	if f.out == nil {
		return
	}
	pool.RecycleBytesBuffer(f.out)
	f.out = nil
}

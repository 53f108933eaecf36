package body

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimecast/dfilter/internal/io/line"
	"github.com/mimecast/dfilter/internal/io/stream"
	"github.com/mimecast/dfilter/internal/regex"
)

type countingIterator struct {
	it    stream.Iterator
	pulls int
}

func (c *countingIterator) Next(ctx context.Context) ([]byte, error) {
	c.pulls++
	return c.it.Next(ctx)
}

func TestReaderPullsOneItemPerFrame(t *testing.T) {
	src := &countingIterator{it: stream.FromStrings("abc", "de")}
	r := New(context.Background(), src)
	assert.Equal(t, 0, src.pulls, "nothing is pulled before the first read")

	p := make([]byte, 2)
	n, err := r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(p[:n]))
	assert.Equal(t, 1, src.pulls)

	n, err = r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, "c", string(p[:n]))
	assert.Equal(t, 1, src.pulls, "rest of the frame is served without pulling")

	n, err = r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, "de", string(p[:n]))
	assert.Equal(t, 2, src.pulls)

	_, err = r.Read(p)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 3, src.pulls)
	assert.Equal(t, uint64(2), r.Frames())
	assert.Equal(t, uint64(5), r.Bytes())
	assert.NoError(t, r.Err())
}

func TestReaderSkipsEmptyChunks(t *testing.T) {
	r := New(context.Background(), stream.FromStrings("", "x", "", "", "y"))
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "xy", string(data))
	assert.Equal(t, uint64(6), r.Pulls())
	assert.Equal(t, uint64(2), r.Frames())
}

func TestReaderPropagatesError(t *testing.T) {
	boom := errors.New("stream broke")
	calls := 0
	src := stream.IteratorFunc(func(ctx context.Context) ([]byte, error) {
		calls++
		if calls == 1 {
			return []byte("partial"), nil
		}
		return nil, boom
	})
	r := New(context.Background(), src)

	data, err := io.ReadAll(r)
	assert.Same(t, boom, err)
	assert.Equal(t, "partial", string(data))
	assert.Same(t, boom, r.Err())
}

func TestReaderIOTest(t *testing.T) {
	content := "0123456789abcdefghijklmnopqrstuvwxyz"
	chunks := []string{content[:5], content[5:6], content[6:20], content[20:]}
	require.NoError(t, iotest.TestReader(New(context.Background(), stream.FromStrings(chunks...)), []byte(content)))
}

func TestReaderWriteTo(t *testing.T) {
	r := New(context.Background(), stream.FromStrings("ab", "", "cd"))
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, "abcd", buf.String())
}

func TestReaderClose(t *testing.T) {
	r := New(context.Background(), stream.FromStrings("ab"))
	require.NoError(t, r.Close())
	_, err := r.Read(make([]byte, 4))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestReaderOverFilter(t *testing.T) {
	// Many small frames, one body carrying the whole filtered content.
	re, err := regex.New("^A.*Z$", regex.Default)
	require.NoError(t, err)
	src := stream.FromStrings("AxyZ\nBq", "Z\nCoo\n", "A", "bZ\n", "nope\n")
	r := New(context.Background(), line.NewFilter(src, re))

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "AxyZ\nAbZ\n", string(data))
}

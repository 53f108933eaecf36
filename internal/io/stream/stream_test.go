package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromReader(t *testing.T) {
	ctx := context.Background()
	it := FromReader(strings.NewReader("abcdefghij"), 4)

	chunks, err := Collect(ctx, it)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "abcd", string(chunks[0]))
	assert.Equal(t, "efgh", string(chunks[1]))
	assert.Equal(t, "ij", string(chunks[2]))

	// Exhausted iterators keep reporting io.EOF.
	_, err = it.Next(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestFromReaderDataWithError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")
	r := io.MultiReader(strings.NewReader("abc"), iotest.ErrReader(boom))
	it := FromReader(r, 16)

	chunk, err := it.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(chunk))

	_, err = it.Next(ctx)
	assert.Equal(t, boom, err)
	_, err = it.Next(ctx)
	assert.Equal(t, boom, err)
}

func TestFromReaderDataAndEOF(t *testing.T) {
	ctx := context.Background()
	it := FromReader(iotest.DataErrReader(strings.NewReader("xyz")), 16)

	data, err := Concat(ctx, it)
	require.NoError(t, err)
	assert.Equal(t, "xyz", string(data))
}

func TestFromReaderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FromReader(strings.NewReader("abc"), 16).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type stuckReader struct{ reads int }

func (r *stuckReader) Read(p []byte) (int, error) {
	r.reads++
	return 0, nil
}

func TestFromReaderNoProgress(t *testing.T) {
	r := &stuckReader{}
	it := FromReader(r, 8)

	_, err := it.Next(context.Background())
	assert.Equal(t, io.ErrNoProgress, err)
	assert.Equal(t, maxEmptyReads, r.reads)

	_, err = it.Next(context.Background())
	assert.Equal(t, io.ErrNoProgress, err)
	assert.Equal(t, maxEmptyReads, r.reads)
}

func TestFromSlice(t *testing.T) {
	ctx := context.Background()

	chunks, err := Collect(ctx, FromStrings("a", "", "b"))
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "a", string(chunks[0]))
	assert.Empty(t, chunks[1])
	assert.Equal(t, "b", string(chunks[2]))

	chunks, err = Collect(ctx, FromSlice())
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestIteratorFunc(t *testing.T) {
	calls := 0
	it := IteratorFunc(func(ctx context.Context) ([]byte, error) {
		calls++
		if calls > 2 {
			return nil, io.EOF
		}
		return []byte("x"), nil
	})

	data, err := Concat(context.Background(), it)
	require.NoError(t, err)
	assert.Equal(t, "xx", string(data))
}

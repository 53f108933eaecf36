package benchmarks

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimecast/dfilter/internal/fetch"
)

func TestGenerateTestFile(t *testing.T) {
	config := TestDataConfig{Size: 64 * 1024, PatternRate: 20}
	expected := GenerateData(config)
	assert.GreaterOrEqual(t, len(expected), int(config.Size))
	assert.Contains(t, string(expected), "+36 ")

	for _, compression := range []CompressionType{NoCompression, GzipCompression, ZstdCompression} {
		config.Compression = compression
		path := GenerateTestFile(t, config)

		rc, err := fetch.FileFetcher{}.Fetch(context.Background(), "file://"+path)
		require.NoError(t, err)
		got, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.True(t, bytes.Equal(expected, got), path)
	}
}

package benchmarks

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/mimecast/dfilter/internal/fetch"
	"github.com/mimecast/dfilter/internal/io/body"
	"github.com/mimecast/dfilter/internal/io/line"
	"github.com/mimecast/dfilter/internal/io/stream"
	"github.com/mimecast/dfilter/internal/pipeline"
	"github.com/mimecast/dfilter/internal/regex"
	"github.com/mimecast/dfilter/internal/sink"
)

var discard = sink.WriterFunc(func(ctx context.Context, route, token string, body io.Reader) error {
	_, err := io.Copy(io.Discard, body)
	return err
})

// BenchmarkFilter measures the bare filter over in-memory chunks.
func BenchmarkFilter(b *testing.B) {
	data := GenerateData(TestDataConfig{Size: Medium, PatternRate: 10})
	patterns := map[string]string{
		"PhoneNumber": regex.PhoneNumberPattern,
		"Literal":     "ERROR",
		"Anchored":    "^ERROR\\|",
	}

	for name, pattern := range patterns {
		re := regex.MustNew(pattern, regex.Default)
		for _, chunkSize := range []int{4 * 1024, 64 * 1024, 1024 * 1024} {
			b.Run(fmt.Sprintf("%s/Chunk%dK", name, chunkSize/1024), func(b *testing.B) {
				ctx := context.Background()
				b.SetBytes(int64(len(data)))
				b.ReportAllocs()
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					var chunks [][]byte
					for off := 0; off < len(data); off += chunkSize {
						chunks = append(chunks, data[off:min(off+chunkSize, len(data))])
					}
					f := line.NewFilter(stream.FromSlice(chunks...), re)
					if _, err := io.Copy(io.Discard, body.New(ctx, f)); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

// BenchmarkEagerEmit compares eager emission against waiting for terminators.
func BenchmarkEagerEmit(b *testing.B) {
	data := GenerateData(TestDataConfig{Size: Medium, PatternRate: 50})
	re := regex.MustNew(regex.PhoneNumberPattern, regex.Default)

	for _, eager := range []bool{true, false} {
		b.Run(fmt.Sprintf("Eager=%v", eager), func(b *testing.B) {
			ctx := context.Background()
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				f := line.NewFilter(stream.FromSlice(data), re, line.WithEagerEmit(eager))
				if _, err := io.Copy(io.Discard, body.New(ctx, f)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkPipelineFile runs whole invocations over local files, including
// decompression.
func BenchmarkPipelineFile(b *testing.B) {
	compressions := map[string]CompressionType{
		"Plain": NoCompression,
		"Gzip":  GzipCompression,
		"Zstd":  ZstdCompression,
	}

	for name, compression := range compressions {
		b.Run(name, func(b *testing.B) {
			config := TestDataConfig{Size: Medium, Compression: compression, PatternRate: 10}
			path := GenerateTestFile(b, config)
			p := pipeline.New(pipeline.Deps{
				Fetcher: fetch.FileFetcher{},
				Sink:    discard,
				Regex:   regex.MustNew(regex.PhoneNumberPattern, regex.Default),
			})
			req := pipeline.Request{
				InputURL:    "file://" + path,
				OutputRoute: "discard",
				OutputToken: "discard",
			}
			ctx := context.Background()

			b.SetBytes(int64(config.Size))
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := p.Handle(ctx, req); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// Package benchmarks measures the filter throughput in process, from the bare
// line filter up to a whole pipeline reading compressed files.
package benchmarks

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DataDog/zstd"
	"github.com/klauspost/compress/gzip"
)

// FileSize represents the size category of test data
type FileSize int

const (
	Small  FileSize = 1024 * 1024       // 1MB
	Medium FileSize = 10 * 1024 * 1024  // 10MB
	Large  FileSize = 100 * 1024 * 1024 // 100MB
)

func (fs FileSize) String() string {
	switch fs {
	case Small:
		return "1MB"
	case Medium:
		return "10MB"
	case Large:
		return "100MB"
	default:
		return fmt.Sprintf("%dB", fs)
	}
}

// CompressionType represents file compression options
type CompressionType int

const (
	NoCompression CompressionType = iota
	GzipCompression
	ZstdCompression
)

func (ct CompressionType) suffix() string {
	switch ct {
	case GzipCompression:
		return ".gz"
	case ZstdCompression:
		return ".zst"
	default:
		return ""
	}
}

// TestDataConfig configures test data generation
type TestDataConfig struct {
	Size        FileSize
	Compression CompressionType
	// Percentage of lines holding a phone number (0-100)
	PatternRate int
}

// GenerateData returns log lines of about config.Size bytes. The seed is
// fixed so that runs are comparable.
func GenerateData(config TestDataConfig) []byte {
	rng := rand.New(rand.NewSource(1))
	buf := make([]byte, 0, int(config.Size)+256)
	baseTime := time.Date(2024, 10, 2, 7, 10, 0, 0, time.UTC)
	levels := []string{"INFO", "WARN", "ERROR", "DEBUG"}

	for i := 0; len(buf) < int(config.Size); i++ {
		ts := baseTime.Add(time.Duration(i/10) * time.Second).Format("0102-150405")
		if rng.Intn(100) < config.PatternRate {
			buf = fmt.Appendf(buf, "+36 %d %03d %04d\n", 20+rng.Intn(60), rng.Intn(1000), rng.Intn(10000))
			continue
		}
		buf = fmt.Appendf(buf, "%s|%s|thread-%d|app.go:%d|Processing request %d\n",
			levels[rng.Intn(len(levels))], ts, rng.Intn(10)+1, rng.Intn(1000)+1, i)
	}
	return buf
}

// GenerateTestFile writes GenerateData(config) into a file in a temporary
// directory, compressed as configured.
func GenerateTestFile(tb testing.TB, config TestDataConfig) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "dfilter_bench.log"+config.Compression.suffix())
	file, err := os.Create(path)
	if err != nil {
		tb.Fatalf("Failed to create test file: %v", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	var out io.Writer = writer
	var compressor io.WriteCloser
	switch config.Compression {
	case GzipCompression:
		compressor = gzip.NewWriter(writer)
	case ZstdCompression:
		compressor = zstd.NewWriterLevel(writer, zstd.DefaultCompression)
	}
	if compressor != nil {
		out = compressor
	}

	if _, err := out.Write(GenerateData(config)); err != nil {
		tb.Fatalf("Failed to write test file: %v", err)
	}
	if compressor != nil {
		if err := compressor.Close(); err != nil {
			tb.Fatalf("Failed to finish compression: %v", err)
		}
	}
	if err := writer.Flush(); err != nil {
		tb.Fatalf("Failed to flush test file: %v", err)
	}
	return path
}

package constants

// Buffer size constants in bytes
const (
	// ReadBufferSize is the size of the buffer used to pull chunks from a
	// source body (32KB)
	ReadBufferSize = 32 * 1024

	// DefaultChunkSize is the default chunk size for reading (64KB)
	DefaultChunkSize = 64 * 1024

	// OutputBufferInitialCapacity is the initial capacity of a per-chunk
	// output buffer (4KB)
	OutputBufferInitialCapacity = 4096
)

// LineTerminator delimits lines in a source stream.
const LineTerminator byte = '\n'

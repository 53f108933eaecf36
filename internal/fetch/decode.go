package fetch

import (
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/DataDog/zstd"
	"github.com/klauspost/compress/gzip"
)

// Encoding of a source body.
type Encoding string

// Supported encodings.
const (
	Identity Encoding = ""
	Gzip     Encoding = "gzip"
	Zstd     Encoding = "zstd"
)

// DetectEncoding picks the body encoding from the Content-Encoding value, or
// from the file suffix of the URL path when no encoding was announced.
func DetectEncoding(contentEncoding, rawURL string) Encoding {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "gzip", "x-gzip":
		return Gzip
	case "zstd":
		return Zstd
	}

	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".gz":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	}
	return Identity
}

// Decode wraps body with a decompressor for enc. Closing the result closes
// body too.
func Decode(body io.ReadCloser, enc Encoding) (io.ReadCloser, error) {
	switch enc {
	case Gzip:
		zr, err := gzip.NewReader(body)
		if err != nil {
			body.Close()
			return nil, err
		}
		return &readCloser{Reader: zr, closers: []io.Closer{zr, body}}, nil
	case Zstd:
		zr := zstd.NewReader(body)
		return &readCloser{Reader: zr, closers: []io.Closer{zr, body}}, nil
	default:
		return body, nil
	}
}

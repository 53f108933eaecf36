// Package fetch retrieves source objects as byte streams. A Fetcher opens the
// source and hands back its body without reading it, so the caller can consume
// it incrementally.
package fetch

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/mimecast/dfilter/internal/errors"
)

// Fetcher opens a source URL for streaming reads. Every error returned by
// Fetch carries errors.ErrFetchFailure.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, rawURL string) (io.ReadCloser, error)

// Fetch calls f(ctx, rawURL).
func (f FetcherFunc) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	return f(ctx, rawURL)
}

// Mux dispatches to a Fetcher by URL scheme.
type Mux struct {
	fetchers map[string]Fetcher
}

// NewMux returns an empty Mux.
func NewMux() *Mux {
	return &Mux{fetchers: make(map[string]Fetcher)}
}

// Handle registers f for the given schemes.
func (m *Mux) Handle(f Fetcher, schemes ...string) {
	for _, scheme := range schemes {
		m.fetchers[strings.ToLower(scheme)] = f
	}
}

// Fetch implements Fetcher.
func (m *Mux) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Kind(errors.ErrFetchFailure, err)
	}
	f, ok := m.fetchers[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, errors.Kind(errors.ErrFetchFailure,
			errors.Wrapf(errors.ErrUnsupportedURL, "scheme '%s'", u.Scheme))
	}
	return f.Fetch(ctx, rawURL)
}

// readCloser pairs a reader with the closers releasing what it reads from.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var first error
	for _, c := range rc.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

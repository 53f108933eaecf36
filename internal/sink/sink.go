// Package sink delivers a filtered body to its destination.
package sink

import (
	"context"
	"io"
)

// Writer consumes body until it ends and delivers it to the destination
// identified by route and token. Implementations must read body
// incrementally and must not buffer it as a whole.
type Writer interface {
	Write(ctx context.Context, route, token string, body io.Reader) error
}

// WriterFunc adapts a function to the Writer interface.
type WriterFunc func(ctx context.Context, route, token string, body io.Reader) error

// Write calls f(ctx, route, token, body).
func (f WriterFunc) Write(ctx context.Context, route, token string, body io.Reader) error {
	return f(ctx, route, token, body)
}

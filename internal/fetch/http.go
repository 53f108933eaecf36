package fetch

import (
	"context"
	"io"
	"net/http"

	"github.com/mimecast/dfilter/internal/constants"
	"github.com/mimecast/dfilter/internal/errors"
)

// HTTPFetcher fetches sources with a GET request.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher returns a fetcher using client, or a client with a response
// header timeout when client is nil.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.ResponseHeaderTimeout = constants.FetchHeaderTimeout
		client = &http.Client{Transport: transport}
	}
	return &HTTPFetcher{client: client}
}

// Fetch implements Fetcher. A response status outside 2xx is a fetch failure.
func (hf *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Kind(errors.ErrFetchFailure, redactError(err))
	}

	resp, err := hf.client.Do(req)
	if err != nil {
		return nil, errors.Kind(errors.ErrFetchFailure, redactError(err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, errors.Wrapf(errors.ErrFetchFailure, "GET %s: unexpected status %s",
			Redact(rawURL), resp.Status)
	}

	body, err := Decode(resp.Body, DetectEncoding(resp.Header.Get("Content-Encoding"), rawURL))
	if err != nil {
		return nil, errors.Kind(errors.ErrFetchFailure, err)
	}
	return body, nil
}

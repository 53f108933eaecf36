package fetch

import (
	"context"
	"io"
	"net/url"
	"os"

	"github.com/mimecast/dfilter/internal/errors"
)

// FileFetcher opens local files given as file:// URLs. The grep command uses
// it for local sources.
type FileFetcher struct{}

// Fetch implements Fetcher.
func (FileFetcher) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Kind(errors.ErrFetchFailure, err)
	}
	if u.Path == "" {
		return nil, errors.Kind(errors.ErrFetchFailure,
			errors.Wrapf(errors.ErrUnsupportedURL, "no path in '%s'", rawURL))
	}
	fd, err := os.Open(u.Path)
	if err != nil {
		return nil, errors.Kind(errors.ErrFetchFailure, err)
	}
	body, err := Decode(fd, DetectEncoding("", u.Path))
	if err != nil {
		return nil, errors.Kind(errors.ErrFetchFailure, err)
	}
	return body, nil
}

package fetch

import (
	"net/url"

	"github.com/mimecast/dfilter/internal/errors"
)

// Redact strips the query and user info of a URL. Presigned source URLs
// carry their credentials there and must not end up in logs or errors.
func Redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}

func redactError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = Redact(ue.URL)
	}
	return err
}

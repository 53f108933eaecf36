package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"

	gossh "golang.org/x/crypto/ssh"

	"github.com/mimecast/dfilter/internal/constants"
	"github.com/mimecast/dfilter/internal/errors"
)

// SSHFetcher reads a file from a remote host given as
// ssh://user@host[:port]/path by running cat over an SSH session.
type SSHFetcher struct {
	// Auth methods tried for every connection.
	Auth []gossh.AuthMethod
	// HostKeyCallback verifies the remote host key.
	HostKeyCallback gossh.HostKeyCallback
	// DefaultUser is used when the URL has no user.
	DefaultUser string
}

// Fetch implements Fetcher. The connection is closed together with the body,
// or when ctx is done.
func (sf *SSHFetcher) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Kind(errors.ErrFetchFailure, err)
	}
	if u.Host == "" || u.Path == "" {
		return nil, errors.Kind(errors.ErrFetchFailure,
			errors.Wrapf(errors.ErrUnsupportedURL, "need host and path in '%s'", Redact(rawURL)))
	}

	user := sf.DefaultUser
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}
	port := u.Port()
	if port == "" {
		port = strconv.Itoa(constants.DefaultSSHPort)
	}
	addr := net.JoinHostPort(u.Hostname(), port)

	client, err := sf.dial(ctx, addr, user)
	if err != nil {
		return nil, errors.Kind(errors.ErrFetchFailure, err)
	}
	stop := context.AfterFunc(ctx, func() { client.Close() })

	session, err := client.NewSession()
	if err != nil {
		stop()
		client.Close()
		return nil, errors.Kind(errors.ErrFetchFailure, err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		stop()
		session.Close()
		client.Close()
		return nil, errors.Kind(errors.ErrFetchFailure, err)
	}
	if err := session.Start("cat -- " + shellQuote(u.Path)); err != nil {
		stop()
		session.Close()
		client.Close()
		return nil, errors.Kind(errors.ErrFetchFailure, err)
	}

	body := &sshBody{stdout: stdout, session: session, client: client, stop: stop}
	decoded, err := Decode(body, DetectEncoding("", u.Path))
	if err != nil {
		return nil, errors.Kind(errors.ErrFetchFailure, err)
	}
	return decoded, nil
}

func (sf *SSHFetcher) dial(ctx context.Context, addr, user string) (*gossh.Client, error) {
	config := &gossh.ClientConfig{
		User:            user,
		Auth:            sf.Auth,
		HostKeyCallback: sf.HostKeyCallback,
		Timeout:         constants.SSHConnectionTimeout,
	}

	dialer := net.Dialer{Timeout: constants.SSHConnectionTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	c, chans, reqs, err := gossh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	return gossh.NewClient(c, chans, reqs), nil
}

// sshBody is the stdout of a remote cat. A non-zero exit of cat turns the
// end of the body into an error.
type sshBody struct {
	stdout  io.Reader
	session *gossh.Session
	client  *gossh.Client
	stop    func() bool

	waited  bool
	waitErr error
}

func (sb *sshBody) Read(p []byte) (int, error) {
	n, err := sb.stdout.Read(p)
	if err != io.EOF {
		return n, err
	}
	if !sb.waited {
		sb.waited = true
		if werr := sb.session.Wait(); werr != nil {
			sb.waitErr = fmt.Errorf("remote cat: %w", werr)
		}
	}
	if sb.waitErr != nil {
		return n, sb.waitErr
	}
	return n, io.EOF
}

func (sb *sshBody) Close() error {
	sb.stop()
	sb.session.Close()
	return sb.client.Close()
}

// shellQuote quotes s for a POSIX shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

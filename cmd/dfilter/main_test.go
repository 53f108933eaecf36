package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimecast/dfilter/internal/errors"
	"github.com/mimecast/dfilter/internal/fetch"
	"github.com/mimecast/dfilter/internal/pipeline"
	"github.com/mimecast/dfilter/internal/regex"
	"github.com/mimecast/dfilter/internal/sink"
	"github.com/mimecast/dfilter/internal/testutil"
	"github.com/mimecast/dfilter/internal/version"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func gzipFile(t *testing.T, pattern, content string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return testutil.TempFile(t, pattern, buf.Bytes())
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version.String()+"\n", out)
}

func TestGrepOutputDir(t *testing.T) {
	text1, numbers1 := testutil.PhoneBook(1, 200)
	text2, numbers2 := testutil.PhoneBook(2, 300)
	plain := testutil.TempFile(t, "contacts-*.txt", []byte(text1))
	compressed := gzipFile(t, "archive-*.txt.gz", text2)
	dir := t.TempDir()

	out, err := run(t, "grep", "--output-dir", dir, "--chunk-size", "13", plain, compressed)
	require.NoError(t, err)
	assert.Empty(t, out)

	b, err := os.ReadFile(filepath.Join(dir, filepath.Base(plain)))
	require.NoError(t, err)
	assert.Equal(t, numbers1, string(b))
	b, err = os.ReadFile(filepath.Join(dir, strings.TrimSuffix(filepath.Base(compressed), ".gz")))
	require.NoError(t, err)
	assert.Equal(t, numbers2, string(b))
}

func TestGrepStdout(t *testing.T) {
	source := testutil.TempFile(t, "log-*.txt", []byte("INFO start\nERROR disk full\nINFO retry\nERROR disk full again"))

	out, err := run(t, "grep", "--pattern", "^ERROR", source)
	require.NoError(t, err)
	assert.Equal(t, "ERROR disk full\nERROR disk full again\n", out)

	out, err = run(t, "grep", "--pattern", "^ERROR", "--invert", "--final-flush=false", source)
	require.NoError(t, err)
	assert.Equal(t, "INFO start\nINFO retry\n", out)
}

func TestGrepPartialFailure(t *testing.T) {
	good := testutil.TempFile(t, "good-*.txt", []byte("match\nother\n"))
	missing := filepath.Join(t.TempDir(), "missing.txt")

	out, err := run(t, "grep", "--pattern", "match", "--concurrency", "1", missing, good)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrFetchFailure))
	assert.Contains(t, err.Error(), "missing.txt")
	assert.Equal(t, "match\n", out)
}

func TestGrepInvalidPattern(t *testing.T) {
	_, err := run(t, "grep", "--pattern", "(", "/dev/null")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}

func TestInvoke(t *testing.T) {
	text, numbers := testutil.PhoneBook(3, 500)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, text)
	}))
	t.Cleanup(srv.Close)

	eventFile := testutil.TempFile(t, "event-*.json", []byte(fmt.Sprintf(`{
		"xAmzRequestId": "req-1",
		"getObjectContext": {
			"inputS3Url": "%s/phonebook.txt?X-Amz-Signature=abc",
			"outputRoute": "route-1",
			"outputToken": "token-1"
		}
	}`, srv.URL)))
	dir := t.TempDir()

	out, err := run(t, "invoke", "--output-dir", dir, eventFile)
	require.NoError(t, err)
	assert.Equal(t, `{"status_code":200}`+"\n", out)

	b, err := os.ReadFile(filepath.Join(dir, "route-1"))
	require.NoError(t, err)
	assert.Equal(t, numbers, string(b))
}

func TestInvokeMissingRoute(t *testing.T) {
	eventFile := testutil.TempFile(t, "event-*.json", []byte(`{
		"getObjectContext": {"inputS3Url": "https://example.com/x", "outputToken": "t"}
	}`))
	_, err := run(t, "invoke", "--output-dir", t.TempDir(), eventFile)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfigurationMissing))
}

func TestLambdaHandler(t *testing.T) {
	ctx := testutil.Context(t)
	var written string
	p := pipeline.New(pipeline.Deps{
		Fetcher: fetch.FetcherFunc(func(ctx context.Context, rawURL string) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("+36 1 234 5678\nnope\n")), nil
		}),
		Sink: sink.WriterFunc(func(ctx context.Context, route, token string, body io.Reader) error {
			b, err := io.ReadAll(body)
			written = string(b)
			return err
		}),
		Regex: regex.MustNew(regex.PhoneNumberPattern, regex.Default),
	})
	handler := lambdaHandler(p)

	resp, err := handler(ctx, events.S3ObjectLambdaEvent{
		GetObjectContext: &events.S3ObjectLambdaGetObjectContext{
			InputS3URL:  "https://example.com/phonebook.txt",
			OutputRoute: "route",
			OutputToken: "token",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "+36 1 234 5678\n", written)

	_, err = handler(ctx, events.S3ObjectLambdaEvent{})
	assert.True(t, errors.Is(err, errors.ErrConfigurationMissing))
}

func TestOutputRoutes(t *testing.T) {
	assert.Equal(t,
		[]string{"app.log", "1_a.txt", "2_a.txt", "source", "x.zst"},
		outputRoutes([]string{
			"ssh://host/var/log/app.log.gz",
			"file:///tmp/a.txt",
			"https://example.com/dir/a.txt.zst",
			"https://example.com/",
			"file:///tmp/x.zst.gz",
		}))
}

func TestSourceURL(t *testing.T) {
	u, err := sourceURL("https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", u)

	u, err = sourceURL("/var/log/app.log")
	require.NoError(t, err)
	assert.Equal(t, "file:///var/log/app.log", u)
}

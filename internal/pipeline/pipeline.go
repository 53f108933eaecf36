// Package pipeline runs one filtering invocation: fetch the source, filter it
// line by line and stream the matching lines to the sink while the source is
// still being read.
package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mimecast/dfilter/internal/constants"
	"github.com/mimecast/dfilter/internal/errors"
	"github.com/mimecast/dfilter/internal/fetch"
	"github.com/mimecast/dfilter/internal/io/body"
	"github.com/mimecast/dfilter/internal/io/line"
	"github.com/mimecast/dfilter/internal/io/stream"
	"github.com/mimecast/dfilter/internal/regex"
	"github.com/mimecast/dfilter/internal/sink"
)

// Deps are the collaborators shared by all invocations of a process. All of
// them must be safe for concurrent use.
type Deps struct {
	Fetcher fetch.Fetcher
	Sink    sink.Writer
	Regex   regex.Regex
	Logger  *zap.Logger
	// ChunkSize is the read size on the source, constants.DefaultChunkSize
	// when zero.
	ChunkSize int
	// FilterOptions are applied to the filter of every invocation.
	FilterOptions []line.Option
}

// Request describes one invocation.
type Request struct {
	// RequestID is only used for logging.
	RequestID   string
	InputURL    string
	OutputRoute string
	OutputToken string
}

// Validate reports all missing fields as one ErrConfigurationMissing.
func (r Request) Validate() error {
	var missing []string
	if r.InputURL == "" {
		missing = append(missing, "input url")
	}
	if r.OutputRoute == "" {
		missing = append(missing, "output route")
	}
	if r.OutputToken == "" {
		missing = append(missing, "output token")
	}
	if len(missing) > 0 {
		return errors.Wrapf(errors.ErrConfigurationMissing, "%s", strings.Join(missing, ", "))
	}
	return nil
}

// Response is returned to the platform on success.
type Response struct {
	StatusCode int `json:"status_code"`
}

// Result summarizes a finished invocation.
type Result struct {
	Filter   line.Stats
	Pulls    uint64
	Frames   uint64
	Bytes    uint64
	Duration time.Duration
}

// Pipeline handles invocations. It is safe for concurrent use, every
// invocation gets its own filter.
type Pipeline struct {
	deps Deps
}

// New returns a pipeline over deps.
func New(deps Deps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.ChunkSize <= 0 {
		deps.ChunkSize = constants.DefaultChunkSize
	}
	return &Pipeline{deps: deps}
}

// Handle runs one invocation. The sink is called at most once, and never when
// the source could not be fetched. Every returned error carries one of the
// failure kinds of the errors package.
func (p *Pipeline) Handle(ctx context.Context, req Request) (Response, error) {
	_, err := p.Run(ctx, req)
	if err != nil {
		return Response{}, err
	}
	return Response{StatusCode: constants.SuccessStatus}, nil
}

// Run is Handle returning the invocation summary.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	var result Result
	if err := req.Validate(); err != nil {
		return result, err
	}

	logger := p.deps.Logger.With(
		zap.String("source", fetch.Redact(req.InputURL)),
		zap.String("route", req.OutputRoute),
	)
	if req.RequestID != "" {
		logger = logger.With(zap.String("requestID", req.RequestID))
	}
	start := time.Now()
	logger.Info("Filtering source", zap.String("pattern", p.deps.Regex.Pattern()))

	src, err := p.deps.Fetcher.Fetch(ctx, req.InputURL)
	if err != nil {
		logger.Error("Unable to fetch source", zap.Error(err))
		return result, errors.Kind(errors.ErrFetchFailure, err)
	}
	defer src.Close()

	opts := make([]line.Option, 0, len(p.deps.FilterOptions)+1)
	opts = append(opts, p.deps.FilterOptions...)
	opts = append(opts, line.OnDecodeFailure(func(err error) {
		logger.Debug("Skipping line", zap.Error(err))
	}))
	filter := line.NewFilter(stream.FromReader(src, p.deps.ChunkSize), p.deps.Regex, opts...)
	rd := body.New(ctx, filter)
	defer rd.Close()

	err = p.deps.Sink.Write(ctx, req.OutputRoute, req.OutputToken, rd)

	result = Result{
		Filter:   filter.Stats(),
		Pulls:    rd.Pulls(),
		Frames:   rd.Frames(),
		Bytes:    rd.Bytes(),
		Duration: time.Since(start),
	}
	fields := []zap.Field{
		zap.Uint64("chunks", result.Filter.Chunks),
		zap.Uint64("bytesIn", result.Filter.BytesIn),
		zap.Uint64("bytesOut", result.Bytes),
		zap.Uint64("lines", result.Filter.Lines),
		zap.Uint64("matched", result.Filter.Matched),
		zap.Uint64("decodeFailures", result.Filter.DecodeFailures),
		zap.Uint64("longLines", result.Filter.LongLines),
		zap.Duration("duration", result.Duration),
	}

	if serr := rd.Err(); serr != nil {
		logger.Error("Source stream failed", append(fields, zap.Error(serr))...)
		return result, errors.Kind(errors.ErrStreamFailure, serr)
	}
	if err != nil {
		logger.Error("Unable to write to sink", append(fields, zap.Error(err))...)
		return result, errors.Kind(errors.ErrSinkFailure, err)
	}
	logger.Info("Filtered source", fields...)
	return result, nil
}

package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mimecast/dfilter/internal/event"
	"github.com/mimecast/dfilter/internal/fetch"
	"github.com/mimecast/dfilter/internal/pipeline"
	"github.com/mimecast/dfilter/internal/sink"
	"github.com/mimecast/dfilter/internal/version"
)

func newLambdaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Serve S3 object lambda invocations",
		Long: `Serve S3 object lambda invocations under the AWS Lambda runtime. The
collaborators are created once and shared by all invocations.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.s3Pipeline(cmd.Context())
			if err != nil {
				return err
			}
			a.logger.Info("Starting", zap.String("version", version.String()),
				zap.String("pattern", a.cfg.Pattern))
			lambda.Start(lambdaHandler(p))
			return nil
		},
	}
}

// s3Pipeline wires the pipeline fetching presigned URLs and answering
// through WriteGetObjectResponse.
func (a *app) s3Pipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	deps, err := a.deps()
	if err != nil {
		return nil, err
	}
	s3Writer, err := sink.NewS3WriterFromEnv(ctx, a.cfg.Region)
	if err != nil {
		return nil, err
	}
	deps.Fetcher = httpMux()
	deps.Sink = s3Writer
	return pipeline.New(deps), nil
}

func httpMux() *fetch.Mux {
	mux := fetch.NewMux()
	mux.Handle(fetch.NewHTTPFetcher(nil), "http", "https")
	return mux
}

func lambdaHandler(p *pipeline.Pipeline) func(context.Context, events.S3ObjectLambdaEvent) (pipeline.Response, error) {
	return func(ctx context.Context, ev events.S3ObjectLambdaEvent) (pipeline.Response, error) {
		return p.Handle(ctx, event.FromS3ObjectLambda(ev))
	}
}

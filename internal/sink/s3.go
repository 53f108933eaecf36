package sink

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mimecast/dfilter/internal/constants"
)

// ObjectResponseWriter is the part of the S3 client used by S3Writer.
type ObjectResponseWriter interface {
	WriteGetObjectResponse(ctx context.Context, params *s3.WriteGetObjectResponseInput,
		optFns ...func(*s3.Options)) (*s3.WriteGetObjectResponseOutput, error)
}

// S3Writer answers an object lambda request by streaming the body back
// through WriteGetObjectResponse.
type S3Writer struct {
	client ObjectResponseWriter
}

// NewS3Writer returns a writer using the given client.
func NewS3Writer(client ObjectResponseWriter) *S3Writer {
	return &S3Writer{client: client}
}

// NewS3WriterFromEnv builds the S3 client from the default AWS credential
// chain (environment, shared config, execution role).
func NewS3WriterFromEnv(ctx context.Context, region string) (*S3Writer, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3Writer(s3.NewFromConfig(cfg)), nil
}

// Write implements Writer. The body length is unknown up front, so the
// payload is sent unsigned.
func (sw *S3Writer) Write(ctx context.Context, route, token string, body io.Reader) error {
	_, err := sw.client.WriteGetObjectResponse(ctx, &s3.WriteGetObjectResponseInput{
		RequestRoute: aws.String(route),
		RequestToken: aws.String(token),
		StatusCode:   aws.Int32(int32(constants.SuccessStatus)),
		Body:         body,
	}, s3.WithAPIOptions(v4.SwapComputePayloadSHA256ForUnsignedPayloadMiddleware))
	if err != nil {
		return fmt.Errorf("write get object response: %w", err)
	}
	return nil
}

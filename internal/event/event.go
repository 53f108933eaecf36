// Package event turns platform invocation events into pipeline requests.
package event

import (
	"github.com/aws/aws-lambda-go/events"
	"github.com/valyala/fastjson"

	"github.com/mimecast/dfilter/internal/errors"
	"github.com/mimecast/dfilter/internal/pipeline"
)

// FromS3ObjectLambda maps an object lambda event to a request. Missing
// fields are left for pipeline.Request.Validate to report.
func FromS3ObjectLambda(ev events.S3ObjectLambdaEvent) pipeline.Request {
	req := pipeline.Request{RequestID: ev.XAmzRequestID}
	if goc := ev.GetObjectContext; goc != nil {
		req.InputURL = goc.InputS3URL
		req.OutputRoute = goc.OutputRoute
		req.OutputToken = goc.OutputToken
	}
	return req
}

// Parse decodes a raw object lambda event as saved from the platform, e.g.
// for a local replay. Only the fields used by the pipeline are looked at, and
// the request is validated.
func Parse(data []byte) (pipeline.Request, error) {
	var p fastjson.Parser
	val, err := p.ParseBytes(data)
	if err != nil {
		return pipeline.Request{}, errors.New("%w: parse event: %v", errors.ErrInvalidArgument, err)
	}
	if val.Type() != fastjson.TypeObject {
		return pipeline.Request{}, errors.Wrapf(errors.ErrInvalidArgument,
			"event is a JSON %s, not an object", val.Type())
	}

	req := pipeline.Request{
		RequestID: string(val.GetStringBytes("xAmzRequestId")),
	}
	goc := val.Get("getObjectContext")
	if goc == nil {
		return req, errors.Wrap(errors.ErrConfigurationMissing, "no getObjectContext in event")
	}
	req.InputURL = string(goc.GetStringBytes("inputS3Url"))
	req.OutputRoute = string(goc.GetStringBytes("outputRoute"))
	req.OutputToken = string(goc.GetStringBytes("outputToken"))

	return req, req.Validate()
}

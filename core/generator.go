package orchestration

import (
	"context"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type generator struct {
	// client is used when no streaming client is configured.
	client Generator
	// streaming takes precedence so partial output reaches the client early.
	streaming StreamingGenerator
}

func (g generator) configured() bool {
	return g.client != nil || g.streaming != nil
}

func (g generator) generate(ctx context.Context, request llms.Request, onSegment func(string)) (*llms.Response, error) {
	ctx, span := tracer.Start(ctx, "generate response")
	defer span.End()
	span.SetAttributes(
		attribute.Int("request.history_length", len(request.History)),
		attribute.Int("request.available_tools", len(request.Tools)),
		attribute.String("request.understanding_level", string(request.UnderstandingLevel)),
	)

	var (
		response *llms.Response
		err      error
	)
	switch {
	case g.streaming != nil:
		span.SetAttributes(attribute.Bool("request.streaming", true))
		response, err = llms.Collect(ctx, g.streaming.GenerateStream(ctx, request), onSegment)
	case g.client != nil:
		response, err = g.client.Generate(ctx, request)
	default:
		err = ErrGeneratorNotConfigured
	}
	if err == nil && response == nil {
		err = errEmptyResponse
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("response.tool_calls", len(response.ToolCalls)))
	if response.Usage != nil {
		span.SetAttributes(attribute.Int("usage.total", response.Usage.TotalTokens))
	}
	return response, nil
}

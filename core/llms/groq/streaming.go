package groq

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/conversations"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxErrorBody = 4 << 10

type Stream struct {
	apiKey     string
	url        string
	httpClient *http.Client
	body       requestBody
}

func (s *Stream) Chunks(ctx context.Context) func(func(llms.StreamChunk, error) bool) {
	requestToFirstTokenTime := time.Time{}
	setRequestToFirstTokenTime := func(span trace.Span) {
		if requestToFirstTokenTime.IsZero() {
			return
		}
		span.SetAttributes(attribute.Float64("response.request_to_first_token_time", time.Since(requestToFirstTokenTime).Seconds()))
		span.AddEvent("received first chunk")
		requestToFirstTokenTime = time.Time{}
	}

	return func(yield func(llms.StreamChunk, error) bool) {
		ctx, span := tracer.Start(ctx, "prompt llm stream")
		defer span.End()
		span.SetAttributes(attribute.String("request.model", s.body.Model))
		var toolNames []string
		for _, tool := range s.body.Tools {
			toolNames = append(toolNames, tool.Function.Name)
		}
		span.SetAttributes(attribute.StringSlice("request.available_tools", toolNames))

		fail := func(err error) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			yield(nil, err)
		}

		requestBodyBytes, err := json.Marshal(s.body)
		if err != nil {
			fail(fmt.Errorf("error marshalling JSON: %w", err))
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(requestBodyBytes))
		if err != nil {
			fail(fmt.Errorf("error creating HTTP request: %w", err))
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("Authorization", "Bearer "+s.apiKey)

		span.SetAttributes(attribute.String("request.url", req.URL.String()))
		requestToFirstTokenTime = time.Now()
		span.AddEvent("request started")
		resp, err := s.httpClient.Do(req)
		if err != nil {
			fail(fmt.Errorf("error sending request: %w", err))
			return
		}
		defer resp.Body.Close()

		span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
		if resp.StatusCode != http.StatusOK {
			errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			span.SetAttributes(attribute.String("response.error", string(errorBody)))
			fail(fmt.Errorf("non-OK HTTP status: %s", resp.Status))
			return
		}

		toolCalls := newToolCallAssembler()
		defer func() {
			span.SetAttributes(attribute.StringSlice("response.tool_calls", toolCalls.names()))
		}()

		var finishReason *string
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
		for scanner.Scan() {
			chunk := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), chunkPrefix))
			if len(chunk) == 0 {
				continue
			}
			setRequestToFirstTokenTime(span)

			if chunk == endMessage {
				break
			}

			var responseBody streamingResponseBody
			if err := json.Unmarshal([]byte(chunk), &responseBody); err != nil {
				fail(fmt.Errorf("error unmarshalling JSON: %w", err))
				return
			}

			if len(responseBody.Choices) > 0 {
				choice := responseBody.Choices[0]
				if choice.FinishReason != nil {
					finishReason = choice.FinishReason
				}

				toolCalls.add(choice.Delta.ToolCalls)

				if choice.Delta.Content != "" {
					if !yield(StreamContentChunk{
						finishReason: finishReason,
						content:      choice.Delta.Content,
					}, nil) {
						return
					}
				}
			}

			reported := responseBody.Usage
			if reported == nil && responseBody.XGroq != nil {
				reported = responseBody.XGroq.Usage
			}
			if reported != nil {
				usage := toUsage(reported)
				span.SetAttributes(
					attribute.Int("usage.input", usage.InputTokens),
					attribute.Int("usage.output", usage.OutputTokens),
					attribute.Int("usage.total", usage.TotalTokens),
					attribute.Float64("usage.queue_time", usage.QueueTime),
					attribute.Float64("usage.total_time", usage.TotalTime),
				)
				if !yield(StreamUsageChunk{finishReason: finishReason, usage: usage}, nil) {
					return
				}
			}
		}

		if err := scanner.Err(); err != nil {
			fail(fmt.Errorf("error reading streamed response: %w", err))
			return
		}

		// Tool call arguments arrive in fragments, they are only complete once
		// the stream has ended.
		for _, call := range toolCalls.calls() {
			if !yield(StreamToolCallChunk{finishReason: finishReason, toolCall: call}, nil) {
				return
			}
		}
	}
}

func toUsage(reported *usage) llms.Usage {
	result := llms.Usage{
		InputTokens:  reported.PromptTokens,
		OutputTokens: reported.CompletionTokens,
		TotalTokens:  reported.TotalTokens,
		QueueTime:    reported.QueueTime,
		TotalTime:    reported.TotalTime,
	}
	if reported.CompletionTokensDetails != nil {
		result.ReasoningTokens = reported.CompletionTokensDetails.ReasoningTokens
	}
	return result
}

type toolCallAssembler struct {
	order   []int
	pending map[int]*partialToolCall
}

type partialToolCall struct {
	id        string
	name      string
	arguments strings.Builder
}

func newToolCallAssembler() *toolCallAssembler {
	return &toolCallAssembler{pending: map[int]*partialToolCall{}}
}

func (a *toolCallAssembler) add(fragments []toolCall) {
	for _, fragment := range fragments {
		index := len(a.order)
		if fragment.Index != nil {
			index = *fragment.Index
		}

		call, ok := a.pending[index]
		if !ok {
			call = &partialToolCall{}
			a.pending[index] = call
			a.order = append(a.order, index)
		}
		if fragment.ID != "" {
			call.id = fragment.ID
		}
		if fragment.Function.Name != "" {
			call.name = fragment.Function.Name
		}
		call.arguments.WriteString(fragment.Function.Arguments)
	}
}

func (a *toolCallAssembler) calls() []conversations.ToolCall {
	calls := make([]conversations.ToolCall, 0, len(a.order))
	for _, index := range a.order {
		call := a.pending[index]
		calls = append(calls, conversations.ToolCall{
			ID:        call.id,
			Name:      call.name,
			Arguments: call.arguments.String(),
		})
	}
	return calls
}

func (a *toolCallAssembler) names() []string {
	names := make([]string, 0, len(a.order))
	for _, index := range a.order {
		names = append(names, a.pending[index].name)
	}
	return names
}

type StreamContentChunk struct {
	finishReason *string
	content      string
}

func (s StreamContentChunk) FinishReason() *string {
	return s.finishReason
}

func (s StreamContentChunk) Content() string {
	return s.content
}

type StreamToolCallChunk struct {
	finishReason *string
	toolCall     conversations.ToolCall
}

func (s StreamToolCallChunk) FinishReason() *string {
	return s.finishReason
}

func (s StreamToolCallChunk) ToolCall() conversations.ToolCall {
	return s.toolCall
}

type StreamUsageChunk struct {
	finishReason *string
	usage        llms.Usage
}

func (s StreamUsageChunk) FinishReason() *string {
	return s.finishReason
}

func (s StreamUsageChunk) Usage() llms.Usage {
	return s.usage
}

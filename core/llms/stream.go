package llms

import (
	"context"
	"strings"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/conversations"
)

type Stream interface {
	Chunks(context.Context) func(func(StreamChunk, error) bool)
}

type StreamChunk interface {
	FinishReason() *string
}

type StreamContentChunk interface {
	StreamChunk
	Content() string
}

type StreamToolCallChunk interface {
	StreamChunk
	ToolCall() conversations.ToolCall
}

type StreamUsageChunk interface {
	StreamChunk
	Usage() Usage
}

// Usage reports token accounting for a single generation.
type Usage struct {
	InputTokens     int
	OutputTokens    int
	ReasoningTokens int
	TotalTokens     int

	// QueueTime and TotalTime are reported by the provider in seconds and
	// might be approximations.
	QueueTime float64
	TotalTime float64
}

// Collect drains the stream into a single Response. onContent, when set, is
// called with every content chunk in arrival order.
func Collect(ctx context.Context, stream Stream, onContent func(string)) (*Response, error) {
	response := &Response{}
	var content strings.Builder
	for chunk, err := range stream.Chunks(ctx) {
		if err != nil {
			return nil, err
		}

		switch chunk := chunk.(type) {
		case StreamContentChunk:
			content.WriteString(chunk.Content())
			if onContent != nil {
				onContent(chunk.Content())
			}
		case StreamToolCallChunk:
			response.ToolCalls = append(response.ToolCalls, chunk.ToolCall())
		case StreamUsageChunk:
			usage := chunk.Usage()
			response.Usage = &usage
		}
	}

	response.Content = content.String()
	return response, nil
}

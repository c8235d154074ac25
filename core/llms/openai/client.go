// Package openai configures the chat completions client for the OpenAI API.
// Groq exposes the same wire protocol, so the client itself lives in the
// groq package.
package openai

import "github.com/SharminSirajudeen/ai-tutor-mvp/core/llms/groq"

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

func NewClient(apiKey string, opts ...groq.ClientOption) *groq.Client {
	defaults := []groq.ClientOption{
		groq.WithBaseURL(DefaultBaseURL),
		groq.WithModel(DefaultModel),
	}
	return groq.NewClient(apiKey, append(defaults, opts...)...)
}

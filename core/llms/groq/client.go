package groq

import (
	"context"
	"net/http"
	"strings"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/llms"
	"github.com/SharminSirajudeen/ai-tutor-mvp/internal/utils"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama-3.3-70b-versatile"
	DefaultTemperature = 0.7

	completionsPath = "/chat/completions"
	endMessage      = "[DONE]"
	chunkPrefix     = "data:"
)

// Client generates tutor responses through an OpenAI compatible chat
// completions endpoint, Groq by default.
type Client struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	httpClient  *http.Client

	systemPrompt func(llms.Request) string
}

type ClientOption func(*Client)

func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at another OpenAI compatible API root, e.g.
// "https://api.openai.com/v1".
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithTemperature(temperature float64) ClientOption {
	return func(c *Client) {
		c.temperature = temperature
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithSystemPrompt replaces the default Socratic system prompt builder.
func WithSystemPrompt(build func(llms.Request) string) ClientOption {
	return func(c *Client) {
		if build != nil {
			c.systemPrompt = build
		}
	}
}

func NewClient(apiKey string, opts ...ClientOption) *Client {
	client := &Client{
		apiKey:      apiKey,
		model:       DefaultModel,
		baseURL:     DefaultBaseURL,
		temperature: DefaultTemperature,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
		systemPrompt: SystemPrompt,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func (c *Client) Model() string {
	return c.model
}

// GenerateStream prepares a streamed completion. No request is sent until
// the returned stream's chunks are iterated.
func (c *Client) GenerateStream(_ context.Context, request llms.Request) llms.Stream {
	tools := toTools(request.Tools)

	var toolChoice *string
	if len(tools) > 0 {
		toolChoice = utils.Ptr("auto")
	}

	return &Stream{
		apiKey:     c.apiKey,
		url:        c.baseURL + completionsPath,
		httpClient: c.httpClient,
		body: requestBody{
			Model:       c.model,
			Messages:    toMessages(c.systemPrompt(request), request.History),
			Stream:      true,
			Temperature: utils.Ptr(c.temperature),
			Tools:       tools,
			ToolChoice:  toolChoice,
		},
	}
}

// Generate runs a streamed completion to the end and returns the assembled
// assistant message.
func (c *Client) Generate(ctx context.Context, request llms.Request) (*llms.Response, error) {
	ctx, span := tracer.Start(ctx, "generate response")
	defer span.End()
	span.SetAttributes(attribute.String("request.model", c.model))

	response, err := llms.Collect(ctx, c.GenerateStream(ctx, request), nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("response.tool_calls", len(response.ToolCalls)))
	return response, nil
}

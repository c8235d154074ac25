package openai

import (
	"testing"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/llms/groq"
)

func TestNewClientDefaultsCanBeOverridden(t *testing.T) {
	if got := NewClient("key").Model(); got != DefaultModel {
		t.Fatalf("expected default model %q, got %q", DefaultModel, got)
	}
	if got := NewClient("key", groq.WithModel("gpt-4.1")).Model(); got != "gpt-4.1" {
		t.Fatalf("expected overridden model, got %q", got)
	}
}

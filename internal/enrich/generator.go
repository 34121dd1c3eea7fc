package enrich

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/directory-cli/internal/resilience"
	"github.com/sells-group/directory-cli/pkg/anthropic"
	"github.com/sells-group/directory-cli/pkg/gemini"
)

// statusOverloaded is Anthropic's "overloaded" status.
const statusOverloaded = 529

// AnthropicGenerator generates descriptions with the Messages API.
type AnthropicGenerator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicGenerator creates a Generator backed by Anthropic.
func NewAnthropicGenerator(client anthropic.Client, model string, maxTokens int64) *AnthropicGenerator {
	if maxTokens <= 0 {
		maxTokens = 1500
	}
	return &AnthropicGenerator{client: client, model: model, maxTokens: maxTokens}
}

// Generate sends one single-turn message. The system prompt is cached.
func (g *AnthropicGenerator) Generate(ctx context.Context, req Request) (string, error) {
	temp := 0.7
	resp, err := g.client.Complete(ctx, anthropic.CompletionRequest{
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		System:      req.System,
		CacheSystem: true,
		Prompt:      req.Prompt,
		Temperature: &temp,
	})
	if err != nil {
		return "", classifyProviderError(err, anthropic.StatusCode(err), "enrich: anthropic generate")
	}
	resp.Usage.Log(g.model)
	if resp.Truncated() {
		return "", resilience.NewValidationError("output truncated at max tokens")
	}
	return resp.Text, nil
}

// GeminiGenerator generates descriptions with the Gemini API.
type GeminiGenerator struct {
	client    gemini.Client
	model     string
	maxTokens int32
}

// NewGeminiGenerator creates a Generator backed by Gemini.
func NewGeminiGenerator(client gemini.Client, model string, maxTokens int32) *GeminiGenerator {
	if maxTokens <= 0 {
		maxTokens = 1500
	}
	return &GeminiGenerator{client: client, model: model, maxTokens: maxTokens}
}

// Generate sends one single-turn prompt.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	var temp float32 = 0.7
	resp, err := g.client.Generate(ctx, gemini.GenerateRequest{
		Model:           g.model,
		System:          req.System,
		Prompt:          req.Prompt,
		Temperature:     &temp,
		MaxOutputTokens: g.maxTokens,
	})
	if err != nil {
		return "", classifyProviderError(err, gemini.StatusCode(err), "enrich: gemini generate")
	}
	return resp.Text, nil
}

// classifyProviderError marks retryable provider failures as transient and
// wraps everything else.
func classifyProviderError(err error, status int, msg string) error {
	if resilience.IsTransientHTTPStatus(status) || status == statusOverloaded {
		return resilience.NewTransientError(err, status)
	}
	if status == 0 && resilience.IsTransient(err) {
		return resilience.NewTransientError(err, 0)
	}
	return eris.Wrap(err, msg)
}

// Package provider abstracts the LLM provider behind the engine's `ai.*`
// actions (ai.generate, ai.interpret, ai.summarize) and the Prompt Handler's
// dynamic reinterpretation path. Grounded on the teacher's internal/genkit
// package (generate.go/openai.go) for the shape of a provider abstraction
// sitting in front of multiple backend SDKs, but not its mechanism: the
// teacher routes every backend through github.com/firebase/genkit/go's
// plugin system (ai.Message/ai.ToolDefinition, genkit.Init/genkit.Generate),
// which exists to support genkit's tool-calling loop and prompt-template
// registry. This package needs neither, so each backend is called directly
// against its own SDK instead: github.com/anthropics/anthropic-sdk-go for
// claude, github.com/openai/openai-go for openai and the custom
// OpenAI-compatible backend.
package provider

import (
	"context"
	"fmt"

	lwerrors "lacewing/internal/errors"
)

// Name identifies a configured LLM backend, per spec.md §6's
// `provider ∈ {claude, openai, custom}`.
type Name string

const (
	Claude Name = "claude"
	OpenAI Name = "openai"
	Custom Name = "custom"
)

// Config is the resolved LLM provider configuration, sourced by
// internal/config from env vars, a .env file, or config.json, in that
// priority order.
type Config struct {
	Provider Name
	APIKey   string
	Model    string
	// BaseURL overrides the API endpoint; used by the "custom" provider for
	// any OpenAI-compatible endpoint.
	BaseURL string
}

// Request is one ai.generate invocation.
type Request struct {
	Prompt      string
	System      string
	Temperature *float64
	MaxTokens   int
	Model       string // overrides Config.Model for this call only
}

// Response is the provider's answer to a Request.
type Response struct {
	Text string
}

// Provider generates text from a prompt. Implementations are assumed
// stateless between calls; concurrent calls are allowed (spec.md §5).
type Provider interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// New constructs the Provider named by cfg.Provider.
func New(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case Claude:
		return newClaudeProvider(cfg), nil
	case OpenAI:
		return newOpenAIProvider(cfg, ""), nil
	case Custom:
		if cfg.BaseURL == "" {
			return nil, lwerrors.Provider("custom provider requires a base_url")
		}
		return newOpenAIProvider(cfg, cfg.BaseURL), nil
	default:
		return nil, lwerrors.Provider("unknown LLM provider %q", cfg.Provider)
	}
}

const interpretPromptTemplate = "Reinterpret the following user response concisely, returning only the refined value:\n\n%s"

// Interpret implements the ai.interpret action: it wraps input (and any
// surrounding context) in a fixed reinterpretation prompt and delegates to
// the provider's Generate.
func Interpret(ctx context.Context, p Provider, input string, promptContext string) (string, error) {
	if p == nil {
		return "", lwerrors.Provider("no LLM provider configured")
	}
	prompt := fmt.Sprintf(interpretPromptTemplate, input)
	if promptContext != "" {
		prompt = fmt.Sprintf("Context: %s\n\n%s", promptContext, prompt)
	}
	resp, err := p.Generate(ctx, Request{Prompt: prompt})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

const summarizePromptTemplate = "Summarize the following text in at most %d characters:\n\n%s"

// Summarize implements the ai.summarize action.
func Summarize(ctx context.Context, p Provider, text string, maxLength int) (string, error) {
	if p == nil {
		return "", lwerrors.Provider("no LLM provider configured")
	}
	if maxLength <= 0 {
		maxLength = 500
	}
	resp, err := p.Generate(ctx, Request{Prompt: fmt.Sprintf(summarizePromptTemplate, maxLength, text)})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

package provider

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	lwerrors "lacewing/internal/errors"
)

const defaultOpenAIModel = "gpt-4o-mini"

type openAIProvider struct {
	client openai.Client
	model  string
}

func newOpenAIProvider(cfg Config, baseURL string) *openAIProvider {
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &openAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (p *openAIProvider) Generate(ctx context.Context, req Request) (Response, error) {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: messages,
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Response{}, lwerrors.ProviderWrap(err, "openai generation failed")
	}
	if len(completion.Choices) == 0 {
		return Response{}, lwerrors.Provider("openai returned no choices")
	}
	return Response{Text: completion.Choices[0].Message.Content}, nil
}

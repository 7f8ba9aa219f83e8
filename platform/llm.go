package platform

import (
	"context"
	"errors"
	"time"

	"memchat/config"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// requestTimeout bounds every provider call so a slow upstream cannot
// stall a request indefinitely.
const requestTimeout = 30 * time.Second

// ChatMessage is one ordered role/content pair sent to the completion
// provider.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationParams are the sampling settings for one completion call.
type GenerationParams struct {
	Temperature      float64
	MaxTokens        int64
	PresencePenalty  float64
	FrequencyPenalty float64
}

// OpenAIProvider calls an OpenAI-compatible chat completion endpoint.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider constructs a provider from configuration. A missing
// credential is a configuration error and fails construction outright.
func NewOpenAIProvider(cfg *config.Config) (*OpenAIProvider, error) {
	if cfg.LLMAPIKey == "" {
		return nil, errors.New("LLM_API_KEY is not set")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.LLMAPIKey),
		option.WithRequestTimeout(requestTimeout),
	}
	if cfg.LLMBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.LLMBaseURL))
	}
	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  cfg.LLMModel,
	}, nil
}

func (p *OpenAIProvider) Complete(ctx context.Context, messages []ChatMessage, gen GenerationParams) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages:         openai.F([]openai.ChatCompletionMessageParamUnion{}),
		Model:            openai.F(p.model),
		Temperature:      openai.F(gen.Temperature),
		MaxTokens:        openai.F(gen.MaxTokens),
		PresencePenalty:  openai.F(gen.PresencePenalty),
		FrequencyPenalty: openai.F(gen.FrequencyPenalty),
	}
	for _, message := range messages {
		var content any = message.Content
		params.Messages.Value = append(params.Messages.Value, openai.ChatCompletionMessageParam{
			Role:    openai.F(openai.ChatCompletionMessageParamRole(message.Role)),
			Content: openai.F(content),
		})
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("empty response from completion provider")
	}
	return completion.Choices[0].Message.Content, nil
}

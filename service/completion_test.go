package service

import (
	"context"
	"errors"
	"testing"

	"memchat/model"
	"memchat/platform"

	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	reply    string
	err      error
	calls    int
	messages []platform.ChatMessage
	gen      platform.GenerationParams
}

func (f *fakeProvider) Complete(ctx context.Context, messages []platform.ChatMessage, gen platform.GenerationParams) (string, error) {
	f.calls++
	f.messages = messages
	f.gen = gen
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestSystemPromptSelectionIsDeterministic(t *testing.T) {
	for i := 0; i < 5; i++ {
		require.Equal(t, SystemPromptFor(5), SystemPromptFor(5))
	}
	// Id 0 (no conversation) and any multiple of the list length land on
	// the first prompt.
	require.Equal(t, systemPrompts[0], SystemPromptFor(0))
	require.Equal(t, systemPrompts[0], SystemPromptFor(uint(len(systemPrompts))))
	require.Equal(t, systemPrompts[3], SystemPromptFor(3))
	require.Equal(t, systemPrompts[5], SystemPromptFor(uint(len(systemPrompts)+5)))
}

func TestCompletePrependsSelectedPrompt(t *testing.T) {
	provider := &fakeProvider{reply: "hello back"}
	completion := NewCompletionService(provider, false)

	history := []platform.ChatMessage{
		{Role: model.RoleUser, Content: "hello"},
	}
	reply, err := completion.Complete(context.Background(), history, 3)
	require.NoError(t, err)
	require.Equal(t, "hello back", reply)

	require.Len(t, provider.messages, 2)
	require.Equal(t, model.RoleSystem, provider.messages[0].Role)
	require.Equal(t, SystemPromptFor(3), provider.messages[0].Content)
	require.Equal(t, "hello", provider.messages[1].Content)
}

func TestCompleteUsesPolicyGenerationParams(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	completion := NewCompletionService(provider, false)

	_, err := completion.Complete(context.Background(), nil, 1)
	require.NoError(t, err)
	require.InDelta(t, 0.8, provider.gen.Temperature, 1e-9)
	require.EqualValues(t, 1000, provider.gen.MaxTokens)
	require.InDelta(t, 0.6, provider.gen.PresencePenalty, 1e-9)
	require.InDelta(t, 0.3, provider.gen.FrequencyPenalty, 1e-9)
}

func TestCompleteSmokeModePinsSampling(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	completion := NewCompletionService(provider, true)

	_, err := completion.Complete(context.Background(), nil, 1)
	require.NoError(t, err)
	require.Zero(t, provider.gen.Temperature)
	require.EqualValues(t, 120, provider.gen.MaxTokens)
	require.Zero(t, provider.gen.PresencePenalty)
	require.Zero(t, provider.gen.FrequencyPenalty)
}

func TestCompleteFallsBackOnProviderFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("quota exhausted")}
	completion := NewCompletionService(provider, false)

	reply, err := completion.Complete(context.Background(), nil, 1)
	require.NoError(t, err)
	require.Equal(t, FallbackReply, reply)
}

func TestCompleteMissingProviderIsLoud(t *testing.T) {
	completion := NewCompletionService(nil, false)

	_, err := completion.Complete(context.Background(), nil, 1)
	require.Error(t, err)
	require.Equal(t, ErrorConfiguration, CodeOf(err))
}

package service

import (
	"context"
	"time"

	"memchat/model"
	"memchat/platform"
)

// Provider generates assistant reply text from an ordered history.
// platform.OpenAIProvider is the production implementation; tests
// substitute fakes.
type Provider interface {
	Complete(ctx context.Context, messages []platform.ChatMessage, gen platform.GenerationParams) (string, error)
}

// FallbackReply is returned in place of provider output whenever the
// provider call fails. Callers cannot distinguish it from a real reply;
// absorbing transient provider failures is the contract, not an error.
const FallbackReply = "I apologize, but I'm having trouble connecting to my AI service right now. Please try again later."

// systemPrompts is a fixed ordered list of personalities. Index
// selection is conversation id modulo list length, so one conversation
// keeps the same personality across calls while different conversations
// spread over the list. Order matters; do not reshuffle.
var systemPrompts = []string{
	"You are a helpful AI assistant with a friendly personality. You enjoy having conversations and providing useful, accurate information. You have a good sense of humor and like to share jokes and interesting facts.",
	"You are a knowledgeable AI assistant who loves to help people learn and discover new things. You have a warm, engaging personality and enjoy sharing educational content in creative ways.",
	"You are an intelligent AI assistant with a curious mind. You enjoy exploring topics in depth and having meaningful conversations. You're particularly good at explaining complex concepts simply.",
	"You are a creative AI assistant who loves to think outside the box. You enjoy coming up with unique perspectives, creative solutions, and imaginative responses to questions.",
	"You are a thoughtful AI assistant who values deep thinking and meaningful dialogue. You enjoy exploring complex topics together and providing well-reasoned, insightful responses.",
	"You are an enthusiastic AI assistant who gets excited about interesting topics and loves to share knowledge. You have a positive attitude and enjoy making learning fun.",
	"You are a witty AI assistant with a sharp sense of humor. You enjoy clever wordplay, puns, and making people smile while still being helpful and informative.",
	"You are a philosophical AI assistant who enjoys deep conversations about life, meaning, and the human experience. You provide thoughtful, reflective responses.",
}

// Generation settings are policy constants, not per-call knobs. Smoke
// mode pins sampling for deterministic end-to-end checks.
var (
	defaultGeneration = platform.GenerationParams{
		Temperature:      0.8,
		MaxTokens:        1000,
		PresencePenalty:  0.6,
		FrequencyPenalty: 0.3,
	}
	smokeGeneration = platform.GenerationParams{
		Temperature: 0,
		MaxTokens:   120,
	}
)

type CompletionService struct {
	provider  Provider
	smokeTest bool
}

func NewCompletionService(provider Provider, smokeTest bool) *CompletionService {
	return &CompletionService{provider: provider, smokeTest: smokeTest}
}

// SystemPromptFor selects the personality for a conversation. Id 0
// means "no conversation" and lands on the first prompt, as does any id
// divisible by the list length.
func SystemPromptFor(conversationID uint) string {
	return systemPrompts[int(conversationID)%len(systemPrompts)]
}

// Complete produces the assistant reply for an ordered history. Any
// provider failure degrades to FallbackReply with a nil error; the only
// hard failure is a missing provider, which is a configuration problem
// that must stay loud.
func (s *CompletionService) Complete(ctx context.Context, history []platform.ChatMessage, conversationID uint) (string, error) {
	if s.provider == nil {
		return "", newError(ErrorConfiguration, "completion provider is not configured", nil)
	}

	messages := make([]platform.ChatMessage, 0, len(history)+1)
	messages = append(messages, platform.ChatMessage{
		Role:    model.RoleSystem,
		Content: SystemPromptFor(conversationID),
	})
	messages = append(messages, history...)

	gen := defaultGeneration
	if s.smokeTest {
		gen = smokeGeneration
	}

	start := time.Now()
	reply, err := s.provider.Complete(ctx, messages, gen)
	if err != nil {
		logger.Warnf("[conversation %d] completion provider failed after %v, %s",
			conversationID, time.Since(start), err)
		return FallbackReply, nil
	}
	logger.Infof("[conversation %d] completion succeeded in %v with %d history messages",
		conversationID, time.Since(start), len(history))
	return reply, nil
}

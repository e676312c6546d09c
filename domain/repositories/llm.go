package repositories

import "context"

// LargeLanguageModel abstracts any chat/LLM provider
type LargeLanguageModel interface {
	// GenerateReply answers userText under the given system prompt
	GenerateReply(ctx context.Context, systemPrompt, userText string) (string, error)
	// Name identifies the backing model
	Name() string
}

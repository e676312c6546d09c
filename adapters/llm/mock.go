package llm

import (
	"context"

	"github.com/satriahrh/arunika/sttconsole/domain/repositories"
)

// CannedReply is what the placeholder model answers to everything
const CannedReply = "Thanks for your response. Let's begin. Could you briefly walk me through " +
	"a recent project relevant to this role and highlight your specific contributions?"

// MockLLM is a placeholder model that always gives the same interviewer-style reply
type MockLLM struct{}

// NewMockLLM creates a new placeholder model
func NewMockLLM() repositories.LargeLanguageModel {
	return &MockLLM{}
}

// Name implements repositories.LargeLanguageModel
func (m *MockLLM) Name() string {
	return "dummy"
}

// GenerateReply implements repositories.LargeLanguageModel
func (m *MockLLM) GenerateReply(ctx context.Context, systemPrompt, userText string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return CannedReply, nil
}

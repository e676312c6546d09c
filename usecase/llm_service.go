package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/arunika/sttconsole/domain"
	"github.com/satriahrh/arunika/sttconsole/domain/repositories"
)

const (
	defaultJobRole = "General Software Engineer"

	// LLMPageDescription is shown while the page is a placeholder
	LLMPageDescription = "This page will host LLM interaction features soon."
)

// ReplyRequest is one prompt from the LLM page
type ReplyRequest struct {
	// Role is the job role used to build the default interviewer prompt
	Role string `json:"role"`
	// SystemPrompt overrides the interviewer prompt when set
	SystemPrompt string `json:"system_prompt"`
	UserText     string `json:"user_text"`
}

// LLMInfo describes the LLM page
type LLMInfo struct {
	Model       string `json:"model"`
	Description string `json:"description"`
}

// LLMService answers prompts from the LLM page
type LLMService struct {
	llm    repositories.LargeLanguageModel
	logger *zap.Logger
}

// NewLLMService creates a new LLM service
func NewLLMService(llm repositories.LargeLanguageModel, logger *zap.Logger) *LLMService {
	return &LLMService{llm: llm, logger: logger}
}

// BuildSystemPrompt returns the interviewer prompt for a job role
func BuildSystemPrompt(role string) string {
	role = strings.TrimSpace(role)
	if role == "" {
		role = defaultJobRole
	}
	return fmt.Sprintf("Role: %s.\n"+
		"Ask one opening interview question.\n"+
		"Only the question; one sentence; <=25 words; end with '?'; no labels/preface/quotes/markdown/lists/explanations.", role)
}

// Info describes the backing model
func (s *LLMService) Info() LLMInfo {
	return LLMInfo{Model: s.llm.Name(), Description: LLMPageDescription}
}

// Reply generates the model's answer to req
func (s *LLMService) Reply(ctx context.Context, req ReplyRequest) (string, error) {
	userText := strings.TrimSpace(req.UserText)
	if userText == "" {
		return "", domain.ErrEmptyPrompt
	}
	systemPrompt := strings.TrimSpace(req.SystemPrompt)
	if systemPrompt == "" {
		systemPrompt = BuildSystemPrompt(req.Role)
	}

	reply, err := s.llm.GenerateReply(ctx, systemPrompt, userText)
	if err != nil {
		s.logger.Error("Failed to generate reply", zap.String("model", s.llm.Name()), zap.Error(err))
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

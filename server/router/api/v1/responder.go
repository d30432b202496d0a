package v1

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/semaphore"

	"github.com/lexhub/lexchat/chatapi"
	"github.com/lexhub/lexchat/internal/profile"
)

// Responder produces the assistant reply for one user turn given the prior
// conversation history.
type Responder interface {
	Reply(ctx context.Context, history []chatapi.Message, prompt string) (string, error)
}

// CannedResponder echoes a deterministic acknowledgement. It backs dev and
// demo modes where no LLM credentials are configured.
type CannedResponder struct{}

func NewCannedResponder() *CannedResponder {
	return &CannedResponder{}
}

func (*CannedResponder) Reply(_ context.Context, history []chatapi.Message, prompt string) (string, error) {
	return fmt.Sprintf("Received your message (%d prior turns). A legal assistant will follow up on: %s", len(history), prompt), nil
}

const systemPrompt = "You are a legal services assistant. Answer questions about the user's legal matters clearly and concisely. You do not provide formal legal advice."

// OpenAIResponder generates replies through an OpenAI-compatible chat
// completion endpoint.
type OpenAIResponder struct {
	client  *openai.Client
	model   string
	timeout time.Duration

	// sem bounds concurrent completion calls across all sessions.
	sem *semaphore.Weighted
}

func NewOpenAIResponder(profile *profile.Profile) *OpenAIResponder {
	config := openai.DefaultConfig(profile.LLMAPIKey)
	if profile.LLMBaseURL != "" {
		config.BaseURL = profile.LLMBaseURL
	}
	return &OpenAIResponder{
		client:  openai.NewClientWithConfig(config),
		model:   profile.LLMModel,
		timeout: time.Duration(profile.LLMTimeout) * time.Second,
		sem:     semaphore.NewWeighted(8),
	}
}

func (r *OpenAIResponder) Reply(ctx context.Context, history []chatapi.Message, prompt string) (string, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return "", errors.Wrap(err, "failed to acquire completion slot")
	}
	defer r.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == chatapi.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    r.model,
		Messages: messages,
	})
	if err != nil {
		return "", errors.Wrap(err, "chat completion failed")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ChatResponder genera la respuesta del chatbot para un prompt.
type ChatResponder interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var ErrEmptyCompletion = errors.New("llm empty response")

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient implementa ChatResponder contra la API de chat completions de OpenAI.
type OpenAIClient struct {
	client       chatCompleter
	model        string
	systemPrompt string
	logger       *zap.Logger
}

// NewOpenAIClient construye un cliente apuntando a baseURL (OpenAI o compatible).
func NewOpenAIClient(baseURL, apiKey, model, systemPrompt string, logger *zap.Logger) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return newOpenAIClient(openai.NewClientWithConfig(cfg), model, systemPrompt, logger)
}

func newOpenAIClient(client chatCompleter, model, systemPrompt string, logger *zap.Logger) *OpenAIClient {
	if model == "" {
		model = "gpt-4o"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIClient{
		client:       client,
		model:        model,
		systemPrompt: systemPrompt,
		logger:       logger,
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if c.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: c.systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		c.logger.Warn("chat completion failed", zap.String("model", c.model), zap.Error(err))
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Message.Content, nil
}

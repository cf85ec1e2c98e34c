// internal/engine/ai/gemini.go
package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"chat-engine/internal/common/logger"
	"chat-engine/internal/models"
)

// GeminiConfig holds generation settings for the Gemini completer.
type GeminiConfig struct {
	APIKey          string
	Model           string
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int32
}

// GeminiCompleter implements Completer on Google's Gemini API.
type GeminiCompleter struct {
	client *genai.Client
	config GeminiConfig
	logger logger.Logger
}

func NewGeminiCompleter(ctx context.Context, cfg GeminiConfig, log logger.Logger) (*GeminiCompleter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-pro"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiCompleter{
		client: client,
		config: cfg,
		logger: log.WithFields(map[string]interface{}{"component": "gemini", "model": cfg.Model}),
	}, nil
}

// Complete sends the prompt preceded by the conversation turns. The caller
// bounds the call with its context; a deadline hit maps to
// ErrCompletionTimeout so it is handled like any other capability failure.
func (g *GeminiCompleter) Complete(ctx context.Context, prompt string, history []models.ConversationTurn) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := genai.Role(genai.RoleUser)
		if turn.Role == models.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(prompt, genai.RoleUser))

	resp, err := g.client.Models.GenerateContent(ctx, g.config.Model, contents, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.config.Temperature),
		TopP:            genai.Ptr(g.config.TopP),
		TopK:            genai.Ptr(g.config.TopK),
		MaxOutputTokens: g.config.MaxOutputTokens,
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", ErrCompletionTimeout
		}
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", ErrCompletionFailed)
	}

	return text, nil
}

// internal/engine/ai/completer.go
package ai

import (
	"context"
	"errors"

	"chat-engine/internal/models"
)

var (
	ErrCompletionFailed  = errors.New("AI_CAPABILITY_FAILURE")
	ErrCompletionTimeout = errors.New("AI_TIMEOUT")
)

// Completer is the opaque text-completion capability. Implementations take
// a fully built prompt plus the trailing conversation turns and return the
// completion text or an error; they never retry on their own.
type Completer interface {
	Complete(ctx context.Context, prompt string, history []models.ConversationTurn) (string, error)
}

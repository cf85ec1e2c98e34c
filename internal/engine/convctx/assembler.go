// internal/engine/convctx/assembler.go
package convctx

import (
	"context"
	"errors"
	"fmt"

	"chat-engine/internal/common/logger"
	"chat-engine/internal/models"
)

var ErrStoreUnavailable = errors.New("CONTEXT_STORE_UNAVAILABLE")

// HistoryStore returns the most recent turns of a conversation, newest
// first, at most limit entries.
type HistoryStore interface {
	GetRecentTurns(ctx context.Context, conversationID string, limit int) ([]models.ConversationTurn, error)
}

// KnowledgeStore returns a tenant's knowledge snippets in stored order.
type KnowledgeStore interface {
	GetKnowledge(ctx context.Context, tenantID string) ([]models.KnowledgeSnippet, error)
}

// Context is the bounded conversation context handed to the AI step.
type Context struct {
	History   []models.ConversationTurn // chronological, oldest first
	Knowledge []models.KnowledgeSnippet
}

// Assembler builds the bounded context for AI prompting. It fetches the
// last fetchLimit turns, restores chronological order and keeps only the
// final promptSize for the prompt; knowledge is truncated to maxKnowledge
// entries. No matching logic lives here.
type Assembler struct {
	history      HistoryStore
	knowledge    KnowledgeStore
	fetchLimit   int
	promptSize   int
	maxKnowledge int
	logger       logger.Logger
}

func NewAssembler(history HistoryStore, knowledge KnowledgeStore, fetchLimit, promptSize, maxKnowledge int, log logger.Logger) *Assembler {
	return &Assembler{
		history:      history,
		knowledge:    knowledge,
		fetchLimit:   fetchLimit,
		promptSize:   promptSize,
		maxKnowledge: maxKnowledge,
		logger:       log.WithFields(map[string]interface{}{"component": "context-assembler"}),
	}
}

// Assemble returns the context for one AI attempt. On store failure it
// returns whatever it could fetch together with an ErrStoreUnavailable
// error; the caller proceeds with the degraded context rather than
// failing the request.
func (a *Assembler) Assemble(ctx context.Context, tenantID, conversationID string) (Context, error) {
	out := Context{}
	var failed []string

	if conversationID != "" {
		turns, err := a.history.GetRecentTurns(ctx, conversationID, a.fetchLimit)
		if err != nil {
			a.logger.Warn("history store unavailable", map[string]interface{}{
				"conversationId": conversationID,
				"error":          err.Error(),
			})
			failed = append(failed, "history")
		} else {
			out.History = lastChronological(turns, a.promptSize)
		}
	}

	snippets, err := a.knowledge.GetKnowledge(ctx, tenantID)
	if err != nil {
		a.logger.Warn("knowledge store unavailable", map[string]interface{}{
			"tenantId": tenantID,
			"error":    err.Error(),
		})
		failed = append(failed, "knowledge")
	} else {
		if len(snippets) > a.maxKnowledge {
			snippets = snippets[:a.maxKnowledge]
		}
		out.Knowledge = snippets
	}

	if len(failed) > 0 {
		return out, fmt.Errorf("%w: %v", ErrStoreUnavailable, failed)
	}
	return out, nil
}

// lastChronological reverses a newest-first slice into chronological order
// and keeps the final n turns.
func lastChronological(newestFirst []models.ConversationTurn, n int) []models.ConversationTurn {
	chrono := make([]models.ConversationTurn, len(newestFirst))
	for i, t := range newestFirst {
		chrono[len(newestFirst)-1-i] = t
	}
	if len(chrono) > n {
		chrono = chrono[len(chrono)-n:]
	}
	return chrono
}

// internal/store/conversations.go
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"chat-engine/internal/common/logger"
	"chat-engine/internal/models"
)

// AssistantTurn carries the outcome metadata persisted on the bot's turn.
type AssistantTurn struct {
	Content    string
	Intent     string
	IsAI       bool
	TokensUsed int
}

// ConversationStore persists conversations and their turns in Postgres and
// serves the recent-turn reads the context assembler needs.
type ConversationStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewConversationStore(db *sql.DB, log logger.Logger) *ConversationStore {
	return &ConversationStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "conversation-store"}),
	}
}

// GetOrCreate resolves the session's conversation, creating it on first
// contact.
func (s *ConversationStore) GetOrCreate(ctx context.Context, tenantID, sessionID string) (*models.Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, session_id, created_at
		FROM conversations
		WHERE tenant_id = $1 AND session_id = $2`, tenantID, sessionID)

	var c models.Conversation
	err := row.Scan(&c.ID, &c.TenantID, &c.SessionID, &c.CreatedAt)
	if err == nil {
		return &c, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("conversation query failed: %w", err)
	}

	c = models.Conversation{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		SessionID: sessionID,
	}
	row = s.db.QueryRowContext(ctx, `
		INSERT INTO conversations (id, tenant_id, session_id)
		VALUES ($1, $2, $3)
		RETURNING created_at`, c.ID, c.TenantID, c.SessionID)
	if err := row.Scan(&c.CreatedAt); err != nil {
		return nil, fmt.Errorf("conversation insert failed: %w", err)
	}

	return &c, nil
}

// GetRecentTurns returns the newest turns first, at most limit entries.
func (s *ConversationStore) GetRecentTurns(ctx context.Context, conversationID string, limit int) ([]models.ConversationTurn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("history query failed: %w", err)
	}
	defer rows.Close()

	var turns []models.ConversationTurn
	for rows.Next() {
		var t models.ConversationTurn
		if err := rows.Scan(&t.Role, &t.Content); err != nil {
			return nil, fmt.Errorf("history scan failed: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows failed: %w", err)
	}

	return turns, nil
}

// SaveTurns persists the user message and the assistant reply as one unit.
func (s *ConversationStore) SaveTurns(ctx context.Context, conversationID, userContent string, assistant AssistantTurn) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx failed: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (conversation_id, role, content)
		VALUES ($1, $2, $3)`,
		conversationID, models.RoleUser, userContent); err != nil {
		return fmt.Errorf("user turn insert failed: %w", err)
	}

	var tokens interface{}
	if assistant.IsAI {
		tokens = assistant.TokensUsed
	}
	var intent interface{}
	if assistant.Intent != "" {
		intent = assistant.Intent
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (conversation_id, role, content, intent, is_ai, tokens_used)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		conversationID, models.RoleAssistant, assistant.Content, intent, assistant.IsAI, tokens); err != nil {
		return fmt.Errorf("assistant turn insert failed: %w", err)
	}

	return tx.Commit()
}

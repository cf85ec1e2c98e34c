// internal/store/conversations_test.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-engine/internal/common/logger"
	"chat-engine/internal/models"
)

func TestConversationStore_GetOrCreate_Existing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, tenant_id, session_id, created_at`).
		WithArgs("tenant-1", "session-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "session_id", "created_at"}).
			AddRow("conv-1", "tenant-1", "session-1", created))

	store := NewConversationStore(db, logger.NewTestLogger(t))
	conv, err := store.GetOrCreate(context.Background(), "tenant-1", "session-1")
	require.NoError(t, err)

	assert.Equal(t, "conv-1", conv.ID)
	assert.Equal(t, "tenant-1", conv.TenantID)
	assert.Equal(t, "session-1", conv.SessionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationStore_GetOrCreate_New(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, tenant_id, session_id, created_at`).
		WithArgs("tenant-1", "session-new").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO conversations`).
		WithArgs(sqlmock.AnyArg(), "tenant-1", "session-new").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	store := NewConversationStore(db, logger.NewTestLogger(t))
	conv, err := store.GetOrCreate(context.Background(), "tenant-1", "session-new")
	require.NoError(t, err)

	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, "tenant-1", conv.TenantID)
	assert.Equal(t, "session-new", conv.SessionID)
	assert.Equal(t, created, conv.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationStore_GetOrCreate_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, tenant_id, session_id, created_at`).
		WillReturnError(errors.New("connection reset"))

	store := NewConversationStore(db, logger.NewTestLogger(t))
	_, err = store.GetOrCreate(context.Background(), "tenant-1", "session-1")
	assert.Error(t, err)
}

func TestConversationStore_GetRecentTurns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT role, content`).
		WithArgs("conv-1", 10).
		WillReturnRows(sqlmock.NewRows([]string{"role", "content"}).
			AddRow(models.RoleAssistant, "Her er svaret").
			AddRow(models.RoleUser, "hvad koster det"))

	store := NewConversationStore(db, logger.NewTestLogger(t))
	turns, err := store.GetRecentTurns(context.Background(), "conv-1", 10)
	require.NoError(t, err)

	require.Len(t, turns, 2)
	assert.Equal(t, models.RoleAssistant, turns[0].Role)
	assert.Equal(t, "Her er svaret", turns[0].Content)
	assert.Equal(t, models.RoleUser, turns[1].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationStore_GetRecentTurns_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT role, content`).
		WithArgs("conv-empty", 10).
		WillReturnRows(sqlmock.NewRows([]string{"role", "content"}))

	store := NewConversationStore(db, logger.NewTestLogger(t))
	turns, err := store.GetRecentTurns(context.Background(), "conv-empty", 10)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestConversationStore_SaveTurns_AIReply(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO messages \(conversation_id, role, content\)`).
		WithArgs("conv-1", models.RoleUser, "hvad koster det").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO messages \(conversation_id, role, content, intent, is_ai, tokens_used\)`).
		WithArgs("conv-1", models.RoleAssistant, "Her er svaret", "ai_response", true, 42).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	store := NewConversationStore(db, logger.NewTestLogger(t))
	err = store.SaveTurns(context.Background(), "conv-1", "hvad koster det", AssistantTurn{
		Content:    "Her er svaret",
		Intent:     "ai_response",
		IsAI:       true,
		TokensUsed: 42,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationStore_SaveTurns_FallbackReplyNullsMetadata(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO messages \(conversation_id, role, content\)`).
		WithArgs("conv-1", models.RoleUser, "???").
		WillReturnResult(sqlmock.NewResult(1, 1))
	// No intent and no token count on fallback turns.
	mock.ExpectExec(`INSERT INTO messages \(conversation_id, role, content, intent, is_ai, tokens_used\)`).
		WithArgs("conv-1", models.RoleAssistant, "Jeg forstod ikke helt.", nil, false, nil).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	store := NewConversationStore(db, logger.NewTestLogger(t))
	err = store.SaveTurns(context.Background(), "conv-1", "???", AssistantTurn{
		Content: "Jeg forstod ikke helt.",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationStore_SaveTurns_RollbackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO messages \(conversation_id, role, content\)`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	store := NewConversationStore(db, logger.NewTestLogger(t))
	err = store.SaveTurns(context.Background(), "conv-1", "hej", AssistantTurn{Content: "Hej!"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

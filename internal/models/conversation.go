// internal/models/conversation.go
package models

import "time"

// Turn roles, matching what the AI capability expects.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is a single message in a conversation, ordered
// oldest to newest.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation groups the turns of one widget session.
type Conversation struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

// KnowledgeSnippet is one piece of tenant knowledge handed to the AI
// capability, order-preserving.
type KnowledgeSnippet struct {
	Text string `json:"text"`
}

// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	apperrors "chat-engine/internal/common/errors"
	"chat-engine/internal/common/logger"
	"chat-engine/internal/engine/responder"
	"chat-engine/internal/models"
	"chat-engine/internal/notify"
	"chat-engine/internal/store"

	"github.com/xeipuuv/gojsonschema"
)

// chatRequestSchema is the wire contract for POST /chat. Unknown fields are
// rejected so widget version drift surfaces as a 400 instead of silently
// dropped data.
const chatRequestSchema = `{
	"type": "object",
	"required": ["tenant_id", "session_id", "message"],
	"additionalProperties": false,
	"properties": {
		"tenant_id": {"type": "string", "minLength": 1},
		"session_id": {"type": "string", "minLength": 1},
		"message": {"type": "string"},
		"use_ai": {"type": "boolean"}
	}
}`

type chatRequest struct {
	TenantID  string `json:"tenant_id"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	UseAI     *bool  `json:"use_ai"`
}

type chatResponse struct {
	Reply      string `json:"reply"`
	Intent     string `json:"intent,omitempty"`
	IsAI       bool   `json:"is_ai"`
	IsFallback bool   `json:"is_fallback"`
	TokensUsed int    `json:"tokens_used,omitempty"`
}

// TenantSource and ConversationSource decouple the handler from the
// concrete stores for testing.
type TenantSource interface {
	GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error)
}

type ConversationSource interface {
	GetOrCreate(ctx context.Context, tenantID, sessionID string) (*models.Conversation, error)
	SaveTurns(ctx context.Context, conversationID, userContent string, assistant store.AssistantTurn) error
}

// Server is the HTTP boundary of the chat widget backend. It owns request
// validation and tenant resolution; everything response-shaped lives in
// the responder engine.
type Server struct {
	tenants       TenantSource
	conversations ConversationSource
	engine        *responder.Engine
	notifier      *notify.Notifier
	schema        *gojsonschema.Schema
	logger        logger.Logger
}

func New(tenants TenantSource, conversations ConversationSource, engine *responder.Engine, notifier *notify.Notifier, log logger.Logger) (*Server, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(chatRequestSchema))
	if err != nil {
		return nil, fmt.Errorf("compile chat request schema: %w", err)
	}

	return &Server{
		tenants:       tenants,
		conversations: conversations,
		engine:        engine,
		notifier:      notifier,
		schema:        schema,
		logger:        log.WithFields(map[string]interface{}{"component": "server"}),
	}, nil
}

// Routes builds the handler mux. Health and metrics endpoints are added by
// the caller so the package stays free of process-level concerns.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.handleChat)
	return mux
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	// The widget must always receive a well-formed reply; a crash in the
	// pipeline degrades to the generic fallback, never a 500 with no body.
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("panic in chat handler", map[string]interface{}{"panic": rec})
			writeJSON(w, http.StatusOK, chatResponse{
				Reply:      responder.ReplyNoMatch,
				IsFallback: true,
			})
		}
	}()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apperrors.NewValidationRejectedError("only POST is supported"))
		return
	}

	req, err := s.decodeAndValidate(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apperrors.NewValidationRejectedError(err.Error()))
		return
	}

	ctx := r.Context()

	tenant, err := s.tenants.GetTenant(ctx, req.TenantID)
	if err != nil {
		if errors.Is(err, store.ErrTenantNotFound) {
			writeJSON(w, http.StatusNotFound, apperrors.NewTenantNotFoundError(req.TenantID))
			return
		}
		s.logger.Error("tenant lookup failed", map[string]interface{}{
			"error":    err,
			"tenantId": req.TenantID,
		})
		writeJSON(w, http.StatusInternalServerError, apperrors.NewExternalServiceError("tenant-store", err))
		return
	}
	if !tenant.IsActive {
		writeJSON(w, http.StatusForbidden, apperrors.NewTenantInactiveError(tenant.ID))
		return
	}

	conv, err := s.conversations.GetOrCreate(ctx, tenant.ID, req.SessionID)
	if err != nil {
		// Respond without history rather than failing the visitor; the
		// engine degrades to an empty context for unknown conversations.
		s.logger.Error("conversation lookup failed", map[string]interface{}{
			"error":     err,
			"tenantId":  tenant.ID,
			"sessionId": req.SessionID,
		})
		conv = nil
	}

	useAI := true
	if req.UseAI != nil {
		useAI = *req.UseAI
	}

	engineReq := responder.Request{
		TenantID: tenant.ID,
		Message:  req.Message,
		UseAI:    useAI,
	}
	if conv != nil {
		engineReq.ConversationID = conv.ID
	}

	out := s.engine.Respond(ctx, tenant, engineReq)

	if conv != nil {
		if err := s.conversations.SaveTurns(ctx, conv.ID, req.Message, store.AssistantTurn{
			Content:    out.Reply,
			Intent:     out.Intent,
			IsAI:       out.IsAI,
			TokensUsed: out.TokensUsed,
		}); err != nil {
			s.logger.Error("conversation save failed", map[string]interface{}{
				"error":          err,
				"conversationId": conv.ID,
			})
		}
	}

	if reason, ok := handoverReason(out); ok && s.notifier != nil {
		go s.notifier.Handover(tenant, reason, req.Message)
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Reply:      out.Reply,
		Intent:     out.Intent,
		IsAI:       out.IsAI,
		IsFallback: out.IsFallback,
		TokensUsed: out.TokensUsed,
	})
}

func (s *Server) decodeAndValidate(r *http.Request) (*chatRequest, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 64<<10)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse body: %w", err)
	}

	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("request validation failed: %v", errs)
	}

	var req chatRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return &req, nil
}

// handoverReason maps outcomes that take the visitor out of the automated
// flow onto a notification reason.
func handoverReason(out responder.Outcome) (notify.Reason, bool) {
	if out.Source == responder.SourceRule && out.Intent == "human_support" {
		return notify.ReasonHumanRequested, true
	}
	switch out.Reason {
	case responder.FallbackQuotaExceeded:
		return notify.ReasonQuotaExhausted, true
	case responder.FallbackAIError:
		return notify.ReasonAIFailure, true
	}
	return "", false
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

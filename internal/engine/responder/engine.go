// internal/engine/responder/engine.go
package responder

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"chat-engine/internal/common/logger"
	"chat-engine/internal/common/metrics"
	"chat-engine/internal/engine/ai"
	"chat-engine/internal/engine/convctx"
	"chat-engine/internal/engine/quota"
	"chat-engine/internal/engine/rules"
	"chat-engine/internal/models"
)

// Request is one inbound widget message, already authenticated and routed
// by the HTTP layer.
type Request struct {
	TenantID       string
	ConversationID string
	Message        string
	UseAI          bool
}

// Config bounds the pipeline.
type Config struct {
	AIEnabled        bool
	AITimeout        time.Duration
	MaxMessageLength int
}

// Engine is the response-decision pipeline: rule match first, then a
// rate-limited AI attempt, then a canned fallback. Every path terminates
// in a valid Outcome; nothing here is fatal to the caller.
type Engine struct {
	registry  *rules.Registry
	gate      *quota.Gate
	assembler *convctx.Assembler
	completer ai.Completer
	config    Config
	logger    logger.Logger
}

func NewEngine(registry *rules.Registry, gate *quota.Gate, assembler *convctx.Assembler, completer ai.Completer, cfg Config, log logger.Logger) *Engine {
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = 1000
	}
	if cfg.AITimeout <= 0 {
		cfg.AITimeout = 30 * time.Second
	}
	return &Engine{
		registry:  registry,
		gate:      gate,
		assembler: assembler,
		completer: completer,
		config:    cfg,
		logger:    log.WithFields(map[string]interface{}{"component": "responder"}),
	}
}

// Respond runs the decision pipeline for one message. States run in order
// and each is terminal on success: Validate, RuleAttempt, AIEligibility,
// AIAttempt, FinalFallback. At most one AI attempt is made per request and
// its quota slot is consumed before the attempt, with no refund on failure.
func (e *Engine) Respond(ctx context.Context, tenant *models.Tenant, req Request) (out Outcome) {
	start := time.Now()

	// The final fallback exists before any state runs; a branch that
	// produces nothing cannot yield a malformed result. The deferred
	// recover is a last-resort safety net, not an error-handling path.
	out = Fallback(FallbackNoMatch, ReplyNoMatch)
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic in response pipeline", map[string]interface{}{
				"tenantId": tenant.ID,
				"panic":    r,
			})
			out = Fallback(FallbackInternal, ReplyNoMatch)
		}
		metrics.ChatResponsesTotal.WithLabelValues(string(out.Source)).Inc()
		metrics.ChatResponseDuration.WithLabelValues(string(out.Source)).Observe(time.Since(start).Seconds())
	}()

	log := e.logger.WithFields(map[string]interface{}{"tenantId": tenant.ID})

	// Validate
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return Fallback(FallbackEmptyMessage, ReplyEmptyMessage)
	}
	if utf8.RuneCountInString(message) > e.config.MaxMessageLength {
		return Fallback(FallbackTooLong, ReplyTooLong)
	}

	// RuleAttempt
	normalized := rules.Normalize(message)
	if res := rules.Match(normalized, e.registry.ForTenant(tenant.ID)); res.Matched {
		metrics.ChatIntentMatches.WithLabelValues(res.Intent).Inc()
		log.Info("rule-based response", map[string]interface{}{
			"intent":  res.Intent,
			"keyword": res.Keyword,
		})
		return RuleHit(res.Intent, res.Reply)
	}

	// AIEligibility: both the tenant flag and the caller flag must agree,
	// and the process-level AI switch must be on.
	if !e.config.AIEnabled || !req.UseAI || !tenant.UseAI {
		return Fallback(FallbackNoMatch, ReplyNoMatch)
	}

	// AIAttempt
	if !e.gate.CheckAndConsume(ctx, tenant.ID, tenant.AIDailyLimit) {
		metrics.ChatQuotaDenied.WithLabelValues(tenant.ID).Inc()
		return Fallback(FallbackQuotaExceeded, ReplyQuotaExceeded)
	}

	convContext, err := e.assembler.Assemble(ctx, tenant.ID, req.ConversationID)
	if err != nil {
		// Degraded context, proceed with what we have.
		log.Warn("AI context degraded", map[string]interface{}{"error": err.Error()})
	}

	prompt := ai.BuildPrompt(ai.PromptInput{
		Message:   message,
		Tenant:    tenant,
		Knowledge: convContext.Knowledge,
	})

	aiCtx, cancel := context.WithTimeout(ctx, e.config.AITimeout)
	defer cancel()

	reply, err := e.completer.Complete(aiCtx, prompt, convContext.History)
	if err != nil {
		reason := "error"
		if aiCtx.Err() == context.DeadlineExceeded {
			reason = "timeout"
		}
		metrics.ChatAIFailures.WithLabelValues(reason).Inc()
		log.Error("AI completion failed", map[string]interface{}{
			"error":   err.Error(),
			"message": truncate(message, 50),
		})
		return Fallback(FallbackAIError, ReplyAIError)
	}

	tokens := ai.EstimateTokens(prompt, reply)
	metrics.ChatTokensEstimated.WithLabelValues(tenant.ID).Add(float64(tokens))
	log.Info("AI response", map[string]interface{}{"estimatedTokens": tokens})

	return AIHit(reply, tokens)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

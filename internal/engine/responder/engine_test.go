// internal/engine/responder/engine_test.go
package responder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-engine/internal/common/logger"
	"chat-engine/internal/engine/convctx"
	"chat-engine/internal/engine/quota"
	"chat-engine/internal/engine/rules"
	"chat-engine/internal/models"
)

// unmatchedMessage triggers no intent in the default catalog.
const unmatchedMessage = "hvordan fungerer fotosyntese"

type mockCompleter struct {
	CompleteFunc func(ctx context.Context, prompt string, history []models.ConversationTurn) (string, error)
	calls        int
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string, history []models.ConversationTurn) (string, error) {
	m.calls++
	return m.CompleteFunc(ctx, prompt, history)
}

type stubHistory struct {
	turns []models.ConversationTurn
	err   error
}

func (s *stubHistory) GetRecentTurns(_ context.Context, _ string, _ int) ([]models.ConversationTurn, error) {
	return s.turns, s.err
}

type stubKnowledge struct {
	snippets []models.KnowledgeSnippet
	err      error
}

func (s *stubKnowledge) GetKnowledge(_ context.Context, _ string) ([]models.KnowledgeSnippet, error) {
	return s.snippets, s.err
}

type engineFixture struct {
	engine    *Engine
	completer *mockCompleter
	store     *quota.MemoryStore
	tenant    *models.Tenant
}

type fixtureOpts struct {
	aiEnabled    bool
	tenantUseAI  bool
	dailyLimit   int64
	completer    *mockCompleter
	historyErr   error
	knowledgeErr error
}

func newFixture(t *testing.T, opts fixtureOpts) *engineFixture {
	log := logger.NewTestLogger(t)

	completer := opts.completer
	if completer == nil {
		completer = &mockCompleter{
			CompleteFunc: func(_ context.Context, _ string, _ []models.ConversationTurn) (string, error) {
				return "Her er svaret", nil
			},
		}
	}

	store := quota.NewMemoryStore()
	assembler := convctx.NewAssembler(
		&stubHistory{err: opts.historyErr},
		&stubKnowledge{err: opts.knowledgeErr},
		10, 5, 10, log,
	)

	engine := NewEngine(
		rules.NewRegistry(rules.DefaultCatalog()),
		quota.NewGate(store, log),
		assembler,
		completer,
		Config{
			AIEnabled:        opts.aiEnabled,
			AITimeout:        time.Second,
			MaxMessageLength: 1000,
		},
		log,
	)

	return &engineFixture{
		engine:    engine,
		completer: completer,
		store:     store,
		tenant: &models.Tenant{
			ID:           "tenant-1",
			CompanyName:  "Din Klinik",
			IsActive:     true,
			UseAI:        opts.tenantUseAI,
			AIDailyLimit: opts.dailyLimit,
		},
	}
}

func (f *engineFixture) respond(message string, useAI bool) Outcome {
	return f.engine.Respond(context.Background(), f.tenant, Request{
		TenantID:       f.tenant.ID,
		ConversationID: "conv-1",
		Message:        message,
		UseAI:          useAI,
	})
}

func TestRespond_RuleHit(t *testing.T) {
	f := newFixture(t, fixtureOpts{aiEnabled: true, tenantUseAI: true, dailyLimit: 100})

	out := f.respond("Hvornår har I åbent?", true)

	assert.Equal(t, SourceRule, out.Source)
	assert.Equal(t, "opening_hours", out.Intent)
	assert.NotEmpty(t, out.Reply)
	assert.False(t, out.IsAI)
	assert.False(t, out.IsFallback)
	assert.Zero(t, out.TokensUsed)

	// A rule hit never reaches the AI step or the quota gate.
	assert.Equal(t, 0, f.completer.calls)
	assert.Equal(t, int64(0), f.store.Used(f.tenant.ID))
}

func TestRespond_EmptyMessage(t *testing.T) {
	f := newFixture(t, fixtureOpts{aiEnabled: true, tenantUseAI: true, dailyLimit: 100})

	for _, msg := range []string{"", "   ", "\n\t"} {
		out := f.respond(msg, true)
		assert.Equal(t, SourceFallback, out.Source)
		assert.Equal(t, FallbackEmptyMessage, out.Reason)
		assert.Equal(t, ReplyEmptyMessage, out.Reply)
	}
	assert.Equal(t, 0, f.completer.calls)
}

func TestRespond_MessageTooLong(t *testing.T) {
	f := newFixture(t, fixtureOpts{aiEnabled: true, tenantUseAI: true, dailyLimit: 100})

	out := f.respond(strings.Repeat("a", 1001), true)

	assert.Equal(t, FallbackTooLong, out.Reason)
	assert.Equal(t, ReplyTooLong, out.Reply)
	assert.Equal(t, 0, f.completer.calls)

	// Exactly at the limit is accepted; runes count, not bytes.
	out = f.respond(strings.Repeat("æ", 1000), true)
	assert.NotEqual(t, FallbackTooLong, out.Reason)
}

func TestRespond_AISuccess(t *testing.T) {
	f := newFixture(t, fixtureOpts{aiEnabled: true, tenantUseAI: true, dailyLimit: 100})

	out := f.respond(unmatchedMessage, true)

	assert.Equal(t, SourceAI, out.Source)
	assert.Equal(t, "Her er svaret", out.Reply)
	assert.Equal(t, IntentAIResponse, out.Intent)
	assert.True(t, out.IsAI)
	assert.False(t, out.IsFallback)
	assert.Greater(t, out.TokensUsed, 0)

	assert.Equal(t, 1, f.completer.calls)
	assert.Equal(t, int64(1), f.store.Used(f.tenant.ID))
}

func TestRespond_QuotaDenied(t *testing.T) {
	f := newFixture(t, fixtureOpts{aiEnabled: true, tenantUseAI: true, dailyLimit: 1})

	first := f.respond(unmatchedMessage, true)
	require.Equal(t, SourceAI, first.Source)

	second := f.respond(unmatchedMessage, true)
	assert.Equal(t, SourceFallback, second.Source)
	assert.Equal(t, FallbackQuotaExceeded, second.Reason)
	assert.Equal(t, ReplyQuotaExceeded, second.Reply)

	// The denied request never reached the completer.
	assert.Equal(t, 1, f.completer.calls)
}

func TestRespond_ZeroLimitDeniedWithoutAICall(t *testing.T) {
	f := newFixture(t, fixtureOpts{aiEnabled: true, tenantUseAI: true, dailyLimit: 0})

	out := f.respond(unmatchedMessage, true)

	assert.Equal(t, FallbackQuotaExceeded, out.Reason)
	assert.Equal(t, 0, f.completer.calls)
}

func TestRespond_AIFailureConsumesSlot(t *testing.T) {
	completer := &mockCompleter{
		CompleteFunc: func(_ context.Context, _ string, _ []models.ConversationTurn) (string, error) {
			return "", errors.New("upstream 500")
		},
	}
	f := newFixture(t, fixtureOpts{aiEnabled: true, tenantUseAI: true, dailyLimit: 2, completer: completer})

	out := f.respond(unmatchedMessage, true)

	assert.Equal(t, SourceFallback, out.Source)
	assert.Equal(t, FallbackAIError, out.Reason)
	assert.Equal(t, ReplyAIError, out.Reply)

	// The slot is consumed before the attempt and not refunded.
	assert.Equal(t, 1, f.completer.calls)
	assert.Equal(t, int64(1), f.store.Used(f.tenant.ID))
}

func TestRespond_AINotEligible(t *testing.T) {
	tests := []struct {
		name  string
		opts  fixtureOpts
		useAI bool
	}{
		{
			name:  "engine AI disabled",
			opts:  fixtureOpts{aiEnabled: false, tenantUseAI: true, dailyLimit: 100},
			useAI: true,
		},
		{
			name:  "request opts out",
			opts:  fixtureOpts{aiEnabled: true, tenantUseAI: true, dailyLimit: 100},
			useAI: false,
		},
		{
			name:  "tenant opts out",
			opts:  fixtureOpts{aiEnabled: true, tenantUseAI: false, dailyLimit: 100},
			useAI: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.opts)

			out := f.respond(unmatchedMessage, tt.useAI)

			assert.Equal(t, SourceFallback, out.Source)
			assert.Equal(t, FallbackNoMatch, out.Reason)
			assert.Equal(t, ReplyNoMatch, out.Reply)

			// Ineligible requests consume no quota.
			assert.Equal(t, 0, f.completer.calls)
			assert.Equal(t, int64(0), f.store.Used(f.tenant.ID))
		})
	}
}

func TestRespond_DegradedContextStillAnswers(t *testing.T) {
	f := newFixture(t, fixtureOpts{
		aiEnabled:   true,
		tenantUseAI: true,
		dailyLimit:  100,
		historyErr:  errors.New("pg down"),
	})

	out := f.respond(unmatchedMessage, true)

	assert.Equal(t, SourceAI, out.Source)
	assert.Equal(t, "Her er svaret", out.Reply)
}

func TestRespond_TimeoutMapsToAIError(t *testing.T) {
	completer := &mockCompleter{
		CompleteFunc: func(ctx context.Context, _ string, _ []models.ConversationTurn) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	log := logger.NewTestLogger(t)
	engine := NewEngine(
		rules.NewRegistry(rules.DefaultCatalog()),
		quota.NewGate(quota.NewMemoryStore(), log),
		convctx.NewAssembler(&stubHistory{}, &stubKnowledge{}, 10, 5, 10, log),
		completer,
		Config{AIEnabled: true, AITimeout: 10 * time.Millisecond, MaxMessageLength: 1000},
		log,
	)
	tenant := &models.Tenant{ID: "tenant-1", UseAI: true, AIDailyLimit: 100}

	out := engine.Respond(context.Background(), tenant, Request{
		TenantID: tenant.ID,
		Message:  unmatchedMessage,
		UseAI:    true,
	})

	assert.Equal(t, FallbackAIError, out.Reason)
	assert.Equal(t, ReplyAIError, out.Reply)
}

func TestRespond_PanicRecovered(t *testing.T) {
	completer := &mockCompleter{
		CompleteFunc: func(_ context.Context, _ string, _ []models.ConversationTurn) (string, error) {
			panic("completer exploded")
		},
	}
	f := newFixture(t, fixtureOpts{aiEnabled: true, tenantUseAI: true, dailyLimit: 100, completer: completer})

	out := f.respond(unmatchedMessage, true)

	assert.Equal(t, SourceFallback, out.Source)
	assert.Equal(t, FallbackInternal, out.Reason)
	assert.Equal(t, ReplyNoMatch, out.Reply)
}

func TestRespond_TokensOnlyOnAIOutcomes(t *testing.T) {
	f := newFixture(t, fixtureOpts{aiEnabled: true, tenantUseAI: true, dailyLimit: 100})

	ruleOut := f.respond("hej", true)
	assert.False(t, ruleOut.IsAI)
	assert.Zero(t, ruleOut.TokensUsed)

	aiOut := f.respond(unmatchedMessage, true)
	assert.True(t, aiOut.IsAI)
	assert.Greater(t, aiOut.TokensUsed, 0)

	fallbackOut := f.respond(unmatchedMessage, false)
	assert.True(t, fallbackOut.IsFallback)
	assert.Zero(t, fallbackOut.TokensUsed)
}

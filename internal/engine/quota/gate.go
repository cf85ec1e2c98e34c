// internal/engine/quota/gate.go
package quota

import (
	"context"

	"chat-engine/internal/common/logger"
)

// Store is the per-tenant daily counter store. CheckAndConsume must be
// atomic per tenant: when one slot remains, two concurrent calls must not
// both succeed. Implementations must not mutate the counter on denial.
type Store interface {
	CheckAndConsume(ctx context.Context, tenantID string, limit int64) (bool, error)
}

// Gate enforces the per-tenant daily AI quota. It consumes exactly one
// slot per permitted call and turns every store failure into a denial:
// a broken counter store must never grant unmetered AI calls.
type Gate struct {
	store  Store
	logger logger.Logger
}

func NewGate(store Store, log logger.Logger) *Gate {
	return &Gate{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "usage-gate"}),
	}
}

// CheckAndConsume reports whether the tenant may issue one AI call and, if
// so, consumes the slot. A non-positive limit (unknown or unconfigured
// tenant) is always denied. Never returns an error and never panics.
func (g *Gate) CheckAndConsume(ctx context.Context, tenantID string, limit int64) bool {
	if tenantID == "" || limit <= 0 {
		return false
	}

	allowed, err := g.store.CheckAndConsume(ctx, tenantID, limit)
	if err != nil {
		g.logger.Warn("counter store error, denying AI call", map[string]interface{}{
			"tenantId": tenantID,
			"error":    err.Error(),
		})
		return false
	}

	if !allowed {
		g.logger.Info("AI quota exhausted", map[string]interface{}{
			"tenantId": tenantID,
			"limit":    limit,
		})
	}

	return allowed
}

// internal/store/tenants.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"chat-engine/internal/common/logger"
	"chat-engine/internal/models"
)

var ErrTenantNotFound = errors.New("TENANT_NOT_FOUND")

const tenantCachePrefix = "tenant:config:"

// TenantStore reads tenant records from Postgres with a short-lived Redis
// cache in front, so the hot path does not hit the database on every
// message. The Redis client is optional; without it every read goes to
// Postgres.
type TenantStore struct {
	db       *sql.DB
	redis    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

func NewTenantStore(db *sql.DB, rdb *redis.Client, log logger.Logger) *TenantStore {
	return &TenantStore{
		db:       db,
		redis:    rdb,
		cacheTTL: 5 * time.Minute,
		logger:   log.WithFields(map[string]interface{}{"component": "tenant-store"}),
	}
}

// GetTenant returns the tenant record or ErrTenantNotFound.
func (s *TenantStore) GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	cacheKey := tenantCachePrefix + tenantID

	if s.redis != nil {
		if raw, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var t models.Tenant
			if err := json.Unmarshal([]byte(raw), &t); err == nil {
				return &t, nil
			}
		}
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, company_name, COALESCE(website_url, ''), COALESCE(contact_email, ''),
		       COALESCE(notification_email, ''), COALESCE(notification_phone, ''),
		       plan, is_active, use_ai, ai_daily_limit, created_at
		FROM tenants
		WHERE id = $1`, tenantID)

	var t models.Tenant
	err := row.Scan(&t.ID, &t.CompanyName, &t.WebsiteURL, &t.ContactEmail,
		&t.NotificationEmail, &t.NotificationPhone,
		&t.Plan, &t.IsActive, &t.UseAI, &t.AIDailyLimit, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, tenantID)
		}
		return nil, fmt.Errorf("tenant query failed: %w", err)
	}

	if s.redis != nil {
		if raw, err := json.Marshal(&t); err == nil {
			s.redis.Set(ctx, cacheKey, raw, s.cacheTTL)
		}
	}

	return &t, nil
}

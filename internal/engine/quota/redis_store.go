// internal/engine/quota/redis_store.go
package quota

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// checkAndConsume runs the check-then-increment as one atomic script so
// concurrent requests for the same tenant cannot both take the last slot.
// Daily reset of the counter key is an external lifecycle job, not ours.
var checkAndConsume = redis.NewScript(`
local used = tonumber(redis.call('GET', KEYS[1]) or '0')
if used >= tonumber(ARGV[1]) then
	return 0
end
redis.call('INCR', KEYS[1])
return 1
`)

const quotaKeyPrefix = "quota:ai:"

// RedisStore implements Store on a shared Redis counter, usable across
// multiple engine replicas.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) CheckAndConsume(ctx context.Context, tenantID string, limit int64) (bool, error) {
	res, err := checkAndConsume.Run(ctx, s.client, []string{quotaKey(tenantID)}, limit).Int64()
	if err != nil {
		return false, fmt.Errorf("quota script failed: %w", err)
	}
	return res == 1, nil
}

// Used returns the tenant's consumed slots, for diagnostics.
func (s *RedisStore) Used(ctx context.Context, tenantID string) (int64, error) {
	n, err := s.client.Get(ctx, quotaKey(tenantID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

func quotaKey(tenantID string) string {
	return quotaKeyPrefix + tenantID
}

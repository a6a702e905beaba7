package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// markTTL keeps dedup keys alive well past the point where the incident can
// still trigger either phase, then lets redis reclaim them.
const markTTL = 14 * 24 * time.Hour

// Redis is the durable deduper: marks survive restarts and are shared across
// instances, closing the duplicate-notification gap of the in-memory set.
type Redis struct {
	client redis.Cmdable
}

func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{client: client}
}

func key(incidentID string, phase Phase) string {
	return fmt.Sprintf("finbooks:dedup:incident:%s:%s", incidentID, phase)
}

func (r *Redis) Marked(ctx context.Context, incidentID string, phase Phase) (bool, error) {
	n, err := r.client.Exists(ctx, key(incidentID, phase)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup lookup: %w", err)
	}
	return n > 0, nil
}

func (r *Redis) Mark(ctx context.Context, incidentID string, phase Phase) error {
	if err := r.client.Set(ctx, key(incidentID, phase), time.Now().UTC().Format(time.RFC3339), markTTL).Err(); err != nil {
		return fmt.Errorf("dedup mark: %w", err)
	}
	return nil
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/firehall-dev/duty-roster/backend/internal/config"
)

// RosterCache caches the computed roster of one calendar day. Writers
// never update entries in place, they only delete them, so a stale
// entry can outlive a mutation by at most the TTL.
type RosterCache struct {
	cfg *config.Config
	rdb *redis.Client
}

func NewRosterCache(cfg *config.Config, rdb *redis.Client) *RosterCache {
	return &RosterCache{cfg: cfg, rdb: rdb}
}

func dayKey(date time.Time) string {
	return fmt.Sprintf("roster_day_%s", date.Format("2006-01-02"))
}

// Get unmarshals the cached roster for the day into dst. The second
// return is false on a miss; cache errors are reported as misses so a
// redis outage never breaks reads.
func (c *RosterCache) Get(ctx context.Context, date time.Time, dst any) bool {
	octx, cancel := c.opCtx(ctx)
	defer cancel()

	body, err := c.rdb.Get(octx, dayKey(date)).Bytes()
	if err != nil {
		return false
	}

	return json.Unmarshal(body, dst) == nil
}

func (c *RosterCache) Set(ctx context.Context, date time.Time, roster any) error {
	body, err := json.Marshal(roster)
	if err != nil {
		return err
	}

	octx, cancel := c.opCtx(ctx)
	defer cancel()

	ttl := time.Duration(c.cfg.Roster.CacheTTL) * time.Second
	return c.rdb.Set(octx, dayKey(date), body, ttl).Err()
}

// Invalidate drops the cached entries for the given days. Called after
// a mutating transaction commits, never before.
func (c *RosterCache) Invalidate(ctx context.Context, dates ...time.Time) error {
	if len(dates) == 0 {
		return nil
	}

	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		keys = append(keys, dayKey(d))
	}

	octx, cancel := c.opCtx(ctx)
	defer cancel()

	return c.rdb.Del(octx, keys...).Err()
}

func (c *RosterCache) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(c.cfg.Redis.OperationExpiration)*time.Second)
}

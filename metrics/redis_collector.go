package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/marcelsud/webhook-dispatch/webhook"
	whredis "github.com/marcelsud/webhook-dispatch/webhook/redis"
	"github.com/redis/go-redis/v9"
)

// RedisCollector implements the Collector interface on top of the Redis outcome journal
type RedisCollector struct {
	journal *whredis.Journal
	client  *redis.Client
	now     func() time.Time
}

// NewRedisCollector creates a collector reading what journal writes
func NewRedisCollector(journal *whredis.Journal) *RedisCollector {
	return &RedisCollector{
		journal: journal,
		client:  journal.Client(),
		now:     time.Now,
	}
}

// Collect gathers all metrics from Redis
func (c *RedisCollector) Collect(ctx context.Context) (Metrics, error) {
	return collect(ctx, c)
}

// GetOutcomeCounts returns the count of firings by outcome kind
func (c *RedisCollector) GetOutcomeCounts(ctx context.Context) (map[string]int64, error) {
	data, err := c.client.HGetAll(ctx, whredis.CountsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("getting outcome counts: %w", err)
	}

	counts := emptyCounts()
	for kind, raw := range data {
		if webhook.NewOutcomeKind(kind).Validate() != nil {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing count for %s: %w", kind, err)
		}
		counts[kind] = n
	}
	return counts, nil
}

// GetInFlight returns the number of firings marked as in flight
func (c *RedisCollector) GetInFlight(ctx context.Context) (int64, error) {
	firings, err := c.journal.InFlightFirings(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(firings)), nil
}

// GetThroughput counts completed firings over the 1, 5 and 15 minute windows
func (c *RedisCollector) GetThroughput(ctx context.Context) (ThroughputMetrics, error) {
	now := c.now()
	windows := []time.Duration{time.Minute, 5 * time.Minute, 15 * time.Minute}

	pipe := c.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(windows))
	for i, w := range windows {
		from := strconv.FormatInt(now.Add(-w).UnixMilli(), 10)
		cmds[i] = pipe.ZCount(ctx, whredis.CompletedKey, from, "+inf")
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return ThroughputMetrics{}, fmt.Errorf("counting completions: %w", err)
	}

	return ThroughputMetrics{
		LastMinute:         cmds[0].Val(),
		LastFiveMinutes:    cmds[1].Val(),
		LastFifteenMinutes: cmds[2].Val(),
	}, nil
}

package metrics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marcelsud/webhook-dispatch/webhook"
)

const defaultRecentCapacity = 100

/* MemoryCollector observes firings in process
 * It implements webhook.Observer and Collector, and keeps the most recent outcome records
 */
type MemoryCollector struct {
	inFlight atomic.Int64

	mu          sync.Mutex
	counts      map[webhook.OutcomeKind]int64
	completions []time.Time
	recent      []webhook.OutcomeRecord
	next        int
	capacity    int
	now         func() time.Time
}

// NewMemoryCollector creates a collector keeping up to capacity recent records
func NewMemoryCollector(capacity int) *MemoryCollector {
	if capacity <= 0 {
		capacity = defaultRecentCapacity
	}
	return &MemoryCollector{
		counts:   make(map[webhook.OutcomeKind]int64),
		capacity: capacity,
		now:      time.Now,
	}
}

// FiringStarted counts the firing as in flight
func (c *MemoryCollector) FiringStarted(_ context.Context, _ string) {
	c.inFlight.Add(1)
}

// FiringFinished records the outcome
func (c *MemoryCollector) FiringFinished(_ context.Context, outcome webhook.Outcome) {
	c.inFlight.Add(-1)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.counts[outcome.Kind]++
	now := c.now()
	if outcome.Kind == webhook.Completed {
		c.completions = append(c.completions, now)
	}
	c.prune(now)

	rec := outcome.Record()
	if len(c.recent) < c.capacity {
		c.recent = append(c.recent, rec)
	} else {
		c.recent[c.next] = rec
	}
	c.next = (c.next + 1) % c.capacity
}

// prune drops completion times older than the widest throughput window
func (c *MemoryCollector) prune(now time.Time) {
	horizon := now.Add(-15 * time.Minute)
	i := 0
	for i < len(c.completions) && c.completions[i].Before(horizon) {
		i++
	}
	c.completions = c.completions[i:]
}

// Collect gathers all metrics
func (c *MemoryCollector) Collect(ctx context.Context) (Metrics, error) {
	return collect(ctx, c)
}

// GetOutcomeCounts returns the count of firings by outcome kind
func (c *MemoryCollector) GetOutcomeCounts(_ context.Context) (map[string]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	counts := emptyCounts()
	for kind, n := range c.counts {
		counts[kind.String()] = n
	}
	return counts, nil
}

// GetInFlight returns the number of firings not yet reported
func (c *MemoryCollector) GetInFlight(_ context.Context) (int64, error) {
	return c.inFlight.Load(), nil
}

// GetThroughput returns completed firings over the 1, 5 and 15 minute windows
func (c *MemoryCollector) GetThroughput(_ context.Context) (ThroughputMetrics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.prune(now)
	oneMinuteAgo := now.Add(-1 * time.Minute)
	fiveMinutesAgo := now.Add(-5 * time.Minute)

	tp := ThroughputMetrics{LastFifteenMinutes: int64(len(c.completions))}
	for _, at := range c.completions {
		if !at.Before(fiveMinutesAgo) {
			tp.LastFiveMinutes++
			if !at.Before(oneMinuteAgo) {
				tp.LastMinute++
			}
		}
	}
	return tp, nil
}

// Recent returns up to n outcome records, newest first
func (c *MemoryCollector) Recent(_ context.Context, n int) ([]webhook.OutcomeRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n > len(c.recent) {
		n = len(c.recent)
	}
	out := make([]webhook.OutcomeRecord, 0, max(n, 0))
	for i := 0; i < n; i++ {
		idx := (c.next - 1 - i + len(c.recent)) % len(c.recent)
		out = append(out, c.recent[idx])
	}
	return out, nil
}

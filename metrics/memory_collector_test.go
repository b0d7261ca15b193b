package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/marcelsud/webhook-dispatch/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finish(c *MemoryCollector, id string, kind webhook.OutcomeKind) {
	ctx := context.Background()
	c.FiringStarted(ctx, id)
	outcome := webhook.Outcome{FiringID: id, Kind: kind, Method: "POST", URL: "http://localhost/callback"}
	if kind.IsFailure() {
		outcome.Err = errors.New("failed")
	} else {
		outcome.StatusCode = 200
	}
	c.FiringFinished(ctx, outcome)
}

func TestMemoryCollector_Collect(t *testing.T) {
	ctx := context.Background()

	t.Run("counts outcomes and in-flight firings", func(t *testing.T) {
		c := NewMemoryCollector(10)
		finish(c, "a", webhook.Completed)
		finish(c, "b", webhook.Completed)
		finish(c, "c", webhook.TransportFailed)
		c.FiringStarted(ctx, "d")

		m, err := c.Collect(ctx)

		require.NoError(t, err)
		assert.Equal(t, map[string]int64{
			"completed":         2,
			"resolution_failed": 0,
			"transport_failed":  1,
		}, m.OutcomeCounts)
		assert.Equal(t, int64(1), m.InFlight)
		assert.Equal(t, int64(2), m.Throughput.LastMinute)
		assert.False(t, m.Timestamp.IsZero())
	})

	t.Run("throughput windows", func(t *testing.T) {
		c := NewMemoryCollector(10)
		base := time.Now()
		clock := base.Add(-10 * time.Minute)
		c.now = func() time.Time { return clock }
		finish(c, "ten-minutes-ago", webhook.Completed)
		clock = base.Add(-3 * time.Minute)
		finish(c, "three-minutes-ago", webhook.Completed)
		clock = base.Add(-20 * time.Second)
		finish(c, "just-now", webhook.Completed)
		finish(c, "failure", webhook.ResolutionFailed)
		clock = base

		tp, err := c.GetThroughput(ctx)

		require.NoError(t, err)
		assert.Equal(t, ThroughputMetrics{LastMinute: 1, LastFiveMinutes: 2, LastFifteenMinutes: 3}, tp)

		clock = base.Add(30 * time.Minute)
		tp, err = c.GetThroughput(ctx)
		require.NoError(t, err)
		assert.Equal(t, ThroughputMetrics{}, tp)
	})

	t.Run("concurrent observers", func(t *testing.T) {
		c := NewMemoryCollector(10)
		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				finish(c, "x", webhook.Completed)
			}()
		}
		wg.Wait()

		counts, err := c.GetOutcomeCounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(100), counts["completed"])
		inFlight, err := c.GetInFlight(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), inFlight)
	})
}

func TestMemoryCollector_Recent(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCollector(3)

	records, err := c.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, records)

	for _, id := range []string{"1", "2", "3", "4", "5"} {
		finish(c, id, webhook.Completed)
	}

	records, err = c.Recent(ctx, 10)
	require.NoError(t, err)
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.FiringID)
	}
	assert.Equal(t, []string{"5", "4", "3"}, ids)

	records, err = c.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "completed", records[0].Outcome)
	assert.Equal(t, 200, records[0].StatusCode)
}

func TestCollector_Interface(t *testing.T) {
	t.Run("collectors implement Collector", func(t *testing.T) {
		var _ Collector = (*MemoryCollector)(nil)
		var _ Collector = (*RedisCollector)(nil)
	})

	t.Run("memory collector observes firings", func(t *testing.T) {
		var _ webhook.Observer = (*MemoryCollector)(nil)
	})
}

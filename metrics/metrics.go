package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/marcelsud/webhook-dispatch/webhook"
)

// Metrics represents the current state of webhook dispatching.
type Metrics struct {
	// OutcomeCounts maps outcome kind to the number of firings that ended that way
	OutcomeCounts map[string]int64 `json:"outcome_counts"`

	// InFlight is the number of firings waiting out their delay or awaiting a response
	InFlight int64 `json:"in_flight"`

	// Throughput represents completed firings per time window
	Throughput ThroughputMetrics `json:"throughput"`

	// Timestamp when metrics were collected
	Timestamp time.Time `json:"timestamp"`
}

// ThroughputMetrics represents completed firings over different time windows.
type ThroughputMetrics struct {
	// LastMinute is firings completed in the last 1 minute
	LastMinute int64 `json:"last_minute"`

	// LastFiveMinutes is firings completed in the last 5 minutes
	LastFiveMinutes int64 `json:"last_five_minutes"`

	// LastFifteenMinutes is firings completed in the last 15 minutes
	LastFifteenMinutes int64 `json:"last_fifteen_minutes"`
}

// Collector defines the interface for collecting webhook metrics.
type Collector interface {
	// Collect gathers current metrics
	Collect(ctx context.Context) (Metrics, error)

	// GetOutcomeCounts returns the count of firings by outcome kind
	GetOutcomeCounts(ctx context.Context) (map[string]int64, error)

	// GetInFlight returns the number of firings not yet reported
	GetInFlight(ctx context.Context) (int64, error)

	// GetThroughput returns firings completed over time windows
	GetThroughput(ctx context.Context) (ThroughputMetrics, error)
}

// collect assembles Metrics from the individual getters of c
func collect(ctx context.Context, c Collector) (Metrics, error) {
	counts, err := c.GetOutcomeCounts(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting outcome counts: %w", err)
	}

	inFlight, err := c.GetInFlight(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting in-flight firings: %w", err)
	}

	throughput, err := c.GetThroughput(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting throughput: %w", err)
	}

	return Metrics{
		OutcomeCounts: counts,
		InFlight:      inFlight,
		Throughput:    throughput,
		Timestamp:     time.Now(),
	}, nil
}

// emptyCounts returns a count map holding every outcome kind
func emptyCounts() map[string]int64 {
	counts := make(map[string]int64)
	for _, kind := range webhook.OutcomeKinds() {
		counts[kind.String()] = 0
	}
	return counts
}

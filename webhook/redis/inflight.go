package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// InFlight is stored for every firing that has started but not yet reported
type InFlight struct {
	FiringID  string    `json:"firing_id"`
	StartedAt time.Time `json:"started_at"`
}

// markInFlight stores the marker with a TTL so firings lost with their process stop being counted
func (j *Journal) markInFlight(ctx context.Context, firingID string) error {
	data, err := json.Marshal(InFlight{
		FiringID:  firingID,
		StartedAt: j.now(),
	})
	if err != nil {
		return fmt.Errorf("marshaling in-flight marker: %w", err)
	}

	if err := j.client.Set(ctx, InFlightPrefix+firingID, data, j.inFlightTTL).Err(); err != nil {
		return fmt.Errorf("setting in-flight marker: %w", err)
	}
	return nil
}

// InFlightFirings lists every firing currently marked as in flight
func (j *Journal) InFlightFirings(ctx context.Context) ([]InFlight, error) {
	var firings []InFlight

	var cursor uint64
	for {
		keys, nextCursor, err := j.client.Scan(ctx, cursor, InFlightPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scanning in-flight keys: %w", err)
		}

		for _, key := range keys {
			data, err := j.client.Get(ctx, key).Result()
			if err == redis.Nil {
				// Finished or expired between scan and get
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("getting in-flight marker: %w", err)
			}

			var f InFlight
			if err := json.Unmarshal([]byte(data), &f); err != nil {
				continue
			}
			firings = append(firings, f)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return firings, nil
}

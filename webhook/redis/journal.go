package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/marcelsud/webhook-dispatch/webhook"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

/* Redis-backed outcome journal
 * Counts live in a hash, completion times in a sorted set and full records in a capped stream
 * The journal is an audit trail; nothing is ever re-sent from it
 */

const (
	CountsKey      = "webhook:outcomes:counts"    // Hash: outcome kind -> count
	CompletedKey   = "webhook:outcomes:completed" // Sorted set: firing_id scored by completion time (unix ms)
	StreamKey      = "webhook:outcomes:stream"    // Stream of outcome records, newest last
	InFlightPrefix = "webhook:inflight:"          // String per in-flight firing, expires after the in-flight TTL

	// ThroughputHorizon is how far back completion times are kept
	ThroughputHorizon = 15 * time.Minute

	defaultMaxLen      = 1000
	defaultInFlightTTL = 10 * time.Minute
	writeTimeout       = 5 * time.Second
)

// Journal implements webhook.Observer on top of Redis
type Journal struct {
	client      *redis.Client
	maxLen      int64
	inFlightTTL time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// JournalOption configures a Journal
type JournalOption func(*Journal)

// WithMaxLen caps the number of records kept in the stream
func WithMaxLen(n int64) JournalOption {
	return func(j *Journal) {
		if n > 0 {
			j.maxLen = n
		}
	}
}

// WithInFlightTTL sets how long an unfinished firing is reported as in flight
func WithInFlightTTL(ttl time.Duration) JournalOption {
	return func(j *Journal) {
		if ttl > 0 {
			j.inFlightTTL = ttl
		}
	}
}

// WithLogger sets the logger used to report write failures
func WithLogger(logger zerolog.Logger) JournalOption {
	return func(j *Journal) {
		j.logger = logger
	}
}

// NewClient connects to Redis and checks the connection
func NewClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}
	return client, nil
}

// NewJournal creates a journal writing through client
func NewJournal(client *redis.Client, opts ...JournalOption) *Journal {
	j := &Journal{
		client:      client,
		maxLen:      defaultMaxLen,
		inFlightTTL: defaultInFlightTTL,
		logger:      zerolog.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// FiringStarted marks the firing as in flight
func (j *Journal) FiringStarted(ctx context.Context, firingID string) {
	ctx, cancel := writeContext(ctx)
	defer cancel()

	if err := j.markInFlight(ctx, firingID); err != nil {
		j.logger.Error().Err(err).Str("firing_id", firingID).Msg("recording firing start")
	}
}

// FiringFinished records the outcome and clears the in-flight marker
func (j *Journal) FiringFinished(ctx context.Context, outcome webhook.Outcome) {
	ctx, cancel := writeContext(ctx)
	defer cancel()

	if err := j.record(ctx, outcome); err != nil {
		j.logger.Error().Err(err).Str("firing_id", outcome.FiringID).Msg("recording firing outcome")
	}
}

func (j *Journal) record(ctx context.Context, outcome webhook.Outcome) error {
	data, err := json.Marshal(outcome.Record())
	if err != nil {
		return fmt.Errorf("marshaling outcome: %w", err)
	}

	now := j.now()
	pipe := j.client.TxPipeline()
	pipe.Del(ctx, InFlightPrefix+outcome.FiringID)
	pipe.HIncrBy(ctx, CountsKey, outcome.Kind.String(), 1)
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: j.maxLen,
		Values: map[string]interface{}{
			"firing_id": outcome.FiringID,
			"outcome":   outcome.Kind.String(),
			"record":    string(data),
		},
	})
	if outcome.Kind == webhook.Completed {
		pipe.ZAdd(ctx, CompletedKey, redis.Z{
			Score:  float64(now.UnixMilli()),
			Member: outcome.FiringID,
		})
	}
	horizon := now.Add(-ThroughputHorizon).UnixMilli()
	pipe.ZRemRangeByScore(ctx, CompletedKey, "-inf", "("+strconv.FormatInt(horizon, 10))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("writing outcome: %w", err)
	}
	return nil
}

// Recent returns up to n outcome records, newest first
func (j *Journal) Recent(ctx context.Context, n int) ([]webhook.OutcomeRecord, error) {
	if n <= 0 {
		return []webhook.OutcomeRecord{}, nil
	}

	msgs, err := j.client.XRevRangeN(ctx, StreamKey, "+", "-", int64(n)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading outcome stream: %w", err)
	}

	records := make([]webhook.OutcomeRecord, 0, len(msgs))
	for _, msg := range msgs {
		raw, ok := msg.Values["record"].(string)
		if !ok {
			continue
		}
		var rec webhook.OutcomeRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("unmarshaling outcome %s: %w", msg.ID, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Client returns the underlying Redis client
func (j *Journal) Client() *redis.Client {
	return j.client
}

// Close closes the Redis connection
func (j *Journal) Close() error {
	return j.client.Close()
}

// writeContext keeps journal writes alive when the firing context was cancelled by shutdown
func writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
}

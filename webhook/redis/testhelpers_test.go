//go:build integration

package redis_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/marcelsud/webhook-dispatch/webhook/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	testcontainersredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// startRedis runs a throwaway Redis for the test and returns its address
func startRedis(t *testing.T, ctx context.Context) string {
	t.Helper()

	container, err := testcontainersredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "failed to start Redis container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
	})

	conn, err := container.ConnectionString(ctx)
	require.NoError(t, err, "failed to get Redis connection string")

	return strings.TrimPrefix(conn, "redis://")
}

// newJournal connects a journal to addr and closes it with the test
func newJournal(t *testing.T, addr string, opts ...redis.JournalOption) *redis.Journal {
	t.Helper()

	client, err := redis.NewClient(addr, "", 0)
	require.NoError(t, err, "failed to connect to Redis")

	journal := redis.NewJournal(client, opts...)
	t.Cleanup(func() { _ = journal.Close() })
	return journal
}

// firingID returns an ID unique across test runs sharing a container
func firingID(index int) string {
	return fmt.Sprintf("test-firing-%d-%d", index, time.Now().UnixNano())
}

// rawClient bypasses the journal to inspect keys directly
func rawClient(t *testing.T, addr string) *goredis.Client {
	t.Helper()

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func keyExists(t *testing.T, addr, key string) bool {
	t.Helper()

	n, err := rawClient(t, addr).Exists(context.Background(), key).Result()
	require.NoError(t, err)
	return n > 0
}

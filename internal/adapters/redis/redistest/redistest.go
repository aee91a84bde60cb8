// Package redistest starts an in-process miniredis for adapter tests.
package redistest

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	redisadapter "github.com/olivezebra/mensa-api/internal/adapters/redis"
)

// NewClient returns a client connected to a fresh miniredis instance.
func NewClient(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := redisadapter.Open(context.Background(), redisadapter.Options{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

// Package redis holds the shared go-redis plumbing for the Redis-backed repositories.
//
// Every entity is stored as a JSON document under "<prefix><kind>:<id>"; secondary
// lookups are plain sets or string keys maintained next to the document.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "mensa:"

type Options struct {
	URL       string
	KeyPrefix string
	PoolSize  int
}

// Open parses the URL, applies pool overrides and pings the server.
func Open(ctx context.Context, opts Options) (*goredis.Client, error) {
	if opts.URL == "" {
		return nil, errors.New("redis url is required")
	}
	ro, err := goredis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if opts.PoolSize > 0 {
		ro.PoolSize = opts.PoolSize
	}

	client := goredis.NewClient(ro)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// Keys builds namespaced keys.
type Keys struct {
	prefix string
}

func NewKeys(prefix string) Keys {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return Keys{prefix: prefix}
}

func (k Keys) Doc(kind, id string) string { return k.prefix + kind + ":" + id }

func (k Keys) Index(name string) string { return k.prefix + "idx:" + name }

// Getter is the read subset shared by *goredis.Client and *goredis.Tx.
type Getter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

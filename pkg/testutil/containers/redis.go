//go:build integration

// Package containers starts throwaway backing services for integration
// tests. Build-tagged so unit test runs never touch docker.
package containers

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// Redis is a running redis container plus a connected client.
type Redis struct {
	Container testcontainers.Container
	Client    *redis.Client
}

// StartRedis runs a redis container and connects a client to it. Cleanup
// is registered on t.
func StartRedis(t *testing.T) *Redis {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	url, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("redis connection string: %v", err)
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("ping redis: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	return &Redis{Container: container, Client: client}
}

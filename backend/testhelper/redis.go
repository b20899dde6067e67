//go:build integration

package testhelper

import (
	"context"
	"strings"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	rediscontainer "github.com/testcontainers/testcontainers-go/modules/redis"
)

type TestRedis struct {
	Client    *redis.Client
	Container testcontainers.Container
}

func SetupTestRedis(t *testing.T) *TestRedis {
	ctx := context.Background()

	redisContainer, err := rediscontainer.Run(ctx, "redis:7")
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	uri, err := redisContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Failed to get Redis connection string: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: strings.TrimPrefix(uri, "redis://")})
	t.Cleanup(func() { _ = client.Close() })

	return &TestRedis{Client: client, Container: redisContainer}
}

package redis_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/sentinelhq/gatekeep/internal/auth/registry"
	redisdriver "github.com/sentinelhq/gatekeep/internal/auth/registry/drivers/redis"
	"github.com/sentinelhq/gatekeep/internal/auth/registry/registrytest"
)

func TestRedisRegistryConformance(t *testing.T) {
	registrytest.Run(t, func(t *testing.T) registry.Registry {
		mr := miniredis.RunT(t)

		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })

		return redisdriver.New(client, 7*24*time.Hour)
	})
}

package options

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-formschema/pkg/schema"
)

func TestRedisCache(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr: "127.0.0.1:6379",
		DB:   3,
	})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer client.Close()

	cache, err := NewRedisCache(RedisConfig{Client: client, KeyPrefix: "formschema:test:", TTL: time.Minute})
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	defer cache.Delete(ctx, "tags")

	want := []schema.Option{{Label: "Design", Value: "1"}}
	if err := cache.Set(ctx, "tags", want); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := cache.Get(ctx, "tags")
	if err != nil || !ok {
		t.Fatalf("get: %v %v", ok, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("cached options mismatch (-want +got):\n%s", diff)
	}

	if err := cache.Delete(ctx, "tags"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := cache.Get(ctx, "tags"); ok {
		t.Fatalf("expected miss after delete")
	}
}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// Tests in this file need Redis on localhost:6379 and skip without it.
const testRedisAddr = "localhost:6379"

// setupTestCache creates a cache instance for testing.
// Returns the cache and a cleanup function.
func setupTestCache(t *testing.T, prefix string) (*Cache, func()) {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: testRedisAddr,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	cleanupKeys(ctx, client, prefix+"*")

	cache := New(client, prefix, 5*time.Minute)

	cleanup := func() {
		cleanupKeys(ctx, client, prefix+"*")
		client.Close()
	}

	return cache, cleanup
}

// cleanupKeys removes all keys matching the pattern.
func cleanupKeys(ctx context.Context, client *redis.Client, pattern string) {
	var cursor uint64
	for {
		keys, nextCursor, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return
		}
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
}

func TestCache_SetAndGet(t *testing.T) {
	cache, cleanup := setupTestCache(t, "revisia-test:setget:")
	defer cleanup()

	ctx := context.Background()

	type deckLike struct {
		ID        uint   `json:"id"`
		Name      string `json:"name"`
		CardCount int    `json:"card_count"`
	}

	input := []deckLike{
		{ID: 1, Name: "Vocab", CardCount: 12},
		{ID: 2, Name: "Grammar", CardCount: 0},
	}

	if err := cache.Set(ctx, "decks:1", input); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var result []deckLike
	found, err := cache.Get(ctx, "decks:1", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("Get() returned found = false, want true")
	}
	if len(result) != 2 || result[0].Name != "Vocab" || result[1].CardCount != 0 {
		t.Errorf("result = %+v, want the cached decks back", result)
	}
}

func TestCache_GetMiss(t *testing.T) {
	cache, cleanup := setupTestCache(t, "revisia-test:miss:")
	defer cleanup()

	var result string
	found, err := cache.Get(context.Background(), "nonexistent", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Get() returned found = true for nonexistent key, want false")
	}
}

func TestCache_Delete(t *testing.T) {
	cache, cleanup := setupTestCache(t, "revisia-test:delete:")
	defer cleanup()

	ctx := context.Background()

	if err := cache.Set(ctx, "settings:1", "value"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var result string
	if found, _ := cache.Get(ctx, "settings:1", &result); !found {
		t.Fatal("key should exist before deletion")
	}

	if err := cache.Delete(ctx, "settings:1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if found, _ := cache.Get(ctx, "settings:1", &result); found {
		t.Error("key should not exist after deletion")
	}
}

func TestCache_DeletePattern(t *testing.T) {
	cache, cleanup := setupTestCache(t, "revisia-test:pattern:")
	defer cleanup()

	ctx := context.Background()

	for _, key := range []string{"decks:1", "decks:2", "decks:3"} {
		if err := cache.Set(ctx, key, key); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}
	if err := cache.Set(ctx, "settings:1", "keep me"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := cache.DeletePattern(ctx, "decks:*"); err != nil {
		t.Fatalf("DeletePattern() error = %v", err)
	}

	var result string
	for _, key := range []string{"decks:1", "decks:2", "decks:3"} {
		if found, _ := cache.Get(ctx, key, &result); found {
			t.Errorf("key %q should have been deleted by pattern", key)
		}
	}
	if found, _ := cache.Get(ctx, "settings:1", &result); !found {
		t.Error("key outside the pattern should survive")
	}
}

func TestCache_Stats(t *testing.T) {
	cache, cleanup := setupTestCache(t, "revisia-test:stats:")
	defer cleanup()

	ctx := context.Background()

	cache.Set(ctx, "stats-test", "value")

	var result string
	cache.Get(ctx, "stats-test", &result)
	cache.Get(ctx, "nonexistent", &result)
	cache.Get(ctx, "stats-test", &result)
	cache.Delete(ctx, "stats-test")

	stats := cache.GetStats()

	if stats.Sets != 1 {
		t.Errorf("Sets = %d, want 1", stats.Sets)
	}
	if stats.Hits != 2 {
		t.Errorf("Hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
	if stats.Deletes != 1 {
		t.Errorf("Deletes = %d, want 1", stats.Deletes)
	}
	if stats.TotalGets != 3 {
		t.Errorf("TotalGets = %d, want 3", stats.TotalGets)
	}

	expectedHitRate := float64(2) / float64(3) * 100
	if stats.HitRate < expectedHitRate-0.01 || stats.HitRate > expectedHitRate+0.01 {
		t.Errorf("HitRate = %f, want ~%f", stats.HitRate, expectedHitRate)
	}
}

func TestCache_Ping(t *testing.T) {
	cache, cleanup := setupTestCache(t, "revisia-test:ping:")
	defer cleanup()

	if err := cache.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

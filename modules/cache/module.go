package cache

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

// CacheModule provides a shared cache as a mono module. When Redis is
// unreachable at startup the module comes up with no cache and consumers
// fall back to the database on every read.
type CacheModule struct {
	cache     *Cache
	client    *redis.Client
	redisAddr string
	prefix    string
	ttl       time.Duration
}

// Compile-time interface checks.
var _ mono.Module = (*CacheModule)(nil)
var _ mono.HealthCheckableModule = (*CacheModule)(nil)

// NewModule creates a new CacheModule.
func NewModule() *CacheModule {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	return &CacheModule{
		redisAddr: redisAddr,
		prefix:    "revisia:",
		ttl:       5 * time.Minute,
	}
}

// Name returns the module name.
func (m *CacheModule) Name() string {
	return "cache"
}

// Start connects to Redis and creates the cache.
func (m *CacheModule) Start(_ context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:         m.redisAddr,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		log.Printf("[cache] Redis unavailable at %s, caching disabled: %v", m.redisAddr, err)
		return nil
	}

	m.client = client
	m.cache = New(client, m.prefix, m.ttl)

	log.Printf("[cache] Module started (redis: %s, prefix: %s, ttl: %s)", m.redisAddr, m.prefix, m.ttl)
	return nil
}

// Stop closes the Redis connection.
func (m *CacheModule) Stop(_ context.Context) error {
	if m.client != nil {
		m.client.Close()
	}
	log.Println("[cache] Module stopped")
	return nil
}

// Health returns the health status of the module. A disabled cache is
// reported healthy: the application works without it.
func (m *CacheModule) Health(ctx context.Context) mono.HealthStatus {
	if m.cache == nil {
		return mono.HealthStatus{
			Healthy: true,
			Message: "caching disabled",
		}
	}

	if err := m.cache.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"redis": m.redisAddr,
			"stats": m.cache.GetStats(),
		},
	}
}

// GetCache returns the shared cache instance, or nil when caching is disabled.
func (m *CacheModule) GetCache() *Cache {
	return m.cache
}

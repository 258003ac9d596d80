package redis

import (
	"os"
	"testing"
	"time"
)

func TestFullKey(t *testing.T) {
	if got := fullKey("users", "42"); got != "morm:users:42" {
		t.Errorf("got %q", got)
	}
	if got := fullKey("users", "*"); got != "morm:users:*" {
		t.Errorf("got %q", got)
	}
}

func TestConnectFailure(t *testing.T) {
	// 端口 1 上不会有 Redis
	if _, err := NewRedisCache("127.0.0.1:1", "", "", 0); err == nil {
		t.Fatal("expected connection error")
	}
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	c, err := NewRedisCache(addr, "", "", 15, 4)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		c.ClearAll()
		c.Close()
	})
	return c
}

func TestCacheRoundTrip(t *testing.T) {
	c := newTestCache(t)

	c.CacheSet("users", "1", map[string]interface{}{"id": "1", "name": "alice"}, time.Minute)
	raw, ok := c.CacheGet("users", "1")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(raw.([]byte)) != `{"id":"1","name":"alice"}` {
		t.Errorf("unexpected payload %s", raw)
	}

	c.CacheDelete("users", "1")
	if _, ok := c.CacheGet("users", "1"); ok {
		t.Error("expected miss after delete")
	}

	c.CacheSet("users", "2", "x", time.Minute)
	c.CacheSet("blogs", "2", "y", time.Minute)
	c.CacheClearRepository("users")
	if _, ok := c.CacheGet("users", "2"); ok {
		t.Error("users repository should be empty")
	}
	if _, ok := c.CacheGet("blogs", "2"); !ok {
		t.Error("blogs repository should survive")
	}
	if c.Status()["type"] != "RedisCache" {
		t.Errorf("unexpected status %v", c.Status())
	}
}

// Package redis provides a morm.CacheProvider backed by Redis, for sharing the
// Find row cache between processes.
//
//	cache, err := redis.NewRedisCache("127.0.0.1:6379", "", "", 0)
//	db = db.WithCache(cache, time.Minute)
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/zzguang83325/morm"
)

const keyPrefix = "morm"

// Cache implements morm.CacheProvider using Redis. Rows are stored as JSON;
// morm decodes them back using the schema's field kinds.
type Cache struct {
	client *redis.Client
	ctx    context.Context
}

var _ morm.CacheProvider = (*Cache)(nil)

// NewRedisCache 创建一个新的 Redis 缓存提供者
// 参数说明：
//   - addr: Redis 服务器地址，格式 "host:port"
//   - username: 用户名（Redis 6.0+），为空则不使用
//   - password: 密码，为空则不使用
//   - db: 数据库编号（0-15）
//   - maxConnections: 可选，最大连接数。不传或传 0 则使用 go-redis 默认值
func NewRedisCache(addr, username, password string, db int, maxConnections ...int) (*Cache, error) {
	opts := &redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	}

	if len(maxConnections) > 0 && maxConnections[0] > 0 {
		poolSize := maxConnections[0]
		opts.PoolSize = poolSize
		// 最小空闲连接约为最大连接数的 10%
		opts.MinIdleConns = poolSize / 10
		if opts.MinIdleConns < 1 {
			opts.MinIdleConns = 1
		}
		opts.PoolTimeout = 5 * time.Second
	}

	return NewRedisCacheWithOptions(opts)
}

// NewRedisCacheWithOptions creates the provider from full go-redis options and
// pings the server once.
func NewRedisCacheWithOptions(opts *redis.Options) (*Cache, error) {
	rc := &Cache{
		client: redis.NewClient(opts),
		ctx:    context.Background(),
	}
	if err := rc.client.Ping(rc.ctx).Err(); err != nil {
		_ = rc.client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return rc, nil
}

func fullKey(repository, key string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, repository, key)
}

// CacheGet returns the raw JSON bytes; morm decodes them.
func (r *Cache) CacheGet(cacheRepositoryName, key string) (interface{}, bool) {
	val, err := r.client.Get(r.ctx, fullKey(cacheRepositoryName, key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			morm.LogWarn("redis cache get failed", map[string]interface{}{"key": fullKey(cacheRepositoryName, key), "error": err.Error()})
		}
		return nil, false
	}
	return val, true
}

func (r *Cache) CacheSet(cacheRepositoryName, key string, value interface{}, ttl time.Duration) {
	k := fullKey(cacheRepositoryName, key)

	var data interface{}
	switch value.(type) {
	case string, []byte:
		data = value
	default:
		jsonData, err := json.Marshal(value)
		if err != nil {
			// 序列化失败，跳过存储
			morm.LogWarn("redis cache marshal failed", map[string]interface{}{"key": k, "error": err.Error()})
			return
		}
		data = jsonData
	}

	if err := r.client.Set(r.ctx, k, data, ttl).Err(); err != nil {
		morm.LogWarn("redis cache set failed", map[string]interface{}{"key": k, "error": err.Error()})
	}
}

func (r *Cache) CacheDelete(cacheRepositoryName, key string) {
	if cacheRepositoryName == "" || key == "" {
		return
	}
	r.client.Del(r.ctx, fullKey(cacheRepositoryName, key))
}

// CacheClearRepository 清空指定存储库的所有缓存
func (r *Cache) CacheClearRepository(cacheRepositoryName string) {
	if cacheRepositoryName == "" {
		return // 忽略空字符串，避免误删除所有缓存
	}
	r.deleteMatching(fullKey(cacheRepositoryName, "*"))
}

// ClearAll removes every key written by morm.
func (r *Cache) ClearAll() {
	r.deleteMatching(keyPrefix + ":*")
}

func (r *Cache) deleteMatching(pattern string) {
	iter := r.client.Scan(r.ctx, 0, pattern, 0).Iterator()
	for iter.Next(r.ctx) {
		r.client.Del(r.ctx, iter.Val())
	}
}

func (r *Cache) Status() map[string]interface{} {
	opts := r.client.Options()
	poolStats := r.client.PoolStats()
	stats := map[string]interface{}{
		"type":             "RedisCache",
		"address":          opts.Addr,
		"pool_hits":        poolStats.Hits,
		"pool_misses":      poolStats.Misses,
		"pool_timeouts":    poolStats.Timeouts,
		"pool_total_conns": poolStats.TotalConns,
		"pool_idle_conns":  poolStats.IdleConns,
		"pool_size":        opts.PoolSize,
	}
	if dbSize, err := r.client.DBSize(r.ctx).Result(); err == nil {
		stats["db_size"] = dbSize
	}
	return stats
}

// Close releases the client's connections.
func (r *Cache) Close() error {
	return r.client.Close()
}

package morm

import (
	"sync"
	"time"
)

// CacheProvider interface defines the behavior of a cache provider.
// Schema.Find stores rows under the table name as repository and the
// primary key as key.
type CacheProvider interface {
	CacheGet(cacheRepositoryName, key string) (interface{}, bool)
	CacheSet(cacheRepositoryName, key string, value interface{}, ttl time.Duration)
	CacheDelete(cacheRepositoryName, key string)
	CacheClearRepository(cacheRepositoryName string)
	Status() map[string]interface{}
}

// cacheEntry represents a single item in the local cache
type cacheEntry struct {
	value      interface{}
	expiration time.Time
}

func (e cacheEntry) isExpired() bool {
	if e.expiration.IsZero() {
		return false
	}
	return time.Now().After(e.expiration)
}

// LocalCache implements CacheProvider using in-memory storage
type LocalCache struct {
	stores          sync.Map // map[string]*sync.Map (cacheRepositoryName -> map[key]cacheEntry)
	cleanupInterval time.Duration
	stopCh          chan struct{}
	stopOnce        sync.Once
}

// NewLocalCache creates an in-memory cache provider that drops expired
// entries every cleanupInterval. Call Close to stop the cleanup goroutine.
func NewLocalCache(cleanupInterval time.Duration) *LocalCache {
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCacheCleanupInterval
	}
	lc := &LocalCache{
		cleanupInterval: cleanupInterval,
		stopCh:          make(chan struct{}),
	}
	go lc.startCleanupTimer()
	return lc
}

func (lc *LocalCache) startCleanupTimer() {
	ticker := time.NewTicker(lc.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-lc.stopCh:
			return
		case <-ticker.C:
			lc.cleanupExpired()
		}
	}
}

// Close stops the cleanup goroutine. Stored entries stay readable.
func (lc *LocalCache) Close() {
	lc.stopOnce.Do(func() { close(lc.stopCh) })
}

func (lc *LocalCache) cleanupExpired() {
	lc.stores.Range(func(_, store interface{}) bool {
		s := store.(*sync.Map)
		s.Range(func(key, value interface{}) bool {
			if value.(cacheEntry).isExpired() {
				s.Delete(key)
			}
			return true
		})
		return true
	})
}

func (lc *LocalCache) CacheGet(cacheRepositoryName, key string) (interface{}, bool) {
	if store, ok := lc.stores.Load(cacheRepositoryName); ok {
		if entry, ok := store.(*sync.Map).Load(key); ok {
			e := entry.(cacheEntry)
			if !e.isExpired() {
				return e.value, true
			}
			// 过期了，顺手删掉
			store.(*sync.Map).Delete(key)
		}
	}
	return nil, false
}

func (lc *LocalCache) CacheSet(cacheRepositoryName, key string, value interface{}, ttl time.Duration) {
	store, _ := lc.stores.LoadOrStore(cacheRepositoryName, &sync.Map{})
	var expiration time.Time
	if ttl > 0 {
		expiration = time.Now().Add(ttl)
	}
	store.(*sync.Map).Store(key, cacheEntry{value: value, expiration: expiration})
}

func (lc *LocalCache) CacheDelete(cacheRepositoryName, key string) {
	if cacheRepositoryName == "" || key == "" {
		return
	}
	if store, ok := lc.stores.Load(cacheRepositoryName); ok {
		store.(*sync.Map).Delete(key)
	}
}

func (lc *LocalCache) CacheClearRepository(cacheRepositoryName string) {
	if cacheRepositoryName == "" {
		return // 忽略空字符串，避免误操作
	}
	lc.stores.Delete(cacheRepositoryName)
}

func (lc *LocalCache) Status() map[string]interface{} {
	var totalItems, storeCount int64
	lc.stores.Range(func(_, store interface{}) bool {
		storeCount++
		store.(*sync.Map).Range(func(_, _ interface{}) bool {
			totalItems++
			return true
		})
		return true
	})
	return map[string]interface{}{
		"type":             "LocalCache",
		"cleanup_interval": lc.cleanupInterval.String(),
		"total_items":      totalItems,
		"store_count":      storeCount,
	}
}

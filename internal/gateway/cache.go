package gateway

import (
	"crypto/sha256"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// CacheEntry 缓存条目
type CacheEntry struct {
	Data        []byte
	ContentType string
	ExpiresAt   time.Time
	ETag        string
}

// MemoryCache 内存缓存，过期条目在读取或写入时清理
type MemoryCache struct {
	entries map[string]*CacheEntry
	mutex   sync.Mutex

	MaxEntries int
	now        func() time.Time
}

// NewMemoryCache 创建内存缓存
func NewMemoryCache(maxEntries int) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]*CacheEntry),
		MaxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get 获取未过期的缓存条目
func (mc *MemoryCache) Get(key string) *CacheEntry {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	entry, exists := mc.entries[key]
	if !exists {
		return nil
	}
	if mc.now().After(entry.ExpiresAt) {
		delete(mc.entries, key)
		return nil
	}
	return entry
}

// Set 设置缓存条目，超过上限时先清理过期条目，再淘汰最早过期的
func (mc *MemoryCache) Set(key string, entry *CacheEntry) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	if mc.MaxEntries > 0 && len(mc.entries) >= mc.MaxEntries {
		now := mc.now()
		for k, e := range mc.entries {
			if now.After(e.ExpiresAt) {
				delete(mc.entries, k)
			}
		}
		if len(mc.entries) >= mc.MaxEntries {
			mc.evictOldest()
		}
	}
	mc.entries[key] = entry
}

func (mc *MemoryCache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for k, e := range mc.entries {
		if oldestKey == "" || e.ExpiresAt.Before(oldest) {
			oldestKey = k
			oldest = e.ExpiresAt
		}
	}
	if oldestKey != "" {
		delete(mc.entries, oldestKey)
	}
}

// Len 缓存条目数量
func (mc *MemoryCache) Len() int {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	return len(mc.entries)
}

// CacheMiddleware 缓存只读接口的 GET 响应，排行榜和角色列表变化不频繁
type CacheMiddleware struct {
	cache *MemoryCache

	// 路径前缀 -> 缓存时间
	CacheTTL map[string]time.Duration
}

// NewCacheMiddleware 创建缓存中间件
func NewCacheMiddleware() *CacheMiddleware {
	return &CacheMiddleware{
		cache: NewMemoryCache(256),
		CacheTTL: map[string]time.Duration{
			"/characters":        10 * time.Minute,
			"/stats/leaderboard": 5 * time.Second,
		},
	}
}

// Middleware 缓存中间件
func (cm *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		ttl, ok := cm.ttlFor(r.URL.Path)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		key := r.URL.Path
		if r.URL.RawQuery != "" {
			key += "?" + r.URL.RawQuery
		}

		if entry := cm.cache.Get(key); entry != nil {
			if r.Header.Get("If-None-Match") == entry.ETag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
			w.Header().Set("Content-Type", entry.ContentType)
			w.Header().Set("ETag", entry.ETag)
			w.Header().Set("X-Cache", "HIT")
			w.WriteHeader(http.StatusOK)
			w.Write(entry.Data)
			return
		}

		rec := &cacheResponseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		if rec.statusCode == http.StatusOK && len(rec.body) > 0 {
			cm.cache.Set(key, &CacheEntry{
				Data:        rec.body,
				ContentType: rec.Header().Get("Content-Type"),
				ExpiresAt:   cm.cache.now().Add(ttl),
				ETag:        generateETag(rec.body),
			})
		}
	})
}

func (cm *CacheMiddleware) ttlFor(path string) (time.Duration, bool) {
	for prefix, ttl := range cm.CacheTTL {
		if strings.HasPrefix(path, prefix) {
			return ttl, true
		}
	}
	return 0, false
}

// generateETag 生成ETag
func generateETag(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf(`"%x"`, sum[:8])
}

// cacheResponseRecorder 记录响应体用于缓存
type cacheResponseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       []byte
}

// WriteHeader 记录状态码
func (crr *cacheResponseRecorder) WriteHeader(code int) {
	crr.statusCode = code
	crr.ResponseWriter.WriteHeader(code)
}

// Write 记录响应体
func (crr *cacheResponseRecorder) Write(data []byte) (int, error) {
	crr.body = append(crr.body, data...)
	return crr.ResponseWriter.Write(data)
}

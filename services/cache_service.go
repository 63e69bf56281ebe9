package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ipowise/ipo-backend/models"
)

// CacheEntry represents a cached item with expiration
type CacheEntry struct {
	Data      interface{}
	ExpiresAt time.Time
}

// IsExpired checks if the cache entry has expired
func (ce *CacheEntry) IsExpired() bool {
	return time.Now().After(ce.ExpiresAt)
}

// CacheService provides an in-memory TTL cache for IPO read paths.
// It supports:
// - Configurable TTL per entry with automatic cleanup
// - Thread-safe operations with read/write locks
// - FIFO eviction when the cache reaches its size limit
type CacheService struct {
	cache      map[string]*CacheEntry
	mutex      sync.RWMutex
	defaultTTL time.Duration
	maxSize    int
}

// NewCacheService creates a new cache service with default TTL.
func NewCacheService() *CacheService {
	return NewCacheServiceWithConfig(5*time.Minute, 1000)
}

// NewCacheServiceWithConfig creates a cache service with custom configuration
func NewCacheServiceWithConfig(defaultTTL time.Duration, maxSize int) *CacheService {
	cs := &CacheService{
		cache:      make(map[string]*CacheEntry),
		defaultTTL: defaultTTL,
		maxSize:    maxSize,
	}

	// Start cleanup goroutine
	go cs.cleanupExpired()

	return cs
}

// Get retrieves a value from cache
func (cs *CacheService) Get(key string) (interface{}, bool) {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	entry, exists := cs.cache[key]
	if !exists || entry.IsExpired() {
		return nil, false
	}

	return entry.Data, true
}

// Set stores a value in cache with default TTL
func (cs *CacheService) Set(key string, value interface{}) {
	cs.SetWithTTL(key, value, cs.defaultTTL)
}

// SetWithTTL stores a value in cache with custom TTL
func (cs *CacheService) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	// Check if we're at max size and need to evict
	if len(cs.cache) >= cs.maxSize {
		cs.evictOldest()
	}

	cs.cache[key] = &CacheEntry{
		Data:      value,
		ExpiresAt: time.Now().Add(ttl),
	}
}

// evictOldest removes the oldest entry from cache (simple FIFO eviction)
func (cs *CacheService) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range cs.cache {
		if oldestKey == "" || entry.ExpiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.ExpiresAt
		}
	}

	if oldestKey != "" {
		delete(cs.cache, oldestKey)
	}
}

// Delete removes a value from cache
func (cs *CacheService) Delete(key string) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	delete(cs.cache, key)
}

// Clear removes all values from cache
func (cs *CacheService) Clear() {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.cache = make(map[string]*CacheEntry)
}

// Size returns the number of items in cache
func (cs *CacheService) Size() int {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	return len(cs.cache)
}

// cleanupExpired removes expired entries from cache
func (cs *CacheService) cleanupExpired() {
	ticker := time.NewTicker(5 * time.Minute) // Cleanup every 5 minutes
	defer ticker.Stop()

	for range ticker.C {
		cs.mutex.Lock()
		for key, entry := range cs.cache {
			if entry.IsExpired() {
				delete(cs.cache, key)
			}
		}
		cs.mutex.Unlock()
	}
}

// CachedIPOService wraps IPOService with caching capabilities
type CachedIPOService struct {
	ipoService *IPOService
	cache      *CacheService
}

// NewCachedIPOService creates a new cached IPO service
func NewCachedIPOService(ipoService *IPOService, cache *CacheService) *CachedIPOService {
	return &CachedIPOService{
		ipoService: ipoService,
		cache:      cache,
	}
}

// GetIPOs returns IPOs with status filter, using cache when possible
func (cis *CachedIPOService) GetIPOs(ctx context.Context, status string) ([]models.IPO, error) {
	cacheKey := fmt.Sprintf("ipos:%s", status)

	// Try to get from cache first
	if cached, found := cis.cache.Get(cacheKey); found {
		if ipos, ok := cached.([]models.IPO); ok {
			return ipos, nil
		}
	}

	// Cache miss - fetch from database
	ipos, err := cis.ipoService.GetIPOs(ctx, status)
	if err != nil {
		return nil, err
	}

	// Cache the result for 3 minutes (filtered results may change more frequently)
	cis.cache.SetWithTTL(cacheKey, ipos, 3*time.Minute)

	return ipos, nil
}

// GetOpenOfferings returns open offerings with derived defaults, using cache when possible
func (cis *CachedIPOService) GetOpenOfferings(ctx context.Context) ([]models.IPOOffering, error) {
	cacheKey := "open_offerings"

	// Try to get from cache first
	if cached, found := cis.cache.Get(cacheKey); found {
		if offerings, ok := cached.([]models.IPOOffering); ok {
			return offerings, nil
		}
	}

	// Cache miss - fetch from database
	offerings, err := cis.ipoService.GetOpenOfferings(ctx)
	if err != nil {
		return nil, err
	}

	// Cache the result for 3 minutes (subscription data changes during the day)
	cis.cache.SetWithTTL(cacheKey, offerings, 3*time.Minute)

	return offerings, nil
}

// GetIPOBySlug returns a single IPO by slug, using cache when possible
func (cis *CachedIPOService) GetIPOBySlug(ctx context.Context, slug string) (*models.IPO, error) {
	cacheKey := fmt.Sprintf("ipo:%s", slug)

	// Try to get from cache first
	if cached, found := cis.cache.Get(cacheKey); found {
		if ipo, ok := cached.(*models.IPO); ok {
			return ipo, nil
		}
	}

	// Cache miss - fetch from database
	ipo, err := cis.ipoService.GetIPOBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if ipo != nil {
		// Cache the result for 10 minutes (individual IPO details are relatively static)
		cis.cache.SetWithTTL(cacheKey, ipo, 10*time.Minute)
	}

	return ipo, nil
}

// InvalidateIPOCache removes IPO-related cache entries
func (cis *CachedIPOService) InvalidateIPOCache(slug string) {
	// Remove specific IPO caches
	cis.cache.Delete(fmt.Sprintf("ipo:%s", slug))

	// Remove list caches (they may contain the updated IPO)
	cis.cache.Delete("open_offerings")
	cis.cache.Delete("ipos:all")
	cis.cache.Delete("ipos:open")
	cis.cache.Delete("ipos:upcoming")
	cis.cache.Delete("ipos:closed")
	cis.cache.Delete("ipos:listed")
}

// InvalidateAllIPOCache removes all IPO-related cache entries
func (cis *CachedIPOService) InvalidateAllIPOCache() {
	cis.cache.Clear()
}

// GetCacheStats returns cache statistics
func (cis *CachedIPOService) GetCacheStats() map[string]interface{} {
	return map[string]interface{}{
		"size": cis.cache.Size(),
		"type": "in-memory",
	}
}

// WarmupCache pre-loads frequently accessed data into cache
func (cis *CachedIPOService) WarmupCache(ctx context.Context) error {
	// Pre-load open offerings for the strategy endpoints
	_, err := cis.GetOpenOfferings(ctx)
	if err != nil {
		return fmt.Errorf("failed to warmup open offerings cache: %w", err)
	}

	_, err = cis.GetIPOs(ctx, "all")
	if err != nil {
		return fmt.Errorf("failed to warmup IPO list cache: %w", err)
	}

	return nil
}

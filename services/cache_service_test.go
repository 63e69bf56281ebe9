package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheSetGet(t *testing.T) {
	cache := NewCacheServiceWithConfig(time.Minute, 10)

	cache.Set("key", "value")

	got, found := cache.Get("key")
	assert.True(t, found)
	assert.Equal(t, "value", got)

	_, found = cache.Get("missing")
	assert.False(t, found)
}

func TestCacheExpiry(t *testing.T) {
	cache := NewCacheServiceWithConfig(time.Minute, 10)

	cache.SetWithTTL("short", "value", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, found := cache.Get("short")
	assert.False(t, found)
}

func TestCacheDeleteAndClear(t *testing.T) {
	cache := NewCacheServiceWithConfig(time.Minute, 10)

	cache.Set("a", 1)
	cache.Set("b", 2)
	assert.Equal(t, 2, cache.Size())

	cache.Delete("a")
	assert.Equal(t, 1, cache.Size())
	_, found := cache.Get("a")
	assert.False(t, found)

	cache.Clear()
	assert.Equal(t, 0, cache.Size())
}

func TestCacheEvictsWhenFull(t *testing.T) {
	cache := NewCacheServiceWithConfig(time.Minute, 3)

	for i := 0; i < 5; i++ {
		cache.SetWithTTL(fmt.Sprintf("key-%d", i), i, time.Duration(i+1)*time.Minute)
	}

	assert.Equal(t, 3, cache.Size())

	// Entries closest to expiry are evicted first.
	_, found := cache.Get("key-4")
	assert.True(t, found)
}

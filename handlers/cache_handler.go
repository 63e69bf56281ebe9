package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ipowise/ipo-backend/services"
)

type CacheHandler struct {
	Service *services.CachedIPOService
}

func NewCacheHandler(service *services.CachedIPOService) *CacheHandler {
	return &CacheHandler{Service: service}
}

// GetStats returns cache statistics
func (h *CacheHandler) GetStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.Service.GetCacheStats(),
	})
}

// Clear removes all cached entries
func (h *CacheHandler) Clear(c *fiber.Ctx) error {
	h.Service.InvalidateAllIPOCache()
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cache cleared successfully",
	})
}

// Warmup pre-loads frequently accessed data into cache
func (h *CacheHandler) Warmup(c *fiber.Ctx) error {
	start := time.Now()

	if err := h.Service.WarmupCache(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Cache warmup failed: " + err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"message":     "Cache warmed up successfully",
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

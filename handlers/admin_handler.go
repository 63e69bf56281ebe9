package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ipowise/ipo-backend/jobs"
	"github.com/ipowise/ipo-backend/models"
	"github.com/ipowise/ipo-backend/services"
	"github.com/sirupsen/logrus"
)

type AdminHandler struct {
	IPOService      *services.IPOService
	Cache           *services.CachedIPOService
	GMPJob          *jobs.GMPUpdateJob
	SubscriptionJob *jobs.SubscriptionUpdateJob
}

func NewAdminHandler(ipoService *services.IPOService, cache *services.CachedIPOService, gmpJob *jobs.GMPUpdateJob, subscriptionJob *jobs.SubscriptionUpdateJob) *AdminHandler {
	return &AdminHandler{
		IPOService:      ipoService,
		Cache:           cache,
		GMPJob:          gmpJob,
		SubscriptionJob: subscriptionJob,
	}
}

// UpsertIPO inserts or updates an offering keyed by stock_id.
func (h *AdminHandler) UpsertIPO(c *fiber.Ctx) error {
	var ipo models.IPO
	if err := c.BodyParser(&ipo); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}
	if ipo.StockID == "" || ipo.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "stock_id and name are required",
		})
	}

	if err := h.IPOService.UpsertIPO(c.Context(), ipo); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	if h.Cache != nil {
		h.Cache.InvalidateIPOCache(ipo.StockID)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    ipo,
	})
}

// TriggerGMPUpdate manually triggers the GMP update job
func (h *AdminHandler) TriggerGMPUpdate(c *fiber.Ctx) error {
	logrus.Info("Manual GMP update triggered via admin endpoint")

	startTime := time.Now()
	h.GMPJob.Run()
	duration := time.Since(startTime)

	if h.Cache != nil {
		h.Cache.InvalidateAllIPOCache()
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "GMP update job completed",
		"duration":  duration.String(),
		"timestamp": time.Now(),
	})
}

// TriggerSubscriptionUpdate manually triggers the subscription update job
func (h *AdminHandler) TriggerSubscriptionUpdate(c *fiber.Ctx) error {
	logrus.Info("Manual subscription update triggered via admin endpoint")

	startTime := time.Now()
	h.SubscriptionJob.Run()
	duration := time.Since(startTime)

	if h.Cache != nil {
		h.Cache.InvalidateAllIPOCache()
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Subscription update job completed",
		"duration":  duration.String(),
		"timestamp": time.Now(),
	})
}

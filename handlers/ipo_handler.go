package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ipowise/ipo-backend/services"
)

type IPOHandler struct {
	Service *services.CachedIPOService
}

func NewIPOHandler(service *services.CachedIPOService) *IPOHandler {
	return &IPOHandler{Service: service}
}

func (h *IPOHandler) GetIPOs(c *fiber.Ctx) error {
	status := c.Query("status", "all")
	ipos, err := h.Service.GetIPOs(c.Context(), status)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    ipos,
	})
}

// GetOpenIPOs returns open offerings with category requirements and
// subscription snapshots resolved, ready for strategy generation.
func (h *IPOHandler) GetOpenIPOs(c *fiber.Ctx) error {
	offerings, err := h.Service.GetOpenOfferings(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    offerings,
	})
}

func (h *IPOHandler) GetIPOBySlug(c *fiber.Ctx) error {
	slug := c.Params("slug")
	ipo, err := h.Service.GetIPOBySlug(c.Context(), slug)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	if ipo == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "IPO not found",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    ipo,
	})
}

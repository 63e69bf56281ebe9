package handlers

import (
	"database/sql"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/ipowise/ipo-backend/models"
	"github.com/ipowise/ipo-backend/services"
)

// GMPHandler serves market data read paths: the latest GMP snapshot on
// an offering plus the audit trail of every scraped change.
type GMPHandler struct {
	DB         *sql.DB
	IPOService *services.IPOService
}

func NewGMPHandler(db *sql.DB, ipoService *services.IPOService) *GMPHandler {
	return &GMPHandler{DB: db, IPOService: ipoService}
}

// GetGMPByStockID returns the GMP fields of one offering.
func (h *GMPHandler) GetGMPByStockID(c *fiber.Ctx) error {
	stockID := c.Params("stock_id")

	ipo, err := h.IPOService.GetIPOByStockID(c.Context(), stockID)
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
		"data": fiber.Map{
			"stock_id":    ipo.StockID,
			"ipo_name":    ipo.Name,
			"gmp_amount":  ipo.GMPAmount,
			"gmp_percent": ipo.GMPPercent,
			"updated_at":  ipo.UpdatedAt,
		},
	})
}

// GetUpdateHistory returns the scraped-change audit trail for one
// offering, optionally filtered by field (gmp_amount, subscription_total).
func (h *GMPHandler) GetUpdateHistory(c *fiber.Ctx) error {
	stockID := c.Params("stock_id")
	field := c.Query("field")

	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		limit = 50
	}

	query := `
		SELECT id, stock_id, field_name, old_value, new_value, source, timestamp
		FROM ipo_update_logs
		WHERE stock_id = $1
	`
	args := []interface{}{stockID}

	if field != "" {
		query += ` AND field_name = $2`
		args = append(args, field)
	}
	query += ` ORDER BY timestamp DESC LIMIT ` + strconv.Itoa(limit)

	rows, err := h.DB.QueryContext(c.Context(), query, args...)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to query update history: " + err.Error(),
		})
	}
	defer rows.Close()

	var entries []models.IPOUpdateLog
	for rows.Next() {
		var entry models.IPOUpdateLog
		if err := rows.Scan(&entry.ID, &entry.StockID, &entry.FieldName,
			&entry.OldValue, &entry.NewValue, &entry.Source, &entry.Timestamp); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    entries,
		"count":   len(entries),
	})
}

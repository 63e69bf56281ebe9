package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ipowise/ipo-backend/models"
	"github.com/ipowise/ipo-backend/services"
	"github.com/sirupsen/logrus"
)

// StrategyHandler exposes the strategy engine over HTTP. Open offerings
// are always loaded server-side so every run works from the same
// subscription snapshot.
type StrategyHandler struct {
	IPOService   *services.CachedIPOService
	Strategy     *services.StrategyService
	MultiAccount *services.MultiAccountService
	Allotment    *services.AllotmentCalculatorService
}

func NewStrategyHandler(ipoService *services.CachedIPOService, strategy *services.StrategyService, multiAccount *services.MultiAccountService, allotment *services.AllotmentCalculatorService) *StrategyHandler {
	return &StrategyHandler{
		IPOService:   ipoService,
		Strategy:     strategy,
		MultiAccount: multiAccount,
		Allotment:    allotment,
	}
}

// GenerateStrategies builds the ranked single-identity strategy
// comparison for the given capital against all open offerings.
func (h *StrategyHandler) GenerateStrategies(c *fiber.Ctx) error {
	type Request struct {
		Capital float64 `json:"capital"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}
	if req.Capital <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "capital must be positive",
		})
	}

	openIPOs, err := h.IPOService.GetOpenOfferings(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	comparison := h.Strategy.GenerateAllStrategies(req.Capital, openIPOs)

	logrus.WithFields(logrus.Fields{
		"capital":    req.Capital,
		"open_ipos":  len(openIPOs),
		"strategies": len(comparison.Strategies),
	}).Info("Generated strategy comparison")

	return c.JSON(fiber.Map{
		"success": true,
		"data":    comparison,
	})
}

// GenerateMultiAccountStrategies runs the family allocation engine for
// a portfolio of retail accounts.
func (h *StrategyHandler) GenerateMultiAccountStrategies(c *fiber.Ctx) error {
	var portfolio models.UserPortfolio
	if err := c.BodyParser(&portfolio); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}
	if portfolio.TotalCapital <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "total_capital must be positive",
		})
	}

	openIPOs, err := h.IPOService.GetOpenOfferings(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	strategies := h.MultiAccount.GenerateStrategies(portfolio, openIPOs)

	logrus.WithFields(logrus.Fields{
		"total_capital":   portfolio.TotalCapital,
		"retail_accounts": portfolio.NumRetailAccounts,
		"open_ipos":       len(openIPOs),
	}).Info("Generated multi-account strategies")

	return c.JSON(fiber.Map{
		"success": true,
		"data":    strategies,
	})
}

// CalculateAllotment answers the what-if question: given an
// oversubscription level, category and lot count, what are the odds.
func (h *StrategyHandler) CalculateAllotment(c *fiber.Ctx) error {
	var input services.AllotmentInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}
	if input.AppliedLots < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "applied_lots must be at least 1",
		})
	}

	result := h.Allotment.Calculate(input)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

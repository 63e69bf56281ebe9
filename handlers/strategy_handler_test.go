package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/ipowise/ipo-backend/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allotmentTestApp() *fiber.App {
	handler := NewStrategyHandler(nil, services.NewStrategyService(), services.NewMultiAccountService(), services.NewAllotmentCalculatorService())

	app := fiber.New()
	app.Post("/api/allotment/what-if", handler.CalculateAllotment)
	app.Post("/api/strategies", handler.GenerateStrategies)
	return app
}

func TestCalculateAllotmentEndpoint(t *testing.T) {
	app := allotmentTestApp()

	body := `{"ipo_name":"Test IPO","total_shares":1000000,"lot_size":100,"price_per_share":250,"applied_lots":5,"category":"hni","oversubscription":2}`
	req := httptest.NewRequest("POST", "/api/allotment/what-if", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Success bool                     `json:"success"`
		Data    services.AllotmentResult `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))

	assert.True(t, payload.Success)
	assert.InDelta(t, 38.25, payload.Data.Probability, 1e-6)
	assert.NotEmpty(t, payload.Data.Recommendation)
}

func TestCalculateAllotmentRejectsZeroLots(t *testing.T) {
	app := allotmentTestApp()

	body := `{"applied_lots":0,"category":"retail","oversubscription":2}`
	req := httptest.NewRequest("POST", "/api/allotment/what-if", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var payload struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.False(t, payload.Success)
	assert.NotEmpty(t, payload.Error)
}

func TestGenerateStrategiesRejectsNonPositiveCapital(t *testing.T) {
	app := allotmentTestApp()

	req := httptest.NewRequest("POST", "/api/strategies", strings.NewReader(`{"capital":0}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGenerateStrategiesRejectsMalformedBody(t *testing.T) {
	app := allotmentTestApp()

	req := httptest.NewRequest("POST", "/api/strategies", strings.NewReader(`{"capital":`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

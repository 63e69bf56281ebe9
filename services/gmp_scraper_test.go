package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ipowise/ipo-backend/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchGMPDataSkipsWhenCircuitOpen(t *testing.T) {
	service := NewGMPScraperService(nil, nil)
	for i := 0; i < 10; i++ {
		service.circuitBreaker.RecordFailure()
	}
	require.True(t, service.circuitBreaker.IsOpen())

	gmpList, err := service.FetchGMPData(context.Background())
	assert.Nil(t, gmpList)
	require.Error(t, err)

	var serviceErr *shared.ServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Equal(t, "SCRAPER_CIRCUIT_OPEN", serviceErr.Code)
	assert.Equal(t, shared.ErrorCategoryResource, serviceErr.GetCategory())
	assert.True(t, serviceErr.IsRetryable())
}

func TestParseGMPString(t *testing.T) {
	service := NewGMPScraperService(nil, nil)

	val, pct := service.parseGMPString("₹21 (25.61%)")
	assert.Equal(t, 21.0, val)
	assert.Equal(t, 25.61, pct)

	val, pct = service.parseGMPString("₹1,250")
	assert.Equal(t, 1250.0, val)
	assert.Equal(t, 0.0, pct)

	val, pct = service.parseGMPString("--")
	assert.Equal(t, 0.0, val)
	assert.Equal(t, 0.0, pct)
}

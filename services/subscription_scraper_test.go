package services

import (
	"errors"
	"testing"

	"github.com/ipowise/ipo-backend/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trippedSubscriptionScraper() *SubscriptionScraperService {
	service := NewSubscriptionScraperService(nil, nil)
	for i := 0; i < 10; i++ {
		service.circuitBreaker.RecordFailure()
	}
	return service
}

func TestFetchSubscriptionDataSkipsWhenCircuitOpen(t *testing.T) {
	service := trippedSubscriptionScraper()
	require.True(t, service.circuitBreaker.IsOpen())

	sub, err := service.FetchSubscriptionData("some-issue")
	assert.Nil(t, sub)
	require.Error(t, err)

	var serviceErr *shared.ServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Equal(t, "SCRAPER_CIRCUIT_OPEN", serviceErr.Code)
	assert.Equal(t, shared.ErrorCategoryResource, serviceErr.GetCategory())
	assert.True(t, serviceErr.IsRetryable())
}

func TestFetchWithRetryStopsWhenCircuitOpen(t *testing.T) {
	service := trippedSubscriptionScraper()

	sub, err := service.fetchWithRetry("some-issue")
	assert.Nil(t, sub)
	require.Error(t, err)

	var serviceErr *shared.ServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Equal(t, "SCRAPER_CIRCUIT_OPEN", serviceErr.Code)

	// No point retrying against an open circuit.
	assert.Equal(t, int64(0), service.httpMetrics.RetryAttempts)
}

func TestParseSubscriptionRowsCategorySplit(t *testing.T) {
	service := NewSubscriptionScraperService(nil, nil)

	rows := []TableRow{
		{Index: 0, Label: "Retail Individual Investors", Value: "4.53x", Confidence: 1.0},
		{Index: 1, Label: "SNII", Value: "12.10x", Confidence: 1.0},
		{Index: 2, Label: "BNII", Value: "8.75x", Confidence: 1.0},
		{Index: 3, Label: "QIB", Value: "65.20x", Confidence: 1.0},
		{Index: 4, Label: "Total", Value: "15.80x", Confidence: 1.0},
	}

	sub := service.parseSubscriptionRows(rows)
	require.NotNil(t, sub)
	assert.Equal(t, 4.53, sub.Retail)
	assert.Equal(t, 12.10, sub.SNII)
	assert.Equal(t, 8.75, sub.BNII)
	assert.Equal(t, 65.20, sub.QIB)
	assert.Equal(t, 15.80, sub.Total)
}

func TestParseSubscriptionRowsNIIFallback(t *testing.T) {
	service := NewSubscriptionScraperService(nil, nil)

	rows := []TableRow{
		{Index: 0, Label: "Retail Individual Investors", Value: "2.10x", Confidence: 1.0},
		{Index: 1, Label: "NII", Value: "9.40x", Confidence: 1.0},
		{Index: 2, Label: "Total", Value: "4.90x", Confidence: 1.0},
	}

	sub := service.parseSubscriptionRows(rows)
	require.NotNil(t, sub)

	// Pages without the small/big NII split report the combined figure
	// for both buckets.
	assert.Equal(t, 9.40, sub.SNII)
	assert.Equal(t, 9.40, sub.BNII)
}

func TestParseSubscriptionRowsRejectsUnrelatedTable(t *testing.T) {
	service := NewSubscriptionScraperService(nil, nil)

	rows := []TableRow{
		{Index: 0, Label: "Issue Size", Value: "500 Cr", Confidence: 1.0},
		{Index: 1, Label: "Lot Size", Value: "150 Shares", Confidence: 1.0},
	}

	assert.Nil(t, service.parseSubscriptionRows(rows))
}

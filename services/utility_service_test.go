package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIPOName(t *testing.T) {
	svc := NewUtilityService()

	assert.Equal(t, "acme industries", svc.NormalizeIPOName("Acme Industries Ltd."))
	assert.Equal(t, "acme industries", svc.NormalizeIPOName("Acme Industries IPO"))
	assert.Equal(t, "tatatech", svc.NormalizeIPOName("Tata-Tech Limited"))
}

func TestNormalizeTextContent(t *testing.T) {
	svc := NewUtilityService()

	assert.Equal(t, "1,234.56", svc.NormalizeTextContent("  ₹1,234.56  "))
	assert.Equal(t, "100 - 105", svc.NormalizeTextContent("Rs. 100   -  105"))
	assert.Equal(t, "", svc.NormalizeTextContent(""))
}

func TestParseDateFormats(t *testing.T) {
	svc := NewUtilityService()

	for _, input := range []string{
		"Mon, Mar 9, 2026",
		"9 Mar 2026",
		"09-Mar-26",
		"2026-03-09",
		"09/03/2026",
	} {
		parsed := svc.ParseDate(input)
		require.NotNil(t, parsed, "expected %q to parse", input)
		assert.Equal(t, 2026, parsed.Year())
		assert.Equal(t, 9, parsed.Day())
	}

	assert.Nil(t, svc.ParseDate("TBA"))
	assert.Nil(t, svc.ParseDate("not a date"))
	assert.Nil(t, svc.ParseDate(""))
}

func TestExtractNumeric(t *testing.T) {
	svc := NewUtilityService()

	assert.Equal(t, 1234.56, svc.ExtractNumeric("₹1,234.56"))
	assert.Equal(t, -15.0, svc.ExtractNumeric("-15"))
	assert.Equal(t, 0.0, svc.ExtractNumeric("no numbers here"))
}

func TestParseSubscriptionRatio(t *testing.T) {
	svc := NewUtilityService()

	ratio := svc.ParseSubscriptionRatio("12.48x")
	require.NotNil(t, ratio)
	assert.Equal(t, 12.48, *ratio)

	ratio = svc.ParseSubscriptionRatio("3.5 times")
	require.NotNil(t, ratio)
	assert.Equal(t, 3.5, *ratio)

	assert.Nil(t, svc.ParseSubscriptionRatio("awaited"))
	assert.Nil(t, svc.ParseSubscriptionRatio("--"))
}

func TestParsePriceBand(t *testing.T) {
	svc := NewUtilityService()

	band := svc.ParsePriceBand("₹95 - ₹100")
	require.Len(t, band, 2)
	assert.Equal(t, 95.0, band[0])
	assert.Equal(t, 100.0, band[1])

	band = svc.ParsePriceBand("475")
	require.Len(t, band, 1)
	assert.Equal(t, 475.0, band[0])

	assert.Nil(t, svc.ParsePriceBand(""))
}

func TestExtractSignedPercentage(t *testing.T) {
	svc := NewUtilityService()

	value := svc.ExtractSignedPercentage("-4.2%")
	require.NotNil(t, value)
	assert.Equal(t, -4.2, *value)

	value = svc.ExtractSignedPercentage("18.5%")
	require.NotNil(t, value)
	assert.Equal(t, 18.5, *value)

	assert.Nil(t, svc.ExtractSignedPercentage("N/A"))
}

func TestIsNotAvailable(t *testing.T) {
	svc := NewUtilityService()

	assert.True(t, svc.IsNotAvailable("TBA"))
	assert.True(t, svc.IsNotAvailable("  to be announced "))
	assert.True(t, svc.IsNotAvailable("--"))
	assert.False(t, svc.IsNotAvailable("12.48x"))
}

func TestGenerateSlug(t *testing.T) {
	svc := NewUtilityService()

	assert.Equal(t, "acme-industries", svc.GenerateSlug("Acme Industries Ltd"))
	assert.Equal(t, "tata-tech", svc.GenerateSlug("Tata Tech IPO"))
	assert.Equal(t, "", svc.GenerateSlug(""))
}

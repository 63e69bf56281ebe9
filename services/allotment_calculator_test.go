package services

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestCalculateRetailBaseline(t *testing.T) {
	svc := NewAllotmentCalculatorService()

	result := svc.Calculate(AllotmentInput{
		IPOName:          "Test IPO",
		TotalShares:      1000000,
		LotSize:          100,
		PricePerShare:    250,
		AppliedLots:      1,
		Category:         "retail",
		Oversubscription: 10,
	})

	// 100/10 base, retail multiplier 1.0, one lot dilutes by 2%.
	assert.InDelta(t, 9.8, result.Probability, 1e-6)
	assert.Equal(t, 0, result.ExpectedLots)
	assert.Equal(t, 0, result.ExpectedShares)
	assert.Equal(t, 0.0, result.ExpectedValue)
	assert.InDelta(t, 90.0, result.Factors.OversubscriptionImpact, 1e-6)
	assert.Equal(t, 0.0, result.Factors.CategoryImpact)
}

func TestCalculateHNIDiscount(t *testing.T) {
	svc := NewAllotmentCalculatorService()

	result := svc.Calculate(AllotmentInput{
		LotSize:          100,
		PricePerShare:    250,
		AppliedLots:      5,
		Category:         "hni",
		Oversubscription: 2,
	})

	// 100/2 base, hni multiplier 0.85, five lots dilute by 10%.
	assert.InDelta(t, 38.25, result.Probability, 1e-6)
	assert.InDelta(t, -15.0, result.Factors.CategoryImpact, 1e-6)
	assert.InDelta(t, -10.0, result.Factors.LotSizeImpact, 1e-6)

	assert.Equal(t, 1, result.ExpectedLots)
	assert.Equal(t, 100, result.ExpectedShares)
	assert.Equal(t, 25000.0, result.ExpectedValue)
}

func TestCalculateUnknownCategoryFallsBackToRetail(t *testing.T) {
	svc := NewAllotmentCalculatorService()

	known := svc.Calculate(AllotmentInput{AppliedLots: 1, Category: "retail", Oversubscription: 4})
	unknown := svc.Calculate(AllotmentInput{AppliedLots: 1, Category: "employee", Oversubscription: 4})

	assert.Equal(t, known.Probability, unknown.Probability)
}

func TestCalculateUndersubscribedTreatedAsFull(t *testing.T) {
	svc := NewAllotmentCalculatorService()

	result := svc.Calculate(AllotmentInput{AppliedLots: 1, Category: "retail", Oversubscription: 0})

	// Unreported oversubscription means 1x: near-certain allotment.
	assert.InDelta(t, 98.0, result.Probability, 1e-6)
}

func TestCalculateLotImpactFloor(t *testing.T) {
	svc := NewAllotmentCalculatorService()

	result := svc.Calculate(AllotmentInput{AppliedLots: 50, Category: "retail", Oversubscription: 1})

	// 50 lots would dilute to zero without the 0.5 floor.
	assert.InDelta(t, 50.0, result.Probability, 1e-6)
	assert.InDelta(t, -50.0, result.Factors.LotSizeImpact, 1e-6)
}

func TestCalculateRecommendationTiers(t *testing.T) {
	svc := NewAllotmentCalculatorService()

	high := svc.Calculate(AllotmentInput{AppliedLots: 1, Category: "retail", Oversubscription: 1})
	moderate := svc.Calculate(AllotmentInput{AppliedLots: 1, Category: "retail", Oversubscription: 1.8})
	low := svc.Calculate(AllotmentInput{AppliedLots: 1, Category: "retail", Oversubscription: 4})
	veryLow := svc.Calculate(AllotmentInput{AppliedLots: 1, Category: "retail", Oversubscription: 50})

	assert.Contains(t, high.Recommendation, "High chance")
	assert.Contains(t, moderate.Recommendation, "Moderate chance")
	assert.Contains(t, low.Recommendation, "Low chance")
	assert.Contains(t, veryLow.Recommendation, "Very low chance")
}

func TestCalculateProbabilityBounds(t *testing.T) {
	svc := NewAllotmentCalculatorService()

	properties := gopter.NewProperties(nil)

	properties.Property("probability stays within [0, 100]", prop.ForAll(
		func(oversubscription float64, lots int, category string) bool {
			result := svc.Calculate(AllotmentInput{
				LotSize:          100,
				PricePerShare:    100,
				AppliedLots:      lots,
				Category:         category,
				Oversubscription: oversubscription,
			})
			return result.Probability >= 0 && result.Probability <= 100 &&
				result.ExpectedLots >= 0 && result.ExpectedLots <= lots
		},
		gen.Float64Range(0, 500),
		gen.IntRange(1, 100),
		gen.OneConstOf("retail", "hni", "qib", "employee"),
	))

	properties.TestingRun(t)
}

package services

import (
	"reflect"
	"testing"
	"time"

	"github.com/ipowise/ipo-backend/models"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openOfferings is a small realistic snapshot: a moderately subscribed
// mainboard issue, a hot SME issue, and a heavily oversubscribed
// mainboard issue with a rich grey-market premium.
func openOfferings() []models.IPOOffering {
	now := time.Now()

	alpha := testOffering(5, 10, 20)
	alpha.Slug = "alpha-industries"
	alpha.Name = "Alpha Industries"
	alpha.CompanyName = "Alpha Industries Ltd"

	beta := models.IPOOffering{
		Slug:               "beta-tech",
		Name:               "Beta Tech",
		CompanyName:        "Beta Tech Ltd",
		Segment:            models.SegmentSME,
		MinPrice:           45,
		MaxPrice:           50,
		LotSize:            600,
		SubscriptionRetail: 80,
		SubscriptionSNII:   120,
		SubscriptionBNII:   95,
		GMPAmount:          10,
		GMPPercent:         20,
		RetailMinLots:      1,
		RetailMaxLots:      10,
		SNIIMinLots:        2,
		SNIIMaxLots:        20,
		BNIIMinLots:        5,
		BNIIMaxLots:        1000,
		OpenDate:           now.AddDate(0, 0, -1),
		CloseDate:          now.AddDate(0, 0, 2),
		Status:             models.StatusOpen,
	}

	gamma := testOffering(150, 200, 300)
	gamma.Slug = "gamma-pharma"
	gamma.Name = "Gamma Pharma"
	gamma.CompanyName = "Gamma Pharma Ltd"
	gamma.GMPAmount = 60
	gamma.GMPPercent = 60

	return []models.IPOOffering{alpha, beta, gamma}
}

func TestGenerateAllStrategiesRanksAndLabels(t *testing.T) {
	svc := NewStrategyService()

	comparison := svc.GenerateAllStrategies(1000000, openOfferings())

	require.NotEmpty(t, comparison.Strategies)
	assert.Equal(t, comparison.Strategies[0].StrategyID, comparison.Recommended.StrategyID)

	for i := 1; i < len(comparison.Strategies); i++ {
		assert.GreaterOrEqual(t,
			riskAdjustedValue(comparison.Strategies[i-1]),
			riskAdjustedValue(comparison.Strategies[i]),
			"strategies must be sorted by risk-adjusted value")
	}

	for _, st := range comparison.Strategies {
		assert.GreaterOrEqual(t, comparison.BestForProfit.ExpectedProfit, st.ExpectedProfit)
		assert.GreaterOrEqual(t, comparison.BestForProbability.WeightedProbability, st.WeightedProbability)
	}
}

func TestGenerateAllStrategiesCostAccounting(t *testing.T) {
	svc := NewStrategyService()

	comparison := svc.GenerateAllStrategies(500000, openOfferings())

	for _, st := range comparison.Strategies {
		var sum float64
		for _, app := range st.Applications {
			sum += app.TotalCost
			assert.Positive(t, app.NumLots)
			assert.Equal(t, app.CostPerLot*float64(app.NumLots), app.TotalCost)
		}
		assert.InDelta(t, sum, st.TotalCost, 1e-6)
		assert.LessOrEqual(t, st.TotalCost, 500000.0)
	}
}

func TestGenerateAllStrategiesNoOfferings(t *testing.T) {
	svc := NewStrategyService()

	comparison := svc.GenerateAllStrategies(1000000, nil)

	assert.Empty(t, comparison.Strategies)
	assert.Equal(t, "no-strategies", comparison.Recommended.StrategyID)
	assert.Equal(t, "no-strategies", comparison.BestForProfit.StrategyID)
	assert.Equal(t, models.RiskHigh, comparison.Recommended.RiskScore)
	assert.Empty(t, comparison.Recommended.Applications)
}

func TestGenerateAllStrategiesInsufficientCapital(t *testing.T) {
	svc := NewStrategyService()

	// Cheapest ticket in the snapshot is 15000; 1000 funds nothing.
	comparison := svc.GenerateAllStrategies(1000, openOfferings())

	assert.Empty(t, comparison.Strategies)
	assert.Equal(t, "no-strategies", comparison.Recommended.StrategyID)
}

func TestGenerateAllStrategiesDeterministic(t *testing.T) {
	svc := NewStrategyService()
	ipos := openOfferings()

	first := svc.GenerateAllStrategies(750000, ipos)
	second := svc.GenerateAllStrategies(750000, ipos)

	assert.True(t, reflect.DeepEqual(first, second), "same snapshot and capital must produce identical comparisons")
}

func TestMaxRetailStrategyStaysInRetail(t *testing.T) {
	svc := NewStrategyService()

	comparison := svc.GenerateAllStrategies(1000000, openOfferings())

	for _, st := range comparison.Strategies {
		if st.StrategyID != "max-retail" {
			continue
		}
		for _, app := range st.Applications {
			assert.Equal(t, models.CategoryRetail, app.Category)
		}
		return
	}
	t.Fatal("max-retail strategy missing from a well-funded comparison")
}

func TestConcentratedHNIStrategySingleApplication(t *testing.T) {
	svc := NewStrategyService()

	comparison := svc.GenerateAllStrategies(2000000, openOfferings())

	for _, st := range comparison.Strategies {
		if st.StrategyID != "concentrated-hni" {
			continue
		}
		require.Len(t, st.Applications, 1)
		assert.Contains(t, []models.ApplicationCategory{models.CategorySHNI, models.CategoryBHNI}, st.Applications[0].Category)
		return
	}
	t.Fatal("concentrated-hni strategy missing from a well-funded comparison")
}

func TestStrategyInvariants(t *testing.T) {
	svc := NewStrategyService()
	ipos := openOfferings()

	properties := gopter.NewProperties(nil)

	properties.Property("no strategy spends more than the capital pool", prop.ForAll(
		func(capital float64) bool {
			comparison := svc.GenerateAllStrategies(capital, ipos)
			for _, st := range comparison.Strategies {
				if st.TotalCost > capital+1e-6 {
					return false
				}
				if st.WeightedProbability < 0 || st.WeightedProbability > 100 {
					return false
				}
				if len(st.Applications) == 0 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(0, 5000000),
	))

	properties.TestingRun(t)
}

func TestBuildStrategyAggregates(t *testing.T) {
	svc := NewStrategyService()
	ipo := testOffering(5, 5, 5)

	app := svc.sizedApplication(ipo, models.CategoryRetail, 2)
	st := svc.buildStrategy("test", "Test", "test strategy", []models.Application{app})

	assert.Equal(t, app.TotalCost, st.TotalCost)
	assert.Equal(t, app.ExpectedProfit, st.ExpectedProfit)
	assert.Equal(t, app.AllotmentProbability, st.WeightedProbability)
	assert.Equal(t, 20.0, st.DiversificationScore)
	assert.NotEmpty(t, st.Recommendation)
}

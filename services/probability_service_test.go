package services

import (
	"testing"
	"time"

	"github.com/ipowise/ipo-backend/models"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

// testOffering builds a fully-defaulted mainboard offering with the given
// retail/sHNI/bHNI subscription figures. Cost per lot is 15000.
func testOffering(subRetail, subSNII, subBNII float64) models.IPOOffering {
	now := time.Now()
	return models.IPOOffering{
		Slug:               "test-ipo",
		Name:               "Test IPO",
		CompanyName:        "Test Company Ltd",
		Segment:            models.SegmentMainboard,
		MinPrice:           95,
		MaxPrice:           100,
		LotSize:            150,
		SubscriptionRetail: subRetail,
		SubscriptionSNII:   subSNII,
		SubscriptionBNII:   subBNII,
		GMPAmount:          20,
		GMPPercent:         20,
		RetailMinLots:      1,
		RetailMaxLots:      13,
		SNIIMinLots:        2,
		SNIIMaxLots:        14,
		BNIIMinLots:        10,
		BNIIMaxLots:        1000,
		OpenDate:           now.AddDate(0, 0, -2),
		CloseDate:          now.AddDate(0, 0, 1),
		Status:             models.StatusOpen,
	}
}

func TestAllotmentProbabilityUndersubscribed(t *testing.T) {
	calc := NewProbabilityService()

	ipo := testOffering(0.5, 0, 0.99)

	assert.Equal(t, 100.0, calc.AllotmentProbability(&ipo, models.CategoryRetail, ipo.Segment))
	assert.Equal(t, 100.0, calc.AllotmentProbability(&ipo, models.CategorySHNI, ipo.Segment))
	assert.Equal(t, 100.0, calc.AllotmentProbability(&ipo, models.CategoryBHNI, ipo.Segment))
}

func TestAllotmentProbabilityKnownValues(t *testing.T) {
	calc := NewProbabilityService()

	// Mainboard retail at 10x: inverse ratio only.
	ipo := testOffering(10, 0, 0)
	assert.InDelta(t, 10.0, calc.AllotmentProbability(&ipo, models.CategoryRetail, ipo.Segment), 1e-9)

	// Mainboard sHNI at 60x: inverse * 0.85 multiplier * 0.85 penalty.
	ipo = testOffering(0, 60, 0)
	assert.InDelta(t, 100.0/60*0.85*0.85, calc.AllotmentProbability(&ipo, models.CategorySHNI, ipo.Segment), 1e-9)

	// Mainboard sHNI at 120x: both thresholds hold but only the larger
	// penalty applies.
	ipo = testOffering(0, 120, 0)
	assert.InDelta(t, 100.0/120*0.85*0.70, calc.AllotmentProbability(&ipo, models.CategorySHNI, ipo.Segment), 1e-9)

	// Mainboard retail at 150x: inverse * 0.70 hot-issue penalty.
	ipo = testOffering(150, 0, 0)
	assert.InDelta(t, 100.0/150*0.70, calc.AllotmentProbability(&ipo, models.CategoryRetail, ipo.Segment), 1e-9)

	// SME retail gets the 1.15 boost.
	sme := testOffering(10, 0, 0)
	sme.Segment = models.SegmentSME
	assert.InDelta(t, 11.5, calc.AllotmentProbability(&sme, models.CategoryRetail, sme.Segment), 1e-9)
}

func TestAllotmentProbabilityFloorClamp(t *testing.T) {
	calc := NewProbabilityService()

	// bHNI at 2000x would compute to ~0.026; the floor keeps it at 0.1
	// so it stays distinguishable from missing data.
	ipo := testOffering(0, 0, 2000)
	assert.Equal(t, 0.1, calc.AllotmentProbability(&ipo, models.CategoryBHNI, ipo.Segment))
}

func TestAllotmentProbabilityBounds(t *testing.T) {
	calc := NewProbabilityService()

	properties := gopter.NewProperties(nil)

	properties.Property("probability always lands in [0.1, 100]", prop.ForAll(
		func(subscription float64) bool {
			ipo := testOffering(subscription, 0, 0)
			p := calc.AllotmentProbability(&ipo, models.CategoryRetail, ipo.Segment)
			return p >= 0.1 && p <= 100
		},
		gen.Float64Range(0, 10000),
	))

	properties.Property("probability never increases with subscription", prop.ForAll(
		func(sub float64, delta float64) bool {
			lower := testOffering(sub, 0, 0)
			higher := testOffering(sub+delta, 0, 0)
			pLower := calc.AllotmentProbability(&lower, models.CategoryRetail, lower.Segment)
			pHigher := calc.AllotmentProbability(&higher, models.CategoryRetail, higher.Segment)
			return pHigher <= pLower
		},
		gen.Float64Range(1, 1000),
		gen.Float64Range(0, 1000),
	))

	properties.TestingRun(t)
}

func TestShareholderAllotmentMode(t *testing.T) {
	calc := NewProbabilityService()

	ipo := testOffering(5, 5, 5)
	assert.Equal(t, models.AllotmentLottery, calc.ShareholderAllotmentMode(&ipo))

	// Quota capacity 100000/150 = 666 lots; fewer applications than
	// capacity means pro-rata.
	ipo.HasShareholderQuota = true
	ipo.SharesOfferedShareholder = 100000
	ipo.ApplicationsCountShareholder = 500
	assert.Equal(t, models.AllotmentProRata, calc.ShareholderAllotmentMode(&ipo))

	ipo.ApplicationsCountShareholder = 1500
	assert.Equal(t, models.AllotmentLottery, calc.ShareholderAllotmentMode(&ipo))

	// Missing quota figures never imply a guarantee.
	ipo.SharesOfferedShareholder = 0
	assert.Equal(t, models.AllotmentLottery, calc.ShareholderAllotmentMode(&ipo))
}

func TestWeightedProbability(t *testing.T) {
	calc := NewProbabilityService()

	assert.Equal(t, 0.0, calc.WeightedProbability(nil))
	assert.Equal(t, 42.0, calc.WeightedProbability([]float64{42}))

	// Two independent 50% draws: 1 - 0.5*0.5 = 75%.
	assert.InDelta(t, 75.0, calc.WeightedProbability([]float64{50, 50}), 1e-9)

	// 30% and 40%: 1 - 0.7*0.6 = 58%.
	assert.InDelta(t, 58.0, calc.WeightedProbability([]float64{30, 40}), 1e-9)
}

func TestWeightedProbabilityDominatesBest(t *testing.T) {
	calc := NewProbabilityService()

	properties := gopter.NewProperties(nil)

	properties.Property("combined chance is at least the best individual chance", prop.ForAll(
		func(probs []float64) bool {
			if len(probs) == 0 {
				return calc.WeightedProbability(probs) == 0
			}
			best := probs[0]
			for _, p := range probs {
				if p > best {
					best = p
				}
			}
			combined := calc.WeightedProbability(probs)
			return combined >= best-1e-9 && combined <= 100+1e-9
		},
		gen.SliceOf(gen.Float64Range(0, 100)),
	))

	properties.TestingRun(t)
}

func TestRiskScoreClassification(t *testing.T) {
	calc := NewProbabilityService()

	assert.Equal(t, models.RiskHigh, calc.RiskScore(0, 0, 0))

	// 5 apps, 80% avg, well spread: 3+3+2 points.
	assert.Equal(t, models.RiskLow, calc.RiskScore(5, 80, 500000))

	// Single concentrated low-probability play.
	assert.Equal(t, models.RiskHigh, calc.RiskScore(1, 10, 200000))

	// 2 apps at 55% avg: 2+2+1 points.
	assert.Equal(t, models.RiskMedium, calc.RiskScore(2, 55, 100000))
}

func TestOptimalLots(t *testing.T) {
	calc := NewProbabilityService()
	ipo := testOffering(5, 5, 5)

	// Cost per lot 15000: 50000 affords 3 retail lots.
	assert.Equal(t, 3, calc.OptimalLots(50000, &ipo, models.CategoryRetail))

	// Plenty of capital caps at the category maximum.
	assert.Equal(t, 13, calc.OptimalLots(1e7, &ipo, models.CategoryRetail))

	// Below the minimum ticket the minimum comes back; CanAfford gates it.
	assert.Equal(t, 1, calc.OptimalLots(1000, &ipo, models.CategoryRetail))
	assert.False(t, calc.CanAfford(1000, &ipo, models.CategoryRetail, 1))
}

func TestCanAffordRespectsLotBounds(t *testing.T) {
	calc := NewProbabilityService()
	ipo := testOffering(5, 5, 5)

	assert.True(t, calc.CanAfford(15000, &ipo, models.CategoryRetail, 1))
	assert.False(t, calc.CanAfford(1e7, &ipo, models.CategoryRetail, 14))
	assert.False(t, calc.CanAfford(1e7, &ipo, models.CategorySHNI, 1))
}

func TestCategoryRequirementsDefaults(t *testing.T) {
	calc := NewProbabilityService()

	// Snapshots built without explicit bounds fall back to segment defaults.
	ipo := testOffering(5, 5, 5)
	ipo.RetailMinLots, ipo.RetailMaxLots = 0, 0
	ipo.Segment = models.SegmentSME

	req := calc.CategoryRequirements(&ipo, models.CategoryRetail)
	assert.Equal(t, 1, req.MinLots)
	assert.Equal(t, 10, req.MaxLots)
	assert.Equal(t, 15000.0, req.MinInvestment)
}

func TestMultiAccountProbability(t *testing.T) {
	calc := NewProbabilityService()

	assert.Equal(t, 10.0, calc.MultiAccountProbability(10, 1))
	assert.InDelta(t, 27.1, calc.MultiAccountProbability(10, 3), 1e-6)
	assert.Equal(t, 100.0, calc.MultiAccountProbability(100, 5))

	properties := gopter.NewProperties(nil)
	properties.Property("more accounts never reduce the chance", prop.ForAll(
		func(p float64, n int) bool {
			single := calc.MultiAccountProbability(p, 1)
			multi := calc.MultiAccountProbability(p, n)
			return multi >= single-1e-9 && multi <= 100+1e-9
		},
		gen.Float64Range(0, 100),
		gen.IntRange(1, 20),
	))
	properties.TestingRun(t)
}

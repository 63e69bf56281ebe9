package services

import (
	"math"

	"github.com/ipowise/ipo-backend/models"
)

// ProbabilityService converts (offering, category) pairs into allotment
// probabilities and economic projections. All methods are pure and
// deterministic; missing or zero-valued upstream data degrades to
// sentinel/clamped values instead of failing a strategy run.
type ProbabilityService struct{}

// NewProbabilityService creates a new probability service instance
func NewProbabilityService() *ProbabilityService {
	return &ProbabilityService{}
}

// categoryMultipliers reflect historical allotment patterns: categories
// with concentrated big-ticket applications allot systematically worse
// than the raw inverse-subscription figure suggests.
var categoryMultipliers = map[models.MarketSegment]map[models.ApplicationCategory]float64{
	models.SegmentMainboard: {
		models.CategoryRetail: 1.0,
		models.CategorySHNI:   0.85,
		models.CategoryBHNI:   0.75,
	},
	models.SegmentSME: {
		models.CategoryRetail: 1.15,
		models.CategorySHNI:   0.90,
		models.CategoryBHNI:   0.80,
	},
}

// SubscriptionFor returns the category's current oversubscription ratio,
// 0 when the figure has not been reported yet.
func (s *ProbabilityService) SubscriptionFor(ipo *models.IPOOffering, category models.ApplicationCategory) float64 {
	switch category {
	case models.CategoryRetail:
		return ipo.SubscriptionRetail
	case models.CategorySHNI:
		return ipo.SubscriptionSNII
	case models.CategoryBHNI:
		return ipo.SubscriptionBNII
	}
	return 0
}

// AllotmentProbability estimates the chance (percent) of one application
// in the given category being allotted. Undersubscribed or unreported
// categories are certain; oversubscribed ones follow the inverse ratio
// with a category multiplier and a hot-issue penalty. The result is
// clamped to [0.1, 100] and never exactly 0, since a computed zero would
// be indistinguishable from missing data.
func (s *ProbabilityService) AllotmentProbability(ipo *models.IPOOffering, category models.ApplicationCategory, segment models.MarketSegment) float64 {
	subscription := s.SubscriptionFor(ipo, category)

	if subscription < 1 {
		return 100
	}

	probability := math.Min(100, 100/subscription)

	if m, ok := categoryMultipliers[segment][category]; ok {
		probability *= m
	}

	// Hot issues allot even less generously than the inverse model
	// predicts. Only the larger threshold's penalty applies.
	if subscription > 100 {
		probability *= 0.70
	} else if subscription > 50 {
		probability *= 0.85
	}

	return math.Min(100, math.Max(0.1, probability))
}

// ShareholderAllotmentMode reports whether an application under the
// shareholder quota would be allotted pro-rata (applications below quota
// capacity) or by lottery. Missing quota data is never interpreted as a
// guarantee and defaults to LOTTERY.
func (s *ProbabilityService) ShareholderAllotmentMode(ipo *models.IPOOffering) models.AllotmentMode {
	if !ipo.HasShareholderQuota {
		return models.AllotmentLottery
	}
	if ipo.SharesOfferedShareholder <= 0 || ipo.ApplicationsCountShareholder <= 0 || ipo.LotSize <= 0 {
		return models.AllotmentLottery
	}

	capacity := float64(ipo.SharesOfferedShareholder) / float64(ipo.LotSize)
	if float64(ipo.ApplicationsCountShareholder) < capacity {
		return models.AllotmentProRata
	}
	return models.AllotmentLottery
}

// ExpectedLots is the expected value of allotted lots over repeated
// independent draws. The lottery allots an application fully or not at
// all, so the expectation is linear in probability.
func (s *ProbabilityService) ExpectedLots(appliedLots int, probability float64) float64 {
	return float64(appliedLots) * probability / 100
}

// ExpectedProfit projects the grey-market profit of an application.
func (s *ProbabilityService) ExpectedProfit(ipo *models.IPOOffering, appliedLots int, probability float64) float64 {
	return s.ExpectedLots(appliedLots, probability) * ipo.ProfitPerLot()
}

// CategoryRequirements returns the lot bounds and minimum investment for
// a category. The offering snapshot already carries defaulted bounds;
// zero values (snapshots built outside the gateway) fall back to the
// same segment defaults the ingestion step uses.
func (s *ProbabilityService) CategoryRequirements(ipo *models.IPOOffering, category models.ApplicationCategory) models.CategoryRequirements {
	var minLots, maxLots int
	switch category {
	case models.CategoryRetail:
		minLots, maxLots = ipo.RetailMinLots, ipo.RetailMaxLots
	case models.CategorySHNI:
		minLots, maxLots = ipo.SNIIMinLots, ipo.SNIIMaxLots
	case models.CategoryBHNI:
		minLots, maxLots = ipo.BNIIMinLots, ipo.BNIIMaxLots
	}
	if minLots <= 0 || maxLots <= 0 {
		defMin, defMax := models.DefaultLotBounds(ipo.Segment, category)
		if minLots <= 0 {
			minLots = defMin
		}
		if maxLots <= 0 {
			maxLots = defMax
		}
	}

	return models.CategoryRequirements{
		MinLots:       minLots,
		MaxLots:       maxLots,
		MinInvestment: ipo.CostPerLot() * float64(minLots),
	}
}

// ROI returns expected profit as a percentage of blocked capital.
func (s *ProbabilityService) ROI(expectedProfit, investment float64) float64 {
	if investment == 0 {
		return 0
	}
	return expectedProfit / investment * 100
}

// ApplicationScore blends probability, ROI and GMP percentage into a
// single ranking score. ROI and GMP% are capped at 100 so a single
// outlier figure cannot dominate the blend.
func (s *ProbabilityService) ApplicationScore(probability, roi, gmpPercent float64) float64 {
	return probability*0.5 + math.Min(roi, 100)*0.3 + math.Min(gmpPercent, 100)*0.2
}

// RiskScore classifies a strategy by a 3-factor point system:
// diversification count, average probability, and capital concentration.
// Seven points or more is LOW risk, four or more MEDIUM, anything less HIGH.
func (s *ProbabilityService) RiskScore(numApplications int, avgProbability, totalInvestment float64) models.RiskLevel {
	if numApplications == 0 {
		return models.RiskHigh
	}

	points := 0

	if numApplications >= 4 {
		points += 3
	} else if numApplications >= 2 {
		points += 2
	}

	if avgProbability >= 70 {
		points += 3
	} else if avgProbability >= 50 {
		points += 2
	} else if avgProbability >= 30 {
		points += 1
	}

	// Concentration is approximated from the per-application average
	// against the 40%/60% thresholds of total investment.
	perApplication := totalInvestment / float64(numApplications)
	if perApplication < totalInvestment*0.4 {
		points += 2
	} else if perApplication < totalInvestment*0.6 {
		points += 1
	}

	if points >= 7 {
		return models.RiskLow
	}
	if points >= 4 {
		return models.RiskMedium
	}
	return models.RiskHigh
}

// WeightedProbability is the chance of at least one success across
// independent applications: 1 - prod(1 - p/100), as a percentage. This
// is the correct combinatorial treatment, not a simple average.
func (s *ProbabilityService) WeightedProbability(probabilities []float64) float64 {
	if len(probabilities) == 0 {
		return 0
	}
	if len(probabilities) == 1 {
		return probabilities[0]
	}

	probNone := 1.0
	for _, p := range probabilities {
		probNone *= 1 - p/100
	}
	return (1 - probNone) * 100
}

// CanAfford reports whether the capital covers numLots applications in
// the category while respecting its lot bounds.
func (s *ProbabilityService) CanAfford(capital float64, ipo *models.IPOOffering, category models.ApplicationCategory, numLots int) bool {
	req := s.CategoryRequirements(ipo, category)
	totalCost := ipo.CostPerLot() * float64(numLots)

	return capital >= totalCost && numLots >= req.MinLots && numLots <= req.MaxLots
}

// OptimalLots returns the largest affordable lot count within the
// category bounds. The result may be unaffordable when even the minimum
// lot count exceeds the capital; callers gate with CanAfford.
func (s *ProbabilityService) OptimalLots(availableCapital float64, ipo *models.IPOOffering, category models.ApplicationCategory) int {
	req := s.CategoryRequirements(ipo, category)
	costPerLot := ipo.CostPerLot()
	if costPerLot <= 0 {
		return req.MinLots
	}

	maxAffordable := int(math.Floor(availableCapital / costPerLot))
	if maxAffordable > req.MaxLots {
		maxAffordable = req.MaxLots
	}
	if maxAffordable < req.MinLots {
		return req.MinLots
	}
	return maxAffordable
}

// MultiAccountProbability is the chance of at least one allotment when
// the same application is filed independently from n accounts.
func (s *ProbabilityService) MultiAccountProbability(singleAccountProbability float64, numAccounts int) float64 {
	if numAccounts <= 1 {
		return singleAccountProbability
	}
	probNone := math.Pow(1-singleAccountProbability/100, float64(numAccounts))
	return math.Min(100, (1-probNone)*100)
}

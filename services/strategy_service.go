package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/ipowise/ipo-backend/models"
	"github.com/sirupsen/logrus"
)

// StrategyService enumerates and ranks single-identity application
// strategies over a snapshot of open offerings. Every strategy tracks
// its own remaining-capital accumulator, so strategies are independent
// and may be computed concurrently from the same snapshot.
type StrategyService struct {
	calc *ProbabilityService
}

// NewStrategyService creates a new strategy service instance
func NewStrategyService() *StrategyService {
	return &StrategyService{calc: NewProbabilityService()}
}

// categoryAnalysis carries the per-category figures of one offering,
// computed once per run and shared by all strategy flavors.
type categoryAnalysis struct {
	Requirements   models.CategoryRequirements
	Subscription   float64
	Probability    float64
	ExpectedLots   float64
	ProfitPerLot   float64
	ExpectedProfit float64
	ROI            float64
	Score          float64
}

type ipoAnalysis struct {
	IPO        models.IPOOffering
	Categories map[models.ApplicationCategory]categoryAnalysis
}

// GenerateAllStrategies produces the six named strategies for one
// capital pool over the open offerings, filters out the empty ones and
// ranks the rest by risk-adjusted expected value. An empty result
// (no offerings, or capital below every admissible minimum) yields the
// "no strategies" sentinel comparison rather than an error.
func (s *StrategyService) GenerateAllStrategies(capital float64, openIPOs []models.IPOOffering) models.StrategyComparison {
	analyses := s.analyzeAll(openIPOs)

	candidates := []models.ApplicationStrategy{
		s.maxRetailStrategy(capital, analyses),
		s.concentratedHNIStrategy(capital, analyses),
		s.mixedStrategy(capital, analyses),
		s.gmpFocusedStrategy(capital, analyses),
		s.probabilityMaxStrategy(capital, analyses),
		s.balancedStrategy(capital, analyses),
	}

	strategies := candidates[:0]
	for _, st := range candidates {
		if len(st.Applications) > 0 {
			strategies = append(strategies, st)
		}
	}

	if len(strategies) == 0 {
		logrus.WithFields(logrus.Fields{
			"capital":   capital,
			"open_ipos": len(openIPOs),
		}).Info("No viable strategy for the given capital and offerings")
		return emptyComparison()
	}

	sort.SliceStable(strategies, func(i, j int) bool {
		return riskAdjustedValue(strategies[i]) > riskAdjustedValue(strategies[j])
	})

	bestForProfit := strategies[0]
	bestForProbability := strategies[0]
	for _, st := range strategies[1:] {
		if st.ExpectedProfit > bestForProfit.ExpectedProfit {
			bestForProfit = st
		}
		if st.WeightedProbability > bestForProbability.WeightedProbability {
			bestForProbability = st
		}
	}

	bestForRisk := strategies[0]
	for _, st := range strategies {
		if st.RiskScore == models.RiskLow {
			bestForRisk = st
			break
		}
	}

	return models.StrategyComparison{
		Strategies:         strategies,
		BestForProfit:      bestForProfit,
		BestForProbability: bestForProbability,
		BestForRisk:        bestForRisk,
		Recommended:        strategies[0],
	}
}

// analyzeAll computes the per-category figures for every offering once.
func (s *StrategyService) analyzeAll(ipos []models.IPOOffering) []ipoAnalysis {
	analyses := make([]ipoAnalysis, 0, len(ipos))

	for i := range ipos {
		ipo := ipos[i]
		categories := make(map[models.ApplicationCategory]categoryAnalysis, len(models.AllApplicationCategories))

		for _, category := range models.AllApplicationCategories {
			req := s.calc.CategoryRequirements(&ipo, category)
			probability := s.calc.AllotmentProbability(&ipo, category, ipo.Segment)
			expectedProfit := s.calc.ExpectedProfit(&ipo, req.MinLots, probability)
			roi := s.calc.ROI(expectedProfit, req.MinInvestment)

			categories[category] = categoryAnalysis{
				Requirements:   req,
				Subscription:   s.calc.SubscriptionFor(&ipo, category),
				Probability:    probability,
				ExpectedLots:   s.calc.ExpectedLots(req.MinLots, probability),
				ProfitPerLot:   ipo.ProfitPerLot(),
				ExpectedProfit: expectedProfit,
				ROI:            roi,
				Score:          s.calc.ApplicationScore(probability, roi, ipo.GMPPercent),
			}
		}

		analyses = append(analyses, ipoAnalysis{IPO: ipo, Categories: categories})
	}

	return analyses
}

// maxRetailStrategy funds a retail-minimum application from every
// offering in descending retail-score order until capital runs out.
func (s *StrategyService) maxRetailStrategy(capital float64, analyses []ipoAnalysis) models.ApplicationStrategy {
	sorted := sortedByScore(analyses, func(a ipoAnalysis) float64 {
		return a.Categories[models.CategoryRetail].Score
	})

	var applications []models.Application
	remaining := capital

	for _, a := range sorted {
		cat := a.Categories[models.CategoryRetail]
		if s.calc.CanAfford(remaining, &a.IPO, models.CategoryRetail, cat.Requirements.MinLots) {
			applications = append(applications, s.minLotApplication(a.IPO, models.CategoryRetail, cat))
			remaining -= cat.Requirements.MinInvestment
		}
	}

	return s.buildStrategy(
		"max-retail",
		"Maximum Retail Diversification",
		"Apply to as many IPOs as possible in retail category for maximum diversification and high success probability",
		applications,
	)
}

// concentratedHNIStrategy puts everything on the single best HNI
// opportunity, preferring bHNI and falling back to sHNI.
func (s *StrategyService) concentratedHNIStrategy(capital float64, analyses []ipoAnalysis) models.ApplicationStrategy {
	sorted := sortedByScore(analyses, func(a ipoAnalysis) float64 {
		return math.Max(a.Categories[models.CategorySHNI].Score, a.Categories[models.CategoryBHNI].Score)
	})

	var applications []models.Application
	remaining := capital

	for _, a := range sorted {
		for _, category := range []models.ApplicationCategory{models.CategoryBHNI, models.CategorySHNI} {
			lots := s.calc.OptimalLots(remaining, &a.IPO, category)
			if !s.calc.CanAfford(remaining, &a.IPO, category, lots) {
				continue
			}
			app := s.sizedApplication(a.IPO, category, lots)
			applications = append(applications, app)
			remaining -= app.TotalCost
			break
		}
		if len(applications) > 0 {
			break
		}
	}

	return s.buildStrategy(
		"concentrated-hni",
		"Concentrated HNI Power Play",
		"Single high-value application in HNI category for maximum lot allocation potential",
		applications,
	)
}

// mixedStrategy reserves 60% of capital for up to three retail
// applications and best-efforts one sHNI play with the rest.
func (s *StrategyService) mixedStrategy(capital float64, analyses []ipoAnalysis) models.ApplicationStrategy {
	var applications []models.Application
	remaining := capital
	retailBudget := capital * 0.6

	topRetail := sortedByScore(analyses, func(a ipoAnalysis) float64 {
		return a.Categories[models.CategoryRetail].Score
	})
	if len(topRetail) > 3 {
		topRetail = topRetail[:3]
	}

	for _, a := range topRetail {
		cat := a.Categories[models.CategoryRetail]
		if s.calc.CanAfford(remaining, &a.IPO, models.CategoryRetail, cat.Requirements.MinLots) &&
			cat.Requirements.MinInvestment <= retailBudget {
			applications = append(applications, s.minLotApplication(a.IPO, models.CategoryRetail, cat))
			remaining -= cat.Requirements.MinInvestment
		}
	}

	topHNI := sortedByScore(analyses, func(a ipoAnalysis) float64 {
		return math.Max(a.Categories[models.CategorySHNI].Score, a.Categories[models.CategoryBHNI].Score)
	})
	if len(topHNI) > 2 {
		topHNI = topHNI[:2]
	}

	for _, a := range topHNI {
		lots := s.calc.OptimalLots(remaining, &a.IPO, models.CategorySHNI)
		if s.calc.CanAfford(remaining, &a.IPO, models.CategorySHNI, lots) {
			app := s.sizedApplication(a.IPO, models.CategorySHNI, lots)
			applications = append(applications, app)
			remaining -= app.TotalCost
			break
		}
	}

	return s.buildStrategy(
		"mixed",
		"Balanced Mixed Approach",
		"Combination of retail applications for safety and one HNI play for higher returns",
		applications,
	)
}

// gmpFocusedStrategy chases grey-market premium: offerings ranked purely
// by GMP%, each funded in whichever category projects the highest profit.
func (s *StrategyService) gmpFocusedStrategy(capital float64, analyses []ipoAnalysis) models.ApplicationStrategy {
	sorted := sortedByScore(analyses, func(a ipoAnalysis) float64 {
		return a.IPO.GMPPercent
	})

	var applications []models.Application
	remaining := capital

	for _, a := range sorted {
		best := models.CategoryRetail
		for _, category := range models.AllApplicationCategories[1:] {
			if a.Categories[category].ExpectedProfit > a.Categories[best].ExpectedProfit {
				best = category
			}
		}

		lots := s.calc.OptimalLots(remaining, &a.IPO, best)
		if s.calc.CanAfford(remaining, &a.IPO, best, lots) {
			app := s.sizedApplication(a.IPO, best, lots)
			applications = append(applications, app)
			remaining -= app.TotalCost
		}
	}

	return s.buildStrategy(
		"gmp-focused",
		"GMP Chaser Strategy",
		"Target IPOs with highest grey market premium for maximum profit potential (higher risk)",
		applications,
	)
}

// probabilityMaxStrategy funds the minimum lot count in each offering's
// highest-probability category, in descending best-probability order.
// Ties between categories resolve in retail > sHNI > bHNI order.
func (s *StrategyService) probabilityMaxStrategy(capital float64, analyses []ipoAnalysis) models.ApplicationStrategy {
	sorted := sortedByScore(analyses, func(a ipoAnalysis) float64 {
		best := 0.0
		for _, category := range models.AllApplicationCategories {
			best = math.Max(best, a.Categories[category].Probability)
		}
		return best
	})

	var applications []models.Application
	remaining := capital

	for _, a := range sorted {
		best := models.CategoryRetail
		for _, category := range models.AllApplicationCategories[1:] {
			if a.Categories[category].Probability > a.Categories[best].Probability {
				best = category
			}
		}

		cat := a.Categories[best]
		if s.calc.CanAfford(remaining, &a.IPO, best, cat.Requirements.MinLots) {
			applications = append(applications, s.minLotApplication(a.IPO, best, cat))
			remaining -= cat.Requirements.MinInvestment
		}
	}

	return s.buildStrategy(
		"probability-max",
		"Maximum Probability Strategy",
		"Focus on IPOs with highest allotment probability for assured returns (conservative)",
		applications,
	)
}

// balancedStrategy ranks offerings by a composite score that discounts
// the big-ticket categories' capital hunger (retail 1.2x, sHNI 1.0x,
// bHNI 0.8x), then funds each offering's best affordable category at the
// optimal lot count.
func (s *StrategyService) balancedStrategy(capital float64, analyses []ipoAnalysis) models.ApplicationStrategy {
	sorted := sortedByScore(analyses, func(a ipoAnalysis) float64 {
		return (a.Categories[models.CategoryRetail].Score*1.2 +
			a.Categories[models.CategorySHNI].Score*1.0 +
			a.Categories[models.CategoryBHNI].Score*0.8) / 3
	})

	var applications []models.Application
	remaining := capital

	for _, a := range sorted {
		var affordable []models.ApplicationCategory
		for _, category := range models.AllApplicationCategories {
			if a.Categories[category].Requirements.MinInvestment <= remaining {
				affordable = append(affordable, category)
			}
		}
		if len(affordable) == 0 {
			continue
		}

		sort.SliceStable(affordable, func(i, j int) bool {
			return a.Categories[affordable[i]].Score > a.Categories[affordable[j]].Score
		})

		best := affordable[0]
		lots := s.calc.OptimalLots(remaining, &a.IPO, best)
		if s.calc.CanAfford(remaining, &a.IPO, best, lots) {
			app := s.sizedApplication(a.IPO, best, lots)
			applications = append(applications, app)
			remaining -= app.TotalCost
		}
	}

	return s.buildStrategy(
		"ai-balanced",
		"AI-Optimized Strategy",
		"Data-driven optimal allocation balancing probability, profit, and risk (recommended)",
		applications,
	)
}

// minLotApplication builds an application at the category minimum from
// precomputed analysis figures.
func (s *StrategyService) minLotApplication(ipo models.IPOOffering, category models.ApplicationCategory, cat categoryAnalysis) models.Application {
	return models.Application{
		IPO:                  ipo,
		Category:             category,
		Segment:              ipo.Segment,
		NumLots:              cat.Requirements.MinLots,
		CostPerLot:           ipo.CostPerLot(),
		TotalCost:            cat.Requirements.MinInvestment,
		AllotmentProbability: cat.Probability,
		ExpectedLots:         cat.ExpectedLots,
		ProfitPerLot:         cat.ProfitPerLot,
		ExpectedProfit:       cat.ExpectedProfit,
		Subscription:         cat.Subscription,
	}
}

// sizedApplication builds an application for an explicit lot count,
// recomputing the expectation figures for that size.
func (s *StrategyService) sizedApplication(ipo models.IPOOffering, category models.ApplicationCategory, lots int) models.Application {
	probability := s.calc.AllotmentProbability(&ipo, category, ipo.Segment)

	return models.Application{
		IPO:                  ipo,
		Category:             category,
		Segment:              ipo.Segment,
		NumLots:              lots,
		CostPerLot:           ipo.CostPerLot(),
		TotalCost:            ipo.CostPerLot() * float64(lots),
		AllotmentProbability: probability,
		ExpectedLots:         s.calc.ExpectedLots(lots, probability),
		ProfitPerLot:         ipo.ProfitPerLot(),
		ExpectedProfit:       s.calc.ExpectedProfit(&ipo, lots, probability),
		Subscription:         s.calc.SubscriptionFor(&ipo, category),
	}
}

// buildStrategy aggregates the applications into a named strategy with
// the derived cost, probability, risk and recommendation figures.
func (s *StrategyService) buildStrategy(id, name, description string, applications []models.Application) models.ApplicationStrategy {
	var totalCost, expectedProfit, probabilitySum float64
	probabilities := make([]float64, 0, len(applications))

	for _, app := range applications {
		totalCost += app.TotalCost
		expectedProfit += app.ExpectedProfit
		probabilities = append(probabilities, app.AllotmentProbability)
		probabilitySum += app.AllotmentProbability
	}

	avgProbability := 0.0
	if len(applications) > 0 {
		avgProbability = probabilitySum / float64(len(applications))
	}

	risk := s.calc.RiskScore(len(applications), avgProbability, totalCost)

	return models.ApplicationStrategy{
		StrategyID:           id,
		StrategyName:         name,
		Description:          description,
		TotalCost:            totalCost,
		Applications:         applications,
		ExpectedProfit:       expectedProfit,
		WeightedProbability:  s.calc.WeightedProbability(probabilities),
		RiskScore:            risk,
		Recommendation:       strategyRecommendation(applications, avgProbability, risk),
		DiversificationScore: math.Min(100, float64(len(applications))*20),
	}
}

// riskAdjustedValue ranks strategies: expected profit scaled by a risk
// multiplier and a capped diversification bonus.
func riskAdjustedValue(st models.ApplicationStrategy) float64 {
	multiplier := 1.0
	switch st.RiskScore {
	case models.RiskLow:
		multiplier = 1.10
	case models.RiskHigh:
		multiplier = 0.85
	}

	bonus := math.Min(st.DiversificationScore/100, 0.2)
	return st.ExpectedProfit * multiplier * (1 + bonus)
}

// sortedByScore returns the analyses in descending score order. The sort
// is stable so equal scores keep the snapshot's input order, which makes
// ranking reproducible.
func sortedByScore(analyses []ipoAnalysis, score func(ipoAnalysis) float64) []ipoAnalysis {
	sorted := make([]ipoAnalysis, len(analyses))
	copy(sorted, analyses)
	sort.SliceStable(sorted, func(i, j int) bool {
		return score(sorted[i]) > score(sorted[j])
	})
	return sorted
}

func strategyRecommendation(applications []models.Application, avgProbability float64, risk models.RiskLevel) string {
	numApps := len(applications)

	switch {
	case risk == models.RiskLow && numApps >= 3:
		return fmt.Sprintf("Excellent diversification across %d IPOs with %.0f%% average success rate. Low risk, steady returns.", numApps, avgProbability)
	case risk == models.RiskHigh && numApps == 1:
		return fmt.Sprintf("High-risk concentrated play. Potential for significant returns but %.0f%% chance of no allotment.", 100-avgProbability)
	default:
		return fmt.Sprintf("Balanced approach with %d applications. Good risk-reward ratio with %.0f%% success probability.", numApps, avgProbability)
	}
}

// emptyComparison is the sentinel returned when no strategy produced any
// application; all four labeled slots carry the same zero-application
// strategy so callers can branch on the empty application list.
func emptyComparison() models.StrategyComparison {
	sentinel := models.ApplicationStrategy{
		StrategyID:     "no-strategies",
		StrategyName:   "No Strategy Available",
		Description:    "No viable application strategy for the given capital and open IPOs",
		Applications:   []models.Application{},
		RiskScore:      models.RiskHigh,
		Recommendation: "Increase available capital or wait for new IPOs to open.",
	}

	return models.StrategyComparison{
		Strategies:         []models.ApplicationStrategy{},
		BestForProfit:      sentinel,
		BestForProbability: sentinel,
		BestForRisk:        sentinel,
		Recommended:        sentinel,
	}
}

package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ipowise/ipo-backend/models"
	"github.com/sirupsen/logrus"
)

// MultiAccountService builds the family-optimized allocation: one plan
// spread across every retail account (PAN) the household controls. The
// plan is assembled in three phases over the conflict cluster of
// offerings whose funds block simultaneously:
//
//	A. timeline clustering, separating the cluster from the pipeline
//	B. shareholder quota priority, sized by allotment mode
//	C. family swarm, sHNI applications first and retail cleanup after
type MultiAccountService struct {
	calc *ProbabilityService
}

// NewMultiAccountService creates a new multi-account service instance
func NewMultiAccountService() *MultiAccountService {
	return &MultiAccountService{calc: NewProbabilityService()}
}

const (
	shareholderProRataTarget = 200000
	shareholderLotteryTarget = 15000
	shniTarget               = 210000
	shniOvershootAllowance   = 50000
	retailMinimumBudget      = 15000
	clusterWindowDays        = 2
)

// timelineCluster separates offerings whose application funds are
// blocked at the same time from those closing late enough that refunds
// can be recycled into them.
type timelineCluster struct {
	ConflictCluster []models.IPOOffering
	Pipeline        []models.IPOOffering
	EarliestClose   time.Time
}

type shareholderAllocation struct {
	Applications []models.Application
	CapitalUsed  float64
	PANsUsed     int
}

type familySwarmAllocation struct {
	Applications []models.Application
	CapitalUsed  float64
}

// GenerateStrategies runs the three phases and returns a single-element
// strategy list, or a sentinel strategy when nothing could be funded.
func (s *MultiAccountService) GenerateStrategies(portfolio models.UserPortfolio, openIPOs []models.IPOOffering) []models.ApplicationStrategy {
	cluster := clusterByTimeline(openIPOs)

	if len(cluster.ConflictCluster) == 0 {
		return []models.ApplicationStrategy{sentinelStrategy("no-ipos-available")}
	}

	availableCapital := portfolio.TotalCapital
	availablePANs := portfolio.NumRetailAccounts
	if availablePANs < 1 {
		availablePANs = 1
	}

	shareholder := s.allocateShareholderQuota(portfolio, cluster.ConflictCluster, availableCapital, availablePANs)
	applications := append([]models.Application{}, shareholder.Applications...)
	availableCapital -= shareholder.CapitalUsed
	availablePANs -= shareholder.PANsUsed

	swarm := s.allocateFamilySwarm(cluster.ConflictCluster, availableCapital, availablePANs)
	applications = append(applications, swarm.Applications...)

	if len(applications) == 0 {
		logrus.WithFields(logrus.Fields{
			"capital":          portfolio.TotalCapital,
			"retail_accounts":  portfolio.NumRetailAccounts,
			"conflict_cluster": len(cluster.ConflictCluster),
		}).Info("Multi-account allocation produced no fundable application")
		return []models.ApplicationStrategy{sentinelStrategy("insufficient-capital-or-pans")}
	}

	var totalCost, expectedProfit, probabilitySum float64
	probabilities := make([]float64, 0, len(applications))
	for _, app := range applications {
		totalCost += app.TotalCost
		expectedProfit += app.ExpectedProfit
		probabilities = append(probabilities, app.AllotmentProbability)
		probabilitySum += app.AllotmentProbability
	}
	avgProbability := probabilitySum / float64(len(applications))

	strategy := models.ApplicationStrategy{
		StrategyID:   "family-optimized-strategy",
		StrategyName: "Family-Optimized Allocation",
		Description: fmt.Sprintf("Smart allocation across %d IPO(s) closing by %s",
			len(cluster.ConflictCluster), cluster.EarliestClose.Format("02 Jan 2006")),
		TotalCost:            totalCost,
		Applications:         applications,
		ExpectedProfit:       expectedProfit,
		WeightedProbability:  s.calc.WeightedProbability(probabilities),
		RiskScore:            s.calc.RiskScore(len(applications), avgProbability, totalCost),
		Recommendation:       multiAccountRecommendation(shareholder.Applications, applications, cluster.Pipeline),
		DiversificationScore: minFloat(100, float64(len(applications))*20),
	}

	return []models.ApplicationStrategy{strategy}
}

// clusterByTimeline sorts offerings by close date and splits them at the
// two-day window after the earliest close. The sort is stable so equal
// close dates keep the snapshot order.
func clusterByTimeline(openIPOs []models.IPOOffering) timelineCluster {
	if len(openIPOs) == 0 {
		return timelineCluster{EarliestClose: time.Now()}
	}

	sorted := make([]models.IPOOffering, len(openIPOs))
	copy(sorted, openIPOs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CloseDate.Before(sorted[j].CloseDate)
	})

	earliest := sorted[0].CloseDate
	windowEnd := earliest.AddDate(0, 0, clusterWindowDays)

	cluster := timelineCluster{EarliestClose: earliest}
	for _, ipo := range sorted {
		if !ipo.CloseDate.After(windowEnd) {
			cluster.ConflictCluster = append(cluster.ConflictCluster, ipo)
		} else {
			cluster.Pipeline = append(cluster.Pipeline, ipo)
		}
	}

	return cluster
}

// allocateShareholderQuota funds one retail-category application per
// shareholder-eligible offering in the cluster, sized by allotment mode:
// PRO_RATA gets the maximum useful amount, LOTTERY the minimum ticket.
// Each application consumes one PAN.
func (s *MultiAccountService) allocateShareholderQuota(portfolio models.UserPortfolio, cluster []models.IPOOffering, availableCapital float64, availablePANs int) shareholderAllocation {
	eligible := make(map[string]bool, len(portfolio.ShareholderEligibleIPOs))
	for _, slug := range portfolio.ShareholderEligibleIPOs {
		eligible[slug] = true
	}

	var alloc shareholderAllocation

	for i := range cluster {
		ipo := cluster[i]
		if !eligible[ipo.Slug] {
			continue
		}
		if alloc.PANsUsed >= availablePANs || alloc.CapitalUsed >= availableCapital {
			break
		}

		mode := s.calc.ShareholderAllotmentMode(&ipo)

		var targetInvestment float64
		if mode == models.AllotmentProRata {
			targetInvestment = minFloat(shareholderProRataTarget, availableCapital-alloc.CapitalUsed)
		} else {
			targetInvestment = minFloat(shareholderLotteryTarget, availableCapital-alloc.CapitalUsed)
		}

		lots := s.calc.OptimalLots(targetInvestment, &ipo, models.CategoryRetail)
		if !s.calc.CanAfford(targetInvestment, &ipo, models.CategoryRetail, lots) {
			continue
		}

		probability := 100.0
		if mode != models.AllotmentProRata {
			probability = s.calc.AllotmentProbability(&ipo, models.CategoryRetail, ipo.Segment)
		}

		app := s.applicationFor(ipo, models.CategoryRetail, lots, probability)
		alloc.Applications = append(alloc.Applications, app)
		alloc.CapitalUsed += app.TotalCost
		alloc.PANsUsed++

		logrus.WithFields(logrus.Fields{
			"ipo":            ipo.Slug,
			"allotment_mode": mode,
			"lots":           lots,
			"cost":           app.TotalCost,
		}).Debug("Shareholder quota application allocated")
	}

	return alloc
}

// allocateFamilySwarm spends the remaining capital across the remaining
// PANs: sHNI applications near the band minimum first, then retail
// applications with whatever is left. Offerings are ranked by sHNI
// probability weighted by GMP percentage.
func (s *MultiAccountService) allocateFamilySwarm(cluster []models.IPOOffering, availableCapital float64, availablePANs int) familySwarmAllocation {
	ranked := make([]models.IPOOffering, len(cluster))
	copy(ranked, cluster)
	sort.SliceStable(ranked, func(i, j int) bool {
		scoreI := s.calc.AllotmentProbability(&ranked[i], models.CategorySHNI, ranked[i].Segment) * ranked[i].GMPPercent
		scoreJ := s.calc.AllotmentProbability(&ranked[j], models.CategorySHNI, ranked[j].Segment) * ranked[j].GMPPercent
		return scoreI > scoreJ
	})

	var alloc familySwarmAllocation

	// sHNI first: accept only when the cost lands inside the small-HNI
	// band, between the 2L floor and the target plus a small overshoot.
	for i := range ranked {
		if availablePANs <= 0 {
			break
		}
		if availableCapital-alloc.CapitalUsed < shniTarget {
			break
		}

		ipo := ranked[i]
		lots := s.calc.OptimalLots(shniTarget, &ipo, models.CategorySHNI)
		totalCost := ipo.CostPerLot() * float64(lots)

		if totalCost < shareholderProRataTarget || totalCost > shniTarget+shniOvershootAllowance {
			continue
		}
		if !s.calc.CanAfford(availableCapital-alloc.CapitalUsed, &ipo, models.CategorySHNI, lots) {
			continue
		}

		probability := s.calc.AllotmentProbability(&ipo, models.CategorySHNI, ipo.Segment)
		app := s.applicationFor(ipo, models.CategorySHNI, lots, probability)
		alloc.Applications = append(alloc.Applications, app)
		alloc.CapitalUsed += app.TotalCost
		availablePANs--
	}

	// Retail cleanup with the leftover, one PAN per offering. Anything
	// costing 2L or more belongs to the sHNI band and is skipped.
	if availableCapital-alloc.CapitalUsed >= retailMinimumBudget && availablePANs > 0 {
		for i := range ranked {
			if availablePANs <= 0 {
				break
			}
			remaining := availableCapital - alloc.CapitalUsed
			if remaining < retailMinimumBudget {
				break
			}

			ipo := ranked[i]
			lots := s.calc.OptimalLots(remaining, &ipo, models.CategoryRetail)
			totalCost := ipo.CostPerLot() * float64(lots)

			if totalCost >= shareholderProRataTarget {
				continue
			}
			if !s.calc.CanAfford(remaining, &ipo, models.CategoryRetail, lots) {
				continue
			}

			probability := s.calc.AllotmentProbability(&ipo, models.CategoryRetail, ipo.Segment)
			app := s.applicationFor(ipo, models.CategoryRetail, lots, probability)
			alloc.Applications = append(alloc.Applications, app)
			alloc.CapitalUsed += app.TotalCost
			availablePANs--
		}
	}

	return alloc
}

func (s *MultiAccountService) applicationFor(ipo models.IPOOffering, category models.ApplicationCategory, lots int, probability float64) models.Application {
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

// multiAccountRecommendation itemizes the phases that contributed
// applications and mentions the pipeline offerings whose funds free up
// after refunds.
func multiAccountRecommendation(shareholderApps, allApps []models.Application, pipeline []models.IPOOffering) string {
	var b strings.Builder

	if len(shareholderApps) > 0 {
		fmt.Fprintf(&b, "Shareholder priority: %d quota application(s). ", len(shareholderApps))
	}

	shniCount := 0
	retailCount := 0
	for _, app := range allApps {
		switch app.Category {
		case models.CategorySHNI:
			shniCount++
		case models.CategoryRetail:
			retailCount++
		}
	}

	if shniCount > 0 {
		fmt.Fprintf(&b, "Family swarm: %d sHNI application(s) for maximum impact. ", shniCount)
	}
	if retailCount > 0 {
		fmt.Fprintf(&b, "%d retail application(s) to utilize remaining capital. ", retailCount)
	}

	if len(pipeline) > 0 {
		names := make([]string, 0, 2)
		for _, ipo := range pipeline {
			names = append(names, ipo.CompanyName)
			if len(names) == 2 {
				break
			}
		}
		suffix := ""
		if len(pipeline) > 2 {
			suffix = ", ..."
		}
		fmt.Fprintf(&b, "Pipeline: %d IPO(s) closing later (%s%s), funds can be reused after refunds.",
			len(pipeline), strings.Join(names, ", "), suffix)
	}

	return strings.TrimSpace(b.String())
}

func sentinelStrategy(id string) models.ApplicationStrategy {
	descriptions := map[string]string{
		"no-ipos-available":            "No open IPOs available at this time",
		"insufficient-capital-or-pans": "Insufficient capital or PANs to create applications",
	}

	description, ok := descriptions[id]
	if !ok {
		description = "Unable to generate strategy"
	}

	return models.ApplicationStrategy{
		StrategyID:     id,
		StrategyName:   "No Strategy Available",
		Description:    description,
		Applications:   []models.Application{},
		RiskScore:      models.RiskHigh,
		Recommendation: "Please check your portfolio settings or wait for new IPOs to open.",
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

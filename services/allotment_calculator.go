package services

import (
	"fmt"
	"math"
)

// AllotmentInput describes a hypothetical application for the what-if
// allotment calculator. Category here is the exchange-form bucket
// (retail/hni/qib), not the application band used by the strategy
// engine.
type AllotmentInput struct {
	IPOName          string  `json:"ipo_name"`
	TotalShares      int     `json:"total_shares"`
	LotSize          int     `json:"lot_size"`
	PricePerShare    float64 `json:"price_per_share"`
	AppliedLots      int     `json:"applied_lots"`
	Category         string  `json:"category"`
	Oversubscription float64 `json:"oversubscription"`
}

// AllotmentFactors breaks the probability down into the percentage-point
// contribution of each input.
type AllotmentFactors struct {
	OversubscriptionImpact float64 `json:"oversubscription_impact"`
	CategoryImpact         float64 `json:"category_impact"`
	LotSizeImpact          float64 `json:"lot_size_impact"`
}

// AllotmentResult is the what-if outcome for one hypothetical
// application.
type AllotmentResult struct {
	Probability    float64          `json:"probability"`
	ExpectedLots   int              `json:"expected_lots"`
	ExpectedShares int              `json:"expected_shares"`
	ExpectedValue  float64          `json:"expected_value"`
	Factors        AllotmentFactors `json:"factors"`
	Recommendation string           `json:"recommendation"`
}

// AllotmentCalculatorService answers the standalone "what are my odds"
// question for a single hypothetical application, independent of the
// strategy engine's offering snapshots.
type AllotmentCalculatorService struct{}

// NewAllotmentCalculatorService creates a new allotment calculator service instance
func NewAllotmentCalculatorService() *AllotmentCalculatorService {
	return &AllotmentCalculatorService{}
}

var whatIfCategoryMultipliers = map[string]float64{
	"retail": 1.0,
	"hni":    0.85,
	"qib":    0.70,
}

// Calculate estimates the allotment outcome for the given input. An
// unknown category falls back to the retail multiplier; zero or negative
// oversubscription is treated as fully subscribed.
func (s *AllotmentCalculatorService) Calculate(input AllotmentInput) AllotmentResult {
	oversubscription := input.Oversubscription
	if oversubscription <= 0 {
		oversubscription = 1
	}

	baseProbability := 100 / oversubscription

	multiplier, ok := whatIfCategoryMultipliers[input.Category]
	if !ok {
		multiplier = whatIfCategoryMultipliers["retail"]
	}

	// Larger applications dilute per-application odds, floored at half.
	lotImpact := math.Max(0.5, 1-float64(input.AppliedLots)*0.02)

	probability := math.Min(100, baseProbability*multiplier*lotImpact)

	expectedLots := int(math.Floor(float64(input.AppliedLots) * probability / 100))
	expectedShares := expectedLots * input.LotSize

	return AllotmentResult{
		Probability:    math.Round(probability*100) / 100,
		ExpectedLots:   expectedLots,
		ExpectedShares: expectedShares,
		ExpectedValue:  float64(expectedShares) * input.PricePerShare,
		Factors: AllotmentFactors{
			OversubscriptionImpact: 100 - baseProbability,
			CategoryImpact:         (multiplier - 1) * 100,
			LotSizeImpact:          (lotImpact - 1) * 100,
		},
		Recommendation: whatIfRecommendation(probability, input),
	}
}

func whatIfRecommendation(probability float64, input AllotmentInput) string {
	switch {
	case probability >= 80:
		return fmt.Sprintf("High chance of allotment. Consider applying for %d lots.", input.AppliedLots)
	case probability >= 50:
		return fmt.Sprintf("Moderate chance of allotment. The %s category has decent odds.", input.Category)
	case probability >= 20:
		return fmt.Sprintf("Low chance of allotment due to %.1fx oversubscription. Consider applying with multiple accounts.", input.Oversubscription)
	default:
		return fmt.Sprintf("Very low chance of allotment. The IPO is heavily oversubscribed at %.1fx.", input.Oversubscription)
	}
}

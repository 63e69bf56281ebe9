package models

// CategoryRequirements describes the lot bounds and minimum blocked
// capital for one (offering, category) pair.
type CategoryRequirements struct {
	MinLots       int     `json:"min_lots"`
	MaxLots       int     `json:"max_lots"`
	MinInvestment float64 `json:"min_investment"`
}

// RiskLevel classifies a strategy by the 3-factor point system
// (diversification, average probability, capital concentration).
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Application is one proposed submission: an offering, a category and a
// lot count, with the derived cost and expectation figures.
type Application struct {
	IPO      IPOOffering         `json:"ipo"`
	Category ApplicationCategory `json:"category"`
	Segment  MarketSegment       `json:"segment"`

	NumLots    int     `json:"num_lots"`
	CostPerLot float64 `json:"cost_per_lot"`
	TotalCost  float64 `json:"total_cost"`

	AllotmentProbability float64 `json:"allotment_probability"`
	ExpectedLots         float64 `json:"expected_lots"`
	ProfitPerLot         float64 `json:"profit_per_lot"`
	ExpectedProfit       float64 `json:"expected_profit"`
	Subscription         float64 `json:"subscription"`
}

// ApplicationStrategy is a named bundle of applications sharing one
// capital pool. TotalCost is always the exact sum of application costs
// and never exceeds the pool the strategy was generated for.
type ApplicationStrategy struct {
	StrategyID   string `json:"strategy_id"`
	StrategyName string `json:"strategy_name"`
	Description  string `json:"description"`

	TotalCost    float64       `json:"total_cost"`
	Applications []Application `json:"applications"`

	ExpectedProfit       float64   `json:"expected_profit"`
	WeightedProbability  float64   `json:"weighted_probability"`
	RiskScore            RiskLevel `json:"risk_score"`
	Recommendation       string    `json:"recommendation"`
	DiversificationScore float64   `json:"diversification_score"`
}

// StrategyComparison is the ranked output of the single-identity
// generator. When no strategy produced any application, all four labeled
// slots carry the "no strategies" sentinel instead of panicking upstream.
type StrategyComparison struct {
	Strategies         []ApplicationStrategy `json:"strategies"`
	BestForProfit      ApplicationStrategy   `json:"best_for_profit"`
	BestForProbability ApplicationStrategy   `json:"best_for_probability"`
	BestForRisk        ApplicationStrategy   `json:"best_for_risk"`
	Recommended        ApplicationStrategy   `json:"recommended"`
}

// UserPortfolio is the investor's available resources for one
// multi-account strategy run. Immutable input.
type UserPortfolio struct {
	TotalCapital      float64 `json:"total_capital"`
	NumRetailAccounts int     `json:"num_retail_accounts"`

	HasHNICapability bool `json:"has_hni_capability,omitempty"`

	// Slugs of open offerings the user holds parent-company shares of.
	ShareholderEligibleIPOs []string `json:"shareholder_eligible_ipos,omitempty"`
}

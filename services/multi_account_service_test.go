package services

import (
	"testing"
	"time"

	"github.com/ipowise/ipo-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clusterOffering(slug string, closeInDays int, costPerLot float64) models.IPOOffering {
	ipo := testOffering(10, 20, 30)
	ipo.Slug = slug
	ipo.Name = slug
	ipo.CompanyName = slug
	ipo.MaxPrice = costPerLot / float64(ipo.LotSize)
	ipo.MinPrice = ipo.MaxPrice
	ipo.CloseDate = time.Now().AddDate(0, 0, closeInDays)
	return ipo
}

func TestClusterByTimeline(t *testing.T) {
	ipos := []models.IPOOffering{
		clusterOffering("late", 6, 15000),
		clusterOffering("first", 1, 15000),
		clusterOffering("second", 2, 15000),
	}

	cluster := clusterByTimeline(ipos)

	require.Len(t, cluster.ConflictCluster, 2)
	require.Len(t, cluster.Pipeline, 1)
	assert.Equal(t, "first", cluster.ConflictCluster[0].Slug)
	assert.Equal(t, "second", cluster.ConflictCluster[1].Slug)
	assert.Equal(t, "late", cluster.Pipeline[0].Slug)
	assert.Equal(t, cluster.ConflictCluster[0].CloseDate, cluster.EarliestClose)
}

func TestClusterByTimelineEmpty(t *testing.T) {
	cluster := clusterByTimeline(nil)
	assert.Empty(t, cluster.ConflictCluster)
	assert.Empty(t, cluster.Pipeline)
}

func TestGenerateStrategiesNoOpenIPOs(t *testing.T) {
	svc := NewMultiAccountService()

	strategies := svc.GenerateStrategies(models.UserPortfolio{TotalCapital: 500000, NumRetailAccounts: 3}, nil)

	require.Len(t, strategies, 1)
	assert.Equal(t, "no-ipos-available", strategies[0].StrategyID)
	assert.Empty(t, strategies[0].Applications)
	assert.Equal(t, models.RiskHigh, strategies[0].RiskScore)
}

func TestGenerateStrategiesInsufficientCapital(t *testing.T) {
	svc := NewMultiAccountService()
	ipos := []models.IPOOffering{clusterOffering("pricey", 1, 50000)}

	strategies := svc.GenerateStrategies(models.UserPortfolio{TotalCapital: 1000, NumRetailAccounts: 2}, ipos)

	require.Len(t, strategies, 1)
	assert.Equal(t, "insufficient-capital-or-pans", strategies[0].StrategyID)
}

func TestShareholderQuotaProRataSizing(t *testing.T) {
	svc := NewMultiAccountService()

	ipo := clusterOffering("holding-co", 1, 15000)
	ipo.HasShareholderQuota = true
	ipo.SharesOfferedShareholder = 100000
	ipo.ApplicationsCountShareholder = 400

	portfolio := models.UserPortfolio{
		TotalCapital:            500000,
		NumRetailAccounts:       3,
		ShareholderEligibleIPOs: []string{"holding-co"},
	}

	strategies := svc.GenerateStrategies(portfolio, []models.IPOOffering{ipo})

	require.Len(t, strategies, 1)
	require.NotEmpty(t, strategies[0].Applications)

	quota := strategies[0].Applications[0]
	assert.Equal(t, models.CategoryRetail, quota.Category)
	assert.Equal(t, 100.0, quota.AllotmentProbability)
	// Pro-rata sizing fills up to the 2L target: 13 lots at 15000.
	assert.Equal(t, 13, quota.NumLots)
	assert.Equal(t, 195000.0, quota.TotalCost)
}

func TestShareholderQuotaLotterySizing(t *testing.T) {
	svc := NewMultiAccountService()

	ipo := clusterOffering("lottery-co", 1, 13500)
	ipo.HasShareholderQuota = true
	ipo.SharesOfferedShareholder = 100000
	ipo.ApplicationsCountShareholder = 5000

	portfolio := models.UserPortfolio{
		TotalCapital:            100000,
		NumRetailAccounts:       2,
		ShareholderEligibleIPOs: []string{"lottery-co"},
	}

	strategies := svc.GenerateStrategies(portfolio, []models.IPOOffering{ipo})

	require.Len(t, strategies, 1)
	require.NotEmpty(t, strategies[0].Applications)

	quota := strategies[0].Applications[0]
	// Lottery mode buys the minimum ticket and keeps lottery odds.
	assert.Equal(t, 1, quota.NumLots)
	assert.Equal(t, 13500.0, quota.TotalCost)
	assert.Less(t, quota.AllotmentProbability, 100.0)
}

func TestFamilySwarmSHNIBand(t *testing.T) {
	svc := NewMultiAccountService()
	ipos := []models.IPOOffering{clusterOffering("swarm-co", 1, 15000)}

	portfolio := models.UserPortfolio{TotalCapital: 250000, NumRetailAccounts: 2}

	strategies := svc.GenerateStrategies(portfolio, ipos)

	require.Len(t, strategies, 1)
	apps := strategies[0].Applications
	require.Len(t, apps, 2)

	// One sHNI application inside the 2L-2.6L band, then a retail
	// cleanup from what remains.
	assert.Equal(t, models.CategorySHNI, apps[0].Category)
	assert.Equal(t, 14, apps[0].NumLots)
	assert.Equal(t, 210000.0, apps[0].TotalCost)

	assert.Equal(t, models.CategoryRetail, apps[1].Category)
	assert.Equal(t, 2, apps[1].NumLots)
	assert.Equal(t, 30000.0, apps[1].TotalCost)

	assert.Equal(t, 240000.0, strategies[0].TotalCost)
}

func TestFamilySwarmRejectsOutOfBandSHNI(t *testing.T) {
	svc := NewMultiAccountService()

	// 90000 per lot: two sHNI lots cost 180000, below the 2L floor, so
	// the sHNI phase must skip it.
	ipos := []models.IPOOffering{clusterOffering("chunky-co", 1, 90000)}
	portfolio := models.UserPortfolio{TotalCapital: 250000, NumRetailAccounts: 2}

	strategies := svc.GenerateStrategies(portfolio, ipos)

	require.Len(t, strategies, 1)
	for _, app := range strategies[0].Applications {
		assert.NotEqual(t, models.CategorySHNI, app.Category)
	}
}

func TestFamilySwarmRespectsPANBudget(t *testing.T) {
	svc := NewMultiAccountService()

	ipos := []models.IPOOffering{
		clusterOffering("one", 1, 15000),
		clusterOffering("two", 1, 15000),
		clusterOffering("three", 2, 15000),
	}
	portfolio := models.UserPortfolio{TotalCapital: 10000000, NumRetailAccounts: 2}

	strategies := svc.GenerateStrategies(portfolio, ipos)

	require.Len(t, strategies, 1)
	assert.LessOrEqual(t, len(strategies[0].Applications), 2)
}

func TestGenerateStrategiesMentionsPipeline(t *testing.T) {
	svc := NewMultiAccountService()

	ipos := []models.IPOOffering{
		clusterOffering("now-co", 1, 15000),
		clusterOffering("later-co", 10, 15000),
	}
	portfolio := models.UserPortfolio{TotalCapital: 300000, NumRetailAccounts: 3}

	strategies := svc.GenerateStrategies(portfolio, ipos)

	require.Len(t, strategies, 1)
	require.NotEmpty(t, strategies[0].Applications)
	assert.Contains(t, strategies[0].Recommendation, "later-co")

	// Only the conflict cluster receives funds.
	for _, app := range strategies[0].Applications {
		assert.Equal(t, "now-co", app.IPO.Slug)
	}
}

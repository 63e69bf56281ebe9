package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	open := now.AddDate(0, 0, -3)
	close := now.AddDate(0, 0, 2)
	listing := now.AddDate(0, 0, 7)

	assert.Equal(t, StatusOpen, DeriveStatus(&open, &close, &listing, now))

	pastClose := now.AddDate(0, 0, -1)
	assert.Equal(t, StatusClosed, DeriveStatus(&open, &pastClose, &listing, now))

	pastListing := now.AddDate(0, 0, -1)
	pastClose = now.AddDate(0, 0, -4)
	assert.Equal(t, StatusListed, DeriveStatus(&open, &pastClose, &pastListing, now))

	future := now.AddDate(0, 0, 5)
	assert.Equal(t, StatusUpcoming, DeriveStatus(&future, nil, nil, now))

	assert.Equal(t, StatusUnknown, DeriveStatus(nil, nil, nil, now))

	// A close date alone still yields CLOSED once it has passed.
	assert.Equal(t, StatusClosed, DeriveStatus(nil, &pastClose, nil, now))
}

func TestDefaultLotBounds(t *testing.T) {
	min, max := DefaultLotBounds(SegmentMainboard, CategoryRetail)
	assert.Equal(t, 1, min)
	assert.Equal(t, 13, max)

	min, max = DefaultLotBounds(SegmentSME, CategoryRetail)
	assert.Equal(t, 1, min)
	assert.Equal(t, 10, max)

	min, max = DefaultLotBounds(SegmentMainboard, CategorySHNI)
	assert.Equal(t, 2, min)
	assert.Equal(t, 14, max)

	min, max = DefaultLotBounds(SegmentSME, CategoryBHNI)
	assert.Equal(t, 5, min)
	assert.Equal(t, 1000, max)
}

func TestOfferingFromRecordDefaults(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	open := now.AddDate(0, 0, -2)
	close := now.AddDate(0, 0, 1)

	rec := &IPO{
		StockID:   "acme-corp",
		Name:      "Acme Corp",
		OpenDate:  &open,
		CloseDate: &close,
	}

	o := OfferingFromRecord(rec, now)

	// Missing slug falls back to the stock identifier; missing company
	// name falls back to the display name.
	assert.Equal(t, "acme-corp", o.Slug)
	assert.Equal(t, "Acme Corp", o.CompanyName)
	assert.Equal(t, SegmentMainboard, o.Segment)
	assert.Equal(t, StatusOpen, o.Status)

	// Unreported subscriptions read as zero, not as oversubscribed.
	assert.Equal(t, 0.0, o.SubscriptionRetail)
	assert.Equal(t, 0.0, o.SubscriptionSNII)

	// Lot bounds take segment defaults when the prospectus omits them.
	assert.Equal(t, 1, o.RetailMinLots)
	assert.Equal(t, 13, o.RetailMaxLots)
	assert.Equal(t, 2, o.SNIIMinLots)
	assert.Equal(t, 14, o.SNIIMaxLots)
	assert.Equal(t, 10, o.BNIIMinLots)
}

func TestOfferingFromRecordSwapsInvertedBand(t *testing.T) {
	low := 110.0
	high := 100.0
	rec := &IPO{StockID: "inv", Name: "Inverted", PriceBandLow: &low, PriceBandHigh: &high}

	o := OfferingFromRecord(rec, time.Now())

	assert.Equal(t, 100.0, o.MinPrice)
	assert.Equal(t, 110.0, o.MaxPrice)
}

func TestOfferingFromRecordSMEBounds(t *testing.T) {
	segment := "SME"
	minLots := 3
	rec := &IPO{StockID: "sme-co", Name: "SME Co", Segment: &segment, RetailMinLots: &minLots}

	o := OfferingFromRecord(rec, time.Now())

	assert.Equal(t, SegmentSME, o.Segment)
	// Explicit bounds win; the omitted maximum still defaults.
	assert.Equal(t, 3, o.RetailMinLots)
	assert.Equal(t, 10, o.RetailMaxLots)
	assert.Equal(t, 2, o.SNIIMinLots)
	assert.Equal(t, 20, o.SNIIMaxLots)
}

func TestCostAndProfitPerLot(t *testing.T) {
	o := IPOOffering{MinPrice: 95, MaxPrice: 100, LotSize: 150, GMPAmount: 20}

	assert.Equal(t, 15000.0, o.CostPerLot())
	assert.Equal(t, 3000.0, o.ProfitPerLot())
}

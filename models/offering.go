package models

import "time"

// MarketSegment determines which category multipliers and lot-limit
// defaults apply to an offering.
type MarketSegment string

const (
	SegmentMainboard MarketSegment = "Mainboard"
	SegmentSME       MarketSegment = "SME"
)

// ApplicationCategory is the closed set of categories a retail-facing
// strategy can apply under. QIB is tracked for display only and is never
// an applicable category here.
type ApplicationCategory string

const (
	CategoryRetail ApplicationCategory = "retail"
	CategorySHNI   ApplicationCategory = "shni"
	CategoryBHNI   ApplicationCategory = "bhni"
)

// AllApplicationCategories lists categories in priority order
// (retail > sHNI > bHNI). Iteration order matters for tie-breaking.
var AllApplicationCategories = []ApplicationCategory{CategoryRetail, CategorySHNI, CategoryBHNI}

// OfferingStatus is derived from the offering's dates relative to now.
type OfferingStatus string

const (
	StatusUpcoming OfferingStatus = "UPCOMING"
	StatusOpen     OfferingStatus = "OPEN"
	StatusClosed   OfferingStatus = "CLOSED"
	StatusListed   OfferingStatus = "LISTED"
	StatusUnknown  OfferingStatus = "UNKNOWN"
)

// AllotmentMode describes how shares under a shareholder quota are allotted.
type AllotmentMode string

const (
	AllotmentProRata AllotmentMode = "PRO_RATA"
	AllotmentLottery AllotmentMode = "LOTTERY"
)

// IPOOffering is the fully-defaulted, immutable snapshot of one issue as
// consumed by the strategy engine. All nullable gateway fields have been
// resolved by OfferingFromRecord; calculation code never defaults inline.
type IPOOffering struct {
	Slug        string        `json:"slug"`
	Name        string        `json:"name"`
	CompanyName string        `json:"company_name"`
	Segment     MarketSegment `json:"segment"`

	MinPrice float64 `json:"min_price"`
	MaxPrice float64 `json:"max_price"`
	LotSize  int     `json:"lot_size"`

	SubscriptionRetail float64 `json:"subscription_retail"`
	SubscriptionSNII   float64 `json:"subscription_snii"`
	SubscriptionBNII   float64 `json:"subscription_bnii"`
	SubscriptionQIB    float64 `json:"subscription_qib"`
	SubscriptionTotal  float64 `json:"subscription_total"`

	GMPAmount  float64 `json:"gmp_amount"`
	GMPPercent float64 `json:"gmp_percent"`

	RetailMinLots int `json:"retail_min_lots"`
	RetailMaxLots int `json:"retail_max_lots"`
	SNIIMinLots   int `json:"snii_min_lots"`
	SNIIMaxLots   int `json:"snii_max_lots"`
	BNIIMinLots   int `json:"bnii_min_lots"`
	BNIIMaxLots   int `json:"bnii_max_lots"`

	HasShareholderQuota          bool `json:"has_shareholder_quota"`
	SharesOfferedShareholder     int  `json:"shares_offered_shareholder"`
	ApplicationsCountShareholder int  `json:"applications_count_shareholder"`

	OpenDate    time.Time  `json:"open_date"`
	CloseDate   time.Time  `json:"close_date"`
	ListingDate *time.Time `json:"listing_date,omitempty"`

	Status OfferingStatus `json:"status"`
}

// CostPerLot is the blocked capital for one application lot (upper band).
func (o *IPOOffering) CostPerLot() float64 {
	return o.MaxPrice * float64(o.LotSize)
}

// ProfitPerLot is the grey-market implied profit for one allotted lot.
func (o *IPOOffering) ProfitPerLot() float64 {
	return o.GMPAmount * float64(o.LotSize)
}

// DefaultLotBounds returns the exchange-rule default lot bounds for a
// category and segment, used whenever the gateway record omits explicit
// bounds. This is the single source of defaulting; both ingestion and
// the calculator route through it.
func DefaultLotBounds(segment MarketSegment, category ApplicationCategory) (minLots, maxLots int) {
	switch category {
	case CategoryRetail:
		if segment == SegmentSME {
			return 1, 10
		}
		return 1, 13
	case CategorySHNI:
		if segment == SegmentSME {
			return 2, 20
		}
		return 2, 14
	case CategoryBHNI:
		// bHNI has no practical upper limit.
		if segment == SegmentSME {
			return 5, 1000
		}
		return 10, 1000
	}
	return 1, 10
}

// DeriveStatus computes the lifecycle status from the offering dates
// relative to now. Missing dates degrade to the most specific status
// still derivable.
func DeriveStatus(openDate, closeDate, listingDate *time.Time, now time.Time) OfferingStatus {
	if listingDate != nil && now.After(*listingDate) {
		return StatusListed
	}
	if closeDate != nil && now.After(*closeDate) {
		return StatusClosed
	}
	if openDate != nil && now.After(*openDate) {
		return StatusOpen
	}
	if openDate != nil && now.Before(*openDate) {
		return StatusUpcoming
	}
	return StatusUnknown
}

// OfferingFromRecord builds the fully-defaulted offering snapshot from a
// raw gateway row. This is the only place nullable upstream fields are
// resolved: absent subscription figures become 0 ("not yet subscribed"),
// absent lot bounds take segment defaults, and the status is derived
// from the dates.
func OfferingFromRecord(rec *IPO, now time.Time) IPOOffering {
	segment := SegmentMainboard
	if rec.Segment != nil && *rec.Segment == string(SegmentSME) {
		segment = SegmentSME
	}

	o := IPOOffering{
		Slug:        derefString(rec.Slug),
		Name:        rec.Name,
		CompanyName: rec.Name,
		Segment:     segment,

		MinPrice: derefFloat(rec.PriceBandLow),
		MaxPrice: derefFloat(rec.PriceBandHigh),
		LotSize:  derefInt(rec.LotSize),

		SubscriptionRetail: derefFloat(rec.SubscriptionRetail),
		SubscriptionSNII:   derefFloat(rec.SubscriptionSNII),
		SubscriptionBNII:   derefFloat(rec.SubscriptionBNII),
		SubscriptionQIB:    derefFloat(rec.SubscriptionQIB),
		SubscriptionTotal:  derefFloat(rec.SubscriptionTotal),

		GMPAmount:  derefFloat(rec.GMPAmount),
		GMPPercent: derefFloat(rec.GMPPercent),

		HasShareholderQuota:          rec.HasShareholderQuota,
		SharesOfferedShareholder:     derefInt(rec.SharesOfferedShareholder),
		ApplicationsCountShareholder: derefInt(rec.ApplicationsCountShareholder),

		ListingDate: rec.ListingDate,
	}

	if rec.CompanyName != nil && *rec.CompanyName != "" {
		o.CompanyName = *rec.CompanyName
	}
	if o.Slug == "" {
		o.Slug = rec.StockID
	}
	if o.MinPrice > o.MaxPrice {
		o.MinPrice, o.MaxPrice = o.MaxPrice, o.MinPrice
	}

	if rec.OpenDate != nil {
		o.OpenDate = *rec.OpenDate
	}
	if rec.CloseDate != nil {
		o.CloseDate = *rec.CloseDate
	}

	o.RetailMinLots, o.RetailMaxLots = boundOrDefault(rec.RetailMinLots, rec.RetailMaxLots, segment, CategoryRetail)
	o.SNIIMinLots, o.SNIIMaxLots = boundOrDefault(rec.SNIIMinLots, rec.SNIIMaxLots, segment, CategorySHNI)
	o.BNIIMinLots, o.BNIIMaxLots = boundOrDefault(rec.BNIIMinLots, rec.BNIIMaxLots, segment, CategoryBHNI)

	o.Status = DeriveStatus(rec.OpenDate, rec.CloseDate, rec.ListingDate, now)

	return o
}

func boundOrDefault(min, max *int, segment MarketSegment, category ApplicationCategory) (int, int) {
	defMin, defMax := DefaultLotBounds(segment, category)
	lo, hi := defMin, defMax
	if min != nil && *min > 0 {
		lo = *min
	}
	if max != nil && *max > 0 {
		hi = *max
	}
	return lo, hi
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

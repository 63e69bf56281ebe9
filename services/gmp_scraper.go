package services

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/ipowise/ipo-backend/models"
	"github.com/ipowise/ipo-backend/shared"
	"github.com/sirupsen/logrus"
)

// GMPScraperService scrapes live grey-market premium figures from
// InvestorGain and merges them into the offering table. The GMP report
// is rendered client-side, so the page goes through a headless browser
// before goquery parses the table.
type GMPScraperService struct {
	configuration      *shared.ServiceConfig
	requestRateLimiter *shared.HTTPRequestRateLimiter
	circuitBreaker     *shared.ScrapeCircuitBreaker
	utilityService     *UtilityService
	ipoService         *IPOService
	extractionMetrics  *shared.ExtractionMetrics
	serviceMetrics     *shared.ServiceMetrics
}

// NewGMPScraperService creates a new GMP scraper with configuration-driven initialization
func NewGMPScraperService(config *shared.ServiceConfig, ipoService *IPOService) *GMPScraperService {
	if config == nil {
		gmpConfig := shared.NewGMPServiceConfig()
		config = &gmpConfig
	}

	var serviceMetrics *shared.ServiceMetrics
	if config.EnableMetrics {
		serviceMetrics = shared.NewServiceMetrics("GMP_Scraper")
	}

	service := &GMPScraperService{
		configuration:      config,
		requestRateLimiter: shared.NewHTTPRequestRateLimiter(config.RequestRateLimit),
		circuitBreaker:     shared.NewScrapeCircuitBreaker("GMP_Scraper", 0.5),
		utilityService:     NewUtilityService(),
		ipoService:         ipoService,
		extractionMetrics:  shared.NewExtractionMetrics(),
		serviceMetrics:     serviceMetrics,
	}

	logrus.WithFields(logrus.Fields{
		"component":    "GMPScraperService",
		"base_url":     config.BaseURL,
		"http_timeout": config.HTTPRequestTimeout,
		"rate_limit":   config.RequestRateLimit,
	}).Info("GMP scraper initialized")

	return service
}

// FetchGMPData scrapes the live GMP table and returns the parsed rows.
func (s *GMPScraperService) FetchGMPData(ctx context.Context) ([]models.GMPData, error) {
	startTime := time.Now()

	logger := logrus.WithFields(logrus.Fields{
		"component": "GMPScraperService",
		"method":    "FetchGMPData",
		"base_url":  s.configuration.BaseURL,
	})

	logger.Info("Starting GMP data extraction")

	if !s.circuitBreaker.Allow() {
		return nil, shared.NewServiceError(
			shared.ErrorCategoryResource,
			"SCRAPER_CIRCUIT_OPEN",
			"GMP scraper circuit breaker is open, skipping request",
			"GMP_Scraper",
			"FetchGMPData",
			true,
			nil,
		)
	}

	s.requestRateLimiter.EnforceRateLimit()

	html, err := s.renderReportPage(ctx)
	if err != nil {
		s.circuitBreaker.RecordFailure()
		if s.serviceMetrics != nil {
			s.serviceMetrics.RecordRequest(false, time.Since(startTime))
		}

		wrappedError := shared.NewServiceError(
			shared.ErrorCategoryNetwork,
			"CHROMEDP_SCRAPING_FAILED",
			"Failed to render GMP report page",
			"GMP_Scraper",
			"FetchGMPData",
			true,
			err,
		)
		wrappedError.LogError()
		return nil, wrappedError
	}

	s.circuitBreaker.RecordSuccess()

	document, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		s.extractionMetrics.RecordHTMLParseError()
		if s.serviceMetrics != nil {
			s.serviceMetrics.RecordRequest(false, time.Since(startTime))
		}
		return nil, shared.WrapError(err, shared.ErrorCategoryProcessing,
			"HTML_PARSE_FAILED", "GMP_Scraper", "FetchGMPData", false)
	}

	gmpList := s.parseReportTable(document)

	if s.serviceMetrics != nil {
		s.serviceMetrics.RecordRequest(true, time.Since(startTime))
	}

	logger.WithFields(logrus.Fields{
		"records":         len(gmpList),
		"processing_time": time.Since(startTime),
	}).Info("Successfully completed GMP data extraction")

	return gmpList, nil
}

// renderReportPage loads the report in a headless browser and returns
// the rendered HTML.
func (s *GMPScraperService) renderReportPage(ctx context.Context) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.Flag("mute-audio", true),
		chromedp.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, s.configuration.HTTPRequestTimeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(1920, 1080),
		chromedp.Navigate(s.configuration.BaseURL),
		chromedp.WaitVisible("div#reportData table tbody tr", chromedp.ByQuery),
		chromedp.OuterHTML("div#reportData", &html, chromedp.ByQuery),
	)
	return html, err
}

// parseReportTable extracts GMP rows from the rendered report table.
func (s *GMPScraperService) parseReportTable(document *goquery.Document) []models.GMPData {
	var gmpList []models.GMPData
	now := time.Now()

	document.Find("table tbody tr").Each(func(rowIndex int, row *goquery.Selection) {
		cells := row.Find("td").Map(func(_ int, cell *goquery.Selection) string {
			return strings.TrimSpace(cell.Text())
		})

		if len(cells) < 6 {
			return
		}

		name := s.utilityService.NormalizeTextContent(cells[0])
		if name == "" || strings.EqualFold(name, "IPO Name") {
			return
		}

		price := s.utilityService.ExtractNumeric(cells[5])
		gmpValue, gainPercent := s.parseGMPString(cells[1])

		var listingDate *time.Time
		if len(cells) > 10 {
			listingDate = s.utilityService.ParseDate(cells[10])
		}

		if price <= 0 && gmpValue == 0 {
			s.extractionMetrics.RecordRowAttempt(false)
			logrus.WithFields(logrus.Fields{
				"record_index": rowIndex,
				"ipo_name":     name,
			}).Warn("Skipping GMP record with no usable figures")
			return
		}

		s.extractionMetrics.RecordRowAttempt(true)

		gmpList = append(gmpList, models.GMPData{
			IPOName:          name,
			StockID:          s.utilityService.GenerateSlug(name),
			IPOPrice:         price,
			GMPValue:         gmpValue,
			GainPercent:      gainPercent,
			EstimatedListing: price + gmpValue,
			ListingDate:      listingDate,
			DataSource:       "investorgain",
			LastUpdated:      now,
		})
	})

	return gmpList
}

// parseGMPString extracts GMP value and percentage from text like "₹21 (25.61%)"
func (s *GMPScraperService) parseGMPString(gmpText string) (float64, float64) {
	normalizedText := s.utilityService.NormalizeTextContent(gmpText)

	cleanedText := strings.ReplaceAll(normalizedText, "₹", "")
	cleanedText = strings.ReplaceAll(cleanedText, ",", "")
	cleanedText = strings.TrimSpace(cleanedText)

	parts := strings.Split(cleanedText, "(")
	if len(parts) < 2 {
		val := s.utilityService.ExtractNumeric(cleanedText)
		return val, 0.0
	}

	val := s.utilityService.ExtractNumeric(strings.TrimSpace(parts[0]))

	pctStr := strings.ReplaceAll(strings.TrimSpace(parts[1]), ")", "")
	pct := s.utilityService.ExtractPercentage(pctStr)

	return val, pct
}

// SyncGMPData fetches the live GMP table and merges every row that
// matches a known offering. Rows for unknown issues are counted and
// skipped; one bad row never aborts the batch.
func (s *GMPScraperService) SyncGMPData(ctx context.Context) (int, error) {
	gmpList, err := s.FetchGMPData(ctx)
	if err != nil && shared.IsRetryableError(err) && !s.circuitBreaker.IsOpen() {
		logrus.WithField("error", err).Warn("Retrying GMP fetch after transient failure")
		gmpList, err = s.FetchGMPData(ctx)
	}
	if err != nil {
		return 0, err
	}

	offerings, err := s.ipoService.GetIPOs(ctx, "all")
	if err != nil {
		return 0, shared.WrapError(err, shared.ErrorCategoryDatabase,
			"OFFERING_LOOKUP_FAILED", "GMP_Scraper", "SyncGMPData", true)
	}

	byNormalizedName := make(map[string]*models.IPO, len(offerings))
	for i := range offerings {
		byNormalizedName[s.utilityService.NormalizeIPOName(offerings[i].Name)] = &offerings[i]
	}

	updated := 0
	unmatched := 0

	for _, gmp := range gmpList {
		offering, ok := byNormalizedName[s.utilityService.NormalizeIPOName(gmp.IPOName)]
		s.extractionMetrics.RecordMatchAttempt(ok)
		if !ok {
			unmatched++
			continue
		}

		if err := s.ipoService.UpdateGMP(ctx, offering.StockID, gmp.GMPValue, gmp.GainPercent, gmp.DataSource); err != nil {
			logrus.WithFields(logrus.Fields{
				"stock_id": offering.StockID,
				"ipo_name": gmp.IPOName,
				"error":    err,
			}).Warn("Failed to merge GMP record")
			continue
		}
		updated++
	}

	logrus.WithFields(logrus.Fields{
		"scraped":   len(gmpList),
		"updated":   updated,
		"unmatched": unmatched,
	}).Info("GMP sync completed")

	return updated, nil
}

// GetServiceMetrics returns the scraper service metrics
func (s *GMPScraperService) GetServiceMetrics() *shared.ServiceMetrics {
	return s.serviceMetrics
}

// LogMetricsSummary logs the scraper metrics summary
func (s *GMPScraperService) LogMetricsSummary() {
	if s.serviceMetrics != nil {
		s.serviceMetrics.LogSummary()
	}
	s.extractionMetrics.LogSummary()
}

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/ipowise/ipo-backend/models"
	"github.com/ipowise/ipo-backend/shared"
	"github.com/sirupsen/logrus"
)

// SubscriptionScraperService scrapes live per-category oversubscription
// figures for open issues and merges them into the offering table. The
// subscription pages are server-rendered tables, so a plain colly
// collector is enough here.
type SubscriptionScraperService struct {
	configuration      *shared.ServiceConfig
	requestRateLimiter *shared.HTTPRequestRateLimiter
	circuitBreaker     *shared.ScrapeCircuitBreaker
	utilityService     *UtilityService
	ipoService         *IPOService
	extractionMetrics  *shared.ExtractionMetrics
	serviceMetrics     *shared.ServiceMetrics
	httpMetrics        *shared.HTTPMetrics
}

// NewSubscriptionScraperService creates a new subscription scraper
func NewSubscriptionScraperService(config *shared.ServiceConfig, ipoService *IPOService) *SubscriptionScraperService {
	if config == nil {
		scraperConfig := shared.NewSubscriptionScraperConfig()
		config = &scraperConfig
	}

	var serviceMetrics *shared.ServiceMetrics
	if config.EnableMetrics {
		serviceMetrics = shared.NewServiceMetrics("Subscription_Scraper")
	}

	service := &SubscriptionScraperService{
		configuration:      config,
		requestRateLimiter: shared.NewHTTPRequestRateLimiter(config.RequestRateLimit),
		circuitBreaker:     shared.NewScrapeCircuitBreaker("Subscription_Scraper", 0.5),
		utilityService:     NewUtilityService(),
		ipoService:         ipoService,
		extractionMetrics:  shared.NewExtractionMetrics(),
		serviceMetrics:     serviceMetrics,
		httpMetrics:        shared.NewHTTPMetrics(),
	}

	logrus.WithFields(logrus.Fields{
		"component":  "SubscriptionScraperService",
		"base_url":   config.BaseURL,
		"rate_limit": config.RequestRateLimit,
	}).Info("Subscription scraper initialized")

	return service
}

// FetchSubscriptionData scrapes the subscription page of one issue and
// returns the parsed per-category ratios.
func (s *SubscriptionScraperService) FetchSubscriptionData(slug string) (*models.SubscriptionData, error) {
	startTime := time.Now()
	pageURL := fmt.Sprintf("%s/ipo-subscription/%s/", s.configuration.BaseURL, slug)

	logger := logrus.WithFields(logrus.Fields{
		"component": "SubscriptionScraperService",
		"method":    "FetchSubscriptionData",
		"url":       pageURL,
	})

	if !s.circuitBreaker.Allow() {
		return nil, shared.NewServiceError(
			shared.ErrorCategoryResource,
			"SCRAPER_CIRCUIT_OPEN",
			"Subscription scraper circuit breaker is open, skipping request",
			"Subscription_Scraper",
			"FetchSubscriptionData",
			true,
			nil,
		)
	}

	s.requestRateLimiter.EnforceRateLimit()

	c := colly.NewCollector()
	c.SetRequestTimeout(s.configuration.HTTPRequestTimeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	})

	var sub *models.SubscriptionData
	var scrapeErr error
	var statusCode int

	c.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
	})

	c.OnError(func(r *colly.Response, err error) {
		scrapeErr = err
		statusCode = r.StatusCode
		logger.WithFields(logrus.Fields{
			"status_code": r.StatusCode,
			"error":       err,
		}).Warn("Subscription page request failed")
	})

	c.OnHTML("table", func(table *colly.HTMLElement) {
		if sub != nil {
			return
		}

		rows := s.utilityService.ParseHTMLTable(table)
		if parsed := s.parseSubscriptionRows(rows); parsed != nil {
			parsed.StockID = slug
			parsed.DataSource = "chittorgarh"
			parsed.LastUpdated = time.Now()
			sub = parsed
		}
	})

	if err := c.Visit(pageURL); err != nil {
		scrapeErr = err
	}
	c.Wait()

	succeeded := scrapeErr == nil && sub != nil
	if s.serviceMetrics != nil {
		s.serviceMetrics.RecordRequest(succeeded, time.Since(startTime))
	}

	var errorType string
	var isTimeout bool
	if scrapeErr != nil {
		errorType = "request_failed"
		isTimeout = strings.Contains(strings.ToLower(scrapeErr.Error()), "timeout")
		if isTimeout {
			errorType = "timeout"
		}
	} else if sub == nil {
		errorType = "table_not_found"
	}
	s.httpMetrics.RecordHTTPRequest(succeeded, statusCode, time.Since(startTime), errorType, isTimeout)

	if scrapeErr != nil {
		s.circuitBreaker.RecordFailure()
		wrappedError := shared.NewServiceError(
			shared.ErrorCategoryNetwork,
			"SUBSCRIPTION_SCRAPING_FAILED",
			"Failed to scrape subscription page",
			"Subscription_Scraper",
			"FetchSubscriptionData",
			true,
			scrapeErr,
		)
		wrappedError.LogError()
		return nil, wrappedError
	}

	// The page was reachable, so the breaker counts this as healthy
	// even when no table could be parsed out of it.
	s.circuitBreaker.RecordSuccess()

	if sub == nil {
		s.extractionMetrics.RecordRowAttempt(false)
		return nil, shared.NewServiceError(
			shared.ErrorCategoryProcessing,
			"SUBSCRIPTION_TABLE_NOT_FOUND",
			"No subscription table found on page",
			"Subscription_Scraper",
			"FetchSubscriptionData",
			false,
			nil,
		)
	}

	s.extractionMetrics.RecordRowAttempt(true)
	logger.WithFields(logrus.Fields{
		"retail": sub.Retail,
		"snii":   sub.SNII,
		"bnii":   sub.BNII,
		"qib":    sub.QIB,
		"total":  sub.Total,
	}).Info("Subscription figures extracted")

	return sub, nil
}

// parseSubscriptionRows maps fuzzy-matched table rows onto the category
// ratios. A table qualifies only when at least the retail or total
// figure is present; NII splits fall back to the combined NII row when
// the page does not break them out.
func (s *SubscriptionScraperService) parseSubscriptionRows(rows []TableRow) *models.SubscriptionData {
	ratioFor := func(field string) *float64 {
		row, found := s.utilityService.FindTableRowByLabel(rows, s.utilityService.GetTargetLabelsForField(field))
		if !found {
			return nil
		}
		return s.utilityService.ParseSubscriptionRatio(row.Value)
	}

	retail := ratioFor("subscription_retail")
	snii := ratioFor("subscription_snii")
	bnii := ratioFor("subscription_bnii")
	qib := ratioFor("subscription_qib")
	total := ratioFor("subscription_total")

	if snii == nil && bnii == nil {
		if nii := ratioFor("subscription_nii"); nii != nil {
			snii = nii
			bnii = nii
		}
	}

	if retail == nil && total == nil {
		return nil
	}

	deref := func(v *float64) float64 {
		if v == nil {
			return 0
		}
		return *v
	}

	return &models.SubscriptionData{
		Retail: deref(retail),
		SNII:   deref(snii),
		BNII:   deref(bnii),
		QIB:    deref(qib),
		Total:  deref(total),
	}
}

// fetchWithRetry retries transient scrape failures up to the configured
// attempt budget. Non-retryable errors and an open circuit abort the
// loop immediately.
func (s *SubscriptionScraperService) fetchWithRetry(slug string) (*models.SubscriptionData, error) {
	attempts := s.configuration.MaxRetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		sub, err := s.FetchSubscriptionData(slug)
		if err == nil {
			return sub, nil
		}
		lastErr = err

		if !shared.IsRetryableError(err) || s.circuitBreaker.IsOpen() {
			break
		}

		if attempt < attempts {
			s.httpMetrics.RecordRetryAttempt()
			logrus.WithFields(logrus.Fields{
				"slug":    slug,
				"attempt": attempt,
				"error":   err,
			}).Warn("Retrying subscription fetch after transient failure")
		}
	}

	return nil, lastErr
}

// SyncSubscriptionData refreshes the subscription figures of every open
// offering. One failing issue never aborts the batch.
func (s *SubscriptionScraperService) SyncSubscriptionData(ctx context.Context) (int, error) {
	openIPOs, err := s.ipoService.GetIPOs(ctx, "open")
	if err != nil {
		return 0, shared.WrapError(err, shared.ErrorCategoryDatabase,
			"OFFERING_LOOKUP_FAILED", "Subscription_Scraper", "SyncSubscriptionData", true)
	}

	updated := 0
	failed := 0

	for i := range openIPOs {
		ipo := &openIPOs[i]

		slug := ipo.StockID
		if ipo.Slug != nil && *ipo.Slug != "" {
			slug = *ipo.Slug
		}

		sub, err := s.fetchWithRetry(slug)
		if err != nil {
			failed++
			logrus.WithFields(logrus.Fields{
				"stock_id": ipo.StockID,
				"error":    err,
			}).Warn("Failed to fetch subscription figures")
			continue
		}

		if err := s.ipoService.UpdateSubscription(ctx, ipo.StockID, *sub, sub.DataSource); err != nil {
			failed++
			logrus.WithFields(logrus.Fields{
				"stock_id": ipo.StockID,
				"error":    err,
			}).Warn("Failed to merge subscription figures")
			continue
		}
		updated++
	}

	logrus.WithFields(logrus.Fields{
		"open_ipos": len(openIPOs),
		"updated":   updated,
		"failed":    failed,
	}).Info("Subscription sync completed")

	return updated, nil
}

// GetServiceMetrics returns the scraper service metrics
func (s *SubscriptionScraperService) GetServiceMetrics() *shared.ServiceMetrics {
	return s.serviceMetrics
}

// LogMetricsSummary logs the scraper metrics summary
func (s *SubscriptionScraperService) LogMetricsSummary() {
	if s.serviceMetrics != nil {
		s.serviceMetrics.LogSummary()
	}
	s.httpMetrics.LogHTTPSummary()
	s.extractionMetrics.LogSummary()
}

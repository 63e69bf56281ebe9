package services

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ipowise/ipo-backend/models"
	"github.com/ipowise/ipo-backend/shared"
	"github.com/sirupsen/logrus"
)

// IPOAuditLogger provides audit logging for offering write operations
type IPOAuditLogger struct {
	serviceName string
}

// NewIPOAuditLogger creates a new audit logger
func NewIPOAuditLogger() *IPOAuditLogger {
	return &IPOAuditLogger{
		serviceName: "ipo-service",
	}
}

// AuditEntry represents a single audit log entry
type AuditEntry struct {
	Timestamp   time.Time              `json:"timestamp"`
	ServiceName string                 `json:"service_name"`
	Operation   string                 `json:"operation"`
	EntityType  string                 `json:"entity_type"`
	EntityID    string                 `json:"entity_id"`
	Changes     map[string]interface{} `json:"changes,omitempty"`
	Success     bool                   `json:"success"`
	ErrorMsg    *string                `json:"error_msg,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// LogOfferingUpsert logs create-or-update operations on an offering row
func (a *IPOAuditLogger) LogOfferingUpsert(before, after *models.IPO, success bool, errorMsg *string) {
	operation := "CREATE"
	var changes map[string]interface{}
	if before != nil {
		operation = "UPDATE"
		changes = a.calculateChanges(before, after)
	}

	entry := AuditEntry{
		Timestamp:   time.Now(),
		ServiceName: a.serviceName,
		Operation:   operation,
		EntityType:  "IPO",
		EntityID:    after.StockID,
		Changes:     changes,
		Success:     success,
		ErrorMsg:    errorMsg,
		Metadata: map[string]interface{}{
			"company_name": after.Name,
			"status":       after.Status,
		},
	}

	a.logAuditEntry(entry)
}

// LogMarketDataUpdate logs GMP and subscription refreshes from the scrapers
func (a *IPOAuditLogger) LogMarketDataUpdate(stockID, field string, success bool, errorMsg *string) {
	entry := AuditEntry{
		Timestamp:   time.Now(),
		ServiceName: a.serviceName,
		Operation:   "MARKET_DATA_UPDATE",
		EntityType:  "IPO",
		EntityID:    stockID,
		Success:     success,
		ErrorMsg:    errorMsg,
		Metadata: map[string]interface{}{
			"field": field,
		},
	}

	a.logAuditEntry(entry)
}

// calculateChanges compares two offering rows and returns the changed fields
func (a *IPOAuditLogger) calculateChanges(before, after *models.IPO) map[string]interface{} {
	changes := make(map[string]interface{})

	if before.Name != after.Name {
		changes["name"] = map[string]interface{}{"before": before.Name, "after": after.Name}
	}
	if before.Status != after.Status {
		changes["status"] = map[string]interface{}{"before": before.Status, "after": after.Status}
	}

	if !a.compareFloatPointers(before.PriceBandLow, after.PriceBandLow) {
		changes["price_band_low"] = map[string]interface{}{"before": before.PriceBandLow, "after": after.PriceBandLow}
	}
	if !a.compareFloatPointers(before.PriceBandHigh, after.PriceBandHigh) {
		changes["price_band_high"] = map[string]interface{}{"before": before.PriceBandHigh, "after": after.PriceBandHigh}
	}
	if !a.compareFloatPointers(before.GMPAmount, after.GMPAmount) {
		changes["gmp_amount"] = map[string]interface{}{"before": before.GMPAmount, "after": after.GMPAmount}
	}
	if !a.compareFloatPointers(before.SubscriptionTotal, after.SubscriptionTotal) {
		changes["subscription_total"] = map[string]interface{}{"before": before.SubscriptionTotal, "after": after.SubscriptionTotal}
	}

	if !a.compareDates(before.OpenDate, after.OpenDate) {
		changes["open_date"] = map[string]interface{}{"before": before.OpenDate, "after": after.OpenDate}
	}
	if !a.compareDates(before.CloseDate, after.CloseDate) {
		changes["close_date"] = map[string]interface{}{"before": before.CloseDate, "after": after.CloseDate}
	}
	if !a.compareDates(before.ListingDate, after.ListingDate) {
		changes["listing_date"] = map[string]interface{}{"before": before.ListingDate, "after": after.ListingDate}
	}

	return changes
}

// compareDates compares two time pointers
func (a *IPOAuditLogger) compareDates(date1, date2 *time.Time) bool {
	if date1 == nil && date2 == nil {
		return true
	}
	if date1 == nil || date2 == nil {
		return false
	}
	return date1.Equal(*date2)
}

// compareFloatPointers compares two float pointers
func (a *IPOAuditLogger) compareFloatPointers(f1, f2 *float64) bool {
	if f1 == nil && f2 == nil {
		return true
	}
	if f1 == nil || f2 == nil {
		return false
	}
	return *f1 == *f2
}

// logAuditEntry logs the audit entry using structured logging
func (a *IPOAuditLogger) logAuditEntry(entry AuditEntry) {
	logFields := logrus.Fields{
		"audit_timestamp": entry.Timestamp,
		"service_name":    entry.ServiceName,
		"operation":       entry.Operation,
		"entity_type":     entry.EntityType,
		"entity_id":       entry.EntityID,
		"success":         entry.Success,
	}

	if entry.ErrorMsg != nil {
		logFields["error_msg"] = *entry.ErrorMsg
	}

	if len(entry.Changes) > 0 {
		logFields["changes"] = entry.Changes
	}

	for key, value := range entry.Metadata {
		logFields["meta_"+key] = value
	}

	if entry.Success {
		logrus.WithFields(logFields).Info("Audit log entry")
	} else {
		logrus.WithFields(logFields).Warn("Audit log entry - operation failed")
	}
}

// IPOService is the Postgres gateway for offering rows.
type IPOService struct {
	DB             *sql.DB
	UtilityService *UtilityService
	auditLogger    *IPOAuditLogger
	dbOptimizer    *DatabaseOptimizer
	serviceMetrics *shared.ServiceMetrics
	dbMetrics      *shared.DatabaseMetrics
}

// DatabaseOptimizer provides database optimization features
type DatabaseOptimizer struct {
	db             *sql.DB
	connectionPool *shared.DatabaseConfig
	retryConfig    *RetryConfig
	queryOptimizer *QueryOptimizer
}

// RetryConfig holds retry configuration for database operations
type RetryConfig struct {
	MaxRetries    int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// QueryOptimizer provides query optimization features
type QueryOptimizer struct {
	enableQueryLogging bool
	slowQueryThreshold time.Duration
}

// NewDatabaseOptimizer creates a new database optimizer
func NewDatabaseOptimizer(db *sql.DB) *DatabaseOptimizer {
	config := shared.NewDefaultUnifiedConfiguration()

	return &DatabaseOptimizer{
		db:             db,
		connectionPool: &config.Database,
		retryConfig: &RetryConfig{
			MaxRetries:    3,
			BaseDelay:     100 * time.Millisecond,
			MaxDelay:      2 * time.Second,
			BackoffFactor: 2.0,
		},
		queryOptimizer: &QueryOptimizer{
			enableQueryLogging: true,
			slowQueryThreshold: 500 * time.Millisecond,
		},
	}
}

// ConfigureConnectionPool configures the database connection pool
func (opt *DatabaseOptimizer) ConfigureConnectionPool() {
	opt.db.SetMaxOpenConns(opt.connectionPool.MaxOpenConns)
	opt.db.SetMaxIdleConns(opt.connectionPool.MaxIdleConns)
	opt.db.SetConnMaxLifetime(opt.connectionPool.ConnMaxLifetime)
	opt.db.SetConnMaxIdleTime(opt.connectionPool.ConnMaxIdleTime)

	logrus.WithFields(logrus.Fields{
		"max_open_conns":     opt.connectionPool.MaxOpenConns,
		"max_idle_conns":     opt.connectionPool.MaxIdleConns,
		"conn_max_lifetime":  opt.connectionPool.ConnMaxLifetime,
		"conn_max_idle_time": opt.connectionPool.ConnMaxIdleTime,
	}).Info("Database connection pool configured")
}

// ExecuteWithRetry executes a database operation with exponential backoff retry
func (opt *DatabaseOptimizer) ExecuteWithRetry(ctx context.Context, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt <= opt.retryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(opt.retryConfig.BaseDelay) *
				math.Pow(opt.retryConfig.BackoffFactor, float64(attempt-1)))

			if delay > opt.retryConfig.MaxDelay {
				delay = opt.retryConfig.MaxDelay
			}

			logrus.WithFields(logrus.Fields{
				"attempt": attempt,
				"delay":   delay,
				"error":   lastErr,
			}).Warn("Retrying database operation")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		startTime := time.Now()
		err := operation()
		duration := time.Since(startTime)

		if opt.queryOptimizer.enableQueryLogging && duration > opt.queryOptimizer.slowQueryThreshold {
			logrus.WithFields(logrus.Fields{
				"duration": duration,
				"attempt":  attempt,
			}).Warn("Slow database query detected")
		}

		if err == nil {
			if attempt > 0 {
				logrus.WithFields(logrus.Fields{
					"attempt":  attempt,
					"duration": duration,
				}).Info("Database operation succeeded after retry")
			}
			return nil
		}

		lastErr = err

		if !opt.isRetryableError(err) {
			logrus.WithFields(logrus.Fields{
				"error": err,
			}).Debug("Non-retryable database error")
			return err
		}
	}

	logrus.WithFields(logrus.Fields{
		"max_retries": opt.retryConfig.MaxRetries,
		"final_error": lastErr,
	}).Error("Database operation failed after all retries")

	return fmt.Errorf("database operation failed after %d retries: %w", opt.retryConfig.MaxRetries, lastErr)
}

// isRetryableError determines if a database error is retryable
func (opt *DatabaseOptimizer) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	retryableErrors := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"deadlock",
		"lock wait timeout",
		"connection lost",
		"server shutdown",
	}

	for _, retryableErr := range retryableErrors {
		if strings.Contains(errStr, retryableErr) {
			return true
		}
	}

	return false
}

func NewIPOService(db *sql.DB) *IPOService {
	utilityService := NewUtilityService()
	dbOptimizer := NewDatabaseOptimizer(db)

	dbOptimizer.ConfigureConnectionPool()

	return &IPOService{
		DB:             db,
		UtilityService: utilityService,
		auditLogger:    NewIPOAuditLogger(),
		dbOptimizer:    dbOptimizer,
		serviceMetrics: shared.NewServiceMetrics("IPO_Service"),
		dbMetrics:      shared.NewDatabaseMetrics(),
	}
}

const ipoColumns = `id, stock_id, name, company_name, slug, segment,
              price_band_low, price_band_high, lot_size, issue_size,
              subscription_retail, subscription_snii, subscription_bnii, subscription_qib, subscription_total,
              gmp_amount, gmp_percent,
              retail_min_lots, retail_max_lots, snii_min_lots, snii_max_lots, bnii_min_lots, bnii_max_lots,
              has_shareholder_quota, shares_offered_shareholder, applications_count_shareholder,
              open_date, close_date, listing_date, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanIPO(row rowScanner) (*models.IPO, error) {
	var ipo models.IPO
	err := row.Scan(
		&ipo.ID, &ipo.StockID, &ipo.Name, &ipo.CompanyName, &ipo.Slug, &ipo.Segment,
		&ipo.PriceBandLow, &ipo.PriceBandHigh, &ipo.LotSize, &ipo.IssueSize,
		&ipo.SubscriptionRetail, &ipo.SubscriptionSNII, &ipo.SubscriptionBNII, &ipo.SubscriptionQIB, &ipo.SubscriptionTotal,
		&ipo.GMPAmount, &ipo.GMPPercent,
		&ipo.RetailMinLots, &ipo.RetailMaxLots, &ipo.SNIIMinLots, &ipo.SNIIMaxLots, &ipo.BNIIMinLots, &ipo.BNIIMaxLots,
		&ipo.HasShareholderQuota, &ipo.SharesOfferedShareholder, &ipo.ApplicationsCountShareholder,
		&ipo.OpenDate, &ipo.CloseDate, &ipo.ListingDate, &ipo.Status, &ipo.CreatedAt, &ipo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ipo, nil
}

// recalculateStatus refreshes the stored status from the issue dates.
// Statuses go stale between scraper runs, so reads always rederive.
func (s *IPOService) recalculateStatus(ipo *models.IPO) {
	ipo.Status = string(models.DeriveStatus(ipo.OpenDate, ipo.CloseDate, ipo.ListingDate, time.Now()))
}

// GetIPOs returns offering rows filtered by status keyword: open,
// upcoming, closed, listed, or all.
func (s *IPOService) GetIPOs(ctx context.Context, status string) ([]models.IPO, error) {
	baseQuery := `SELECT ` + ipoColumns + ` FROM ipo_offerings`

	var query string
	switch status {
	case "open":
		query = baseQuery + ` WHERE status = 'OPEN'`
	case "upcoming":
		query = baseQuery + ` WHERE status = 'UPCOMING'`
	case "closed":
		query = baseQuery + ` WHERE status = 'CLOSED'`
	case "listed":
		query = baseQuery + ` WHERE status = 'LISTED'`
	case "all", "":
		query = baseQuery
	default:
		// Invalid filter falls back to all
		query = baseQuery
	}

	query += ` ORDER BY close_date ASC NULLS LAST, created_at DESC`

	startTime := time.Now()
	rows, err := s.DB.QueryContext(ctx, query)
	s.dbMetrics.RecordQuery(err == nil, time.Since(startTime), false)
	if err != nil {
		return nil, fmt.Errorf("failed to query IPOs: %w", err)
	}
	defer rows.Close()

	var ipos []models.IPO
	for rows.Next() {
		ipo, err := scanIPO(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan IPO row: %w", err)
		}

		s.recalculateStatus(ipo)
		ipos = append(ipos, *ipo)
	}
	return ipos, rows.Err()
}

// GetOpenOfferings returns the defaulted snapshot of every offering that
// is open for subscription right now. This is the input the strategy
// engines run on.
func (s *IPOService) GetOpenOfferings(ctx context.Context) ([]models.IPOOffering, error) {
	ipos, err := s.GetIPOs(ctx, "all")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var offerings []models.IPOOffering
	for i := range ipos {
		offering := models.OfferingFromRecord(&ipos[i], now)
		if offering.Status == models.StatusOpen {
			offerings = append(offerings, offering)
		}
	}

	return offerings, nil
}

// GetIPOBySlug returns one offering row by slug, or nil when absent.
func (s *IPOService) GetIPOBySlug(ctx context.Context, slug string) (*models.IPO, error) {
	query := `SELECT ` + ipoColumns + ` FROM ipo_offerings WHERE slug = $1`

	ipo, err := scanIPO(s.DB.QueryRowContext(ctx, query, slug))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan IPO: %w", err)
	}

	s.recalculateStatus(ipo)
	return ipo, nil
}

// GetIPOByStockID returns one offering row by its stock ID, or nil when absent.
func (s *IPOService) GetIPOByStockID(ctx context.Context, stockID string) (*models.IPO, error) {
	query := `SELECT ` + ipoColumns + ` FROM ipo_offerings WHERE stock_id = $1`

	ipo, err := scanIPO(s.DB.QueryRowContext(ctx, query, stockID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan IPO: %w", err)
	}

	s.recalculateStatus(ipo)
	return ipo, nil
}

// UpsertIPO creates or refreshes an offering row keyed by stock_id.
func (s *IPOService) UpsertIPO(ctx context.Context, item models.IPO) error {
	var existingIPO *models.IPO
	if existing, err := s.GetIPOByStockID(ctx, item.StockID); err == nil && existing != nil {
		existingIPO = existing
	}

	if item.Slug == nil || *item.Slug == "" {
		slug := s.UtilityService.GenerateSlug(item.Name)
		item.Slug = &slug
	}

	status := item.Status
	if status == "" {
		status = string(models.DeriveStatus(item.OpenDate, item.CloseDate, item.ListingDate, time.Now()))
	}

	query := `
		INSERT INTO ipo_offerings (
			stock_id, name, company_name, slug, segment,
			price_band_low, price_band_high, lot_size, issue_size,
			subscription_retail, subscription_snii, subscription_bnii, subscription_qib, subscription_total,
			gmp_amount, gmp_percent,
			retail_min_lots, retail_max_lots, snii_min_lots, snii_max_lots, bnii_min_lots, bnii_max_lots,
			has_shareholder_quota, shares_offered_shareholder, applications_count_shareholder,
			open_date, close_date, listing_date, status
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13, $14,
			$15, $16,
			$17, $18, $19, $20, $21, $22,
			$23, $24, $25,
			$26, $27, $28, $29
		)
		ON CONFLICT (stock_id) DO UPDATE SET
			name = EXCLUDED.name,
			company_name = EXCLUDED.company_name,
			slug = EXCLUDED.slug,
			segment = EXCLUDED.segment,
			price_band_low = EXCLUDED.price_band_low,
			price_band_high = EXCLUDED.price_band_high,
			lot_size = EXCLUDED.lot_size,
			issue_size = EXCLUDED.issue_size,
			subscription_retail = EXCLUDED.subscription_retail,
			subscription_snii = EXCLUDED.subscription_snii,
			subscription_bnii = EXCLUDED.subscription_bnii,
			subscription_qib = EXCLUDED.subscription_qib,
			subscription_total = EXCLUDED.subscription_total,
			gmp_amount = EXCLUDED.gmp_amount,
			gmp_percent = EXCLUDED.gmp_percent,
			retail_min_lots = EXCLUDED.retail_min_lots,
			retail_max_lots = EXCLUDED.retail_max_lots,
			snii_min_lots = EXCLUDED.snii_min_lots,
			snii_max_lots = EXCLUDED.snii_max_lots,
			bnii_min_lots = EXCLUDED.bnii_min_lots,
			bnii_max_lots = EXCLUDED.bnii_max_lots,
			has_shareholder_quota = EXCLUDED.has_shareholder_quota,
			shares_offered_shareholder = EXCLUDED.shares_offered_shareholder,
			applications_count_shareholder = EXCLUDED.applications_count_shareholder,
			open_date = EXCLUDED.open_date,
			close_date = EXCLUDED.close_date,
			listing_date = EXCLUDED.listing_date,
			status = EXCLUDED.status,
			updated_at = CURRENT_TIMESTAMP;
	`

	start := time.Now()
	err := s.dbOptimizer.ExecuteWithRetry(ctx, func() error {
		_, execErr := s.DB.ExecContext(ctx, query,
			item.StockID, item.Name, item.CompanyName, item.Slug, item.Segment,
			item.PriceBandLow, item.PriceBandHigh, item.LotSize, item.IssueSize,
			item.SubscriptionRetail, item.SubscriptionSNII, item.SubscriptionBNII, item.SubscriptionQIB, item.SubscriptionTotal,
			item.GMPAmount, item.GMPPercent,
			item.RetailMinLots, item.RetailMaxLots, item.SNIIMinLots, item.SNIIMaxLots, item.BNIIMinLots, item.BNIIMaxLots,
			item.HasShareholderQuota, item.SharesOfferedShareholder, item.ApplicationsCountShareholder,
			item.OpenDate, item.CloseDate, item.ListingDate, status,
		)
		return execErr
	})
	s.RecordServiceOperation("upsert_ipo", err == nil, time.Since(start))

	var errorMsg *string
	if err != nil {
		errStr := err.Error()
		errorMsg = &errStr
	}
	s.auditLogger.LogOfferingUpsert(existingIPO, &item, err == nil, errorMsg)

	if err == nil {
		logrus.WithFields(logrus.Fields{
			"ipo_name": item.Name,
			"stock_id": item.StockID,
			"status":   status,
		}).Info("IPO upserted successfully")
	}

	return err
}

// UpdateGMP refreshes the grey market premium figures of one offering
// and records the change in the update log.
func (s *IPOService) UpdateGMP(ctx context.Context, stockID string, gmpAmount, gmpPercent float64, source string) error {
	before, _ := s.GetIPOByStockID(ctx, stockID)

	query := `UPDATE ipo_offerings
              SET gmp_amount = $1, gmp_percent = $2, updated_at = CURRENT_TIMESTAMP
              WHERE stock_id = $3`

	start := time.Now()
	err := s.dbOptimizer.ExecuteWithRetry(ctx, func() error {
		result, execErr := s.DB.ExecContext(ctx, query, gmpAmount, gmpPercent, stockID)
		if execErr != nil {
			return execErr
		}
		if affected, raErr := result.RowsAffected(); raErr == nil && affected == 0 {
			return fmt.Errorf("no offering with stock_id %s", stockID)
		}
		return nil
	})
	s.RecordServiceOperation("update_gmp", err == nil, time.Since(start))

	var errorMsg *string
	if err != nil {
		errStr := err.Error()
		errorMsg = &errStr
	}
	s.auditLogger.LogMarketDataUpdate(stockID, "gmp", err == nil, errorMsg)

	if err != nil {
		return fmt.Errorf("failed to update GMP: %w", err)
	}

	oldValue := ""
	if before != nil && before.GMPAmount != nil {
		oldValue = fmt.Sprintf("%.2f", *before.GMPAmount)
	}
	s.insertUpdateLog(ctx, models.NewIPOUpdateLog(stockID, "gmp_amount",
		oldValue, fmt.Sprintf("%.2f", gmpAmount), source))
	return nil
}

// UpdateSubscription refreshes the live oversubscription ratios of one
// offering and records the change in the update log.
func (s *IPOService) UpdateSubscription(ctx context.Context, stockID string, sub models.SubscriptionData, source string) error {
	before, _ := s.GetIPOByStockID(ctx, stockID)

	query := `UPDATE ipo_offerings
              SET subscription_retail = $1, subscription_snii = $2, subscription_bnii = $3,
                  subscription_qib = $4, subscription_total = $5, updated_at = CURRENT_TIMESTAMP
              WHERE stock_id = $6`

	start := time.Now()
	err := s.dbOptimizer.ExecuteWithRetry(ctx, func() error {
		result, execErr := s.DB.ExecContext(ctx, query,
			sub.Retail, sub.SNII, sub.BNII, sub.QIB, sub.Total, stockID)
		if execErr != nil {
			return execErr
		}
		if affected, raErr := result.RowsAffected(); raErr == nil && affected == 0 {
			return fmt.Errorf("no offering with stock_id %s", stockID)
		}
		return nil
	})
	s.RecordServiceOperation("update_subscription", err == nil, time.Since(start))

	var errorMsg *string
	if err != nil {
		errStr := err.Error()
		errorMsg = &errStr
	}
	s.auditLogger.LogMarketDataUpdate(stockID, "subscription", err == nil, errorMsg)

	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	oldValue := ""
	if before != nil && before.SubscriptionTotal != nil {
		oldValue = fmt.Sprintf("%.2f", *before.SubscriptionTotal)
	}
	s.insertUpdateLog(ctx, models.NewIPOUpdateLog(stockID, "subscription_total",
		oldValue, fmt.Sprintf("%.2f", sub.Total), source))
	return nil
}

// insertUpdateLog persists one update-log row. Log failures are reported
// but never fail the parent operation.
func (s *IPOService) insertUpdateLog(ctx context.Context, entry models.IPOUpdateLog) {
	query := `INSERT INTO ipo_update_logs (id, stock_id, field_name, old_value, new_value, source, timestamp)
              VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.DB.ExecContext(ctx, query,
		entry.ID, entry.StockID, entry.FieldName, entry.OldValue, entry.NewValue, entry.Source, entry.Timestamp)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"stock_id":   entry.StockID,
			"field_name": entry.FieldName,
			"error":      err,
		}).Warn("Failed to write update log entry")
	}
}

// GetServiceMetrics returns the service metrics instance
func (s *IPOService) GetServiceMetrics() *shared.ServiceMetrics {
	return s.serviceMetrics
}

// GetDatabaseMetrics returns the database metrics instance
func (s *IPOService) GetDatabaseMetrics() *shared.DatabaseMetrics {
	return s.dbMetrics
}

// RecordServiceOperation records a service operation with metrics tracking
func (s *IPOService) RecordServiceOperation(operationName string, success bool, processingTime time.Duration) {
	if s.serviceMetrics != nil {
		s.serviceMetrics.RecordRequest(success, processingTime)
		s.serviceMetrics.IncrementCustomCounter(operationName)
	}
}

// LogMetricsSummary logs a summary of the gateway metrics
func (s *IPOService) LogMetricsSummary() {
	if s.serviceMetrics != nil {
		s.serviceMetrics.LogSummary()
	}
	if s.dbMetrics != nil {
		s.dbMetrics.LogDatabaseSummary()
	}
}

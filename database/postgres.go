package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ipowise/ipo-backend/shared"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

var DB *sql.DB

// Connect establishes database connection with pooled configuration
func Connect(dbURL string) error {
	config := shared.NewDefaultUnifiedConfiguration().Database
	return ConnectWithConfig(dbURL, &config)
}

// ConnectWithConfig establishes database connection with custom configuration
func ConnectWithConfig(dbURL string, config *shared.DatabaseConfig) error {
	var err error
	DB, err = sql.Open("postgres", dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(config.MaxOpenConns)
	DB.SetMaxIdleConns(config.MaxIdleConns)
	DB.SetConnMaxLifetime(config.ConnMaxLifetime)
	DB.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	// Test connection with timeout
	ctx, cancel := context.WithTimeout(context.Background(), config.PingTimeout)
	defer cancel()

	if err = DB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"max_open_conns":     config.MaxOpenConns,
		"max_idle_conns":     config.MaxIdleConns,
		"conn_max_lifetime":  config.ConnMaxLifetime,
		"conn_max_idle_time": config.ConnMaxIdleTime,
	}).Info("Connected to database successfully")

	return nil
}

func Close() {
	if DB != nil {
		DB.Close()
		logrus.Info("Database connection closed")
	}
}

// GetConnectionStats returns current database connection pool statistics
func GetConnectionStats() sql.DBStats {
	if DB == nil {
		return sql.DBStats{}
	}
	return DB.Stats()
}

// HealthCheck performs a database health check
func HealthCheck() error {
	if DB == nil {
		return fmt.Errorf("database connection not established")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	stats := DB.Stats()
	if stats.OpenConnections == 0 {
		return fmt.Errorf("no open database connections")
	}

	logrus.WithFields(logrus.Fields{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration":        stats.WaitDuration,
	}).Debug("Database connection pool health check")

	return nil
}

func Migrate(schemaPath string) error {
	content, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	statements := parseSQLStatements(string(content))

	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)

		if stmt == "" {
			continue
		}

		_, err = DB.Exec(stmt)
		if err != nil {
			// Log the error but continue with other statements for migration scripts
			// that handle existing tables
			logrus.Warnf("Migration statement failed (continuing): %v", err)
		}
	}

	logrus.Info("Database migration completed successfully")
	return nil
}

// parseSQLStatements parses SQL content into individual statements
// This handles multi-line statements and comments properly
func parseSQLStatements(content string) []string {
	var statements []string
	var currentStatement strings.Builder

	lines := strings.Split(content, "\n")

	for _, line := range lines {
		line = strings.TrimSpace(line)

		// Skip empty lines and comment-only lines
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}

		if currentStatement.Len() > 0 {
			currentStatement.WriteString(" ")
		}
		currentStatement.WriteString(line)

		// If line ends with semicolon, we have a complete statement
		if strings.HasSuffix(line, ";") {
			stmt := strings.TrimSuffix(currentStatement.String(), ";")
			stmt = strings.TrimSpace(stmt)
			if stmt != "" {
				statements = append(statements, stmt)
			}
			currentStatement.Reset()
		}
	}

	// Handle any remaining statement without semicolon
	if currentStatement.Len() > 0 {
		stmt := strings.TrimSpace(currentStatement.String())
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}

	return statements
}

// ValidateAndOptimizeSchema checks the live schema against what the
// gateway expects and creates any missing indexes.
func ValidateAndOptimizeSchema() error {
	if DB == nil {
		return fmt.Errorf("database connection not established")
	}

	logrus.Info("Starting database schema validation")

	validator := NewSchemaValidator(DB)

	report, err := validator.ValidateSchemaCompatibility()
	if err != nil {
		return fmt.Errorf("failed to validate schema compatibility: %w", err)
	}

	if !report.OverallValid {
		logrus.WithFields(logrus.Fields{
			"total_issues":    report.TotalIssues,
			"critical_issues": report.CriticalIssues,
		}).Warn("Schema validation found issues")

		logrus.Debug("Schema validation report:\n" + validator.GenerateSchemaReport(report))
	} else {
		logrus.Info("Schema validation passed successfully")
	}

	var missingIndexes []string
	for _, result := range report.ValidationResults {
		missingIndexes = append(missingIndexes, result.MissingIndexes...)
	}

	if len(missingIndexes) > 0 {
		logrus.WithField("missing_indexes_count", len(missingIndexes)).Info("Creating missing indexes")
		if err := validator.CreateMissingIndexes(missingIndexes); err != nil {
			return fmt.Errorf("failed to create missing indexes: %w", err)
		}
	}

	logrus.Info("Completed database schema validation")
	return nil
}

// ValidationResult represents the result of schema validation
type ValidationResult struct {
	TableName          string
	IsValid            bool
	MissingColumns     []string
	MissingIndexes     []string
	InvalidConstraints []string
	Recommendations    []string
}

// SchemaCompatibilityReport contains comprehensive schema validation results
type SchemaCompatibilityReport struct {
	ValidationResults []ValidationResult
	OverallValid      bool
	TotalIssues       int
	CriticalIssues    int
	Recommendations   []string
}

// SchemaValidator validates that the live database matches the gateway's
// expected table layout
type SchemaValidator struct {
	db     *sql.DB
	logger *logrus.Logger
}

// NewSchemaValidator creates a new schema validator instance
func NewSchemaValidator(db *sql.DB) *SchemaValidator {
	return &SchemaValidator{
		db:     db,
		logger: logrus.New(),
	}
}

// ValidateSchemaCompatibility validates every table the gateway touches
func (v *SchemaValidator) ValidateSchemaCompatibility() (*SchemaCompatibilityReport, error) {
	v.logger.Info("Starting schema compatibility validation")

	report := &SchemaCompatibilityReport{
		ValidationResults: make([]ValidationResult, 0),
		OverallValid:      true,
	}

	offeringsResult, err := v.validateOfferingsTableStructure()
	if err != nil {
		return nil, fmt.Errorf("failed to validate offerings table structure: %w", err)
	}
	report.ValidationResults = append(report.ValidationResults, *offeringsResult)

	logResult, err := v.validateUpdateLogTableStructure()
	if err != nil {
		return nil, fmt.Errorf("failed to validate update log table structure: %w", err)
	}
	report.ValidationResults = append(report.ValidationResults, *logResult)

	indexResult, err := v.validateOptimizedIndexes()
	if err != nil {
		return nil, fmt.Errorf("failed to validate optimized indexes: %w", err)
	}
	report.ValidationResults = append(report.ValidationResults, *indexResult)

	for _, result := range report.ValidationResults {
		if !result.IsValid {
			report.OverallValid = false
			report.TotalIssues += len(result.MissingColumns) + len(result.MissingIndexes) + len(result.InvalidConstraints)

			// Critical issues are missing columns or invalid constraints
			report.CriticalIssues += len(result.MissingColumns) + len(result.InvalidConstraints)
		}
		report.Recommendations = append(report.Recommendations, result.Recommendations...)
	}

	v.logger.WithFields(logrus.Fields{
		"overall_valid":   report.OverallValid,
		"total_issues":    report.TotalIssues,
		"critical_issues": report.CriticalIssues,
	}).Info("Completed schema compatibility validation")

	return report, nil
}

// validateOfferingsTableStructure validates the main offerings table
func (v *SchemaValidator) validateOfferingsTableStructure() (*ValidationResult, error) {
	result := &ValidationResult{
		TableName:          "ipo_offerings",
		IsValid:            true,
		MissingColumns:     make([]string, 0),
		MissingIndexes:     make([]string, 0),
		InvalidConstraints: make([]string, 0),
		Recommendations:    make([]string, 0),
	}

	exists, err := v.tableExists("ipo_offerings")
	if err != nil {
		return nil, fmt.Errorf("failed to check if ipo_offerings table exists: %w", err)
	}
	if !exists {
		result.IsValid = false
		result.MissingColumns = append(result.MissingColumns, "entire table missing")
		result.Recommendations = append(result.Recommendations, "Create ipo_offerings table with complete schema")
		return result, nil
	}

	requiredColumns := map[string]string{
		"id":                             "uuid",
		"stock_id":                       "varchar(100)",
		"name":                           "varchar(255)",
		"company_name":                   "varchar(255)",
		"slug":                           "varchar(255)",
		"segment":                        "varchar(20)",
		"price_band_low":                 "decimal(10,2)",
		"price_band_high":                "decimal(10,2)",
		"lot_size":                       "integer",
		"issue_size":                     "varchar(100)",
		"subscription_retail":            "decimal(10,2)",
		"subscription_snii":              "decimal(10,2)",
		"subscription_bnii":              "decimal(10,2)",
		"subscription_qib":               "decimal(10,2)",
		"subscription_total":             "decimal(10,2)",
		"gmp_amount":                     "decimal(10,2)",
		"gmp_percent":                    "decimal(10,2)",
		"retail_min_lots":                "integer",
		"retail_max_lots":                "integer",
		"snii_min_lots":                  "integer",
		"snii_max_lots":                  "integer",
		"bnii_min_lots":                  "integer",
		"bnii_max_lots":                  "integer",
		"has_shareholder_quota":          "boolean",
		"shares_offered_shareholder":     "integer",
		"applications_count_shareholder": "integer",
		"open_date":                      "timestamp",
		"close_date":                     "timestamp",
		"listing_date":                   "timestamp",
		"status":                         "varchar(50)",
		"created_at":                     "timestamp",
		"updated_at":                     "timestamp",
	}

	existingColumns, err := v.getTableColumns("ipo_offerings")
	if err != nil {
		return nil, fmt.Errorf("failed to get ipo_offerings columns: %w", err)
	}

	for columnName, expectedType := range requiredColumns {
		if actualType, exists := existingColumns[columnName]; !exists {
			result.IsValid = false
			result.MissingColumns = append(result.MissingColumns, fmt.Sprintf("%s (%s)", columnName, expectedType))
		} else if !v.isCompatibleType(actualType, expectedType) {
			result.InvalidConstraints = append(result.InvalidConstraints,
				fmt.Sprintf("column %s has type %s, expected %s", columnName, actualType, expectedType))
		}
	}

	if len(result.MissingColumns) > 0 || len(result.InvalidConstraints) > 0 {
		result.Recommendations = append(result.Recommendations,
			"Update ipo_offerings table schema to match the gateway row layout")
	}

	return result, nil
}

// validateUpdateLogTableStructure validates the audit log table
func (v *SchemaValidator) validateUpdateLogTableStructure() (*ValidationResult, error) {
	result := &ValidationResult{
		TableName:          "ipo_update_logs",
		IsValid:            true,
		MissingColumns:     make([]string, 0),
		MissingIndexes:     make([]string, 0),
		InvalidConstraints: make([]string, 0),
		Recommendations:    make([]string, 0),
	}

	exists, err := v.tableExists("ipo_update_logs")
	if err != nil {
		return nil, fmt.Errorf("failed to check if ipo_update_logs table exists: %w", err)
	}
	if !exists {
		result.IsValid = false
		result.MissingColumns = append(result.MissingColumns, "entire table missing")
		result.Recommendations = append(result.Recommendations, "Create ipo_update_logs table for the audit trail")
		return result, nil
	}

	requiredColumns := map[string]string{
		"id":         "uuid",
		"stock_id":   "varchar(100)",
		"field_name": "varchar(100)",
		"old_value":  "text",
		"new_value":  "text",
		"source":     "varchar(100)",
		"timestamp":  "timestamp",
	}

	existingColumns, err := v.getTableColumns("ipo_update_logs")
	if err != nil {
		return nil, fmt.Errorf("failed to get ipo_update_logs columns: %w", err)
	}

	for columnName, expectedType := range requiredColumns {
		if actualType, exists := existingColumns[columnName]; !exists {
			result.IsValid = false
			result.MissingColumns = append(result.MissingColumns, fmt.Sprintf("%s (%s)", columnName, expectedType))
		} else if !v.isCompatibleType(actualType, expectedType) {
			result.InvalidConstraints = append(result.InvalidConstraints,
				fmt.Sprintf("column %s has type %s, expected %s", columnName, actualType, expectedType))
		}
	}

	return result, nil
}

// validateOptimizedIndexes validates that all required indexes exist
func (v *SchemaValidator) validateOptimizedIndexes() (*ValidationResult, error) {
	result := &ValidationResult{
		TableName:          "database_indexes",
		IsValid:            true,
		MissingColumns:     make([]string, 0),
		MissingIndexes:     make([]string, 0),
		InvalidConstraints: make([]string, 0),
		Recommendations:    make([]string, 0),
	}

	existingIndexes, err := v.getAllIndexes()
	if err != nil {
		return nil, fmt.Errorf("failed to get existing indexes: %w", err)
	}

	requiredIndexes := map[string]string{
		"idx_offerings_stock_id":     "ipo_offerings(stock_id)",
		"idx_offerings_slug":         "ipo_offerings(slug) WHERE slug IS NOT NULL",
		"idx_offerings_status":       "ipo_offerings(status)",
		"idx_offerings_status_dates": "ipo_offerings(status, open_date, close_date)",
		"idx_offerings_close_date":   "ipo_offerings(close_date) WHERE close_date IS NOT NULL",
		"idx_offerings_api":          "ipo_offerings(status, created_at DESC)",

		"idx_update_logs_stock_id":  "ipo_update_logs(stock_id)",
		"idx_update_logs_timestamp": "ipo_update_logs(timestamp DESC)",
		"idx_update_logs_field":     "ipo_update_logs(field_name)",
	}

	for indexName, indexDefinition := range requiredIndexes {
		if !v.indexExists(existingIndexes, indexName) {
			result.IsValid = false
			result.MissingIndexes = append(result.MissingIndexes, fmt.Sprintf("%s ON %s", indexName, indexDefinition))
		}
	}

	if len(result.MissingIndexes) > 0 {
		result.Recommendations = append(result.Recommendations,
			"Create missing indexes to keep the read paths fast")
	}

	return result, nil
}

// tableExists checks if a table exists in the database
func (v *SchemaValidator) tableExists(tableName string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)
	`
	var exists bool
	err := v.db.QueryRow(query, tableName).Scan(&exists)
	return exists, err
}

// getTableColumns returns a map of column names to their data types
func (v *SchemaValidator) getTableColumns(tableName string) (map[string]string, error) {
	query := `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
	`
	rows, err := v.db.Query(query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := make(map[string]string)
	for rows.Next() {
		var columnName, dataType string
		if err := rows.Scan(&columnName, &dataType); err != nil {
			return nil, err
		}
		columns[columnName] = dataType
	}

	return columns, rows.Err()
}

// getAllIndexes returns a list of all index names in the database
func (v *SchemaValidator) getAllIndexes() ([]string, error) {
	query := `
		SELECT indexname
		FROM pg_indexes
		WHERE schemaname = 'public'
	`
	rows, err := v.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var indexName string
		if err := rows.Scan(&indexName); err != nil {
			return nil, err
		}
		indexes = append(indexes, indexName)
	}

	return indexes, rows.Err()
}

// isCompatibleType checks if the actual column type is compatible with the expected type
func (v *SchemaValidator) isCompatibleType(actualType, expectedType string) bool {
	actualType = strings.ToLower(strings.TrimSpace(actualType))
	expectedType = strings.ToLower(strings.TrimSpace(expectedType))

	// Handle common PostgreSQL type variations
	typeMapping := map[string][]string{
		"uuid":          {"uuid"},
		"varchar(20)":   {"character varying", "varchar", "text"},
		"varchar(50)":   {"character varying", "varchar", "text"},
		"varchar(100)":  {"character varying", "varchar", "text"},
		"varchar(255)":  {"character varying", "varchar", "text"},
		"text":          {"text", "character varying", "varchar"},
		"timestamp":     {"timestamp without time zone", "timestamp", "timestamptz"},
		"decimal(10,2)": {"numeric", "decimal", "real", "double precision"},
		"integer":       {"integer", "int", "int4"},
		"boolean":       {"boolean", "bool"},
	}

	if compatibleTypes, exists := typeMapping[expectedType]; exists {
		for _, compatibleType := range compatibleTypes {
			if strings.Contains(actualType, compatibleType) {
				return true
			}
		}
	}

	// Direct match
	return strings.Contains(actualType, expectedType) || strings.Contains(expectedType, actualType)
}

// indexExists checks if an index exists in the list of indexes
func (v *SchemaValidator) indexExists(indexes []string, indexName string) bool {
	for _, index := range indexes {
		if index == indexName {
			return true
		}
	}
	return false
}

// CreateMissingIndexes creates any missing indexes identified during validation
func (v *SchemaValidator) CreateMissingIndexes(missingIndexes []string) error {
	v.logger.WithField("missing_indexes_count", len(missingIndexes)).Info("Creating missing database indexes")

	indexStatements := map[string]string{
		"idx_offerings_stock_id":     "CREATE UNIQUE INDEX CONCURRENTLY IF NOT EXISTS idx_offerings_stock_id ON ipo_offerings(stock_id)",
		"idx_offerings_slug":         "CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_offerings_slug ON ipo_offerings(slug) WHERE slug IS NOT NULL",
		"idx_offerings_status":       "CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_offerings_status ON ipo_offerings(status)",
		"idx_offerings_status_dates": "CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_offerings_status_dates ON ipo_offerings(status, open_date, close_date)",
		"idx_offerings_close_date":   "CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_offerings_close_date ON ipo_offerings(close_date) WHERE close_date IS NOT NULL",
		"idx_offerings_api":          "CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_offerings_api ON ipo_offerings(status, created_at DESC)",
		"idx_update_logs_stock_id":   "CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_update_logs_stock_id ON ipo_update_logs(stock_id)",
		"idx_update_logs_timestamp":  "CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_update_logs_timestamp ON ipo_update_logs(timestamp DESC)",
		"idx_update_logs_field":      "CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_update_logs_field ON ipo_update_logs(field_name)",
	}

	for _, missingIndex := range missingIndexes {
		// Extract index name from the missing index description
		indexName := strings.Split(missingIndex, " ON ")[0]

		if statement, exists := indexStatements[indexName]; exists {
			v.logger.WithField("index_name", indexName).Info("Creating missing index")

			// Use a timeout for index creation to prevent hanging
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)

			_, err := v.db.ExecContext(ctx, statement)
			cancel()
			if err != nil {
				v.logger.WithFields(logrus.Fields{
					"index_name": indexName,
					"error":      err,
				}).Error("Failed to create index")
				return fmt.Errorf("failed to create index %s: %w", indexName, err)
			}

			v.logger.WithField("index_name", indexName).Info("Successfully created index")
		} else {
			v.logger.WithField("index_name", indexName).Warn("No creation statement found for missing index")
		}
	}

	v.logger.Info("Completed creating missing database indexes")
	return nil
}

// GenerateSchemaReport generates a readable report of the validation results
func (v *SchemaValidator) GenerateSchemaReport(report *SchemaCompatibilityReport) string {
	var reportBuilder strings.Builder

	reportBuilder.WriteString("=== Database Schema Compatibility Report ===\n\n")
	reportBuilder.WriteString(fmt.Sprintf("Overall Status: %s\n", map[bool]string{true: "VALID", false: "INVALID"}[report.OverallValid]))
	reportBuilder.WriteString(fmt.Sprintf("Total Issues: %d\n", report.TotalIssues))
	reportBuilder.WriteString(fmt.Sprintf("Critical Issues: %d\n\n", report.CriticalIssues))

	for _, result := range report.ValidationResults {
		reportBuilder.WriteString(fmt.Sprintf("Table: %s - Status: %s\n", result.TableName, map[bool]string{true: "VALID", false: "INVALID"}[result.IsValid]))

		if len(result.MissingColumns) > 0 {
			reportBuilder.WriteString("  Missing Columns:\n")
			for _, column := range result.MissingColumns {
				reportBuilder.WriteString(fmt.Sprintf("    - %s\n", column))
			}
		}

		if len(result.MissingIndexes) > 0 {
			reportBuilder.WriteString("  Missing Indexes:\n")
			for _, index := range result.MissingIndexes {
				reportBuilder.WriteString(fmt.Sprintf("    - %s\n", index))
			}
		}

		if len(result.InvalidConstraints) > 0 {
			reportBuilder.WriteString("  Invalid Constraints:\n")
			for _, constraint := range result.InvalidConstraints {
				reportBuilder.WriteString(fmt.Sprintf("    - %s\n", constraint))
			}
		}

		reportBuilder.WriteString("\n")
	}

	if len(report.Recommendations) > 0 {
		reportBuilder.WriteString("Recommendations:\n")
		for _, recommendation := range report.Recommendations {
			reportBuilder.WriteString(fmt.Sprintf("  - %s\n", recommendation))
		}
	}

	return reportBuilder.String()
}

package shared

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrorCategory classifies a failure by the subsystem it originated in.
type ErrorCategory string

const (
	ErrorCategoryNetwork    ErrorCategory = "network"
	ErrorCategoryDatabase   ErrorCategory = "database"
	ErrorCategoryProcessing ErrorCategory = "processing"
	ErrorCategoryResource   ErrorCategory = "resource"
)

// ServiceError carries the category, code and retryability of a failure
// alongside the originating service and operation.
type ServiceError struct {
	Category    ErrorCategory `json:"category"`
	Code        string        `json:"code"`
	Message     string        `json:"message"`
	Details     interface{}   `json:"details,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
	ServiceName string        `json:"service_name"`
	Operation   string        `json:"operation"`
	Retryable   bool          `json:"retryable"`
	Cause       error         `json:"-"` // Original error, not serialized
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// NewServiceError creates a new service error
func NewServiceError(category ErrorCategory, code, message, serviceName, operation string, retryable bool, cause error) *ServiceError {
	return &ServiceError{
		Category:    category,
		Code:        code,
		Message:     message,
		Timestamp:   time.Now(),
		ServiceName: serviceName,
		Operation:   operation,
		Retryable:   retryable,
		Cause:       cause,
	}
}

// WithDetails adds additional details to the error
func (e *ServiceError) WithDetails(details interface{}) *ServiceError {
	e.Details = details
	return e
}

// IsRetryable returns whether the error is retryable
func (e *ServiceError) IsRetryable() bool {
	return e.Retryable
}

// GetCategory returns the error category
func (e *ServiceError) GetCategory() ErrorCategory {
	return e.Category
}

// LogError logs the error with structured fields
func (e *ServiceError) LogError() {
	logrus.WithFields(logrus.Fields{
		"error_category":   e.Category,
		"error_code":       e.Code,
		"error_message":    e.Message,
		"service_name":     e.ServiceName,
		"operation":        e.Operation,
		"retryable":        e.Retryable,
		"timestamp":        e.Timestamp,
		"details":          e.Details,
		"underlying_error": e.Cause,
	}).Error("Service error occurred")
}

// WrapError wraps an existing error with service error context
func WrapError(err error, category ErrorCategory, code, serviceName, operation string, retryable bool) *ServiceError {
	if err == nil {
		return nil
	}

	// If it's already a ServiceError, just update the context
	if serviceErr, ok := err.(*ServiceError); ok {
		serviceErr.ServiceName = serviceName
		serviceErr.Operation = operation
		return serviceErr
	}

	return NewServiceError(category, code, err.Error(), serviceName, operation, retryable, err)
}

// IsRetryableError checks if an error is retryable
func IsRetryableError(err error) bool {
	if serviceErr, ok := err.(*ServiceError); ok {
		return serviceErr.IsRetryable()
	}

	// Default heuristics for standard errors
	errorMsg := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout", "connection refused", "connection reset",
		"temporary failure", "service unavailable", "too many requests",
		"network", "dns", "socket",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errorMsg, pattern) {
			return true
		}
	}

	return false
}

// ScrapeCircuitBreaker stops a scraper from hammering an upstream site
// that is failing. It opens once the failure rate over a minimum sample
// exceeds the threshold, cools down, then allows probe requests in a
// half-open state; enough consecutive probe successes close it again.
type ScrapeCircuitBreaker struct {
	serviceName    string
	maxFailureRate float64

	mu                sync.Mutex
	open              bool
	failureCount      int64
	successCount      int64
	openedAt          time.Time
	halfOpenSuccesses int
}

const (
	breakerMinSamples        = 10
	breakerCooldown          = 30 * time.Second
	breakerHalfOpenSuccesses = 3
)

// NewScrapeCircuitBreaker creates a breaker for the named scraper. A
// negative maxFailureRate disables tripping entirely.
func NewScrapeCircuitBreaker(serviceName string, maxFailureRate float64) *ScrapeCircuitBreaker {
	return &ScrapeCircuitBreaker{
		serviceName:    serviceName,
		maxFailureRate: maxFailureRate,
	}
}

// Allow reports whether a request may proceed. An open breaker admits
// one probe request per cooldown window.
func (b *ScrapeCircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxFailureRate < 0 || !b.open {
		return true
	}

	if time.Since(b.openedAt) > breakerCooldown {
		logrus.WithFields(logrus.Fields{
			"service_name": b.serviceName,
			"component":    "ScrapeCircuitBreaker",
		}).Info("Circuit breaker entering half-open state")
		// Push the window forward so only one probe runs per cooldown.
		b.openedAt = time.Now()
		return true
	}

	return false
}

// RecordSuccess records a successful request and closes the breaker
// after enough half-open probes succeed.
func (b *ScrapeCircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.successCount++

	if b.maxFailureRate < 0 || !b.open {
		return
	}

	b.halfOpenSuccesses++
	if b.halfOpenSuccesses >= breakerHalfOpenSuccesses {
		b.open = false
		b.failureCount = 0
		b.successCount = 0
		b.halfOpenSuccesses = 0

		logrus.WithFields(logrus.Fields{
			"service_name": b.serviceName,
			"component":    "ScrapeCircuitBreaker",
		}).Info("Circuit breaker closed after successful probes")
	}
}

// RecordFailure records a failed request, reopening a half-open breaker
// or tripping a closed one whose failure rate exceeds the threshold.
func (b *ScrapeCircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++

	if b.maxFailureRate < 0 {
		return
	}

	if b.open {
		if b.halfOpenSuccesses > 0 {
			b.halfOpenSuccesses = 0
			logrus.WithFields(logrus.Fields{
				"service_name": b.serviceName,
				"component":    "ScrapeCircuitBreaker",
			}).Warn("Circuit breaker reopened after failed probe")
		}
		b.openedAt = time.Now()
		return
	}

	total := b.failureCount + b.successCount
	if total < breakerMinSamples {
		return
	}

	failureRate := float64(b.failureCount) / float64(total)
	if failureRate > b.maxFailureRate {
		b.open = true
		b.openedAt = time.Now()
		b.halfOpenSuccesses = 0

		logrus.WithFields(logrus.Fields{
			"service_name":     b.serviceName,
			"component":        "ScrapeCircuitBreaker",
			"failure_rate":     failureRate,
			"max_failure_rate": b.maxFailureRate,
			"failure_count":    b.failureCount,
			"success_count":    b.successCount,
		}).Warn("Circuit breaker opened due to high failure rate")
	}
}

// IsOpen reports whether the breaker is currently tripped.
func (b *ScrapeCircuitBreaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// FailureRate returns the failure rate over the current sample window.
func (b *ScrapeCircuitBreaker) FailureRate() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := b.failureCount + b.successCount
	if total == 0 {
		return 0.0
	}
	return float64(b.failureCount) / float64(total)
}

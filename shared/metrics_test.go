package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHTTPMetricsRecording(t *testing.T) {
	metrics := NewHTTPMetrics()

	metrics.RecordHTTPRequest(true, 200, 120*time.Millisecond, "", false)
	metrics.RecordHTTPRequest(true, 200, 80*time.Millisecond, "", false)
	metrics.RecordHTTPRequest(false, 503, 40*time.Millisecond, "request_failed", false)
	metrics.RecordHTTPRequest(false, 0, 30*time.Second, "timeout", true)

	assert.Equal(t, int64(4), metrics.TotalRequests)
	assert.Equal(t, int64(2), metrics.SuccessfulRequests)
	assert.Equal(t, int64(2), metrics.FailedRequests)
	assert.Equal(t, int64(1), metrics.TimeoutRequests)
	assert.Equal(t, int64(2), metrics.StatusCodeCounts[200])
	assert.Equal(t, int64(1), metrics.StatusCodeCounts[503])
	assert.Equal(t, int64(1), metrics.ErrorCounts["request_failed"])
	assert.Equal(t, int64(1), metrics.ErrorCounts["timeout"])
	assert.Equal(t, 50.0, metrics.GetHTTPSuccessRate())
}

func TestHTTPMetricsRetryAttempts(t *testing.T) {
	metrics := NewHTTPMetrics()
	assert.Equal(t, 0.0, metrics.GetHTTPSuccessRate())

	metrics.RecordRetryAttempt()
	metrics.RecordRetryAttempt()
	assert.Equal(t, int64(2), metrics.RetryAttempts)
}

func TestPerformanceMetricsPercentiles(t *testing.T) {
	perf := NewPerformanceMetrics()

	for i := 1; i <= 100; i++ {
		perf.RecordProcessingTime(time.Duration(i) * time.Millisecond)
	}

	snapshot := perf.GetPerformanceSnapshot()
	assert.Equal(t, time.Millisecond, snapshot.MinProcessingTime)
	assert.Equal(t, 100*time.Millisecond, snapshot.MaxProcessingTime)
	assert.True(t, snapshot.P95ProcessingTime >= 90*time.Millisecond)
	assert.True(t, snapshot.P99ProcessingTime >= snapshot.P95ProcessingTime)
}

func TestServiceMetricsFeedsPerformanceMetrics(t *testing.T) {
	metrics := NewServiceMetrics("Test_Service")

	metrics.RecordRequest(true, 10*time.Millisecond)
	metrics.RecordRequest(false, 20*time.Millisecond)

	assert.Equal(t, int64(2), metrics.TotalRequests)
	assert.Equal(t, 50.0, metrics.GetSuccessRate())

	snapshot := metrics.PerformanceMetrics.GetPerformanceSnapshot()
	assert.Equal(t, 10*time.Millisecond, snapshot.MinProcessingTime)
	assert.Equal(t, 20*time.Millisecond, snapshot.MaxProcessingTime)
}

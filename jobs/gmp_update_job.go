package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/ipowise/ipo-backend/services"
	"github.com/sirupsen/logrus"
)

// GMPUpdateJob periodically refreshes grey market premium figures
// from the rendered report page and writes them through the gateway.
type GMPUpdateJob struct {
	scraper *services.GMPScraperService

	mu        sync.Mutex
	isRunning bool
}

func NewGMPUpdateJob(scraper *services.GMPScraperService) *GMPUpdateJob {
	return &GMPUpdateJob{scraper: scraper}
}

// Start launches the ticker loop. The first run happens immediately.
func (j *GMPUpdateJob) Start(interval time.Duration) {
	logrus.WithField("interval", interval).Info("Starting GMP Update Job")
	ticker := time.NewTicker(interval)

	go func() {
		j.Run()

		for range ticker.C {
			j.Run()
		}
	}()
}

func (j *GMPUpdateJob) Run() {
	j.mu.Lock()
	if j.isRunning {
		j.mu.Unlock()
		logrus.Warn("GMP Update Job already running, skipping")
		return
	}
	j.isRunning = true
	j.mu.Unlock()

	defer func() {
		j.mu.Lock()
		j.isRunning = false
		j.mu.Unlock()
	}()

	startTime := time.Now()
	logrus.Info("Running GMP Update Job...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	updated, err := j.scraper.SyncGMPData(ctx)
	if err != nil {
		logrus.Errorf("GMP Update Job failed: %v", err)
		return
	}

	if updated == 0 {
		logrus.Warn("GMP Update Job: no offerings matched the scraped GMP data")
	}

	logrus.WithFields(logrus.Fields{
		"records_updated": updated,
		"processing_time": time.Since(startTime),
	}).Info("GMP Update Job completed")
}

// IsRunning reports whether a run is currently in flight.
func (j *GMPUpdateJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.isRunning
}

package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/ipowise/ipo-backend/services"
	"github.com/sirupsen/logrus"
)

// SubscriptionUpdateJob periodically refreshes category-wise
// subscription figures for every open offering.
type SubscriptionUpdateJob struct {
	scraper *services.SubscriptionScraperService

	mu        sync.Mutex
	isRunning bool
}

func NewSubscriptionUpdateJob(scraper *services.SubscriptionScraperService) *SubscriptionUpdateJob {
	return &SubscriptionUpdateJob{scraper: scraper}
}

// Start launches the ticker loop. The first run happens immediately.
func (j *SubscriptionUpdateJob) Start(interval time.Duration) {
	logrus.WithField("interval", interval).Info("Starting Subscription Update Job")
	ticker := time.NewTicker(interval)

	go func() {
		j.Run()

		for range ticker.C {
			j.Run()
		}
	}()
}

func (j *SubscriptionUpdateJob) Run() {
	j.mu.Lock()
	if j.isRunning {
		j.mu.Unlock()
		logrus.Warn("Subscription Update Job already running, skipping")
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
	logrus.Info("Running Subscription Update Job...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	updated, err := j.scraper.SyncSubscriptionData(ctx)
	if err != nil {
		logrus.Errorf("Subscription Update Job failed: %v", err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"records_updated": updated,
		"processing_time": time.Since(startTime),
	}).Info("Subscription Update Job completed")
}

// IsRunning reports whether a run is currently in flight.
func (j *SubscriptionUpdateJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.isRunning
}

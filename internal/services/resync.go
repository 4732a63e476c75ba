package services

import (
	"context"
	"sync"
	"time"

	"github.com/depflow/depflow/pkg/logger"
	"github.com/robfig/cron/v3"
)

// ResyncScheduler runs the bulk importer on a cron expression so the store
// converges with the tracker even when webhook deliveries are missed.
type ResyncScheduler struct {
	importer *Importer
	spec     string
	cron     *cron.Cron
	mu       sync.Mutex
	running  bool
}

func NewResyncScheduler(importer *Importer, spec string) *ResyncScheduler {
	return &ResyncScheduler{importer: importer, spec: spec}
}

// Start registers the cron entry and begins scheduling. An empty spec
// disables resync entirely.
func (s *ResyncScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || s.spec == "" {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.spec, s.runOnce); err != nil {
		return err
	}
	c.Start()

	s.cron = c
	s.running = true
	logger.Infof("[Resync] Scheduler started, cron: %s", s.spec)
	return nil
}

func (s *ResyncScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := s.importer.Run(ctx, "scheduled")
	if err != nil {
		logger.Errorf("[Resync] Scheduled import failed: %v", err)
		return
	}
	logger.Infof("[Resync] Scheduled import done: %d imported, %d skipped", result.Imported, result.Skipped)
}

// Stop halts scheduling and waits for a running import to finish.
func (s *ResyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	logger.Info().Msg("[Resync] Scheduler stopped")
}

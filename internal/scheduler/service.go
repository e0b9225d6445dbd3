package scheduler

import (
	"fmt"

	"github.com/azure/mentions-dashboard/internal/config"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Collector runs one collection of the active search queries
type Collector interface {
	RunScheduledCollect() error
}

// Service handles scheduling of periodic collection runs
type Service struct {
	config    *config.Config
	collector Collector
	cron      *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, collector Collector) *Service {
	return &Service{
		config:    cfg,
		collector: collector,
		cron:      cron.New(cron.WithSeconds()),
	}
}

// Start registers the collection job and starts the cron runner.
// An empty COLLECT_SCHEDULE leaves the scheduler idle.
func (s *Service) Start() error {
	if s.config.CollectSchedule == "" {
		logrus.Info("No collect schedule configured, scheduler idle")
		return nil
	}

	_, err := s.cron.AddFunc(s.config.CollectSchedule, s.runCollect)
	if err != nil {
		return fmt.Errorf("invalid collect schedule %q: %w", s.config.CollectSchedule, err)
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with collect schedule %q", s.config.CollectSchedule)
	return nil
}

func (s *Service) runCollect() {
	logrus.Info("Starting scheduled collection run")
	if err := s.collector.RunScheduledCollect(); err != nil {
		logrus.Errorf("Scheduled collection run failed: %v", err)
	}
}

// Entries returns the number of registered jobs
func (s *Service) Entries() int {
	return len(s.cron.Entries())
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}

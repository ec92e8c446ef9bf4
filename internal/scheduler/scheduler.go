package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"siikhub-waitlist-go/internal/config"
	"siikhub-waitlist-go/internal/waitlist"
)

// Auditor verifies and repairs queue positions.
type Auditor interface {
	Audit(ctx context.Context) (waitlist.Report, error)
}

// Scheduler runs the position audit periodically
type Scheduler struct {
	cron      *cron.Cron
	entryID   cron.EntryID
	config    *config.SchedulerConfig
	auditor   Auditor
	ctx       context.Context
	cancel    context.CancelFunc
	drained   context.Context
	interval  time.Duration
	isRunning bool
	lastRun   time.Time
	mu        sync.RWMutex
}

// NewScheduler creates a new scheduler
func NewScheduler(cfg *config.SchedulerConfig, auditor Auditor) *Scheduler {
	return &Scheduler{
		config:  cfg,
		auditor: auditor,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if s.config.IntervalMinutes <= 0 {
		return fmt.Errorf("scheduler interval must be greater than 0")
	}

	s.cron = cron.New(cron.WithSeconds())
	s.ctx, s.cancel = context.WithCancel(context.Background())

	interval := time.Duration(s.config.IntervalMinutes) * time.Minute
	if s.interval > 0 {
		interval = s.interval
	}
	s.entryID = s.cron.Schedule(cron.Every(interval), cron.FuncJob(s.runAudit))
	s.cron.Start()
	s.isRunning = true

	logrus.Infof("Position audit scheduler started with interval: %d minutes", s.config.IntervalMinutes)
	return nil
}

// Stop stops the scheduler and waits up to 30s for a running audit.
// The lock is released before waiting so the audit can record its run.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.cancel()
	drained := s.cron.Stop()
	s.drained = drained
	s.mu.Unlock()

	select {
	case <-drained.Done():
		logrus.Info("Scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Scheduler stop timeout, forcing shutdown")
	}
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *Scheduler) runAudit() {
	s.mu.RLock()
	if !s.isRunning {
		s.mu.RUnlock()
		logrus.Info("Scheduler not running, skipping audit cycle")
		return
	}
	ctx := s.ctx
	s.mu.RUnlock()

	if _, err := s.audit(ctx); err != nil {
		logrus.Errorf("Position audit failed: %v", err)
	}
}

func (s *Scheduler) audit(ctx context.Context) (waitlist.Report, error) {
	start := time.Now()
	report, err := s.auditor.Audit(ctx)

	s.mu.Lock()
	s.lastRun = start
	s.mu.Unlock()

	if err != nil {
		return report, err
	}

	logrus.WithFields(logrus.Fields{
		"active":     report.Active,
		"consistent": report.Consistent(),
		"duration":   time.Since(start).String(),
	}).Info("Position audit completed")
	return report, nil
}

// RunOnce runs the audit immediately (for manual triggering)
func (s *Scheduler) RunOnce(ctx context.Context) (waitlist.Report, error) {
	logrus.Info("Running position audit once")
	return s.audit(ctx)
}

// GetNextRun returns the time of the next scheduled run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// GetLastRun returns the time of the last audit, scheduled or manual
func (s *Scheduler) GetLastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

// Wait blocks until the scheduled audits that were running when the
// scheduler last stopped have returned.
func (s *Scheduler) Wait() {
	s.mu.RLock()
	drained := s.drained
	s.mu.RUnlock()
	if drained != nil {
		<-drained.Done()
	}
}

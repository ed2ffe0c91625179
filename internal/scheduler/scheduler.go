package scheduler

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Reconciler rebuilds derived state from the source records.
type Reconciler interface {
	ReconcileAll(ctx context.Context) (int, error)
}

// Scheduler periodically runs the reconciler to repair drift in the
// incrementally maintained aggregates.
type Scheduler struct {
	reconciler Reconciler
	interval   time.Duration
	logger     *logrus.Logger
	stopChan   chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
	jobMutex   sync.Mutex // Ensures sequential job execution
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewScheduler creates a new scheduler
func NewScheduler(reconciler Reconciler, interval time.Duration, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}
	if interval <= 0 {
		interval = time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		reconciler: reconciler,
		interval:   interval,
		logger:     logger,
		stopChan:   make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start begins the scheduled reconciliation runs
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.runScheduler()
}

func (s *Scheduler) runScheduler() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.RunOnce()
		}
	}
}

// RunOnce reconciles every property. Concurrent calls run one after another.
func (s *Scheduler) RunOnce() (int, error) {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	start := time.Now()
	s.logger.Info("Starting reconciliation run")

	count, err := s.reconciler.ReconcileAll(s.ctx)
	if err != nil {
		s.logger.WithError(err).WithField("reconciled", count).Error("Reconciliation run failed")
		return count, err
	}

	s.logger.WithFields(logrus.Fields{
		"reconciled": count,
		"duration":   time.Since(start).String(),
	}).Info("Reconciliation run completed")
	return count, nil
}

// Stop gracefully stops the scheduler, cancelling a run in progress
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		close(s.stopChan)
	})
	s.wg.Wait()
}

package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zaplinker/backend/internal/logger"
	"github.com/zaplinker/backend/internal/metrics"
	"github.com/zaplinker/backend/internal/repository"
	"go.uber.org/zap"
)

// Pruner removes analytics history older than a cutoff
type Pruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (events int64, hits int64, err error)
}

// RetentionJob prunes access events and number hits older than Days.
// Workspace and number counters are never touched.
type RetentionJob struct {
	Pruner  Pruner
	Days    int
	Timeout time.Duration
	now     func() time.Time
}

// NewRetentionJob creates a retention job over the analytics repository
func NewRetentionJob(analytics repository.AnalyticsRepository, days int) *RetentionJob {
	return &RetentionJob{
		Pruner:  analytics,
		Days:    days,
		Timeout: 10 * time.Minute,
		now:     time.Now,
	}
}

// Cutoff returns the oldest timestamp that survives a run
func (j *RetentionJob) Cutoff() time.Time {
	now := time.Now
	if j.now != nil {
		now = j.now
	}
	return now().UTC().AddDate(0, 0, -j.Days)
}

// Run prunes once. A non-positive Days disables pruning.
func (j *RetentionJob) Run(ctx context.Context) (events int64, hits int64, err error) {
	if j.Days <= 0 {
		return 0, 0, nil
	}

	cutoff := j.Cutoff()
	events, hits, err = j.Pruner.PruneBefore(ctx, cutoff)
	if err != nil {
		return 0, 0, fmt.Errorf("prune before %s: %w", cutoff.Format(time.DateOnly), err)
	}

	m := metrics.Get()
	m.PrunedRowsTotal.WithLabelValues("access_events").Add(float64(events))
	m.PrunedRowsTotal.WithLabelValues("number_accesses").Add(float64(hits))

	logger.Log.Info("Retention pass finished",
		zap.Time("cutoff", cutoff),
		zap.Int64("events", events),
		zap.Int64("hits", hits),
	)
	return events, hits, nil
}

// Scheduler runs background jobs on 5-field cron specs
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates a scheduler in UTC
func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLogger{})),
		),
	}
}

// ScheduleRetention registers job under spec
func (s *Scheduler) ScheduleRetention(spec string, job *RetentionJob) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", spec, err)
	}

	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), job.Timeout)
		defer cancel()
		if _, _, err := job.Run(ctx); err != nil {
			logger.ErrorWithFields("Retention pass failed", err)
		}
	})
	return err
}

// Len returns the number of registered entries
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger routes cron's internal logging through zap
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Log.Sugar().Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}

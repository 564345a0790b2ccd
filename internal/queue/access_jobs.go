// Package queue runs the write-behind analytics pipeline behind the redirect endpoint.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zaplinker/backend/internal/logger"
	"github.com/zaplinker/backend/internal/metrics"
	"github.com/zaplinker/backend/internal/models"
	"go.uber.org/zap"
)

var (
	ErrQueueFull    = errors.New("analytics queue is full")
	ErrQueueStopped = errors.New("analytics queue is stopped")
)

// AccessJob carries everything needed to write one access event after the redirect was sent.
type AccessJob struct {
	ID          string               `json:"id"`
	WorkspaceID string               `json:"workspaceId"`
	NumberID    string               `json:"numberId,omitempty"`
	VisitorKey  string               `json:"visitorId"`
	IP          string               `json:"ip"`
	Device      models.DeviceType    `json:"deviceType"`
	UTM         models.UTMParameters `json:"utmParameters"`
	Referer     string               `json:"referer,omitempty"`
	At          time.Time            `json:"timestamp"`
}

// HandlerFunc processes one job. Errors are logged and counted, never retried.
type HandlerFunc func(ctx context.Context, job *AccessJob) error

// AnalyticsQueue is a bounded channel drained by a fixed worker pool.
type AnalyticsQueue struct {
	jobs       chan *AccessJob
	workers    int
	handle     HandlerFunc
	jobTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	started bool
	stopped bool
}

// NewAnalyticsQueue creates a queue with the given pool and buffer sizes.
func NewAnalyticsQueue(workers, size int, handle HandlerFunc) *AnalyticsQueue {
	if workers <= 0 {
		workers = 1
	}
	if size <= 0 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &AnalyticsQueue{
		jobs:       make(chan *AccessJob, size),
		workers:    workers,
		handle:     handle,
		jobTimeout: 10 * time.Second,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start begins processing jobs with the worker pool
func (q *AnalyticsQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.stopped {
		return
	}
	q.started = true

	logger.Log.Info("Starting analytics queue", zap.Int("workers", q.workers), zap.Int("capacity", cap(q.jobs)))
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Submit enqueues job without blocking. A saturated queue drops the job.
func (q *AnalyticsQueue) Submit(job *AccessJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.At.IsZero() {
		job.At = time.Now().UTC()
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stopped {
		return ErrQueueStopped
	}

	m := metrics.Get()
	select {
	case q.jobs <- job:
		m.AnalyticsQueueDepth.Set(float64(len(q.jobs)))
		m.AnalyticsJobsTotal.WithLabelValues("queued").Inc()
		return nil
	default:
		m.AnalyticsJobsTotal.WithLabelValues("dropped").Inc()
		logger.Log.Warn("Analytics queue full, dropping access job",
			logger.WithWorkspaceID(job.WorkspaceID),
			zap.Int("capacity", cap(q.jobs)),
		)
		return ErrQueueFull
	}
}

// Depth returns the number of jobs waiting.
func (q *AnalyticsQueue) Depth() int {
	return len(q.jobs)
}

// Stop refuses new jobs and waits for the workers to drain the buffer.
// When ctx expires first, in-flight jobs are cancelled and ctx's error is returned.
func (q *AnalyticsQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return nil
	}
	q.stopped = true
	close(q.jobs)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		logger.Log.Info("Analytics queue drained")
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		return fmt.Errorf("analytics queue drain: %w", ctx.Err())
	}
}

func (q *AnalyticsQueue) worker(workerID int) {
	defer q.wg.Done()
	for job := range q.jobs {
		metrics.Get().AnalyticsQueueDepth.Set(float64(len(q.jobs)))
		q.process(workerID, job)
	}
}

func (q *AnalyticsQueue) process(workerID int, job *AccessJob) {
	m := metrics.Get()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			m.AnalyticsJobsTotal.WithLabelValues("panicked").Inc()
			logger.Log.Error("Analytics job panicked",
				zap.Int("worker_id", workerID),
				zap.String("job_id", job.ID),
				zap.Any("panic", r),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(q.ctx, q.jobTimeout)
	defer cancel()

	if err := q.handle(ctx, job); err != nil {
		m.AnalyticsJobsTotal.WithLabelValues("failed").Inc()
		logger.Log.Error("Analytics job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID),
			logger.WithWorkspaceID(job.WorkspaceID),
			zap.Error(err),
		)
		return
	}
	m.AnalyticsJobsTotal.WithLabelValues("processed").Inc()
	m.AnalyticsJobDuration.Observe(time.Since(start).Seconds())
}

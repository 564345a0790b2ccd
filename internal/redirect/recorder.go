package redirect

import (
	"context"
	"errors"
	"fmt"

	"github.com/zaplinker/backend/internal/events"
	"github.com/zaplinker/backend/internal/geo"
	"github.com/zaplinker/backend/internal/logger"
	"github.com/zaplinker/backend/internal/metrics"
	"github.com/zaplinker/backend/internal/models"
	"github.com/zaplinker/backend/internal/queue"
	"github.com/zaplinker/backend/internal/repository"
	"github.com/zaplinker/backend/internal/telemetry"
	"go.uber.org/zap"
)

// Recorder is the analytics queue handler: geo lookup, access event, number hit, publish.
type Recorder struct {
	Analytics repository.AnalyticsRepository
	Numbers   repository.NumberRepository
	Geo       geo.Resolver
	Publisher events.Publisher
}

// Handle writes the access event for job. Only a failed event insert is returned as an error.
func (r *Recorder) Handle(ctx context.Context, job *queue.AccessJob) (err error) {
	ctx, span := telemetry.StartAnalyticsSpan(ctx, job.WorkspaceID, job.NumberID)
	defer func() { telemetry.EndSpan(span, err) }()

	country := geo.CountryUnknown
	if r.Geo != nil {
		country = r.Geo.Country(ctx, job.IP)
	}

	event := &models.AccessEvent{
		WorkspaceID:   job.WorkspaceID,
		VisitorKey:    job.VisitorKey,
		IPAddress:     job.IP,
		DeviceType:    job.Device,
		Country:       country,
		UTMParameters: job.UTM,
		Referer:       job.Referer,
		Timestamp:     job.At,
	}
	if job.NumberID != "" {
		numberID := job.NumberID
		event.NumberID = &numberID
	}
	if err := r.Analytics.AppendEvent(ctx, event); err != nil {
		return fmt.Errorf("append access event: %w", err)
	}

	if job.NumberID != "" {
		err := r.Numbers.RecordHit(ctx, job.NumberID, job.WorkspaceID, job.At)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			logger.Log.Debug("Number removed before its hit was recorded", logger.WithNumberID(job.NumberID))
		case err != nil:
			logger.Log.Warn("Failed to record number hit", logger.WithNumberID(job.NumberID), zap.Error(err))
		}
	}

	if r.Publisher != nil {
		status := "published"
		if err := r.Publisher.Publish(ctx, events.FromAccessEvent(event)); err != nil {
			status = "failed"
			logger.Log.Warn("Failed to publish access event", logger.WithWorkspaceID(job.WorkspaceID), zap.Error(err))
		}
		metrics.Get().EventsPublishedTotal.WithLabelValues(status).Inc()
	}
	return nil
}

// Package redirect resolves short link visits: attribution, number selection and the target URL.
package redirect

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/zaplinker/backend/internal/cache"
	"github.com/zaplinker/backend/internal/logger"
	"github.com/zaplinker/backend/internal/metrics"
	"github.com/zaplinker/backend/internal/models"
	"github.com/zaplinker/backend/internal/queue"
	"github.com/zaplinker/backend/internal/repository"
	"github.com/zaplinker/backend/internal/selector"
	"github.com/zaplinker/backend/internal/telemetry"
	"github.com/zaplinker/backend/internal/utm"
	"github.com/zaplinker/backend/internal/visitor"
	"go.uber.org/zap"
)

var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrNoActiveNumbers   = selector.ErrNoActiveNumbers
)

// RouteSource returns the redirect snapshot of a workspace.
type RouteSource interface {
	Get(ctx context.Context, customURL string) (*cache.Route, error)
}

// Enqueuer accepts access jobs for write-behind processing.
type Enqueuer interface {
	Submit(job *queue.AccessJob) error
}

// UniqueCounter tracks approximate unique visitors.
type UniqueCounter interface {
	AddVisitor(ctx context.Context, workspaceID, visitorKey string) error
}

// Request is one human visit to a short link.
type Request struct {
	CustomURL  string
	PathParams url.Values
	Query      url.Values
	VisitorKey string
	IP         string
	UserAgent  string
	Referer    string
	At         time.Time
}

// Result is a resolved visit.
type Result struct {
	Target     string
	Workspace  *models.Workspace
	Number     *models.WhatsappNumber
	Device     models.DeviceType
	NewVisitor bool
	Params     url.Values
}

// Service resolves visits. Uniques may be nil.
type Service struct {
	Routes    RouteSource
	Analytics repository.AnalyticsRepository
	Picker    *selector.Picker
	Queue     Enqueuer
	Uniques   UniqueCounter
}

// Resolve attributes the visit and picks the target. Attribution happens before number
// selection, so a workspace without active numbers still counts the visit and returns
// ErrNoActiveNumbers.
func (s *Service) Resolve(ctx context.Context, req Request) (result *Result, err error) {
	ctx, span := telemetry.StartRedirectSpan(ctx, req.CustomURL)
	defer func() { telemetry.EndSpan(span, err) }()

	if req.At.IsZero() {
		req.At = time.Now().UTC()
	}

	route, err := s.Routes.Get(ctx, req.CustomURL)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrWorkspaceNotFound
	}
	if err != nil {
		return nil, err
	}
	ws := route.Workspace

	result = &Result{
		Workspace: &ws,
		Device:    visitor.Classify(req.UserAgent),
		Params:    utm.Merge(ws.UTMParameters, req.PathParams, req.Query),
	}

	if err := s.attribute(ctx, req, result); err != nil {
		return nil, err
	}

	number, pickErr := s.Picker.Pick(route.Numbers)
	job := &queue.AccessJob{
		WorkspaceID: ws.ID,
		VisitorKey:  req.VisitorKey,
		IP:          req.IP,
		Device:      result.Device,
		UTM:         models.UTMFromValues(result.Params),
		Referer:     req.Referer,
		At:          req.At,
	}
	if pickErr == nil {
		job.NumberID = number.ID
	}
	// Dropped jobs are logged and counted by the queue.
	_ = s.Queue.Submit(job)

	if pickErr != nil {
		return result, pickErr
	}

	result.Number = number
	result.Target = utm.BuildTarget(ws.LinkStyle, utm.NormalizeNumber(number.Number), number.Text, result.Params)
	return result, nil
}

// attribute records the visit. Only a vanished workspace is fatal; other failures are logged.
func (s *Service) attribute(ctx context.Context, req Request, result *Result) error {
	ws := result.Workspace
	visit, err := s.Analytics.RecordVisit(ctx, repository.Visit{
		WorkspaceID: ws.ID,
		VisitorKey:  req.VisitorKey,
		IP:          req.IP,
		UserAgent:   req.UserAgent,
		Device:      result.Device,
		At:          req.At,
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrWorkspaceNotFound
	case err != nil:
		logger.Log.Error("Failed to record visit",
			logger.WithWorkspaceID(ws.ID),
			logger.WithVisitorKey(req.VisitorKey),
			zap.Error(err),
		)
		return nil
	}

	result.NewVisitor = visit.NewVisitor
	kind := "returning"
	if visit.NewVisitor {
		kind = "new"
	}
	metrics.Get().VisitorsTotal.WithLabelValues(kind).Inc()

	if s.Uniques != nil {
		if err := s.Uniques.AddVisitor(ctx, ws.ID, req.VisitorKey); err != nil {
			logger.Log.Warn("Failed to add visitor to HyperLogLog", logger.WithWorkspaceID(ws.ID), zap.Error(err))
		}
	}
	return nil
}

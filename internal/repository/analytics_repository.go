package repository

import (
	"context"
	"time"

	"github.com/zaplinker/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Visit is one attributed request to a workspace's short URL.
type Visit struct {
	WorkspaceID string
	VisitorKey  string
	IP          string
	UserAgent   string
	Device      models.DeviceType
	At          time.Time
}

// VisitResult reports how the visit was attributed.
type VisitResult struct {
	NewVisitor bool
}

// EventFilter narrows ListEvents. Zero values mean unbounded.
type EventFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}

// NumberStat is the number of logged hits of one number in a range.
type NumberStat struct {
	NumberID string `json:"numberId"`
	Hits     int64  `json:"hits"`
}

// AnalyticsRepository records visits and access history
type AnalyticsRepository interface {
	// RecordVisit upserts the visitor and bumps the workspace counters in one transaction.
	RecordVisit(ctx context.Context, visit Visit) (*VisitResult, error)
	AppendEvent(ctx context.Context, event *models.AccessEvent) error
	ListEvents(ctx context.Context, workspaceID string, filter EventFilter) ([]models.AccessEvent, error)
	CountEvents(ctx context.Context, workspaceID string, filter EventFilter) (int64, error)
	// NumberStats groups the number access log of a workspace by number.
	NumberStats(ctx context.Context, workspaceID string, filter EventFilter) ([]NumberStat, error)
	// PruneBefore deletes history older than cutoff. Counters are left untouched.
	PruneBefore(ctx context.Context, cutoff time.Time) (events int64, hits int64, err error)
}

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) RecordVisit(ctx context.Context, visit Visit) (*VisitResult, error) {
	if visit.WorkspaceID == "" || visit.VisitorKey == "" {
		return nil, ErrInvalidInput
	}
	if visit.At.IsZero() {
		visit.At = time.Now().UTC()
	}

	result := &VisitResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		touched, err := touchVisitor(tx, visit)
		if err != nil {
			return err
		}

		if !touched {
			// ON CONFLICT DO NOTHING: a concurrent first visit may win the unique index.
			ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Visitor{
				WorkspaceID: visit.WorkspaceID,
				VisitorKey:  visit.VisitorKey,
				IP:          visit.IP,
				UserAgent:   visit.UserAgent,
				FirstVisit:  visit.At,
				LastVisit:   visit.At,
				VisitCount:  1,
			})
			if ins.Error != nil {
				return ins.Error
			}
			if ins.RowsAffected == 1 {
				result.NewVisitor = true
			} else if _, err := touchVisitor(tx, visit); err != nil {
				return err
			}
		}

		column := visit.Device.CounterColumn()
		counters := map[string]interface{}{
			"access_count": gorm.Expr("access_count + ?", 1),
			column:         gorm.Expr(column+" + ?", 1),
		}
		if result.NewVisitor {
			counters["unique_visitor_count"] = gorm.Expr("unique_visitor_count + ?", 1)
		}

		res := tx.Model(&models.Workspace{}).Where("id = ?", visit.WorkspaceID).UpdateColumns(counters)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// touchVisitor increments an existing visitor and reports whether one matched.
func touchVisitor(tx *gorm.DB, visit Visit) (bool, error) {
	res := tx.Model(&models.Visitor{}).
		Where("workspace_id = ? AND visitor_key = ?", visit.WorkspaceID, visit.VisitorKey).
		UpdateColumns(map[string]interface{}{
			"visit_count": gorm.Expr("visit_count + ?", 1),
			"last_visit":  visit.At,
			"ip":          visit.IP,
			"user_agent":  visit.UserAgent,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *analyticsRepository) AppendEvent(ctx context.Context, event *models.AccessEvent) error {
	if event == nil || event.WorkspaceID == "" {
		return ErrInvalidInput
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *analyticsRepository) filtered(ctx context.Context, workspaceID string, filter EventFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.AccessEvent{}).Where("workspace_id = ?", workspaceID)
	if !filter.From.IsZero() {
		q = q.Where("occurred_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("occurred_at < ?", filter.To)
	}
	return q
}

func (r *analyticsRepository) ListEvents(ctx context.Context, workspaceID string, filter EventFilter) ([]models.AccessEvent, error) {
	var events []models.AccessEvent
	q := r.filtered(ctx, workspaceID, filter).Order("occurred_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	err := q.Find(&events).Error
	return events, err
}

func (r *analyticsRepository) CountEvents(ctx context.Context, workspaceID string, filter EventFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, workspaceID, filter).Count(&count).Error
	return count, err
}

func (r *analyticsRepository) NumberStats(ctx context.Context, workspaceID string, filter EventFilter) ([]NumberStat, error) {
	q := r.db.WithContext(ctx).Model(&models.NumberAccess{}).
		Select("number_id, COUNT(*) AS hits").
		Where("workspace_id = ?", workspaceID)
	if !filter.From.IsZero() {
		q = q.Where("occurred_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("occurred_at < ?", filter.To)
	}

	var stats []NumberStat
	err := q.Group("number_id").Order("hits DESC").Scan(&stats).Error
	return stats, err
}

func (r *analyticsRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, int64, error) {
	var events, hits int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("occurred_at < ?", cutoff).Delete(&models.AccessEvent{})
		if res.Error != nil {
			return res.Error
		}
		events = res.RowsAffected

		res = tx.Where("occurred_at < ?", cutoff).Delete(&models.NumberAccess{})
		if res.Error != nil {
			return res.Error
		}
		hits = res.RowsAffected
		return nil
	})
	return events, hits, err
}

package telemetry

import (
	"fmt"
	"strings"
	"time"

	"github.com/zaplinker/backend/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	dbSystemKey    = "db.system"
	dbTableKey     = "db.table"
	dbOperationKey = "db.operation"
	dbStatementKey = "db.statement"

	spanKey      = "telemetry:span"
	startTimeKey = "telemetry:start"
	operationKey = "telemetry:operation"
)

// GORMPlugin returns a GORM plugin that traces statements and records the database metrics
func GORMPlugin() gorm.Plugin {
	return &gormPlugin{
		tracer: otel.Tracer("gorm"),
	}
}

type gormPlugin struct {
	tracer trace.Tracer
	system string
}

func (p *gormPlugin) Name() string {
	return "telemetry:gorm"
}

func (p *gormPlugin) Initialize(db *gorm.DB) error {
	p.system = db.Dialector.Name()

	cb := db.Callback()
	hooks := []struct {
		name      string
		operation string
		before    func(name string, fn func(*gorm.DB)) error
		after     func(name string, fn func(*gorm.DB)) error
	}{
		{"query", "SELECT", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"create", "INSERT", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"update", "UPDATE", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", "DELETE", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", "SELECT", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", "RAW", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, h := range hooks {
		operation := h.operation
		if err := h.before("telemetry:before_"+h.name, func(db *gorm.DB) { p.before(db, operation) }); err != nil {
			return fmt.Errorf("failed to register before_%s callback: %w", h.name, err)
		}
		if err := h.after("telemetry:after_"+h.name, p.after); err != nil {
			return fmt.Errorf("failed to register after_%s callback: %w", h.name, err)
		}
	}
	return nil
}

func (p *gormPlugin) before(db *gorm.DB, operation string) {
	db.InstanceSet(startTimeKey, time.Now())
	db.InstanceSet(operationKey, operation)

	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	_, span := p.tracer.Start(ctx, "db."+strings.ToLower(operation),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(dbSystemKey, p.system),
			attribute.String(dbTableKey, tableName(db)),
			attribute.String(dbOperationKey, operation),
		),
	)
	db.InstanceSet(spanKey, span)
}

func (p *gormPlugin) after(db *gorm.DB) {
	table := tableName(db)
	operation := "UNKNOWN"
	if raw, ok := db.InstanceGet(operationKey); ok {
		operation, _ = raw.(string)
	}

	var elapsed time.Duration
	if raw, ok := db.InstanceGet(startTimeKey); ok {
		if start, ok := raw.(time.Time); ok {
			elapsed = time.Since(start)
		}
	}

	status := "success"
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		status = "error"
	}
	m := metrics.Get()
	m.DatabaseQueryDuration.WithLabelValues(operation, table).Observe(elapsed.Seconds())
	m.DatabaseQueriesTotal.WithLabelValues(operation, table, status).Inc()

	raw, ok := db.InstanceGet(spanKey)
	if !ok {
		return
	}
	span, ok := raw.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	if sql := db.Statement.SQL.String(); sql != "" {
		if len(sql) > 500 {
			sql = sql[:500] + "... (truncated)"
		}
		span.SetAttributes(attribute.String(dbStatementKey, sql))
	}
	if db.RowsAffected > 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.RowsAffected))
	}
	if status == "error" {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}
}

func tableName(db *gorm.DB) string {
	if db.Statement.Table != "" {
		return db.Statement.Table
	}
	return "unknown"
}

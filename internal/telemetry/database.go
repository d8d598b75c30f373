package telemetry

import (
	"fmt"
	"strings"
	"time"

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

	maxStatementLen = 500

	spanKey  = "otel:span"
	startKey = "otel:startTime"
)

// GORMTracingPlugin returns a GORM plugin that opens a span per statement.
// A nil provider means the global one.
func GORMTracingPlugin(tp trace.TracerProvider) gorm.Plugin {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &tracingPlugin{tracer: tp.Tracer("gorm")}
}

type tracingPlugin struct {
	tracer trace.Tracer
}

func (p *tracingPlugin) Name() string {
	return "telemetry:tracing"
}

func (p *tracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	if err := cb.Query().Before("gorm:query").Register("telemetry:before_query", p.before("SELECT")); err != nil {
		return fmt.Errorf("failed to register before_query callback: %w", err)
	}
	if err := cb.Row().Before("gorm:row").Register("telemetry:before_row", p.before("SELECT")); err != nil {
		return fmt.Errorf("failed to register before_row callback: %w", err)
	}
	if err := cb.Create().Before("gorm:create").Register("telemetry:before_create", p.before("INSERT")); err != nil {
		return fmt.Errorf("failed to register before_create callback: %w", err)
	}
	if err := cb.Update().Before("gorm:update").Register("telemetry:before_update", p.before("UPDATE")); err != nil {
		return fmt.Errorf("failed to register before_update callback: %w", err)
	}
	if err := cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", p.before("DELETE")); err != nil {
		return fmt.Errorf("failed to register before_delete callback: %w", err)
	}

	if err := cb.Query().After("gorm:query").Register("telemetry:after_query", p.after); err != nil {
		return fmt.Errorf("failed to register after_query callback: %w", err)
	}
	if err := cb.Row().After("gorm:row").Register("telemetry:after_row", p.after); err != nil {
		return fmt.Errorf("failed to register after_row callback: %w", err)
	}
	if err := cb.Create().After("gorm:create").Register("telemetry:after_create", p.after); err != nil {
		return fmt.Errorf("failed to register after_create callback: %w", err)
	}
	if err := cb.Update().After("gorm:update").Register("telemetry:after_update", p.after); err != nil {
		return fmt.Errorf("failed to register after_update callback: %w", err)
	}
	if err := cb.Delete().After("gorm:delete").Register("telemetry:after_delete", p.after); err != nil {
		return fmt.Errorf("failed to register after_delete callback: %w", err)
	}

	return nil
}

func (p *tracingPlugin) before(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}

		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}

		_, span := p.tracer.Start(ctx, "db."+strings.ToLower(operation),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String(dbSystemKey, db.Dialector.Name()),
				attribute.String(dbTableKey, table),
				attribute.String(dbOperationKey, operation),
			),
		)

		db.InstanceSet(spanKey, span)
		db.InstanceSet(startKey, time.Now())
	}
}

func (p *tracingPlugin) after(db *gorm.DB) {
	raw, exists := db.InstanceGet(spanKey)
	if !exists {
		return
	}
	span, ok := raw.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	if raw, exists := db.InstanceGet(startKey); exists {
		if started, ok := raw.(time.Time); ok {
			span.SetAttributes(attribute.Int64("db.duration_ms", time.Since(started).Milliseconds()))
		}
	}

	if sql := db.Statement.SQL.String(); sql != "" {
		// Long IN lists from batch lookups would bloat every span
		if len(sql) > maxStatementLen {
			sql = sql[:maxStatementLen] + "... (truncated)"
		}
		span.SetAttributes(attribute.String(dbStatementKey, sql))
	}

	if db.RowsAffected > 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.RowsAffected))
	}

	if db.Error != nil {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}
}

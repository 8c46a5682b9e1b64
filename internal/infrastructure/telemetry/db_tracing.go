package telemetry

import (
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls the per-statement spans
type DBTracingConfig struct {
	Enabled         bool
	DBSystem        string // "postgresql" or "sqlite"
	LogFullSQL      bool   // keep bound variables in db.statement; development only
	SlowQueryThresh time.Duration
	Provider        trace.TracerProvider // global provider when nil
}

// RegisterDBTracing installs otelgorm on db and a follow-up callback that
// annotates the statement span with rows affected, the table and slow-query
// and error markers. Record-not-found is not an error for the span.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if cfg.Provider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(cfg.Provider))
	}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	annotate := spanAnnotator(cfg.SlowQueryThresh)
	cb := db.Callback()
	// annotate must run while otelgorm's span is still open
	registrations := map[string]func(string, func(*gorm.DB)) error{
		"create": cb.Create().After("gorm:create").Before("otel:after:create").Register,
		"query":  cb.Query().After("gorm:query").Before("otel:after:query").Register,
		"update": cb.Update().After("gorm:update").Before("otel:after:update").Register,
		"delete": cb.Delete().After("gorm:delete").Before("otel:after:delete").Register,
		"row":    cb.Row().After("gorm:row").Before("otel:after:row").Register,
		"raw":    cb.Raw().After("gorm:raw").Before("otel:after:raw").Register,
	}
	for kind, register := range registrations {
		if err := register("db_tracing:annotate_"+kind, annotate); err != nil {
			return err
		}
	}

	log.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Bool("full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

// spanAnnotator reuses the start time stamped by the metrics plugin when it
// is installed; without it no duration attributes are added.
func spanAnnotator(slow time.Duration) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		ctx := tx.Statement.Context
		if ctx == nil {
			return
		}
		span := trace.SpanFromContext(ctx)
		if !span.IsRecording() {
			return
		}
		if tx.Statement.RowsAffected >= 0 {
			span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
		}
		if tx.Statement.Table != "" {
			span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
		}
		if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, tx.Error.Error())
			span.RecordError(tx.Error)
		}
		if start, ok := ctx.Value(dbMetricsStartTimeKey).(time.Time); ok && slow > 0 {
			if elapsed := time.Since(start); elapsed > slow {
				span.SetAttributes(
					attribute.Bool("db.slow_query", true),
					attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
				)
			}
		}
	}
}

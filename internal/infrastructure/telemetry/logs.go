package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogsConfig holds the OTLP log export configuration
type LogsConfig struct {
	Enabled           bool
	CollectorEndpoint string
	ServiceName       string
	Insecure          bool
}

// LoggerProvider exports zap records as OpenTelemetry logs
type LoggerProvider struct {
	sdk  *sdklog.LoggerProvider
	name string
	log  *zap.Logger
}

// NewLoggerProvider builds a batching OTLP/gRPC log provider and installs it
// globally. Disabled configs return a provider whose Core is a no-op.
func NewLoggerProvider(ctx context.Context, cfg LogsConfig, log *zap.Logger) (*LoggerProvider, error) {
	if log == nil {
		log = zap.NewNop()
	}
	lp := &LoggerProvider{name: cfg.ServiceName, log: log}
	if !cfg.Enabled {
		log.Info("Log export disabled")
		return lp, nil
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create log exporter: %w", err)
	}
	res, err := serviceResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	lp.sdk = sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(lp.sdk)
	log.Info("Log export enabled", zap.String("collector_endpoint", cfg.CollectorEndpoint))
	return lp, nil
}

func newLoggerProviderWith(name string, sdk *sdklog.LoggerProvider) *LoggerProvider {
	return &LoggerProvider{sdk: sdk, name: name, log: zap.NewNop()}
}

func (lp *LoggerProvider) IsEnabled() bool { return lp.sdk != nil }

// Core returns a zap core that forwards records at or above level to the
// provider. Tee it with the console core.
func (lp *LoggerProvider) Core(level zapcore.Level) zapcore.Core {
	if lp.sdk == nil {
		return zapcore.NewNopCore()
	}
	core := otelzap.NewCore(lp.name, otelzap.WithLoggerProvider(lp.sdk))
	increased, err := zapcore.NewIncreaseLevelCore(core, level)
	if err != nil {
		return core
	}
	return increased
}

// Attach returns log with the export core teed in
func (lp *LoggerProvider) Attach(log *zap.Logger, level zapcore.Level) *zap.Logger {
	if lp.sdk == nil {
		return log
	}
	export := lp.Core(level)
	return log.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, export)
	}))
}

// Shutdown flushes buffered records
func (lp *LoggerProvider) Shutdown(ctx context.Context) error {
	if lp.sdk == nil {
		return nil
	}
	return stopProvider(ctx, lp.log, "logger", lp.sdk.Shutdown)
}

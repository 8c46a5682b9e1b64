package telemetry

import (
	"errors"
	"fmt"
	"os"
	"sync"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"github.com/grafana/pyroscope-go"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// ProfilerConfig holds continuous profiling settings
type ProfilerConfig struct {
	Enabled         bool
	ServerAddress   string // e.g. "http://pyroscope:4040"
	ApplicationName string
	Tags            map[string]string
}

// Profiler pushes CPU, heap and goroutine profiles to Pyroscope
type Profiler struct {
	mu      sync.Mutex
	running *pyroscope.Profiler
	log     *zap.Logger
}

// profileTypes cover the saga and matching hot paths; mutex and block
// profiles stay off because they change runtime sampling rates.
var profileTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocObjects,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseObjects,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
}

// NewProfiler starts profiling when enabled; a disabled profiler is a no-op
func NewProfiler(cfg ProfilerConfig, log *zap.Logger) (*Profiler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Profiler{log: log}
	if !cfg.Enabled {
		return p, nil
	}
	if cfg.ServerAddress == "" || cfg.ApplicationName == "" {
		return nil, errors.New("profiling needs a server address and an application name")
	}

	tags := map[string]string{}
	for k, v := range cfg.Tags {
		tags[k] = v
	}
	if host, err := os.Hostname(); err == nil && tags["hostname"] == "" {
		tags["hostname"] = host
	}

	running, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ApplicationName,
		ServerAddress:   cfg.ServerAddress,
		Logger:          pyroscopeLogger{log.Named("pyroscope").Sugar()},
		Tags:            tags,
		ProfileTypes:    profileTypes,
	})
	if err != nil {
		return nil, fmt.Errorf("start profiler: %w", err)
	}
	p.running = running
	log.Info("Continuous profiling enabled",
		zap.String("server_address", cfg.ServerAddress),
		zap.String("application_name", cfg.ApplicationName),
	)
	return p, nil
}

func (p *Profiler) IsEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running != nil
}

// Stop flushes the last profiles. Safe to call more than once.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running == nil {
		return nil
	}
	err := p.running.Stop()
	p.running = nil
	if err != nil {
		return fmt.Errorf("stop profiler: %w", err)
	}
	return nil
}

// LinkProfiles wraps the exporting tracer provider so spans carry profile ids.
// It is a no-op when tracing is disabled.
func (tp *TracerProvider) LinkProfiles() {
	if tp.sdk == nil {
		return
	}
	otel.SetTracerProvider(otelpyroscope.NewTracerProvider(tp.sdk))
	tp.log.Info("Spans linked to profiles")
}

type pyroscopeLogger struct {
	s *zap.SugaredLogger
}

func (l pyroscopeLogger) Infof(format string, args ...any)  { l.s.Infof(format, args...) }
func (l pyroscopeLogger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }
func (l pyroscopeLogger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }

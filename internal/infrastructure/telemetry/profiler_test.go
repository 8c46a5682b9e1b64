package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{}, nil)
	require.NoError(t, err)

	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_RequiresTarget(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "estate"}, nil)
	assert.Error(t, err)

	_, err = NewProfiler(ProfilerConfig{Enabled: true, ServerAddress: "http://pyroscope:4040"}, nil)
	assert.Error(t, err)
}

func TestPyroscopeLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := pyroscopeLogger{zap.New(core).Sugar()}

	l.Infof("upload %d profiles", 3)
	l.Debugf("tick")
	l.Errorf("upload failed: %s", "timeout")

	require.Equal(t, 3, logs.Len())
	assert.Equal(t, "upload 3 profiles", logs.All()[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[2].Level)
}

func TestLinkProfiles_DisabledTracingIsNoop(t *testing.T) {
	tp := &TracerProvider{log: zap.NewNop()}
	tp.LinkProfiles()
	assert.False(t, tp.IsEnabled())
}

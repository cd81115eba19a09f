package logging_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/permitmap/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	tl := logging.CaptureLoggingForTest(t)

	logging.Debug().Msg("debug message")
	logging.Info().Str("city", "austin").Msg("info message")
	logging.Warn().Msg("warning message")
	logging.Error().Msg("error message")

	assert.Len(t, tl.Entries(), 4)
	tl.AssertEntry(t, map[string]any{"level": "debug", "message": "debug message"})
	tl.AssertEntry(t, map[string]any{"level": "info", "city": "austin"})
	tl.AssertEntry(t, map[string]any{"level": "error", "message": "error message"})
	assert.Empty(t, tl.Find(map[string]any{"level": "info", "city": "boston"}))
}

func TestContextFields(t *testing.T) {
	tl := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithCity(ctx, "seattle")
	ctx = logging.WithQuery(ctx, "solar")
	ctx = logging.WithOperation(ctx, "fetch")
	ctx = logging.WithFields(ctx, map[string]any{
		"attempt": 2,
		"timeout": 3 * time.Second,
	})

	logging.FromContext(ctx).Info().Msg("fetching")

	tl.AssertContains(t, `"city":"seattle"`)
	tl.AssertContains(t, `"query":"solar"`)
	tl.AssertContains(t, `"operation":"fetch"`)
	tl.AssertContains(t, `"attempt":2`)
	tl.AssertEntry(t, map[string]any{"city": "seattle", "attempt": 2, "message": "fetching"})
}

func TestTestLoggerStages(t *testing.T) {
	tl := logging.NewTestLogger(t)
	austin := tl.With().Str("city", "austin").Logger()
	dallas := tl.With().Str("city", "dallas").Logger()

	austin.Debug().Str("stage", "fetching").Msg("Connector stage")
	dallas.Debug().Str("stage", "fetching").Msg("Connector stage")
	austin.Debug().Str("stage", "done").Msg("Source fetched")
	tl.Info().Msg("no city")

	assert.Equal(t, []string{"fetching", "done"}, tl.Stages("austin"))
	assert.Equal(t, []string{"fetching"}, tl.Stages("dallas"))
	assert.Empty(t, tl.Stages("houston"))
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	assert.Same(t, logging.Default(), logging.FromContext(nil))
	assert.Same(t, logging.Default(), logging.Ctx(context.Background()))
}

func TestRequestID(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithRequestID(ctx, "req-123")

	assert.Equal(t, "req-123", logging.RequestID(ctx))
	logging.Ctx(ctx).Info().Msg("handled")
	tl.AssertContains(t, `"request_id":"req-123"`)

	assert.Empty(t, logging.RequestID(context.Background()))
}

func TestErrorField(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithField(ctx, "error", errors.New("connection refused"))
	logging.Ctx(ctx).Warn().Msg("source failed")

	tl.AssertContains(t, `"error":"connection refused"`)
}

func TestNewLoggerFromConfig(t *testing.T) {
	originalLevel := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(originalLevel) })

	path := filepath.Join(t.TempDir(), "permitmap.log")
	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:  "warn",
		Format: "json",
		Output: path,
		Fields: map[string]any{"service": "permitmap"},
	})

	logger.Info().Msg("dropped")
	logger.Warn().Msg("kept")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "dropped")
	assert.Contains(t, string(content), "kept")
	assert.Contains(t, string(content), `"service":"permitmap"`)
}

func TestDefaultConfig(t *testing.T) {
	cfg := logging.DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "auto", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.False(t, cfg.AddCaller)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("PERMITMAP_LOG_LEVEL", "debug")
	t.Setenv("PERMITMAP_LOG_FORMAT", "json")
	t.Setenv("PERMITMAP_LOG_FIELDS", "env=test, region=us")

	cfg := logging.ConfigFromEnv()
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, map[string]any{"env": "test", "region": "us"}, cfg.Fields)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, logging.ParseLevel(in))
		})
	}
}

package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/carbonledger/internal/logging"
)

func TestTraceHookStampsTraceID(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Hook(logging.TraceHook{})

	ctx := logging.ContextWithTraceID(context.Background(), "01TESTTRACE")
	logger.Info().Ctx(ctx).Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "01TESTTRACE", entry[logging.FieldTraceID])
}

func TestTraceHookWithoutTraceID(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Hook(logging.TraceHook{})

	logger.Info().Ctx(context.Background()).Msg("hello")

	assert.NotContains(t, buf.String(), logging.FieldTraceID)
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.ComponentLogger(zerolog.New(&buf), "resolver")
	ctx := logger.WithContext(context.Background())

	logging.FromContext(ctx).Info().Msg("from context")

	assert.Contains(t, buf.String(), `"component":"resolver"`)
	assert.Contains(t, buf.String(), "from context")
}

func TestGetOrGenerateTraceID(t *testing.T) {
	t.Run("context wins", func(t *testing.T) {
		t.Setenv("CARBONLEDGER_TRACE_ID", "from-env")
		ctx := logging.ContextWithTraceID(context.Background(), "from-ctx")
		assert.Equal(t, "from-ctx", logging.GetOrGenerateTraceID(ctx))
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("CARBONLEDGER_TRACE_ID", "from-env")
		assert.Equal(t, "from-env", logging.GetOrGenerateTraceID(context.Background()))
	})

	t.Run("generated", func(t *testing.T) {
		t.Setenv("CARBONLEDGER_TRACE_ID", "")
		a := logging.GetOrGenerateTraceID(context.Background())
		b := logging.GetOrGenerateTraceID(context.Background())
		assert.Len(t, a, 26)
		assert.NotEqual(t, a, b)
	})
}

func TestNewLoggerWithPath(t *testing.T) {
	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "carbonledger.log")
		result := logging.NewLoggerWithPath(logging.Config{Level: "debug", Output: logging.OutputFile, File: path})
		t.Cleanup(func() { _ = result.Close() })

		require.True(t, result.UsingFile)
		assert.False(t, result.FallbackUsed)
		result.Logger.Debug().Msg("written")
		require.NoError(t, result.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "written")
	})

	t.Run("missing file falls back", func(t *testing.T) {
		result := logging.NewLoggerWithPath(logging.Config{Output: logging.OutputFile})
		assert.False(t, result.UsingFile)
		assert.True(t, result.FallbackUsed)
		assert.NotEmpty(t, result.FallbackReason)
	})

	t.Run("invalid level defaults to info", func(t *testing.T) {
		result := logging.NewLoggerWithPath(logging.Config{Level: "chatty", Format: logging.FormatJSON})
		assert.Equal(t, zerolog.InfoLevel, result.Logger.GetLevel())
	})
}

func TestPrintMessages(t *testing.T) {
	var buf bytes.Buffer
	logging.PrintLogPathMessage(&buf, "/tmp/x.log")
	logging.PrintFallbackWarning(&buf, "permission denied")
	assert.Contains(t, buf.String(), "Logging to /tmp/x.log")
	assert.Contains(t, buf.String(), "permission denied")
}

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "level %q", tt.in)
	}
}

func TestNewWriterLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := ComponentLogger(NewWriterLogger(&buf, Config{Level: "info", Format: FormatJSON}), "footprint")

	l.Debug().Msg("hidden")
	l.Info().Float64("total_kg", 5.11).Msg("computed")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "footprint", event["component"])
	assert.Equal(t, "computed", event["message"])
	assert.InDelta(t, 5.11, event["total_kg"], 1e-9)
}

func TestNewWriterLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, Config{Level: "debug", Format: FormatConsole})

	l.Debug().Msg("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestNewLoggerWithPath_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bytecarbon.log")

	result := NewLoggerWithPath(Config{Level: "info", Output: OutputFile, File: path})
	t.Cleanup(func() { _ = result.Close() })

	require.True(t, result.UsingFile)
	assert.False(t, result.FallbackUsed)
	assert.Equal(t, path, result.FilePath)

	result.Logger.Info().Msg("written")
	require.NoError(t, result.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written")
}

func TestNewLoggerWithPath_FallsBackWithoutFile(t *testing.T) {
	result := NewLoggerWithPath(Config{Output: OutputFile})

	assert.False(t, result.UsingFile)
	assert.True(t, result.FallbackUsed)
	assert.NotEmpty(t, result.FallbackReason)
	assert.NoError(t, result.Close())
}

func TestPrintMessages(t *testing.T) {
	var buf bytes.Buffer
	PrintLogPathMessage(&buf, "/tmp/x.log")
	PrintFallbackWarning(&buf, "no path")

	assert.Contains(t, buf.String(), "Logging to /tmp/x.log")
	assert.Contains(t, buf.String(), "Warning: logging to stderr: no path")
}

func TestTraceIDs(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, TraceIDFromContext(ctx))

	generated := GetOrGenerateTraceID(ctx)
	assert.Len(t, generated, 26)
	assert.NotEqual(t, generated, NewTraceID())

	ctx = ContextWithTraceID(ctx, "01HTRACE")
	assert.Equal(t, "01HTRACE", TraceIDFromContext(ctx))
	assert.Equal(t, "01HTRACE", GetOrGenerateTraceID(ctx))
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, zerolog.Disabled, FromContext(context.Background()).GetLevel())

	var buf bytes.Buffer
	l := NewWriterLogger(&buf, Config{Level: "debug", Format: FormatJSON})
	ctx := ContextWithTraceID(l.WithContext(context.Background()), "abc")

	FromContext(ctx).Info().Msg("traced")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "abc", event[TraceIDField])
}

func TestAuditLogger(t *testing.T) {
	var buf bytes.Buffer
	audit := NewWriterAuditLogger(&buf)
	ctx := ContextWithAuditLogger(context.Background(), audit)

	entry := NewAuditEntry("submit", "trace-1").
		WithParameters(map[string]string{"endpoint": "http://example.test"}).
		WithSuccess(118.84).
		WithDuration(time.Now())
	AuditLoggerFromContext(ctx).Log(ctx, *entry)

	var got AuditEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got))
	assert.Equal(t, "submit", got.Command)
	assert.True(t, got.Success)
	assert.InDelta(t, 118.84, got.TotalKg, 1e-9)
	assert.Equal(t, "http://example.test", got.Parameters["endpoint"])
	require.NoError(t, audit.Close())
}

func TestAuditLogger_DisabledIsNoop(t *testing.T) {
	audit := NewAuditLogger(AuditLoggerConfig{Enabled: false, File: "/nonexistent/audit.log"})
	audit.Log(context.Background(), *NewAuditEntry("export", ""))
	assert.NoError(t, audit.Close())

	fromEmpty := AuditLoggerFromContext(context.Background())
	assert.NoError(t, fromEmpty.Close())
}

func TestAuditLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	audit := NewAuditLogger(AuditLoggerConfig{Enabled: true, File: path})

	audit.Log(context.Background(), *NewAuditEntry("export", "t").WithError("boom"))
	require.NoError(t, audit.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"error":"boom"`)
}

package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditEntry records one user-facing action such as an export or a
// submission.
type AuditEntry struct {
	Timestamp  time.Time         `json:"timestamp"`
	Command    string            `json:"command"`
	TraceID    string            `json:"trace_id,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Success    bool              `json:"success"`
	TotalKg    float64           `json:"total_kg,omitempty"`
	Error      string            `json:"error,omitempty"`
	DurationMs int64             `json:"duration_ms"`
}

// NewAuditEntry starts an entry for command.
func NewAuditEntry(command, traceID string) *AuditEntry {
	return &AuditEntry{
		Timestamp: time.Now().UTC(),
		Command:   command,
		TraceID:   traceID,
	}
}

// WithParameters attaches the command parameters.
func (e *AuditEntry) WithParameters(params map[string]string) *AuditEntry {
	e.Parameters = params
	return e
}

// WithSuccess marks the entry successful with the resulting total.
func (e *AuditEntry) WithSuccess(totalKg float64) *AuditEntry {
	e.Success = true
	e.TotalKg = totalKg
	return e
}

// WithError marks the entry failed.
func (e *AuditEntry) WithError(msg string) *AuditEntry {
	e.Success = false
	e.Error = msg
	return e
}

// WithDuration sets the elapsed time since start.
func (e *AuditEntry) WithDuration(start time.Time) *AuditEntry {
	e.DurationMs = time.Since(start).Milliseconds()
	return e
}

// AuditLogger writes audit entries.
type AuditLogger interface {
	Log(ctx context.Context, entry AuditEntry)
	Close() error
}

// AuditLoggerConfig enables the JSON-lines audit log.
type AuditLoggerConfig struct {
	Enabled bool
	File    string
}

// NewAuditLogger returns a file-backed logger, or a no-op one when disabled
// or when the file cannot be opened.
func NewAuditLogger(cfg AuditLoggerConfig) AuditLogger {
	if !cfg.Enabled || cfg.File == "" {
		return nopAuditLogger{}
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
		return nopAuditLogger{}
	}
	f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nopAuditLogger{}
	}
	return &writerAuditLogger{w: f, closer: f}
}

// NewWriterAuditLogger writes JSON lines to w.
func NewWriterAuditLogger(w io.Writer) AuditLogger {
	return &writerAuditLogger{w: w}
}

type writerAuditLogger struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
}

func (l *writerAuditLogger) Log(ctx context.Context, entry AuditEntry) {
	b, err := json.Marshal(entry)
	if err != nil {
		FromContext(ctx).Warn().Err(err).Msg("encoding audit entry")
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err = fmt.Fprintf(l.w, "%s\n", b); err != nil {
		FromContext(ctx).Warn().Err(err).Msg("writing audit entry")
	}
}

func (l *writerAuditLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}

type nopAuditLogger struct{}

func (nopAuditLogger) Log(context.Context, AuditEntry) {}
func (nopAuditLogger) Close() error                    { return nil }

// ContextWithAuditLogger stores an audit logger in ctx.
func ContextWithAuditLogger(ctx context.Context, l AuditLogger) context.Context {
	return context.WithValue(ctx, auditLoggerKey, l)
}

// AuditLoggerFromContext returns the stored audit logger, or a no-op one.
func AuditLoggerFromContext(ctx context.Context) AuditLogger {
	if ctx == nil {
		return nopAuditLogger{}
	}
	if l, ok := ctx.Value(auditLoggerKey).(AuditLogger); ok && l != nil {
		return l
	}
	return nopAuditLogger{}
}

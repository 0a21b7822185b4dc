package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/bytecarbon/internal/config"
	"github.com/rshade/bytecarbon/internal/export"
	"github.com/rshade/bytecarbon/internal/footprint"
	"github.com/rshade/bytecarbon/internal/logging"
	"github.com/rshade/bytecarbon/internal/survey"
)

// stdinPath reads a form from standard input.
const stdinPath = "-"

// keyValueParts is the expected number of parts when splitting key=value strings.
const keyValueParts = 2

// Limits for --set parsing.
const (
	maxOverrides      = 100
	maxOverrideKeyLen = 128
	maxOverrideValLen = 10 * 1024
)

// auditContext holds common context for audit logging within a command.
type auditContext struct {
	logger  logging.AuditLogger
	traceID string
	params  map[string]string
	start   time.Time
	command string
}

// newAuditContext creates a new audit context.
func newAuditContext(ctx context.Context, command string, params map[string]string) *auditContext {
	return &auditContext{
		logger:  logging.AuditLoggerFromContext(ctx),
		traceID: logging.TraceIDFromContext(ctx),
		params:  params,
		start:   time.Now(),
		command: command,
	}
}

// logFailure logs an audit entry for a failed operation.
func (a *auditContext) logFailure(ctx context.Context, err error) {
	entry := logging.NewAuditEntry(a.command, a.traceID).
		WithParameters(a.params).
		WithError(err.Error()).
		WithDuration(a.start)
	a.logger.Log(ctx, *entry)
}

// logSuccess logs an audit entry for a successful operation.
func (a *auditContext) logSuccess(ctx context.Context, totalKg float64) {
	entry := logging.NewAuditEntry(a.command, a.traceID).
		WithParameters(a.params).
		WithSuccess(totalKg).
		WithDuration(a.start)
	a.logger.Log(ctx, *entry)
}

// ParseOverrides parses --set key=value flags into a map. An empty value
// is allowed and clears the field.
func ParseOverrides(sets []string) (map[string]string, error) {
	if len(sets) > maxOverrides {
		return nil, fmt.Errorf("too many --set overrides: %d (max %d)", len(sets), maxOverrides)
	}

	overrides := make(map[string]string, len(sets))
	for _, s := range sets {
		parts := strings.SplitN(s, "=", keyValueParts)
		if len(parts) != keyValueParts {
			return nil, fmt.Errorf("invalid --set format %q: expected key=value", s)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			return nil, fmt.Errorf("--set key cannot be empty in %q", s)
		}
		if len(key) > maxOverrideKeyLen {
			return nil, fmt.Errorf("--set key too long: %d bytes (max %d)", len(key), maxOverrideKeyLen)
		}
		if len(value) > maxOverrideValLen {
			return nil, fmt.Errorf("--set value too large for key %q: %d bytes (max %d)",
				key, len(value), maxOverrideValLen)
		}
		overrides[key] = value
	}
	return overrides, nil
}

// applyOverrides writes overrides onto a copy of form.
func applyOverrides(form survey.Response, overrides map[string]string) survey.Response {
	out := form.Clone()
	for key, value := range overrides {
		out.Apply(key, value)
	}
	return out
}

// loadForm reads a questionnaire from a file, or from stdin for "-".
func loadForm(cmd *cobra.Command, path string) (survey.Response, error) {
	if path == stdinPath {
		return export.DecodeForm(cmd.InOrStdin())
	}
	return export.ReadForm(path)
}

// resolveFactors applies a --factors file to the configured factors.
func resolveFactors(cfg *config.Config, factorsPath string) (footprint.Factors, error) {
	if factorsPath == "" {
		return cfg.Factors, nil
	}
	return config.LoadFactorsFile(cfg.Factors, factorsPath)
}

// resolveFormat returns the --output value, or the configured default when
// the flag is empty.
func resolveFormat(cfg *config.Config, flag string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(flag))
	if format == "" {
		format = cfg.Output.DefaultFormat
	}
	switch format {
	case config.FormatTable, config.FormatJSON, config.FormatNDJSON:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %q (expected table, json or ndjson)", config.ErrInvalidFormat, flag)
	}
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/rshade/bytecarbon/internal/footprint"
)

// CurrentVersion is written by `config init`. Files with another major
// version are rejected.
const CurrentVersion = "1.0.0"

// Environment variables that override the config file.
const (
	EnvHome        = "BYTECARBON_HOME"
	EnvLogLevel    = "BYTECARBON_LOG_LEVEL"
	EnvLogFormat   = "BYTECARBON_LOG_FORMAT"
	EnvEndpoint    = "BYTECARBON_ENDPOINT"
	EnvCarbonPrice = "BYTECARBON_CARBON_PRICE"
)

// Output formats.
const (
	FormatTable  = "table"
	FormatJSON   = "json"
	FormatNDJSON = "ndjson"
)

const (
	outputTypeFile   = "file"
	configFileName   = "config.yaml"
	maxPrecision     = 6
	defaultPrecision = 2
)

// Validation errors.
var (
	ErrUnsupportedVersion = errors.New("unsupported config version")
	ErrInvalidFormat      = errors.New("invalid output format")
	ErrInvalidPrecision   = errors.New("precision must be between 0 and 6")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidEndpoint    = errors.New("submission endpoint must be an http or https URL")
	ErrInvalidSubmission  = errors.New("invalid submission settings")
	ErrUnknownKey         = errors.New("unknown configuration key")
)

// OutputConfig controls result rendering.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"`
	Precision     int    `yaml:"precision"      json:"precision"`
}

// AuditConfig enables the JSON-lines audit log of exports and submissions.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	File    string `yaml:"file"    json:"file"`
}

// LoggingConfig controls the zerolog logger.
type LoggingConfig struct {
	Level  string      `yaml:"level"  json:"level"`
	Format string      `yaml:"format" json:"format"`
	File   string      `yaml:"file"   json:"file"`
	Audit  AuditConfig `yaml:"audit"  json:"audit"`
}

// SubmissionConfig controls the optional HTTP submission of results.
type SubmissionConfig struct {
	Endpoint       string `yaml:"endpoint"        json:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"     json:"max_retries"`
}

// ExportConfig controls where export records are written.
type ExportConfig struct {
	Directory string `yaml:"directory" json:"directory"`
}

// ServerConfig controls `bytecarbon serve`.
type ServerConfig struct {
	Address      string `yaml:"address"       json:"address"`
	CacheEntries int    `yaml:"cache_entries" json:"cache_entries"`
}

// Config is the full bytecarbon configuration.
type Config struct {
	Version    string            `yaml:"version"    json:"version"`
	Output     OutputConfig      `yaml:"output"     json:"output"`
	Logging    LoggingConfig     `yaml:"logging"    json:"logging"`
	Factors    footprint.Factors `yaml:"factors"    json:"factors"`
	Submission SubmissionConfig  `yaml:"submission" json:"submission"`
	Export     ExportConfig      `yaml:"export"     json:"export"`
	Server     ServerConfig      `yaml:"server"     json:"server"`

	path    string
	loadErr error
}

// Default returns the built-in configuration without touching the disk.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Output: OutputConfig{
			DefaultFormat: FormatTable,
			Precision:     defaultPrecision,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Factors: footprint.DefaultFactors(),
		Submission: SubmissionConfig{
			TimeoutSeconds: 10,
			MaxRetries:     3,
		},
		Export: ExportConfig{Directory: "."},
		Server: ServerConfig{
			Address:      ":8080",
			CacheEntries: 256,
		},
	}
}

// New returns the defaults overlaid with the user config file, if any, and
// the environment. New never fails: a config file that cannot be read or
// parsed, or an unusable environment value, is kept for LoadError and the
// affected settings keep their defaults.
func New() *Config {
	cfg := Default()
	var errs []error
	if path, err := ConfigPath(); err == nil {
		cfg.path = path
		loaded, loadErr := Load(path)
		switch {
		case loadErr == nil:
			cfg = loaded
		case !errors.Is(loadErr, os.ErrNotExist):
			errs = append(errs, loadErr)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		errs = append(errs, err)
	}
	cfg.loadErr = errors.Join(errs...)
	return cfg
}

// LoadError reports why New could not apply the config file or the
// environment. It is nil for a missing config file.
func (c *Config) LoadError() error {
	return c.loadErr
}

// Load reads a config file over the defaults. Absent keys keep their
// defaults; factor maps are merged entry by entry.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.path = path
	return cfg, nil
}

// Path returns the file this config was loaded from or will be saved to.
func (c *Config) Path() string {
	if c.path != "" {
		return c.path
	}
	if p, err := ConfigPath(); err == nil {
		return p
	}
	return configFileName
}

// SetPath changes the file Save writes to.
func (c *Config) SetPath(path string) {
	c.path = path
}

// Save writes the config as YAML, creating the directory if needed.
func (c *Config) Save() error {
	path := c.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err = os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays the BYTECARBON_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(EnvEndpoint); v != "" {
		c.Submission.Endpoint = v
	}
	if v := os.Getenv(EnvCarbonPrice); v != "" {
		price, err := cast.ToFloat64E(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCarbonPrice, err)
		}
		c.Factors.CarbonPrice = price
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := validateVersion(c.Version); err != nil {
		return err
	}
	switch c.Output.DefaultFormat {
	case FormatTable, FormatJSON, FormatNDJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Output.DefaultFormat)
	}
	if c.Output.Precision < 0 || c.Output.Precision > maxPrecision {
		return fmt.Errorf("%w: got %d", ErrInvalidPrecision, c.Output.Precision)
	}
	if c.Logging.Level != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level)); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
		}
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("%w: logging.format %q", ErrInvalidFormat, c.Logging.Format)
	}
	if err := c.Factors.Validate(); err != nil {
		return fmt.Errorf("factors: %w", err)
	}
	if c.Submission.Endpoint != "" {
		u, err := url.Parse(c.Submission.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidEndpoint, c.Submission.Endpoint)
		}
	}
	if c.Submission.TimeoutSeconds <= 0 || c.Submission.MaxRetries < 0 {
		return fmt.Errorf("%w: timeout_seconds=%d max_retries=%d",
			ErrInvalidSubmission, c.Submission.TimeoutSeconds, c.Submission.MaxRetries)
	}
	if c.Server.CacheEntries < 0 {
		return fmt.Errorf("server.cache_entries must be >= 0, got %d", c.Server.CacheEntries)
	}
	return nil
}

func validateVersion(v string) error {
	if v == "" {
		return nil
	}
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrUnsupportedVersion, v, err)
	}
	current := semver.MustParse(CurrentVersion)
	if parsed.Major() != current.Major() {
		return fmt.Errorf("%w: %s (expected %d.x)", ErrUnsupportedVersion, v, current.Major())
	}
	return nil
}

// openMaps are dotted paths whose children are free-form map keys.
//
//nolint:gochecknoglobals // Read-only lookup table.
var openMaps = []string{
	"factors.device_power_draw",
	"factors.streaming_data_rate.tiers",
	"factors.ai_query_intensity.by_type",
}

// Get returns the value at a dotted key such as "output.precision" or
// "factors.device_power_draw.Laptop". Sections are rendered as YAML.
func (c *Config) Get(key string) (string, error) {
	tree, err := c.tree()
	if err != nil {
		return "", err
	}

	var node any = tree
	for _, part := range strings.Split(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		if node, ok = m[part]; !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
	}

	if _, isSection := node.(map[string]any); isSection {
		out, marshalErr := yaml.Marshal(node)
		if marshalErr != nil {
			return "", marshalErr
		}
		return strings.TrimRight(string(out), "\n"), nil
	}
	return cast.ToStringE(node)
}

// Set assigns a scalar at a dotted key. The value is parsed as YAML, so
// "4" becomes a number and "true" a boolean. The result must still decode
// into Config.
func (c *Config) Set(key, value string) error {
	tree, err := c.tree()
	if err != nil {
		return err
	}

	parts := strings.Split(key, ".")
	parent := tree
	for i, part := range parts[:len(parts)-1] {
		child, ok := parent[part].(map[string]any)
		if !ok {
			if !slices.Contains(openMaps, strings.Join(parts[:i+1], ".")) {
				return fmt.Errorf("%w: %s", ErrUnknownKey, key)
			}
			child = map[string]any{}
			parent[part] = child
		}
		parent = child
	}

	leaf := parts[len(parts)-1]
	current, exists := parent[leaf]
	if !exists && !slices.Contains(openMaps, strings.Join(parts[:len(parts)-1], ".")) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if _, isSection := current.(map[string]any); isSection {
		return fmt.Errorf("%w: %s is a section, set one of its keys", ErrUnknownKey, key)
	}

	var parsed any
	if err = yaml.Unmarshal([]byte(value), &parsed); err != nil || parsed == nil {
		parsed = value
	}
	if _, isString := current.(string); isString {
		parsed = value
	}
	parent[leaf] = parsed

	data, err := yaml.Marshal(tree)
	if err != nil {
		return err
	}
	next := &Config{}
	if err = yaml.Unmarshal(data, next); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	next.path = c.path
	*c = *next
	return nil
}

// List returns every leaf key with its value, sorted by key.
func (c *Config) List() ([][2]string, error) {
	tree, err := c.tree()
	if err != nil {
		return nil, err
	}
	var out [][2]string
	flatten("", tree, &out)
	slices.SortFunc(out, func(a, b [2]string) int { return strings.Compare(a[0], b[0]) })
	return out, nil
}

func flatten(prefix string, node map[string]any, out *[][2]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if m, ok := v.(map[string]any); ok {
			flatten(key, m, out)
			continue
		}
		*out = append(*out, [2]string{key, cast.ToString(v)})
	}
}

// tree renders the config as nested maps keyed by YAML field names.
func (c *Config) tree() (map[string]any, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err = yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// ConfigPath returns the path of the user config file.
func ConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

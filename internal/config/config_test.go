package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/bytecarbon/internal/footprint"
)

// stubHome points BYTECARBON_HOME at a temp dir so tests never touch the
// real user config.
func stubHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(EnvHome, dir)
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogFormat, "")
	t.Setenv(EnvEndpoint, "")
	t.Setenv(EnvCarbonPrice, "")
	return dir
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, FormatTable, cfg.Output.DefaultFormat)
	assert.Equal(t, 2, cfg.Output.Precision)
	assert.Equal(t, footprint.DefaultFactors(), cfg.Factors)
}

func TestNew_WithoutFileUsesDefaults(t *testing.T) {
	dir := stubHome(t)

	cfg := New()

	assert.Equal(t, filepath.Join(dir, "config.yaml"), cfg.Path())
	assert.Equal(t, Default().Factors, cfg.Factors)
}

func TestNew_KeepsLoadErrors(t *testing.T) {
	t.Run("missing file is not an error", func(t *testing.T) {
		stubHome(t)
		require.NoError(t, New().LoadError())
	})

	t.Run("malformed carbon price", func(t *testing.T) {
		stubHome(t)
		t.Setenv(EnvCarbonPrice, "cheap")

		cfg := New()

		require.Error(t, cfg.LoadError())
		assert.Contains(t, cfg.LoadError().Error(), EnvCarbonPrice)
		assert.InDelta(t, footprint.DefaultFactors().CarbonPrice, cfg.Factors.CarbonPrice, 1e-12)
	})

	t.Run("unparsable config file", func(t *testing.T) {
		dir := stubHome(t)
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("output: [\n"), 0600))

		cfg := New()

		require.Error(t, cfg.LoadError())
		assert.Contains(t, cfg.LoadError().Error(), "parsing config")
		assert.Equal(t, path, cfg.Path())
		assert.Equal(t, Default().Output, cfg.Output)
	})

	t.Run("both are reported", func(t *testing.T) {
		dir := stubHome(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("output: [\n"), 0600))
		t.Setenv(EnvCarbonPrice, "cheap")

		err := New().LoadError()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing config")
		assert.Contains(t, err.Error(), EnvCarbonPrice)
	})
}

func TestSaveAndLoad(t *testing.T) {
	stubHome(t)

	cfg := New()
	cfg.Output.DefaultFormat = FormatJSON
	cfg.Factors.GridIntensity = 0.42
	cfg.Factors.DevicePowerDraw["EReader"] = 2
	require.NoError(t, cfg.Save())

	loaded, err := Load(cfg.Path())
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, loaded.Output.DefaultFormat)
	assert.InDelta(t, 0.42, loaded.Factors.GridIntensity, 1e-12)
	assert.InDelta(t, 2.0, loaded.Factors.DevicePowerDraw["EReader"], 1e-12)

	again := New()
	assert.Equal(t, FormatJSON, again.Output.DefaultFormat)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
factors:
  device_power_draw:
    Laptop: 65
server:
  address: ":9090"
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.InDelta(t, 65.0, cfg.Factors.DevicePowerDraw["Laptop"], 1e-12)
	assert.InDelta(t, 200.0, cfg.Factors.DevicePowerDraw["Desktop"], 1e-12)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 256, cfg.Server.CacheEntries)
	assert.Equal(t, path, cfg.Path())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: [\n"), 0600))
	_, err = Load(path)
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	stubHome(t)
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvEndpoint, "https://collector.example.org/submit")
	t.Setenv(EnvCarbonPrice, " 190 ")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "https://collector.example.org/submit", cfg.Submission.Endpoint)
	assert.InDelta(t, 190.0, cfg.Factors.CarbonPrice, 1e-12)

	t.Setenv(EnvCarbonPrice, "cheap")
	require.Error(t, Default().ApplyEnv())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"bad version", func(c *Config) { c.Version = "not-semver" }, ErrUnsupportedVersion},
		{"future major", func(c *Config) { c.Version = "2.0.0" }, ErrUnsupportedVersion},
		{"minor bump ok", func(c *Config) { c.Version = "1.4.0" }, nil},
		{"format", func(c *Config) { c.Output.DefaultFormat = "xml" }, ErrInvalidFormat},
		{"precision", func(c *Config) { c.Output.Precision = 9 }, ErrInvalidPrecision},
		{"log level", func(c *Config) { c.Logging.Level = "chatty" }, ErrInvalidLogLevel},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, ErrInvalidFormat},
		{"factors", func(c *Config) { c.Factors.GridIntensity = -1 }, footprint.ErrNegativeFactor},
		{"endpoint scheme", func(c *Config) { c.Submission.Endpoint = "ftp://x" }, ErrInvalidEndpoint},
		{"endpoint ok", func(c *Config) { c.Submission.Endpoint = "http://localhost:3000/api" }, nil},
		{"timeout", func(c *Config) { c.Submission.TimeoutSeconds = 0 }, ErrInvalidSubmission},
		{"retries", func(c *Config) { c.Submission.MaxRetries = -1 }, ErrInvalidSubmission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	got, err := cfg.Get("output.precision")
	require.NoError(t, err)
	assert.Equal(t, "2", got)

	require.NoError(t, cfg.Set("output.precision", "4"))
	assert.Equal(t, 4, cfg.Output.Precision)

	require.NoError(t, cfg.Set("factors.grid_intensity", "0.5"))
	assert.InDelta(t, 0.5, cfg.Factors.GridIntensity, 1e-12)

	require.NoError(t, cfg.Set("factors.device_power_draw.EReader", "2"))
	assert.InDelta(t, 2.0, cfg.Factors.DevicePowerDraw["EReader"], 1e-12)
	got, err = cfg.Get("factors.device_power_draw.EReader")
	require.NoError(t, err)
	assert.Equal(t, "2", got)

	require.NoError(t, cfg.Set("logging.file", "/tmp/bytecarbon.log"))
	assert.Equal(t, "/tmp/bytecarbon.log", cfg.Logging.File)

	require.NoError(t, cfg.Set("factors.currency", "123"))
	assert.Equal(t, "123", cfg.Factors.Currency, "string fields keep the literal text")

	section, err := cfg.Get("server")
	require.NoError(t, err)
	assert.Contains(t, section, "cache_entries: 256")
}

func TestGetSet_Errors(t *testing.T) {
	cfg := Default()

	_, err := cfg.Get("output.colour")
	require.ErrorIs(t, err, ErrUnknownKey)
	_, err = cfg.Get("output.precision.digits")
	require.ErrorIs(t, err, ErrUnknownKey)

	require.ErrorIs(t, cfg.Set("plugins.aws", "x"), ErrUnknownKey)
	require.ErrorIs(t, cfg.Set("output.colour", "red"), ErrUnknownKey)
	require.ErrorIs(t, cfg.Set("output", "json"), ErrUnknownKey)
	require.Error(t, cfg.Set("output.precision", "many"))
	assert.Equal(t, 2, cfg.Output.Precision, "failed Set leaves config unchanged")
}

func TestList(t *testing.T) {
	entries, err := Default().List()
	require.NoError(t, err)

	keys := make(map[string]string, len(entries))
	for _, e := range entries {
		keys[e[0]] = e[1]
	}
	assert.Equal(t, "table", keys["output.default_format"])
	assert.Equal(t, "5", keys["factors.device_power_draw.Smartphone"])
	assert.Equal(t, "weekly", keys["factors.annualization"])
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1][0], entries[i][0])
	}
}

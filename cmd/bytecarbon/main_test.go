package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/bytecarbon/internal/cli"
	"github.com/rshade/bytecarbon/internal/config"
)

func setupMainTest(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	t.Setenv(config.EnvLogLevel, "error")
	t.Cleanup(config.ResetGlobalConfigForTest)
	return home
}

func TestRun_ExitCodes(t *testing.T) {
	dir := setupMainTest(t)

	noConsent := filepath.Join(dir, "form.json")
	require.NoError(t, os.WriteFile(noConsent, []byte(`{"smartphoneCount": 1}`), 0o644))

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"version", []string{"--version"}, cli.ExitOK},
		{"estimate", []string{"estimate", noConsent, "--output", "json"}, cli.ExitOK},
		{"unknown command", []string{"frobnicate"}, cli.ExitInput},
		{"missing form", []string{"estimate", filepath.Join(dir, "missing.json")}, cli.ExitInput},
		{
			"submit without consent",
			[]string{"submit", "--form", noConsent, "--endpoint", "http://127.0.0.1:1", "--yes"},
			cli.ExitConsent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, run(context.Background(), tt.args))
		})
	}
}

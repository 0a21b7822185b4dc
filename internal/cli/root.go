package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/bytecarbon/internal/config"
	"github.com/rshade/bytecarbon/internal/logging"
)

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the bytecarbon CLI.
// It loads configuration, wires up logging, tracing and audit logging, and
// registers every subcommand.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:          "bytecarbon",
		Short:        "Digital carbon footprint calculator",
		Long:         "bytecarbon: Estimate the annual CO2 of device use, data transfer and AI services from a questionnaire",
		Version:      ver,
		Example:      rootCmdExample,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(cmd); err != nil {
				return inputError(err)
			}
			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, logResult)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "overlay config file merged onto ~/.bytecarbon/config.yaml")

	cmd.AddCommand(
		NewEstimateCmd(), NewConvertCmd(), NewExportCmd(), NewSubmitCmd(),
		NewTablesCmd(), NewServeCmd(), newConfigCmd(),
	)

	return cmd
}

const rootCmdExample = `  # Estimate a completed questionnaire
  bytecarbon estimate form.json

  # Estimate several forms at once as JSON
  bytecarbon estimate alice.json bob.yaml --output json

  # Try a what-if change without editing the file
  bytecarbon estimate form.json --set laptopHours=2

  # Explore changes interactively
  bytecarbon estimate form.json --interactive

  # Price 113.57 kg CO2 at 80 EUR per tonne
  bytecarbon convert --kg 113.57 --price 80 --currency EUR

  # Write an export record and submit it
  bytecarbon export --form form.json --dir exports
  bytecarbon submit --record exports/survey_P1709993107123.json

  # Serve the HTTP API
  bytecarbon serve --addr :8080`

// loadConfig builds the active configuration from defaults, the user config
// file, the environment and the --config overlay.
func loadConfig(cmd *cobra.Command) error {
	cfg := config.New()

	overlay, _ := cmd.Flags().GetString("config")
	if overlay != "" {
		if err := config.ShallowMergeYAML(cfg, overlay); err != nil {
			return fmt.Errorf("loading --config: %w", err)
		}
	}

	config.SetGlobalConfig(cfg)
	return nil
}

// activeConfig returns the loaded configuration after validating it. Errors
// from reading the config file or the environment are reported here, so that
// "config init" and "config set" can still repair a broken file.
func activeConfig() (*config.Config, error) {
	cfg := config.GetGlobalConfig()
	if err := cfg.LoadError(); err != nil {
		return nil, inputError(fmt.Errorf("loading configuration: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, inputError(fmt.Errorf("invalid configuration: %w", err))
	}
	return cfg, nil
}

// newConfigCmd creates the config command group with configuration subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(
		NewConfigInitCmd(), NewConfigSetCmd(), NewConfigGetCmd(),
		NewConfigListCmd(), NewConfigValidateCmd(),
	)
	return cmd
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rshade/bytecarbon/internal/config"
)

// NewConfigValidateCmd creates the config validate command for validating configuration.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the configuration file at ~/.bytecarbon/config.yaml for syntax and
semantic correctness.

This includes:
- YAML syntax
- Config version compatibility
- Output and logging formats
- Emission factors (non-negative, finite, known annualization and AI model)
- Submission endpoint URL`,
		Example: `  # Validate current configuration
  bytecarbon config validate

  # Validate and show detailed information
  bytecarbon config validate --verbose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate(cmd, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")

	return cmd
}

// runConfigValidate executes the configuration validation logic.
func runConfigValidate(cmd *cobra.Command, verbose bool) error {
	path, err := config.ConfigPath()
	if err != nil {
		return inputError(err)
	}

	cfg := config.Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if cfg, err = config.Load(path); err != nil {
			return inputError(fmt.Errorf("configuration validation failed: %w", err))
		}
	} else {
		cmd.Printf("No configuration file at %s, validating defaults\n", path)
	}

	if err = cfg.ApplyEnv(); err != nil {
		return inputError(fmt.Errorf("configuration validation failed: %w", err))
	}
	if err = cfg.Validate(); err != nil {
		return inputError(fmt.Errorf("configuration validation failed: %w", err))
	}

	cmd.Printf("✅ Configuration is valid\n")

	if verbose {
		printVerboseDetails(cmd, cfg)
	}

	return nil
}

// printVerboseDetails prints detailed configuration information.
func printVerboseDetails(cmd *cobra.Command, cfg *config.Config) {
	cmd.Println()
	cmd.Println("Configuration details:")
	cmd.Printf("  Output format: %s\n", cfg.Output.DefaultFormat)
	cmd.Printf("  Output precision: %d\n", cfg.Output.Precision)
	cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
	cmd.Printf("  Log file: %s\n", cfg.Logging.File)
	cmd.Printf("  Grid intensity: %g kg CO2/kWh\n", cfg.Factors.GridIntensity)
	cmd.Printf("  Carbon price: %g %s per tonne (x%g)\n",
		cfg.Factors.CarbonPrice, cfg.Factors.Currency, cfg.Factors.SocialCostMultiplier)
	cmd.Printf("  Annualization: %s, AI model: %s\n", cfg.Factors.Annualization, cfg.Factors.AIModel)

	if cfg.Submission.Endpoint != "" {
		cmd.Printf("  Submission endpoint: %s\n", cfg.Submission.Endpoint)
	} else {
		cmd.Println("  No submission endpoint configured")
	}
}

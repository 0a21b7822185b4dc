package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rshade/bytecarbon/internal/config"
)

// NewConfigInitCmd creates the config init command for initializing configuration.
func NewConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Long: `Creates ~/.bytecarbon/config.yaml (or $BYTECARBON_HOME/config.yaml) with the
built-in defaults, including every emission factor.`,
		Example: `  # Create configuration
  bytecarbon config init

  # Create configuration, overwriting existing
  bytecarbon config init --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")

	return cmd
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	path, err := config.ConfigPath()
	if err != nil {
		return inputError(err)
	}

	if !force {
		if _, statErr := os.Stat(path); statErr == nil {
			return inputError(errors.New("configuration file already exists, use --force to overwrite"))
		} else if !os.IsNotExist(statErr) {
			return inputError(fmt.Errorf("cannot access config path %s: %w", path, statErr))
		}
	}

	cfg := config.Default()
	cfg.SetPath(path)
	if err = cfg.Save(); err != nil {
		return inputError(fmt.Errorf("failed to save configuration: %w", err))
	}

	cmd.Printf("Configuration initialized successfully\n")
	cmd.Printf("Configuration file: %s\n", path)

	return nil
}

package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rshade/bytecarbon/internal/config"
)

// NewConfigGetCmd creates the config get command.
func NewConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a configuration value",
		Long: `Print the effective value of a dotted configuration key, after the config file,
environment variables and --config overlay have been applied. Sections are
printed as YAML.`,
		Example: `  bytecarbon config get output.precision
  bytecarbon config get factors.device_power_draw.Laptop
  bytecarbon config get factors`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := config.GetGlobalConfig().Get(args[0])
			if err != nil {
				return inputError(err)
			}
			cmd.Println(value)
			return nil
		},
	}
}

// NewConfigSetCmd creates the config set command.
func NewConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a dotted configuration key in the config file. The value is parsed as YAML,
so numbers and booleans keep their type. The file is only written when the
result is a valid configuration.`,
		Example: `  bytecarbon config set output.default_format json
  bytecarbon config set factors.grid_intensity 0.233
  bytecarbon config set factors.device_power_draw.Console 150
  bytecarbon config set submission.endpoint https://collector.example.org/api/v1/submissions`,
		Args: cobra.ExactArgs(2), //nolint:mnd // key and value
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigFile()
			if err != nil {
				return inputError(err)
			}
			if err = cfg.Set(args[0], args[1]); err != nil {
				return inputError(err)
			}
			if err = cfg.Validate(); err != nil {
				return inputError(fmt.Errorf("not saved: %w", err))
			}
			if err = cfg.Save(); err != nil {
				return inputError(err)
			}
			cmd.Printf("Set %s = %s in %s\n", args[0], args[1], cfg.Path())
			return nil
		},
	}
}

// NewConfigListCmd creates the config list command.
func NewConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every configuration value",
		Example: `  bytecarbon config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := config.GetGlobalConfig().List()
			if err != nil {
				return inputError(err)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, tabPadding, ' ', 0)
			for _, kv := range entries {
				fmt.Fprintf(w, "%s\t%s\n", kv[0], kv[1])
			}
			return w.Flush()
		},
	}
}

// loadConfigFile reads the user config file without environment overrides,
// or the defaults when no file exists yet.
func loadConfigFile() (*config.Config, error) {
	path, err := config.ConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
		cfg.SetPath(path)
		return cfg, nil
	}
	return cfg, err
}

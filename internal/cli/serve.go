package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rshade/bytecarbon/internal/server"
)

// NewServeCmd creates the "serve" command.
func NewServeCmd() *cobra.Command {
	var (
		addr        string
		factorsPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the estimation HTTP API",
		Long: `Serve the JSON API under /api/v1: health, factors, tables, estimate and
submissions. Submissions are validated and recomputed but never stored.
The server stops gracefully on SIGINT or SIGTERM.`,
		Example: `  bytecarbon serve
  bytecarbon serve --addr 127.0.0.1:9090 --factors eu-grid.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := activeConfig()
			if err != nil {
				return err
			}
			factors, err := resolveFactors(cfg, factorsPath)
			if err != nil {
				return inputError(err)
			}
			if addr == "" {
				addr = cfg.Server.Address
			}

			srv, err := server.New(server.Options{
				Factors:      factors,
				CacheEntries: cfg.Server.CacheEntries,
				Logger:       logger,
			})
			if err != nil {
				return inputError(err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: configured server.address)")
	cmd.Flags().StringVar(&factorsPath, "factors", "", "YAML file of emission factors merged onto the config")
	return cmd
}

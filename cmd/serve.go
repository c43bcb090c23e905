// File: cmd/serve.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Hamza-bouzid/pagine-bianche/internal/observability"
	"github.com/Hamza-bouzid/pagine-bianche/internal/progress"
	"github.com/Hamza-bouzid/pagine-bianche/internal/server"
	"github.com/Hamza-bouzid/pagine-bianche/internal/service"
)

// Per-client progress buffer; events beyond it are dropped for that client.
const progressBuffer = 64

func newServeCmd() *cobra.Command {
	var addr string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serves the scraping API and progress stream for a UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ServerCfg.Addr = addr
			}

			logger := observability.GetLogger()
			opener, err := service.NewOpener(cfg, "", logger)
			if err != nil {
				return err
			}

			hub := progress.NewHub(logger, progressBuffer)
			svc, err := service.NewScrapeService(cfg, opener, progress.Multi(progress.Log(logger), hub), logger)
			if err != nil {
				return err
			}
			return server.NewServer(cfg.Server(), svc, hub, logger).Start(cmd.Context())
		},
	}

	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return serveCmd
}

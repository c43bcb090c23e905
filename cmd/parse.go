// File: cmd/parse.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Hamza-bouzid/pagine-bianche/api/schemas"
	"github.com/Hamza-bouzid/pagine-bianche/internal/observability"
	"github.com/Hamza-bouzid/pagine-bianche/internal/service"
)

// newParseCmd extracts contacts from a results page saved to disk. No network
// access is made and reveal controls are not scripted, so phones that were
// still cloaked when the page was saved come out as unavailable.
func newParseCmd() *cobra.Command {
	var flags runFlags

	parseCmd := &cobra.Command{
		Use:   "parse <file.html> <query> <location>",
		Short: "Extracts contacts from a saved results page",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			flags.apply(cfg)
			cfg.SetBrowserEngine(service.EngineFile)

			logger := observability.GetLogger()
			opener, err := service.NewOpener(cfg, args[0], logger)
			if err != nil {
				return err
			}
			q := schemas.SearchQuery{Term: args[1], Location: args[2]}
			return runScrape(cmd, cfg, opener, q, flags.jsonOut, logger)
		},
	}

	flags.register(parseCmd)
	return parseCmd
}

// File: cmd/scrape.go
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Hamza-bouzid/pagine-bianche/api/schemas"
	"github.com/Hamza-bouzid/pagine-bianche/internal/browser/dom"
	"github.com/Hamza-bouzid/pagine-bianche/internal/config"
	"github.com/Hamza-bouzid/pagine-bianche/internal/observability"
	"github.com/Hamza-bouzid/pagine-bianche/internal/progress"
	"github.com/Hamza-bouzid/pagine-bianche/internal/service"
)

// runFlags are the overrides shared by the commands that perform a run.
type runFlags struct {
	outputDir string
	jsonOut   bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", "", "directory for the generated CSV (overrides export.output_dir)")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "print the run result as JSON")
}

func (f *runFlags) apply(cfg config.Interface) {
	if f.outputDir != "" {
		cfg.SetExportOutputDir(f.outputDir)
	}
}

func newScrapeCmd() *cobra.Command {
	var (
		flags    runFlags
		engine   string
		execPath string
		headless bool
	)

	scrapeCmd := &cobra.Command{
		Use:   "scrape <query> <location>",
		Short: "Searches paginebianche.it and exports the listed contacts to CSV",
		Example: `  pagine-bianche scrape pizzeria Milano
  pagine-bianche scrape idraulico Roma --headless=false -o ./out`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			flags.apply(cfg)
			if engine != "" {
				cfg.SetBrowserEngine(engine)
			}
			if execPath != "" {
				cfg.SetBrowserExecPath(execPath)
			}
			if cmd.Flags().Changed("headless") {
				cfg.SetBrowserHeadless(headless)
			}

			logger := observability.GetLogger()
			opener, err := service.NewOpener(cfg, "", logger)
			if err != nil {
				return err
			}
			q := schemas.SearchQuery{Term: args[0], Location: args[1]}
			return runScrape(cmd, cfg, opener, q, flags.jsonOut, logger)
		},
	}

	flags.register(scrapeCmd)
	scrapeCmd.Flags().StringVar(&engine, "engine", "", "page backend: chrome, http (overrides browser.engine)")
	scrapeCmd.Flags().StringVar(&execPath, "exec-path", "", "path to the Chrome binary (overrides browser.exec_path)")
	scrapeCmd.Flags().BoolVar(&headless, "headless", true, "run the browser without a window (overrides browser.headless)")
	return scrapeCmd
}

// runScrape performs one run, streaming progress to the command's output.
func runScrape(cmd *cobra.Command, cfg config.Interface, opener dom.PageOpener, q schemas.SearchQuery, jsonOut bool, logger *zap.Logger) error {
	out := cmd.OutOrStdout()

	reporters := []progress.Reporter{progress.Log(logger)}
	if !jsonOut {
		reporters = append(reporters, printer(out))
	}

	svc, err := service.NewScrapeService(cfg, opener, progress.Multi(reporters...), logger)
	if err != nil {
		return err
	}

	result := svc.Run(cmd.Context(), q)
	if jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
	}
	if !result.Success {
		return errors.New(result.Error)
	}
	if !jsonOut {
		fmt.Fprintf(out, "Saved %d contacts to %s\n", result.Records, result.FilePath)
	}
	return nil
}

// printer writes each progress message on its own line.
func printer(w io.Writer) progress.Reporter {
	return progress.Func(func(ev schemas.ProgressEvent) {
		fmt.Fprintln(w, ev.Message)
	})
}

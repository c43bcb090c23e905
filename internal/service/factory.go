// File: internal/service/factory.go
package service

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Hamza-bouzid/pagine-bianche/internal/browser"
	"github.com/Hamza-bouzid/pagine-bianche/internal/browser/dom"
	"github.com/Hamza-bouzid/pagine-bianche/internal/browser/static"
	"github.com/Hamza-bouzid/pagine-bianche/internal/config"
	"github.com/Hamza-bouzid/pagine-bianche/internal/export"
	"github.com/Hamza-bouzid/pagine-bianche/internal/network"
	"github.com/Hamza-bouzid/pagine-bianche/internal/progress"
	"github.com/Hamza-bouzid/pagine-bianche/internal/scraper"
)

// Page backends.
const (
	EngineChrome = "chrome"
	EngineHTTP   = "http"
	EngineFile   = "file"
)

// NewOpener translates the configured engine into a page backend. The file
// engine needs the path of a saved results page in source.
func NewOpener(cfg config.Interface, source string, logger *zap.Logger) (dom.PageOpener, error) {
	engine := strings.ToLower(strings.TrimSpace(cfg.Browser().Engine))
	switch engine {
	case "", EngineChrome:
		return browser.NewLauncher(cfg, logger), nil
	case EngineHTTP:
		clientCfg, err := network.ClientConfigFromNetwork(cfg.Network(), logger)
		if err != nil {
			return nil, err
		}
		return static.New(static.HTTPLoader(network.NewClient(clientCfg), requestHeaders(cfg)), logger), nil
	case EngineFile:
		if source == "" {
			return nil, fmt.Errorf("engine %q requires an input file", EngineFile)
		}
		return static.New(static.FileLoader(source), logger), nil
	default:
		return nil, fmt.Errorf("unknown browser engine %q (expected %s, %s or %s)", engine, EngineChrome, EngineHTTP, EngineFile)
	}
}

// requestHeaders merges the configured user agent with any extra headers.
func requestHeaders(cfg config.Interface) map[string]string {
	headers := make(map[string]string, len(cfg.Network().Headers)+1)
	if ua := cfg.Browser().UserAgent; ua != "" {
		headers["User-Agent"] = ua
	}
	for k, v := range cfg.Network().Headers {
		headers[k] = v
	}
	return headers
}

// NewScrapeService wires the extraction pipeline and the CSV exporter behind a Service.
func NewScrapeService(cfg config.Interface, opener dom.PageOpener, reporter progress.Reporter, logger *zap.Logger) (*Service, error) {
	exporter, err := export.NewCSVExporter(cfg.Export(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize exporter: %w", err)
	}
	orchestrator := scraper.NewOrchestrator(opener, cfg.Scraper(), logger)
	return New(orchestrator, exporter, reporter, cfg.Scraper().RunTimeout, logger), nil
}

// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Network() NetworkConfig
	Scraper() ScraperConfig
	Export() ExportConfig
	Server() ServerConfig

	// Browser Setters
	SetBrowserEngine(string)
	SetBrowserHeadless(bool)
	SetBrowserExecPath(string)

	// Export Setters
	SetExportOutputDir(string)
}

// Config holds the entire application configuration.
// Sections are exported for viper's decoder and read through the Interface getters.
type Config struct {
	LoggerCfg  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	BrowserCfg BrowserConfig `mapstructure:"browser" yaml:"browser"`
	NetworkCfg NetworkConfig `mapstructure:"network" yaml:"network"`
	ScraperCfg ScraperConfig `mapstructure:"scraper" yaml:"scraper"`
	ExportCfg  ExportConfig  `mapstructure:"export" yaml:"export"`
	ServerCfg  ServerConfig  `mapstructure:"server" yaml:"server"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig   { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig { return c.BrowserCfg }
func (c *Config) Network() NetworkConfig { return c.NetworkCfg }
func (c *Config) Scraper() ScraperConfig { return c.ScraperCfg }
func (c *Config) Export() ExportConfig   { return c.ExportCfg }
func (c *Config) Server() ServerConfig   { return c.ServerCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserEngine(e string)     { c.BrowserCfg.Engine = e }
func (c *Config) SetBrowserHeadless(b bool)     { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserExecPath(p string)   { c.BrowserCfg.ExecPath = p }
func (c *Config) SetExportOutputDir(dir string) { c.ExportCfg.OutputDir = dir }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the headless browser instance launched per run.
type BrowserConfig struct {
	// Engine selects the page backend: "chrome" drives a real browser, "http"
	// fetches and parses static HTML, "file" parses a saved page.
	Engine     string   `mapstructure:"engine" yaml:"engine"`
	Headless   bool     `mapstructure:"headless" yaml:"headless"`
	DisableGPU bool     `mapstructure:"disable_gpu" yaml:"disable_gpu"`
	NoSandbox  bool     `mapstructure:"no_sandbox" yaml:"no_sandbox"`
	ExecPath   string   `mapstructure:"exec_path" yaml:"exec_path"`
	UserAgent  string   `mapstructure:"user_agent" yaml:"user_agent"`
	Width      int      `mapstructure:"width" yaml:"width"`
	Height     int      `mapstructure:"height" yaml:"height"`
	Debug      bool     `mapstructure:"debug" yaml:"debug"`
	Args       []string `mapstructure:"args" yaml:"args"`
}

// NetworkConfig tunes page loading.
type NetworkConfig struct {
	NavigationTimeout time.Duration     `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration     `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	Headers           map[string]string `mapstructure:"headers" yaml:"headers"`
	// Proxy and IgnoreTLSErrors apply to the http engine. Chrome takes a
	// proxy through browser.args (proxy-server=...).
	Proxy           string `mapstructure:"proxy" yaml:"proxy"`
	IgnoreTLSErrors bool   `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
}

// SelectorConfig lists the structural classes of the target site.
// They are a versionless contract with a live third party page.
type SelectorConfig struct {
	ConsentReject string `mapstructure:"consent_reject" yaml:"consent_reject"`
	LoadMore      string `mapstructure:"load_more" yaml:"load_more"`
	Card          string `mapstructure:"card" yaml:"card"`
	Name          string `mapstructure:"name" yaml:"name"`
	Address       string `mapstructure:"address" yaml:"address"`
	PhoneReveal   string `mapstructure:"phone_reveal" yaml:"phone_reveal"`
	Phone         string `mapstructure:"phone" yaml:"phone"`
}

// ScraperConfig configures the extraction pipeline.
type ScraperConfig struct {
	BaseURL        string         `mapstructure:"base_url" yaml:"base_url"`
	SearchPath     string         `mapstructure:"search_path" yaml:"search_path"`
	ConsentTimeout time.Duration  `mapstructure:"consent_timeout" yaml:"consent_timeout"`
	RevealTimeout  time.Duration  `mapstructure:"reveal_timeout" yaml:"reveal_timeout"`
	LoadMoreSettle time.Duration  `mapstructure:"load_more_settle" yaml:"load_more_settle"`
	PollInterval   time.Duration  `mapstructure:"poll_interval" yaml:"poll_interval"`
	RunTimeout     time.Duration  `mapstructure:"run_timeout" yaml:"run_timeout"`
	Selectors      SelectorConfig `mapstructure:"selectors" yaml:"selectors"`
}

// ExportConfig configures the delimited table writer.
type ExportConfig struct {
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	WriteBOM  bool   `mapstructure:"write_bom" yaml:"write_bom"`
}

// ServerConfig configures the HTTP shell used by UI callers.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "pagine-bianche")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.engine", "chrome")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_gpu", true)
	v.SetDefault("browser.no_sandbox", true)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("browser.width", 1366)
	v.SetDefault("browser.height", 900)
	v.SetDefault("browser.debug", false)

	// -- Network --
	v.SetDefault("network.navigation_timeout", "60s")
	v.SetDefault("network.post_load_wait", "1s")
	v.SetDefault("network.proxy", "")
	v.SetDefault("network.ignore_tls_errors", false)

	// -- Scraper --
	v.SetDefault("scraper.base_url", "https://www.paginebianche.it")
	v.SetDefault("scraper.search_path", "/ricerca")
	v.SetDefault("scraper.consent_timeout", "5s")
	v.SetDefault("scraper.reveal_timeout", "5s")
	v.SetDefault("scraper.load_more_settle", "1500ms")
	v.SetDefault("scraper.poll_interval", "100ms")
	v.SetDefault("scraper.run_timeout", "10m")
	v.SetDefault("scraper.selectors.consent_reject", ".ubl-cst__btn--reject")
	v.SetDefault("scraper.selectors.load_more", ".click-load-others")
	v.SetDefault("scraper.selectors.card", ".list-element--free")
	v.SetDefault("scraper.selectors.name", ".list-element__title")
	v.SetDefault("scraper.selectors.address", ".list-element__address")
	v.SetDefault("scraper.selectors.phone_reveal", ".phone-numbers__cloak.btn")
	v.SetDefault("scraper.selectors.phone", ".tel")

	// -- Export --
	v.SetDefault("export.output_dir", "~/Desktop/csv")
	v.SetDefault("export.delimiter", ",")
	v.SetDefault("export.write_bom", false)

	// -- Server --
	v.SetDefault("server.addr", "127.0.0.1:8787")
	v.SetDefault("server.shutdown_timeout", "15s")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.ScraperCfg.Validate(); err != nil {
		return fmt.Errorf("scraper configuration invalid: %w", err)
	}
	if err := c.ExportCfg.Validate(); err != nil {
		return fmt.Errorf("export configuration invalid: %w", err)
	}
	if c.NetworkCfg.NavigationTimeout <= 0 {
		return errors.New("network.navigation_timeout must be a positive duration")
	}
	if c.ServerCfg.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be a positive duration")
	}
	return nil
}

// Validate checks the scraper settings.
func (s *ScraperConfig) Validate() error {
	if strings.TrimSpace(s.BaseURL) == "" {
		return errors.New("base_url is required")
	}
	if s.ConsentTimeout <= 0 || s.RevealTimeout <= 0 {
		return errors.New("consent_timeout and reveal_timeout must be positive durations")
	}
	if s.PollInterval <= 0 {
		return errors.New("poll_interval must be a positive duration")
	}
	sel := s.Selectors
	if sel.Card == "" || sel.Name == "" || sel.Address == "" {
		return errors.New("selectors.card, selectors.name, and selectors.address are required")
	}
	return nil
}

// Validate checks the export settings.
func (e *ExportConfig) Validate() error {
	if strings.TrimSpace(e.OutputDir) == "" {
		return errors.New("output_dir is required")
	}
	runes := []rune(e.Delimiter)
	if len(runes) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", e.Delimiter)
	}
	if !validDelimiter(runes[0]) {
		return fmt.Errorf("delimiter %q cannot be used in a CSV table", e.Delimiter)
	}
	return nil
}

// validDelimiter mirrors the delimiters accepted by encoding/csv.
func validDelimiter(r rune) bool {
	return r != 0 && r != '"' && r != '\r' && r != '\n' && utf8.ValidRune(r) && r != utf8.RuneError
}

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/wordcount-report/models"
	"github.com/dtnitsch/wordcount-report/pkg/caching"
	"github.com/dtnitsch/wordcount-report/pkg/chart"
	"github.com/dtnitsch/wordcount-report/pkg/db"
	"github.com/dtnitsch/wordcount-report/pkg/fetcher"
	"github.com/dtnitsch/wordcount-report/pkg/source"
	"github.com/dtnitsch/wordcount-report/pkg/wordcount"
)

const defaultXLSXPath = "wordcount-report.xlsx"

var formats = []string{"terminal", "html", "xlsx", "json", "yaml"}

// slabFlags maps report keys to the flag that overrides their slab.
var slabFlags = []struct {
	report string
	flag   string
}{
	{report: "posts", flag: "posts-slab"},
	{report: "pages", flag: "pages-slab"},
}

// ConfigFlags are the flags that shape the effective configuration.
func ConfigFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML or TOML config file (missing file uses built-in defaults)",
			EnvVars: []string{"WCR_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "posts-url",
			Usage:   "Override the posts report URL",
			EnvVars: []string{"WCR_POSTS_URL"},
		},
		&cli.StringFlag{
			Name:    "pages-url",
			Usage:   "Override the pages report URL",
			EnvVars: []string{"WCR_PAGES_URL"},
		},
		&cli.StringFlag{
			Name:    "text-mode",
			Usage:   "How content is counted: raw, text, or article",
			EnvVars: []string{"WCR_TEXT_MODE"},
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Usage:   "Per-request timeout (0 waits indefinitely)",
			EnvVars: []string{"WCR_TIMEOUT"},
		},
		&cli.BoolFlag{
			Name:    "cache",
			Usage:   "Reuse cached API responses younger than --cache-ttl",
			EnvVars: []string{"WCR_CACHE"},
		},
		&cli.StringFlag{
			Name:    "cache-dir",
			Usage:   "Directory for cached API responses",
			EnvVars: []string{"WCR_CACHE_DIR"},
		},
		&cli.DurationFlag{
			Name:  "cache-ttl",
			Usage: "Reuse cached responses younger than this (0 never expires)",
		},
		&cli.StringFlag{
			Name:    "db",
			Usage:   "Fetch log database path",
			EnvVars: []string{"WCR_DB"},
		},
		&cli.BoolFlag{
			Name:  "no-log",
			Usage: "Do not record fetches in the database",
		},
	}
}

// Flags are the flags of the report command.
func Flags() []cli.Flag {
	return append(ConfigFlags(),
		&cli.IntFlag{
			Name:  "posts-slab",
			Usage: "Posts bin width (0-5000, step 500)",
		},
		&cli.IntFlag{
			Name:  "pages-slab",
			Usage: "Pages bin width (0-2000, step 100)",
		},
		&cli.StringFlag{
			Name:  "style",
			Value: "material",
			Usage: "Chart style: material or classic",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Value:   "terminal",
			Usage:   "Output format: " + strings.Join(formats, ", "),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write to file instead of stdout (xlsx defaults to " + defaultXLSXPath + ")",
		},
		&cli.StringFlag{
			Name:  "brand",
			Value: "VdoCipher",
			Usage: "Header text of the HTML page",
		},
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "Always fetch from the network, even when the config enables the cache",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Only log errors",
		},
	)
}

// LoadEffectiveConfig reads the config file and applies flag and
// environment overrides, then validates the result.
func LoadEffectiveConfig(c *cli.Context) (*models.Config, error) {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("posts-url") {
		if r, ok := cfg.Report("posts"); ok {
			r.URL = c.String("posts-url")
		}
	}
	if c.IsSet("pages-url") {
		if r, ok := cfg.Report("pages"); ok {
			r.URL = c.String("pages-url")
		}
	}
	if c.IsSet("text-mode") {
		cfg.TextMode = c.String("text-mode")
	}
	if c.IsSet("timeout") {
		cfg.Fetch.Timeout = models.Duration(c.Duration("timeout"))
	}
	if c.Bool("cache") {
		cfg.Fetch.Cache = true
	}
	if c.IsSet("cache-dir") {
		cfg.Fetch.CacheDir = c.String("cache-dir")
	}
	if c.IsSet("cache-ttl") {
		cfg.Fetch.CacheTTL = models.Duration(c.Duration("cache-ttl"))
	}
	if c.IsSet("db") {
		cfg.Fetch.DBPath = c.String("db")
	}
	if c.Bool("no-log") {
		cfg.Fetch.DisableLog = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applySlabOverrides freezes the user's slab choices into cfg. Any value the
// slider could not produce is rejected.
func applySlabOverrides(c *cli.Context, cfg *models.Config) error {
	for _, sf := range slabFlags {
		if !c.IsSet(sf.flag) {
			continue
		}
		r, ok := cfg.Report(sf.report)
		if !ok {
			return fmt.Errorf("--%s given but no %q report is configured", sf.flag, sf.report)
		}
		updated, err := r.WithSlab(c.Int(sf.flag))
		if err != nil {
			return err
		}
		*r = updated
	}
	return nil
}

func ReportAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: logLevel}))
	startTime := time.Now()

	cfg, err := LoadEffectiveConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	if err := applySlabOverrides(c, cfg); err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	style, err := chart.ParseStyle(c.String("style"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	format := strings.ToLower(c.String("format"))
	if !validFormat(format) {
		return cli.Exit(fmt.Sprintf("Error: unknown format %q (want %s)", format, strings.Join(formats, ", ")), 1)
	}
	mode, err := wordcount.ParseTextMode(cfg.TextMode)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	src, cleanup, err := buildSource(cfg, c.Bool("no-cache"), logger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 2)
	}
	defer cleanup()

	logger.Info("Generating reports", "reports", len(cfg.Reports), "text_mode", mode, "style", style)
	results := Generate(c.Context, logger, src, cfg.Reports, mode)
	output := BuildOutput(results, time.Since(startTime).Seconds())

	if err := writeOutput(c, format, style, results, output); err != nil {
		logger.Error("Failed to write output", "format", format, "error", err)
		return cli.Exit(fmt.Sprintf("Error: %v", err), 2)
	}

	if output.Stats.Failed == output.Stats.TotalReports {
		return cli.Exit("Error: every report failed, see log for details", 1)
	}
	return nil
}

func validFormat(format string) bool {
	for _, f := range formats {
		if f == format {
			return true
		}
	}
	return false
}

// buildSource wires transport, cache and fetch log. Cache or log problems
// are logged and the run continues without them.
func buildSource(cfg *models.Config, noCache bool, logger *slog.Logger) (*source.Source, func(), error) {
	cleanup := func() {}
	opts := []source.Option{source.WithLogger(logger)}

	if cfg.Fetch.Cache && !noCache {
		dir := cfg.Fetch.CacheDir
		if dir == "" {
			var err error
			if dir, err = caching.DefaultDir(); err != nil {
				logger.Warn("Response cache disabled", "error", err)
			}
		}
		if dir != "" {
			cache, err := caching.NewCache(dir, time.Duration(cfg.Fetch.CacheTTL))
			if err != nil {
				logger.Warn("Response cache disabled", "dir", dir, "error", err)
			} else {
				opts = append(opts, source.WithCache(cache))
			}
		}
	}

	if !cfg.Fetch.DisableLog {
		database, err := db.Open(cfg.Fetch.DBPath)
		if err != nil {
			logger.Warn("Fetch log disabled", "error", err)
		} else {
			opts = append(opts, source.WithFetchLog(database))
			cleanup = func() { _ = database.Close() }
		}
	}

	src, err := source.New(fetcher.NewFetcher(time.Duration(cfg.Fetch.Timeout)), cfg.ContentPath, opts...)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return src, cleanup, nil
}

func writeOutput(c *cli.Context, format string, style chart.Style, results []Result, output *FinalOutput) error {
	path := c.String("output")
	if path == "" && format == "xlsx" {
		path = defaultXLSXPath
	}

	var w io.Writer = c.App.Writer
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}

	if err := render(w, format, style, c.String("brand"), results, output); err != nil {
		return err
	}
	if path != "" {
		fmt.Fprintf(c.App.ErrWriter, "Report written to %s\n", path)
	}
	return nil
}

func render(w io.Writer, format string, style chart.Style, brand string, results []Result, output *FinalOutput) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		data, err := yaml.Marshal(output)
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		_, err = w.Write(data)
		return err
	}

	charts := make([]*chart.Chart, len(results))
	for i, r := range results {
		charts[i] = chart.New(r.Config, r.Bucket, style)
	}

	var renderer chart.Renderer
	switch format {
	case "html":
		renderer = &chart.HTMLRenderer{Brand: brand}
	case "xlsx":
		renderer = &chart.XLSXRenderer{}
	default:
		renderer = &chart.TerminalRenderer{}
	}
	return renderer.Render(w, charts)
}

// ConfigAction prints the effective configuration as YAML.
func ConfigAction(c *cli.Context) error {
	cfg, err := LoadEffectiveConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	data, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = c.App.Writer.Write(data)
	return err
}

package report

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dtnitsch/wordcount-report/models"
	"github.com/dtnitsch/wordcount-report/pkg/histogram"
	"github.com/dtnitsch/wordcount-report/pkg/source"
	"github.com/dtnitsch/wordcount-report/pkg/wordcount"
)

// ItemSource lists the items behind a report URL. *source.Source satisfies it.
type ItemSource interface {
	Items(ctx context.Context, report, url string) ([]source.Item, error)
}

// FetchAndBucket fetches the items for cfg and bins their word counts.
// On any failure it logs a single error and returns nil.
func FetchAndBucket(ctx context.Context, logger *slog.Logger, src ItemSource, cfg models.ReportConfig, mode wordcount.TextMode) (bucket *histogram.Bucket) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Report failed", "report", cfg.Key, "url", cfg.URL, "error", fmt.Sprint(r))
			bucket = nil
		}
	}()

	bucket = histogram.GenerateBucket(cfg.Range, cfg.Slab)

	items, err := src.Items(ctx, cfg.Key, cfg.URL)
	if err != nil {
		logger.Error("Failed to fetch report data", "report", cfg.Key, "url", cfg.URL, "error", err)
		return nil
	}

	for _, item := range items {
		words := wordcount.CountContent(item.Content, mode)
		bucket.Increment(histogram.GenerateKey(words, cfg.Range, cfg.Slab))
	}
	logger.Info("Report bucketed", "report", cfg.Key, "items", len(items), "bins", bucket.Len())
	return bucket
}

// Pipeline runs one report from fetch to bucket.
type Pipeline struct {
	Config   models.ReportConfig
	Source   ItemSource
	Logger   *slog.Logger
	TextMode wordcount.TextMode
}

func (p *Pipeline) Run(ctx context.Context) Result {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return Result{
		Config: p.Config,
		Bucket: FetchAndBucket(ctx, logger, p.Source, p.Config, p.TextMode),
	}
}

// Generate runs one pipeline per report concurrently and returns the
// results in the order of configs.
func Generate(ctx context.Context, logger *slog.Logger, src ItemSource, configs []models.ReportConfig, mode wordcount.TextMode) []Result {
	results := make([]Result, len(configs))

	var wg sync.WaitGroup
	for i, cfg := range configs {
		wg.Add(1)
		go func(i int, cfg models.ReportConfig) {
			defer wg.Done()
			p := &Pipeline{Config: cfg, Source: src, Logger: logger, TextMode: mode}
			results[i] = p.Run(ctx)
		}(i, cfg)
	}
	wg.Wait()

	return results
}

package cache

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/wordcount-report/internal/report"
	"github.com/dtnitsch/wordcount-report/pkg/caching"
)

// PurgeAction removes every cached API response.
func PurgeAction(c *cli.Context) error {
	cfg, err := report.LoadEffectiveConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	dir := cfg.Fetch.CacheDir
	if dir == "" {
		if dir, err = caching.DefaultDir(); err != nil {
			return err
		}
	}

	cache, err := caching.NewCache(dir, 0)
	if err != nil {
		return err
	}
	removed, err := cache.Purge()
	if err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Removed %d cached responses from %s\n", removed, cache.Dir())
	return nil
}

package db

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/wordcount-report/internal/report"
	dbpkg "github.com/dtnitsch/wordcount-report/pkg/db"
)

// OpenFromConfig opens the fetch log at the path the effective
// configuration names.
func OpenFromConfig(c *cli.Context) (*dbpkg.DB, error) {
	cfg, err := report.LoadEffectiveConfig(c)
	if err != nil {
		return nil, err
	}
	database, err := dbpkg.Open(cfg.Fetch.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// GetFetchOrLatest returns the fetch named by the first argument, or the
// most recent one if no argument was given.
func GetFetchOrLatest(c *cli.Context, database *dbpkg.DB) (*dbpkg.Fetch, error) {
	if c.NArg() == 0 {
		fetches, err := database.ListFetches(1)
		if err != nil {
			return nil, fmt.Errorf("failed to get latest fetch: %w", err)
		}
		if len(fetches) == 0 {
			return nil, fmt.Errorf("no fetches recorded. Run 'wcr report' first")
		}
		return &fetches[0], nil
	}

	fetchID, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid fetch ID %q: %w", c.Args().First(), err)
	}
	return database.GetFetch(fetchID)
}

package db

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

// FetchesAction lists the most recent entries of the fetch log.
func FetchesAction(c *cli.Context) error {
	database, err := OpenFromConfig(c)
	if err != nil {
		return err
	}
	defer database.Close()

	limit := c.Int("limit")
	fetches, err := database.ListFetches(limit)
	if err != nil {
		return fmt.Errorf("failed to list fetches: %w", err)
	}

	w := c.App.Writer
	if len(fetches) == 0 {
		fmt.Fprintln(w, "No fetches recorded")
		return nil
	}

	fmt.Fprintf(w, "%-6s %-20s %-8s %-6s %-6s %-8s %-16s %s\n",
		"ID", "Fetched", "Report", "Status", "Items", "Time", "Error", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for _, f := range fetches {
		status := fmt.Sprintf("%d", f.StatusCode)
		if f.StatusCode == 0 {
			status = "-"
		}
		elapsed := fmt.Sprintf("%dms", f.DurationMS)
		if f.FromCache {
			elapsed = "cache"
		}
		errType := f.ErrorType
		if errType == "" {
			errType = "-"
		}
		fmt.Fprintf(w, "%-6d %-20s %-8s %-6s %-6d %-8s %-16s %s\n",
			f.FetchID,
			f.FetchedAt.Format("2006-01-02 15:04:05"),
			f.Report,
			status,
			f.ItemCount,
			elapsed,
			errType,
			f.URL,
		)
	}

	fmt.Fprintf(w, "\nTotal: %d fetches\n", len(fetches))
	fmt.Fprintf(w, "Database: %s\n", database.Path())
	return nil
}

// FetchAction shows one fetch log entry in full, or the latest if no ID
// is given.
func FetchAction(c *cli.Context) error {
	database, err := OpenFromConfig(c)
	if err != nil {
		return err
	}
	defer database.Close()

	f, err := GetFetchOrLatest(c, database)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Fetch %d\n", f.FetchID)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Fetched:     %s\n", f.FetchedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Report:      %s\n", f.Report)
	fmt.Fprintf(w, "URL:         %s\n", f.URL)
	fmt.Fprintf(w, "Status:      %d\n", f.StatusCode)
	fmt.Fprintf(w, "Items:       %d\n", f.ItemCount)
	fmt.Fprintf(w, "From cache:  %t\n", f.FromCache)
	fmt.Fprintf(w, "Duration:    %dms\n", f.DurationMS)
	if f.ErrorType != "" {
		fmt.Fprintf(w, "Error:       [%s] %s\n", f.ErrorType, f.ErrorMessage)
	}
	return nil
}

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/wordcount-report/internal/bucket"
	"github.com/dtnitsch/wordcount-report/internal/cache"
	"github.com/dtnitsch/wordcount-report/internal/db"
	"github.com/dtnitsch/wordcount-report/internal/report"
	"github.com/dtnitsch/wordcount-report/pkg/help"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "wcr",
		Usage: "Word count histograms for WordPress posts and pages",
		Commands: []*cli.Command{
			{
				Name:   "report",
				Usage:  "Fetch posts and pages and chart their word counts",
				Flags:  report.Flags(),
				Action: report.ReportAction,
			},
			{
				Name:      "bucket",
				Usage:     "Bin literal word counts without fetching anything",
				ArgsUsage: "[count...]  (reads stdin when no counts are given)",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "range", Aliases: []string{"r"}, Value: 5000, Usage: "Upper bound of the regular bins"},
					&cli.IntFlag{Name: "slab", Aliases: []string{"s"}, Value: 500, Usage: "Bin width"},
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "terminal", Usage: "terminal, json, or yaml"},
					&cli.StringFlag{Name: "style", Value: "material", Usage: "material or classic"},
				},
				Action: bucket.BucketAction,
			},
			{
				Name:  "db",
				Usage: "Inspect the fetch log",
				Subcommands: []*cli.Command{
					{
						Name:  "fetches",
						Usage: "List recent fetches",
						Flags: append(report.ConfigFlags(),
							&cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum rows (0 for all)"},
						),
						Action: db.FetchesAction,
					},
					{
						Name:      "fetch",
						Usage:     "Show one fetch (latest if no ID)",
						ArgsUsage: "[fetch_id]",
						Flags:     report.ConfigFlags(),
						Action:    db.FetchAction,
					},
				},
			},
			{
				Name:  "cache",
				Usage: "Manage cached API responses",
				Subcommands: []*cli.Command{
					{
						Name:   "purge",
						Usage:  "Delete every cached response",
						Flags:  report.ConfigFlags(),
						Action: cache.PurgeAction,
					},
				},
			},
			{
				Name:   "config",
				Usage:  "Print the effective configuration as YAML",
				Flags:  report.ConfigFlags(),
				Action: report.ConfigAction,
			},
			{
				Name:  "coldstart",
				Usage: "Print a quick start guide",
				Action: func(c *cli.Context) error {
					fmt.Fprint(c.App.Writer, help.ColdstartYAML)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
